/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	corev1 "k8s.io/api/core/v1"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/defaults"
	"github.com/datastackhq/stackctl/pkg/serializer"
)

// clusterFlags returns the flags shared by commands that build a full
// cluster configuration (deploy, render).
func clusterFlags() []cli.Flag {
	return []cli.Flag{
		configFlag,
		namespaceFlag,
		componentFlag,
		&cli.StringFlag{
			Name:  "es-name",
			Usage: "Elasticsearch cluster name, used as the resource name prefix",
			Value: "elasticsearch",
		},
		&cli.IntFlag{
			Name:  "es-replicas",
			Usage: "Elasticsearch node count",
			Value: defaults.ElasticsearchReplicas,
		},
		&cli.StringFlag{
			Name:    "es-version",
			Usage:   "Elasticsearch version",
			Sources: cli.EnvVars("STACKCTL_ES_VERSION"),
			Value:   defaults.ElasticsearchVersion,
		},
		&cli.StringFlag{
			Name:  "es-image",
			Usage: "Override the Elasticsearch container image reference",
		},
		&cli.StringFlag{
			Name:  "es-heap-size",
			Usage: "Elasticsearch JVM heap size, applied to -Xms and -Xmx",
			Value: "1g",
		},
		&cli.StringFlag{
			Name:  "kafka-name",
			Usage: "Kafka cluster name, used as the resource name prefix",
			Value: "kafka",
		},
		&cli.IntFlag{
			Name:  "kafka-replicas",
			Usage: "Kafka broker/controller count (must be odd for KRaft quorum)",
			Value: defaults.KafkaReplicas,
		},
		&cli.StringFlag{
			Name:    "kafka-version",
			Usage:   "Kafka version",
			Sources: cli.EnvVars("STACKCTL_KAFKA_VERSION"),
			Value:   defaults.KafkaVersion,
		},
		&cli.StringFlag{
			Name:  "kafka-image",
			Usage: "Override the Kafka container image reference",
		},
		&cli.StringFlag{
			Name:  "kafka-cluster-id",
			Usage: "KRaft cluster ID, 22 URL-safe base64 characters (generated when empty)",
		},
		&cli.StringFlag{
			Name:  "storage-class",
			Usage: "Storage class for data volume claims (default: cluster default)",
		},
		&cli.StringFlag{
			Name:  "storage-size",
			Usage: "Per-replica persistent volume size",
			Value: defaults.StorageSize,
		},
		&cli.StringSliceFlag{
			Name:  "node-selector",
			Usage: "Node selector for pod scheduling (format: key=value, can be repeated)",
		},
		&cli.StringSliceFlag{
			Name:  "toleration",
			Usage: "Toleration for pod scheduling (format: key=value:effect, can be repeated)",
		},
	}
}

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	format := serializer.Format(cmd.String("format"))
	if format.IsUnknown() {
		return "", fmt.Errorf("unknown output format %q (supported: %s)",
			cmd.String("format"), strings.Join(serializer.SupportedFormats(), ", "))
	}
	return format, nil
}

// parseComponents resolves the --component flag, defaulting to every
// supported component when the flag is not given.
func parseComponents(cmd *cli.Command) ([]cluster.Component, error) {
	raw := cmd.StringSlice("component")
	if len(raw) == 0 {
		return cluster.SupportedComponents(), nil
	}

	components := make([]cluster.Component, 0, len(raw))
	for _, s := range raw {
		c, err := cluster.ParseComponent(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, nil
}

// buildClusterConfig assembles the cluster configuration for a command,
// either from a --config file or from the component flags.
func buildClusterConfig(cmd *cli.Command) (*cluster.Config, error) {
	if path := cmd.String("config"); path != "" {
		return loadClusterConfig(path, cmd.String("namespace"))
	}

	components, err := parseComponents(cmd)
	if err != nil {
		return nil, err
	}

	nodeSelector, err := cluster.ParseNodeSelectors(cmd.StringSlice("node-selector"))
	if err != nil {
		return nil, fmt.Errorf("invalid node-selector: %w", err)
	}

	tolerations, err := cluster.ParseTolerations(cmd.StringSlice("toleration"))
	if err != nil {
		return nil, fmt.Errorf("invalid toleration: %w", err)
	}

	cfg := &cluster.Config{Namespace: cmd.String("namespace")}
	for _, component := range components {
		switch component {
		case cluster.ComponentElasticsearch:
			spec := cluster.DefaultElasticsearchSpec()
			spec.Name = cmd.String("es-name")
			spec.Replicas = int32(cmd.Int("es-replicas"))
			spec.Version = cmd.String("es-version")
			spec.Image = cmd.String("es-image")
			spec.HeapSize = cmd.String("es-heap-size")
			applyCommonFlags(&spec.CommonSpec, cmd, nodeSelector, tolerations)
			cfg.Elasticsearch = spec

		case cluster.ComponentKafka:
			spec := cluster.DefaultKafkaSpec()
			spec.Name = cmd.String("kafka-name")
			spec.Replicas = int32(cmd.Int("kafka-replicas"))
			spec.Version = cmd.String("kafka-version")
			spec.Image = cmd.String("kafka-image")
			if id := cmd.String("kafka-cluster-id"); id != "" {
				spec.ClusterID = id
			}
			applyCommonFlags(&spec.CommonSpec, cmd, nodeSelector, tolerations)
			cfg.Kafka = spec
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyCommonFlags(spec *cluster.CommonSpec, cmd *cli.Command,
	nodeSelector map[string]string, tolerations []corev1.Toleration) {
	spec.StorageClass = cmd.String("storage-class")
	spec.StorageSize = cmd.String("storage-size")
	spec.NodeSelector = nodeSelector
	spec.Tolerations = tolerations
}

// loadClusterConfig reads a cluster configuration file. The file uses the
// same schema as the POST /v1/render API body. The --namespace flag wins
// over the file's namespace only when the file leaves it empty.
func loadClusterConfig(path, fallbackNamespace string) (*cluster.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg cluster.Config
	if err := sigsyaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = fallbackNamespace
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// statusClusterConfig builds a minimal configuration for read-only commands
// (status, certs): component names and namespace only.
func statusClusterConfig(cmd *cli.Command) (*cluster.Config, error) {
	if path := cmd.String("config"); path != "" {
		return loadClusterConfig(path, cmd.String("namespace"))
	}

	components, err := parseComponents(cmd)
	if err != nil {
		return nil, err
	}

	cfg := &cluster.Config{Namespace: cmd.String("namespace")}
	for _, component := range components {
		switch component {
		case cluster.ComponentElasticsearch:
			spec := cluster.DefaultElasticsearchSpec()
			if name := cmd.String("es-name"); name != "" {
				spec.Name = name
			}
			cfg.Elasticsearch = spec
		case cluster.ComponentKafka:
			spec := cluster.DefaultKafkaSpec()
			if name := cmd.String("kafka-name"); name != "" {
				spec.Name = name
			}
			cfg.Kafka = spec
		}
	}
	return cfg, nil
}
