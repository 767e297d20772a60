/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/pki"
)

func certsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "certs",
		EnableShellCompletion: true,
		Usage:                 "Manage cluster TLS certificates",
		Description: `Manage the TLS certificate material backing cluster encryption: a
per-cluster certificate authority, node certificates with pod DNS SANs,
and the PKCS#12 keystore / JKS truststore Secrets mounted by the pods.`,
		Commands: []*cli.Command{
			certsIssueCmd(),
			certsRotateCmd(),
		},
	}
}

func certsFlags() []cli.Flag {
	return []cli.Flag{
		configFlag,
		namespaceFlag,
		componentFlag,
		&cli.StringFlag{
			Name:  "es-name",
			Usage: "Elasticsearch cluster name",
			Value: "elasticsearch",
		},
		&cli.StringFlag{
			Name:  "kafka-name",
			Usage: "Kafka cluster name",
			Value: "kafka",
		},
		kubeconfigFlag,
	}
}

func certsIssueCmd() *cli.Command {
	return &cli.Command{
		Name:  "issue",
		Usage: "Issue cluster certificates if not present",
		Description: `Issue certificate material for each selected cluster and store it in
Kubernetes Secrets. Clusters that already have certificates are left
untouched; deploy calls this implicitly.

# Examples

Issue certificates for both clusters:
  stackctl certs issue --namespace data

Issue for Kafka only:
  stackctl certs issue --component kafka`,
		Flags: certsFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return forEachClusterSpec(ctx, cmd, func(ctx context.Context, mgr *pki.Manager,
				namespace string, component cluster.Component, spec *cluster.CommonSpec) error {
				issued, err := mgr.EnsureClusterCerts(ctx, namespace, spec)
				if err != nil {
					return err
				}
				if issued {
					slog.Info("certificates issued",
						"component", component,
						"cluster", spec.Name,
						"secret", spec.CertsSecretName())
				} else {
					slog.Info("certificates already present",
						"component", component,
						"cluster", spec.Name,
						"secret", spec.CertsSecretName())
				}
				return nil
			})
		},
	}
}

func certsRotateCmd() *cli.Command {
	return &cli.Command{
		Name:  "rotate",
		Usage: "Rotate cluster certificates",
		Description: `Rotate the certificate authority and node certificates for each selected
cluster. The previous CA stays in the truststore bundle so running pods
keep trusting each other until they restart onto the new material.

Pods pick up rotated Secrets on restart; trigger a rolling restart of the
StatefulSet after rotation.

# Examples

Rotate everything in a namespace:
  stackctl certs rotate --namespace data

Rotate the Elasticsearch cluster only:
  stackctl certs rotate --component elasticsearch`,
		Flags: certsFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return forEachClusterSpec(ctx, cmd, func(ctx context.Context, mgr *pki.Manager,
				namespace string, component cluster.Component, spec *cluster.CommonSpec) error {
				if err := mgr.RotateClusterCerts(ctx, namespace, spec); err != nil {
					return err
				}
				slog.Info("certificates rotated",
					"component", component,
					"cluster", spec.Name,
					"secret", spec.CertsSecretName())
				return nil
			})
		},
	}
}

// forEachClusterSpec runs fn against the common spec of every selected
// component.
func forEachClusterSpec(ctx context.Context, cmd *cli.Command,
	fn func(context.Context, *pki.Manager, string, cluster.Component, *cluster.CommonSpec) error) error {
	cfg, err := statusClusterConfig(cmd)
	if err != nil {
		return err
	}

	clientset, err := newKubeClient(cmd.String("kubeconfig"))
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	mgr := pki.NewManager(clientset)
	for _, component := range cfg.Components() {
		var spec *cluster.CommonSpec
		switch component {
		case cluster.ComponentElasticsearch:
			spec = &cfg.Elasticsearch.CommonSpec
		case cluster.ComponentKafka:
			spec = &cfg.Kafka.CommonSpec
		}
		if err := fn(ctx, mgr, cfg.Namespace, component, spec); err != nil {
			return err
		}
	}
	return nil
}
