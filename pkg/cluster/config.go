/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package cluster defines the configuration model for the Elasticsearch and
// Kafka clusters managed by stackctl, along with validation and parsing
// helpers shared by the CLI and the API server.
package cluster

import (
	"encoding/base64"
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/distribution/reference"
	"github.com/google/uuid"
	corev1 "k8s.io/api/core/v1"

	"github.com/datastackhq/stackctl/pkg/defaults"
	"github.com/datastackhq/stackctl/pkg/errors"
	"github.com/datastackhq/stackctl/pkg/version"
)

// Component identifies a deployable cluster component.
type Component string

const (
	// ComponentElasticsearch deploys a self-managed Elasticsearch cluster.
	ComponentElasticsearch Component = "elasticsearch"
	// ComponentKafka deploys a self-managed Kafka cluster in KRaft mode.
	ComponentKafka Component = "kafka"
)

// SupportedComponents returns all deployable components.
func SupportedComponents() []Component {
	return []Component{ComponentElasticsearch, ComponentKafka}
}

// SupportedComponentsAsStrings returns supported components as strings.
func SupportedComponentsAsStrings() []string {
	components := SupportedComponents()
	strs := make([]string, len(components))
	for i, c := range components {
		strs[i] = string(c)
	}
	return strs
}

// maxSuggestionDistance bounds how fuzzy a "did you mean" match may be.
const maxSuggestionDistance = 4

// ParseComponent converts a string to a Component. Unknown names get a
// "did you mean" suggestion when a supported name is close enough.
func ParseComponent(s string) (Component, error) {
	for _, c := range SupportedComponents() {
		if s == string(c) {
			return c, nil
		}
	}

	best, bestDist := "", maxSuggestionDistance+1
	for _, c := range SupportedComponents() {
		if d := levenshtein.ComputeDistance(s, string(c)); d < bestDist {
			best, bestDist = string(c), d
		}
	}
	if best != "" && bestDist <= maxSuggestionDistance {
		return "", fmt.Errorf("unknown component %q (did you mean %q?)", s, best)
	}
	return "", fmt.Errorf("unknown component %q (supported: %v)", s, SupportedComponentsAsStrings())
}

// CommonSpec holds the settings shared by both cluster components.
type CommonSpec struct {
	// Name is the cluster name, used as the prefix of every resource.
	Name string `json:"name" yaml:"name"`

	// Replicas is the StatefulSet replica count.
	Replicas int32 `json:"replicas" yaml:"replicas"`

	// Version selects the component release and the default image tag.
	Version string `json:"version" yaml:"version"`

	// Image overrides the default container image reference.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// StorageClass names the storage class for data volume claims.
	StorageClass string `json:"storageClass,omitempty" yaml:"storageClass,omitempty"`

	// StorageSize is the per-replica persistent volume size (e.g. "10Gi").
	StorageSize string `json:"storageSize" yaml:"storageSize"`

	// NodeSelector constrains pod scheduling.
	NodeSelector map[string]string `json:"nodeSelector,omitempty" yaml:"nodeSelector,omitempty"`

	// Tolerations allow scheduling onto tainted nodes.
	Tolerations []corev1.Toleration `json:"tolerations,omitempty" yaml:"tolerations,omitempty"`
}

// CertsSecretName returns the name of the Secret carrying the cluster's
// keystore, truststore, and PEM certificate material.
func (s *CommonSpec) CertsSecretName() string {
	return s.Name + "-certs"
}

// PassSecretName returns the name of the Secret carrying store passwords.
func (s *CommonSpec) PassSecretName() string {
	return s.Name + "-keystore-pass"
}

// HeadlessServiceName returns the governing headless Service name.
func (s *CommonSpec) HeadlessServiceName() string {
	return s.Name + "-headless"
}

// ElasticsearchSpec configures the Elasticsearch cluster.
type ElasticsearchSpec struct {
	CommonSpec `json:",inline" yaml:",inline"`

	// HeapSize sets the JVM heap (e.g. "1g"). Applied to -Xms and -Xmx.
	HeapSize string `json:"heapSize,omitempty" yaml:"heapSize,omitempty"`
}

// KafkaSpec configures the Kafka cluster (KRaft mode, combined
// broker+controller roles, no ZooKeeper).
type KafkaSpec struct {
	CommonSpec `json:",inline" yaml:",inline"`

	// ClusterID seeds the KRaft cluster identifier on first deploy: 22
	// URL-safe base64 characters, generated when empty. Once a cluster
	// exists its ID lives in the cluster-ID Secret and this field is
	// ignored; the ID must never change for the life of the data volumes.
	ClusterID string `json:"clusterID,omitempty" yaml:"clusterID,omitempty"`
}

// ClusterIDSecretKey is the data key holding the KRaft cluster ID inside
// the cluster-ID Secret.
const ClusterIDSecretKey = "cluster-id"

// ClusterIDSecretName returns the name of the Secret carrying the KRaft
// cluster ID.
func (s *KafkaSpec) ClusterIDSecretName() string {
	return s.Name + "-cluster-id"
}

// Config is the top-level cluster configuration.
type Config struct {
	// Namespace receives every managed resource.
	Namespace string `json:"namespace" yaml:"namespace"`

	Elasticsearch *ElasticsearchSpec `json:"elasticsearch,omitempty" yaml:"elasticsearch,omitempty"`
	Kafka         *KafkaSpec         `json:"kafka,omitempty" yaml:"kafka,omitempty"`
}

// Components returns the components present in the config, in deploy order.
func (c *Config) Components() []Component {
	var out []Component
	if c.Elasticsearch != nil {
		out = append(out, ComponentElasticsearch)
	}
	if c.Kafka != nil {
		out = append(out, ComponentKafka)
	}
	return out
}

// DefaultElasticsearchSpec returns an ElasticsearchSpec with project defaults.
func DefaultElasticsearchSpec() *ElasticsearchSpec {
	return &ElasticsearchSpec{
		CommonSpec: CommonSpec{
			Name:        "elasticsearch",
			Replicas:    defaults.ElasticsearchReplicas,
			Version:     defaults.ElasticsearchVersion,
			StorageSize: defaults.StorageSize,
		},
		HeapSize: "1g",
	}
}

// DefaultKafkaSpec returns a KafkaSpec with project defaults and a fresh
// cluster ID.
func DefaultKafkaSpec() *KafkaSpec {
	return &KafkaSpec{
		CommonSpec: CommonSpec{
			Name:        "kafka",
			Replicas:    defaults.KafkaReplicas,
			Version:     defaults.KafkaVersion,
			StorageSize: defaults.StorageSize,
		},
		ClusterID: NewKafkaClusterID(),
	}
}

// NewKafkaClusterID generates a KRaft cluster ID: 16 random bytes encoded
// as 22 URL-safe base64 characters, matching kafka-storage random-uuid.
func NewKafkaClusterID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// ImageRef returns the container image reference for the Elasticsearch
// cluster, deriving the default from the version when not overridden.
func (s *ElasticsearchSpec) ImageRef() string {
	if s.Image != "" {
		return s.Image
	}
	return "docker.elastic.co/elasticsearch/elasticsearch:" + s.Version
}

// ImageRef returns the container image reference for the Kafka cluster.
func (s *KafkaSpec) ImageRef() string {
	if s.Image != "" {
		return s.Image
	}
	return "apache/kafka:" + s.Version
}

// Validate checks the configuration before any resource is built.
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "namespace is required")
	}
	if c.Elasticsearch == nil && c.Kafka == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "at least one component must be configured")
	}

	if c.Elasticsearch != nil {
		if err := validateCommon(&c.Elasticsearch.CommonSpec, c.Elasticsearch.ImageRef()); err != nil {
			return err
		}
	}

	if c.Kafka != nil {
		if err := validateCommon(&c.Kafka.CommonSpec, c.Kafka.ImageRef()); err != nil {
			return err
		}
		// An even quorum cannot tolerate the loss the odd one can; reject it
		// rather than let KRaft limp.
		if c.Kafka.Replicas%2 == 0 {
			return errors.NewWithContext(errors.ErrCodeInvalidConfig,
				"kafka replicas must be odd for KRaft quorum majority",
				map[string]any{"replicas": c.Kafka.Replicas})
		}
		if c.Kafka.ClusterID != "" && !validClusterID(c.Kafka.ClusterID) {
			return errors.New(errors.ErrCodeInvalidConfig,
				"kafka clusterID must be 22 URL-safe base64 characters")
		}
	}

	return nil
}

func validateCommon(s *CommonSpec, image string) error {
	if s.Name == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cluster name is required")
	}
	if s.Replicas < 1 {
		return errors.NewWithContext(errors.ErrCodeInvalidConfig,
			"replicas must be at least 1",
			map[string]any{"name": s.Name, "replicas": s.Replicas})
	}
	if _, err := version.Parse(s.Version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid version %q for %s", s.Version, s.Name), err)
	}
	if _, err := reference.ParseNormalizedNamed(image); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid image reference %q for %s", image, s.Name), err)
	}
	return nil
}

func validClusterID(id string) bool {
	if len(id) != 22 {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(id)
	return err == nil && len(raw) == 16
}
