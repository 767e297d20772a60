// Copyright (c) 2026, Datastack Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package defaults centralizes timeout, validity, and sizing constants
// shared across stackctl packages.
package defaults

import "time"

// Kubernetes timeouts for API operations.
const (
	// K8sRequestTimeout is the timeout for individual Kubernetes API calls.
	K8sRequestTimeout = 30 * time.Second

	// RolloutTimeout is the default timeout for StatefulSet rollout convergence.
	RolloutTimeout = 10 * time.Minute

	// TeardownTimeout is the default timeout for resource deletion.
	TeardownTimeout = 5 * time.Minute

	// PodReadyPollInterval is the polling interval for pod readiness checks.
	PodReadyPollInterval = 2 * time.Second
)

// Certificate validity periods.
const (
	// CACertValidity is the lifetime of a generated cluster CA certificate.
	CACertValidity = 5 * 365 * 24 * time.Hour

	// NodeCertValidity is the lifetime of an issued node certificate.
	NodeCertValidity = 397 * 24 * time.Hour
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading a request.
	ServerReadTimeout = 10 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// Cluster sizing defaults.
const (
	// ElasticsearchReplicas is the default Elasticsearch node count.
	ElasticsearchReplicas = 3

	// KafkaReplicas is the default Kafka broker/controller count.
	// Odd so the KRaft quorum keeps a majority through a single failure.
	KafkaReplicas = 3

	// StorageSize is the default per-replica persistent volume size.
	StorageSize = "10Gi"
)

// Component versions deployed when not overridden.
const (
	// ElasticsearchVersion is the default Elasticsearch version.
	ElasticsearchVersion = "8.14.3"

	// KafkaVersion is the default Kafka version.
	KafkaVersion = "3.8.0"
)
