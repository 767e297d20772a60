// Package cli implements the stackctl command-line interface.
//
// # Overview
//
// stackctl deploys and operates self-managed Elasticsearch and Kafka
// clusters on Kubernetes. It renders and applies StatefulSet-based
// manifests, manages the TLS certificate lifecycle (issue and rotate), and
// reports deployment status. It is designed for platform teams running
// their own data stack instead of a managed offering.
//
// # Commands
//
// deploy - Deploy clusters:
//
//	stackctl deploy [--namespace NS] [--component elasticsearch|kafka] [flags]
//
// Applies the cluster resources (ServiceAccount, ConfigMap, Services,
// PodDisruptionBudget, NetworkPolicy, StatefulSet), issues TLS certificates
// when missing, and waits for rollout completion.
//
// teardown - Tear down clusters:
//
//	stackctl teardown [--delete-data] [--delete-certs]
//
// Removes workload resources; data volumes and certificate Secrets are
// kept unless explicitly deleted.
//
// status - Report deployment status:
//
//	stackctl status [--format yaml|json|table] [--output FILE]
//
// certs - Manage TLS certificates:
//
//	stackctl certs issue
//	stackctl certs rotate
//
// render - Render manifests without applying:
//
//	stackctl render [--output DIR | --output oci://REGISTRY/REPO --tag TAG]
//
// # Global Flags
//
//	--log-level    Log level: debug, info, warn, error (default: info)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Environment Variables
//
//	STACKCTL_NAMESPACE   Default namespace
//	STACKCTL_KUBECONFIG  Kubeconfig path (KUBECONFIG is honored as fallback)
//	STACKCTL_CONFIG      Cluster configuration file path
//	STACKCTL_FORMAT      Default output format
//	STACKCTL_LOG_LEVEL   Log verbosity
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, execution failure)
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized
// packages:
//   - pkg/deployer - Cluster deploy, teardown, and status
//   - pkg/pki - Certificate authority and keystore management
//   - pkg/manifest - Manifest rendering
//   - pkg/oci - OCI artifact packaging and push
//   - pkg/serializer - Output formatting
//   - pkg/logging - Structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/datastackhq/stackctl/pkg/cli.version=1.0.0'"
package cli
