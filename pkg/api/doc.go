// Package api is the composition root for stackd, the HTTP API server.
//
// It wires the structured logger, the Kubernetes clientset, and the server
// configuration together and exposes a single blocking Serve function for
// the stackd entrypoint.
//
// # Configuration
//
// stackd is configured through environment variables:
//
//	STACKD_ADDRESS                   Listen address (default: all interfaces)
//	STACKD_PORT                      Listen port (default: 8080)
//	STACKD_RATE_LIMIT                Requests per second (default: 100)
//	STACKD_SHUTDOWN_TIMEOUT_SECONDS  Graceful shutdown window
//	STACKD_LOG_LEVEL                 Log verbosity (default: info)
//
// The Kubernetes client uses in-cluster configuration when available and
// falls back to $KUBECONFIG and ~/.kube/config, so stackd runs both inside
// and outside a cluster.
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/datastackhq/stackctl/pkg/api.version=1.0.0'"
package api
