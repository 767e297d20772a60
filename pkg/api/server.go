package api

import (
	"log/slog"
	"os"

	"github.com/datastackhq/stackctl/pkg/k8s/client"
	"github.com/datastackhq/stackctl/pkg/logging"
	"github.com/datastackhq/stackctl/pkg/server"
)

const (
	name           = "stackd"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/datastackhq/stackctl/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the stackd API server and blocks until shutdown.
// It configures logging, builds the Kubernetes clientset, and handles
// graceful shutdown on SIGINT/SIGTERM.
func Serve() error {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, os.Getenv("STACKD_LOG_LEVEL"))
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	clientset, _, err := client.GetKubeClient()
	if err != nil {
		slog.Error("failed to create Kubernetes client", "error", err)
		return err
	}

	config := server.NewConfig()
	config.Name = name
	config.Version = version

	if err := server.Run(config, clientset); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}

	return nil
}
