/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/datastackhq/stackctl/pkg/k8s/client"
	"github.com/datastackhq/stackctl/pkg/logging"
)

const (
	name           = "stackctl"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Shared flags reused across commands.
var (
	namespaceFlag = &cli.StringFlag{
		Name:    "namespace",
		Aliases: []string{"n"},
		Usage:   "Kubernetes namespace for cluster resources",
		Sources: cli.EnvVars("STACKCTL_NAMESPACE"),
		Value:   "datastack",
	}

	kubeconfigFlag = &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "Path to kubeconfig file (default: in-cluster, then $KUBECONFIG, then ~/.kube/config)",
		Sources: cli.EnvVars("STACKCTL_KUBECONFIG", "KUBECONFIG"),
	}

	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a cluster configuration file (YAML); overrides component flags",
		Sources: cli.EnvVars("STACKCTL_CONFIG"),
	}

	componentFlag = &cli.StringSliceFlag{
		Name:  "component",
		Usage: "Component to operate on: elasticsearch or kafka (can be repeated, default: both)",
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (default: stdout)",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   "Output format: yaml, json, or table",
		Sources: cli.EnvVars("STACKCTL_FORMAT"),
		Value:   "yaml",
	}
)

// newKubeClient builds the Kubernetes clientset for a command. Overridable
// in tests.
var newKubeClient = func(kubeconfig string) (client.Interface, error) {
	clientset, _, err := client.GetKubeClientWithConfig(kubeconfig)
	return clientset, err
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               version,
		EnableShellCompletion: true,
		Usage:                 "Deploy and operate self-managed Elasticsearch and Kafka clusters on Kubernetes",
		Description: fmt.Sprintf(`stackctl - self-managed data stack on Kubernetes

Version: %s
Commit:  %s
Built:   %s

Deploys Elasticsearch and Kafka (KRaft mode) as StatefulSets with TLS
enabled end to end, manages the certificate lifecycle, and renders the
underlying manifests for GitOps workflows.`, version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("STACKCTL_LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			deployCmd(),
			teardownCmd(),
			statusCmd(),
			certsCmd(),
			renderCmd(),
		},
	}
}

// Execute runs the CLI. It is called by main.main() and handles
// SIGINT/SIGTERM by canceling the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
