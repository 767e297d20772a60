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

	"github.com/datastackhq/stackctl/pkg/defaults"
	"github.com/datastackhq/stackctl/pkg/deployer"
)

func teardownCmd() *cli.Command {
	return &cli.Command{
		Name:                  "teardown",
		EnableShellCompletion: true,
		Usage:                 "Tear down deployed clusters",
		Description: `Tear down deployed Elasticsearch and Kafka clusters.

By default teardown removes the workload resources but keeps the data
volumes and certificate Secrets, so a subsequent deploy picks up where the
old cluster left off. Use --delete-data and --delete-certs for a full wipe.

Teardown is idempotent: resources that are already gone are skipped.

# Examples

Tear down both components, keeping data and certificates:
  stackctl teardown --namespace data

Tear down Kafka only, deleting its data volumes:
  stackctl teardown --component kafka --delete-data

Full wipe:
  stackctl teardown --delete-data --delete-certs`,
		Flags: []cli.Flag{
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
			&cli.BoolFlag{
				Name:  "delete-data",
				Usage: "Also delete persistent volume claims (destroys cluster data)",
			},
			&cli.BoolFlag{
				Name:  "delete-certs",
				Usage: "Also delete certificate and keystore password Secrets",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for waiting for StatefulSet deletion",
				Value: defaults.TeardownTimeout,
			},
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := statusClusterConfig(cmd)
			if err != nil {
				return err
			}

			clientset, err := newKubeClient(cmd.String("kubeconfig"))
			if err != nil {
				return fmt.Errorf("failed to create Kubernetes client: %w", err)
			}

			d := deployer.New(clientset)
			if err := d.Teardown(ctx, cfg, deployer.TeardownOptions{
				DeleteData:  cmd.Bool("delete-data"),
				DeleteCerts: cmd.Bool("delete-certs"),
				Timeout:     cmd.Duration("timeout"),
			}); err != nil {
				return err
			}

			slog.Info("teardown complete",
				"namespace", cfg.Namespace,
				"components", cfg.Components(),
				"deletedData", cmd.Bool("delete-data"),
				"deletedCerts", cmd.Bool("delete-certs"))
			return nil
		},
	}
}
