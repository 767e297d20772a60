/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/datastackhq/stackctl/pkg/deployer"
	"github.com/datastackhq/stackctl/pkg/serializer"
)

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Report cluster deployment status",
		Description: `Report the deployment status of managed clusters: StatefulSet readiness,
per-pod state, certificate presence, and CA expiry.

The report can be output in JSON, YAML, or table format.

# Examples

Human-readable overview:
  stackctl status --namespace data --format table

Machine-readable report for a single component:
  stackctl status --component kafka --format json --output status.json`,
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
			outputFlag,
			formatFlag,
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			cfg, err := statusClusterConfig(cmd)
			if err != nil {
				return err
			}

			clientset, err := newKubeClient(cmd.String("kubeconfig"))
			if err != nil {
				return fmt.Errorf("failed to create Kubernetes client: %w", err)
			}

			report, err := deployer.New(clientset).Status(ctx, cfg)
			if err != nil {
				return err
			}

			writer := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			defer func() { _ = writer.Close() }()

			if outFormat == serializer.FormatTable {
				return writer.Serialize(ctx, report.Components)
			}
			return writer.Serialize(ctx, report)
		},
	}
}
