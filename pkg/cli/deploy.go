/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/datastackhq/stackctl/pkg/defaults"
	"github.com/datastackhq/stackctl/pkg/deployer"
)

func deployCmd() *cli.Command {
	return &cli.Command{
		Name:                  "deploy",
		EnableShellCompletion: true,
		Usage:                 "Deploy Elasticsearch and Kafka clusters",
		Description: `Deploy self-managed Elasticsearch and Kafka (KRaft mode) clusters as
StatefulSets with TLS enabled on both inter-node and client traffic.

The deploy is idempotent: certificates are issued once and reused, existing
resources are updated in place, and re-running against a converged cluster
is a no-op. The command waits for every StatefulSet rollout to complete
unless --skip-wait is given.

# Examples

Deploy both components with defaults:
  stackctl deploy --namespace data

Deploy a 5-node Elasticsearch cluster only:
  stackctl deploy --component elasticsearch --es-replicas 5 --storage-class fast-ssd

Deploy Kafka onto dedicated nodes:
  stackctl deploy --component kafka \
    --node-selector nodeGroup=data \
    --toleration dedicated=data:NoSchedule

Deploy from a configuration file:
  stackctl deploy --config stack.yaml`,
		Flags: append(clusterFlags(),
			&cli.BoolFlag{
				Name:  "skip-wait",
				Usage: "Do not wait for StatefulSet rollouts to complete",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for waiting for rollout completion",
				Value: defaults.RolloutTimeout,
			},
			kubeconfigFlag,
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := buildClusterConfig(cmd)
			if err != nil {
				return err
			}

			clientset, err := newKubeClient(cmd.String("kubeconfig"))
			if err != nil {
				return fmt.Errorf("failed to create Kubernetes client: %w", err)
			}

			start := time.Now()
			d := deployer.New(clientset)
			if err := d.Deploy(ctx, cfg, deployer.DeployOptions{
				SkipWait:       cmd.Bool("skip-wait"),
				RolloutTimeout: cmd.Duration("timeout"),
			}); err != nil {
				return err
			}

			slog.Info("deploy complete",
				"namespace", cfg.Namespace,
				"components", cfg.Components(),
				"duration", time.Since(start).String())
			return nil
		},
	}
}
