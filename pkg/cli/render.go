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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/datastackhq/stackctl/pkg/manifest"
	"github.com/datastackhq/stackctl/pkg/oci"
)

func renderCmd() *cli.Command {
	return &cli.Command{
		Name:                  "render",
		EnableShellCompletion: true,
		Usage:                 "Render cluster manifests without applying them",
		Description: `Render the Kubernetes manifests for the configured clusters without
touching the cluster. Manifests can be written to stdout as a single YAML
stream, to a directory as one file per resource, or pushed to an OCI
registry as an artifact for GitOps consumption.

Output targets:
  (empty)                   multi-document YAML stream on stdout
  ./manifests               directory, one file per resource
  oci://ghcr.io/org/stack   OCI registry artifact (requires --tag or a
                            tagged reference)

# Examples

Pipe into kubectl:
  stackctl render --namespace data | kubectl apply -f -

Write a kustomize-ready directory:
  stackctl render --namespace data --output ./manifests

Push to a registry:
  stackctl render --output oci://ghcr.io/datastackhq/stack-manifests --tag v1.2.0 \
    --annotation org.opencontainers.image.source=https://github.com/datastackhq/stackctl`,
		Flags: append(clusterFlags(),
			outputFlag,
			&cli.StringFlag{
				Name:  "tag",
				Usage: "Artifact tag for OCI output (overrides the tag in the reference)",
			},
			&cli.StringSliceFlag{
				Name:  "annotation",
				Usage: "Manifest annotation for OCI output (format: key=value, can be repeated)",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use plain HTTP for the OCI registry (local registries only)",
			},
			&cli.BoolFlag{
				Name:  "insecure",
				Usage: "Skip TLS certificate verification for the OCI registry",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := buildClusterConfig(cmd)
			if err != nil {
				return err
			}

			files, err := manifest.NewRenderer().Render(cfg)
			if err != nil {
				return err
			}

			target := cmd.String("output")
			if target == "" {
				_, err := os.Stdout.Write(manifest.Stream(files))
				return err
			}

			ref, err := oci.ParseOutputTarget(target)
			if err != nil {
				return err
			}

			if !ref.IsOCI {
				if err := manifest.WriteDir(ref.LocalPath, files); err != nil {
					return err
				}
				slog.Info("manifests written", "dir", ref.LocalPath, "files", len(files))
				return nil
			}

			return pushManifests(ctx, cmd, ref, files)
		},
	}
}

func pushManifests(ctx context.Context, cmd *cli.Command, ref *oci.Reference, files []manifest.File) error {
	if tag := cmd.String("tag"); tag != "" {
		ref = ref.WithTag(tag)
	}

	annotations, err := parseAnnotations(cmd.StringSlice("annotation"))
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "stackctl-manifests-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	if err := manifest.WriteDir(dir, files); err != nil {
		return err
	}

	result, err := oci.Push(ctx, oci.PushOptions{
		SourceDir:   dir,
		Registry:    ref.Registry,
		Repository:  ref.Repository,
		Tag:         ref.Tag,
		Annotations: annotations,
		PlainHTTP:   cmd.Bool("plain-http"),
		InsecureTLS: cmd.Bool("insecure"),
	})
	if err != nil {
		return err
	}

	slog.Info("manifests pushed",
		"reference", result.Reference,
		"digest", result.Digest,
		"files", len(files))
	return nil
}

func parseAnnotations(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	annotations := make(map[string]string, len(raw))
	for _, pair := range raw {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid annotation %q, expected key=value", pair)
		}
		annotations[key] = value
	}
	return annotations, nil
}
