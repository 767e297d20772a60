/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package oci

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/datastackhq/stackctl/pkg/errors"
)

// URIScheme is the URI scheme for OCI registry output
// (e.g., "oci://ghcr.io/org/repo:tag").
const URIScheme = "oci://"

// Reference is a parsed output target: an OCI registry reference or a local
// directory path.
type Reference struct {
	// IsOCI indicates an OCI registry reference rather than a local path.
	IsOCI bool
	// Registry is the OCI registry host. Only set when IsOCI.
	Registry string
	// Repository is the image repository path. Only set when IsOCI.
	Repository string
	// Tag is the image tag. Empty means the caller applies a default.
	Tag string
	// LocalPath is the local directory for non-OCI output.
	LocalPath string
}

// ParseOutputTarget parses an output target: oci://registry/repository:tag
// becomes an OCI reference, anything else a local directory.
func ParseOutputTarget(target string) (*Reference, error) {
	if !strings.HasPrefix(target, URIScheme) {
		return &Reference{LocalPath: target}, nil
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "invalid OCI reference", err)
	}

	var tag string
	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	return &Reference{
		IsOCI:      true,
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
		Tag:        tag,
	}, nil
}

// String returns the full reference string, with the oci:// scheme for
// registry references.
func (r *Reference) String() string {
	if !r.IsOCI {
		return r.LocalPath
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s%s/%s", URIScheme, r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s%s/%s:%s", URIScheme, r.Registry, r.Repository, r.Tag)
}

// ImageReference returns the Docker-style image reference without the
// scheme. Empty for local paths.
func (r *Reference) ImageReference() string {
	if !r.IsOCI {
		return ""
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of the reference with the given tag. Local path
// references are returned unchanged.
func (r *Reference) WithTag(tag string) *Reference {
	if !r.IsOCI {
		return r
	}
	return &Reference{
		IsOCI:      true,
		Registry:   r.Registry,
		Repository: r.Repository,
		Tag:        tag,
	}
}
