/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package manifest renders the typed component objects to Kubernetes YAML,
// either as a multi-document stream or as a file tree suitable for GitOps
// repositories and OCI publishing.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/scheme"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/component"
	"github.com/datastackhq/stackctl/pkg/component/types"
)

// File is one rendered manifest.
type File struct {
	// Path is relative: <component>/<NN>-<kind>-<name>.yaml.
	Path string

	// Data is the YAML document, without a leading separator.
	Data []byte
}

// Renderer turns cluster configurations into YAML manifests.
type Renderer struct {
	registry *component.Registry
}

// NewRenderer creates a Renderer with the built-in component registry.
func NewRenderer() *Renderer {
	return &Renderer{registry: component.NewRegistry()}
}

// Render builds and renders every configured component in deploy order.
// The numeric prefix in each file name preserves apply order under a
// lexicographic sort.
func (r *Renderer) Render(cfg *cluster.Config) ([]File, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	objects, err := r.registry.ObjectsFor(cfg)
	if err != nil {
		return nil, err
	}

	var files []File
	for _, name := range cfg.Components() {
		rendered, err := renderComponent(string(name), objects[name])
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", name, err)
		}
		files = append(files, rendered...)
	}
	return files, nil
}

func renderComponent(dir string, objects *types.Objects) ([]File, error) {
	all := objects.All()
	files := make([]File, 0, len(all))

	for i, obj := range all {
		data, kind, name, err := marshalObject(obj)
		if err != nil {
			return nil, err
		}
		files = append(files, File{
			Path: filepath.Join(dir, fmt.Sprintf("%02d-%s-%s.yaml", i+1, strings.ToLower(kind), name)),
			Data: data,
		})
	}
	return files, nil
}

// marshalObject stamps the object's apiVersion/kind from the client-go
// scheme and marshals it to YAML.
func marshalObject(obj runtime.Object) (data []byte, kind, name string, err error) {
	gvks, _, err := scheme.Scheme.ObjectKinds(obj)
	if err != nil || len(gvks) == 0 {
		return nil, "", "", fmt.Errorf("failed to resolve object kind: %w", err)
	}
	gvk := gvks[0]
	obj.GetObjectKind().SetGroupVersionKind(gvk)

	accessor, err := meta.Accessor(obj)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to access object metadata: %w", err)
	}

	data, err = sigsyaml.Marshal(obj)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to marshal %s %s: %w", gvk.Kind, accessor.GetName(), err)
	}
	return data, gvk.Kind, accessor.GetName(), nil
}

// Stream concatenates rendered files into one multi-document YAML stream in
// file order.
func Stream(files []File) []byte {
	var buf bytes.Buffer
	for i, f := range files {
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(f.Data)
	}
	return buf.Bytes()
}

// WriteDir writes rendered files under dir, creating component
// subdirectories as needed.
func WriteDir(dir string, files []File) error {
	for _, f := range files {
		path := filepath.Join(dir, f.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}
