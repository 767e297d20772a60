/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package component manages the registry of cluster component builders.
package component

import (
	"fmt"
	"sync"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/component/elasticsearch"
	"github.com/datastackhq/stackctl/pkg/component/kafka"
	"github.com/datastackhq/stackctl/pkg/component/types"
)

// Registry manages registered component builders with thread-safe operations.
type Registry struct {
	components map[cluster.Component]types.Component

	mu sync.RWMutex
}

// NewRegistry creates a Registry with the built-in components registered.
func NewRegistry() *Registry {
	return &Registry{
		components: map[cluster.Component]types.Component{
			cluster.ComponentElasticsearch: elasticsearch.New(),
			cluster.ComponentKafka:         kafka.New(),
		},
	}
}

// Register registers a component builder in this registry.
func (r *Registry) Register(name cluster.Component, c types.Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = c
}

// Get retrieves a component builder by name.
func (r *Registry) Get(name cluster.Component) (types.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

// List returns all registered component names.
func (r *Registry) List() []cluster.Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]cluster.Component, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	return names
}

// ObjectsFor builds the manifest sets for every component present in the
// config, in deploy order.
func (r *Registry) ObjectsFor(cfg *cluster.Config) (map[cluster.Component]*types.Objects, error) {
	out := make(map[cluster.Component]*types.Objects)
	for _, name := range cfg.Components() {
		builder, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("component %s not registered", name)
		}
		objects, err := builder.Objects(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s manifests: %w", name, err)
		}
		out[name] = objects
	}
	return out, nil
}
