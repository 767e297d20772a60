/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package types defines the interface implemented by every cluster component
// builder and the typed object set a builder produces.
package types

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/datastackhq/stackctl/pkg/cluster"
)

// Objects is the complete manifest set for one component. The field order
// matches the apply order; teardown runs it in reverse.
type Objects struct {
	ServiceAccount      *corev1.ServiceAccount
	ConfigMap           *corev1.ConfigMap
	Services            []*corev1.Service
	PodDisruptionBudget *policyv1.PodDisruptionBudget
	NetworkPolicy       *networkingv1.NetworkPolicy
	StatefulSet         *appsv1.StatefulSet
}

// All returns every object in apply order for rendering and iteration.
func (o *Objects) All() []runtime.Object {
	out := make([]runtime.Object, 0, 5+len(o.Services))
	if o.ServiceAccount != nil {
		out = append(out, o.ServiceAccount)
	}
	if o.ConfigMap != nil {
		out = append(out, o.ConfigMap)
	}
	for _, svc := range o.Services {
		out = append(out, svc)
	}
	if o.PodDisruptionBudget != nil {
		out = append(out, o.PodDisruptionBudget)
	}
	if o.NetworkPolicy != nil {
		out = append(out, o.NetworkPolicy)
	}
	if o.StatefulSet != nil {
		out = append(out, o.StatefulSet)
	}
	return out
}

// Component builds the manifest set for one deployable cluster component.
type Component interface {
	// Name identifies the component.
	Name() cluster.Component

	// Objects builds the typed manifests from the cluster configuration.
	// The config must already be validated.
	Objects(cfg *cluster.Config) (*Objects, error)
}

// Labels returns the standard label set applied to every managed object.
func Labels(component, instance string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":       component,
		"app.kubernetes.io/instance":   instance,
		"app.kubernetes.io/managed-by": "stackctl",
	}
}

// SelectorLabels returns the subset of Labels safe to use as an immutable
// selector (managed-by intentionally excluded).
func SelectorLabels(component, instance string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":     component,
		"app.kubernetes.io/instance": instance,
	}
}
