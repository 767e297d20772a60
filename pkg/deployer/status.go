/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package deployer

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/component/types"
	"github.com/datastackhq/stackctl/pkg/pki"
)

// PodStatus summarizes one pod of a managed cluster.
type PodStatus struct {
	Name  string          `json:"name" yaml:"name"`
	Phase corev1.PodPhase `json:"phase" yaml:"phase"`
	Ready bool            `json:"ready" yaml:"ready"`
}

// ComponentStatus summarizes the observed state of one component.
type ComponentStatus struct {
	Component     cluster.Component `json:"component" yaml:"component"`
	Cluster       string            `json:"cluster" yaml:"cluster"`
	Deployed      bool              `json:"deployed" yaml:"deployed"`
	Ready         bool              `json:"ready" yaml:"ready"`
	Replicas      int32             `json:"replicas" yaml:"replicas"`
	ReadyReplicas int32             `json:"readyReplicas" yaml:"readyReplicas"`
	Pods          []PodStatus       `json:"pods,omitempty" yaml:"pods,omitempty"`

	// CertsPresent reports whether the TLS Secret exists.
	CertsPresent bool `json:"certsPresent" yaml:"certsPresent"`

	// CAExpiresAt is the NotAfter of the active CA certificate, when present.
	CAExpiresAt *time.Time `json:"caExpiresAt,omitempty" yaml:"caExpiresAt,omitempty"`
}

// Report is the full status of every configured component.
type Report struct {
	Namespace  string            `json:"namespace" yaml:"namespace"`
	Components []ComponentStatus `json:"components" yaml:"components"`
}

// Status inspects the live state of every configured component: StatefulSet
// readiness, per-pod phase, and certificate Secret expiry.
func (d *Deployer) Status(ctx context.Context, cfg *cluster.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	report := &Report{Namespace: cfg.Namespace}
	for _, name := range cfg.Components() {
		status, err := d.componentStatus(ctx, cfg.Namespace, name, commonSpecFor(cfg, name))
		if err != nil {
			return nil, fmt.Errorf("failed to get %s status: %w", name, err)
		}
		report.Components = append(report.Components, *status)
	}
	return report, nil
}

func (d *Deployer) componentStatus(ctx context.Context, namespace string,
	name cluster.Component, spec *cluster.CommonSpec) (*ComponentStatus, error) {
	status := &ComponentStatus{
		Component: name,
		Cluster:   spec.Name,
	}

	sts, err := d.clientset.AppsV1().StatefulSets(namespace).Get(ctx, spec.Name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		// Not deployed; still report certs so rotation state is visible.
	case err != nil:
		return nil, fmt.Errorf("failed to get StatefulSet %s: %w", spec.Name, err)
	default:
		status.Deployed = true
		if sts.Spec.Replicas != nil {
			status.Replicas = *sts.Spec.Replicas
		}
		status.ReadyReplicas = sts.Status.ReadyReplicas
		status.Ready = statefulSetReady(sts, status.Replicas)

		pods, err := d.listPods(ctx, namespace, name, spec.Name)
		if err != nil {
			return nil, err
		}
		status.Pods = pods
	}

	secret, err := d.clientset.CoreV1().Secrets(namespace).Get(ctx, spec.CertsSecretName(), metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
	case err != nil:
		return nil, fmt.Errorf("failed to get certs secret %s: %w", spec.CertsSecretName(), err)
	default:
		status.CertsPresent = true
		if caPEM, ok := secret.Data[pki.KeyCACert]; ok {
			if ca, err := pki.ParseCertificatePEM(caPEM); err == nil {
				status.CAExpiresAt = &ca.NotAfter
			}
		}
	}

	return status, nil
}

func (d *Deployer) listPods(ctx context.Context, namespace string, name cluster.Component, instance string) ([]PodStatus, error) {
	selector := labels.Set(types.SelectorLabels(string(name), instance)).String()

	pods, err := d.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods for %s: %w", instance, err)
	}

	out := make([]PodStatus, 0, len(pods.Items))
	for _, pod := range pods.Items {
		out = append(out, PodStatus{
			Name:  pod.Name,
			Phase: pod.Status.Phase,
			Ready: podReady(&pod),
		})
	}
	return out, nil
}

func podReady(pod *corev1.Pod) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}
