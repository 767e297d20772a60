/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package deployer

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	policyv1 "k8s.io/api/policy/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ServiceAccounts carry no mutable spec worth reconciling; create-or-keep.
func (d *Deployer) ensureServiceAccount(ctx context.Context, namespace string, sa *corev1.ServiceAccount) error {
	if sa == nil {
		return nil
	}
	_, err := d.clientset.CoreV1().ServiceAccounts(namespace).Create(ctx, sa, metav1.CreateOptions{})
	if err := ignoreAlreadyExists(err); err != nil {
		return fmt.Errorf("failed to create ServiceAccount %s: %w", sa.Name, err)
	}
	return nil
}

func (d *Deployer) ensureConfigMap(ctx context.Context, namespace string, cm *corev1.ConfigMap) error {
	if cm == nil {
		return nil
	}
	_, err := d.clientset.CoreV1().ConfigMaps(namespace).Create(ctx, cm, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = d.clientset.CoreV1().ConfigMaps(namespace).Update(ctx, cm, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to ensure ConfigMap %s: %w", cm.Name, err)
	}
	return nil
}

// Services keep their allocated clusterIP: on conflict the existing spec is
// fetched and only the mutable fields are reconciled.
func (d *Deployer) ensureService(ctx context.Context, namespace string, svc *corev1.Service) error {
	if svc == nil {
		return nil
	}
	_, err := d.clientset.CoreV1().Services(namespace).Create(ctx, svc, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		var existing *corev1.Service
		existing, err = d.clientset.CoreV1().Services(namespace).Get(ctx, svc.Name, metav1.GetOptions{})
		if err != nil {
			return fmt.Errorf("failed to get Service %s: %w", svc.Name, err)
		}
		existing.Labels = svc.Labels
		existing.Spec.Ports = svc.Spec.Ports
		existing.Spec.Selector = svc.Spec.Selector
		_, err = d.clientset.CoreV1().Services(namespace).Update(ctx, existing, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to ensure Service %s: %w", svc.Name, err)
	}
	return nil
}

func (d *Deployer) ensurePodDisruptionBudget(ctx context.Context, namespace string, pdb *policyv1.PodDisruptionBudget) error {
	if pdb == nil {
		return nil
	}
	_, err := d.clientset.PolicyV1().PodDisruptionBudgets(namespace).Create(ctx, pdb, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = d.clientset.PolicyV1().PodDisruptionBudgets(namespace).Update(ctx, pdb, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to ensure PodDisruptionBudget %s: %w", pdb.Name, err)
	}
	return nil
}

func (d *Deployer) ensureNetworkPolicy(ctx context.Context, namespace string, np *networkingv1.NetworkPolicy) error {
	if np == nil {
		return nil
	}
	_, err := d.clientset.NetworkingV1().NetworkPolicies(namespace).Create(ctx, np, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = d.clientset.NetworkingV1().NetworkPolicies(namespace).Update(ctx, np, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to ensure NetworkPolicy %s: %w", np.Name, err)
	}
	return nil
}

// StatefulSet updates reconcile the mutable fields only; selector and
// volumeClaimTemplates are immutable after creation.
func (d *Deployer) ensureStatefulSet(ctx context.Context, namespace string, sts *appsv1.StatefulSet) error {
	if sts == nil {
		return nil
	}
	_, err := d.clientset.AppsV1().StatefulSets(namespace).Create(ctx, sts, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		var existing *appsv1.StatefulSet
		existing, err = d.clientset.AppsV1().StatefulSets(namespace).Get(ctx, sts.Name, metav1.GetOptions{})
		if err != nil {
			return fmt.Errorf("failed to get StatefulSet %s: %w", sts.Name, err)
		}
		existing.Labels = sts.Labels
		existing.Spec.Replicas = sts.Spec.Replicas
		existing.Spec.Template = sts.Spec.Template
		existing.Spec.UpdateStrategy = sts.Spec.UpdateStrategy
		_, err = d.clientset.AppsV1().StatefulSets(namespace).Update(ctx, existing, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to ensure StatefulSet %s: %w", sts.Name, err)
	}
	return nil
}
