/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package deployer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/component/types"
	"github.com/datastackhq/stackctl/pkg/defaults"
)

// TeardownOptions control what teardown removes beyond the workload.
type TeardownOptions struct {
	// DeleteData also removes the persistent volume claims. Irreversible.
	DeleteData bool

	// DeleteCerts also removes the TLS Secrets. A later deploy issues
	// fresh certificates.
	DeleteCerts bool

	// Timeout bounds the wait for StatefulSet deletion.
	// Defaults to defaults.TeardownTimeout.
	Timeout time.Duration
}

// Teardown removes the configured components in reverse deploy order. Data
// volumes and TLS Secrets survive unless the options say otherwise, so a
// cluster can be torn down and redeployed onto its existing state.
func (d *Deployer) Teardown(ctx context.Context, cfg *cluster.Config, opts TeardownOptions) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	objects, err := d.registry.ObjectsFor(cfg)
	if err != nil {
		return err
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaults.TeardownTimeout
	}

	components := cfg.Components()
	for i := len(components) - 1; i >= 0; i-- {
		name := components[i]
		if err := d.teardownComponent(ctx, cfg, name, objects[name], opts); err != nil {
			teardownsTotal.WithLabelValues(string(name), "error").Inc()
			return fmt.Errorf("failed to tear down %s: %w", name, err)
		}
		teardownsTotal.WithLabelValues(string(name), "success").Inc()
	}
	return nil
}

// teardownComponent deletes the manifest set in reverse apply order: the
// StatefulSet first so pods stop before their config and certs disappear.
func (d *Deployer) teardownComponent(ctx context.Context, cfg *cluster.Config,
	name cluster.Component, objects *types.Objects, opts TeardownOptions) error {
	namespace := cfg.Namespace
	spec := commonSpecFor(cfg, name)

	if sts := objects.StatefulSet; sts != nil {
		err := d.clientset.AppsV1().StatefulSets(namespace).Delete(ctx, sts.Name, metav1.DeleteOptions{})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete StatefulSet %s: %w", sts.Name, err)
		}
		if err := d.waitForStatefulSetGone(ctx, namespace, sts.Name, opts.Timeout); err != nil {
			return fmt.Errorf("timeout waiting for StatefulSet %s deletion: %w", sts.Name, err)
		}
	}

	if np := objects.NetworkPolicy; np != nil {
		err := d.clientset.NetworkingV1().NetworkPolicies(namespace).Delete(ctx, np.Name, metav1.DeleteOptions{})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete NetworkPolicy %s: %w", np.Name, err)
		}
	}

	if pdb := objects.PodDisruptionBudget; pdb != nil {
		err := d.clientset.PolicyV1().PodDisruptionBudgets(namespace).Delete(ctx, pdb.Name, metav1.DeleteOptions{})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete PodDisruptionBudget %s: %w", pdb.Name, err)
		}
	}

	for _, svc := range objects.Services {
		err := d.clientset.CoreV1().Services(namespace).Delete(ctx, svc.Name, metav1.DeleteOptions{})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete Service %s: %w", svc.Name, err)
		}
	}

	if cm := objects.ConfigMap; cm != nil {
		err := d.clientset.CoreV1().ConfigMaps(namespace).Delete(ctx, cm.Name, metav1.DeleteOptions{})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete ConfigMap %s: %w", cm.Name, err)
		}
	}

	if sa := objects.ServiceAccount; sa != nil {
		err := d.clientset.CoreV1().ServiceAccounts(namespace).Delete(ctx, sa.Name, metav1.DeleteOptions{})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete ServiceAccount %s: %w", sa.Name, err)
		}
	}

	if opts.DeleteData {
		if err := d.deleteDataVolumes(ctx, namespace, name, spec.Name); err != nil {
			return err
		}
		// The cluster ID lives and dies with the formatted volumes.
		if name == cluster.ComponentKafka && cfg.Kafka != nil {
			idSecret := cfg.Kafka.ClusterIDSecretName()
			err := d.clientset.CoreV1().Secrets(namespace).Delete(ctx, idSecret, metav1.DeleteOptions{})
			if err := ignoreNotFound(err); err != nil {
				return fmt.Errorf("failed to delete Secret %s: %w", idSecret, err)
			}
		}
	}

	if opts.DeleteCerts {
		if err := d.certs.DeleteClusterCerts(ctx, namespace, spec); err != nil {
			return err
		}
	}

	slog.Info("component torn down",
		"component", name, "namespace", namespace, "cluster", spec.Name,
		"dataDeleted", opts.DeleteData, "certsDeleted", opts.DeleteCerts)
	return nil
}

// deleteDataVolumes removes the PVCs the StatefulSet's volumeClaimTemplates
// created, matched by the selector labels stamped on each claim.
func (d *Deployer) deleteDataVolumes(ctx context.Context, namespace string, name cluster.Component, instance string) error {
	selector := labels.Set(types.SelectorLabels(string(name), instance)).String()

	pvcs, err := d.clientset.CoreV1().PersistentVolumeClaims(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return fmt.Errorf("failed to list PVCs for %s: %w", instance, err)
	}

	for _, pvc := range pvcs.Items {
		err := d.clientset.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, pvc.Name, metav1.DeleteOptions{})
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("failed to delete PVC %s: %w", pvc.Name, err)
		}
		slog.Info("deleted data volume", "pvc", pvc.Name, "namespace", namespace)
	}
	return nil
}
