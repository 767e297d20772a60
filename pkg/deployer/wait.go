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

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/datastackhq/stackctl/pkg/defaults"
	"github.com/datastackhq/stackctl/pkg/errors"
)

// WaitForRollout blocks until the named StatefulSet has the expected number
// of updated, ready replicas or the timeout expires. The API server closes
// long-lived watches routinely; an expired watch is re-established after
// rechecking current state, not treated as a rollout failure.
func (d *Deployer) WaitForRollout(ctx context.Context, namespace, name string, replicas int32, timeout time.Duration) error {
	start := time.Now()
	defer func() {
		rolloutWaitDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.Info("waiting for rollout", "statefulset", name, "namespace", namespace, "replicas", replicas)

	for {
		if timeoutCtx.Err() != nil {
			return errors.NewWithContext(errors.ErrCodeTimeout,
				fmt.Sprintf("timeout waiting for StatefulSet %s rollout after %v", name, timeout),
				map[string]any{"namespace": namespace, "statefulset": name})
		}

		// Convergence may have landed before the watch, or between watches.
		current, err := d.clientset.AppsV1().StatefulSets(namespace).Get(timeoutCtx, name, metav1.GetOptions{})
		if err == nil && statefulSetReady(current, replicas) {
			return nil
		}

		watcher, err := d.clientset.AppsV1().StatefulSets(namespace).Watch(timeoutCtx, metav1.ListOptions{
			FieldSelector: fmt.Sprintf("metadata.name=%s", name),
			Watch:         true,
		})
		if err != nil {
			return fmt.Errorf("failed to watch StatefulSet %s: %w", name, err)
		}

		done, err := d.observeRollout(timeoutCtx, watcher, namespace, name, replicas, timeout)
		watcher.Stop()
		if done {
			return err
		}
		slog.Debug("watch expired, re-establishing", "statefulset", name, "namespace", namespace)
	}
}

// observeRollout consumes watch events until the rollout converges, the
// context expires, or the watch channel closes. A closed channel returns
// done=false so the caller can re-establish the watch.
func (d *Deployer) observeRollout(ctx context.Context, watcher watch.Interface,
	namespace, name string, replicas int32, timeout time.Duration) (bool, error) {
	for {
		select {
		case <-ctx.Done():
			return true, errors.NewWithContext(errors.ErrCodeTimeout,
				fmt.Sprintf("timeout waiting for StatefulSet %s rollout after %v", name, timeout),
				map[string]any{"namespace": namespace, "statefulset": name})

		case event, ok := <-watcher.ResultChan():
			if !ok {
				return false, nil
			}

			if event.Type == watch.Error {
				return true, errors.New(errors.ErrCodeRolloutFailed,
					fmt.Sprintf("watch error while waiting for StatefulSet %s: %v", name, event.Object))
			}

			sts, ok := event.Object.(*appsv1.StatefulSet)
			if !ok {
				continue
			}

			if statefulSetReady(sts, replicas) {
				slog.Info("rollout complete", "statefulset", name, "namespace", namespace)
				return true, nil
			}
			slog.Debug("rollout progressing",
				"statefulset", name,
				"ready", sts.Status.ReadyReplicas,
				"updated", sts.Status.UpdatedReplicas,
				"expected", replicas)
		}
	}
}

func statefulSetReady(sts *appsv1.StatefulSet, replicas int32) bool {
	return sts.Status.ObservedGeneration >= sts.Generation &&
		sts.Status.UpdatedReplicas == replicas &&
		sts.Status.ReadyReplicas == replicas
}

// waitForStatefulSetGone polls until the StatefulSet no longer exists.
func (d *Deployer) waitForStatefulSetGone(ctx context.Context, namespace, name string, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, defaults.PodReadyPollInterval, timeout, true,
		func(ctx context.Context) (bool, error) {
			_, err := d.clientset.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
			if err != nil {
				if ignoreNotFound(err) == nil {
					return true, nil
				}
				return false, err
			}
			return false, nil
		})
}
