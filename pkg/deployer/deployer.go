/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package deployer applies, waits on, inspects, and tears down the managed
// cluster resources through the Kubernetes API.
package deployer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/component"
	"github.com/datastackhq/stackctl/pkg/component/types"
	"github.com/datastackhq/stackctl/pkg/defaults"
	"github.com/datastackhq/stackctl/pkg/errors"
	"github.com/datastackhq/stackctl/pkg/k8s/client"
	"github.com/datastackhq/stackctl/pkg/pki"
)

// Deployer orchestrates cluster deployment: certificates first, then the
// manifest set in apply order, then rollout convergence.
type Deployer struct {
	clientset client.Interface
	registry  *component.Registry
	certs     *pki.Manager
}

// New creates a Deployer with the built-in component registry.
func New(clientset client.Interface) *Deployer {
	return &Deployer{
		clientset: clientset,
		registry:  component.NewRegistry(),
		certs:     pki.NewManager(clientset),
	}
}

// DeployOptions control deployment behavior.
type DeployOptions struct {
	// SkipWait returns as soon as resources are applied, without waiting
	// for StatefulSet rollout convergence.
	SkipWait bool

	// RolloutTimeout bounds the wait for each component's rollout.
	// Defaults to defaults.RolloutTimeout.
	RolloutTimeout time.Duration
}

// Deploy validates the configuration, verifies permissions, and deploys every
// configured component in parallel. Each component gets its TLS Secrets
// before any manifest referencing them is applied.
func (d *Deployer) Deploy(ctx context.Context, cfg *cluster.Config, opts DeployOptions) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if _, err := d.CheckPermissions(ctx, cfg.Namespace); err != nil {
		return errors.Wrap(errors.ErrCodePermissionDenied,
			"insufficient permissions to deploy", err)
	}

	if err := d.ensureNamespace(ctx, cfg.Namespace); err != nil {
		return err
	}

	objects, err := d.registry.ObjectsFor(cfg)
	if err != nil {
		return err
	}

	if opts.RolloutTimeout <= 0 {
		opts.RolloutTimeout = defaults.RolloutTimeout
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range cfg.Components() {
		g.Go(func() error {
			return d.deployComponent(gctx, cfg, name, objects[name], opts)
		})
	}
	return g.Wait()
}

func (d *Deployer) deployComponent(ctx context.Context, cfg *cluster.Config,
	name cluster.Component, objects *types.Objects, opts DeployOptions) (err error) {
	start := time.Now()
	defer func() {
		observeDeploy(name, start, err)
	}()

	spec := commonSpecFor(cfg, name)

	issued, err := d.certs.EnsureClusterCerts(ctx, cfg.Namespace, spec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCertificate,
			fmt.Sprintf("failed to ensure certificates for %s", name), err)
	}
	if issued {
		certsIssuedTotal.WithLabelValues(string(name)).Inc()
	}

	if name == cluster.ComponentKafka {
		if err = d.ensureKafkaClusterID(ctx, cfg.Namespace, cfg.Kafka); err != nil {
			return err
		}
	}

	if err = d.applyObjects(ctx, cfg.Namespace, objects); err != nil {
		return fmt.Errorf("failed to apply %s resources: %w", name, err)
	}

	slog.Info("applied component resources",
		"component", name, "namespace", cfg.Namespace, "cluster", spec.Name)

	if opts.SkipWait {
		return nil
	}
	return d.WaitForRollout(ctx, cfg.Namespace, spec.Name, spec.Replicas, opts.RolloutTimeout)
}

// applyObjects ensures each resource in apply order. The StatefulSet goes
// last so its pods never start before config and certs exist.
func (d *Deployer) applyObjects(ctx context.Context, namespace string, objects *types.Objects) error {
	if err := d.ensureServiceAccount(ctx, namespace, objects.ServiceAccount); err != nil {
		return err
	}
	if err := d.ensureConfigMap(ctx, namespace, objects.ConfigMap); err != nil {
		return err
	}
	for _, svc := range objects.Services {
		if err := d.ensureService(ctx, namespace, svc); err != nil {
			return err
		}
	}
	if err := d.ensurePodDisruptionBudget(ctx, namespace, objects.PodDisruptionBudget); err != nil {
		return err
	}
	if err := d.ensureNetworkPolicy(ctx, namespace, objects.NetworkPolicy); err != nil {
		return err
	}
	return d.ensureStatefulSet(ctx, namespace, objects.StatefulSet)
}

// ensureKafkaClusterID persists the KRaft cluster ID in a Secret so every
// deploy formats storage with the ID the cluster was born with. An existing
// Secret always wins over the configured seed.
func (d *Deployer) ensureKafkaClusterID(ctx context.Context, namespace string, spec *cluster.KafkaSpec) error {
	name := spec.ClusterIDSecretName()

	existing, err := d.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		if id := string(existing.Data[cluster.ClusterIDSecretKey]); spec.ClusterID != "" && id != spec.ClusterID {
			slog.Warn("keeping established kafka cluster ID over configured value",
				"secret", name, "namespace", namespace)
		}
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to get Secret %s: %w", name, err)
	}

	id := spec.ClusterID
	if id == "" {
		id = cluster.NewKafkaClusterID()
	}

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    types.Labels(string(cluster.ComponentKafka), spec.Name),
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{cluster.ClusterIDSecretKey: []byte(id)},
	}
	if _, err := d.clientset.CoreV1().Secrets(namespace).Create(ctx, secret, metav1.CreateOptions{}); ignoreAlreadyExists(err) != nil {
		return fmt.Errorf("failed to create Secret %s: %w", name, err)
	}

	slog.Info("established kafka cluster ID", "secret", name, "namespace", namespace)
	return nil
}

func (d *Deployer) ensureNamespace(ctx context.Context, namespace string) error {
	_, err := d.clientset.CoreV1().Namespaces().Create(ctx, &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: namespace},
	}, metav1.CreateOptions{})
	if err := ignoreAlreadyExists(err); err != nil {
		return fmt.Errorf("failed to create namespace %s: %w", namespace, err)
	}
	return nil
}

// commonSpecFor returns the shared spec for the named component. The config
// is validated before this is reached, so the spec is present.
func commonSpecFor(cfg *cluster.Config, name cluster.Component) *cluster.CommonSpec {
	switch name {
	case cluster.ComponentElasticsearch:
		return &cfg.Elasticsearch.CommonSpec
	case cluster.ComponentKafka:
		return &cfg.Kafka.CommonSpec
	}
	return nil
}

// ignoreAlreadyExists returns nil if the error is "already exists".
// Used to make resource creation idempotent.
func ignoreAlreadyExists(err error) error {
	if apierrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// ignoreNotFound returns nil if the error is "not found".
// Used to make resource deletion idempotent.
func ignoreNotFound(err error) error {
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}
