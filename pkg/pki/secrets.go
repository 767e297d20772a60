// Copyright (c) 2026, Datastack Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pki

import (
	"context"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/k8s/client"
)

// Secret data keys for the certs Secret.
const (
	KeyKeystore   = "keystore.p12"
	KeyTruststore = "truststore.jks"
	KeyCACert     = "ca.crt"
	KeyCAKey      = "ca.key"
	KeyCABundle   = "ca-bundle.crt"
	KeyTLSCert    = "tls.crt"
	KeyTLSKey     = "tls.key"
)

// Secret data keys for the password Secret.
const (
	KeyKeystorePassword   = "keystore-password"
	KeyTruststorePassword = "truststore-password"
)

// Secrets packs the material into the two Secrets a cluster mounts: the
// store/PEM bundle and the companion password Secret.
func (m *Material) Secrets(namespace string, spec *cluster.CommonSpec) []*corev1.Secret {
	labels := map[string]string{
		"app.kubernetes.io/instance":   spec.Name,
		"app.kubernetes.io/managed-by": "stackctl",
	}

	certs := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.CertsSecretName(),
			Namespace: namespace,
			Labels:    labels,
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			KeyKeystore:   m.Keystore,
			KeyTruststore: m.Truststore,
			KeyCACert:     m.CACertPEM,
			KeyCAKey:      m.CAKeyPEM,
			KeyCABundle:   m.CABundlePEM,
			KeyTLSCert:    m.NodeCertPEM,
			KeyTLSKey:     m.NodeKeyPEM,
		},
	}

	passwords := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.PassSecretName(),
			Namespace: namespace,
			Labels:    labels,
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			KeyKeystorePassword:   []byte(m.KeystorePassword),
			KeyTruststorePassword: []byte(m.TruststorePassword),
		},
	}

	return []*corev1.Secret{certs, passwords}
}

// Manager issues and rotates cluster TLS Secrets through the Kubernetes API.
type Manager struct {
	clientset client.Interface
}

// NewManager creates a Manager backed by the given clientset.
func NewManager(clientset client.Interface) *Manager {
	return &Manager{clientset: clientset}
}

// EnsureClusterCerts issues TLS material for the cluster unless the certs
// Secret already exists. Returns true when new material was issued.
func (mgr *Manager) EnsureClusterCerts(ctx context.Context, namespace string, spec *cluster.CommonSpec) (bool, error) {
	_, err := mgr.clientset.CoreV1().Secrets(namespace).Get(ctx, spec.CertsSecretName(), metav1.GetOptions{})
	if err == nil {
		slog.Debug("certs secret already present, skipping issuance",
			"namespace", namespace, "secret", spec.CertsSecretName())
		return false, nil
	}
	if !apierrors.IsNotFound(err) {
		return false, fmt.Errorf("failed to check certs secret %s/%s: %w",
			namespace, spec.CertsSecretName(), err)
	}

	material, err := Issue(spec.Name, PodDNSNames(spec.Name, spec.HeadlessServiceName(), namespace, spec.Replicas))
	if err != nil {
		return false, fmt.Errorf("failed to issue certs for %s: %w", spec.Name, err)
	}

	if err := mgr.writeSecrets(ctx, namespace, material.Secrets(namespace, spec)); err != nil {
		return false, err
	}

	slog.Info("issued cluster certificates",
		"cluster", spec.Name, "namespace", namespace, "secret", spec.CertsSecretName())
	return true, nil
}

// RotateClusterCerts generates a new CA and node certificate for the
// cluster, keeping the previous CA in the trust bundle. Falls back to an
// initial issue when no Secret exists yet.
func (mgr *Manager) RotateClusterCerts(ctx context.Context, namespace string, spec *cluster.CommonSpec) error {
	existing, err := mgr.clientset.CoreV1().Secrets(namespace).Get(ctx, spec.CertsSecretName(), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		slog.Warn("no existing certs secret, performing initial issue instead of rotation",
			"cluster", spec.Name, "namespace", namespace)
		_, err = mgr.EnsureClusterCerts(ctx, namespace, spec)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to read certs secret %s/%s: %w",
			namespace, spec.CertsSecretName(), err)
	}

	previousCA, ok := existing.Data[KeyCACert]
	if !ok {
		return fmt.Errorf("certs secret %s/%s has no %s key",
			namespace, spec.CertsSecretName(), KeyCACert)
	}

	dnsNames := PodDNSNames(spec.Name, spec.HeadlessServiceName(), namespace, spec.Replicas)
	material, err := Rotate(spec.Name, dnsNames, previousCA)
	if err != nil {
		return fmt.Errorf("failed to rotate certs for %s: %w", spec.Name, err)
	}

	if err := mgr.writeSecrets(ctx, namespace, material.Secrets(namespace, spec)); err != nil {
		return err
	}

	slog.Info("rotated cluster certificates",
		"cluster", spec.Name, "namespace", namespace, "secret", spec.CertsSecretName())
	return nil
}

// DeleteClusterCerts removes both TLS Secrets. Missing Secrets are ignored.
func (mgr *Manager) DeleteClusterCerts(ctx context.Context, namespace string, spec *cluster.CommonSpec) error {
	for _, name := range []string{spec.CertsSecretName(), spec.PassSecretName()} {
		err := mgr.clientset.CoreV1().Secrets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete secret %s/%s: %w", namespace, name, err)
		}
	}
	return nil
}

// writeSecrets creates each Secret, updating in place when it already exists.
func (mgr *Manager) writeSecrets(ctx context.Context, namespace string, secrets []*corev1.Secret) error {
	for _, secret := range secrets {
		_, err := mgr.clientset.CoreV1().Secrets(namespace).Create(ctx, secret, metav1.CreateOptions{})
		if apierrors.IsAlreadyExists(err) {
			_, err = mgr.clientset.CoreV1().Secrets(namespace).Update(ctx, secret, metav1.UpdateOptions{})
		}
		if err != nil {
			return fmt.Errorf("failed to write secret %s/%s: %w", namespace, secret.Name, err)
		}
	}
	return nil
}
