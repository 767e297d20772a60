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

// Package pki issues the TLS material securing intra-cluster and client
// traffic: a per-cluster certificate authority, node certificates with SANs
// covering every stable pod identity, and the keystore/truststore files the
// JVM-based components consume. Rotation keeps the previous CA trusted so
// nodes stay connected through the rolling restart.
package pki

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/datastackhq/stackctl/pkg/defaults"
)

const (
	// rsaKeyBits is the key size for CA and node keys.
	rsaKeyBits = 2048

	pemTypeCertificate = "CERTIFICATE"
	pemTypePrivateKey  = "PRIVATE KEY"
)

// Authority is a self-signed certificate authority scoped to one cluster.
type Authority struct {
	Cert *x509.Certificate
	Key  *rsa.PrivateKey
}

// NewAuthority generates a key pair and self-signed CA certificate with the
// given common name.
func NewAuthority(commonName string) (*Authority, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CA key: %w", err)
	}

	serial, err := newSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"stackctl"},
		},
		NotBefore:             now.Add(-5 * time.Minute),
		NotAfter:              now.Add(defaults.CACertValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create CA certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CA certificate: %w", err)
	}

	return &Authority{Cert: cert, Key: key}, nil
}

// CertPEM returns the CA certificate in PEM form.
func (a *Authority) CertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: a.Cert.Raw})
}

// KeyPEM returns the CA private key as PKCS#8 PEM.
func (a *Authority) KeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(a.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal CA key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// NodeCert is a leaf certificate shared by the nodes of one cluster.
type NodeCert struct {
	Cert *x509.Certificate
	Key  *rsa.PrivateKey

	CertPEM []byte
	KeyPEM  []byte
}

// IssueNodeCert issues a server+client leaf certificate for the cluster with
// the given SANs. All nodes of a StatefulSet share one certificate; identity
// comes from the DNS SAN set covering every ordinal.
func (a *Authority) IssueNodeCert(commonName string, dnsNames []string, ips []net.IP) (*NodeCert, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate node key: %w", err)
	}

	serial, err := newSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"stackctl"},
		},
		NotBefore:   now.Add(-5 * time.Minute),
		NotAfter:    now.Add(defaults.NodeCertValidity),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		DNSNames:    dnsNames,
		IPAddresses: ips,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, a.Cert, &key.PublicKey, a.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create node certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node certificate: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node key: %w", err)
	}

	return &NodeCert{
		Cert:    cert,
		Key:     key,
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: keyDER}),
	}, nil
}

// PodDNSNames returns the SANs covering every stable network identity of a
// StatefulSet: each ordinal's pod DNS name plus the governing services.
func PodDNSNames(name, headlessService, namespace string, replicas int32) []string {
	names := []string{
		"localhost",
		name,
		fmt.Sprintf("%s.%s", name, namespace),
		fmt.Sprintf("%s.%s.svc", name, namespace),
		fmt.Sprintf("%s.%s.svc.cluster.local", name, namespace),
		fmt.Sprintf("%s.%s.svc", headlessService, namespace),
		fmt.Sprintf("%s.%s.svc.cluster.local", headlessService, namespace),
		fmt.Sprintf("*.%s.%s.svc", headlessService, namespace),
		fmt.Sprintf("*.%s.%s.svc.cluster.local", headlessService, namespace),
	}
	for i := int32(0); i < replicas; i++ {
		names = append(names,
			fmt.Sprintf("%s-%d.%s.%s.svc.cluster.local", name, i, headlessService, namespace))
	}
	return names
}

// ParseCertificatePEM parses the first certificate block in the given PEM.
func ParseCertificatePEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypeCertificate {
		return nil, fmt.Errorf("no certificate PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}

// newSerial generates a random 128-bit certificate serial number.
func newSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}
	return serial, nil
}
