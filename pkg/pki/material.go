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
	"crypto/x509"
	"fmt"
	"net"
)

// Material is the complete TLS bundle for one cluster, ready to be packed
// into Kubernetes Secrets.
type Material struct {
	// CACertPEM is the current (newest) CA certificate.
	CACertPEM []byte
	// CAKeyPEM is the current CA private key, kept for re-issuing leaves.
	CAKeyPEM []byte
	// CABundlePEM concatenates every trusted CA certificate. Equal to
	// CACertPEM on initial issue; old+new after a rotation.
	CABundlePEM []byte

	// NodeCertPEM and NodeKeyPEM are the shared node leaf pair.
	NodeCertPEM []byte
	NodeKeyPEM  []byte

	// Keystore is the PKCS#12 store with the node key and chain.
	Keystore []byte
	// Truststore is the JKS store with the trusted CA set.
	Truststore []byte

	KeystorePassword   string
	TruststorePassword string
}

// Issue generates a fresh CA and node certificate for a cluster. This is the
// initial-setup branch: the truststore trusts only the new CA.
func Issue(clusterName string, dnsNames []string) (*Material, error) {
	ca, err := NewAuthority(clusterName + " CA")
	if err != nil {
		return nil, err
	}
	return build(ca, clusterName, dnsNames, nil)
}

// Rotate generates a new CA and node certificate while keeping the previous
// CA certificate trusted. Nodes presenting certs from either CA keep talking
// to each other until the rolling restart completes, after which a second
// rotation (or a re-issue) can drop the old CA.
func Rotate(clusterName string, dnsNames []string, previousCAPEM []byte) (*Material, error) {
	previous, err := ParseCertificatePEM(previousCAPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse previous CA: %w", err)
	}

	ca, err := NewAuthority(clusterName + " CA")
	if err != nil {
		return nil, err
	}
	return build(ca, clusterName, dnsNames, []*x509.Certificate{previous})
}

// build issues the node leaf from ca and assembles stores. extraTrusted
// carries CAs that must remain trusted alongside the new one.
func build(ca *Authority, clusterName string, dnsNames []string, extraTrusted []*x509.Certificate) (*Material, error) {
	node, err := ca.IssueNodeCert(clusterName, dnsNames, []net.IP{net.ParseIP("127.0.0.1")})
	if err != nil {
		return nil, err
	}

	keystorePass, err := RandomPassword()
	if err != nil {
		return nil, err
	}
	truststorePass, err := RandomPassword()
	if err != nil {
		return nil, err
	}

	trusted := append([]*x509.Certificate{ca.Cert}, extraTrusted...)

	ks, err := EncodePKCS12Keystore(node, []*x509.Certificate{ca.Cert}, keystorePass)
	if err != nil {
		return nil, err
	}
	ts, err := EncodeJKSTruststore(trusted, truststorePass)
	if err != nil {
		return nil, err
	}

	caKeyPEM, err := ca.KeyPEM()
	if err != nil {
		return nil, err
	}

	bundle := make([]byte, 0, len(trusted)*len(ca.CertPEM()))
	bundle = append(bundle, ca.CertPEM()...)
	for _, extra := range extraTrusted {
		bundle = append(bundle, encodeCertPEM(extra)...)
	}

	return &Material{
		CACertPEM:          ca.CertPEM(),
		CAKeyPEM:           caKeyPEM,
		CABundlePEM:        bundle,
		NodeCertPEM:        node.CertPEM,
		NodeKeyPEM:         node.KeyPEM,
		Keystore:           ks,
		Truststore:         ts,
		KeystorePassword:   keystorePass,
		TruststorePassword: truststorePass,
	}, nil
}

func encodeCertPEM(cert *x509.Certificate) []byte {
	return (&Authority{Cert: cert}).CertPEM()
}
