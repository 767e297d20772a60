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
	"bytes"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
	"software.sslmate.com/src/go-pkcs12"
)

// passwordBytes is the entropy of generated store passwords.
const passwordBytes = 24

// RandomPassword returns a URL-safe random password for store encryption.
func RandomPassword() (string, error) {
	buf := make([]byte, passwordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// EncodePKCS12Keystore packs the node key, leaf certificate, and CA chain
// into a PKCS#12 keystore (the format both Elasticsearch and Kafka accept).
func EncodePKCS12Keystore(nc *NodeCert, cas []*x509.Certificate, password string) ([]byte, error) {
	data, err := pkcs12.Modern.Encode(nc.Key, nc.Cert, cas, password)
	if err != nil {
		return nil, fmt.Errorf("failed to encode PKCS#12 keystore: %w", err)
	}
	return data, nil
}

// EncodeJKSTruststore builds a JKS truststore holding the given CA
// certificates as trusted entries. During rotation both the old and new CA
// land here, aliased ca-0, ca-1, ...
func EncodeJKSTruststore(cas []*x509.Certificate, password string) ([]byte, error) {
	ks := keystore.New()
	now := time.Now()

	for i, ca := range cas {
		alias := fmt.Sprintf("ca-%d", i)
		entry := keystore.TrustedCertificateEntry{
			CreationTime: now,
			Certificate: keystore.Certificate{
				Type:    "X509",
				Content: ca.Raw,
			},
		}
		if err := ks.SetTrustedCertificateEntry(alias, entry); err != nil {
			return nil, fmt.Errorf("failed to add CA %q to truststore: %w", alias, err)
		}
	}

	var buf bytes.Buffer
	if err := ks.Store(&buf, []byte(password)); err != nil {
		return nil, fmt.Errorf("failed to encode JKS truststore: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeJKSTruststore parses a JKS truststore back into CA certificates,
// ordered by alias. Used when rotating against existing Secret material.
func DecodeJKSTruststore(data []byte, password string) ([]*x509.Certificate, error) {
	ks := keystore.New()
	if err := ks.Load(bytes.NewReader(data), []byte(password)); err != nil {
		return nil, fmt.Errorf("failed to load JKS truststore: %w", err)
	}

	aliases := ks.Aliases()
	cas := make([]*x509.Certificate, 0, len(aliases))
	for _, alias := range aliases {
		entry, err := ks.GetTrustedCertificateEntry(alias)
		if err != nil {
			return nil, fmt.Errorf("failed to read truststore entry %q: %w", alias, err)
		}
		cert, err := x509.ParseCertificate(entry.Certificate.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse truststore entry %q: %w", alias, err)
		}
		cas = append(cas, cert)
	}
	return cas, nil
}
