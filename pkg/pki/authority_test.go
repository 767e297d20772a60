package pki

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthority(t *testing.T) {
	ca, err := NewAuthority("kafka CA")
	require.NoError(t, err)

	assert.True(t, ca.Cert.IsCA)
	assert.Equal(t, "kafka CA", ca.Cert.Subject.CommonName)

	// Self-signed.
	require.NoError(t, ca.Cert.CheckSignatureFrom(ca.Cert))

	// PEM round-trip.
	parsed, err := ParseCertificatePEM(ca.CertPEM())
	require.NoError(t, err)
	assert.Equal(t, ca.Cert.Raw, parsed.Raw)

	keyPEM, err := ca.KeyPEM()
	require.NoError(t, err)
	assert.Contains(t, string(keyPEM), "PRIVATE KEY")
}

func TestIssueNodeCert(t *testing.T) {
	ca, err := NewAuthority("elasticsearch CA")
	require.NoError(t, err)

	dnsNames := PodDNSNames("elasticsearch", "elasticsearch-headless", "data", 3)
	node, err := ca.IssueNodeCert("elasticsearch", dnsNames, nil)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(ca.Cert)

	for _, name := range []string{
		"elasticsearch-0.elasticsearch-headless.data.svc.cluster.local",
		"elasticsearch-2.elasticsearch-headless.data.svc.cluster.local",
		"anything.elasticsearch-headless.data.svc.cluster.local",
		"elasticsearch.data.svc",
		"localhost",
	} {
		_, err := node.Cert.Verify(x509.VerifyOptions{
			Roots:     pool,
			DNSName:   name,
			KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		})
		assert.NoError(t, err, "SAN %s should verify", name)
	}

	// An ordinal beyond the replica count is only covered by the wildcard at
	// one level; a different namespace must not verify.
	_, err = node.Cert.Verify(x509.VerifyOptions{
		Roots:   pool,
		DNSName: "elasticsearch-0.elasticsearch-headless.other.svc.cluster.local",
	})
	assert.Error(t, err)

	// Client auth usage present for mutual TLS between nodes.
	assert.Contains(t, node.Cert.ExtKeyUsage, x509.ExtKeyUsageClientAuth)
}

func TestPodDNSNames(t *testing.T) {
	names := PodDNSNames("kafka", "kafka-headless", "data", 3)

	assert.Contains(t, names, "kafka-0.kafka-headless.data.svc.cluster.local")
	assert.Contains(t, names, "kafka-2.kafka-headless.data.svc.cluster.local")
	assert.Contains(t, names, "*.kafka-headless.data.svc.cluster.local")
	assert.Contains(t, names, "kafka.data.svc")
	assert.NotContains(t, names, "kafka-3.kafka-headless.data.svc.cluster.local")
}
