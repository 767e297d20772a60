package pki

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"software.sslmate.com/src/go-pkcs12"
)

func TestRandomPassword(t *testing.T) {
	a, err := RandomPassword()
	require.NoError(t, err)
	b, err := RandomPassword()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Greater(t, len(a), 20)
}

func TestEncodePKCS12Keystore(t *testing.T) {
	ca, err := NewAuthority("kafka CA")
	require.NoError(t, err)
	node, err := ca.IssueNodeCert("kafka", []string{"localhost"}, nil)
	require.NoError(t, err)

	data, err := EncodePKCS12Keystore(node, []*x509.Certificate{ca.Cert}, "store-pass")
	require.NoError(t, err)

	key, leaf, chain, err := pkcs12.DecodeChain(data, "store-pass")
	require.NoError(t, err)
	assert.NotNil(t, key)
	assert.Equal(t, node.Cert.Raw, leaf.Raw)
	require.Len(t, chain, 1)
	assert.Equal(t, ca.Cert.Raw, chain[0].Raw)

	_, _, _, err = pkcs12.DecodeChain(data, "wrong-pass")
	assert.Error(t, err)
}

func TestJKSTruststoreRoundTrip(t *testing.T) {
	oldCA, err := NewAuthority("kafka CA")
	require.NoError(t, err)
	newCA, err := NewAuthority("kafka CA")
	require.NoError(t, err)

	data, err := EncodeJKSTruststore([]*x509.Certificate{newCA.Cert, oldCA.Cert}, "trust-pass")
	require.NoError(t, err)

	cas, err := DecodeJKSTruststore(data, "trust-pass")
	require.NoError(t, err)
	require.Len(t, cas, 2)

	raws := [][]byte{cas[0].Raw, cas[1].Raw}
	assert.Contains(t, raws, oldCA.Cert.Raw)
	assert.Contains(t, raws, newCA.Cert.Raw)

	_, err = DecodeJKSTruststore(data, "wrong-pass")
	assert.Error(t, err)
}
