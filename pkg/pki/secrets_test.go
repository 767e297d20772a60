package pki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/datastackhq/stackctl/pkg/cluster"
)

func testSpec() *cluster.CommonSpec {
	return &cluster.CommonSpec{
		Name:     "kafka",
		Replicas: 3,
	}
}

func TestManager_EnsureClusterCerts(t *testing.T) {
	clientset := fake.NewClientset()
	mgr := NewManager(clientset)
	ctx := context.Background()
	spec := testSpec()

	issued, err := mgr.EnsureClusterCerts(ctx, "data", spec)
	require.NoError(t, err)
	assert.True(t, issued)

	certs, err := clientset.CoreV1().Secrets("data").Get(ctx, "kafka-certs", metav1.GetOptions{})
	require.NoError(t, err)
	for _, key := range []string{KeyKeystore, KeyTruststore, KeyCACert, KeyCAKey, KeyCABundle, KeyTLSCert, KeyTLSKey} {
		assert.NotEmpty(t, certs.Data[key], "missing key %s", key)
	}
	assert.Equal(t, "stackctl", certs.Labels["app.kubernetes.io/managed-by"])

	pass, err := clientset.CoreV1().Secrets("data").Get(ctx, "kafka-keystore-pass", metav1.GetOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, pass.Data[KeyKeystorePassword])
	assert.NotEmpty(t, pass.Data[KeyTruststorePassword])

	// Second call is a no-op: existing material is left untouched.
	issued, err = mgr.EnsureClusterCerts(ctx, "data", spec)
	require.NoError(t, err)
	assert.False(t, issued)

	after, err := clientset.CoreV1().Secrets("data").Get(ctx, "kafka-certs", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, certs.Data[KeyCACert], after.Data[KeyCACert])
}

func TestManager_RotateClusterCerts(t *testing.T) {
	clientset := fake.NewClientset()
	mgr := NewManager(clientset)
	ctx := context.Background()
	spec := testSpec()

	_, err := mgr.EnsureClusterCerts(ctx, "data", spec)
	require.NoError(t, err)

	before, err := clientset.CoreV1().Secrets("data").Get(ctx, "kafka-certs", metav1.GetOptions{})
	require.NoError(t, err)
	oldCA := before.Data[KeyCACert]

	require.NoError(t, mgr.RotateClusterCerts(ctx, "data", spec))

	after, err := clientset.CoreV1().Secrets("data").Get(ctx, "kafka-certs", metav1.GetOptions{})
	require.NoError(t, err)

	// New CA issued, old CA still in the trust bundle.
	assert.NotEqual(t, oldCA, after.Data[KeyCACert])
	assert.Contains(t, string(after.Data[KeyCABundle]), string(after.Data[KeyCACert]))
	assert.Contains(t, string(after.Data[KeyCABundle]), string(oldCA))

	// Truststore trusts both CAs.
	passSecret, err := clientset.CoreV1().Secrets("data").Get(ctx, "kafka-keystore-pass", metav1.GetOptions{})
	require.NoError(t, err)
	cas, err := DecodeJKSTruststore(after.Data[KeyTruststore], string(passSecret.Data[KeyTruststorePassword]))
	require.NoError(t, err)
	assert.Len(t, cas, 2)
}

func TestManager_RotateFallsBackToIssue(t *testing.T) {
	clientset := fake.NewClientset()
	mgr := NewManager(clientset)
	ctx := context.Background()

	require.NoError(t, mgr.RotateClusterCerts(ctx, "data", testSpec()))

	certs, err := clientset.CoreV1().Secrets("data").Get(ctx, "kafka-certs", metav1.GetOptions{})
	require.NoError(t, err)
	// Initial issue trusts a single CA.
	assert.Equal(t, string(certs.Data[KeyCACert]), string(certs.Data[KeyCABundle]))
}

func TestManager_DeleteClusterCerts(t *testing.T) {
	clientset := fake.NewClientset()
	mgr := NewManager(clientset)
	ctx := context.Background()
	spec := testSpec()

	_, err := mgr.EnsureClusterCerts(ctx, "data", spec)
	require.NoError(t, err)

	require.NoError(t, mgr.DeleteClusterCerts(ctx, "data", spec))

	_, err = clientset.CoreV1().Secrets("data").Get(ctx, "kafka-certs", metav1.GetOptions{})
	assert.Error(t, err)

	// Deleting again is a no-op.
	require.NoError(t, mgr.DeleteClusterCerts(ctx, "data", spec))
}
