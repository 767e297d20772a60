package deployer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	authv1 "k8s.io/api/authorization/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	"k8s.io/utils/ptr"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/component/types"
	"github.com/datastackhq/stackctl/pkg/errors"
	"github.com/datastackhq/stackctl/pkg/pki"
)

const testNamespace = "data"

func newTestDeployer(allowed bool) (*Deployer, *fake.Clientset) {
	clientset := fake.NewClientset()
	clientset.PrependReactor("create", "selfsubjectaccessreviews",
		func(_ k8stesting.Action) (bool, runtime.Object, error) {
			return true, &authv1.SelfSubjectAccessReview{
				Status: authv1.SubjectAccessReviewStatus{Allowed: allowed},
			}, nil
		})
	return New(clientset), clientset
}

func testClusterConfig() *cluster.Config {
	kafka := cluster.DefaultKafkaSpec()
	kafka.ClusterID = cluster.NewKafkaClusterID()
	return &cluster.Config{
		Namespace:     testNamespace,
		Elasticsearch: cluster.DefaultElasticsearchSpec(),
		Kafka:         kafka,
	}
}

func TestDeploy(t *testing.T) {
	d, clientset := newTestDeployer(true)
	cfg := testClusterConfig()
	ctx := context.Background()

	require.NoError(t, d.Deploy(ctx, cfg, DeployOptions{SkipWait: true}))

	t.Run("namespace created", func(t *testing.T) {
		_, err := clientset.CoreV1().Namespaces().Get(ctx, testNamespace, metav1.GetOptions{})
		assert.NoError(t, err)
	})

	t.Run("workload resources applied", func(t *testing.T) {
		for _, name := range []string{"elasticsearch", "kafka"} {
			sts, err := clientset.AppsV1().StatefulSets(testNamespace).Get(ctx, name, metav1.GetOptions{})
			require.NoError(t, err, "StatefulSet %s not found", name)
			assert.Equal(t, int32(3), *sts.Spec.Replicas)

			_, err = clientset.CoreV1().ConfigMaps(testNamespace).Get(ctx, name+"-config", metav1.GetOptions{})
			assert.NoError(t, err)

			_, err = clientset.CoreV1().Services(testNamespace).Get(ctx, name+"-headless", metav1.GetOptions{})
			assert.NoError(t, err)

			_, err = clientset.PolicyV1().PodDisruptionBudgets(testNamespace).Get(ctx, name, metav1.GetOptions{})
			assert.NoError(t, err)

			_, err = clientset.NetworkingV1().NetworkPolicies(testNamespace).Get(ctx, name, metav1.GetOptions{})
			assert.NoError(t, err)
		}
	})

	t.Run("certificates issued", func(t *testing.T) {
		for _, name := range []string{"elasticsearch", "kafka"} {
			secret, err := clientset.CoreV1().Secrets(testNamespace).Get(ctx, name+"-certs", metav1.GetOptions{})
			require.NoError(t, err)
			assert.NotEmpty(t, secret.Data[pki.KeyKeystore])
			assert.NotEmpty(t, secret.Data[pki.KeyTruststore])

			_, err = clientset.CoreV1().Secrets(testNamespace).Get(ctx, name+"-keystore-pass", metav1.GetOptions{})
			assert.NoError(t, err)
		}
	})

	t.Run("redeploy is idempotent and keeps certs", func(t *testing.T) {
		before, err := clientset.CoreV1().Secrets(testNamespace).Get(ctx, "kafka-certs", metav1.GetOptions{})
		require.NoError(t, err)

		require.NoError(t, d.Deploy(ctx, cfg, DeployOptions{SkipWait: true}))

		after, err := clientset.CoreV1().Secrets(testNamespace).Get(ctx, "kafka-certs", metav1.GetOptions{})
		require.NoError(t, err)
		assert.Equal(t, before.Data[pki.KeyCACert], after.Data[pki.KeyCACert])
	})
}

func TestDeploy_RebuiltConfigKeepsClusterID(t *testing.T) {
	d, clientset := newTestDeployer(true)
	ctx := context.Background()

	// Each invocation builds its config from scratch, generating a fresh
	// seed, the way the CLI does without an explicit cluster ID.
	deploy := func() *appsv1.StatefulSet {
		cfg := &cluster.Config{Namespace: testNamespace, Kafka: cluster.DefaultKafkaSpec()}
		require.NoError(t, d.Deploy(ctx, cfg, DeployOptions{SkipWait: true}))
		sts, err := clientset.AppsV1().StatefulSets(testNamespace).Get(ctx, "kafka", metav1.GetOptions{})
		require.NoError(t, err)
		return sts
	}

	first := deploy()
	idSecret, err := clientset.CoreV1().Secrets(testNamespace).Get(ctx, "kafka-cluster-id", metav1.GetOptions{})
	require.NoError(t, err)
	established := string(idSecret.Data[cluster.ClusterIDSecretKey])
	require.NotEmpty(t, established)

	second := deploy()
	assert.Equal(t, first.Spec.Template, second.Spec.Template,
		"pod template must be identical across invocations")

	after, err := clientset.CoreV1().Secrets(testNamespace).Get(ctx, "kafka-cluster-id", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, established, string(after.Data[cluster.ClusterIDSecretKey]),
		"established cluster ID must survive redeploys")
}

func TestDeploy_PermissionDenied(t *testing.T) {
	d, _ := newTestDeployer(false)

	err := d.Deploy(context.Background(), testClusterConfig(), DeployOptions{SkipWait: true})
	require.Error(t, err)

	var serr *errors.StructuredError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, errors.ErrCodePermissionDenied, serr.Code)
}

func TestDeploy_InvalidConfig(t *testing.T) {
	d, _ := newTestDeployer(true)

	cfg := testClusterConfig()
	cfg.Kafka.Replicas = 4 // even quorum rejected

	err := d.Deploy(context.Background(), cfg, DeployOptions{SkipWait: true})
	require.Error(t, err)
	var serr *errors.StructuredError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, errors.ErrCodeInvalidConfig, serr.Code)
}

func TestWaitForRollout(t *testing.T) {
	t.Run("already converged", func(t *testing.T) {
		d, clientset := newTestDeployer(true)
		ctx := context.Background()

		_, err := clientset.AppsV1().StatefulSets(testNamespace).Create(ctx, &appsv1.StatefulSet{
			ObjectMeta: metav1.ObjectMeta{Name: "kafka", Namespace: testNamespace},
			Spec:       appsv1.StatefulSetSpec{Replicas: ptr.To(int32(3))},
			Status: appsv1.StatefulSetStatus{
				ReadyReplicas:   3,
				UpdatedReplicas: 3,
			},
		}, metav1.CreateOptions{})
		require.NoError(t, err)

		assert.NoError(t, d.WaitForRollout(ctx, testNamespace, "kafka", 3, time.Second))
	})

	t.Run("expired watch is re-established", func(t *testing.T) {
		d, clientset := newTestDeployer(true)
		ctx := context.Background()

		notReady := appsv1.StatefulSet{
			ObjectMeta: metav1.ObjectMeta{Name: "kafka", Namespace: testNamespace},
			Spec:       appsv1.StatefulSetSpec{Replicas: ptr.To(int32(3))},
		}
		ready := notReady
		ready.Status = appsv1.StatefulSetStatus{ReadyReplicas: 3, UpdatedReplicas: 3}

		// First lookup finds the rollout in flight; the converged state only
		// lands after the API server has closed the watch.
		gets := 0
		clientset.PrependReactor("get", "statefulsets",
			func(_ k8stesting.Action) (bool, runtime.Object, error) {
				gets++
				if gets == 1 {
					return true, notReady.DeepCopy(), nil
				}
				return true, ready.DeepCopy(), nil
			})

		watches := 0
		clientset.PrependWatchReactor("statefulsets",
			func(_ k8stesting.Action) (bool, watch.Interface, error) {
				watches++
				expired := watch.NewFake()
				expired.Stop()
				return true, expired, nil
			})

		assert.NoError(t, d.WaitForRollout(ctx, testNamespace, "kafka", 3, 2*time.Second))
		assert.Equal(t, 1, watches, "the closed watch should be followed by a recheck, not an error")
	})

	t.Run("timeout", func(t *testing.T) {
		d, clientset := newTestDeployer(true)
		ctx := context.Background()

		_, err := clientset.AppsV1().StatefulSets(testNamespace).Create(ctx, &appsv1.StatefulSet{
			ObjectMeta: metav1.ObjectMeta{Name: "kafka", Namespace: testNamespace},
			Spec:       appsv1.StatefulSetSpec{Replicas: ptr.To(int32(3))},
		}, metav1.CreateOptions{})
		require.NoError(t, err)

		err = d.WaitForRollout(ctx, testNamespace, "kafka", 3, 100*time.Millisecond)
		require.Error(t, err)

		var serr *errors.StructuredError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, errors.ErrCodeTimeout, serr.Code)
	})
}

func TestTeardown(t *testing.T) {
	d, clientset := newTestDeployer(true)
	cfg := testClusterConfig()
	ctx := context.Background()

	require.NoError(t, d.Deploy(ctx, cfg, DeployOptions{SkipWait: true}))

	// PVCs the StatefulSet controller would have created.
	for _, name := range []string{"data-kafka-0", "data-kafka-1", "data-kafka-2"} {
		_, err := clientset.CoreV1().PersistentVolumeClaims(testNamespace).Create(ctx, &corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: testNamespace,
				Labels:    types.SelectorLabels("kafka", "kafka"),
			},
		}, metav1.CreateOptions{})
		require.NoError(t, err)
	}

	t.Run("default keeps data and certs", func(t *testing.T) {
		require.NoError(t, d.Teardown(ctx, cfg, TeardownOptions{Timeout: time.Second}))

		_, err := clientset.AppsV1().StatefulSets(testNamespace).Get(ctx, "kafka", metav1.GetOptions{})
		assert.Error(t, err, "StatefulSet should be deleted")

		_, err = clientset.CoreV1().Secrets(testNamespace).Get(ctx, "kafka-certs", metav1.GetOptions{})
		assert.NoError(t, err, "certs should survive a plain teardown")

		pvcs, err := clientset.CoreV1().PersistentVolumeClaims(testNamespace).List(ctx, metav1.ListOptions{})
		require.NoError(t, err)
		assert.Len(t, pvcs.Items, 3, "data should survive a plain teardown")

		_, err = clientset.CoreV1().Secrets(testNamespace).Get(ctx, "kafka-cluster-id", metav1.GetOptions{})
		assert.NoError(t, err, "cluster ID should survive while the data does")
	})

	t.Run("teardown is idempotent", func(t *testing.T) {
		assert.NoError(t, d.Teardown(ctx, cfg, TeardownOptions{Timeout: time.Second}))
	})

	t.Run("delete data and certs", func(t *testing.T) {
		require.NoError(t, d.Teardown(ctx, cfg, TeardownOptions{
			DeleteData:  true,
			DeleteCerts: true,
			Timeout:     time.Second,
		}))

		pvcs, err := clientset.CoreV1().PersistentVolumeClaims(testNamespace).List(ctx, metav1.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, pvcs.Items)

		_, err = clientset.CoreV1().Secrets(testNamespace).Get(ctx, "kafka-certs", metav1.GetOptions{})
		assert.Error(t, err)
		_, err = clientset.CoreV1().Secrets(testNamespace).Get(ctx, "kafka-keystore-pass", metav1.GetOptions{})
		assert.Error(t, err)
		_, err = clientset.CoreV1().Secrets(testNamespace).Get(ctx, "kafka-cluster-id", metav1.GetOptions{})
		assert.Error(t, err, "cluster ID goes with the data")
	})
}

func TestStatus(t *testing.T) {
	d, clientset := newTestDeployer(true)
	cfg := testClusterConfig()
	cfg.Kafka = nil
	ctx := context.Background()

	t.Run("before deploy", func(t *testing.T) {
		report, err := d.Status(ctx, cfg)
		require.NoError(t, err)
		require.Len(t, report.Components, 1)
		assert.False(t, report.Components[0].Deployed)
		assert.False(t, report.Components[0].CertsPresent)
	})

	require.NoError(t, d.Deploy(ctx, cfg, DeployOptions{SkipWait: true}))

	// Mark the rollout converged and add a pod, as the controllers would.
	sts, err := clientset.AppsV1().StatefulSets(testNamespace).Get(ctx, "elasticsearch", metav1.GetOptions{})
	require.NoError(t, err)
	sts.Status.ReadyReplicas = 3
	sts.Status.UpdatedReplicas = 3
	_, err = clientset.AppsV1().StatefulSets(testNamespace).UpdateStatus(ctx, sts, metav1.UpdateOptions{})
	require.NoError(t, err)

	_, err = clientset.CoreV1().Pods(testNamespace).Create(ctx, &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "elasticsearch-0",
			Namespace: testNamespace,
			Labels:    types.SelectorLabels("elasticsearch", "elasticsearch"),
		},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: corev1.ConditionTrue},
			},
		},
	}, metav1.CreateOptions{})
	require.NoError(t, err)

	t.Run("after deploy", func(t *testing.T) {
		report, err := d.Status(ctx, cfg)
		require.NoError(t, err)
		require.Len(t, report.Components, 1)

		status := report.Components[0]
		assert.Equal(t, cluster.ComponentElasticsearch, status.Component)
		assert.True(t, status.Deployed)
		assert.True(t, status.Ready)
		assert.Equal(t, int32(3), status.ReadyReplicas)
		assert.True(t, status.CertsPresent)
		require.NotNil(t, status.CAExpiresAt)
		assert.True(t, status.CAExpiresAt.After(time.Now()))

		require.Len(t, status.Pods, 1)
		assert.Equal(t, "elasticsearch-0", status.Pods[0].Name)
		assert.True(t, status.Pods[0].Ready)
	})
}
