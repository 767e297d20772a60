package deployer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authv1 "k8s.io/api/authorization/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func TestCheckPermissions_AllAllowed(t *testing.T) {
	d, _ := newTestDeployer(true)

	checks, err := d.CheckPermissions(context.Background(), testNamespace)
	require.NoError(t, err)
	require.NotEmpty(t, checks)
	for _, check := range checks {
		assert.True(t, check.Allowed, "%s %s should be allowed", check.Verb, check.Resource)
	}
}

func TestCheckPermissions_Denied(t *testing.T) {
	d, _ := newTestDeployer(false)

	checks, err := d.CheckPermissions(context.Background(), testNamespace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required permissions")
	require.NotEmpty(t, checks)
}

func TestCheckPermissions_PartialDenial(t *testing.T) {
	clientset := fake.NewClientset()
	clientset.PrependReactor("create", "selfsubjectaccessreviews",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			review := action.(k8stesting.CreateAction).GetObject().(*authv1.SelfSubjectAccessReview)
			allowed := review.Spec.ResourceAttributes.Resource != "statefulsets"
			return true, &authv1.SelfSubjectAccessReview{
				Status: authv1.SubjectAccessReviewStatus{Allowed: allowed},
			}, nil
		})
	d := New(clientset)

	_, err := d.CheckPermissions(context.Background(), testNamespace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create statefulsets")
	assert.Contains(t, err.Error(), "watch statefulsets")
	assert.NotContains(t, err.Error(), "create configmaps")
}

// A role scoped to deploying only, with no delete or pod access, must pass
// the preflight: the check covers what a deploy performs, nothing more.
func TestCheckPermissions_DeployOnlyRole(t *testing.T) {
	clientset := fake.NewClientset()
	clientset.PrependReactor("create", "selfsubjectaccessreviews",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			attrs := action.(k8stesting.CreateAction).GetObject().(*authv1.SelfSubjectAccessReview).Spec.ResourceAttributes
			allowed := attrs.Verb != "delete" &&
				attrs.Resource != "pods" &&
				attrs.Resource != "persistentvolumeclaims"
			return true, &authv1.SelfSubjectAccessReview{
				Status: authv1.SubjectAccessReviewStatus{Allowed: allowed},
			}, nil
		})
	d := New(clientset)

	checks, err := d.CheckPermissions(context.Background(), testNamespace)
	require.NoError(t, err)
	for _, check := range checks {
		assert.NotEqual(t, "delete", check.Verb, "deploy preflight must not require delete on %s", check.Resource)
	}
}
