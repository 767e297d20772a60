/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package deployer

import (
	"context"
	"fmt"
	"strings"

	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PermissionCheck is the result of a single access review.
type PermissionCheck struct {
	Resource string
	Verb     string
	Allowed  bool
	Reason   string
}

// CheckPermissions verifies the current user can perform every operation a
// deploy performs in the target namespace. Teardown verbs are deliberately
// absent so a deploy-only role passes the preflight. Returns all check
// results and an error listing any missing permissions.
func (d *Deployer) CheckPermissions(ctx context.Context, namespace string) ([]PermissionCheck, error) {
	required := []struct {
		resource string
		verb     string
	}{
		{"serviceaccounts", "create"},
		{"secrets", "create"},
		{"secrets", "get"},
		{"configmaps", "create"},
		{"configmaps", "update"},
		{"services", "create"},
		{"services", "get"},
		{"services", "update"},
		{"poddisruptionbudgets", "create"},
		{"poddisruptionbudgets", "update"},
		{"networkpolicies", "create"},
		{"networkpolicies", "update"},
		{"statefulsets", "create"},
		{"statefulsets", "update"},
		{"statefulsets", "get"},
		{"statefulsets", "watch"},
	}

	checks := make([]PermissionCheck, 0, len(required))
	var missing []string

	for _, req := range required {
		allowed, reason, err := d.checkPermission(ctx, req.resource, req.verb, namespace)
		if err != nil {
			return checks, fmt.Errorf("failed to check permission for %s %s: %w", req.verb, req.resource, err)
		}

		checks = append(checks, PermissionCheck{
			Resource: req.resource,
			Verb:     req.verb,
			Allowed:  allowed,
			Reason:   reason,
		})

		if !allowed {
			missing = append(missing, fmt.Sprintf("%s %s", req.verb, req.resource))
		}
	}

	if len(missing) > 0 {
		return checks, fmt.Errorf("missing required permissions in namespace %q:\n  - %s",
			namespace, strings.Join(missing, "\n  - "))
	}
	return checks, nil
}

func (d *Deployer) checkPermission(ctx context.Context, resource, verb, namespace string) (bool, string, error) {
	review := &authv1.SelfSubjectAccessReview{
		Spec: authv1.SelfSubjectAccessReviewSpec{
			ResourceAttributes: &authv1.ResourceAttributes{
				Verb:      verb,
				Resource:  resource,
				Namespace: namespace,
			},
		},
	}

	result, err := d.clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
	if err != nil {
		return false, "", err
	}
	return result.Status.Allowed, result.Status.Reason, nil
}
