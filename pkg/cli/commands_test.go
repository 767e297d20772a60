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

package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/datastackhq/stackctl/pkg/k8s/client"
	"github.com/datastackhq/stackctl/pkg/pki"
)

// withFakeClient routes newKubeClient to a fake clientset for the duration
// of a test.
func withFakeClient(t *testing.T) client.Interface {
	t.Helper()

	clientset := fake.NewClientset()
	original := newKubeClient
	newKubeClient = func(string) (client.Interface, error) {
		return clientset, nil
	}
	t.Cleanup(func() { newKubeClient = original })

	return clientset
}

func TestCertsIssueCommand(t *testing.T) {
	clientset := withFakeClient(t)

	args := []string{"stackctl", "certs", "issue", "--namespace", "data", "--component", "kafka"}
	if err := rootCmd().Run(context.Background(), args); err != nil {
		t.Fatalf("certs issue failed: %v", err)
	}

	secret, err := clientset.CoreV1().Secrets("data").Get(context.Background(), "kafka-certs", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("expected kafka-certs secret: %v", err)
	}
	for _, key := range []string{pki.KeyCACert, pki.KeyKeystore, pki.KeyTruststore} {
		if len(secret.Data[key]) == 0 {
			t.Errorf("secret missing %q", key)
		}
	}

	// Elasticsearch was not selected.
	if _, err := clientset.CoreV1().Secrets("data").Get(context.Background(), "elasticsearch-certs", metav1.GetOptions{}); err == nil {
		t.Error("expected no elasticsearch-certs secret")
	}
}

func TestCertsRotateCommand(t *testing.T) {
	clientset := withFakeClient(t)
	ctx := context.Background()

	issue := []string{"stackctl", "certs", "issue", "--namespace", "data", "--component", "elasticsearch"}
	if err := rootCmd().Run(ctx, issue); err != nil {
		t.Fatalf("certs issue failed: %v", err)
	}

	before, err := clientset.CoreV1().Secrets("data").Get(ctx, "elasticsearch-certs", metav1.GetOptions{})
	if err != nil {
		t.Fatal(err)
	}

	rotate := []string{"stackctl", "certs", "rotate", "--namespace", "data", "--component", "elasticsearch"}
	if err := rootCmd().Run(ctx, rotate); err != nil {
		t.Fatalf("certs rotate failed: %v", err)
	}

	after, err := clientset.CoreV1().Secrets("data").Get(ctx, "elasticsearch-certs", metav1.GetOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if string(before.Data[pki.KeyCACert]) == string(after.Data[pki.KeyCACert]) {
		t.Error("expected the CA certificate to change on rotation")
	}
	if !strings.Contains(string(after.Data[pki.KeyCABundle]), string(before.Data[pki.KeyCACert])) {
		t.Error("expected the previous CA to remain in the trust bundle")
	}
}

func TestDeployCommand(t *testing.T) {
	// The fake clientset denies SelfSubjectAccessReviews by default, so the
	// preflight check must fail before anything is applied.
	clientset := withFakeClient(t)

	args := []string{"stackctl", "deploy", "--namespace", "data", "--skip-wait"}
	err := rootCmd().Run(context.Background(), args)
	if err == nil {
		t.Fatal("expected the permission preflight to fail")
	}
	if !strings.Contains(err.Error(), "permission") {
		t.Errorf("error = %q, want a permission failure", err)
	}

	sts, listErr := clientset.AppsV1().StatefulSets("data").List(context.Background(), metav1.ListOptions{})
	if listErr != nil {
		t.Fatal(listErr)
	}
	if len(sts.Items) != 0 {
		t.Errorf("expected no StatefulSets after a failed preflight, got %d", len(sts.Items))
	}
}

func TestTeardownCommandIdempotent(t *testing.T) {
	withFakeClient(t)

	args := []string{"stackctl", "teardown", "--namespace", "data"}
	if err := rootCmd().Run(context.Background(), args); err != nil {
		t.Fatalf("teardown of absent clusters should be a no-op, got: %v", err)
	}
}

func TestRenderCommandToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "manifests")

	args := []string{
		"stackctl", "render",
		"--namespace", "data",
		"--component", "elasticsearch",
		"--output", dir,
	}
	if err := rootCmd().Run(context.Background(), args); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "elasticsearch"))
	if err != nil {
		t.Fatalf("expected an elasticsearch manifest directory: %v", err)
	}
	if len(entries) != 7 {
		t.Errorf("expected 7 manifest files, got %d", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, "elasticsearch", "07-statefulset-elasticsearch.yaml"))
	if err != nil {
		t.Fatalf("expected the StatefulSet manifest: %v", err)
	}
	if !strings.Contains(string(data), "kind: StatefulSet") {
		t.Error("StatefulSet manifest missing its kind")
	}
}

func TestRenderCommandRejectsUntaggedOCI(t *testing.T) {
	args := []string{
		"stackctl", "render",
		"--namespace", "data",
		"--output", "oci://localhost:5000/stack-manifests",
	}
	if err := rootCmd().Run(context.Background(), args); err == nil {
		t.Fatal("expected an error for an untagged OCI reference")
	}
}

func TestStatusCommandWritesReport(t *testing.T) {
	withFakeClient(t)
	path := filepath.Join(t.TempDir(), "status.json")

	args := []string{
		"stackctl", "status",
		"--namespace", "data",
		"--format", "json",
		"--output", path,
	}
	if err := rootCmd().Run(context.Background(), args); err != nil {
		t.Fatalf("status failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"elasticsearch"`, `"kafka"`, `"deployed": false`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("report missing %s:\n%s", want, data)
		}
	}
}
