package oci

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputTarget(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIsOCI bool
		wantReg   string
		wantRepo  string
		wantTag   string
		wantDir   string
		wantErr   bool
	}{
		{
			name:    "local directory relative",
			input:   "./manifests-out",
			wantDir: "./manifests-out",
		},
		{
			name:    "local directory absolute",
			input:   "/tmp/manifests",
			wantDir: "/tmp/manifests",
		},
		{
			name:      "OCI with tag",
			input:     "oci://ghcr.io/datastackhq/manifests:v1.0.0",
			wantIsOCI: true,
			wantReg:   "ghcr.io",
			wantRepo:  "datastackhq/manifests",
			wantTag:   "v1.0.0",
		},
		{
			name:      "OCI without tag returns empty tag",
			input:     "oci://ghcr.io/datastackhq/manifests",
			wantIsOCI: true,
			wantReg:   "ghcr.io",
			wantRepo:  "datastackhq/manifests",
		},
		{
			name:      "OCI with registry port",
			input:     "oci://localhost:5000/test/manifests:v1",
			wantIsOCI: true,
			wantReg:   "localhost:5000",
			wantRepo:  "test/manifests",
			wantTag:   "v1",
		},
		{
			name:    "OCI invalid reference",
			input:   "oci://",
			wantErr: true,
		},
		{
			name:    "OCI uppercase repository rejected",
			input:   "oci://ghcr.io/INVALID/Manifests:v1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseOutputTarget(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIsOCI, ref.IsOCI)
			assert.Equal(t, tt.wantReg, ref.Registry)
			assert.Equal(t, tt.wantRepo, ref.Repository)
			assert.Equal(t, tt.wantTag, ref.Tag)
			assert.Equal(t, tt.wantDir, ref.LocalPath)
		})
	}
}

func TestReference_String(t *testing.T) {
	local := &Reference{LocalPath: "./out"}
	assert.Equal(t, "./out", local.String())
	assert.Empty(t, local.ImageReference())

	tagged := &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "datastackhq/manifests", Tag: "v1.0.0"}
	assert.Equal(t, "oci://ghcr.io/datastackhq/manifests:v1.0.0", tagged.String())
	assert.Equal(t, "ghcr.io/datastackhq/manifests:v1.0.0", tagged.ImageReference())

	bare := &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "datastackhq/manifests"}
	assert.Equal(t, "oci://ghcr.io/datastackhq/manifests", bare.String())
	assert.Equal(t, "ghcr.io/datastackhq/manifests", bare.ImageReference())
}

func TestReference_WithTag(t *testing.T) {
	ref := &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "datastackhq/manifests", Tag: "v1"}

	retagged := ref.WithTag("v2")
	assert.Equal(t, "v2", retagged.Tag)
	assert.Equal(t, "v1", ref.Tag, "original must not change")

	local := &Reference{LocalPath: "./out"}
	assert.Same(t, local, local.WithTag("v2"))
}
