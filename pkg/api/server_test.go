package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Serve blocks until shutdown and requires a reachable cluster, so it is
// covered by the pkg/server tests and end-to-end testing. These tests pin
// the build-time identity the entrypoint reports.
func TestBuildIdentity(t *testing.T) {
	assert.Equal(t, "stackd", name)
	assert.Equal(t, versionDefault, version)
	assert.NotEmpty(t, commit)
	assert.NotEmpty(t, date)
}
