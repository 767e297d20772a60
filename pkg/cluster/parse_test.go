package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func TestParseNodeSelectors(t *testing.T) {
	got, err := ParseNodeSelectors([]string{"nodeGroup=data", "zone=us-east-1a"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"nodeGroup": "data", "zone": "us-east-1a"}, got)

	got, err = ParseNodeSelectors(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseNodeSelectors([]string{"missing-separator"})
	require.Error(t, err)

	_, err = ParseNodeSelectors([]string{"=value"})
	require.Error(t, err)
}

func TestParseTolerations(t *testing.T) {
	got, err := ParseTolerations([]string{"dedicated=data:NoSchedule"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, corev1.Toleration{
		Key:      "dedicated",
		Operator: corev1.TolerationOpEqual,
		Value:    "data",
		Effect:   corev1.TaintEffectNoSchedule,
	}, got[0])

	got, err = ParseTolerations([]string{"dedicated=:NoExecute"})
	require.NoError(t, err)
	assert.Equal(t, corev1.TolerationOpExists, got[0].Operator)

	_, err = ParseTolerations([]string{"dedicated=data"})
	require.Error(t, err)

	_, err = ParseTolerations([]string{"dedicated=data:BadEffect"})
	require.Error(t, err)
}
