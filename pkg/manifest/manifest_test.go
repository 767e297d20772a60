package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datastackhq/stackctl/pkg/cluster"
)

func testConfig() *cluster.Config {
	kafka := cluster.DefaultKafkaSpec()
	kafka.ClusterID = cluster.NewKafkaClusterID()
	return &cluster.Config{
		Namespace:     "data",
		Elasticsearch: cluster.DefaultElasticsearchSpec(),
		Kafka:         kafka,
	}
}

func TestRenderer_Render(t *testing.T) {
	files, err := NewRenderer().Render(testConfig())
	require.NoError(t, err)

	// 7 objects per component.
	require.Len(t, files, 14)

	t.Run("file naming preserves apply order", func(t *testing.T) {
		assert.Equal(t, filepath.Join("elasticsearch", "01-serviceaccount-elasticsearch.yaml"), files[0].Path)
		assert.Equal(t, filepath.Join("elasticsearch", "07-statefulset-elasticsearch.yaml"), files[6].Path)
		assert.Equal(t, filepath.Join("kafka", "01-serviceaccount-kafka.yaml"), files[7].Path)
	})

	t.Run("documents carry apiVersion and kind", func(t *testing.T) {
		sts := string(files[6].Data)
		assert.Contains(t, sts, "apiVersion: apps/v1")
		assert.Contains(t, sts, "kind: StatefulSet")
		assert.Contains(t, sts, "namespace: data")

		pdb := string(files[4].Data)
		assert.Contains(t, pdb, "apiVersion: policy/v1")
		assert.Contains(t, pdb, "kind: PodDisruptionBudget")
	})
}

func TestRenderer_Render_InvalidConfig(t *testing.T) {
	_, err := NewRenderer().Render(&cluster.Config{})
	require.Error(t, err)
}

func TestStream(t *testing.T) {
	files, err := NewRenderer().Render(testConfig())
	require.NoError(t, err)

	stream := string(Stream(files))
	assert.Equal(t, len(files)-1, strings.Count(stream, "---\n"))
	assert.Contains(t, stream, "kind: NetworkPolicy")
}

func TestWriteDir(t *testing.T) {
	files, err := NewRenderer().Render(testConfig())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, WriteDir(dir, files))

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.Path))
		require.NoError(t, err)
		assert.Equal(t, f.Data, data)
	}
}
