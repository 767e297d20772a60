package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/component/types"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	for _, name := range []cluster.Component{cluster.ComponentElasticsearch, cluster.ComponentKafka} {
		c, ok := r.Get(name)
		require.True(t, ok, "expected %s to be registered", name)
		assert.Equal(t, name, c.Name())
	}
	assert.Len(t, r.List(), 2)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	custom := cluster.Component("opensearch")

	_, ok := r.Get(custom)
	require.False(t, ok)

	r.Register(custom, stubComponent{name: custom})
	c, ok := r.Get(custom)
	require.True(t, ok)
	assert.Equal(t, custom, c.Name())
}

func TestRegistry_ObjectsFor(t *testing.T) {
	r := NewRegistry()

	t.Run("both components", func(t *testing.T) {
		kafka := cluster.DefaultKafkaSpec()
		kafka.ClusterID = cluster.NewKafkaClusterID()
		cfg := &cluster.Config{
			Namespace:     "data",
			Elasticsearch: cluster.DefaultElasticsearchSpec(),
			Kafka:         kafka,
		}

		objects, err := r.ObjectsFor(cfg)
		require.NoError(t, err)
		require.Len(t, objects, 2)
		assert.NotNil(t, objects[cluster.ComponentElasticsearch].StatefulSet)
		assert.NotNil(t, objects[cluster.ComponentKafka].StatefulSet)
	})

	t.Run("single component", func(t *testing.T) {
		cfg := &cluster.Config{
			Namespace:     "data",
			Elasticsearch: cluster.DefaultElasticsearchSpec(),
		}

		objects, err := r.ObjectsFor(cfg)
		require.NoError(t, err)
		require.Len(t, objects, 1)
		assert.Contains(t, objects, cluster.ComponentElasticsearch)
	})
}

type stubComponent struct {
	name cluster.Component
}

func (s stubComponent) Name() cluster.Component { return s.name }

func (s stubComponent) Objects(_ *cluster.Config) (*types.Objects, error) {
	return &types.Objects{}, nil
}
