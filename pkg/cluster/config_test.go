package cluster

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datastackhq/stackctl/pkg/errors"
)

func validConfig() *Config {
	return &Config{
		Namespace:     "data",
		Elasticsearch: DefaultElasticsearchSpec(),
		Kafka:         DefaultKafkaSpec(),
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("namespace required", func(t *testing.T) {
		cfg := validConfig()
		cfg.Namespace = ""
		err := cfg.Validate()
		require.Error(t, err)

		var se *errors.StructuredError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, errors.ErrCodeInvalidConfig, se.Code)
	})

	t.Run("at least one component", func(t *testing.T) {
		cfg := &Config{Namespace: "data"}
		require.Error(t, cfg.Validate())
	})

	t.Run("even kafka replicas rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Kafka.Replicas = 4
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "odd")
	})

	t.Run("bad version rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Elasticsearch.Version = "not-a-version"
		require.Error(t, cfg.Validate())
	})

	t.Run("bad image reference rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Kafka.Image = "registry.example.com/kafka:UPPER:bad"
		require.Error(t, cfg.Validate())
	})

	t.Run("bad cluster id rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Kafka.ClusterID = "short"
		require.Error(t, cfg.Validate())
	})

	t.Run("zero replicas rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Elasticsearch.Replicas = 0
		require.Error(t, cfg.Validate())
	})
}

func TestParseComponent(t *testing.T) {
	c, err := ParseComponent("kafka")
	require.NoError(t, err)
	assert.Equal(t, ComponentKafka, c)

	_, err = ParseComponent("elasticsearc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "elasticsearch"`)

	_, err = ParseComponent("postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supported")
}

func TestNewKafkaClusterID(t *testing.T) {
	id := NewKafkaClusterID()
	assert.Len(t, id, 22)

	raw, err := base64.RawURLEncoding.DecodeString(id)
	require.NoError(t, err)
	assert.Len(t, raw, 16)

	assert.NotEqual(t, id, NewKafkaClusterID())
}

func TestImageRef(t *testing.T) {
	es := DefaultElasticsearchSpec()
	assert.Equal(t, "docker.elastic.co/elasticsearch/elasticsearch:8.14.3", es.ImageRef())
	es.Image = "mirror.internal/es:custom"
	assert.Equal(t, "mirror.internal/es:custom", es.ImageRef())

	k := DefaultKafkaSpec()
	assert.Equal(t, "apache/kafka:3.8.0", k.ImageRef())
}

func TestSecretNames(t *testing.T) {
	s := CommonSpec{Name: "kafka"}
	assert.Equal(t, "kafka-certs", s.CertsSecretName())
	assert.Equal(t, "kafka-keystore-pass", s.PassSecretName())
	assert.Equal(t, "kafka-headless", s.HeadlessServiceName())
}
