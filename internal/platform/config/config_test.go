package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{Backend: "memory"},
		Outbox:  OutboxConfig{BatchSize: 100},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidateAcceptsMemoryBackend(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.UsesPostgres())
}

func TestValidateNormalizesBackendCase(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "Postgres"
	cfg.Database.DSN = "postgres://localhost/fieldsafe"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.UsesPostgres())
}

func TestValidatePostgresRequiresDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "postgres"
	cfg.Database.DSN = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.Server.Port = port
		assert.Error(t, cfg.Validate(), "port %d", port)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidateCleansBrokerList(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Brokers = []string{" kafka-1:9092 ", "kafka-1:9092", ""}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"kafka-1:9092"}, cfg.Kafka.Brokers)
}

func TestServerAddr(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 9090}
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
}
