package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "rentindex.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "rentindex", cfg.MetricsPrefix)
	assert.False(t, cfg.LegacySchedule)
	assert.Equal(t, "rent-events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RENTINDEX_PORT", "9090")
	t.Setenv("RENTINDEX_STORE", "memory")
	t.Setenv("RENTINDEX_LEGACY_SCHEDULE", "true")
	t.Setenv("RENTINDEX_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.True(t, cfg.LegacySchedule)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	// GIVEN: A dotenv file setting the port and log level
	// WHEN: The port is also set in the environment
	// THEN: The environment wins and the dotenv fills the rest

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RENTINDEX_PORT=7000\nRENTINDEX_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("RENTINDEX_PORT", "7100")
	// Registered so the value godotenv sets is cleared after the test.
	t.Setenv("RENTINDEX_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("RENTINDEX_LOG_LEVEL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	t.Setenv("RENTINDEX_STORE", "postgres")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RENTINDEX_POSTGRES_DSN")

	t.Setenv("RENTINDEX_POSTGRES_DSN", "host=localhost dbname=rentindex")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)

	t.Setenv("RENTINDEX_STORE", "cassandra")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	assert.Error(t, Config{Store: StoreMemory, Port: 0}.Validate())
}
