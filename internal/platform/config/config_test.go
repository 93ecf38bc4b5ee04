package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.ActiveSetTTL)
	assert.Equal(t, 100, cfg.Kafka.BatchSize)
	assert.Equal(t, time.Second, cfg.Kafka.FlushInterval)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  addr: ":9090"
kafka:
  brokers: ["k1:9092", "k2:9092"]
  flush_interval: 250ms
sensors:
  site_scope: 7
  anonymize_ip: true
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("AUDIT_SERVER_ADDR", ":7070")
	t.Setenv("AUDIT_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Kafka.FlushInterval)
	assert.Equal(t, int64(7), cfg.Sensors.SiteScope)
	assert.True(t, cfg.Sensors.AnonymizeIP)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{Server: Server{Addr: ":8080"}, Kafka: Kafka{Brokers: []string{"k:9092"}}}
	assert.Error(t, cfg.Validate())

	cfg.Kafka.Topic = "audit.events"
	assert.NoError(t, cfg.Validate())

	cfg.Sensors.FlattenDepth = -1
	assert.Error(t, cfg.Validate())
}
