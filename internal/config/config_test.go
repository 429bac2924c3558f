package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 5m
postgres:
  url: postgres://quiz@localhost/quizdb
quiz:
  ttl: 30s
  media_url: https://cdn.example.com/media/
  messages_per_second: 5
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "postgres://quiz@localhost/quizdb", cfg.Postgres.URL)
	assert.Equal(t, "https://cdn.example.com/media/", cfg.Quiz.MediaURL)
	assert.Equal(t, "debug", cfg.Log.Level)

	perSecond, burst := cfg.MessageRate()
	assert.Equal(t, 5.0, perSecond)
	assert.Equal(t, 10, burst)
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Postgres.URL)
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, 90*time.Second, TTLDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
}
