package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/predictor/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Ledger.NodeIP)
	assert.Equal(t, 31841, cfg.Ledger.NodePort)
	assert.Equal(t, 10*time.Second, cfg.LedgerTimeout())
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Oracle.BaseURL)
	assert.Equal(t, "mem", cfg.Storage.Backend)
	assert.Equal(t, 256, cfg.Settlement.QueueSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_YAMLFile(t *testing.T) {
	yaml := `
ledger:
  node_ip: 10.0.0.5
  node_port: 21841
  contract_address: CONTRACTADDR
storage:
  backend: sqlite
  dsn: /tmp/test.db
settlement:
  queue_size: 16
  resolve_delay_seconds: 3
log:
  level: debug
  format: json
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Ledger.NodeIP)
	assert.Equal(t, 21841, cfg.Ledger.NodePort)
	assert.Equal(t, "CONTRACTADDR", cfg.Ledger.ContractAddress)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.DSN)
	assert.Equal(t, 16, cfg.Settlement.QueueSize)
	assert.Equal(t, 3*time.Second, cfg.ResolveDelay())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUBIC_NODE_IP", "192.168.1.1")
	t.Setenv("QUBIC_NODE_PORT", "31842")
	t.Setenv("QUBIC_SEED", "topsecret")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.1", cfg.Ledger.NodeIP)
	assert.Equal(t, 31842, cfg.Ledger.NodePort)
	assert.Equal(t, "topsecret", cfg.Ledger.Seed)
	assert.Equal(t, "gsk_test", cfg.Oracle.APIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("does/not/exist.yaml")
	assert.Error(t, err)
}
