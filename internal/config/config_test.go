package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 8081\n"))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/ws/spins", cfg.WebSocket.Path)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.PongTimeout)
	assert.Equal(t, "crypto", cfg.Engine.RNG)
	assert.Equal(t, float64(1), cfg.Engine.MinBet)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  mode: release
engine:
  paytable_file: ./paytable.yaml
  rng: seeded
  seed: 42
  min_bet: 0.5
  max_bet: 500
audit:
  enabled: false
log:
  modules:
    engine: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "./paytable.yaml", cfg.Engine.PaytableFile)
	assert.Equal(t, "seeded", cfg.Engine.RNG)
	assert.Equal(t, uint64(42), cfg.Engine.Seed)
	assert.Equal(t, 0.5, cfg.Engine.MinBet)
	assert.Equal(t, float64(500), cfg.Engine.MaxBet)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "debug", cfg.Log.Modules["engine"])
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SLOT_PAYOUT_SERVER_PORT", "9090")
	cfg, err := Load(writeConfig(t, "server:\n  port: 8081\n"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"未知随机数来源", "engine:\n  rng: dice\n"},
		{"下注范围颠倒", "engine:\n  min_bet: 10\n  max_bet: 5\n"},
		{"负数最小下注", "engine:\n  min_bet: -1\n"},
		{"端口越界", "server:\n  port: 70000\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(writeConfig(t, "server: [broken"))
	assert.Error(t, err)
}
