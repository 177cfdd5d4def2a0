package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  env: prod
`))
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9980", cfg.App.HTTPAddr)
	assert.Equal(t, 300, cfg.Reconcile.SweepIntervalSeconds)
	assert.Equal(t, 120, cfg.Reconcile.StaleExitMinutes)
	assert.Equal(t, "BTCUSDT", cfg.PriceFeed.Symbol)
	assert.Equal(t, 500.0, cfg.Backfill.MaxJump)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  http_addr: ":8081"
reconcile:
  enabled: true
  idle_window_minutes: 15
  stale_exit_minutes: 240
pricefeed:
  symbol: ETH/USDT
`))
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.App.HTTPAddr)
	assert.True(t, cfg.Reconcile.Enabled)
	assert.Equal(t, 15, cfg.Reconcile.IdleWindowMinutes)
	assert.Equal(t, 240, cfg.Reconcile.StaleExitMinutes)
	assert.Equal(t, "ETH/USDT", cfg.PriceFeed.Symbol)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bad log level", "app:\n  log_level: verbose\n", "log_level"},
		{"addr without port", "app:\n  http_addr: localhost\n", "port"},
		{"stale below idle", "reconcile:\n  idle_window_minutes: 60\n  stale_exit_minutes: 30\n", "stale_exit_minutes"},
		{"unparseable symbol", "pricefeed:\n  symbol: not-a-pair\n", "pricefeed.symbol"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, validate(cfg))
}
