package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "bot:\n  symbols: []\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"eth"}, cfg.Bot.Symbols)
	assert.InDelta(t, 0.015, cfg.Strategy.TargetSpread, 1e-9)
	assert.InDelta(t, 10.0, cfg.Strategy.ClipSizeUSDC, 1e-9)
	assert.InDelta(t, 200.0, cfg.Strategy.MaxExposureUSDC, 1e-9)
	assert.InDelta(t, 25.0, cfg.Strategy.MaxImbalance, 1e-9)
	assert.Equal(t, 500, cfg.Strategy.MinRepriceMillis)
	assert.Equal(t, "https://clob.polymarket.com", cfg.API.CLOBBase)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
bot:
  symbols: ["xrp", "sol"]
strategy:
  target_spread: 0.02
  max_exposure_usdc: 500
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"xrp", "sol"}, cfg.Bot.Symbols)
	assert.InDelta(t, 0.02, cfg.Strategy.TargetSpread, 1e-9)
	assert.InDelta(t, 500.0, cfg.Strategy.MaxExposureUSDC, 1e-9)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("POLY_PRIVATE_KEY", "0xdeadbeef")
	t.Setenv("HEDGEBOT_SYMBOLS", "ETH, btc")

	path := writeConfig(t, "log:\n  level: info\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "deadbeef", cfg.Wallet.PrivateKey, "0x prefix must be stripped")
	assert.Equal(t, []string{"eth", "btc"}, cfg.Bot.Symbols)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDurationHelpers(t *testing.T) {
	path := writeConfig(t, "strategy:\n  min_reprice_millis: 750\nbot:\n  read_timeout_secs: 5\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(750), cfg.MinRepriceInterval().Milliseconds())
	assert.Equal(t, 5.0, cfg.ReadTimeout().Seconds())
}
