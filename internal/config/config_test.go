package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
broker:
  api_url: https://broker.example/api
  ws_url: wss://broker.example/echo/websocket
trading:
  assets: [EURUSD, GBPUSD]
`

func TestLoadFillsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", minimalConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "iqoption", cfg.Broker.Name)
	assert.Equal(t, 15*time.Second, cfg.Broker.Timeout())
	assert.Equal(t, 1.0, cfg.Trading.BaseStake)
	assert.Equal(t, 1, cfg.Trading.ExpiryMinutes)
	assert.Equal(t, 0.55, cfg.Signals.MinScore)
	assert.Equal(t, 2*time.Second, cfg.Watcher.MatchWindow())
	assert.Equal(t, 3*time.Second, cfg.Watcher.Idle())
	assert.Equal(t, 500*time.Millisecond, cfg.Watcher.Grace())
	assert.Equal(t, 50, cfg.Watcher.FetchLimit)
	assert.Equal(t, "data/journal", cfg.Journal.Dir)
	assert.Equal(t, 0.55, cfg.Gate.MinProb)
}

func TestLoadHonorsOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", minimalConfig+`
watcher:
  match_window_seconds: 1.5
  idle_seconds: 5
signals:
  min_score: 0.7
trading:
  base_stake: 2.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Watcher.MatchWindow())
	assert.Equal(t, 5*time.Second, cfg.Watcher.Idle())
	assert.Equal(t, 0.7, cfg.Signals.MinScore)
	assert.Equal(t, 2.5, cfg.Trading.BaseStake)
}

func TestLoadMergesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", minimalConfig)
	path := writeFile(t, dir, "config.yaml", `
include: [base.yaml]
trading:
  assets: [EURUSD]
  base_stake: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD"}, cfg.Trading.Assets)
	assert.Equal(t, 3.0, cfg.Trading.BaseStake)
	assert.Equal(t, "https://broker.example/api", cfg.Broker.APIURL)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing broker url", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "config.yaml", `
trading:
  assets: [EURUSD]
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker.api_url")
	})

	t.Run("no assets", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "config.yaml", `
broker:
  api_url: https://broker.example/api
  ws_url: wss://broker.example/ws
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "trading.assets")
	})

	t.Run("gate enabled without url", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "config.yaml", minimalConfig+`
gate:
  enabled: true
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gate.url")
	})
}

func TestProfileRegistry(t *testing.T) {
	t.Run("loads and looks up by asset", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "profiles.yaml", `
profiles:
  eurusd:
    stake: 2.0
    min_score: 0.6
  GBPUSD:
    enabled: false
`)
		r, err := NewProfileRegistry(path)
		require.NoError(t, err)

		p, ok := r.Profile("EURUSD")
		require.True(t, ok)
		assert.Equal(t, 2.0, p.Stake)
		assert.True(t, p.Active())

		p, ok = r.Profile("gbpusd")
		require.True(t, ok)
		assert.False(t, p.Active())

		_, ok = r.Profile("USDJPY")
		assert.False(t, ok)
	})

	t.Run("rejects out-of-range values", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "profiles.yaml", `
profiles:
  EURUSD:
    min_score: 1.5
`)
		_, err := NewProfileRegistry(path)
		require.Error(t, err)
	})

	t.Run("missing file starts empty", func(t *testing.T) {
		r, err := NewProfileRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Empty(t, r.Snapshot().Profiles)
	})
}
