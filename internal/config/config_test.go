package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "yahoo", cfg.Data.Provider)
	assert.Equal(t, "1d", cfg.Data.Interval)
	assert.Equal(t, "1y", cfg.Data.PredictPeriod)
	assert.Equal(t, 30*time.Second, cfg.Data.RequestTimeout)
	assert.Equal(t, "artifacts", cfg.Model.ArtifactDir)
	assert.Equal(t, "technical", cfg.Model.FeatureSet)
	assert.Equal(t, []string{"INFY.NS"}, cfg.Model.TrainSymbols)
	assert.Equal(t, int64(42), cfg.Model.Seed)
	assert.InDelta(t, 0.2, cfg.Model.TestSize, 1e-12)
	assert.Equal(t, 16, cfg.Bot.MaxConcurrent)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
data:
  provider: yahoo
  interval: 1wk
model:
  artifact_dir: /tmp/models
watchlist:
  symbols: [AAPL, MSFT]
`)
	t.Setenv("INTERVAL", "1d")
	t.Setenv("REQUEST_TIMEOUT", "45")
	t.Setenv("WATCHLIST_CHAT_ID", "12345")
	t.Setenv("TRAIN_SYMBOLS", "AAPL, TSLA ,")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "1d", cfg.Data.Interval, "environment wins over file")
	assert.Equal(t, 45*time.Second, cfg.Data.RequestTimeout)
	assert.Equal(t, "/tmp/models", cfg.Model.ArtifactDir)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Watchlist.Symbols)
	assert.Equal(t, int64(12345), cfg.Watchlist.ChatID)
	assert.Equal(t, []string{"AAPL", "TSLA"}, cfg.Model.TrainSymbols)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "unknown provider", body: "data:\n  provider: bloomberg\n"},
		{name: "twelvedata without key", env: map[string]string{"DATA_PROVIDER": "twelvedata"}},
		{name: "journal without dsn", env: map[string]string{"JOURNAL_DRIVER": "sqlite"}},
		{name: "bad feature set", body: "model:\n  feature_set: fancy\n"},
		{name: "malformed yaml", body: "data: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestRequireBotToken(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.RequireBotToken(), ErrMissingBotToken)

	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	cfg, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireBotToken())
}

func TestLoadFile_ExplicitZeroWinsOverDefault(t *testing.T) {
	path := writeConfig(t, `
model:
  seed: 0
  l2: 0
`)
	t.Setenv("CACHE_TTL", "0")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.Cache.TTL, "ttl 0 disables the cache")
	assert.Equal(t, int64(0), cfg.Model.Seed)
	assert.Equal(t, 0.0, cfg.Model.Regularize)
	assert.Equal(t, 100, cfg.Model.MaxIterations, "unset fields keep their default")
}

func TestLoadFile_YAMLZeroTTL(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "cache:\n  ttl: 0s\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Cache.TTL)
}
