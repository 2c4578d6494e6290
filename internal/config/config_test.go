package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.ExtractorEndpoint)
	assert.Equal(t, ExtractorAPI, cfg.Extractor)
	assert.Equal(t, StoreBadger, cfg.StoreDriver)
	assert.Equal(t, filepath.Join("/tmp/xdg", "pindl"), cfg.StorePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.TelegramBotToken)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "STORE_DRIVER: sqlite\nSTORE_PATH: /data/pindl\nLOG_LEVEL: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("PINDL_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "/data/pindl", cfg.StorePath)
	assert.Equal(t, "warn", cfg.LogLevel, "environment should override the config file")
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TELEGRAM_BOT_TOKEN=abc:123\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TELEGRAM_BOT_TOKEN") })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "abc:123", cfg.TelegramBotToken)
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("PINDL_STORE_DRIVER", "postgres")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestNewLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "pindl.log")
	log, closer, err := NewLogger(Config{LogLevel: "debug", LogFormat: "text", LogFile: logPath})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	log.Info("hello")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	_, _, err = NewLogger(Config{LogLevel: "loud"})
	assert.Error(t, err)
}
