package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Extractor backends.
const (
	ExtractorAPI     = "api"
	ExtractorBrowser = "browser"
)

// Store drivers.
const (
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// DefaultEndpoint is the public extraction API.
const DefaultEndpoint = "https://pin-dl.vercel.app"

// Config holds all configuration for the application.
// Values are read by viper from a config file, a .env file or environment variables.
type Config struct {
	ExtractorEndpoint string `mapstructure:"EXTRACTOR_ENDPOINT"`
	Extractor         string `mapstructure:"EXTRACTOR"`
	StoreDriver       string `mapstructure:"STORE_DRIVER"`
	StorePath         string `mapstructure:"STORE_PATH"`
	DownloadDir       string `mapstructure:"DOWNLOAD_DIR"`
	TelegramBotToken  string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogFormat         string `mapstructure:"LOG_FORMAT"`
	LogFile           string `mapstructure:"LOG_FILE"`
}

// LoadConfig reads configuration from path/config.yaml, path/.env and the environment.
// Environment variables win over the .env file, which wins over config.yaml.
func LoadConfig(path string) (Config, error) {
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvPrefix("PINDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("EXTRACTOR_ENDPOINT", DefaultEndpoint)
	v.SetDefault("EXTRACTOR", ExtractorAPI)
	v.SetDefault("STORE_DRIVER", StoreBadger)
	v.SetDefault("STORE_PATH", defaultDataDir())
	v.SetDefault("DOWNLOAD_DIR", defaultDownloadDir())
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")

	// Unprefixed names are accepted as well, the way the bot token has always been passed.
	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "EXTRACTOR_ENDPOINT", "LOG_LEVEL"} {
		_ = v.BindEnv(key, "PINDL_"+key, key)
	}
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Extractor {
	case ExtractorAPI, ExtractorBrowser:
	default:
		return fmt.Errorf("unknown EXTRACTOR %q (want %q or %q)", c.Extractor, ExtractorAPI, ExtractorBrowser)
	}
	switch c.StoreDriver {
	case StoreBadger, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ExtractorEndpoint == "" {
		return fmt.Errorf("EXTRACTOR_ENDPOINT is empty")
	}
	if c.StoreDriver != StoreMemory && c.StorePath == "" {
		return fmt.Errorf("STORE_PATH is not set")
	}
	return nil
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "pindl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./pindl_data"
	}
	return filepath.Join(home, ".local", "share", "pindl")
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
