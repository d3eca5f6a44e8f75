package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultHomeDir = ".modelscope"

// Config struct for environment variables.
type Config struct {
	BaseURL        string        `envconfig:"MODELSCOPE_BASE_URL" default:"https://modelscope.cn"`
	HomeDir        string        `envconfig:"MODELSCOPE_HOME"`
	SaveDir        string        `envconfig:"SAVE_DIR"`
	AccessToken    string        `envconfig:"ACCESS_TOKEN"`
	MaxParallel    int           `envconfig:"MAX_PARALLEL" default:"0"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"10s"`
	Progress       string        `envconfig:"PROGRESS" default:"bar"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	HistoryEnabled    bool   `envconfig:"HISTORY_ENABLED" default:"true"`
	DBPath            string `envconfig:"DB_PATH"`
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`

	Telemetry struct {
		Enabled      bool   `split_words:"true" default:"false"`
		ServiceName  string `split_words:"true" default:"modelscope_downloader"`
		OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`
		MetricsAddr  string `envconfig:"METRICS_ADDR"`
	}
}

// LoadConfig reads an optional .env file and the environment, then fills the
// directory defaults that depend on the user's home.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.HomeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		c.HomeDir = filepath.Join(home, defaultHomeDir)
	}

	if c.SaveDir == "" {
		c.SaveDir = filepath.Join(c.HomeDir, "models")
	}

	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.HomeDir, "downloads.db")
	}

	return nil
}

// ConfigDir is where credentials and the known save directories live.
func (c *Config) ConfigDir() string {
	return filepath.Join(c.HomeDir, "config")
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
