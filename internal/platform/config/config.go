package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is the explicit configuration passed into constructors; there are
// no ambient globals. Values are resolved in order: defaults, TOML config
// file (when present), environment variables.
type Config struct {
	// ChannelTarget is the channel page whose latest recording is archived.
	ChannelTarget string `toml:"channel_target"`

	StateFile        string `toml:"state_file"`
	ChunkSizeMinutes int    `toml:"chunk_size_minutes"`

	DownloadDir string `toml:"download_dir"`
	// DownloaderCommand is the external command run per chunk. The tokens
	// {manifest} and {output} are substituted before execution. Empty means
	// manifest-only mode: the chunk playlist is written but nothing is run.
	DownloaderCommand []string `toml:"downloader_command"`

	WebhookURL  string `toml:"webhook_url"`
	JournalPath string `toml:"journal_path"`
	YtDlpBinary string `toml:"ytdlp_binary"`

	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds"`
	ListenAddr         string `toml:"listen_addr"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StateFile:          "memory.json",
		ChunkSizeMinutes:   60,
		DownloadDir:        "downloads",
		JournalPath:        "journal.db",
		YtDlpBinary:        "yt-dlp",
		HTTPTimeoutSeconds: 30,
		ListenAddr:         ":8080",
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Load builds a Config. It loads .env into the environment first (missing
// .env is fine), then the TOML file at path when path is non-empty, then
// applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ChannelTarget = GetEnv("CHANNEL_TARGET", c.ChannelTarget)
	c.StateFile = GetEnv("STATE_FILE", c.StateFile)
	c.ChunkSizeMinutes = GetEnvInt("CHUNK_SIZE_MINUTES", c.ChunkSizeMinutes)
	c.DownloadDir = GetEnv("DOWNLOAD_DIR", c.DownloadDir)
	c.WebhookURL = GetEnv("WEBHOOK_URL", c.WebhookURL)
	c.JournalPath = GetEnv("JOURNAL_PATH", c.JournalPath)
	c.YtDlpBinary = GetEnv("YTDLP_BINARY", c.YtDlpBinary)
	c.HTTPTimeoutSeconds = GetEnvInt("HTTP_TIMEOUT_SECONDS", c.HTTPTimeoutSeconds)
	c.ListenAddr = GetEnv("LISTEN_ADDR", c.ListenAddr)
	c.LogLevel = GetEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = GetEnv("LOG_FORMAT", c.LogFormat)

	if s := os.Getenv("DOWNLOADER_COMMAND"); s != "" {
		c.DownloaderCommand = strings.Fields(s)
	}
}

func (c *Config) validate() error {
	if c.ChannelTarget == "" {
		return errors.New("channel_target is required (config file or CHANNEL_TARGET)")
	}
	if c.ChunkSizeMinutes <= 0 {
		return fmt.Errorf("chunk_size_minutes must be positive, got %d", c.ChunkSizeMinutes)
	}
	return nil
}

// GetEnv returns the value of the environment variable named by key, or
// fallback if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by
// key, or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
