package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Config holds the settings shared by the server, the historian and bridgectl.
type Config struct {
	DatabaseURL     string  `toml:"database_url"`
	RedisAddr       string  `toml:"redis_addr"` // empty disables the attempt queue
	RedisDB         int     `toml:"redis_db"`
	AttemptQueue    string  `toml:"attempt_queue"`
	Port            string  `toml:"port"`
	KFactor         float64 `toml:"k_factor"`
	TokenExpireTime string  `toml:"token_expire_time"`
	LogLevel        string  `toml:"log_level"`

	Historian HistorianConfig `toml:"historian"`
	Render    RenderConfig    `toml:"render"`
}

type HistorianConfig struct {
	BatchSize int `toml:"batch_size"`
	FlushMs   int `toml:"flush_ms"`
}

// FlushEvery is the flush interval as a duration.
func (h HistorianConfig) FlushEvery() time.Duration {
	return time.Duration(h.FlushMs) * time.Millisecond
}

type RenderConfig struct {
	// Symbols is "unicode" (♠♥♦♣) or "letters" (S H D C).
	Symbols string `toml:"symbols"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DatabaseURL:     "postgres://localhost:5432/bridge",
		RedisAddr:       "localhost:6379",
		AttemptQueue:    "bridge_attempts",
		Port:            "8080",
		KFactor:         30,
		TokenExpireTime: "72h",
		LogLevel:        "info",
		Historian:       HistorianConfig{BatchSize: 20, FlushMs: 500},
		Render:          RenderConfig{Symbols: "unicode"},
	}
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or ~/.config.
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// DefaultPath is where Load looks when no file is named.
func DefaultPath() string {
	return filepath.Join(GetXDGConfigHome(), "bridgetrainer", "config.toml")
}

// Load builds the configuration from defaults, then the TOML file, then the environment.
// path may be empty; BRIDGE_CONFIG and DefaultPath are tried next, and a missing
// default file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("BRIDGE_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error decoding config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"DATABASE_URL":      &c.DatabaseURL,
		"ATTEMPT_QUEUE":     &c.AttemptQueue,
		"PORT":              &c.Port,
		"TOKEN_EXPIRE_TIME": &c.TokenExpireTime,
		"LOG_LEVEL":         &c.LogLevel,
		"RENDER_SYMBOLS":    &c.Render.Symbols,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	// REDIS_ADDR may be set to "" on purpose to disable the queue
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		c.RedisAddr = v
	}

	ints := map[string]*int{
		"REDIS_DB":             &c.RedisDB,
		"HISTORIAN_BATCH_SIZE": &c.Historian.BatchSize,
		"HISTORIAN_FLUSH_MS":   &c.Historian.FlushMs,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("K_FACTOR"); v != "" {
		k, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("K_FACTOR: %w", err)
		}
		c.KFactor = k
	}
	return nil
}

// Validate rejects settings the binaries cannot run with.
func (c *Config) Validate() error {
	if c.KFactor <= 0 {
		return fmt.Errorf("k_factor must be positive, got %v", c.KFactor)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Historian.BatchSize <= 0 || c.Historian.FlushMs <= 0 {
		return fmt.Errorf("historian batch_size and flush_ms must be positive")
	}
	switch c.Render.Symbols {
	case "unicode", "letters":
	default:
		return fmt.Errorf("render symbols must be unicode or letters, got %q", c.Render.Symbols)
	}
	return nil
}

// Logger returns a text logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
