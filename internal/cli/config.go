// Package cli holds configuration loading and wiring shared by the
// marionette subcommands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	backend "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/pkg/adapters/memory"
	redisadapter "github.com/puppetwire/marionette/pkg/adapters/redis"
	"github.com/puppetwire/marionette/pkg/transcript"
)

// Config is the marionette.yaml file.
type Config struct {
	Game           string `yaml:"game"`
	CompactNumbers bool   `yaml:"compact_numbers"`
	StrictForce    bool   `yaml:"strict_force"`
	LogLevel       string `yaml:"log_level"`

	Listen struct {
		WS  string `yaml:"ws"`
		API string `yaml:"api"`
	} `yaml:"listen"`

	Transcript struct {
		Backend string `yaml:"backend"` // "memory", "redis" or "" (disabled)
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"transcript"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	var cfg Config
	cfg.LogLevel = "info"
	cfg.Listen.WS = ":8910"
	cfg.Listen.API = ":8911"
	return cfg
}

// LoadConfig reads the YAML config at path. A missing file yields the
// defaults; a present but unreadable one is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Level parses the configured log level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// SessionOptions translates the config into session options.
func (c Config) SessionOptions() []marionette.Option {
	var opts []marionette.Option
	if c.Game != "" {
		opts = append(opts, marionette.WithGameName(c.Game))
	}
	if c.CompactNumbers {
		opts = append(opts, marionette.WithCompactNumbers())
	}
	if c.StrictForce {
		opts = append(opts, marionette.WithStrictForce())
	}
	return opts
}

// TranscriptStore builds the configured transcript backend. Returns
// nil when recording is disabled.
func (c Config) TranscriptStore() (transcript.Store, error) {
	switch c.Transcript.Backend {
	case "":
		return nil, nil
	case "memory":
		return memory.NewStore(), nil
	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     c.Transcript.Redis.Addr,
			Password: c.Transcript.Redis.Password,
			DB:       c.Transcript.Redis.DB,
		})
		return redisadapter.NewFromClient(client), nil
	}
	return nil, fmt.Errorf("unknown transcript backend %q", c.Transcript.Backend)
}
