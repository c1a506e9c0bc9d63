package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names read by Load.
const (
	EnvPrefix = "STAMPCARD_"
	EnvFile   = "STAMPCARD_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if STAMPCARD_CONFIG is set
//  3. env (prefix STAMPCARD_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// STAMPCARD_SYNC_INTERVAL_MS -> sync_interval_ms. Underscores are kept
	// to match the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	// The file path itself is not a config key.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and cross-field rules.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.SyncIntervalMS < 0:
		return invalid("sync_interval_ms must not be negative")
	case c.RequestTimeoutMS <= 0:
		return invalid("request_timeout_ms must be positive")
	case c.AppendQueueSize <= 0:
		return invalid("append_queue_size must be positive")
	case c.CheerTimeoutMS <= 0:
		return invalid("cheer_timeout_ms must be positive")
	case c.DedupeSize < 0:
		return invalid("dedupe_size must not be negative")
	case c.HistoryPageSize <= 0:
		return invalid("history_page_size must be positive")
	}

	switch c.LogStore {
	case StoreMemory:
	case StoreSQLite:
		if c.LogStorePath == "" {
			return invalid("log_store_path is required for the sqlite store")
		}
	default:
		return invalid("log_store must be memory or sqlite, got %q", c.LogStore)
	}

	for key, raw := range map[string]string{"log_endpoint": c.LogEndpoint, "cheer_endpoint": c.CheerEndpoint} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("%s must be an http(s) URL, got %q", key, raw)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
