// Package config defines service configuration structures and loading hooks.
package config

import (
	"net"
	"time"
)

// Log store kinds accepted by LogStore.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// LogEndpoint is the URL of the remote event log. When empty and
	// ServeLog is set, the local /log endpoint is used.
	LogEndpoint string `koanf:"log_endpoint"`

	// SyncIntervalMS is the period of the background replay. 0 disables it.
	SyncIntervalMS int `koanf:"sync_interval_ms"`

	// RequestTimeoutMS bounds every call to the event log.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// AppendQueueSize bounds the in-memory append queue.
	AppendQueueSize int `koanf:"append_queue_size"`

	// CheerEndpoint is the optional cheer suggestion service.
	CheerEndpoint  string `koanf:"cheer_endpoint"`
	CheerTimeoutMS int    `koanf:"cheer_timeout_ms"`

	// ServeLog hosts GET/POST /log on this server.
	ServeLog bool `koanf:"serve_log"`

	// LogStore selects the row store behind /log: memory or sqlite.
	LogStore     string `koanf:"log_store"`
	LogStorePath string `koanf:"log_store_path"`

	// DedupeSize bounds the request id cache of the local log. 0 means
	// unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	HistoryPageSize int `koanf:"history_page_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		SyncIntervalMS:   5_000,
		RequestTimeoutMS: 10_000,
		AppendQueueSize:  256,
		CheerTimeoutMS:   8_000,
		LogStore:         StoreMemory,
		LogStorePath:     "stampcard.db",
		DedupeSize:       10_000,
		HistoryPageSize:  50,
	}
}

// SyncInterval returns SyncIntervalMS as a duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMS) * time.Millisecond
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// CheerTimeout returns CheerTimeoutMS as a duration.
func (c *Config) CheerTimeout() time.Duration {
	return time.Duration(c.CheerTimeoutMS) * time.Millisecond
}

// EffectiveLogEndpoint returns LogEndpoint, or the local /log URL derived
// from Addr when the endpoint is unset and ServeLog is on. An empty result
// means the service runs without a log.
func (c *Config) EffectiveLogEndpoint() string {
	if c.LogEndpoint != "" || !c.ServeLog {
		return c.LogEndpoint
	}
	host, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/log"
}
