// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite history database. Empty selects the
	// in-memory store.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory scoring queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the match deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// RateLimitRPS and RateLimitBurst shape inbound request throttling.
	// RateLimitRPS <= 0 disables throttling.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// CORSOrigins lists allowed cross-origin hosts for the API.
	CORSOrigins []string `koanf:"cors_origins"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		DBPath:         "",
		QueueSize:      10_000,
		WorkerCount:    runtime.NumCPU() * 2,
		DedupeSize:     50_000,
		RateLimitRPS:   100,
		RateLimitBurst: 200,
		CORSOrigins:    []string{"*"},
	}
}
