// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file and TABSUM_ env vars.
// - External errors are wrapped around this package's sentinels.
package config

import (
	"context"
	"runtime"
	"time"
)

// Store drivers understood by the repository layer.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of normalization workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many submission hashes are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver selects the run store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`

	// MaxBodyBytes caps request bodies on the submit endpoints.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// MaxResultsLimit caps GET /v1/runs?limit.
	MaxResultsLimit int `koanf:"max_results_limit"`

	RemoveDuplicatePrelims bool `koanf:"remove_duplicate_prelims"`
	SubstituteFullNames    bool `koanf:"substitute_full_names"`

	// StrictRoundStrings fails a run on a malformed hidden round string.
	StrictRoundStrings bool `koanf:"strict_round_strings"`

	// ExportSheet names the results sheet of xlsx exports.
	ExportSheet string `koanf:"export_sheet"`

	// MetricsRefreshInterval paces the gauge updaters of the serve command.
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		QueueSize:              1_024,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             50_000,
		StoreDriver:            DriverMemory,
		SQLitePath:             "tabsum.db",
		MaxBodyBytes:           32 << 20,
		MaxResultsLimit:        100,
		RemoveDuplicatePrelims: true,
		SubstituteFullNames:    true,
		StrictRoundStrings:     true,
		ExportSheet:            "Results",
		MetricsRefreshInterval: 10 * time.Second,
	}
}
