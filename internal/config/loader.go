package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rotisserie/eris"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TABSUM_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if TABSUM_CONFIG is set
//  3. env (prefix TABSUM_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, loadFailure(err, "file "+path)
		}
	}

	// TABSUM_QUEUE_SIZE -> queue_size; underscores stay to match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, loadFailure(err, "env")
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, loadFailure(err, "unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFailure keeps err in the chain and tags it with ErrLoadConfig; eris
// matches a wrap layer whose message equals the sentinel's.
func loadFailure(err error, source string) error {
	return eris.Wrap(eris.Wrap(err, source), ErrLoadConfig.Error())
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return eris.Wrap(ErrInvalidConfig, "addr must not be empty")
	case c.StoreDriver != DriverMemory && c.StoreDriver != DriverSQLite:
		return eris.Wrapf(ErrInvalidConfig, "unknown store_driver %q", c.StoreDriver)
	case c.StoreDriver == DriverSQLite && c.SQLitePath == "":
		return eris.Wrap(ErrInvalidConfig, "sqlite_path is required for the sqlite driver")
	case c.MaxBodyBytes <= 0:
		return eris.Wrap(ErrInvalidConfig, "max_body_bytes must be positive")
	case c.QueueSize <= 0:
		return eris.Wrap(ErrInvalidConfig, "queue_size must be positive")
	case c.WorkerCount <= 0:
		return eris.Wrap(ErrInvalidConfig, "worker_count must be positive")
	case c.MetricsRefreshInterval <= 0:
		return eris.Wrap(ErrInvalidConfig, "metrics_refresh_interval must be positive")
	}
	return nil
}
