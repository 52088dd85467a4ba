package config_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/benjmor/tabroom-auto-summarize/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1_024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.RemoveDuplicatePrelims, convey.ShouldBeTrue)
			convey.So(cfg.SubstituteFullNames, convey.ShouldBeTrue)
			convey.So(cfg.StrictRoundStrings, convey.ShouldBeTrue)
			convey.So(cfg.ExportSheet, convey.ShouldEqual, "Results")
			convey.So(cfg.MetricsRefreshInterval, convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs that break one rule each", t, func() {
		cases := map[string]func(c *config.Config){
			"addr must not be empty":          func(c *config.Config) { c.Addr = "" },
			"unknown store_driver":            func(c *config.Config) { c.StoreDriver = "postgres" },
			"sqlite_path is required":         func(c *config.Config) { c.StoreDriver, c.SQLitePath = config.DriverSQLite, "" },
			"max_body_bytes must be positive": func(c *config.Config) { c.MaxBodyBytes = 0 },
			"queue_size must be positive":     func(c *config.Config) { c.QueueSize = -1 },
			"worker_count must be positive":   func(c *config.Config) { c.WorkerCount = 0 },
		}
		for msg, mutate := range cases {
			cfg := config.New(context.Background())
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, msg)
			convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
		}
	})
}
