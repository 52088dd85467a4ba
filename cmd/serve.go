package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/http/api"
	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/http/swagger"
	app "github.com/benjmor/tabroom-auto-summarize/internal/app"
	"github.com/benjmor/tabroom-auto-summarize/internal/config"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/normalize"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
	"github.com/benjmor/tabroom-auto-summarize/pkg/metrics"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout               = 30 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the normalization HTTP service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newService(c *config.Config, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log),
		app.WithWorkerCount(c.WorkerCount),
		app.WithQueueSize(c.QueueSize),
		app.WithDedupeSize(c.DedupeSize),
		app.WithStoreDriver(c.StoreDriver, c.SQLitePath),
		app.WithEngineOptions(
			normalize.WithRemoveDuplicatePrelims(c.RemoveDuplicatePrelims),
			normalize.WithSubstituteFullNames(c.SubstituteFullNames),
			normalize.WithStrictRoundStrings(c.StrictRoundStrings),
		),
	)
}

func newMux(ctx context.Context, c *config.Config, svc api.Service, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithMaxBodyBytes(c.MaxBodyBytes),
		api.WithMaxResultsLimit(c.MaxResultsLimit),
		api.WithExportSheet(c.ExportSheet),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)
	return mux
}

func serve(ctx context.Context, c *config.Config) error {
	log := logger.Get()

	svc := newService(c, log.Named("service"))
	if err := svc.Start(ctx); err != nil {
		return eris.Wrap(err, "start service")
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           newMux(ctx, c, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", c.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server shutdown")
		}
		return nil
	})
	every := refreshInterval(c)
	g.Go(func() error {
		tick(gctx, every, updateSystemMetrics)
		return nil
	})
	g.Go(func() error {
		tick(gctx, every, func() { updateServiceMetrics(svc) })
		return nil
	})

	err := g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

// refreshInterval applies the configured gauge pace to the metrics manager.
func refreshInterval(c *config.Config) time.Duration {
	m := metrics.Default()
	m.SetRefreshInterval(c.MetricsRefreshInterval)
	return m.RefreshInterval()
}

func tick(ctx context.Context, every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges derived from service stats.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if active, ok := stats["activeWorkers"].(int); ok {
		metrics.UpdateWorkerActiveCount(active)
	}
}
