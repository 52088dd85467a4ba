package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/export"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/normalize"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Files read and written in each tournament directory.
const (
	tournamentFile  = "tournament.json"
	scrapedFile     = "scraped.json"
	resultsFile     = "results.json"
	resultsXLSXFile = "results.xlsx"
)

var (
	normalizeXLSX        bool
	normalizeConcurrency int
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize DIR...",
	Short: "Normalize tournament directories into results.json",
	Long: "Each DIR holds tournament.json and an optional scraped.json. " +
		"The normalized results are written next to them.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine := normalize.New(
			normalize.WithLogger(logger.Named("engine")),
			normalize.WithRemoveDuplicatePrelims(cfg.RemoveDuplicatePrelims),
			normalize.WithSubstituteFullNames(cfg.SubstituteFullNames),
			normalize.WithStrictRoundStrings(cfg.StrictRoundStrings),
		)
		opts := dirOptions{xlsx: normalizeXLSX, sheet: cfg.ExportSheet}
		return normalizeDirs(ctx, engine, args, normalizeConcurrency, opts)
	},
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeXLSX, "xlsx", false, "also write results.xlsx")
	normalizeCmd.Flags().IntVar(&normalizeConcurrency, "concurrency", 4, "directories processed in parallel")
	rootCmd.AddCommand(normalizeCmd)
}

type dirOptions struct {
	xlsx  bool
	sheet string
}

// normalizeDirs processes every directory; one failure does not stop the
// others.
func normalizeDirs(ctx context.Context, engine *normalize.Engine, dirs []string, concurrency int, opts dirOptions) error {
	log := logger.Get()
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	for _, dir := range dirs {
		g.Go(func() error {
			n, err := normalizeDir(gctx, engine, dir, opts)
			if err != nil {
				failed.Add(1)
				log.Error(gctx, "normalize failed", logger.String("dir", dir), logger.Error(err))
				return nil
			}
			succeeded.Add(1)
			log.Info(gctx, "normalized", logger.String("dir", dir), logger.Int("results", n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "normalize directories")
	}

	log.Info(ctx, "normalize complete",
		logger.Int("succeeded", int(succeeded.Load())),
		logger.Int("failed", int(failed.Load())),
	)
	if n := failed.Load(); n > 0 {
		return eris.Errorf("%d of %d directories failed", n, len(dirs))
	}
	return nil
}

// normalizeDir normalizes one directory and returns the result count.
func normalizeDir(ctx context.Context, engine *normalize.Engine, dir string, opts dirOptions) (int, error) {
	var t model.Tournament
	if err := readJSON(filepath.Join(dir, tournamentFile), &t); err != nil {
		return 0, err
	}
	var scraped model.ScrapedData
	if err := readJSON(filepath.Join(dir, scrapedFile), &scraped); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}

	out, err := engine.Normalize(ctx, &t, scraped)
	if err != nil {
		return 0, eris.Wrapf(err, "normalize %s", t.Name)
	}
	if err := writeJSON(filepath.Join(dir, resultsFile), out); err != nil {
		return 0, err
	}

	if opts.xlsx && len(out.Results) > 0 {
		path := filepath.Join(dir, resultsXLSXFile)
		f, err := os.Create(path)
		if err != nil {
			return 0, eris.Wrapf(err, "create %s", path)
		}
		if err := export.WriteXLSX(f, &out, export.Options{Sheet: opts.sheet}); err != nil {
			_ = f.Close()
			return 0, eris.Wrapf(err, "write %s", path)
		}
		if err := f.Close(); err != nil {
			return 0, eris.Wrapf(err, "close %s", path)
		}
	}
	return len(out.Results), nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return eris.Wrapf(err, "decode %s", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "encode %s", path)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil { //nolint:gosec // result files are not secret
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}
