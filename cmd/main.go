package main

import (
	"context"
	"os"

	"github.com/benjmor/tabroom-auto-summarize/internal/config"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tabsum",
	Short: "Normalize Tabroom tournament results",
	Long: "Fuses a Tabroom machine feed with scraped result tables into one flat list of " +
		"per-competitor results, as a one-shot CLI or an HTTP service.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Init(); err != nil {
			return eris.Wrap(err, "init logger")
		}
		c, err := config.Load(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
				logger.String("log_level", cfg.LogLevel), logger.Error(err))
			_ = logger.SetLevelString("info")
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
