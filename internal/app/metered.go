package service

import (
	"context"
	"time"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/normalize"
	"github.com/benjmor/tabroom-auto-summarize/pkg/metrics"
)

// meteredEngine records engine metrics around every normalization, whether
// it runs inline or on a worker.
type meteredEngine struct {
	engine *normalize.Engine
}

func (m meteredEngine) Normalize(ctx context.Context, t *model.Tournament, scraped model.ScrapedData) (model.Outcome, error) {
	start := time.Now()
	out, err := m.engine.Normalize(ctx, t, scraped)
	metrics.RecordNormalizeLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordErrorByComponent("engine", "normalize_error")
		return out, err
	}

	for style, n := range out.Stats.Styles {
		metrics.RecordEventsParsed(style, n)
	}
	for set, n := range out.CountBySet() {
		metrics.RecordResultsEmitted(set, n)
	}
	for reason, n := range out.Stats.Skipped {
		metrics.RecordEntriesSkipped(reason, n)
	}
	metrics.RecordPrelimsRemoved(out.Stats.PrelimsRemoved)
	return out, nil
}
