// Package normalize runs the whole result pipeline for one tournament.
package normalize

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/dispatch"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/fusion"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/identity"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/ranking"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/roundstring"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/schoolname"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
)

// SkipMalformedRounds counts hidden round strings that could not be decoded.
const SkipMalformedRounds = "malformed_round_string"

// Engine normalizes tournaments. It holds no per-tournament state, so one
// engine may serve concurrent calls.
type Engine struct {
	log                    logger.Logger
	schools                *schoolname.Canonicalizer
	removeDuplicatePrelims bool
	substituteFullNames    bool
	strictRounds           bool
}

// New builds an engine with both fusion steps enabled and strict round
// string decoding.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:                    logger.Nop(),
		schools:                schoolname.NewCanonicalizer(),
		removeDuplicatePrelims: true,
		substituteFullNames:    true,
		strictRounds:           true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Normalize turns one tournament feed plus its scraped tables into the
// canonical result list. Every event is observed for identity before any
// event is parsed. A scraped-table mismatch aborts the run.
func (e *Engine) Normalize(ctx context.Context, t *model.Tournament, scraped model.ScrapedData) (model.Outcome, error) {
	if t == nil {
		return model.Outcome{}, ErrNilTournament
	}
	ctx = logger.WithFields(ctx, logger.String("tournament", t.Name))

	events := t.Events()
	ids := identity.New()
	for _, ev := range events {
		ids.ObserveEvent(ev)
	}
	ids.ObserveData(&scraped)

	d := dispatch.New(ids, &scraped, dispatch.WithLogger(e.log))
	var out model.Outcome
	var results []model.Result
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return model.Outcome{}, eris.Wrap(err, "normalize cancelled")
		}
		parsed, err := d.Parse(ctx, ev)
		if err != nil {
			return model.Outcome{}, eris.Wrapf(err, "parse event %q", ev.Name)
		}
		out.HasDebate = out.HasDebate || parsed.HasDebate
		out.HasSpeech = out.HasSpeech || parsed.HasSpeech
		out.Stats.AddStyle(parsed.Style.String())
		for reason, n := range parsed.Skipped {
			out.Stats.AddSkipped(reason, n)
		}

		evResults := ranking.Finalize(parsed.Results)
		bad, err := e.decodeRounds(ctx, evResults)
		if err != nil {
			return model.Outcome{}, eris.Wrapf(err, "event %q", ev.Name)
		}
		out.Stats.AddSkipped(SkipMalformedRounds, bad)
		e.log.Debug(ctx, "event parsed",
			logger.String("event", ev.Name),
			logger.String("style", parsed.Style.String()),
			logger.Int("results", len(evResults)))
		results = append(results, evResults...)
	}

	fused, rep := fusion.Fuse(ctx, results, fusion.Options{
		RemoveDuplicatePrelims: e.removeDuplicatePrelims,
		SubstituteFullNames:    e.substituteFullNames,
		Names:                  ids,
		Schools:                e.schools,
	})
	out.Results = fused
	out.Stats.PrelimsRemoved = rep.PrelimsRemoved
	e.log.Info(ctx, "tournament normalized",
		logger.Int("events", out.Stats.Events),
		logger.Int("results", len(out.Results)),
		logger.Int("prelims_removed", rep.PrelimsRemoved))
	return out, nil
}

// decodeRounds expands hidden round strings into structured rounds. In
// strict mode the first undecodable string is returned as an error;
// otherwise it stays as text and is counted.
func (e *Engine) decodeRounds(ctx context.Context, results []model.Result) (int, error) {
	bad := 0
	for i := range results {
		r := &results[i]
		if r.Rounds != nil {
			r.Rounds = roundstring.Normalize(r.Rounds)
			continue
		}
		if !roundstring.IsEncoded(r.ResultsByRound) {
			continue
		}
		rounds, err := roundstring.Decode(r.ResultsByRound)
		if err != nil {
			if e.strictRounds {
				return bad, eris.Wrapf(err, "entry %q", r.EntryName)
			}
			bad++
			e.log.Warn(ctx, "undecodable round string",
				logger.String("event", r.EventName),
				logger.String("entry", r.EntryName),
				logger.Error(err))
			continue
		}
		r.Rounds = rounds
	}
	return bad, nil
}

// ShortName exposes the engine's canonicalizer.
func (e *Engine) ShortName(long string) string {
	return e.schools.ShortName(long)
}
