// Package fusion merges one tournament's per-event results into the final
// list: redundant prelim rows are dropped, names are expanded and every
// record is stamped with its school's short name.
package fusion

import (
	"context"
	"strings"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/dedupe"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
)

// NameLookup resolves a display name to a longer full name.
type NameLookup interface {
	FullName(name string) (string, bool)
}

// ShortNamer canonicalizes school names.
type ShortNamer interface {
	ShortName(long string) string
}

// Options selects which fusion steps run.
type Options struct {
	RemoveDuplicatePrelims bool
	SubstituteFullNames    bool
	Names                  NameLookup
	Schools                ShortNamer
}

// Report counts what fusion changed.
type Report struct {
	PrelimsRemoved int
	NamesReplaced  int
}

// Fuse applies the enabled steps in order and returns the surviving results.
// The input slice is not modified.
func Fuse(ctx context.Context, results []model.Result, opts Options) ([]model.Result, Report) {
	var rep Report
	out := make([]model.Result, len(results))
	copy(out, results)

	if opts.RemoveDuplicatePrelims {
		out, rep.PrelimsRemoved = removeDuplicatePrelims(ctx, out)
	}
	if opts.SubstituteFullNames && opts.Names != nil {
		for i := range out {
			if full, ok := opts.Names.FullName(out[i].EntryName); ok && full != "" {
				out[i].EntryName = full
				rep.NamesReplaced++
			}
		}
	}
	if opts.Schools != nil {
		for i := range out {
			out[i].SchoolShortName = opts.Schools.ShortName(out[i].SchoolName)
		}
	}
	return out, rep
}

// prelimKey identifies a placement by its raw place, not the "place/total"
// rank string: the total grows with every result set the event publishes.
func prelimKey(r *model.Result) string {
	place := r.Place.String()
	if r.Place.IsZero() {
		place, _, _ = strings.Cut(r.Rank, "/")
	}
	return strings.Join([]string{r.EventName, r.SchoolName, r.EntryName, place}, "\x00")
}

// removeDuplicatePrelims drops one Prelim Seeds row for every Final Places
// row of the same event, school, entry and place.
func removeDuplicatePrelims(ctx context.Context, results []model.Result) ([]model.Result, int) {
	pending := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
	for i := range results {
		if results[i].ResultSet == model.SetFinalPlaces {
			pending.SeenAndRecord(ctx, prelimKey(&results[i]))
		}
	}
	if pending.Size() == 0 {
		return results, 0
	}

	kept := results[:0]
	removed := 0
	for i := range results {
		r := results[i]
		if r.ResultSet == model.SetPrelimSeeds {
			key := prelimKey(&r)
			if pending.Contains(ctx, key) {
				pending.Unrecord(ctx, key)
				removed++
				continue
			}
		}
		kept = append(kept, r)
	}
	return kept, removed
}
