// Package dispatch turns one feed event into canonical results using the
// parser that fits what the event publishes.
package dispatch

import (
	"context"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/identity"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
)

// Skip reasons reported in Outcome.Skipped.
const (
	SkipUnresolved  = "unresolved_entry"
	SkipNoEntry     = "missing_entry"
	SkipPlaceholder = "placeholder"
	SkipNoSchool    = "missing_school"
	SkipBadPlace    = "bad_place"
	SkipNoRounds    = "missing_round_data"
	SkipNoScrape    = "missing_scrape"
)

// Outcome is the result of parsing one event.
type Outcome struct {
	Style     Style
	HasSpeech bool
	HasDebate bool
	Results   []model.Result
	Skipped   map[string]int
}

// Dispatcher parses events against a shared identity resolver and the
// tournament's scraped tables.
type Dispatcher struct {
	ids     *identity.Resolver
	scraped *model.ScrapedData
	log     logger.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for skipped entries.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// New builds a dispatcher. A nil scraped payload is treated as empty.
func New(ids *identity.Resolver, scraped *model.ScrapedData, opts ...Option) *Dispatcher {
	if scraped == nil {
		scraped = &model.ScrapedData{}
	}
	d := &Dispatcher{ids: ids, scraped: scraped, log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse runs the parser selected for the event. Only the scraped-table
// parsers return an error.
func (d *Dispatcher) Parse(ctx context.Context, ev *model.Event) (Outcome, error) {
	style := Select(ev, d.ids, d.scraped)
	p := &parse{d: d, ctx: ctx, ev: ev, skipped: map[string]int{}}
	out := Outcome{Style: style, HasDebate: style.Debate(), HasSpeech: style.Speech()}

	var err error
	switch style {
	case StyleDebateRoundsOnly:
		out.Results = p.debateRoundsOnly()
	case StyleNationalCongress:
		out.Results = p.nationalCongress()
	case StyleCongressScrapedFinalPlaces, StyleSpeechScrapedFinalPlaces:
		out.Results, err = p.scrapedFinalPlaces()
	case StyleDebateResultSets:
		out.Results, err = p.debateResultSets()
	case StyleSpeechNational:
		out.Results = p.speechNational()
	case StyleSpeechFinalPlaces:
		out.Results = p.speechFinalPlaces()
	case StyleSpeechDistrictQualifiers:
		out.Results, err = p.districtQualifiers()
	case StyleSpeechRoundsOnly:
		out.Results = p.speechRoundsOnly()
	default:
		d.log.Warn(ctx, "unsupported event type, no results produced",
			logger.String("event", ev.Name), logger.String("type", ev.Type))
	}
	if err == nil && style.carriesDistrictQualifiers() &&
		(ev.HasLabel(model.SetDistrictQualifiers) || hasDistrictQualifiers(ev, d.scraped)) {
		var dq []model.Result
		dq, err = p.districtQualifiers()
		out.Results = append(out.Results, dq...)
	}
	out.Skipped = p.skipped
	return out, err
}

// parse carries the state of one event's parse.
type parse struct {
	d       *Dispatcher
	ctx     context.Context
	ev      *model.Event
	skipped map[string]int
}

func (p *parse) skip(reason, entry string) {
	p.skipped[reason]++
	if reason == SkipPlaceholder {
		return
	}
	p.d.log.Warn(p.ctx, "skipping entry",
		logger.String("event", p.ev.Name),
		logger.String("entry", entry),
		logger.String("reason", reason))
}

// school resolves a display name's school, falling back to UNKNOWN.
func (p *parse) school(name string) string {
	if s, ok := p.d.ids.School(name); ok && s != "" {
		return s
	}
	return model.UnknownSchool
}

func (p *parse) result(set string) model.Result {
	return model.Result{EventName: p.ev.Name, EventType: p.ev.Type, ResultSet: set}
}
