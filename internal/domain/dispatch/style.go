package dispatch

import (
	"strings"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/identity"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
)

// Style names the parser chosen for an event.
type Style int

const (
	StyleUnsupported Style = iota
	StyleDebateRoundsOnly
	StyleNationalCongress
	StyleCongressScrapedFinalPlaces
	StyleDebateResultSets
	StyleSpeechNational
	StyleSpeechFinalPlaces
	StyleSpeechScrapedFinalPlaces
	StyleSpeechDistrictQualifiers
	StyleSpeechRoundsOnly
)

var styleNames = map[Style]string{
	StyleUnsupported:                "unsupported",
	StyleDebateRoundsOnly:           "debate_rounds_only",
	StyleNationalCongress:           "national_congress",
	StyleCongressScrapedFinalPlaces: "congress_scraped_final_places",
	StyleDebateResultSets:           "debate_result_sets",
	StyleSpeechNational:             "speech_national",
	StyleSpeechFinalPlaces:          "speech_final_places",
	StyleSpeechScrapedFinalPlaces:   "speech_scraped_final_places",
	StyleSpeechDistrictQualifiers:   "speech_district_qualifiers",
	StyleSpeechRoundsOnly:           "speech_rounds_only",
}

func (s Style) String() string {
	if n, ok := styleNames[s]; ok {
		return n
	}
	return "unknown"
}

// Debate reports styles that set the debate flag.
func (s Style) Debate() bool {
	return s >= StyleDebateRoundsOnly && s <= StyleDebateResultSets
}

// Speech reports styles that set the speech flag.
func (s Style) Speech() bool {
	return s >= StyleSpeechNational && s <= StyleSpeechRoundsOnly
}

// carriesDistrictQualifiers reports speech styles whose own parser ignores
// the District Qualifiers table, so it is appended after the main parse.
func (s Style) carriesDistrictQualifiers() bool {
	switch s {
	case StyleSpeechNational, StyleSpeechFinalPlaces, StyleSpeechScrapedFinalPlaces:
		return true
	}
	return false
}

// congressRounds are the NSDA congress stages in advancement order.
var congressRounds = []string{"Prelim", "Qtr", "Sem", "Final"}

// Select picks the parser for an event from what it publishes. The first
// matching rule wins.
func Select(ev *model.Event, ids *identity.Resolver, scraped *model.ScrapedData) Style {
	switch ev.Type {
	case model.TypeDebate, model.TypeCongress, model.TypeWSDC:
		switch {
		case len(ev.ResultSets) == 0:
			return StyleDebateRoundsOnly
		case ev.Type == model.TypeCongress && isChamberEvent(ev):
			return StyleNationalCongress
		case ev.Type == model.TypeCongress && ev.HasLabel(model.SetFinalPlaces) &&
			!anyResolvable(ev.ResultSet(model.SetFinalPlaces), ids):
			return StyleCongressScrapedFinalPlaces
		default:
			return StyleDebateResultSets
		}
	case model.TypeSpeech:
		switch {
		case ev.HasLabel(model.SetPrelimSeeds) && ev.HasLabel(model.SetAllRounds):
			return StyleSpeechNational
		case ev.HasLabel(model.SetFinalPlaces):
			if anyResolvable(ev.ResultSet(model.SetFinalPlaces), ids) {
				return StyleSpeechFinalPlaces
			}
			return StyleSpeechScrapedFinalPlaces
		case hasDistrictQualifiers(ev, scraped):
			return StyleSpeechDistrictQualifiers
		default:
			return StyleSpeechRoundsOnly
		}
	default:
		return StyleUnsupported
	}
}

// chamberSet returns the first result set of a congress stage.
func chamberSet(ev *model.Event, stage string) *model.ResultSet {
	for i := range ev.ResultSets {
		l := ev.ResultSets[i].Label
		if strings.HasPrefix(l, stage) && strings.Contains(l, "Chamber") {
			return &ev.ResultSets[i]
		}
	}
	return nil
}

func isChamberEvent(ev *model.Event) bool {
	for _, stage := range congressRounds {
		if chamberSet(ev, stage) != nil {
			return true
		}
	}
	return false
}

func anyResolvable(rs *model.ResultSet, ids *identity.Resolver) bool {
	if rs == nil {
		return false
	}
	for i := range rs.Results {
		if _, ok := ids.Name(rs.Results[i].Entry); ok {
			return true
		}
	}
	return false
}

func hasDistrictQualifiers(ev *model.Event, scraped *model.ScrapedData) bool {
	if scraped == nil {
		return false
	}
	for _, se := range scraped.Matching(ev.Name) {
		if len(se.Sets(model.SetDistrictQualifiers)) > 0 {
			return true
		}
	}
	return false
}
