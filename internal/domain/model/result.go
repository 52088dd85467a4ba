package model

import (
	"encoding/json"
	"strings"
)

// Sentinels for rank and place fields.
const (
	NotApplicable = "N/A"
	ToBeDecided   = "TBD"
	UnknownSchool = "UNKNOWN"
)

// Result is the canonical per-competitor record.
type Result struct {
	EventName       string        `json:"event_name"`
	EventType       string        `json:"event_type"`
	ResultSet       string        `json:"result_set"`
	EntryName       string        `json:"entry_name"`
	EntryCode       string        `json:"entry_code"`
	SchoolName      string        `json:"school_name"`
	SchoolShortName string        `json:"school_short_name,omitempty"`
	Rank            string        `json:"rank"`
	TotalEntries    int           `json:"total_entries"`
	RoundReached    Scalar        `json:"round_reached"`
	Percentile      float64       `json:"percentile"`
	Place           Scalar        `json:"place"`
	ResultsByRound  string        `json:"results_by_round"`
	Rounds          []RoundResult `json:"rounds,omitempty"`
}

// WinCount counts recorded wins in the round summary.
func (r *Result) WinCount() int {
	return strings.Count(r.ResultsByRound, "W")
}

// RoundResult is one decoded round of a hidden round-string.
type RoundResult struct {
	RoundName string   `json:"round_name"`
	TotalRank string   `json:"total_rank"`
	Ranks     []string `json:"ranks"`
}

// IsBye reports a synthesized bye round.
func (r RoundResult) IsBye() bool {
	return len(r.Ranks) == 1 && r.Ranks[0] == ByeMark && r.TotalRank == ByeMark
}

// ByeMark marks a round the entry did not compete in.
const ByeMark = "Bye"

// Stats summarizes one engine run.
type Stats struct {
	Events         int            `json:"events"`
	Styles         map[string]int `json:"styles,omitempty"`
	Skipped        map[string]int `json:"skipped,omitempty"`
	PrelimsRemoved int            `json:"prelims_removed"`
}

// AddStyle counts an event parsed with the style.
func (s *Stats) AddStyle(style string) {
	if s.Styles == nil {
		s.Styles = map[string]int{}
	}
	s.Styles[style]++
	s.Events++
}

// AddSkipped counts skipped entries by reason.
func (s *Stats) AddSkipped(reason string, n int) {
	if n <= 0 {
		return
	}
	if s.Skipped == nil {
		s.Skipped = map[string]int{}
	}
	s.Skipped[reason] += n
}

// Outcome is what the engine hands downstream.
type Outcome struct {
	HasSpeech bool     `json:"has_speech"`
	HasDebate bool     `json:"has_debate"`
	Results   []Result `json:"results"`
	Stats     Stats    `json:"stats"`
}

// MarshalJSON keeps an empty result list as [] rather than null.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type alias Outcome
	a := alias(o)
	if a.Results == nil {
		a.Results = []Result{}
	}
	return json.Marshal(a)
}

// CountBySet tallies results per result set.
func (o *Outcome) CountBySet() map[string]int {
	out := map[string]int{}
	for _, r := range o.Results {
		out[r.ResultSet]++
	}
	return out
}
