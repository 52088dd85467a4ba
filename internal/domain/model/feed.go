// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
)

// Event types published by the feed.
const (
	TypeDebate   = "debate"
	TypeCongress = "congress"
	TypeSpeech   = "speech"
	TypeWSDC     = "wsdc"
)

// Round types that never contribute identity.
const (
	RoundElim  = "elim"
	RoundFinal = "final"
)

// Score tags found on ballots.
const (
	TagWinLoss = "winloss"
	TagPoints  = "points"
	TagRank    = "rank"
)

// Tournament is the machine feed root object.
type Tournament struct {
	ID         ID         `json:"id"`
	Name       string     `json:"name"`
	StartDate  string     `json:"start,omitempty"`
	EndDate    string     `json:"end,omitempty"`
	Categories []Category `json:"categories"`
}

// Events flattens every category's events in publication order.
func (t *Tournament) Events() []*Event {
	var out []*Event
	for ci := range t.Categories {
		for ei := range t.Categories[ci].Events {
			out = append(out, &t.Categories[ci].Events[ei])
		}
	}
	return out
}

// Category groups events.
type Category struct {
	ID     ID      `json:"id"`
	Name   string  `json:"name"`
	Events []Event `json:"events"`
}

// Event is one competition category.
type Event struct {
	ID         ID          `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	ResultSets []ResultSet `json:"result_sets,omitempty"`
	Rounds     []Round     `json:"rounds,omitempty"`
}

// HasLabel reports whether a result set with the label is published.
func (e *Event) HasLabel(label string) bool {
	return e.ResultSet(label) != nil
}

// ResultSet returns the first result set carrying the label.
func (e *Event) ResultSet(label string) *ResultSet {
	for i := range e.ResultSets {
		if e.ResultSets[i].Label == label {
			return &e.ResultSets[i]
		}
	}
	return nil
}

// ResultSet is one published standings table.
type ResultSet struct {
	ID      ID          `json:"id,omitempty"`
	Label   string      `json:"label"`
	Bracket Scalar      `json:"bracket"`
	Results []ResultRow `json:"results,omitempty"`
}

// IsBracket reports single-elimination bracket sets.
func (rs *ResultSet) IsBracket() bool {
	n, ok := rs.Bracket.Int()
	return ok && n == 1
}

// ResultRow is one row of a result set.
type ResultRow struct {
	Entry      ID            `json:"entry,omitempty"`
	Rank       Scalar        `json:"rank"`
	Place      Scalar        `json:"place"`
	Percentile Scalar        `json:"percentile"`
	School     string        `json:"school,omitempty"`
	Values     []ResultValue `json:"values"`
}

// HasEntry reports whether the row references an entry.
func (r *ResultRow) HasEntry() bool { return r.Entry != "" }

// IsPlaceholder reports rows whose values are a single empty object.
// The feed emits these as duplicates of real rows.
func (r *ResultRow) IsPlaceholder() bool {
	return len(r.Values) == 1 && r.Values[0].Empty
}

// LeadsEmpty reports rows whose first value is an empty object.
func (r *ResultRow) LeadsEmpty() bool {
	return len(r.Values) == 0 || r.Values[0].Empty
}

// ValueAt returns the value published at the priority.
func (r *ResultRow) ValueAt(priority int) (ResultValue, bool) {
	for _, v := range r.Values {
		if v.HasPriority && v.Priority == priority {
			return v, true
		}
	}
	return ResultValue{}, false
}

// ResultValue is a priority-tagged cell of a result row.
type ResultValue struct {
	Priority    int
	HasPriority bool
	Value       Scalar
	// Empty is set when the source published "{}".
	Empty bool
}

// UnmarshalJSON records the empty-object placeholder.
func (v *ResultValue) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = ResultValue{Empty: len(raw) == 0}
	if p, ok := raw["priority"]; ok && !bytes.Equal(bytes.TrimSpace(p), []byte("null")) {
		var s Scalar
		if err := json.Unmarshal(p, &s); err != nil {
			return err
		}
		if n, ok := s.Int(); ok {
			v.Priority, v.HasPriority = n, true
		}
	}
	if val, ok := raw["value"]; ok {
		if err := json.Unmarshal(val, &v.Value); err != nil {
			// Nested payloads are kept verbatim as text.
			v.Value = Text(string(val))
		}
	}
	return nil
}

// MarshalJSON writes the value back in feed shape.
func (v ResultValue) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if v.HasPriority {
		out["priority"] = v.Priority
	}
	if !v.Value.IsZero() {
		out["value"] = v.Value
	}
	return json.Marshal(out)
}

// Round holds the sections of one round of an event.
type Round struct {
	ID       ID        `json:"id,omitempty"`
	Name     Scalar    `json:"name"`
	Label    string    `json:"label,omitempty"`
	Type     string    `json:"type,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

// DisplayLabel prefers the label and falls back to the name.
func (r *Round) DisplayLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Name.String()
}

// ContributesIdentity reports whether ballots of this round seed the identity maps.
func (r *Round) ContributesIdentity() bool {
	return r.Type != RoundElim && r.Type != RoundFinal
}

// Section is one room of a round.
type Section struct {
	ID      ID       `json:"id,omitempty"`
	Letter  string   `json:"letter,omitempty"`
	Ballots []Ballot `json:"ballots,omitempty"`
}

// Ballot is one judge's decision for one entry.
type Ballot struct {
	ID        ID      `json:"id,omitempty"`
	Entry     ID      `json:"entry,omitempty"`
	EntryName string  `json:"entry_name,omitempty"`
	EntryCode string  `json:"entry_code,omitempty"`
	Bye       Scalar  `json:"bye"`
	Forfeit   Scalar  `json:"forfeit"`
	Scores    []Score `json:"scores,omitempty"`
}

// Score returns the first score with the tag.
func (b *Ballot) Score(tag string) (Scalar, bool) {
	for _, s := range b.Scores {
		if s.Tag == tag {
			return s.Value, true
		}
	}
	return Scalar{}, false
}

// IsBye reports a bye ballot.
func (b *Ballot) IsBye() bool {
	return b.Entry == "bye" || b.Bye.Truthy()
}

// Score is a tagged ballot score.
type Score struct {
	Tag   string `json:"tag"`
	Value Scalar `json:"value"`
}
