package model

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Scraped result set types.
const (
	SetFinalPlaces        = "Final Places"
	SetSpeakerAwards      = "Speaker Awards"
	SetDistrictQualifiers = "District Qualifiers"
	SetPrelimSeeds        = "Prelim Seeds"
	SetPrelimRecords      = "Prelim Records"
	SetAllRounds          = "All Rounds"
	SetTOCBids            = "TOC Qualifying Bids"
)

// ScrapedData is the scraped counterpart of a tournament: one entry per
// event plus optional tournament-wide lookup maps.
type ScrapedData struct {
	Events         []ScrapedEvent
	NameToSchool   map[string]string
	CodeToName     map[string]string
	NameToFullName map[string]string
}

type scrapedEnvelope struct {
	Results        []ScrapedEvent    `json:"results"`
	NameToSchool   map[string]string `json:"name_to_school_dict,omitempty"`
	CodeToName     map[string]string `json:"code_to_name_dict,omitempty"`
	NameToFullName map[string]string `json:"name_to_full_name_dict,omitempty"`
}

// UnmarshalJSON accepts either a bare list of events or the envelope object.
func (d *ScrapedData) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*d = ScrapedData{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, &d.Events)
	}
	var env scrapedEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	d.Events = env.Results
	d.NameToSchool = env.NameToSchool
	d.CodeToName = env.CodeToName
	d.NameToFullName = env.NameToFullName
	return nil
}

// MarshalJSON always writes the envelope form.
func (d ScrapedData) MarshalJSON() ([]byte, error) {
	events := d.Events
	if events == nil {
		events = []ScrapedEvent{}
	}
	return json.Marshal(scrapedEnvelope{
		Results:        events,
		NameToSchool:   d.NameToSchool,
		CodeToName:     d.CodeToName,
		NameToFullName: d.NameToFullName,
	})
}

// Matching returns every scraped event carrying the name.
func (d *ScrapedData) Matching(eventName string) []*ScrapedEvent {
	var out []*ScrapedEvent
	for i := range d.Events {
		if d.Events[i].EventName == eventName {
			out = append(out, &d.Events[i])
		}
	}
	return out
}

// ScrapedEvent holds the tables scraped for one event.
type ScrapedEvent struct {
	EventName      string             `json:"event_name"`
	CodeToName     map[string]string  `json:"code_to_name_dict,omitempty"`
	NameToSchool   map[string]string  `json:"name_to_school_dict,omitempty"`
	NameToFullName map[string]string  `json:"name_to_full_name_dict,omitempty"`
	ResultList     []ScrapedResultSet `json:"result_list"`
}

// Sets returns the result sets of the given type in scrape order.
func (e *ScrapedEvent) Sets(kind string) []*ScrapedResultSet {
	var out []*ScrapedResultSet
	for i := range e.ResultList {
		if e.ResultList[i].Type == kind {
			out = append(out, &e.ResultList[i])
		}
	}
	return out
}

// ScrapedResultSet is one scraped table.
type ScrapedResultSet struct {
	Type    string       `json:"result_set_type,omitempty"`
	Results []ScrapedRow `json:"results,omitempty"`
}

// Reserved row keys.
const (
	rowKeyRoundByRound = "round_by_round"
	rowKeyTiebreakers  = "tiebreaker_data"
)

// ScrapedRow is one scraped table row: the visible cells keyed by their
// column header plus the hidden round-by-round string.
type ScrapedRow struct {
	Fields       map[string]string
	RoundByRound RoundByRound
	Tiebreakers  map[string]string
}

// NewScrapedRow builds a row from header/value pairs.
func NewScrapedRow(fields map[string]string) ScrapedRow {
	return ScrapedRow{Fields: fields}
}

// Get returns the first non-missing field among keys.
func (r *ScrapedRow) Get(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := r.Fields[k]; ok {
			return v, true
		}
	}
	return "", false
}

// Set stores a field.
func (r *ScrapedRow) Set(key, value string) {
	if r.Fields == nil {
		r.Fields = map[string]string{}
	}
	r.Fields[key] = value
}

// UnmarshalJSON splits reserved keys from visible cells.
func (r *ScrapedRow) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = ScrapedRow{Fields: make(map[string]string, len(raw))}
	for k, v := range raw {
		switch k {
		case rowKeyRoundByRound:
			if err := json.Unmarshal(v, &r.RoundByRound); err != nil {
				return err
			}
		case rowKeyTiebreakers:
			if err := json.Unmarshal(v, &r.Tiebreakers); err != nil {
				r.Tiebreakers = nil
			}
		default:
			var s Scalar
			if err := json.Unmarshal(v, &s); err != nil || s.IsZero() {
				continue
			}
			r.Fields[k] = s.String()
		}
	}
	return nil
}

// MarshalJSON flattens the row back to a single object.
func (r ScrapedRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = r.Fields[k]
	}
	if !r.RoundByRound.IsZero() {
		out[rowKeyRoundByRound] = r.RoundByRound
	}
	if len(r.Tiebreakers) > 0 {
		out[rowKeyTiebreakers] = r.Tiebreakers
	}
	return json.Marshal(out)
}

// RoundByRound carries a row's round results either as the raw hidden
// string or as an already decoded list.
type RoundByRound struct {
	Raw    string
	Rounds []RoundResult
}

// IsZero reports an absent value.
func (rb RoundByRound) IsZero() bool { return rb.Raw == "" && rb.Rounds == nil }

// UnmarshalJSON accepts a string or a list of rounds.
func (rb *RoundByRound) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*rb = RoundByRound{}
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		return json.Unmarshal(b, &rb.Raw)
	default:
		return json.Unmarshal(b, &rb.Rounds)
	}
}

// MarshalJSON prefers the decoded form.
func (rb RoundByRound) MarshalJSON() ([]byte, error) {
	if rb.Rounds != nil {
		return json.Marshal(rb.Rounds)
	}
	return json.Marshal(rb.Raw)
}
