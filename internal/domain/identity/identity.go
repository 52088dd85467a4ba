// Package identity accumulates the lookup maps that tie feed entry ids,
// entry codes, display names, full names and schools together.
package identity

import (
	"strings"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
)

// Resolver is fed every event (and every scraped event) before any result is
// parsed, because a later event may publish identity an earlier one lacks.
// It is not safe for concurrent use; one resolver serves one tournament.
type Resolver struct {
	idToName       map[model.ID]string
	idToCode       map[model.ID]string
	codeToName     map[string]string
	nameToSchool   map[string]string
	nameToFullName map[string]string
}

// New returns an empty resolver.
func New() *Resolver {
	return &Resolver{
		idToName:       make(map[model.ID]string),
		idToCode:       make(map[model.ID]string),
		codeToName:     make(map[string]string),
		nameToSchool:   make(map[string]string),
		nameToFullName: make(map[string]string),
	}
}

// CleanName trims a display name and collapses doubled spaces.
func CleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// ObserveEvent records id, name and code from every ballot of every
// non-elimination round. Later observations overwrite earlier ones; blank
// names and codes are never recorded.
func (r *Resolver) ObserveEvent(ev *model.Event) {
	for ri := range ev.Rounds {
		round := &ev.Rounds[ri]
		if !round.ContributesIdentity() {
			continue
		}
		for si := range round.Sections {
			for _, b := range round.Sections[si].Ballots {
				if b.Entry == "" {
					continue
				}
				if !blank(b.EntryName) {
					r.idToName[b.Entry] = b.EntryName
				}
				if !blank(b.EntryCode) {
					r.idToCode[b.Entry] = b.EntryCode
				}
			}
		}
	}
}

// ObserveScraped merges the lookup maps of one scraped event.
func (r *Resolver) ObserveScraped(se *model.ScrapedEvent) {
	r.ObserveMaps(se.CodeToName, se.NameToSchool, se.NameToFullName)
}

// ObserveMaps merges raw code→name, name→school and name→full-name maps.
func (r *Resolver) ObserveMaps(codeToName, nameToSchool, nameToFullName map[string]string) {
	for k, v := range codeToName {
		if k != "" && !blank(v) {
			r.codeToName[k] = v
		}
	}
	for k, v := range nameToSchool {
		r.nameToSchool[k] = v
	}
	for k, v := range nameToFullName {
		r.nameToFullName[k] = v
	}
}

// ObserveData merges a whole scraped payload.
func (r *Resolver) ObserveData(d *model.ScrapedData) {
	if d == nil {
		return
	}
	r.ObserveMaps(d.CodeToName, d.NameToSchool, d.NameToFullName)
	for i := range d.Events {
		r.ObserveScraped(&d.Events[i])
	}
}

// Name returns the display name recorded for an entry id.
func (r *Resolver) Name(id model.ID) (string, bool) {
	n := r.idToName[id]
	return n, !blank(n)
}

// Code returns the entry code recorded for an entry id.
func (r *Resolver) Code(id model.ID) (string, bool) {
	c := r.idToCode[id]
	return c, !blank(c)
}

// NameForCode returns the scraped name behind an entry code.
func (r *Resolver) NameForCode(code string) (string, bool) {
	n := r.codeToName[code]
	return n, !blank(n)
}

// School returns the school registered for a display name.
func (r *Resolver) School(name string) (string, bool) {
	if s, ok := r.nameToSchool[name]; ok {
		return s, true
	}
	s, ok := r.nameToSchool[CleanName(name)]
	return s, ok
}

// FullName returns the scraped full name for a display name.
func (r *Resolver) FullName(name string) (string, bool) {
	f, ok := r.nameToFullName[name]
	return f, ok
}

// Entry resolves the name and code of a ballot's entry, preferring the
// accumulated maps and falling back to the ballot's inline fields.
func (r *Resolver) Entry(b *model.Ballot) (name, code string, ok bool) {
	name, nameOK := r.Name(b.Entry)
	if !nameOK {
		name = b.EntryName
	}
	code, codeOK := r.Code(b.Entry)
	if !codeOK {
		code = b.EntryCode
	}
	if blank(name) || blank(code) {
		return "", "", false
	}
	return name, code, true
}

// Size reports how many entry ids are known.
func (r *Resolver) Size() int { return len(r.idToName) }
