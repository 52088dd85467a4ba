package dispatch

import (
	"sort"
	"strconv"
	"strings"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/ranking"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
	"github.com/rotisserie/eris"
)

const (
	byeRound        = "B"
	tocBidPriority  = 1
	hiddenPriority  = 999
	setFinalRecord  = "Final Record"
	setDistrictAlt  = "District Alternate"
	qualifyingPlace = 3
)

var ignoredLabels = []string{
	"NDCA Dukes and Bailey Points",
	"NDCA Baker Points",
	"NDCA Averill Points",
}

func ignored(label string) bool {
	for _, l := range ignoredLabels {
		if strings.Contains(label, l) {
			return true
		}
	}
	return false
}

func (p *parse) debateResultSets() ([]model.Result, error) {
	var out []model.Result
	total := 0
	for i := range p.ev.ResultSets {
		rs := &p.ev.ResultSets[i]
		if len(rs.Results) == 0 || rs.IsBracket() {
			continue
		}
		if rs.Label != model.SetSpeakerAwards {
			total = max(total, len(rs.Results))
		}
		switch {
		case rs.Label == model.SetSpeakerAwards:
			speakers, err := p.speakerAwards(total)
			if err != nil {
				return nil, err
			}
			out = append(out, speakers...)
			continue
		case rs.Label == model.SetDistrictQualifiers:
			dq, err := p.districtQualifiers()
			if err != nil {
				return nil, err
			}
			out = append(out, dq...)
			continue
		case ignored(rs.Label):
			continue
		}

		for j := range rs.Results {
			if rs.Results[j].IsPlaceholder() {
				total--
			}
		}
		for j := range rs.Results {
			row := &rs.Results[j]
			switch {
			case !row.HasEntry():
				p.skip(SkipNoEntry, "")
				continue
			case row.IsPlaceholder():
				p.skip(SkipPlaceholder, row.Entry.String())
				continue
			}
			if r, ok := p.debateRow(rs.Label, row, total); ok {
				out = append(out, r)
			}
		}
	}
	if !p.ev.HasLabel(model.SetDistrictQualifiers) && hasDistrictQualifiers(p.ev, p.d.scraped) {
		dq, err := p.districtQualifiers()
		if err != nil {
			return nil, err
		}
		out = append(out, dq...)
	}
	return out, nil
}

func (p *parse) debateRow(label string, row *model.ResultRow, total int) (model.Result, bool) {
	r := p.result(label)

	var reached model.Scalar
	if label == model.SetAllRounds {
		rounds := allRounds(row.Values)
		r.ResultsByRound = strings.Join(rounds, ", ")
		reached = model.Int(len(rounds))
	} else {
		for _, v := range row.Values {
			if !v.HasPriority {
				continue
			}
			if v.Priority == hiddenPriority || (label == model.SetTOCBids && v.Priority == tocBidPriority) {
				r.ResultsByRound = v.Value.String()
			}
		}
		reached = row.Place
		if reached.IsZero() {
			reached = model.Text(model.NotApplicable)
		}
	}

	name, nameOK := p.d.ids.Name(row.Entry)
	code, codeOK := p.d.ids.Code(row.Entry)
	if !nameOK || !codeOK {
		p.skip(SkipUnresolved, row.Entry.String())
		return model.Result{}, false
	}
	r.EntryName, r.EntryCode = name, code

	rank := row.Rank
	if rank.IsZero() {
		rank = model.Text(model.ToBeDecided)
	}
	r.Rank = ranking.RankStringOf(rank.String(), total)
	r.Place = rank
	r.TotalEntries = total
	r.RoundReached = reached

	r.SchoolName = row.School
	if r.SchoolName == "" {
		r.SchoolName = p.school(name)
	}

	if pct, ok := row.Percentile.Number(); ok {
		r.Percentile = pct
	} else if n, ok := rank.Number(); ok && total > 0 {
		r.Percentile = ranking.Percentile(n, total)
	}
	return r, true
}

// allRounds lists the published round values of an "All Rounds" row,
// marking a gap before a later round with a bye.
func allRounds(values []model.ResultValue) []string {
	var out []string
	gap := false
	for _, v := range values {
		if !present(v.Value) {
			gap = true
			continue
		}
		if gap {
			out = append(out, byeRound)
			gap = false
		}
		out = append(out, v.Value.String())
	}
	return out
}

func present(s model.Scalar) bool {
	if s.IsNumber() {
		n, _ := s.Number()
		return n != 0
	}
	return s.String() != ""
}

type record struct {
	name, code, school string
	rounds             []string
	wins               int
}

func (p *parse) debateRoundsOnly() []model.Result {
	roundCount := len(p.ev.Rounds)
	byName := map[string]*record{}
	var order []*record

	for ri := range p.ev.Rounds {
		round := &p.ev.Rounds[ri]
		if len(round.Sections) == 0 {
			p.d.log.Debug(p.ctx, "round has no sections",
				logger.String("event", p.ev.Name), logger.String("round", round.DisplayLabel()))
			continue
		}
		for si := range round.Sections {
			for bi := range round.Sections[si].Ballots {
				b := &round.Sections[si].Ballots[bi]
				win := 0
				if v, ok := b.Score(model.TagWinLoss); ok {
					if v.Truthy() {
						win = 1
					}
				} else if b.IsBye() {
					win = 1
				}
				points := ""
				if v, ok := b.Score(model.TagPoints); ok {
					points = v.String()
				}

				name, code, ok := p.d.ids.Entry(b)
				if !ok {
					p.skip(SkipUnresolved, b.Entry.String())
					continue
				}
				rec, seen := byName[name]
				if !seen {
					rec = &record{name: name, code: code, school: p.school(name)}
					byName[name] = rec
					order = append(order, rec)
				}
				mark := "L"
				if win == 1 {
					mark = "W"
				}
				rec.rounds = append(rec.rounds,
					strings.TrimSpace("Round "+round.Name.String()+": "+mark+" "+points))
				rec.wins += win
			}
		}
	}
	if len(order) == 0 {
		p.d.log.Warn(p.ctx, "no ballots found in rounds-only event", logger.String("event", p.ev.Name))
		return nil
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].wins > order[j].wins })
	records := make([]string, len(order))
	for i, rec := range order {
		records[i] = strconv.Itoa(rec.wins) + "W" + strconv.Itoa(roundCount-rec.wins) + "L"
	}
	ranks := ranking.RecordRanks(records)

	n := len(order)
	out := make([]model.Result, 0, n)
	for i, rec := range order {
		r := p.result(setFinalRecord)
		r.EntryName, r.EntryCode, r.SchoolName = rec.name, rec.code, rec.school
		r.Rank = ranking.RankString(ranks[i], n)
		r.TotalEntries = n
		r.RoundReached = model.Text(model.NotApplicable)
		r.Percentile = ranking.InclusivePercentile(ranks[i], n)
		r.Place = model.Text(records[i])
		r.ResultsByRound = strings.Join(rec.rounds, ", ")
		out = append(out, r)
	}
	return out
}

// scrapedEvent returns the single scraped event matching the parsed one.
// No match is reported as a skip; several matches are ambiguous.
func (p *parse) scrapedEvent() (*model.ScrapedEvent, error) {
	matches := p.d.scraped.Matching(p.ev.Name)
	switch len(matches) {
	case 0:
		p.skip(SkipNoScrape, "")
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, eris.Wrapf(ErrAmbiguousScrape, "event %q matched %d scraped events", p.ev.Name, len(matches))
	}
}

// speakerAwards reads the scraped speaker table of the event.
func (p *parse) speakerAwards(eventTotal int) ([]model.Result, error) {
	se, err := p.scrapedEvent()
	if se == nil {
		return nil, err
	}
	var out []model.Result
	for _, set := range se.Sets(model.SetSpeakerAwards) {
		total := max(eventTotal, len(set.Results))
		for i := range set.Results {
			row := &set.Results[i]
			name, _ := row.Get("name")
			if strings.TrimSpace(name) == "" {
				p.skip(SkipUnresolved, "")
				continue
			}
			school, ok := row.Get("school")
			if !ok {
				p.skip(SkipNoSchool, name)
				continue
			}
			raw, _ := row.Get("place")
			raw = strings.TrimSpace(strings.ReplaceAll(raw, "-T", ""))
			place, err := strconv.Atoi(raw)
			if err != nil {
				p.skip(SkipBadPlace, name)
				continue
			}
			code, ok := row.Get("code")
			if !ok {
				code = model.NotApplicable
			}
			r := p.result(model.SetSpeakerAwards)
			r.EntryName, r.EntryCode, r.SchoolName = name, code, school
			r.Rank = ranking.RankString(place, total)
			r.TotalEntries = total
			r.RoundReached = model.Text(model.NotApplicable)
			r.Percentile = ranking.TruncatedPercentile(place, total)
			r.Place = model.Int(place)
			r.ResultsByRound = row.RoundByRound.Raw
			r.Rounds = row.RoundByRound.Rounds
			out = append(out, r)
		}
	}
	return out, nil
}

// districtQualifiers reads the first District Qualifiers table of the
// matching scraped event.
func (p *parse) districtQualifiers() ([]model.Result, error) {
	se, err := p.scrapedEvent()
	if se == nil {
		return nil, err
	}
	sets := se.Sets(model.SetDistrictQualifiers)
	if len(sets) == 0 || len(sets[0].Results) == 0 {
		p.skip(SkipNoScrape, "")
		return nil, nil
	}
	set := sets[0]

	total := len(set.Results)
	out := make([]model.Result, 0, total)
	for i := range set.Results {
		row := &set.Results[i]
		name, _ := row.Get("name")
		if strings.TrimSpace(name) == "" {
			p.skip(SkipUnresolved, "")
			continue
		}
		raw, _ := row.Get("place")
		place, err := strconv.Atoi(digitsOnly(raw))
		if err != nil {
			p.skip(SkipBadPlace, name)
			continue
		}
		label := model.SetDistrictQualifiers
		if place >= qualifyingPlace {
			label = setDistrictAlt
		}
		school, _ := row.Get("school")
		r := p.result(label)
		r.EntryName, r.EntryCode, r.SchoolName = name, name, school
		r.Rank = ranking.RankString(place, total)
		r.TotalEntries = total
		r.RoundReached = model.Text(model.NotApplicable)
		r.Percentile = ranking.InclusivePercentile(place, total)
		r.Place = model.Text(model.NotApplicable)
		out = append(out, r)
	}
	return out, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
