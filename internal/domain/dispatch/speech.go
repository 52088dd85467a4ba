package dispatch

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/identity"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/ranking"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
)

const (
	finalsLabel      = "Finals"
	forfeitRank      = 999
	setPrelimResults = "Prelim Results"
	setScoring       = "Scoring"
)

func (p *parse) speechFinalPlaces() []model.Result {
	rs := p.ev.ResultSet(model.SetFinalPlaces)
	unique := map[model.ID]struct{}{}
	for i := range rs.Results {
		if rs.Results[i].HasEntry() {
			unique[rs.Results[i].Entry] = struct{}{}
		}
	}
	n := len(unique)

	var out []model.Result
	counter := 0
	for i := range rs.Results {
		row := &rs.Results[i]
		if row.LeadsEmpty() {
			p.skip(SkipPlaceholder, row.Entry.String())
			continue
		}
		counter++
		name, ok := p.d.ids.Name(row.Entry)
		if !ok || !row.HasEntry() {
			p.skip(SkipUnresolved, row.Entry.String())
			continue
		}
		name = identity.CleanName(name)

		place, ok := row.Place.Int()
		if !ok {
			place = counter
		}
		r := p.result(model.SetFinalPlaces)
		r.EntryName = name
		r.SchoolName = p.school(name)
		r.Rank = ranking.RankStringOf(row.Rank.String(), n)
		r.TotalEntries = n
		r.RoundReached = model.Int(place)
		r.Place = row.Rank
		if pct, ok := row.Percentile.Number(); ok {
			r.Percentile = pct
		} else if n > 0 {
			r.Percentile = math.Trunc(100 * (1 - float64(place-1)/float64(n)))
		}
		if v, ok := row.ValueAt(hiddenPriority); ok {
			if v.Value.IsZero() {
				r.ResultsByRound = model.NotApplicable
			} else {
				r.ResultsByRound = v.Value.String()
			}
		}
		out = append(out, r)
	}
	return out
}

// roundRanks keeps one entry's published ranks keyed by round priority.
type roundRanks struct {
	priorities []int
	values     map[int]string
}

func (rr *roundRanks) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, prio := range rr.priorities {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, strconv.Itoa(prio))
		buf = append(buf, ':')
		buf = strconv.AppendQuote(buf, rr.values[prio])
	}
	return append(buf, '}'), nil
}

func (p *parse) speechNational() []model.Result {
	byEntry := map[model.ID]*roundRanks{}
	for _, row := range p.ev.ResultSet(model.SetAllRounds).Results {
		if !row.HasEntry() {
			continue
		}
		rr := &roundRanks{values: map[int]string{}}
		for _, v := range row.Values {
			if v.Empty || v.Value.IsZero() || !v.HasPriority {
				continue
			}
			if _, dup := rr.values[v.Priority]; !dup {
				rr.priorities = append(rr.priorities, v.Priority)
			}
			rr.values[v.Priority] = v.Value.String()
		}
		sort.Ints(rr.priorities)
		byEntry[row.Entry] = rr
	}

	seeds := p.ev.ResultSet(model.SetPrelimSeeds).Results
	total := len(seeds)
	var out []model.Result
	for i := range seeds {
		row := &seeds[i]
		if !row.HasEntry() {
			p.skip(SkipNoEntry, "")
			continue
		}
		name, ok := p.d.ids.Name(row.Entry)
		if !ok {
			p.skip(SkipUnresolved, row.Entry.String())
			continue
		}
		name = identity.CleanName(name)
		rr, ok := byEntry[row.Entry]
		if !ok {
			p.skip(SkipNoRounds, row.Entry.String())
			continue
		}
		encoded, err := json.Marshal(rr)
		if err != nil {
			p.skip(SkipNoRounds, row.Entry.String())
			continue
		}
		code, ok := p.d.ids.Code(row.Entry)
		if !ok {
			code = row.Entry.String()
		}

		r := p.result(setPrelimResults)
		r.EntryName, r.EntryCode, r.SchoolName = name, code, p.school(name)
		r.Rank = ranking.RankStringOf(row.Rank.String(), total)
		r.TotalEntries = total
		r.RoundReached = model.Int(len(rr.priorities))
		r.Place = row.Rank
		if pct, ok := row.Percentile.Number(); ok {
			r.Percentile = pct
		} else if n, ok := row.Rank.Number(); ok {
			r.Percentile = ranking.Percentile(n, total)
		}
		r.ResultsByRound = string(encoded)
		out = append(out, r)
	}
	return out
}

type sectionScore struct {
	name, code string
	rankTotal  float64
}

func (p *parse) speechRoundsOnly() []model.Result {
	var out []model.Result
	for ri := range p.ev.Rounds {
		round := &p.ev.Rounds[ri]
		if round.DisplayLabel() != finalsLabel {
			continue
		}
		if len(round.Sections) == 0 {
			p.d.log.Warn(p.ctx, "finals round has no sections", logger.String("event", p.ev.Name))
			continue
		}
		for si := range round.Sections {
			out = append(out, p.scoreSection(&round.Sections[si])...)
		}
	}
	return out
}

// scoreSection ranks one final-round section by summed judge ranks. The
// percentile is relative to the section only.
func (p *parse) scoreSection(sec *model.Section) []model.Result {
	byName := map[string]*sectionScore{}
	var order []*sectionScore
	for bi := range sec.Ballots {
		b := &sec.Ballots[bi]
		rank := float64(forfeitRank)
		if v, ok := b.Score(model.TagRank); ok {
			if n, ok := v.Number(); ok {
				rank = n
			}
		} else {
			p.d.log.Warn(p.ctx, "ballot has no rank, treating as forfeit",
				logger.String("event", p.ev.Name),
				logger.String("section", sec.Letter),
				logger.Any("forfeit", b.Forfeit.Truthy()))
		}
		if rank == 0 {
			continue
		}
		name, code, ok := p.d.ids.Entry(b)
		if !ok {
			p.skip(SkipUnresolved, b.Entry.String())
			continue
		}
		s, seen := byName[name]
		if !seen {
			s = &sectionScore{name: name, code: code}
			byName[name] = s
			order = append(order, s)
		}
		s.rankTotal += rank
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].rankTotal < order[j].rankTotal })

	n := len(order)
	out := make([]model.Result, 0, n)
	for i, s := range order {
		idx := i + 1
		r := p.result(setScoring)
		r.EntryName, r.EntryCode, r.SchoolName = s.name, s.code, p.school(s.name)
		r.Rank = ranking.RankString(idx, n)
		r.TotalEntries = n
		r.RoundReached = model.Text(model.NotApplicable)
		r.Percentile = 100 * float64(n-idx+1) / float64(n)
		r.Place = model.Int(idx)
		r.ResultsByRound = model.NotApplicable
		out = append(out, r)
	}
	return out
}
