package dispatch

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/identity"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/ranking"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
)

// stageRanks records per-stage judge ranks in advancement order.
type stageRanks struct {
	stages []string
	ranks  map[string][]string
}

func (s *stageRanks) set(stage string, ranks []string) {
	if _, ok := s.ranks[stage]; !ok {
		s.stages = append(s.stages, stage)
	}
	s.ranks[stage] = ranks
}

func (s *stageRanks) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, stage := range s.stages {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, stage)
		buf = append(buf, ':')
		list, err := json.Marshal(s.ranks[stage])
		if err != nil {
			return nil, err
		}
		buf = append(buf, list...)
	}
	return append(buf, '}'), nil
}

// nationalCongress builds one record per entry, refreshed by every stage
// the entry reaches. Chamber places are spread across the field by the
// number of chambers in the stage.
func (p *parse) nationalCongress() []model.Result {
	total := 0
	byEntry := map[model.ID]*model.Result{}
	history := map[model.ID]*stageRanks{}
	var order []model.ID

	for _, stage := range congressRounds {
		rs := chamberSet(p.ev, stage)
		if rs == nil {
			continue
		}
		total = max(total, len(rs.Results))
		chambers := 0
		for i := range rs.Results {
			if n, ok := rs.Results[i].Rank.Int(); ok && n == 1 {
				chambers++
			}
		}

		for i := range rs.Results {
			row := &rs.Results[i]
			name, ok := p.d.ids.Name(row.Entry)
			if !ok {
				p.skip(SkipUnresolved, row.Entry.String())
				continue
			}
			name = identity.CleanName(name)
			chamberPlace, ok := row.Place.Int()
			if !ok {
				p.skip(SkipBadPlace, row.Entry.String())
				continue
			}
			place := (chamberPlace-1)*chambers + 1

			h, seen := history[row.Entry]
			if !seen {
				h = &stageRanks{ranks: map[string][]string{}}
				history[row.Entry] = h
				order = append(order, row.Entry)
			}
			h.set(stage, p.chamberRanks(row))
			encoded, err := json.Marshal(h)
			if err != nil {
				p.skip(SkipNoRounds, row.Entry.String())
				continue
			}

			code, ok := p.d.ids.Code(row.Entry)
			if !ok {
				code = row.Entry.String()
			}
			r := p.result(model.SetFinalPlaces)
			r.EntryName, r.EntryCode, r.SchoolName = name, code, p.school(name)
			r.Rank = ranking.RankString(place, total)
			r.TotalEntries = total
			r.RoundReached = model.Text(stage)
			r.Percentile = ranking.TruncatedPercentile(place, total)
			r.Place = model.Int(place)
			r.ResultsByRound = string(encoded)
			byEntry[row.Entry] = &r
		}
	}

	out := make([]model.Result, 0, len(order))
	for _, id := range order {
		if r, ok := byEntry[id]; ok {
			out = append(out, *r)
		}
	}
	return out
}

// sessionPayload is the hidden priority-999 value of a chamber row:
// {round_id: {"results": {session_id: {"rank": n}}}}.
type sessionPayload map[string]struct {
	Results map[string]struct {
		Rank *model.Scalar `json:"rank"`
	} `json:"results"`
}

// chamberRanks pulls the judge ranks out of a chamber row. Round and
// session ids are visited in ascending order.
func (p *parse) chamberRanks(row *model.ResultRow) []string {
	ranks := []string{}
	v, ok := row.ValueAt(hiddenPriority)
	if !ok || v.Value.IsZero() {
		return ranks
	}
	var payload sessionPayload
	if err := json.Unmarshal([]byte(v.Value.String()), &payload); err != nil {
		p.d.log.Warn(p.ctx, "unreadable chamber payload",
			logger.String("event", p.ev.Name),
			logger.String("entry", row.Entry.String()),
			logger.Error(err))
		return ranks
	}
	for _, roundID := range sortedKeys(payload) {
		sessions := payload[roundID].Results
		for _, sid := range sortedKeys(sessions) {
			if r := sessions[sid].Rank; r != nil && !r.IsZero() {
				ranks = append(ranks, r.String())
			}
		}
	}
	return ranks
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}
