package dispatch

import (
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/ranking"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/roundstring"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
)

// scrapedFinalPlaces reads the scraped Final Places table when the feed's
// own copy is anonymized.
func (p *parse) scrapedFinalPlaces() ([]model.Result, error) {
	matches := p.d.scraped.Matching(p.ev.Name)
	if len(matches) != 1 {
		return nil, eris.Wrapf(ErrAmbiguousScrape, "event %q matched %d scraped events", p.ev.Name, len(matches))
	}

	var out []model.Result
	for _, set := range matches[0].Sets(model.SetFinalPlaces) {
		n := len(set.Results)
		for i := range set.Results {
			row := &set.Results[i]
			place := i + 1
			name, ok := row.Get("Entry", "Name", "name")
			if !ok {
				name = "Name Not Found"
			}
			school, ok := row.Get("School", "Institution", "school")
			if !ok {
				school = model.UnknownSchool
			}
			code, _ := row.Get("code", "Code")
			rounds := p.scrapedRounds(row, name)

			r := p.result(model.SetFinalPlaces)
			r.EntryName, r.EntryCode, r.SchoolName = name, code, school
			r.Rank = ranking.RankString(place, n)
			r.TotalEntries = n
			r.RoundReached = model.Int(len(rounds))
			r.Percentile = ranking.Percentile(float64(place), n)
			r.Place = model.Text(strconv.Itoa(place))
			r.ResultsByRound = roundstring.Summary(rounds)
			if rounds == nil {
				r.ResultsByRound = row.RoundByRound.Raw
			}
			r.Rounds = rounds
			out = append(out, r)
		}
	}
	return out, nil
}

// scrapedRounds prefers already decoded rounds and decodes the raw hidden
// string otherwise. An undecodable string yields no rounds; the raw text is
// kept on the result for the engine to judge.
func (p *parse) scrapedRounds(row *model.ScrapedRow, name string) []model.RoundResult {
	if row.RoundByRound.Rounds != nil {
		return row.RoundByRound.Rounds
	}
	if row.RoundByRound.Raw == "" {
		return nil
	}
	rounds, err := roundstring.Decode(row.RoundByRound.Raw)
	if err != nil {
		p.d.log.Debug(p.ctx, "undecodable round string",
			logger.String("event", p.ev.Name),
			logger.String("entry", name),
			logger.Error(err))
		return nil
	}
	return rounds
}
