package dispatch_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/dispatch"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

type placed struct {
	place int
	pct   float64
}

// placements groups results by result set, keeping rows whose rank string
// starts with a numeric place.
func placements(results []model.Result) map[string][]placed {
	out := map[string][]placed{}
	for _, r := range results {
		head, _, ok := strings.Cut(r.Rank, "/")
		if !ok {
			continue
		}
		place, err := strconv.Atoi(head)
		if err != nil {
			continue
		}
		out[r.ResultSet] = append(out[r.ResultSet], placed{place: place, pct: r.Percentile})
	}
	for _, rows := range out {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].place < rows[j].place })
	}
	return out
}

func TestPercentileOrdering(t *testing.T) {
	fixtures := []struct {
		style   dispatch.Style
		event   string
		scraped string
	}{
		{dispatch.StyleDebateRoundsOnly, `{"name": "PF", "type": "debate", "rounds": [{"name": 1, "type": "prelim", "sections": [
			{"letter": "A", "ballots": [
				{"entry": 1, "entry_name": "A", "entry_code": "A", "scores": [{"tag": "winloss", "value": 1}]},
				{"entry": 2, "entry_name": "B", "entry_code": "B", "scores": [{"tag": "winloss", "value": 0}]}]},
			{"letter": "B", "ballots": [
				{"entry": 3, "entry_name": "C", "entry_code": "C", "scores": [{"tag": "winloss", "value": 1}]},
				{"entry": 4, "entry_name": "D", "entry_code": "D", "scores": [{"tag": "winloss", "value": 0}]}]}
		]}]}`, `[]`},
		{dispatch.StyleDebateResultSets, `{"name": "LD", "type": "debate", ` + debateIdentity + `, "result_sets": [
			{"label": "Final Places", "results": [
				{"entry": 101, "rank": 1, "values": [{"priority": 1, "value": "1st"}]},
				{"entry": 102, "rank": 2, "values": [{"priority": 1, "value": "2nd"}]}
			]},
			{"label": "Speaker Awards", "results": [{"entry": 101, "values": [{"priority": 1, "value": "x"}]}]},
			{"label": "TOC Qualifying Bids", "results": [{"entry": 101, "values": [{"priority": 1, "value": "Gold"}]}]}
		]}`, `[{"event_name": "LD", "result_list": [{"result_set_type": "Speaker Awards", "results": [
			{"place": "1", "name": "Lucy Wu", "school": "Whitefish Bay"},
			{"place": "2-T", "name": "Joel Cho", "school": "Madison West"},
			{"place": "2-T", "name": "Ivy Park", "school": "Madison West"},
			{"place": "4", "name": "Sam Roy", "school": "Lincoln"}
		]}]}]`},
		{dispatch.StyleNationalCongress, `{"name": "House", "type": "congress",
			"rounds": [{"name": 1, "type": "prelim", "sections": [{"ballots": [
				{"entry": 401, "entry_name": "Rep One", "entry_code": "C1"},
				{"entry": 402, "entry_name": "Rep Two", "entry_code": "C2"},
				{"entry": 403, "entry_name": "Rep Three", "entry_code": "C3"},
				{"entry": 404, "entry_name": "Rep Four", "entry_code": "C4"}
			]}]}],
			"result_sets": [
				{"label": "Prelim Chambers", "results": [
					{"entry": 401, "rank": 1, "place": 1, "values": []},
					{"entry": 402, "rank": 1, "place": 1, "values": []},
					{"entry": 403, "rank": 2, "place": 2, "values": []},
					{"entry": 404, "rank": 2, "place": 2, "values": []}
				]},
				{"label": "Final Chamber", "results": [
					{"entry": 401, "rank": 1, "place": 1, "values": []},
					{"entry": 402, "rank": 2, "place": 2, "values": []}
				]}
			]}`, `[]`},
		{dispatch.StyleCongressScrapedFinalPlaces, `{"name": "Senate", "type": "congress", "result_sets": [
			{"label": "Final Places", "results": [{"entry": 900, "values": [{"priority": 1, "value": "1"}]}]}
		]}`, `[{"event_name": "Senate", "result_list": [{"result_set_type": "Final Places", "results": [
			{"Entry": "Rep One", "School": "Harker"}, {"Entry": "Rep Two", "School": "Harker"}, {"Entry": "Rep Three", "School": "Lincoln"}
		]}]}]`},
		{dispatch.StyleSpeechNational, `{"name": "OO", "type": "speech", ` + speechIdentity + `, "result_sets": [
			{"label": "All Rounds", "results": [
				{"entry": 201, "values": [{"priority": 1, "value": "1"}]},
				{"entry": 202, "values": [{"priority": 1, "value": "2"}]},
				{"entry": 203, "values": [{"priority": 1, "value": "3"}]}
			]},
			{"label": "Prelim Seeds", "results": [
				{"entry": 201, "rank": 1, "values": [{"priority": 1, "value": "1"}]},
				{"entry": 202, "rank": 2, "values": [{"priority": 1, "value": "2"}]},
				{"entry": 203, "rank": 3, "values": [{"priority": 1, "value": "3"}]}
			]}
		]}`, `[]`},
		{dispatch.StyleSpeechFinalPlaces, `{"name": "OO", "type": "speech", ` + speechIdentity + `, "result_sets": [
			{"label": "Final Places", "results": [
				{"entry": 201, "rank": 1, "values": [{"priority": 1, "value": "1"}]},
				{"entry": 202, "rank": 2, "values": [{"priority": 1, "value": "2"}]},
				{"entry": 203, "rank": 3, "values": [{"priority": 1, "value": "3"}]}
			]}
		]}`, `[{"event_name": "OO", "result_list": [` + dqScrape + `]}]`},
		{dispatch.StyleSpeechScrapedFinalPlaces, `{"name": "DI", "type": "speech", "result_sets": [
			{"label": "Final Places", "results": [{"entry": 7, "values": [{"priority": 1, "value": "1"}]}]}
		]}`, `[{"event_name": "DI", "result_list": [{"result_set_type": "Final Places", "results": [
			{"Entry": "Ana Li", "School": "Harker"}, {"Entry": "Bo Chen", "School": "Lincoln"}, {"Entry": "Cy Diaz", "School": "Lincoln"}
		]}]}]`},
		{dispatch.StyleSpeechDistrictQualifiers, `{"name": "Duo", "type": "speech"}`,
			`[{"event_name": "Duo", "result_list": [{"result_set_type": "District Qualifiers", "results": [
				{"place": "1st", "name": "Ana & Bo", "school": "Harker"},
				{"place": "2nd", "name": "Cy & Di", "school": "Lincoln"},
				{"place": "3rd", "name": "Ed & Flo", "school": "Lincoln"},
				{"place": "4th", "name": "Gus & Hal", "school": "Harker"}
			]}]}]`},
		{dispatch.StyleSpeechRoundsOnly, `{"name": "Poetry", "type": "speech", "rounds": [
			{"name": 4, "label": "Finals", "type": "final", "sections": [{"letter": "1", "ballots": [
				{"entry": 301, "entry_name": "Ana", "entry_code": "A1", "scores": [{"tag": "rank", "value": 1}]},
				{"entry": 302, "entry_name": "Bo", "entry_code": "B2", "scores": [{"tag": "rank", "value": 2}]},
				{"entry": 303, "entry_name": "Cy", "entry_code": "C3", "scores": [{"tag": "rank", "value": 3}]}
			]}]}
		]}`, `[]`},
	}

	for _, f := range fixtures {
		Convey("Given a "+f.style.String()+" event", t, func() {
			out, err := run(decodeEvent(f.event), decodeScraped(f.scraped))
			So(err, ShouldBeNil)
			So(out.Style, ShouldEqual, f.style)
			results := ranking.Finalize(out.Results)
			So(results, ShouldNotBeEmpty)

			Convey("Then every percentile lies in [0,100]", func() {
				for _, r := range results {
					So(r.Percentile, ShouldBeBetweenOrEqual, 0.0, 100.0)
				}
			})

			Convey("Then percentiles fall as the place grows and tie only with the place", func() {
				for _, rows := range placements(results) {
					for i := 1; i < len(rows); i++ {
						prev, cur := rows[i-1], rows[i]
						if cur.place == prev.place {
							So(cur.pct, ShouldEqual, prev.pct)
							continue
						}
						So(cur.pct, ShouldBeLessThan, prev.pct)
					}
				}
			})
		})
	}
}
