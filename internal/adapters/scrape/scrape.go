// Package scrape turns already-fetched result pages into scraped result sets.
// It never navigates; callers hand it the page body.
package scrape

import (
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/roundstring"
	"github.com/rotisserie/eris"
)

// Table is one parsed result table and the lookups it yields.
type Table struct {
	Set          model.ScrapedResultSet
	CodeToName   map[string]string
	NameToSchool map[string]string
}

// Header aliases. The first matching column wins.
var (
	nameHeaders   = []string{"Name", "Entry"}
	codeHeaders   = []string{"Code"}
	schoolHeaders = []string{"Institution", "School"}

	speakerKeys = map[string]string{
		"Place":       "place",
		"First":       "first_name",
		"Last":        "last_name",
		"Entry":       "code",
		"Code":        "code",
		"Institution": "school",
		"School":      "school",
		"State":       "state",
	}
)

const hidden = ".hiddencsv"

func load(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "parse html")
	}
	return doc, nil
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func headers(table *goquery.Selection) []string {
	ths := table.Find("thead th").Not(hidden)
	if ths.Length() == 0 {
		ths = table.Find("th").Not(hidden)
	}
	out := make([]string, 0, ths.Length())
	ths.Each(func(_ int, th *goquery.Selection) {
		out = append(out, text(th))
	})
	return out
}

func cells(row *goquery.Selection) []string {
	tds := row.Find("td").Not(hidden)
	out := make([]string, 0, tds.Length())
	tds.Each(func(_ int, td *goquery.Selection) {
		out = append(out, text(td))
	})
	return out
}

func hiddenString(row *goquery.Selection) (string, bool) {
	td := row.Find("td" + hidden).First()
	if td.Length() == 0 {
		return "", false
	}
	h, err := td.Html()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(h), true
}

// headerRow reports the repeated yellow header rows inside tbody.
func headerRow(row *goquery.Selection) bool {
	return row.HasClass("yellowrow")
}

func indexOf(hs []string, names []string) int {
	idx := -1
	for i, h := range hs {
		for _, n := range names {
			if h == n {
				idx = i
			}
		}
	}
	return idx
}

func at(vals []string, i int) (string, bool) {
	if i < 0 || i >= len(vals) {
		return "", false
	}
	return vals[i], true
}

func byID(doc *goquery.Document, id string) *goquery.Selection {
	return doc.Find(`[id="` + id + `"]`).First()
}

// ParseFinalPlaces walks the tables <resultID>-1, <resultID>-2, ... and
// falls back to a single table with id resultID. Every named column is kept
// under its header; the hidden round-string is decoded into the row.
func ParseFinalPlaces(r io.Reader, resultID string) (Table, error) {
	doc, err := load(r)
	if err != nil {
		return Table{}, err
	}

	var tables []*goquery.Selection
	for n := 1; ; n++ {
		t := byID(doc, resultID+"-"+strconv.Itoa(n))
		if t.Length() == 0 {
			break
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		if t := byID(doc, resultID); t.Length() > 0 {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return Table{}, eris.Wrapf(ErrNoTable, "final places %s", resultID)
	}

	out := Table{
		Set:          model.ScrapedResultSet{Type: model.SetFinalPlaces, Results: []model.ScrapedRow{}},
		CodeToName:   map[string]string{},
		NameToSchool: map[string]string{},
	}
	for _, table := range tables {
		hs := headers(table)
		nameIdx, codeIdx, schoolIdx := indexOf(hs, nameHeaders), indexOf(hs, codeHeaders), indexOf(hs, schoolHeaders)

		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			if headerRow(tr) {
				return
			}
			vals := cells(tr)
			row := model.ScrapedRow{Fields: map[string]string{}}
			for i, h := range hs {
				if v, ok := at(vals, i); ok && h != "" {
					row.Fields[h] = v
				}
			}
			if raw, ok := hiddenString(tr); ok && raw != "" {
				row.RoundByRound.Raw = raw
				if rounds, err := roundstring.Decode(raw); err == nil {
					row.RoundByRound.Rounds = rounds
				}
			}
			out.Set.Results = append(out.Set.Results, row)

			name, ok := at(vals, nameIdx)
			if !ok {
				return
			}
			if code, ok := at(vals, codeIdx); ok {
				out.CodeToName[code] = name
			}
			if school, ok := at(vals, schoolIdx); ok {
				out.NameToSchool[name] = school
			}
		})
	}
	return out, nil
}

// ParseSpeakerAwards reads the tablesorter table of a speaker awards page.
// Known columns get lowercase keys, every other named column lands in the
// row's tiebreakers, and First and Last are merged into name.
func ParseSpeakerAwards(r io.Reader) (Table, error) {
	doc, err := load(r)
	if err != nil {
		return Table{}, err
	}
	table := doc.Find("table.tablesorter").First()
	if table.Length() == 0 {
		return Table{}, eris.Wrap(ErrNoTable, "speaker awards")
	}

	hs := headers(table)
	out := Table{
		Set:          model.ScrapedResultSet{Type: model.SetSpeakerAwards, Results: []model.ScrapedRow{}},
		NameToSchool: map[string]string{},
	}
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if headerRow(tr) {
			return
		}
		vals := cells(tr)
		row := model.ScrapedRow{Fields: map[string]string{}, Tiebreakers: map[string]string{}}
		for i, h := range hs {
			v, ok := at(vals, i)
			if !ok || h == "" {
				continue
			}
			if key, known := speakerKeys[h]; known {
				row.Fields[key] = v
			} else {
				row.Tiebreakers[h] = v
			}
		}
		if raw, ok := hiddenString(tr); ok {
			row.RoundByRound.Raw = raw
		}

		first, last := row.Fields["first_name"], row.Fields["last_name"]
		delete(row.Fields, "first_name")
		delete(row.Fields, "last_name")
		if name := strings.TrimSpace(first + " " + last); name != "" {
			row.Fields["name"] = name
			if school, ok := row.Fields["school"]; ok {
				out.NameToSchool[name] = school
			}
		}
		out.Set.Results = append(out.Set.Results, row)
	})
	return out, nil
}

// ParseDistrictQualifiers reads place, name and school from the first tbody.
// District tables carry no code, so the name doubles as one.
func ParseDistrictQualifiers(r io.Reader) (Table, error) {
	doc, err := load(r)
	if err != nil {
		return Table{}, err
	}
	body := doc.Find("tbody").First()
	if body.Length() == 0 {
		return Table{}, eris.Wrap(ErrNoTable, "district qualifiers")
	}

	out := Table{
		Set:          model.ScrapedResultSet{Type: model.SetDistrictQualifiers, Results: []model.ScrapedRow{}},
		NameToSchool: map[string]string{},
	}
	body.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		vals := cells(tr)
		if len(vals) < 3 {
			return
		}
		out.Set.Results = append(out.Set.Results, model.NewScrapedRow(map[string]string{
			"place":  vals[0],
			"name":   vals[1],
			"code":   vals[1],
			"school": vals[2],
		}))
		out.NameToSchool[vals[1]] = vals[2]
	})
	return out, nil
}

// BuildEvent assembles the scraped record of one event from its tables.
func BuildEvent(name string, tables ...Table) model.ScrapedEvent {
	ev := model.ScrapedEvent{
		EventName:    name,
		CodeToName:   map[string]string{},
		NameToSchool: map[string]string{},
		ResultList:   []model.ScrapedResultSet{},
	}
	for _, t := range tables {
		for k, v := range t.CodeToName {
			ev.CodeToName[k] = v
		}
		for k, v := range t.NameToSchool {
			ev.NameToSchool[k] = v
		}
		ev.ResultList = append(ev.ResultList, t.Set)
	}
	return ev
}
