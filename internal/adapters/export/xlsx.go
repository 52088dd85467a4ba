// Package export renders normalization outcomes as spreadsheets.
package export

import (
	"io"
	"sort"
	"strings"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultSheet = "Results"
	schoolsSheet = "Schools"
	colWidth     = 18
	wideColWidth = 36
)

// Options tunes the workbook.
type Options struct {
	// Sheet names the results sheet. Defaults to "Results".
	Sheet string
}

var resultColumns = []string{
	"school_name", "school_short_name", "event_name", "event_type", "result_set",
	"entry_name", "entry_code", "rank", "place", "percentile",
	"total_entries", "round_reached", "results_by_round",
}

var schoolColumns = []string{"school_name", "school_short_name", "results", "best_percentile"}

// WriteXLSX writes a workbook with a results sheet (one row per result,
// grouped by school, best percentile first) and a per-school summary.
func WriteXLSX(w io.Writer, o *model.Outcome, opts Options) error {
	if o == nil || len(o.Results) == 0 {
		return ErrEmptyOutcome
	}
	sheet := opts.Sheet
	if sheet == "" || sheet == schoolsSheet {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return eris.Wrap(err, "xlsx: rename sheet")
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return eris.Wrap(err, "xlsx: header style")
	}

	rows := sortedResults(o.Results)
	if err := writeSheet(f, sheet, resultColumns, headerStyle, len(rows), func(i int) []any {
		return resultRow(&rows[i])
	}); err != nil {
		return err
	}

	schools := summarize(rows)
	if _, err := f.NewSheet(schoolsSheet); err != nil {
		return eris.Wrap(err, "xlsx: new sheet")
	}
	if err := writeSheet(f, schoolsSheet, schoolColumns, headerStyle, len(schools), func(i int) []any {
		s := schools[i]
		return []any{s.name, s.short, s.count, s.best}
	}); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return eris.Wrap(f.Write(w), "xlsx: write")
}

func writeSheet(f *excelize.File, sheet string, cols []string, headerStyle, n int, row func(int) []any) error {
	title := cases.Title(language.English)
	headers := make([]any, len(cols))
	for i, c := range cols {
		headers[i] = title.String(strings.ReplaceAll(c, "_", " "))
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return eris.Wrapf(err, "xlsx: %s header", sheet)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return eris.Wrapf(err, "xlsx: %s header style", sheet)
	}

	for i := 0; i < n; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		vals := row(i)
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return eris.Wrapf(err, "xlsx: %s row %d", sheet, i+2)
		}
	}

	for i, c := range cols {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(colWidth)
		if c == "results_by_round" || c == "entry_name" || c == "school_name" {
			width = wideColWidth
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return eris.Wrapf(err, "xlsx: %s width", sheet)
		}
	}
	return eris.Wrapf(f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}), "xlsx: %s panes", sheet)
}

func sortedResults(in []model.Result) []model.Result {
	rows := make([]model.Result, len(in))
	copy(rows, in)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SchoolName != rows[j].SchoolName {
			return rows[i].SchoolName < rows[j].SchoolName
		}
		return rows[i].Percentile > rows[j].Percentile
	})
	return rows
}

func resultRow(r *model.Result) []any {
	return []any{
		r.SchoolName, r.SchoolShortName, r.EventName, r.EventType, r.ResultSet,
		r.EntryName, r.EntryCode, r.Rank, scalar(r.Place), r.Percentile,
		r.TotalEntries, scalar(r.RoundReached), r.ResultsByRound,
	}
}

func scalar(s model.Scalar) any {
	if f, ok := s.Number(); ok {
		return f
	}
	return s.String()
}

type schoolRow struct {
	name, short string
	count       int
	best        float64
}

// summarize expects rows grouped by school.
func summarize(rows []model.Result) []schoolRow {
	var out []schoolRow
	for i := range rows {
		r := &rows[i]
		if n := len(out); n > 0 && out[n-1].name == r.SchoolName {
			out[n-1].count++
			if r.Percentile > out[n-1].best {
				out[n-1].best = r.Percentile
			}
			continue
		}
		out = append(out, schoolRow{name: r.SchoolName, short: r.SchoolShortName, count: 1, best: r.Percentile})
	}
	return out
}
