package scrape_test

import (
	"strings"
	"testing"

	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/scrape"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const finalPlacesPage = `<html><body>
<table id="245220-1">
  <thead><tr><th>Place</th><th>Code</th><th>Name</th><th>Institution</th><th class="hiddencsv">csv</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>WB LW</td><td>Lucy  Wu</td><td>Whitefish Bay HS</td><td class="hiddencsv">R1L28.0,27.0|(55.0)R2W30.0,30.0|(60.0)</td></tr>
    <tr class="yellowrow rotation odd"><td>Place</td><td>Code</td><td>Name</td><td>Institution</td></tr>
  </tbody>
</table>
<table id="245220-2">
  <thead><tr><th>Place</th><th>Code</th><th>Name</th><th>Institution</th><th></th></tr></thead>
  <tbody>
    <tr><td>3</td><td>WB NM</td><td>Noah Mintie</td><td>West Bend East</td><td>extra</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseFinalPlaces(t *testing.T) {
	tbl, err := scrape.ParseFinalPlaces(strings.NewReader(finalPlacesPage), "245220")
	require.NoError(t, err)

	assert.Equal(t, model.SetFinalPlaces, tbl.Set.Type)
	require.Len(t, tbl.Set.Results, 2)

	first := tbl.Set.Results[0]
	assert.Equal(t, map[string]string{"Place": "1", "Code": "WB LW", "Name": "Lucy Wu", "Institution": "Whitefish Bay HS"}, first.Fields)
	assert.Equal(t, "R1L28.0,27.0|(55.0)R2W30.0,30.0|(60.0)", first.RoundByRound.Raw)
	assert.Len(t, first.RoundByRound.Rounds, 2)

	second := tbl.Set.Results[1]
	assert.NotContains(t, second.Fields, "")
	assert.True(t, second.RoundByRound.IsZero())

	assert.Equal(t, map[string]string{"WB LW": "Lucy Wu", "WB NM": "Noah Mintie"}, tbl.CodeToName)
	assert.Equal(t, "West Bend East", tbl.NameToSchool["Noah Mintie"])
}

func TestParseFinalPlacesSingleTable(t *testing.T) {
	page := `<table id="99"><thead><tr><th>Place</th><th>Entry</th><th>School</th></tr></thead>
<tbody><tr><td>1</td><td>Ada Park</td><td>Madison West</td></tr></tbody></table>`

	tbl, err := scrape.ParseFinalPlaces(strings.NewReader(page), "99")
	require.NoError(t, err)
	require.Len(t, tbl.Set.Results, 1)
	assert.Equal(t, "Ada Park", tbl.Set.Results[0].Fields["Entry"])
	assert.Empty(t, tbl.CodeToName)
	assert.Equal(t, map[string]string{"Ada Park": "Madison West"}, tbl.NameToSchool)
}

func TestParseFinalPlacesMissing(t *testing.T) {
	_, err := scrape.ParseFinalPlaces(strings.NewReader(`<p>No results published</p>`), "1")
	assert.True(t, eris.Is(err, scrape.ErrNoTable))
}

const speakerPage = `<table class="tablesorter">
<thead><tr><th>Place</th><th>First</th><th>Last</th><th>Entry</th><th>School</th><th>State</th><th>Pts</th><th>-1HL</th></tr></thead>
<tbody>
  <tr><td>1</td><td>Lucy</td><td>Wu</td><td>WB LW</td><td>Whitefish Bay</td><td>WI</td><td>171.5</td><td>143.0</td><td class="hiddencsv">28.5 28.6</td></tr>
  <tr><td>2 </td><td>Noah</td><td>Mintie</td><td>WB NM</td><td>West Bend</td><td>WI</td><td>170</td><td>142</td></tr>
</tbody></table>`

func TestParseSpeakerAwards(t *testing.T) {
	tbl, err := scrape.ParseSpeakerAwards(strings.NewReader(speakerPage))
	require.NoError(t, err)

	assert.Equal(t, model.SetSpeakerAwards, tbl.Set.Type)
	require.Len(t, tbl.Set.Results, 2)

	lucy := tbl.Set.Results[0]
	assert.Equal(t, map[string]string{
		"place": "1", "name": "Lucy Wu", "code": "WB LW", "school": "Whitefish Bay", "state": "WI",
	}, lucy.Fields)
	assert.Equal(t, map[string]string{"Pts": "171.5", "-1HL": "143.0"}, lucy.Tiebreakers)
	assert.Equal(t, "28.5 28.6", lucy.RoundByRound.Raw)

	assert.Equal(t, "2", tbl.Set.Results[1].Fields["place"])
	assert.Equal(t, "West Bend", tbl.NameToSchool["Noah Mintie"])
}

func TestParseSpeakerAwardsMissing(t *testing.T) {
	_, err := scrape.ParseSpeakerAwards(strings.NewReader(`<table><tr><td>x</td></tr></table>`))
	assert.True(t, eris.Is(err, scrape.ErrNoTable))
}

func TestParseDistrictQualifiers(t *testing.T) {
	page := `<table><tbody>
<tr><td>1</td><td>Ada Park</td><td>Madison West</td></tr>
<tr><td>short</td></tr>
<tr><td>2</td><td>Ben Ortiz</td><td>Verona</td></tr>
</tbody></table>`

	tbl, err := scrape.ParseDistrictQualifiers(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, tbl.Set.Results, 2)
	assert.Equal(t, map[string]string{"place": "2", "name": "Ben Ortiz", "code": "Ben Ortiz", "school": "Verona"}, tbl.Set.Results[1].Fields)
	assert.Equal(t, "Madison West", tbl.NameToSchool["Ada Park"])
}

func TestBuildEvent(t *testing.T) {
	fp, err := scrape.ParseFinalPlaces(strings.NewReader(finalPlacesPage), "245220")
	require.NoError(t, err)
	sp, err := scrape.ParseSpeakerAwards(strings.NewReader(speakerPage))
	require.NoError(t, err)

	ev := scrape.BuildEvent("Varsity LD", fp, sp)

	assert.Equal(t, "Varsity LD", ev.EventName)
	require.Len(t, ev.ResultList, 2)
	assert.Len(t, ev.Sets(model.SetFinalPlaces), 1)
	assert.Len(t, ev.Sets(model.SetSpeakerAwards), 1)
	assert.Equal(t, "Lucy Wu", ev.CodeToName["WB LW"])
	// later tables win
	assert.Equal(t, "Whitefish Bay", ev.NameToSchool["Lucy Wu"])
}
