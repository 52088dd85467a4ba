package main

import (
	"errors"
	"io"
	"os"

	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/scrape"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

type scrapeOptions struct {
	event         string
	finalPlaces   string
	resultID      string
	speakerAwards string
	district      string
	output        string
}

var scrapeOpts scrapeOptions

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Parse saved result pages into scraped.json",
	Long: "Parses already downloaded Tabroom result pages for one event. " +
		"An existing output file is updated in place; an event with the same name is replaced.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := runScrape(scrapeOpts)
		if err != nil {
			return err
		}
		if scrapeOpts.output == "" || scrapeOpts.output == "-" {
			return encodeScraped(cmd.OutOrStdout(), data)
		}
		return writeJSON(scrapeOpts.output, data)
	},
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeOpts.event, "event", "", "event name as it appears in the feed")
	f.StringVar(&scrapeOpts.finalPlaces, "final-places", "", "saved final places page")
	f.StringVar(&scrapeOpts.resultID, "result-id", "", "result table id on the final places page")
	f.StringVar(&scrapeOpts.speakerAwards, "speaker-awards", "", "saved speaker awards page")
	f.StringVar(&scrapeOpts.district, "district", "", "saved district qualifiers page")
	f.StringVarP(&scrapeOpts.output, "output", "o", "scraped.json", "output file, - for stdout")
	_ = scrapeCmd.MarkFlagRequired("event")
	rootCmd.AddCommand(scrapeCmd)
}

// runScrape parses the given pages and merges the event into the existing
// output file, if any.
func runScrape(o scrapeOptions) (model.ScrapedData, error) {
	var data model.ScrapedData
	if o.event == "" {
		return data, eris.New("--event is required")
	}
	if o.finalPlaces != "" && o.resultID == "" {
		return data, eris.New("--final-places needs --result-id")
	}

	var tables []scrape.Table
	parsers := []struct {
		path  string
		parse func(io.Reader) (scrape.Table, error)
	}{
		{o.finalPlaces, func(r io.Reader) (scrape.Table, error) { return scrape.ParseFinalPlaces(r, o.resultID) }},
		{o.speakerAwards, scrape.ParseSpeakerAwards},
		{o.district, scrape.ParseDistrictQualifiers},
	}
	for _, p := range parsers {
		if p.path == "" {
			continue
		}
		t, err := parseFile(p.path, p.parse)
		if err != nil {
			return data, err
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return data, eris.New("no pages given")
	}

	if o.output != "" && o.output != "-" {
		if err := readJSON(o.output, &data); err != nil && !errors.Is(err, os.ErrNotExist) {
			return data, err
		}
	}
	ev := scrape.BuildEvent(o.event, tables...)
	replaced := false
	for i := range data.Events {
		if data.Events[i].EventName == o.event {
			data.Events[i] = ev
			replaced = true
		}
	}
	if !replaced {
		data.Events = append(data.Events, ev)
	}
	return data, nil
}

func parseFile(path string, parse func(io.Reader) (scrape.Table, error)) (scrape.Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return scrape.Table{}, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	t, err := parse(f)
	if err != nil {
		return scrape.Table{}, eris.Wrapf(err, "parse %s", path)
	}
	return t, nil
}

func encodeScraped(w io.Writer, data model.ScrapedData) error {
	b, err := data.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "encode scraped data")
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
