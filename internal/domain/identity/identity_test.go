package identity_test

import (
	"testing"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/identity"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func event(rounds ...model.Round) *model.Event {
	return &model.Event{Name: "LD", Type: model.TypeDebate, Rounds: rounds}
}

func round(kind string, ballots ...model.Ballot) model.Round {
	return model.Round{Type: kind, Sections: []model.Section{{Letter: "A", Ballots: ballots}}}
}

func TestObserveEvent(t *testing.T) {
	Convey("Given an event with prelim and elim rounds", t, func() {
		r := identity.New()
		r.ObserveEvent(event(
			round("prelim", model.Ballot{Entry: "1", EntryName: "Cruz & Ward", EntryCode: "Reagan WC"}),
			round(model.RoundElim, model.Ballot{Entry: "2", EntryName: "Elim Only", EntryCode: "EO"}),
			round(model.RoundFinal, model.Ballot{Entry: "3", EntryName: "Final Only", EntryCode: "FO"}),
			round("highlow", model.Ballot{Entry: "4", EntryName: "Late Add", EntryCode: "LA"}, model.Ballot{}),
		))

		Convey("Then only non-elimination rounds contribute", func() {
			name, ok := r.Name("1")
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, "Cruz & Ward")
			code, ok := r.Code("4")
			So(ok, ShouldBeTrue)
			So(code, ShouldEqual, "LA")
			_, ok = r.Name("2")
			So(ok, ShouldBeFalse)
			_, ok = r.Name("3")
			So(ok, ShouldBeFalse)
			So(r.Size(), ShouldEqual, 2)
		})

		Convey("Then a later event fills identity an earlier one lacked", func() {
			_, ok := r.Name("9")
			So(ok, ShouldBeFalse)
			r.ObserveEvent(event(round("prelim", model.Ballot{Entry: "9", EntryName: "Kenadee Donald", EntryCode: "KD"})))
			name, ok := r.Name("9")
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, "Kenadee Donald")
		})
	})
}

func TestEntryFallback(t *testing.T) {
	Convey("Given a resolver that knows one entry", t, func() {
		r := identity.New()
		r.ObserveEvent(event(round("prelim", model.Ballot{Entry: "1", EntryName: "Known", EntryCode: "K1"})))

		Convey("When the map has the entry", func() {
			name, code, ok := r.Entry(&model.Ballot{Entry: "1", EntryName: "Inline", EntryCode: "I1"})
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, "Known")
			So(code, ShouldEqual, "K1")
		})

		Convey("When only the ballot carries identity", func() {
			name, code, ok := r.Entry(&model.Ballot{Entry: "bye", EntryName: "Late Add", EntryCode: "LA"})
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, "Late Add")
			So(code, ShouldEqual, "LA")
		})

		Convey("When neither path resolves", func() {
			_, _, ok := r.Entry(&model.Ballot{Entry: "77"})
			So(ok, ShouldBeFalse)
		})
	})
}

func TestScrapedMaps(t *testing.T) {
	Convey("Given scraped lookup maps", t, func() {
		r := identity.New()
		r.ObserveData(&model.ScrapedData{
			NameToSchool: map[string]string{"Lucy Wu": "Whitefish Bay"},
			Events: []model.ScrapedEvent{{
				EventName:      "LD",
				CodeToName:     map[string]string{"WB LW": "Lucy Wu"},
				NameToFullName: map[string]string{"Wu": "Lucy Wu"},
				NameToSchool:   map[string]string{"Noah Mintie": "West Bend"},
			}},
		})
		r.ObserveData(nil)

		So(must(r.School("Lucy Wu")), ShouldEqual, "Whitefish Bay")
		So(must(r.School("Noah  Mintie ")), ShouldEqual, "West Bend")
		So(must(r.NameForCode("WB LW")), ShouldEqual, "Lucy Wu")
		So(must(r.FullName("Wu")), ShouldEqual, "Lucy Wu")
		_, ok := r.School("Nobody")
		So(ok, ShouldBeFalse)
	})

	Convey("Given names with stray spacing", t, func() {
		So(identity.CleanName("  Sieun  (Michelle)   Lee "), ShouldEqual, "Sieun (Michelle) Lee")
	})
}

func must(s string, ok bool) string {
	if !ok {
		return "<missing>"
	}
	return s
}

func TestBlankIdentity(t *testing.T) {
	Convey("Given ballots that carry an id but no name", t, func() {
		r := identity.New()
		r.ObserveEvent(event(round("prelim",
			model.Ballot{Entry: "7", EntryCode: "A1"},
			model.Ballot{Entry: "8", EntryName: "   ", EntryCode: "A2"},
			model.Ballot{Entry: "9", EntryName: "Named", EntryCode: ""},
		)))

		Convey("Then the blank names are not reported as resolved", func() {
			_, ok := r.Name("7")
			So(ok, ShouldBeFalse)
			_, ok = r.Name("8")
			So(ok, ShouldBeFalse)
			code, ok := r.Code("7")
			So(ok, ShouldBeTrue)
			So(code, ShouldEqual, "A1")
			_, ok = r.Code("9")
			So(ok, ShouldBeFalse)
		})

		Convey("Then Entry refuses to resolve them", func() {
			_, _, ok := r.Entry(&model.Ballot{Entry: "7", EntryCode: "A1"})
			So(ok, ShouldBeFalse)
			_, _, ok = r.Entry(&model.Ballot{Entry: "9", EntryName: "Named"})
			So(ok, ShouldBeFalse)
		})

		Convey("Then a later named observation is not erased by a blank one", func() {
			r.ObserveEvent(event(round("prelim", model.Ballot{Entry: "7", EntryName: "Late Name", EntryCode: "A1"})))
			r.ObserveEvent(event(round("prelim", model.Ballot{Entry: "7", EntryCode: "A1"})))
			name, ok := r.Name("7")
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, "Late Name")
		})
	})
}
