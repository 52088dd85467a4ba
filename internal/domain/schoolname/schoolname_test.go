package schoolname_test

import (
	"sync"
	"testing"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/schoolname"
	. "github.com/smartystreets/goconvey/convey"
)

func TestShortName(t *testing.T) {
	Convey("Given registered school names", t, func() {
		cases := []struct{ long, short string }{
			{"Thomas Jefferson High School of Science and Technology", "Thomas Jefferson"},
			{"THE BRONX HIGH SCHOOL OF SCIENCE", "Bronx Science"},
			{"Milton Academy", "Milton Acad"},
			{"Milton HS", "Milton High"},
			{"Cary AC", "Cary Acad"},
			{"Saint Joseph Academy", "St Joseph"},
			{"St. Joseph Academy", "St Joseph"},
			{"Lincoln High School", "Lincoln"},
			{"Lincoln Junior-Senior High School", "Lincoln"},
			{"Jefferson High School Independent", "Jefferson Independent"},
			{"The Harker School", "Harker"},
			{"Theodore Roosevelt High School", "Theodore Roosevelt"},
			{"Brophy College Preparatory", "Brophy College Prep"},
			{"Lincoln-Way East HS", "Lincoln-Way East"},
			{"University of Texas", "Texas"},
		}
		for _, c := range cases {
			Convey("When shortening "+c.long, func() {
				So(schoolname.ShortName(c.long), ShouldEqual, c.short)
			})
		}
	})

	Convey("Given names the pipeline would erase", t, func() {
		So(schoolname.ShortName("The"), ShouldEqual, "The")
		So(schoolname.ShortName(" The "), ShouldEqual, "The")
		So(schoolname.ShortName(""), ShouldEqual, "")
	})

	Convey("Given a removed phrase in the middle of a name", t, func() {
		So(schoolname.ShortName("Riverton Public Charter Lab"), ShouldEqual, "Riverton Lab")
	})

	Convey("Given the same name twice", t, func() {
		So(schoolname.ShortName("Lincoln High School"), ShouldEqual, schoolname.ShortName("Lincoln High School"))
	})
}

func TestTableFirstMatchWins(t *testing.T) {
	Convey("Given a table with overlapping rules", t, func() {
		tbl := schoolname.Table{
			{Name: "a", Match: func(s string) bool { return len(s) > 3 }, Apply: func(string) string { return "first" }},
			{Name: "b", Match: func(s string) bool { return true }, Apply: func(string) string { return "second" }},
		}
		got, ok := tbl.First("long name")
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, "first")

		got, ok = tbl.First("ab")
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, "second")

		got, ok = schoolname.Table{}.First("unchanged")
		So(ok, ShouldBeFalse)
		So(got, ShouldEqual, "unchanged")
	})
}

func TestCanonicalizer(t *testing.T) {
	Convey("Given a shared canonicalizer", t, func() {
		c := schoolname.NewCanonicalizer()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = c.ShortName("Milton Academy")
				_ = c.ShortName("Lincoln High School")
			}()
		}
		wg.Wait()

		So(c.Len(), ShouldEqual, 2)
		So(c.ShortName("Milton Academy"), ShouldEqual, "Milton Acad")
	})
}
