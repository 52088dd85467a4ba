package roundstring_test

import (
	"errors"
	"testing"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/roundstring"
	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"
)

func rr(name, total string, ranks ...string) model.RoundResult {
	if ranks == nil {
		ranks = []string{}
	}
	return model.RoundResult{RoundName: name, TotalRank: total, Ranks: ranks}
}

func TestDecodeFixtures(t *testing.T) {
	Convey("Given the speech prelim fixture", t, func() {
		got, err := roundstring.Decode("R12|R21|R31|R41|R53|3|5|(11)R61|1|1|2|2|(7)")
		So(err, ShouldBeNil)

		want := []model.RoundResult{
			rr("R1", "2", "2"),
			rr("R2", "1", "1"),
			rr("R3", "1", "1"),
			rr("R4", "1", "1"),
			rr("R5", "11", "3", "3", "5"),
			rr("R6", "7", "1", "1", "1", "2", "2"),
		}
		Convey("Then every round is decoded with its aggregate", func() {
			So(cmp.Diff(want, got), ShouldBeEmpty)
		})
	})

	Convey("Given the debate fixture with a skipped round", t, func() {
		got, err := roundstring.Decode("R1L28.0,27.0|(55.0)R3W30.0,30.0|(60.0)R4L|W|L|(1-2)")
		So(err, ShouldBeNil)

		want := []model.RoundResult{
			rr("R1", "55.0", "L28.0,27.0"),
			rr("R2", model.ByeMark, model.ByeMark),
			rr("R3", "60.0", "W30.0,30.0"),
			rr("R4", "1-2", "L", "W", "L"),
		}
		Convey("Then the missing marker becomes a bye", func() {
			So(cmp.Diff(want, got), ShouldBeEmpty)
			So(got[1].IsBye(), ShouldBeTrue)
		})
	})

	Convey("Given the fixture without separators", t, func() {
		got, err := roundstring.Decode("R1281R2292R3192R421(3)R5153(9)")
		So(err, ShouldBeNil)

		want := []model.RoundResult{
			rr("R1", "81", "81"),
			rr("R2", "92", "92"),
			rr("R3", "92", "92"),
			rr("R4", "3", "21"),
			rr("R5", "9", "53"),
		}
		Convey("Then prefix digit artifacts are dropped", func() {
			So(cmp.Diff(want, got), ShouldBeEmpty)
		})
	})
}

func TestDecodeEdges(t *testing.T) {
	Convey("Given edge inputs", t, func() {
		Convey("When the string is blank", func() {
			got, err := roundstring.Decode("   ")
			So(err, ShouldBeNil)
			So(got, ShouldBeNil)
		})

		Convey("When the first round is a bye", func() {
			got, err := roundstring.Decode("R22|R31|")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
			So(got[0].IsBye(), ShouldBeTrue)
			So(got[1], ShouldResemble, rr("R2", "2", "2"))
		})

		Convey("When two markers in a row are missing", func() {
			got, err := roundstring.Decode("R35|")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].IsBye(), ShouldBeTrue)
		})

		Convey("When a round has no entries", func() {
			got, err := roundstring.Decode("R1R21|")
			So(err, ShouldBeNil)
			So(got[0], ShouldResemble, rr("R1", ""))
			So(got[1], ShouldResemble, rr("R2", "1", "1"))
		})

		Convey("When total count has no byes it matches the markers", func() {
			got, err := roundstring.Decode("R11|R22|R33|")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
		})
	})
}

func TestDecodeMalformed(t *testing.T) {
	Convey("Given strings that break the grammar", t, func() {
		cases := []struct{ name, in string }{
			{"marker without digits", "R1W|RX"},
			{"stray marker", "R1W|R|L"},
			{"leading text", "xR1W"},
			{"bare R", "R"},
			{"two skipped rounds", "R11|R45|"},
		}
		for _, c := range cases {
			Convey("When decoding with a "+c.name, func() {
				_, err := roundstring.Decode(c.in)
				So(err, ShouldNotBeNil)
				So(errors.Is(err, roundstring.ErrMalformed), ShouldBeTrue)
			})
		}

		Convey("Then MustDecode panics", func() {
			So(func() { roundstring.MustDecode("R1W|R|L") }, ShouldPanic)
		})
	})
}

func TestTokenHeuristics(t *testing.T) {
	Convey("Given concatenated judge scores", t, func() {
		got, err := roundstring.Decode("R128.527.0|(55.5)R2128.5|(57.0)")
		So(err, ShouldBeNil)
		So(got[0].Ranks, ShouldResemble, []string{"28.5", "27.0"})
		So(got[1].Ranks, ShouldResemble, []string{"1", "28.5"})
	})

	Convey("Given unit artifacts", t, func() {
		got, err := roundstring.Decode("R1100|R21100|R312345|R4123456|")
		So(err, ShouldBeNil)
		So(got[0].Ranks, ShouldResemble, []string{"100"})
		So(got[1].Ranks, ShouldResemble, []string{"100"})
		So(got[2].Ranks, ShouldResemble, []string{"45"})
		So(got[3].Ranks, ShouldResemble, []string{"123456"})
	})
}

func TestIdempotence(t *testing.T) {
	fixtures := []string{
		"R12|R21|R31|R41|R53|3|5|(11)R61|1|1|2|2|(7)",
		"R1L28.0,27.0|(55.0)R3W30.0,30.0|(60.0)R4L|W|L|(1-2)",
		"R1281R2292R3192R421(3)R5153(9)",
	}
	Convey("Given decoded fixtures", t, func() {
		for _, f := range fixtures {
			decoded := roundstring.MustDecode(f)

			Convey("Normalize is a fixed point for "+f, func() {
				So(cmp.Diff(decoded, roundstring.Normalize(decoded)), ShouldBeEmpty)
				once := roundstring.Normalize(decoded)
				So(cmp.Diff(once, roundstring.Normalize(once)), ShouldBeEmpty)
			})

			Convey("Decode(Encode(r)) returns r for "+f, func() {
				again, err := roundstring.Decode(roundstring.Encode(decoded))
				So(err, ShouldBeNil)
				So(cmp.Diff(decoded, again), ShouldBeEmpty)
			})
		}
	})

	Convey("Given raw rounds that still carry artifacts", t, func() {
		raw := []model.RoundResult{rr("R1", "3", "281", "28.527.0")}
		So(roundstring.Normalize(raw)[0].Ranks, ShouldResemble, []string{"81", "28.5", "27.0"})
		So(roundstring.Normalize(nil), ShouldBeNil)
	})
}

func TestSummaryAndDetection(t *testing.T) {
	Convey("Given decoded rounds", t, func() {
		rounds := roundstring.MustDecode("R12|R33|3|5|(11)")
		So(roundstring.Summary(rounds), ShouldEqual, "2|Bye|{3,3,5}")
	})

	Convey("Given candidate strings", t, func() {
		So(roundstring.IsEncoded("R1W"), ShouldBeTrue)
		So(roundstring.IsEncoded(" R12|"), ShouldBeTrue)
		So(roundstring.IsEncoded("Round 1: W"), ShouldBeFalse)
		So(roundstring.IsEncoded("N/A"), ShouldBeFalse)
	})
}
