package schoolname

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// specialCases maps case-folded long names straight to a short name.
var specialCases = map[string]string{
	"thomas jefferson high school of science and technology": "Thomas Jefferson",
	"thomas jefferson high school of science & technology":   "Thomas Jefferson",
	"the bronx high school of science":                       "Bronx Science",
	"whitney m. young magnet high school":                    "Whitney Young",
	"lane tech college prep h.s.":                            "Lane Tech",
	"new school":                                             "New School",
	"the new school":                                         "New School",
	"bc academy":                                             "BC Academy",
	"new york university":                                   "NYU",
	"boston college":                                         "Boston College",
	"boston university":                                      "Boston University",
	"air academy high school":                                "Air Academy",
	"air academy hs":                                         "Air Academy",
	"college prep school":                                    "College Prep",
	"college prep hs":                                        "College Prep",
	"st. paul academy and summit school":                     "St. Paul Academy and Summit",
	"university high school, irvine":                         "University HS, Irvine",
	"alannah debates":                                        "Alannah",
	"bellarmine college preparatory":                         "Bellarmine College Prep",
	"basis independent fremont(hs)":                          "Basis Independent Fremont",
	"brooks debate institute":                                "Brooks Debate",
	"the delores taylor arthur school for young men":         "Delores Taylor Arthur School for Young Men",
	"dhs independent":                                        "DHS",
	"damien high school and st lucy's priory":                "Damien HS and St. Lucy's Priory",
	"davidson academy online":                                "Davidson Academy",
	"st. ignatius college prep":                              "St Ignatius College Prep",
	"vegas debates":                                          "Vegas Debates",
	"young genius, bay area speech and debate":               "Young Genius",
}

// disambiguation lists schools whose generic short forms would collide.
// Matching is exact and case-sensitive.
var disambiguation = []struct {
	names []string
	short string
}{
	{[]string{"Milton High School", "MiltonHigh", "Milton HS", "Milton Hi"}, "Milton High"},
	{[]string{"Milton Academy", "MiltonAcademy", "Milton AC"}, "Milton Acad"},
	{[]string{"Cary High School", "Cary HS", "Cary Hi"}, "Cary High"},
	{[]string{"Cary Academy", "Cary AC"}, "Cary Acad"},
}

var alwaysRemove = []string{"Junior-Senior", "Charter Public", "Public Charter"}

const (
	fixedReplaceFrom = "High School Independent"
	fixedReplaceTo   = "Independent"
)

// Rule is one ordered (predicate, transform) pair.
type Rule struct {
	Name  string
	Match func(string) bool
	Apply func(string) string
}

// Table applies the first matching rule only.
type Table []Rule

// First applies the first rule whose predicate matches.
func (t Table) First(name string) (string, bool) {
	for _, r := range t {
		if r.Match(name) {
			return r.Apply(name), true
		}
	}
	return name, false
}

// Endings are regular expressions anchored at the end and matched without
// regard to case. The matched phrase is then removed everywhere it occurs
// verbatim, so a case-only match leaves the name untouched.
var badEndings = []string{
	"Mock Trial", "Debate Association", "Debate Academy", "Debate Panel",
	"Debate Society", "Debating Society", "Forensics/Debate", "of Math and Science",
	"Academy", "Early College High School", "Regional High School", "Middle School",
	"Junior High School", "Upper School", "Sr High School", "University High School",
	"High School", "College Prepatory", "College Prep", "Colleges",
	"School", "school", "Schools", "schools", " High", "H.S", "HS", "M.S", "MS",
	"(MS)", "JH", "Jr", "JR", " Middle", "(Middle)", "Elementary", "(Elementary)",
	"Intermediate", "Community", "(Intermediate)", "Junior", "(Middle)", "Regional",
	"Academy", "School for Young Men", "School", "school", "Schools", "schools",
	"Sr", "Sr High School", "sr", "Club", "Team", "Society", "Speech and Debate",
	"Forensics", "Forensic", "Speech", "Debate", "Parliamentary", "University",
	"CP", "College", "CC",
}

var shortenings = []struct{ from, to string }{
	{"Middle School of the Arts", "Arts"},
	{"School of the Arts", "Arts"},
	{"Preparatory", "Prep"},
	{"Technological", "Tech"},
	{"Technology", "Tech"},
	{"California State University", "CSU"},
	{"California State University,", "CSU"},
	{"Community College", "Community"},
	{"State University", "State"},
	{"State University,", "State"},
	{"Saint", "St"},
	{"St.", "St"},
}

var badBeginnings = []string{
	"The", "The University of", "The University Of", "University of",
	"University Of", "The College of", "The College Of", "College of", "College Of,",
}

func buildEndingTable() Table {
	t := make(Table, 0, len(badEndings))
	for _, e := range badEndings {
		re := regexp.MustCompile("(?i)" + e + "$")
		ending := e
		t = append(t, Rule{
			Name:  "ending:" + ending,
			Match: re.MatchString,
			Apply: func(s string) string { return strings.ReplaceAll(s, ending, "") },
		})
	}
	return t
}

func buildShorteningTable() Table {
	t := make(Table, 0, len(shortenings))
	for _, sh := range shortenings {
		re := regexp.MustCompile("(?i)" + sh.from)
		from, to := sh.from, sh.to
		t = append(t, Rule{
			Name:  "shorten:" + from,
			Match: re.MatchString,
			Apply: func(s string) string { return strings.ReplaceAll(s, from, to) },
		})
	}
	return t
}

func buildBeginningTable() Table {
	t := make(Table, 0, len(badBeginnings))
	for _, b := range badBeginnings {
		prefix := b
		t = append(t, Rule{
			Name:  "beginning:" + prefix,
			Match: func(s string) bool { return hasWordPrefix(s, prefix) },
			Apply: func(s string) string { return s[len(prefix):] },
		})
	}
	return t
}

// hasWordPrefix matches prefix case-insensitively when it ends on a word
// boundary, so "The" strips "The Harker" but not "Theodore".
func hasWordPrefix(s, prefix string) bool {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return false
	}
	if len(s) == len(prefix) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[len(prefix):])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

var (
	endingTable     = buildEndingTable()
	shorteningTable = buildShorteningTable()
	beginningTable  = buildBeginningTable()
)
