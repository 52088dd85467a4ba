// Package roundstring decodes the compact per-round performance encoding
// found in hidden result-table cells, e.g.
//
//	R12|R21|R31|R41|R53|3|5|(11)R61|1|1|1|2|2|(7)
//	R1L28.0,27.0|(55.0)R3W30.0,30.0|(60.0)R4L|W|L|(1-2)
//
// Each round starts with an R<n> marker. A round the entry skipped (a bye)
// has no marker at all, so the end of a segment is found by looking for
// R<n+1> and then R<n+2>.
package roundstring

import (
	"strconv"
	"strings"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/rotisserie/eris"
)

// IsEncoded reports whether s looks like a hidden round-string.
func IsEncoded(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 2 && s[0] == 'R' && isDigit(s[1])
}

// Decode parses a hidden round-string.
func Decode(s string) ([]model.RoundResult, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []model.RoundResult
	pos, n := 0, 1
	for pos < len(s) {
		marker := markerFor(n)
		if !strings.HasPrefix(s[pos:], marker) {
			if err := checkMarker(s, pos); err != nil {
				return nil, err
			}
			out = append(out, bye(n))
			if !strings.HasPrefix(s[pos:], markerFor(n+1)) {
				// Second consecutive miss: nothing after this can be trusted.
				return out, nil
			}
			n++
			continue
		}

		start := pos + len(marker)
		end := len(s)
		if i := strings.Index(s[start:], markerFor(n+1)); i >= 0 {
			end = start + i
		} else if i := strings.Index(s[start:], markerFor(n+2)); i >= 0 {
			end = start + i
		}

		content := s[start:end]
		if strings.ContainsRune(content, 'R') {
			return nil, eris.Wrapf(ErrMalformed, "stray marker in round %d segment %q", n, content)
		}
		out = append(out, parseSegment(marker, content))
		pos = end
		n++
	}
	return out, nil
}

// MustDecode is Decode for literals known to be valid.
func MustDecode(s string) []model.RoundResult {
	rounds, err := Decode(s)
	if err != nil {
		panic(err)
	}
	return rounds
}

// checkMarker validates the text at pos where a marker was expected.
func checkMarker(s string, pos int) error {
	if s[pos] != 'R' {
		if pos == 0 {
			return eris.Wrapf(ErrMalformed, "text before the first round marker in %q", s)
		}
		return eris.Wrapf(ErrMalformed, "expected a round marker at offset %d of %q", pos, s)
	}
	if pos+1 >= len(s) || !isDigit(s[pos+1]) {
		return eris.Wrapf(ErrMalformed, "round marker without a number at offset %d of %q", pos, s)
	}
	return nil
}

func parseSegment(name, content string) model.RoundResult {
	content = strings.TrimSpace(content)
	aggregate, rest, hasAggregate := splitAggregate(content)

	ranks := make([]string, 0, 4)
	for _, tok := range strings.Split(rest, "|") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		ranks = append(ranks, normalizeToken(tok)...)
	}

	total := ""
	switch {
	case hasAggregate:
		total = aggregate
	case len(ranks) == 1:
		total = ranks[0]
	}
	return model.RoundResult{RoundName: name, TotalRank: total, Ranks: ranks}
}

// splitAggregate removes a trailing "(x)" aggregate from a segment.
func splitAggregate(content string) (aggregate, rest string, ok bool) {
	trimmed := strings.TrimRight(content, "| ")
	if !strings.HasSuffix(trimmed, ")") {
		return "", content, false
	}
	open := strings.LastIndexByte(trimmed, '(')
	if open < 0 {
		return "", content, false
	}
	return strings.TrimSpace(trimmed[open+1 : len(trimmed)-1]), trimmed[:open], true
}

func bye(n int) model.RoundResult {
	return model.RoundResult{RoundName: markerFor(n), TotalRank: model.ByeMark, Ranks: []string{model.ByeMark}}
}

func markerFor(n int) string { return "R" + strconv.Itoa(n) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Normalize re-applies token normalization to already decoded rounds.
// Normalize(Normalize(r)) == Normalize(r).
func Normalize(rounds []model.RoundResult) []model.RoundResult {
	if rounds == nil {
		return nil
	}
	out := make([]model.RoundResult, len(rounds))
	for i, r := range rounds {
		ranks := make([]string, 0, len(r.Ranks))
		for _, tok := range r.Ranks {
			if r.IsBye() {
				ranks = append(ranks, tok)
				continue
			}
			ranks = append(ranks, normalizeToken(strings.TrimSpace(tok))...)
		}
		out[i] = model.RoundResult{RoundName: r.RoundName, TotalRank: r.TotalRank, Ranks: ranks}
	}
	return out
}

// Encode renders rounds back into the compact form. Bye rounds are left
// out, as the source does.
func Encode(rounds []model.RoundResult) string {
	var b strings.Builder
	for i, r := range rounds {
		if r.IsBye() {
			continue
		}
		name := r.RoundName
		if name == "" {
			name = markerFor(i + 1)
		}
		b.WriteString(name)
		b.WriteString(strings.Join(r.Ranks, "|"))
		switch {
		case len(r.Ranks) == 1 && r.TotalRank == r.Ranks[0]:
			b.WriteString("|")
		case r.TotalRank != "":
			if len(r.Ranks) > 0 {
				b.WriteString("|")
			}
			b.WriteString("(" + r.TotalRank + ")")
		}
	}
	return b.String()
}

// Summary renders rounds as "{a,b}|c" where multi-judge rounds are braced.
func Summary(rounds []model.RoundResult) string {
	parts := make([]string, 0, len(rounds))
	for _, r := range rounds {
		switch {
		case len(r.Ranks) > 1:
			parts = append(parts, "{"+strings.Join(r.Ranks, ",")+"}")
		case len(r.Ranks) == 1:
			parts = append(parts, r.Ranks[0])
		}
	}
	return strings.Join(parts, "|")
}
