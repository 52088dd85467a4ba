package roundstring

import (
	"strconv"
	"strings"
)

// Judges' scores are sometimes written without a separator. Two cases are
// recognised on purely numeric tokens:
//
//   - more than one decimal point: "28.527.0" is "28.5" and "27.0";
//   - three or more digits before a single decimal point: "128.5" is
//     "1" and "28.5".
//
// A bare integer of three to five digits above 100 carries a prefix digit
// artifact; leading digits are dropped until it is at most 100.
const (
	minArtifactDigits = 3
	maxArtifactDigits = 5
	maxRank           = 100
)

func normalizeToken(tok string) []string {
	if !isNumeric(tok) {
		return []string{tok}
	}

	if dots := strings.Count(tok, "."); dots > 1 {
		i := strings.IndexByte(tok, '.')
		if i+1 < len(tok) && isDigit(tok[i+1]) && i+2 < len(tok) {
			head, tail := tok[:i+2], tok[i+2:]
			return append(normalizeToken(head), normalizeToken(tail)...)
		}
		return []string{tok}
	} else if dots == 1 {
		i := strings.IndexByte(tok, '.')
		if i >= minArtifactDigits {
			cut := i - 2
			return append(normalizeToken(tok[:cut]), tok[cut:])
		}
		return []string{tok}
	}

	if len(tok) < minArtifactDigits || len(tok) > maxArtifactDigits {
		return []string{tok}
	}
	for len(tok) > 1 {
		v, err := strconv.Atoi(tok)
		if err != nil || v <= maxRank {
			break
		}
		tok = tok[1:]
	}
	return []string{tok}
}

func isNumeric(tok string) bool {
	if tok == "" || tok[0] == '.' {
		return false
	}
	digits := 0
	for i := 0; i < len(tok); i++ {
		switch {
		case isDigit(tok[i]):
			digits++
		case tok[i] == '.':
		default:
			return false
		}
	}
	return digits > 0
}
