// Package schoolname maps registered school names to stable short names.
package schoolname

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// ShortName canonicalizes a long school name. It is a pure function of its
// input.
func ShortName(long string) string {
	long = norm.NFC.String(long)

	if short, ok := specialCases[folder.String(strings.TrimSpace(long))]; ok {
		return short
	}
	for _, d := range disambiguation {
		for _, n := range d.names {
			if long == n {
				return d.short
			}
		}
	}

	name := long
	for _, phrase := range alwaysRemove {
		name = strings.ReplaceAll(name, phrase, "")
	}
	name = strings.ReplaceAll(name, fixedReplaceFrom, fixedReplaceTo)
	name, _ = endingTable.First(name)
	name, _ = shorteningTable.First(name)
	name, _ = beginningTable.First(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), " ")

	if name == "" {
		return strings.TrimSpace(long)
	}
	return name
}

// Canonicalizer memoizes ShortName. It is safe for concurrent use.
type Canonicalizer struct {
	mu    sync.RWMutex
	cache map[string]string
}

// NewCanonicalizer returns an empty memo.
func NewCanonicalizer() *Canonicalizer {
	return &Canonicalizer{cache: make(map[string]string)}
}

// ShortName returns the cached short name, computing it on first use.
func (c *Canonicalizer) ShortName(long string) string {
	c.mu.RLock()
	short, ok := c.cache[long]
	c.mu.RUnlock()
	if ok {
		return short
	}
	short = ShortName(long)
	c.mu.Lock()
	c.cache[long] = short
	c.mu.Unlock()
	return short
}

// Len reports how many names are cached.
func (c *Canonicalizer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
