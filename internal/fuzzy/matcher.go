// Package fuzzy matches free-text player answers against a fixed set of
// candidate items, tolerating typos, casing, diacritics and umlaut spellings.
package fuzzy

import (
	"strings"
	"unicode"
)

// Item is one candidate answer with a canonical display and optional aliases
type Item struct {
	ID      string
	Display string
	Aliases []string
}

// MatchType classifies how a match was found
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchAlias MatchType = "alias"
	MatchFuzzy MatchType = "fuzzy"
	MatchNone  MatchType = "none"
)

// Result is the outcome of matching one input against the candidate set
type Result struct {
	IsMatch        bool      `json:"isMatch"`
	MatchedItemID  string    `json:"matchedItemId,omitempty"`
	MatchedDisplay string    `json:"matchedDisplay,omitempty"`
	AlreadyGuessed bool      `json:"alreadyGuessed"`
	MatchType      MatchType `json:"matchType"`
	Confidence     float64   `json:"confidence"`
}

// umlautReplacer folds German umlauts and ß into their ASCII spellings so
// "Muenchen" and "München" compare equal.
var umlautReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
)

// Normalize lowercases, folds umlauts/diacritics, strips punctuation and
// collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = umlautReplacer.Replace(s)

	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(stripDiacritic(r))
			lastSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
		// everything else (punctuation, symbols) is dropped
	}
	return strings.TrimSpace(b.String())
}

// stripDiacritic maps common accented latin letters to their base letter
func stripDiacritic(r rune) rune {
	switch r {
	case 'à', 'á', 'â', 'ã', 'å':
		return 'a'
	case 'è', 'é', 'ê', 'ë':
		return 'e'
	case 'ì', 'í', 'î', 'ï':
		return 'i'
	case 'ò', 'ó', 'ô', 'õ':
		return 'o'
	case 'ù', 'ú', 'û':
		return 'u'
	case 'ç':
		return 'c'
	case 'ñ':
		return 'n'
	}
	return r
}

// Match compares the input against all items and returns the best outcome.
// Items whose ids are in guessed are still matched, but flagged AlreadyGuessed
// instead of IsMatch, so callers can distinguish repeats from misses.
func Match(input string, items []Item, guessed map[string]bool, threshold float64) Result {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}

	normalized := Normalize(input)
	if normalized == "" {
		return Result{MatchType: MatchNone}
	}

	best := Result{MatchType: MatchNone}
	for _, item := range items {
		confidence, matchType := matchItem(normalized, item)
		if confidence < threshold || matchType == MatchNone {
			continue
		}
		if confidence > best.Confidence {
			best = Result{
				MatchedItemID:  item.ID,
				MatchedDisplay: item.Display,
				MatchType:      matchType,
				Confidence:     confidence,
			}
		}
	}

	if best.MatchType == MatchNone {
		return best
	}

	if guessed[best.MatchedItemID] {
		best.AlreadyGuessed = true
		return best
	}

	best.IsMatch = true
	return best
}

// matchItem scores the normalized input against one item's display and aliases
func matchItem(normalized string, item Item) (float64, MatchType) {
	if Normalize(item.Display) == normalized {
		return 1.0, MatchExact
	}

	for _, alias := range item.Aliases {
		if Normalize(alias) == normalized {
			return 1.0, MatchAlias
		}
	}

	bestSim := 0.0
	candidates := append([]string{item.Display}, item.Aliases...)
	for _, candidate := range candidates {
		sim := similarity(normalized, Normalize(candidate))
		if sim > bestSim {
			bestSim = sim
		}
	}

	if bestSim > 0 {
		return bestSim, MatchFuzzy
	}
	return 0, MatchNone
}

// similarity maps levenshtein distance into [0,1]
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	dist := levenshtein(ra, rb)
	return 1.0 - float64(dist)/float64(longest)
}

// levenshtein computes the edit distance between two rune slices
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
