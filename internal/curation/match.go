package curation

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/desertthunder/mixtape/internal/models"
)

// partialMinRunes is the shortest field that may match as a substring of a longer one.
// Shorter fields would match nearly anything.
const partialMinRunes = 3

// MatchKey is one weighted field of a catalog track.
type MatchKey struct {
	Name   string
	Weight float64
	Values func(models.Track) []string
}

// Matcher scores catalog tracks against a free-text title.
//
// Each key compares the title with the track's field values, taking the best value.
// The score is the weighted mean distance, where 0 is an exact match and 1 shares nothing.
type Matcher struct {
	keys []MatchKey
}

// DefaultMatcher weighs title 0.7, artist names 0.5 and album 0.1.
func DefaultMatcher() *Matcher {
	return NewMatcher(
		MatchKey{Name: "title", Weight: 0.7, Values: func(t models.Track) []string { return []string{t.Title} }},
		MatchKey{Name: "artists.name", Weight: 0.5, Values: func(t models.Track) []string {
			names := make([]string, len(t.Artists))
			for i, a := range t.Artists {
				names[i] = a.Name
			}
			return names
		}},
		MatchKey{Name: "album", Weight: 0.1, Values: func(t models.Track) []string { return []string{t.Album} }},
	)
}

func NewMatcher(keys ...MatchKey) *Matcher {
	return &Matcher{keys: keys}
}

// Score returns the weighted distance between query and t in [0, 1].
func (m *Matcher) Score(query string, t models.Track) float64 {
	q := matchKey(query)

	var total, weights float64
	for _, k := range m.keys {
		best := 0.0
		for _, v := range k.Values(t) {
			best = max(best, similarity(q, matchKey(v)))
		}
		total += k.Weight * (1 - best)
		weights += k.Weight
	}
	if weights == 0 {
		return 1
	}
	return total / weights
}

// Best returns the lowest scoring track below threshold. Earlier tracks win ties.
func (m *Matcher) Best(query string, tracks []models.Track, threshold float64) (models.Track, float64, bool) {
	var (
		best      models.Track
		bestScore = threshold
		found     bool
	)
	for _, t := range tracks {
		if s := m.Score(query, t); s < bestScore {
			best, bestScore, found = t, s, true
		}
	}
	return best, bestScore, found
}

// similarity is 1 minus the normalized edit distance, or the best match of the
// shorter string against every same-length window of the longer one.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	whole := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(max(la, lb))

	short, long := a, b
	if la > lb {
		short, long = b, a
	}
	if utf8.RuneCountInString(short) < partialMinRunes {
		return whole
	}
	if strings.Contains(long, short) {
		return 1
	}
	return max(whole, partial(short, long))
}

func partial(short, long string) float64 {
	s, l := []rune(short), []rune(long)
	best := 0.0
	for i := 0; i+len(s) <= len(l); i++ {
		d := levenshtein.ComputeDistance(short, string(l[i:i+len(s)]))
		best = max(best, 1-float64(d)/float64(len(s)))
		if best == 1 {
			break
		}
	}
	return best
}
