// Package resolve finds short URLs from loosely typed search text.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// maxCandidates caps the matches listed in an AmbiguousError.
const maxCandidates = 5

// Named is a short URL with the text it can be found by (title, long URL,
// keyword).
type Named struct {
	Key  string
	Name string
}

// Match is a fuzzy match result with score.
type Match struct {
	Key   string
	Name  string
	Score int
}

var (
	ErrEmptyQuery = errors.New("empty search query")
	ErrEmptyItems = errors.New("no items to match against")
)

// AmbiguousError indicates multiple candidates matched equally well.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ambiguous match for %q", e.Query)
	if len(e.Matches) > 0 {
		b.WriteString(", candidates:")
		for _, m := range e.Matches {
			_, _ = fmt.Fprintf(&b, "\n  %s: %s", m.Key, m.Name)
		}
	}
	return b.String()
}

// Index is a case-insensitive fuzzy search over named items.
type Index struct {
	items []Named
	lower []string
}

// NewIndex prepares items for searching.
func NewIndex(items []Named) *Index {
	lower := make([]string, len(items))
	for i, it := range items {
		lower[i] = strings.ToLower(it.Name)
	}
	return &Index{items: items, lower: lower}
}

// String and Len make Index a fuzzy.Source.
func (x *Index) String(i int) string { return x.lower[i] }
func (x *Index) Len() int            { return len(x.items) }

// Best returns the key of the single best match for query. A
// case-insensitive exact match on name or key wins outright; otherwise a tie
// between the two best fuzzy scores is an *AmbiguousError.
func (x *Index) Best(query string) (string, error) {
	query = strings.TrimSpace(query)
	switch {
	case query == "":
		return "", ErrEmptyQuery
	case len(x.items) == 0:
		return "", ErrEmptyItems
	}

	for _, it := range x.items {
		if strings.EqualFold(it.Name, query) || strings.EqualFold(it.Key, query) {
			return it.Key, nil
		}
	}

	ranked := x.find(query)
	switch {
	case len(ranked) == 0:
		return "", fmt.Errorf("no match found for %q", query)
	case len(ranked) > 1 && ranked[0].Score == ranked[1].Score:
		return "", &AmbiguousError{Query: query, Matches: x.matches(ranked, maxCandidates)}
	}
	return x.items[ranked[0].Index].Key, nil
}

// Rank returns up to limit matches for query, best first.
func (x *Index) Rank(query string, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}
	return x.matches(x.find(query), limit)
}

func (x *Index) find(query string) fuzzy.Matches {
	if len(x.items) == 0 {
		return nil
	}
	return fuzzy.FindFrom(strings.ToLower(query), x)
}

func (x *Index) matches(ranked fuzzy.Matches, limit int) []Match {
	if len(ranked) == 0 {
		return nil
	}
	ranked = ranked[:min(limit, len(ranked))]
	out := make([]Match, len(ranked))
	for i, r := range ranked {
		it := x.items[r.Index]
		out[i] = Match{Key: it.Key, Name: it.Name, Score: r.Score}
	}
	return out
}

// FuzzyMatch is NewIndex(items).Best(query).
func FuzzyMatch(query string, items []Named) (string, error) {
	return NewIndex(items).Best(query)
}

// FuzzyMatchAll is NewIndex(items).Rank(query, limit).
func FuzzyMatchAll(query string, items []Named, limit int) []Match {
	return NewIndex(items).Rank(query, limit)
}
