// Package search ranks leads against a free-text query.
//
// Ranking is Jaccard similarity between the query's token set Q and a
// document's token set D, |Q ∩ D| / |Q ∪ D|. Tokens are maximal runs of
// letters and digits, case-folded with golang.org/x/text/cases so "STEEL",
// "Steel" and "steel" match. Documents sharing no token with the query are
// dropped; ties keep input order, so callers pass candidates newest first.
package search

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Document is one rankable lead.
type Document struct {
	ID   string
	Text string
}

// Result is a matching document and its similarity in (0, 1].
type Result struct {
	ID    string
	Score float64
}

// DefaultStopwords carry no signal in lead titles and descriptions.
var DefaultStopwords = []string{
	"a", "an", "and", "the", "of", "for", "to", "in", "on", "with", "by", "at", "or", "from",
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithStopwords ignores words in both queries and documents.
func WithStopwords(words []string) Option {
	return func(r *Ranker) {
		for _, w := range words {
			if w = strings.TrimSpace(w); w != "" {
				if r.stop == nil {
					r.stop = make(map[string]struct{}, len(words))
				}
				r.stop[cases.Fold().String(w)] = struct{}{}
			}
		}
	}
}

// WithMaxDocs considers at most n documents per query; n <= 0 means all.
func WithMaxDocs(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.maxDocs = n
		}
	}
}

// Ranker scores documents against queries. It is immutable once built and
// safe for concurrent use.
type Ranker struct {
	stop    map[string]struct{}
	maxDocs int
}

// NewRanker builds a Ranker.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rank returns the documents matching q, best first. A query with no
// usable tokens matches nothing.
func (r *Ranker) Rank(q string, docs []Document) []Result {
	fold := cases.Fold() // a Caser is not safe to share
	query := r.tokens(fold, q)
	if len(query) == 0 {
		return nil
	}
	if r.maxDocs > 0 && len(docs) > r.maxDocs {
		docs = docs[:r.maxDocs]
	}

	var out []Result
	for _, d := range docs {
		toks := r.tokens(fold, d.Text)
		shared := 0
		for t := range query {
			if _, ok := toks[t]; ok {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		out = append(out, Result{
			ID:    d.ID,
			Score: float64(shared) / float64(len(query)+len(toks)-shared),
		})
	}
	slices.SortStableFunc(out, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return out
}

// tokens returns the folded token set of s without stopwords.
func (r *Ranker) tokens(fold cases.Caser, s string) map[string]struct{} {
	words := strings.FieldsFunc(fold.String(s), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := r.stop[w]; !skip {
			set[w] = struct{}{}
		}
	}
	return set
}
