package notes

import (
	"sort"
	"strings"
	"unicode"

	"github.com/p-n-ai/pai-roadmap/internal/textnorm"
)

// Field weights: a query word in the name counts more than one in the body.
const (
	nameWeight    = 3.0
	keywordWeight = 2.0
	bodyWeight    = 1.0
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "to": true,
	"in": true, "for": true, "on": true, "with": true, "is": true, "how": true,
	"el": true, "la": true, "los": true, "las": true, "de": true, "del": true,
	"y": true, "en": true, "con": true, "para": true, "un": true, "una": true,
}

// Index is an immutable keyword index over documents. Build a new one to
// change its contents.
type Index struct {
	docs  []Document
	terms []docTerms
}

type docTerms struct {
	name     map[string]bool
	keywords map[string]bool
	body     map[string]int
}

// NewIndex indexes docs.
func NewIndex(docs []Document) *Index {
	idx := &Index{
		docs:  append([]Document(nil), docs...),
		terms: make([]docTerms, len(docs)),
	}
	for i, d := range idx.docs {
		dt := docTerms{
			name:     set(tokenize(d.Name)),
			keywords: set(tokenize(strings.Join(d.Keywords, " "))),
			body:     map[string]int{},
		}
		for _, tok := range tokenize(d.Body) {
			dt.body[tok]++
		}
		idx.terms[i] = dt
	}
	return idx
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Documents returns the indexed documents.
func (idx *Index) Documents() []Document {
	return append([]Document(nil), idx.docs...)
}

// Search returns up to k documents matching query, best first. Ties keep
// ID order so results are stable.
func (idx *Index) Search(query string, k int) []Result {
	words := unique(tokenize(query))
	if len(words) == 0 || k <= 0 {
		return nil
	}

	var results []Result
	for i, dt := range idx.terms {
		score := 0.0
		for _, w := range words {
			if dt.name[w] {
				score += nameWeight
			}
			if dt.keywords[w] {
				score += keywordWeight
			}
			if n := dt.body[w]; n > 0 {
				// Diminishing credit for repetition.
				score += bodyWeight * (1 + float64(min(n, 10)-1)/10)
			}
		}
		if score > 0 {
			results = append(results, Result{Document: idx.docs[i], Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// tokenize folds text to lower-case words without accents and drops stop
// words and single characters. Dots and pluses stay inside words so that
// "node.js" and "c++" survive.
func tokenize(text string) []string {
	folded := textnorm.Fold(text)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '+' && r != '#'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if len([]rune(f)) < 2 || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func set(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func unique(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := words[:0]
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
