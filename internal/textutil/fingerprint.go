package textutil

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ignored holds units and filler words common to every recipe card.
var ignored = map[string]struct{}{
	"and": {}, "the": {}, "with": {}, "for": {}, "into": {}, "until": {},
	"serves": {}, "servings": {}, "cup": {}, "cups": {}, "tbsp": {}, "tsp": {},
	"und": {}, "mit": {}, "für": {}, "den": {}, "die": {}, "das": {}, "der": {},
	"eine": {}, "einen": {}, "personen": {}, "person": {}, "portionen": {}, "portion": {},
	"prise": {}, "stück": {},
}

// Fingerprint is a term-frequency vector.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint returns nil when text yields no tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return newWeighted(counts)
}

func newWeighted(weights map[string]float64) *Fingerprint {
	var norm float64
	for _, w := range weights {
		norm += w * w
	}
	return &Fingerprint{tokens: weights, norm: math.Sqrt(norm)}
}

// Tokenize splits text into lowercase words, dropping numbers, tokens shorter
// than three letters and ignored words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, token := range fields {
		if utf8.RuneCountInString(token) < 3 || !hasLetter(token) {
			continue
		}
		if _, skip := ignored[token]; skip {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

func hasLetter(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// TokenCount returns the number of distinct tokens.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// WithIDF returns a copy weighted by idf. Terms missing from idf keep their
// weight; a fingerprint whose weights all drop to zero becomes nil.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.tokens))
	for token, count := range f.tokens {
		w := count
		if v, ok := idf[token]; ok {
			w *= v
		}
		if w != 0 {
			weighted[token] = w
		}
	}
	if len(weighted) == 0 {
		return nil
	}
	return newWeighted(weighted)
}

// Corpus collects document frequencies.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add counts each distinct term of fp once.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docCount++
	for token := range fp.tokens {
		c.docFreq[token]++
	}
}

// IDF returns smoothed weights log((N+1)/(1+df)).
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for term, df := range c.docFreq {
		idf[term] = math.Log((n + 1) / (1 + float64(df)))
	}
	return idf
}
