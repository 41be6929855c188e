package textutil

import "sort"

// CosineSimilarity returns 0 when either side is nil or empty.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	if len(b.tokens) < len(a.tokens) {
		a, b = b, a
	}
	var dot float64
	for token, weight := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += weight * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Match is one ranked document.
type Match struct {
	Index int
	Score float64
}

// Rank scores every document against target using TF-IDF weights computed
// over the documents plus the target. Matches below minScore are dropped;
// the rest are returned best first, at most limit when limit > 0.
func Rank(target string, documents []string, minScore float64, limit int) []Match {
	targetFP := NewFingerprint(target)
	if targetFP == nil {
		return nil
	}
	corpus := NewCorpus()
	corpus.Add(targetFP)
	prints := make([]*Fingerprint, len(documents))
	for i, doc := range documents {
		prints[i] = NewFingerprint(doc)
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	weightedTarget := targetFP.WithIDF(idf)

	var matches []Match
	for i, fp := range prints {
		score := CosineSimilarity(weightedTarget, fp.WithIDF(idf))
		if score <= 0 || score < minScore {
			continue
		}
		matches = append(matches, Match{Index: i, Score: score})
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
