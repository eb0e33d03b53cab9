// Package search ranks every key of a small keyspace.
package search

import "sort"

// Candidate is one evaluated key.
type Candidate[K any] struct {
	Key       K
	Plaintext string
	Score     float64
}

// Exhaustive evaluates every key of a finite keyspace.
type Exhaustive[K any] struct {
	Keys    []K
	Decrypt func(ciphertext string, key K) string
	Score   func(plaintext string) float64
	// Scorable reports whether the ciphertext has anything to score. Nil means
	// any non-empty ciphertext is scorable.
	Scorable func(ciphertext string) bool
}

// Rank decrypts the ciphertext with every key and returns the candidates
// sorted by descending score. Equal scores keep keyspace order. Ciphertext with
// nothing to score yields an empty list.
func (e Exhaustive[K]) Rank(ciphertext string) []Candidate[K] {
	if !e.scorable(ciphertext) {
		return []Candidate[K]{}
	}
	ranked := make([]Candidate[K], 0, len(e.Keys))
	for _, key := range e.Keys {
		plain := e.Decrypt(ciphertext, key)
		ranked = append(ranked, Candidate[K]{Key: key, Plaintext: plain, Score: e.Score(plain)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func (e Exhaustive[K]) scorable(ciphertext string) bool {
	if e.Scorable == nil {
		return ciphertext != ""
	}
	return e.Scorable(ciphertext)
}

// Top returns at most n leading candidates.
func Top[K any](ranked []Candidate[K], n int) []Candidate[K] {
	if n < 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
