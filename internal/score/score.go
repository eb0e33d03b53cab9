// Package score rates how much a candidate plaintext looks like the target language.
package score

import (
	"github.com/verte-zerg/sentinel/internal/langmodel"
)

// ChiSquared returns sum((observed% - expected%)^2 / expected%) over the 26
// letters. Lower is a better fit. Non-letters are ignored and case is folded;
// text without letters scores as if every observed percentage were zero.
func ChiSquared(text string, m *langmodel.Model) float64 {
	var counts [langmodel.Alphabet]int
	total := 0
	for i := 0; i < len(text); i++ {
		if l, ok := langmodel.Index(text[i]); ok {
			counts[l]++
			total++
		}
	}
	return chiSquared(counts, total, m)
}

// ChiSquaredIndices scores a sequence of letter indices (0..25).
func ChiSquaredIndices(letters []byte, m *langmodel.Model) float64 {
	var counts [langmodel.Alphabet]int
	for _, l := range letters {
		counts[l]++
	}
	return chiSquared(counts, len(letters), m)
}

func chiSquared(counts [langmodel.Alphabet]int, total int, m *langmodel.Model) float64 {
	chi := 0.0
	for i, c := range counts {
		expected := m.LetterFrequency(i) * 100
		if expected == 0 {
			continue
		}
		observed := 0.0
		if total > 0 {
			observed = float64(c) * 100 / float64(total)
		}
		d := observed - expected
		chi += d * d / expected
	}
	return chi
}

// NGram returns the sum of log10 n-gram probabilities over the letter sequence
// of text, using the model floor for unseen grams. Higher is better.
func NGram(text string, m *langmodel.Model, n int) float64 {
	table := m.Table(n)
	if table == nil {
		return 0
	}
	mod := 1
	for i := 1; i < n; i++ {
		mod *= langmodel.Alphabet
	}
	sum := 0.0
	idx, seen := 0, 0
	for i := 0; i < len(text); i++ {
		l, ok := langmodel.Index(text[i])
		if !ok {
			continue
		}
		idx = (idx%mod)*langmodel.Alphabet + int(l)
		seen++
		if seen >= n {
			sum += table[idx]
		}
	}
	return sum
}

// NGramIndices is NGram over a sequence of letter indices. It does not allocate.
func NGramIndices(letters []byte, m *langmodel.Model, n int) float64 {
	table := m.Table(n)
	if table == nil || len(letters) < n {
		return 0
	}
	mod := 1
	for i := 1; i < n; i++ {
		mod *= langmodel.Alphabet
	}
	idx := 0
	for _, l := range letters[:n-1] {
		idx = idx*langmodel.Alphabet + int(l)
	}
	sum := 0.0
	for _, l := range letters[n-1:] {
		idx = (idx%mod)*langmodel.Alphabet + int(l)
		sum += table[idx]
	}
	return sum
}

// IndexOfCoincidence returns sum(f(f-1)) / (N(N-1)) for a sequence of letter
// indices. Sequences shorter than two letters return 0.
func IndexOfCoincidence(letters []byte) float64 {
	n := len(letters)
	if n < 2 {
		return 0
	}
	var counts [langmodel.Alphabet]int
	for _, l := range letters {
		counts[l]++
	}
	sum := 0
	for _, c := range counts {
		sum += c * (c - 1)
	}
	return float64(sum) / float64(n*(n-1))
}
