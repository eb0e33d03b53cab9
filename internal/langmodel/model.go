// Package langmodel holds letter and n-gram statistics for a target language.
package langmodel

import "math"

const (
	// Alphabet is the number of letter symbols a model covers.
	Alphabet = 26
	// MinOrder and MaxOrder bound the n-gram orders a model stores.
	MinOrder = 2
	MaxOrder = 4
)

// Model is an immutable language model. Tables are dense: the n-gram of letter
// indices l0..l(n-1) lives at index l0*26^(n-1) + ... + l(n-1).
type Model struct {
	name     string
	letters  [Alphabet]float64
	counts   [Alphabet]float64
	grams    [MaxOrder + 1][]float64
	raw      [MaxOrder + 1][]float64
	floor    [MaxOrder + 1]float64
	expected [MaxOrder + 1]float64
	ioc      float64
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// LetterFrequencies returns the expected probability of each letter.
func (m *Model) LetterFrequencies() [Alphabet]float64 { return m.letters }

// LetterFrequency returns the probability of letter index i (0..25).
func (m *Model) LetterFrequency(i int) float64 {
	if i < 0 || i >= Alphabet {
		return 0
	}
	return m.letters[i]
}

// Table returns the dense log10 table for order n. Callers must not modify it.
func (m *Model) Table(n int) []float64 {
	if !validOrder(n) {
		return nil
	}
	return m.grams[n]
}

// Floor returns the log10 probability assigned to unseen n-grams of order n.
func (m *Model) Floor(n int) float64 {
	if !validOrder(n) {
		return math.Inf(-1)
	}
	return m.floor[n]
}

// LogProb returns the log10 probability of gram, or the floor when gram is
// unseen. Non-letter symbols make the gram unseen.
func (m *Model) LogProb(gram string) float64 {
	n := len(gram)
	if !validOrder(n) {
		return math.Inf(-1)
	}
	idx := 0
	for i := 0; i < n; i++ {
		l, ok := Index(gram[i])
		if !ok {
			return m.floor[n]
		}
		idx = idx*Alphabet + int(l)
	}
	return m.grams[n][idx]
}

// ExpectedLogProb returns the mean log10 probability per gram of text drawn
// from the model itself.
func (m *Model) ExpectedLogProb(n int) float64 {
	if !validOrder(n) {
		return 0
	}
	return m.expected[n]
}

// ExpectedIoC returns the probability that two letters drawn from the
// language are the same.
func (m *Model) ExpectedIoC() float64 { return m.ioc }

// Index maps an ASCII letter to 0..25 regardless of case.
func Index(c byte) (byte, bool) {
	switch {
	case c >= 'A' && c <= 'Z':
		return c - 'A', true
	case c >= 'a' && c <= 'z':
		return c - 'a', true
	default:
		return 0, false
	}
}

// Letters appends the letter indices of text to dst, dropping everything else.
func Letters(dst []byte, text string) []byte {
	for i := 0; i < len(text); i++ {
		if l, ok := Index(text[i]); ok {
			dst = append(dst, l)
		}
	}
	return dst
}

func validOrder(n int) bool {
	return n >= MinOrder && n <= MaxOrder
}

func tableSize(n int) int {
	size := 1
	for i := 0; i < n; i++ {
		size *= Alphabet
	}
	return size
}
