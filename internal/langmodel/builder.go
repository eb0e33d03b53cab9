package langmodel

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrEmptyCorpus is returned when a model is built without any letters.
var ErrEmptyCorpus = errors.New("langmodel: corpus has no letters")

// floorMass is the pseudo-count given to an unseen n-gram.
const floorMass = 0.01

// Builder accumulates corpus statistics.
type Builder struct {
	name       string
	letters    [Alphabet]float64
	grams      [MaxOrder + 1][]float64
	fixed      bool
	fixedFreqs [Alphabet]float64
	buf        []byte
}

// NewBuilder creates an empty builder.
func NewBuilder(name string) *Builder {
	b := &Builder{name: name}
	for n := MinOrder; n <= MaxOrder; n++ {
		b.grams[n] = make([]float64, tableSize(n))
	}
	return b
}

// AddText counts letters and n-grams of the letter sequence of text.
func (b *Builder) AddText(text string) {
	b.buf = Letters(b.buf[:0], text)
	b.add(b.buf, 1)
}

// AddReader reads r to the end and adds its text.
func (b *Builder) AddReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}
	b.AddText(string(data))
	return nil
}

// AddWord counts one word with the given weight. N-grams never span words.
func (b *Builder) AddWord(word string, weight float64) {
	if weight <= 0 {
		return
	}
	b.buf = Letters(b.buf[:0], word)
	b.add(b.buf, weight)
}

// SetLetterFrequencies overrides the counted letter distribution.
func (b *Builder) SetLetterFrequencies(freqs [Alphabet]float64) {
	b.fixed = true
	b.fixedFreqs = freqs
}

func (b *Builder) add(letters []byte, weight float64) {
	for i, l := range letters {
		b.letters[l] += weight
		for n := MinOrder; n <= MaxOrder; n++ {
			if i+1 < n {
				break
			}
			idx := 0
			for _, g := range letters[i+1-n : i+1] {
				idx = idx*Alphabet + int(g)
			}
			b.grams[n][idx] += weight
		}
	}
}

// Build normalizes the counts into a model.
func (b *Builder) Build() (*Model, error) {
	counts := b.letters
	if b.fixed {
		counts = b.fixedFreqs
	}
	return fromCounts(b.name, counts, b.grams)
}

func fromCounts(name string, letters [Alphabet]float64, grams [MaxOrder + 1][]float64) (*Model, error) {
	total := 0.0
	for _, c := range letters {
		if c < 0 {
			return nil, fmt.Errorf("langmodel: negative letter count %v", c)
		}
		total += c
	}
	if total == 0 {
		return nil, ErrEmptyCorpus
	}

	m := &Model{name: name, counts: letters}
	for i, c := range letters {
		p := c / total
		m.letters[i] = p
		m.ioc += p * p
	}

	for n := MinOrder; n <= MaxOrder; n++ {
		raw := make([]float64, tableSize(n))
		copy(raw, grams[n])
		sum := 0.0
		for _, c := range raw {
			sum += c
		}
		floor := math.Log10(floorMass / math.Max(sum, 1))
		table := make([]float64, len(raw))
		expected := 0.0
		for i, c := range raw {
			if c <= 0 {
				table[i] = floor
				continue
			}
			p := c / sum
			lp := math.Log10(p)
			table[i] = lp
			expected += p * lp
		}
		if sum == 0 {
			expected = floor
		}
		m.raw[n] = raw
		m.grams[n] = table
		m.floor[n] = floor
		m.expected[n] = expected
	}
	return m, nil
}
