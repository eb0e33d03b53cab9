// Package generator builds sample plaintexts and random keys for exercising
// the crackers.
package generator

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"unicode"

	"github.com/verte-zerg/sentinel/internal/corpus"
	"github.com/verte-zerg/sentinel/internal/model"
)

// Generator produces seeded sample text and keys.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with seed.
func New(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// TextOptions shapes generated sample text.
type TextOptions struct {
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

// Sample draws count words with probability proportional to their weight and
// joins them with spaces.
func (g *Generator) Sample(words []corpus.Entry, count int, opts TextOptions) string {
	if len(words) == 0 || count <= 0 {
		return ""
	}
	cumulative := make([]float64, len(words))
	total := 0.0
	for i, w := range words {
		if w.Weight > 0 {
			total += w.Weight
		}
		cumulative[i] = total
	}

	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		idx := g.rnd.Intn(len(words))
		if total > 0 {
			r := g.rnd.Float64() * total
			idx = sort.SearchFloat64s(cumulative, r)
			if idx >= len(words) {
				idx = len(words) - 1
			}
		}
		word := words[idx].Word
		word = applyCaps(g.rnd, word, opts.CapsPct)
		word = applyPunct(g.rnd, word, opts.PunctPct, opts.PunctSet)
		result = append(result, word)
	}
	return strings.Join(result, " ")
}

// Shift returns a shift in 1..25.
func (g *Generator) Shift() model.ShiftKey {
	return model.ShiftKey(1 + g.rnd.Intn(25))
}

// Keyword returns n uppercase letters.
func (g *Generator) Keyword(n int) model.KeywordKey {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('A' + g.rnd.Intn(26))
	}
	return model.KeywordKey(b)
}

// Permutation returns a uniformly shuffled substitution alphabet.
func (g *Generator) Permutation() model.PermutationKey {
	var key model.PermutationKey
	for i, v := range g.rnd.Perm(26) {
		key[i] = byte(v)
	}
	return key
}

// Bytes returns n random key bytes.
func (g *Generator) Bytes(n int) model.ByteKey {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(g.rnd.Intn(256))
	}
	return model.ByteKey(b)
}

// Key returns a random key of the family. n is the keyword or key length
// and is ignored for shift and substitution keys.
func (g *Generator) Key(family model.Family, n int) (model.Key, error) {
	switch family {
	case model.FamilyShift:
		return g.Shift(), nil
	case model.FamilySubstitution:
		return g.Permutation(), nil
	case model.FamilyVigenere, model.FamilyXOR:
		if n <= 0 {
			return nil, fmt.Errorf("key length must be greater than 0")
		}
		if family == model.FamilyVigenere {
			return g.Keyword(n), nil
		}
		return g.Bytes(n), nil
	default:
		return nil, fmt.Errorf("unknown cipher family %q", family)
	}
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
