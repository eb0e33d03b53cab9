package generator

import (
	"strings"
	"testing"

	"github.com/verte-zerg/sentinel/internal/cipher"
	"github.com/verte-zerg/sentinel/internal/corpus"
	"github.com/verte-zerg/sentinel/internal/model"
)

func TestSampleDeterministic(t *testing.T) {
	words := []corpus.Entry{{Word: "the", Weight: 10}, {Word: "cipher", Weight: 2}, {Word: "key", Weight: 1}}
	a := New(7).Sample(words, 50, TextOptions{})
	b := New(7).Sample(words, 50, TextOptions{})
	if a != b {
		t.Fatalf("expected identical samples for the same seed")
	}
	if got := len(strings.Fields(a)); got != 50 {
		t.Fatalf("expected 50 words, got %d", got)
	}
}

func TestSampleRespectsWeights(t *testing.T) {
	words := []corpus.Entry{{Word: "common", Weight: 1000}, {Word: "rare", Weight: 1}}
	sample := New(1).Sample(words, 500, TextOptions{})
	common := strings.Count(sample, "common")
	if common < 450 {
		t.Fatalf("expected weighted sampling to favor common, got %d/500", common)
	}
}

func TestSampleCapsAndPunct(t *testing.T) {
	words := []corpus.Entry{{Word: "word", Weight: 1}}
	sample := New(3).Sample(words, 5, TextOptions{CapsPct: 1, PunctPct: 1, PunctSet: []rune{'.'}})
	for _, w := range strings.Fields(sample) {
		if w != "Word." {
			t.Fatalf("expected capitalized punctuated word, got %q", w)
		}
	}
	if New(3).Sample(nil, 5, TextOptions{}) != "" {
		t.Fatalf("expected empty sample for empty word list")
	}
}

func TestKeysAreValid(t *testing.T) {
	g := New(42)
	for _, family := range model.Families {
		key, err := g.Key(family, 6)
		if err != nil {
			t.Fatalf("Key(%s) failed: %v", family, err)
		}
		if key.Family() != family {
			t.Fatalf("expected %s key, got %s", family, key.Family())
		}
		if err := cipher.Validate(key); err != nil {
			t.Fatalf("generated %s key is invalid: %v", family, err)
		}
	}
	if shift := g.Shift(); shift < 1 || shift > 25 {
		t.Fatalf("shift out of range: %d", shift)
	}
	if _, err := g.Key(model.FamilyXOR, 0); err == nil {
		t.Fatalf("expected error for zero-length xor key")
	}
}
