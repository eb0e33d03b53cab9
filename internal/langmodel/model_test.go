package langmodel

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuilderCountsLettersAndGrams(t *testing.T) {
	b := NewBuilder("tiny")
	b.AddText("The the, THE!")
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	freqs := m.LetterFrequencies()
	sum := 0.0
	for _, f := range freqs {
		sum += f
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("frequencies sum to %v, want 1", sum)
	}
	if got := m.LetterFrequency(int('T' - 'A')); math.Abs(got-1.0/3) > 1e-9 {
		t.Fatalf("freq T = %v, want 1/3", got)
	}
	if m.LogProb("TH") <= m.Floor(2) {
		t.Fatalf("expected TH above floor")
	}
	if m.LogProb("the") != m.LogProb("THE") {
		t.Fatalf("lookup should be case-insensitive")
	}
	if got := m.LogProb("QZ"); got != m.Floor(2) {
		t.Fatalf("unseen gram = %v, want floor %v", got, m.Floor(2))
	}
	// "ETHE" spans the words, so the sequence includes cross-word grams.
	if m.LogProb("ETHE") <= m.Floor(4) {
		t.Fatalf("expected ETHE above floor")
	}
}

func TestAddWordKeepsGramsInsideWords(t *testing.T) {
	b := NewBuilder("words")
	b.AddWord("ab", 3)
	b.AddWord("cd", 1)
	b.AddWord("zz", 0)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := m.LogProb("BC"); got != m.Floor(2) {
		t.Fatalf("BC should be unseen, got %v", got)
	}
	want := math.Log10(3.0 / 4.0)
	if got := m.LogProb("AB"); math.Abs(got-want) > 1e-9 {
		t.Fatalf("AB = %v, want %v", got, want)
	}
	if m.LetterFrequency(25) != 0 {
		t.Fatalf("zero-weight word should be ignored")
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	_, err := NewBuilder("empty").Build()
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	b := NewBuilder("digits")
	b.AddText("1234 !!")
	if _, err := b.Build(); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := NewBuilder("round trip")
	b.AddText("attack at dawn, retreat at dusk")
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(buf.String(), fileHeader) {
		t.Fatalf("missing header: %q", buf.String()[:20])
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Name() != "round trip" {
		t.Fatalf("name = %q", loaded.Name())
	}
	if loaded.LetterFrequencies() != m.LetterFrequencies() {
		t.Fatalf("letter frequencies differ after reload")
	}
	for _, gram := range []string{"AT", "TTA", "DAWN", "QQQ"} {
		if loaded.LogProb(gram) != m.LogProb(gram) {
			t.Fatalf("LogProb(%q) = %v, want %v", gram, loaded.LogProb(gram), m.LogProb(gram))
		}
	}
}

func TestSaveFileLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "en.txt")
	if err := English().SaveFile(path); err != nil {
		t.Fatalf("save file: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if loaded.LogProb("THE") != English().LogProb("THE") {
		t.Fatalf("THE differs after reload")
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	cases := []string{
		"L AB 3\n",
		"N3 TH 2\n",
		"N9 THEMS 1\n",
		"X A 1\n",
		"L A -1\n",
		"L 1 2\n",
	}
	for _, input := range cases {
		if _, err := Load(strings.NewReader(input)); !errors.Is(err, ErrFormat) {
			t.Fatalf("Load(%q) err = %v, want ErrFormat", input, err)
		}
	}
}

func TestEnglishModel(t *testing.T) {
	m := English()
	if m != English() {
		t.Fatalf("English should return the shared model")
	}
	if ioc := m.ExpectedIoC(); ioc < 0.060 || ioc > 0.070 {
		t.Fatalf("expected IoC = %v, want about 0.065", ioc)
	}
	if m.LogProb("THE") <= m.LogProb("XQJ") {
		t.Fatalf("THE should outscore XQJ")
	}
	if m.LogProb("TION") <= m.Floor(4) {
		t.Fatalf("TION should be seen")
	}
	for n := MinOrder; n <= MaxOrder; n++ {
		if m.ExpectedLogProb(n) <= m.Floor(n) {
			t.Fatalf("order %d: expected log prob %v not above floor %v", n, m.ExpectedLogProb(n), m.Floor(n))
		}
		if len(m.Table(n)) != tableSize(n) {
			t.Fatalf("order %d: table size %d", n, len(m.Table(n)))
		}
	}
	if m.Table(5) != nil || m.Table(1) != nil {
		t.Fatalf("unsupported orders should have no table")
	}
}

func TestLetters(t *testing.T) {
	got := Letters(nil, "Hi, Zo!")
	want := []byte{7, 8, 25, 14}
	if !bytes.Equal(got, want) {
		t.Fatalf("Letters = %v, want %v", got, want)
	}
}
