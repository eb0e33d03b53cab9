package model

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Family selects the cracking pipeline for a ciphertext.
type Family string

const (
	FamilyShift        Family = "caesar"
	FamilyVigenere     Family = "vigenere"
	FamilySubstitution Family = "substitution"
	FamilyXOR          Family = "xor"
)

// Families lists every supported family in display order.
var Families = []Family{FamilyShift, FamilyVigenere, FamilySubstitution, FamilyXOR}

// ParseFamily resolves a family name or one of its aliases.
func ParseFamily(name string) (Family, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "caesar", "shift":
		return FamilyShift, true
	case "vigenere", "polyalphabetic":
		return FamilyVigenere, true
	case "substitution", "permutation":
		return FamilySubstitution, true
	case "xor", "byte-xor":
		return FamilyXOR, true
	default:
		return "", false
	}
}

// Method names the technique that produced a result.
type Method string

const (
	MethodChiSquared       Method = "chi_squared"
	MethodColumnwise       Method = "friedman_columns"
	MethodAnnealing        Method = "simulated_annealing"
	MethodSingleByteXOR    Method = "single_byte_xor"
	MethodHammingColumnXOR Method = "hamming_columns"
)

// Ciphertext is the input to a crack: raw symbols plus the family they were produced by.
type Ciphertext struct {
	Family Family
	Text   string
}

// Key is a key candidate for one of the cipher families.
type Key interface {
	Family() Family
	String() string
}

// ShiftKey is a Caesar shift in 0..25.
type ShiftKey int

func (ShiftKey) Family() Family { return FamilyShift }

func (k ShiftKey) String() string { return strconv.Itoa(int(k)) }

// KeywordKey is an uppercase Vigenère keyword.
type KeywordKey string

func (KeywordKey) Family() Family { return FamilyVigenere }

func (k KeywordKey) String() string { return string(k) }

// PermutationKey maps plaintext letter i to ciphertext letter PermutationKey[i], both 0..25.
type PermutationKey [26]byte

func (PermutationKey) Family() Family { return FamilySubstitution }

func (k PermutationKey) String() string {
	var b strings.Builder
	b.Grow(26)
	for _, v := range k {
		b.WriteByte('A' + v)
	}
	return b.String()
}

// Inverse returns the decryption mapping.
func (k PermutationKey) Inverse() PermutationKey {
	var inv PermutationKey
	for i, v := range k {
		inv[v] = byte(i)
	}
	return inv
}

// ByteKey is a repeating XOR key.
type ByteKey []byte

func (ByteKey) Family() Family { return FamilyXOR }

func (k ByteKey) String() string { return hex.EncodeToString(k) }

// Candidate is a scored key hypothesis.
type Candidate struct {
	Key        Key
	Plaintext  string
	Score      float64
	Confidence float64
}

// CrackResult is the outcome of a single crack invocation.
type CrackResult struct {
	Family     Family
	Key        Key
	Plaintext  string
	Confidence float64
	Method     Method
	Attempts   int
	// Diagnostics is nil when a cracker has nothing to report.
	Diagnostics *Diagnostics
}

// Diagnostics carries method-specific detail about a crack.
type Diagnostics struct {
	InsufficientData bool
	Reason           string
	Symbols          int
	RawScore         float64
	Period           int
	PeriodReduced    bool
	PeriodSweep      []PeriodScore
	Kasiski          []PeriodVote
	ColumnConfidence []float64
	Candidates       []Candidate
	Restarts         []RestartOutcome
	Cancelled        bool
}

// PeriodScore is one entry of a key-length sweep.
type PeriodScore struct {
	Period int     `json:"period" yaml:"period"`
	Value  float64 `json:"value" yaml:"value"`
}

// PeriodVote is one entry of the Kasiski ranking.
type PeriodVote struct {
	Period int `json:"period" yaml:"period"`
	Votes  int `json:"votes" yaml:"votes"`
}

// RestartOutcome summarizes one completed solver restart.
type RestartOutcome struct {
	Restart    int     `json:"restart" yaml:"restart"`
	Score      float64 `json:"score" yaml:"score"`
	Accepted   int     `json:"accepted" yaml:"accepted"`
	Iterations int     `json:"iterations" yaml:"iterations"`
}
