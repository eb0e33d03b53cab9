package search

import (
	"strings"
	"testing"
)

func TestRankEvaluatesEveryKey(t *testing.T) {
	calls := 0
	e := Exhaustive[int]{
		Keys: []int{0, 1, 2, 3},
		Decrypt: func(ct string, key int) string {
			calls++
			return strings.Repeat(ct, key)
		},
		Score: func(p string) float64 { return float64(len(p)) },
	}
	ranked := e.Rank("ab")
	if calls != 4 || len(ranked) != 4 {
		t.Fatalf("calls=%d len=%d, want 4/4", calls, len(ranked))
	}
	for i, want := range []int{3, 2, 1, 0} {
		if ranked[i].Key != want {
			t.Fatalf("rank %d key = %d, want %d", i, ranked[i].Key, want)
		}
	}
	if ranked[0].Plaintext != "ababab" || ranked[0].Score != 6 {
		t.Fatalf("top = %+v", ranked[0])
	}
}

func TestRankStableOnTies(t *testing.T) {
	e := Exhaustive[string]{
		Keys:    []string{"b", "a", "c"},
		Decrypt: func(ct string, key string) string { return key },
		Score:   func(string) float64 { return 1 },
	}
	ranked := e.Rank("x")
	got := ranked[0].Key + ranked[1].Key + ranked[2].Key
	if got != "bac" {
		t.Fatalf("tie order = %q, want keyspace order", got)
	}
}

func TestRankNothingToScore(t *testing.T) {
	e := Exhaustive[int]{
		Keys:     []int{1, 2},
		Decrypt:  func(ct string, key int) string { return ct },
		Score:    func(string) float64 { return 0 },
		Scorable: func(ct string) bool { return strings.ContainsAny(ct, "abc") },
	}
	if ranked := e.Rank("123"); ranked == nil || len(ranked) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", ranked)
	}
	e.Scorable = nil
	if ranked := e.Rank(""); len(ranked) != 0 {
		t.Fatalf("empty ciphertext should rank nothing")
	}
	if ranked := e.Rank("123"); len(ranked) != 2 {
		t.Fatalf("default scorable should accept non-empty input")
	}
}

func TestTop(t *testing.T) {
	ranked := []Candidate[int]{{Key: 1}, {Key: 2}, {Key: 3}}
	if got := Top(ranked, 2); len(got) != 2 {
		t.Fatalf("Top 2 = %d", len(got))
	}
	if got := Top(ranked, 10); len(got) != 3 {
		t.Fatalf("Top 10 = %d", len(got))
	}
	if got := Top(ranked, -1); len(got) != 3 {
		t.Fatalf("Top -1 = %d", len(got))
	}
}
