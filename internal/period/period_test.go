package period

import (
	"testing"

	"github.com/verte-zerg/sentinel/internal/cipher"
	"github.com/verte-zerg/sentinel/internal/langmodel"
)

const plaintext = `There is a particular kind of quiet that settles over a house in the early hours
of a summer morning, before anyone else is awake. The kettle ticks as it warms, a bird
starts up somewhere in the garden, and the light comes in low and yellow across the kitchen
floor. For an hour or so the whole day seems to belong to whoever is up to see it. Nothing
has gone wrong yet, no letters have arrived, and the list of things that must be done is
still folded on the table where it was left the night before. It is a good time to think,
or to read, or simply to sit with a cup of tea and watch the shadows of the trees move
slowly over the lawn as the sun climbs above the roofs of the houses across the road.
Later there will be noise and hurry and the telephone, but not yet, and not for a while.`

func TestFriedmanFindsKeywordLength(t *testing.T) {
	for _, keyword := range []string{"LEMON", "CRANE", "PIXEL"} {
		ct := cipher.Vigenere(plaintext, cipher.Shifts(keyword), false)
		letters := langmodel.Letters(nil, ct)
		sweep := Friedman(letters, 0, langmodel.English().ExpectedIoC())
		if sweep.Best != 5 {
			t.Fatalf("%s: best period = %d, want 5 (scores %v)", keyword, sweep.Best, sweep.Scores)
		}
		if sweep.Ranked[0] != 5 {
			t.Fatalf("%s: ranked[0] = %d", keyword, sweep.Ranked[0])
		}
		if len(sweep.Scores) != DefaultMaxPeriod {
			t.Fatalf("%s: swept %d periods", keyword, len(sweep.Scores))
		}
	}
}

func TestFriedmanPlainTextIsPeriodOne(t *testing.T) {
	letters := langmodel.Letters(nil, plaintext)
	sweep := Friedman(letters, 10, langmodel.English().ExpectedIoC())
	if sweep.Best != 1 {
		t.Fatalf("best = %d, want 1", sweep.Best)
	}
	if len(sweep.Scores) != 10 {
		t.Fatalf("swept %d periods, want 10", len(sweep.Scores))
	}
}

func TestFriedmanShortInput(t *testing.T) {
	sweep := Friedman([]byte{1}, 0, 0.065)
	if sweep.Best != 0 || len(sweep.Scores) != 0 {
		t.Fatalf("expected empty sweep, got %+v", sweep)
	}
	sweep = Friedman(langmodel.Letters(nil, "ABCDEFGH"), 20, 0.065)
	if len(sweep.Scores) != 4 {
		t.Fatalf("periods should stop at len/2, got %d", len(sweep.Scores))
	}
}

func TestColumns(t *testing.T) {
	cols := Columns([]byte{0, 1, 2, 3, 4}, 2)
	if len(cols) != 2 || string(cols[0]) != string([]byte{0, 2, 4}) || string(cols[1]) != string([]byte{1, 3}) {
		t.Fatalf("columns = %v", cols)
	}
	if Columns([]byte{1}, 0) != nil {
		t.Fatalf("k=0 should yield nil")
	}
}

func TestKasiskiVotes(t *testing.T) {
	res := Kasiski(langmodel.Letters(nil, "ABCDEFABCXYZABC"), 3, 20)
	if len(res.Repeats) != 1 {
		t.Fatalf("repeats = %+v", res.Repeats)
	}
	rep := res.Repeats[0]
	if rep.Sequence != "ABC" || rep.GCD != 6 || len(rep.Positions) != 3 {
		t.Fatalf("repeat = %+v", rep)
	}
	if res.Best() != 6 {
		t.Fatalf("best = %d, want 6 (votes %v)", res.Best(), res.Votes)
	}
}

func TestKasiskiOnVigenere(t *testing.T) {
	ct := cipher.Vigenere(plaintext, cipher.Shifts("LEMON"), false)
	res := Kasiski(langmodel.Letters(nil, ct), 3, 20)
	votes := map[int]int{}
	for _, v := range res.Votes {
		votes[v.Period] = v.Votes
	}
	if votes[5] <= votes[7] {
		t.Fatalf("period 5 votes %d should exceed period 7 votes %d", votes[5], votes[7])
	}
}

func TestKasiskiShortText(t *testing.T) {
	res := Kasiski([]byte{0, 1}, 3, 20)
	if res.Best() != 0 || len(res.Votes) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestDistance(t *testing.T) {
	if got := Distance([]byte("this is a test"), []byte("wokka wokka!!!")); got != 37 {
		t.Fatalf("distance = %d, want 37", got)
	}
}

func TestHammingMonotonicity(t *testing.T) {
	key := []byte{0x9c, 0xe7, 0x2a, 0xd1, 0x4f}
	data := []byte(cipher.XOR(plaintext, key))
	sweep := Hamming(data, 1, 20, 0)
	at, ok := sweep.Score(len(key))
	if !ok {
		t.Fatalf("key length not tested")
	}
	for _, sc := range sweep.Scores {
		if sc.Period%len(key) == 0 {
			continue
		}
		if at >= sc.Value {
			t.Fatalf("distance at %d (%v) not below distance at %d (%v)", len(key), at, sc.Period, sc.Value)
		}
	}
	if sweep.Best != len(key) {
		t.Fatalf("best = %d, want %d", sweep.Best, len(key))
	}
}

func TestHammingShortInput(t *testing.T) {
	sweep := Hamming([]byte{1, 2, 3}, 2, 10, 0)
	if sweep.Best != 0 || len(sweep.Scores) != 0 {
		t.Fatalf("expected empty sweep, got %+v", sweep)
	}
	sweep = Hamming(make([]byte, 64), 1, 40, 4)
	if len(sweep.Scores) != 32 {
		t.Fatalf("scored %d lengths, want 32", len(sweep.Scores))
	}
	if sweep.Best != 1 {
		t.Fatalf("all-zero input should reduce to 1, got %d", sweep.Best)
	}
}

func TestFriedmanShortSamples(t *testing.T) {
	expected := langmodel.English().ExpectedIoC()
	for off := 0; off+300 <= len(plaintext); off += 100 {
		for _, keyword := range []string{"LEMON", "CRANE", "ZEBRA", "QUART"} {
			ct := cipher.Vigenere(plaintext[off:off+300], cipher.Shifts(keyword), false)
			sweep := Friedman(langmodel.Letters(nil, ct), 0, expected)
			if sweep.Best == 5 {
				continue
			}
			related := sweep.Best%5 == 0 || 5%sweep.Best == 0
			if !related || !sweep.Reduced {
				t.Fatalf("offset %d %s: best = %d reduced = %v (scores %v)", off, keyword, sweep.Best, sweep.Reduced, sweep.Scores)
			}
		}
	}
}

func TestSweepMaxPeriod(t *testing.T) {
	if (Sweep{}).MaxPeriod() != 0 {
		t.Fatalf("empty sweep max period should be 0")
	}
	sweep := Friedman(langmodel.Letters(nil, plaintext), 7, langmodel.English().ExpectedIoC())
	if sweep.MaxPeriod() != 7 {
		t.Fatalf("max period = %d, want 7", sweep.MaxPeriod())
	}
}
