package period

import (
	"sort"

	"github.com/verte-zerg/sentinel/internal/model"
)

// DefaultMinRepeat is the shortest repeated sequence Kasiski considers.
const DefaultMinRepeat = 3

// Repeat is a letter sequence that occurs more than once.
type Repeat struct {
	Sequence  string
	Positions []int
	// GCD is the greatest common divisor of all pairwise distances.
	GCD int
}

// KasiskiResult ranks candidate periods by repeated-sequence distances.
type KasiskiResult struct {
	Repeats []Repeat
	// Votes counts, per candidate period, the distances it divides. Sorted by
	// votes, larger periods first on ties.
	Votes []model.PeriodVote
}

// Best returns the top-voted period, or 0 when nothing repeated.
func (r KasiskiResult) Best() int {
	if len(r.Votes) == 0 {
		return 0
	}
	return r.Votes[0].Period
}

// Kasiski finds every sequence of minLen letters that recurs, records the
// distances between each pair of its occurrences, and lets every distance
// vote for each period in 2..maxPeriod that divides it. Short texts simply
// produce few or no votes.
func Kasiski(letters []byte, minLen, maxPeriod int) KasiskiResult {
	if minLen <= 0 {
		minLen = DefaultMinRepeat
	}
	if maxPeriod <= 0 {
		maxPeriod = DefaultMaxPeriod
	}
	result := KasiskiResult{}
	if len(letters) < 2*minLen {
		return result
	}

	positions := make(map[string][]int)
	order := []string{}
	for i := 0; i+minLen <= len(letters); i++ {
		seq := string(letters[i : i+minLen])
		if _, ok := positions[seq]; !ok {
			order = append(order, seq)
		}
		positions[seq] = append(positions[seq], i)
	}

	votes := make(map[int]int)
	for _, seq := range order {
		pos := positions[seq]
		if len(pos) < 2 {
			continue
		}
		g := 0
		for i := 0; i < len(pos); i++ {
			for j := i + 1; j < len(pos); j++ {
				d := pos[j] - pos[i]
				g = gcd(g, d)
				for f := 2; f <= maxPeriod && f <= d; f++ {
					if d%f == 0 {
						votes[f]++
					}
				}
			}
		}
		result.Repeats = append(result.Repeats, Repeat{
			Sequence:  lettersString(seq),
			Positions: pos,
			GCD:       g,
		})
	}

	for p, v := range votes {
		result.Votes = append(result.Votes, model.PeriodVote{Period: p, Votes: v})
	}
	sort.Slice(result.Votes, func(i, j int) bool {
		if result.Votes[i].Votes != result.Votes[j].Votes {
			return result.Votes[i].Votes > result.Votes[j].Votes
		}
		return result.Votes[i].Period > result.Votes[j].Period
	})
	return result
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lettersString(seq string) string {
	out := []byte(seq)
	for i, l := range out {
		out[i] = 'A' + l
	}
	return string(out)
}
