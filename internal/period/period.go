// Package period estimates the length of a repeating key from ciphertext alone.
package period

import (
	"math"
	"sort"

	"github.com/verte-zerg/sentinel/internal/model"
)

// Sweep is the outcome of scoring every candidate period in a range.
type Sweep struct {
	// Scores holds one entry per tested period, in ascending period order.
	Scores []model.PeriodScore
	// Ranked lists tested periods from most to least likely.
	Ranked []int
	// Best is the estimate. Zero when no period could be tested.
	Best int
	// Reduced is set when Best is not the lowest-cost period.
	Reduced bool
}

// Score returns the value recorded for period p.
func (s Sweep) Score(p int) (float64, bool) {
	for _, sc := range s.Scores {
		if sc.Period == p {
			return sc.Value, true
		}
	}
	return 0, false
}

// MaxPeriod returns the longest period the sweep tested, or 0 for an empty sweep.
func (s Sweep) MaxPeriod() int {
	if len(s.Scores) == 0 {
		return 0
	}
	return s.Scores[len(s.Scores)-1].Period
}

// rank orders periods by cost, lowest first, and picks the estimate: the
// smallest period whose cost is within slack(best cost) of zero, falling back
// to the lowest-cost period. Multiples of the true period cost about as much
// as the period itself, so the smallest acceptable one is the fundamental.
func rank(costs map[int]float64, slack func(best float64) float64) ([]int, int, bool) {
	if len(costs) == 0 {
		return nil, 0, false
	}
	periods := make([]int, 0, len(costs))
	for p := range costs {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		ci, cj := costs[periods[i]], costs[periods[j]]
		if ci != cj {
			return ci < cj
		}
		return periods[i] < periods[j]
	})

	top := periods[0]
	limit := math.Max(costs[top], slack(costs[top]))
	best := top
	for p := 1; p < top; p++ {
		if c, ok := costs[p]; ok && c <= limit {
			best = p
			break
		}
	}

	ranked := make([]int, 0, len(periods))
	ranked = append(ranked, best)
	for _, p := range periods {
		if p != best {
			ranked = append(ranked, p)
		}
	}
	return ranked, best, best != top
}
