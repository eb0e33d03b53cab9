package period

import (
	"math"

	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/score"
)

const (
	// DefaultMaxPeriod bounds the sweep for ordinary ciphertexts.
	DefaultMaxPeriod = 20
	// LongMaxPeriod bounds the sweep once the text has LongText letters.
	LongMaxPeriod = 40
	LongText      = 1000

	randomIoC = 1.0 / 26
	// iocBand is the share of the language-to-random IoC gap within which a
	// period counts as monoalphabetic columns.
	iocBand = 0.25
)

// Friedman sweeps periods 1..maxPeriod, averaging the index of coincidence of
// the interleaved columns. Periods are ranked by how far their average falls
// short of expected; the estimate is the smallest period whose average is
// within a band below expected, or the least short one when none is.
// maxPeriod <= 0 picks 20, or 40 for long texts. The sweep stops at half the
// text length so every column has at least two letters.
func Friedman(letters []byte, maxPeriod int, expected float64) Sweep {
	if maxPeriod <= 0 {
		maxPeriod = DefaultMaxPeriod
		if len(letters) >= LongText {
			maxPeriod = LongMaxPeriod
		}
	}
	if limit := len(letters) / 2; maxPeriod > limit {
		maxPeriod = limit
	}

	sweep := Sweep{}
	costs := make(map[int]float64, maxPeriod)
	for k := 1; k <= maxPeriod; k++ {
		sum := 0.0
		for _, column := range Columns(letters, k) {
			sum += score.IndexOfCoincidence(column)
		}
		avg := sum / float64(k)
		sweep.Scores = append(sweep.Scores, model.PeriodScore{Period: k, Value: avg})
		// Short columns push the IoC above the language value, so only a
		// shortfall counts against a period.
		costs[k] = math.Max(0, expected-avg)
	}

	band := math.Abs(expected-randomIoC) * iocBand
	sweep.Ranked, sweep.Best, sweep.Reduced = rank(costs, func(float64) float64 { return band })
	return sweep
}

// Columns splits letters into k interleaved streams.
func Columns(letters []byte, k int) [][]byte {
	if k <= 0 {
		return nil
	}
	cols := make([][]byte, k)
	for i, l := range letters {
		cols[i%k] = append(cols[i%k], l)
	}
	return cols
}
