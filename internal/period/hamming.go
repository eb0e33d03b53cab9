package period

import (
	"math/bits"

	"github.com/verte-zerg/sentinel/internal/model"
)

const (
	// DefaultMaxKeyLength bounds the Hamming sweep.
	DefaultMaxKeyLength = 40
	// hammingTolerance is the relative slack a shorter length may have over
	// the best normalized distance and still be preferred.
	hammingTolerance = 0.1
)

// Distance returns the number of differing bits between a and b, which must
// have equal length.
func Distance(a, b []byte) int {
	n := 0
	for i := range a {
		n += bits.OnesCount8(a[i] ^ b[i])
	}
	return n
}

// Hamming scores key lengths minLen..maxLen by the mean Hamming distance of
// consecutive k-byte blocks divided by k. Lower is better. Lengths with fewer
// than two complete blocks are skipped. maxBlocks > 0 limits how many leading
// blocks are compared; otherwise every complete block is used. The estimate is
// the shortest length within ten percent of the lowest distance.
func Hamming(data []byte, minLen, maxLen, maxBlocks int) Sweep {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxKeyLength
	}

	sweep := Sweep{}
	costs := make(map[int]float64)
	for k := minLen; k <= maxLen; k++ {
		blocks := len(data) / k
		if maxBlocks > 0 && blocks > maxBlocks {
			blocks = maxBlocks
		}
		if blocks < 2 {
			break
		}
		total := 0
		for b := 0; b+1 < blocks; b++ {
			total += Distance(data[b*k:(b+1)*k], data[(b+1)*k:(b+2)*k])
		}
		norm := float64(total) / float64(blocks-1) / float64(k)
		sweep.Scores = append(sweep.Scores, model.PeriodScore{Period: k, Value: norm})
		costs[k] = norm
	}

	sweep.Ranked, sweep.Best, sweep.Reduced = rank(costs, func(best float64) float64 {
		return best * (1 + hammingTolerance)
	})
	return sweep
}
