package crack

import (
	"fmt"
	"math"

	"github.com/verte-zerg/sentinel/internal/langmodel"
	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/score"
)

// chiScale is the chi-squared value that maps to zero confidence.
const chiScale = 500

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func chiConfidence(chi float64) float64 {
	return clamp01(1 - chi/chiScale)
}

// ngramConfidence places the mean log probability per gram between the floor
// (0) and what text drawn from the model itself would score (1).
func ngramConfidence(total float64, letters, n int, lm *langmodel.Model) float64 {
	grams := letters - n + 1
	if grams <= 0 {
		return 0
	}
	avg := total / float64(grams)
	floor := lm.Floor(n)
	return clamp01((avg - floor) / (lm.ExpectedLogProb(n) - floor))
}

func bytesConfidence(s float64, lm *langmodel.Model) float64 {
	return clamp01(s / score.ExpectedBytes(lm))
}

// insufficient flags diag and scales conf down when have < need.
func insufficient(conf float64, have, need int, diag *model.Diagnostics, what string) float64 {
	if have >= need {
		return conf
	}
	diag.InsufficientData = true
	diag.Reason = fmt.Sprintf("only %d %s, need at least %d", have, what, need)
	return conf * float64(have) / float64(need)
}

// minimalPeriod returns the length of the shortest block that repeats to form b.
func minimalPeriod(b []byte) int {
	for p := 1; p < len(b); p++ {
		if len(b)%p != 0 {
			continue
		}
		ok := true
		for i := p; i < len(b); i++ {
			if b[i] != b[i-p] {
				ok = false
				break
			}
		}
		if ok {
			return p
		}
	}
	return len(b)
}
