package crack

import (
	"github.com/verte-zerg/sentinel/internal/cipher"
	"github.com/verte-zerg/sentinel/internal/langmodel"
	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/period"
	"github.com/verte-zerg/sentinel/internal/score"
	"github.com/verte-zerg/sentinel/internal/search"
)

// byteSearch ranks the 256 single-byte keys by the English byte heuristic.
func byteSearch(lm *langmodel.Model) search.Exhaustive[byte] {
	keys := make([]byte, 256)
	for i := range keys {
		keys[i] = byte(i)
	}
	return search.Exhaustive[byte]{
		Keys: keys,
		Decrypt: func(ct string, key byte) string {
			return cipher.XOR(ct, []byte{key})
		},
		Score: func(plain string) float64 {
			return score.Bytes([]byte(plain), lm)
		},
	}
}

// SingleByteXOR tries all 256 one-byte keys.
func SingleByteXOR(data []byte, lm *langmodel.Model, top int) model.CrackResult {
	diag := &model.Diagnostics{Symbols: len(data)}
	res := model.CrackResult{
		Family:      model.FamilyXOR,
		Method:      model.MethodSingleByteXOR,
		Plaintext:   string(data),
		Diagnostics: diag,
	}

	ranked := byteSearch(lm).Rank(string(data))
	if len(ranked) == 0 {
		insufficient(0, 0, MinSingleByteXOR, diag, "bytes")
		return res
	}

	best := ranked[0]
	res.Key = model.ByteKey{best.Key}
	res.Plaintext = best.Plaintext
	res.Attempts = len(ranked)
	diag.RawScore = best.Score
	diag.Period = 1
	for _, c := range search.Top(ranked, top) {
		diag.Candidates = append(diag.Candidates, model.Candidate{
			Key:        model.ByteKey{c.Key},
			Plaintext:  c.Plaintext,
			Score:      c.Score,
			Confidence: bytesConfidence(c.Score, lm),
		})
	}
	res.Confidence = insufficient(bytesConfidence(best.Score, lm), len(data), MinSingleByteXOR, diag, "bytes")
	return res
}

// RepeatingXOR estimates the key length from normalized Hamming distances
// (unless cfg.KeyLength forces it), then solves each interleaved byte column
// as a single-byte XOR. A detected length of one is a single-byte attack.
func RepeatingXOR(data []byte, lm *langmodel.Model, cfg model.Config) model.CrackResult {
	var sweep period.Sweep
	k := cfg.KeyLength
	if k == 0 {
		maxLen := cfg.MaxPeriod
		if maxLen == 0 {
			maxLen = period.DefaultMaxKeyLength
		}
		sweep = period.Hamming(data, 1, maxLen, 0)
		k = max(sweep.Best, 1)
	}

	if k == 1 {
		res := SingleByteXOR(data, lm, cfg.Top)
		res.Diagnostics.PeriodSweep = sweep.Scores
		res.Diagnostics.PeriodReduced = sweep.Reduced
		return res
	}

	diag := &model.Diagnostics{
		Symbols:       len(data),
		Period:        k,
		PeriodReduced: sweep.Reduced,
		PeriodSweep:   sweep.Scores,
	}
	res := model.CrackResult{
		Family:      model.FamilyXOR,
		Method:      model.MethodHammingColumnXOR,
		Plaintext:   string(data),
		Diagnostics: diag,
	}
	if len(data) == 0 {
		insufficient(0, 0, MinXORBytesPerKeyByte*k, diag, "bytes")
		return res
	}

	bs := byteSearch(lm)
	key := make([]byte, k)
	confSum, colScored := 0.0, 0
	for i, col := range period.Columns(data, k) {
		ranked := bs.Rank(string(col))
		res.Attempts += len(bs.Keys)
		if len(ranked) == 0 {
			diag.ColumnConfidence = append(diag.ColumnConfidence, 0)
			continue
		}
		key[i] = ranked[0].Key
		c := bytesConfidence(ranked[0].Score, lm)
		diag.ColumnConfidence = append(diag.ColumnConfidence, c)
		confSum += c
		colScored++
	}

	if p := minimalPeriod(key); p < k {
		key = key[:p]
		diag.Period = p
		diag.PeriodReduced = true
	}
	res.Key = model.ByteKey(key)
	res.Plaintext = cipher.XOR(string(data), key)
	diag.RawScore = score.Bytes([]byte(res.Plaintext), lm)
	conf := 0.0
	if colScored > 0 {
		conf = confSum / float64(k)
	}
	res.Confidence = insufficient(conf, len(data), MinXORBytesPerKeyByte*k, diag, "bytes")
	return res
}
