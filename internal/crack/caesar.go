package crack

import (
	"github.com/verte-zerg/sentinel/internal/cipher"
	"github.com/verte-zerg/sentinel/internal/langmodel"
	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/score"
	"github.com/verte-zerg/sentinel/internal/search"
)

// shiftSearch ranks the 26 Caesar shifts by negated chi-squared.
func shiftSearch(lm *langmodel.Model) search.Exhaustive[int] {
	keys := make([]int, 26)
	for i := range keys {
		keys[i] = i
	}
	return search.Exhaustive[int]{
		Keys: keys,
		Decrypt: func(ct string, shift int) string {
			return cipher.Shift(ct, 26-shift)
		},
		Score: func(plain string) float64 {
			return -score.ChiSquared(plain, lm)
		},
		Scorable: hasLetter,
	}
}

// Caesar tries all 26 shifts and keeps the best chi-squared fit. The top
// ranked candidates are kept in the diagnostics.
func Caesar(text string, lm *langmodel.Model, top int) model.CrackResult {
	diag := &model.Diagnostics{Symbols: len(langmodel.Letters(nil, text))}
	res := model.CrackResult{
		Family:      model.FamilyShift,
		Method:      model.MethodChiSquared,
		Plaintext:   text,
		Diagnostics: diag,
	}

	ranked := shiftSearch(lm).Rank(text)
	if len(ranked) == 0 {
		insufficient(0, 0, MinCaesarLetters, diag, "letters")
		return res
	}

	best := ranked[0]
	chi := -best.Score
	res.Key = model.ShiftKey(best.Key)
	res.Plaintext = best.Plaintext
	res.Attempts = len(ranked)
	diag.RawScore = chi
	for _, c := range search.Top(ranked, top) {
		diag.Candidates = append(diag.Candidates, model.Candidate{
			Key:        model.ShiftKey(c.Key),
			Plaintext:  c.Plaintext,
			Score:      c.Score,
			Confidence: chiConfidence(-c.Score),
		})
	}
	res.Confidence = insufficient(chiConfidence(chi), diag.Symbols, MinCaesarLetters, diag, "letters")
	return res
}

func hasLetter(text string) bool {
	for i := 0; i < len(text); i++ {
		if _, ok := langmodel.Index(text[i]); ok {
			return true
		}
	}
	return false
}
