package crack

import (
	"github.com/verte-zerg/sentinel/internal/cipher"
	"github.com/verte-zerg/sentinel/internal/langmodel"
	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/period"
	"github.com/verte-zerg/sentinel/internal/search"
)

// kasiskiShown bounds the Kasiski votes kept in diagnostics.
const kasiskiShown = 10

// Vigenere estimates the period with the IoC sweep (unless cfg.Period forces
// it), cross-checks with Kasiski, then solves every column as a Caesar shift
// by chi-squared. A wrong period decrypts to noise; the sweep ranking in the
// diagnostics lists the periods worth retrying.
func Vigenere(text string, lm *langmodel.Model, cfg model.Config) model.CrackResult {
	letters := langmodel.Letters(nil, text)
	diag := &model.Diagnostics{Symbols: len(letters)}
	res := model.CrackResult{
		Family:      model.FamilyVigenere,
		Method:      model.MethodColumnwise,
		Plaintext:   text,
		Diagnostics: diag,
	}
	if len(letters) == 0 {
		insufficient(0, 0, MinVigenereLetters, diag, "letters")
		return res
	}

	sweep := period.Friedman(letters, cfg.MaxPeriod, lm.ExpectedIoC())
	kasiski := period.Kasiski(letters, cfg.KasiskiMin, sweep.MaxPeriod())
	diag.PeriodSweep = sweep.Scores
	diag.PeriodReduced = sweep.Reduced
	if len(kasiski.Votes) > kasiskiShown {
		diag.Kasiski = kasiski.Votes[:kasiskiShown]
	} else {
		diag.Kasiski = kasiski.Votes
	}

	k := cfg.Period
	if k == 0 {
		k = max(sweep.Best, 1)
	}
	diag.Period = k

	ss := shiftSearch(lm)
	keyword := make([]byte, k)
	confSum := 0.0
	for c, column := range period.Columns(letters, k) {
		for i := range column {
			column[i] += 'A'
		}
		res.Attempts += len(ss.Keys)
		ranked := search.Top(ss.Rank(string(column)), 1)
		if len(ranked) == 0 {
			keyword[c] = 'A'
			diag.ColumnConfidence = append(diag.ColumnConfidence, 0)
			continue
		}
		keyword[c] = 'A' + byte(ranked[0].Key)
		conf := chiConfidence(-ranked[0].Score)
		diag.ColumnConfidence = append(diag.ColumnConfidence, conf)
		confSum += conf
	}

	if p := minimalPeriod(keyword); p < k {
		keyword = keyword[:p]
		diag.Period = p
		diag.PeriodReduced = true
	}
	res.Key = model.KeywordKey(keyword)
	res.Plaintext = cipher.Vigenere(text, cipher.Shifts(string(keyword)), true)
	res.Confidence = insufficient(confSum/float64(k), len(letters), MinVigenereLetters, diag, "letters")
	return res
}
