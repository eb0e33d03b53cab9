package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/sentinel/internal/model"
)

// Analysis holds the statistics of a ciphertext without attempting a crack.
type Analysis struct {
	Family      model.Family        `json:"family" yaml:"family"`
	Symbols     int                 `json:"symbols" yaml:"symbols"`
	Letters     int                 `json:"letters" yaml:"letters"`
	IoC         float64             `json:"ioc" yaml:"ioc"`
	ExpectedIoC float64             `json:"expected_ioc" yaml:"expected_ioc"`
	ChiSquared  float64             `json:"chi_squared" yaml:"chi_squared"`
	NGram       float64             `json:"ngram_score" yaml:"ngram_score"`
	Method      model.Method        `json:"sweep_method,omitempty" yaml:"sweep_method,omitempty"`
	Period      int                 `json:"period,omitempty" yaml:"period,omitempty"`
	Sweep       []model.PeriodScore `json:"period_sweep,omitempty" yaml:"period_sweep,omitempty"`
	Kasiski     []model.PeriodVote  `json:"kasiski,omitempty" yaml:"kasiski,omitempty"`
}

// RenderAnalysis prints the statistics table followed by the period sweep and
// Kasiski votes when present.
func RenderAnalysis(w io.Writer, a Analysis, opts Options) error {
	rows := [][]string{
		{"Family", string(a.Family)},
		{"Symbols", strconv.Itoa(a.Symbols)},
		{"Letters", strconv.Itoa(a.Letters)},
		{"IoC", fmt.Sprintf("%.4f (language %.4f, random %.4f)", a.IoC, a.ExpectedIoC, 1.0/26)},
		{"Chi-squared", fmt.Sprintf("%.2f", a.ChiSquared)},
		{"N-gram score", fmt.Sprintf("%.3f", a.NGram)},
	}
	if a.Period > 0 {
		rows = append(rows, []string{"Estimated period", strconv.Itoa(a.Period)})
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	diag := &model.Diagnostics{PeriodSweep: a.Sweep, Period: a.Period}
	if err := renderSweep(w, a.Method, diag, opts); err != nil {
		return err
	}
	if len(a.Kasiski) > 0 {
		return renderVotes(w, a.Kasiski)
	}
	return nil
}
