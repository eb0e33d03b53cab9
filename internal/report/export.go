package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/sentinel/internal/model"
)

// Export is the serialized form of a crack result.
type Export struct {
	Family      string             `json:"family" yaml:"family"`
	Method      string             `json:"method" yaml:"method"`
	Key         string             `json:"key" yaml:"key"`
	Plaintext   string             `json:"plaintext" yaml:"plaintext"`
	Confidence  float64            `json:"confidence" yaml:"confidence"`
	Attempts    int                `json:"attempts" yaml:"attempts"`
	RunID       string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Diagnostics *ExportDiagnostics `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// ExportDiagnostics mirrors model.Diagnostics with keys rendered as strings.
type ExportDiagnostics struct {
	InsufficientData bool                   `json:"insufficient_data" yaml:"insufficient_data"`
	Reason           string                 `json:"reason,omitempty" yaml:"reason,omitempty"`
	Symbols          int                    `json:"symbols" yaml:"symbols"`
	RawScore         float64                `json:"raw_score" yaml:"raw_score"`
	Period           int                    `json:"period,omitempty" yaml:"period,omitempty"`
	PeriodReduced    bool                   `json:"period_reduced,omitempty" yaml:"period_reduced,omitempty"`
	PeriodSweep      []model.PeriodScore    `json:"period_sweep,omitempty" yaml:"period_sweep,omitempty"`
	Kasiski          []model.PeriodVote     `json:"kasiski,omitempty" yaml:"kasiski,omitempty"`
	ColumnConfidence []float64              `json:"column_confidence,omitempty" yaml:"column_confidence,omitempty"`
	Candidates       []ExportCandidate      `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	Restarts         []model.RestartOutcome `json:"restarts,omitempty" yaml:"restarts,omitempty"`
	Cancelled        bool                   `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
}

// ExportCandidate is one serialized candidate.
type ExportCandidate struct {
	Key        string  `json:"key" yaml:"key"`
	Score      float64 `json:"score" yaml:"score"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Plaintext  string  `json:"plaintext" yaml:"plaintext"`
}

// FromResult converts a crack result for serialization.
func FromResult(res model.CrackResult, runID string) Export {
	out := Export{
		Family:     string(res.Family),
		Method:     string(res.Method),
		Plaintext:  res.Plaintext,
		Confidence: res.Confidence,
		Attempts:   res.Attempts,
		RunID:      runID,
	}
	if res.Key != nil {
		out.Key = res.Key.String()
	}
	if d := res.Diagnostics; d != nil {
		ed := &ExportDiagnostics{
			InsufficientData: d.InsufficientData,
			Reason:           d.Reason,
			Symbols:          d.Symbols,
			RawScore:         d.RawScore,
			Period:           d.Period,
			PeriodReduced:    d.PeriodReduced,
			PeriodSweep:      d.PeriodSweep,
			Kasiski:          d.Kasiski,
			ColumnConfidence: d.ColumnConfidence,
			Restarts:         d.Restarts,
			Cancelled:        d.Cancelled,
		}
		for _, c := range d.Candidates {
			ed.Candidates = append(ed.Candidates, ExportCandidate{
				Key:        c.Key.String(),
				Score:      c.Score,
				Confidence: c.Confidence,
				Plaintext:  c.Plaintext,
			})
		}
		out.Diagnostics = ed
	}
	return out
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as a YAML document.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
