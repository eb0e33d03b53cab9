package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/sentinel/internal/model"
)

// Options controls text rendering.
type Options struct {
	// Width is the total terminal width; 0 detects it.
	Width int
	Color bool
	// Verbose adds sweeps, Kasiski votes and restart outcomes.
	Verbose bool
}

const previewWidth = 48

// RenderResult prints a crack result: key, confidence, plaintext and, when
// present, the candidate ranking and diagnostics.
func RenderResult(w io.Writer, res model.CrackResult, opts Options) error {
	key := "-"
	if res.Key != nil {
		key = res.Key.String()
	}
	lines := [][]string{
		{"Family", string(res.Family)},
		{"Method", string(res.Method)},
		{"Key", key},
		{"Confidence", fmt.Sprintf("%.1f%%", res.Confidence*100)},
		{"Attempts", strconv.Itoa(res.Attempts)},
	}
	diag := res.Diagnostics
	if diag != nil && diag.Period > 0 {
		period := strconv.Itoa(diag.Period)
		if diag.PeriodReduced {
			period += " (reduced)"
		}
		lines = append(lines, []string{"Period", period})
	}
	for _, line := range formatTable(nil, lines, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if diag != nil && diag.InsufficientData {
		if _, err := fmt.Fprintf(w, "Warning: insufficient data: %s\n", diag.Reason); err != nil {
			return err
		}
	}
	if diag != nil && diag.Cancelled {
		if _, err := fmt.Fprintln(w, "Warning: search cancelled; best result so far"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nPlaintext\n%s\n", res.Plaintext); err != nil {
		return err
	}
	if diag == nil {
		return nil
	}
	if err := renderCandidates(w, diag.Candidates); err != nil {
		return err
	}
	if !opts.Verbose {
		return nil
	}
	if err := renderSweep(w, res.Method, diag, opts); err != nil {
		return err
	}
	if err := renderVotes(w, diag.Kasiski); err != nil {
		return err
	}
	if err := renderColumns(w, diag.ColumnConfidence); err != nil {
		return err
	}
	return renderRestarts(w, diag.Restarts)
}

func renderCandidates(w io.Writer, cands []model.Candidate) error {
	if len(cands) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(cands))
	for i, c := range cands {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Key.String(),
			fmt.Sprintf("%.2f", c.Score),
			fmt.Sprintf("%.1f%%", c.Confidence*100),
			preview(c.Plaintext, previewWidth),
		})
	}
	return writeSection(w, "Candidates",
		formatTable([]string{"#", "Key", "Score", "Confidence", "Plaintext"}, rows, map[int]bool{0: true, 2: true, 3: true}))
}

func renderSweep(w io.Writer, method model.Method, diag *model.Diagnostics, opts Options) error {
	if len(diag.PeriodSweep) == 0 {
		return nil
	}
	values := make([]float64, len(diag.PeriodSweep))
	var marks []int
	for i, s := range diag.PeriodSweep {
		values[i] = s.Value
		if s.Period == diag.Period {
			marks = append(marks, i)
		}
	}
	name, title := "avg IoC", "Friedman sweep"
	if method == model.MethodHammingColumnXOR {
		name, title = "normalized distance", "Hamming sweep"
	}
	width := 0
	if opts.Width > 0 {
		width = PlotWidthFor(opts.Width)
	}
	first, last := diag.PeriodSweep[0].Period, diag.PeriodSweep[len(diag.PeriodSweep)-1].Period
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return Plot{
		Title:   fmt.Sprintf("%s (periods %d-%d)", title, first, last),
		Width:   width,
		XLabels: [2]string{strconv.Itoa(first), strconv.Itoa(last)},
		Color:   opts.Color,
		Marks:   marks,
	}.Render(w, Series{Name: name, Values: values})
}

func renderVotes(w io.Writer, votes []model.PeriodVote) error {
	if len(votes) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(votes))
	for _, v := range votes {
		rows = append(rows, []string{strconv.Itoa(v.Period), strconv.Itoa(v.Votes)})
	}
	return writeSection(w, "Kasiski", formatTable([]string{"Period", "Votes"}, rows, map[int]bool{0: true, 1: true}))
}

func renderColumns(w io.Writer, conf []float64) error {
	if len(conf) == 0 {
		return nil
	}
	parts := make([]string, len(conf))
	for i, c := range conf {
		parts[i] = fmt.Sprintf("%.0f%%", c*100)
	}
	return writeSection(w, "Column confidence", []string{strings.Join(parts, " ")})
}

func renderRestarts(w io.Writer, restarts []model.RestartOutcome) error {
	if len(restarts) == 0 {
		return nil
	}
	scores := make([]float64, len(restarts))
	rows := make([][]string, 0, len(restarts))
	for i, r := range restarts {
		scores[i] = r.Score
		rows = append(rows, []string{
			strconv.Itoa(r.Restart),
			fmt.Sprintf("%.2f", r.Score),
			strconv.Itoa(r.Accepted),
			strconv.Itoa(r.Iterations),
		})
	}
	lines := formatTable([]string{"Restart", "Score", "Accepted", "Iterations"}, rows, map[int]bool{0: true, 1: true, 2: true, 3: true})
	lines = append(lines, "Scores: "+Sparkline(scores))
	return writeSection(w, "Restarts", lines)
}

func writeSection(w io.Writer, title string, lines []string) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
