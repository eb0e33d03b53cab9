package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/store"
)

const sparkChars = " .:-=+*#%@"

// History contains precomputed data for history rendering.
type History struct {
	Runs       []model.Run
	Aggregates []model.MethodAggregate
	Window     int
}

// BuildHistory loads runs matching cfg and their per-method aggregates.
func BuildHistory(ctx context.Context, st *store.Store, cfg model.HistoryConfig) (History, error) {
	runs, err := st.ListRuns(ctx, cfg)
	if err != nil {
		return History{}, err
	}
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	aggs, err := st.MethodAggregates(ctx, ids)
	if err != nil {
		return History{}, err
	}
	return History{Runs: runs, Aggregates: aggs, Window: cfg.CurveWindow}, nil
}

// Confidences returns run confidences in percent, oldest first.
func (h History) Confidences() []float64 {
	values := make([]float64, len(h.Runs))
	for i, r := range h.Runs {
		values[i] = r.Confidence * 100
	}
	return values
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[min(max(idx, 0), len(sparkChars)-1)])
	}
	return b.String()
}

// RenderHistory prints the summary, per-method table and confidence curve.
func RenderHistory(w io.Writer, h History, opts Options) error {
	if len(h.Runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	if err := renderSummary(w, h); err != nil {
		return err
	}
	if err := renderMethods(w, h.Aggregates); err != nil {
		return err
	}
	if err := renderRecent(w, h.Runs); err != nil {
		return err
	}
	curve := MovingAverage(h.Confidences(), h.Window)
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	width := 0
	if opts.Width > 0 {
		width = PlotWidthFor(opts.Width)
	}
	return Plot{
		Title:   "Confidence (%, moving average)",
		Width:   width,
		XLabels: [2]string{"oldest", "newest"},
		Color:   opts.Color,
	}.Render(w, Series{Name: "confidence", Values: curve})
}

func renderSummary(w io.Writer, h History) error {
	var total float64
	insufficient := 0
	for _, r := range h.Runs {
		total += r.Confidence
		if r.InsufficientData {
			insufficient++
		}
	}
	lines := []string{
		fmt.Sprintf("Runs: %d", len(h.Runs)),
		fmt.Sprintf("Avg confidence: %.1f%%", total/float64(len(h.Runs))*100),
		fmt.Sprintf("Insufficient data: %d", insufficient),
		"Trend: " + Sparkline(h.Confidences()),
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func renderMethods(w io.Writer, aggs []model.MethodAggregate) error {
	if len(aggs) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(aggs))
	for _, a := range aggs {
		rows = append(rows, []string{
			string(a.Method),
			strconv.Itoa(a.Runs),
			fmt.Sprintf("%.1f%%", a.AvgConfidence*100),
			strconv.Itoa(a.Insufficient),
			strconv.FormatInt(a.Attempts, 10),
		})
	}
	return writeSection(w, "Per-Method",
		formatTable([]string{"Method", "Runs", "Avg Confidence", "Insufficient", "Attempts"}, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}))
}

const recentRuns = 10

func renderRecent(w io.Writer, runs []model.Run) error {
	if len(runs) > recentRuns {
		runs = runs[len(runs)-recentRuns:]
	}
	rows := make([][]string, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		rows = append(rows, []string{
			r.ID[:min(8, len(r.ID))],
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Family),
			preview(r.Key, 26),
			fmt.Sprintf("%.1f%%", r.Confidence*100),
			preview(r.Plaintext, 32),
		})
	}
	return writeSection(w, "Recent",
		formatTable([]string{"ID", "When", "Family", "Key", "Confidence", "Plaintext"}, rows, map[int]bool{4: true}))
}
