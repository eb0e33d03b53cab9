package report

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/store"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Key", "Score", "Rank"}
	rows := [][]string{
		{"a", "97.50", "12"},
		{"<space>", "8.00", "3"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true})
	want := []string{
		"Key     Score Rank",
		"a       97.50   12",
		"<space>  8.00    3",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestPlotRender(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	err := Plot{Title: "Sweep", Width: 20, Height: 4, XLabels: [2]string{"1", "5"}, Color: true}.
		Render(&buf, Series{Name: "ioc", Values: []float64{0.04, 0.045, 0.04, 0.042, 0.066}})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected NO_COLOR to suppress escapes")
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// title, 4 rows, x labels, legend
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "0.066") || !strings.Contains(lines[4], "0.040") {
		t.Fatalf("expected axis bounds in output:\n%s", out)
	}
	if !strings.HasPrefix(lines[6], "Legend: ioc") {
		t.Fatalf("unexpected legend %q", lines[6])
	}
}

func TestPlotRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (Plot{}).Render(&buf, Series{Name: "none"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty series")
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got != 80-axisLabelWidth-3 {
		t.Fatalf("unexpected width %d", got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestMovingAverageAndSparkline(t *testing.T) {
	avg := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if avg[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, avg)
		}
	}
	if got := Sparkline([]float64{0, 50, 100}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}

func sampleResult() model.CrackResult {
	return model.CrackResult{
		Family:     model.FamilyVigenere,
		Key:        model.KeywordKey("LEMON"),
		Plaintext:  "ATTACKATDAWN",
		Confidence: 0.42,
		Method:     model.MethodColumnwise,
		Attempts:   130,
		Diagnostics: &model.Diagnostics{
			InsufficientData: true,
			Reason:           "12 letters, need 20",
			Period:           5,
			PeriodSweep:      []model.PeriodScore{{Period: 1, Value: 0.04}, {Period: 2, Value: 0.045}, {Period: 5, Value: 0.066}},
			Kasiski:          []model.PeriodVote{{Period: 5, Votes: 3}},
			Candidates: []model.Candidate{
				{Key: model.KeywordKey("LEMON"), Plaintext: "ATTACKATDAWN", Score: -30, Confidence: 0.42},
			},
		},
	}
}

func TestRenderResult(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderResult(&buf, sampleResult(), Options{Width: 60, Verbose: true}); err != nil {
		t.Fatalf("RenderResult failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"LEMON", "42.0%", "insufficient data", "Candidates", "Friedman sweep", "Kasiski", "ATTACKATDAWN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderResult(&buf, sampleResult(), Options{}); err != nil {
		t.Fatalf("RenderResult failed: %v", err)
	}
	if strings.Contains(buf.String(), "Kasiski") {
		t.Fatalf("expected diagnostics hidden without verbose")
	}
}

func TestExportFormats(t *testing.T) {
	exp := FromResult(sampleResult(), "run-1")
	var js bytes.Buffer
	if err := WriteJSON(&js, exp); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["key"] != "LEMON" || decoded["run_id"] != "run-1" {
		t.Fatalf("unexpected json %s", js.String())
	}

	var ym bytes.Buffer
	if err := WriteYAML(&ym, exp); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	var back Export
	if err := yaml.Unmarshal(ym.Bytes(), &back); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if back.Diagnostics == nil || back.Diagnostics.Period != 5 || len(back.Diagnostics.Candidates) != 1 {
		t.Fatalf("unexpected yaml round trip %+v", back.Diagnostics)
	}
}

func TestBuildHistory(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := st.InsertRun(ctx, model.Run{
			CreatedAt:  time.Unix(0, 0).Add(time.Duration(i) * time.Minute),
			Family:     model.FamilyShift,
			Method:     model.MethodChiSquared,
			Key:        "3",
			Plaintext:  "HELLO",
			Confidence: float64(i+1) / 4,
			Attempts:   26,
		}, nil)
		if err != nil {
			t.Fatalf("insert run: %v", err)
		}
		ids = append(ids, id)
	}

	h, err := BuildHistory(ctx, st, model.HistoryConfig{Last: 2, CurveWindow: 2})
	if err != nil {
		t.Fatalf("build history: %v", err)
	}
	if len(h.Runs) != 2 || h.Runs[0].ID != ids[1] || h.Runs[1].ID != ids[2] {
		t.Fatalf("unexpected runs %+v", h.Runs)
	}
	if len(h.Aggregates) != 1 || h.Aggregates[0].Runs != 2 {
		t.Fatalf("unexpected aggregates %+v", h.Aggregates)
	}

	var buf bytes.Buffer
	if err := RenderHistory(&buf, h, Options{Width: 60}); err != nil {
		t.Fatalf("RenderHistory failed: %v", err)
	}
	for _, want := range []string{"Runs: 2", "chi_squared", "Confidence"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, buf.String())
		}
	}
}
