package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/sentinel/internal/config"
	"github.com/verte-zerg/sentinel/internal/historyui"
	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/report"
	"github.com/verte-zerg/sentinel/internal/store"
)

var (
	historyFamily      string
	historySince       string
	historyLast        int
	historyCurveWindow int
	historyPlain       bool
	historyDB          string
	historyFormat      string
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded crack runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.PersistentFlags().StringVar(&historyDB, "db", "", "history database path (default under XDG data home)")
	cmd.Flags().StringVarP(&historyFamily, "family", "f", "", "family filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N runs")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a text report instead of the interactive view")
	cmd.AddCommand(newHistoryShowCmd())
	return cmd
}

func historyConfigFrom(cmd *cobra.Command, fileCfg config.FileConfig) (model.HistoryConfig, error) {
	applyIntConfig(cmd, "curve-window", &historyCurveWindow, fileCfg.History.CurveWindow)
	if historyCurveWindow <= 0 {
		return model.HistoryConfig{}, fmt.Errorf("--curve-window must be greater than 0")
	}
	if historyLast < 0 {
		return model.HistoryConfig{}, fmt.Errorf("--last must be >= 0")
	}

	var sinceTime *time.Time
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return model.HistoryConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	var family model.Family
	if historyFamily != "" {
		var ok bool
		if family, ok = model.ParseFamily(historyFamily); !ok {
			return model.HistoryConfig{}, fmt.Errorf("unknown family %q", historyFamily)
		}
	}
	return model.HistoryConfig{
		Family:      family,
		Since:       sinceTime,
		Last:        historyLast,
		CurveWindow: historyCurveWindow,
	}, nil
}

func openHistoryStore(fileCfg config.FileConfig) (*store.Store, error) {
	path := historyDB
	if path == "" {
		path = historyDBPath(fileCfg)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := historyConfigFrom(cmd, fileCfg)
	if err != nil {
		return err
	}
	st, err := openHistoryStore(fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if historyPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		h, err := report.BuildHistory(commandContext(cmd), st, cfg)
		if err != nil {
			return err
		}
		opts := report.Options{}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			opts.Width = report.TerminalWidth()
		}
		return report.RenderHistory(cmd.OutOrStdout(), h, opts)
	}

	ui := historyui.NewModel(st, cfg)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run with its candidates",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
	cmd.Flags().StringVar(&historyFormat, "format", "text", "output format: text, json, yaml")
	return cmd
}

// storedRun is the serialized form of a recorded run.
type storedRun struct {
	ID               string            `json:"id" yaml:"id"`
	CreatedAt        time.Time         `json:"created_at" yaml:"created_at"`
	Family           string            `json:"family" yaml:"family"`
	Method           string            `json:"method" yaml:"method"`
	Key              string            `json:"key" yaml:"key"`
	Confidence       float64           `json:"confidence" yaml:"confidence"`
	Attempts         int               `json:"attempts" yaml:"attempts"`
	InsufficientData bool              `json:"insufficient_data" yaml:"insufficient_data"`
	Seed             int64             `json:"seed" yaml:"seed"`
	DurationMs       int64             `json:"duration_ms" yaml:"duration_ms"`
	Ciphertext       string            `json:"ciphertext" yaml:"ciphertext"`
	Plaintext        string            `json:"plaintext" yaml:"plaintext"`
	Candidates       []storedCandidate `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

type storedCandidate struct {
	Rank       int     `json:"rank" yaml:"rank"`
	Key        string  `json:"key" yaml:"key"`
	Score      float64 `json:"score" yaml:"score"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Plaintext  string  `json:"plaintext" yaml:"plaintext"`
}

func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, err := openHistoryStore(fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := commandContext(cmd)
	run, ok, err := st.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %q not found", args[0])
	}
	cands, err := st.ListCandidates(ctx, run.ID)
	if err != nil {
		return err
	}

	out := storedRun{
		ID:               run.ID,
		CreatedAt:        run.CreatedAt,
		Family:           string(run.Family),
		Method:           string(run.Method),
		Key:              run.Key,
		Confidence:       run.Confidence,
		Attempts:         run.Attempts,
		InsufficientData: run.InsufficientData,
		Seed:             run.Seed,
		DurationMs:       run.DurationMs,
		Ciphertext:       run.Ciphertext,
		Plaintext:        run.Plaintext,
	}
	for _, c := range cands {
		out.Candidates = append(out.Candidates, storedCandidate{
			Rank:       c.Rank,
			Key:        c.Key,
			Score:      c.Score,
			Confidence: c.Confidence,
			Plaintext:  c.Plaintext,
		})
	}

	w := cmd.OutOrStdout()
	switch historyFormat {
	case "json":
		return report.WriteJSON(w, out)
	case "yaml":
		return report.WriteYAML(w, out)
	case "text":
	default:
		return fmt.Errorf("--format must be text, json, or yaml")
	}

	lines := []string{
		"Run:        " + out.ID,
		"Created:    " + out.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		"Family:     " + out.Family,
		"Method:     " + out.Method,
		"Key:        " + out.Key,
		fmt.Sprintf("Confidence: %.1f%%", out.Confidence*100),
		"Attempts:   " + strconv.Itoa(out.Attempts),
		"Seed:       " + strconv.FormatInt(out.Seed, 10),
		fmt.Sprintf("Duration:   %dms", out.DurationMs),
	}
	if out.InsufficientData {
		lines = append(lines, "Warning: insufficient data")
	}
	lines = append(lines, "", "Plaintext", out.Plaintext)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(out.Candidates) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nCandidates"); err != nil {
		return err
	}
	for _, c := range out.Candidates {
		if _, err := fmt.Fprintf(w, "%2d. %s  %.1f%%  %s\n", c.Rank, c.Key, c.Confidence*100, c.Plaintext); err != nil {
			return err
		}
	}
	return nil
}
