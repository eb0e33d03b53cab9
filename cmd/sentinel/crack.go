package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/sentinel/internal/config"
	"github.com/verte-zerg/sentinel/internal/crack"
	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/report"
	"github.com/verte-zerg/sentinel/internal/store"
	"github.com/verte-zerg/sentinel/internal/tui"
)

var (
	crackFamily      string
	crackIn          string
	crackEncoding    string
	crackTop         int
	crackRestarts    int
	crackIterations  int
	crackNGram       int
	crackTemperature float64
	crackCooling     float64
	crackWorkers     int
	crackSeed        int64
	crackMaxPeriod   int
	crackKasiskiMin  int
	crackPeriod      int
	crackKeyLength   int
	crackModel       string
	crackFormat      string
	crackLive        bool
	crackNoSave      bool
	crackBatch       bool
	crackVerbose     bool
)

func newCrackCmd() *cobra.Command {
	def := model.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "crack [ciphertext...]",
		Short: "Recover the key and plaintext of a ciphertext",
		Long: "Recover the key and plaintext of a ciphertext. Input comes from arguments,\n" +
			"--in, or stdin. With --batch every non-empty line is a separate ciphertext.",
		RunE: runCrackCmd,
	}
	cmd.Flags().StringVarP(&crackFamily, "family", "f", "", "cipher family: caesar, vigenere, substitution, xor")
	cmd.Flags().StringVarP(&crackIn, "in", "i", "", "read ciphertext from file (- for stdin)")
	cmd.Flags().StringVar(&crackEncoding, "encoding", "", "input encoding: text, hex, base64 (default hex for xor)")
	cmd.Flags().IntVar(&crackTop, "top", def.Top, "candidates to report")
	cmd.Flags().IntVar(&crackRestarts, "restarts", def.Restarts, "substitution solver restarts")
	cmd.Flags().IntVar(&crackIterations, "iterations", def.Iterations, "swaps per restart")
	cmd.Flags().IntVar(&crackNGram, "ngram", def.NGram, "n-gram order for scoring (2-4)")
	cmd.Flags().Float64Var(&crackTemperature, "temperature", def.Temperature, "initial annealing temperature")
	cmd.Flags().Float64Var(&crackCooling, "cooling", 0, "per-iteration cooling factor (0 derives it)")
	cmd.Flags().IntVar(&crackWorkers, "workers", def.Workers, "parallel restarts and batch inputs")
	cmd.Flags().Int64Var(&crackSeed, "seed", def.Seed, "random seed for the solver")
	cmd.Flags().IntVar(&crackMaxPeriod, "max-period", def.MaxPeriod, "longest period or key length to test (0 sizes it by text length)")
	cmd.Flags().IntVar(&crackKasiskiMin, "kasiski-min", def.KasiskiMin, "shortest repeated sequence for Kasiski")
	cmd.Flags().IntVar(&crackPeriod, "period", 0, "force the Vigenere period")
	cmd.Flags().IntVar(&crackKeyLength, "key-length", 0, "force the XOR key length")
	cmd.Flags().StringVar(&crackModel, "model", builtinModel, "language model: built-in name, saved name, or path")
	cmd.Flags().StringVar(&crackFormat, "format", "text", "output format: text, json, yaml")
	cmd.Flags().BoolVar(&crackLive, "live", false, "show live solver progress (substitution only)")
	cmd.Flags().BoolVar(&crackNoSave, "no-save", false, "do not record the run in history")
	cmd.Flags().BoolVar(&crackBatch, "batch", false, "crack every input line separately")
	cmd.Flags().BoolVarP(&crackVerbose, "verbose", "v", false, "print sweeps, votes and restarts")
	return cmd
}

func crackConfigFrom(cmd *cobra.Command, fileCfg config.FileConfig) model.Config {
	fc := fileCfg.Crack
	applyIntConfig(cmd, "top", &crackTop, fc.Top)
	applyIntConfig(cmd, "restarts", &crackRestarts, fc.Restarts)
	applyIntConfig(cmd, "iterations", &crackIterations, fc.Iterations)
	applyIntConfig(cmd, "ngram", &crackNGram, fc.NGram)
	applyFloatConfig(cmd, "temperature", &crackTemperature, fc.Temperature)
	applyFloatConfig(cmd, "cooling", &crackCooling, fc.Cooling)
	applyIntConfig(cmd, "workers", &crackWorkers, fc.Workers)
	applyInt64Config(cmd, "seed", &crackSeed, fc.Seed)
	applyIntConfig(cmd, "max-period", &crackMaxPeriod, fc.MaxPeriod)
	applyIntConfig(cmd, "kasiski-min", &crackKasiskiMin, fc.KasiskiMin)
	applyStringConfig(cmd, "model", &crackModel, fc.Model)

	return model.Config{
		Top:         crackTop,
		Restarts:    crackRestarts,
		Iterations:  crackIterations,
		NGram:       crackNGram,
		Temperature: crackTemperature,
		Cooling:     crackCooling,
		Workers:     crackWorkers,
		Seed:        crackSeed,
		MaxPeriod:   crackMaxPeriod,
		KasiskiMin:  crackKasiskiMin,
		Period:      crackPeriod,
		KeyLength:   crackKeyLength,
	}
}

func runCrackCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg := crackConfigFrom(cmd, fileCfg)
	if err := validateConfig(cfg); err != nil {
		return err
	}
	family, err := parseFamilyFlag(crackFamily)
	if err != nil {
		return err
	}
	encoding, err := resolveEncoding(crackEncoding, family)
	if err != nil {
		return err
	}
	switch crackFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("--format must be text, json, or yaml")
	}
	if crackLive && (crackBatch || family != model.FamilySubstitution) {
		return fmt.Errorf("--live needs a single substitution ciphertext")
	}

	lm, err := loadLanguageModel(crackModel)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd.InOrStdin(), crackIn, args)
	if err != nil {
		return err
	}
	inputs := []string{raw}
	if crackBatch {
		inputs = readLines(raw)
	}
	cts := make([]model.Ciphertext, 0, len(inputs))
	for i, in := range inputs {
		text, err := decodeInput(in, encoding)
		if err != nil {
			if crackBatch {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			return err
		}
		cts = append(cts, model.Ciphertext{Family: family, Text: text})
	}
	if len(cts) == 0 {
		return fmt.Errorf("no ciphertext given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := crack.NewEngine(lm, cfg)
	started := time.Now()
	var results []model.CrackResult
	switch {
	case crackLive && term.IsTerminal(int(os.Stdout.Fd())):
		res, err := tui.Run(ctx, engine, cts[0])
		if err != nil {
			return err
		}
		results = []model.CrackResult{res}
	case len(cts) == 1:
		res, err := engine.Crack(ctx, cts[0])
		if err != nil {
			return err
		}
		results = []model.CrackResult{res}
	default:
		results, err = engine.CrackAll(ctx, cts)
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(started)
	if ctx.Err() != nil {
		logErrln("Interrupted; reporting the best result so far.")
	}

	runIDs := make([]string, len(results))
	if shouldSave(cmd, fileCfg) {
		runIDs = saveRuns(ctx, historyDBPath(fileCfg), cts, results, engine.Config().Seed, elapsed)
	}
	if crackVerbose {
		for i, id := range runIDs {
			if id != "" {
				logErrf("Run %d saved as %s\n", i+1, id)
			}
		}
		logErrf("Elapsed: %s\n", elapsed.Round(time.Millisecond))
	}
	return writeResults(cmd.OutOrStdout(), results, runIDs)
}

func shouldSave(cmd *cobra.Command, fileCfg config.FileConfig) bool {
	save := true
	applyBoolConfig(cmd, "no-save", &save, fileCfg.History.Save)
	return save && !crackNoSave
}

func historyDBPath(fileCfg config.FileConfig) string {
	if fileCfg.History.DB != nil && *fileCfg.History.DB != "" {
		return *fileCfg.History.DB
	}
	return config.DefaultDBPath()
}

// saveRuns records results in the history database. Failures are logged and
// never fail the crack.
func saveRuns(ctx context.Context, dbPath string, cts []model.Ciphertext, results []model.CrackResult, seed int64, elapsed time.Duration) []string {
	ids := make([]string, len(results))
	st, err := store.Open(dbPath)
	if err != nil {
		logErrf("failed to open db: %v\n", err)
		return ids
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	// The context may already be cancelled by ctrl+c; the run is still saved.
	ctx = context.WithoutCancel(ctx)
	perRun := elapsed.Milliseconds() / int64(len(results))
	for i, res := range results {
		run, cands := runFromResult(cts[i], res, seed, perRun)
		id, err := st.InsertRun(ctx, run, cands)
		if err != nil {
			logErrf("failed to save run: %v\n", err)
			continue
		}
		ids[i] = id
	}
	return ids
}

func runFromResult(ct model.Ciphertext, res model.CrackResult, seed, durationMs int64) (model.Run, []model.RunCandidate) {
	run := model.Run{
		CreatedAt:  time.Now(),
		Family:     res.Family,
		Method:     res.Method,
		Ciphertext: ct.Text,
		Plaintext:  res.Plaintext,
		Confidence: res.Confidence,
		Attempts:   res.Attempts,
		Seed:       seed,
		DurationMs: durationMs,
	}
	if res.Key != nil {
		run.Key = res.Key.String()
	}
	var cands []model.RunCandidate
	if res.Diagnostics != nil {
		run.InsufficientData = res.Diagnostics.InsufficientData
		for i, c := range res.Diagnostics.Candidates {
			cands = append(cands, model.RunCandidate{
				Rank:       i + 1,
				Key:        c.Key.String(),
				Score:      c.Score,
				Confidence: c.Confidence,
				Plaintext:  c.Plaintext,
			})
		}
	}
	return run, cands
}

func writeResults(w io.Writer, results []model.CrackResult, runIDs []string) error {
	switch crackFormat {
	case "json", "yaml":
		exports := make([]report.Export, len(results))
		for i, res := range results {
			exports[i] = report.FromResult(res, runIDs[i])
		}
		var v any = exports
		if len(exports) == 1 {
			v = exports[0]
		}
		if crackFormat == "json" {
			return report.WriteJSON(w, v)
		}
		return report.WriteYAML(w, v)
	}

	opts := report.Options{Verbose: crackVerbose}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		opts.Width = report.TerminalWidth()
	}
	for i, res := range results {
		if len(results) > 1 {
			if _, err := fmt.Fprintf(w, "== Input %d ==\n", i+1); err != nil {
				return err
			}
		}
		if err := report.RenderResult(w, res, opts); err != nil {
			return err
		}
		if i < len(results)-1 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}
