package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/sentinel/internal/langmodel"
	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/period"
	"github.com/verte-zerg/sentinel/internal/report"
	"github.com/verte-zerg/sentinel/internal/score"
)

const analyzeVotesShown = 10

var (
	analyzeFamily     string
	analyzeIn         string
	analyzeEncoding   string
	analyzeMaxPeriod  int
	analyzeKasiskiMin int
	analyzeNGram      int
	analyzeModel      string
	analyzeFormat     string
)

func newAnalyzeCmd() *cobra.Command {
	def := model.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "analyze [ciphertext...]",
		Short: "Print ciphertext statistics and period estimates",
		RunE:  runAnalyzeCmd,
	}
	cmd.Flags().StringVarP(&analyzeFamily, "family", "f", "vigenere", "cipher family; xor sweeps Hamming distances")
	cmd.Flags().StringVarP(&analyzeIn, "in", "i", "", "read ciphertext from file (- for stdin)")
	cmd.Flags().StringVar(&analyzeEncoding, "encoding", "", "input encoding: text, hex, base64 (default hex for xor)")
	cmd.Flags().IntVar(&analyzeMaxPeriod, "max-period", def.MaxPeriod, "longest period or key length to test (0 sizes it by text length)")
	cmd.Flags().IntVar(&analyzeKasiskiMin, "kasiski-min", def.KasiskiMin, "shortest repeated sequence for Kasiski")
	cmd.Flags().IntVar(&analyzeNGram, "ngram", def.NGram, "n-gram order for scoring (2-4)")
	cmd.Flags().StringVar(&analyzeModel, "model", builtinModel, "language model: built-in name, saved name, or path")
	cmd.Flags().StringVar(&analyzeFormat, "format", "text", "output format: text, json, yaml")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "max-period", &analyzeMaxPeriod, fileCfg.Crack.MaxPeriod)
	applyIntConfig(cmd, "kasiski-min", &analyzeKasiskiMin, fileCfg.Crack.KasiskiMin)
	applyIntConfig(cmd, "ngram", &analyzeNGram, fileCfg.Crack.NGram)
	applyStringConfig(cmd, "model", &analyzeModel, fileCfg.Crack.Model)

	if analyzeNGram < 2 || analyzeNGram > langmodel.MaxOrder {
		return fmt.Errorf("--ngram must be between 2 and %d", langmodel.MaxOrder)
	}
	if analyzeMaxPeriod < 0 {
		return fmt.Errorf("--max-period must be >= 0")
	}
	family, err := parseFamilyFlag(analyzeFamily)
	if err != nil {
		return err
	}
	encoding, err := resolveEncoding(analyzeEncoding, family)
	if err != nil {
		return err
	}
	lm, err := loadLanguageModel(analyzeModel)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd.InOrStdin(), analyzeIn, args)
	if err != nil {
		return err
	}
	text, err := decodeInput(raw, encoding)
	if err != nil {
		return err
	}

	a := analyze(text, family, lm)
	out := cmd.OutOrStdout()
	switch analyzeFormat {
	case "json":
		return report.WriteJSON(out, a)
	case "yaml":
		return report.WriteYAML(out, a)
	case "text":
		opts := report.Options{}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			opts.Width = report.TerminalWidth()
		}
		return report.RenderAnalysis(out, a, opts)
	default:
		return fmt.Errorf("--format must be text, json, or yaml")
	}
}

func analyze(text string, family model.Family, lm *langmodel.Model) report.Analysis {
	letters := langmodel.Letters(nil, text)
	a := report.Analysis{
		Family:      family,
		Symbols:     len(text),
		Letters:     len(letters),
		IoC:         score.IndexOfCoincidence(letters),
		ExpectedIoC: lm.ExpectedIoC(),
		ChiSquared:  score.ChiSquaredIndices(letters, lm),
	}
	if grams := len(letters) - analyzeNGram + 1; grams > 0 {
		a.NGram = score.NGramIndices(letters, lm, analyzeNGram) / float64(grams)
	}

	switch family {
	case model.FamilyXOR:
		sweep := period.Hamming([]byte(text), 1, analyzeMaxPeriod, 0)
		a.Method = model.MethodHammingColumnXOR
		a.Sweep, a.Period = sweep.Scores, sweep.Best
	case model.FamilyVigenere:
		sweep := period.Friedman(letters, analyzeMaxPeriod, lm.ExpectedIoC())
		a.Method = model.MethodColumnwise
		a.Sweep, a.Period = sweep.Scores, sweep.Best
		votes := period.Kasiski(letters, analyzeKasiskiMin, sweep.MaxPeriod()).Votes
		if len(votes) > analyzeVotesShown {
			votes = votes[:analyzeVotesShown]
		}
		a.Kasiski = votes
	}
	return a
}
