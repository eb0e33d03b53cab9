package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sentinel/internal/config"
	"github.com/verte-zerg/sentinel/internal/langmodel"
	"github.com/verte-zerg/sentinel/internal/wordfreq"
)

const (
	defaultWordfreqList  = "large"
	defaultWordfreqLimit = 50000
	modelTopShown        = 10
)

var (
	modelName      string
	modelOut       string
	modelWordfreq  bool
	modelLang      string
	modelList      string
	modelLimit     int
	modelListLangs bool
	modelCacheDir  string
	modelShowTop   int
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Build and inspect language models",
	}
	cmd.AddCommand(newModelBuildCmd())
	cmd.AddCommand(newModelShowCmd())
	return cmd
}

func newModelBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [corpus files...]",
		Short: "Build a language model from text files or a wordfreq list",
		Long: "Build a language model from text files, or with --wordfreq from a word\n" +
			"frequency list of the wordfreq package downloaded from PyPI. The model is\n" +
			"saved under the data directory by --name, or to --out.",
		RunE: runModelBuildCmd,
	}
	cmd.Flags().StringVar(&modelName, "name", "", "model name; saved as a named model unless --out is set")
	cmd.Flags().StringVarP(&modelOut, "out", "o", "", "write the model to this path")
	cmd.Flags().BoolVar(&modelWordfreq, "wordfreq", false, "build from a wordfreq frequency list")
	cmd.Flags().StringVar(&modelLang, "lang", "en", "wordfreq language code")
	cmd.Flags().StringVar(&modelList, "list", defaultWordfreqList, "wordfreq list type (small, large, best)")
	cmd.Flags().IntVar(&modelLimit, "limit", defaultWordfreqLimit, "most frequent words to use (0 for all)")
	cmd.Flags().BoolVar(&modelListLangs, "list-langs", false, "print the lists available in the wordfreq package and exit")
	cmd.Flags().StringVar(&modelCacheDir, "cache-dir", "", "wordfreq download cache (default under XDG data home)")
	return cmd
}

func runModelBuildCmd(cmd *cobra.Command, args []string) error {
	switch {
	case modelListLangs:
	case modelWordfreq && len(args) > 0:
		return fmt.Errorf("pass corpus files or --wordfreq, not both")
	case !modelWordfreq && len(args) == 0:
		return fmt.Errorf("pass corpus files or --wordfreq")
	}
	if modelName == "" {
		modelName = strings.TrimSpace(modelLang)
		if !modelWordfreq && len(args) > 0 {
			modelName = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
	}
	if strings.ContainsAny(modelName, `/\`) {
		return fmt.Errorf("--name must not contain path separators")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := langmodel.NewBuilder(modelName)
	var wheelPath string
	if modelWordfreq || modelListLangs {
		wheel, err := fetchWordfreq(ctx)
		if err != nil {
			return err
		}
		if modelListLangs {
			return printWordfreqLists(cmd, wheel.Path)
		}
		wheelPath = wheel.Path
		entries, err := wordfreq.Entries(wheel.Path, wordfreq.List{Type: modelList, Lang: modelLang}, modelLimit)
		if err != nil {
			if errors.Is(err, wordfreq.ErrNoData) {
				return fmt.Errorf("%w (see: sentinel model build --list-langs)", err)
			}
			return err
		}
		for _, e := range entries {
			b.AddWord(e.Word, e.Weight)
		}
		logErrf("Loaded %d words from wordfreq %s (%s/%s)\n", len(entries), wheel.Version, modelList, modelLang)
	} else {
		for _, path := range args {
			if err := addCorpusFile(b, path); err != nil {
				return err
			}
		}
	}

	m, err := b.Build()
	if err != nil {
		return err
	}
	out := modelOut
	if out == "" {
		out = config.DefaultModelPath(modelName)
	}
	if err := m.SaveFile(out); err != nil {
		return err
	}
	if wheelPath != "" {
		if err := wordfreq.WriteAttribution(wheelPath, filepath.Dir(out)); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved model %q to %s\n", modelName, out)
	return err
}

func fetchWordfreq(ctx context.Context) (wordfreq.Wheel, error) {
	cacheDir := modelCacheDir
	if cacheDir == "" {
		cacheDir = config.DefaultWordfreqCacheDir()
	}
	wheel, err := wordfreq.NewFetcher().Latest(ctx, cacheDir)
	if err != nil {
		return wordfreq.Wheel{}, fmt.Errorf("failed to fetch wordfreq: %w", err)
	}
	if !wheel.Cached {
		logErrf("Downloaded %s\n", wheel.Filename)
	}
	return wheel, nil
}

func printWordfreqLists(cmd *cobra.Command, wheelPath string) error {
	lists, err := wordfreq.Lists(wheelPath)
	if err != nil {
		return err
	}
	for _, l := range lists {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", l.Lang, l.Type); err != nil {
			return err
		}
	}
	return nil
}

func addCorpusFile(b *langmodel.Builder, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return b.AddReader(f)
}

func newModelShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [model]",
		Short: "Print the statistics of a language model",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runModelShowCmd,
	}
	cmd.Flags().IntVar(&modelShowTop, "top", modelTopShown, "letters and trigrams to list")
	return cmd
}

func runModelShowCmd(cmd *cobra.Command, args []string) error {
	ref := builtinModel
	if len(args) == 1 {
		ref = args[0]
	}
	m, err := loadLanguageModel(ref)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Model: %s\nExpected IoC: %.4f\n", m.Name(), m.ExpectedIoC()); err != nil {
		return err
	}
	for n := langmodel.MinOrder; n <= langmodel.MaxOrder; n++ {
		if _, err := fmt.Fprintf(out, "Expected log10 P(%d-gram): %.3f (floor %.3f)\n", n, m.ExpectedLogProb(n), m.Floor(n)); err != nil {
			return err
		}
	}

	freqs := m.LetterFrequencies()
	letters := make([]string, langmodel.Alphabet)
	for i := range letters {
		letters[i] = string(rune('A' + i))
	}
	sort.SliceStable(letters, func(i, j int) bool {
		return freqs[letters[i][0]-'A'] > freqs[letters[j][0]-'A']
	})
	if _, err := fmt.Fprintln(out, "\nTop letters"); err != nil {
		return err
	}
	for _, l := range letters[:min(modelShowTop, len(letters))] {
		if _, err := fmt.Fprintf(out, "%s %6.2f%%\n", l, freqs[l[0]-'A']*100); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(out, "\nTop trigrams"); err != nil {
		return err
	}
	for _, g := range topGrams(m, 3, modelShowTop) {
		if _, err := fmt.Fprintf(out, "%s %6.3f%%\n", g, math.Pow(10, m.LogProb(g))*100); err != nil {
			return err
		}
	}
	return nil
}

// topGrams returns the k most probable n-grams of m.
func topGrams(m *langmodel.Model, n, k int) []string {
	table := m.Table(n)
	idx := make([]int, len(table))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return table[idx[a]] > table[idx[b]] })
	grams := make([]string, 0, k)
	for _, i := range idx[:min(k, len(idx))] {
		if table[i] <= m.Floor(n) {
			break
		}
		g := make([]byte, n)
		for j, v := n-1, i; j >= 0; j-- {
			g[j] = byte('A' + v%langmodel.Alphabet)
			v /= langmodel.Alphabet
		}
		grams = append(grams, string(g))
	}
	return grams
}
