// Package main provides the CLI entrypoint for sentinel.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sentinel/internal/config"
	"github.com/verte-zerg/sentinel/internal/crack"
	"github.com/verte-zerg/sentinel/internal/langmodel"
	"github.com/verte-zerg/sentinel/internal/model"
)

const (
	defaultCurveWindow = 10
	builtinModel       = "english"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sentinel",
		Short:         "Classical cipher cryptanalysis",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newCrackCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newEncryptCmd())
	rootCmd.AddCommand(newDecryptCmd())
	rootCmd.AddCommand(newKeygenCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newModelCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	def := model.DefaultConfig()
	return fmt.Sprintf(`# sentinel configuration
# Uncomment a value to enable it. CLI flags override config values.

[crack]
# top = %d                # Candidates reported per crack (0 for none)
# restarts = %d           # Substitution solver restarts
# iterations = %d       # Swaps tried per restart
# ngram = %d               # N-gram order for scoring (2-4)
# temperature = %.1f      # Initial annealing temperature (0 climbs greedily)
# cooling = 0.0            # Per-iteration cooling factor (0 derives it)
# workers = %d             # Parallel restarts and batch inputs
# seed = %d                # Random seed for the solver
# max-period = %d          # Longest key period to test (0 sizes it by text length)
# kasiski-min = %d         # Shortest repeated sequence for Kasiski
# model = %q        # Built-in model name, saved model name, or path

[history]
# db = ""                  # History database path (default under XDG data home)
# save = true              # Record every crack
# curve-window = %d       # Moving average window for history curves
`,
		def.Top,
		def.Restarts,
		def.Iterations,
		def.NGram,
		def.Temperature,
		def.Workers,
		def.Seed,
		def.MaxPeriod,
		def.KasiskiMin,
		builtinModel,
		defaultCurveWindow,
	)
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

// loadLanguageModel resolves ref as the built-in model, a file path, or the
// name of a model saved by "model build".
func loadLanguageModel(ref string) (*langmodel.Model, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == builtinModel {
		return langmodel.English(), nil
	}
	path := ref
	if _, err := os.Stat(path); err != nil {
		path = config.DefaultModelPath(ref)
	}
	m, err := langmodel.LoadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("language model %q not found (build it with: sentinel model build --name %s)", ref, ref)
		}
		return nil, fmt.Errorf("failed to load language model: %w", err)
	}
	return m, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Top < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("--workers must be >= 0")
	}
	if cfg.KasiskiMin < 0 {
		return fmt.Errorf("--kasiski-min must be >= 0")
	}
	if err := crack.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
