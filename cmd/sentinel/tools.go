package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sentinel/internal/cipher"
	"github.com/verte-zerg/sentinel/internal/corpus"
	"github.com/verte-zerg/sentinel/internal/generator"
	"github.com/verte-zerg/sentinel/internal/langmodel"
)

const (
	defaultSampleWords = 60
	defaultKeyLength   = 6
	defaultPunctSet    = ".,;:!?"
)

var (
	cipherFamily   string
	cipherKey      string
	cipherIn       string
	cipherEncoding string

	keygenFamily string
	keygenLength int
	keygenSeed   int64

	sampleWords    int
	sampleSeed     int64
	sampleWordlist string
	sampleCaps     float64
	samplePunct    float64
	samplePunctSet string
	sampleFamily   string
	sampleLength   int
	sampleEncoding string
)

func newEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt [plaintext...]",
		Short: "Encrypt text with a known key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCipherCmd(cmd, args, true)
		},
	}
	addCipherFlags(cmd, "output encoding: text, hex, base64 (default hex for xor)")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt [ciphertext...]",
		Short: "Decrypt text with a known key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCipherCmd(cmd, args, false)
		},
	}
	addCipherFlags(cmd, "input encoding: text, hex, base64 (default hex for xor)")
	return cmd
}

func addCipherFlags(cmd *cobra.Command, encodingUsage string) {
	cmd.Flags().StringVarP(&cipherFamily, "family", "f", "", "cipher family: caesar, vigenere, substitution, xor")
	cmd.Flags().StringVarP(&cipherKey, "key", "k", "", "key: shift, keyword, 26-letter alphabet, or hex bytes")
	cmd.Flags().StringVarP(&cipherIn, "in", "i", "", "read text from file (- for stdin)")
	cmd.Flags().StringVar(&cipherEncoding, "encoding", "", encodingUsage)
	if err := cmd.MarkFlagRequired("key"); err != nil {
		panic(err)
	}
}

func runCipherCmd(cmd *cobra.Command, args []string, encrypt bool) error {
	family, err := parseFamilyFlag(cipherFamily)
	if err != nil {
		return err
	}
	encoding, err := resolveEncoding(cipherEncoding, family)
	if err != nil {
		return err
	}
	key, err := cipher.ParseKey(family, cipherKey)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd.InOrStdin(), cipherIn, args)
	if err != nil {
		return err
	}

	var out string
	if encrypt {
		ct, err := cipher.Encrypt(key, strings.TrimRight(raw, "\r\n"))
		if err != nil {
			return err
		}
		out = encodeOutput(ct, encoding)
	} else {
		ct, err := decodeInput(raw, encoding)
		if err != nil {
			return err
		}
		if out, err = cipher.Decrypt(key, ct); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func newKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random key",
		Args:  cobra.NoArgs,
		RunE:  runKeygenCmd,
	}
	cmd.Flags().StringVarP(&keygenFamily, "family", "f", "", "cipher family: caesar, vigenere, substitution, xor")
	cmd.Flags().IntVarP(&keygenLength, "length", "n", defaultKeyLength, "keyword or XOR key length")
	cmd.Flags().Int64Var(&keygenSeed, "seed", 0, "random seed (0 uses the clock)")
	return cmd
}

func runKeygenCmd(cmd *cobra.Command, _ []string) error {
	family, err := parseFamilyFlag(keygenFamily)
	if err != nil {
		return err
	}
	key, err := generator.New(seedOrClock(keygenSeed)).Key(family, keygenLength)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), key.String())
	return err
}

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate sample plaintext, optionally encrypted with a random key",
		Long: "Generate sample plaintext from a weighted word list (default: words of the\n" +
			"built-in English corpus). With --family the text is encrypted with a random\n" +
			"key, printed to stderr.",
		Args: cobra.NoArgs,
		RunE: runSampleCmd,
	}
	cmd.Flags().IntVarP(&sampleWords, "words", "w", defaultSampleWords, "number of words")
	cmd.Flags().Int64Var(&sampleSeed, "seed", 0, "random seed (0 uses the clock)")
	cmd.Flags().StringVar(&sampleWordlist, "wordlist", "", "word list file: one word per line with an optional weight")
	cmd.Flags().Float64Var(&sampleCaps, "caps", 0, "share of capitalized words (0-1)")
	cmd.Flags().Float64Var(&samplePunct, "punct", 0, "share of words followed by punctuation (0-1)")
	cmd.Flags().StringVar(&samplePunctSet, "punct-set", defaultPunctSet, "punctuation characters to use")
	cmd.Flags().StringVarP(&sampleFamily, "family", "f", "", "encrypt with a random key of this family")
	cmd.Flags().IntVarP(&sampleLength, "length", "n", defaultKeyLength, "keyword or XOR key length")
	cmd.Flags().StringVar(&sampleEncoding, "encoding", "", "output encoding: text, hex, base64 (default hex for xor)")
	return cmd
}

func runSampleCmd(cmd *cobra.Command, _ []string) error {
	if sampleWords <= 0 {
		return fmt.Errorf("--words must be greater than 0")
	}
	if sampleCaps < 0 || sampleCaps > 1 || samplePunct < 0 || samplePunct > 1 {
		return fmt.Errorf("--caps and --punct must be between 0 and 1")
	}
	words, err := sampleEntries()
	if err != nil {
		return err
	}

	gen := generator.New(seedOrClock(sampleSeed))
	text := gen.Sample(words, sampleWords, generator.TextOptions{
		CapsPct:  sampleCaps,
		PunctPct: samplePunct,
		PunctSet: []rune(samplePunctSet),
	})
	if sampleFamily == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}

	family, err := parseFamilyFlag(sampleFamily)
	if err != nil {
		return err
	}
	encoding, err := resolveEncoding(sampleEncoding, family)
	if err != nil {
		return err
	}
	key, err := gen.Key(family, sampleLength)
	if err != nil {
		return err
	}
	ct, err := cipher.Encrypt(key, text)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "key: %s\n", key.String()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), encodeOutput(ct, encoding))
	return err
}

func sampleEntries() ([]corpus.Entry, error) {
	if sampleWordlist != "" {
		return corpus.LoadWords(sampleWordlist)
	}
	words := corpus.Words(strings.ToLower(langmodel.Corpus()))
	entries := make([]corpus.Entry, 0, len(words))
	for _, w := range words {
		entries = append(entries, corpus.Entry{Word: w, Weight: 1})
	}
	return entries, nil
}

func seedOrClock(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}
