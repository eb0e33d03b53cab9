// Package crack recovers keys and plaintexts from classical ciphertexts.
package crack

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/sentinel/internal/langmodel"
	"github.com/verte-zerg/sentinel/internal/model"
)

// ErrUnknownFamily is returned for a ciphertext whose family has no pipeline.
var ErrUnknownFamily = errors.New("unknown cipher family")

// Minimum symbol counts below which a result is flagged as insufficient data.
const (
	MinCaesarLetters       = 10
	MinVigenereLetters     = 20
	MinSubstitutionLetters = 50
	MinSingleByteXOR       = 10
	// MinXORBytesPerKeyByte applies to every column of a repeating-key attack.
	MinXORBytesPerKeyByte = 8
)

// Engine dispatches ciphertexts to the pipeline of their family. It holds no
// state between calls.
type Engine struct {
	lm       *langmodel.Model
	cfg      model.Config
	progress ProgressFunc
}

// NewEngine creates an engine. Start from model.DefaultConfig; zero Restarts,
// Iterations, NGram, Workers and KasiskiMin are filled in.
func NewEngine(lm *langmodel.Model, cfg model.Config) *Engine {
	return &Engine{lm: lm, cfg: withDefaults(cfg)}
}

// OnProgress registers a callback for substitution solver progress.
func (e *Engine) OnProgress(fn ProgressFunc) {
	e.progress = fn
}

// Config returns the effective settings.
func (e *Engine) Config() model.Config {
	return e.cfg
}

// Crack runs the pipeline selected by ct.Family. Errors are limited to
// rejected input; weak or short ciphertexts still produce a result.
func (e *Engine) Crack(ctx context.Context, ct model.Ciphertext) (model.CrackResult, error) {
	if err := ValidateConfig(e.cfg); err != nil {
		return model.CrackResult{}, err
	}
	switch ct.Family {
	case model.FamilyShift:
		return Caesar(ct.Text, e.lm, e.cfg.Top), nil
	case model.FamilyVigenere:
		return Vigenere(ct.Text, e.lm, e.cfg), nil
	case model.FamilySubstitution:
		rng := rand.New(rand.NewSource(e.cfg.Seed))
		return Substitution(ctx, ct.Text, e.lm, e.cfg, rng, e.progress), nil
	case model.FamilyXOR:
		return RepeatingXOR([]byte(ct.Text), e.lm, e.cfg), nil
	default:
		return model.CrackResult{}, fmt.Errorf("%w: %q", ErrUnknownFamily, ct.Family)
	}
}

// CrackAll cracks several ciphertexts concurrently. Results keep input order.
func (e *Engine) CrackAll(ctx context.Context, cts []model.Ciphertext) ([]model.CrackResult, error) {
	results := make([]model.CrackResult, len(cts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.cfg.Workers, 1))
	for i, ct := range cts {
		i, ct := i, ct
		g.Go(func() error {
			res, err := e.Crack(ctx, ct)
			if err != nil {
				return fmt.Errorf("input %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ValidateConfig rejects settings no pipeline can run with.
func ValidateConfig(cfg model.Config) error {
	switch {
	case cfg.Restarts <= 0:
		return fmt.Errorf("restarts must be > 0")
	case cfg.Iterations <= 0:
		return fmt.Errorf("iterations must be > 0")
	case cfg.NGram < langmodel.MinOrder || cfg.NGram > langmodel.MaxOrder:
		return fmt.Errorf("ngram must be between %d and %d", langmodel.MinOrder, langmodel.MaxOrder)
	case cfg.Temperature < 0:
		return fmt.Errorf("temperature must be >= 0")
	case cfg.Cooling < 0 || cfg.Cooling > 1:
		return fmt.Errorf("cooling must be between 0 and 1")
	case cfg.Period < 0:
		return fmt.Errorf("period must be >= 0")
	case cfg.KeyLength < 0:
		return fmt.Errorf("key length must be >= 0")
	case cfg.MaxPeriod < 0:
		return fmt.Errorf("max period must be >= 0")
	}
	return nil
}

// withDefaults fills settings whose zero value cannot run. Zero Top and
// Temperature are honoured: no candidate list and greedy climbing.
func withDefaults(cfg model.Config) model.Config {
	def := model.DefaultConfig()
	if cfg.Restarts == 0 {
		cfg.Restarts = def.Restarts
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.NGram == 0 {
		cfg.NGram = def.NGram
	}
	if cfg.Workers == 0 {
		cfg.Workers = def.Workers
	}
	if cfg.KasiskiMin == 0 {
		cfg.KasiskiMin = def.KasiskiMin
	}
	return cfg
}
