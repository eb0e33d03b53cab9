package crack

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/sentinel/internal/cipher"
	"github.com/verte-zerg/sentinel/internal/langmodel"
	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/score"
)

// finalTemperatureRatio is how far the temperature decays over one restart
// when no cooling factor is configured.
const finalTemperatureRatio = 1e-3

// seedSwaps caps the random perturbations applied to the frequency seed.
const seedSwaps = 8

// SearchState is the mutable state of one hill-climbing restart. Key maps
// ciphertext letter i to plaintext letter Key[i].
type SearchState struct {
	Key         [26]byte
	Score       float64
	Temperature float64
	Iteration   int
}

// Progress reports a completed restart together with the best state so far.
type Progress struct {
	Outcome   model.RestartOutcome
	Completed int
	Restarts  int
	Best      SearchState
	Plaintext string
}

// ProgressFunc receives solver progress. With several workers it is called
// from their goroutines, one call at a time.
type ProgressFunc func(Progress)

type restart struct {
	done     bool
	best     SearchState
	accepted int
}

type solver struct {
	lm      *langmodel.Model
	n       int
	letters []byte
	cfg     model.Config
	cooling float64
	seed    [26]byte
	rank    [26]byte
}

// Substitution searches the 26! keyspace with restarted simulated annealing
// guided by n-gram scores. Every restart starts from the frequency seed
// perturbed by a few swaps, swaps two letters per iteration, and cools the
// temperature so the last iterations are greedy. The best state across
// restarts is the result and attempts is completed restarts times iterations.
// Cancelling ctx stops before the next restart; the best state so far is
// returned and Diagnostics.Cancelled is set. Short ciphertexts converge
// unreliably and may come back with a partly wrong key.
func Substitution(ctx context.Context, text string, lm *langmodel.Model, cfg model.Config, rng *rand.Rand, progress ProgressFunc) model.CrackResult {
	cfg = withDefaults(cfg)
	letters := langmodel.Letters(nil, text)
	diag := &model.Diagnostics{Symbols: len(letters)}
	res := model.CrackResult{
		Family:      model.FamilySubstitution,
		Method:      model.MethodAnnealing,
		Plaintext:   text,
		Diagnostics: diag,
	}
	if len(letters) == 0 {
		insufficient(0, 0, MinSubstitutionLetters, diag, "letters")
		return res
	}

	s := &solver{lm: lm, n: cfg.NGram, letters: letters, cfg: cfg}
	s.cooling = cfg.Cooling
	if s.cooling == 0 {
		s.cooling = math.Pow(finalTemperatureRatio, 1/float64(cfg.Iterations))
	}
	s.seed, s.rank = frequencySeed(letters, lm)

	seeds := make([]int64, cfg.Restarts)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	outcomes := s.run(ctx, seeds, progress)

	best, completed := fold(outcomes)
	if completed == 0 {
		best = SearchState{Key: s.seed, Score: s.score(s.seed, make([]byte, len(letters)))}
	}
	for i, o := range outcomes {
		if !o.done {
			continue
		}
		diag.Restarts = append(diag.Restarts, model.RestartOutcome{
			Restart:    i,
			Score:      o.best.Score,
			Accepted:   o.accepted,
			Iterations: cfg.Iterations,
		})
	}
	diag.Cancelled = completed < cfg.Restarts
	diag.RawScore = best.Score

	dec := model.PermutationKey(best.Key)
	res.Key = dec.Inverse()
	res.Plaintext = cipher.Substitute(text, best.Key)
	res.Attempts = completed * cfg.Iterations
	conf := ngramConfidence(best.Score, len(letters), s.n, lm)
	res.Confidence = insufficient(conf, len(letters), MinSubstitutionLetters, diag, "letters")
	return res
}

// fold keeps the highest-scoring completed restart; earlier restarts win ties.
func fold(outcomes []restart) (SearchState, int) {
	var best SearchState
	completed := 0
	for _, o := range outcomes {
		if !o.done {
			continue
		}
		if completed == 0 || o.best.Score > best.Score {
			best = o.best
		}
		completed++
	}
	return best, completed
}

func (s *solver) run(ctx context.Context, seeds []int64, progress ProgressFunc) []restart {
	outcomes := make([]restart, len(seeds))
	var mu sync.Mutex
	completed := 0
	var best SearchState
	report := func(i int) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		o := outcomes[i]
		if completed == 0 || o.best.Score > best.Score {
			best = o.best
		}
		completed++
		progress(Progress{
			Outcome: model.RestartOutcome{
				Restart:    i,
				Score:      o.best.Score,
				Accepted:   o.accepted,
				Iterations: s.cfg.Iterations,
			},
			Completed: completed,
			Restarts:  len(seeds),
			Best:      best,
			Plaintext: decode(s.letters, best.Key),
		})
	}

	if s.cfg.Workers <= 1 {
		for i, seed := range seeds {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = s.climb(i, rand.New(rand.NewSource(seed)))
			report(i)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = s.climb(i, rand.New(rand.NewSource(seed)))
			report(i)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// climb runs one restart of hill climbing with simulated annealing.
func (s *solver) climb(index int, rng *rand.Rand) restart {
	state := SearchState{Key: s.seed, Temperature: s.cfg.Temperature}
	for i := 0; i < min(index, seedSwaps); i++ {
		r := rng.Intn(25)
		a, b := s.rank[r], s.rank[r+1]
		state.Key[a], state.Key[b] = state.Key[b], state.Key[a]
	}

	plain := make([]byte, len(s.letters))
	state.Score = s.score(state.Key, plain)
	best := state
	accepted := 0
	for ; state.Iteration < s.cfg.Iterations; state.Iteration++ {
		a := rng.Intn(26)
		b := rng.Intn(25)
		if b >= a {
			b++
		}
		state.Key[a], state.Key[b] = state.Key[b], state.Key[a]
		next := s.score(state.Key, plain)
		delta := next - state.Score
		if accept(delta, state.Temperature, rng) {
			state.Score = next
			accepted++
			if next > best.Score {
				best = state
			}
		} else {
			state.Key[a], state.Key[b] = state.Key[b], state.Key[a]
		}
		state.Temperature *= s.cooling
	}
	best.Iteration = state.Iteration
	best.Temperature = state.Temperature
	return restart{done: true, best: best, accepted: accepted}
}

// accept applies the Metropolis rule. At zero temperature only moves that do
// not lower the score pass.
func accept(delta, temperature float64, rng *rand.Rand) bool {
	if delta >= 0 {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return rng.Float64() < math.Exp(delta/temperature)
}

func (s *solver) score(key [26]byte, plain []byte) float64 {
	for i, l := range s.letters {
		plain[i] = key[l]
	}
	return score.NGramIndices(plain, s.lm, s.n)
}

// frequencySeed pairs ciphertext letters with language letters of the same
// frequency rank. It also returns the ciphertext letters in rank order.
func frequencySeed(letters []byte, lm *langmodel.Model) (key [26]byte, cipherRank [26]byte) {
	var counts [26]int
	for _, l := range letters {
		counts[l]++
	}
	for i := range cipherRank {
		cipherRank[i] = byte(i)
	}
	sort.SliceStable(cipherRank[:], func(i, j int) bool {
		return counts[cipherRank[i]] > counts[cipherRank[j]]
	})

	freqs := lm.LetterFrequencies()
	var plainRank [26]byte
	for i := range plainRank {
		plainRank[i] = byte(i)
	}
	sort.SliceStable(plainRank[:], func(i, j int) bool {
		return freqs[plainRank[i]] > freqs[plainRank[j]]
	})

	for i := range cipherRank {
		key[cipherRank[i]] = plainRank[i]
	}
	return key, cipherRank
}

func decode(letters []byte, key [26]byte) string {
	out := make([]byte, len(letters))
	for i, l := range letters {
		out[i] = 'A' + key[l]
	}
	return string(out)
}
