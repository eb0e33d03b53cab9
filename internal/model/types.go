// Package model defines shared data structures.
package model

import "time"

// Config defines crack settings.
type Config struct {
	Top         int
	Restarts    int
	Iterations  int
	NGram       int
	Temperature float64
	Cooling     float64
	Workers     int
	Seed        int64
	MaxPeriod   int
	KasiskiMin  int
	Period      int
	KeyLength   int
}

// DefaultConfig returns the settings used when nothing overrides them. A zero
// MaxPeriod lets the estimators size the sweep by text length.
func DefaultConfig() Config {
	return Config{
		Top:         5,
		Restarts:    20,
		Iterations:  5000,
		NGram:       3,
		Temperature: 10,
		Workers:     1,
		Seed:        1,
		KasiskiMin:  3,
	}
}

// HistoryConfig defines filters and options for history output.
type HistoryConfig struct {
	Family      Family
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Run captures a stored crack invocation.
type Run struct {
	ID               string
	CreatedAt        time.Time
	Family           Family
	Method           Method
	Key              string
	Ciphertext       string
	Plaintext        string
	Confidence       float64
	Attempts         int
	InsufficientData bool
	Seed             int64
	DurationMs       int64
}

// RunCandidate stores one ranked candidate of a run.
type RunCandidate struct {
	RunID      string
	Rank       int
	Key        string
	Score      float64
	Confidence float64
	Plaintext  string
}

// MethodAggregate summarizes runs per method.
type MethodAggregate struct {
	Method        Method
	Runs          int
	Insufficient  int
	Attempts      int64
	AvgConfidence float64
}
