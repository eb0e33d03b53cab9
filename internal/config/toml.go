// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Crack   CrackConfig   `toml:"crack"`
	History HistoryConfig `toml:"history"`
}

// CrackConfig maps crack-related settings.
type CrackConfig struct {
	Top         *int     `toml:"top"`
	Restarts    *int     `toml:"restarts"`
	Iterations  *int     `toml:"iterations"`
	NGram       *int     `toml:"ngram"`
	Temperature *float64 `toml:"temperature"`
	Cooling     *float64 `toml:"cooling"`
	Workers     *int     `toml:"workers"`
	Seed        *int64   `toml:"seed"`
	MaxPeriod   *int     `toml:"max-period"`
	KasiskiMin  *int     `toml:"kasiski-min"`
	Model       *string  `toml:"model"`
}

// HistoryConfig maps crack history settings.
type HistoryConfig struct {
	DB          *string `toml:"db"`
	Save        *bool   `toml:"save"`
	CurveWindow *int    `toml:"curve-window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
