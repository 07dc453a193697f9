// Package config handles bvmrc.toml VM tuning configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config configures VM behavior that spec.md leaves to the host: how
// deep the data stack may grow and where the REPL keeps its history
// file. It also reads a flush_each_line setting, which nothing in the
// VM or host consults: StdHost writes every PRINT line straight to
// stdout.
type Config struct {
	VM  VMConfig  `toml:"vm"`
	REPL REPLConfig `toml:"repl"`

	// Dir is the directory the bvmrc.toml was loaded from (set at
	// load time, not part of the file itself).
	Dir string `toml:"-"`
}

type VMConfig struct {
	MaxStackDepth int  `toml:"max_stack_depth"`
	FlushEachLine bool `toml:"flush_each_line"`
}

type REPLConfig struct {
	HistoryFile string `toml:"history_file"`
}

// Default returns the configuration used when no bvmrc.toml is found.
func Default() *Config {
	return &Config{
		VM:   VMConfig{MaxStackDepth: 1024, FlushEachLine: true},
		REPL: REPLConfig{HistoryFile: defaultHistoryPath()},
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".bvm_history"
	}
	return filepath.Join(home, ".bvm_history")
}

// Load parses a bvmrc.toml file from the given directory, applying
// Default()'s values for any field the file leaves unset.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "bvmrc.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	cfg.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// FindAndLoad walks up from startDir looking for bvmrc.toml, falling
// back to $HOME/.bvmrc.toml, then to Default() if neither exists.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "bvmrc.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if _, err := os.Stat(filepath.Join(home, ".bvmrc.toml")); err == nil {
			return Load(home)
		}
	}

	return Default(), nil
}

func applyDefaults(cfg *Config) {
	if cfg.VM.MaxStackDepth == 0 {
		cfg.VM.MaxStackDepth = 1024
	}
	if cfg.REPL.HistoryFile == "" {
		cfg.REPL.HistoryFile = defaultHistoryPath()
	}
}
