// Package config loads rat24f.toml, the settings shared by the rat24f
// command line tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file looked up next to the input when no
// path is given.
const FileName = "rat24f.toml"

// Config is the root of rat24f.toml.
type Config struct {
	Output OutputConfig `toml:"output"`
	VM     VMConfig     `toml:"vm"`
}

// OutputConfig controls which files a compilation writes.
type OutputConfig struct {
	Suffix  string `toml:"suffix"`  // listing file = <input base> + suffix
	Symbols bool   `toml:"symbols"` // append the symbol table listing
	LLVM    bool   `toml:"llvm"`    // also write <input base>.ll
}

// VMConfig bounds program execution.
type VMConfig struct {
	MaxSteps   int `toml:"max_steps"`
	StackLimit int `toml:"stack_limit"`
}

func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Suffix:  "_output.txt",
			Symbols: true,
		},
		VM: VMConfig{
			MaxSteps:   1_000_000,
			StackLimit: 1024,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Output.Suffix) == "":
		return errors.New("output.suffix must not be empty")
	case strings.ContainsAny(c.Output.Suffix, `/\`):
		return fmt.Errorf("output.suffix %q must not contain a path separator", c.Output.Suffix)
	case c.VM.MaxSteps < 0:
		return fmt.Errorf("vm.max_steps must not be negative, got %d", c.VM.MaxSteps)
	case c.VM.StackLimit < 0:
		return fmt.Errorf("vm.stack_limit must not be negative, got %d", c.VM.StackLimit)
	}
	return nil
}
