// Package config loads pyrite.yaml. Every field has a default, so a missing
// or empty file yields a usable configuration.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pyrite/internal/memory"
	"pyrite/internal/vm"
)

// DefaultFileName is looked up in the working directory when no path is
// given.
const DefaultFileName = "pyrite.yaml"

// Config is the full set of tunables.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Memory MemoryConfig `yaml:"memory"`
	VM     VMConfig     `yaml:"vm"`
	REPL   REPLConfig   `yaml:"repl"`
	Output OutputConfig `yaml:"output"`
}

// MemoryConfig sizes the integer arena.
type MemoryConfig struct {
	PageWords    int `yaml:"page_words"`
	InitialPages int `yaml:"initial_pages"`
	MaxPages     int `yaml:"max_pages"`
}

type VMConfig struct {
	MaxCallDepth int `yaml:"max_call_depth"`
}

type REPLConfig struct {
	// HistoryFile defaults to ~/.pyrite_history when empty.
	HistoryFile string `yaml:"history_file"`
}

type OutputConfig struct {
	DumpIR  bool `yaml:"dump_ir"`
	DumpAST bool `yaml:"dump_ast"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Memory: MemoryConfig{
			PageWords:    memory.DefaultPageWords,
			InitialPages: memory.DefaultInitialPages,
			MaxPages:     memory.DefaultMaxPages,
		},
		VM: VMConfig{MaxCallDepth: vm.DefaultMaxCallDepth},
	}
}

// ValidationError aggregates configuration failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Validate reports every out-of-range value at once.
func (c *Config) Validate() error {
	var issues []string
	if c.Memory.PageWords <= 0 {
		issues = append(issues, "memory.page_words must be positive")
	}
	if c.Memory.InitialPages <= 0 {
		issues = append(issues, "memory.initial_pages must be positive")
	}
	if c.Memory.MaxPages < c.Memory.InitialPages {
		issues = append(issues, "memory.max_pages must be at least memory.initial_pages")
	}
	if c.VM.MaxCallDepth <= 0 {
		issues = append(issues, "vm.max_call_depth must be positive")
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// MemoryOptions returns the arena options for c.
func (c *Config) MemoryOptions() []memory.Option {
	return []memory.Option{memory.WithPages(c.Memory.PageWords, c.Memory.InitialPages, c.Memory.MaxPages)}
}

// Decode reads YAML from r over the defaults. Unknown keys are errors.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "config: parse")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: open %s", path)
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return cfg, nil
}

// Resolve loads path when set. Otherwise it loads DefaultFileName from the
// working directory if present and falls back to Default.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFileName); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "config: stat %s", DefaultFileName)
	}
	return Load(DefaultFileName)
}
