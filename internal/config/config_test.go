package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	be.Err(t, cfg.Validate(), nil)
	be.Equal(t, cfg.Debug, false)
	be.Equal(t, cfg.VM.MaxCallDepth, 1000)
	be.Equal(t, len(cfg.MemoryOptions()), 1)
}

func TestDecodeEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	be.Err(t, err, nil)
	be.Equal(t, cfg, Default())
}

func TestDecodeOverridesDefaults(t *testing.T) {
	src := `debug: true
memory:
  initial_pages: 2
  max_pages: 4
vm:
  max_call_depth: 64
repl:
  history_file: /tmp/hist
output:
  dump_ir: true
`
	cfg, err := Decode(strings.NewReader(src))
	be.Err(t, err, nil)
	be.True(t, cfg.Debug)
	be.Equal(t, cfg.Memory.InitialPages, 2)
	be.Equal(t, cfg.Memory.MaxPages, 4)
	be.Equal(t, cfg.Memory.PageWords, Default().Memory.PageWords)
	be.Equal(t, cfg.VM.MaxCallDepth, 64)
	be.Equal(t, cfg.REPL.HistoryFile, "/tmp/hist")
	be.True(t, cfg.Output.DumpIR)
	be.Equal(t, cfg.Output.DumpAST, false)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("memroy:\n  max_pages: 4\n"))
	be.Err(t, err, "memroy")
}

func TestValidationAggregatesIssues(t *testing.T) {
	src := `memory:
  page_words: 0
  initial_pages: 8
  max_pages: 2
vm:
  max_call_depth: -1
`
	_, err := Decode(strings.NewReader(src))
	var verr *ValidationError
	be.True(t, errors.As(err, &verr))
	be.Equal(t, len(verr.Issues), 3)
	be.Err(t, err, "vm.max_call_depth must be positive")
	be.True(t, strings.HasPrefix(err.Error(), "config validation failed:"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	be.Err(t, os.WriteFile(path, []byte("debug: true\n"), 0o644), nil)

	cfg, err := Load(path)
	be.Err(t, err, nil)
	be.True(t, cfg.Debug)

	cfg, err = Resolve(path)
	be.Err(t, err, nil)
	be.True(t, cfg.Debug)
}

func TestLoadInvalidFileNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	be.Err(t, os.WriteFile(path, []byte("vm:\n  max_call_depth: 0\n"), 0o644), nil)

	_, err := Load(path)
	be.Err(t, err, path)
	var verr *ValidationError
	be.True(t, errors.As(err, &verr))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	be.Err(t, err, "config: open")
	be.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestResolveWithoutFileUsesDefaults(t *testing.T) {
	// The package directory has no pyrite.yaml.
	cfg, err := Resolve("")
	be.Err(t, err, nil)
	be.Equal(t, cfg, Default())
}
