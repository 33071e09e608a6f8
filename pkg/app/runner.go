package app

import (
	"fmt"
	"io"
	"os"

	"rat24f/pkg/asm"
	"rat24f/pkg/compiler"
	"rat24f/pkg/config"
	"rat24f/pkg/vm"
)

// Runner executes programs with the limits from the [vm] section.
type Runner struct {
	cfg *config.Config

	// Input and Output are handed to every machine. Nil means stdin/stdout.
	Input  io.Reader
	Output io.Writer
}

func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run executes prog and returns the halted machine for inspection.
func (r *Runner) Run(prog *compiler.Program) (*vm.VM, error) {
	m := vm.New(prog.Instructions)
	m.Input = r.Input
	m.Output = r.Output
	m.MaxSteps = r.cfg.VM.MaxSteps
	m.StackLimit = r.cfg.VM.StackLimit
	if err := m.Run(); err != nil {
		return m, fmt.Errorf("run failed: %w", err)
	}
	return m, nil
}

// RunListing reads a saved instruction listing and executes it.
func (r *Runner) RunListing(path string) (*vm.VM, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing %q: %w", path, err)
	}
	prog, _, err := asm.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("invalid listing %q: %w", path, err)
	}
	return r.Run(prog)
}
