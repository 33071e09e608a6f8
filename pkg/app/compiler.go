package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"rat24f/pkg/compiler"
	"rat24f/pkg/config"
	"rat24f/pkg/llvm"
	"rat24f/pkg/utils"
)

// Compiler translates source files and writes the outputs selected by the
// [output] section of the configuration.
type Compiler struct {
	cfg *config.Config
}

// Result names the files a compilation wrote.
type Result struct {
	Program     *compiler.Program
	ListingPath string
	IRPath      string
}

func NewCompiler(cfg *config.Config) *Compiler {
	return &Compiler{cfg: cfg}
}

// CompileFile translates inPath. The listing goes to outPath, or next to the
// input with the configured suffix when outPath is empty. Nothing is written
// when translation fails.
func (c *Compiler) CompileFile(inPath, outPath string) (*Result, error) {
	source, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %q: %w", inPath, err)
	}

	prog, err := compiler.Compile(string(source))
	if err != nil {
		return nil, err
	}

	res := &Result{Program: prog, ListingPath: outPath}
	if res.ListingPath == "" {
		res.ListingPath = utils.OutputPath(inPath, c.cfg.Output.Suffix)
	}
	if err := c.writeFile(res.ListingPath, func(w io.Writer) error {
		return c.WriteListing(w, prog)
	}); err != nil {
		return nil, err
	}

	if c.cfg.Output.LLVM {
		res.IRPath = utils.OutputPath(inPath, ".ll")
		if err := c.writeFile(res.IRPath, func(w io.Writer) error {
			return WriteIR(w, prog)
		}); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// WriteListing writes the instruction listing, followed by the symbol table
// when output.symbols is set.
func (c *Compiler) WriteListing(w io.Writer, prog *compiler.Program) error {
	if err := prog.WriteInstructions(w); err != nil {
		return err
	}
	if !c.cfg.Output.Symbols {
		return nil
	}
	return prog.WriteSymbols(w)
}

// WriteIR lowers prog and writes the LLVM module text.
func WriteIR(w io.Writer, prog *compiler.Program) error {
	m, err := llvm.Lower(prog)
	if err != nil {
		return fmt.Errorf("llvm lowering failed: %w", err)
	}
	_, err = io.WriteString(w, m.String())
	return err
}

func (c *Compiler) writeFile(path string, write func(io.Writer) error) error {
	var sb strings.Builder
	if err := write(&sb); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write output file %q: %w", path, err)
	}
	return nil
}
