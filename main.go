package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do"

	"rat24f/pkg/app"
	"rat24f/pkg/compiler"
	"rat24f/pkg/config"
	"rat24f/pkg/utils"
)

func main() {
	inPath := flag.String("in", "", "input Rat24F source file path")
	outPath := flag.String("out", "", "output listing path (default: input with the configured suffix)")
	configPath := flag.String("config", "", "config file (default: "+config.FileName+" next to the input)")
	emitLLVM := flag.Bool("llvm", false, "also write LLVM IR next to the input")
	runProgram := flag.Bool("run", false, "run the translated program on the stack machine")
	runListing := flag.String("run-listing", "", "run an existing instruction listing on the stack machine")
	flag.Parse()

	if *runProgram && *runListing != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-listing, not both")
		os.Exit(2)
	}
	if *inPath == "" && *runListing == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to translate a source file, or -run-listing <file> to run an existing listing")
		flag.Usage()
		os.Exit(2)
	}
	if *runProgram && *inPath == "" {
		fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-listing <file>")
		os.Exit(2)
	}

	cfg, err := config.Load(resolveConfigPath(*configPath, *inPath, *runListing))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *emitLLVM {
		cfg.Output.LLVM = true
	}

	injector := app.NewContainer(cfg)
	runner := do.MustInvoke[*app.Runner](injector)

	if *runListing != "" {
		if _, err := runner.RunListing(*runListing); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	c := do.MustInvoke[*app.Compiler](injector)
	res, err := c.CompileFile(*inPath, *outPath)
	if err != nil {
		reportCompileError(err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "translated %d instructions, %d symbols -> %s\n",
		len(res.Program.Instructions), len(res.Program.Symbols), res.ListingPath)
	if res.IRPath != "" {
		fmt.Fprintf(os.Stderr, "llvm ir -> %s\n", res.IRPath)
	}

	if *runProgram {
		if _, err := runner.Run(res.Program); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
}

// resolveConfigPath prefers an explicit path, then rat24f.toml beside the
// input or listing.
func resolveConfigPath(explicit string, inputs ...string) string {
	if explicit != "" {
		return explicit
	}
	for _, in := range inputs {
		if in == "" {
			continue
		}
		if _, dir, err := utils.GetPathInfo(in); err == nil {
			return filepath.Join(dir, config.FileName)
		}
	}
	return config.FileName
}

func reportCompileError(err error) {
	var syn *compiler.SyntaxError
	switch {
	case errors.As(err, &syn):
		fmt.Fprintf(os.Stderr, "syntax error: %v\n", err)
	case errors.Is(err, compiler.ErrUndeclaredIdentifier), errors.Is(err, compiler.ErrDuplicateDeclaration):
		fmt.Fprintf(os.Stderr, "semantic error: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "translation failed: %v\n", err)
	}
}
