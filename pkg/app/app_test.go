package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samber/do"

	"rat24f/pkg/compiler"
	"rat24f/pkg/config"
	"rat24f/pkg/vm"
)

const doubleSource = `$$
integer n;
get(n);
put(n * 2);
$$`

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestContainer(t *testing.T) {
	cfg := config.Default()
	i := NewContainer(cfg)

	got, err := do.Invoke[*config.Config](i)
	if err != nil {
		t.Fatalf("Invoke config: %v", err)
	}
	if got != cfg {
		t.Error("container should provide the given config")
	}
	if _, err := do.Invoke[*Compiler](i); err != nil {
		t.Errorf("Invoke compiler: %v", err)
	}
	r1 := do.MustInvoke[*Runner](i)
	r2 := do.MustInvoke[*Runner](i)
	if r1 != r2 {
		t.Error("runner should be a singleton")
	}

	if c := do.MustInvoke[*config.Config](NewContainer(nil)); c.Output.Suffix != "_output.txt" {
		t.Errorf("nil config should fall back to defaults, got %+v", c)
	}
}

func TestCompileFile(t *testing.T) {
	in := writeSource(t, "double.rat", doubleSource)
	c := NewCompiler(config.Default())

	res, err := c.CompileFile(in, "")
	if err != nil {
		t.Fatalf("CompileFile failed: %v", err)
	}
	if want := strings.TrimSuffix(in, ".rat") + "_output.txt"; res.ListingPath != want {
		t.Errorf("ListingPath = %q, want %q", res.ListingPath, want)
	}
	if res.IRPath != "" {
		t.Errorf("IRPath = %q, want none", res.IRPath)
	}

	data, err := os.ReadFile(res.ListingPath)
	if err != nil {
		t.Fatal(err)
	}
	want := `1 STDIN
2 POPM 9000
3 PUSHM 9000
4 PUSHI 2
5 MUL
6 STDOUT
Symbol Table:
n: Address = 9000, Type = integer
`
	if string(data) != want {
		t.Errorf("listing =\n%s\nwant\n%s", data, want)
	}
}

func TestCompileFileOptions(t *testing.T) {
	in := writeSource(t, "double.rat", doubleSource)
	cfg := config.Default()
	cfg.Output.Symbols = false
	cfg.Output.LLVM = true
	out := filepath.Join(t.TempDir(), "custom.txt")

	res, err := NewCompiler(cfg).CompileFile(in, out)
	if err != nil {
		t.Fatalf("CompileFile failed: %v", err)
	}
	if res.ListingPath != out {
		t.Errorf("ListingPath = %q, want %q", res.ListingPath, out)
	}

	listing, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(listing), "Symbol Table:") {
		t.Errorf("symbols should be omitted:\n%s", listing)
	}

	ir, err := os.ReadFile(res.IRPath)
	if err != nil {
		t.Fatalf("reading IR: %v", err)
	}
	if !strings.Contains(string(ir), "define i32 @main()") {
		t.Errorf("IR missing main:\n%s", ir)
	}
}

func TestCompileFileErrors(t *testing.T) {
	c := NewCompiler(config.Default())

	if _, err := c.CompileFile(filepath.Join(t.TempDir(), "missing.rat"), ""); err == nil {
		t.Error("expected error for missing input")
	}

	in := writeSource(t, "bad.rat", "$$ integer x; y = 1; $$")
	_, err := c.CompileFile(in, "")
	if !errors.Is(err, compiler.ErrUndeclaredIdentifier) {
		t.Fatalf("error = %v, want %v", err, compiler.ErrUndeclaredIdentifier)
	}
	if _, statErr := os.Stat(strings.TrimSuffix(in, ".rat") + "_output.txt"); !os.IsNotExist(statErr) {
		t.Error("no listing should be written for a failed translation")
	}
}

func TestRunner(t *testing.T) {
	prog, err := compiler.Compile(doubleSource)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	r := NewRunner(config.Default())
	r.Input = strings.NewReader("21")
	r.Output = &out

	m, err := r.Run(prog)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q, want %q", out.String(), "42\n")
	}
	if m.Memory(9000) != 21 {
		t.Errorf("n = %d, want 21", m.Memory(9000))
	}
}

func TestRunnerLimits(t *testing.T) {
	prog, err := compiler.Compile("$$ integer x; while (x == 0) x = 0; $$")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.VM.MaxSteps = 100

	m, err := NewRunner(cfg).Run(prog)
	if !errors.Is(err, vm.ErrStepLimit) {
		t.Fatalf("Run error = %v, want %v", err, vm.ErrStepLimit)
	}
	if m.Steps != 100 {
		t.Errorf("Steps = %d, want 100", m.Steps)
	}
}

func TestRunListing(t *testing.T) {
	in := writeSource(t, "double.rat", doubleSource)
	res, err := NewCompiler(config.Default()).CompileFile(in, "")
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	r := NewRunner(config.Default())
	r.Input = strings.NewReader("5")
	r.Output = &out
	if _, err := r.RunListing(res.ListingPath); err != nil {
		t.Fatalf("RunListing failed: %v", err)
	}
	if out.String() != "10\n" {
		t.Errorf("output = %q, want %q", out.String(), "10\n")
	}

	bad := writeSource(t, "bad.txt", "1 JUMPZ ???\n")
	if _, err := r.RunListing(bad); err == nil || !strings.Contains(err.Error(), "invalid listing") {
		t.Errorf("RunListing error = %v, want invalid listing", err)
	}
}
