package compiler

import (
	"errors"
	"strings"
	"testing"
)

const countdownSource = `$$
[* counts down from n and prints each value *]
integer n;
get(n);
while (n > 0) {
	put(n);
	n = n - 1;
}
$$`

func TestCompile(t *testing.T) {
	prog, err := Compile(countdownSource)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := `1 STDIN
2 POPM 9000
3 PUSHM 9000
4 PUSHI 0
5 GRT
6 LABEL
7 JUMPZ 15
8 PUSHM 9000
9 STDOUT
10 PUSHM 9000
11 PUSHI 1
12 SUB
13 POPM 9000
14 JUMP 3
Symbol Table:
n: Address = 9000, Type = integer
`
	if got := prog.String(); got != want {
		t.Errorf("listing =\n%s\nwant\n%s", got, want)
	}

	sym, ok := prog.SymbolAt(9000)
	if !ok || sym.Name != "n" {
		t.Errorf("SymbolAt(9000) = %+v, %t", sym, ok)
	}
	if _, ok := prog.SymbolAt(9001); ok {
		t.Error("SymbolAt(9001) found a symbol")
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		prefix string
		target error
	}{
		{"unterminated comment", "$$ [* x = 1; $$", "preprocess error", nil},
		{"illegal character", "$$ x = 1 @ 2; $$", "lex error", nil},
		{"syntax", "$$ integer x; x = 1 $$", "translate error", ErrSyntax},
		{"undeclared", "$$ x = 1; $$", "translate error", ErrUndeclaredIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Compile(tt.src)
			if err == nil {
				t.Fatalf("expected error, got program:\n%s", prog)
			}
			if !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Errorf("error %q should start with %q", err, tt.prefix)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v in chain, got %v", tt.target, err)
			}
		})
	}
}

func TestProgramWriters(t *testing.T) {
	prog, err := Compile("$$ boolean b; b = true; $$")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	var code, syms strings.Builder
	if err := prog.WriteInstructions(&code); err != nil {
		t.Fatal(err)
	}
	if err := prog.WriteSymbols(&syms); err != nil {
		t.Fatal(err)
	}
	if code.String() != "1 PUSHI 1\n2 POPM 9000\n" {
		t.Errorf("instructions = %q", code.String())
	}
	if syms.String() != "Symbol Table:\nb: Address = 9000, Type = boolean\n" {
		t.Errorf("symbols = %q", syms.String())
	}
}
