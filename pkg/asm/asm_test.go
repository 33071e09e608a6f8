package asm

import (
	"reflect"
	"strings"
	"testing"

	"rat24f/pkg/compiler"
)

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
		{"???", false},
		{"café", true},
		{"π2", true},
		{"-4", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	if got := stripComments("3 ADD ; sum"); got != "3 ADD " {
		t.Errorf("stripComments = %q", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []compiler.Instruction
	}{
		{
			name:  "no operand",
			input: "1 STDIN\n2 ADD\n",
			want: []compiler.Instruction{
				{Index: 1, Op: compiler.OpSTDIN},
				{Index: 2, Op: compiler.OpADD},
			},
		},
		{
			name:  "numeric operands",
			input: "1 PUSHI -4\n2 POPM 9000\n3 JUMP 4",
			want: []compiler.Instruction{
				{Index: 1, Op: compiler.OpPUSHI, Operand: -4},
				{Index: 2, Op: compiler.OpPOPM, Operand: 9000},
				{Index: 3, Op: compiler.OpJUMP, Operand: 4},
			},
		},
		{
			name:  "lower case and comments",
			input: "; header\n\n1 pushi 2 ; two\n2 stdout\n",
			want: []compiler.Instruction{
				{Index: 1, Op: compiler.OpPUSHI, Operand: 2},
				{Index: 2, Op: compiler.OpSTDOUT},
			},
		},
		{
			name:  "symbolic operand",
			input: "1 PUSHM total\n2 STDOUT\nSymbol Table:\ntotal: Address = 9003, Type = integer\n",
			want: []compiler.Instruction{
				{Index: 1, Op: compiler.OpPUSHM, Operand: 9003},
				{Index: 2, Op: compiler.OpSTDOUT},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, _, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !reflect.DeepEqual(prog.Instructions, tt.want) {
				t.Errorf("got %+v\nwant %+v", prog.Instructions, tt.want)
			}
		})
	}
}

func TestParseSymbols(t *testing.T) {
	input := `1 PUSHI 1
2 POPM 9001
Symbol Table:
n: Address = 9000, Type = integer
done: Address = 9001, Type = boolean
`
	prog, _, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []compiler.Symbol{
		{Name: "n", Address: 9000, Type: compiler.TypeInteger},
		{Name: "done", Address: 9001, Type: compiler.TypeBoolean},
	}
	if !reflect.DeepEqual(prog.Symbols, want) {
		t.Errorf("symbols = %+v, want %+v", prog.Symbols, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"index gap", "1 ADD\n3 SUB", "instruction index 3 on line 2, expected 2"},
		{"bad index", "x ADD", "invalid instruction index on line 1"},
		{"missing opcode", "1", "on line 1"},
		{"unknown opcode", "1 HALT", "unknown instruction on line 1: HALT"},
		{"missing operand", "1 PUSHI", "PUSHI expects 1 operand on line 1"},
		{"extra operand", "1 ADD 3", "ADD expects 0 operands on line 1"},
		{"placeholder", "1 PUSHI 0\n2 JUMPZ ???", "unresolved placeholder operand on line 2"},
		{"bad operand", "1 PUSHI 0x10", "invalid operand on line 1"},
		{"undefined symbol", "1 PUSHM y", "undefined symbol 'y' on line 1"},
		{"jump out of range", "1 JUMP 3", "jump target 3 out of range on line 1"},
		{"jump to zero", "1 PUSHI 0\n2 JUMPZ 0", "jump target 0 out of range on line 2"},
		{"bad symbol entry", "1 ADD\nSymbol Table:\nx Address 9000", "invalid symbol entry on line 3"},
		{"unknown type", "Symbol Table:\nx: Address = 9000, Type = real", `unknown type "real" on line 2`},
		{"duplicate symbol", "Symbol Table:\nx: Address = 9000, Type = integer\nx: Address = 9001, Type = integer", "duplicate symbol 'x' on line 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestParseCompilerListing(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "loop and branch",
			src: `$$
integer i, sum;
boolean big;
while (i < 5) {
	sum = sum + i;
	i = i + 1;
}
if (sum > 9) big = true; else big = false; endif
put(sum);
$$`,
		},
		{
			name: "unicode identifiers",
			src:  "$$ integer café, größe2; café = 1; größe2 = café + 1; put(größe2); $$",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertListingRoundTrip(t, tt.src)
		})
	}
}

func assertListingRoundTrip(t *testing.T, src string) {
	t.Helper()
	compiled, err := compiler.Compile(src)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	parsed, _, err := Parse(compiled.String())
	if err != nil {
		t.Fatalf("Parse failed: %v\n%s", err, compiled)
	}
	if !reflect.DeepEqual(parsed.Instructions, compiled.Instructions) {
		t.Errorf("instructions differ:\n got %+v\nwant %+v", parsed.Instructions, compiled.Instructions)
	}
	if !reflect.DeepEqual(parsed.Symbols, compiled.Symbols) {
		t.Errorf("symbols differ:\n got %+v\nwant %+v", parsed.Symbols, compiled.Symbols)
	}
	if parsed.String() != compiled.String() {
		t.Errorf("listing differs:\n%s\nwant\n%s", parsed, compiled)
	}
}
