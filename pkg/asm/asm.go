// Package asm reads an instruction listing produced by the translator back
// into a compiler.Program, so that saved listings can be executed or lowered
// without the Rat24F source.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"rat24f/pkg/compiler"
)

const symbolHeader = "Symbol Table:"

// Reader resolves a listing in two passes: the first collects the symbol
// table section, the second decodes instructions. Operands may be written
// as numbers or as declared variable names.
type Reader struct {
	addrs   map[string]int
	symbols []compiler.Symbol
}

type parsedLine struct {
	lineNo   int
	index    int
	mnemonic string
	operands []string
}

func NewReader() *Reader {
	return &Reader{
		addrs: make(map[string]int),
	}
}

// Parse decodes a listing. The returned map takes an instruction index to the
// listing line it came from.
func Parse(text string) (*compiler.Program, map[int]int, error) {
	return NewReader().Parse(text)
}

func (r *Reader) Parse(text string) (*compiler.Program, map[int]int, error) {
	lines := strings.Split(text, "\n")

	code, symbolLines := splitSections(lines)
	if err := r.pass1(symbolLines, len(code)+1); err != nil {
		return nil, nil, err
	}

	instrs, sourceMap, err := r.pass2(code)
	if err != nil {
		return nil, nil, err
	}
	return &compiler.Program{Instructions: instrs, Symbols: r.symbols}, sourceMap, nil
}

// splitSections cuts lines at the symbol table header.
func splitSections(lines []string) (code, symbols []string) {
	for i, raw := range lines {
		if strings.TrimSpace(raw) == symbolHeader {
			return lines[:i], lines[i+1:]
		}
	}
	return lines, nil
}

// pass1 reads "name: Address = N, Type = T" lines. firstLine is the listing
// line number of the first entry, used in error messages.
func (r *Reader) pass1(lines []string, firstLine int) error {
	for i, raw := range lines {
		lineNo := firstLine + i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		name, rest, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || !isIdentifier(name) {
			return fmt.Errorf("invalid symbol entry on line %d: %q", lineNo, line)
		}

		var addr int
		var typeName string
		if _, err := fmt.Sscanf(strings.TrimSpace(rest), "Address = %d, Type = %s", &addr, &typeName); err != nil {
			return fmt.Errorf("invalid symbol entry on line %d: %q", lineNo, line)
		}
		typ, ok := compiler.ParseVarType(typeName)
		if !ok {
			return fmt.Errorf("unknown type %q on line %d", typeName, lineNo)
		}
		if _, exists := r.addrs[name]; exists {
			return fmt.Errorf("duplicate symbol '%s' on line %d", name, lineNo)
		}

		r.addrs[name] = addr
		r.symbols = append(r.symbols, compiler.Symbol{Name: name, Address: addr, Type: typ})
	}
	return nil
}

func (r *Reader) pass2(lines []string) ([]compiler.Instruction, map[int]int, error) {
	var instrs []compiler.Instruction
	sourceMap := make(map[int]int)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}
		if p.mnemonic == "" {
			continue
		}

		want := len(instrs) + 1
		if p.index != want {
			return nil, nil, fmt.Errorf("instruction index %d on line %d, expected %d", p.index, lineNo, want)
		}

		op, ok := compiler.LookupOpcode(p.mnemonic)
		if !ok {
			return nil, nil, fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
		}

		in := compiler.Instruction{Index: p.index, Op: op}
		if op.HasOperand() {
			if len(p.operands) != 1 {
				return nil, nil, fmt.Errorf("%s expects 1 operand on line %d", p.mnemonic, lineNo)
			}
			in.Operand, err = r.parseOperand(p.operands[0], lineNo)
			if err != nil {
				return nil, nil, err
			}
		} else if len(p.operands) != 0 {
			return nil, nil, fmt.Errorf("%s expects 0 operands on line %d", p.mnemonic, lineNo)
		}

		sourceMap[in.Index] = lineNo
		instrs = append(instrs, in)
	}

	end := len(instrs) + 1
	for _, in := range instrs {
		if in.Op.IsJump() && (in.Operand < 1 || in.Operand > end) {
			return nil, nil, fmt.Errorf("jump target %d out of range on line %d", in.Operand, sourceMap[in.Index])
		}
	}
	return instrs, sourceMap, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return p, fmt.Errorf("expected \"<index> <opcode>\" on line %d: %q", lineNo, line)
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return p, fmt.Errorf("invalid instruction index on line %d: %s", lineNo, fields[0])
	}
	p.index = idx
	p.mnemonic = strings.ToUpper(fields[1])
	if len(fields) > 2 {
		p.operands = fields[2:]
	}
	return p, nil
}

func stripComments(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func (r *Reader) parseOperand(token string, lineNo int) (int, error) {
	if token == "???" {
		return 0, fmt.Errorf("unresolved placeholder operand on line %d", lineNo)
	}
	if isIdentifier(token) {
		addr, ok := r.addrs[token]
		if !ok {
			return 0, fmt.Errorf("undefined symbol '%s' on line %d", token, lineNo)
		}
		return addr, nil
	}
	val, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("invalid operand on line %d: %s", lineNo, token)
	}
	return val, nil
}

// isIdentifier follows the tokenizer: a letter or '_' first, then letters,
// digits or '_'.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
