package compiler

import (
	"io"
	"strings"
)

// Program is the result of a successful translation.
type Program struct {
	Instructions []Instruction
	Symbols      []Symbol
}

// SymbolAt returns the symbol stored at addr.
func (p *Program) SymbolAt(addr int) (Symbol, bool) {
	if i := addr - BaseAddress; i >= 0 && i < len(p.Symbols) && p.Symbols[i].Address == addr {
		return p.Symbols[i], true
	}
	for _, sym := range p.Symbols {
		if sym.Address == addr {
			return sym, true
		}
	}
	return Symbol{}, false
}

// WriteInstructions writes the instruction listing.
func (p *Program) WriteInstructions(w io.Writer) error {
	return writeInstructions(w, p.Instructions)
}

// WriteSymbols writes the symbol table listing.
func (p *Program) WriteSymbols(w io.Writer) error {
	return writeSymbols(w, p.Symbols)
}

// Dump writes the instruction listing followed by the symbol table listing.
func (p *Program) Dump(w io.Writer) error {
	if err := p.WriteInstructions(w); err != nil {
		return err
	}
	return p.WriteSymbols(w)
}

func (p *Program) String() string {
	var sb strings.Builder
	_ = p.Dump(&sb)
	return sb.String()
}
