package compiler

import (
	"fmt"
	"io"
	"strings"
)

// BaseAddress is the memory slot of the first declared variable.
const BaseAddress = 9000

// VarType is the declared type of a variable.
type VarType int

const (
	TypeInteger VarType = iota
	TypeBoolean
)

func (v VarType) String() string {
	switch v {
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	}
	return fmt.Sprintf("VarType(%d)", int(v))
}

// varTypes maps declaration keywords to their VarType.
var varTypes = map[string]VarType{
	"integer": TypeInteger,
	"boolean": TypeBoolean,
}

// ParseVarType returns the VarType named by a declaration keyword.
func ParseVarType(name string) (VarType, bool) {
	v, ok := varTypes[name]
	return v, ok
}

// Symbol is one declared variable.
type Symbol struct {
	Name    string
	Address int
	Type    VarType
}

// SymbolTable maps variable names to memory addresses.
// There is a single flat namespace; entries are never removed or rebound.
type SymbolTable struct {
	index   map[string]int // name -> position in entries
	entries []Symbol       // declaration order
	next    int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		index: make(map[string]int),
		next:  BaseAddress,
	}
}

// Declare assigns the next free address to name.
func (s *SymbolTable) Declare(name string, typ VarType) (Symbol, error) {
	if i, ok := s.index[name]; ok {
		prev := s.entries[i]
		return prev, fmt.Errorf("%w: %q already declared as %s at address %d", ErrDuplicateDeclaration, name, prev.Type, prev.Address)
	}
	sym := Symbol{Name: name, Address: s.next, Type: typ}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, sym)
	s.next++
	return sym, nil
}

// Lookup returns the symbol declared for name.
func (s *SymbolTable) Lookup(name string) (Symbol, error) {
	i, ok := s.index[name]
	if !ok {
		return Symbol{}, fmt.Errorf("%w: %q used without declaration", ErrUndeclaredIdentifier, name)
	}
	return s.entries[i], nil
}

// Len returns the number of declared symbols.
func (s *SymbolTable) Len() int {
	return len(s.entries)
}

// Entries returns a copy of all symbols in declaration order.
func (s *SymbolTable) Entries() []Symbol {
	out := make([]Symbol, len(s.entries))
	copy(out, s.entries)
	return out
}

// Dump writes the symbol table listing to w.
func (s *SymbolTable) Dump(w io.Writer) error {
	return writeSymbols(w, s.entries)
}

// String returns the symbol table listing.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	_ = s.Dump(&sb)
	return sb.String()
}

func writeSymbols(w io.Writer, syms []Symbol) error {
	if _, err := io.WriteString(w, "Symbol Table:\n"); err != nil {
		return err
	}
	for _, sym := range syms {
		if _, err := fmt.Fprintf(w, "%s: Address = %d, Type = %s\n", sym.Name, sym.Address, sym.Type); err != nil {
			return err
		}
	}
	return nil
}
