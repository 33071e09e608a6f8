package compiler

import (
	"fmt"
	"strconv"
)

// Opcode is a stack-machine operation.
type Opcode uint8

const (
	OpPUSHI Opcode = iota + 1 // push immediate
	OpPUSHM                   // push memory cell
	OpPOPM                    // pop into memory cell
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpEQU
	OpNEQ
	OpLES
	OpLEQ
	OpGRT
	OpGEQ
	OpSTDIN
	OpSTDOUT
	OpJUMP
	OpJUMPZ // pop; jump if zero
	OpLABEL // jump-target marker, no effect
)

var opNames = [...]string{
	OpPUSHI:  "PUSHI",
	OpPUSHM:  "PUSHM",
	OpPOPM:   "POPM",
	OpADD:    "ADD",
	OpSUB:    "SUB",
	OpMUL:    "MUL",
	OpDIV:    "DIV",
	OpEQU:    "EQU",
	OpNEQ:    "NEQ",
	OpLES:    "LES",
	OpLEQ:    "LEQ",
	OpGRT:    "GRT",
	OpGEQ:    "GEQ",
	OpSTDIN:  "STDIN",
	OpSTDOUT: "STDOUT",
	OpJUMP:   "JUMP",
	OpJUMPZ:  "JUMPZ",
	OpLABEL:  "LABEL",
}

func (op Opcode) String() string {
	if int(op) > 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// HasOperand reports whether op takes an operand.
func (op Opcode) HasOperand() bool {
	switch op {
	case OpPUSHI, OpPUSHM, OpPOPM, OpJUMP, OpJUMPZ:
		return true
	}
	return false
}

// IsJump reports whether op transfers control.
func (op Opcode) IsJump() bool {
	return op == OpJUMP || op == OpJUMPZ
}

// LookupOpcode returns the opcode with the given mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	for i, n := range opNames {
		if n != "" && n == name {
			return Opcode(i), true
		}
	}
	return 0, false
}

// relops maps relational operator lexemes to their comparison opcode.
var relops = map[string]Opcode{
	"==": OpEQU,
	"!=": OpNEQ,
	"<":  OpLES,
	"<=": OpLEQ,
	">":  OpGRT,
	">=": OpGEQ,
}

// unresolved is printed in place of a placeholder's operand.
const unresolved = "???"

// Instruction is one line of generated code.
type Instruction struct {
	Index   int // 1-based position in the listing
	Op      Opcode
	Operand int
	Pending bool // placeholder whose operand has not been patched yet
}

// String renders the listing line "<index> <OPCODE>[ <operand>]".
func (in Instruction) String() string {
	switch {
	case in.Pending:
		return strconv.Itoa(in.Index) + " " + in.Op.String() + " " + unresolved
	case in.Op.HasOperand():
		return strconv.Itoa(in.Index) + " " + in.Op.String() + " " + strconv.Itoa(in.Operand)
	default:
		return strconv.Itoa(in.Index) + " " + in.Op.String()
	}
}
