package compiler

import (
	"fmt"
	"io"
	"strings"
)

// CodeGen is an append-only instruction buffer. The only mutation of an
// emitted instruction is the single Patch of a jump placeholder.
type CodeGen struct {
	instrs  []Instruction
	pending int // placeholders not yet patched
}

func NewCodeGen() *CodeGen {
	return &CodeGen{}
}

// Next returns the index the next emitted instruction will get.
func (cg *CodeGen) Next() int {
	return len(cg.instrs) + 1
}

// Len returns the number of emitted instructions.
func (cg *CodeGen) Len() int {
	return len(cg.instrs)
}

// Emit appends an instruction without an operand and returns its index.
func (cg *CodeGen) Emit(op Opcode) int {
	return cg.append(Instruction{Op: op})
}

// EmitOperand appends an instruction with a known operand and returns its index.
func (cg *CodeGen) EmitOperand(op Opcode, operand int) int {
	return cg.append(Instruction{Op: op, Operand: operand})
}

// EmitPlaceholder appends a jump whose target is filled in later by Patch.
func (cg *CodeGen) EmitPlaceholder(op Opcode) int {
	if !op.IsJump() {
		panic(fmt.Sprintf("EmitPlaceholder called with non-jump opcode %s", op))
	}
	cg.pending++
	return cg.append(Instruction{Op: op, Pending: true})
}

func (cg *CodeGen) append(in Instruction) int {
	in.Index = cg.Next()
	cg.instrs = append(cg.instrs, in)
	return in.Index
}

// Patch resolves the placeholder at index to jump to target. Target may be one
// past the last instruction, which means "fall off the end".
func (cg *CodeGen) Patch(index, target int) error {
	if index < 1 || index > len(cg.instrs) {
		return fmt.Errorf("%w: index %d outside 1..%d", ErrInvalidPatchTarget, index, len(cg.instrs))
	}
	in := &cg.instrs[index-1]
	if !in.Pending {
		return fmt.Errorf("%w: instruction %q is not an unresolved placeholder", ErrInvalidPatchTarget, in.String())
	}
	if target < 1 || target > cg.Next() {
		return fmt.Errorf("%w: jump target %d outside 1..%d", ErrInvalidPatchTarget, target, cg.Next())
	}
	in.Operand = target
	in.Pending = false
	cg.pending--
	return nil
}

// Finalize checks that every placeholder has been patched.
func (cg *CodeGen) Finalize() error {
	if cg.pending == 0 {
		return nil
	}
	for _, in := range cg.instrs {
		if in.Pending {
			return fmt.Errorf("%w: %d left, first is %q", ErrUnpatchedPlaceholder, cg.pending, in.String())
		}
	}
	return nil
}

// Instructions returns a copy of the emitted instructions.
func (cg *CodeGen) Instructions() []Instruction {
	out := make([]Instruction, len(cg.instrs))
	copy(out, cg.instrs)
	return out
}

// Dump writes the instruction listing to w, one line per instruction.
func (cg *CodeGen) Dump(w io.Writer) error {
	return writeInstructions(w, cg.instrs)
}

func (cg *CodeGen) String() string {
	var sb strings.Builder
	_ = cg.Dump(&sb)
	return sb.String()
}

func writeInstructions(w io.Writer, instrs []Instruction) error {
	for _, in := range instrs {
		if _, err := io.WriteString(w, in.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}
