// Package llvm lowers translated Rat24F programs to LLVM IR.
//
// The stack machine is kept explicit: main allocates an i32 array for the
// operand stack plus a stack pointer, and every instruction loads and stores
// through them. Each variable becomes an i32 global. Input and output go
// through two external functions a runtime has to provide:
//
//	declare i32 @rat_read()
//	declare void @rat_write(i32)
package llvm

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"rat24f/pkg/compiler"
)

// StackSize is the number of operand stack slots allocated by main.
const StackSize = 256

var (
	ErrUnpatched     = errors.New("unpatched placeholder")
	ErrBadJumpTarget = errors.New("bad jump target")
	ErrOperandRange  = errors.New("operand does not fit in i32")
	ErrUnknownOpcode = errors.New("unknown opcode")
)

var predicates = map[compiler.Opcode]enum.IPred{
	compiler.OpEQU: enum.IPredEQ,
	compiler.OpNEQ: enum.IPredNE,
	compiler.OpLES: enum.IPredSLT,
	compiler.OpLEQ: enum.IPredSLE,
	compiler.OpGRT: enum.IPredSGT,
	compiler.OpGEQ: enum.IPredSGE,
}

var (
	zero = constant.NewInt(types.I32, 0)
	one  = constant.NewInt(types.I32, 1)
)

type lowerer struct {
	prog *compiler.Program

	module  *ir.Module
	read    *ir.Func
	write   *ir.Func
	main    *ir.Func
	stackTy *types.ArrayType
	stack   value.Value
	sp      value.Value

	globals map[int]*ir.Global
	blocks  map[int]*ir.Block
	exit    *ir.Block
}

// Lower translates prog into a module whose main runs the program and
// returns 0.
func Lower(prog *compiler.Program) (*ir.Module, error) {
	l := &lowerer{
		prog:    prog,
		module:  ir.NewModule(),
		globals: make(map[int]*ir.Global),
		blocks:  make(map[int]*ir.Block),
	}
	if err := l.check(); err != nil {
		return nil, err
	}
	l.declare()
	l.splitBlocks()
	if err := l.emit(); err != nil {
		return nil, err
	}
	return l.module, nil
}

func (l *lowerer) check() error {
	end := len(l.prog.Instructions) + 1
	for _, in := range l.prog.Instructions {
		if in.Pending {
			return fmt.Errorf("instruction %d: %w", in.Index, ErrUnpatched)
		}
		if in.Op.IsJump() && (in.Operand < 1 || in.Operand > end) {
			return fmt.Errorf("instruction %d: %w: %d", in.Index, ErrBadJumpTarget, in.Operand)
		}
		if in.Op == compiler.OpPUSHI && (in.Operand < math.MinInt32 || in.Operand > math.MaxInt32) {
			return fmt.Errorf("instruction %d: %w: %d", in.Index, ErrOperandRange, in.Operand)
		}
	}
	return nil
}

func (l *lowerer) declare() {
	for _, sym := range l.prog.Symbols {
		l.globals[sym.Address] = l.module.NewGlobalDef("var."+sym.Name, zero)
	}
	l.read = l.module.NewFunc("rat_read", types.I32)
	l.write = l.module.NewFunc("rat_write", types.Void, ir.NewParam("v", types.I32))
	l.main = l.module.NewFunc("main", types.I32)
}

// global returns the variable stored at addr. Addresses without a symbol,
// as written in hand-made listings, get a global named after the address.
func (l *lowerer) global(addr int) *ir.Global {
	if g, ok := l.globals[addr]; ok {
		return g
	}
	g := l.module.NewGlobalDef(fmt.Sprintf("mem.%d", addr), zero)
	l.globals[addr] = g
	return g
}

// splitBlocks creates a block for every leader: the first instruction,
// every jump target, and every instruction following a jump.
func (l *lowerer) splitBlocks() {
	code := l.prog.Instructions
	leaders := map[int]bool{}
	if len(code) > 0 {
		leaders[1] = true
	}
	for _, in := range code {
		if !in.Op.IsJump() {
			continue
		}
		if in.Operand <= len(code) {
			leaders[in.Operand] = true
		}
		if in.Index < len(code) {
			leaders[in.Index+1] = true
		}
	}

	idx := make([]int, 0, len(leaders))
	for i := range leaders {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	entry := l.main.NewBlock("entry")
	l.stackTy = types.NewArray(StackSize, types.I32)
	l.stack = entry.NewAlloca(l.stackTy)
	sp := entry.NewAlloca(types.I32)
	entry.NewStore(zero, sp)
	l.sp = sp

	for _, i := range idx {
		l.blocks[i] = l.main.NewBlock(fmt.Sprintf("L%d", i))
	}
	l.exit = l.main.NewBlock("exit")
	l.exit.NewRet(zero)

	entry.NewBr(l.target(1))
}

func (l *lowerer) target(index int) *ir.Block {
	if b, ok := l.blocks[index]; ok {
		return b
	}
	return l.exit
}

func (l *lowerer) push(b *ir.Block, v value.Value) {
	sp := b.NewLoad(types.I32, l.sp)
	slot := b.NewGetElementPtr(l.stackTy, l.stack, zero, sp)
	b.NewStore(v, slot)
	b.NewStore(b.NewAdd(sp, one), l.sp)
}

func (l *lowerer) pop(b *ir.Block) value.Value {
	sp := b.NewSub(b.NewLoad(types.I32, l.sp), one)
	b.NewStore(sp, l.sp)
	slot := b.NewGetElementPtr(l.stackTy, l.stack, zero, sp)
	return b.NewLoad(types.I32, slot)
}

func (l *lowerer) emit() error {
	var cur *ir.Block
	for _, in := range l.prog.Instructions {
		if next, ok := l.blocks[in.Index]; ok {
			if cur != nil && cur.Term == nil {
				cur.NewBr(next)
			}
			cur = next
		}
		if err := l.lowerInstruction(cur, in); err != nil {
			return err
		}
	}
	if cur != nil && cur.Term == nil {
		cur.NewBr(l.exit)
	}
	return nil
}

func (l *lowerer) lowerInstruction(b *ir.Block, in compiler.Instruction) error {
	switch in.Op {
	case compiler.OpPUSHI:
		l.push(b, constant.NewInt(types.I32, int64(in.Operand)))

	case compiler.OpPUSHM:
		l.push(b, b.NewLoad(types.I32, l.global(in.Operand)))

	case compiler.OpPOPM:
		b.NewStore(l.pop(b), l.global(in.Operand))

	case compiler.OpADD, compiler.OpSUB, compiler.OpMUL, compiler.OpDIV:
		right := l.pop(b)
		left := l.pop(b)
		var v value.Value
		switch in.Op {
		case compiler.OpADD:
			v = b.NewAdd(left, right)
		case compiler.OpSUB:
			v = b.NewSub(left, right)
		case compiler.OpMUL:
			v = b.NewMul(left, right)
		case compiler.OpDIV:
			v = b.NewSDiv(left, right)
		}
		l.push(b, v)

	case compiler.OpEQU, compiler.OpNEQ, compiler.OpLES, compiler.OpLEQ, compiler.OpGRT, compiler.OpGEQ:
		right := l.pop(b)
		left := l.pop(b)
		cmp := b.NewICmp(predicates[in.Op], left, right)
		l.push(b, b.NewZExt(cmp, types.I32))

	case compiler.OpSTDIN:
		l.push(b, b.NewCall(l.read))

	case compiler.OpSTDOUT:
		b.NewCall(l.write, l.pop(b))

	case compiler.OpJUMP:
		b.NewBr(l.target(in.Operand))

	case compiler.OpJUMPZ:
		isZero := b.NewICmp(enum.IPredEQ, l.pop(b), zero)
		b.NewCondBr(isZero, l.target(in.Operand), l.target(in.Index+1))

	case compiler.OpLABEL:
		// No operation.

	default:
		return fmt.Errorf("instruction %d: %w: %d", in.Index, ErrUnknownOpcode, in.Op)
	}
	return nil
}
