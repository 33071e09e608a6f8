// Package vm executes translated Rat24F instruction listings on a simple
// operand-stack machine.
package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"rat24f/pkg/compiler"
)

const (
	DefaultMaxSteps   = 1_000_000
	DefaultStackLimit = 1024
)

var (
	ErrDivideByZero   = errors.New("division by zero")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrBadJumpTarget  = errors.New("bad jump target")
	ErrUnpatched      = errors.New("unpatched placeholder")
	ErrInputExhausted = errors.New("input exhausted")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownOpcode  = errors.New("unknown opcode")
)

// VM runs a program. PC is the 1-based index of the next instruction; the
// machine halts when PC moves past the last instruction.
type VM struct {
	code   []compiler.Instruction
	memory map[int]int
	stack  []int
	in     *bufio.Scanner

	PC     int
	Steps  int
	Halted bool

	// Input supplies values for STDIN, read as whitespace separated words.
	// If nil, os.Stdin is used.
	Input io.Reader
	// Output receives one line per STDOUT. If nil, os.Stdout is used.
	Output io.Writer

	// MaxSteps bounds Run. Zero or negative means no limit.
	MaxSteps int
	// StackLimit bounds the operand stack depth. Zero or negative means no limit.
	StackLimit int
}

func New(instrs []compiler.Instruction) *VM {
	code := make([]compiler.Instruction, len(instrs))
	copy(code, instrs)
	return &VM{
		code:       code,
		memory:     make(map[int]int),
		PC:         1,
		Halted:     len(code) == 0,
		MaxSteps:   DefaultMaxSteps,
		StackLimit: DefaultStackLimit,
	}
}

func (m *VM) outputSink() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

func (m *VM) inputScanner() *bufio.Scanner {
	if m.in == nil {
		r := m.Input
		if r == nil {
			r = os.Stdin
		}
		m.in = bufio.NewScanner(r)
		m.in.Split(bufio.ScanWords)
	}
	return m.in
}

// Memory returns the value stored at addr. Unwritten cells read as zero.
func (m *VM) Memory(addr int) int {
	return m.memory[addr]
}

// SetMemory stores val at addr.
func (m *VM) SetMemory(addr, val int) {
	m.memory[addr] = val
}

// Stack returns a copy of the operand stack, bottom first.
func (m *VM) Stack() []int {
	out := make([]int, len(m.stack))
	copy(out, m.stack)
	return out
}

func (m *VM) push(v int) error {
	if m.StackLimit > 0 && len(m.stack) >= m.StackLimit {
		return ErrStackOverflow
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *VM) pop() (int, error) {
	if len(m.stack) == 0 {
		return 0, ErrStackUnderflow
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *VM) pop2() (left, right int, err error) {
	if right, err = m.pop(); err != nil {
		return 0, 0, err
	}
	if left, err = m.pop(); err != nil {
		return 0, 0, err
	}
	return left, right, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (m *VM) jump(target int) error {
	if target < 1 || target > len(m.code)+1 {
		return fmt.Errorf("%w: %d", ErrBadJumpTarget, target)
	}
	m.PC = target
	return nil
}

func (m *VM) readInput() (int, error) {
	sc := m.inputScanner()
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, err
		}
		return 0, ErrInputExhausted
	}
	word := sc.Text()
	switch word {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	v, err := strconv.Atoi(word)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInput, word)
	}
	return v, nil
}

// Step executes one instruction. Errors are annotated with the instruction
// that raised them and leave the machine halted.
func (m *VM) Step() error {
	if m.Halted {
		return nil
	}
	in := m.code[m.PC-1]
	if err := m.exec(in); err != nil {
		m.Halted = true
		return fmt.Errorf("instruction %d (%s): %w", in.Index, in.Op, err)
	}
	m.Steps++
	if m.PC > len(m.code) {
		m.Halted = true
	}
	return nil
}

func (m *VM) exec(in compiler.Instruction) error {
	if in.Pending {
		return ErrUnpatched
	}
	m.PC++

	switch in.Op {
	case compiler.OpPUSHI:
		return m.push(in.Operand)

	case compiler.OpPUSHM:
		return m.push(m.memory[in.Operand])

	case compiler.OpPOPM:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.memory[in.Operand] = v

	case compiler.OpADD, compiler.OpSUB, compiler.OpMUL, compiler.OpDIV:
		l, r, err := m.pop2()
		if err != nil {
			return err
		}
		var v int
		switch in.Op {
		case compiler.OpADD:
			v = l + r
		case compiler.OpSUB:
			v = l - r
		case compiler.OpMUL:
			v = l * r
		case compiler.OpDIV:
			if r == 0 {
				return ErrDivideByZero
			}
			v = l / r
		}
		return m.push(v)

	case compiler.OpEQU, compiler.OpNEQ, compiler.OpLES, compiler.OpLEQ, compiler.OpGRT, compiler.OpGEQ:
		l, r, err := m.pop2()
		if err != nil {
			return err
		}
		var b bool
		switch in.Op {
		case compiler.OpEQU:
			b = l == r
		case compiler.OpNEQ:
			b = l != r
		case compiler.OpLES:
			b = l < r
		case compiler.OpLEQ:
			b = l <= r
		case compiler.OpGRT:
			b = l > r
		case compiler.OpGEQ:
			b = l >= r
		}
		return m.push(boolInt(b))

	case compiler.OpSTDIN:
		v, err := m.readInput()
		if err != nil {
			return err
		}
		return m.push(v)

	case compiler.OpSTDOUT:
		v, err := m.pop()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(m.outputSink(), v)
		return err

	case compiler.OpJUMP:
		return m.jump(in.Operand)

	case compiler.OpJUMPZ:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v == 0 {
			return m.jump(in.Operand)
		}

	case compiler.OpLABEL:
		// No operation.

	default:
		return fmt.Errorf("%w: %d", ErrUnknownOpcode, in.Op)
	}
	return nil
}

// Run executes until the program falls off its end, an instruction fails,
// or MaxSteps is reached.
func (m *VM) Run() error {
	for !m.Halted {
		if m.MaxSteps > 0 && m.Steps >= m.MaxSteps {
			m.Halted = true
			return fmt.Errorf("%w after %d steps at instruction %d", ErrStepLimit, m.Steps, m.PC)
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}
