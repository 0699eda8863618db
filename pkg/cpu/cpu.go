package cpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Opcode bytes of the supported x86-64 subset. Every register operand is a
// 64-bit general purpose register addressed through ModRM with mod=11.
const (
	OpADDReg   byte = 0x01 // add r/m64, r64
	OpSUBReg   byte = 0x29 // sub r/m64, r64
	OpALUImm32 byte = 0x81 // add|sub r/m64, imm32; ModRM.reg selects the operation
	OpALUImm8  byte = 0x83 // add|sub r/m64, imm8
	OpMOVReg   byte = 0x89 // mov r/m64, r64
	OpNOP      byte = 0x90
	OpMOVImm64 byte = 0xB8 // mov r64, imm64; the low 3 bits select the register
	OpRET      byte = 0xC3
	OpMOVImm32 byte = 0xC7 // mov r/m64, imm32 (sign-extended)
)

// ModRM.reg extensions for the immediate forms.
const (
	ExtADD byte = 0
	ExtSUB byte = 5
	ExtMOV byte = 0
)

// REX prefix bits.
const (
	REX  byte = 0x40
	REXW byte = 0x08 // 64-bit operand size
	REXR byte = 0x04 // extends ModRM.reg
	REXB byte = 0x01 // extends ModRM.rm or the opcode register
)

const (
	RAX = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// RegisterNames is indexed by register number.
var RegisterNames = [16]string{
	RAX: "rax", RCX: "rcx", RDX: "rdx", RBX: "rbx",
	RSP: "rsp", RBP: "rbp", RSI: "rsi", RDI: "rdi",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11",
	R12: "r12", R13: "r13", R14: "r14", R15: "r15",
}

// RegisterIndex looks up a register by name, ignoring case.
func RegisterIndex(name string) (int, bool) {
	name = strings.ToLower(name)
	for i, n := range RegisterNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

var ErrHalted = errors.New("cpu halted")

// CPU executes machine code from the x86-64 subset produced by package asm.
type CPU struct {
	Regs [16]uint64
	RIP  int

	ZF bool
	SF bool
	CF bool
	OF bool

	Halted bool
	Steps  int

	Memory []byte

	// Trace, if set, receives one line per executed instruction.
	Trace io.Writer
}

func NewCPU() *CPU {
	return &CPU{}
}

// Load copies code into memory and points RIP at entry.
func (c *CPU) Load(code []byte, entry int) error {
	if entry < 0 || entry >= len(code) {
		return fmt.Errorf("entry offset %d outside code (%d bytes)", entry, len(code))
	}
	c.Memory = append(c.Memory[:0], code...)
	c.RIP = entry
	c.Halted = false
	c.Steps = 0
	return nil
}

// Rax returns the accumulator as a signed value.
func (c *CPU) Rax() int64 {
	return int64(c.Regs[RAX])
}

func (c *CPU) fetch() (byte, error) {
	if c.RIP < 0 || c.RIP >= len(c.Memory) {
		return 0, fmt.Errorf("rip %#x outside code (%d bytes)", c.RIP, len(c.Memory))
	}
	b := c.Memory[c.RIP]
	c.RIP++
	return b, nil
}

func (c *CPU) fetchN(n int) ([]byte, error) {
	if c.RIP+n > len(c.Memory) {
		return nil, fmt.Errorf("truncated immediate at %#x", c.RIP)
	}
	b := c.Memory[c.RIP : c.RIP+n]
	c.RIP += n
	return b, nil
}

func (c *CPU) fetchImm8() (uint64, error) {
	b, err := c.fetch()
	return uint64(int64(int8(b))), err
}

func (c *CPU) fetchImm32() (uint64, error) {
	b, err := c.fetchN(4)
	if err != nil {
		return 0, err
	}
	return uint64(int64(int32(binary.LittleEndian.Uint32(b)))), nil
}

func (c *CPU) fetchImm64() (uint64, error) {
	b, err := c.fetchN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// fetchModRM reads a register-direct ModRM byte and returns the reg and rm
// fields, extended by the REX.R and REX.B bits.
func (c *CPU) fetchModRM(rex byte) (reg, rm int, err error) {
	at := c.RIP
	b, err := c.fetch()
	if err != nil {
		return 0, 0, err
	}
	if b>>6 != 3 {
		return 0, 0, fmt.Errorf("memory operand at %#x not supported", at)
	}
	reg = int(b>>3) & 7
	rm = int(b) & 7
	if rex&REXR != 0 {
		reg |= 8
	}
	if rex&REXB != 0 {
		rm |= 8
	}
	return reg, rm, nil
}

func (c *CPU) updateFlags(result uint64) {
	c.ZF = result == 0
	c.SF = int64(result) < 0
}

func (c *CPU) add(dst int, v uint64) {
	a := c.Regs[dst]
	res := a + v
	c.CF = res < a
	c.OF = (a>>63 == v>>63) && (res>>63 != a>>63)
	c.Regs[dst] = res
	c.updateFlags(res)
}

func (c *CPU) sub(dst int, v uint64) {
	a := c.Regs[dst]
	res := a - v
	c.CF = a < v
	c.OF = (a>>63 != v>>63) && (res>>63 != a>>63)
	c.Regs[dst] = res
	c.updateFlags(res)
}

// Step executes one instruction.
func (c *CPU) Step() error {
	if c.Halted {
		return ErrHalted
	}

	start := c.RIP
	err := c.step()
	if err != nil {
		c.Halted = true
		return fmt.Errorf("at %#x: %w", start, err)
	}
	c.Steps++

	if c.Trace != nil {
		fmt.Fprintf(c.Trace, "%04x  %-8x rax=%d\n", start, c.Memory[start:c.RIP], c.Rax())
	}
	return nil
}

func (c *CPU) step() error {
	op, err := c.fetch()
	if err != nil {
		return err
	}

	switch op {
	case OpRET:
		// Nothing is ever called, so ret leaves the entry routine.
		c.Halted = true
		return nil
	case OpNOP:
		return nil
	}

	if op&0xF0 != REX {
		return fmt.Errorf("unsupported opcode 0x%02x", op)
	}
	rex := op
	if rex&REXW == 0 {
		return fmt.Errorf("only 64-bit operands are supported (rex 0x%02x)", rex)
	}
	op, err = c.fetch()
	if err != nil {
		return err
	}

	switch {
	case op&^7 == OpMOVImm64:
		dst := int(op & 7)
		if rex&REXB != 0 {
			dst |= 8
		}
		imm, err := c.fetchImm64()
		if err != nil {
			return err
		}
		c.Regs[dst] = imm

	case op == OpMOVImm32:
		ext, dst, err := c.fetchModRM(rex)
		if err != nil {
			return err
		}
		if byte(ext&7) != ExtMOV {
			return fmt.Errorf("invalid extension /%d for mov", ext&7)
		}
		imm, err := c.fetchImm32()
		if err != nil {
			return err
		}
		c.Regs[dst] = imm

	case op == OpALUImm8 || op == OpALUImm32:
		ext, dst, err := c.fetchModRM(rex)
		if err != nil {
			return err
		}
		var imm uint64
		if op == OpALUImm8 {
			imm, err = c.fetchImm8()
		} else {
			imm, err = c.fetchImm32()
		}
		if err != nil {
			return err
		}
		switch byte(ext & 7) {
		case ExtADD:
			c.add(dst, imm)
		case ExtSUB:
			c.sub(dst, imm)
		default:
			return fmt.Errorf("unsupported arithmetic extension /%d", ext&7)
		}

	case op == OpMOVReg || op == OpADDReg || op == OpSUBReg:
		src, dst, err := c.fetchModRM(rex)
		if err != nil {
			return err
		}
		switch op {
		case OpMOVReg:
			c.Regs[dst] = c.Regs[src]
		case OpADDReg:
			c.add(dst, c.Regs[src])
		case OpSUBReg:
			c.sub(dst, c.Regs[src])
		}

	default:
		return fmt.Errorf("unsupported opcode 0x%02x after rex 0x%02x", op, rex)
	}
	return nil
}

// Run executes until the entry routine returns or an instruction faults.
func (c *CPU) Run() error {
	for !c.Halted {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntilDone is Run with a step budget; maxSteps <= 0 means no budget.
func (c *CPU) RunUntilDone(maxSteps int) error {
	for !c.Halted {
		if maxSteps > 0 && c.Steps >= maxSteps {
			return fmt.Errorf("step limit %d reached at %#x", maxSteps, c.RIP)
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
