package asm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"adder/pkg/cpu"
)

var zeroOperandOps = map[string]byte{
	"RET": cpu.OpRET,
	"NOP": cpu.OpNOP,
}

// twoOperandOp describes the encodings of an "op r64, r64|imm" instruction.
type twoOperandOp struct {
	regForm byte // opcode of the "op r/m64, r64" form
	ext     byte // ModRM.reg extension of the immediate forms
}

var twoOperandOps = map[string]twoOperandOp{
	"MOV": {regForm: cpu.OpMOVReg, ext: cpu.ExtMOV},
	"ADD": {regForm: cpu.OpADDReg, ext: cpu.ExtADD},
	"SUB": {regForm: cpu.OpSUBReg, ext: cpu.ExtSUB},
}

// Object is the result of assembling one source file.
type Object struct {
	Code      []byte
	Symbols   map[string]int // label -> offset in Code
	Globals   []string       // symbols exported with the global directive
	SourceMap map[int]int    // instruction offset -> 1-based source line
}

type Assembler struct {
	labels  map[string]int
	globals []string
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]int),
	}
}

func Assemble(code string) (*Object, error) {
	return NewAssembler().Assemble(code)
}

// Assemble encodes code in two passes: the first records label offsets and
// directives, the second emits machine code once every global is known to
// name a label.
func (a *Assembler) Assemble(code string) (*Object, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, err
	}

	return a.pass2(lines)
}

func (a *Assembler) pass1(lines []string) error {
	address := 0

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			if _, exists := a.labels[lbl]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[lbl] = address
		}

		switch p.mnemonic {
		case "":
			continue
		case "SECTION":
			if len(p.operands) != 1 {
				return fmt.Errorf("section expects exactly one operand on line %d", lineNo)
			}
			if p.operands[0] != ".text" {
				return fmt.Errorf("unsupported section '%s' on line %d", p.operands[0], lineNo)
			}
			continue
		case "GLOBAL":
			if len(p.operands) == 0 {
				return fmt.Errorf("global expects at least one symbol on line %d", lineNo)
			}
			a.globals = append(a.globals, p.operands...)
			continue
		}

		enc, err := encode(p)
		if err != nil {
			return err
		}
		address += len(enc)
	}

	for _, g := range a.globals {
		if _, ok := a.labels[g]; !ok {
			return fmt.Errorf("global symbol '%s' is never defined", g)
		}
	}

	return nil
}

func (a *Assembler) pass2(lines []string) (*Object, error) {
	obj := &Object{
		Symbols:   a.labels,
		Globals:   a.globals,
		SourceMap: make(map[int]int),
	}

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}

		if p.mnemonic == "" || p.mnemonic == "SECTION" || p.mnemonic == "GLOBAL" {
			continue
		}

		enc, err := encode(p)
		if err != nil {
			return nil, err
		}
		obj.SourceMap[len(obj.Code)] = lineNo
		obj.Code = append(obj.Code, enc...)
	}

	return obj, nil
}

// encode returns the machine code of one instruction.
func encode(p parsedLine) ([]byte, error) {
	mnemonic, ops, lineNo := p.mnemonic, p.operands, p.lineNo

	if opcode, ok := zeroOperandOps[mnemonic]; ok {
		if len(ops) != 0 {
			return nil, fmt.Errorf("%s expects 0 operands on line %d", mnemonic, lineNo)
		}
		return []byte{opcode}, nil
	}

	op, ok := twoOperandOps[mnemonic]
	if !ok {
		return nil, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
	}
	if len(ops) != 2 {
		return nil, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
	}

	dst, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return nil, err
	}

	// Register source: op r/m64, r64 with the source in ModRM.reg.
	if src, isReg := cpu.RegisterIndex(ops[1]); isReg {
		rex := cpu.REX | cpu.REXW
		if src >= 8 {
			rex |= cpu.REXR
		}
		if dst >= 8 {
			rex |= cpu.REXB
		}
		return []byte{rex, op.regForm, modRM(byte(src), byte(dst))}, nil
	}

	imm, err := parseImmediate(ops[1], lineNo)
	if err != nil {
		return nil, err
	}

	rex := cpu.REX | cpu.REXW
	if dst >= 8 {
		rex |= cpu.REXB
	}

	if mnemonic == "MOV" {
		if imm < math.MinInt32 || imm > math.MaxInt32 {
			out := []byte{rex, cpu.OpMOVImm64 | byte(dst&7)}
			return binary.LittleEndian.AppendUint64(out, uint64(imm)), nil
		}
		out := []byte{rex, cpu.OpMOVImm32, modRM(op.ext, byte(dst))}
		return binary.LittleEndian.AppendUint32(out, uint32(int32(imm))), nil
	}

	switch {
	case imm >= math.MinInt8 && imm <= math.MaxInt8:
		return []byte{rex, cpu.OpALUImm8, modRM(op.ext, byte(dst)), byte(int8(imm))}, nil
	case imm >= math.MinInt32 && imm <= math.MaxInt32:
		out := []byte{rex, cpu.OpALUImm32, modRM(op.ext, byte(dst))}
		return binary.LittleEndian.AppendUint32(out, uint32(int32(imm))), nil
	}
	return nil, fmt.Errorf("immediate out of range on line %d: %s", lineNo, ops[1])
}

// modRM builds a register-direct ModRM byte.
func modRM(reg, rm byte) byte {
	return 0xC0 | (reg&7)<<3 | rm&7
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	line = normalizeInstructionText(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	return p, nil
}

func stripComments(line string) string {
	if semicolon := strings.IndexByte(line, ';'); semicolon >= 0 {
		return line[:semicolon]
	}
	return line
}

func normalizeInstructionText(line string) string {
	return strings.ReplaceAll(line, ",", " ")
}

func parseRegister(token string, lineNo int) (int, error) {
	if r, ok := cpu.RegisterIndex(token); ok {
		return r, nil
	}
	return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
}

func parseImmediate(token string, lineNo int) (int64, error) {
	value, err := strconv.ParseInt(token, 0, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
	}
	return value, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' && r != '.' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}

	return true
}
