package cpu

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

// program concatenates instruction byte sequences.
func program(instrs ...[]byte) []byte {
	var out []byte
	for _, in := range instrs {
		out = append(out, in...)
	}
	return out
}

var (
	movRax5   = []byte{0x48, 0xC7, 0xC0, 0x05, 0x00, 0x00, 0x00}
	movRaxM1  = []byte{0x48, 0xC7, 0xC0, 0xFF, 0xFF, 0xFF, 0xFF}
	addRax1   = []byte{0x48, 0x83, 0xC0, 0x01}
	subRax1   = []byte{0x48, 0x83, 0xE8, 0x01}
	addRax300 = []byte{0x48, 0x81, 0xC0, 0x2C, 0x01, 0x00, 0x00}
	movRbxRax = []byte{0x48, 0x89, 0xC3}
	addRaxRbx = []byte{0x48, 0x01, 0xD8}
	subRaxRbx = []byte{0x48, 0x29, 0xD8}
	ret       = []byte{OpRET}
)

func run(t *testing.T, code []byte) *CPU {
	t.Helper()
	vm := NewCPU()
	if err := vm.Load(code, 0); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := vm.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return vm
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want int64
	}{
		{"mov", program(movRax5, ret), 5},
		{"add1", program(movRax5, addRax1, addRax1, ret), 7},
		{"sub1", program(movRax5, subRax1, ret), 4},
		{"mixed", program(movRax5, addRax1, subRax1, addRax1, ret), 6},
		{"negative", program(movRaxM1, subRax1, ret), -2},
		{"imm32", program(movRax5, addRax300, ret), 305},
		{"registers", program(movRax5, movRbxRax, addRaxRbx, addRaxRbx, ret), 15},
		{"register sub", program(movRax5, movRbxRax, subRaxRbx, ret), 0},
		{"nop", program([]byte{OpNOP}, movRax5, []byte{OpNOP}, ret), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := run(t, tt.code)
			if got := vm.Rax(); got != tt.want {
				t.Errorf("rax = %d, want %d", got, tt.want)
			}
			if !vm.Halted {
				t.Error("expected CPU to halt on ret")
			}
		})
	}
}

func TestExtendedRegisters(t *testing.T) {
	// mov r9, 0x1122334455667788 ; mov r15, r9 ; mov rax, r15 ; ret
	code := program(
		[]byte{0x49, 0xB9, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11},
		[]byte{0x4D, 0x89, 0xCF},
		[]byte{0x4C, 0x89, 0xF8},
		ret,
	)
	vm := run(t, code)
	if vm.Regs[R9] != 0x1122334455667788 || vm.Regs[R15] != vm.Regs[R9] {
		t.Errorf("r9 = %#x, r15 = %#x", vm.Regs[R9], vm.Regs[R15])
	}
	if vm.Regs[RAX] != 0x1122334455667788 {
		t.Errorf("rax = %#x", vm.Regs[RAX])
	}
}

func TestFlags(t *testing.T) {
	// -1 + 1 wraps to zero with a carry.
	vm := run(t, program(movRaxM1, addRax1, ret))
	if !vm.ZF || !vm.CF || vm.SF || vm.OF {
		t.Errorf("after -1+1: ZF=%v CF=%v SF=%v OF=%v", vm.ZF, vm.CF, vm.SF, vm.OF)
	}

	// MaxInt64 + 1 overflows into the sign bit.
	maxInt := []byte{0x48, 0xB8, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}
	vm = run(t, program(maxInt, addRax1, ret))
	if vm.Rax() != math.MinInt64 || !vm.OF || !vm.SF || vm.CF {
		t.Errorf("after MaxInt64+1: rax=%d OF=%v SF=%v CF=%v", vm.Rax(), vm.OF, vm.SF, vm.CF)
	}

	// 0 - 1 borrows.
	movRax0 := []byte{0x48, 0xC7, 0xC0, 0x00, 0x00, 0x00, 0x00}
	vm = run(t, program(movRax0, subRax1, ret))
	if vm.Rax() != -1 || !vm.CF || !vm.SF || vm.OF {
		t.Errorf("after 0-1: rax=%d CF=%v SF=%v OF=%v", vm.Rax(), vm.CF, vm.SF, vm.OF)
	}
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name    string
		code    []byte
		wantMsg string
	}{
		{"unknown opcode", []byte{0x0F, 0x05}, "unsupported opcode 0x0f"},
		{"no rex.w", []byte{0x40, 0xC7, 0xC0, 0, 0, 0, 0}, "only 64-bit operands"},
		{"memory operand", []byte{0x48, 0x89, 0x00}, "memory operand"},
		{"runs off the end", program(movRax5, addRax1), "outside code"},
		{"truncated immediate", []byte{0x48, 0xC7, 0xC0, 0x01}, "truncated immediate"},
		{"bad extension", []byte{0x48, 0x83, 0xF0, 0x01}, "unsupported arithmetic extension /6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := NewCPU()
			if err := vm.Load(tt.code, 0); err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			err := vm.Run()
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("Run() error = %v, want it to contain %q", err, tt.wantMsg)
			}
			if !vm.Halted {
				t.Error("expected CPU to halt after a fault")
			}
			if err := vm.Step(); !errors.Is(err, ErrHalted) {
				t.Errorf("Step() after fault = %v, want ErrHalted", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	vm := NewCPU()
	if err := vm.Load(nil, 0); err == nil {
		t.Error("Load(nil) expected error")
	}
	if err := vm.Load(program(movRax5, ret), 7); err != nil {
		t.Fatalf("Load at ret failed: %v", err)
	}
	if err := vm.Run(); err != nil || vm.Steps != 1 {
		t.Errorf("Run from offset 7: err=%v steps=%d", err, vm.Steps)
	}
}

func TestRunUntilDone(t *testing.T) {
	vm := NewCPU()
	code := program(movRax5, addRax1, addRax1, addRax1, ret)
	if err := vm.Load(code, 0); err != nil {
		t.Fatal(err)
	}
	err := vm.RunUntilDone(2)
	if err == nil || !strings.Contains(err.Error(), "step limit 2") {
		t.Fatalf("RunUntilDone(2) error = %v", err)
	}
	if vm.Rax() != 6 {
		t.Errorf("rax after 2 steps = %d, want 6", vm.Rax())
	}
	if err := vm.RunUntilDone(0); err != nil {
		t.Fatalf("RunUntilDone(0) failed: %v", err)
	}
	if vm.Rax() != 8 {
		t.Errorf("rax = %d, want 8", vm.Rax())
	}
}

func TestTrace(t *testing.T) {
	var trace bytes.Buffer
	vm := NewCPU()
	vm.Trace = &trace
	if err := vm.Load(program(movRax5, subRax1, ret), 0); err != nil {
		t.Fatal(err)
	}
	if err := vm.Run(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(trace.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("trace has %d lines, want 3:\n%s", len(lines), trace.String())
	}
	if !strings.HasPrefix(lines[0], "0000  48c7c005000000 rax=5") {
		t.Errorf("first trace line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "rax=4") {
		t.Errorf("second trace line = %q", lines[1])
	}
}

func TestRegisterIndex(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"rax", RAX, true},
		{"RAX", RAX, true},
		{"rdi", RDI, true},
		{"r8", R8, true},
		{"R15", R15, true},
		{"eax", 0, false},
		{"r16", 0, false},
	}
	for _, tc := range tests {
		got, ok := RegisterIndex(tc.name)
		if got != tc.want || ok != tc.ok {
			t.Errorf("RegisterIndex(%q) = %d, %v; want %d, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}
