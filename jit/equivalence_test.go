//go:build amd64

package jit_test

import (
	"testing"

	"github.com/rv32vm/rv32vm/cpu"
	"github.com/rv32vm/rv32vm/hostmem"
	"github.com/rv32vm/rv32vm/vm"
)

// fibProgram mirrors package vm's scenario fixture: a loop built only
// from OP/OP-IMM/BRANCH/JAL, so every block but the final ecall is
// eligible for translation.
var fibProgram = []uint32{
	0x00A00293, // addi x5, x0, 10
	0x00000313, // addi x6, x0, 0
	0x00100393, // addi x7, x0, 1
	0x00028C63, // loop: beq x5, x0, done
	0x00730433, // add  x8, x6, x7
	0x00038333, // add  x6, x7, x0
	0x000403B3, // add  x7, x8, x0
	0xFFF28293, // addi x5, x5, -1
	0xFEDFF06F, // jal  x0, loop
	0x00030533, // done: add x10, x6, x0
	0x05D00893, // addi x17, x0, 93
	0x00000073, // ecall
}

func newFibMachine(t *testing.T, opts ...vm.Option) (*cpu.Processor, *vm.Machine) {
	t.Helper()
	mem := hostmem.New(4096)
	for i, inst := range fibProgram {
		mem.WriteWord(uint32(i*4), inst)
	}
	rv := cpu.New(mem.Bus(), nil, 0)
	return rv, vm.New(rv, opts...)
}

// TestJITInterpreterEquivalence runs the same guest program to
// completion through the pure interpreter and through a JIT-enabled
// Machine, one instruction-budget of Step at a time, and checks that
// both reach the same final register file, PC, and retired-instruction
// count. They are not expected to take the same number of Step calls
// to get there, since a JIT block retires several guest instructions
// per call; only the end state needs to match.
func TestJITInterpreterEquivalence(t *testing.T) {
	rvI, mI := newFibMachine(t)
	rvJ, mJ := newFibMachine(t, vm.WithJIT(64))

	const maxIters = 10000
	for i := 0; i < maxIters; i++ {
		if rvI.Exception == cpu.ExcNone {
			mI.Step(1)
		}
		if rvJ.Exception == cpu.ExcNone {
			mJ.Step(1)
		}
		if rvI.Exception != cpu.ExcNone && rvJ.Exception != cpu.ExcNone {
			break
		}
	}

	if rvI.Exception != cpu.ExcEnvironmentCall || rvJ.Exception != cpu.ExcEnvironmentCall {
		t.Fatalf("did not both reach ecall: interpreter=%v jit=%v", rvI.Exception, rvJ.Exception)
	}
	if rvI.PC != rvJ.PC {
		t.Fatalf("PC diverged: interpreter=%#x jit=%#x", rvI.PC, rvJ.PC)
	}
	if rvI.CSRCycle != rvJ.CSRCycle {
		t.Fatalf("csr_cycle diverged: interpreter=%d jit=%d", rvI.CSRCycle, rvJ.CSRCycle)
	}
	if rvI.X != rvJ.X {
		t.Fatalf("register file diverged:\ninterpreter=%v\njit=%v", rvI.X, rvJ.X)
	}
}

// TestJITLatchesMisalignedBranch is the JIT side of the interpreter's
// TestBranchMisalignment: a block that ends in a JAL to a non-4-aligned
// target must latch inst_misaligned, the same as the interpreter does,
// rather than silently handing an unaligned PC back to the driver.
func TestJITLatchesMisalignedBranch(t *testing.T) {
	mem := hostmem.New(64)
	mem.WriteWord(0, 0x0020006f) // jal x0, 2

	rv := cpu.New(mem.Bus(), nil, 0)
	m := vm.New(rv, vm.WithJIT(8))
	m.Step(1)

	if rv.Exception != cpu.ExcInstMisaligned {
		t.Fatalf("exception = %v, want inst_misaligned", rv.Exception)
	}
	if rv.PC != 2 {
		t.Fatalf("PC = %#x, want 2", rv.PC)
	}
}
