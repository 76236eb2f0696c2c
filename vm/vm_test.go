package vm_test

import (
	"testing"

	"github.com/rv32vm/rv32vm/cpu"
	"github.com/rv32vm/rv32vm/hostmem"
	"github.com/rv32vm/rv32vm/vm"
)

// fibProgram computes fib(10) into x10 and exits via ecall(a7=93). Apart
// from that closing ecall it only uses OP/OP-IMM/BRANCH/JAL, so it doubles as the fixture for the
// JIT/interpreter equivalence test in package jit.
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

func loadFib(mem *hostmem.Memory) {
	for i, inst := range fibProgram {
		mem.WriteWord(uint32(i*4), inst)
	}
}

func TestFibonacciScenario(t *testing.T) {
	mem := hostmem.New(4096)
	loadFib(mem)

	rv := cpu.New(mem.Bus(), nil, 0)
	m := vm.New(rv)

	for rv.Exception == cpu.ExcNone {
		m.Step(1)
	}

	if rv.Exception != cpu.ExcEnvironmentCall {
		t.Fatalf("exception = %v, want environment_call", rv.Exception)
	}
	if rv.X[10] != 55 {
		t.Fatalf("X[10] = %d, want 55", rv.X[10])
	}
}

func TestResetFlushesPendingException(t *testing.T) {
	mem := hostmem.New(4096)
	loadFib(mem)

	rv := cpu.New(mem.Bus(), nil, 0)
	m := vm.New(rv)
	for rv.Exception == cpu.ExcNone {
		m.Step(1)
	}

	m.Reset(0)
	if rv.Exception != cpu.ExcNone {
		t.Fatalf("exception after reset = %v, want none", rv.Exception)
	}
	if rv.X[10] != 0 {
		t.Fatalf("X[10] after reset = %d, want 0", rv.X[10])
	}
}
