/*
   CPU definitions for the RV32 core.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package cpu holds the RV32 processor state and the interpreter that
// executes one instruction at a time against it.
package cpu

import "github.com/rv32vm/rv32vm/bus"

// Bus is the host I/O bus instantiated for this package's Processor
// type. See package bus for the contract.
type Bus = bus.Bus[Processor]

// Extensions is a bitmask of the optional standard extensions a
// Processor was constructed with. Instructions belonging to a disabled
// M, A, F or Zicsr extension decode as illegal, exactly as an RV32I-only
// core would treat them. ExtZifencei is not consulted by the
// interpreter: FENCE.I always executes as a no-op.
type Extensions uint8

const (
	ExtM        Extensions = 1 << iota // integer multiply/divide
	ExtA                               // atomic memory operations
	ExtF                               // single-precision floating point
	ExtZicsr                           // control/status registers
	ExtZifencei                        // fence.i
)

// Has reports whether all bits of want are set in e.
func (e Extensions) Has(want Extensions) bool { return e&want == want }

// ExceptionKind identifies why the interpreter stopped retiring
// instructions. ExcNone means nothing is wrong; any other value is
// sticky until the embedder explicitly clears it.
type ExceptionKind uint8

const (
	ExcNone ExceptionKind = iota
	ExcInstMisaligned
	ExcIllegalInstruction
	ExcEnvironmentCall
	ExcBreakpoint
	ExcMemoryFault // reserved: a bus callback may latch this.
)

func (k ExceptionKind) String() string {
	switch k {
	case ExcNone:
		return "none"
	case ExcInstMisaligned:
		return "inst_misaligned"
	case ExcIllegalInstruction:
		return "illegal_instruction"
	case ExcEnvironmentCall:
		return "environment_call"
	case ExcBreakpoint:
		return "breakpoint"
	case ExcMemoryFault:
		return "memory_fault"
	default:
		return "unknown"
	}
}

// CSR addresses.
const (
	CSRCycle   = 0xC00
	CSRCycleH  = 0xC80
	CSRMStatus = 0x300
	CSRFcsr    = 0x003
)

// Register conventions.
const (
	RegZero = 0
	RegSP   = 2
)

// DefaultStack is the implementation-defined default stack pointer Reset
// installs: 16-byte aligned, high in the 32-bit address space so a
// modestly sized guest program has room to grow its stack downward
// without the embedder needing to pick an address.
const DefaultStack = 0x7ffffff0

// Processor holds the full state of one RV32 hart: integer and (if the F
// extension is enabled) float registers, PC, CSRs, the sticky exception
// latch, and the bus the interpreter calls out through. There are no
// suspension points inside Step; a Processor is only ever driven by one
// goroutine at a time.
type Processor struct {
	X [32]uint32 // integer registers; X[0] is always 0.
	F [32]uint32 // single-precision float registers, raw bit patterns.

	PC uint32

	Exception ExceptionKind

	CSRCycle   uint64
	CSRMStatus uint32
	CSRFcsr    uint32

	Ext Extensions

	Bus Bus

	// UserData is handed back to the embedder unmodified; the core
	// never reads or writes through it.
	UserData any

	table [32]func(rv *Processor, inst uint32) bool
}

// New constructs a Processor wired to the given bus and extension set,
// and resets it to PC=0.
func New(b Bus, userdata any, ext Extensions) *Processor {
	rv := &Processor{
		Bus:      b,
		UserData: userdata,
		Ext:      ext,
	}
	rv.createTable()
	rv.Reset(0)
	return rv
}

// Reset clears registers and CSRs, sets PC, and installs the default
// stack pointer in X[sp].
func (rv *Processor) Reset(pc uint32) {
	for i := range rv.X {
		rv.X[i] = 0
	}
	for i := range rv.F {
		rv.F[i] = 0
	}
	rv.PC = pc
	rv.Exception = ExcNone
	rv.CSRCycle = 0
	rv.CSRMStatus = 0
	rv.CSRFcsr = 0
	rv.X[RegSP] = DefaultStack
}

// ClearException clears the sticky exception latch so stepping may
// resume. The embedder is expected to have inspected (and possibly
// handled) the exception first.
func (rv *Processor) ClearException() {
	rv.Exception = ExcNone
}

// setRD writes val to register rd, enforcing the zero-register
// discipline: any write to X[0] is immediately overwritten back to 0.
func (rv *Processor) setRD(rd uint32, val uint32) {
	rv.X[rd] = val
	rv.X[RegZero] = 0
}
