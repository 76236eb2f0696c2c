/*
   Host I/O bus record.

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

// Package bus defines the narrow, bus-style contract between the RV32
// core and everything the core treats as an external collaborator: guest
// memory, the ecall/ebreak handler, and anything else an embedder wires
// in. The core never touches memory directly; it only ever calls through
// a Bus value it was constructed with.
//
// Bus is a plain record of function pointers rather than a Go
// interface: the embedder is expected to close over its own state (a
// flat byte array, an MMU, a network device) and hand over closures, not
// implement a method set.
//
// Bus is generic over the processor type so this package stays free of
// any dependency on package cpu; cpu instantiates Bus[Processor] and
// re-exports it as cpu.Bus.
package bus

// Bus is the set of callbacks the core uses to reach outside its own
// state. P is always instantiated to the embedding package's processor
// type (see cpu.Bus).
type Bus[P any] struct {
	// MemIFetch fetches the 32-bit instruction word at addr. Must not
	// fault on any address the embedder considers part of the current
	// program's text.
	MemIFetch func(rv *P, addr uint32) uint32

	MemReadB func(rv *P, addr uint32) uint8
	MemReadS func(rv *P, addr uint32) uint16
	MemReadW func(rv *P, addr uint32) uint32

	MemWriteB func(rv *P, addr uint32, val uint8)
	MemWriteS func(rv *P, addr uint32, val uint16)
	MemWriteW func(rv *P, addr uint32, val uint32)

	// OnECall is invoked for the ECALL instruction (SYSTEM, imm==0). It
	// may inspect or modify registers and PC, and may latch an
	// exception to halt stepping.
	OnECall func(rv *P, pc uint32, inst uint32)

	// OnEBreak is invoked for the EBREAK instruction (SYSTEM, imm==1).
	OnEBreak func(rv *P, pc uint32, inst uint32)
}
