/*
   rv32vm - Flat guest memory and host syscall convention

   Copyright 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a copy
   of this software and associated documentation files (the "Software"), to deal
   in the Software without restriction, including without limitation the rights
   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
   copies of the Software, and to permit persons to whom the Software is
   furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
   SOFTWARE.

*/

// Package hostmem is the simplest possible embedder of package cpu: a flat
// byte-addressable guest address space with no MMU and no peripherals, plus
// an ecall convention modeled on the Linux RV32 syscall ABI (a7 selects the
// call, a0 carries the first argument). It exists so tests and the rvrun
// front end have a ready-made bus without each having to hand-roll one.
package hostmem

import (
	"encoding/binary"
	"fmt"

	"github.com/rv32vm/rv32vm/cpu"
)

// Syscall numbers recognized by OnECall. Only exit is implemented; any
// other a7 value is reported through the Unknown callback (if set) and
// otherwise ignored, since this package has no notion of stdout/stdin.
const (
	SysExit = 93
)

// Memory is a flat little-endian address space backing a cpu.Processor.
// It performs no bounds checking beyond what a Go slice index panics on;
// an out-of-range guest access is a programming error in the loaded
// image, not a recoverable fault, in keeping with this package's
// minimalism.
type Memory struct {
	bytes []byte

	// ExitCode is set by a SysExit ecall. Valid once Bus().OnECall has
	// latched cpu.ExcEnvironmentCall.
	ExitCode uint32
	Exited   bool

	// Unknown, if set, is called for any ecall whose a7 is not
	// recognized. It may inspect or mutate the processor.
	Unknown func(rv *cpu.Processor, a7 uint32)
}

// New allocates a Memory of the given size in bytes.
func New(size int) *Memory {
	return &Memory{bytes: make([]byte, size)}
}

// Load copies image into the address space starting at addr.
func (m *Memory) Load(addr uint32, image []byte) {
	copy(m.bytes[addr:], image)
}

// Bytes returns the live backing slice, for tests that want to inspect
// or poke memory directly.
func (m *Memory) Bytes() []byte { return m.bytes }

func (m *Memory) ReadByte(addr uint32) uint8  { return m.bytes[addr] }
func (m *Memory) ReadHalf(addr uint32) uint16 { return binary.LittleEndian.Uint16(m.bytes[addr:]) }
func (m *Memory) ReadWord(addr uint32) uint32 { return binary.LittleEndian.Uint32(m.bytes[addr:]) }

func (m *Memory) WriteByte(addr uint32, v uint8)  { m.bytes[addr] = v }
func (m *Memory) WriteHalf(addr uint32, v uint16) { binary.LittleEndian.PutUint16(m.bytes[addr:], v) }
func (m *Memory) WriteWord(addr uint32, v uint32) { binary.LittleEndian.PutUint32(m.bytes[addr:], v) }

// Bus builds the cpu.Bus that drives this Memory. On ecall it reads a7
// and a0 straight from the register file: in the RV32 syscall ABI a7 is
// X[17] and a0 is X[10].
func (m *Memory) Bus() cpu.Bus {
	return cpu.Bus{
		MemIFetch: func(rv *cpu.Processor, addr uint32) uint32 { return m.ReadWord(addr) },
		MemReadB:  func(rv *cpu.Processor, addr uint32) uint8 { return m.ReadByte(addr) },
		MemReadS:  func(rv *cpu.Processor, addr uint32) uint16 { return m.ReadHalf(addr) },
		MemReadW:  func(rv *cpu.Processor, addr uint32) uint32 { return m.ReadWord(addr) },
		MemWriteB: func(rv *cpu.Processor, addr uint32, val uint8) { m.WriteByte(addr, val) },
		MemWriteS: func(rv *cpu.Processor, addr uint32, val uint16) { m.WriteHalf(addr, val) },
		MemWriteW: func(rv *cpu.Processor, addr uint32, val uint32) { m.WriteWord(addr, val) },
		OnECall: func(rv *cpu.Processor, pc uint32, inst uint32) {
			const a7, a0 = 17, 10
			switch rv.X[a7] {
			case SysExit:
				m.Exited = true
				m.ExitCode = rv.X[a0]
				rv.Exception = cpu.ExcEnvironmentCall
			default:
				if m.Unknown != nil {
					m.Unknown(rv, rv.X[a7])
				}
			}
		},
		OnEBreak: func(rv *cpu.Processor, pc uint32, inst uint32) {
			rv.Exception = cpu.ExcBreakpoint
		},
	}
}

// String renders an exit summary, used by the rvrun front end.
func (m *Memory) String() string {
	if !m.Exited {
		return "did not exit"
	}
	return fmt.Sprintf("exit code %d", m.ExitCode)
}
