//go:build amd64

/*
   rv32vm - W^X executable code buffer

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

package jit

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/rv32vm/rv32vm/cpu"
)

// allocExec copies code into a freshly mapped region and transitions it
// from writable to executable. The region is never writable and
// executable at the same time: it starts PROT_READ|PROT_WRITE, and once
// the bytes are copied in, Mprotect flips it to PROT_READ|PROT_EXEC for
// the rest of its life. A Block never needs to be rewritten once
// translated, so there is no path back to writable.
func allocExec(code []byte) ([]byte, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("jit: empty block")
	}
	pageSize := unix.Getpagesize()
	size := ((len(code) + pageSize - 1) / pageSize) * pageSize

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("jit: mmap: %w", err)
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("jit: mprotect: %w", err)
	}
	return mem[:len(code)], nil
}

// run jumps into a translated block's code with rv as the guest state
// pointer and returns the guest PC the block computed.
func run(code []byte, rv *cpu.Processor) uint32 {
	entry := uintptr(unsafe.Pointer(&code[0]))
	return callBlock(entry, unsafe.Pointer(rv))
}

// callBlock is implemented in call_amd64.s: it loads state into RDI per
// the System V AMD64 calling convention and calls entry, returning
// whatever 32-bit value the block left in EAX.
//
//go:noescape
func callBlock(entry uintptr, state unsafe.Pointer) uint32
