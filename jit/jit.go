/*
   rv32vm - Block cache and JIT driving surface

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

// Package jit translates hot RV32I basic blocks into native x86-64 and
// caches the translations by their starting guest PC.
//
// Scope: a block is built only from the register-only instructions
// (OP, OP-IMM, LUI, AUIPC, MISC-MEM) and terminates at the first
// BRANCH, JAL, or JALR, which is translated too since it touches only
// registers and PC. Anything that needs a host callback — LOAD, STORE,
// SYSTEM, AMO, and the F extension — backs the block off before that
// instruction (or refuses the block entirely if it is the first
// instruction), never by emitting a call back into Go. This keeps every
// translated block callback-free, so the generated code never needs to
// cross back into the Go runtime mid-block.
package jit

import "github.com/rv32vm/rv32vm/cpu"

// Block is one translated basic block: the guest PC range it covers,
// the number of guest instructions it represents (used to advance
// csr_cycle), and the host-executable bytes backing it.
type Block struct {
	GuestPCStart uint32
	GuestPCEnd   uint32
	Instructions int
	code         []byte // nil on platforms/configs where the JIT is disabled.
}

// refused marks a guest_pc_start the translator has already declined,
// so the cache does not retry translation on every visit.
var refused = &Block{}

// Cache maps guest_pc_start to its translated Block. Capacity-limited;
// eviction is simple FIFO-by-insertion, which is sufficient since a
// block only needs to survive its own currently-executing invocation,
// not any particular retention policy.
type Cache struct {
	capacity int
	order    []uint32
	blocks   map[uint32]*Block
}

// NewCache builds a Cache holding at most capacity translated blocks.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{capacity: capacity, blocks: make(map[uint32]*Block, capacity)}
}

// TryRun attempts to run a translated block starting at rv.PC. It
// returns false if no block could be found or translated for the
// current PC (the driver should fall back to the interpreter for at
// least one instruction). On success it has already updated rv.PC and
// rv.CSRCycle for every instruction the block retired, and latches
// ExcInstMisaligned (leaving PC at the misaligned target) if the
// block's terminating branch/JAL/JALR transferred control to a
// non-4-aligned address, mirroring checkAlign in the interpreter.
func (c *Cache) TryRun(rv *cpu.Processor) bool {
	b, ok := c.blocks[rv.PC]
	if !ok {
		b = c.translate(rv)
		c.insert(rv.PC, b)
	}
	if b == refused {
		return false
	}
	nextPC := run(b.code, rv)
	rv.PC = nextPC
	rv.CSRCycle += uint64(b.Instructions)
	if nextPC&3 != 0 {
		rv.Exception = cpu.ExcInstMisaligned
	}
	return true
}

func (c *Cache) insert(pc uint32, b *Block) {
	if _, exists := c.blocks[pc]; exists {
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.blocks, oldest)
	}
	c.order = append(c.order, pc)
	c.blocks[pc] = b
}

func (c *Cache) translate(rv *cpu.Processor) *Block {
	b, ok := translateBlock(rv)
	if !ok {
		return refused
	}
	return b
}

// Flush drops every cached block. The embedder calls this after any
// guest write to already-translated code, since invalidation on
// self-modifying writes is otherwise out of scope.
func (c *Cache) Flush() {
	c.order = nil
	c.blocks = make(map[uint32]*Block, c.capacity)
}
