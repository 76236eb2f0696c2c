/*
   rv32vm - Execution driver

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

// Package vm wires a cpu.Processor and an optional jit.Cache together
// behind the single entry point an embedder actually drives: Step. There
// are no goroutines and no suspension points here; Step is a straight
// synchronous loop, safe to call repeatedly from one goroutine for the
// lifetime of the Machine.
package vm

import (
	"github.com/rv32vm/rv32vm/cpu"
	"github.com/rv32vm/rv32vm/jit"
)

// Machine bundles a processor with the optional JIT that accelerates it.
type Machine struct {
	CPU *cpu.Processor

	jitEnabled bool
	cache      *jit.Cache
}

// Option configures a Machine at construction time.
type Option func(*Machine)

// WithJIT enables the x86-64 JIT, backed by a block cache of the given
// capacity (in translated blocks).
func WithJIT(cacheCapacity int) Option {
	return func(m *Machine) {
		m.jitEnabled = true
		m.cache = jit.NewCache(cacheCapacity)
	}
}

// New constructs a Machine around an already-built processor.
func New(rv *cpu.Processor, opts ...Option) *Machine {
	m := &Machine{CPU: rv}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reset resets the underlying processor and drops any cached
// translations, since they may now describe stale code at PC ranges the
// guest is about to reuse differently.
func (m *Machine) Reset(pc uint32) {
	m.CPU.Reset(pc)
	if m.cache != nil {
		m.cache.Flush()
	}
}

// FlushJIT drops every cached translation without touching processor
// state. Callers that let guest code self-modify should call this after
// the write, since the JIT assumes guest code is immutable for the
// lifetime of a cached block.
func (m *Machine) FlushJIT() {
	if m.cache != nil {
		m.cache.Flush()
	}
}

// Step retires instructions until csr_cycle has advanced by cycles, an
// exception is latched, or the JIT and interpreter both decline to make
// progress. It mirrors the reference step(cycles) loop: try a
// translated block first, and only single-step the interpreter when no
// block is available, one instruction at a time until either the block
// cache can take over again or the budget/exception ends the call. It
// returns the number of instructions actually retired, which may
// exceed cycles since a JIT block retires as a unit and is never cut
// short mid-block.
func (m *Machine) Step(cycles uint64) uint64 {
	rv := m.CPU
	start := rv.CSRCycle
	target := start + cycles

	for rv.CSRCycle < target && rv.Exception == cpu.ExcNone {
		if m.jitEnabled && m.cache.TryRun(rv) {
			continue
		}
		for rv.CSRCycle < target && rv.Exception == cpu.ExcNone {
			sequential := rv.ExecuteOne()
			rv.CSRCycle++
			if !sequential {
				break
			}
		}
	}
	return rv.CSRCycle - start
}
