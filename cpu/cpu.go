/*
   RV32 main instruction dispatch.

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

package cpu

import "github.com/rv32vm/rv32vm/decode"

// createTable builds the dispatch table indexed by inst[6:2]: a sparse
// function-pointer array sized for RV32's 32 major opcodes. A nil slot
// is a fatal illegal instruction.
func (rv *Processor) createTable() {
	rv.table = [32]func(*Processor, uint32) bool{
		decode.OpLoad:    opLoad,
		decode.OpMiscMem: opMiscMem,
		decode.OpOpImm:   opOpImm,
		decode.OpAUIPC:   opAUIPC,
		decode.OpStore:   opStore,
		decode.OpAMO:     opAMO,
		decode.OpOp:      opOp,
		decode.OpLUI:     opLUI,
		decode.OpOpFP:    opOpFP,
		decode.OpMAdd:    opFMA,
		decode.OpMSub:    opFMA,
		decode.OpNMSub:   opFMA,
		decode.OpNMAdd:   opFMA,
		decode.OpBranch:  opBranch,
		decode.OpJALR:    opJALR,
		decode.OpJAL:     opJAL,
		decode.OpSystem:  opSystem,
	}
}

// ExecuteOne fetches the instruction at PC, dispatches it through the
// table, and returns whether execution was sequential (the caller may
// continue without re-checking PC-derived state). It does not advance
// csr_cycle; that bookkeeping belongs to the execution driver (package
// vm), which counts one cycle per call to this method, while a JIT
// block advances csr_cycle by its whole instruction count at once.
func (rv *Processor) ExecuteOne() bool {
	inst := rv.Bus.MemIFetch(rv, rv.PC)
	handler := rv.table[decode.Major(inst)]
	if handler == nil {
		rv.Exception = ExcIllegalInstruction
		return false
	}
	return handler(rv, inst)
}

// checkAlign latches ExcInstMisaligned if pc is not 4-byte aligned.
// Returns true if the PC was left misaligned (so the caller can treat
// the transfer as non-sequential).
func (rv *Processor) checkAlign(pc uint32) bool {
	if pc&0x3 != 0 {
		rv.Exception = ExcInstMisaligned
		return true
	}
	return false
}
