/*
   A-extension (atomic memory operation) handler.

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

// AMO operation selectors, inst[31:27]. The aq/rl bits, inst[26:25], are
// decoded but carry no meaning in this single-hart core and are ignored.
const (
	amoAdd    = 0b00000
	amoSwap   = 0b00001
	amoLR     = 0b00010
	amoSC     = 0b00011
	amoXor    = 0b00100
	amoOr     = 0b01000
	amoAnd    = 0b01100
	amoMin    = 0b10000
	amoMax    = 0b10100
	amoMinu   = 0b11000
	amoMaxu   = 0b11100
)

// opAMO implements the RV32A word-granularity atomic memory operations.
// There is only ever one hart driving a Processor, so LR.W/SC.W need no
// real reservation tracking: LR.W is an ordinary load and SC.W always
// succeeds, writing the supplied value and reporting success in rd.
func opAMO(rv *Processor, inst uint32) bool {
	if !rv.Ext.Has(ExtA) {
		rv.Exception = ExcIllegalInstruction
		return false
	}
	if decode.Funct3(inst) != 2 {
		rv.Exception = ExcIllegalInstruction
		return false
	}

	rd := decode.RD(inst)
	rs1 := decode.RS1(inst)
	rs2 := decode.RS2(inst)
	addr := rv.X[rs1]
	op := inst >> 27

	if op == amoLR {
		rv.setRD(rd, rv.Bus.MemReadW(rv, addr))
		rv.PC += 4
		return true
	}
	if op == amoSC {
		rv.Bus.MemWriteW(rv, addr, rv.X[rs2])
		rv.setRD(rd, 0) // unconditional success
		rv.PC += 4
		return true
	}

	old := rv.Bus.MemReadW(rv, addr)
	operand := rv.X[rs2]

	var next uint32
	switch op {
	case amoAdd:
		next = old + operand
	case amoSwap:
		next = operand
	case amoXor:
		next = old ^ operand
	case amoOr:
		next = old | operand
	case amoAnd:
		next = old & operand
	case amoMin:
		if int32(old) < int32(operand) {
			next = old
		} else {
			next = operand
		}
	case amoMax:
		if int32(old) > int32(operand) {
			next = old
		} else {
			next = operand
		}
	case amoMinu:
		if old < operand {
			next = old
		} else {
			next = operand
		}
	case amoMaxu:
		if old > operand {
			next = old
		} else {
			next = operand
		}
	default:
		rv.Exception = ExcIllegalInstruction
		return false
	}

	rv.Bus.MemWriteW(rv, addr, next)
	rv.setRD(rd, old)
	rv.PC += 4
	return true
}
