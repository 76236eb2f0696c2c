/*
   F-extension (single-precision floating point) handlers.

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

import (
	"math"

	"github.com/rv32vm/rv32vm/decode"
)

// OP-FP funct7 selectors (single-precision format only; the two fmt bits
// encoded in inst[26:25], the low two bits of funct7, are always 00 for F, so funct7 alone suffices).
const (
	fpAdd       = 0b0000000
	fpSub       = 0b0000100
	fpMul       = 0b0001000
	fpDiv       = 0b0001100
	fpSqrt      = 0b0101100
	fpSgnj      = 0b0010000
	fpMinMax    = 0b0010100
	fpCvtToInt  = 0b1100000
	fpMvXWClass = 0b1110000
	fpCmp       = 0b1010000
	fpCvtToFP   = 0b1101000
	fpMvWX      = 0b1111000
)

func (rv *Processor) f(n uint32) float32 { return math.Float32frombits(rv.F[n]) }

func (rv *Processor) setF(n uint32, v float32) { rv.F[n] = math.Float32bits(v) }

// opOpFP implements the non-fused F-extension instructions: arithmetic,
// sign injection, min/max, compares, integer conversions, and the
// bit-exact FMV/FCLASS forms.
func opOpFP(rv *Processor, inst uint32) bool {
	if !rv.Ext.Has(ExtF) {
		rv.Exception = ExcIllegalInstruction
		return false
	}

	rd := decode.RD(inst)
	rs1 := decode.RS1(inst)
	rs2 := decode.RS2(inst)
	funct3 := decode.Funct3(inst)
	funct7 := decode.Funct7(inst)

	switch funct7 {
	case fpAdd:
		rv.setF(rd, rv.f(rs1)+rv.f(rs2))
	case fpSub:
		rv.setF(rd, rv.f(rs1)-rv.f(rs2))
	case fpMul:
		rv.setF(rd, rv.f(rs1)*rv.f(rs2))
	case fpDiv:
		rv.setF(rd, rv.f(rs1)/rv.f(rs2))
	case fpSqrt:
		rv.setF(rd, float32(math.Sqrt(float64(rv.f(rs1)))))
	case fpSgnj:
		a := rv.F[rs1] &^ 0x80000000
		b := rv.F[rs2] & 0x80000000
		switch funct3 {
		case 0: // FSGNJ
			rv.F[rd] = a | b
		case 1: // FSGNJN
			rv.F[rd] = a | (b ^ 0x80000000)
		case 2: // FSGNJX
			rv.F[rd] = a | ((rv.F[rs1] & 0x80000000) ^ b)
		default:
			rv.Exception = ExcIllegalInstruction
			return false
		}
	case fpMinMax:
		a, b := rv.f(rs1), rv.f(rs2)
		if funct3 == 0 { // FMIN
			if a < b {
				rv.setF(rd, a)
			} else {
				rv.setF(rd, b)
			}
		} else { // FMAX
			if a > b {
				rv.setF(rd, a)
			} else {
				rv.setF(rd, b)
			}
		}
	case fpCvtToInt:
		a := rv.f(rs1)
		if rs2 == 0 { // FCVT.W.S, signed
			rv.setRD(rd, uint32(int32(a)))
		} else { // FCVT.WU.S, unsigned
			rv.setRD(rd, uint32(a))
		}
	case fpCvtToFP:
		x := rv.X[rs1]
		if rs2 == 0 { // FCVT.S.W, signed
			rv.setF(rd, float32(int32(x)))
		} else { // FCVT.S.WU, unsigned
			rv.setF(rd, float32(x))
		}
	case fpMvXWClass:
		if funct3 == 0 { // FMV.X.W: bit-exact copy, no interpretation.
			rv.setRD(rd, rv.F[rs1])
		} else { // FCLASS
			rv.setRD(rd, classify(rv.F[rs1]))
		}
	case fpCmp:
		a, b := rv.f(rs1), rv.f(rs2)
		var result uint32
		switch funct3 {
		case 2: // FEQ
			if a == b {
				result = 1
			}
		case 1: // FLT
			if a < b {
				result = 1
			}
		case 0: // FLE
			if a <= b {
				result = 1
			}
		default:
			rv.Exception = ExcIllegalInstruction
			return false
		}
		rv.setRD(rd, result)
	case fpMvWX:
		rv.F[rd] = rv.X[rs1] // bit-exact copy, no interpretation.
	default:
		rv.Exception = ExcIllegalInstruction
		return false
	}

	rv.PC += 4
	return true
}

// opFMA implements the four fused multiply-add variants, which share
// this handler across the four major opcodes (MADD/MSUB/NMSUB/NMADD)
// and are distinguished by decode.Major.
func opFMA(rv *Processor, inst uint32) bool {
	if !rv.Ext.Has(ExtF) {
		rv.Exception = ExcIllegalInstruction
		return false
	}

	rd := decode.RD(inst)
	a := rv.f(decode.RS1(inst))
	b := rv.f(decode.RS2(inst))
	c := rv.f(decode.RS3(inst))

	var result float32
	switch decode.Major(inst) {
	case decode.OpMAdd:
		result = a*b + c
	case decode.OpMSub:
		result = a*b - c
	case decode.OpNMSub:
		result = -(a*b) + c
	case decode.OpNMAdd:
		result = -(a*b) - c
	default:
		rv.Exception = ExcIllegalInstruction
		return false
	}
	rv.setF(rd, result)
	rv.PC += 4
	return true
}
