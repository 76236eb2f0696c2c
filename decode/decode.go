/*
   RV32 instruction decoder.

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

// Package decode extracts the fields of a 32-bit RV32 instruction word.
//
// Every function here is pure: same word in, same fields out, no access
// to processor state. That keeps the interpreter's dispatch table and the
// JIT translator both able to share a single notion of "what does this
// word mean" without depending on any execution context.
package decode

// Major opcode groups, values of inst[6:2] (bits 6..2, five bits, with the
// mandatory low two bits 0b11 already stripped). This is also the index
// used by the cpu package's dispatch table.
const (
	OpLoad     = 0x00
	OpLoadFP   = 0x01
	OpMiscMem  = 0x03
	OpOpImm    = 0x04
	OpAUIPC    = 0x05
	OpStore    = 0x08
	OpStoreFP  = 0x09
	OpAMO      = 0x0B
	OpOp       = 0x0C
	OpLUI      = 0x0D
	OpMAdd     = 0x10
	OpMSub     = 0x11
	OpNMSub    = 0x12
	OpNMAdd    = 0x13
	OpOpFP     = 0x14
	OpBranch   = 0x18
	OpJALR     = 0x19
	OpJAL      = 0x1B
	OpSystem   = 0x1C
)

// Opcode extracts the raw 7-bit opcode field, inst[6:0].
func Opcode(inst uint32) uint32 { return inst & 0x7f }

// Major returns inst[6:2], the five bits that index the dispatch table.
func Major(inst uint32) uint32 { return (inst >> 2) & 0x1f }

// RD extracts the destination register field, inst[11:7].
func RD(inst uint32) uint32 { return (inst >> 7) & 0x1f }

// Funct3 extracts inst[14:12].
func Funct3(inst uint32) uint32 { return (inst >> 12) & 0x7 }

// RS1 extracts inst[19:15].
func RS1(inst uint32) uint32 { return (inst >> 15) & 0x1f }

// RS2 extracts inst[24:20].
func RS2(inst uint32) uint32 { return (inst >> 20) & 0x1f }

// RS3 extracts inst[31:27], the third source register of the R4
// (fused multiply-add) instruction format used by the F extension.
func RS3(inst uint32) uint32 { return (inst >> 27) & 0x1f }

// Funct7 extracts inst[31:25].
func Funct7(inst uint32) uint32 { return (inst >> 25) & 0x7f }

// Funct2 extracts inst[26:25], the rounding/format selector used by the
// R4 fused multiply-add encodings.
func Funct2(inst uint32) uint32 { return (inst >> 25) & 0x3 }

// CSR extracts the 12-bit CSR address field, inst[31:20].
func CSR(inst uint32) uint32 { return inst >> 20 }

// Shamt extracts the 5-bit shift amount used by the RV32 immediate
// shifts, encoded as the low 5 bits of the I-immediate.
func Shamt(inst uint32) uint32 { return (inst >> 20) & 0x1f }

// ImmI sign-extends the 12-bit I-type immediate, inst[31:20].
func ImmI(inst uint32) int32 {
	return int32(inst) >> 20
}

// ImmS sign-extends the 12-bit S-type immediate: inst[31:25] || inst[11:7].
func ImmS(inst uint32) int32 {
	hi := (inst >> 25) & 0x7f
	lo := (inst >> 7) & 0x1f
	return signExtend((hi<<5)|lo, 12)
}

// ImmB sign-extends the 13-bit B-type immediate (branch offset, low bit
// always zero): inst[31]|inst[7]|inst[30:25]|inst[11:8]|0.
func ImmB(inst uint32) int32 {
	bit12 := (inst >> 31) & 0x1
	bit11 := (inst >> 7) & 0x1
	bits10_5 := (inst >> 25) & 0x3f
	bits4_1 := (inst >> 8) & 0xf
	v := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	return signExtend(v, 13)
}

// ImmU returns the 32-bit U-type immediate: inst[31:12] with the low 12
// bits zero. Used by LUI and AUIPC.
func ImmU(inst uint32) int32 {
	return int32(inst & 0xfffff000)
}

// ImmJ sign-extends the 21-bit J-type immediate (jump offset, low bit
// always zero): inst[31]|inst[19:12]|inst[20]|inst[30:21]|0.
func ImmJ(inst uint32) int32 {
	bit20 := (inst >> 31) & 0x1
	bits19_12 := (inst >> 12) & 0xff
	bit11 := (inst >> 20) & 0x1
	bits10_1 := (inst >> 21) & 0x3ff
	v := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	return signExtend(v, 21)
}

// signExtend treats the low `bits` bits of v as a two's-complement value
// and sign-extends it into an int32.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
