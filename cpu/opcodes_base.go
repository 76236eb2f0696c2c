/*
   RV32I base instruction set handlers.

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

// opLoad handles LB/LH/LW/LBU/LHU.
func opLoad(rv *Processor, inst uint32) bool {
	rd := decode.RD(inst)
	rs1 := decode.RS1(inst)
	addr := rv.X[rs1] + uint32(decode.ImmI(inst))

	var val uint32
	switch decode.Funct3(inst) {
	case 0: // LB
		val = uint32(int32(int8(rv.Bus.MemReadB(rv, addr))))
	case 1: // LH
		val = uint32(int32(int16(rv.Bus.MemReadS(rv, addr))))
	case 2: // LW
		val = rv.Bus.MemReadW(rv, addr)
	case 4: // LBU
		val = uint32(rv.Bus.MemReadB(rv, addr))
	case 5: // LHU
		val = uint32(rv.Bus.MemReadS(rv, addr))
	default:
		rv.Exception = ExcIllegalInstruction
		return false
	}
	rv.setRD(rd, val)
	rv.PC += 4
	return true
}

// opStore handles SB/SH/SW.
func opStore(rv *Processor, inst uint32) bool {
	rs1 := decode.RS1(inst)
	rs2 := decode.RS2(inst)
	addr := rv.X[rs1] + uint32(decode.ImmS(inst))
	val := rv.X[rs2]

	switch decode.Funct3(inst) {
	case 0:
		rv.Bus.MemWriteB(rv, addr, uint8(val))
	case 1:
		rv.Bus.MemWriteS(rv, addr, uint16(val))
	case 2:
		rv.Bus.MemWriteW(rv, addr, val)
	default:
		rv.Exception = ExcIllegalInstruction
		return false
	}
	rv.PC += 4
	return true
}

// opOpImm handles ADDI, SLLI, SLTI, SLTIU, XORI, SRLI/SRAI, ORI, ANDI.
func opOpImm(rv *Processor, inst uint32) bool {
	rd := decode.RD(inst)
	rs1 := decode.RS1(inst)
	src := rv.X[rs1]
	imm := decode.ImmI(inst)
	shamt := decode.Shamt(inst)

	var result uint32
	switch decode.Funct3(inst) {
	case 0: // ADDI
		result = src + uint32(imm)
	case 1: // SLLI
		result = src << shamt
	case 2: // SLTI (signed)
		if int32(src) < imm {
			result = 1
		}
	case 3: // SLTIU (unsigned)
		if src < uint32(imm) {
			result = 1
		}
	case 4: // XORI
		result = src ^ uint32(imm)
	case 5: // SRLI/SRAI, discriminated by imm[10] == funct7 bit 30
		if decode.Funct7(inst)&0x20 != 0 {
			result = uint32(int32(src) >> shamt) // SRAI
		} else {
			result = src >> shamt // SRLI
		}
	case 6: // ORI
		result = src | uint32(imm)
	case 7: // ANDI
		result = src & uint32(imm)
	}
	rv.setRD(rd, result)
	rv.PC += 4
	return true
}

// opOp handles ADD, SUB, SLL, SLT, SLTU, XOR, SRL, SRA, OR, AND, as well
// as dispatching to the M-extension handler when funct7 selects it.
func opOp(rv *Processor, inst uint32) bool {
	funct7 := decode.Funct7(inst)
	if funct7 == 0b0000001 {
		return opM(rv, inst)
	}

	rd := decode.RD(inst)
	rs1 := decode.RS1(inst)
	rs2 := decode.RS2(inst)
	a := rv.X[rs1]
	b := rv.X[rs2]

	var result uint32
	switch decode.Funct3(inst) {
	case 0: // ADD/SUB
		if funct7 == 0b0100000 {
			result = a - b
		} else {
			result = a + b
		}
	case 1: // SLL
		result = a << (b & 0x1f)
	case 2: // SLT (signed)
		if int32(a) < int32(b) {
			result = 1
		}
	case 3: // SLTU (unsigned)
		if a < b {
			result = 1
		}
	case 4: // XOR
		result = a ^ b
	case 5: // SRL/SRA
		if funct7 == 0b0100000 {
			result = uint32(int32(a) >> (b & 0x1f))
		} else {
			result = a >> (b & 0x1f)
		}
	case 6: // OR
		result = a | b
	case 7: // AND
		result = a & b
	}
	rv.setRD(rd, result)
	rv.PC += 4
	return true
}

// opLUI handles LUI.
func opLUI(rv *Processor, inst uint32) bool {
	rv.setRD(decode.RD(inst), uint32(decode.ImmU(inst)))
	rv.PC += 4
	return true
}

// opAUIPC handles AUIPC.
func opAUIPC(rv *Processor, inst uint32) bool {
	rv.setRD(decode.RD(inst), uint32(decode.ImmU(inst))+rv.PC)
	rv.PC += 4
	return true
}

// opJAL links PC+4 into rd and transfers control to PC+J-imm.
func opJAL(rv *Processor, inst uint32) bool {
	link := rv.PC + 4
	target := rv.PC + uint32(decode.ImmJ(inst))
	rv.setRD(decode.RD(inst), link)
	rv.PC = target
	rv.checkAlign(target)
	return false
}

// opJALR links PC+4 into rd and transfers control to
// (X[rs1]+I-imm) & ~1.
func opJALR(rv *Processor, inst uint32) bool {
	link := rv.PC + 4
	rs1 := decode.RS1(inst)
	target := (rv.X[rs1] + uint32(decode.ImmI(inst))) &^ 1
	rv.setRD(decode.RD(inst), link)
	rv.PC = target
	rv.checkAlign(target)
	return false
}

// opBranch handles BEQ, BNE, BLT, BGE, BLTU, BGEU.
func opBranch(rv *Processor, inst uint32) bool {
	rs1 := decode.RS1(inst)
	rs2 := decode.RS2(inst)
	a := rv.X[rs1]
	b := rv.X[rs2]

	var taken bool
	switch decode.Funct3(inst) {
	case 0: // BEQ
		taken = a == b
	case 1: // BNE
		taken = a != b
	case 4: // BLT (signed)
		taken = int32(a) < int32(b)
	case 5: // BGE (signed)
		taken = int32(a) >= int32(b)
	case 6: // BLTU
		taken = a < b
	case 7: // BGEU
		taken = a >= b
	default:
		rv.Exception = ExcIllegalInstruction
		return false
	}

	if !taken {
		rv.PC += 4
		return true
	}
	target := rv.PC + uint32(decode.ImmB(inst))
	rv.PC = target
	rv.checkAlign(target)
	return false
}

// opMiscMem handles FENCE and FENCE.I (Zifencei): both are no-ops in a
// single-hart, non-self-modifying model, but they still retire as
// sequential instructions rather than falling through to illegal.
func opMiscMem(rv *Processor, inst uint32) bool {
	rv.PC += 4
	return true
}
