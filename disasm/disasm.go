/*
   RV32 disassembler.

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

// Package disasm renders a single RV32 instruction word as a mnemonic and
// its operands, for the monitor's "mem" listing and the per-instruction
// trace its "step" command prints.
package disasm

import (
	"fmt"

	"github.com/rv32vm/rv32vm/decode"
)

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func reg(n uint32) string { return regNames[n&0x1f] }

// Disassemble returns a textual rendering of the instruction word at pc
// and the instruction's length in bytes (always 4: RV32 has no
// compressed-instruction support). Unrecognized words fall back to a
// raw hex dump, the same way an unmapped opcode does in an S/370 trace.
func Disassemble(pc uint32, inst uint32) (string, int) {
	rd := decode.RD(inst)
	rs1 := decode.RS1(inst)
	rs2 := decode.RS2(inst)
	f3 := decode.Funct3(inst)

	switch decode.Major(inst) {
	case decode.OpLoad:
		name, ok := loadMnemonic(f3)
		if !ok {
			return undefined(inst), 4
		}
		return fmt.Sprintf("%-8s%s, %d(%s)", name, reg(rd), decode.ImmI(inst), reg(rs1)), 4

	case decode.OpStore:
		name, ok := storeMnemonic(f3)
		if !ok {
			return undefined(inst), 4
		}
		return fmt.Sprintf("%-8s%s, %d(%s)", name, reg(rs2), decode.ImmS(inst), reg(rs1)), 4

	case decode.OpOpImm:
		return disasmOpImm(inst, rd, rs1, f3), 4

	case decode.OpOp:
		return disasmOp(inst, rd, rs1, rs2, f3), 4

	case decode.OpLUI:
		return fmt.Sprintf("%-8s%s, 0x%x", "lui", reg(rd), uint32(decode.ImmU(inst))>>12), 4

	case decode.OpAUIPC:
		return fmt.Sprintf("%-8s%s, 0x%x", "auipc", reg(rd), uint32(decode.ImmU(inst))>>12), 4

	case decode.OpJAL:
		target := pc + uint32(decode.ImmJ(inst))
		return fmt.Sprintf("%-8s%s, 0x%x", "jal", reg(rd), target), 4

	case decode.OpJALR:
		return fmt.Sprintf("%-8s%s, %d(%s)", "jalr", reg(rd), decode.ImmI(inst), reg(rs1)), 4

	case decode.OpBranch:
		name, ok := branchMnemonic(f3)
		if !ok {
			return undefined(inst), 4
		}
		target := pc + uint32(decode.ImmB(inst))
		return fmt.Sprintf("%-8s%s, %s, 0x%x", name, reg(rs1), reg(rs2), target), 4

	case decode.OpMiscMem:
		if f3 == 1 {
			return "fence.i", 4
		}
		return "fence", 4

	case decode.OpSystem:
		return disasmSystem(inst, rd, rs1, f3), 4

	case decode.OpAMO:
		return disasmAMO(inst, rd, rs1, rs2), 4

	case decode.OpLoadFP:
		return fmt.Sprintf("%-8sf%d, %d(%s)", "flw", rd, decode.ImmI(inst), reg(rs1)), 4

	case decode.OpStoreFP:
		return fmt.Sprintf("%-8sf%d, %d(%s)", "fsw", rs2, decode.ImmS(inst), reg(rs1)), 4

	case decode.OpOpFP:
		return disasmOpFP(inst, rd, rs1, rs2), 4

	case decode.OpMAdd, decode.OpMSub, decode.OpNMSub, decode.OpNMAdd:
		return disasmFMA(inst, rd, rs1, rs2), 4
	}

	return undefined(inst), 4
}

func loadMnemonic(f3 uint32) (string, bool) {
	switch f3 {
	case 0:
		return "lb", true
	case 1:
		return "lh", true
	case 2:
		return "lw", true
	case 4:
		return "lbu", true
	case 5:
		return "lhu", true
	}
	return "", false
}

func storeMnemonic(f3 uint32) (string, bool) {
	switch f3 {
	case 0:
		return "sb", true
	case 1:
		return "sh", true
	case 2:
		return "sw", true
	}
	return "", false
}

func branchMnemonic(f3 uint32) (string, bool) {
	switch f3 {
	case 0:
		return "beq", true
	case 1:
		return "bne", true
	case 4:
		return "blt", true
	case 5:
		return "bge", true
	case 6:
		return "bltu", true
	case 7:
		return "bgeu", true
	}
	return "", false
}

func disasmOpImm(inst uint32, rd, rs1, f3 uint32) string {
	imm := decode.ImmI(inst)
	switch f3 {
	case 0:
		return fmt.Sprintf("%-8s%s, %s, %d", "addi", reg(rd), reg(rs1), imm)
	case 1:
		return fmt.Sprintf("%-8s%s, %s, %d", "slli", reg(rd), reg(rs1), decode.Shamt(inst))
	case 2:
		return fmt.Sprintf("%-8s%s, %s, %d", "slti", reg(rd), reg(rs1), imm)
	case 3:
		return fmt.Sprintf("%-8s%s, %s, %d", "sltiu", reg(rd), reg(rs1), imm)
	case 4:
		return fmt.Sprintf("%-8s%s, %s, %d", "xori", reg(rd), reg(rs1), imm)
	case 5:
		name := "srli"
		if decode.Funct7(inst)&0x20 != 0 {
			name = "srai"
		}
		return fmt.Sprintf("%-8s%s, %s, %d", name, reg(rd), reg(rs1), decode.Shamt(inst))
	case 6:
		return fmt.Sprintf("%-8s%s, %s, %d", "ori", reg(rd), reg(rs1), imm)
	case 7:
		return fmt.Sprintf("%-8s%s, %s, %d", "andi", reg(rd), reg(rs1), imm)
	}
	return undefined(inst)
}

var opMnemonics = map[uint32]string{
	0: "add", 1: "sll", 2: "slt", 3: "sltu", 4: "xor", 5: "srl", 6: "or", 7: "and",
}

var mMnemonics = map[uint32]string{
	0: "mul", 1: "mulh", 2: "mulhsu", 3: "mulhu", 4: "div", 5: "divu", 6: "rem", 7: "remu",
}

func disasmOp(inst uint32, rd, rs1, rs2, f3 uint32) string {
	f7 := decode.Funct7(inst)
	if f7 == 0b0000001 {
		return fmt.Sprintf("%-8s%s, %s, %s", mMnemonics[f3], reg(rd), reg(rs1), reg(rs2))
	}
	name := opMnemonics[f3]
	switch f3 {
	case 0:
		if f7&0x20 != 0 {
			name = "sub"
		}
	case 5:
		if f7&0x20 != 0 {
			name = "sra"
		}
	}
	return fmt.Sprintf("%-8s%s, %s, %s", name, reg(rd), reg(rs1), reg(rs2))
}

func disasmSystem(inst uint32, rd, rs1, f3 uint32) string {
	csr := decode.CSR(inst)
	switch f3 {
	case 0:
		switch decode.ImmI(inst) {
		case 0:
			return "ecall"
		case 1:
			return "ebreak"
		}
		return undefined(inst)
	case 1:
		return fmt.Sprintf("%-8s%s, %s, 0x%x", "csrrw", reg(rd), reg(rs1), csr)
	case 2:
		return fmt.Sprintf("%-8s%s, %s, 0x%x", "csrrs", reg(rd), reg(rs1), csr)
	case 3:
		return fmt.Sprintf("%-8s%s, %s, 0x%x", "csrrc", reg(rd), reg(rs1), csr)
	case 5:
		return fmt.Sprintf("%-8s%s, %d, 0x%x", "csrrwi", reg(rd), rs1, csr)
	case 6:
		return fmt.Sprintf("%-8s%s, %d, 0x%x", "csrrsi", reg(rd), rs1, csr)
	case 7:
		return fmt.Sprintf("%-8s%s, %d, 0x%x", "csrrci", reg(rd), rs1, csr)
	}
	return undefined(inst)
}

var amoMnemonics = map[uint32]string{
	0x00: "amoadd.w", 0x01: "amoswap.w", 0x02: "lr.w", 0x03: "sc.w",
	0x04: "amoxor.w", 0x08: "amoor.w", 0x0c: "amoand.w",
	0x10: "amomin.w", 0x14: "amomax.w", 0x18: "amominu.w", 0x1c: "amomaxu.w",
}

func disasmAMO(inst uint32, rd, rs1, rs2 uint32) string {
	funct5 := inst >> 27
	name, ok := amoMnemonics[funct5]
	if !ok {
		return undefined(inst)
	}
	if funct5 == 0x02 {
		return fmt.Sprintf("%-8s%s, (%s)", name, reg(rd), reg(rs1))
	}
	return fmt.Sprintf("%-8s%s, %s, (%s)", name, reg(rd), reg(rs2), reg(rs1))
}

var opFPMnemonics = map[uint32]string{
	0x00: "fadd.s", 0x04: "fsub.s", 0x08: "fmul.s", 0x0c: "fdiv.s", 0x2c: "fsqrt.s",
}

func disasmOpFP(inst uint32, rd, rs1, rs2 uint32) string {
	f7 := decode.Funct7(inst)
	f3 := decode.Funct3(inst)
	if name, ok := opFPMnemonics[f7]; ok {
		if f7 == 0x2c {
			return fmt.Sprintf("%-8sf%d, f%d", name, rd, rs1)
		}
		return fmt.Sprintf("%-8sf%d, f%d, f%d", name, rd, rs1, rs2)
	}
	switch f7 {
	case 0x10:
		names := map[uint32]string{0: "fsgnj.s", 1: "fsgnjn.s", 2: "fsgnjx.s"}
		return fmt.Sprintf("%-8sf%d, f%d, f%d", names[f3], rd, rs1, rs2)
	case 0x14:
		name := "fmin.s"
		if f3 == 1 {
			name = "fmax.s"
		}
		return fmt.Sprintf("%-8sf%d, f%d, f%d", name, rd, rs1, rs2)
	case 0x60:
		name := "fcvt.w.s"
		if rs2 == 1 {
			name = "fcvt.wu.s"
		}
		return fmt.Sprintf("%-8s%s, f%d", name, reg(rd), rs1)
	case 0x68:
		name := "fcvt.s.w"
		if rs2 == 1 {
			name = "fcvt.s.wu"
		}
		return fmt.Sprintf("%-8sf%d, %s", name, rd, reg(rs1))
	case 0x70:
		if f3 == 1 {
			return fmt.Sprintf("%-8s%s, f%d", "fclass.s", reg(rd), rs1)
		}
		return fmt.Sprintf("%-8s%s, f%d", "fmv.x.w", reg(rd), rs1)
	case 0x78:
		return fmt.Sprintf("%-8sf%d, %s", "fmv.w.x", rd, reg(rs1))
	case 0x50:
		names := map[uint32]string{0: "fle.s", 1: "flt.s", 2: "feq.s"}
		return fmt.Sprintf("%-8s%s, f%d, f%d", names[f3], reg(rd), rs1, rs2)
	}
	return undefined(inst)
}

func disasmFMA(inst uint32, rd, rs1, rs2 uint32) string {
	rs3 := decode.RS3(inst)
	var name string
	switch decode.Major(inst) {
	case 0x10:
		name = "fmadd.s"
	case 0x11:
		name = "fmsub.s"
	case 0x12:
		name = "fnmsub.s"
	case 0x13:
		name = "fnmadd.s"
	}
	return fmt.Sprintf("%-8sf%d, f%d, f%d, f%d", name, rd, rs1, rs2, rs3)
}

func undefined(inst uint32) string {
	return fmt.Sprintf(".word   0x%08x", inst)
}
