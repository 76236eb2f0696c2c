//go:build amd64

/*
   rv32vm - x86-64 block emitter

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
	"unsafe"

	"github.com/rv32vm/rv32vm/cpu"
	"github.com/rv32vm/rv32vm/decode"
)

// Scratch general-purpose registers used by every emitted instruction.
// All four encode without a REX prefix (register numbers 0-7), and none
// of them aliases RDI (7), which always holds the guest state pointer,
// or RSP/RBP, which the emitted code never touches (it keeps no stack
// frame of its own).
const (
	regEAX = 0
	regECX = 1
	regEDX = 2
	regEBX = 3
	regEDI = 7 // guest state pointer, never used as a scratch destination.
)

var offX = int32(unsafe.Offsetof(cpu.Processor{}.X))

func xOffset(reg uint32) int32 { return offX + 4*int32(reg) }

// asm is a small growable byte buffer with x86-64 encoders for exactly
// the instruction forms this translator needs.
type asm struct{ buf []byte }

func (a *asm) b(bs ...byte) { a.buf = append(a.buf, bs...) }

func (a *asm) imm32(v uint32) {
	a.buf = append(a.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (a *asm) disp32(v int32) { a.imm32(uint32(v)) }

// modrmReg encodes the register-direct ModRM byte for "op dstRM, srcReg"
// forms where both operands are registers (mod=11).
func modrmReg(srcReg, dstRM uint32) byte {
	return 0xC0 | byte(srcReg<<3) | byte(dstRM)
}

// loadX emits MOV dstReg, [RDI+offset(rs)].
func (a *asm) loadX(dstReg, rs uint32) {
	if rs == 0 {
		a.b(0x31, modrmReg(dstReg, dstReg)) // XOR dstReg, dstReg: x0 reads as 0.
		return
	}
	a.b(0x8B, 0x80|byte(dstReg<<3)|regEDI)
	a.disp32(xOffset(rs))
}

// storeX emits MOV [RDI+offset(rd)], srcReg. A write to x0 is skipped
// entirely, matching the JIT's zero-register contract in the design
// notes.
func (a *asm) storeX(rd, srcReg uint32) {
	if rd == 0 {
		return
	}
	a.b(0x89, 0x80|byte(srcReg<<3)|regEDI)
	a.disp32(xOffset(rd))
}

func (a *asm) movImm32(dstReg, v uint32) {
	if v == 0 {
		a.b(0x31, modrmReg(dstReg, dstReg)) // mov r, 0 -> xor r, r
		return
	}
	a.b(0xB8 + byte(dstReg))
	a.imm32(v)
}

func (a *asm) addRR(dst, src uint32) { a.b(0x01, modrmReg(src, dst)) }
func (a *asm) subRR(dst, src uint32) { a.b(0x29, modrmReg(src, dst)) }
func (a *asm) andRR(dst, src uint32) { a.b(0x21, modrmReg(src, dst)) }
func (a *asm) orRR(dst, src uint32)  { a.b(0x09, modrmReg(src, dst)) }
func (a *asm) xorRR(dst, src uint32) { a.b(0x31, modrmReg(src, dst)) }
func (a *asm) cmpRR(a1, b1 uint32)   { a.b(0x39, modrmReg(b1, a1)) } // flags = a1 - b1

// shiftCL emits SHL/SHR/SAR reg, CL. sub selects the ModRM /digit:
// 4=SHL, 5=SHR, 7=SAR.
func (a *asm) shiftCL(reg uint32, sub byte) { a.b(0xD3, 0xC0|(sub<<3)|byte(reg)) }

// setcc emits SETcc on an 8-bit low register (AL/CL/DL/BL only, which
// covers every register this emitter ever uses for a boolean result).
// The result register is zeroed before the compare, since XOR rewrites
// the flags SETcc reads.
func (a *asm) setcc(cc byte, reg uint32) { a.b(0x0F, 0x90|cc, 0xC0|byte(reg)) }

const (
	ccL  = 0xC // SETL:  signed  <
	ccB  = 0x2 // SETB:  unsigned <
	ccE  = 0x4
	ccNE = 0x5
	ccGE = 0xD
	ccAE = 0x3
)

func (a *asm) ret() { a.b(0xC3) }

// translateBlock attempts to build a Block starting at rv.PC. It
// returns ok=false if even the first instruction cannot be translated.
func translateBlock(rv *cpu.Processor) (*Block, bool) {
	const maxInsns = 64
	a := &asm{}
	pc := rv.PC
	count := 0

	for count < maxInsns {
		inst := rv.Bus.MemIFetch(rv, pc)
		major := decode.Major(inst)

		switch major {
		case decode.OpOpImm:
			emitOpImm(a, inst)
		case decode.OpOp:
			if decode.Funct7(inst) == 0b0000001 {
				goto stop // M extension: needs the interpreter.
			}
			emitOp(a, inst)
		case decode.OpLUI:
			a.movImm32(regEAX, uint32(decode.ImmU(inst)))
			a.storeX(decode.RD(inst), regEAX)
		case decode.OpAUIPC:
			a.movImm32(regEAX, uint32(decode.ImmU(inst))+pc)
			a.storeX(decode.RD(inst), regEAX)
		case decode.OpMiscMem:
			// FENCE/FENCE.I: no-op.
		case decode.OpBranch:
			emitBranch(a, inst, pc)
			count++
			pc += 4
			return finish(a, rv.PC, pc, count)
		case decode.OpJAL:
			emitJAL(a, inst, pc)
			count++
			pc += 4
			return finish(a, rv.PC, pc, count)
		case decode.OpJALR:
			emitJALR(a, inst, pc)
			count++
			pc += 4
			return finish(a, rv.PC, pc, count)
		default:
			goto stop
		}
		count++
		pc += 4
	}

stop:
	if count == 0 {
		return nil, false
	}
	// Fell through without a terminator (hit maxInsns or an
	// unsupported instruction): end the block at the last translated
	// instruction and let the interpreter pick up from here.
	a.movImm32(regEAX, pc)
	a.storeResultPC()
	return finish(a, rv.PC, pc, count)
}

// storeResultPC moves the computed next-PC (in EAX) to EAX as the
// function result register; on x86-64 System V, a 32-bit return value
// is already in EAX, so this is a no-op placeholder kept for clarity
// at every call site that "returns" a PC.
func (a *asm) storeResultPC() {}

func finish(a *asm, start, end uint32, insns int) (*Block, bool) {
	a.ret()
	code, err := allocExec(a.buf)
	if err != nil {
		return nil, false
	}
	return &Block{GuestPCStart: start, GuestPCEnd: end, Instructions: insns, code: code}, true
}

func emitOpImm(a *asm, inst uint32) {
	rd := decode.RD(inst)
	rs1 := decode.RS1(inst)
	imm := decode.ImmI(inst)
	funct3 := decode.Funct3(inst)

	switch funct3 {
	case 0: // ADDI
		if imm == 0 { // add r, 0 -> elide
			a.loadX(regEAX, rs1)
			a.storeX(rd, regEAX)
			return
		}
		a.loadX(regEAX, rs1)
		a.movImm32(regECX, uint32(imm))
		a.addRR(regEAX, regECX)
	case 1: // SLLI
		shamt := decode.Shamt(inst)
		a.loadX(regEAX, rs1)
		if shamt == 0 { // shl r, 0 -> elide
			a.storeX(rd, regEAX)
			return
		}
		a.movImm32(regECX, shamt)
		a.shiftCL(regEAX, 4)
	case 2: // SLTI
		a.loadX(regEAX, rs1)
		a.movImm32(regECX, uint32(imm))
		a.xorRR(regEDX, regEDX)
		a.cmpRR(regEAX, regECX)
		a.setcc(ccL, regEDX)
		a.b(0x89, modrmReg(regEDX, regEAX)) // MOV EAX, EDX
	case 3: // SLTIU
		a.loadX(regEAX, rs1)
		a.movImm32(regECX, uint32(imm))
		a.xorRR(regEDX, regEDX)
		a.cmpRR(regEAX, regECX)
		a.setcc(ccB, regEDX)
		a.b(0x89, modrmReg(regEDX, regEAX))
	case 4: // XORI
		a.loadX(regEAX, rs1)
		a.movImm32(regECX, uint32(imm))
		a.xorRR(regEAX, regECX)
	case 5: // SRLI/SRAI
		shamt := decode.Shamt(inst)
		a.loadX(regEAX, rs1)
		if shamt == 0 {
			a.storeX(rd, regEAX)
			return
		}
		a.movImm32(regECX, shamt)
		if decode.Funct7(inst)&0x20 != 0 {
			a.shiftCL(regEAX, 7) // SRAI
		} else {
			a.shiftCL(regEAX, 5) // SRLI
		}
	case 6: // ORI
		a.loadX(regEAX, rs1)
		a.movImm32(regECX, uint32(imm))
		a.orRR(regEAX, regECX)
	case 7: // ANDI
		if imm == 0 { // and r, 0 -> xor r, r, rs1 needn't be loaded.
			a.xorRR(regEAX, regEAX)
			a.storeX(rd, regEAX)
			return
		}
		a.loadX(regEAX, rs1)
		a.movImm32(regECX, uint32(imm))
		a.andRR(regEAX, regECX)
	}
	a.storeX(rd, regEAX)
}

func emitOp(a *asm, inst uint32) {
	rd := decode.RD(inst)
	rs1 := decode.RS1(inst)
	rs2 := decode.RS2(inst)
	funct3 := decode.Funct3(inst)
	funct7 := decode.Funct7(inst)

	a.loadX(regEAX, rs1)
	a.loadX(regECX, rs2)
	switch funct3 {
	case 0:
		if funct7 == 0b0100000 {
			a.subRR(regEAX, regECX)
		} else {
			a.addRR(regEAX, regECX)
		}
	case 1:
		a.shiftCL(regEAX, 4)
	case 2:
		a.xorRR(regEDX, regEDX)
		a.cmpRR(regEAX, regECX)
		a.setcc(ccL, regEDX)
		a.b(0x89, modrmReg(regEDX, regEAX))
	case 3:
		a.xorRR(regEDX, regEDX)
		a.cmpRR(regEAX, regECX)
		a.setcc(ccB, regEDX)
		a.b(0x89, modrmReg(regEDX, regEAX))
	case 4:
		a.xorRR(regEAX, regECX)
	case 5:
		if funct7 == 0b0100000 {
			a.shiftCL(regEAX, 7)
		} else {
			a.shiftCL(regEAX, 5)
		}
	case 6:
		a.orRR(regEAX, regECX)
	case 7:
		a.andRR(regEAX, regECX)
	}
	a.storeX(rd, regEAX)
}

// emitBranch computes the next guest PC into EAX using a compare and a
// CMOVcc, with no host control-flow jump at all: both the taken and
// not-taken targets are compile-time constants (fallthrough is pc+4;
// the branch target is pc+ImmB), so the choice between them is itself
// just a conditional move.
func emitBranch(a *asm, inst uint32, pc uint32) {
	rs1 := decode.RS1(inst)
	rs2 := decode.RS2(inst)
	fallthroughPC := pc + 4
	targetPC := pc + uint32(decode.ImmB(inst))

	a.loadX(regEAX, rs1)
	a.loadX(regECX, rs2)

	// Both candidates are loaded before the compare: a zero PC is
	// emitted as XOR, which would overwrite the flags.
	a.movImm32(regEDX, fallthroughPC)
	a.movImm32(regEBX, targetPC)
	a.cmpRR(regEAX, regECX)

	var cc byte
	switch decode.Funct3(inst) {
	case 0:
		cc = ccE
	case 1:
		cc = ccNE
	case 4:
		cc = ccL
	case 5:
		cc = ccGE
	case 6:
		cc = ccB
	case 7:
		cc = ccAE
	}
	a.cmovcc(cc, regEDX, regEBX)
	a.b(0x89, modrmReg(regEDX, regEAX)) // MOV EAX, EDX
}

// cmovcc emits CMOVcc dst, src (0F 4x /r).
func (a *asm) cmovcc(cc byte, dst, src uint32) { a.b(0x0F, 0x40|cc, modrmReg(dst, src)) }

func emitJAL(a *asm, inst uint32, pc uint32) {
	link := pc + 4
	target := pc + uint32(decode.ImmJ(inst))
	rd := decode.RD(inst)
	if rd != 0 {
		a.movImm32(regEAX, link)
		a.storeX(rd, regEAX)
	}
	a.movImm32(regEAX, target)
}

func emitJALR(a *asm, inst uint32, pc uint32) {
	link := pc + 4
	rs1 := decode.RS1(inst)
	rd := decode.RD(inst)
	imm := decode.ImmI(inst)

	a.loadX(regECX, rs1)
	if imm != 0 {
		a.movImm32(regEDX, uint32(imm))
		a.addRR(regECX, regEDX)
	}
	a.movImm32(regEDX, 0xFFFFFFFE)
	a.andRR(regECX, regEDX)

	if rd != 0 {
		a.movImm32(regEAX, link)
		a.storeX(rd, regEAX)
	}
	a.b(0x89, modrmReg(regECX, regEAX)) // MOV EAX, ECX (final result PC)
}
