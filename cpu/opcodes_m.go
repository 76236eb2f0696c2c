/*
   M-extension (integer multiply/divide) handler.

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

// opM implements MUL/MULH/MULHSU/MULHU/DIV/DIVU/REM/REMU, reached from
// opOp when funct7 selects the M extension (0000001). Division by zero
// and the signed-overflow case never trap; they produce the fixed
// sentinel values the RISC-V base spec defines so a guest program can
// keep running without a trap handler.
func opM(rv *Processor, inst uint32) bool {
	if !rv.Ext.Has(ExtM) {
		rv.Exception = ExcIllegalInstruction
		return false
	}

	rd := decode.RD(inst)
	a := rv.X[decode.RS1(inst)]
	b := rv.X[decode.RS2(inst)]

	var result uint32
	switch decode.Funct3(inst) {
	case 0: // MUL
		result = a * b
	case 1: // MULH (signed x signed)
		result = uint32((int64(int32(a)) * int64(int32(b))) >> 32)
	case 2: // MULHSU (signed x unsigned)
		result = uint32((int64(int32(a)) * int64(uint64(b))) >> 32)
	case 3: // MULHU (unsigned x unsigned)
		result = uint32((uint64(a) * uint64(b)) >> 32)
	case 4: // DIV
		sa, sb := int32(a), int32(b)
		switch {
		case sb == 0:
			result = 0xffffffff
		case sa == -0x80000000 && sb == -1:
			result = 0x80000000
		default:
			result = uint32(sa / sb)
		}
	case 5: // DIVU
		if b == 0 {
			result = 0xffffffff
		} else {
			result = a / b
		}
	case 6: // REM
		sa, sb := int32(a), int32(b)
		switch {
		case sb == 0:
			result = a
		case sa == -0x80000000 && sb == -1:
			result = 0
		default:
			result = uint32(sa % sb)
		}
	case 7: // REMU
		if b == 0 {
			result = a
		} else {
			result = a % b
		}
	}
	rv.setRD(rd, result)
	rv.PC += 4
	return true
}
