/*
   SYSTEM opcode handlers: ECALL, EBREAK, and the Zicsr CSR instructions.

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

// opSystem handles ECALL, EBREAK, and (when Zicsr is enabled) the CSR
// read-modify-write instructions that share the SYSTEM major opcode.
func opSystem(rv *Processor, inst uint32) bool {
	switch decode.Funct3(inst) {
	case 0:
		switch decode.ImmI(inst) {
		case 0: // ECALL
			if rv.Bus.OnECall != nil {
				rv.Bus.OnECall(rv, rv.PC, inst)
			} else {
				rv.Exception = ExcEnvironmentCall
			}
		case 1: // EBREAK
			if rv.Bus.OnEBreak != nil {
				rv.Bus.OnEBreak(rv, rv.PC, inst)
			} else {
				rv.Exception = ExcBreakpoint
			}
		default:
			rv.Exception = ExcIllegalInstruction
			return false
		}
		if rv.Exception != ExcNone {
			return false
		}
		rv.PC += 4
		return true
	case 1, 2, 3, 5, 6, 7:
		return opCSR(rv, inst)
	default:
		rv.Exception = ExcIllegalInstruction
		return false
	}
}

// opCSR implements CSRRW/CSRRS/CSRRC and their immediate-operand
// counterparts CSRRWI/CSRRSI/CSRRCI. rd always receives the CSR's value
// before modification; the write is skipped entirely for the
// read-no-side-effect idiom (CSRRS/CSRRC with a zero operand), and is
// silently dropped for read-only CSRs regardless of operand.
func opCSR(rv *Processor, inst uint32) bool {
	if !rv.Ext.Has(ExtZicsr) {
		rv.Exception = ExcIllegalInstruction
		return false
	}

	csr := decode.CSR(inst)
	rd := decode.RD(inst)
	funct3 := decode.Funct3(inst)

	var operand uint32
	switch funct3 {
	case 1, 2, 3:
		operand = rv.X[decode.RS1(inst)]
	case 5, 6, 7:
		operand = decode.RS1(inst) // zero-extended 5-bit immediate
	}

	old, ok := rv.readCSR(csr)
	if !ok {
		rv.Exception = ExcIllegalInstruction
		return false
	}
	rv.setRD(rd, old)

	var write bool
	var next uint32
	switch funct3 {
	case 1, 5: // CSRRW / CSRRWI: always write
		next = operand
		write = true
	case 2, 6: // CSRRS / CSRRSI: write old|operand, skip if operand==0
		next = old | operand
		write = operand != 0
	case 3, 7: // CSRRC / CSRRCI: write old&^operand, skip if operand==0
		next = old &^ operand
		write = operand != 0
	}

	if write {
		rv.writeCSR(csr, next) // read-only CSRs silently ignore this.
	}

	rv.PC += 4
	return true
}

// readCSR returns the current value of csr and whether the access is
// legal. Any CSR this core doesn't implement reads as 0 rather than
// trapping — a guest probing a standard CSR outside this core's small
// set (time, misa, mhartid, instret, ...) gets the architecturally
// defined "unimplemented" behavior, not an illegal-instruction halt.
func (rv *Processor) readCSR(csr uint32) (uint32, bool) {
	switch csr {
	case CSRCycle:
		return uint32(rv.CSRCycle), true
	case CSRCycleH:
		return uint32(rv.CSRCycle >> 32), true
	case CSRMStatus:
		return rv.CSRMStatus, true
	case CSRFcsr:
		if !rv.Ext.Has(ExtF) {
			return 0, false
		}
		return rv.CSRFcsr, true
	default:
		return 0, true
	}
}

// writeCSR stores val into csr. mstatus is the only writable CSR; cycle,
// cycleh, and fcsr are read-only and silently drop the write.
func (rv *Processor) writeCSR(csr uint32, val uint32) {
	if csr == CSRMStatus {
		rv.CSRMStatus = val
	}
}
