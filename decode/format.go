package decode

// Format identifies which immediate encoding a major opcode uses, and so
// which fields are meaningful for a given word. The interpreter and the
// disassembler do not use it; both switch on the major opcode directly.
type Format uint8

const (
	FormatR Format = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatR4 // fused multiply-add: rs1, rs2, rs3, rd
	FormatUnknown
)

// FormatOf classifies a major opcode (inst[6:2]) by its instruction
// format. Mirrors the base-opcode switch other RISC-V decoders use to
// pick which immediate extractor applies.
func FormatOf(major uint32) Format {
	switch major {
	case OpLoad, OpLoadFP, OpMiscMem, OpOpImm, OpJALR, OpSystem:
		return FormatI
	case OpStore, OpStoreFP:
		return FormatS
	case OpBranch:
		return FormatB
	case OpAUIPC, OpLUI:
		return FormatU
	case OpJAL:
		return FormatJ
	case OpOp, OpAMO, OpOpFP:
		return FormatR
	case OpMAdd, OpMSub, OpNMSub, OpNMAdd:
		return FormatR4
	default:
		return FormatUnknown
	}
}
