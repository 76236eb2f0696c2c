package decode

import "testing"

func TestFieldExtraction(t *testing.T) {
	// ADD x5, x6, x7: funct7=0 rs2=7 rs1=6 funct3=0 rd=5 opcode=0110011
	inst := uint32(0x007302b3)
	if got := RD(inst); got != 5 {
		t.Errorf("RD got %d wanted 5", got)
	}
	if got := RS1(inst); got != 6 {
		t.Errorf("RS1 got %d wanted 6", got)
	}
	if got := RS2(inst); got != 7 {
		t.Errorf("RS2 got %d wanted 7", got)
	}
	if got := Funct3(inst); got != 0 {
		t.Errorf("Funct3 got %d wanted 0", got)
	}
	if got := Funct7(inst); got != 0 {
		t.Errorf("Funct7 got %d wanted 0", got)
	}
	if got := Major(inst); got != OpOp {
		t.Errorf("Major got %#x wanted %#x", got, OpOp)
	}
}

func TestImmIRoundTrip(t *testing.T) {
	// ADDI x1, x0, -1: imm=0xfff
	inst := uint32(0xfff00093)
	if got := ImmI(inst); got != -1 {
		t.Errorf("ImmI got %d wanted -1", got)
	}

	// ADDI x1, x0, 2047 (max positive 12-bit immediate)
	inst = uint32(0x7ff00093)
	if got := ImmI(inst); got != 2047 {
		t.Errorf("ImmI got %d wanted 2047", got)
	}
}

func TestImmSRoundTrip(t *testing.T) {
	// SW x2, -4(x1): imm = -4 -> binary 111111111100
	// encode: imm[11:5]=0x7f imm[4:0]=0x1c rs2=2 rs1=1 funct3=010 opcode=0100011
	inst := uint32(0xfe20ae23)
	if got := ImmS(inst); got != -4 {
		t.Errorf("ImmS got %d wanted -4", got)
	}
}

func TestImmBAlwaysEven(t *testing.T) {
	// BEQ x0, x0, 8: imm=8
	inst := uint32(0x00000463)
	if got := ImmB(inst); got != 8 {
		t.Errorf("ImmB got %d wanted 8", got)
	}
	if got := ImmB(inst); got&1 != 0 {
		t.Errorf("ImmB low bit set, got %d", got)
	}
}

func TestImmUClearsLow12(t *testing.T) {
	// LUI x1, 0x12345
	inst := uint32(0x123450b7)
	if got := ImmU(inst); got != 0x12345000 {
		t.Errorf("ImmU got %#x wanted %#x", uint32(got), uint32(0x12345000))
	}
}

func TestImmJAlwaysEven(t *testing.T) {
	// JAL x1, 4
	inst := uint32(0x004000ef)
	if got := ImmJ(inst); got != 4 {
		t.Errorf("ImmJ got %d wanted 4", got)
	}
	if got := ImmJ(inst); got&1 != 0 {
		t.Errorf("ImmJ low bit set, got %d", got)
	}
}

func TestFormatOf(t *testing.T) {
	cases := []struct {
		major uint32
		want  Format
	}{
		{OpLoad, FormatI},
		{OpStore, FormatS},
		{OpBranch, FormatB},
		{OpLUI, FormatU},
		{OpJAL, FormatJ},
		{OpOp, FormatR},
		{OpMAdd, FormatR4},
	}
	for _, c := range cases {
		if got := FormatOf(c.major); got != c.want {
			t.Errorf("FormatOf(%#x) got %v wanted %v", c.major, got, c.want)
		}
	}
}
