package x86

var (
	needs66In0F38 = byteRange(byteRange(byteRange(
		newByteSet(0x10, 0x14, 0x15, 0x17, 0x28, 0x29, 0x2B, 0x40, 0x41, 0xCF),
		0x20, 0x25), 0x30, 0x3F), 0xDB, 0xDF)

	needs66In0F3A = byteRange(byteRange(byteRange(byteRange(byteRange(
		newByteSet(0x44, 0xDF, 0xCE, 0xCF),
		0x08, 0x0E), 0x14, 0x17), 0x20, 0x22), 0x40, 0x42), 0x60, 0x63)
)

func validate0F38(ins *Instruction) error {
	op, simd, mod := ins.Opcode, ins.SimdPrefix, ins.ModRM.Mod()
	rep := simd == pF2 || simd == pF3
	var bad bool

	switch {
	case op == 0x36:
		return ErrInvalidOpcode
	case op <= 0x0B || op >= 0x1C && op <= 0x1E:
		bad = rep
	case op >= 0xC8 && op <= 0xCD:
		bad = simd != 0
	case needs66In0F38.has(op):
		bad = simd != p66
	case op == 0x2A || op >= 0x80 && op <= 0x82:
		bad = mod == 3 || simd != p66
	case op == 0xF0 || op == 0xF1:
		bad = mod == 3 && (simd == 0 || simd == p66) || simd == pF3
	case op == 0xF5 || op == 0xF8:
		bad = simd != p66 || mod == 3
	case op == 0xF6:
		bad = simd == 0 && mod == 3 || simd == pF2
	case op == 0xF9:
		bad = simd != 0 || mod == 3
	default:
		return ErrInvalidOpcode
	}
	if bad {
		return ErrInvalidEncoding
	}
	return nil
}

func validate0F3A(ins *Instruction) error {
	op, simd := ins.Opcode, ins.SimdPrefix
	switch {
	case needs66In0F3A.has(op):
		if simd != p66 {
			return ErrInvalidEncoding
		}
	case op == 0x0F:
		if simd != 0 && simd != p66 {
			return ErrInvalidEncoding
		}
	case op == 0xCC:
		if simd != 0 {
			return ErrInvalidEncoding
		}
	default:
		return ErrInvalidOpcode
	}
	return nil
}
