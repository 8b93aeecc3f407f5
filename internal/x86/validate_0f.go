package x86

const (
	p66 = PrefixOperandSize
	pF2 = PrefixRepeatNotZero
	pF3 = PrefixRepeat

	pRep = pF2 | pF3
)

var group7Simd = byteRange(byteRange(byteRange(byteRange(
	newByteSet(0xEE, 0xEF, 0xFA, 0xFB),
	0xC0, 0xC5), 0xC8, 0xCB), 0xCF, 0xD1), 0xD4, 0xD7)

// validateTwoByte applies the 0F map rules in order; the first rule whose
// opcode test matches decides.
func validateTwoByte(ins *Instruction) error {
	op, m, simd := ins.Opcode, ins.ModRM, ins.SimdPrefix
	mod, reg, rm := m.Mod(), m.Reg(), m.RM()
	r, c := hi(op), lo(op)
	rep := simd == pF2 || simd == pF3
	bad := false

	switch {
	case invalidTwoByte.has(op), op >= 0x24 && op <= 0x27, op >= 0x3B && op <= 0x3F:
		return ErrInvalidOpcode

	case op == 0xC7:
		switch simd {
		case 0:
			if mod == 3 {
				bad = reg <= 5
			} else {
				bad = reg == 0 || reg == 2
			}
		case pF2:
			bad = mod == 3 || reg != 1
		case p66, pF3:
			if mod == 3 {
				limit := byte(5)
				if simd == pF3 {
					limit = 6
				}
				bad = reg <= limit
			} else {
				bad = reg != 1 && reg != 6
			}
		}

	case op == 0x00:
		bad = reg >= 6

	case op == 0x01:
		if mod == 3 {
			bad = simd&(p66|pRep) != 0 && group7Simd.has(byte(m)) ||
				reg == 0 && rm >= 6 ||
				reg == 1 && rm >= 4 && rm <= 6 ||
				reg == 2 && (rm == 2 || rm == 3) ||
				reg == 5 && rm < 6 && (simd != pF3 || rm != 0 && rm != 2) ||
				reg == 7 && (rm > 5 || ins.Mode != Mode64 && rm == 0)
		} else {
			bad = simd != pF3 && reg == 5
		}

	case op == 0x1A || op == 0x1B:
		bad = mod == 3

	case op == 0x20 || op == 0x22:
		bad = reg == 1 || reg >= 5

	case r == 5:
		bad = op == 0x50 && mod != 3 ||
			simd == p66 && (op == 0x52 || op == 0x53) ||
			simd == pF3 && (op == 0x50 || op >= 0x54 && op <= 0x57) ||
			simd == pF2 && (op == 0x50 || op >= 0x52 && op <= 0x57 || op == 0x5B)

	case r == 6:
		bad = simd&(p66|pRep) == 0 && (op == 0x6C || op == 0x6D) ||
			simd == pF3 && op != 0x6F ||
			simd == pF2

	case op == 0x78 || op == 0x79:
		bad = simd == p66 && op == 0x78 && !(mod == 3 && reg == 0) ||
			(simd == p66 || simd == pF2) && mod != 3 ||
			simd == pF3

	case op == 0x7C || op == 0x7D:
		bad = simd == pF3 || simd == 0

	case op == 0x7E || op == 0x7F:
		bad = simd == pF2

	case op >= 0x71 && op <= 0x73:
		bad = rep || m <= 0xCF || m >= 0xE8 && m <= 0xEF ||
			op != 0x73 && (m >= 0xD8 && m <= 0xDF || m >= 0xF8) ||
			op == 0x73 && simd != p66 && (m >= 0xD8 && m <= 0xDF || m >= 0xF8)

	case op == 0xA6:
		bad = m != 0xC0 && m != 0xC8 && m != 0xD0

	case op == 0xA7:
		bad = !(mod == 3 && reg <= 5 && rm == 0)

	case op == 0xAE:
		bad = simd == 0 && mod == 3 && reg <= 4 ||
			simd == pF2 && !(mod == 3 && reg == 6) ||
			simd == p66 && (reg < 6 || mod == 3 && reg == 7) ||
			simd == pF3 && reg != 4 && reg != 6 && !(mod == 3 && reg == 5)

	case op == 0xB8:
		bad = simd != pF3

	case op == 0xBA:
		bad = reg <= 3

	case op == 0xD0:
		bad = simd == 0 || simd == pF3

	case op == 0xE0:
		bad = rep

	case op == 0xF0:
		bad = simd != pF2 || mod == 3

	case simd&pRep != 0 && (op >= 0x13 && op <= 0x17 && !(op == 0x16 && simd == pF3) ||
		op == 0x28 || op == 0x29 || op == 0x2E || op == 0x2F || op >= 0x74 && op <= 0x76):
		bad = true

	case op >= 0xC3 && op <= 0xC6:
		bad = op == 0xC5 && mod != 3 || op == 0xC3 && mod == 3 ||
			rep || op == 0xC3 && simd == p66

	case r >= 0xD && c != 0 && op != 0xFF:
		if c == 6 && r != 0xF {
			bad = simd == 0 || r == 0xD && rep && mod != 3
		} else {
			bad = rep || c == 7 && r != 0xE && mod != 3 || op == 0xE7 && mod == 3
		}

	case mod == 3 && ins.HasModRM:
		switch op {
		case 0xB2, 0xB4, 0xB5, 0xE7, 0x2B:
			bad = true
		case 0x12, 0x16:
			bad = simd == p66
		case 0x13, 0x17:
			bad = simd&pRep == 0
		}
	}
	if bad {
		return ErrInvalidEncoding
	}
	return nil
}
