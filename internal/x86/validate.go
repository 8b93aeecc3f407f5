package x86

// validateOneByte applies the default-map rules. The first matching rule
// decides.
func validateOneByte(ins *Instruction) error {
	op, m := ins.Opcode, ins.ModRM
	mod, reg, rm := m.Mod(), m.Reg(), m.RM()
	bad := false

	switch op {
	case 0xC6, 0xC7:
		bad = reg != 0 && reg != 7 || reg == 7 && (mod != 3 || rm != 0)
	case 0x8F:
		// reg != 0 is an XOP escape.
		bad = reg != 0
	case 0xFE:
		bad = reg >= 2
	case 0xFF:
		bad = reg == 7 || mod == 3 && (reg == 3 || reg == 5)
	case 0x8C:
		bad = reg >= 6
	case 0x8E:
		bad = reg == 1 || reg >= 6
	case 0x62:
		// EVEX in long mode or with a register form.
		bad = ins.Mode == Mode64 || mod == 3
	case 0x8D:
		bad = mod == 3
	case 0xC4, 0xC5:
		// VEX in long mode or with a register form.
		bad = ins.Mode == Mode64 || mod == 3
	case 0xD9:
		bad = reg == 1 && mod != 3 || m >= 0xD1 && m <= 0xD7 ||
			m == 0xE2 || m == 0xE3 || m == 0xE6 || m == 0xE7 || m == 0xEF
	case 0xDA:
		bad = m >= 0xE0 && m != 0xE9
	case 0xDB:
		bad = (reg == 4 || reg == 6) && mod != 3 || m >= 0xE5 && m <= 0xE7 || m >= 0xF8
	case 0xDD:
		bad = reg == 5 && mod != 3 || m>>4 == 0xF
	case 0xDE:
		bad = m == 0xD8 || m >= 0xDA && m <= 0xDF
	case 0xDF:
		bad = m >= 0xE1 && m <= 0xE7 || m >= 0xF8
	default:
		bad = ins.Mode == Mode64 && invalidIn64.has(op)
	}
	if bad {
		return ErrInvalidEncoding
	}
	return nil
}
