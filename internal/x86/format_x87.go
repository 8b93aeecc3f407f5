package x86

func (f *formatter) st(i byte) {
	f.s("st(")
	f.c('0' + i)
	f.c(')')
}

// stPair appends "st(0),st(i)", or "st(i),st(0)" when reversed.
func (f *formatter) stPair(i byte, reversed bool) {
	if reversed {
		f.st(i)
		f.s(",st(0)")
		return
	}
	f.s("st(0),")
	f.st(i)
}

func (f *formatter) x87() {
	ins := f.ins
	op, m := ins.Opcode, ins.ModRM
	rg := m.Reg()

	if m < 0xC0 {
		f.c('f')
		f.s(pick(x87Memory[op-0xD8][:], int(rg)))
		f.c(' ')
		var size string
		switch op {
		case 0xD8, 0xDA:
			size = "dword"
		case 0xD9:
			switch {
			case rg&4 == 0:
				size = "dword"
			case rg&1 != 0:
				size = "word"
			case ins.operandSize() == 16:
				size = "m14"
			default:
				size = "m28"
			}
		case 0xDB:
			size = "dword"
			if rg&4 != 0 {
				size = "tbyte"
			}
		case 0xDC:
			size = "qword"
		case 0xDD:
			switch {
			case rg&4 == 0:
				size = "qword"
			case rg == 7:
				size = "word"
			default:
				size = "byte"
			}
		case 0xDE:
			size = "word"
		case 0xDF:
			switch {
			case rg&4 == 0:
				size = "word"
			case rg&1 != 0:
				size = "qword"
			default:
				size = "tbyte"
			}
		}
		f.mem(size)
		return
	}

	i := m.RM()
	row := byte(m) & 0xF8
	f.c('f')
	switch op {
	case 0xD8:
		f.s(x87D8[rg])
		f.c(' ')
		f.stPair(i, false)

	case 0xD9:
		switch {
		case row == 0xC0:
			f.s("ld ")
			f.stPair(i, false)
		case row == 0xC8:
			f.s("xch ")
			f.stPair(i, false)
		case row == 0xD8:
			f.s("stpnce ")
			f.stPair(i, true)
		default:
			if s, ok := x87D9Register[m]; ok {
				f.s(s)
			} else {
				f.s("(bad)")
			}
		}

	case 0xDA:
		if m == 0xE9 {
			f.s("ucompp")
			break
		}
		f.s(pick([]string{"cmovb", "cmove", "cmovbe", "cmovu"}, int(rg)))
		f.c(' ')
		f.stPair(i, false)

	case 0xDB:
		switch {
		case row == 0xE0:
			f.s(pick([]string{"eni8087_nop", "disi8087_nop", "nclex", "ninit", "setpm287_nop"}, int(i)))
			return
		case row == 0xE8:
			f.s("ucomi")
		case row == 0xF0:
			f.s("comi")
		default:
			f.s(pick([]string{"cmovnb", "cmovne", "cmovnbe", "cmovnu"}, int(rg)))
		}
		f.c(' ')
		f.stPair(i, false)

	case 0xDC:
		f.s([8]string{"add", "mul", "com", "comp", "subr", "sub", "divr", "div"}[rg])
		f.c(' ')
		f.stPair(i, rg != 2 && rg != 3)

	case 0xDD:
		f.s([8]string{"free", "xch", "st", "stp", "ucom", "ucomp", "(bad)", "(bad)"}[rg])
		f.c(' ')
		f.st(i)

	case 0xDE:
		switch {
		case m == 0xD9:
			f.s("compp")
		case row == 0xD0:
			f.s("comp ")
			f.stPair(i, false)
		default:
			f.s([8]string{"addp", "mulp", "(bad)", "(bad)", "subrp", "subp", "divrp", "divp"}[rg])
			f.c(' ')
			f.stPair(i, true)
		}

	case 0xDF:
		switch {
		case m == 0xE0:
			f.s("nstsw ax")
		case row == 0xE8:
			f.s("ucomip ")
			f.stPair(i, false)
		case row == 0xF0:
			f.s("comip ")
			f.stPair(i, false)
		default:
			f.s([8]string{"freep", "xch", "stp", "stp"}[rg&3])
			f.c(' ')
			f.st(i)
		}
	}
}
