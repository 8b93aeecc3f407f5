package x86

// simd reports the mandatory prefix selecting the SSE variant.
func (f *formatter) simd() Prefix { return f.ins.SimdPrefix }

// bySimd picks a mnemonic by mandatory prefix: none, 66, F3, F2.
func (f *formatter) bySimd(none, p66, f3, f2 string) string {
	switch f.simd() {
	case PrefixOperandSize:
		return p66
	case PrefixRepeat:
		return f3
	case PrefixRepeatNotZero:
		return f2
	}
	return none
}

func (f *formatter) mnemonic(s string) {
	f.s(s)
	f.c(' ')
}

func (f *formatter) twoByte() {
	ins := f.ins
	op, m := ins.Opcode, ins.ModRM
	r, c := hi(op), lo(op)
	mod, rg, rm := m.Mod(), m.Reg(), m.RM()
	simd := f.simd()

	if s, ok := twoByteBare[op]; ok {
		f.s(s)
		return
	}

	switch {
	case r == 8:
		f.c('j')
		f.s(conditions[c])
		f.c(' ')
		f.relative()

	case r == 4:
		f.s("cmov")
		f.mnemonic(conditions[c])
		f.Gv()
		f.comma()
		f.Ev()

	case r == 9:
		f.s("set")
		f.mnemonic(conditions[c])
		f.Eb()

	case op >= 0x10 && op <= 0x17:
		f.movUps()

	case r == 6 || op >= 0x74 && op <= 0x76:
		f.packed6x()

	case op == 0x00:
		f.mnemonic(pick(group6[:], int(rg)))
		if mod == 3 {
			f.Ev()
		} else {
			f.Ew()
		}

	case op == 0x01:
		f.group7()

	case op == 0x02 || op == 0x03:
		if op == 0x02 {
			f.mnemonic("lar")
		} else {
			f.mnemonic("lsl")
		}
		f.Gv()
		f.comma()
		f.Mx("word", ins.operandSize())

	case op == 0x0D:
		if mod == 3 {
			f.mnemonic("nop")
			f.Ev()
			f.comma()
			f.Gv()
			break
		}
		f.s("prefetch")
		switch rg {
		case 1:
			f.c('w')
		case 2:
			f.s("wt1")
		}
		f.c(' ')
		f.mem("byte")

	case op == 0x18:
		if mod == 3 || rg >= 4 {
			f.mnemonic("nop")
			f.Ev()
			break
		}
		if rg == 0 {
			f.mnemonic("prefetchnta")
		} else {
			f.s("prefetcht")
			f.c('0' + rg - 1)
			f.c(' ')
		}
		f.mem("byte")

	case op == 0x1A || op == 0x1B:
		f.bound()

	case op == 0x1E && m == 0xFA:
		f.s("endbr64")

	case op == 0x1E && m == 0xFB:
		f.s("endbr32")

	case op == 0x19 || op >= 0x1C && op <= 0x1F:
		f.mnemonic("nop")
		f.Ev()
		f.comma()
		f.Gv()

	case op >= 0x20 && op <= 0x23:
		w := 32
		if ins.Mode == Mode64 {
			w = 64
		}
		f.s("mov ")
		name := "cr"
		if op == 0x21 || op == 0x23 {
			name = "dr"
		}
		ctl := func() {
			f.s(name)
			n := rg
			if f.has(PrefixRexR) {
				n += 8
			}
			f.num10(uint64(n))
		}
		if op < 0x22 {
			f.gpr(w, rm, f.has(PrefixRexB))
			f.comma()
			ctl()
		} else {
			ctl()
			f.comma()
			f.gpr(w, rm, f.has(PrefixRexB))
		}

	case op >= 0x28 && op <= 0x2F:
		f.convert2x()

	case r == 5:
		f.arith5x()

	case op == 0x70:
		f.mnemonic(f.bySimd("pshufw", "pshufd", "pshufhw", "pshuflw"))
		if simd&(p66|pRep) == 0 {
			f.Pq()
			f.comma()
			f.Qq()
		} else {
			f.Vdq()
			f.comma()
			f.W()
		}
		f.comma()
		f.imm()

	case op >= 0x71 && op <= 0x73:
		switch {
		case rg == 7:
			f.s("pslldq")
		case rg == 3:
			f.s("psrldq")
		default:
			f.s(pick([]string{"psrl", "psra", "psll"}, int(rg>>1)-1))
			f.c("wdq"[op-0x71])
		}
		f.c(' ')
		if simd == p66 {
			f.Udq()
		} else {
			f.Nq()
		}
		f.comma()
		f.imm()

	case op == 0x78:
		switch simd {
		case 0:
			f.mnemonic("vmread")
			f.Ey()
			f.comma()
			f.Gy()
			return
		case p66:
			f.mnemonic("extrq")
		default:
			f.mnemonic("insertq")
			f.Vdq()
			f.comma()
		}
		f.Udq()
		f.comma()
		f.num(ins.Immediate & 0xFF)
		f.comma()
		f.num(ins.Immediate >> 8 & 0xFF)

	case op == 0x79:
		if simd == 0 {
			f.mnemonic("vmwrite")
			f.Gy()
			f.comma()
			f.Ey()
			return
		}
		if simd == p66 {
			f.mnemonic("extrq")
		} else {
			f.mnemonic("insertq")
		}
		f.Vdq()
		f.comma()
		f.Udq()

	case op == 0x7C || op == 0x7D:
		if op == 0x7C {
			f.s("haddp")
		} else {
			f.s("hsubp")
		}
		if simd == p66 {
			f.c('d')
		} else {
			f.c('s')
		}
		f.c(' ')
		f.Vdq()
		f.comma()
		f.W()

	case op == 0x7E:
		if simd == pF3 {
			f.mnemonic("movq")
			f.Vdq()
			f.comma()
			f.Wx("qword")
			return
		}
		f.mnemonic(f.movdq())
		f.Mx(sizeName(f.yWidth()), f.yWidth())
		f.comma()
		if simd == p66 {
			f.Vdq()
		} else {
			f.Pq()
		}

	case op == 0x7F:
		f.mnemonic(f.bySimd("movq", "movdqa", "movdqu", "movq"))
		if simd == pF3 || simd == p66 {
			f.W()
			f.comma()
			f.Vdq()
		} else {
			f.Nx("qword")
			f.comma()
			f.Pq()
		}

	case op == 0xA3 || op == 0xAB || op == 0xB3 || op == 0xBB:
		f.mnemonic([4]string{"bt", "bts", "btr", "btc"}[(op>>3)&3])
		f.Ev()
		f.comma()
		f.Gv()

	case op == 0xA4 || op == 0xA5 || op == 0xAC || op == 0xAD:
		if op < 0xA8 {
			f.mnemonic("shld")
		} else {
			f.mnemonic("shrd")
		}
		f.Ev()
		f.comma()
		f.Gv()
		f.comma()
		if op%2 == 0 {
			f.imm()
		} else {
			f.s("cl")
		}

	case op == 0xB2 || op == 0xB4 || op == 0xB5:
		f.mnemonic(map[byte]string{0xB2: "lss", 0xB4: "lfs", 0xB5: "lgs"}[op])
		f.Gv()
		f.comma()
		f.mem("fword")

	case op == 0xBC || op == 0xBD:
		if simd == pF3 {
			f.mnemonic([2]string{"tzcnt", "lzcnt"}[op-0xBC])
		} else {
			f.mnemonic([2]string{"bsf", "bsr"}[op-0xBC])
		}
		f.Gv()
		f.comma()
		f.Ev()

	case op == 0xA6:
		f.s(pick([]string{"montmul", "xsha1", "xsha256"}, int(rg)))

	case op == 0xA7:
		f.s(pick([]string{"xstorerng", "xcryptecb", "xcryptcbc", "xcryptctr", "xcryptcfb", "xcryptofb"}, int(rg)))

	case op == 0xAE:
		f.groupAE()

	case op == 0xAF:
		f.mnemonic("imul")
		f.Gv()
		f.comma()
		f.Ev()

	case op == 0xB0 || op == 0xB1 || op == 0xC0 || op == 0xC1:
		if op < 0xC0 {
			f.mnemonic("cmpxchg")
		} else {
			f.mnemonic("xadd")
		}
		if op%2 == 0 {
			f.Eb()
			f.comma()
			f.Gb()
		} else {
			f.Ev()
			f.comma()
			f.Gv()
		}

	case op == 0xB6 || op == 0xB7 || op == 0xBE || op == 0xBF:
		if op < 0xB8 {
			f.mnemonic("movzx")
		} else {
			f.mnemonic("movsx")
		}
		f.Gv()
		f.comma()
		if op%2 == 0 {
			f.Eb()
		} else {
			f.Ew()
		}

	case op == 0xB8:
		f.mnemonic("popcnt")
		f.Gv()
		f.comma()
		f.Ev()

	case op == 0xBA:
		f.mnemonic(pick([]string{"bt", "bts", "btr", "btc"}, int(rg)-4))
		f.Ev()
		f.comma()
		f.imm()

	case op == 0xC2:
		f.mnemonic(f.bySimd("cmpps", "cmppd", "cmpss", "cmpsd"))
		f.Vdq()
		f.comma()
		f.Wx(f.bySimd("xmmword", "xmmword", "dword", "qword"))
		f.comma()
		f.imm()

	case op == 0xC3:
		f.mnemonic("movnti")
		f.mem(sizeName(f.yWidth()))
		f.comma()
		f.Gy()

	case op == 0xC4:
		f.mnemonic("pinsrw")
		if simd == p66 {
			f.Vdq()
		} else {
			f.Pq()
		}
		f.comma()
		f.Mx("word", 32)
		f.comma()
		f.imm()

	case op == 0xC5:
		f.mnemonic("pextrw")
		f.regReg(32)
		f.comma()
		if simd == p66 {
			f.Udq()
		} else {
			f.Nq()
		}
		f.comma()
		f.imm()

	case op == 0xC6:
		if simd == p66 {
			f.mnemonic("shufpd")
		} else {
			f.mnemonic("shufps")
		}
		f.Vdq()
		f.comma()
		f.W()
		f.comma()
		f.imm()

	case op == 0xC7:
		f.groupC7()

	case r == 0xC:
		f.mnemonic("bswap")
		w := 32
		if f.has(PrefixRexW) {
			w = 64
		}
		f.gpr(w, op%8, f.has(PrefixRexB))

	case op == 0xD0:
		if simd == p66 {
			f.mnemonic("addsubpd")
		} else {
			f.mnemonic("addsubps")
		}
		f.Vdq()
		f.comma()
		f.W()

	case op == 0xD6:
		f.mnemonic(f.bySimd("(bad)", "movq", "movq2dq", "movdq2q"))
		switch simd {
		case pF3:
			f.Vdq()
			f.comma()
			f.Nq()
		case pF2:
			f.Pq()
			f.comma()
			f.Udq()
		default:
			f.Wx("qword")
			f.comma()
			f.Vdq()
		}

	case op == 0xD7:
		f.mnemonic("pmovmskb")
		f.regReg(32)
		f.comma()
		if simd == p66 {
			f.Udq()
		} else {
			f.Nq()
		}

	case op == 0xE6:
		f.mnemonic(f.bySimd("(bad)", "cvttpd2dq", "cvtdq2pd", "cvtpd2dq"))
		f.Vdq()
		f.comma()
		if simd == pF3 {
			f.Wx("qword")
		} else {
			f.W()
		}

	case op == 0xE7:
		if simd == p66 {
			f.mnemonic("movntdq")
			f.mem("xmmword")
			f.comma()
			f.Vdq()
		} else {
			f.mnemonic("movntq")
			f.mem("qword")
			f.comma()
			f.Pq()
		}

	case op == 0xF0:
		f.mnemonic("lddqu")
		f.Vdq()
		f.comma()
		f.mem("xmmword")

	case op == 0xF7:
		if simd == p66 {
			f.mnemonic("maskmovdqu")
			f.Vdq()
			f.comma()
			f.Udq()
		} else {
			f.mnemonic("maskmovq")
			f.Pq()
			f.comma()
			f.Nq()
		}

	case op >= 0xD1 && op <= 0xFE:
		f.c('p')
		f.mnemonic(pick(packedInt[:], int(op)-0xD1))
		if simd == p66 {
			f.Vdq()
			f.comma()
			f.W()
		} else {
			f.Pq()
			f.comma()
			f.Qq()
		}

	case op == 0xB9 || op == 0xFF:
		if op == 0xB9 {
			f.mnemonic("ud1")
		} else {
			f.mnemonic("ud0")
		}
		f.regReg(32)
		f.comma()
		f.Ed()

	default:
		f.s("(bad)")
	}
}

// num10 appends a small register index in decimal regardless of flags.
func (f *formatter) num10(n uint64) {
	if n >= 10 {
		f.c('0' + byte(n/10))
	}
	f.c('0' + byte(n%10))
}

func (f *formatter) movdq() string {
	if f.has(PrefixRexW) {
		return "movq"
	}
	return "movd"
}

func (f *formatter) movUps() {
	ins := f.ins
	op, mod := ins.Opcode, ins.ModRM.Mod()
	c := lo(op)
	switch f.simd() {
	case p66:
		f.mnemonic([8]string{"movupd", "movupd", "movlpd", "movlpd", "unpcklpd", "unpckhpd", "movhpd", "movhpd"}[c])
		switch c {
		case 0, 4, 5:
			f.Vdq()
			f.comma()
			f.W()
		case 1:
			f.W()
			f.comma()
			f.Vdq()
		case 2, 6:
			f.Vdq()
			f.comma()
			f.Wx("qword")
		case 3, 7:
			f.Wx("qword")
			f.comma()
			f.Vdq()
		}
	case pF3:
		f.mnemonic(pick([]string{"movss", "movss", "movsldup", "", "", "", "movshdup"}, int(c)))
		switch c {
		case 0:
			f.Vdq()
			f.comma()
			f.Wx("dword")
		case 1:
			f.Wx("dword")
			f.comma()
			f.Vdq()
		default:
			f.Vdq()
			f.comma()
			f.W()
		}
	case pF2:
		f.mnemonic(pick([]string{"movsd", "movsd", "movddup"}, int(c)))
		if c == 1 {
			f.Wx("qword")
			f.comma()
			f.Vdq()
		} else {
			f.Vdq()
			f.comma()
			f.Wx("qword")
		}
	default:
		switch {
		case op == 0x12 && mod == 3:
			f.mnemonic("movhlps")
		case op == 0x16 && mod == 3:
			f.mnemonic("movlhps")
		default:
			f.mnemonic([8]string{"movups", "movups", "movlps", "movlps", "unpcklps", "unpckhps", "movhps", "movhps"}[c])
		}
		switch c {
		case 0, 4, 5:
			f.Vdq()
			f.comma()
			f.W()
		case 1:
			f.W()
			f.comma()
			f.Vdq()
		case 2, 6:
			f.Vdq()
			f.comma()
			f.Wx("qword")
		case 3, 7:
			f.Wx("qword")
			f.comma()
			f.Vdq()
		}
	}
}

var packed6x = [16]string{
	"punpcklbw", "punpcklwd", "punpckldq", "packsswb", "pcmpgtb", "pcmpgtw", "pcmpgtd", "packuswb",
	"punpckhbw", "punpckhwd", "punpckhdq", "packssdw", "punpcklqdq", "punpckhqdq", "movd", "movdqa",
}

func (f *formatter) packed6x() {
	op := f.ins.Opcode
	if op == 0x6E {
		f.mnemonic(f.movdq())
		if f.simd() == p66 {
			f.Vdq()
		} else {
			f.Pq()
		}
		f.comma()
		f.Mx(sizeName(f.yWidth()), f.yWidth())
		return
	}
	name := packed6x[op%16]
	switch op {
	case 0x74:
		name = "pcmpeqb"
	case 0x75:
		name = "pcmpeqw"
	case 0x76:
		name = "pcmpeqd"
	case 0x6F:
		name = f.bySimd("movq", "movdqa", "movdqu", "(bad)")
	}
	f.mnemonic(name)
	if f.simd() == p66 || f.simd() == pF3 {
		f.Vdq()
		f.comma()
		f.W()
		return
	}
	f.Pq()
	f.comma()
	f.Qq()
}

func (f *formatter) group7() {
	ins := f.ins
	m := ins.ModRM
	mod, rg, rm := m.Mod(), m.Reg(), m.RM()
	if mod != 3 {
		switch rg {
		case 5:
			f.mnemonic("rstorssp")
			f.mem("qword")
		case 6:
			f.mnemonic("lmsw")
			f.Ew()
		default:
			f.mnemonic(pick(group7[:], int(rg)))
			switch rg {
			case 7:
				f.mem("byte")
			case 4:
				f.mem("word")
			default:
				f.mem("fword")
			}
		}
		return
	}

	acc := "eax"
	if f.has(PrefixOperandSize) {
		acc = "ax"
	}
	switch rg {
	case 0:
		f.s(pick(group7Reg0[:], int(rm)))
	case 1:
		f.s(pick(group7Reg1[:], int(rm)))
	case 2:
		f.s(pick(group7Reg2[:], int(rm)))
	case 3:
		f.s(group7Reg3[rm])
		if rm == 0 || rm == 2 || rm == 7 {
			f.s(acc)
		}
		if rm == 7 {
			f.s(",ecx")
		}
	case 4:
		f.mnemonic("smsw")
		f.rmReg(ins.operandSize())
	case 5:
		switch {
		case f.simd() == pF3 && rm == 0:
			f.s("setssbsy")
		case f.simd() == pF3:
			f.s("saveprevssp")
		case rm == 7:
			f.s("wrpkru")
		default:
			f.s("rdpkru")
		}
	case 6:
		f.mnemonic("lmsw")
		f.rmReg(16)
	case 7:
		f.s(pick(group7Reg7[:], int(rm)))
		if rm == 4 {
			f.s(acc)
		}
	}
}

func (f *formatter) bound() {
	ins := f.ins
	op, rg := ins.Opcode, ins.ModRM.Reg()
	if ins.ModRM.Mod() == 3 {
		f.mnemonic("nop")
		f.Ev()
		f.comma()
		f.Gv()
		return
	}
	bnd := func() {
		f.s("bnd")
		f.c('0' + rg)
	}
	if op == 0x1A {
		f.mnemonic(f.bySimd("bndldx", "bndmov", "bndcl", "bndcu"))
		bnd()
		f.comma()
		if f.simd() == p66 {
			f.mem("xmmword")
		} else {
			f.Ev()
		}
		return
	}
	f.mnemonic(f.bySimd("bndstx", "bndmov", "bndmk", "bndcn"))
	if f.simd() == p66 {
		f.mem("xmmword")
	} else {
		f.Ev()
	}
	f.comma()
	bnd()
}

func (f *formatter) convert2x() {
	ins := f.ins
	op := ins.Opcode
	k := int(op % 8)
	switch f.simd() {
	case p66:
		f.mnemonic([8]string{"movapd", "movapd", "cvtpi2pd", "movntpd", "cvttpd2pi", "cvtpd2pi", "ucomisd", "comisd"}[k])
		switch k {
		case 0:
			f.Vdq()
			f.comma()
			f.W()
		case 1:
			f.W()
			f.comma()
			f.Vdq()
		case 2:
			f.Vdq()
			f.comma()
			f.Qq()
		case 3:
			f.mem("xmmword")
			f.comma()
			f.Vdq()
		case 4, 5:
			f.Pq()
			f.comma()
			f.W()
		case 6, 7:
			f.Vdq()
			f.comma()
			f.Wx("qword")
		}
	case pF3, pF2:
		single := f.simd() == pF3
		names := [8]string{"", "", "cvtsi2sd", "movntsd", "cvttsd2si", "cvtsd2si", "", ""}
		scalar := "qword"
		if single {
			names = [8]string{"", "", "cvtsi2ss", "movntss", "cvttss2si", "cvtss2si", "", ""}
			scalar = "dword"
		}
		f.mnemonic(pick(names[:], k))
		switch k {
		case 2:
			f.Vdq()
			f.comma()
			f.Ey()
		case 3:
			f.mem(scalar)
			f.comma()
			f.Vdq()
		case 4, 5:
			f.Gy()
			f.comma()
			f.Wx(scalar)
		}
	default:
		f.mnemonic([8]string{"movaps", "movaps", "cvtpi2ps", "movntps", "cvttps2pi", "cvtps2pi", "ucomiss", "comiss"}[k])
		switch k {
		case 0:
			f.Vdq()
			f.comma()
			f.W()
		case 1:
			f.W()
			f.comma()
			f.Vdq()
		case 2:
			f.Vdq()
			f.comma()
			f.Qq()
		case 3:
			f.mem("xmmword")
			f.comma()
			f.Vdq()
		case 4, 5:
			f.Pq()
			f.comma()
			f.Wx("qword")
		case 6, 7:
			f.Vdq()
			f.comma()
			f.Wx("dword")
		}
	}
}

var (
	arith5x66   = [16]string{"movmskpd", "sqrtpd", "", "", "andpd", "andnpd", "orpd", "xorpd", "addpd", "mulpd", "cvtpd2ps", "cvtps2dq", "subpd", "minpd", "divpd", "maxpd"}
	arith5xF3   = [16]string{"", "sqrtss", "rsqrtss", "rcpss", "", "", "", "", "addss", "mulss", "cvtss2sd", "cvttps2dq", "subss", "minss", "divss", "maxss"}
	arith5xF2   = [16]string{"", "sqrtsd", "", "", "", "", "", "", "addsd", "mulsd", "cvtsd2ss", "", "subsd", "minsd", "divsd", "maxsd"}
	arith5xNone = [16]string{"movmskps", "sqrtps", "rsqrtps", "rcpps", "andps", "andnps", "orps", "xorps", "addps", "mulps", "cvtps2pd", "cvtdq2ps", "subps", "minps", "divps", "maxps"}
)

func (f *formatter) arith5x() {
	op := f.ins.Opcode
	c := int(lo(op))
	switch f.simd() {
	case p66:
		f.mnemonic(pick(arith5x66[:], c))
		if op == 0x50 {
			f.regReg(32)
		} else {
			f.Vdq()
		}
		f.comma()
		f.W()
	case pF3:
		f.mnemonic(pick(arith5xF3[:], c))
		f.Vdq()
		f.comma()
		if op == 0x5B {
			f.W()
		} else {
			f.Wx("dword")
		}
	case pF2:
		f.mnemonic(pick(arith5xF2[:], c))
		f.Vdq()
		f.comma()
		f.Wx("qword")
	default:
		f.mnemonic(pick(arith5xNone[:], c))
		if op == 0x50 {
			f.regReg(32)
			f.comma()
			f.Udq()
			return
		}
		f.Vdq()
		f.comma()
		if op == 0x5A {
			f.Wx("qword")
		} else {
			f.W()
		}
	}
}

func (f *formatter) groupAE() {
	ins := f.ins
	rg, rm := ins.ModRM.Reg(), ins.ModRM.RM()
	if ins.ModRM.Mod() == 3 {
		switch f.simd() {
		case p66:
			f.s("pcommit")
		case pF3:
			if rg == 5 {
				f.mnemonic("incsspd")
				f.gpr(f.yWidth(), rm, f.has(PrefixRexB))
				return
			}
			f.mnemonic(pick([]string{"rdfsbase", "rdgsbase", "wrfsbase", "wrgsbase"}, int(rg)))
			f.gpr(f.yWidth(), rm, f.has(PrefixRexB))
		case pF2:
			f.s("umwait ")
			f.gpr(32, rm, f.has(PrefixRexB))
		default:
			f.s(pick([]string{"(bad)", "(bad)", "(bad)", "(bad)", "(bad)", "lfence", "mfence", "sfence"}, int(rg)))
		}
		return
	}
	switch f.simd() {
	case p66:
		if rg == 6 {
			f.mnemonic("clwb")
		} else {
			f.mnemonic("clflushopt")
		}
		f.mem("byte")
	case pF3:
		if rg == 4 {
			f.mnemonic("ptwrite")
			f.mem("dword")
		} else {
			f.mnemonic("clrssbsy")
			f.mem("qword")
		}
	default:
		f.mnemonic([8]string{"fxsave", "fxrstor", "ldmxcsr", "stmxcsr", "xsave", "xrstor", "xsaveopt", "clflush"}[rg])
		switch rg {
		case 2, 3:
			f.mem("dword")
		case 7:
			f.mem("byte")
		default:
			f.mem("")
		}
	}
}

func (f *formatter) groupC7() {
	ins := f.ins
	rg := ins.ModRM.Reg()
	mod := ins.ModRM.Mod()
	switch {
	case rg == 1:
		if f.has(PrefixRexW) {
			f.mnemonic("cmpxchg16b")
			f.mem("xmmword")
		} else {
			f.mnemonic("cmpxchg8b")
			f.mem("qword")
		}
	case rg >= 3 && rg <= 5:
		f.mnemonic([3]string{"xrstors", "xsavec", "xsaves"}[rg-3])
		f.mem("")
	case rg == 6 && mod == 3:
		f.mnemonic("rdrand")
		f.Rv()
	case rg == 6:
		f.mnemonic(f.bySimd("vmptrld", "vmclear", "vmxon", "(bad)"))
		f.mem("qword")
	case rg == 7 && mod == 3:
		if f.simd() == pF3 {
			f.mnemonic("rdpid")
			f.gpr(f.ins.Mode.wordWidth(), ins.ModRM.RM(), f.has(PrefixRexB))
			return
		}
		f.mnemonic("rdseed")
		f.Rv()
	case rg == 7:
		f.mnemonic("vmptrst")
		f.mem("qword")
	default:
		f.s("(bad)")
	}
}

// wordWidth is the native register width of the mode.
func (m Mode) wordWidth() int {
	if m == Mode64 {
		return 64
	}
	return 32
}
