package x86

var (
	pmovx     = [6]string{"pmovsxbw", "pmovsxbd", "pmovsxbq", "pmovsxwd", "pmovsxwq", "pmovsxdq"}
	sha       = [6]string{"sha1nexte", "sha1msg1", "sha1msg2", "sha256rnds2", "sha256msg1", "sha256msg2"}
	aes       = [5]string{"aesimc", "aesenc", "aesenclast", "aesdec", "aesdeclast"}
	sse41Row2 = [4]string{"pmuldq", "pcmpeqq", "movntdqa", "packusdw"}
	sse41Row3 = [8]string{"pminsb", "pminsd", "pminuw", "pminud", "pmaxsb", "pmaxsd", "pmaxuw", "pmaxud"}
)

func (f *formatter) map0F38() {
	ins := f.ins
	op := ins.Opcode
	r, c := hi(op), lo(op)
	simd := f.simd()

	switch {
	case (r == 2 || r == 3) && c <= 5:
		name := pmovx[c]
		if r == 3 {
			name = name[:4] + "z" + name[5:]
		}
		f.mnemonic(name)
		f.Vdq()
		f.comma()
		switch {
		case c == 5 || c%3 == 0:
			f.Wx("qword")
		case c%3 == 1:
			f.Wx("dword")
		default:
			f.Wx("word")
		}

	case op >= 0x80 && op <= 0x82:
		f.mnemonic([3]string{"invept", "invvpid", "invpcid"}[op-0x80])
		f.Gy()
		f.comma()
		f.mem("xmmword")

	case op >= 0xC8 && op <= 0xCD:
		f.mnemonic(sha[op-0xC8])
		f.Vdq()
		f.comma()
		f.W()

	case op == 0xCF:
		f.mnemonic("gf2p8mulb")
		f.Vdq()
		f.comma()
		f.W()

	case op == 0xF0 || op == 0xF1:
		if simd == pF2 {
			f.mnemonic("crc32")
			f.regReg(32)
			f.comma()
			switch {
			case op == 0xF0:
				f.Eb()
			case f.has(PrefixOperandSize):
				f.Ew()
			default:
				f.Ey()
			}
			return
		}
		f.mnemonic("movbe")
		if op == 0xF0 {
			f.Gv()
			f.comma()
			f.Ev()
		} else {
			f.Ev()
			f.comma()
			f.Gv()
		}

	case op == 0xF6:
		switch simd {
		case p66:
			f.mnemonic("adcx")
		case pF3:
			f.mnemonic("adox")
		default:
			f.mnemonic("wrss" + string("dq"[f.yWidth()/64]))
			f.Ey()
			f.comma()
			f.Gy()
			return
		}
		f.Gy()
		f.comma()
		f.Ey()

	case op == 0xF5:
		f.mnemonic("wruss" + string("dq"[f.yWidth()/64]))
		f.mem(sizeName(f.yWidth()))
		f.comma()
		f.Gy()

	case op == 0xF8:
		f.mnemonic(f.bySimd("(bad)", "movdir64b", "enqcmd", "enqcmds"))
		f.gpr(ins.addressSize(), ins.ModRM.Reg(), f.has(PrefixRexR))
		f.comma()
		f.mem("zmmword")

	case op == 0xF9:
		f.mnemonic("movdiri")
		f.mem("")
		f.comma()
		f.Gy()

	default:
		var name string
		switch {
		case op == 0x40:
			name = "pmulld"
		case op == 0x41:
			name = "phminposuw"
		case op >= 0xDB && op <= 0xDF:
			name = aes[op-0xDB]
		case op == 0x37:
			name = "pcmpgtq"
		case r == 2:
			name = pick(sse41Row2[:], int(c)-8)
		case r == 3:
			name = pick(sse41Row3[:], int(c)-8)
		case op < 0x0C:
			name = ssse3[op]
		case op < 0x18:
			name = map[byte]string{0x10: "pblendvb", 0x14: "blendvps", 0x15: "blendvpd", 0x17: "ptest"}[op]
		case op >= 0x1C && op <= 0x1E:
			name = "pabs" + string("bwd"[op-0x1C])
		}
		if name == "" {
			name = "(bad)"
		}
		f.mnemonic(name)
		if simd == p66 {
			f.Vdq()
			f.comma()
			f.W()
		} else {
			f.Pq()
			f.comma()
			f.Qq()
		}
	}
}

var (
	sse41Round = [8]string{"roundps", "roundpd", "roundss", "roundsd", "blendps", "blendpd", "pblendw", "palignr"}
	sse41Dot   = [5]string{"dpps", "dppd", "mpsadbw", "", "pclmulqdq"}
	sse42Str   = [4]string{"pcmpestrm", "pcmpestri", "pcmpistrm", "pcmpistri"}
)

func (f *formatter) map0F3A() {
	ins := f.ins
	op := ins.Opcode
	r, c := hi(op), lo(op)
	mod := ins.ModRM.Mod()

	switch {
	case r == 1:
		name := pick([]string{"pextrb", "pextrw", "pextrd", "extractps"}, int(op)-0x14)
		if op == 0x16 && f.has(PrefixRexW) {
			name = "pextrq"
		}
		f.mnemonic(name)
		switch {
		case mod == 3:
			f.rmReg(f.yWidth())
		case op == 0x14:
			f.mem("byte")
		case op == 0x15:
			f.mem("word")
		case op == 0x16:
			f.mem(sizeName(f.yWidth()))
		default:
			f.mem("dword")
		}
		f.comma()
		f.Vdq()

	case r == 2:
		name := pick([]string{"pinsrb", "insertps", "pinsrd"}, int(c))
		if op == 0x22 && f.has(PrefixRexW) {
			name = "pinsrq"
		}
		f.mnemonic(name)
		f.Vdq()
		f.comma()
		switch op {
		case 0x20:
			f.Mx("byte", 32)
		case 0x21:
			f.Wx("dword")
		default:
			f.Ey()
		}

	default:
		var name string
		switch {
		case op < 0x10:
			name = pick(sse41Round[:], int(op)-8)
		case r == 4:
			name = pick(sse41Dot[:], int(c))
		case r == 6:
			name = pick(sse42Str[:], int(c))
		case op == 0xCC:
			name = "sha1rnds4"
		case op == 0xCE:
			name = "gf2p8affineqb"
		case op == 0xCF:
			name = "gf2p8affineinvqb"
		case op == 0xDF:
			name = "aeskeygenassist"
		default:
			name = "(bad)"
		}
		f.mnemonic(name)
		if op == 0x0F && f.simd() != p66 {
			f.Pq()
			f.comma()
			f.Qq()
			break
		}
		f.Vdq()
		f.comma()
		switch op {
		case 0x0A:
			f.Wx("dword")
		case 0x0B:
			f.Wx("qword")
		default:
			f.W()
		}
	}
	f.comma()
	f.imm()
}
