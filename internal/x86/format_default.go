package x86

// stackWidth is the operand width of push, pop and near indirect branches,
// which default to 64 bits in long mode.
func (f *formatter) stackWidth() int {
	if f.ins.Mode == Mode64 {
		if f.has(PrefixOperandSize) {
			return 16
		}
		return 64
	}
	return f.ins.operandSize()
}

// bySize picks the 16, 32 or 64-bit spelling of a mnemonic.
func (f *formatter) bySize(w16, w32, w64 string) string {
	switch f.ins.operandSize() {
	case 16:
		return w16
	case 64:
		if w64 != "" {
			return w64
		}
	}
	return w32
}

func (f *formatter) moffs() {
	mask := uint64(0xFFFFFFFFFFFFFFFF)
	switch f.ins.addressSize() {
	case 16:
		mask = 0xFFFF
	case 32:
		mask = 0xFFFFFFFF
	}
	f.c('[')
	f.num(f.ins.Immediate & mask)
	f.c(']')
}

func (f *formatter) ioAccumulator(byteForm bool) string {
	if byteForm {
		return "al"
	}
	if f.ins.operandSize() == 16 {
		return "ax"
	}
	return "eax"
}

func (f *formatter) oneByte() {
	ins := f.ins
	op, m := ins.Opcode, ins.ModRM
	r, c := hi(op), lo(op)
	rg := m.Reg()
	size := ins.operandSize()

	switch {
	case op >= 0x88 && op <= 0x8B:
		f.s("mov ")
		switch op {
		case 0x88:
			f.Eb()
			f.comma()
			f.Gb()
		case 0x89:
			f.Ev()
			f.comma()
			f.Gv()
		case 0x8A:
			f.Gb()
			f.comma()
			f.Eb()
		case 0x8B:
			f.Gv()
			f.comma()
			f.Ev()
		}

	case op == 0x8C:
		f.s("mov ")
		f.Mx("word", size)
		f.comma()
		f.s(segmentRegs[rg])

	case op == 0x8E:
		f.s("mov ")
		f.s(segmentRegs[rg])
		f.comma()
		f.Ew()

	case op == 0x68:
		f.s("push ")
		f.imm()

	case op == 0x6A:
		f.s("push ")
		f.imm8()

	case op == 0xFF:
		f.s(pick(group5[:], int(rg)))
		f.c(' ')
		w := size
		if rg == 2 || rg == 4 || rg == 6 {
			w = f.stackWidth()
		}
		switch {
		case m.Mod() == 3:
			f.rmReg(w)
		case rg == 3 || rg == 5:
			f.mem("fword")
		default:
			f.mem(sizeName(w))
		}

	case r < 4 && (c < 6 || c >= 8 && c < 0xE):
		f.s(arith[op>>3&7])
		f.c(' ')
		switch op % 8 {
		case 0:
			f.Eb()
			f.comma()
			f.Gb()
		case 1:
			f.Ev()
			f.comma()
			f.Gv()
		case 2:
			f.Gb()
			f.comma()
			f.Eb()
		case 3:
			f.Gv()
			f.comma()
			f.Ev()
		case 4:
			f.s("al,")
			f.imm()
		case 5:
			f.s(f.accumulator())
			f.comma()
			f.imm()
		}

	case r == 4 || r == 5:
		switch {
		case r == 4 && c < 8:
			f.s("inc ")
		case r == 4:
			f.s("dec ")
		case c < 8:
			f.s("push ")
		default:
			f.s("pop ")
		}
		w := size
		if r == 5 {
			w = f.stackWidth()
		}
		f.gpr(w, op%8, f.has(PrefixRexB))

	case op >= 0x80 && op <= 0x83:
		f.s(arith[rg])
		f.c(' ')
		if op == 0x80 || op == 0x82 {
			f.Eb()
		} else {
			f.Ev()
		}
		f.comma()
		if op != 0x83 {
			f.imm()
			break
		}
		if (rg == 1 || rg == 4 || rg == 6) && ins.Immediate >= 0x80 {
			mask := uint64(0xFFFFFF00)
			switch size {
			case 16:
				mask = 0xFF00
			case 64:
				mask = 0xFFFFFFFFFFFFFF00
			}
			f.num(mask | ins.Immediate)
		} else {
			f.signed(int64(int8(ins.Immediate)), false)
		}

	case op == 0xE8:
		f.s("call ")
		f.relative()

	case op == 0xE9 || op == 0xEB:
		f.s("jmp ")
		f.relative()

	case op == 0xA0:
		f.s("mov al,")
		f.memPrefix("byte")
		f.moffs()

	case op == 0xA1:
		f.s("mov ")
		f.s(f.accumulator())
		f.comma()
		f.memPrefix(sizeName(size))
		f.moffs()

	case op == 0xA2:
		f.s("mov ")
		f.memPrefix("byte")
		f.moffs()
		f.s(",al")

	case op == 0xA3:
		f.s("mov ")
		f.memPrefix(sizeName(size))
		f.moffs()
		f.comma()
		f.s(f.accumulator())

	case op == 0xCC:
		f.s("int3")

	case op == 0x8D:
		f.s("lea ")
		f.Gv()
		f.comma()
		f.memBare()

	case op == 0x8F:
		f.s("pop ")
		f.Mx(sizeName(f.stackWidth()), f.stackWidth())

	case r == 7:
		f.c('j')
		f.s(conditions[c])
		f.c(' ')
		f.relative()

	case op == 0xA8:
		f.s("test al,")
		f.imm()

	case op == 0xA9:
		f.s("test ")
		f.s(f.accumulator())
		f.comma()
		f.imm()

	case op == 0x90:
		switch {
		case f.has(pF3):
			f.s("pause")
		case f.has(PrefixRexB):
			f.s("xchg ")
			f.gpr(size, 0, true)
			f.comma()
			f.s(f.accumulator())
		default:
			f.s("nop")
		}

	case op >= 0x91 && op <= 0x97:
		f.s("xchg ")
		f.gpr(size, c, f.has(PrefixRexB))
		f.comma()
		f.s(f.accumulator())

	case op == 0xC3:
		f.s("ret")

	case r == 0xB:
		f.s("mov ")
		if c < 8 {
			f.gpr(8, op%8, f.has(PrefixRexB))
		} else {
			f.gpr(size, op%8, f.has(PrefixRexB))
		}
		f.comma()
		f.imm()

	case op == 0xFE:
		if rg == 0 {
			f.s("inc ")
		} else {
			f.s("dec ")
		}
		f.Eb()

	case op == 0xF6 || op == 0xF7:
		f.s(group3[rg])
		f.c(' ')
		if op == 0xF6 {
			f.Eb()
		} else {
			f.Ev()
		}
		if rg <= 1 {
			f.comma()
			f.imm()
		}

	case op == 0x69 || op == 0x6B:
		f.s("imul ")
		f.Gv()
		f.comma()
		f.Ev()
		f.comma()
		if op == 0x6B {
			f.imm8()
		} else {
			f.imm()
		}

	case op >= 0x84 && op <= 0x87:
		if op > 0x85 {
			f.s("xchg ")
		} else {
			f.s("test ")
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

	case op == 0x9A || op == 0xEA:
		if op == 0x9A {
			f.s("call far ")
		} else {
			f.s("jmp far ")
		}
		if ins.ImmWidth == 6 {
			f.num(ins.Immediate >> 32 & 0xFFFF)
			f.c(':')
			f.num(ins.Immediate & 0xFFFFFFFF)
		} else {
			f.num(ins.Immediate >> 16 & 0xFFFF)
			f.c(':')
			f.num(ins.Immediate & 0xFFFF)
		}

	case op >= 0x6C && op <= 0x6F, op >= 0xA4 && op <= 0xA7, op >= 0xAA && op <= 0xAF:
		f.stringOp()

	case op == 0xC0 || op == 0xC1 || op >= 0xD0 && op <= 0xD3:
		f.s(shifts[rg])
		f.c(' ')
		if op%2 == 0 {
			f.Eb()
		} else {
			f.Ev()
		}
		f.comma()
		switch {
		case r == 0xC:
			f.imm()
		case c < 2:
			f.num(1)
		default:
			f.s("cl")
		}

	case op == 0xC2:
		f.s("ret ")
		f.imm()

	case op == 0xCA:
		f.s("retf ")
		f.imm()

	case op >= 0xE0 && op <= 0xE3:
		switch {
		case op == 0xE0:
			f.s("loopne")
		case op == 0xE1:
			f.s("loope")
		case op == 0xE2:
			f.s("loop")
		case ins.addressSize() == 16:
			f.s("jcxz")
		case ins.addressSize() == 32:
			f.s("jecxz")
		default:
			f.s("jrcxz")
		}
		f.c(' ')
		f.relative()

	case op == 0xCD:
		f.s("int ")
		f.imm()

	case op == 0x63:
		if ins.Mode == Mode64 {
			f.s("movsxd ")
			f.Gv()
			f.comma()
			f.Ed()
		} else {
			f.s("arpl ")
			f.Ew()
			f.comma()
			f.Gw()
		}

	case op == 0xC4 || op == 0xC5:
		if op == 0xC4 {
			f.s("les ")
		} else {
			f.s("lds ")
		}
		f.Gv()
		f.comma()
		if size == 16 {
			f.Mx("dword", size)
		} else {
			f.Mx("fword", size)
		}

	case op == 0xC6 || op == 0xC7:
		switch {
		case rg == 7 && op == 0xC6:
			f.s("xabort ")
			f.imm()
		case rg == 7:
			f.s("xbegin ")
			f.relative()
		default:
			f.s("mov ")
			if op == 0xC6 {
				f.Eb()
			} else {
				f.Ev()
			}
			f.comma()
			f.imm()
		}

	case op == 0xC8:
		f.s("enter ")
		f.num(ins.Immediate & 0xFFFF)
		f.comma()
		f.num(ins.Immediate >> 16 & 0xFF)

	case op == 0xD4:
		f.s("aam ")
		f.imm()

	case op == 0xD5:
		f.s("aad ")
		f.imm()

	case op >= 0xD8 && op <= 0xDF:
		f.x87()

	case op == 0xE4 || op == 0xE5:
		f.s("in ")
		f.s(f.ioAccumulator(op == 0xE4))
		f.comma()
		f.imm()

	case op == 0xE6 || op == 0xE7:
		f.s("out ")
		f.imm()
		f.comma()
		f.s(f.ioAccumulator(op == 0xE6))

	case op == 0xEC || op == 0xED:
		f.s("in ")
		f.s(f.ioAccumulator(op == 0xEC))
		f.s(",dx")

	case op == 0xEE || op == 0xEF:
		f.s("out dx,")
		f.s(f.ioAccumulator(op == 0xEE))

	case op == 0x62:
		f.s("bound ")
		f.Gv()
		f.comma()
		if size == 16 {
			f.mem("dword")
		} else {
			f.mem("qword")
		}

	default:
		f.s(f.oneByteBare(op))
	}
}

func (f *formatter) stringOp() {
	op := f.ins.Opcode
	var name string
	switch op {
	case 0x6C, 0x6D:
		name = "ins"
	case 0x6E, 0x6F:
		name = "outs"
	case 0xA4, 0xA5:
		name = "movs"
	case 0xA6, 0xA7:
		name = "cmps"
	case 0xAA, 0xAB:
		name = "stos"
	case 0xAC, 0xAD:
		name = "lods"
	case 0xAE, 0xAF:
		name = "scas"
	}
	compares := name == "cmps" || name == "scas"
	switch f.ins.repeat {
	case pF3:
		if compares {
			f.s("repe ")
		} else {
			f.s("rep ")
		}
	case pF2:
		f.s("repne ")
	}
	f.s(name)
	if op%2 == 0 {
		f.c('b')
		return
	}
	switch f.ins.operandSize() {
	case 16:
		f.c('w')
	case 64:
		f.c('q')
	default:
		f.c('d')
	}
}

// oneByteBare names the default-map opcodes that take no operands.
func (f *formatter) oneByteBare(op byte) string {
	switch op {
	case 0x9C:
		return f.stackForm("pushf", "pushfd", "pushfq")
	case 0x9D:
		return f.stackForm("popf", "popfd", "popfq")
	case 0x60:
		return f.bySize("pusha", "pushad", "")
	case 0x61:
		return f.bySize("popa", "popad", "")
	case 0xCF:
		return f.bySize("iret", "iretd", "iretq")
	case 0x98:
		return f.bySize("cbw", "cwde", "cdqe")
	case 0x99:
		return f.bySize("cwd", "cdq", "cqo")
	}
	if s, ok := oneByteBareNames[op]; ok {
		return s
	}
	return "(bad)"
}

// stackForm is bySize for instructions whose default width in long mode
// is 64 bits.
func (f *formatter) stackForm(w16, w32, w64 string) string {
	switch f.stackWidth() {
	case 16:
		return w16
	case 64:
		return w64
	}
	return w32
}

var oneByteBareNames = map[byte]string{
	0x06: "push es", 0x07: "pop es", 0x0E: "push cs", 0x16: "push ss", 0x17: "pop ss",
	0x1E: "push ds", 0x1F: "pop ds", 0x27: "daa", 0x2F: "das", 0x37: "aaa", 0x3F: "aas",
	0x9B: "fwait", 0x9E: "sahf", 0x9F: "lahf", 0xC9: "leave", 0xCB: "retf", 0xCE: "into",
	0xD6: "salc", 0xD7: "xlat", 0xF1: "int1", 0xF4: "hlt", 0xF5: "cmc",
	0xF8: "clc", 0xF9: "stc", 0xFA: "cli", 0xFB: "sti", 0xFC: "cld", 0xFD: "std",
}
