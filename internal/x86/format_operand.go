package x86

import "strconv"

func sizeName(bits int) string {
	switch bits {
	case 8:
		return "byte"
	case 16:
		return "word"
	case 64:
		return "qword"
	}
	return "dword"
}

// reg names general register n of the given width. ext selects r8..r15;
// rex switches the byte registers 4..7 to spl..dil.
func reg(width int, n byte, ext, rex bool) string {
	n &= 7
	if ext {
		switch width {
		case 8:
			return regExt[n] + "b"
		case 16:
			return regExt[n] + "w"
		case 32:
			return regExt[n] + "d"
		}
		return regExt[n]
	}
	switch width {
	case 8:
		if rex {
			return reg8Rex[n]
		}
		return reg8[n]
	case 16:
		return reg16[n]
	case 64:
		return reg64[n]
	}
	return reg32[n]
}

func (f *formatter) rex() bool { return f.ins.Rex != 0 }

// gpr appends general register n; ext selects r8..r15.
func (f *formatter) gpr(width int, n byte, ext bool) {
	f.s(reg(width, n, ext, f.rex()))
}

func (f *formatter) rmReg(width int)  { f.gpr(width, f.ins.ModRM.RM(), f.has(PrefixRexB)) }
func (f *formatter) regReg(width int) { f.gpr(width, f.ins.ModRM.Reg(), f.has(PrefixRexR)) }

func (f *formatter) memPrefix(size string) {
	ins := f.ins
	if f.flags&FormatPointerSize != 0 && size != "" {
		f.s(size)
		f.s(" ptr ")
	}
	if f.flags&FormatOnlySegmentOverride != 0 && ins.Segment == 0 {
		return
	}
	if ins.Segment != 0 {
		f.s(segmentName(ins.Segment))
	} else {
		f.s(f.defaultSegment())
	}
	f.c(':')
}

// defaultSegment is ss for stack-based addressing forms and ds otherwise.
func (f *formatter) defaultSegment() string {
	m, ins := f.ins.ModRM, f.ins
	mod, rm := m.Mod(), m.RM()
	if ins.addressSize() == 16 {
		if rm == 2 || rm == 3 || rm == 6 && mod != 0 {
			return "ss"
		}
		return "ds"
	}
	base, ext := rm, f.has(PrefixRexB)
	if ins.HasSIB {
		base = ins.SIB.Base()
	}
	switch {
	case ext:
		return "ds"
	case base == 4 && ins.HasSIB:
		return "ss"
	case base == 5 && mod != 0:
		return "ss"
	}
	return "ds"
}

// mem appends a memory operand with an optional size keyword.
func (f *formatter) mem(size string) {
	f.memPrefix(size)
	if f.ins.addressSize() == 16 {
		f.mem16()
	} else {
		f.mem32()
	}
}

// memBare appends a memory operand with no size or segment text.
func (f *formatter) memBare() {
	if f.ins.addressSize() == 16 {
		f.mem16()
	} else {
		f.mem32()
	}
}

// dispMagnitude appends a displacement as sign and magnitude.
func (f *formatter) dispMagnitude() {
	d := f.ins.Disp()
	if f.last() != '[' {
		if d < 0 {
			f.c('-')
		} else {
			f.c('+')
		}
	} else if d < 0 {
		f.c('-')
	}
	if d < 0 {
		d = -d
	}
	f.num(uint64(d))
}

func (f *formatter) mem16() {
	ins := f.ins
	mod, rm := ins.ModRM.Mod(), ins.ModRM.RM()
	direct := mod == 0 && rm == 6
	f.c('[')
	if !direct {
		f.s(addr16[rm])
	}
	if ins.DispWidth > 0 && (ins.Displacement != 0 || f.last() == '[') {
		if direct {
			f.num(uint64(ins.Displacement & 0xFFFF))
		} else {
			f.dispMagnitude()
		}
	}
	f.c(']')
}

func (f *formatter) addrReg(n byte, ext bool) string {
	ins := f.ins
	switch {
	case ins.Mode == Mode64 && ins.addressSize() == 64:
		return reg(64, n, ext, false)
	case ext:
		return reg(32, n, true, false)
	}
	return reg32[n&7]
}

func (f *formatter) scale() {
	s := f.ins.SIB.Scale()
	if s != 0 || f.flags&FormatScaleOne != 0 {
		f.c('*')
		f.c('0' + byte(1)<<s)
	}
}

func (f *formatter) mem32() {
	ins := f.ins
	mod, rm := ins.ModRM.Mod(), ins.ModRM.RM()
	ripRelative := ins.Mode == Mode64 && mod == 0 && rm == 5 && !ins.HasSIB
	f.c('[')

	noBase := false
	if ins.HasSIB {
		sib := ins.SIB
		if sib.Base() == 5 && mod == 0 {
			noBase = true
		} else {
			f.s(f.addrReg(sib.Base(), f.has(PrefixRexB)))
		}
		if sib.Index() != 4 || f.has(PrefixRexX) {
			if f.last() != '[' {
				f.c('+')
			}
			f.s(f.addrReg(sib.Index(), f.has(PrefixRexX)))
			f.scale()
		}
	} else if !(mod == 0 && rm == 5) {
		f.s(f.addrReg(rm, f.has(PrefixRexB)))
	} else {
		noBase = true
	}

	if ins.DispWidth > 0 && (ins.Displacement != 0 || f.last() == '[') {
		switch {
		case ripRelative && f.hasAddr:
			target, _ := ins.MemoryTarget(f.addr)
			f.num(target)
		case noBase && f.last() == '[':
			if ripRelative {
				f.s(f.ripName())
				f.dispMagnitude()
				break
			}
			if ins.Mode == Mode64 && ins.addressSize() == 64 {
				f.num(uint64(ins.Disp()))
			} else {
				f.num(uint64(ins.Displacement))
			}
		default:
			f.dispMagnitude()
		}
	}
	f.c(']')
}

func (f *formatter) ripName() string {
	if f.has(PrefixAddressSize) {
		return "eip"
	}
	return "rip"
}

// Operand helpers. The names follow the operand-type letters used in the
// opcode tables: E is ModRM r/m, G is ModRM reg, v is the operand size.

func (f *formatter) Ev() {
	w := f.ins.operandSize()
	if f.ins.ModRM.Mod() == 3 {
		f.rmReg(w)
		return
	}
	f.mem(sizeName(w))
}

func (f *formatter) Gv() { f.regReg(f.ins.operandSize()) }

func (f *formatter) Rv() { f.rmReg(f.ins.operandSize()) }

func (f *formatter) yWidth() int {
	if f.has(PrefixRexW) {
		return 64
	}
	return 32
}

func (f *formatter) Ey() {
	if f.ins.ModRM.Mod() == 3 {
		f.rmReg(f.yWidth())
		return
	}
	f.mem(sizeName(f.yWidth()))
}

func (f *formatter) Gy() { f.regReg(f.yWidth()) }

// Ex is an r/m operand of fixed width.
func (f *formatter) Ex(width int) {
	if f.ins.ModRM.Mod() == 3 {
		f.rmReg(width)
		return
	}
	f.mem(sizeName(width))
}

func (f *formatter) Eb() { f.Ex(8) }
func (f *formatter) Ew() { f.Ex(16) }
func (f *formatter) Ed() { f.Ex(32) }
func (f *formatter) Gb() { f.regReg(8) }
func (f *formatter) Gw() { f.regReg(16) }

func (f *formatter) xmm(n byte, ext bool) {
	if ext {
		n += 8
	}
	f.s("xmm")
	f.s(strconv.Itoa(int(n)))
}

func (f *formatter) Vdq() { f.xmm(f.ins.ModRM.Reg(), f.has(PrefixRexR)) }
func (f *formatter) Udq() { f.xmm(f.ins.ModRM.RM(), f.has(PrefixRexB)) }
func (f *formatter) Pq()  { f.s("mm"); f.c('0' + f.ins.ModRM.Reg()) }
func (f *formatter) Nq()  { f.s("mm"); f.c('0' + f.ins.ModRM.RM()) }

// W is an xmm register or a 128-bit memory operand.
func (f *formatter) W() { f.Wx("xmmword") }

// Wx is an xmm register or a memory operand of the given size.
func (f *formatter) Wx(size string) {
	if f.ins.ModRM.Mod() == 3 {
		f.Udq()
		return
	}
	f.mem(size)
}

func (f *formatter) Qq() {
	if f.ins.ModRM.Mod() == 3 {
		f.Nq()
		return
	}
	f.mem("qword")
}

// Nx is an mm register or a memory operand of the given size.
func (f *formatter) Nx(size string) {
	if f.ins.ModRM.Mod() == 3 {
		f.Nq()
		return
	}
	f.mem(size)
}

// Mx is a memory operand or a register of width when mod is 3.
func (f *formatter) Mx(size string, width int) {
	if f.ins.ModRM.Mod() == 3 {
		f.rmReg(width)
		return
	}
	f.mem(size)
}

func (f *formatter) imm() { f.num(f.ins.Immediate) }

// comma separates operands.
func (f *formatter) comma() { f.c(',') }

func (f *formatter) accumulator() string {
	return reg(f.ins.operandSize(), 0, false, false)
}
