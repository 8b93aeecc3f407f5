package x86

// readImmediate consumes an immediate of width bytes. When signed is set the
// value is sign-extended from its width into Immediate.
func (d *decoder) readImmediate(width int, signed bool) error {
	ins := &d.ins
	v, err := d.c.readUint(width, d.lengthOnly)
	if err != nil {
		return err
	}
	ins.ImmWidth = width
	if signed && width < 8 {
		shift := uint(64 - 8*width)
		v = uint64(int64(v<<shift) >> shift)
	}
	ins.Immediate = v
	return nil
}

// fullWidth picks the 16 or 32-bit immediate width for opcodes whose
// immediate follows the operand size but never grows to 64 bits.
func fullWidth(ins *Instruction) int {
	if ins.Prefixes&PrefixRexW != 0 {
		return 4
	}
	o := ins.Prefixes&PrefixOperandSize != 0
	if ins.Mode == Mode16 && o || ins.Mode != Mode16 && !o {
		return 4
	}
	return 2
}

func (d *decoder) readImmediateOneByte() error {
	ins := &d.ins
	op := ins.Opcode
	r, c := hi(op), lo(op)
	o := ins.Prefixes&PrefixOperandSize != 0
	a := ins.Prefixes&PrefixAddressSize != 0

	switch {
	case op >= 0xB8 && op <= 0xBF:
		switch {
		case ins.Prefixes&PrefixRexW != 0:
			return d.readImmediate(8, false)
		case o != (ins.Mode == Mode16):
			return d.readImmediate(2, false)
		}
		return d.readImmediate(4, false)

	case oneByteImmFull.has(op) || r < 4 && (c == 5 || c == 0xD) ||
		op == 0xF7 && ins.ModRM.Reg() <= 1:
		signed := op == 0xE8 || op == 0xE9 || op == 0x68 && ins.Mode == Mode64
		return d.readImmediate(fullWidth(ins), signed)

	case r == 7 || op >= 0xE0 && op <= 0xE3 || op == 0xEB:
		return d.readImmediate(1, true)

	case op >= 0xE4 && op <= 0xE7 || op >= 0xB0 && op <= 0xB7 ||
		r < 4 && (c == 4 || c == 0xC) ||
		op == 0xF6 && ins.ModRM.Reg() <= 1 ||
		oneByteImm8.has(op):
		return d.readImmediate(1, false)

	case op >= 0xA0 && op <= 0xA3:
		switch {
		case ins.Mode == Mode64 && a:
			return d.readImmediate(4, false)
		case ins.Mode == Mode64:
			return d.readImmediate(8, false)
		case a != (ins.Mode == Mode16):
			return d.readImmediate(2, false)
		}
		return d.readImmediate(4, false)

	case op == 0xEA || op == 0x9A:
		if ins.Mode == Mode64 {
			return d.fail(ErrInvalidEncoding)
		}
		if fullWidth(ins) == 4 {
			return d.readImmediate(6, false)
		}
		return d.readImmediate(4, false)

	case op == 0xC2 || op == 0xCA:
		return d.readImmediate(2, false)

	case op == 0xC8:
		return d.readImmediate(3, false)
	}
	return nil
}

func (d *decoder) readImmediateTwoByte() error {
	ins := &d.ins
	op := ins.Opcode
	switch {
	case hi(op) == 8:
		if ins.Mode == Mode64 {
			return d.readImmediate(4, true)
		}
		return d.readImmediate(fullWidth(ins), true)
	case op >= 0x70 && op <= 0x73, op == 0xA4, op == 0xC2,
		op >= 0xC4 && op <= 0xC6, op == 0xBA, op == 0xAC:
		return d.readImmediate(1, false)
	case op == 0x78 && ins.SimdPrefix&(PrefixRepeatNotZero|PrefixOperandSize) != 0:
		return d.readImmediate(2, false)
	}
	return nil
}
