package x86

type decoder struct {
	c   cursor
	ins Instruction
	// lengthOnly skips assembling displacement and immediate values.
	lengthOnly bool
}

// Decode decodes the first instruction in buf. Bytes beyond MaxLength are
// never examined.
func Decode(buf []byte, mode Mode, flags DecoderFlags) (Instruction, error) {
	d, err := run(buf, mode, flags, false)
	if err != nil {
		return Instruction{}, err
	}
	ins := d.ins
	copy(ins.Bytes[:], buf[:ins.Length])
	ins.valid = true
	return ins, nil
}

// DecodeLength returns the length of the first instruction in buf with full
// validity checking, or false if no valid instruction starts there.
func DecodeLength(buf []byte, mode Mode) (int, bool) {
	d, err := run(buf, mode, DecodeValidityCheck, true)
	if err != nil {
		return 0, false
	}
	return d.ins.Length, true
}

func run(buf []byte, mode Mode, flags DecoderFlags, lengthOnly bool) (*decoder, error) {
	if !mode.Valid() {
		return nil, &DecodeError{Err: ErrInvalidEncoding}
	}
	d := &decoder{c: newCursor(buf), lengthOnly: lengthOnly}
	d.ins.Mode = mode
	d.ins.Flags = flags
	if err := d.decode(); err != nil {
		return nil, err
	}
	d.ins.Length = d.c.pos
	return d, nil
}

func (d *decoder) checking() bool { return d.ins.Flags&DecodeValidityCheck != 0 }

func (d *decoder) fail(err error) error {
	return &DecodeError{Offset: d.c.pos, Err: err}
}

func (d *decoder) decode() error {
	ins := &d.ins
	d.scanPrefixes()

	op, err := d.c.readByte()
	if err != nil {
		return err
	}
	ins.OpcodeSize = 1
	if op != 0x0F {
		ins.Map = MapDefault
		ins.Opcode = op
		if err := d.decodeOneByte(); err != nil {
			return err
		}
		return d.checkLock()
	}

	if op, err = d.c.readByte(); err != nil {
		return err
	}
	ins.OpcodeSize = 2
	ins.Opcode = op
	switch op {
	case 0x38:
		ins.Map = Map0F38
	case 0x3A:
		ins.Map = Map0F3A
	case 0x0F:
		// 3DNow! is not supported.
		return d.fail(ErrInvalidOpcode)
	default:
		ins.Map = Map0F
		if err := d.decodeTwoByte(); err != nil {
			return err
		}
		return d.checkLock()
	}

	if ins.Opcode, err = d.c.readByte(); err != nil {
		return err
	}
	ins.OpcodeSize = 3
	if err := d.decodeThreeByte(); err != nil {
		return err
	}
	return d.checkLock()
}

func (d *decoder) decodeOneByte() error {
	ins := &d.ins
	if needsModRM1(ins.Opcode) {
		if err := d.readModRM(); err != nil {
			return err
		}
	}
	if d.checking() {
		if err := validateOneByte(ins); err != nil {
			return d.fail(err)
		}
	}
	return d.readImmediateOneByte()
}

func (d *decoder) decodeTwoByte() error {
	ins := &d.ins
	if needsModRM2(ins.Opcode) {
		var err error
		if ins.Opcode >= 0x20 && ins.Opcode <= 0x23 {
			err = d.readModRMRegister()
		} else {
			err = d.readModRM()
		}
		if err != nil {
			return err
		}
	}
	if d.checking() {
		if err := validateTwoByte(ins); err != nil {
			return d.fail(err)
		}
	}
	return d.readImmediateTwoByte()
}

func (d *decoder) decodeThreeByte() error {
	ins := &d.ins
	if err := d.readModRM(); err != nil {
		return err
	}
	if d.checking() {
		var err error
		if ins.Map == Map0F38 {
			err = validate0F38(ins)
		} else {
			err = validate0F3A(ins)
		}
		if err != nil {
			return d.fail(err)
		}
	}
	if ins.Map == Map0F3A {
		return d.readImmediate(1, false)
	}
	return nil
}

// checkLock rejects a LOCK prefix on anything but a lockable
// read-modify-write memory form.
func (d *decoder) checkLock() error {
	ins := &d.ins
	if !d.checking() || ins.Prefixes&PrefixLock == 0 {
		return nil
	}
	if !lockable(ins) {
		return d.fail(ErrInvalidEncoding)
	}
	return nil
}

func lockable(ins *Instruction) bool {
	if !ins.HasModRM || ins.ModRM.Mod() == 3 {
		return false
	}
	op, reg := ins.Opcode, ins.ModRM.Reg()
	switch ins.Map {
	case MapDefault:
		switch {
		case op == 0x86 || op == 0x87:
			return true
		case op < 0x38 && op>>4 < 4 && op%8 < 2:
			return true
		case op >= 0x80 && op <= 0x83:
			return reg != 7
		case op == 0xFE || op == 0xFF:
			return reg < 2
		case op == 0xF6 || op == 0xF7:
			return reg == 2 || reg == 3
		}
	case Map0F:
		switch op {
		case 0xB0, 0xB1, 0xB3, 0xBB, 0xC0, 0xC1, 0xAB:
			return true
		case 0xBA:
			return reg != 4
		case 0xC7:
			return reg == 1
		}
	}
	return false
}
