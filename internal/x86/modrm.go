package x86

// readModRM consumes a ModRM byte and any SIB byte and displacement it
// implies under the effective address size.
func (d *decoder) readModRM() error {
	ins := &d.ins
	b, err := d.c.readByte()
	if err != nil {
		return err
	}
	ins.HasModRM = true
	ins.ModRM = ModRM(b)
	mod, rm := ins.ModRM.Mod(), ins.ModRM.RM()

	width := 0
	if ins.addressSize() == 16 {
		switch {
		case mod == 0 && rm == 6:
			width = 2
		case mod == 1:
			width = 1
		case mod == 2:
			width = 2
		}
	} else {
		if mod != 3 && rm == 4 {
			s, err := d.c.readByte()
			if err != nil {
				return err
			}
			ins.HasSIB = true
			ins.SIB = SIB(s)
		}
		switch {
		case mod == 1:
			width = 1
		case mod == 2 || mod == 0 && rm == 5:
			width = 4
		case ins.HasSIB && ins.SIB.Base() == 5 && mod == 0:
			width = 4
		}
	}
	if width == 0 {
		return nil
	}
	v, err := d.c.readUint(width, d.lengthOnly)
	if err != nil {
		return err
	}
	ins.DispWidth = width
	ins.Displacement = uint32(v)
	return nil
}

// readModRMRegister consumes a ModRM byte that always names registers,
// as for the control and debug register moves.
func (d *decoder) readModRMRegister() error {
	b, err := d.c.readByte()
	if err != nil {
		return err
	}
	d.ins.HasModRM = true
	d.ins.ModRM = ModRM(b)
	return nil
}
