package x86

var segmentPrefix = map[byte]Prefix{
	0x26: PrefixES,
	0x2E: PrefixCS,
	0x36: PrefixSS,
	0x3E: PrefixDS,
	0x64: PrefixFS,
	0x65: PrefixGS,
}

// scanPrefixes consumes legacy and REX prefixes. A REX byte only counts
// when the opcode follows it directly; a legacy prefix after it drops it.
func (d *decoder) scanPrefixes() {
	ins := &d.ins
	for {
		b, ok := d.c.peek()
		if !ok {
			return
		}
		switch {
		case b == 0xF0:
			ins.Prefixes |= PrefixLock
			ins.SimdPrefix = PrefixLock
		case b == 0xF2:
			ins.Prefixes |= PrefixRepeatNotZero
			ins.SimdPrefix = PrefixRepeatNotZero
			ins.repeat = PrefixRepeatNotZero
		case b == 0xF3:
			ins.Prefixes |= PrefixRepeat
			ins.SimdPrefix = PrefixRepeat
			ins.repeat = PrefixRepeat
		case b == 0x66:
			ins.Prefixes |= PrefixOperandSize
			ins.SimdPrefix = PrefixOperandSize
		case b == 0x67:
			ins.Prefixes |= PrefixAddressSize
		case segmentPrefix[b] != 0:
			seg := segmentPrefix[b]
			ins.Prefixes |= seg
			ins.Segment = seg
		case ins.Mode == Mode64 && b&0xF0 == 0x40:
			ins.Prefixes &^= PrefixRex
			ins.Rex = b
			if b&1 != 0 {
				ins.Prefixes |= PrefixRexB
			}
			if b&2 != 0 {
				ins.Prefixes |= PrefixRexX
			}
			if b&4 != 0 {
				ins.Prefixes |= PrefixRexR
			}
			if b&8 != 0 {
				ins.Prefixes |= PrefixRexW
			}
			d.c.pos++
			ins.NumPrefixes++
			continue
		default:
			return
		}
		if ins.Rex != 0 {
			ins.Rex = 0
			ins.Prefixes &^= PrefixRex
		}
		d.c.pos++
		ins.NumPrefixes++
	}
}
