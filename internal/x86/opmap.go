package x86

// byteSet is a 256-bit membership set over opcode bytes.
type byteSet [4]uint64

func newByteSet(bs ...byte) byteSet {
	var s byteSet
	for _, b := range bs {
		s[b>>6] |= 1 << (b & 63)
	}
	return s
}

func byteRange(s byteSet, from, to byte) byteSet {
	for b := int(from); b <= int(to); b++ {
		s[b>>6] |= 1 << (b & 63)
	}
	return s
}

func (s *byteSet) has(b byte) bool { return s[b>>6]&(1<<(b&63)) != 0 }

var (
	oneByteModRM = byteRange(newByteSet(0x62, 0x63, 0x69, 0x6B, 0xC0, 0xC1, 0xC4, 0xC5, 0xC6, 0xC7, 0xF6, 0xF7, 0xFE, 0xFF), 0xD0, 0xD3)

	oneByteImm8 = newByteSet(0x6A, 0x6B, 0x80, 0x82, 0x83, 0xA8, 0xC0, 0xC1, 0xC6, 0xCD, 0xD4, 0xD5, 0xEB)

	oneByteImmFull = newByteSet(0x68, 0x69, 0x81, 0xA9, 0xC7, 0xE8, 0xE9)

	invalidIn64 = byteRange(newByteSet(0x06, 0x07, 0x0E, 0x16, 0x17, 0x1E, 0x1F, 0x27, 0x2F, 0x37, 0x3F, 0x82, 0xCE, 0xD4, 0xD5, 0xD6), 0x60, 0x62)

	invalidTwoByte = newByteSet(0x04, 0x0A, 0x0C, 0x0F, 0x7A, 0x7B, 0x36, 0x39)
)

func hi(op byte) byte { return op >> 4 }
func lo(op byte) byte { return op & 0xF }

func needsModRM1(op byte) bool {
	r, c := hi(op), lo(op)
	return r == 8 || oneByteModRM.has(op) ||
		r < 4 && (c < 4 || c >= 8 && c < 0xC) ||
		r == 0xD && c >= 8
}

func needsModRM2(op byte) bool {
	r, c := hi(op), lo(op)
	return op < 4 ||
		r != 3 && r > 0 && r < 7 ||
		op >= 0xD0 ||
		r == 7 && c != 7 ||
		r == 9 || r == 0xB ||
		r == 0xC && c < 8 ||
		r == 0xA && op%8 >= 3 ||
		op == 0x0D
}
