package x86

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}

func TestDecodeScenarios(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		mode   Mode
		length int
		opcode byte
	}{
		{"xor eax eax", "33 C0", Mode32, 2, 0x33},
		{"inc eax", "40", Mode32, 1, 0x40},
		{"ret 16", "C3", Mode16, 1, 0xC3},
		{"ret 32", "C3", Mode32, 1, 0xC3},
		{"ret 64", "C3", Mode64, 1, 0xC3},
		{"mov reg from frame", "8B 65 E8", Mode32, 3, 0x8B},
		{"push es 32", "06", Mode32, 1, 0x06},
		{"mov imm16", "B8 01 00", Mode16, 3, 0xB8},
		{"mov imm32", "B8 01 00 00 00", Mode32, 5, 0xB8},
		{"mov imm32 long mode", "B8 01 00 00 00", Mode64, 5, 0xB8},
		{"mov imm64", "48 B8 01 00 00 00 00 00 00 00", Mode64, 10, 0xB8},
		{"operand size in real mode", "66 B8 01 00 00 00", Mode16, 6, 0xB8},
		{"test group 3 reg 1", "F7 C8 01 00 00 00", Mode32, 6, 0xF7},
		{"far jump", "EA 78 56 34 12 08 00", Mode32, 7, 0xEA},
		{"far jump real mode", "EA 34 12 08 00", Mode16, 5, 0xEA},
		{"enter", "C8 10 00 01", Mode32, 4, 0xC8},
		{"moffs 64", "A1 88 77 66 55 44 33 22 11", Mode64, 9, 0xA1},
		{"moffs 64 addr32", "67 A1 44 33 22 11", Mode64, 6, 0xA1},
		{"sib no base", "8B 04 25 00 10 00 00", Mode32, 7, 0x8B},
		{"rip relative", "48 8B 05 10 00 00 00", Mode64, 7, 0x8B},
		{"16-bit direct", "8B 06 34 12", Mode16, 4, 0x8B},
		{"nop 0f1f", "0F 1F 44 00 00", Mode32, 5, 0x1F},
		{"jcc rel32", "0F 84 00 00 00 00", Mode32, 6, 0x84},
		{"jcc rel16", "0F 84 00 00", Mode16, 4, 0x84},
		{"jcc rel32 with 66 in long mode", "66 0F 84 00 00 00 00", Mode64, 7, 0x84},
		{"pshufb", "66 0F 38 00 C1", Mode32, 5, 0x00},
		{"palignr", "66 0F 3A 0F C1 08", Mode32, 6, 0x0F},
		{"extrq", "66 0F 78 C0 04 08", Mode64, 6, 0x78},
		{"max length", strings.Repeat("66 ", 14) + "90", Mode32, 15, 0x90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, err := Decode(unhex(t, tt.code), tt.mode, DecodeAll)
			require.NoError(t, err)
			assert.True(t, ins.Valid())
			assert.Equal(t, tt.length, ins.Length)
			assert.Equal(t, tt.opcode, ins.Opcode)
			assert.Equal(t, unhex(t, tt.code), ins.Raw())
		})
	}
}

func TestDecodeFields(t *testing.T) {
	t.Run("modrm and displacement", func(t *testing.T) {
		ins, err := Decode(unhex(t, "8B 65 E8"), Mode32, DecodeAll)
		require.NoError(t, err)
		require.True(t, ins.HasModRM)
		assert.Equal(t, byte(1), ins.ModRM.Mod())
		assert.Equal(t, byte(4), ins.ModRM.Reg())
		assert.Equal(t, byte(5), ins.ModRM.RM())
		assert.False(t, ins.HasSIB)
		assert.Equal(t, 1, ins.DispWidth)
		assert.Equal(t, uint32(0xE8), ins.Displacement)
		assert.Equal(t, int64(-0x18), ins.Disp())
		assert.Equal(t, MapDefault, ins.Map)
		assert.Equal(t, 1, ins.OpcodeSize)
	})

	t.Run("sib", func(t *testing.T) {
		ins, err := Decode(unhex(t, "8B 04 88"), Mode32, DecodeAll)
		require.NoError(t, err)
		require.True(t, ins.HasSIB)
		assert.Equal(t, byte(2), ins.SIB.Scale())
		assert.Equal(t, byte(1), ins.SIB.Index())
		assert.Equal(t, byte(0), ins.SIB.Base())
		assert.Zero(t, ins.DispWidth)
	})

	t.Run("immediate", func(t *testing.T) {
		ins, err := Decode(unhex(t, "81 EC 70 01 00 00"), Mode32, DecodeAll)
		require.NoError(t, err)
		assert.Equal(t, 4, ins.ImmWidth)
		assert.Equal(t, uint64(0x170), ins.Immediate)
	})

	t.Run("relative immediate is sign extended", func(t *testing.T) {
		ins, err := Decode(unhex(t, "EB FE"), Mode32, DecodeAll)
		require.NoError(t, err)
		assert.Equal(t, int64(-2), int64(ins.Immediate))
	})

	t.Run("three byte map", func(t *testing.T) {
		ins, err := Decode(unhex(t, "66 0F 3A 0F C1 08"), Mode32, DecodeAll)
		require.NoError(t, err)
		assert.Equal(t, Map0F3A, ins.Map)
		assert.Equal(t, 3, ins.OpcodeSize)
		assert.Equal(t, PrefixOperandSize, ins.SimdPrefix)
		assert.Equal(t, uint64(8), ins.Immediate)
	})

	t.Run("prefixes", func(t *testing.T) {
		ins, err := Decode(unhex(t, "F3 64 A4"), Mode32, DecodeAll)
		require.NoError(t, err)
		assert.True(t, ins.Has(PrefixRepeat))
		assert.True(t, ins.Has(PrefixFS))
		assert.Equal(t, PrefixFS, ins.Segment)
		assert.Equal(t, 2, ins.NumPrefixes)
	})

	t.Run("last segment override wins", func(t *testing.T) {
		ins, err := Decode(unhex(t, "2E 65 8B 00"), Mode32, DecodeAll)
		require.NoError(t, err)
		assert.Equal(t, PrefixGS, ins.Segment)
	})
}

func TestDecodeRex(t *testing.T) {
	t.Run("rex before opcode", func(t *testing.T) {
		ins, err := Decode(unhex(t, "4C 8B C0"), Mode64, DecodeAll)
		require.NoError(t, err)
		assert.Equal(t, byte(0x4C), ins.Rex)
		assert.True(t, ins.Has(PrefixRexW|PrefixRexR))
		assert.False(t, ins.Has(PrefixRexB))
	})

	t.Run("legacy prefix after rex drops it", func(t *testing.T) {
		ins, err := Decode(unhex(t, "48 66 B8 01 00"), Mode64, DecodeAll)
		require.NoError(t, err)
		assert.Zero(t, ins.Rex)
		assert.False(t, ins.Has(PrefixRexW))
		assert.Equal(t, 5, ins.Length)
	})

	t.Run("rex after legacy prefix", func(t *testing.T) {
		ins, err := Decode(unhex(t, "66 48 B8 01 00 00 00 00 00 00 00"), Mode64, DecodeAll)
		require.NoError(t, err)
		assert.True(t, ins.Has(PrefixRexW))
		assert.Equal(t, 11, ins.Length)
	})

	t.Run("40 is an opcode outside long mode", func(t *testing.T) {
		ins, err := Decode(unhex(t, "40"), Mode32, DecodeAll)
		require.NoError(t, err)
		assert.Zero(t, ins.Rex)
		assert.Equal(t, byte(0x40), ins.Opcode)
	})
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		mode  Mode
		flags DecoderFlags
		want  error
	}{
		{"empty", "", Mode32, DecodeAll, ErrTruncated},
		{"push es in long mode", "06", Mode64, DecodeAll, ErrInvalidEncoding},
		{"lone rex", "48", Mode64, DecodeAll, ErrTruncated},
		{"missing modrm", "8B", Mode32, DecodeAll, ErrTruncated},
		{"missing immediate", "81 EC 70 01", Mode32, DecodeAll, ErrTruncated},
		{"missing escape byte", "0F", Mode32, DecodeAll, ErrTruncated},
		{"lea with register", "8D C0", Mode32, DecodeAll, ErrInvalidEncoding},
		{"group 5 reg 7", "FF F8", Mode32, DecodeAll, ErrInvalidEncoding},
		{"far call register form", "FF D8", Mode32, DecodeAll, ErrInvalidEncoding},
		{"vex escape in long mode", "C5 F8 77", Mode64, DecodeAll, ErrInvalidEncoding},
		{"xop escape", "8F E8 78 C0", Mode32, DecodeAll, ErrInvalidEncoding},
		{"far jump in long mode", "EA 78 56 34 12 08 00", Mode64, 0, ErrInvalidEncoding},
		{"undefined 0f opcode", "0F 04", Mode32, DecodeAll, ErrInvalidOpcode},
		{"undefined 0f opcode 0f 24", "0F 24 C0", Mode32, DecodeAll, ErrInvalidOpcode},
		{"3dnow", "0F 0F C1 B4", Mode32, 0, ErrInvalidOpcode},
		{"undefined 0f38 opcode", "0F 38 36 C0", Mode32, DecodeAll, ErrInvalidOpcode},
		{"undefined 0f3a opcode", "0F 3A FF C0 00", Mode32, DecodeAll, ErrInvalidOpcode},
		{"pshufb with rep", "F3 0F 38 00 C1", Mode32, DecodeAll, ErrInvalidEncoding},
		{"pinsrb without 66", "0F 3A 20 C1 01", Mode32, DecodeAll, ErrInvalidEncoding},
		{"lock on register form", "F0 01 D8", Mode32, DecodeAll, ErrInvalidEncoding},
		{"lock on mov", "F0 8B 00", Mode32, DecodeAll, ErrInvalidEncoding},
		{"over long", strings.Repeat("66 ", 15) + "90", Mode32, DecodeAll, ErrInvalidEncoding},
		{"prefixes only", strings.Repeat("66 ", 15), Mode32, DecodeAll, ErrTruncated},
		{"unknown mode", "90", Mode(8), DecodeAll, ErrInvalidEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, err := Decode(unhex(t, tt.code), tt.mode, tt.flags)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, ins.Valid())

			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		})
	}
}

func TestDecodeErrorOffset(t *testing.T) {
	_, err := Decode(unhex(t, "8D C0"), Mode32, DecodeAll)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Offset)
	assert.Contains(t, de.Error(), "offset 2")
}

func TestDecodeWithoutValidityCheck(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		mode   Mode
		length int
	}{
		{"push es in long mode", "06", Mode64, 1},
		{"lea with register", "8D C0", Mode32, 2},
		{"lock on register form", "F0 01 D8", Mode32, 3},
		{"undefined 0f opcode", "0F 04", Mode32, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, err := Decode(unhex(t, tt.code), tt.mode, DecodeAll&^DecodeValidityCheck)
			require.NoError(t, err)
			assert.Equal(t, tt.length, ins.Length)
		})
	}
}

func TestValidSingleByteOpcodes(t *testing.T) {
	ops := []byte{
		0xCC, 0x90, 0xC3, 0x9C, 0x9D, 0xCB, 0xC9, 0xF1, 0x06, 0x16, 0x1E, 0x0E, 0x07, 0x17, 0x1F,
		0x27, 0x37, 0x2F, 0x3F, 0xD7, 0x9B, 0xF4, 0xF5, 0x9E, 0x9F, 0xCE, 0xCF, 0x98, 0x99, 0xD6,
		0xF8, 0xF9, 0xFA, 0xFB, 0xFC, 0xFD,
	}
	for _, op := range ops {
		ins, err := Decode([]byte{op}, Mode32, DecodeAll)
		require.NoError(t, err, "opcode %02X", op)
		assert.Equal(t, 1, ins.Length, "opcode %02X", op)

		s, err := Format(&ins, nil, FormatDefault)
		require.NoError(t, err)
		assert.NotContains(t, s, "(bad)", "opcode %02X", op)
	}
}

func TestValidTwoByteOpcodes(t *testing.T) {
	ops := []byte{
		0x05, 0x06, 0x07, 0x08, 0x09, 0x0B, 0x0E, 0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x37,
		0x77, 0xA0, 0xA1, 0xA2, 0xA8, 0xA9, 0xAA,
	}
	for _, op := range ops {
		ins, err := Decode([]byte{0x0F, op}, Mode32, DecodeAll)
		require.NoError(t, err, "opcode 0F %02X", op)
		assert.Equal(t, 2, ins.Length, "opcode 0F %02X", op)
		assert.Equal(t, Map0F, ins.Map)

		s, err := Format(&ins, nil, FormatDefault)
		require.NoError(t, err)
		assert.Equal(t, twoByteBare[op], s)
	}
}

func TestDecodeLengthStream(t *testing.T) {
	buf := unhex(t, "8B EC 83 E4 F8 81 EC 70 01 00 00 A1 60 33 82 77 33 C4")
	var lengths []int
	for off := 0; off < len(buf); {
		n, ok := DecodeLength(buf[off:], Mode32)
		require.True(t, ok, "offset %d", off)
		lengths = append(lengths, n)
		off += n
	}
	assert.Equal(t, []int{2, 3, 6, 5, 2}, lengths)
}

// corpus holds encodings that are valid in the given mode.
var corpus = []struct {
	code string
	mode Mode
}{
	{"33 C0", Mode32},
	{"8B EC", Mode32},
	{"83 E4 F8", Mode32},
	{"81 EC 70 01 00 00", Mode32},
	{"A1 60 33 82 77", Mode32},
	{"8B 65 E8", Mode32},
	{"8B 04 88", Mode32},
	{"8B 04 25 00 10 00 00", Mode32},
	{"64 A1 30 00 00 00", Mode32},
	{"E8 00 00 00 00", Mode32},
	{"0F 84 10 00 00 00", Mode32},
	{"0F 1F 44 00 00", Mode32},
	{"0F B6 C1", Mode32},
	{"0F AF 45 08", Mode32},
	{"66 0F 6F C1", Mode32},
	{"F3 0F 10 45 F8", Mode32},
	{"66 0F 38 00 C1", Mode32},
	{"66 0F 3A 0F C1 08", Mode32},
	{"F0 01 18", Mode32},
	{"F3 A4", Mode32},
	{"C2 08 00", Mode32},
	{"6A FF", Mode32},
	{"DD 45 F8", Mode32},
	{"8B 46 FE", Mode16},
	{"B8 34 12", Mode16},
	{"E8 FD FF", Mode16},
	{"48 8B 05 10 00 00 00", Mode64},
	{"4C 8B C0", Mode64},
	{"41 50", Mode64},
	{"48 83 EC 28", Mode64},
	{"48 B8 88 77 66 55 44 33 22 11", Mode64},
	{"0F 05", Mode64},
}

func TestTruncatedPrefixes(t *testing.T) {
	for _, c := range corpus {
		buf := unhex(t, c.code)
		full, err := Decode(buf, c.mode, DecodeAll)
		require.NoError(t, err, c.code)
		require.Equal(t, len(buf), full.Length, c.code)

		for n := 0; n < len(buf); n++ {
			_, err := Decode(buf[:n], c.mode, DecodeAll)
			assert.ErrorIs(t, err, ErrTruncated, "%s cut at %d", c.code, n)

			_, ok := DecodeLength(buf[:n], c.mode)
			assert.False(t, ok, "%s cut at %d", c.code, n)
		}
	}
}

func TestDecodeLengthMatchesDecode(t *testing.T) {
	for _, c := range corpus {
		buf := unhex(t, c.code)
		ins, err := Decode(buf, c.mode, DecodeValidityCheck)
		n, ok := DecodeLength(buf, c.mode)
		if err != nil {
			assert.False(t, ok, c.code)
			continue
		}
		assert.True(t, ok, c.code)
		assert.Equal(t, ins.Length, n, c.code)
	}
}

func TestTrailingBytesIgnored(t *testing.T) {
	for _, c := range corpus {
		buf := unhex(t, c.code)
		padded := append(append([]byte{}, buf...), 0xCC, 0xCC, 0xCC, 0xCC)
		want, errWant := Decode(buf, c.mode, DecodeAll)
		got, errGot := Decode(padded, c.mode, DecodeAll)
		if errWant != nil {
			assert.Error(t, errGot, c.code)
			continue
		}
		require.NoError(t, errGot, c.code)
		assert.Equal(t, want, got, c.code)
	}
}

func TestDecodeFlagsDoNotChangeResult(t *testing.T) {
	for _, c := range corpus {
		buf := unhex(t, c.code)
		a, errA := Decode(buf, c.mode, DecodeAll)
		b, errB := Decode(buf, c.mode, DecodeMinimal)
		if errA != nil {
			assert.Error(t, errB, c.code)
			continue
		}
		require.NoError(t, errB, c.code)
		b.Flags = a.Flags
		assert.Equal(t, a, b, c.code)
	}
}

func TestModeSensitivity(t *testing.T) {
	buf := unhex(t, "B8 01 00 00 00")
	for mode, want := range map[Mode]int{Mode16: 3, Mode32: 5, Mode64: 5} {
		ins, err := Decode(buf, mode, DecodeAll)
		require.NoError(t, err)
		assert.Equal(t, want, ins.Length, mode.String())
	}

	_, err := Decode([]byte{0x06}, Mode32, DecodeAll)
	assert.NoError(t, err)
	_, err = Decode([]byte{0x06}, Mode64, DecodeAll)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}
