package x86

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchTarget(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		mode   Mode
		addr   uint64
		target uint64
		ok     bool
	}{
		{"call rel32", "E8 00 00 00 00", Mode32, 0x401000, 0x401005, true},
		{"jmp short back", "EB FE", Mode32, 0x1000, 0x1000, true},
		{"jcc near", "0F 84 10 00 00 00", Mode64, 0x1000, 0x1016, true},
		{"jcxz", "E3 02", Mode32, 0x10, 0x14, true},
		{"wraps in 32-bit", "E9 F0 FF FF FF", Mode32, 0x0, 0xFFFFFFF5, true},
		{"wraps in 16-bit", "EB 80", Mode16, 0x10, 0xFF92, true},
		{"xbegin", "C7 F8 00 00 00 00", Mode32, 0x100, 0x106, true},
		{"not a branch", "90", Mode32, 0x100, 0, false},
		{"indirect call", "FF D0", Mode64, 0x100, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, err := Decode(unhex(t, tt.code), tt.mode, DecodeAll)
			require.NoError(t, err)
			target, ok := ins.BranchTarget(tt.addr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.target, target)
		})
	}
}

func TestIsCall(t *testing.T) {
	call, err := Decode(unhex(t, "E8 00 00 00 00"), Mode32, DecodeAll)
	require.NoError(t, err)
	assert.True(t, call.IsCall())

	jmp, err := Decode(unhex(t, "EB 00"), Mode32, DecodeAll)
	require.NoError(t, err)
	assert.False(t, jmp.IsCall())

	var zero Instruction
	assert.False(t, zero.IsCall())
	assert.False(t, zero.IsRelativeBranch())
}

func TestMemoryTarget(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		mode   Mode
		addr   uint64
		target uint64
		ok     bool
	}{
		{"lea rip", "48 8D 05 10 00 00 00", Mode64, 0x1000, 0x1017, true},
		{"mov rip negative", "48 8B 05 F0 FF FF FF", Mode64, 0x1000, 0xFF7, true},
		{"eip with 67", "67 8B 05 00 00 00 00", Mode64, 0xFFFFFFF0, 0xFFFFFFF7, true},
		{"absolute in 32-bit", "8B 05 10 00 00 00", Mode32, 0x1000, 0, false},
		{"register operand", "48 89 C0", Mode64, 0x1000, 0, false},
		{"sib without base", "8B 04 25 10 00 00 00", Mode64, 0x1000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, err := Decode(unhex(t, tt.code), tt.mode, DecodeAll)
			require.NoError(t, err)
			target, ok := ins.MemoryTarget(tt.addr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.target, target)
		})
	}
}
