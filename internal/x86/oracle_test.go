package x86

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

// TestLengthsAgainstX86asm cross-checks instruction lengths with the Go
// team's decoder for encodings both sides handle the same way.
func TestLengthsAgainstX86asm(t *testing.T) {
	for _, c := range corpus {
		buf := unhex(t, c.code)
		ins, err := Decode(buf, c.mode, DecodeAll)
		require.NoError(t, err, c.code)

		ref, err := x86asm.Decode(buf, int(c.mode))
		require.NoError(t, err, c.code)
		assert.Equal(t, ref.Len, ins.Length, c.code)
	}
}
