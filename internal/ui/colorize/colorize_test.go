package colorize

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enableColor(t *testing.T) {
	t.Helper()
	if v, ok := os.LookupEnv(EnvNoColor); ok {
		require.NoError(t, os.Unsetenv(EnvNoColor))
		t.Cleanup(func() { _ = os.Setenv(EnvNoColor, v) })
	}
}

func TestNoColor(t *testing.T) {
	t.Setenv(EnvNoColor, "1")
	assert.False(t, Enabled())

	line := "401000     mov    esp,[ebp-18h]"
	assert.Equal(t, line, ColorizeInstructionLine(line))

	out, err := ColorizeAssembly("ret\n")
	require.NoError(t, err)
	assert.Equal(t, "ret\n", out)
}

func TestColorizeInstructionLine(t *testing.T) {
	enableColor(t)
	require.True(t, Enabled())

	tests := []string{
		"401000     mov    esp,[ebp-18h]",
		"10         call   1010h                          ; puts@plt",
		"401000  main:",
		"push ebp",
	}
	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			out := ColorizeInstructionLine(line)
			assert.Contains(t, out, "\x1b[")
			assert.Equal(t, line, StripANSI(out))
		})
	}
}

func TestAddressIsGray(t *testing.T) {
	enableColor(t)
	out := ColorizeInstructionLine("401000     ret")
	assert.True(t, strings.HasPrefix(out, addressColor+"401000"+reset))
}

func TestLabelLine(t *testing.T) {
	enableColor(t)
	out := ColorizeInstructionLine("401000  loc_401000:")
	assert.Contains(t, out, labelColor+" loc_401000:"+reset)
}

func TestColorizeAssemblyKeepsNewlines(t *testing.T) {
	enableColor(t)
	code := "push ebp\nmov ebp,esp\n"
	out, err := ColorizeAssembly(code)
	require.NoError(t, err)
	assert.Equal(t, code, StripANSI(out))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "mov", StripANSI("\x1b[38;2;255;255;255mmov\x1b[0m"))
	assert.Equal(t, 3, VisibleWidth("\x1b[1mret\x1b[0m"))
	assert.Equal(t, 0, VisibleWidth(""))
}

func TestStyleRegistered(t *testing.T) {
	assert.Equal(t, "disasm-dark", getDisasmStyle().Name)
}
