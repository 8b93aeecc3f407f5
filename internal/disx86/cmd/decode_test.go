package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nxadm/tail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disx86/internal/x86"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
		err   bool
	}{
		{name: "spaced", input: "55 48 89 E5", want: []byte{0x55, 0x48, 0x89, 0xE5}},
		{name: "packed", input: "554889e5", want: []byte{0x55, 0x48, 0x89, 0xE5}},
		{name: "0x and commas", input: "0x55, 0x48", want: []byte{0x55, 0x48}},
		{name: "c escapes", input: `\x55\x48`, want: []byte{0x55, 0x48}},
		{name: "comments", input: "55 # push\nC3 ; ret", want: []byte{0x55, 0xC3}},
		{name: "empty", input: "  \n", want: []byte{}},
		{name: "odd length", input: "5", err: true},
		{name: "not hex", input: "zz", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHex(tt.input)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunDecode(t *testing.T) {
	tests := []struct {
		name string
		code string
		s    settings
		want []string
		next uint64
	}{
		{
			name: "relative",
			code: "33 C0 8B EC C3",
			s:    settings{mode: x86.Mode32, flags: x86.FormatDefault},
			want: []string{"00000000  xor eax,eax", "00000002  mov ebp,esp", "00000004  ret"},
			next: 5,
		},
		{
			name: "absolute branch",
			code: "0F 85 FA FF FF FF",
			s:    settings{mode: x86.Mode32, flags: x86.FormatDefault, address: 0x2000, absolute: true},
			want: []string{"00002000  jne 2000h"},
			next: 0x2006,
		},
		{
			name: "max",
			code: "33 C0 8B EC C3",
			s:    settings{mode: x86.Mode32, flags: x86.FormatDefault, max: 1},
			want: []string{"00000000  xor eax,eax"},
			next: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := parseHex(tt.code)
			require.NoError(t, err)
			var buf bytes.Buffer
			next, err := runDecode(&buf, code, tt.s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"))
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestRunDecodeBadByte(t *testing.T) {
	var buf bytes.Buffer
	_, err := runDecode(&buf, []byte{0x06, 0xC3}, settings{mode: x86.Mode64, flags: x86.FormatDefault})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "00000000  (bad)"), lines[0])
	assert.Contains(t, lines[0], "; 06:")
	assert.Equal(t, "00000001  ret", lines[1])
}

func TestFollowLines(t *testing.T) {
	lines := make(chan *tail.Line, 4)
	lines <- &tail.Line{Text: "33 C0"}
	lines <- &tail.Line{Text: "not hex"}
	lines <- &tail.Line{Text: ""}
	lines <- &tail.Line{Text: "C3"}
	close(lines)

	var buf bytes.Buffer
	s := settings{mode: x86.Mode32, flags: x86.FormatDefault, address: 0x1000}
	require.NoError(t, followLines(context.Background(), lines, &buf, s))
	assert.Equal(t, "00001000  xor eax,eax\n00001002  ret\n", buf.String())
}

func TestFollowLinesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- followLines(ctx, make(chan *tail.Line), &bytes.Buffer{}, settings{mode: x86.Mode64})
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("followLines did not return after cancel")
	}
}

func TestDecodeCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"decode", "-m", "32", "--no-color", "33 C0", "C3"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "00000000  xor eax,eax\n00000002  ret\n", buf.String())
}
