package analysis

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Memory reads bytes from a loaded image.
type Memory interface {
	ReadAtMost(va uint64, n int) []byte
}

// EscapeUnprintable returns a string where printable Unicode runes are preserved.
// Control and unprintable runes are escaped as \uXXXX. Invalid UTF-8 is escaped as \xXX.
func EscapeUnprintable(b []byte) string {
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&sb, "\\x%02X", b[0])
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\t':
			sb.WriteString(`\t`)
		case unicode.IsPrint(r):
			sb.WriteRune(r)
		default:
			fmt.Fprintf(&sb, "\\u%04X", r)
		}
		b = b[size:]
	}
	return sb.String()
}

// ReadAndEscapeString reads a NUL-terminated string of at most maxLen
// bytes at va. An unterminated read of maxLen bytes is returned whole.
func ReadAndEscapeString(mem Memory, va uint64, maxLen int) (escaped string, length int, ok bool) {
	raw := mem.ReadAtMost(va, maxLen)
	if len(raw) == 0 {
		return "", 0, false
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	} else if len(raw) < maxLen {
		return "", 0, false
	}
	return EscapeUnprintable(raw), len(raw), true
}

// TryResolveCString returns the escaped string at addr when it looks like
// text.
func TryResolveCString(mem Memory, addr uint64) (string, bool) {
	raw := mem.ReadAtMost(addr, MaxStringLength)
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	if len(raw) < minStringLength || !utf8.Valid(raw) {
		return "", false
	}
	printable := 0
	for _, r := range string(raw) {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			printable++
		}
	}
	if printable*10 < utf8.RuneCount(raw)*9 {
		return "", false
	}
	return EscapeUnprintable(raw), true
}
