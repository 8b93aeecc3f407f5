// Package colorize highlights Intel-syntax x86 listings for the terminal
// with chroma.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// EnvNoColor disables highlighting when set to any value.
const EnvNoColor = "DISX86_NO_COLOR"

const (
	addressColor = "\033[38;2;79;79;79m"
	labelColor   = "\033[38;2;255;215;0m"
	reset        = "\033[0m"
)

// Enabled reports whether highlighting is on.
func Enabled() bool {
	_, off := os.LookupEnv(EnvNoColor)
	return !off
}

// getAssemblyLexer returns an Intel-syntax lexer, falling back to GAS.
func getAssemblyLexer() chroma.Lexer {
	for _, name := range []string{"nasm", "gas"} {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getDisasmStyle returns the disassembly style with fallbacks
func getDisasmStyle() *chroma.Style {
	for _, name := range []string{DisasmDark.Name, "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeAssembly highlights a block of assembly text.
func ColorizeAssembly(code string) (string, error) {
	if !Enabled() {
		return code, nil
	}
	lexer := getAssemblyLexer()
	if lexer == nil {
		return code, nil
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getDisasmStyle(), iterator); err != nil {
		return code, err
	}
	out := buf.String()
	// Some lexers append a newline to the final line.
	if !strings.HasSuffix(code, "\n") {
		if i := strings.LastIndexByte(out, '\n'); i >= 0 && StripANSI(out[i+1:]) == "" {
			out = out[:i] + out[i+1:]
		}
	}
	return out, nil
}

// ColorizeInstructionLine colorizes one listing line. A leading hex
// address is drawn in gray and label lines in gold; the rest goes through
// the lexer.
func ColorizeInstructionLine(line string) string {
	if !Enabled() {
		return line
	}

	addr, rest, ok := strings.Cut(line, " ")
	if !ok || !isHex(addr) {
		return colorizeFullLine(line)
	}

	if label := strings.TrimSpace(rest); strings.HasSuffix(label, ":") && !strings.Contains(label, " ") {
		return fmt.Sprintf("%s%s%s %s%s%s", addressColor, addr, reset, labelColor, rest, reset)
	}
	return fmt.Sprintf("%s%s%s %s", addressColor, addr, reset, colorizeFullLine(rest))
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F') {
			return false
		}
	}
	return true
}

func colorizeFullLine(line string) string {
	out, err := ColorizeAssembly(line)
	if err != nil {
		return line
	}
	return out
}

// StripANSI removes SGR escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

// VisibleWidth counts the runes of s outside escape sequences.
func VisibleWidth(s string) int {
	return len([]rune(StripANSI(s)))
}
