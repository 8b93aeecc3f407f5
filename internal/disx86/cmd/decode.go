package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"disx86/internal/disasm"
	"disx86/internal/ui/colorize"
	"disx86/internal/x86"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [hex...]",
	Short: "Disassemble hex bytes",
	Long: `Decode hex bytes given as arguments, read from stdin, or loaded from a
binary file with --file. Spaces, commas, 0x and \x are ignored; text after
# or ; is a comment.`,
	Example: `
disx86 decode 55 48 89 E5
echo "8B 65 E8" | disx86 decode -m 32
disx86 decode -a 0x401000 --bytes --file shellcode.bin
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if withBytes, _ := cmd.Flags().GetBool("bytes"); withBytes {
			s.flags |= x86.FormatBytes
		}

		var code []byte
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			code, err = os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
		} else {
			input := strings.Join(args, " ")
			if input == "" {
				input, err = MaybePrependStdin("")
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
			}
			code, err = parseHex(input)
			if err != nil {
				return err
			}
		}
		if len(code) == 0 {
			return fmt.Errorf("no input bytes")
		}
		_, err = runDecode(cmd.OutOrStdout(), code, s)
		return err
	},
}

func init() {
	decodeCmd.Flags().Bool("bytes", false, "Show encoding bytes before each instruction")
	decodeCmd.Flags().StringP("file", "f", "", "Read raw bytes from this file")
	rootCmd.AddCommand(decodeCmd)
}

// runDecode writes one line per instruction and returns the address after
// the last byte.
func runDecode(w io.Writer, code []byte, s settings) (uint64, error) {
	stream := disasm.Disassemble(code, s.address, disasm.Options{
		Mode:     s.mode,
		Flags:    s.flags,
		Absolute: s.absolute,
		Max:      s.max,
	})
	next := s.address
	for _, in := range stream {
		text := in.Text
		if in.Err != nil {
			text = fmt.Sprintf("%-6s ; %02x: %v", disasm.Bad, in.Raw[0], in.Err)
		}
		line := fmt.Sprintf("%08x  %s", in.VA, text)
		if s.color {
			line = colorize.ColorizeInstructionLine(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return next, err
		}
		next = in.VA + uint64(in.Len)
	}
	return next, nil
}

// parseHex accepts "55 48 89 e5", "554889e5", "0x55,0x48" and "\x55\x48".
func parseHex(input string) ([]byte, error) {
	var sb strings.Builder
	for _, line := range strings.Split(input, "\n") {
		if i := strings.IndexAny(line, "#;"); i >= 0 {
			line = line[:i]
		}
		for _, tok := range strings.FieldsFunc(line, func(r rune) bool { return unicode.IsSpace(r) || r == ',' }) {
			tok = strings.ReplaceAll(tok, `\x`, "")
			tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
			sb.WriteString(tok)
		}
	}
	b, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("bad hex input: %w", err)
	}
	return b, nil
}

// MaybePrependStdin returns stdin followed by prompt when stdin is a pipe.
func MaybePrependStdin(prompt string) (string, error) {
	if term.IsTerminal(os.Stdin.Fd()) {
		return prompt, nil
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return prompt, err
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		return prompt, nil
	}
	bts, err := io.ReadAll(os.Stdin)
	if err != nil {
		return prompt, err
	}
	return string(bts) + prompt, nil
}
