package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/arch/x86/x86asm"

	"disx86/internal/elfx"
	"disx86/internal/x86"
)

var errMismatch = errors.New("instruction lengths differ")

var verifyCmd = &cobra.Command{
	Use:   "verify [file | hex...]",
	Short: "Cross-check instruction lengths against golang.org/x/arch",
	Long: `Sweep a byte buffer and compare every instruction length with x86asm.
An ELF file is checked over its executable section; anything else is read as
hex. Encodings x86asm accepts but this decoder rejects (VEX, EVEX, 3DNow!)
are counted separately and only fail the run with --strict.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		strict, _ := cmd.Flags().GetBool("strict")

		code, mode, err := verifyInput(args, s)
		if err != nil {
			return err
		}
		rep := verifyLengths(code, mode, s.address)
		rep.write(cmd.OutOrStdout())
		if len(rep.Mismatches) > 0 || (strict && rep.Rejected > 0) {
			return fmt.Errorf("%w: %d mismatches, %d rejected", errMismatch, len(rep.Mismatches), rep.Rejected)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().Bool("strict", false, "Fail on encodings only x86asm accepts")
	rootCmd.AddCommand(verifyCmd)
}

func verifyInput(args []string, s settings) ([]byte, x86.Mode, error) {
	if len(args) == 1 {
		if _, err := os.Stat(args[0]); err == nil {
			img, err := elfx.Open(args[0])
			if err != nil {
				return nil, 0, err
			}
			defer img.Close()
			text, ok := img.TextBytes()
			if !ok {
				return nil, 0, fmt.Errorf("no executable section in %s", args[0])
			}
			mode := img.Mode
			if s.modeSet {
				mode = s.mode
			}
			// The image is unmapped on return.
			return append([]byte(nil), text...), mode, nil
		}
	}
	input := strings.Join(args, " ")
	if input == "" {
		var err error
		if input, err = MaybePrependStdin(""); err != nil {
			return nil, 0, err
		}
	}
	code, err := parseHex(input)
	return code, s.mode, err
}

type mismatch struct {
	Offset int
	Ours   int
	Theirs int
	Text   string
}

type verifyReport struct {
	Checked    int
	Rejected   int
	Mismatches []mismatch
}

// verifyLengths walks code the way a linear sweep would, following this
// decoder's boundaries.
func verifyLengths(code []byte, mode x86.Mode, base uint64) verifyReport {
	var rep verifyReport
	for off := 0; off < len(code); {
		ours, ok := x86.DecodeLength(code[off:], mode)
		ref, err := x86asm.Decode(code[off:], int(mode))
		rep.Checked++

		switch {
		case ok && err == nil && ours != ref.Len:
			rep.Mismatches = append(rep.Mismatches, mismatch{
				Offset: off, Ours: ours, Theirs: ref.Len,
				Text: x86asm.IntelSyntax(ref, base+uint64(off), nil),
			})
		case !ok && err == nil:
			rep.Rejected++
		}

		switch {
		case ok:
			off += ours
		case err == nil:
			off += ref.Len
		default:
			off++
		}
	}
	return rep
}

func (r verifyReport) write(w io.Writer) {
	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "%08x  ours=%d x86asm=%d  %s\n", m.Offset, m.Ours, m.Theirs, m.Text)
	}
	fmt.Fprintf(w, "%d instructions, %d mismatches, %d rejected\n", r.Checked, len(r.Mismatches), r.Rejected)
}
