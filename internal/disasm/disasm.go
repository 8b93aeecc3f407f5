// Package disasm turns a run of x86 machine code into a linear stream of
// formatted instructions.
package disasm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"disx86/internal/x86"
)

// Bad is the text of a byte that does not start a valid instruction.
const Bad = "(bad)"

// Inst is one decoded instruction at a known address.
type Inst struct {
	VA       uint64 // virtual address of instruction
	Len      int
	Raw      []byte // aliases the input buffer
	Text     string // formatted disassembly string
	Op       string // mnemonic in lowercase, prefixes stripped
	Operands string

	Call      bool
	Target    uint64 // relative branch destination
	HasTarget bool
	Ref       uint64 // RIP-relative memory operand
	HasRef    bool

	Err error // set for Bad entries
}

// Stream is a linear sequence of instructions.
type Stream []Inst

// Options configure a disassembly run.
type Options struct {
	Mode  x86.Mode
	Flags x86.FormatFlags
	// Absolute renders branch and RIP-relative targets as addresses
	// instead of "$+n" and "rip+n".
	Absolute bool
	// Max stops after this many instructions when positive.
	Max int
}

// Disassemble decodes code as if it were loaded at va. Bytes that do not
// decode become one-byte Bad entries and decoding resumes after them.
func Disassemble(code []byte, va uint64, opts Options) Stream {
	offs := Boundaries(code, opts.Mode, opts.Max)
	out := make(Stream, len(offs))
	for i, off := range offs {
		out[i] = decodeAt(code, off, va, opts)
	}
	return out
}

// DisassembleParallel produces the same stream as Disassemble. Boundaries
// are found serially, then chunks are formatted on up to workers
// goroutines.
func DisassembleParallel(ctx context.Context, code []byte, va uint64, opts Options, workers int) (Stream, error) {
	if workers < 1 {
		workers = 1
	}
	offs := Boundaries(code, opts.Mode, opts.Max)
	out := make(Stream, len(offs))

	chunk := (len(offs) + workers - 1) / workers
	if chunk < 256 {
		chunk = 256
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(offs); start += chunk {
		end := min(start+chunk, len(offs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				out[i] = decodeAt(code, offs[i], va, opts)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("disassemble: %w", err)
	}
	return out, nil
}

// Boundaries returns the offset of every instruction in code. An offset
// that does not decode advances by one byte.
func Boundaries(code []byte, mode x86.Mode, limit int) []int {
	offs := make([]int, 0, len(code)/3)
	for off := 0; off < len(code); {
		if limit > 0 && len(offs) == limit {
			break
		}
		offs = append(offs, off)
		n, ok := x86.DecodeLength(code[off:], mode)
		if !ok {
			n = 1
		}
		off += n
	}
	return offs
}

func decodeAt(code []byte, off int, base uint64, opts Options) Inst {
	va := base + uint64(off)
	ins, err := x86.Decode(code[off:], opts.Mode, x86.DecodeAll)
	if err != nil {
		return Inst{VA: va, Len: 1, Raw: code[off : off+1], Text: Bad, Op: Bad, Err: err}
	}

	var rt *uint64
	if opts.Absolute {
		rt = &va
	}
	text, err := x86.Format(&ins, rt, opts.Flags)
	if err != nil {
		return Inst{VA: va, Len: 1, Raw: code[off : off+1], Text: Bad, Op: Bad, Err: err}
	}

	in := Inst{
		VA:   va,
		Len:  ins.Length,
		Raw:  code[off : off+ins.Length],
		Text: text,
		Call: ins.IsCall(),
	}
	in.Target, in.HasTarget = ins.BranchTarget(va)
	in.Ref, in.HasRef = ins.MemoryTarget(va)

	body := text
	if opts.Flags&x86.FormatBytes != 0 {
		body = body[3*max(ins.Length, x86.BytesColumn):]
	}
	in.Op, in.Operands = splitMnemonic(body)
	return in
}

var prefixWords = map[string]bool{
	"lock": true, "rep": true, "repe": true, "repne": true,
	"bnd": true, "xacquire": true, "xrelease": true,
}

func splitMnemonic(s string) (op, operands string) {
	for {
		word, rest, _ := strings.Cut(s, " ")
		word = strings.ToLower(word)
		if prefixWords[word] && rest != "" {
			s = rest
			continue
		}
		return word, rest
	}
}

// Find returns the index of the instruction starting at va.
func (s Stream) Find(va uint64) (int, bool) {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s[mid].VA == va:
			return mid, true
		case s[mid].VA < va:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

// BadCount counts the entries that failed to decode.
func (s Stream) BadCount() int {
	n := 0
	for _, in := range s {
		if in.Err != nil {
			n++
		}
	}
	return n
}
