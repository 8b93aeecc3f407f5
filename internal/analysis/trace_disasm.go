package analysis

import (
	"fmt"
	"strings"

	"disx86/internal/disasm"
	"disx86/internal/elfx"
	"disx86/internal/x86"
)

// Image is what the annotator needs from a loaded binary.
type Image interface {
	Memory
	Lookup(va uint64) (elfx.Symbol, uint64, bool)
	InRodata(va uint64) bool
	IsPLTEntry(va uint64) bool
}

// CallFinding records a direct call seen in the listing.
type CallFinding struct {
	CallVA   uint64
	TargetVA uint64
	Target   string // demangled symbol name, empty when unknown
	Symbol   string // original symbol name
	PLT      bool
}

// AnnotatedInst represents a disassembled instruction with annotations
type AnnotatedInst struct {
	VA          uint64
	Bytes       []byte
	Mnemonic    string
	Operands    string
	Annotations []string // Comments to display
}

// IsLabel reports whether a is a label line rather than an instruction.
func (a AnnotatedInst) IsLabel() bool { return strings.HasSuffix(a.Mnemonic, ":") }

// String formats the instruction with fixed columns and a trailing
// "; comment". The result is plain text, colorizing happens afterwards.
func (a AnnotatedInst) String() string {
	if a.IsLabel() {
		return fmt.Sprintf("%x  %s", a.VA, a.Mnemonic)
	}

	addr := fmt.Sprintf("%x", a.VA)
	base := fmt.Sprintf("%-10s %-6s %-30s", addr, a.Mnemonic, a.Operands)
	if len(a.Annotations) > 0 {
		return fmt.Sprintf("%s ; %s", base, strings.Join(a.Annotations, ", "))
	}
	return strings.TrimRight(base, " ")
}

// AnnotatorResult contains both annotated listing and semantic findings
type AnnotatorResult struct {
	Listing  []AnnotatedInst
	Findings []CallFinding
}

// Text joins the listing lines.
func (r *AnnotatorResult) Text() string {
	var sb strings.Builder
	for _, a := range r.Listing {
		sb.WriteString(a.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// TraceDisasm disassembles up to maxInsns instructions starting at startVA
// and annotates them.
func TraceDisasm(img *elfx.Image, startVA uint64, maxInsns int, flags x86.FormatFlags) (*AnnotatorResult, error) {
	if maxInsns <= 0 {
		maxInsns = MaxTraceInstructions
	}
	data := img.ReadAtMost(startVA, maxInsns*x86.MaxLength)
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to read code at %x", startVA)
	}
	s := disasm.Disassemble(data, startVA, disasm.Options{
		Mode:     img.Mode,
		Flags:    flags &^ x86.FormatBytes,
		Absolute: true,
		Max:      maxInsns,
	})
	return Annotate(img, s), nil
}

// Annotate labels local branch targets and symbol starts, replaces local
// branch operands with their labels and comments calls and RIP-relative
// references with the symbol or string they reach.
func Annotate(img Image, s disasm.Stream) *AnnotatorResult {
	result := &AnnotatorResult{Listing: make([]AnnotatedInst, 0, len(s))}
	if len(s) == 0 {
		return result
	}
	start, end := s[0].VA, s[len(s)-1].VA+uint64(s[len(s)-1].Len)

	// First pass: local branch targets that start an instruction.
	localLabels := make(map[uint64]string)
	for _, in := range s {
		if !in.HasTarget || in.Call || in.Target < start || in.Target >= end {
			continue
		}
		if _, ok := s.Find(in.Target); ok {
			localLabels[in.Target] = fmt.Sprintf("loc_%x", in.Target)
		}
	}

	for _, in := range s {
		if sym, off, ok := img.Lookup(in.VA); ok && off == 0 {
			result.Listing = append(result.Listing, AnnotatedInst{VA: in.VA, Mnemonic: CachedDemangle(sym.Name) + ":"})
		} else if label, ok := localLabels[in.VA]; ok {
			result.Listing = append(result.Listing, AnnotatedInst{VA: in.VA, Mnemonic: label + ":"})
		}

		a := AnnotatedInst{
			VA:       in.VA,
			Bytes:    in.Raw,
			Mnemonic: in.Op,
			Operands: in.Operands,
		}
		if in.Err != nil {
			a.Annotations = append(a.Annotations, fmt.Sprintf("db %02xh", in.Raw[0]))
			result.Listing = append(result.Listing, a)
			continue
		}

		switch {
		case in.HasTarget && in.Call:
			finding := CallFinding{CallVA: in.VA, TargetVA: in.Target, PLT: img.IsPLTEntry(in.Target)}
			if sym, _, ok := img.Lookup(in.Target); ok {
				finding.Symbol = sym.Name
			}
			if name, ok := symbolize(img, in.Target); ok {
				finding.Target = name
				a.Annotations = append(a.Annotations, name)
			}
			result.Findings = append(result.Findings, finding)

		case in.HasTarget:
			if label, ok := localLabels[in.Target]; ok {
				a.Operands = label
			} else if name, ok := symbolize(img, in.Target); ok {
				a.Annotations = append(a.Annotations, name)
			}
		}

		if in.HasRef {
			if str, ok := TryResolveCString(img, in.Ref); ok && img.InRodata(in.Ref) {
				a.Annotations = append(a.Annotations, `"`+str+`"`)
			} else if name, ok := symbolize(img, in.Ref); ok {
				a.Annotations = append(a.Annotations, name)
			}
		}
		result.Listing = append(result.Listing, a)
	}
	return result
}
