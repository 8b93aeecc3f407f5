package x86

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// FormatFlags control how Format renders an instruction.
type FormatFlags uint32

const (
	FormatHex                 FormatFlags = 1 << iota // numbers in base 16
	FormatPointerSize                                 // "dword ptr" before memory operands
	FormatOnlySegmentOverride                         // segment only when a prefix names it
	FormatCommaSpaces
	FormatOperatorSpaces
	FormatUppercase
	FormatHexPrefix0x
	FormatHexSuffixH
	FormatEnforceHexID // prefix or suffix even below 10
	FormatHexLowercase
	FormatSignedMemoryView // negative imm8 shown as its two's complement
	FormatSignedHintHex
	FormatSignedHintDec
	FormatScaleOne
	FormatBytes // encoding bytes before the text

	FormatDefault = FormatHex | FormatHexSuffixH | FormatOnlySegmentOverride |
		FormatSignedMemoryView | FormatSignedHintDec
)

// BytesColumn is the number of encoding bytes the FormatBytes column is
// padded to.
const BytesColumn = 10

var formatFlagNames = map[string]FormatFlags{
	"hex":                   FormatHex,
	"pointer-size":          FormatPointerSize,
	"only-segment-override": FormatOnlySegmentOverride,
	"comma-spaces":          FormatCommaSpaces,
	"operator-spaces":       FormatOperatorSpaces,
	"uppercase":             FormatUppercase,
	"hex-prefix-0x":         FormatHexPrefix0x,
	"hex-suffix-h":          FormatHexSuffixH,
	"enforce-hex-id":        FormatEnforceHexID,
	"hex-lowercase":         FormatHexLowercase,
	"signed-memory-view":    FormatSignedMemoryView,
	"signed-hint-hex":       FormatSignedHintHex,
	"signed-hint-dec":       FormatSignedHintDec,
	"scale-one":             FormatScaleOne,
	"bytes":                 FormatBytes,
}

// ParseFormatFlags turns flag names such as "hex" or "pointer-size" into a
// FormatFlags value. The name "default" expands to FormatDefault.
func ParseFormatFlags(names []string) (FormatFlags, error) {
	var f FormatFlags
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		switch n {
		case "":
			continue
		case "default":
			f |= FormatDefault
			continue
		}
		v, ok := formatFlagNames[n]
		if !ok {
			return 0, fmt.Errorf("x86: unknown format flag %q", n)
		}
		f |= v
	}
	return f, nil
}

// Names returns the sorted names of the set flags.
func (f FormatFlags) Names() []string {
	var out []string
	for n, v := range formatFlagNames {
		if f&v != 0 {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Format renders ins in Intel syntax. runtimeAddress, when non-nil, is the
// address ins was loaded at and turns relative branches and RIP-relative
// operands into absolute targets.
func Format(ins *Instruction, runtimeAddress *uint64, flags FormatFlags) (string, error) {
	if !ins.Valid() {
		return "", ErrNotDecoded
	}
	f := &formatter{ins: ins, flags: flags, buf: make([]byte, 0, 128)}
	if runtimeAddress != nil {
		f.addr, f.hasAddr = *runtimeAddress, true
	}
	f.format()
	return f.finish(), nil
}

// FormatString decodes the first instruction in buf and formats it.
func FormatString(buf []byte, mode Mode, runtimeAddress *uint64, flags FormatFlags) (string, int, error) {
	ins, err := Decode(buf, mode, DecodeAll)
	if err != nil {
		return "", 0, err
	}
	s, err := Format(&ins, runtimeAddress, flags)
	return s, ins.Length, err
}

type formatter struct {
	ins     *Instruction
	flags   FormatFlags
	addr    uint64
	hasAddr bool
	buf     []byte
}

func (f *formatter) s(str string) { f.buf = append(f.buf, str...) }
func (f *formatter) c(b byte)     { f.buf = append(f.buf, b) }

func (f *formatter) last() byte {
	if len(f.buf) == 0 {
		return 0
	}
	return f.buf[len(f.buf)-1]
}

func (f *formatter) has(p Prefix) bool { return f.ins.Prefixes&p != 0 }

func (f *formatter) num(n uint64) {
	if f.flags&FormatHex == 0 {
		f.buf = fmt.Appendf(f.buf, "%d", n)
		return
	}
	marked := n > 9 || f.flags&FormatEnforceHexID != 0
	if marked && f.flags&FormatHexPrefix0x != 0 {
		f.s("0x")
	}
	if f.flags&FormatHexLowercase != 0 {
		f.buf = fmt.Appendf(f.buf, "%x", n)
	} else {
		f.buf = fmt.Appendf(f.buf, "%X", n)
	}
	if marked && f.flags&FormatHexSuffixH != 0 {
		f.c('h')
	}
}

func (f *formatter) signed(n int64, plus bool) {
	if n < 0 {
		f.c('-')
		f.num(uint64(-n))
		return
	}
	if plus {
		f.c('+')
	}
	f.num(uint64(n))
}

// imm8 renders a sign-extended 8-bit immediate, honoring the memory view.
func (f *formatter) imm8() {
	ins := f.ins
	if f.flags&FormatSignedMemoryView == 0 || ins.Immediate&0xFF < 0x80 {
		f.signed(int64(int8(ins.Immediate)), false)
		return
	}
	var mask uint64 = 0xFFFFFF00
	switch {
	case f.has(PrefixOperandSize):
		mask = 0xFF00
	case ins.Mode == Mode64:
		mask = 0xFFFFFFFFFFFFFF00
	}
	f.num(mask | ins.Immediate&0xFF)
	switch {
	case f.flags&FormatSignedHintHex != 0:
		f.c('(')
		f.signed(int64(int8(ins.Immediate)), false)
		f.c(')')
	case f.flags&FormatSignedHintDec != 0:
		f.c('(')
		saved := f.flags
		f.flags &^= FormatHex
		f.signed(int64(int8(ins.Immediate)), false)
		f.flags = saved
		f.c(')')
	}
}

func signExtend(v uint64, width int) int64 {
	if width <= 0 || width >= 8 {
		return int64(v)
	}
	shift := uint(64 - 8*width)
	return int64(v<<shift) >> shift
}

// relative renders a branch target. Without a runtime address it is shown
// relative to the instruction start as "$+n".
func (f *formatter) relative() {
	ins := f.ins
	rel := signExtend(ins.Immediate, ins.ImmWidth) + int64(ins.Length)
	if !f.hasAddr {
		f.c('$')
		f.signed(rel, true)
		return
	}
	f.num(wrapMode(ins.Mode, f.addr+uint64(rel)))
}

func (f *formatter) format() {
	ins := f.ins
	if f.flags&FormatBytes != 0 {
		for _, b := range ins.Raw() {
			f.buf = fmt.Appendf(f.buf, "%02X ", b)
		}
		for i := ins.Length; i < BytesColumn; i++ {
			f.s("   ")
		}
	}

	op := ins.Opcode
	switch {
	case f.has(pRep) && (f.has(PrefixLock) ||
		ins.Map == MapDefault && (op == 0x86 || op == 0x87) && ins.ModRM.Mod() != 3):
		if ins.repeat == pF3 {
			f.s("xrelease ")
		} else {
			f.s("xacquire ")
		}
	case f.has(pF2) && ins.Map == MapDefault && (op == 0xC2 || op == 0xC3 || op == 0xE8 ||
		op == 0xE9 || hi(op) == 7 || op == 0xFF && (ins.ModRM.Reg() == 2 || ins.ModRM.Reg() == 4)):
		f.s("bnd ")
	}
	if f.has(PrefixLock) {
		f.s("lock ")
	}

	switch ins.Map {
	case MapDefault:
		f.oneByte()
	case Map0F:
		f.twoByte()
	case Map0F38:
		f.map0F38()
	case Map0F3A:
		f.map0F3A()
	}
}

// finish applies the textual passes: uppercase, comma spacing and then
// operator spacing inside memory operands.
func (f *formatter) finish() string {
	out := f.buf
	if f.flags&FormatUppercase != 0 {
		for i, b := range out {
			if b >= 'a' && b <= 'z' {
				out[i] = b - 0x20
			}
		}
	}
	if f.flags&(FormatCommaSpaces|FormatOperatorSpaces) == 0 {
		return string(out)
	}
	spaced := make([]byte, 0, len(out)+16)
	depth := 0
	for _, b := range out {
		switch b {
		case '[':
			depth++
		case ']':
			depth--
		}
		switch {
		case b == ',' && f.flags&FormatCommaSpaces != 0:
			spaced = append(spaced, ',', ' ')
		case (b == '+' || b == '-') && depth > 0 && f.flags&FormatOperatorSpaces != 0 &&
			spaced[len(spaced)-1] != '[':
			spaced = append(spaced, ' ', b, ' ')
		default:
			spaced = append(spaced, b)
		}
	}
	return string(spaced)
}

func segmentName(p Prefix) string {
	if p == 0 {
		return ""
	}
	return segmentRegs[bits.TrailingZeros16(uint16(p))]
}
