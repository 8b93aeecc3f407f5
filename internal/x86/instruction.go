// Package x86 decodes and formats x86 machine code in 16, 32 and 64-bit modes.
//
// Decoding is a single bounded pass over at most MaxLength bytes. The
// resulting Instruction is a plain value that can be copied freely and
// rendered in Intel syntax with Format.
package x86

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLength is the architectural upper bound on an instruction's encoding.
const MaxLength = 15

var (
	ErrTruncated       = errors.New("x86: truncated instruction")
	ErrInvalidEncoding = errors.New("x86: invalid encoding")
	ErrInvalidOpcode   = errors.New("x86: invalid opcode")
	ErrNotDecoded      = errors.New("x86: instruction not decoded")
)

// DecodeError records where in the input a decode failed.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Mode is the processor operating mode the bytes are interpreted in.
type Mode uint8

const (
	Mode16 Mode = 16
	Mode32 Mode = 32
	Mode64 Mode = 64
)

func (m Mode) String() string {
	switch m {
	case Mode16, Mode32, Mode64:
		return fmt.Sprintf("%d-bit", int(m))
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the three supported modes.
func (m Mode) Valid() bool {
	return m == Mode16 || m == Mode32 || m == Mode64
}

// ParseMode accepts "16", "32", "64" with an optional "-bit" suffix
// as well as the aliases real, protected and long.
func ParseMode(s string) (Mode, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "-bit") {
	case "16", "real":
		return Mode16, nil
	case "32", "protected", "x86", "i386":
		return Mode32, nil
	case "64", "long", "amd64", "x86-64", "x86_64":
		return Mode64, nil
	}
	return 0, fmt.Errorf("x86: unknown mode %q", s)
}

// DecoderFlags select what the decoder computes. Only DecodeValidityCheck
// changes behavior; the others are accepted and ignored.
type DecoderFlags uint32

const (
	DecodeValidityCheck DecoderFlags = 1 << iota
	DecodeInstructionID
	DecodeCPUFlags
	DecodeOperands
	DecodeGroup
	DecodeVEX
	DecodeEVEX
	Decode3DNow

	DecodeMinimal = DecodeValidityCheck | DecodeVEX | DecodeEVEX
	DecodeAll     = DecoderFlags(0xFF)
)

// Prefix is a bitset of the prefixes seen before the opcode. REX bits are
// carried here too.
type Prefix uint16

const (
	PrefixES Prefix = 1 << iota
	PrefixCS
	PrefixSS
	PrefixDS
	PrefixFS
	PrefixGS
	PrefixOperandSize
	PrefixAddressSize
	PrefixLock
	PrefixRepeatNotZero
	PrefixRepeat
	PrefixRexW
	PrefixRexR
	PrefixRexX
	PrefixRexB

	PrefixSegments = PrefixES | PrefixCS | PrefixSS | PrefixDS | PrefixFS | PrefixGS
	PrefixRex      = PrefixRexW | PrefixRexR | PrefixRexX | PrefixRexB
)

// OpcodeMap identifies which opcode table the opcode byte indexes.
type OpcodeMap uint8

const (
	MapDefault OpcodeMap = iota
	Map0F
	Map0F38
	Map0F3A
)

func (m OpcodeMap) String() string {
	switch m {
	case MapDefault:
		return "default"
	case Map0F:
		return "0F"
	case Map0F38:
		return "0F38"
	case Map0F3A:
		return "0F3A"
	}
	return fmt.Sprintf("OpcodeMap(%d)", int(m))
}

// ModRM is the addressing-form byte.
type ModRM byte

func (m ModRM) Mod() byte { return byte(m) >> 6 }
func (m ModRM) Reg() byte { return byte(m) >> 3 & 7 }
func (m ModRM) RM() byte  { return byte(m) & 7 }

// SIB is the scale-index-base byte.
type SIB byte

func (s SIB) Scale() byte { return byte(s) >> 6 }
func (s SIB) Index() byte { return byte(s) >> 3 & 7 }
func (s SIB) Base() byte  { return byte(s) & 7 }

// Instruction is one decoded instruction. The zero value is not decoded.
type Instruction struct {
	Mode  Mode
	Flags DecoderFlags

	Prefixes    Prefix
	NumPrefixes int
	Segment     Prefix // effective segment override, zero if none
	SimdPrefix  Prefix // last of 66, F2, F3 or F0
	Rex         byte
	repeat      Prefix // last of F2 or F3

	Map        OpcodeMap
	Opcode     byte
	OpcodeSize int

	HasModRM bool
	ModRM    ModRM
	HasSIB   bool
	SIB      SIB

	DispWidth    int
	Displacement uint32

	ImmWidth  int
	Immediate uint64

	Length int
	Bytes  [MaxLength]byte

	valid bool
}

// Valid reports whether the instruction was produced by a successful decode.
func (ins *Instruction) Valid() bool { return ins != nil && ins.valid }

// Raw returns the encoding bytes.
func (ins *Instruction) Raw() []byte { return ins.Bytes[:ins.Length] }

// Has reports whether every prefix bit in p is set.
func (ins *Instruction) Has(p Prefix) bool { return ins.Prefixes&p == p }

// Disp returns the displacement sign-extended from its encoded width.
func (ins *Instruction) Disp() int64 {
	switch ins.DispWidth {
	case 1:
		return int64(int8(ins.Displacement))
	case 2:
		return int64(int16(ins.Displacement))
	case 4:
		return int64(int32(ins.Displacement))
	}
	return 0
}

// addressSize returns the effective address size in bits.
func (ins *Instruction) addressSize() int {
	a := ins.Prefixes&PrefixAddressSize != 0
	switch ins.Mode {
	case Mode16:
		if a {
			return 32
		}
		return 16
	case Mode32:
		if a {
			return 16
		}
		return 32
	}
	if a {
		return 32
	}
	return 64
}

// operandSize returns the effective operand size for ordinary opcodes.
func (ins *Instruction) operandSize() int {
	o := ins.Prefixes&PrefixOperandSize != 0
	if ins.Prefixes&PrefixRexW != 0 {
		return 64
	}
	if ins.Mode == Mode16 {
		if o {
			return 32
		}
		return 16
	}
	if o {
		return 16
	}
	return 32
}

func (ins *Instruction) String() string {
	s, err := Format(ins, nil, FormatDefault)
	if err != nil {
		return "(bad)"
	}
	return s
}
