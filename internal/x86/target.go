package x86

// IsRelativeBranch reports whether the immediate of ins is a displacement
// from the end of the instruction.
func (ins *Instruction) IsRelativeBranch() bool {
	if !ins.Valid() {
		return false
	}
	op := ins.Opcode
	switch ins.Map {
	case MapDefault:
		switch {
		case op == 0xE8, op == 0xE9, op == 0xEB:
			return true
		case op >= 0x70 && op <= 0x7F, op >= 0xE0 && op <= 0xE3:
			return true
		case op == 0xC7:
			return ins.ModRM.Reg() == 7
		}
	case Map0F:
		return op >= 0x80 && op <= 0x8F
	}
	return false
}

// IsCall reports whether ins is a direct near call.
func (ins *Instruction) IsCall() bool {
	return ins.Valid() && ins.Map == MapDefault && ins.Opcode == 0xE8
}

// BranchTarget returns the destination of a relative branch when ins is
// loaded at addr. The result is truncated to the width of the mode.
func (ins *Instruction) BranchTarget(addr uint64) (uint64, bool) {
	if !ins.IsRelativeBranch() {
		return 0, false
	}
	rel := signExtend(ins.Immediate, ins.ImmWidth) + int64(ins.Length)
	return wrapMode(ins.Mode, addr+uint64(rel)), true
}

// IsRIPRelative reports whether the memory operand of ins is addressed
// relative to the next instruction.
func (ins *Instruction) IsRIPRelative() bool {
	return ins.Valid() && ins.Mode == Mode64 && ins.HasModRM && !ins.HasSIB &&
		ins.ModRM.Mod() == 0 && ins.ModRM.RM() == 5
}

// MemoryTarget returns the absolute address a RIP-relative operand refers
// to when ins is loaded at addr.
func (ins *Instruction) MemoryTarget(addr uint64) (uint64, bool) {
	if !ins.IsRIPRelative() {
		return 0, false
	}
	target := addr + uint64(ins.Length) + uint64(ins.Disp())
	if ins.addressSize() == 32 {
		target &= 0xFFFFFFFF
	}
	return target, true
}

func wrapMode(m Mode, v uint64) uint64 {
	switch m {
	case Mode16:
		return v & 0xFFFF
	case Mode32:
		return v & 0xFFFFFFFF
	}
	return v
}
