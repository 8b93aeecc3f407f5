package x86

var (
	reg8        = [8]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}
	reg8Rex     = [8]string{"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil"}
	reg16       = [8]string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"}
	reg32       = [8]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}
	reg64       = [8]string{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi"}
	regExt      = [8]string{"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
	segmentRegs = [8]string{"es", "cs", "ss", "ds", "fs", "gs", "?", "?"}
	addr16      = [8]string{"bx+si", "bx+di", "bp+si", "bp+di", "si", "di", "bp", "bx"}

	conditions = [16]string{"o", "no", "b", "ae", "e", "ne", "be", "a", "s", "ns", "p", "np", "l", "ge", "le", "g"}

	arith  = [8]string{"add", "or", "adc", "sbb", "and", "sub", "xor", "cmp"}
	shifts = [8]string{"rol", "ror", "rcl", "rcr", "shl", "shr", "sal", "sar"}
	group3 = [8]string{"test", "test", "not", "neg", "mul", "imul", "div", "idiv"}
	group5 = [8]string{"inc", "dec", "call", "call far", "jmp", "jmp far", "push", ""}
	group6 = [8]string{"sldt", "str", "lldt", "ltr", "verr", "verw", "", ""}
	group7 = [8]string{"sgdt", "sidt", "lgdt", "lidt", "smsw", "", "lmsw", "invlpg"}

	group7Reg0 = [8]string{"enclv", "vmcall", "vmlaunch", "vmresume", "vmxoff", "pconfig", "", ""}
	group7Reg1 = [8]string{"monitor", "mwait", "clac", "stac", "", "", "", "encls"}
	group7Reg2 = [8]string{"xgetbv", "xsetbv", "", "", "vmfunc", "xend", "xtest", "enclu"}
	group7Reg3 = [8]string{"vmrun ", "vmmcall", "vmload ", "vmsave", "stgi", "clgi", "skinit eax", "invlpga "}
	group7Reg7 = [8]string{"swapgs", "rdtscp", "monitorx", "mwaitx", "clzero ", "rdpru", "", ""}

	x87D8   = [8]string{"add", "mul", "com", "comp", "sub", "subr", "div", "divr"}
	x87D9   = [8]string{"ld", "", "st", "stp", "ldenv", "ldcw", "nstenv", "nstcw"}
	x87DADE = [8]string{"iadd", "imul", "icom", "icomp", "isub", "isubr", "idiv", "idivr"}
	x87DB   = [8]string{"ild", "isttp", "ist", "istp", "", "ld", "", "stp"}
	x87DD   = [8]string{"ld", "isttp", "st", "stp", "rstor", "", "nsave", "nstsw"}
	x87DF   = [8]string{"ild", "isttp", "ist", "istp", "bld", "ild", "bstp", "istp"}

	x87Memory = [8]*[8]string{&x87D8, &x87D9, &x87DADE, &x87DB, &x87D8, &x87DD, &x87DADE, &x87DF}

	x87D9Register = map[ModRM]string{
		0xD0: "nop", 0xE0: "chs", 0xE1: "abs", 0xE4: "tst", 0xE5: "xam",
		0xE8: "ld1", 0xE9: "ldl2t", 0xEA: "ldl2e", 0xEB: "ldpi", 0xEC: "ldlg2", 0xED: "ldln2", 0xEE: "ldz",
		0xF0: "2xm1", 0xF1: "yl2x", 0xF2: "ptan", 0xF3: "patan", 0xF4: "xtract", 0xF5: "prem1",
		0xF6: "decstp", 0xF7: "incstp", 0xF8: "prem", 0xF9: "yl2xp1", 0xFA: "sqrt", 0xFB: "sincos",
		0xFC: "rndint", 0xFD: "scale", 0xFE: "sin", 0xFF: "cos",
	}

	// 0F map, no operands.
	twoByteBare = map[byte]string{
		0x05: "syscall", 0x06: "clts", 0x07: "sysret", 0x08: "invd", 0x09: "wbinvd", 0x0B: "ud2", 0x0E: "femms",
		0x30: "wrmsr", 0x31: "rdtsc", 0x32: "rdmsr", 0x33: "rdpmc", 0x34: "sysenter", 0x35: "sysexit", 0x37: "getsec",
		0x77: "emms", 0xA0: "push fs", 0xA1: "pop fs", 0xA2: "cpuid", 0xA8: "push gs", 0xA9: "pop gs", 0xAA: "rsm",
	}

	// 0F D1..FE packed integer ops without the leading "p".
	packedInt = [46]string{
		"srlw", "srld", "srlq", "addq", "mullw", "", "", "subusb", "subusw", "minub", "and", "addusb", "addusw", "maxub", "andn",
		"avgb", "sraw", "srad", "avgw", "mulhuw", "mulhw", "", "", "subsb", "subsw", "minsw", "or", "addsb", "addsw", "maxsw", "xor",
		"", "sllw", "slld", "sllq", "muludq", "maddwd", "sadbw", "", "subb", "subw", "subd", "subq", "addb", "addw", "addd",
	}

	ssse3 = [12]string{"pshufb", "phaddw", "phaddd", "phaddsw", "pmaddubsw", "phsubw", "phsubd", "phsubsw", "psignb", "psignw", "psignd", "pmulhrsw"}
)

// pick returns tbl[i], or "(bad)" for out of range or empty entries. Only
// reachable for instructions decoded without validity checks.
func pick(tbl []string, i int) string {
	if i < 0 || i >= len(tbl) || tbl[i] == "" {
		return "(bad)"
	}
	return tbl[i]
}
