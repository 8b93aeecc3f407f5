package x86

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(v uint64) *uint64 { return &v }

func formatHex(t *testing.T, code string, mode Mode, runtime *uint64, flags FormatFlags) string {
	t.Helper()
	ins, err := Decode(unhex(t, code), mode, DecodeAll)
	require.NoError(t, err, code)
	s, err := Format(&ins, runtime, flags)
	require.NoError(t, err, code)
	return s
}

func TestFormatDefault(t *testing.T) {
	tests := []struct {
		code string
		mode Mode
		want string
	}{
		{"33 C0", Mode32, "xor eax,eax"},
		{"40", Mode32, "inc eax"},
		{"C3", Mode16, "ret"},
		{"C3", Mode64, "ret"},
		{"06", Mode32, "push es"},
		{"8B 65 E8", Mode32, "mov esp,[ebp-18h]"},
		{"8B EC", Mode32, "mov ebp,esp"},
		{"83 E4 F8", Mode32, "and esp,FFFFFFF8h"},
		{"83 C0 FF", Mode32, "add eax,-1"},
		{"81 EC 70 01 00 00", Mode32, "sub esp,170h"},
		{"A1 60 33 82 77", Mode32, "mov eax,[77823360h]"},
		{"64 A1 30 00 00 00", Mode32, "mov eax,fs:[30h]"},
		{"33 C4", Mode32, "xor eax,esp"},
		{"8B 04 88", Mode32, "mov eax,[eax+ecx*4]"},
		{"8B 04 08", Mode32, "mov eax,[eax+ecx]"},
		{"8B 04 25 00 10 00 00", Mode32, "mov eax,[1000h]"},
		{"8B 46 FE", Mode16, "mov ax,[bp-2]"},
		{"8B 06 34 12", Mode16, "mov ax,[1234h]"},
		{"B8 34 12", Mode16, "mov ax,1234h"},
		{"66 B8 01 00 00 00", Mode16, "mov eax,1"},
		{"F7 C8 01 00 00 00", Mode32, "test eax,1"},
		{"EA 78 56 34 12 08 00", Mode32, "jmp far 8:12345678h"},
		{"C8 10 00 01", Mode32, "enter 10h,1"},
		{"C2 08 00", Mode32, "ret 8"},
		{"6A FF", Mode32, "push FFFFFFFFh(-1)"},
		{"6A 80", Mode64, "push FFFFFFFFFFFFFF80h(-128)"},
		{"6A 10", Mode32, "push 10h"},
		{"F3 A4", Mode32, "rep movsb"},
		{"F3 A6", Mode32, "repe cmpsb"},
		{"F2 AE", Mode32, "repne scasb"},
		{"A5", Mode32, "movsd"},
		{"48 A5", Mode64, "movsq"},
		{"9C", Mode64, "pushfq"},
		{"98", Mode16, "cbw"},
		{"48 99", Mode64, "cqo"},
		{"F0 01 18", Mode32, "lock add [eax],ebx"},
		{"F3 90", Mode32, "pause"},
		{"D1 E0", Mode32, "shl eax,1"},
		{"D3 F8", Mode32, "sar eax,cl"},
		{"C1 E8 04", Mode32, "shr eax,4"},
		{"EC", Mode32, "in al,dx"},
		{"E6 80", Mode32, "out 80h,al"},
		{"8C D8", Mode32, "mov eax,ds"},
		{"8E D8", Mode32, "mov ds,ax"},
		{"0F 05", Mode64, "syscall"},
		{"0F A2", Mode32, "cpuid"},
		{"0F 1F 44 00 00", Mode32, "nop [eax+eax],eax"},
		{"0F AF C1", Mode32, "imul eax,ecx"},
		{"0F B6 C1", Mode32, "movzx eax,cl"},
		{"0F BF C1", Mode32, "movsx eax,cx"},
		{"0F 94 C0", Mode32, "sete al"},
		{"0F 44 C1", Mode32, "cmove eax,ecx"},
		{"0F C8", Mode32, "bswap eax"},
		{"0F A3 C8", Mode32, "bt eax,ecx"},
		{"0F BA E0 03", Mode32, "bt eax,3"},
		{"0F A4 C8 04", Mode32, "shld eax,ecx,4"},
		{"0F AD C8", Mode32, "shrd eax,ecx,cl"},
		{"0F B1 0A", Mode32, "cmpxchg [edx],ecx"},
		{"0F 28 C1", Mode32, "movaps xmm0,xmm1"},
		{"66 0F 28 C1", Mode32, "movapd xmm0,xmm1"},
		{"F3 0F 10 C1", Mode32, "movss xmm0,xmm1"},
		{"F2 0F 10 C1", Mode32, "movsd xmm0,xmm1"},
		{"0F 12 C1", Mode32, "movhlps xmm0,xmm1"},
		{"66 0F 6F C1", Mode32, "movdqa xmm0,xmm1"},
		{"F3 0F 6F C1", Mode32, "movdqu xmm0,xmm1"},
		{"0F 6F C1", Mode32, "movq mm0,mm1"},
		{"66 0F EF C0", Mode32, "pxor xmm0,xmm0"},
		{"0F EF C0", Mode32, "pxor mm0,mm0"},
		{"0F 58 C1", Mode32, "addps xmm0,xmm1"},
		{"F2 0F 59 C1", Mode32, "mulsd xmm0,xmm1"},
		{"66 0F 73 D8 04", Mode32, "psrldq xmm0,4"},
		{"0F 71 D0 02", Mode32, "psrlw mm0,2"},
		{"66 0F 70 C1 1B", Mode32, "pshufd xmm0,xmm1,1Bh"},
		{"0F C6 C1 44", Mode32, "shufps xmm0,xmm1,44h"},
		{"0F AE F8", Mode32, "sfence"},
		{"0F AE E8", Mode32, "lfence"},
		{"0F 01 D0", Mode32, "xgetbv"},
		{"0F 01 F8", Mode64, "swapgs"},
		{"0F 00 D8", Mode32, "ltr eax"},
		{"0F 20 C0", Mode64, "mov rax,cr0"},
		{"0F 22 D8", Mode32, "mov cr3,eax"},
		{"F3 0F B8 C1", Mode32, "popcnt eax,ecx"},
		{"F3 0F BC C1", Mode32, "tzcnt eax,ecx"},
		{"0F BC C1", Mode32, "bsf eax,ecx"},
		{"0F C7 F0", Mode32, "rdrand eax"},
		{"66 0F 38 00 C1", Mode32, "pshufb xmm0,xmm1"},
		{"0F 38 00 C1", Mode32, "pshufb mm0,mm1"},
		{"66 0F 38 30 C1", Mode32, "pmovzxbw xmm0,xmm1"},
		{"66 0F 38 20 C1", Mode32, "pmovsxbw xmm0,xmm1"},
		{"66 0F 38 DC C1", Mode32, "aesenc xmm0,xmm1"},
		{"F2 0F 38 F0 C1", Mode32, "crc32 eax,cl"},
		{"66 0F 3A 0F C1 08", Mode32, "palignr xmm0,xmm1,8"},
		{"0F 3A 0F C1 08", Mode32, "palignr mm0,mm1,8"},
		{"66 0F 3A 16 C0 01", Mode32, "pextrd eax,xmm0,1"},
		{"66 48 0F 3A 22 C0 01", Mode64, "pinsrq xmm0,rax,1"},
		{"66 0F 3A 44 C1 00", Mode32, "pclmulqdq xmm0,xmm1,0"},
		{"DE C1", Mode32, "faddp st(1),st(0)"},
		{"DC C1", Mode32, "fadd st(1),st(0)"},
		{"D8 C1", Mode32, "fadd st(0),st(1)"},
		{"DF E0", Mode32, "fnstsw ax"},
		{"D9 E8", Mode32, "fld1"},
		{"D9 C9", Mode32, "fxch st(0),st(1)"},
		{"DD D9", Mode32, "fstp st(1)"},
		{"DE D9", Mode32, "fcompp"},
		{"DD 45 F8", Mode32, "fld [ebp-8]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatHex(t, tt.code, tt.mode, nil, FormatDefault))
		})
	}
}

func TestFormatLongModeRegisters(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"4C 8B C0", "mov r8,rax"},
		{"41 88 C0", "mov r8b,al"},
		{"40 88 F0", "mov al,sil"},
		{"88 F0", "mov al,dh"},
		{"66 41 89 C0", "mov r8w,ax"},
		{"41 89 C0", "mov r8d,eax"},
		{"41 50", "push r8"},
		{"50", "push rax"},
		{"66 50", "push ax"},
		{"FF D0", "call rax"},
		{"41 FF E3", "jmp r11"},
		{"48 83 EC 28", "sub rsp,28h"},
		{"48 B8 88 77 66 55 44 33 22 11", "mov rax,1122334455667788h"},
		{"67 8B 00", "mov eax,[eax]"},
		{"67 41 8B 00", "mov eax,[r8d]"},
		{"42 8B 04 00", "mov eax,[rax+r8]"},
		{"41 90", "xchg r8d,eax"},
		{"48 63 C1", "movsxd rax,ecx"},
		{"E3 00", "jrcxz $+2"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatHex(t, tt.code, Mode64, nil, FormatDefault))
		})
	}
}

func TestFormatFlags(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		mode  Mode
		flags FormatFlags
		want  string
	}{
		{"pointer size and segment", "8B 65 E8", Mode32, FormatHex | FormatPointerSize | FormatHexPrefix0x, "mov esp,dword ptr ss:[ebp-0x18]"},
		{"default segment ds", "8B 00", Mode32, FormatHex | FormatPointerSize, "mov eax,dword ptr ds:[eax]"},
		{"stack base via sib", "8B 04 24", Mode32, FormatHex | FormatPointerSize, "mov eax,dword ptr ss:[esp]"},
		{"16-bit stack segment", "8B 46 FE", Mode16, FormatHex | FormatPointerSize, "mov ax,word ptr ss:[bp-2]"},
		{"override kept with only-override", "26 8B 00", Mode32, FormatOnlySegmentOverride, "mov eax,es:[eax]"},
		{"decimal", "B8 2A 00 00 00", Mode32, 0, "mov eax,42"},
		{"hex without marker", "B8 2A 00 00 00", Mode32, FormatHex, "mov eax,2A"},
		{"0x prefix", "B8 2A 00 00 00", Mode32, FormatHex | FormatHexPrefix0x, "mov eax,0x2A"},
		{"lowercase hex", "B8 2A 00 00 00", Mode32, FormatHex | FormatHexPrefix0x | FormatHexLowercase, "mov eax,0x2a"},
		{"small numbers unmarked", "B8 05 00 00 00", Mode32, FormatHex | FormatHexPrefix0x, "mov eax,5"},
		{"enforce hex id", "B8 05 00 00 00", Mode32, FormatHex | FormatHexPrefix0x | FormatEnforceHexID, "mov eax,0x5"},
		{"uppercase", "81 EC 70 01 00 00", Mode32, FormatDefault | FormatUppercase, "SUB ESP,170H"},
		{"comma spaces", "33 C0", Mode32, FormatCommaSpaces, "xor eax, eax"},
		{"operator spaces", "8B 65 E8", Mode32, FormatDefault | FormatOperatorSpaces, "mov esp,[ebp - 18h]"},
		{"both spacings", "8B 04 88", Mode32, FormatDefault | FormatCommaSpaces | FormatOperatorSpaces, "mov eax, [eax + ecx*4]"},
		{"operator spaces leave immediates", "83 C0 FF", Mode32, FormatDefault | FormatOperatorSpaces, "add eax,-1"},
		{"scale one", "8B 04 08", Mode32, FormatDefault | FormatScaleOne, "mov eax,[eax+ecx*1]"},
		{"signed view without hint", "6A 80", Mode32, FormatHex | FormatHexSuffixH | FormatSignedMemoryView, "push FFFFFF80h"},
		{"signed hint hex", "6A 80", Mode32, FormatHex | FormatHexSuffixH | FormatSignedMemoryView | FormatSignedHintHex, "push FFFFFF80h(-80h)"},
		{"signed hint dec", "6A 80", Mode32, FormatHex | FormatHexSuffixH | FormatSignedMemoryView | FormatSignedHintDec, "push FFFFFF80h(-128)"},
		{"no signed view", "6A 80", Mode32, FormatHex | FormatHexSuffixH, "push -80h"},
		{"signed view 16", "66 6A 80", Mode32, FormatHex | FormatSignedMemoryView, "push FF80"},
		{"bytes column", "33 C0", Mode32, FormatBytes, "33 C0 " + strings.Repeat("   ", 8) + "xor eax,eax"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatHex(t, tt.code, tt.mode, nil, tt.flags))
		})
	}
}

func TestFormatRelative(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		mode    Mode
		runtime *uint64
		want    string
	}{
		{"call next", "E8 00 00 00 00", Mode32, nil, "call $+5"},
		{"call next at address", "E8 00 00 00 00", Mode32, addr(0x401000), "call 401005h"},
		{"short jump back", "EB FC", Mode32, nil, "jmp $-2"},
		{"short jump back at address", "EB FC", Mode32, addr(0x1000), "jmp FFEh"},
		{"jcc", "74 05", Mode32, nil, "je $+7"},
		{"jcc near", "0F 84 00 00 00 00", Mode32, nil, "je $+6"},
		{"jcc near at address", "0F 85 FA FF FF FF", Mode32, addr(0x2000), "jne 2000h"},
		{"loop", "E2 FC", Mode32, nil, "loop $-2"},
		{"jcxz", "E3 00", Mode16, nil, "jcxz $+2"},
		{"jecxz", "E3 00", Mode32, nil, "jecxz $+2"},
		{"wraps in real mode", "EB 00", Mode16, addr(0xFFFF), "jmp 1"},
		{"wraps in protected mode", "E8 00 00 00 00", Mode32, addr(0xFFFFFFFE), "call 3"},
		{"long mode does not wrap at 32 bits", "E8 00 00 00 00", Mode64, addr(0xFFFFFFFE), "call 100000003h"},
		{"rip relative", "48 8B 05 10 00 00 00", Mode64, nil, "mov rax,[rip+10h]"},
		{"rip relative negative", "48 8B 05 F0 FF FF FF", Mode64, nil, "mov rax,[rip-10h]"},
		{"rip relative at address", "48 8B 05 10 00 00 00", Mode64, addr(0x1000), "mov rax,[1017h]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatHex(t, tt.code, tt.mode, tt.runtime, FormatDefault))
		})
	}
}

func TestFormatNotDecoded(t *testing.T) {
	_, err := Format(&Instruction{}, nil, FormatDefault)
	assert.ErrorIs(t, err, ErrNotDecoded)

	_, err = Format(nil, nil, FormatDefault)
	assert.ErrorIs(t, err, ErrNotDecoded)

	var ins Instruction
	assert.Equal(t, "(bad)", ins.String())
}

func TestFormatIdempotent(t *testing.T) {
	for _, c := range corpus {
		ins, err := Decode(unhex(t, c.code), c.mode, DecodeAll)
		require.NoError(t, err)
		for _, flags := range []FormatFlags{FormatDefault, FormatDefault | FormatUppercase | FormatCommaSpaces, 0} {
			a, err := Format(&ins, addr(0x400000), flags)
			require.NoError(t, err)
			b, err := Format(&ins, addr(0x400000), flags)
			require.NoError(t, err)
			assert.Equal(t, a, b, c.code)
			assert.NotContains(t, a, "(bad)", c.code)
		}
	}
}

func TestFormatString(t *testing.T) {
	s, n, err := FormatString(unhex(t, "33 C0 90"), Mode32, nil, FormatDefault)
	require.NoError(t, err)
	assert.Equal(t, "xor eax,eax", s)
	assert.Equal(t, 2, n)

	_, _, err = FormatString(unhex(t, "0F"), Mode32, nil, FormatDefault)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestInstructionString(t *testing.T) {
	ins, err := Decode(unhex(t, "8B 65 E8"), Mode32, DecodeAll)
	require.NoError(t, err)
	assert.Equal(t, "mov esp,[ebp-18h]", ins.String())
}

func TestParseFormatFlags(t *testing.T) {
	f, err := ParseFormatFlags([]string{"hex", " Pointer-Size ", "", "hex-prefix-0x"})
	require.NoError(t, err)
	assert.Equal(t, FormatHex|FormatPointerSize|FormatHexPrefix0x, f)
	assert.Equal(t, []string{"hex", "hex-prefix-0x", "pointer-size"}, f.Names())

	f, err = ParseFormatFlags([]string{"default"})
	require.NoError(t, err)
	assert.Equal(t, FormatDefault, f)

	_, err = ParseFormatFlags([]string{"att"})
	assert.Error(t, err)

	round, err := ParseFormatFlags(FormatDefault.Names())
	require.NoError(t, err)
	assert.Equal(t, FormatDefault, round)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"16", Mode16},
		{"16-bit", Mode16},
		{"real", Mode16},
		{"32", Mode32},
		{"i386", Mode32},
		{"Protected", Mode32},
		{"64", Mode64},
		{"64-bit", Mode64},
		{"amd64", Mode64},
		{"x86_64", Mode64},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}

	_, err := ParseMode("8")
	assert.Error(t, err)
	assert.Equal(t, "32-bit", Mode32.String())
	assert.False(t, Mode(8).Valid())
}
