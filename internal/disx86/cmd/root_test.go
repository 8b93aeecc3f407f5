package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disx86/internal/analysis"
	"disx86/internal/elfx"
	"disx86/internal/ui/colorize"
	"disx86/internal/x86"
)

func openSelf(t *testing.T) *elfx.Image {
	t.Helper()
	if runtime.GOOS != "linux" || (runtime.GOARCH != "amd64" && runtime.GOARCH != "386") {
		t.Skip("needs an x86 ELF test binary")
	}
	exe, err := os.Executable()
	require.NoError(t, err)
	img, err := elfx.Open(exe)
	require.NoError(t, err)
	t.Cleanup(func() { _ = img.Close() })
	return img
}

func TestDisassembleSymbol(t *testing.T) {
	img := openSelf(t)

	res, err := disassembleImage(context.Background(), img, "runtime.main", settings{flags: x86.FormatDefault})
	require.NoError(t, err)
	require.NotEmpty(t, res.Listing)
	assert.Equal(t, "runtime.main:", res.Listing[0].Mnemonic)

	addr, _ := img.FindFunctionByName("runtime.main")
	sym, _, _ := img.Lookup(addr)
	for _, a := range res.Listing {
		assert.Less(t, a.VA, sym.Addr+sym.Size)
	}
}

func TestDisassembleUnknownSymbol(t *testing.T) {
	img := openSelf(t)

	_, err := disassembleImage(context.Background(), img, "no.such.function", settings{})
	assert.ErrorContains(t, err, "symbol not found")
}

func TestDisassembleTextWithMax(t *testing.T) {
	img := openSelf(t)

	res, err := disassembleImage(context.Background(), img, "", settings{flags: x86.FormatDefault, max: 100, workers: 4})
	require.NoError(t, err)
	n := 0
	for _, a := range res.Listing {
		if !a.IsLabel() {
			n++
		}
	}
	assert.Equal(t, 100, n)
}

func TestWriteJSON(t *testing.T) {
	img := openSelf(t)

	res, err := disassembleImage(context.Background(), img, "runtime.main", settings{flags: x86.FormatDefault})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, img.Path, img, res))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, img.Path, out.File)
	assert.Len(t, out.Digest, 64)
	assert.Equal(t, img.Mode.String(), out.Mode)
	require.NotEmpty(t, out.Listing)
	assert.Equal(t, "runtime.main", out.Listing[0].Label)
	assert.Equal(t, len(res.Findings), out.Calls)
}

func TestWriteListing(t *testing.T) {
	img := openSelf(t)

	res, err := disassembleImage(context.Background(), img, "runtime.main", settings{flags: x86.FormatDefault})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeListing(&buf, img.Path, img, res, false))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "; "+img.Path, lines[0])
	assert.Contains(t, buf.String(), "runtime.main:")
	assert.NotContains(t, buf.String(), "\033[")
}

func TestClip(t *testing.T) {
	listing := []analysis.AnnotatedInst{{VA: 0x10}, {VA: 0x11}, {VA: 0x14}}
	assert.Len(t, clip(listing, 0x14), 2)
	assert.Len(t, clip(listing, 0x100), 3)
	assert.Empty(t, clip(listing, 0x10))
}

func TestResolveCwd(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })

	dir := t.TempDir()
	require.NoError(t, rootCmd.ParseFlags([]string{"--cwd", dir}))
	t.Cleanup(func() { _ = rootCmd.Flags().Set("cwd", "") })

	got, err := ResolveCwd(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func newTestModel(t *testing.T) model {
	t.Helper()
	t.Setenv(colorize.EnvNoColor, "1")
	img := &elfx.Image{
		Path: "/tmp/a.out",
		Mode: x86.Mode64,
		Text: elfx.Section{Name: ".text", VA: 0x1000, Size: 0x20},
		Symbols: []elfx.Symbol{
			{Name: "puts@plt", Addr: 0x1010, IsPLT: true},
			{Name: "_Z3addii", Addr: 0x1100, Size: 8},
		},
	}
	return NewModel(img.Path, img, "", settings{flags: x86.FormatDefault}).(model)
}

func TestModelLoading(t *testing.T) {
	m := newTestModel(t)
	assert.True(t, m.loadingListing)
	assert.Contains(t, m.View(), "Disassembling...")
}

func TestModelMessages(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(readSymbolsCmd(m.img)())
	m = next.(model)
	require.Len(t, m.symbolsList.Items(), 2)
	assert.Equal(t, "add(int, int)", m.symbolsList.Items()[1].(symbolItem).demangled)

	res := &analysis.AnnotatorResult{
		Listing: []analysis.AnnotatedInst{
			{VA: 0x1100, Mnemonic: "add(int, int):"},
			{VA: 0x1100, Mnemonic: "push", Operands: "rbp"},
			{VA: 0x1101, Mnemonic: "call", Operands: "puts@plt"},
		},
		Findings: []analysis.CallFinding{{CallVA: 0x1101, TargetVA: 0x1010, Target: "puts@plt", PLT: true}},
	}
	next, _ = m.Update(listingMsg{title: "add(int, int)", result: res})
	m = next.(model)
	assert.False(t, m.loadingListing)
	view := m.View()
	assert.Contains(t, view, "push   rbp")
	assert.Contains(t, view, "S: symbols")

	next, _ = m.Update(digestCalculatedMsg{digest: "abc123"})
	m = next.(model)
	md := m.infoMarkdown()
	assert.Contains(t, md, "; abc123")
	assert.Contains(t, md, ".text")
	assert.Contains(t, md, "puts@plt")
}

func TestModelListingError(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(listingMsg{err: assert.AnError})
	m = next.(model)
	assert.Contains(t, m.View(), assert.AnError.Error())
}

func TestModelCycle(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, viewInfo, m.cycle(1), "symbols are skipped until loaded")
	assert.Equal(t, viewInfo, m.cycle(-1))

	next, _ := m.Update(readSymbolsCmd(m.img)())
	m = next.(model)
	assert.Equal(t, viewSymbols, m.cycle(1))
	m.mode = viewInfo
	assert.Equal(t, viewListing, m.cycle(1))
	assert.Equal(t, viewSymbols, m.cycle(-1))
}
