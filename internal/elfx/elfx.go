// Package elfx opens x86 and x86-64 ELF binaries, locates their code and
// data sections and maps virtual addresses to file offsets.
package elfx

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"

	"disx86/internal/x86"
)

// ErrUnsupportedMachine is returned for ELF files that are not x86.
var ErrUnsupportedMachine = errors.New("elfx: unsupported machine")

// pltEntrySize is the stub size used by both i386 and x86-64 linkers.
const pltEntrySize = 16

type Image struct {
	Path     string
	File     *elf.File
	All      []byte
	Mode     x86.Mode
	Loads    []Seg
	Text     Section
	Rodata   Section
	Data     Section
	PLT      Section
	PLTSec   Section
	GOTPLT   Section
	Symbols  []Symbol
	PLTStubs []PLTStub
	PLTRels  []PLTRel
	f        *os.File
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

type Section struct {
	Name          string
	VA, Off, Size uint64
}

// Contains reports whether va lies inside the section.
func (s Section) Contains(va uint64) bool {
	return s.Size != 0 && va >= s.VA && va < s.VA+s.Size
}

// Symbol is a named code address. Size is zero when the symbol table does
// not record one.
type Symbol struct {
	Name  string
	Addr  uint64
	Size  uint64
	IsPLT bool
}

type PLTStub struct {
	Addr    uint64
	GOTAddr uint64
}

type PLTRel struct {
	Offset  uint64
	SymName string
	PLTAddr uint64
}

// Open maps the file at path read-only and indexes its sections, symbols
// and PLT stubs.
func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}

	var mode x86.Mode
	switch f.Machine {
	case elf.EM_386:
		mode = x86.Mode32
	case elf.EM_X86_64:
		mode = x86.Mode64
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMachine, f.Machine)
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im := &Image{Path: path, File: f, All: all, Mode: mode, f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  p.Vaddr,
			Off:    p.Off,
			Filesz: p.Filesz,
			Flags:  p.Flags,
		})
	}

	for _, s := range f.Sections {
		sec := Section{s.Name, s.Addr, s.Offset, s.Size}
		switch s.Name {
		case ".text":
			im.Text = sec
		case ".rodata":
			im.Rodata = sec
		case ".data":
			im.Data = sec
		case ".plt":
			im.PLT = sec
		case ".plt.sec":
			im.PLTSec = sec
		case ".got.plt":
			im.GOTPLT = sec
		}
	}

	im.loadSymbols()
	im.parsePLTStubs()
	im.parsePLTRelocations()
	sort.Slice(im.Symbols, func(i, j int) bool { return im.Symbols[i].Addr < im.Symbols[j].Addr })

	// Stripped section headers: fall back to the first executable and the
	// first read-only segment.
	if im.Text.Size == 0 {
		for _, l := range im.Loads {
			if l.Flags&elf.PF_X != 0 && l.Filesz > 0 {
				im.Text = Section{"LOAD(exec)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}
	if im.Rodata.Size == 0 {
		for _, l := range im.Loads {
			if l.Flags&elf.PF_R != 0 && l.Flags&(elf.PF_W|elf.PF_X) == 0 && l.Filesz > 0 {
				im.Rodata = Section{"LOAD(ro)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var errs []error
	if im.All != nil {
		errs = append(errs, syscall.Munmap(im.All))
		im.All = nil
	}
	if im.f != nil {
		errs = append(errs, im.f.Close())
		im.f = nil
	}
	if im.File != nil {
		errs = append(errs, im.File.Close())
		im.File = nil
	}
	return errors.Join(errs...)
}

// VA2Off translates a virtual address into a file offset using PT_LOAD
// segments.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// SliceVA returns the mapped bytes for [va, va+size). The range must be
// backed by the file.
func (im *Image) SliceVA(va uint64, size uint64) ([]byte, bool) {
	off, ok := im.VA2Off(va)
	if !ok {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	end := off + size
	if end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[off:end], true
}

// ReadAtMost returns up to size bytes starting at va, stopping at the end
// of the segment that contains it.
func (im *Image) ReadAtMost(va uint64, size int) []byte {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			n := min(uint64(size), l.Vaddr+l.Filesz-va)
			b, _ := im.SliceVA(va, n)
			return b
		}
	}
	return nil
}

// TextBytes returns the executable code the image was indexed with.
func (im *Image) TextBytes() ([]byte, bool) {
	return im.SliceVA(im.Text.VA, im.Text.Size)
}

func (im *Image) InRodata(va uint64) bool { return im.Rodata.Contains(va) }

func (im *Image) InData(va uint64) bool { return im.Data.Contains(va) }

// IsPLTEntry reports whether va lies in one of the PLT sections.
func (im *Image) IsPLTEntry(va uint64) bool {
	return im.PLT.Contains(va) || im.PLTSec.Contains(va)
}

func (im *Image) loadSymbols() {
	seen := make(map[uint64]bool)
	add := func(syms []elf.Symbol) {
		for _, s := range syms {
			if s.Value == 0 || s.Name == "" || elf.ST_TYPE(s.Info) != elf.STT_FUNC {
				continue
			}
			if seen[s.Value] {
				continue
			}
			seen[s.Value] = true
			im.Symbols = append(im.Symbols, Symbol{Name: s.Name, Addr: s.Value, Size: s.Size})
		}
	}
	// .symtab first, it carries local functions too.
	if syms, err := im.File.Symbols(); err == nil {
		add(syms)
	}
	if syms, err := im.File.DynamicSymbols(); err == nil {
		add(syms)
	}
}

// parsePLTStubs decodes every PLT entry and records which GOT slot its
// indirect jump goes through.
func (im *Image) parsePLTStubs() {
	for _, sec := range []Section{im.PLTSec, im.PLT} {
		code, ok := im.SliceVA(sec.VA, sec.Size)
		if !ok {
			continue
		}
		for off := 0; off < len(code); {
			va := sec.VA + uint64(off)
			ins, err := x86.Decode(code[off:], im.Mode, x86.DecodeMinimal)
			if err != nil {
				off++
				continue
			}
			if got, ok := stubGOT(&ins, va, im.GOTPLT.VA); ok {
				entry := sec.VA + (va-sec.VA)/pltEntrySize*pltEntrySize
				im.PLTStubs = append(im.PLTStubs, PLTStub{Addr: entry, GOTAddr: got})
			}
			off += ins.Length
		}
	}
}

// stubGOT recognizes the indirect jump of a PLT entry: jmp [rip+disp] in
// long mode, jmp [abs32] or jmp [ebx+disp] in 32-bit code.
func stubGOT(ins *x86.Instruction, va, gotplt uint64) (uint64, bool) {
	if ins.Map != x86.MapDefault || ins.Opcode != 0xFF || !ins.HasModRM || ins.ModRM.Reg() != 4 {
		return 0, false
	}
	if target, ok := ins.MemoryTarget(va); ok {
		return target, true
	}
	if ins.Mode != x86.Mode32 || ins.HasSIB {
		return 0, false
	}
	switch {
	case ins.ModRM.Mod() == 0 && ins.ModRM.RM() == 5:
		return uint64(ins.Displacement), true
	case ins.ModRM.Mod() == 2 && ins.ModRM.RM() == 3 && gotplt != 0:
		return uint64(uint32(gotplt + uint64(ins.Disp()))), true
	}
	return 0, false
}

// parsePLTRelocations reads .rela.plt (x86-64) or .rel.plt (i386) and
// gives every matched stub a "name@plt" symbol.
func (im *Image) parsePLTRelocations() {
	dynsyms, err := im.File.DynamicSymbols()
	if err != nil {
		return
	}
	bo := im.File.ByteOrder

	var entries [][2]uint64 // r_offset, symbol index
	if sec := im.File.Section(".rela.plt"); sec != nil && im.File.Class == elf.ELFCLASS64 {
		data, err := sec.Data()
		if err != nil {
			return
		}
		for i := 0; i+24 <= len(data); i += 24 {
			entries = append(entries, [2]uint64{bo.Uint64(data[i:]), uint64(elf.R_SYM64(bo.Uint64(data[i+8:])))})
		}
	} else if sec := im.File.Section(".rel.plt"); sec != nil && im.File.Class == elf.ELFCLASS32 {
		data, err := sec.Data()
		if err != nil {
			return
		}
		for i := 0; i+8 <= len(data); i += 8 {
			entries = append(entries, [2]uint64{uint64(bo.Uint32(data[i:])), uint64(elf.R_SYM32(bo.Uint32(data[i+4:])))})
		}
	}

	byGOT := make(map[uint64]uint64, len(im.PLTStubs))
	for _, stub := range im.PLTStubs {
		if _, dup := byGOT[stub.GOTAddr]; !dup {
			byGOT[stub.GOTAddr] = stub.Addr
		}
	}

	for _, e := range entries {
		var name string
		// Relocation indices count the null symbol DynamicSymbols drops.
		if idx := e[1]; idx > 0 && int(idx) <= len(dynsyms) {
			name = dynsyms[idx-1].Name
		}
		plt := byGOT[e[0]]
		im.PLTRels = append(im.PLTRels, PLTRel{Offset: e[0], SymName: name, PLTAddr: plt})
		if plt != 0 && name != "" {
			im.Symbols = append(im.Symbols, Symbol{Name: name + "@plt", Addr: plt, Size: pltEntrySize, IsPLT: true})
		}
	}
}

// Lookup returns the symbol covering va and the offset of va into it.
// Symbols without a size only match their exact address.
func (im *Image) Lookup(va uint64) (Symbol, uint64, bool) {
	i := sort.Search(len(im.Symbols), func(i int) bool { return im.Symbols[i].Addr > va }) - 1
	for ; i >= 0; i-- {
		s := im.Symbols[i]
		off := va - s.Addr
		if off == 0 || off < s.Size {
			return s, off, true
		}
		if s.Size != 0 {
			break
		}
	}
	return Symbol{}, 0, false
}

// FindFunctionByName searches the symbol table, ignoring a trailing
// "@plt" on the stored names when name has none.
func (im *Image) FindFunctionByName(name string) (uint64, bool) {
	for _, s := range im.Symbols {
		if s.Name == name || !strings.HasSuffix(name, "@plt") && strings.TrimSuffix(s.Name, "@plt") == name {
			return s.Addr, true
		}
	}
	return 0, false
}
