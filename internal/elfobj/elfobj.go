// Package elfobj implements the ELF64 ET_REL object front end (C4):
// probing, then a three-pass parse (sections, symbols, relocations)
// grounded on original_source/src/frontends/elf/elf64.c's own
// three-pass structure and section/symbol/relocation classification
// rules.
package elfobj

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/xyproto/weld/internal/byteio"
	"github.com/xyproto/weld/internal/diag"
	"github.com/xyproto/weld/internal/frontend"
	"github.com/xyproto/weld/internal/object"
)

// FrontEnd implements frontend.ObjectFrontEnd for ELF64 relocatable
// object files.
type FrontEnd struct{}

// New returns the ELF64 object front end.
func New() *FrontEnd { return &FrontEnd{} }

func (FrontEnd) Name() string { return "elf64" }

// Machine reports the e_machine value from a probed file header, used
// by the driver to pick a matching backend.
func Machine(r io.ReaderAt, size int64) (uint16, error) {
	if size < ehdr64Size {
		return 0, errors.New("elf64: file too small for header")
	}
	hdr := make([]byte, ehdr64Size)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return 0, errors.Wrap(err, "elf64: read header")
	}
	return uint16(byteio.ReadLE16(hdr[18:20])), nil
}

// Probe reports whether r looks like an ET_REL ELF64 object: correct
// magic, 64-bit class, little-endian data, current version, matching
// section header entry size, and e_type == ET_REL.
func (FrontEnd) Probe(r io.ReaderAt, size int64) (bool, error) {
	if size < ehdr64Size {
		return false, nil
	}
	hdr := make([]byte, ehdr64Size)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return false, errors.Wrap(err, "elf64: probe read")
	}

	if hdr[0] != magic0 || hdr[1] != magic1 || hdr[2] != magic2 || hdr[3] != magic3 {
		return false, nil
	}
	if hdr[4] != class64 {
		return false, nil
	}
	if hdr[5] != data2LSB {
		return false, nil
	}
	if hdr[6] != evCurrent {
		return false, nil
	}

	eType := byteio.ReadLE16(hdr[16:18])
	if eType != etRel {
		return false, nil
	}

	shentsize := byteio.ReadLE16(hdr[58:60])
	if shentsize != shdr64Size {
		return false, nil
	}

	return true, nil
}

type rawSection struct {
	name      string
	shType    uint32
	flags     uint64
	addr      uint64
	offset    uint64
	size      uint64
	link      uint32
	info      uint32
	addralign uint64
	entsize   uint64
}

// Parse fully parses an ET_REL ELF64 object. Diagnostics are scoped
// under path via sink.Push/Pop for the duration of the call.
func (fe FrontEnd) Parse(r io.ReaderAt, size int64, path string, id int, resolver frontend.Resolver, sink *diag.Sink) (*object.ObjectFile, error) {
	sink.Push(diag.Scope{File: path})
	defer sink.Pop()

	raw := make([]byte, size)
	if _, err := r.ReadAt(raw, 0); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "elf64: read %s", path)
	}

	hdr, err := parseEhdr64(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "elf64: %s", path)
	}

	sections, err := readSectionHeaders(raw, hdr)
	if err != nil {
		return nil, errors.Wrapf(err, "elf64: %s", path)
	}

	strtab := rawSectionData(raw, sections, hdr.shstrndx)

	obj := &object.ObjectFile{ID: id, Path: path, FromArchive: -1}
	// sectionForRaw maps a raw section header index to the resulting
	// object.Section, or nil if that section was skipped (no
	// SHF_ALLOC) or is a metadata section (SYMTAB/RELA/etc).
	sectionForRaw := make(map[int]*object.Section, len(sections))

	var symtabIdx, strtabIdx = -1, -1
	var relaIdxs []int

	for i, sh := range sections {
		sh.name = cstr(strtab, shNameOffset(raw, hdr, i))

		switch sh.shType {
		case shtSymtab:
			symtabIdx = i
			strtabIdx = int(sh.link)
			continue
		case shtRela:
			relaIdxs = append(relaIdxs, i)
			continue
		case shtRel:
			sink.Warnf("section %s: REL relocations without addend are unsupported, ignoring", sh.name)
			continue
		case shtGroup:
			sink.Warnf("section %s: SHT_GROUP is not honored", sh.name)
			continue
		}

		if sh.flags&shfAlloc == 0 {
			continue
		}

		kind, ok := classifySection(sh)
		if !ok {
			sink.Warnf("section %s: treating as DATA (init/fini array merging not implemented)", sh.name)
			kind = object.SectionData
		}

		align := sh.addralign
		if align == 0 {
			align = 1
		}

		s := &object.Section{
			RawIndex: i,
			Kind:     kind,
			Name:     sh.name,
			Align:    align,
			Size:     sh.size,
		}
		if sh.shType != shtNobits && sh.size > 0 {
			s.Data = append([]byte(nil), rawSectionData(raw, sections, i)...)
		}
		s.Index = len(obj.Sections)
		obj.Sections = append(obj.Sections, s)
		sectionForRaw[i] = s
	}

	if symtabIdx < 0 {
		return obj, nil
	}

	symStrtab := rawSectionData(raw, sections, strtabIdx)
	localSyms, err := parseSymbols(raw, sections, symtabIdx, symStrtab, sectionForRaw, obj, id, resolver, sink)
	if err != nil {
		return nil, errors.Wrapf(err, "elf64: %s", path)
	}
	obj.Locals = localSyms

	for _, ri := range relaIdxs {
		if err := parseRelocations(raw, sections, ri, sectionForRaw, obj, localSyms); err != nil {
			return nil, errors.Wrapf(err, "elf64: %s", path)
		}
	}

	return obj, nil
}

func classifySection(sh rawSection) (object.SectionKind, bool) {
	switch sh.shType {
	case shtNobits:
		return object.SectionZero, true
	case shtInitArray, shtFiniArray, shtPreinitArray:
		return object.SectionData, false
	case shtProgbits:
		switch {
		case sh.flags&shfExecinstr != 0:
			return object.SectionText, true
		case sh.flags&shfWrite != 0:
			return object.SectionData, true
		default:
			return object.SectionRodata, true
		}
	default:
		return object.SectionData, false
	}
}

type ehdr64 struct {
	eType      uint16
	machine    uint16
	shoff      uint64
	shentsize  uint16
	shnum      uint16
	shstrndx   uint16
}

func parseEhdr64(raw []byte) (*ehdr64, error) {
	if len(raw) < ehdr64Size {
		return nil, errors.New("file shorter than ELF64 header")
	}
	h := &ehdr64{
		eType:     byteio.ReadLE16(raw[16:18]),
		machine:   byteio.ReadLE16(raw[18:20]),
		shoff:     byteio.ReadLE64(raw[40:48]),
		shentsize: byteio.ReadLE16(raw[58:60]),
		shnum:     byteio.ReadLE16(raw[60:62]),
		shstrndx:  byteio.ReadLE16(raw[62:64]),
	}
	if h.eType != etRel {
		return nil, errors.New("not an ET_REL object")
	}
	return h, nil
}

func readSectionHeaders(raw []byte, hdr *ehdr64) ([]rawSection, error) {
	out := make([]rawSection, hdr.shnum)
	for i := 0; i < int(hdr.shnum); i++ {
		off := hdr.shoff + uint64(i)*uint64(hdr.shentsize)
		if off+shdr64Size > uint64(len(raw)) {
			return nil, fmt.Errorf("section header %d out of bounds", i)
		}
		b := raw[off : off+shdr64Size]
		out[i] = rawSection{
			shType:    byteio.ReadLE32(b[4:8]),
			flags:     byteio.ReadLE64(b[8:16]),
			addr:      byteio.ReadLE64(b[16:24]),
			offset:    byteio.ReadLE64(b[24:32]),
			size:      byteio.ReadLE64(b[32:40]),
			link:      byteio.ReadLE32(b[40:44]),
			info:      byteio.ReadLE32(b[44:48]),
			addralign: byteio.ReadLE64(b[48:56]),
			entsize:   byteio.ReadLE64(b[56:64]),
		}
	}
	return out, nil
}

func shNameOffset(raw []byte, hdr *ehdr64, idx int) uint64 {
	off := hdr.shoff + uint64(idx)*uint64(hdr.shentsize)
	return uint64(byteio.ReadLE32(raw[off : off+4]))
}

func rawSectionData(raw []byte, sections []rawSection, idx int) []byte {
	if idx < 0 || idx >= len(sections) {
		return nil
	}
	sh := sections[idx]
	if sh.shType == shtNobits {
		return nil
	}
	end := sh.offset + sh.size
	if end > uint64(len(raw)) {
		end = uint64(len(raw))
	}
	if sh.offset > end {
		return nil
	}
	return raw[sh.offset:end]
}

func cstr(buf []byte, off uint64) string {
	if off >= uint64(len(buf)) {
		return ""
	}
	end := off
	for end < uint64(len(buf)) && buf[end] != 0 {
		end++
	}
	return string(buf[off:end])
}
