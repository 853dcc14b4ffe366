// Package elfwriter turns a laid-out image (internal/layout) into a
// minimal, statically-linked ET_EXEC ELF64 binary: an ELF header, one
// PT_LOAD program header per populated section group, and no section
// header table at all, the same minimal-executable policy
// xyproto-flapc/elf.go's WriteELF uses for its own single-segment case,
// generalized here to one PT_LOAD per internal/layout.Group.
package elfwriter

import (
	"bytes"
	"fmt"

	"github.com/xyproto/weld/internal/byteio"
	"github.com/xyproto/weld/internal/layout"
	"github.com/xyproto/weld/internal/object"
)

const (
	ehdrSize = 64
	phdrSize = 56

	etExec    = 2
	evCurrent = 1

	ptLoad = 1

	pfX = 1
	pfW = 2
	pfR = 4
)

// HeaderSize returns the file size of the ELF header plus numGroups
// program headers, before page alignment. Callers use this to decide
// where internal/layout should start placing sections (base +
// AlignUp(HeaderSize(n), pageSize)), mirroring flapc's own
// headersSize/alignedHeaders split in elf_complete.go.
func HeaderSize(numGroups int) uint64 {
	return ehdrSize + phdrSize*uint64(numGroups)
}

// Write renders img as a complete ET_EXEC file. base is the load
// address the image's first group was placed relative to (passed
// through to internal/layout.Layout as its own base argument) and
// headerSpace is AlignUp(HeaderSize(len(img.Groups)), pageSize); both
// must match what the caller used when building img, since file offset
// for every group is computed as (group.Addr - base), identical to
// flapc's own "baseAddr + currentOffset == currentAddr" invariant.
func Write(img *layout.Image, base, headerSpace, entry uint64, machine uint16) ([]byte, error) {
	loadable := make([]*layout.Group, 0, len(img.Groups))
	for _, g := range img.Groups {
		if g.Size == 0 {
			continue
		}
		loadable = append(loadable, g)
	}
	if len(loadable) == 0 {
		return nil, fmt.Errorf("elfwriter: image has no loadable groups")
	}

	var buf bytes.Buffer
	writeHeader(&buf, entry, machine, len(loadable))
	for _, g := range loadable {
		writeProgramHeader(&buf, g, base, headerSpace)
	}

	padTo(&buf, int(headerSpace))

	for _, g := range loadable {
		if g.Kind == object.SectionZero {
			continue
		}
		padTo(&buf, int(g.Addr-base))
		for _, s := range g.Sections {
			padTo(&buf, int(s.Addr-base))
			buf.Write(s.Data)
		}
	}

	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, entry uint64, machine uint16, numProgHeaders int) {
	buf.WriteByte(0x7f)
	buf.WriteByte('E')
	buf.WriteByte('L')
	buf.WriteByte('F')
	buf.WriteByte(2) // ELFCLASS64
	buf.WriteByte(1) // ELFDATA2LSB
	buf.WriteByte(1) // EV_CURRENT
	buf.WriteByte(0) // ELFOSABI_SYSV
	for i := 0; i < 8; i++ {
		buf.WriteByte(0)
	}

	write16(buf, etExec)
	write16(buf, machine)
	write32(buf, evCurrent)
	write64(buf, entry)
	write64(buf, ehdrSize) // e_phoff
	write64(buf, 0)        // e_shoff: no section headers
	write32(buf, 0)        // e_flags
	write16(buf, ehdrSize)
	write16(buf, phdrSize)
	write16(buf, uint16(numProgHeaders))
	write16(buf, 0) // e_shentsize
	write16(buf, 0) // e_shnum
	write16(buf, 0) // e_shstrndx
}

func writeProgramHeader(buf *bytes.Buffer, g *layout.Group, base, headerSpace uint64) {
	flags := uint32(pfR)
	switch g.Kind {
	case object.SectionText:
		flags |= pfX
	case object.SectionData, object.SectionZero:
		flags |= pfW
	}

	fileSize := g.Size
	if g.Kind == object.SectionZero {
		fileSize = 0
	}

	off := g.Addr - base

	write32(buf, ptLoad)
	write32(buf, flags)
	write64(buf, off)
	write64(buf, g.Addr)
	write64(buf, g.Addr)
	write64(buf, fileSize)
	write64(buf, g.Size)
	write64(buf, g.Align)
}

func padTo(buf *bytes.Buffer, target int) {
	for buf.Len() < target {
		buf.WriteByte(0)
	}
}

func write16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	byteio.WriteLE16(b[:], v)
	buf.Write(b[:])
}

func write32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	byteio.WriteLE32(b[:], v)
	buf.Write(b[:])
}

func write64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	byteio.WriteLE64(b[:], v)
	buf.Write(b[:])
}
