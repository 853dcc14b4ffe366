// Package layout implements section merging and image layout (C7):
// grouping surviving sections by kind in a fixed emission order,
// assigning virtual addresses, and lowering COMMON symbols to a
// synthetic ZERO section, exactly per §4.7's algorithm.
package layout

import (
	"github.com/xyproto/weld/internal/byteio"
	"github.com/xyproto/weld/internal/object"
)

// groupOrder is the fixed emission order sections are grouped in.
var groupOrder = []object.SectionKind{
	object.SectionText,
	object.SectionRodata,
	object.SectionData,
	object.SectionZero,
}

// Group is one kind's worth of merged sections, placed contiguously in
// the image.
type Group struct {
	Kind     object.SectionKind
	Addr     uint64
	Align    uint64
	Size     uint64
	Sections []*object.Section
}

// Image is the laid-out result: one Group per populated section kind,
// in groupOrder.
type Image struct {
	Groups []*Group
}

// Layout assigns virtual addresses to every section in sections (in
// insertion order within their kind), starting at base and page-aligning
// the gap between groups to pageSize. textAlign is folded into every
// TEXT section's own alignment, per "TEXT section alignment is raised
// to max(S.align, CPU_alignment)".
func Layout(sections []*object.Section, base, pageSize, textAlign uint64) *Image {
	byKind := map[object.SectionKind][]*object.Section{}
	for _, s := range sections {
		byKind[s.Kind] = append(byKind[s.Kind], s)
	}

	img := &Image{}
	vaddr := base

	for _, kind := range groupOrder {
		members := byKind[kind]
		if len(members) == 0 {
			continue
		}

		groupAlign := uint64(1)
		for _, s := range members {
			align := s.Align
			if kind == object.SectionText && textAlign > align {
				align = textAlign
			}
			if align > groupAlign {
				groupAlign = align
			}
		}

		groupAddr := byteio.AlignUp(vaddr, groupAlign)
		offset := uint64(0)
		for _, s := range members {
			align := s.Align
			if kind == object.SectionText && textAlign > align {
				align = textAlign
			}
			s.Addr = byteio.AlignUp(groupAddr+offset, align)
			offset = (s.Addr - groupAddr) + s.Size
		}

		g := &Group{Kind: kind, Addr: groupAddr, Align: groupAlign, Size: offset, Sections: members}
		img.Groups = append(img.Groups, g)

		vaddr = byteio.AlignUp(groupAddr+g.Size, pageSize)
	}

	return img
}

// ResolveSymbolAddresses fills in sym.Addr for every defined, non-
// absolute symbol once its defining section has an assigned address,
// per "sym.vaddr = sym.section.vaddr + sym.offset". Absolute symbols
// are left untouched, since their address was already final at parse
// time.
func ResolveSymbolAddresses(symbols []*object.Symbol, sectionOf func(sym *object.Symbol) *object.Section) {
	for _, sym := range symbols {
		if sym.Absolute || sym.State != object.StateDefined {
			continue
		}
		sect := sectionOf(sym)
		if sect == nil {
			continue
		}
		sym.Addr = sect.Addr + sym.Offset
	}
}

// LowerCommonSymbols builds the synthetic ZERO section that tentative
// (COMMON) definitions are lowered into before layout, sized to fit
// every symbol still in StateCommon at this point (i.e. after the
// merge rule table has already resolved COMMON-vs-COMMON and COMMON-
// vs-DEFINED collisions). Symbols are placed in the order given,
// respecting each one's own alignment request.
func LowerCommonSymbols(commons []*object.Symbol, sectionIndex int) *object.Section {
	sect := &object.Section{
		Index: sectionIndex,
		Kind:  object.SectionZero,
		Name:  ".bss.common",
		Align: 1,
	}

	offset := uint64(0)
	for _, sym := range commons {
		align := sym.Align
		if align == 0 {
			align = 1
		}
		offset = byteio.AlignUp(offset, align)
		sym.DefSection = sectionIndex
		sym.Offset = offset
		sym.State = object.StateDefined
		offset += sym.Size
		if align > sect.Align {
			sect.Align = align
		}
	}
	sect.Size = offset

	return sect
}
