// Package object holds the shared, format-independent entities every
// front end produces and every back end consumes: object files,
// sections, symbols and relocations. Unlike the reference-counted
// struct objfile/struct symbol of the original linker, entities here
// are referenced by stable integer id into a per-Context arena (see
// Design Note §9 in SPEC_FULL.md), so there is nothing to get/put.
package object

// SectionKind classifies a section's contents for layout purposes,
// matching the four-way split the linker groups sections into: TEXT,
// RODATA, DATA, and ZERO (uninitialized storage, .bss-like).
type SectionKind int

const (
	SectionZero SectionKind = iota
	SectionData
	SectionRodata
	SectionText
)

func (k SectionKind) String() string {
	switch k {
	case SectionZero:
		return "ZERO"
	case SectionData:
		return "DATA"
	case SectionRodata:
		return "RODATA"
	case SectionText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// Section is an input section contributed by one object file.
type Section struct {
	// Index is this section's slot in its owning ObjectFile's section
	// table; RawIndex is the index as the input format numbered it
	// (e.g. the ELF section header index), kept around for diagnostics.
	Index    int
	RawIndex int

	Kind  SectionKind
	Name  string
	Align uint64
	Size  uint64

	// Data holds the section's file contents. It is nil for
	// SectionZero sections, which contribute only size and alignment.
	Data []byte

	// Addr is filled in by internal/layout once the section has been
	// placed in the output image; zero until then.
	Addr uint64
}

// SymbolBinding mirrors ELF symbol binding, the three-way linkage
// strength the merge rules in §4.6 dispatch on.
type SymbolBinding int

const (
	BindLocal SymbolBinding = iota
	BindGlobal
	BindWeak
)

func (b SymbolBinding) String() string {
	switch b {
	case BindLocal:
		return "LOCAL"
	case BindGlobal:
		return "GLOBAL"
	case BindWeak:
		return "WEAK"
	default:
		return "UNKNOWN"
	}
}

// SymbolType narrows what kind of entity a symbol names.
type SymbolType int

const (
	TypeNotype SymbolType = iota
	TypeObject
	TypeTLS
	TypeFunction
	TypeSection
)

func (t SymbolType) String() string {
	switch t {
	case TypeNotype:
		return "NOTYPE"
	case TypeObject:
		return "OBJECT"
	case TypeTLS:
		return "TLS"
	case TypeFunction:
		return "FUNCTION"
	case TypeSection:
		return "SECTION"
	default:
		return "UNKNOWN"
	}
}

// SymbolState tracks where a symbol stands in the resolution process.
type SymbolState int

const (
	// StateUndefined means no object file has defined this symbol yet.
	StateUndefined SymbolState = iota
	// StateCommon means only tentative (COMMON) definitions have been
	// seen so far; a later strong definition still overrides it.
	StateCommon
	// StateDefined means the symbol has a concrete section+offset
	// definition.
	StateDefined
)

func (s SymbolState) String() string {
	switch s {
	case StateUndefined:
		return "UNDEFINED"
	case StateCommon:
		return "COMMON"
	case StateDefined:
		return "DEFINED"
	default:
		return "UNKNOWN"
	}
}

// Symbol is a named, linkage-visible entity. Local symbols live only in
// their owning ObjectFile's local symbol table; global and weak symbols
// additionally have an entry in the Context's GlobalMap keyed by Name.
type Symbol struct {
	Name    string
	Binding SymbolBinding
	Type    SymbolType
	State   SymbolState

	// Source is the id of the ObjectFile this declaration came from
	// (the file that mentioned the symbol, which may differ from the
	// file that defines it).
	Source int

	// Definition identifies where the symbol is defined once State is
	// StateDefined or StateCommon: DefObject is the defining
	// ObjectFile's id, DefSection is that object's local section
	// index, Offset is the byte offset into the section, and Size is
	// the symbol's declared size (used to size a COMMON merge).
	DefObject  int
	DefSection int
	Offset     uint64
	Size       uint64

	// Align is the alignment a COMMON symbol requests; irrelevant once
	// the symbol resolves to a concrete definition.
	Align uint64

	// Absolute marks a symbol defined against SHN_ABS: Addr is already
	// final at parse time and internal/layout leaves it untouched.
	Absolute bool

	// Addr is the symbol's final address. For Absolute symbols it is
	// set at parse time; otherwise it is filled in once
	// internal/layout has placed the defining section.
	Addr uint64
}

// IsDefined reports whether the symbol has any definition, tentative or
// concrete.
func (s *Symbol) IsDefined() bool {
	return s.State == StateDefined || s.State == StateCommon
}

// RelocType is the raw, architecture-defined relocation-type code a
// front end read straight off the wire (e.g. ELF64_R_TYPE(r_info)).
// Per spec.md §3 ("a numeric relocation-type code (back-end interprets
// it)") and §4.4 step 3 ("type = ELF64_R_TYPE"), front ends never
// classify or reject this value — only the architecture-specific back
// end (internal/backend) knows what the numbers mean.
type RelocType uint32

// Relocation describes a single fixup to apply within a section once
// layout has assigned final addresses.
type Relocation struct {
	Type RelocType
	// Section is the local section index the fixup applies within.
	Section int
	// Offset is the byte offset within that section to patch.
	Offset uint64
	// Symbol is the referenced symbol, resolved at parse time through
	// the defining object's local table (so it already points at the
	// global merge survivor for non-local symbols). internal/layout
	// fills in Symbol.Addr in place once sections are placed, which
	// this relocation then observes through the same pointer.
	Symbol *Symbol
	Addend int64
}

// ObjectFile is a single parsed input unit: an ELF ET_REL file, stored
// under a stable id in the owning Context so that other entities can
// reference "the object at index N" instead of holding a pointer.
type ObjectFile struct {
	// ID is this object's index in the Context's object arena.
	ID       int
	Path     string
	Sections []*Section
	// Locals is this object's full local symbol table, indexed exactly
	// like the input format's own symbol table (so relocations can
	// reference an entry by that index): one *Symbol per table slot.
	// For a LOCAL-binding entry the *Symbol is private to this object.
	// For a GLOBAL/WEAK entry it is whichever *Symbol the global merge
	// rule decided survives, so every reference through this object's
	// local table automatically sees the winning definition.
	Locals []*Symbol
	// Relocations applies across all of this object's sections.
	Relocations []*Relocation
	// FromArchive is the id of the archive.Member this object was
	// extracted from, or -1 if it was given on the command line
	// directly.
	FromArchive int
}

// SectionByRawIndex finds the Section with the given RawIndex, or nil
// if none matches, i.e. looks a section up by the input format's own
// section numbering.
func (o *ObjectFile) SectionByRawIndex(raw int) *Section {
	for _, s := range o.Sections {
		if s.RawIndex == raw {
			return s
		}
	}
	return nil
}
