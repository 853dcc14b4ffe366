package elfobj

// These constants mirror the subset of <elf.h> that elf64.c relies on.
// The original vendors the system header; since Go has no equivalent
// header to vendor, the fields actually used by the parser are named
// here directly rather than reaching for a third-party ELF constants
// package (none appears anywhere in the example pack).

const (
	magic0 = 0x7f
	magic1 = 'E'
	magic2 = 'L'
	magic3 = 'F'

	classNone = 0
	class32   = 1
	class64   = 2

	dataNone = 0
	data2LSB = 1
	data2MSB = 2

	evCurrent = 1
)

// ehdr64Size is sizeof(Elf64_Ehdr).
const ehdr64Size = 64

// shdr64Size is sizeof(Elf64_Shdr).
const shdr64Size = 64

// sym64Size is sizeof(Elf64_Sym).
const sym64Size = 24

// rela64Size is sizeof(Elf64_Rela).
const rela64Size = 24

// e_type values.
const (
	etNone = 0
	etRel  = 1
	etExec = 2
	etDyn  = 3
)

// e_machine values named for documentation; Machine() returns whatever
// raw code the header carries, and the driver's backend.Registry
// decides by lookup whether a backend is registered for it, so adding
// an aarch64 backend needs no change here or in Probe/Parse (§1's
// "pluggable back-end seam").
const (
	emX86_64  = 62
	emAArch64 = 183
)

// Section header sh_type values.
const (
	shtNull         = 0
	shtProgbits     = 1
	shtSymtab       = 2
	shtStrtab       = 3
	shtRela         = 4
	shtHash         = 5
	shtDynamic      = 6
	shtNote         = 7
	shtNobits       = 8
	shtRel          = 9
	shtShlib        = 10
	shtDynsym       = 11
	shtInitArray    = 14
	shtFiniArray    = 15
	shtPreinitArray = 16
	shtGroup        = 17
)

// Section header sh_flags bits.
const (
	shfWrite     = 0x1
	shfAlloc     = 0x2
	shfExecinstr = 0x4
)

// Special section indices.
const (
	shnUndef  = 0
	shnAbs    = 0xfff1
	shnCommon = 0xfff2
)

// Symbol st_info binding (high 4 bits).
const (
	stbLocal  = 0
	stbGlobal = 1
	stbWeak   = 2
)

// Symbol st_info type (low 4 bits).
const (
	sttNotype  = 0
	sttObject  = 1
	sttFunc    = 2
	sttSection = 3
	sttFile    = 4
	sttCommon  = 5
	sttTLS     = 6
)

func stBind(info byte) byte { return info >> 4 }
func stType(info byte) byte { return info & 0xf }

func elf64RSym(info uint64) uint32  { return uint32(info >> 32) }
func elf64RType(info uint64) uint32 { return uint32(info) }
