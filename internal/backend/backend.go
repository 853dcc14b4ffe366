// Package backend implements the per-architecture relocation back end
// (C8): machine identification, CPU alignment, and ApplyReloc, grounded
// on original_source/src/backends/x86_64.c's reloc_abs64/reloc_pc32/
// reloc_abs32/reloc_abs32s dispatch table and its PLT32-aliased-to-PC32
// registration. Unlike the C original, ApplyReloc here overflow-checks
// every truncating write per the spec's redesign, comparing the typed
// result against what actually got written.
//
// Classification of the raw numeric object.RelocType code lives here,
// not in a front end: per spec.md §3/§4.4.3 a front end only carries
// ELF64_R_TYPE through unclassified, and interpreting it is a back
// end's job, keeping the front end usable for any architecture a
// backend.Backend gets registered for.
package backend

import (
	"fmt"

	"github.com/xyproto/weld/internal/byteio"
	"github.com/xyproto/weld/internal/object"
)

// Backend applies relocations for one target machine architecture.
type Backend interface {
	Name() string
	// March is the numeric machine architecture code this backend
	// handles (ELF e_machine convention, reused here since it's the
	// only input format specified).
	March() uint16
	// Alignment is the CPU's natural code alignment, used by
	// internal/layout to raise TEXT section alignment.
	Alignment() uint64
	// ApplyReloc patches sectBytes at offset according to relocType,
	// given the section's own final virtual address (sectAddr), the
	// resolved target address (targetAddr) and the relocation addend.
	ApplyReloc(sectBytes []byte, offset uint64, sectAddr, targetAddr uint64, addend int64, relocType object.RelocType) error
}

// x86_64 implements Backend for the x86-64 architecture.
type x86_64 struct{}

// X86_64 is the x86-64 relocation back end.
var X86_64 Backend = x86_64{}

const x86_64March = 62 // EM_X86_64

// x86-64 psABI relocation type codes (ELF64_R_TYPE values), classified
// only here: object.RelocType carries these numbers unclassified all
// the way from internal/elfobj.
const (
	rX86_64_64    = 1
	rX86_64_PC32  = 2
	rX86_64_PLT32 = 4
	rX86_64_32    = 10
	rX86_64_32S   = 11
)

func (x86_64) Name() string      { return "x86-64" }
func (x86_64) March() uint16     { return x86_64March }
func (x86_64) Alignment() uint64 { return 16 }

func (x86_64) ApplyReloc(sectBytes []byte, offset uint64, sectAddr, targetAddr uint64, addend int64, relocType object.RelocType) error {
	switch uint32(relocType) {
	case rX86_64_64:
		if offset+8 > uint64(len(sectBytes)) {
			return fmt.Errorf("ABS64 relocation at 0x%x overruns section", offset)
		}
		value := targetAddr + uint64(addend)
		byteio.WriteLE64(sectBytes[offset:], value)
		return nil

	case rX86_64_PC32, rX86_64_PLT32:
		if offset+4 > uint64(len(sectBytes)) {
			return fmt.Errorf("PC32 relocation at 0x%x overruns section", offset)
		}
		pc := sectAddr + offset + 4
		value := int64(targetAddr) + addend - int64(pc)
		truncated := int32(value)
		if int64(truncated) != value {
			return fmt.Errorf("PC32 relocation at 0x%x overflows 32 bits: computed %d", offset, value)
		}
		byteio.WriteLE32(sectBytes[offset:], uint32(truncated))
		return nil

	case rX86_64_32:
		if offset+4 > uint64(len(sectBytes)) {
			return fmt.Errorf("ABS32 relocation at 0x%x overruns section", offset)
		}
		value := targetAddr + uint64(addend)
		truncated := uint32(value)
		if uint64(truncated) != value {
			return fmt.Errorf("ABS32 relocation at 0x%x overflows 32 bits: computed 0x%x", offset, value)
		}
		byteio.WriteLE32(sectBytes[offset:], truncated)
		return nil

	case rX86_64_32S:
		if offset+4 > uint64(len(sectBytes)) {
			return fmt.Errorf("ABS32S relocation at 0x%x overruns section", offset)
		}
		value := int64(targetAddr) + addend
		truncated := int32(value)
		if int64(truncated) != value {
			return fmt.Errorf("ABS32S relocation at 0x%x overflows 32 bits: computed %d", offset, value)
		}
		byteio.WriteLE32(sectBytes[offset:], uint32(truncated))
		return nil

	default:
		return fmt.Errorf("unknown relocation type %d", relocType)
	}
}

// Registry maps machine architecture codes to their Backend, mirroring
// backend_register/backend lookup by march.
type Registry struct {
	byMarch map[uint16]Backend
}

// NewRegistry returns a registry with the x86-64 backend pre-registered.
func NewRegistry() *Registry {
	r := &Registry{byMarch: map[uint16]Backend{}}
	r.Register(X86_64)
	return r
}

// Register adds (or replaces) the backend for its own March().
func (r *Registry) Register(b Backend) {
	r.byMarch[b.March()] = b
}

// Lookup returns the backend registered for march, or (nil, false).
func (r *Registry) Lookup(march uint16) (Backend, bool) {
	b, ok := r.byMarch[march]
	return b, ok
}
