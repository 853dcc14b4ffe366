package elfobj

import (
	"fmt"

	"github.com/xyproto/weld/internal/byteio"
	"github.com/xyproto/weld/internal/object"
)

// parseRelocations decodes the RELA table at relaIdx and attaches each
// entry to its target section, resolving the referenced symbol through
// the object's own local table (by ELF64_R_SYM index) per §4.4.3.
func parseRelocations(
	raw []byte,
	sections []rawSection,
	relaIdx int,
	sectionForRaw map[int]*object.Section,
	obj *object.ObjectFile,
	localSyms []*object.Symbol,
) error {
	sh := sections[relaIdx]
	target, ok := sectionForRaw[int(sh.info)]
	if !ok {
		// Target section was not SHF_ALLOC (e.g. a debug section); its
		// relocations are irrelevant to the linked image.
		return nil
	}

	data := rawSectionData(raw, sections, relaIdx)
	n := len(data) / rela64Size

	for i := 0; i < n; i++ {
		b := data[i*rela64Size : (i+1)*rela64Size]
		offset := byteio.ReadLE64(b[0:8])
		info := byteio.ReadLE64(b[8:16])
		addend := int64(byteio.ReadLE64(b[16:24]))

		symIdx := elf64RSym(info)
		relType := elf64RType(info)

		if int(symIdx) >= len(localSyms) || localSyms[symIdx] == nil {
			return fmt.Errorf("relocation in section %s: unknown symbol index %d", target.Name, symIdx)
		}
		sym := localSyms[symIdx]

		// ELF64_R_TYPE is carried through unclassified: this front end
		// is architecture-neutral (§1, §4.4.3) and leaves interpreting
		// the numeric code to whichever backend.Backend the driver
		// selects for the object's machine architecture at link time.
		obj.Relocations = append(obj.Relocations, &object.Relocation{
			Type:    object.RelocType(relType),
			Section: target.Index,
			Offset:  offset,
			Symbol:  sym,
			Addend:  addend,
		})
	}

	return nil
}
