package elfobj

import (
	"github.com/xyproto/weld/internal/byteio"
	"github.com/xyproto/weld/internal/diag"
	"github.com/xyproto/weld/internal/frontend"
	"github.com/xyproto/weld/internal/object"
)

// rawSym is one decoded Elf64_Sym entry, before classification.
type rawSym struct {
	name  uint32
	info  byte
	shndx uint16
	value uint64
	size  uint64
}

func readRawSyms(raw []byte, sections []rawSection, symtabIdx int) []rawSym {
	data := rawSectionData(raw, sections, symtabIdx)
	n := len(data) / sym64Size
	out := make([]rawSym, n)
	for i := 0; i < n; i++ {
		b := data[i*sym64Size : (i+1)*sym64Size]
		out[i] = rawSym{
			name:  byteio.ReadLE32(b[0:4]),
			info:  b[4],
			shndx: byteio.ReadLE16(b[6:8]),
			value: byteio.ReadLE64(b[8:16]),
			size:  byteio.ReadLE64(b[16:24]),
		}
	}
	return out
}

// parseSymbols decodes the symbol table at symtabIdx, classifying each
// entry per §4.4 and publishing non-local symbols through resolver. It
// returns the full local table, indexed exactly like the input symtab,
// so relocations can address entries by ELF64_R_SYM index.
func parseSymbols(
	raw []byte,
	sections []rawSection,
	symtabIdx int,
	strtab []byte,
	sectionForRaw map[int]*object.Section,
	obj *object.ObjectFile,
	objID int,
	resolver frontend.Resolver,
	sink *diag.Sink,
) ([]*object.Symbol, error) {
	syms := readRawSyms(raw, sections, symtabIdx)
	table := make([]*object.Symbol, len(syms))

	for i := 1; i < len(syms); i++ {
		rs := syms[i]
		name := cstr(strtab, uint64(rs.name))
		bind := classifyBinding(stBind(rs.info))
		typ := classifyType(stType(rs.info))

		if stType(rs.info) == sttFile {
			continue
		}
		if typ == typeUnsupported {
			sink.Warnf("symbol %s: processor-specific type dropped", name)
			continue
		}

		sym := &object.Symbol{
			Name:    name,
			Binding: bind,
			Type:    typ,
			Source:  objID,
			Size:    rs.size,
		}

		switch {
		case stType(rs.info) == sttCommon:
			sym.State = object.StateCommon
			sym.Binding = object.BindWeak
			sym.Size = rs.size
			sym.Align = rs.value
		case rs.shndx == shnUndef:
			sym.State = object.StateUndefined
		case rs.shndx == shnAbs:
			sym.State = object.StateDefined
			sym.Absolute = true
			sym.Addr = rs.value
		case rs.shndx == shnCommon:
			sym.State = object.StateCommon
			sym.Size = rs.size
			sym.Align = rs.value
		default:
			sect, ok := sectionForRaw[int(rs.shndx)]
			if !ok {
				sink.Warnf("symbol %s: references non-allocated section %d, dropping", name, rs.shndx)
				continue
			}
			sym.State = object.StateDefined
			sym.DefObject = objID
			sym.DefSection = sect.Index
			sym.Offset = rs.value
			if typ == object.TypeSection {
				sym.Name = sect.Name
				name = sect.Name
			}
		}

		if bind == object.BindLocal {
			table[i] = sym
			continue
		}

		survivor, err := resolver.Resolve(name, sym)
		if err != nil {
			return nil, err
		}
		table[i] = survivor
	}

	return table, nil
}

const typeUnsupported = object.SymbolType(-1)

func classifyBinding(b byte) object.SymbolBinding {
	switch b {
	case stbGlobal:
		return object.BindGlobal
	case stbWeak:
		return object.BindWeak
	default:
		return object.BindLocal
	}
}

func classifyType(t byte) object.SymbolType {
	switch t {
	case sttNotype:
		return object.TypeNotype
	case sttObject:
		return object.TypeObject
	case sttFunc:
		return object.TypeFunction
	case sttSection:
		return object.TypeSection
	case sttTLS:
		return object.TypeTLS
	case sttCommon:
		return object.TypeObject
	default:
		return typeUnsupported
	}
}
