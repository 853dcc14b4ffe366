package weld

import (
	"fmt"

	"github.com/xyproto/weld/internal/backend"
	"github.com/xyproto/weld/internal/byteio"
	"github.com/xyproto/weld/internal/elfwriter"
	"github.com/xyproto/weld/internal/layout"
	"github.com/xyproto/weld/internal/object"
)

// LinkOptions configures the final layout and output image. BaseAddr
// and PageSize mirror the original_source linker's own --base/--page
// flags; EntrySymbol names the global whose address becomes e_entry.
type LinkOptions struct {
	BaseAddr    uint64
	PageSize    uint64
	EntrySymbol string
}

// DefaultLinkOptions returns the conventional static-executable layout:
// load address 0x400000, 4 KiB pages, entry symbol "_start".
func DefaultLinkOptions() LinkOptions {
	return LinkOptions{BaseAddr: 0x400000, PageSize: 0x1000, EntrySymbol: "_start"}
}

// LinkResult is everything Link produced: the section layout and the
// rendered ELF64 executable bytes.
type LinkResult struct {
	Image     *layout.Image
	Bytes     []byte
	EntryAddr uint64
}

// Link drives the whole pipeline to completion: archive demand-loading
// (§4.6), COMMON lowering and section layout (§4.7), address
// resolution, relocation application (§4.8), and finally rendering an
// ET_EXEC image. Every input must already have been added via AddInput.
func (c *Context) Link(opts LinkOptions) (*LinkResult, error) {
	if err := c.ResolveGlobals(); err != nil {
		return nil, err
	}

	be, ok := c.backends.Lookup(c.march)
	if !ok {
		return nil, fmt.Errorf("no backend registered for machine 0x%x", c.march)
	}

	c.lowerCommons()

	allSections := c.allSections()

	// First pass at base 0 just to count the populated groups, so the
	// header/program-header reservation matches the real PT_LOAD count;
	// Layout is deterministic and re-running it with the real base
	// simply overwrites every section's Addr with the final value.
	probe := layout.Layout(allSections, 0, opts.PageSize, be.Alignment())
	numLoadable := 0
	for _, g := range probe.Groups {
		if g.Size > 0 {
			numLoadable++
		}
	}
	headerSpace := byteio.AlignUp(elfwriter.HeaderSize(numLoadable), opts.PageSize)

	img := layout.Layout(allSections, opts.BaseAddr+headerSpace, opts.PageSize, be.Alignment())

	layout.ResolveSymbolAddresses(c.allLocalSymbols(), c.sectionFor)

	if err := c.applyRelocations(be); err != nil {
		return nil, err
	}

	entrySym := c.Globals.Lookup(opts.EntrySymbol)
	if entrySym == nil || !entrySym.IsDefined() {
		return nil, fmt.Errorf("entry symbol %q is undefined", opts.EntrySymbol)
	}

	out, err := elfwriter.Write(img, opts.BaseAddr, headerSpace, entrySym.Addr, be.March())
	if err != nil {
		return nil, err
	}

	return &LinkResult{Image: img, Bytes: out, EntryAddr: entrySym.Addr}, nil
}

// lowerCommons lowers every symbol still in StateCommon once the merge
// fixpoint has settled into a synthetic ".bss.common" section owned by
// a dedicated object, so the rest of layout/relocation never special-
// cases COMMON at all.
func (c *Context) lowerCommons() {
	var commons []*object.Symbol
	c.Globals.Each(func(name string, sym *object.Symbol) {
		if sym.State == object.StateCommon {
			commons = append(commons, sym)
		}
	})
	if len(commons) == 0 {
		return
	}

	id := c.allocObjectID()
	sect := layout.LowerCommonSymbols(commons, 0)
	for _, sym := range commons {
		sym.DefObject = id
	}

	c.objects = append(c.objects, &object.ObjectFile{
		ID:          id,
		Path:        "<common>",
		Sections:    []*object.Section{sect},
		FromArchive: -1,
	})
}

func (c *Context) allSections() []*object.Section {
	var out []*object.Section
	for _, o := range c.objects {
		out = append(out, o.Sections...)
	}
	return out
}

// allLocalSymbols flattens every object's local table, skipping the
// nil gaps left by reserved index 0 and by entries the front end
// dropped (STT_FILE, unsupported types, non-allocated section refs).
func (c *Context) allLocalSymbols() []*object.Symbol {
	var out []*object.Symbol
	for _, o := range c.objects {
		for _, sym := range o.Locals {
			if sym != nil {
				out = append(out, sym)
			}
		}
	}
	return out
}

func (c *Context) sectionFor(sym *object.Symbol) *object.Section {
	obj := c.objectByID(sym.DefObject)
	if obj == nil {
		return nil
	}
	for _, s := range obj.Sections {
		if s.Index == sym.DefSection {
			return s
		}
	}
	return nil
}

func (c *Context) applyRelocations(b backend.Backend) error {
	for _, o := range c.objects {
		for _, reloc := range o.Relocations {
			sect := c.relocSection(o, reloc.Section)
			if sect == nil {
				return fmt.Errorf("%s: relocation references unknown section %d", o.Path, reloc.Section)
			}
			if reloc.Symbol == nil || !reloc.Symbol.IsDefined() {
				name := "?"
				if reloc.Symbol != nil {
					name = reloc.Symbol.Name
				}
				return fmt.Errorf("%s: relocation against undefined symbol %q", o.Path, name)
			}
			if err := b.ApplyReloc(sect.Data, reloc.Offset, sect.Addr, reloc.Symbol.Addr, reloc.Addend, reloc.Type); err != nil {
				return fmt.Errorf("%s: %w", o.Path, err)
			}
		}
	}
	return nil
}

func (c *Context) relocSection(o *object.ObjectFile, index int) *object.Section {
	for _, s := range o.Sections {
		if s.Index == index {
			return s
		}
	}
	return nil
}
