package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyproto/weld/internal/object"
)

func TestLayoutOrdersGroupsTextRodataDataZero(t *testing.T) {
	sections := []*object.Section{
		{Kind: object.SectionData, Name: ".data", Align: 8, Size: 16},
		{Kind: object.SectionZero, Name: ".bss", Align: 8, Size: 32},
		{Kind: object.SectionText, Name: ".text", Align: 16, Size: 64},
		{Kind: object.SectionRodata, Name: ".rodata", Align: 4, Size: 8},
	}

	img := Layout(sections, 0x1000, 0x1000, 16)

	require.Len(t, img.Groups, 4)
	assert.Equal(t, object.SectionText, img.Groups[0].Kind)
	assert.Equal(t, object.SectionRodata, img.Groups[1].Kind)
	assert.Equal(t, object.SectionData, img.Groups[2].Kind)
	assert.Equal(t, object.SectionZero, img.Groups[3].Kind)
}

func TestLayoutAlignsAndPacksWithinGroup(t *testing.T) {
	a := &object.Section{Kind: object.SectionData, Align: 4, Size: 3}
	b := &object.Section{Kind: object.SectionData, Align: 8, Size: 5}

	img := Layout([]*object.Section{a, b}, 0, 0x1000, 16)

	require.Len(t, img.Groups, 1)
	assert.Equal(t, uint64(0), a.Addr%4)
	assert.Equal(t, uint64(0), b.Addr%8)
	assert.Greater(t, b.Addr, a.Addr)
}

func TestLayoutPageAlignsBetweenGroups(t *testing.T) {
	text := &object.Section{Kind: object.SectionText, Align: 16, Size: 1}
	data := &object.Section{Kind: object.SectionData, Align: 8, Size: 1}

	Layout([]*object.Section{text, data}, 0, 0x1000, 16)

	assert.Equal(t, uint64(0), data.Addr%0x1000)
}

func TestLayoutRaisesTextAlignmentToCPUAlignment(t *testing.T) {
	text := &object.Section{Kind: object.SectionText, Align: 1, Size: 1}

	img := Layout([]*object.Section{text}, 0x123, 0x1000, 16)

	assert.Equal(t, uint64(0), img.Groups[0].Addr%16)
}

func TestResolveSymbolAddresses(t *testing.T) {
	sect := &object.Section{Addr: 0x4000}
	sym := &object.Symbol{State: object.StateDefined, Offset: 0x10}
	abs := &object.Symbol{State: object.StateDefined, Absolute: true, Addr: 0xCAFE}

	ResolveSymbolAddresses([]*object.Symbol{sym, abs}, func(s *object.Symbol) *object.Section {
		return sect
	})

	assert.Equal(t, uint64(0x4010), sym.Addr)
	assert.Equal(t, uint64(0xCAFE), abs.Addr)
}

func TestLowerCommonSymbolsSizesAndAligns(t *testing.T) {
	a := &object.Symbol{Size: 3, Align: 4}
	b := &object.Symbol{Size: 10, Align: 16}

	sect := LowerCommonSymbols([]*object.Symbol{a, b}, 5)

	assert.Equal(t, uint64(16), sect.Align)
	assert.Equal(t, object.StateDefined, a.State)
	assert.Equal(t, object.StateDefined, b.State)
	assert.Equal(t, uint64(0), a.Offset%4)
	assert.Equal(t, uint64(0), b.Offset%16)
	assert.Equal(t, 5, a.DefSection)
	assert.Equal(t, b.Offset+b.Size, sect.Size)
}
