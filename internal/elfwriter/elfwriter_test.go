package elfwriter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyproto/weld/internal/byteio"
	"github.com/xyproto/weld/internal/elfwriter"
	"github.com/xyproto/weld/internal/layout"
	"github.com/xyproto/weld/internal/object"
)

func TestWriteProducesValidHeaderAndLoadSegments(t *testing.T) {
	text := &object.Section{Kind: object.SectionText, Name: ".text", Align: 16, Size: 4, Data: []byte{0x90, 0x90, 0x90, 0xc3}}
	data := &object.Section{Kind: object.SectionData, Name: ".data", Align: 8, Size: 4, Data: []byte{1, 2, 3, 4}}
	bss := &object.Section{Kind: object.SectionZero, Name: ".bss", Align: 8, Size: 16}

	const base = uint64(0x400000)
	const pageSize = uint64(0x1000)

	headerSpace := byteio.AlignUp(elfwriter.HeaderSize(3), pageSize)
	img := layout.Layout([]*object.Section{text, data, bss}, base+headerSpace, pageSize, 16)

	out, err := elfwriter.Write(img, base, headerSpace, text.Addr, 62)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(out), int(headerSpace))
	assert.Equal(t, []byte{0x7f, 'E', 'L', 'F'}, out[0:4])
	assert.Equal(t, byte(2), out[4]) // ELFCLASS64
	assert.Equal(t, byte(1), out[5]) // ELFDATA2LSB

	eType := byteio.ReadLE16(out[16:18])
	assert.Equal(t, uint16(2), eType) // ET_EXEC

	machine := byteio.ReadLE16(out[18:20])
	assert.Equal(t, uint16(62), machine)

	entry := byteio.ReadLE64(out[24:32])
	assert.Equal(t, text.Addr, entry)

	numPhdr := byteio.ReadLE16(out[56:58])
	assert.Equal(t, uint16(3), numPhdr)
}

func TestWriteRejectsEmptyImage(t *testing.T) {
	img := &layout.Image{}
	_, err := elfwriter.Write(img, 0x400000, 0x1000, 0, 62)
	assert.Error(t, err)
}
