package weld

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyproto/weld/internal/diag"
	"github.com/xyproto/weld/internal/frontend"
	"github.com/xyproto/weld/internal/object"
)

var objMagic = []byte("FAKEOBJ\x00")
var arMagic = []byte("FAKEAR\x00\x00")

type stubObjectFE struct{}

func (stubObjectFE) Name() string { return "stub" }

func (stubObjectFE) Probe(r io.ReaderAt, size int64) (bool, error) {
	return probeMagic(r, size, objMagic), nil
}

func (stubObjectFE) Parse(r io.ReaderAt, size int64, path string, id int, resolver frontend.Resolver, sink *diag.Sink) (*object.ObjectFile, error) {
	sym := &object.Symbol{Name: "stub_sym", Binding: object.BindGlobal, State: object.StateDefined, DefObject: id}
	survivor, err := resolver.Resolve("stub_sym", sym)
	if err != nil {
		return nil, err
	}
	return &object.ObjectFile{
		ID:     id,
		Path:   path,
		Locals: []*object.Symbol{nil, survivor},
	}, nil
}

type stubArchiveFE struct {
	members     []frontend.ArchiveMember
	symbolIndex map[string]int
}

func (stubArchiveFE) Name() string { return "stub-ar" }

func (stubArchiveFE) Probe(r io.ReaderAt, size int64) (bool, error) {
	return probeMagic(r, size, arMagic), nil
}

func (s stubArchiveFE) Parse(r io.ReaderAt, size int64, path string) ([]frontend.ArchiveMember, map[string]int, error) {
	return s.members, s.symbolIndex, nil
}

func probeMagic(r io.ReaderAt, size int64, magic []byte) bool {
	if size < int64(len(magic)) {
		return false
	}
	buf := make([]byte, len(magic))
	if _, err := r.ReadAt(buf, 0); err != nil {
		return false
	}
	return bytes.Equal(buf, magic)
}

func newStubContext() *Context {
	ctx := NewContext(diag.New())
	ctx.registry = frontend.NewRegistry()
	ctx.registry.RegisterArchive(stubArchiveFE{})
	ctx.registry.RegisterObject(stubObjectFE{})
	return ctx
}

func TestAddInputRecognizesObject(t *testing.T) {
	ctx := newStubContext()
	data := append(append([]byte{}, objMagic...), []byte("rest")...)

	err := ctx.AddInput("a.o", data)
	require.NoError(t, err)
	require.Len(t, ctx.objects, 1)
	assert.Equal(t, "a.o", ctx.objects[0].Path)
	assert.Equal(t, -1, ctx.objects[0].FromArchive)
	assert.Contains(t, ctx.unprocessed, ctx.objects[0].ID)

	got := ctx.Globals.Lookup("stub_sym")
	require.NotNil(t, got)
	assert.Equal(t, object.StateDefined, got.State)
}

func TestAddInputRecognizesArchive(t *testing.T) {
	ctx := newStubContext()
	ctx.registry = frontend.NewRegistry()
	ctx.registry.RegisterArchive(stubArchiveFE{
		members:     []frontend.ArchiveMember{{Name: "x.o", Data: []byte("payload")}},
		symbolIndex: map[string]int{"needed": 0},
	})
	ctx.registry.RegisterObject(stubObjectFE{})

	data := append(append([]byte{}, arMagic...), []byte("rest")...)
	err := ctx.AddInput("libx.a", data)
	require.NoError(t, err)
	require.Len(t, ctx.archives, 1)
	assert.Equal(t, "libx.a", ctx.archives[0].path)
	memberID, ok := ctx.archives[0].index.Lookup("needed")
	require.True(t, ok)
	assert.Equal(t, 0, memberID)
}

func TestAddInputUnrecognizedFormat(t *testing.T) {
	ctx := newStubContext()
	err := ctx.AddInput("mystery.bin", []byte("nope"))
	assert.Error(t, err)
}

func TestAddInputTwoObjectsMergeGlobal(t *testing.T) {
	ctx := newStubContext()
	data := append(append([]byte{}, objMagic...), []byte("1")...)

	require.NoError(t, ctx.AddInput("a.o", data))

	// b.o defines the same strong global stub_sym; the merge rule table
	// treats GLOBAL vs GLOBAL as a hard multiple-definition error, which
	// Resolve propagates back through Parse and AddInput.
	err := ctx.AddInput("b.o", data)
	assert.Error(t, err)
}
