package weld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyproto/weld/internal/diag"
	"github.com/xyproto/weld/internal/object"
)

func TestResolverFirstInsertStores(t *testing.T) {
	c := NewContext(diag.New())
	r := &contextResolver{ctx: c}

	decl := &object.Symbol{Name: "foo", Binding: object.BindGlobal, State: object.StateDefined}
	survivor, err := r.Resolve("foo", decl)
	require.NoError(t, err)
	assert.Same(t, decl, survivor)
	assert.Same(t, decl, c.Globals.Lookup("foo"))
}

// TestResolverWeakYieldsToStrong checks both the value outcome (a
// later strong definition overrides an earlier weak one) and the
// identity outcome required by spec.md's Invariant 3: the Symbol
// instance returned by the first Resolve call keeps being what
// Globals.Lookup returns, now carrying the strong definition's
// content, rather than the pointer being swapped out from under
// anything that already captured it.
func TestResolverWeakYieldsToStrong(t *testing.T) {
	c := NewContext(diag.New())
	r := &contextResolver{ctx: c}

	weak := &object.Symbol{Name: "foo", Binding: object.BindWeak, State: object.StateDefined, DefObject: 1}
	first, err := r.Resolve("foo", weak)
	require.NoError(t, err)
	require.Same(t, weak, first)

	strong := &object.Symbol{Name: "foo", Binding: object.BindGlobal, State: object.StateDefined, DefObject: 2}
	survivor, err := r.Resolve("foo", strong)
	require.NoError(t, err)

	assert.Same(t, weak, survivor)
	assert.Same(t, weak, c.Globals.Lookup("foo"))
	assert.Equal(t, object.BindGlobal, survivor.Binding)
	assert.Equal(t, 2, survivor.DefObject)
}

func TestResolverMultipleDefinitionErrors(t *testing.T) {
	c := NewContext(diag.New())
	r := &contextResolver{ctx: c}

	first := &object.Symbol{Name: "foo", Binding: object.BindGlobal, State: object.StateDefined}
	_, err := r.Resolve("foo", first)
	require.NoError(t, err)

	second := &object.Symbol{Name: "foo", Binding: object.BindGlobal, State: object.StateDefined}
	_, err = r.Resolve("foo", second)
	assert.Error(t, err)
	// the original declaration must still be the one stored under the name
	assert.Same(t, first, c.Globals.Lookup("foo"))
}

// TestResolverUndefinedThenDefined mirrors TestResolverWeakYieldsToStrong
// for the UNDEFINED -> DEFINED transition: the pointer identity
// established by the first reference must be what every later lookup
// (and, in the real front end, every earlier Relocation.Symbol) sees,
// now updated to the defined symbol's content.
func TestResolverUndefinedThenDefined(t *testing.T) {
	c := NewContext(diag.New())
	r := &contextResolver{ctx: c}

	ref := &object.Symbol{Name: "bar", Binding: object.BindGlobal, State: object.StateUndefined}
	first, err := r.Resolve("bar", ref)
	require.NoError(t, err)
	require.Same(t, ref, first)

	def := &object.Symbol{Name: "bar", Binding: object.BindGlobal, State: object.StateDefined, DefObject: 3, Offset: 8}
	survivor, err := r.Resolve("bar", def)
	require.NoError(t, err)

	assert.Same(t, ref, survivor)
	assert.Same(t, ref, c.Globals.Lookup("bar"))
	assert.True(t, survivor.IsDefined())
	assert.Equal(t, 3, survivor.DefObject)
	assert.Equal(t, uint64(8), survivor.Offset)
}
