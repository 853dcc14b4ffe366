package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolIsDefined(t *testing.T) {
	undef := &Symbol{State: StateUndefined}
	common := &Symbol{State: StateCommon}
	defined := &Symbol{State: StateDefined}

	assert.False(t, undef.IsDefined())
	assert.True(t, common.IsDefined())
	assert.True(t, defined.IsDefined())
}

func TestSectionByRawIndex(t *testing.T) {
	obj := &ObjectFile{
		Sections: []*Section{
			{Index: 0, RawIndex: 1, Name: ".text"},
			{Index: 1, RawIndex: 3, Name: ".data"},
		},
	}

	got := obj.SectionByRawIndex(3)
	assert.NotNil(t, got)
	assert.Equal(t, ".data", got.Name)

	assert.Nil(t, obj.SectionByRawIndex(99))
}

func TestKindStringers(t *testing.T) {
	assert.Equal(t, "TEXT", SectionText.String())
	assert.Equal(t, "ZERO", SectionZero.String())
	assert.Equal(t, "WEAK", BindWeak.String())
	assert.Equal(t, "FUNCTION", TypeFunction.String())
}

func TestRelocTypeCarriesRawCode(t *testing.T) {
	// RelocType is an opaque wire code a front end reads straight off
	// ELF64_R_TYPE; object itself never classifies it.
	assert.EqualValues(t, 4, RelocType(4))
}
