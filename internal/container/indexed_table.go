// Package container provides a dense, power-of-two-capacity index
// table modelled on the reference-counted section and symbol arrays of
// the original C linker. object.ObjectFile does not use it: its
// section array and local symbol array are plain Go slices.
package container

import "github.com/xyproto/weld/internal/byteio"

// IndexedTable is a dense array that grows its backing storage in
// power-of-two steps, mirroring the capacity/nsections/maxidx bookkeeping
// of sections.h and symbols.h. Index 0 is valid; there is no reserved
// null slot, unlike the original's 1-based arrays.
type IndexedTable[T any] struct {
	entries []T
	count   int
}

// NewIndexedTable creates a table with room for at least hint entries
// preallocated.
func NewIndexedTable[T any](hint int) *IndexedTable[T] {
	cap := byteio.AlignPow2(uint64(hint))
	if cap == 0 {
		cap = 1
	}
	return &IndexedTable[T]{entries: make([]T, 0, cap)}
}

// Append adds value at the next free index and returns that index.
func (tbl *IndexedTable[T]) Append(value T) int {
	tbl.entries = append(tbl.entries, value)
	tbl.count++
	return tbl.count - 1
}

// At returns the value stored at idx. idx must be in [0, Len()).
func (tbl *IndexedTable[T]) At(idx int) T {
	return tbl.entries[idx]
}

// Set overwrites the value stored at idx. idx must be in [0, Len()).
func (tbl *IndexedTable[T]) Set(idx int, value T) {
	tbl.entries[idx] = value
}

// Len reports the number of entries currently stored.
func (tbl *IndexedTable[T]) Len() int {
	return tbl.count
}

// Reserve grows the backing array so that it can hold at least n
// entries without reallocating, rounding up to the next power of two
// as sections_insert does when it outgrows its capacity.
func (tbl *IndexedTable[T]) Reserve(n int) {
	if n <= cap(tbl.entries) {
		return
	}
	newCap := byteio.AlignPow2(uint64(n))
	grown := make([]T, len(tbl.entries), newCap)
	copy(grown, tbl.entries)
	tbl.entries = grown
}

// All returns the entries in index order. The returned slice aliases
// the table's internal storage and must not be mutated by length.
func (tbl *IndexedTable[T]) All() []T {
	return tbl.entries
}
