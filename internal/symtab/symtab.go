// Package symtab provides the two name-keyed indices the linker driver
// consults constantly: the global symbol map and the archive member
// index, both backed by internal/rbtree the way original_source's
// globals.h and archive.h back them with struct rb_tree.
package symtab

import (
	"github.com/xyproto/weld/internal/object"
	"github.com/xyproto/weld/internal/rbtree"
)

// globalEntry is the rbtree node wrapping one global symbol.
type globalEntry struct {
	rbtree.Node
	name string
	sym  *object.Symbol
}

func entryOf(n *rbtree.Node) *globalEntry {
	return containerOf(n)
}

// GlobalMap is the name -> *object.Symbol index every resolved global
// or weak symbol lives in, mirroring globals.h's rb_tree of struct
// symbol.
//
// A name's *object.Symbol pointer, once stored by Insert, never
// changes for the lifetime of the map: spec.md's Invariant 3 requires
// every local symbol table entry that already resolved to this Symbol
// to keep seeing the merge rule's outcome, and those entries were
// handed out as this same pointer at parse time (internal/elfobj's
// parseSymbols stores whatever Resolve returns directly into the
// object's local table, and relocations.go freezes that same pointer
// into Relocation.Symbol). Swapping in a different *Symbol on a later,
// stronger definition would strand every alias taken before the swap
// pointing at stale data. So a merge decision is applied by mutating
// the one stored Symbol's fields in place (see the weld package's
// mergeRule), never by replacing which Symbol is stored under a name.
// internal/rbtree.ReplaceNode — substituting one node for another at
// an existing key without rebalancing — has no caller here as a
// result: there is only ever one node per name, and it is never
// swapped, only the data behind it is updated.
type GlobalMap struct {
	tree rbtree.Tree
}

// NewGlobalMap returns an empty global map.
func NewGlobalMap() *GlobalMap {
	return &GlobalMap{}
}

func cmpGlobal(a, b *rbtree.Node) int {
	return stringCompare(entryOf(a).name, entryOf(b).name)
}

func keyCmpGlobal(key any, n *rbtree.Node) int {
	return stringCompare(key.(string), entryOf(n).name)
}

// Lookup returns the symbol named name, or nil if no such symbol has
// been inserted.
func (m *GlobalMap) Lookup(name string) *object.Symbol {
	n := m.tree.Find(name, keyCmpGlobal)
	if n == nil {
		return nil
	}
	return entryOf(n).sym
}

// Insert records sym under name if no entry exists yet, following
// globals_insert_symbol's "existing" out-pointer convention: on a
// fresh name it stores sym itself and returns (sym, nil, false). On a
// name collision it stores nothing and returns (nil, existing, true),
// handing the caller the long-lived Symbol instance already stored
// under name so a merge-rule decision can update it in place (see
// GlobalMap's package doc for why identity, not just value, matters
// here).
func (m *GlobalMap) Insert(name string, sym *object.Symbol) (inserted *object.Symbol, existing *object.Symbol, alreadyPresent bool) {
	if n := m.tree.Find(name, keyCmpGlobal); n != nil {
		return nil, entryOf(n).sym, true
	}

	e := &globalEntry{name: name, sym: sym}
	rbtree.ClearNode(&e.Node)
	m.tree.Add(&e.Node, cmpGlobal)
	return sym, nil, false
}

// Len reports how many symbols are currently recorded.
func (m *GlobalMap) Len() int {
	n := 0
	for cur := m.tree.First(); cur != nil; cur = rbtree.Next(cur) {
		n++
	}
	return n
}

// Undefined returns the names of all symbols whose state is still
// StateUndefined, in sorted order, for reporting unresolved references
// once the archive demand-loading fixpoint has settled.
func (m *GlobalMap) Undefined() []string {
	var names []string
	for cur := m.tree.First(); cur != nil; cur = rbtree.Next(cur) {
		e := entryOf(cur)
		if !e.sym.IsDefined() {
			names = append(names, e.name)
		}
	}
	return names
}

// Each calls fn once per stored symbol in sorted name order.
func (m *GlobalMap) Each(fn func(name string, sym *object.Symbol)) {
	for cur := m.tree.First(); cur != nil; cur = rbtree.Next(cur) {
		e := entryOf(cur)
		fn(e.name, e.sym)
	}
}

// archiveEntry is the rbtree node wrapping one archive symbol-table
// row: a name paired with the id of the archive member that defines
// it.
type archiveEntry struct {
	rbtree.Node
	name     string
	memberID int
}

func archiveEntryOf(n *rbtree.Node) *archiveEntry {
	return containerOfArchive(n)
}

// ArchiveIndex is the name -> member-id map built from an archive's
// ranlib symbol table, mirroring archive.h's per-archive rb_tree of
// struct archive_symbol.
type ArchiveIndex struct {
	tree rbtree.Tree
}

// NewArchiveIndex returns an empty archive index.
func NewArchiveIndex() *ArchiveIndex {
	return &ArchiveIndex{}
}

func cmpArchive(a, b *rbtree.Node) int {
	return stringCompare(archiveEntryOf(a).name, archiveEntryOf(b).name)
}

func keyCmpArchive(key any, n *rbtree.Node) int {
	return stringCompare(key.(string), archiveEntryOf(n).name)
}

// Add records that name is defined by the archive member with the
// given id. Archives may list the same symbol under more than one
// member only in malformed input; the first insertion wins, matching
// the ranlib table's own first-match semantics.
func (a *ArchiveIndex) Add(name string, memberID int) {
	if a.tree.Find(name, keyCmpArchive) != nil {
		return
	}
	e := &archiveEntry{name: name, memberID: memberID}
	rbtree.ClearNode(&e.Node)
	a.tree.Add(&e.Node, cmpArchive)
}

// Lookup returns the member id that defines name and true, or (0,
// false) if the archive's symbol table has no such entry.
func (a *ArchiveIndex) Lookup(name string) (memberID int, ok bool) {
	n := a.tree.Find(name, keyCmpArchive)
	if n == nil {
		return 0, false
	}
	return archiveEntryOf(n).memberID, true
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
