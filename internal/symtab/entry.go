package symtab

import (
	"unsafe"

	"github.com/xyproto/weld/internal/rbtree"
)

// containerOf and containerOfArchive recover the entry wrapping an
// rbtree.Node, relying on Node being the first field of each entry
// type. This is the Go analogue of the original's rb_entry container_of
// macro.

func containerOf(n *rbtree.Node) *globalEntry {
	return (*globalEntry)(unsafe.Pointer(n))
}

func containerOfArchive(n *rbtree.Node) *archiveEntry {
	return (*archiveEntry)(unsafe.Pointer(n))
}
