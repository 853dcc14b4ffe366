package rbtree

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intNode embeds Node with a plain int key, used throughout these tests
// in place of the real symbol/member keys internal/symtab stores.
type intNode struct {
	Node
	key int
}

func cmpInt(a, b *Node) int {
	na := entry(a)
	nb := entry(b)
	return na.key - nb.key
}

func keyCmpInt(key any, n *Node) int {
	return key.(int) - entry(n).key
}

// entry recovers the embedding intNode from its Node field, relying on
// Node always being the first field of intNode (matching the C
// rb_entry container_of convention).
func entry(n *Node) *intNode {
	return (*intNode)(unsafe.Pointer(n))
}

func inorder(tr *Tree) []int {
	var out []int
	for n := tr.First(); n != nil; n = Next(&n.Node) {
		out = append(out, n.key)
	}
	return out
}

func newIntNode(k int) *intNode {
	n := &intNode{key: k}
	ClearNode(&n.Node)
	return n
}

func TestInsertSorted(t *testing.T) {
	var tr Tree
	values := []int{5, 3, 8, 1, 4, 7, 9, 2, 6, 0}
	for _, v := range values {
		tr.Add(&newIntNode(v).Node, cmpInt)
	}

	got := inorder(&tr)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestFindAndBounds(t *testing.T) {
	var tr Tree
	for _, v := range []int{10, 20, 30, 40, 50} {
		tr.Add(&newIntNode(v).Node, cmpInt)
	}

	found := tr.Find(30, keyCmpInt)
	require.NotNil(t, found)
	assert.Equal(t, 30, entry(found).key)

	assert.Nil(t, tr.Find(99, keyCmpInt))
	assert.Equal(t, 10, entry(tr.First()).key)
	assert.Equal(t, 50, entry(tr.Last()).key)
}

func TestNextPrevWalk(t *testing.T) {
	var tr Tree
	for _, v := range []int{4, 2, 6, 1, 3, 5, 7} {
		tr.Add(&newIntNode(v).Node, cmpInt)
	}

	n := tr.First()
	var forward []int
	for n != nil {
		forward = append(forward, entry(n).key)
		n = Next(n)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, forward)

	n = tr.Last()
	var backward []int
	for n != nil {
		backward = append(backward, entry(n).key)
		n = Prev(n)
	}
	assert.Equal(t, []int{7, 6, 5, 4, 3, 2, 1}, backward)
}

func TestRemoveLeafMaintainsOrder(t *testing.T) {
	var tr Tree
	nodes := map[int]*intNode{}
	for _, v := range []int{5, 3, 8, 1, 4, 7, 9} {
		n := newIntNode(v)
		nodes[v] = n
		tr.Add(&n.Node, cmpInt)
	}

	tr.Remove(&nodes[1].Node)
	assert.True(t, IsClear(&nodes[1].Node))
	assert.Equal(t, []int{3, 4, 5, 7, 8, 9}, inorder(&tr))
}

func TestRemoveInternalTwoChildren(t *testing.T) {
	var tr Tree
	nodes := map[int]*intNode{}
	for _, v := range []int{5, 3, 8, 1, 4, 7, 9, 2, 6, 0} {
		n := newIntNode(v)
		nodes[v] = n
		tr.Add(&n.Node, cmpInt)
	}

	tr.Remove(&nodes[5].Node)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 6, 7, 8, 9}, inorder(&tr))

	tr.Remove(&nodes[0].Node)
	tr.Remove(&nodes[9].Node)
	assert.Equal(t, []int{1, 2, 3, 4, 6, 7, 8}, inorder(&tr))
}

func TestInsertRemoveRandomStaysSorted(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var tr Tree
	var nodes []*intNode
	present := map[int]bool{}

	for i := 0; i < 500; i++ {
		k := rng.Intn(2000)
		if present[k] {
			continue
		}
		present[k] = true
		n := newIntNode(k)
		nodes = append(nodes, n)
		tr.Add(&n.Node, cmpInt)
	}

	checkRBInvariants(t, &tr)

	rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
	half := len(nodes) / 2
	for _, n := range nodes[:half] {
		tr.Remove(&n.Node)
		delete(present, n.key)
	}

	checkRBInvariants(t, &tr)

	var want []int
	for k := range present {
		want = append(want, k)
	}
	sortInts(want)
	assert.Equal(t, want, inorder(&tr))
}

func TestReplaceNode(t *testing.T) {
	var tr Tree
	weak := newIntNode(42)
	tr.Add(&weak.Node, cmpInt)
	for _, v := range []int{10, 20, 30} {
		tr.Add(&newIntNode(v).Node, cmpInt)
	}

	strong := newIntNode(42)
	tr.ReplaceNode(&weak.Node, &strong.Node)

	assert.True(t, IsClear(&weak.Node))
	found := tr.Find(42, keyCmpInt)
	require.NotNil(t, found)
	assert.Same(t, &strong.Node, found)
	assert.Equal(t, []int{10, 20, 30, 42}, inorder(&tr))
}

func TestPostorderVisitsChildrenBeforeParent(t *testing.T) {
	var tr Tree
	for _, v := range []int{5, 3, 8, 1, 4, 7, 9} {
		tr.Add(&newIntNode(v).Node, cmpInt)
	}

	seen := map[*Node]bool{}
	for n := tr.FirstPostorder(); n != nil; n = NextPostorder(n) {
		if n.left != nil {
			assert.True(t, seen[n.left])
		}
		if n.right != nil {
			assert.True(t, seen[n.right])
		}
		seen[n] = true
	}
	assert.Equal(t, 7, len(seen))
}

// sortInts is a tiny insertion sort; avoids pulling in "sort" just for
// building a five-line expectation.
func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// checkRBInvariants walks the whole tree validating the red-black
// properties: root is black, red nodes have black children, and every
// root-to-nil path carries the same black height. Key ordering is not
// checked here; callers compare inorder() against a sorted list.
func checkRBInvariants(t *testing.T, tr *Tree) {
	t.Helper()
	if tr.root == nil {
		return
	}
	assert.Equal(t, black, tr.root.color, "root must be black")
	_, ok := blackHeight(t, tr.root)
	assert.True(t, ok, "black height mismatch somewhere in tree")
}

func blackHeight(t *testing.T, n *Node) (int, bool) {
	t.Helper()
	if n == nil {
		return 1, true
	}
	if n.color == red {
		if nodeColor(n.left) == red || nodeColor(n.right) == red {
			return 0, false
		}
	}
	lh, lok := blackHeight(t, n.left)
	rh, rok := blackHeight(t, n.right)
	if !lok || !rok || lh != rh {
		return 0, false
	}
	add := 0
	if n.color == black {
		add = 1
	}
	return lh + add, true
}
