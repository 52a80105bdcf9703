package bvh

import (
	"github.com/achilleasa/aobvh/asset/geometry"
)

type NodeKind uint8

const (
	LeafNode NodeKind = iota
	InternalNode
)

// Node is an entry in the tree arena. Internal nodes reference their children
// by arena index; leaves reference a range of the tree's index slice. Range is
// also populated for internal nodes and spans the indices of the whole
// subtree.
type Node struct {
	Bounds geometry.Bounds
	Kind   NodeKind

	// Child arena indices (internal nodes only).
	Left  int32
	Right int32

	Range IndexRange
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Kind == LeafNode
}

// Tree is a BVH stored as an arena of nodes with the root at index 0. The
// tree owns a permutation of primitive indices; leaves reference contiguous
// ranges of this permutation.
//
// Queries never mutate the tree and can run concurrently. Optimize requires
// exclusive access.
type Tree struct {
	prims   Primitives
	opts    BuildOptions
	nodes   []Node
	indices []uint32
	stats   BuildStats
}

// Get the primitive source the tree was built over.
func (t *Tree) Primitives() Primitives {
	return t.prims
}

// Get the options used for building the tree.
func (t *Tree) Options() BuildOptions {
	return t.opts
}

// Get the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Get the node at the given arena index.
func (t *Tree) Node(index int) Node {
	return t.nodes[index]
}

// Get the bounds of the root node.
func (t *Tree) Bounds() geometry.Bounds {
	return t.nodes[0].Bounds
}

// Get the primitive index permutation referenced by the leaves. The returned
// slice must not be modified.
func (t *Tree) Indices() []uint32 {
	return t.indices
}

// Get the stats collected by the last build.
func (t *Tree) BuildStats() BuildStats {
	return t.stats
}

// Walk visits all nodes in depth-first order (parent before children, left
// before right). Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(index int, node *Node, depth int) bool) {
	t.walk(0, 0, fn)
}

func (t *Tree) walk(index int32, depth int, fn func(int, *Node, int) bool) {
	node := &t.nodes[index]
	if !fn(int(index), node, depth) || node.IsLeaf() {
		return
	}
	t.walk(node.Left, depth+1, fn)
	t.walk(node.Right, depth+1, fn)
}

// Rebuild the tree from scratch over its current primitive permutation.
func (t *Tree) Rebuild() {
	rebuilt := build(t.prims, t.indices, t.opts)
	t.nodes = rebuilt.nodes
	t.stats = rebuilt.stats
}

// Rewrite the arena so that only nodes reachable from the root remain, in
// depth-first order.
func (t *Tree) compact() {
	nodes := make([]Node, 0, len(t.nodes))
	var visit func(index int32) int32
	visit = func(index int32) int32 {
		node := t.nodes[index]
		out := int32(len(nodes))
		nodes = append(nodes, node)
		if !node.IsLeaf() {
			left := visit(node.Left)
			right := visit(node.Right)
			nodes[out].Left, nodes[out].Right = left, right
		}
		return out
	}
	visit(0)
	t.nodes = nodes
}
