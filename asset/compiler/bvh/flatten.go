package bvh

import (
	"fmt"

	"github.com/achilleasa/aobvh/asset/geometry"
)

// Size of a serialized NodeRecord in bytes.
const NodeRecordSize = 2*geometry.Int32Size + geometry.BoundsSize

// NodeRecord is the fixed-layout node representation consumed by the GPU
// traversal kernel. Internal nodes store the record indices of their children
// (always > 0). Leaves store the negated bounds of their index range:
// Left = -start and Right = -end, so Right < 0 identifies a leaf.
type NodeRecord struct {
	Left   int32
	Right  int32
	Bounds geometry.Bounds
}

// Returns true if the record describes a leaf.
func (r *NodeRecord) IsLeaf() bool {
	return r.Right < 0
}

// Get the index range of a leaf record.
func (r *NodeRecord) LeafRange() IndexRange {
	return IndexRange{Start: int(-r.Left), End: int(-r.Right)}
}

// FlatTree is a breadth-first serialization of a tree together with the
// primitive index permutation its leaves reference.
type FlatTree struct {
	Nodes   []NodeRecord
	Indices []uint32
}

// Flatten serializes the tree in breadth-first order. The root is record 0
// and the children of each internal node are stored in adjacent records.
func (t *Tree) Flatten() FlatTree {
	flat := FlatTree{
		Nodes:   make([]NodeRecord, 0, len(t.nodes)),
		Indices: append([]uint32(nil), t.indices...),
	}

	queue := make([]int32, 0, len(t.nodes))
	queue = append(queue, 0)
	nextNodeIndex := int32(1)

	for len(queue) > 0 {
		node := &t.nodes[queue[0]]
		queue = queue[1:]

		rec := NodeRecord{Bounds: node.Bounds}
		if node.IsLeaf() {
			rec.Left = int32(-node.Range.Start)
			rec.Right = int32(-node.Range.End)
		} else {
			rec.Left = nextNodeIndex
			rec.Right = nextNodeIndex + 1
			nextNodeIndex += 2
			queue = append(queue, node.Left, node.Right)
		}

		flat.Nodes = append(flat.Nodes, rec)
	}

	return flat
}

// Restore rebuilds a tree from its flattened form. The node topology, leaf
// ranges and index permutation are validated against prims; any
// inconsistency yields an error wrapping ErrCorruptTree.
func Restore(flat FlatTree, prims Primitives, opts BuildOptions) (*Tree, error) {
	if prims == nil || prims.Len() == 0 {
		return nil, fmt.Errorf("%w: no primitives", ErrCorruptTree)
	}
	if len(flat.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrCorruptTree)
	}
	if len(flat.Indices) != prims.Len() {
		return nil, fmt.Errorf("%w: index count %d does not match primitive count %d", ErrCorruptTree, len(flat.Indices), prims.Len())
	}

	seen := make([]bool, prims.Len())
	for _, idx := range flat.Indices {
		if int(idx) >= len(seen) || seen[idx] {
			return nil, fmt.Errorf("%w: indices are not a permutation", ErrCorruptTree)
		}
		seen[idx] = true
	}

	nodeCount := int32(len(flat.Nodes))
	nodes := make([]Node, nodeCount)
	parents := make([]int32, nodeCount)
	for i := range parents {
		parents[i] = -1
	}

	for i, rec := range flat.Nodes {
		node := &nodes[i]
		node.Bounds = rec.Bounds

		if rec.IsLeaf() {
			r := rec.LeafRange()
			if r.Start < 0 || r.Empty() || r.End > len(flat.Indices) {
				return nil, fmt.Errorf("%w: node %d has invalid leaf range %s", ErrCorruptTree, i, r)
			}
			node.Kind = LeafNode
			node.Range = r
			continue
		}

		// Children must follow their parent so the topology is acyclic
		for _, child := range [2]int32{rec.Left, rec.Right} {
			if child <= int32(i) || child >= nodeCount {
				return nil, fmt.Errorf("%w: node %d references invalid child %d", ErrCorruptTree, i, child)
			}
			if parents[child] != -1 {
				return nil, fmt.Errorf("%w: node %d is referenced by more than one parent", ErrCorruptTree, child)
			}
			parents[child] = int32(i)
		}
		node.Kind = InternalNode
		node.Left = rec.Left
		node.Right = rec.Right
	}

	for i := int32(1); i < nodeCount; i++ {
		if parents[i] == -1 {
			return nil, fmt.Errorf("%w: node %d is unreachable", ErrCorruptTree, i)
		}
	}

	// Children have higher indices than their parents; derive internal
	// ranges bottom-up.
	for i := nodeCount - 1; i >= 0; i-- {
		node := &nodes[i]
		if node.IsLeaf() {
			continue
		}
		left, right := nodes[node.Left].Range, nodes[node.Right].Range
		if left.End != right.Start {
			return nil, fmt.Errorf("%w: node %d children cover non-adjacent ranges %s and %s", ErrCorruptTree, i, left, right)
		}
		node.Range = IndexRange{left.Start, right.End}
	}

	if root := nodes[0].Range; root.Start != 0 || root.End != len(flat.Indices) {
		return nil, fmt.Errorf("%w: root covers %s instead of all %d indices", ErrCorruptTree, root, len(flat.Indices))
	}

	tree := &Tree{
		prims:   prims,
		opts:    opts.normalize(),
		nodes:   nodes,
		indices: append([]uint32(nil), flat.Indices...),
	}
	tree.stats = tree.collectStats()
	return tree, nil
}

// Recompute build stats from the current topology.
func (t *Tree) collectStats() BuildStats {
	stats := BuildStats{TotalItems: len(t.indices)}
	t.Walk(func(_ int, node *Node, depth int) bool {
		stats.Nodes++
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		if node.IsLeaf() {
			stats.Leaves++
			stats.PartitionedItems += node.Range.Count()
		}
		return true
	})
	return stats
}
