package bvh

import (
	"time"

	"github.com/achilleasa/aobvh/log"
)

// BuildStats summarizes a tree build.
type BuildStats struct {
	PartitionedItems int
	TotalItems       int
	Nodes            int
	Leaves           int
	MaxDepth         int
	BuildTime        time.Duration
}

type builder struct {
	logger log.Logger

	prims   Primitives
	indices []uint32

	// Nodes stored as a contiguous list; the root is always at index 0.
	nodes []Node

	leafLimit int
	bins      int

	stats BuildStats
}

func newBuilder(prims Primitives, indices []uint32, nodes []Node, opts BuildOptions) *builder {
	return &builder{
		logger:    log.New("bvh builder"),
		prims:     prims,
		indices:   indices,
		nodes:     nodes,
		leafLimit: opts.LeafLimit,
		bins:      opts.Bins,
	}
}

// Build constructs a BVH over all primitives using a binned surface area
// heuristic. Ranges with at most opts.LeafLimit primitives become leaves.
//
// Build panics if prims is nil or empty.
func Build(prims Primitives, opts BuildOptions) *Tree {
	if prims == nil || prims.Len() == 0 {
		panic("bvh: cannot build a tree without primitives")
	}

	indices := make([]uint32, prims.Len())
	for i := range indices {
		indices[i] = uint32(i)
	}

	return build(prims, indices, opts)
}

func build(prims Primitives, indices []uint32, opts BuildOptions) *Tree {
	opts = opts.normalize()
	b := newBuilder(prims, indices, make([]Node, 0, 2*len(indices)/opts.LeafLimit+1), opts)
	b.stats.TotalItems = len(indices)

	start := time.Now()
	b.partition(IndexRange{0, len(indices)}, 0)
	b.stats.BuildTime = time.Since(start)

	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leaves,
	)

	return &Tree{
		prims:   prims,
		opts:    opts,
		nodes:   b.nodes,
		indices: indices,
		stats:   b.stats,
	}
}

// Partition a range and return its node index. Node bounds are always
// computed from the member primitives.
func (b *builder) partition(r IndexRange, depth int) int32 {
	if r.Empty() {
		panic("bvh: cannot build a node over an empty range")
	}
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	node := Node{
		Bounds: rangeBounds(b.prims, b.indices, r),
		Range:  r,
	}

	// Do we have few enough items for a leaf?
	if r.Count() <= b.leafLimit {
		return b.createLeaf(node)
	}

	leftRange, rightRange := SplitSAH(b.prims, b.indices, r, node.Bounds, b.bins)

	// Add node to list
	node.Kind = InternalNode
	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, node)
	b.stats.Nodes++

	// Partition children and update node indices
	left := b.partition(leftRange, depth+1)
	right := b.partition(rightRange, depth+1)
	b.nodes[nodeIndex].Left = left
	b.nodes[nodeIndex].Right = right

	return nodeIndex
}

func (b *builder) createLeaf(node Node) int32 {
	node.Kind = LeafNode

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, node)

	b.stats.Nodes++
	b.stats.Leaves++
	b.stats.PartitionedItems += node.Range.Count()

	return nodeIndex
}
