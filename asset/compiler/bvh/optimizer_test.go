package bvh

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Build a deliberately poor tree over 8 boxes along X: the root splits the
// boxes into the interleaved groups {0,2,4,6} and {1,3,5,7}.
func interleavedTree() *Tree {
	boxes := boxesAlongX(8)
	indices := []uint32{0, 2, 4, 6, 1, 3, 5, 7}

	left := IndexRange{0, 4}
	right := IndexRange{4, 8}
	nodes := []Node{
		{Bounds: rangeBounds(boxes, indices, IndexRange{0, 8}), Kind: InternalNode, Left: 1, Right: 2, Range: IndexRange{0, 8}},
		{Bounds: rangeBounds(boxes, indices, left), Kind: LeafNode, Range: left},
		{Bounds: rangeBounds(boxes, indices, right), Kind: LeafNode, Range: right},
	}

	return &Tree{
		prims:   boxes,
		opts:    BuildOptions{LeafLimit: 4, Bins: 8},
		nodes:   nodes,
		indices: indices,
	}
}

func TestOptimizeRepairsInterleavedSplit(t *testing.T) {
	tree := interleavedTree()
	before := tree.SAHCost()

	stats := tree.Optimize(DefaultOptimizeOptions(), rand.New(rand.NewSource(1)))
	assertTreeInvariants(t, tree)

	assert.Equal(t, before, stats.CostBefore)
	assert.True(t, stats.CostAfter < stats.CostBefore, "expected cost to drop; before %f after %f", stats.CostBefore, stats.CostAfter)
	assert.InDelta(t, tree.SAHCost(), stats.CostAfter, 1e-6)
	assert.Equal(t, 1, stats.Improved)
	assert.Equal(t, 2, stats.SplitLeaves)

	// The root now separates the 4 leftmost boxes from the 4 rightmost ones
	root := tree.nodes[0]
	groups := make([][]uint32, 0, 2)
	for _, child := range []int32{root.Left, root.Right} {
		r := tree.nodes[child].Range
		group := append([]uint32(nil), tree.indices[r.Start:r.End]...)
		sort.Slice(group, func(i, j int) bool { return group[i] < group[j] })
		groups = append(groups, group)
	}
	assert.ElementsMatch(t, [][]uint32{{0, 1, 2, 3}, {4, 5, 6, 7}}, groups)
}

func TestOptimizeNeverIncreasesCost(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	type spec struct {
		tris int
		opts OptimizeOptions
	}

	annealed := DefaultOptimizeOptions()
	annealed.AnnealIterations = 50
	annealed.StartTemperature = 10

	small := DefaultOptimizeOptions()
	small.NeighborhoodSize = 4
	small.MoveableCount = 2

	specs := []spec{
		{50, DefaultOptimizeOptions()},
		{400, DefaultOptimizeOptions()},
		{200, annealed},
		{200, small},
	}

	for index, s := range specs {
		tris := randomTriangles(rng, s.tris)
		tree := Build(tris, DefaultMeshBuildOptions())
		before := tree.SAHCost()

		stats := tree.Optimize(s.opts, rand.New(rand.NewSource(int64(index))))
		assertTreeInvariants(t, tree)

		after := tree.SAHCost()
		assert.True(t, after <= before, "[spec %d] cost regressed from %f to %f", index, before, after)
		assert.True(t, stats.Visited > 0, "[spec %d] expected internal nodes to be visited", index)

		// Traversal is still exact after optimizing
		for rayIndex, ray := range randomRays(rng, 100) {
			expDist, _, expHit := bruteForceNearest(tris, ray)
			hit, ok := tree.IntersectNearest(ray)
			require.Equal(t, expHit, ok, "[spec %d] [ray %d]", index, rayIndex)
			if ok {
				assert.InDelta(t, expDist, hit.Distance, 1e-4, "[spec %d] [ray %d]", index, rayIndex)
			}
		}
	}
}

func TestOptimizeIsDeterministicForSeed(t *testing.T) {
	opts := DefaultOptimizeOptions()
	opts.AnnealIterations = 25

	build := func() *Tree {
		tris := randomTriangles(rand.New(rand.NewSource(11)), 150)
		return Build(tris, DefaultMeshBuildOptions())
	}

	a := build().Optimized(opts, rand.New(rand.NewSource(5)))
	b := build().Optimized(opts, rand.New(rand.NewSource(5)))
	assert.Equal(t, a.Flatten(), b.Flatten())

	// A nil generator falls back to opts.Seed
	opts.Seed = 5
	c := build().Optimized(opts, nil)
	assert.Equal(t, a.Flatten(), c.Flatten())
}

func TestOptimizeLeafTree(t *testing.T) {
	tree := Build(boxesAlongX(3), DefaultMeshBuildOptions())
	require.Equal(t, 1, tree.Len())

	stats := tree.Optimize(DefaultOptimizeOptions(), nil)
	assert.Equal(t, 0, stats.Visited)
	assert.Equal(t, 1, tree.Len())
}

func TestCommitRollsBackWorseRebuild(t *testing.T) {
	tree := Build(boxesAlongX(8), BuildOptions{LeafLimit: 1, Bins: 8})
	before := tree.Flatten()
	cost := tree.SAHCost()

	o := &optimizer{tree: tree, opts: DefaultOptimizeOptions().normalize()}

	// Force the interleaved assignment; its rebuild is more expensive
	root := tree.nodes[0]
	var groupA, groupB []candidate
	tree.Walk(func(index int, node *Node, _ int) bool {
		if !node.IsLeaf() {
			return true
		}
		c := candidate{node: int32(index), bounds: node.Bounds, r: node.Range, leaf: true}
		if tree.indices[node.Range.Start]%2 == 0 {
			groupA = append(groupA, c)
		} else {
			groupB = append(groupB, c)
		}
		return true
	})
	require.Len(t, groupA, 4)

	assert.False(t, o.commit(0, groupA, groupB))
	assert.Equal(t, 1, o.stats.Reverted)
	assert.Equal(t, root, tree.nodes[0])
	assert.Equal(t, cost, tree.SAHCost())
	assert.Equal(t, before, tree.Flatten())
}
