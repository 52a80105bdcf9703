package bvh

import (
	"math/rand"
	"sort"
	"time"

	"github.com/achilleasa/aobvh/asset/compiler/bvh/partition"
	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/achilleasa/aobvh/log"
	"github.com/chewxy/math32"
)

// Minimum improvement required by a single local search step.
const searchDelta float32 = 1e-6

// OptimizeStats summarizes an optimization pass.
type OptimizeStats struct {
	// Internal nodes examined.
	Visited int

	// Nodes whose children were re-partitioned.
	Improved int

	// Re-partitions that were rolled back because the rebuilt subtree
	// was not cheaper than the original.
	Reverted int

	// Leaves split to refine a neighborhood.
	SplitLeaves int

	CostBefore float32
	CostAfter  float32
	Duration   time.Duration
}

// A node collected into a neighborhood. Synthetic entries are produced by
// splitting a leaf and do not exist in the arena.
type candidate struct {
	node   int32
	bounds geometry.Bounds
	r      IndexRange
	leaf   bool
	inA    bool
}

type optimizer struct {
	logger log.Logger
	tree   *Tree
	opts   OptimizeOptions
	rng    *rand.Rand
	stats  OptimizeStats
}

// Optimize improves the expected traversal cost of the tree by locally
// re-partitioning the subtree below each internal node, parents first. For
// every internal node a neighborhood of descendants is collected and a lower
// cost assignment of those descendants to the two children is searched for.
// Improvements are committed by reordering the node's index range and
// rebuilding both children; a rebuild that does not lower the subtree cost is
// rolled back, so the tree cost never increases.
//
// If rng is nil, a generator seeded with opts.Seed is used.
func (t *Tree) Optimize(opts OptimizeOptions, rng *rand.Rand) OptimizeStats {
	opts = opts.normalize()
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}

	o := &optimizer{
		logger: log.New("bvh optimizer"),
		tree:   t,
		opts:   opts,
		rng:    rng,
	}

	start := time.Now()
	o.stats.CostBefore = t.SAHCostWith(opts.CostTraversal, opts.CostIntersect)
	o.optimizeNode(0, 0)
	t.compact()
	buildTime := t.stats.BuildTime
	t.stats = t.collectStats()
	t.stats.BuildTime = buildTime
	o.stats.CostAfter = t.SAHCostWith(opts.CostTraversal, opts.CostIntersect)
	o.stats.Duration = time.Since(start)

	o.logger.Debugf(
		"optimized BVH in %d ms; visited: %d, improved: %d, reverted: %d, cost: %.4f -> %.4f",
		o.stats.Duration.Nanoseconds()/1e6,
		o.stats.Visited, o.stats.Improved, o.stats.Reverted,
		o.stats.CostBefore, o.stats.CostAfter,
	)

	return o.stats
}

// Optimized runs Optimize and returns the tree to allow chaining.
func (t *Tree) Optimized(opts OptimizeOptions, rng *rand.Rand) *Tree {
	t.Optimize(opts, rng)
	return t
}

func (o *optimizer) optimizeNode(index int32, depth int) {
	if o.tree.nodes[index].IsLeaf() {
		return
	}
	o.stats.Visited++

	if groupA, groupB, found := o.search(index); found {
		if o.commit(index, groupA, groupB) {
			o.logger.Debugf("found better partition at depth %d", depth)
		}
	}

	// Recurse into the (possibly rebuilt) children
	node := o.tree.nodes[index]
	o.optimizeNode(node.Left, depth+1)
	o.optimizeNode(node.Right, depth+1)
}

func (o *optimizer) entry(index int32, inA bool) candidate {
	node := &o.tree.nodes[index]
	return candidate{
		node:   index,
		bounds: node.Bounds,
		r:      node.Range,
		leaf:   node.IsLeaf(),
		inA:    inA,
	}
}

// Collect up to NeighborhoodSize descendants of an internal node by
// expanding its children breadth-first. Once the frontier consists only of
// leaves, the leaves are split into synthetic children instead. Each entry
// remembers which child of the node it descends from.
func (o *optimizer) collect(index int32) []candidate {
	node := o.tree.nodes[index]
	target := o.opts.NeighborhoodSize

	queue := make([]candidate, 0, target+1)
	queue = append(queue, o.entry(node.Left, true), o.entry(node.Right, false))

	for len(queue) < target && len(queue) > 0 {
		leaves := 0
		inQueue := len(queue)
		for i := 0; i < inQueue; i++ {
			c := queue[0]
			queue = queue[1:]

			if c.leaf {
				queue = append(queue, c)
				leaves++
				continue
			}

			n := o.tree.nodes[c.node]
			queue = append(queue, o.entry(n.Left, c.inA), o.entry(n.Right, c.inA))
			if len(queue) == target {
				break
			}
		}

		if len(queue) < target && leaves == len(queue) {
			for i := 0; i < leaves; i++ {
				c := queue[0]
				queue = queue[1:]

				if left, right, ok := o.splitLeaf(c); ok {
					queue = append(queue, left, right)
				} else {
					queue = append(queue, c)
				}
				if len(queue) == target {
					break
				}
			}
			break
		}
	}

	return queue
}

// Split a leaf entry into two synthetic children using the bipartition of
// its primitives with the lowest count*area cost. Only the leaf's own index
// range is reordered.
func (o *optimizer) splitLeaf(c candidate) (left, right candidate, ok bool) {
	count := c.r.Count()
	if !c.leaf || count < 2 || count > o.tree.opts.LeafLimit || count > partition.MaxEnumerate {
		return left, right, false
	}

	prims := o.tree.prims
	indices := o.tree.indices
	groupBounds := func(group []int) geometry.Bounds {
		bounds := geometry.EmptyBounds()
		for _, rel := range group {
			bounds = bounds.Encapsulate(prims.Bounds(int(indices[c.r.Start+rel])))
		}
		return bounds
	}

	var (
		best       partition.Bipartition
		bestBounds [2]geometry.Bounds
		bestCost   float32 = math32.MaxFloat32
	)
	partition.Enumerate(count, func(p partition.Bipartition) bool {
		boundsA, boundsB := groupBounds(p.A), groupBounds(p.B)
		cost := boundsA.SurfaceArea()*float32(len(p.A)) + boundsB.SurfaceArea()*float32(len(p.B))
		if cost < bestCost {
			best, bestCost = p, cost
			bestBounds = [2]geometry.Bounds{boundsA, boundsB}
		}
		return true
	})

	reordered := make([]uint32, 0, count)
	for _, rel := range best.A {
		reordered = append(reordered, indices[c.r.Start+rel])
	}
	for _, rel := range best.B {
		reordered = append(reordered, indices[c.r.Start+rel])
	}
	copy(indices[c.r.Start:c.r.End], reordered)

	mid := c.r.Start + len(best.A)
	o.stats.SplitLeaves++
	left = candidate{node: -1, bounds: bestBounds[0], r: IndexRange{c.r.Start, mid}, leaf: true, inA: c.inA}
	right = candidate{node: -1, bounds: bestBounds[1], r: IndexRange{mid, c.r.End}, leaf: true, inA: c.inA}
	return left, right, true
}

// Calculate count*area summed over both groups of a neighborhood partition.
func partitionCost(cands []candidate, p partition.Bipartition) float32 {
	return groupCost(cands, p.A) + groupCost(cands, p.B)
}

func groupCost(cands []candidate, group []int) float32 {
	if len(group) == 0 {
		return math32.Inf(1)
	}
	bounds := geometry.EmptyBounds()
	count := 0
	for _, idx := range group {
		bounds = bounds.Encapsulate(cands[idx].bounds)
		count += cands[idx].r.Count()
	}
	return bounds.SurfaceArea() * float32(count)
}

// Select the neighborhood entries that are most ambiguous about which child
// they belong to: the ones with the largest minimum signed gap to the
// current child bounds.
func (o *optimizer) moveable(cands []candidate, left, right geometry.Bounds) []int {
	order := make([]int, len(cands))
	gaps := make([]float32, len(cands))
	for i, c := range cands {
		order[i] = i
		gaps[i] = math32.Min(geometry.SignedGap(c.bounds, left), geometry.SignedGap(c.bounds, right))
	}
	sort.SliceStable(order, func(a, b int) bool {
		return gaps[order[a]] > gaps[order[b]]
	})

	if len(order) > o.opts.MoveableCount {
		order = order[:o.opts.MoveableCount]
	}
	sort.Ints(order)
	return order
}

// Search for a lower cost assignment of the neighborhood below an internal
// node. Returns the two groups if the best assignment beats the current split
// by more than the configured tolerance.
func (o *optimizer) search(index int32) (groupA, groupB []candidate, found bool) {
	node := o.tree.nodes[index]
	left, right := o.tree.nodes[node.Left], o.tree.nodes[node.Right]
	baseline := float32(left.Range.Count())*left.Bounds.SurfaceArea() +
		float32(right.Range.Count())*right.Bounds.SurfaceArea()

	cands := o.collect(index)
	sides := make([]bool, len(cands))
	for i, c := range cands {
		sides[i] = c.inA
	}
	best := partition.FromSides(sides)
	bestCost := partitionCost(cands, best)
	moveable := o.moveable(cands, left.Bounds, right.Bounds)

	best, bestCost = o.descend(cands, best, bestCost, func(p partition.Bipartition, fn func(partition.Bipartition) bool) {
		partition.PairMoves(p, moveable, fn)
	})
	best, bestCost = o.descend(cands, best, bestCost, func(p partition.Bipartition, fn func(partition.Bipartition) bool) {
		partition.OneMoves(p, moveable, fn)
	})
	if o.opts.AnnealIterations > 0 {
		best, bestCost = o.anneal(cands, best, bestCost, moveable)
	}

	if !(bestCost+o.opts.Tolerance < baseline) || !best.Valid() {
		return nil, nil, false
	}

	for _, idx := range best.A {
		groupA = append(groupA, cands[idx])
	}
	for _, idx := range best.B {
		groupB = append(groupB, cands[idx])
	}
	return groupA, groupB, true
}

// Repeatedly sweep a move neighborhood, keeping the best improving candidate
// of each sweep, until a sweep yields no improvement.
func (o *optimizer) descend(cands []candidate, best partition.Bipartition, bestCost float32, moves func(partition.Bipartition, func(partition.Bipartition) bool)) (partition.Bipartition, float32) {
	for {
		sweepBest, sweepCost := best, bestCost
		moves(best, func(p partition.Bipartition) bool {
			if cost := partitionCost(cands, p); cost+searchDelta <= sweepCost {
				sweepBest, sweepCost = p, cost
			}
			return true
		})

		if sweepCost == bestCost {
			return best, bestCost
		}
		best, bestCost = sweepBest, sweepCost
	}
}

// Simulated annealing over single moves of movable entries. The best
// partition ever visited is returned.
func (o *optimizer) anneal(cands []candidate, best partition.Bipartition, bestCost float32, moveable []int) (partition.Bipartition, float32) {
	current, currentCost := best, bestCost
	iterations := o.opts.AnnealIterations

	for it := 0; it < iterations; it++ {
		next := partition.AlterWithin(o.rng, current, moveable)
		nextCost := partitionCost(cands, next)

		temperature := partition.Temperature(it, iterations, o.opts.StartTemperature)
		if o.rng.Float32() < partition.KeepProbability(currentCost, nextCost, temperature) {
			current, currentCost = next, nextCost
		}
		if currentCost+searchDelta <= bestCost {
			best, bestCost = current, currentCost
		}
	}
	return best, bestCost
}

// Reorder the node's index range so that groupA precedes groupB and rebuild
// both children over the new sub-ranges. The rebuild is rolled back if the
// subtree cost does not decrease.
func (o *optimizer) commit(index int32, groupA, groupB []candidate) bool {
	tree := o.tree
	node := tree.nodes[index]
	r := node.Range
	ct, ci := o.opts.CostTraversal, o.opts.CostIntersect

	oldCost := tree.subtreeCost(index, ct, ci)
	saved := append([]uint32(nil), tree.indices[r.Start:r.End]...)

	reordered := make([]uint32, 0, r.Count())
	for _, c := range groupA {
		reordered = append(reordered, saved[c.r.Start-r.Start:c.r.End-r.Start]...)
	}
	mid := r.Start + len(reordered)
	for _, c := range groupB {
		reordered = append(reordered, saved[c.r.Start-r.Start:c.r.End-r.Start]...)
	}
	if len(reordered) != r.Count() {
		panic("bvh: optimizer neighborhood does not cover the node range")
	}
	copy(tree.indices[r.Start:r.End], reordered)

	arenaLen := len(tree.nodes)
	b := newBuilder(tree.prims, tree.indices, tree.nodes, tree.opts)
	left := b.partition(IndexRange{r.Start, mid}, 0)
	right := b.partition(IndexRange{mid, r.End}, 0)
	tree.nodes = b.nodes
	tree.nodes[index].Left = left
	tree.nodes[index].Right = right

	if newCost := tree.subtreeCost(index, ct, ci); newCost < oldCost {
		o.stats.Improved++
		return true
	}

	// Roll back; the rebuilt nodes were appended after arenaLen
	copy(tree.indices[r.Start:r.End], saved)
	tree.nodes = tree.nodes[:arenaLen]
	tree.nodes[index].Left = node.Left
	tree.nodes[index].Right = node.Right
	o.stats.Reverted++
	return false
}
