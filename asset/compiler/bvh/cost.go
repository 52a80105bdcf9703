package bvh

const (
	DefaultCostTraversal float32 = 1.0
	DefaultCostIntersect float32 = 1.0
)

// SAHCost returns the expected traversal cost of the tree using the default
// cost weights.
func (t *Tree) SAHCost() float32 {
	return t.SAHCostWith(DefaultCostTraversal, DefaultCostIntersect)
}

// SAHCostWith returns the expected traversal cost of the tree. A leaf costs
// count*costIntersect; an internal node costs costTraversal plus the child
// costs weighted by the ratio of child to parent surface area. Internal nodes
// with a degenerate surface area use unweighted child costs.
func (t *Tree) SAHCostWith(costTraversal, costIntersect float32) float32 {
	return t.subtreeCost(0, costTraversal, costIntersect)
}

func (t *Tree) subtreeCost(index int32, costTraversal, costIntersect float32) float32 {
	node := &t.nodes[index]
	if node.IsLeaf() {
		return float32(node.Range.Count()) * costIntersect
	}

	costLeft := t.subtreeCost(node.Left, costTraversal, costIntersect)
	costRight := t.subtreeCost(node.Right, costTraversal, costIntersect)

	parentArea := node.Bounds.SurfaceArea()
	if parentArea <= minSurfaceArea {
		return costTraversal + costLeft + costRight
	}

	probLeft := t.nodes[node.Left].Bounds.SurfaceArea() / parentArea
	probRight := t.nodes[node.Right].Bounds.SurfaceArea() / parentArea
	return costTraversal + probLeft*costLeft + probRight*costRight
}
