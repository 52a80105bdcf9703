package bvh

import (
	"github.com/achilleasa/aobvh/types"
	"github.com/chewxy/math32"
)

type traversal struct {
	tree *Tree
	ray  types.Ray

	// Distance of the nearest hit so far.
	minLambda float32
	best      Hit
	found     bool

	boundsTests int

	// Stop at the first hit closer than minLambda.
	anyHit bool
}

// IntersectNearest returns the nearest primitive hit along the ray. Children
// are visited near-first and pruned once their entry distance is not closer
// than the nearest hit found so far.
//
// The returned Hit always carries the number of bounds tests performed; the
// remaining fields are only valid if the second return value is true.
func (t *Tree) IntersectNearest(ray types.Ray) (Hit, bool) {
	tr := traversal{
		tree:      t,
		ray:       ray,
		minLambda: math32.Inf(1),
	}
	tr.run()

	tr.best.BoundsTests = tr.boundsTests
	return tr.best, tr.found
}

// IntersectAny returns true if the ray hits any primitive closer than maxDist.
// Traversal stops at the first such hit.
func (t *Tree) IntersectAny(ray types.Ray, maxDist float32) bool {
	tr := traversal{
		tree:      t,
		ray:       ray,
		minLambda: maxDist,
		anyHit:    true,
	}
	tr.run()
	return tr.found
}

func (tr *traversal) run() {
	tr.boundsTests++
	if _, hit := tr.tree.nodes[0].Bounds.IntersectRay(tr.ray); !hit {
		return
	}
	tr.visit(0)
}

func (tr *traversal) done() bool {
	return tr.anyHit && tr.found
}

func (tr *traversal) visit(index int32) {
	node := &tr.tree.nodes[index]
	if node.IsLeaf() {
		tr.visitLeaf(node)
		return
	}

	first := node.Left
	second := node.Right

	firstHit, ok := tr.childEntry(first)
	secondHit, ok2 := tr.childEntry(second)
	if !ok {
		firstHit = math32.Inf(1)
	}
	if !ok2 {
		secondHit = math32.Inf(1)
	}

	if secondHit < firstHit {
		first, second = second, first
		firstHit, secondHit = secondHit, firstHit
	}

	if firstHit < tr.minLambda {
		tr.visit(first)
		if tr.done() {
			return
		}
	}
	if secondHit < tr.minLambda {
		tr.visit(second)
	}
}

func (tr *traversal) childEntry(index int32) (float32, bool) {
	tr.boundsTests++
	return tr.tree.nodes[index].Bounds.IntersectRay(tr.ray)
}

func (tr *traversal) visitLeaf(node *Node) {
	for k := node.Range.Start; k < node.Range.End; k++ {
		prim := int(tr.tree.indices[k])
		hit, ok := tr.tree.prims.IntersectRay(prim, tr.ray)
		tr.boundsTests += hit.BoundsTests
		if !ok || hit.Distance >= tr.minLambda {
			continue
		}

		hit.Primitive = prim
		tr.best = hit
		tr.minLambda = hit.Distance
		tr.found = true
		if tr.anyHit {
			return
		}
	}
}
