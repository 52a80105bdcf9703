package bvh

import (
	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/achilleasa/aobvh/types"
)

// TriangleList adapts a triangle slice to the Primitives interface.
type TriangleList []geometry.Triangle

func (l TriangleList) Len() int {
	return len(l)
}

func (l TriangleList) Bounds(i int) geometry.Bounds {
	return l[i].Bounds
}

func (l TriangleList) IntersectRay(i int, ray types.Ray) (Hit, bool) {
	dist, ok := l[i].Intersect(ray)
	if !ok {
		return Hit{}, false
	}
	return Hit{Distance: dist, Inner: i}, true
}
