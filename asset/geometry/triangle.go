package geometry

import (
	"fmt"
	"math"

	"github.com/achilleasa/aobvh/types"
	"github.com/chewxy/math32"
)

// Determinant and distance threshold for ray/triangle tests; the smallest
// positive float32.
const intersectEpsilon float32 = math.SmallestNonzeroFloat32

// A world-space triangle with precomputed face frame, UV data and bounds.
// Triangles are immutable once created.
type Triangle struct {
	V0, V1, V2 types.Vec3

	UV0, UV1, UV2 types.Vec2
	UVMin, UVMax  types.Vec2
	UVArea        float32

	// Face frame. The normal is the normalized cross product of the
	// (v1-v0, v2-v0) edges; tangent and binormal follow the UV mapping.
	Normal   types.Vec3
	Tangent  types.Vec3
	Binormal types.Vec3
	Rotation types.Quat

	Bounds Bounds
}

// Create a triangle from its vertices and UV coordinates.
//
// Degenerate (zero-area) triangles produce a normal with NaN/Inf
// components; they are kept as-is and never report ray hits.
func NewTriangle(v0, v1, v2 types.Vec3, uv0, uv1, uv2 types.Vec2) Triangle {
	edge0 := v1.Sub(v0)
	edge1 := v2.Sub(v0)

	tri := Triangle{
		V0:     v0,
		V1:     v1,
		V2:     v2,
		UV0:    uv0,
		UV1:    uv1,
		UV2:    uv2,
		UVMin:  types.MinVec2(uv0, types.MinVec2(uv1, uv2)),
		UVMax:  types.MaxVec2(uv0, types.MaxVec2(uv1, uv2)),
		UVArea: uvArea(uv0, uv1, uv2),
		Normal: edge0.Cross(edge1).DivLen(),
		Bounds: BoundsFromPoints(v0, v1, v2),
	}

	// Solve the 2x2 UV edge system for the tangent frame
	st1 := uv1.Sub(uv0)
	st2 := uv2.Sub(uv0)
	det := st1[0]*st2[1] - st2[0]*st1[1]
	if det != 0 {
		inverse := 1.0 / det
		tri.Tangent = edge0.Mul(st2[1]).Sub(edge1.Mul(st1[1])).Mul(inverse).Normalize()
		tri.Binormal = edge1.Mul(st1[0]).Sub(edge0.Mul(st2[0])).Mul(inverse).Normalize()
	} else {
		// No usable UV mapping; build the frame from the first edge
		tri.Tangent = edge0.Normalize()
		tri.Binormal = tri.Normal.Cross(tri.Tangent).Normalize()
	}
	tri.Rotation = types.QuatLookRotation(tri.Normal, tri.Tangent)

	return tri
}

func uvArea(a, b, c types.Vec2) float32 {
	return math32.Abs(b.Sub(a).Cross(c.Sub(a))) * 0.5
}

// Get the triangle centroid.
func (tri *Triangle) Centroid() types.Vec3 {
	return tri.V0.Add(tri.V1).Add(tri.V2).Mul(1.0 / 3.0)
}

// Get the world-space triangle area.
func (tri *Triangle) Area() float32 {
	return 0.5 * tri.V1.Sub(tri.V0).Cross(tri.V2.Sub(tri.V0)).Len()
}

// Intersect the triangle with a ray and return the hit distance.
func (tri *Triangle) Intersect(ray types.Ray) (float32, bool) {
	t, _, _, ok := tri.IntersectBarycentric(ray)
	return t, ok
}

// Intersect the triangle with a ray using the Möller–Trumbore algorithm. On
// hit it returns the strictly positive hit distance and the barycentric
// coordinates (u, v) of the hit point relative to (v1, v2).
func (tri *Triangle) IntersectBarycentric(ray types.Ray) (t, u, v float32, ok bool) {
	edge1 := tri.V1.Sub(tri.V0)
	edge2 := tri.V2.Sub(tri.V0)
	rayCrossEdge2 := ray.Dir.Cross(edge2)

	det := edge1.Dot(rayCrossEdge2)

	// Ray is parallel to the triangle plane
	if det > -intersectEpsilon && det < intersectEpsilon {
		return 0, 0, 0, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Sub(tri.V0)
	u = invDet * s.Dot(rayCrossEdge2)
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	sCrossEdge1 := s.Cross(edge1)
	v = invDet * ray.Dir.Dot(sCrossEdge1)
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = invDet * edge2.Dot(sCrossEdge1)

	// Line intersection behind (or at) the ray origin
	if !(t > intersectEpsilon) {
		return 0, 0, 0, false
	}

	return t, u, v, true
}

func (tri Triangle) String() string {
	return fmt.Sprintf("Triangle{v0: %v, v1: %v, v2: %v, normal: %v, bounds: %s}", tri.V0, tri.V1, tri.V2, tri.Normal, tri.Bounds)
}
