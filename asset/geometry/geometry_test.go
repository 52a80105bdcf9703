package geometry

import (
	"encoding/binary"
	"testing"

	"github.com/achilleasa/aobvh/types"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitTriangle() Triangle {
	return NewTriangle(
		types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, types.Vec3{0, 1, 0},
		types.Vec2{0, 0}, types.Vec2{1, 0}, types.Vec2{0, 1},
	)
}

func TestTriangleIntersection(t *testing.T) {
	tri := unitTriangle()

	// Hit through the interior
	dist, u, v, ok := tri.IntersectBarycentric(types.NewRay(types.Vec3{0.2, 0.2, 1}, types.Vec3{0, 0, -1}))
	require.True(t, ok)
	assert.InDelta(t, 1.0, dist, 1e-6)
	assert.True(t, u >= 0 && v >= 0 && u+v <= 1, "expected valid barycentrics; got u=%f v=%f", u, v)
	assert.InDelta(t, 0.2, u, 1e-6)
	assert.InDelta(t, 0.2, v, 1e-6)

	// Parallel to the triangle plane
	_, ok = tri.Intersect(types.NewRay(types.Vec3{0.2, 0.2, 1}, types.Vec3{1, 0, 0}))
	assert.False(t, ok, "expected parallel ray to miss")

	// Triangle plane lies behind the ray origin
	_, ok = tri.Intersect(types.NewRay(types.Vec3{0.2, 0.2, 1}, types.Vec3{0, 0, 1}))
	assert.False(t, ok, "expected ray pointing away to miss")

	// Origin on the triangle: t == 0 is not a hit
	_, ok = tri.Intersect(types.NewRay(types.Vec3{0.2, 0.2, 0}, types.Vec3{0, 0, -1}))
	assert.False(t, ok, "expected ray starting on the triangle to miss")

	// Outside the barycentric range
	_, ok = tri.Intersect(types.NewRay(types.Vec3{0.8, 0.8, 1}, types.Vec3{0, 0, -1}))
	assert.False(t, ok)
	_, ok = tri.Intersect(types.NewRay(types.Vec3{-0.1, 0.5, 1}, types.Vec3{0, 0, -1}))
	assert.False(t, ok)
}

func TestTriangleFrame(t *testing.T) {
	tri := unitTriangle()
	assert.Equal(t, types.Vec3{0, 0, 1}, tri.Normal)
	assert.Equal(t, types.Vec3{1, 0, 0}, tri.Tangent)
	assert.Equal(t, types.Vec3{0, 1, 0}, tri.Binormal)
	assert.InDelta(t, 0.5, tri.UVArea, 1e-6)
	assert.Equal(t, types.Vec2{0, 0}, tri.UVMin)
	assert.Equal(t, types.Vec2{1, 1}, tri.UVMax)
	assert.Equal(t, Bounds{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 1, 0}}, tri.Bounds)
	assert.InDelta(t, 0.5, tri.Area(), 1e-6)

	// The face rotation maps +Z onto the normal
	n := tri.Rotation.Rotate(types.Vec3{0, 0, 1})
	for i := 0; i < 3; i++ {
		assert.InDelta(t, tri.Normal[i], n[i], 1e-5)
	}
}

func TestDegenerateTriangle(t *testing.T) {
	tri := NewTriangle(
		types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, types.Vec3{2, 0, 0},
		types.Vec2{0, 0}, types.Vec2{0, 0}, types.Vec2{0, 0},
	)
	assert.True(t, math32.IsNaN(tri.Normal[0]) || math32.IsInf(tri.Normal[0], 0))

	_, ok := tri.Intersect(types.NewRay(types.Vec3{0.5, 1, 0}, types.Vec3{0, -1, 0}))
	assert.False(t, ok)
}

func TestBoundsEncapsulate(t *testing.T) {
	a := Bounds{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 1, 1}}
	b := Bounds{Min: types.Vec3{-1, 0.5, 2}, Max: types.Vec3{0, 3, 4}}
	c := Bounds{Min: types.Vec3{5, -5, 0}, Max: types.Vec3{6, -4, 1}}

	assert.Equal(t, a, a.Encapsulate(a))
	assert.Equal(t, a, EmptyBounds().Encapsulate(a))
	assert.Equal(t, a.Encapsulate(b), b.Encapsulate(a))
	assert.Equal(t, a.Encapsulate(b).Encapsulate(c), a.Encapsulate(b.Encapsulate(c)))
	assert.True(t, a.Encapsulate(b).Contains(a))
	assert.True(t, a.Encapsulate(b).Contains(b))
}

func TestBoundsMetrics(t *testing.T) {
	b := Bounds{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 2, 3}}
	assert.Equal(t, float32(22), b.SurfaceArea())
	assert.Equal(t, float32(6), b.Volume())
	assert.Equal(t, types.Vec3{0.5, 1, 1.5}, b.Center())
	assert.Equal(t, types.Vec3{0.5, 1, 1.5}, b.Extents())
	assert.Equal(t, ZAxis, b.LargestAxis())
	assert.Equal(t, float32(0), EmptyBounds().SurfaceArea())
	assert.True(t, EmptyBounds().IsEmpty())
	assert.Equal(t, b, BoundsFromCenterExtents(b.Center(), b.Extents()))
}

func TestBoundsIntersectRay(t *testing.T) {
	b := Bounds{Min: types.Vec3{-1, -1, -1}, Max: types.Vec3{1, 1, 1}}

	type spec struct {
		ray    types.Ray
		expHit bool
		expT   float32
	}
	specs := []spec{
		{types.NewRay(types.Vec3{0, 0, 5}, types.Vec3{0, 0, -1}), true, 4},
		{types.NewRay(types.Vec3{0, 0, 5}, types.Vec3{0, 0, 1}), false, 0},
		{types.NewRay(types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}), true, 0},
		{types.NewRay(types.Vec3{2, 0, 5}, types.Vec3{0, 0, -1}), false, 0},
		{types.NewRay(types.Vec3{-5, 0.5, 0.5}, types.Vec3{2, 0, 0}), true, 2},
		// Grazing the face along a slab plane
		{types.NewRay(types.Vec3{1, 0, 5}, types.Vec3{0, 0, -1}), true, 4},
		{types.NewRay(types.Vec3{-5, -5, 0}, types.Vec3{1, 1, 0}), true, 4},
	}

	for index, s := range specs {
		dist, hit := b.IntersectRay(s.ray)
		require.Equal(t, s.expHit, hit, "[spec %d]", index)
		if hit {
			assert.InDelta(t, s.expT, dist, 1e-5, "[spec %d]", index)
		}
	}

	// A flat box (e.g. a single axis-aligned triangle)
	flat := Bounds{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 1, 0}}
	dist, hit := flat.IntersectRay(types.NewRay(types.Vec3{0.5, 0.5, 2}, types.Vec3{0, 0, -1}))
	assert.True(t, hit)
	assert.InDelta(t, 2.0, dist, 1e-6)

	_, hit = EmptyBounds().IntersectRay(types.NewRay(types.Vec3{}, types.Vec3{0, 0, 1}))
	assert.False(t, hit)
}

func TestSignedGap(t *testing.T) {
	a := Bounds{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 1, 1}}

	// Separated along X by 2 units
	b := Bounds{Min: types.Vec3{3, 0, 0}, Max: types.Vec3{4, 1, 1}}
	assert.InDelta(t, 2.0, SignedGap(a, b), 1e-6)
	assert.InDelta(t, 2.0, SignedGap(b, a), 1e-6)

	// Separated diagonally
	c := Bounds{Min: types.Vec3{4, 5, 0}, Max: types.Vec3{5, 6, 1}}
	assert.InDelta(t, 5.0, SignedGap(a, c), 1e-6)

	// Overlapping by 0.25 along X
	d := Bounds{Min: types.Vec3{0.75, 0, 0}, Max: types.Vec3{2, 1, 1}}
	assert.InDelta(t, -0.25, SignedGap(a, d), 1e-6)

	// Fully contained
	e := Bounds{Min: types.Vec3{0.25, 0.25, 0.25}, Max: types.Vec3{0.75, 0.75, 0.75}}
	assert.True(t, SignedGap(a, e) < 0)

	// Touching faces
	f := Bounds{Min: types.Vec3{1, 0, 0}, Max: types.Vec3{2, 1, 1}}
	assert.Equal(t, float32(0), SignedGap(a, f))
}

func TestTriangleRecordLayout(t *testing.T) {
	tri := unitTriangle()
	rec := tri.Record()
	assert.Equal(t, TriangleRecordSize, binary.Size(rec))
	assert.Equal(t, 156, TriangleRecordSize)

	restored := rec.Triangle()
	assert.Equal(t, tri, restored)
}
