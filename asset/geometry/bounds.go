package geometry

import (
	"fmt"

	"github.com/achilleasa/aobvh/types"
	"github.com/chewxy/math32"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// Bounds is an axis-aligned bounding box stored as min/max corners.
type Bounds struct {
	Min types.Vec3
	Max types.Vec3
}

// Create an empty (inverted) bounding box. Encapsulating any box into an
// empty box yields that box.
func EmptyBounds() Bounds {
	return Bounds{
		Min: types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Create a bounding box that contains all supplied points.
func BoundsFromPoints(points ...types.Vec3) Bounds {
	b := EmptyBounds()
	for _, p := range points {
		b.Min = types.MinVec3(b.Min, p)
		b.Max = types.MaxVec3(b.Max, p)
	}
	return b
}

// Create a bounding box from a center point and half extents.
func BoundsFromCenterExtents(center, extents types.Vec3) Bounds {
	return Bounds{
		Min: center.Sub(extents),
		Max: center.Add(extents),
	}
}

// Returns true if the box does not contain any point.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Return the union of this box and other.
func (b Bounds) Encapsulate(other Bounds) Bounds {
	return Bounds{
		Min: types.MinVec3(b.Min, other.Min),
		Max: types.MaxVec3(b.Max, other.Max),
	}
}

// Box center.
func (b Bounds) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Box size along each axis.
func (b Bounds) Size() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// Box half size along each axis.
func (b Bounds) Extents() types.Vec3 {
	return b.Size().Mul(0.5)
}

// Surface area of the box; 0 for empty boxes.
func (b Bounds) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	size := b.Size()
	return 2 * (size[0]*size[1] + size[0]*size[2] + size[1]*size[2])
}

// Volume of the box; 0 for empty boxes.
func (b Bounds) Volume() float32 {
	if b.IsEmpty() {
		return 0
	}
	size := b.Size()
	return size[0] * size[1] * size[2]
}

// Returns true if other lies entirely inside this box (touching faces count as inside).
func (b Bounds) Contains(other Bounds) bool {
	for axis := 0; axis < 3; axis++ {
		if other.Min[axis] < b.Min[axis] || other.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Get the axis with the largest extent. Ties resolve to the lower axis.
func (b Bounds) LargestAxis() Axis {
	size := b.Size()
	axis := XAxis
	biggest := size[0]
	if size[1] > biggest {
		biggest = size[1]
		axis = YAxis
	}
	if size[2] > biggest {
		axis = ZAxis
	}
	return axis
}

// Intersect the box with a ray using the slab method. On hit, the entry
// distance along the ray is returned; it is clamped to 0 when the ray origin
// lies inside the box.
func (b Bounds) IntersectRay(ray types.Ray) (float32, bool) {
	if b.IsEmpty() {
		return 0, false
	}

	tNear := math32.Inf(-1)
	tFar := math32.Inf(1)
	for axis := 0; axis < 3; axis++ {
		o := ray.Origin[axis]
		d := ray.Dir[axis]

		// Parallel to this slab; the origin must lie between its planes
		if d == 0 {
			if o < b.Min[axis] || o > b.Max[axis] {
				return 0, false
			}
			continue
		}

		invD := 1.0 / d
		t0 := (b.Min[axis] - o) * invD
		t1 := (b.Max[axis] - o) * invD
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return 0, false
		}
	}

	if tFar < 0 {
		return 0, false
	}
	if tNear < 0 {
		tNear = 0
	}
	return tNear, true
}

// Calculate a signed gap distance between two boxes. If the boxes are
// separated, the Euclidean distance between their nearest faces is returned.
// If they overlap the result is <= 0 and its magnitude is the smallest
// per-axis penetration depth.
func SignedGap(a, b Bounds) float32 {
	u := b.Min.Sub(a.Max)
	v := a.Min.Sub(b.Max)

	q := types.MaxVec3(u, v)
	negative := math32.Min(0, q.MaxComponent())

	cu := types.MaxVec3(types.Vec3{}, u)
	cv := types.MaxVec3(types.Vec3{}, v)
	positive := math32.Sqrt(cu.LenSqr() + cv.LenSqr())

	return negative + positive
}

func (b Bounds) String() string {
	return fmt.Sprintf("[(%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)]", b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}
