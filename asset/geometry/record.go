package geometry

import "github.com/achilleasa/aobvh/types"

// Serialized sizes (in bytes) of the GPU-visible building blocks.
const (
	Float32Size    = 4
	Int32Size      = 4
	Vector2Size    = 2 * Float32Size
	Vector3Size    = 3 * Float32Size
	QuaternionSize = 4 * Float32Size
	BoundsSize     = 2 * Vector3Size

	// 5 x Vector2 + 1 x float + 6 x Vector3 + 1 x Quaternion + 1 x Bounds
	TriangleRecordSize = 5*Vector2Size + Float32Size + 6*Vector3Size + QuaternionSize + BoundsSize
)

// TriangleRecord is the fixed-layout triangle representation consumed by
// the GPU traversal kernel. Field order matches the kernel struct; encode
// it with encoding/binary (little endian, no padding).
type TriangleRecord struct {
	UV0, UV1, UV2 types.Vec2
	UVMin, UVMax  types.Vec2
	UVArea        float32

	V0, V1, V2 types.Vec3
	Normal     types.Vec3
	Tangent    types.Vec3
	Binormal   types.Vec3

	Rotation types.Vec4

	Bounds Bounds
}

// Convert the triangle to its GPU record.
func (tri *Triangle) Record() TriangleRecord {
	return TriangleRecord{
		UV0:      tri.UV0,
		UV1:      tri.UV1,
		UV2:      tri.UV2,
		UVMin:    tri.UVMin,
		UVMax:    tri.UVMax,
		UVArea:   tri.UVArea,
		V0:       tri.V0,
		V1:       tri.V1,
		V2:       tri.V2,
		Normal:   tri.Normal,
		Tangent:  tri.Tangent,
		Binormal: tri.Binormal,
		Rotation: tri.Rotation.Vec4(),
		Bounds:   tri.Bounds,
	}
}

// Recreate the triangle described by a GPU record. Derived fields are
// recomputed from the vertices and UVs.
func (rec *TriangleRecord) Triangle() Triangle {
	return NewTriangle(rec.V0, rec.V1, rec.V2, rec.UV0, rec.UV1, rec.UV2)
}
