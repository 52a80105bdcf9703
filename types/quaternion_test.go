package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-5

func assertVec3InDelta(t *testing.T, exp, got Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, exp[i], got[i], tol, "component %d of %v vs %v", i, exp, got)
	}
}

func TestQuatLookRotation(t *testing.T) {
	type spec struct {
		forward Vec3
		up      Vec3
	}
	specs := []spec{
		{Vec3{0, 0, 1}, Vec3{0, 1, 0}},
		{Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{Vec3{0, 0, -1}, Vec3{0, 1, 0}},
		{Vec3{0, 0, 1}, Vec3{1, 0, 0}},
		{Vec3{1, 1, 1}, Vec3{0, 1, 0}},
		// Degenerate: up parallel to forward
		{Vec3{0, 1, 0}, Vec3{0, 1, 0}},
		{Vec3{0, -1, 0}, Vec3{0, 1, 0}},
	}

	for index, s := range specs {
		q := QuatLookRotation(s.forward, s.up)
		assert.InDelta(t, 1.0, q.Len(), tol, "[spec %d] expected unit quaternion", index)
		assertVec3InDelta(t, s.forward.Normalize(), q.Rotate(Vec3{0, 0, 1}))
	}
}

func TestQuatLookRotationKeepsUp(t *testing.T) {
	q := QuatLookRotation(Vec3{1, 0, 0}, Vec3{0, 1, 0})
	assertVec3InDelta(t, Vec3{0, 1, 0}, q.Rotate(Vec3{0, 1, 0}))
}

func TestQuatInverse(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 1, 0}, 0.7)
	v := Vec3{1, 2, 3}
	assertVec3InDelta(t, v, q.Inverse().Rotate(q.Rotate(v)))
	assertVec3InDelta(t, v, q.Mul(q.Inverse()).Rotate(v))
}

func TestVectorHelpers(t *testing.T) {
	assert.Equal(t, Vec3{}, Vec3{1e-9, 0, 0}.Normalize())
	assert.Equal(t, Vec3{0, 0, 1}, Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0}))
	assert.Equal(t, Vec3{-1, 0, 3}, MinVec3(Vec3{-1, 2, 3}, Vec3{0, 0, 4}))
	assert.Equal(t, Vec3{0, 2, 4}, MaxVec3(Vec3{-1, 2, 3}, Vec3{0, 0, 4}))
	assert.Equal(t, float32(3), Vec3{-1, 3, 2}.MaxComponent())
	assert.Equal(t, Vec3{1, 3, 2}, Vec3{-1, -3, 2}.Abs())
	assert.Equal(t, float32(-2), Vec2{1, 0}.Cross(Vec2{0, -2}))
	assert.Equal(t, Vec3{2, 4, 6}, NewRay(Vec3{0, 0, 0}, Vec3{1, 2, 3}).At(2))
}
