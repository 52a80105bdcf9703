package types

import "github.com/chewxy/math32"

// Quaternion implementation adapted from https://github.com/go-gl/mathgl/blob/master/mgl32/quat.go
type Quat struct {
	V Vec3
	W float32
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{
		V: Vec3{},
		W: 1.0,
	}
}

// Create a quaternion from an axis vector and an angle.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin := math32.Sin(angle * 0.5)
	cos := math32.Cos(angle * 0.5)
	return Quat{
		V: axis.Mul(sin),
		W: cos,
	}
}

// Create a quaternion that rotates the +Z axis onto forward while keeping the
// +Y axis as close as possible to up. If forward and up are parallel the
// rotation falls back to the shortest arc from +Z to forward.
func QuatLookRotation(forward, up Vec3) Quat {
	z := forward.Normalize()
	if z == (Vec3{}) {
		return QuatIdent()
	}

	x := up.Cross(z).Normalize()
	if x == (Vec3{}) {
		return quatFromTo(Vec3{0, 0, 1}, z)
	}
	y := z.Cross(x)

	// Convert the orthonormal basis (columns x, y, z) to a quaternion.
	m00, m01, m02 := x[0], y[0], z[0]
	m10, m11, m12 := x[1], y[1], z[1]
	m20, m21, m22 := x[2], y[2], z[2]

	var q Quat
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math32.Sqrt(trace+1)
		q.W = 0.25 / s
		q.V = Vec3{(m21 - m12) * s, (m02 - m20) * s, (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math32.Sqrt(1+m00-m11-m22)
		q.W = (m21 - m12) / s
		q.V = Vec3{0.25 * s, (m01 + m10) / s, (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math32.Sqrt(1+m11-m00-m22)
		q.W = (m02 - m20) / s
		q.V = Vec3{(m01 + m10) / s, 0.25 * s, (m12 + m21) / s}
	default:
		s := 2 * math32.Sqrt(1+m22-m00-m11)
		q.W = (m10 - m01) / s
		q.V = Vec3{(m02 + m20) / s, (m12 + m21) / s, 0.25 * s}
	}

	return q.Normalize()
}

// Shortest arc rotation between two unit vectors.
func quatFromTo(from, to Vec3) Quat {
	d := from.Dot(to)
	if d >= 1-floatCmpEpsilon {
		return QuatIdent()
	}
	if d <= -1+floatCmpEpsilon {
		// Pick any axis orthogonal to from.
		axis := Vec3{1, 0, 0}.Cross(from)
		if axis.Len() < floatCmpEpsilon {
			axis = Vec3{0, 1, 0}.Cross(from)
		}
		return QuatFromAxisAngle(axis.Normalize(), math32.Pi)
	}
	return Quat{V: from.Cross(to), W: 1 + d}.Normalize()
}

// Rotates a vector by the rotation this quaternion represents.
// This will result in a 3D vector.
func (q1 Quat) Rotate(v Vec3) Vec3 {
	cross := q1.V.Cross(v)
	// v + 2q_w * (q_v x v) + 2q_v x (q_v x v)
	return v.Add(cross.Mul(2 * q1.W)).Add(q1.V.Mul(2).Cross(cross))
}

// Multiplies two quaternions. This can be seen as a rotation. Note that
// Multiplication is NOT commutative, meaning q1.Mul(q2) does not necessarily
// equal q2.Mul(q1).
func (q1 Quat) Mul(q2 Quat) Quat {
	return Quat{
		q1.V.Cross(q2.V).Add(q2.V.Mul(q1.W)).Add(q1.V.Mul(q2.W)),
		q1.W*q2.W - q1.V.Dot(q2.V),
	}
}

// Returns the Length of the quaternion, also known as its Norm. This is the same thing as
// the Len of a Vec4
func (q1 Quat) Len() float32 {
	return math32.Sqrt(q1.W*q1.W + q1.V[0]*q1.V[0] + q1.V[1]*q1.V[1] + q1.V[2]*q1.V[2])
}

// Normalizes the quaternion, returning its versor (unit quaternion).
//
// This is the same as normalizing it as a Vec4.
func (q1 Quat) Normalize() Quat {
	length := q1.Len()

	absDelta := 1 - length
	if absDelta < 0 {
		absDelta = -absDelta
	}

	if absDelta < floatCmpEpsilon {
		return q1
	}
	if length == 0 {
		return QuatIdent()
	}
	if math32.IsInf(length, 1) {
		length = math32.MaxFloat32
	}

	return Quat{q1.V.Mul(1 / length), q1.W * 1 / length}
}

// The inverse of a quaternion. The inverse is equivalent
// to the conjugate divided by the square of the length.
func (q1 Quat) Inverse() Quat {
	scaler := 1.0 / (q1.V.Dot(q1.V) + q1.W*q1.W)
	return Quat{
		q1.V.Mul(-1.0 * scaler),
		q1.W * scaler,
	}
}

// Pack the quaternion as an (x, y, z, w) vector.
func (q1 Quat) Vec4() Vec4 {
	return Vec4{q1.V[0], q1.V[1], q1.V[2], q1.W}
}
