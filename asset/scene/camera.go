package scene

import (
	"fmt"

	"github.com/achilleasa/aobvh/types"
	"github.com/chewxy/math32"
)

// Stores the ray directions at the four corners of the camera frustrum. It is
// used as a shortcut for generating per pixel rays via interpolation of the
// corner rays.
type Frustrum [4]types.Vec3

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3 `yaml:"position,flow"`
	LookAt   types.Vec3 `yaml:"look_at,flow"`
	Up       types.Vec3 `yaml:"up,flow"`
	Pitch    float32    `yaml:"pitch"`
	Yaw      float32    `yaml:"yaw"`

	// Vertical camera FOV in degrees.
	FOV float32 `yaml:"fov"`

	// Adjust the frustrum so that Y is inverted
	InvertY bool `yaml:"invert_y"`

	Frustrum Frustrum `yaml:"-"`
	aspect   float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		aspect:   1,
	}
}

// Setup the frustrum aspect ratio (width / height).
func (c *Camera) SetupProjection(aspect float32) {
	if aspect <= 0 {
		aspect = 1
	}
	c.aspect = aspect
	c.Update()
}

// Update camera. Pending pitch and yaw rotations are applied to the view
// direction and then reset.
func (c *Camera) Update() {
	if c.aspect <= 0 {
		c.aspect = 1
	}

	dir := c.LookAt.Sub(c.Position).Normalize()
	pitchAxis := dir.Cross(c.Up).Normalize()
	pitchQuat := types.QuatFromAxisAngle(pitchAxis, c.Pitch)
	yawQuat := types.QuatFromAxisAngle(c.Up, c.Yaw)

	orientQuat := pitchQuat.Mul(yawQuat).Normalize()

	// Update direction
	dir = orientQuat.Rotate(dir)
	c.LookAt = c.Position.Add(dir)
	c.Pitch, c.Yaw = 0, 0

	c.updateFrustrum(dir)
}

// Build an orthonormal camera basis and generate the ray direction for each
// corner of the image plane located at unit distance from the eye.
func (c *Camera) updateFrustrum(forward types.Vec3) {
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward)

	halfH := math32.Tan(c.FOV * math32.Pi / 360)
	halfW := halfH * c.aspect

	if c.InvertY {
		up = up.Mul(-1)
	}

	left := right.Mul(-halfW)
	rt := right.Mul(halfW)
	top := up.Mul(halfH)
	bottom := up.Mul(-halfH)

	c.Frustrum[0] = forward.Add(left).Add(top)
	c.Frustrum[1] = forward.Add(rt).Add(top)
	c.Frustrum[2] = forward.Add(left).Add(bottom)
	c.Frustrum[3] = forward.Add(rt).Add(bottom)
}

// Generate the primary ray through the center of pixel (x, y) of a w x h
// frame by bilinear interpolation of the frustrum corner rays. Update must
// have been called beforehand.
func (c *Camera) Ray(x, y, w, h int) types.Ray {
	u := (float32(x) + 0.5) / float32(w)
	v := (float32(y) + 0.5) / float32(h)

	top := lerp(c.Frustrum[0], c.Frustrum[1], u)
	bottom := lerp(c.Frustrum[2], c.Frustrum[3], u)
	return types.NewRay(c.Position, lerp(top, bottom, v).Normalize())
}

func lerp(a, b types.Vec3, t float32) types.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
