package input

import (
	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/achilleasa/aobvh/types"
)

// A world-space triangle primitive.
type Primitive struct {
	Vertices [3]types.Vec3
	UVs      [3]types.Vec2
}

// Get the primitive AABB.
func (prim *Primitive) Bounds() geometry.Bounds {
	return geometry.BoundsFromPoints(prim.Vertices[0], prim.Vertices[1], prim.Vertices[2])
}

// Convert the primitive to a triangle with a precomputed frame.
func (prim *Primitive) Triangle() geometry.Triangle {
	return geometry.NewTriangle(
		prim.Vertices[0], prim.Vertices[1], prim.Vertices[2],
		prim.UVs[0], prim.UVs[1], prim.UVs[2],
	)
}

// A mesh is constructed by a list of primitives.
type Mesh struct {
	Name       string
	Primitives []*Primitive

	bounds            geometry.Bounds
	boundsNeedsUpdate bool
}

// Create a new mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:              name,
		Primitives:        make([]*Primitive, 0),
		boundsNeedsUpdate: true,
	}
}

// Append a primitive to the mesh.
func (m *Mesh) AddPrimitive(prim *Primitive) {
	m.Primitives = append(m.Primitives, prim)
	m.boundsNeedsUpdate = true
}

// Mark the bounds of this mesh as dirty.
func (m *Mesh) MarkBoundsDirty() {
	m.boundsNeedsUpdate = true
}

// Get mesh bounding box.
func (m *Mesh) Bounds() geometry.Bounds {
	if m.boundsNeedsUpdate {
		m.bounds = geometry.EmptyBounds()
		for _, prim := range m.Primitives {
			m.bounds = m.bounds.Encapsulate(prim.Bounds())
		}
		m.boundsNeedsUpdate = false
	}

	return m.bounds
}

// Camera settings.
type Camera struct {
	FOV  float32
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3
}

// The scene contains all elements that are processed by the scene compiler.
type Scene struct {
	Meshes []*Mesh
	Camera *Camera
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Meshes: make([]*Mesh, 0),
		Camera: &Camera{
			FOV:  45.0,
			Eye:  types.Vec3{0, 0, 0},
			Look: types.Vec3{0, 0, -1},
			Up:   types.Vec3{0, 1, 0},
		},
	}
}

// Get the total number of primitives across all meshes.
func (sc *Scene) PrimitiveCount() int {
	count := 0
	for _, m := range sc.Meshes {
		count += len(m.Primitives)
	}
	return count
}
