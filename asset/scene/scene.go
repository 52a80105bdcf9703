package scene

import (
	"math/rand"
	"time"

	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/achilleasa/aobvh/types"
)

// A mesh with its own triangle BVH. Leaves of the mesh tree reference
// triangles by index.
type Mesh struct {
	Name      string
	Triangles bvh.TriangleList
	Tree      *bvh.Tree
}

// Create a mesh and build its BVH.
func NewMesh(name string, triangles []geometry.Triangle, opts bvh.BuildOptions) *Mesh {
	list := bvh.TriangleList(triangles)
	return &Mesh{
		Name:      name,
		Triangles: list,
		Tree:      bvh.Build(list, opts),
	}
}

// Get the bounds of the mesh.
func (m *Mesh) Bounds() geometry.Bounds {
	return m.Tree.Bounds()
}

// Adapts a mesh list to the bvh.Primitives interface so that the scene
// tree can delegate leaf tests to each mesh tree.
type meshList []*Mesh

func (l meshList) Len() int {
	return len(l)
}

func (l meshList) Bounds(i int) geometry.Bounds {
	return l[i].Tree.Bounds()
}

func (l meshList) IntersectRay(i int, ray types.Ray) (bvh.Hit, bool) {
	hit, ok := l[i].Tree.IntersectNearest(ray)
	return bvh.Hit{
		Distance:    hit.Distance,
		Inner:       hit.Primitive,
		BoundsTests: hit.BoundsTests,
	}, ok
}

// The result of a scene ray query.
type SceneHit struct {
	Distance float32

	// Index of the hit mesh and of the triangle within it.
	Mesh     int
	Triangle int

	// Bounds tests performed across both tree levels.
	BoundsTests int
}

// A Scene is a two-level BVH: the scene tree partitions meshes and each leaf
// delegates to the mesh's own triangle tree.
type Scene struct {
	Meshes []*Mesh
	Tree   *bvh.Tree

	// The scene camera.
	Camera *Camera
}

// Create a scene over a set of meshes and build the scene-level tree.
func New(meshes []*Mesh, opts bvh.BuildOptions) *Scene {
	return &Scene{
		Meshes: meshes,
		Tree:   bvh.Build(meshList(meshes), opts),
	}
}

// Find the nearest triangle hit by the ray.
//
// The returned SceneHit always carries the number of bounds tests performed;
// the remaining fields are only valid if the second return value is true.
func (sc *Scene) IntersectNearest(ray types.Ray) (SceneHit, bool) {
	hit, ok := sc.Tree.IntersectNearest(ray)
	return SceneHit{
		Distance:    hit.Distance,
		Mesh:        hit.Primitive,
		Triangle:    hit.Inner,
		BoundsTests: hit.BoundsTests,
	}, ok
}

// Returns true if the ray hits any triangle closer than maxDist.
func (sc *Scene) IntersectAny(ray types.Ray, maxDist float32) bool {
	return sc.Tree.IntersectAny(ray, maxDist)
}

// Get the number of triangles across all meshes.
func (sc *Scene) TriangleCount() int {
	count := 0
	for _, m := range sc.Meshes {
		count += len(m.Triangles)
	}
	return count
}

// Get the SAH cost of the scene tree and the summed cost of all mesh trees.
func (sc *Scene) SAHCost() (sceneCost, meshCost float32) {
	for _, m := range sc.Meshes {
		meshCost += m.Tree.SAHCost()
	}
	return sc.Tree.SAHCost(), meshCost
}

// Optimize every mesh tree and then the scene tree. Mesh bounds do not change
// when a mesh tree is optimized so the scene tree stays valid. The returned
// stats are summed over all trees.
func (sc *Scene) Optimize(opts bvh.OptimizeOptions, rng *rand.Rand) bvh.OptimizeStats {
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}

	var total bvh.OptimizeStats
	start := time.Now()
	for _, m := range sc.Meshes {
		addOptimizeStats(&total, m.Tree.Optimize(opts, rng))
	}
	addOptimizeStats(&total, sc.Tree.Optimize(opts, rng))
	total.Duration = time.Since(start)
	return total
}

func addOptimizeStats(total *bvh.OptimizeStats, stats bvh.OptimizeStats) {
	total.Visited += stats.Visited
	total.Improved += stats.Improved
	total.Reverted += stats.Reverted
	total.SplitLeaves += stats.SplitLeaves
	total.CostBefore += stats.CostBefore
	total.CostAfter += stats.CostAfter
}
