// Package bvh builds, traverses and optimizes bounding volume hierarchies over
// an abstract set of bounded primitives. The same routines serve mesh-level
// trees (triangles) and scene-level trees (per-mesh bounds).
package bvh

import (
	"errors"

	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/achilleasa/aobvh/types"
)

var (
	ErrCorruptTree = errors.New("bvh: corrupt tree data")
)

// The Primitives interface is implemented by primitive sources that can be
// partitioned by the BVH builder and queried by the traversal code.
type Primitives interface {
	// Number of primitives.
	Len() int

	// Bounds of primitive i. Must not change once a tree has been built.
	Bounds(i int) geometry.Bounds

	// Intersect primitive i with a ray. The returned hit must set Distance
	// and may set Inner and BoundsTests; Primitive is filled in by the tree.
	// BoundsTests is accumulated even when the primitive is missed.
	IntersectRay(i int, ray types.Ray) (Hit, bool)
}

// Hit describes the nearest intersection found by a tree query.
type Hit struct {
	// Distance along the ray.
	Distance float32

	// Index of the hit primitive.
	Primitive int

	// Index reported by nested trees (e.g. the triangle inside a mesh).
	Inner int

	// Number of bounds tests performed by the query, including nested trees.
	BoundsTests int
}

// BuildOptions controls the SAH builder.
type BuildOptions struct {
	// Ranges with at most this many primitives become leaves.
	LeafLimit int `yaml:"leaf_limit"`

	// Number of SAH bins per axis.
	Bins int `yaml:"bins"`
}

// Options used for trees over mesh triangles.
func DefaultMeshBuildOptions() BuildOptions {
	return BuildOptions{LeafLimit: 4, Bins: 32}
}

// Options used for trees over scene meshes.
func DefaultSceneBuildOptions() BuildOptions {
	return BuildOptions{LeafLimit: 1, Bins: 8}
}

func (o BuildOptions) normalize() BuildOptions {
	if o.LeafLimit < 1 {
		o.LeafLimit = 1
	}
	if o.Bins < 2 {
		o.Bins = 2
	}
	return o
}

// OptimizeOptions controls the tree optimizer.
type OptimizeOptions struct {
	// Target number of nodes collected around each internal node.
	NeighborhoodSize int `yaml:"neighborhood_size"`

	// Number of neighborhood nodes the local search may reassign.
	MoveableCount int `yaml:"moveable_count"`

	// A partition is committed only if it beats the current split by more than this.
	Tolerance float32 `yaml:"tolerance"`

	// SAH cost model weights.
	CostTraversal float32 `yaml:"cost_traversal"`
	CostIntersect float32 `yaml:"cost_intersect"`

	// Number of annealing iterations run after the local search; 0 disables annealing.
	AnnealIterations int     `yaml:"anneal_iterations"`
	StartTemperature float32 `yaml:"start_temperature"`

	// Seed for the random generator used when none is supplied.
	Seed int64 `yaml:"seed"`
}

// Default optimizer settings.
func DefaultOptimizeOptions() OptimizeOptions {
	return OptimizeOptions{
		NeighborhoodSize: 16,
		MoveableCount:    8,
		Tolerance:        1e-4,
		CostTraversal:    DefaultCostTraversal,
		CostIntersect:    DefaultCostIntersect,
		StartTemperature: 1,
	}
}

func (o OptimizeOptions) normalize() OptimizeOptions {
	def := DefaultOptimizeOptions()
	if o.NeighborhoodSize < 2 {
		o.NeighborhoodSize = def.NeighborhoodSize
	}
	if o.MoveableCount < 2 {
		o.MoveableCount = def.MoveableCount
	}
	if o.Tolerance < 0 {
		o.Tolerance = def.Tolerance
	}
	if o.CostTraversal <= 0 {
		o.CostTraversal = def.CostTraversal
	}
	if o.CostIntersect <= 0 {
		o.CostIntersect = def.CostIntersect
	}
	if o.AnnealIterations < 0 {
		o.AnnealIterations = 0
	}
	return o
}
