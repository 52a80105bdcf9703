package compiler

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/compiler/input"
	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/log"
)

var (
	ErrNoMeshes  = errors.New("scene compiler: scene contains no meshes")
	ErrEmptyMesh = errors.New("scene compiler: mesh contains no primitives")
)

// Compiler options.
type Options struct {
	// Build options for the per-mesh triangle trees.
	Mesh bvh.BuildOptions `yaml:"mesh"`

	// Build options for the scene tree over meshes.
	Scene bvh.BuildOptions `yaml:"scene"`

	// If set, all trees are optimized after they are built.
	Optimize *bvh.OptimizeOptions `yaml:"optimize,omitempty"`

	// Number of optimization passes; defaults to 1.
	Passes int `yaml:"passes"`
}

// Get the default compiler options. Optimization is disabled.
func DefaultOptions() Options {
	return Options{
		Mesh:   bvh.DefaultMeshBuildOptions(),
		Scene:  bvh.DefaultSceneBuildOptions(),
		Passes: 1,
	}
}

type sceneCompiler struct {
	parsedScene    *input.Scene
	optimizedScene *scene.Scene
	opts           Options
	logger         log.Logger
}

// Compile a scene representation parsed by a scene reader into a two-level
// BVH scene: a triangle tree for each mesh and a scene tree over the meshes.
func Compile(parsedScene *input.Scene, opts Options) (*scene.Scene, error) {
	if parsedScene == nil || len(parsedScene.Meshes) == 0 {
		return nil, ErrNoMeshes
	}
	for _, pm := range parsedScene.Meshes {
		if len(pm.Primitives) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyMesh, pm.Name)
		}
	}

	compiler := &sceneCompiler{
		parsedScene: parsedScene,
		opts:        opts,
		logger:      log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene")

	compiler.partitionGeometry()
	compiler.optimizeGeometry()
	compiler.setupCamera()

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

// Generate a two-level BVH tree for the scene. Each mesh gets its own triangle
// tree and the top level tree partitions the meshes.
func (sc *sceneCompiler) partitionGeometry() {
	start := time.Now()
	sc.logger.Notice("partitioning geometry")

	meshes := make([]*scene.Mesh, len(sc.parsedScene.Meshes))
	for mIndex, pm := range sc.parsedScene.Meshes {
		sc.logger.Infof(`building BVH tree for "%s" (%d primitives)`, pm.Name, len(pm.Primitives))

		tris := make([]geometry.Triangle, len(pm.Primitives))
		for index, prim := range pm.Primitives {
			tris[index] = prim.Triangle()
		}
		meshes[mIndex] = scene.NewMesh(pm.Name, tris, sc.opts.Mesh)
	}

	sc.logger.Infof("building scene BVH tree (%d meshes)", len(meshes))
	sc.optimizedScene = scene.New(meshes, sc.opts.Scene)

	sc.logger.Noticef("partitioned geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
}

// Run the requested number of optimization passes over all trees.
func (sc *sceneCompiler) optimizeGeometry() {
	if sc.opts.Optimize == nil {
		return
	}

	passes := sc.opts.Passes
	if passes < 1 {
		passes = 1
	}

	start := time.Now()
	rng := rand.New(rand.NewSource(sc.opts.Optimize.Seed))
	for pass := 0; pass < passes; pass++ {
		stats := sc.optimizedScene.Optimize(*sc.opts.Optimize, rng)
		sc.logger.Infof(
			"optimization pass %d/%d: improved %d nodes, cost %.4f -> %.4f",
			pass+1, passes, stats.Improved, stats.CostBefore, stats.CostAfter,
		)
		if stats.Improved == 0 {
			break
		}
	}

	sc.logger.Noticef("optimized geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
}

// Initialize and position the camera for the scene.
func (sc *sceneCompiler) setupCamera() {
	sc.optimizedScene.Camera = scene.NewCamera(45)
	if sc.parsedScene.Camera == nil {
		return
	}

	sc.optimizedScene.Camera.FOV = sc.parsedScene.Camera.FOV
	sc.optimizedScene.Camera.Position = sc.parsedScene.Camera.Eye
	sc.optimizedScene.Camera.LookAt = sc.parsedScene.Camera.Look
	sc.optimizedScene.Camera.Up = sc.parsedScene.Camera.Up
}
