package cmd

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/asset/scene/reader"
	"github.com/achilleasa/aobvh/asset/scene/writer"
	"github.com/urfave/cli"
)

// Apply the optimizer flags on top of the config file settings.
func applyOptimizeFlags(ctx *cli.Context, cfg *Config) {
	if ctx.Bool("optimize") && cfg.Compiler.Optimize == nil {
		opts := bvh.DefaultOptimizeOptions()
		cfg.Compiler.Optimize = &opts
	}
	if ctx.IsSet("passes") {
		cfg.Compiler.Passes = ctx.Int("passes")
	}
	if ctx.IsSet("seed") && cfg.Compiler.Optimize != nil {
		cfg.Compiler.Optimize.Seed = ctx.Int64("seed")
	}
}

// Compile scene to binary format.
func CompileScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	applyOptimizeFlags(ctx, &cfg)

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		sc, err := reader.ReadScene(sceneFile, cfg.Compiler)
		if err != nil {
			return err
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Export().Stats())

		zipFile := strings.TrimSuffix(sceneFile, filepath.Ext(sceneFile)) + ".zip"
		if err = writer.WriteScene(sc, zipFile); err != nil {
			return err
		}
	}

	return nil
}

// Display compiled scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	if _, err := setup(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing compiled scene zip file")
	}

	sceneFile := ctx.Args().First()
	if !strings.HasSuffix(sceneFile, ".zip") {
		return errors.New("only compiled scene files with a .zip extension are supported")
	}

	gs, err := reader.ReadGPUScene(sceneFile)
	if err != nil {
		return err
	}
	logger.Noticef("scene information:\n%s", gs.Stats())

	sc, err := scene.FromGPU(gs)
	if err != nil {
		return err
	}
	logger.Noticef("scene tree (%d meshes):\n%s", len(sc.Meshes), sc.Tree.Stats())
	if ctx.Bool("meshes") {
		for _, mesh := range sc.Meshes {
			logger.Noticef("mesh %q (%d triangles):\n%s", mesh.Name, len(mesh.Triangles), mesh.Tree.Stats())
		}
	}

	sceneCost, meshCost := sc.SAHCost()
	logger.Noticef("SAH cost: scene %.4f, meshes %.4f", sceneCost, meshCost)
	return nil
}
