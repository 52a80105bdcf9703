package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/asset/scene/reader"
	"github.com/achilleasa/aobvh/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

type benchResult struct {
	sceneCost float32
	meshCost  float32
	frame     renderer.FrameStats
}

// Trace a grid of primary rays through the scene camera and collect the
// SAH cost and the traversal statistics.
func benchScene(sc *scene.Scene, opts renderer.Options) (benchResult, error) {
	res := benchResult{}
	res.sceneCost, res.meshCost = sc.SAHCost()

	r, err := renderer.New(sc, opts)
	if err != nil {
		return res, err
	}
	defer r.Close()

	if _, err = r.Render(); err != nil {
		return res, err
	}
	res.frame = r.Stats()
	return res, nil
}

// Compare tree quality before and after optimization.
func Bench(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	applyRenderFlags(ctx, &cfg)
	applyOptimizeFlags(ctx, &cfg)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	optOpts := bvh.DefaultOptimizeOptions()
	if cfg.Compiler.Optimize != nil {
		optOpts = *cfg.Compiler.Optimize
	}
	if ctx.IsSet("seed") {
		optOpts.Seed = ctx.Int64("seed")
	}

	// Load the scene without optimizing it
	compilerOpts := cfg.Compiler
	compilerOpts.Optimize = nil
	sc, err := reader.ReadScene(ctx.Args().First(), compilerOpts)
	if err != nil {
		return err
	}

	before, err := benchScene(sc, cfg.Renderer)
	if err != nil {
		return err
	}

	passes := cfg.Compiler.Passes
	if passes < 1 {
		passes = 1
	}
	var optDuration time.Duration
	for pass := 0; pass < passes; pass++ {
		stats := sc.Optimize(optOpts, nil)
		optDuration += stats.Duration
		logger.Infof("optimization pass %d/%d: improved %d nodes", pass+1, passes, stats.Improved)
		if stats.Improved == 0 {
			break
		}
		optOpts.Seed++
	}
	logger.Noticef("optimized scene in %d ms", optDuration.Nanoseconds()/1e6)

	after, err := benchScene(sc, cfg.Renderer)
	if err != nil {
		return err
	}

	logger.Noticef("benchmark results (%dx%d rays):\n%s", cfg.Renderer.FrameW, cfg.Renderer.FrameH, benchTable(before, after))
	return nil
}

func benchTable(before, after benchResult) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Metric", "Before", "After", "Change"})

	row := func(metric string, b, a float64, format string) {
		change := "-"
		if b != 0 {
			change = fmt.Sprintf("%+.2f %%", 100*(a-b)/b)
		}
		table.Append([]string{metric, fmt.Sprintf(format, b), fmt.Sprintf(format, a), change})
	}
	row("Scene SAH cost", float64(before.sceneCost), float64(after.sceneCost), "%.4f")
	row("Mesh SAH cost", float64(before.meshCost), float64(after.meshCost), "%.4f")
	row("Bounds tests / ray", before.frame.MeanBoundsTests(), after.frame.MeanBoundsTests(), "%.2f")
	row("Trace time (ms)", msec(before.frame.RenderTime), msec(after.frame.RenderTime), "%.2f")
	table.SetFooter([]string{"Hits", fmt.Sprint(before.frame.Hits), fmt.Sprint(after.frame.Hits), ""})

	table.Render()
	return buf.String()
}

func msec(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
