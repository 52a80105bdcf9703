package cmd

import (
	"errors"

	"github.com/achilleasa/aobvh/asset/scene/reader"
	"github.com/achilleasa/aobvh/renderer"
	"github.com/urfave/cli"
)

// Apply the frame flags on top of the config file settings.
func applyRenderFlags(ctx *cli.Context, cfg *Config) {
	if ctx.IsSet("width") || cfg.Renderer.FrameW == 0 {
		cfg.Renderer.FrameW = uint32(ctx.Int("width"))
	}
	if ctx.IsSet("height") || cfg.Renderer.FrameH == 0 {
		cfg.Renderer.FrameH = uint32(ctx.Int("height"))
	}
	if ctx.IsSet("workers") {
		cfg.Renderer.Workers = ctx.Int("workers")
	}
	if ctx.Bool("adaptive") {
		cfg.Renderer.Adaptive = true
	}
}

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	applyRenderFlags(ctx, &cfg)

	mode, err := renderer.ParseMode(ctx.String("mode"))
	if err != nil {
		return err
	}

	// Load scene
	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First(), cfg.Compiler)
	if err != nil {
		return err
	}

	// Create renderer
	r, err := renderer.New(sc, cfg.Renderer)
	if err != nil {
		return err
	}
	defer r.Close()

	frame, err := r.Render()
	if err != nil {
		return err
	}

	imgFile := ctx.String("out")
	if err = renderer.SaveImage(frame, mode, imgFile); err != nil {
		return err
	}
	logger.Noticef("wrote %s frame to %s", mode, imgFile)

	// Display stats
	displayFrameStats(r.Stats())
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	logger.Noticef("frame statistics\n%s", stats.String())
}
