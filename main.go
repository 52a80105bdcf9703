package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/aobvh/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	frameFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "workers, w",
			Usage: "number of tracers; defaults to the number of CPUs",
		},
		cli.BoolFlag{
			Name:  "adaptive",
			Usage: "balance rows between tracers using block timings",
		},
	}

	optimizeFlags := []cli.Flag{
		cli.BoolFlag{
			Name:  "optimize",
			Usage: "run the tree optimizer after building each BVH",
		},
		cli.IntFlag{
			Name:  "passes",
			Value: 1,
			Usage: "number of optimization passes",
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "random seed for the optimizer",
		},
	}

	app := cli.NewApp()
	app.Name = "aobvh"
	app.Usage = "build, optimize and query BVH acceleration structures for triangle scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load settings from a yaml file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile text scene representation into a binary compressed format",
			Description: `
Parse a scene definition from a wavefront obj file, build a BVH for each mesh
and a scene BVH over the meshes and package the trees in a GPU-friendly format.

The compiled scene data is then written to a zip archive which can be supplied
as an argument to the info, bench and render commands.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags:     optimizeFlags,
			Action:    cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "display compiled scene information",
			ArgsUsage: "scene_file.zip",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "meshes",
					Usage: "display tree statistics for each mesh",
				},
			},
			Action: cmd.ShowSceneInfo,
		},
		{
			Name:  "bench",
			Usage: "compare tree quality before and after optimization",
			Description: `
Trace a grid of primary rays through the scene camera and report the SAH cost,
the mean number of bounds tests per ray and the trace time before and after
running the tree optimizer.`,
			ArgsUsage: "scene_file.obj|scene_file.zip",
			Flags:     append(append([]cli.Flag{}, frameFlags...), optimizeFlags...),
			Action:    cmd.Bench,
		},
		{
			Name:        "render",
			Usage:       "render a depth or bounds test heatmap frame",
			Description: `Render a single frame of primary ray hits.`,
			ArgsUsage:   "scene_file.obj|scene_file.zip",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame (.png or .webp)",
				},
				cli.StringFlag{
					Name:  "mode, m",
					Value: "depth",
					Usage: "frame contents: depth or heatmap",
				},
			}, frameFlags...),
			Action: cmd.RenderFrame,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
