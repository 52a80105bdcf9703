package cmd

import (
	"fmt"
	"os"

	"github.com/achilleasa/aobvh/asset/compiler"
	"github.com/achilleasa/aobvh/log"
	"github.com/achilleasa/aobvh/renderer"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"
)

// Config holds the settings that can be loaded from a yaml file via the
// global --config flag. Command line flags override config values.
type Config struct {
	LogLevel string           `yaml:"log_level"`
	Compiler compiler.Options `yaml:"compiler"`
	Renderer renderer.Options `yaml:"renderer"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "notice",
		Compiler: compiler.DefaultOptions(),
		Renderer: renderer.Options{
			FrameW: 512,
			FrameH: 512,
		},
	}
}

// Load a yaml config file. Settings missing from the file keep their
// default values.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, err
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: could not parse %s: %w", filename, err)
	}
	if _, err = log.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", filename, err)
	}

	return cfg, nil
}

// Setup logging and load the config file if one was specified.
func setup(ctx *cli.Context) (Config, error) {
	cfg := DefaultConfig()
	if filename := ctx.GlobalString("config"); filename != "" {
		var err error
		if cfg, err = LoadConfig(filename); err != nil {
			return cfg, err
		}

		level, _ := log.ParseLevel(cfg.LogLevel)
		log.SetLevel(level)
	}

	setupLogging(ctx)
	return cfg, nil
}
