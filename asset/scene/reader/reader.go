package reader

import (
	"fmt"

	"github.com/achilleasa/aobvh/asset"
	"github.com/achilleasa/aobvh/asset/compiler"
	"github.com/achilleasa/aobvh/asset/compiler/input"
	"github.com/achilleasa/aobvh/asset/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file. Wavefront files are compiled using the supplied
// options; compiled zip archives are restored as-is.
func ReadScene(filename string, opts compiler.Options) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	switch res.Ext() {
	case ".obj":
		reader = newWavefrontReader(opts)
	case ".zip":
		reader = newZipSceneReader()
	default:
		return nil, fmt.Errorf("readScene: unsupported file format %q", res.Ext())
	}
	return reader.Read(res)
}

// Read the raw triangle meshes from a wavefront file without compiling them.
func ReadInput(filename string) (*input.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return newWavefrontReader(compiler.DefaultOptions()).ReadInput(res)
}

// Read the GPU buffers of a compiled zip archive without restoring the trees.
func ReadGPUScene(filename string) (*scene.GPUScene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return newZipSceneReader().ReadGPU(res)
}
