package writer

import "github.com/achilleasa/aobvh/asset/scene"

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write scene definition
	Write(*scene.Scene) error
}

// Write scene to a zip archive containing the flattened GPU buffers.
func WriteScene(sc *scene.Scene, filename string) error {
	writer := newZipSceneWriter(filename)
	return writer.Write(sc)
}
