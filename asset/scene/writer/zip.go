package writer

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/log"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write scene definition to zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	w.logger.Noticef("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}

	err = writeArchive(zipFile, sc.Export())
	if closeErr := zipFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("zip writer: %w", err)
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Write the manifest and all GPU buffers as zstd-compressed zip entries.
func writeArchive(out io.Writer, gs *scene.GPUScene) error {
	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())

	manifest, err := yaml.Marshal(gs.Manifest())
	if err != nil {
		return err
	}

	entries := []struct {
		name string
		data interface{}
	}{
		{scene.SceneNodesFile, gs.SceneNodes},
		{scene.SceneIndicesFile, gs.SceneIndices},
		{scene.MeshesFile, gs.Meshes},
		{scene.NodesFile, gs.Nodes},
		{scene.IndicesFile, gs.Indices},
		{scene.TrianglesFile, gs.Triangles},
	}

	fw, err := createEntry(zw, scene.ManifestFile)
	if err != nil {
		return err
	}
	if _, err = fw.Write(manifest); err != nil {
		return err
	}

	for _, entry := range entries {
		fw, err = createEntry(zw, entry.name)
		if err != nil {
			return err
		}
		if err = binary.Write(fw, binary.LittleEndian, entry.data); err != nil {
			return fmt.Errorf("could not encode %s: %w", entry.name, err)
		}
	}

	return zw.Close()
}

func createEntry(zw *zip.Writer, name string) (io.Writer, error) {
	return zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zstd.ZipMethodWinZip,
		Modified: time.Now(),
	})
}
