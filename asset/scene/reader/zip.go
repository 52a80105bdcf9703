package reader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/aobvh/asset"
	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/log"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

type zipSceneReader struct {
	logger log.Logger
}

// Create a new zip scene reader
func newZipSceneReader() *zipSceneReader {
	return &zipSceneReader{
		logger: log.New("zip reader"),
	}
}

// Read scene definition from zip file.
func (p *zipSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	p.logger.Noticef(`parsing compiled scene from "%s"`, sceneRes.Path())
	start := time.Now()

	gs, err := p.ReadGPU(sceneRes)
	if err != nil {
		return nil, err
	}

	sc, err := scene.FromGPU(gs)
	if err != nil {
		return nil, fmt.Errorf("zip reader: %w", err)
	}

	p.logger.Noticef("loaded scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

// Read the GPU buffers from a zip file without restoring the trees.
func (p *zipSceneReader) ReadGPU(sceneRes *asset.Resource) (*scene.GPUScene, error) {
	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := sceneRes.ReadAll()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip reader: %w", err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	mf, exists := files[scene.ManifestFile]
	if !exists {
		return nil, fmt.Errorf("zip reader: missing %s", scene.ManifestFile)
	}
	manifestData, err := readEntry(mf)
	if err != nil {
		return nil, err
	}
	manifest := &scene.Manifest{}
	if err = yaml.Unmarshal(manifestData, manifest); err != nil {
		return nil, fmt.Errorf("zip reader: failed to parse %s: %w", scene.ManifestFile, err)
	}
	if err = manifest.Validate(); err != nil {
		return nil, fmt.Errorf("zip reader: %w", err)
	}

	// Entries are read and checked against the manifest before any buffer is
	// allocated so that buffer sizes always match the archive contents.
	payloads := make(map[string][]byte, len(scene.ArchiveEntries))
	for _, name := range scene.ArchiveEntries {
		f, exists := files[name]
		if !exists {
			return nil, fmt.Errorf("zip reader: missing %s", name)
		}

		entry := manifest.Entry(name)
		expSize := uint64(entry.Count) * uint64(entry.RecordSize)
		if f.UncompressedSize64 != expSize {
			return nil, fmt.Errorf("zip reader: %s contains %d bytes; expected %d", name, f.UncompressedSize64, expSize)
		}

		payload, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		if uint64(len(payload)) != expSize {
			return nil, fmt.Errorf("zip reader: %s contains %d bytes; expected %d", name, len(payload), expSize)
		}
		payloads[name] = payload
	}

	records := func(name string, recordSize int) int {
		return len(payloads[name]) / recordSize
	}
	gs := &scene.GPUScene{
		SceneNodes:   make([]bvh.NodeRecord, records(scene.SceneNodesFile, bvh.NodeRecordSize)),
		SceneIndices: make([]uint32, records(scene.SceneIndicesFile, geometry.Int32Size)),
		Meshes:       make([]scene.MeshRecord, records(scene.MeshesFile, scene.MeshRecordSize)),
		MeshNames:    manifest.MeshNames,
		Nodes:        make([]bvh.NodeRecord, records(scene.NodesFile, bvh.NodeRecordSize)),
		Indices:      make([]uint32, records(scene.IndicesFile, geometry.Int32Size)),
		Triangles:    make([]geometry.TriangleRecord, records(scene.TrianglesFile, geometry.TriangleRecordSize)),
		MeshOptions:  manifest.MeshOptions,
		SceneOptions: manifest.SceneOptions,
		Camera:       manifest.Camera,
	}

	targets := []struct {
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
	for _, target := range targets {
		if err = binary.Read(bytes.NewReader(payloads[target.name]), binary.LittleEndian, target.data); err != nil {
			return nil, fmt.Errorf("zip reader: failed to load %s: %w", target.name, err)
		}
	}

	for _, f := range zr.File {
		if f.Name != scene.ManifestFile && manifest.Entry(f.Name).RecordSize == 0 {
			p.logger.Warningf("unknown file %s in scene zip file; skipping", f.Name)
		}
	}

	return gs, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("zip reader: failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("zip reader: failed to read %s: %w", f.Name, err)
	}
	return data, nil
}
