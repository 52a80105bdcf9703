package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/geometry"
)

// The archive format version written by the zip writer.
const ArchiveVersion = 1

// Upper bound for the record count of an archive entry. Node and index
// records address entries with 32-bit integers.
const MaxEntryCount = math.MaxInt32

// Archive entry names.
const (
	ManifestFile     = "manifest.yaml"
	SceneNodesFile   = "scene_nodes.bin"
	SceneIndicesFile = "scene_indices.bin"
	MeshesFile       = "meshes.bin"
	NodesFile        = "nodes.bin"
	IndicesFile      = "indices.bin"
	TrianglesFile    = "triangles.bin"
)

// The binary entries of an archive in the order they are written.
var ArchiveEntries = []string{
	SceneNodesFile,
	SceneIndicesFile,
	MeshesFile,
	NodesFile,
	IndicesFile,
	TrianglesFile,
}

// An ArchiveEntry describes a binary buffer stored in a compiled scene
// archive.
type ArchiveEntry struct {
	File       string `yaml:"file"`
	Count      int    `yaml:"count"`
	RecordSize int    `yaml:"record_size"`
}

// The Manifest describes the contents of a compiled scene archive.
type Manifest struct {
	Version      int              `yaml:"version"`
	MeshNames    []string         `yaml:"meshes"`
	MeshOptions  bvh.BuildOptions `yaml:"mesh_options"`
	SceneOptions bvh.BuildOptions `yaml:"scene_options"`
	Camera       *Camera          `yaml:"camera,omitempty"`
	Entries      []ArchiveEntry   `yaml:"entries"`
}

// The record size of each binary archive entry.
var archiveRecordSizes = map[string]int{
	SceneNodesFile:   bvh.NodeRecordSize,
	SceneIndicesFile: geometry.Int32Size,
	MeshesFile:       MeshRecordSize,
	NodesFile:        bvh.NodeRecordSize,
	IndicesFile:      geometry.Int32Size,
	TrianglesFile:    geometry.TriangleRecordSize,
}

// Generate the manifest for a GPU scene.
func (gs *GPUScene) Manifest() *Manifest {
	return &Manifest{
		Version:      ArchiveVersion,
		MeshNames:    gs.MeshNames,
		MeshOptions:  gs.MeshOptions,
		SceneOptions: gs.SceneOptions,
		Camera:       gs.Camera,
		Entries: []ArchiveEntry{
			{SceneNodesFile, len(gs.SceneNodes), bvh.NodeRecordSize},
			{SceneIndicesFile, len(gs.SceneIndices), geometry.Int32Size},
			{MeshesFile, len(gs.Meshes), MeshRecordSize},
			{NodesFile, len(gs.Nodes), bvh.NodeRecordSize},
			{IndicesFile, len(gs.Indices), geometry.Int32Size},
			{TrianglesFile, len(gs.Triangles), geometry.TriangleRecordSize},
		},
	}
}

// Validate checks the manifest version and that every known entry is present
// exactly once with the expected record size.
func (m *Manifest) Validate() error {
	if m.Version != ArchiveVersion {
		return fmt.Errorf("manifest: unsupported archive version %d", m.Version)
	}

	seen := make(map[string]bool, len(m.Entries))
	for _, entry := range m.Entries {
		expSize, known := archiveRecordSizes[entry.File]
		if !known {
			return fmt.Errorf("manifest: unknown entry %q", entry.File)
		}
		if seen[entry.File] {
			return fmt.Errorf("manifest: duplicate entry %q", entry.File)
		}
		seen[entry.File] = true

		if entry.RecordSize != expSize {
			return fmt.Errorf("manifest: entry %q has record size %d; expected %d", entry.File, entry.RecordSize, expSize)
		}
		if entry.Count < 0 {
			return fmt.Errorf("manifest: entry %q has negative record count", entry.File)
		}
		if entry.Count > MaxEntryCount {
			return fmt.Errorf("manifest: entry %q has record count %d; at most %d allowed", entry.File, entry.Count, MaxEntryCount)
		}
	}

	for file := range archiveRecordSizes {
		if !seen[file] {
			return fmt.Errorf("manifest: missing entry %q", file)
		}
	}

	if meshes := m.Entry(MeshesFile); len(m.MeshNames) != 0 && len(m.MeshNames) != meshes.Count {
		return fmt.Errorf("manifest: %d mesh names for %d meshes", len(m.MeshNames), meshes.Count)
	}
	return nil
}

// Lookup an entry by file name.
func (m *Manifest) Entry(file string) ArchiveEntry {
	for _, entry := range m.Entries {
		if entry.File == file {
			return entry
		}
	}
	return ArchiveEntry{File: file}
}
