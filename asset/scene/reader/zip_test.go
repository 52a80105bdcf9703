package reader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/aobvh/asset/compiler"
	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/asset/scene/writer"
	"github.com/achilleasa/aobvh/types"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestZipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	objFile := filepath.Join(dir, "scene.obj")
	zipFile := filepath.Join(dir, "scene.zip")
	require.NoError(t, os.WriteFile(objFile, []byte(testObj), 0644))

	opts := compiler.DefaultOptions()
	optimizeOpts := bvh.DefaultOptimizeOptions()
	opts.Optimize = &optimizeOpts

	sc, err := ReadScene(objFile, opts)
	require.NoError(t, err)
	require.NoError(t, writer.WriteScene(sc, zipFile))

	restored, err := ReadScene(zipFile, opts)
	require.NoError(t, err)

	exp, got := sc.Export(), restored.Export()
	assert.Equal(t, exp.SceneNodes, got.SceneNodes)
	assert.Equal(t, exp.SceneIndices, got.SceneIndices)
	assert.Equal(t, exp.Meshes, got.Meshes)
	assert.Equal(t, exp.MeshNames, got.MeshNames)
	assert.Equal(t, exp.Nodes, got.Nodes)
	assert.Equal(t, exp.Indices, got.Indices)
	assert.Equal(t, exp.Triangles, got.Triangles)
	assert.Equal(t, exp.MeshOptions, got.MeshOptions)
	assert.Equal(t, exp.SceneOptions, got.SceneOptions)

	require.NotNil(t, got.Camera)
	assert.Equal(t, exp.Camera.FOV, got.Camera.FOV)
	assert.Equal(t, exp.Camera.Position, got.Camera.Position)
	assert.Equal(t, exp.Camera.LookAt, got.Camera.LookAt)

	ray := types.NewRay(types.Vec3{0.2, 0.7, 2}, types.Vec3{0, 0, -1})
	expHit, expOk := sc.IntersectNearest(ray)
	gotHit, gotOk := restored.IntersectNearest(ray)
	require.True(t, expOk)
	require.Equal(t, expOk, gotOk)
	assert.Equal(t, expHit, gotHit)

	gs, err := ReadGPUScene(zipFile)
	require.NoError(t, err)
	assert.Equal(t, exp.Triangles, gs.Triangles)
}

func TestZipReaderErrors(t *testing.T) {
	dir := t.TempDir()

	writeZip := func(name string, entries map[string]string) string {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		require.NoError(t, err)
		zw := zip.NewWriter(f)
		for entryName, payload := range entries {
			w, err := zw.Create(entryName)
			require.NoError(t, err)
			_, err = w.Write([]byte(payload))
			require.NoError(t, err)
		}
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())
		return path
	}

	// Write an archive for the test scene after applying mutate to its manifest.
	writeArchive := func(name string, mutate func(m *scene.Manifest)) string {
		objFile := filepath.Join(dir, name+".obj")
		require.NoError(t, os.WriteFile(objFile, []byte(testObj), 0644))
		sc, err := ReadScene(objFile, compiler.DefaultOptions())
		require.NoError(t, err)

		gs := sc.Export()
		manifest := gs.Manifest()
		mutate(manifest)
		manifestData, err := yaml.Marshal(manifest)
		require.NoError(t, err)

		entries := map[string]string{scene.ManifestFile: string(manifestData)}
		for entryName, data := range map[string]interface{}{
			scene.SceneNodesFile:   gs.SceneNodes,
			scene.SceneIndicesFile: gs.SceneIndices,
			scene.MeshesFile:       gs.Meshes,
			scene.NodesFile:        gs.Nodes,
			scene.IndicesFile:      gs.Indices,
			scene.TrianglesFile:    gs.Triangles,
		} {
			var buf bytes.Buffer
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, data))
			entries[entryName] = buf.String()
		}
		return writeZip(name+".zip", entries)
	}

	setTriangleCount := func(count int) func(m *scene.Manifest) {
		return func(m *scene.Manifest) {
			for index := range m.Entries {
				if m.Entries[index].File == scene.TrianglesFile {
					m.Entries[index].Count = count
				}
			}
		}
	}

	type spec struct {
		file   string
		expErr string
	}

	specs := []spec{
		{writeZip("no-manifest.zip", map[string]string{"foo.bin": "bar"}), "missing manifest.yaml"},
		{writeZip("bad-yaml.zip", map[string]string{"manifest.yaml": "version: [1"}), "failed to parse manifest.yaml"},
		{writeZip("bad-version.zip", map[string]string{"manifest.yaml": "version: 7"}), "unsupported archive version 7"},
		{writeArchive("huge-count", setTriangleCount(100000000000000)), "at most"},
		{writeArchive("large-count", setTriangleCount(2000000000)), "triangles.bin contains"},
		{writeArchive("extra-record", setTriangleCount(5)), "triangles.bin contains"},
	}

	notZip := filepath.Join(dir, "garbage.zip")
	require.NoError(t, os.WriteFile(notZip, []byte("not a zip file"), 0644))
	specs = append(specs, spec{notZip, "zip reader"})

	for index, s := range specs {
		_, err := ReadScene(s.file, compiler.DefaultOptions())
		require.Error(t, err, "[spec %d]", index)
		assert.True(t, strings.Contains(err.Error(), s.expErr), "[spec %d] expected error to contain %q; got %v", index, s.expErr, err)
	}
}
