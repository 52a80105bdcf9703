package scene

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/olekukonko/tablewriter"
)

var ErrCorruptScene = errors.New("scene: corrupt GPU scene")

// Size of a serialized MeshRecord in bytes.
const MeshRecordSize = 4 * 4

// A MeshRecord locates the buffers of a single mesh inside the concatenated
// GPU buffers. Node child indices and leaf ranges stored in a mesh's node
// records are relative to NodeOffset and IndexOffset respectively; index
// entries are relative to TriangleOffset.
type MeshRecord struct {
	NodeOffset     uint32
	IndexOffset    uint32
	TriangleOffset uint32
	NodeCount      uint32
}

// GPUScene is the flattened representation of a Scene that can be uploaded
// as-is to a GPU traversal kernel or written to disk.
type GPUScene struct {
	// The scene-level tree over meshes; leaf ranges index SceneIndices
	// whose entries are mesh indices.
	SceneNodes   []bvh.NodeRecord
	SceneIndices []uint32

	Meshes    []MeshRecord
	MeshNames []string

	// Concatenated per-mesh buffers.
	Nodes     []bvh.NodeRecord
	Indices   []uint32
	Triangles []geometry.TriangleRecord

	// The options the trees were built with.
	MeshOptions  bvh.BuildOptions
	SceneOptions bvh.BuildOptions

	Camera *Camera
}

// Export flattens the scene and all mesh trees into GPU buffers.
func (sc *Scene) Export() *GPUScene {
	flatScene := sc.Tree.Flatten()
	gs := &GPUScene{
		SceneNodes:   flatScene.Nodes,
		SceneIndices: flatScene.Indices,
		Meshes:       make([]MeshRecord, 0, len(sc.Meshes)),
		MeshNames:    make([]string, 0, len(sc.Meshes)),
		SceneOptions: sc.Tree.Options(),
		Camera:       sc.Camera,
	}

	for index, m := range sc.Meshes {
		if index == 0 {
			gs.MeshOptions = m.Tree.Options()
		}

		flat := m.Tree.Flatten()
		gs.Meshes = append(gs.Meshes, MeshRecord{
			NodeOffset:     uint32(len(gs.Nodes)),
			IndexOffset:    uint32(len(gs.Indices)),
			TriangleOffset: uint32(len(gs.Triangles)),
			NodeCount:      uint32(len(flat.Nodes)),
		})
		gs.MeshNames = append(gs.MeshNames, m.Name)
		gs.Nodes = append(gs.Nodes, flat.Nodes...)
		gs.Indices = append(gs.Indices, flat.Indices...)
		for triIndex := range m.Triangles {
			gs.Triangles = append(gs.Triangles, m.Triangles[triIndex].Record())
		}
	}

	return gs
}

// FromGPU rebuilds a scene from its GPU buffers. Mesh triangle counts are
// derived from the offset of the following mesh record. All trees are
// validated; inconsistencies yield an error wrapping ErrCorruptScene.
func FromGPU(gs *GPUScene) (*Scene, error) {
	if gs == nil || len(gs.Meshes) == 0 {
		return nil, fmt.Errorf("%w: no meshes", ErrCorruptScene)
	}
	if len(gs.MeshNames) != 0 && len(gs.MeshNames) != len(gs.Meshes) {
		return nil, fmt.Errorf("%w: %d mesh names for %d meshes", ErrCorruptScene, len(gs.MeshNames), len(gs.Meshes))
	}

	meshes := make([]*Mesh, len(gs.Meshes))
	for index, rec := range gs.Meshes {
		triEnd := uint32(len(gs.Triangles))
		if index+1 < len(gs.Meshes) {
			triEnd = gs.Meshes[index+1].TriangleOffset
		}
		if triEnd < rec.TriangleOffset || triEnd > uint32(len(gs.Triangles)) {
			return nil, fmt.Errorf("%w: mesh %d has invalid triangle offset %d", ErrCorruptScene, index, rec.TriangleOffset)
		}
		triCount := triEnd - rec.TriangleOffset

		nodeEnd := uint64(rec.NodeOffset) + uint64(rec.NodeCount)
		indexEnd := uint64(rec.IndexOffset) + uint64(triCount)
		if nodeEnd > uint64(len(gs.Nodes)) || indexEnd > uint64(len(gs.Indices)) {
			return nil, fmt.Errorf("%w: mesh %d buffers out of range", ErrCorruptScene, index)
		}

		triangles := make(bvh.TriangleList, triCount)
		for i := range triangles {
			triangles[i] = gs.Triangles[rec.TriangleOffset+uint32(i)].Triangle()
		}

		tree, err := bvh.Restore(bvh.FlatTree{
			Nodes:   gs.Nodes[rec.NodeOffset:nodeEnd],
			Indices: gs.Indices[rec.IndexOffset:indexEnd],
		}, triangles, gs.MeshOptions)
		if err != nil {
			return nil, fmt.Errorf("%w: mesh %d: %v", ErrCorruptScene, index, err)
		}

		meshes[index] = &Mesh{Triangles: triangles, Tree: tree}
		if len(gs.MeshNames) != 0 {
			meshes[index].Name = gs.MeshNames[index]
		}
	}

	tree, err := bvh.Restore(bvh.FlatTree{Nodes: gs.SceneNodes, Indices: gs.SceneIndices}, meshList(meshes), gs.SceneOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: scene tree: %v", ErrCorruptScene, err)
	}

	return &Scene{
		Meshes: meshes,
		Tree:   tree,
		Camera: gs.Camera,
	}, nil
}

// Build a tabular representation of GPU buffer statistics.
func (gs *GPUScene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Buffer Type", "Buffer", "Entries", "Size"})
	table.Append([]string{"Scene BVH", "---", " ", fmtSize(gs.SceneNodes, gs.SceneIndices, gs.Meshes)})
	table.Append([]string{"", "Nodes", fmt.Sprint(len(gs.SceneNodes)), fmtSize(gs.SceneNodes)})
	table.Append([]string{"", "Indices", fmt.Sprint(len(gs.SceneIndices)), fmtSize(gs.SceneIndices)})
	table.Append([]string{"", "Meshes", fmt.Sprint(len(gs.Meshes)), fmtSize(gs.Meshes)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Mesh BVH", "---", " ", fmtSize(gs.Nodes, gs.Indices)})
	table.Append([]string{"", "Nodes", fmt.Sprint(len(gs.Nodes)), fmtSize(gs.Nodes)})
	table.Append([]string{"", "Indices", fmt.Sprint(len(gs.Indices)), fmtSize(gs.Indices)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Geometry", "---", " ", fmtSize(gs.Triangles)})
	table.Append([]string{"", "Triangles", fmt.Sprint(len(gs.Triangles)), fmtSize(gs.Triangles)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(gs.SceneNodes, gs.SceneIndices, gs.Meshes, gs.Nodes, gs.Indices, gs.Triangles), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
