package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A wall at z = -5 covering the view of a camera at the origin. The shared
// triangle edge is skewed so that no pixel ray grazes it.
func wallScene() *scene.Scene {
	uv := types.Vec2{}
	tris := []geometry.Triangle{
		geometry.NewTriangle(types.Vec3{-10, -10, -5}, types.Vec3{11, -10, -5}, types.Vec3{11, 10, -5}, uv, uv, uv),
		geometry.NewTriangle(types.Vec3{-10, -10, -5}, types.Vec3{11, 10, -5}, types.Vec3{-10, 10, -5}, uv, uv, uv),
	}
	sc := scene.New([]*scene.Mesh{scene.NewMesh("wall", tris, bvh.DefaultMeshBuildOptions())}, bvh.DefaultSceneBuildOptions())
	sc.Camera = scene.NewCamera(90)
	sc.Camera.SetupProjection(1)
	return sc
}

func TestCPUTracerTraceBlocks(t *testing.T) {
	tr := NewCPUTracer("cpu-0", 1)
	defer tr.Close()

	tr.AppendChange(SetScene, wallScene())
	require.NoError(t, tr.ApplyPendingChanges())

	const frameW, frameH = 4, 4
	samples := make([]Sample, frameW*frameH)

	for _, block := range [][2]uint32{{0, 3}, {3, 1}} {
		err := tr.Trace(context.Background(), BlockRequest{
			FrameW:  frameW,
			FrameH:  frameH,
			BlockY:  block[0],
			BlockH:  block[1],
			Samples: samples,
		})
		require.NoError(t, err)

		stats := tr.Stats()
		assert.Equal(t, block[1], stats.BlockH)
		assert.Equal(t, uint64(block[1]*frameW), stats.Rays)
		assert.Equal(t, stats.Rays, stats.Hits)
		assert.True(t, stats.BoundsTests >= stats.Rays)
	}

	for index, s := range samples {
		require.True(t, s.Hit, "[pixel %d]", index)
		assert.Equal(t, int32(0), s.Mesh, "[pixel %d]", index)
		assert.True(t, s.Triangle == 0 || s.Triangle == 1, "[pixel %d]", index)
		assert.True(t, s.Distance >= 5, "[pixel %d] distance %f", index, s.Distance)
		assert.True(t, s.BoundsTests > 0, "[pixel %d]", index)
	}

	// The frame is symmetric around its center
	assert.InDelta(t, samples[0].Distance, samples[frameW*frameH-1].Distance, 1e-4)
	assert.InDelta(t, samples[5].Distance, samples[10].Distance, 1e-4)
	assert.True(t, samples[5].Distance < samples[0].Distance)
}

func TestCPUTracerMisses(t *testing.T) {
	sc := wallScene()
	cam := scene.NewCamera(90)
	cam.LookAt = types.Vec3{0, 0, 1}
	cam.SetupProjection(1)

	tr := NewCPUTracer("cpu-0", 1)
	tr.AppendChange(SetScene, sc)
	tr.AppendChange(UpdateCamera, cam)
	require.NoError(t, tr.ApplyPendingChanges())

	samples := make([]Sample, 4)
	require.NoError(t, tr.Trace(context.Background(), BlockRequest{FrameW: 2, FrameH: 2, BlockH: 2, Samples: samples}))
	for index, s := range samples {
		assert.False(t, s.Hit, "[pixel %d]", index)
		assert.Equal(t, int32(-1), s.Mesh, "[pixel %d]", index)
	}
	assert.Equal(t, uint64(0), tr.Stats().Hits)
}

func TestCPUTracerErrors(t *testing.T) {
	tr := NewCPUTracer("cpu-0", 0)
	assert.Equal(t, float32(1), tr.SpeedEstimate())

	samples := make([]Sample, 4)
	req := BlockRequest{FrameW: 2, FrameH: 2, BlockH: 2, Samples: samples}
	assert.Equal(t, ErrSceneNotDefined, tr.Trace(context.Background(), req))

	tr.AppendChange(UpdateCamera, "not-a-camera")
	err := tr.ApplyPendingChanges()
	assert.True(t, errors.Is(err, ErrInvalidChange), "expected ErrInvalidChange; got %v", err)

	tr.AppendChange(SetScene, wallScene())
	require.NoError(t, tr.ApplyPendingChanges())

	bad := req
	bad.BlockY = 1
	assert.Equal(t, ErrInvalidBlock, tr.Trace(context.Background(), bad))
	bad = req
	bad.Samples = samples[:3]
	assert.Equal(t, ErrInvalidBlock, tr.Trace(context.Background(), bad))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, tr.Trace(ctx, req))
}
