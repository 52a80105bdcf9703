package renderer

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/aobvh/asset/compiler/bvh"
	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/tracer"
	"github.com/achilleasa/aobvh/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wallScene(withCamera bool) *scene.Scene {
	uv := types.Vec2{}
	tris := []geometry.Triangle{
		geometry.NewTriangle(types.Vec3{-10, -10, -5}, types.Vec3{11, -10, -5}, types.Vec3{11, 10, -5}, uv, uv, uv),
		geometry.NewTriangle(types.Vec3{-10, -10, -5}, types.Vec3{11, 10, -5}, types.Vec3{-10, 10, -5}, uv, uv, uv),
	}
	sc := scene.New([]*scene.Mesh{scene.NewMesh("wall", tris, bvh.DefaultMeshBuildOptions())}, bvh.DefaultSceneBuildOptions())
	if withCamera {
		sc.Camera = scene.NewCamera(90)
	}
	return sc
}

func TestRender(t *testing.T) {
	for _, adaptive := range []bool{false, true} {
		r, err := New(wallScene(true), Options{FrameW: 8, FrameH: 8, Workers: 3, Adaptive: adaptive})
		require.NoError(t, err)

		// Render twice so the adaptive scheduler gets to use block timings
		for pass := 0; pass < 2; pass++ {
			frame, err := r.Render()
			require.NoError(t, err)
			require.Len(t, frame.Samples, 64)

			for idx, s := range frame.Samples {
				assert.True(t, s.Hit, "[adaptive %t] pixel %d", adaptive, idx)
				assert.Equal(t, int32(0), s.Mesh)
			}

			stats := r.Stats()
			require.Len(t, stats.Tracers, 3)
			assert.Equal(t, uint64(64), stats.Rays)
			assert.Equal(t, uint64(64), stats.Hits)
			assert.True(t, stats.MeanBoundsTests() >= 1)

			var rows uint32
			for _, ts := range stats.Tracers {
				rows += ts.BlockH
			}
			assert.Equal(t, uint32(8), rows)
			assert.Contains(t, stats.String(), "TOTAL")
		}
		r.Close()
	}
}

func TestRenderUpdateCamera(t *testing.T) {
	r, err := New(wallScene(true), Options{FrameW: 4, FrameH: 4, Workers: 2})
	require.NoError(t, err)
	defer r.Close()

	cam := scene.NewCamera(90)
	cam.LookAt = types.Vec3{0, 0, 1}
	r.UpdateCamera(cam)

	frame, err := r.Render()
	require.NoError(t, err)
	for idx, s := range frame.Samples {
		assert.False(t, s.Hit, "pixel %d", idx)
	}
	assert.Equal(t, uint64(0), r.Stats().Hits)
}

func TestRenderInterrupted(t *testing.T) {
	r, err := New(wallScene(true), Options{FrameW: 4, FrameH: 4, Workers: 2})
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.RenderContext(ctx)
	assert.True(t, errors.Is(err, ErrInterrupted), "expected ErrInterrupted; got %v", err)
}

func TestNewErrors(t *testing.T) {
	opts := Options{FrameW: 4, FrameH: 4, Workers: 1}

	_, err := New(nil, opts)
	assert.Equal(t, ErrSceneNotDefined, err)

	_, err = New(wallScene(false), opts)
	assert.Equal(t, ErrCameraNotDefined, err)

	_, err = NewWithTracers(wallScene(true), tracer.NaiveScheduler(), nil, opts)
	assert.Equal(t, ErrNoTracers, err)

	_, err = New(wallScene(true), Options{FrameW: 4})
	assert.Equal(t, ErrInvalidFrame, err)
}

func TestFrameImage(t *testing.T) {
	frame := NewFrame(3, 1)
	frame.Samples[0] = tracer.Sample{Hit: true, Distance: 1, BoundsTests: 1}
	frame.Samples[1] = tracer.Sample{Hit: true, Distance: 3, BoundsTests: 4}
	frame.Samples[2] = tracer.Sample{Mesh: -1, Triangle: -1, BoundsTests: 2}

	depth := frame.Image(Depth)
	assert.Equal(t, uint8(255), depth.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(51), depth.RGBAAt(1, 0).R)
	assert.Equal(t, uint8(0), depth.RGBAAt(2, 0).R)
	assert.Equal(t, uint8(255), depth.RGBAAt(2, 0).A)

	heat := frame.Image(Heatmap)
	assert.Equal(t, uint8(255), heat.RGBAAt(1, 0).R, "hottest pixel should be red")
	assert.Equal(t, uint8(0), heat.RGBAAt(1, 0).B)
	assert.Equal(t, uint8(0), heat.RGBAAt(2, 0).R, "colder pixel should not be red")
	assert.True(t, heat.RGBAAt(0, 0).B > heat.RGBAAt(2, 0).B)
}

func TestParseMode(t *testing.T) {
	type spec struct {
		in     string
		exp    Mode
		expErr bool
	}
	specs := []spec{
		{"", Depth, false},
		{"Depth", Depth, false},
		{"heatmap", Heatmap, false},
		{"bounds", Heatmap, false},
		{"normals", Depth, true},
	}

	for index, s := range specs {
		mode, err := ParseMode(s.in)
		if s.expErr {
			assert.Error(t, err, "[spec %d]", index)
			continue
		}
		require.NoError(t, err, "[spec %d]", index)
		assert.Equal(t, s.exp, mode, "[spec %d]", index)
	}
	assert.Equal(t, "heatmap", Heatmap.String())
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	frame := NewFrame(2, 2)
	frame.Samples[0] = tracer.Sample{Hit: true, Distance: 2, BoundsTests: 3}

	pngFile := filepath.Join(dir, "frame.png")
	require.NoError(t, SaveImage(frame, Depth, pngFile))

	f, err := os.Open(pngFile)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())

	webpFile := filepath.Join(dir, "frame.webp")
	require.NoError(t, SaveImage(frame, Heatmap, webpFile))
	info, err := os.Stat(webpFile)
	require.NoError(t, err)
	assert.True(t, info.Size() > 0)

	err = SaveImage(frame, Depth, filepath.Join(dir, "frame.bmp"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported image format"))
}
