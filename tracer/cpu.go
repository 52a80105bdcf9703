package tracer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/aobvh/asset/scene"
)

var (
	ErrInvalidChange   = errors.New("tracer: invalid change payload")
	ErrSceneNotDefined = errors.New("tracer: no scene defined")
	ErrInvalidBlock    = errors.New("tracer: block request out of frame bounds")
)

type change struct {
	changeType ChangeType
	data       interface{}
}

// A tracer that runs scene queries on the calling goroutine.
type cpuTracer struct {
	id    string
	speed float32

	scene  *scene.Scene
	camera *scene.Camera

	pending []change
	stats   Stats
}

// Create a new CPU tracer. The speed estimate is used by the block schedulers
// to distribute rows among tracers before any timing information exists.
func NewCPUTracer(id string, speed float32) Tracer {
	if speed <= 0 {
		speed = 1
	}
	return &cpuTracer{
		id:    id,
		speed: speed,
	}
}

func (tr *cpuTracer) Id() string {
	return tr.id
}

func (tr *cpuTracer) Close() {
	tr.scene = nil
	tr.camera = nil
	tr.pending = nil
}

func (tr *cpuTracer) SpeedEstimate() float32 {
	return tr.speed
}

func (tr *cpuTracer) AppendChange(changeType ChangeType, data interface{}) {
	tr.pending = append(tr.pending, change{changeType, data})
}

func (tr *cpuTracer) ApplyPendingChanges() error {
	defer func() { tr.pending = tr.pending[:0] }()

	for _, c := range tr.pending {
		if err := validateChange(c.changeType, c.data); err != nil {
			return fmt.Errorf("tracer %s: %w", tr.id, err)
		}

		switch c.changeType {
		case SetScene:
			tr.scene = c.data.(*scene.Scene)
			if tr.camera == nil {
				tr.camera = tr.scene.Camera
			}
		case UpdateCamera:
			tr.camera = c.data.(*scene.Camera)
		}
	}
	return nil
}

func (tr *cpuTracer) Stats() *Stats {
	return &tr.stats
}

func (tr *cpuTracer) Trace(ctx context.Context, req BlockRequest) error {
	if tr.scene == nil || tr.camera == nil {
		return ErrSceneNotDefined
	}
	if req.BlockY+req.BlockH > req.FrameH || len(req.Samples) < int(req.FrameW*req.FrameH) {
		return ErrInvalidBlock
	}

	start := time.Now()
	stats := Stats{BlockH: req.BlockH}
	w, h := int(req.FrameW), int(req.FrameH)
	for y := int(req.BlockY); y < int(req.BlockY+req.BlockH); y++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		row := req.Samples[y*w : (y+1)*w]
		for x := range row {
			hit, ok := tr.scene.IntersectNearest(tr.camera.Ray(x, y, w, h))
			sample := Sample{
				Mesh:        -1,
				Triangle:    -1,
				BoundsTests: uint32(hit.BoundsTests),
			}
			if ok {
				sample.Hit = true
				sample.Distance = hit.Distance
				sample.Mesh = int32(hit.Mesh)
				sample.Triangle = int32(hit.Triangle)
				stats.Hits++
			}
			row[x] = sample

			stats.Rays++
			stats.BoundsTests += uint64(hit.BoundsTests)
		}
	}

	stats.BlockTime = time.Since(start).Nanoseconds()
	tr.stats = stats
	return nil
}
