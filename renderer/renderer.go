package renderer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/achilleasa/aobvh/asset/scene"
	"github.com/achilleasa/aobvh/log"
	"github.com/achilleasa/aobvh/tracer"
	"golang.org/x/sync/errgroup"
)

type Renderer interface {
	// Render frame.
	Render() (*Frame, error)

	// Render frame; tracing stops early if ctx is cancelled.
	RenderContext(ctx context.Context) (*Frame, error)

	// Queue a camera change; it is applied before the next frame.
	UpdateCamera(camera *scene.Camera)

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}

// A renderer that splits each frame into row blocks and traces them in
// parallel using a pool of tracers.
type defaultRenderer struct {
	logger log.Logger

	scene     *scene.Scene
	tracers   []tracer.Tracer
	scheduler tracer.BlockScheduler
	options   Options

	blockAssignments []uint32
	stats            FrameStats
}

// Create a new renderer backed by CPU tracers.
func New(sc *scene.Scene, opts Options) (Renderer, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tracers := make([]tracer.Tracer, workers)
	for idx := range tracers {
		tracers[idx] = tracer.NewCPUTracer(fmt.Sprintf("cpu-%d", idx), 1)
	}

	scheduler := tracer.NaiveScheduler()
	if opts.Adaptive {
		scheduler = tracer.PerfectScheduler()
	}

	return NewWithTracers(sc, scheduler, tracers, opts)
}

// Create a new renderer using the supplied tracers and block scheduler. The
// scene camera projection is adjusted to the frame aspect ratio.
func NewWithTracers(sc *scene.Scene, scheduler tracer.BlockScheduler, tracers []tracer.Tracer, opts Options) (Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}
	if len(tracers) == 0 {
		return nil, ErrNoTracers
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, ErrInvalidFrame
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		scene:     sc,
		tracers:   tracers,
		scheduler: scheduler,
		options:   opts,
	}

	sc.Camera.SetupProjection(float32(opts.FrameW) / float32(opts.FrameH))
	for _, tr := range tracers {
		tr.AppendChange(tracer.SetScene, sc)
		tr.AppendChange(tracer.UpdateCamera, sc.Camera)
		if err := tr.ApplyPendingChanges(); err != nil {
			r.Close()
			return nil, err
		}
	}

	r.logger.Infof("attached %d tracers", len(tracers))
	return r, nil
}

func (r *defaultRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

func (r *defaultRenderer) UpdateCamera(camera *scene.Camera) {
	camera.SetupProjection(float32(r.options.FrameW) / float32(r.options.FrameH))
	for _, tr := range r.tracers {
		tr.AppendChange(tracer.UpdateCamera, camera)
	}
}

func (r *defaultRenderer) Render() (*Frame, error) {
	return r.RenderContext(context.Background())
}

func (r *defaultRenderer) RenderContext(ctx context.Context) (*Frame, error) {
	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}

	start := time.Now()
	for _, tr := range r.tracers {
		if err := tr.ApplyPendingChanges(); err != nil {
			return nil, err
		}
	}

	frame := NewFrame(r.options.FrameW, r.options.FrameH)
	r.blockAssignments = r.scheduler.Schedule(r.tracers, r.options.FrameH)

	g, gctx := errgroup.WithContext(ctx)
	var blockY uint32
	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		if blockH == 0 {
			continue
		}

		req := tracer.BlockRequest{
			FrameW:  frame.W,
			FrameH:  frame.H,
			BlockY:  blockY,
			BlockH:  blockH,
			Samples: frame.Samples,
		}
		g.Go(func() error {
			return tr.Trace(gctx, req)
		})
		blockY += blockH
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrInterrupted, err)
		}
		return nil, err
	}

	r.updateStats(time.Since(start))
	r.logger.Debugf("rendered %dx%d frame in %d ms", frame.W, frame.H, r.stats.RenderTime.Nanoseconds()/1000000)
	return frame, nil
}

func (r *defaultRenderer) updateStats(renderTime time.Duration) {
	r.stats = FrameStats{
		Tracers:    make([]TracerStat, len(r.tracers)),
		RenderTime: renderTime,
	}

	for idx, tr := range r.tracers {
		stat := TracerStat{
			Id:           tr.Id(),
			BlockH:       r.blockAssignments[idx],
			FramePercent: 100.0 * float32(r.blockAssignments[idx]) / float32(r.options.FrameH),
		}

		if stat.BlockH != 0 {
			trStats := tr.Stats()
			stat.RenderTime = time.Duration(trStats.BlockTime)
			stat.Rays = trStats.Rays
			stat.BoundsTests = trStats.BoundsTests
			r.stats.Hits += trStats.Hits
		}

		r.stats.Rays += stat.Rays
		r.stats.BoundsTests += stat.BoundsTests
		r.stats.Tracers[idx] = stat
	}
}
