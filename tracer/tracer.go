package tracer

import (
	"context"

	"github.com/achilleasa/aobvh/asset/scene"
)

type ChangeType uint8

const (
	SetScene ChangeType = iota
	UpdateCamera
)

// The result of tracing the primary ray through a single pixel.
type Sample struct {
	// Hit distance; only valid if Hit is true.
	Distance float32

	// Hit mesh and triangle indices; -1 on a miss.
	Mesh     int32
	Triangle int32

	// Number of bounds tests performed while tracing the ray.
	BoundsTests uint32

	Hit bool
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// The frame sample buffer (FrameW * FrameH entries in row-major order).
	// Tracers only write the rows of their assigned block.
	Samples []Sample
}

// Tracer statistics.
type Stats struct {
	// The traced block height
	BlockH uint32

	// The time for tracing this block (in nanoseconds)
	BlockTime int64

	// Traced rays, hits and bounds tests for the last block.
	Rays        uint64
	Hits        uint64
	BoundsTests uint64
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown and cleanup tracer.
	Close()

	// Get the tracers computation speed estimate compared to a
	// baseline implementation.
	SpeedEstimate() float32

	// Trace a block of rows. Trace blocks until the block is complete or
	// the context is cancelled.
	Trace(ctx context.Context, req BlockRequest) error

	// Append a change to the tracer's update buffer.
	AppendChange(ChangeType, interface{})

	// Apply all pending changes from the update buffer.
	ApplyPendingChanges() error

	// Retrieve last block statistics.
	Stats() *Stats
}

// Verify that a change payload matches the change type.
func validateChange(changeType ChangeType, data interface{}) error {
	switch changeType {
	case SetScene:
		if sc, ok := data.(*scene.Scene); !ok || sc == nil {
			return ErrInvalidChange
		}
	case UpdateCamera:
		if cam, ok := data.(*scene.Camera); !ok || cam == nil {
			return ErrInvalidChange
		}
	default:
		return ErrInvalidChange
	}
	return nil
}
