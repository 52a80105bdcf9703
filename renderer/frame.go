package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/achilleasa/aobvh/tracer"
)

// A rendered frame; one sample per pixel in row-major order.
type Frame struct {
	W, H    uint32
	Samples []tracer.Sample
}

func NewFrame(w, h uint32) *Frame {
	return &Frame{
		W:       w,
		H:       h,
		Samples: make([]tracer.Sample, w*h),
	}
}

// Get the sample for pixel (x, y).
func (f *Frame) At(x, y int) tracer.Sample {
	return f.Samples[y*int(f.W)+x]
}

// Convert the frame samples into an image.
//
// In Depth mode hit distances are normalized to the [nearest, farthest] range
// of the frame and mapped to grey levels; misses are black. In Heatmap mode
// the bounds test count of each ray is normalized to the frame maximum and
// mapped to a blue-green-red ramp.
func (f *Frame) Image(mode Mode) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(f.W), int(f.H)))

	switch mode {
	case Heatmap:
		var maxTests uint32
		for _, s := range f.Samples {
			if s.BoundsTests > maxTests {
				maxTests = s.BoundsTests
			}
		}
		for idx, s := range f.Samples {
			var t float32
			if maxTests != 0 {
				t = float32(s.BoundsTests) / float32(maxTests)
			}
			img.SetRGBA(idx%int(f.W), idx/int(f.W), heatColor(t))
		}
	default:
		minDist, maxDist := f.depthRange()
		for idx, s := range f.Samples {
			c := color.RGBA{A: 255}
			if s.Hit {
				intensity := float32(1.0)
				if maxDist > minDist {
					intensity = 1.0 - 0.8*(s.Distance-minDist)/(maxDist-minDist)
				}
				c.R = toByte(intensity)
				c.G, c.B = c.R, c.R
			}
			img.SetRGBA(idx%int(f.W), idx/int(f.W), c)
		}
	}

	return img
}

func (f *Frame) depthRange() (minDist, maxDist float32) {
	first := true
	for _, s := range f.Samples {
		if !s.Hit {
			continue
		}
		if first || s.Distance < minDist {
			minDist = s.Distance
		}
		if first || s.Distance > maxDist {
			maxDist = s.Distance
		}
		first = false
	}
	return minDist, maxDist
}

// Map t in [0, 1] to blue (cold) -> green -> red (hot).
func heatColor(t float32) color.RGBA {
	if t < 0.5 {
		k := t * 2
		return color.RGBA{R: 0, G: toByte(k), B: toByte(1 - k), A: 255}
	}
	k := (t - 0.5) * 2
	return color.RGBA{R: toByte(k), G: toByte(1 - k), B: 0, A: 255}
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Save the frame image to a file. The encoder is selected by the file
// extension (.png or .webp).
func SaveImage(frame *Frame, mode Mode, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".png" && ext != ".webp" {
		return fmt.Errorf("renderer: unsupported image format %q", ext)
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	img := frame.Image(mode)
	if ext == ".webp" {
		err = nativewebp.Encode(f, img, nil)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("renderer: could not encode %s: %w", filename, err)
	}
	return f.Close()
}
