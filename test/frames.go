// Package test - Deterministic synthetic frames for exercising the detector
// without a camera.
package test

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Background is the intensity of the static scene.
const Background = 128

// FrameGenerator creates deterministic test frames with controlled motion.
//
// @example
// gen := test.NewFrameGenerator(640, 480)
// frame := gen.Static()
// defer frame.Close()
type FrameGenerator struct {
	width  int
	height int
	gray   bool
}

// NewFrameGenerator creates a generator of BGR frames with the given dimensions.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
//
// Returns:
// - A configured FrameGenerator instance.
func NewFrameGenerator(width, height int) *FrameGenerator {
	return &FrameGenerator{
		width:  width,
		height: height,
	}
}

// Grayscale switches the generator to single channel frames.
func (g *FrameGenerator) Grayscale() *FrameGenerator {
	g.gray = true
	return g
}

// Static creates a uniform mid-gray frame.
func (g *FrameGenerator) Static() gocv.Mat {
	mt := gocv.MatTypeCV8UC3
	if g.gray {
		mt = gocv.MatTypeCV8UC1
	}
	frame := gocv.NewMatWithSize(g.height, g.width, mt)
	frame.SetTo(gocv.NewScalar(Background, Background, Background, 0))
	return frame
}

// WithBlob creates a static frame with a filled white rectangle covering rect.
//
// Arguments:
// - rect: The area that changes relative to Static().
//
// Returns:
// - A frame the caller must Close.
func (g *FrameGenerator) WithBlob(rect image.Rectangle) gocv.Mat {
	frame := g.Static()
	gocv.Rectangle(&frame, rect, color.RGBA{255, 255, 255, 0}, -1)
	return frame
}

// WithNoise creates a static frame with faint speckles. Amplitudes must stay
// below 128 so the speckles do not overflow.
func (g *FrameGenerator) WithNoise(amplitude uint8) gocv.Mat {
	frame := g.Static()
	for y := 0; y < g.height; y += 7 {
		for x := 0; x < g.width; x += 5 {
			rect := image.Rect(x, y, x+1, y+1)
			v := uint8(Background + int(amplitude))
			gocv.Rectangle(&frame, rect, color.RGBA{v, v, v, 0}, -1)
		}
	}
	return frame
}

// Width returns the generated frame width.
func (g *FrameGenerator) Width() int {
	return g.width
}

// Height returns the generated frame height.
func (g *FrameGenerator) Height() int {
	return g.height
}
