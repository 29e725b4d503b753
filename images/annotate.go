// Package images - Overlay drawing and side-by-side composition of the live view.
package images

import (
	"image"
	"image/color"

	"github.com/nvr-ai/go-motion/motion"
	"gocv.io/x/gocv"
)

var (
	// RegionColor is the color of the boxes drawn around qualifying regions.
	RegionColor = color.RGBA{0, 255, 0, 0}
	// LabelColor is the color of the status label.
	LabelColor = color.RGBA{255, 255, 255, 0}
	// LabelOrigin is the bottom-left corner of the status label.
	LabelOrigin = image.Pt(10, 35)
)

const (
	regionThickness = 2
	labelScale      = 0.75
	labelThickness  = 2
)

// Annotator draws detection results onto frames and builds the composite view
// handed to the renderer. Its buffers are reused across cycles; Close() releases them.
type Annotator struct {
	annotated gocv.Mat
	delta     gocv.Mat
	composite gocv.Mat
}

// NewAnnotator creates an Annotator with empty buffers.
func NewAnnotator() *Annotator {
	return &Annotator{
		annotated: gocv.NewMat(),
		delta:     gocv.NewMat(),
		composite: gocv.NewMat(),
	}
}

// Annotate copies frame, draws a box around every region and overlays label.
// The result is always BGR and stays valid until the next call.
func (a *Annotator) Annotate(frame gocv.Mat, regions []motion.Region, label string) gocv.Mat {
	toBGR(frame, &a.annotated)
	for _, r := range regions {
		gocv.Rectangle(&a.annotated, r.Box, RegionColor, regionThickness)
	}
	gocv.PutTextWithParams(&a.annotated, label, LabelOrigin, gocv.FontHersheySimplex,
		labelScale, LabelColor, labelThickness, gocv.LineAA, false)
	return a.annotated
}

// Compose places the difference image to the left of the annotated frame.
//
// Arguments:
//   - delta: Grayscale difference image.
//   - annotated: BGR annotated frame of the same height.
//
// Returns:
//   - gocv.Mat: The composite, valid until the next call.
func (a *Annotator) Compose(delta, annotated gocv.Mat) gocv.Mat {
	toBGR(delta, &a.delta)
	gocv.Hconcat(a.delta, annotated, &a.composite)
	return a.composite
}

// Close releases the Annotator's buffers.
func (a *Annotator) Close() {
	a.annotated.Close()
	a.delta.Close()
	a.composite.Close()
}

func toBGR(src gocv.Mat, dst *gocv.Mat) {
	if src.Channels() == 1 {
		gocv.CvtColor(src, dst, gocv.ColorGrayToBGR)
		return
	}
	src.CopyTo(dst)
}
