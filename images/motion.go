// Package images - This file contains the difference and region extraction
// stage of the motion detector, using OpenCV (via gocv).
//
// The Extractor encapsulates a delayed frame-difference pipeline:
//  1. Absolute difference between the reference frame and the current frame.
//  2. Thresholding to create a binary mask of changed pixels.
//  3. Morphological dilation to merge nearby fragments into blobs.
//  4. External contour extraction, one region per blob.
//
// Pipeline Overview:
//
// ┌──────────────────────────────┐
// │ Reference + Current (gray)   │
// └──────┬───────────────────────┘
// ┌────────────────────────────┐
// │ Absolute Difference        │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Thresholding (binary mask) │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Morphology (dilate x2)     │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Contour Detection          │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Regions (box + area)       │
// └────────────────────────────┘
//
// Usage:
//
//	ext := images.NewExtractor()
//	defer ext.Close()
//
//	regions, err := ext.Extract(reference, current)
//	if err != nil {
//	    return err
//	}
//
// Note: You must call Close() when finished to release native resources.
package images

import (
	"image"

	"github.com/nvr-ai/go-motion/motion"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// DifferenceThreshold is the per-pixel change above which a pixel counts as changed.
	DifferenceThreshold = 25
	// DilateIterations is the number of 3x3 dilation passes applied to the mask.
	DilateIterations = 2
)

// ErrDimensionMismatch is returned when the reference and current frames differ in
// size or type. Both come from the same fixed-size pipeline, so this is a bug.
var ErrDimensionMismatch = errors.New("reference and current frame dimensions differ")

// Extractor computes difference images and extracts changed regions.
//
// This struct is stateful only in its buffers: Delta and Threshold are reused
// across frames and stay valid until the next call to Extract.
// Always call Close() when done to release native resources.
type Extractor struct {
	Delta     gocv.Mat // Absolute difference of the last pair of frames.
	Threshold gocv.Mat // Binary mask after thresholding and dilation.
	Kernel    gocv.Mat // 3x3 rectangular dilation kernel.
}

// NewExtractor constructs an Extractor with initialized OpenCV matrices.
//
// Always call Close() to release memory.
func NewExtractor() *Extractor {
	return &Extractor{
		Delta:     gocv.NewMat(),
		Threshold: gocv.NewMat(),
		Kernel:    gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// Difference computes the absolute per-pixel difference of two grayscale frames
// into Delta.
//
// Arguments:
//   - reference: The baseline frame.
//   - current: The frame to compare.
//
// Returns:
//   - error: ErrDimensionMismatch if the frames cannot be compared.
func (e *Extractor) Difference(reference, current gocv.Mat) error {
	if reference.Empty() || current.Empty() {
		return errors.Wrap(ErrDimensionMismatch, "empty frame")
	}
	if reference.Rows() != current.Rows() || reference.Cols() != current.Cols() || reference.Type() != current.Type() {
		return errors.Wrapf(ErrDimensionMismatch, "reference %dx%d type %v, current %dx%d type %v",
			reference.Cols(), reference.Rows(), reference.Type(),
			current.Cols(), current.Rows(), current.Type())
	}
	gocv.AbsDiff(reference, current, &e.Delta)
	return nil
}

// ApplyThreshold converts Delta to a binary mask: pixels whose difference exceeds
// DifferenceThreshold become 255, all others 0.
func (e *Extractor) ApplyThreshold() {
	gocv.Threshold(e.Delta, &e.Threshold, DifferenceThreshold, 255, gocv.ThresholdBinary)
}

// FillGaps dilates the binary mask DilateIterations times to join fragments of
// the same moving object.
func (e *Extractor) FillGaps() error {
	for i := 0; i < DilateIterations; i++ {
		if err := gocv.Dilate(e.Threshold, &e.Threshold, e.Kernel); err != nil {
			return errors.Wrap(err, "dilate")
		}
	}
	return nil
}

// DetectRegions extracts the external contours of the mask and converts each to
// a Region. Contours are simplified with ChainApproxSimple; the area is the
// polygon area of the simplified contour.
func (e *Extractor) DetectRegions() []motion.Region {
	contours := gocv.FindContours(e.Threshold, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]motion.Region, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		regions = append(regions, motion.Region{
			Box:  gocv.BoundingRect(c),
			Area: gocv.ContourArea(c),
		})
	}
	return regions
}

// Extract runs the full difference pipeline:
//
//  1. Absolute difference
//  2. Thresholding
//  3. Morphological dilation
//  4. External contour detection
//
// Every region is returned, including those too small to count as motion;
// size gating is left to the motion.Tracker.
//
// Arguments:
//   - reference: The reference frame chosen by the scheduler.
//   - current: The preprocessed current frame.
//
// Returns:
//   - []motion.Region: All regions in contour order.
//   - error: ErrDimensionMismatch, or a dilation failure.
func (e *Extractor) Extract(reference, current gocv.Mat) ([]motion.Region, error) {
	if err := e.Difference(reference, current); err != nil {
		return nil, err
	}
	e.ApplyThreshold()
	if err := e.FillGaps(); err != nil {
		return nil, err
	}
	return e.DetectRegions(), nil
}

// Close releases all OpenCV native resources used by the extractor.
func (e *Extractor) Close() {
	e.Delta.Close()
	e.Threshold.Close()
	e.Kernel.Close()
}
