// Package images - Frame preprocessing for the motion detector.
package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// DefaultDisplayWidth is the width frames are resized to before processing.
	DefaultDisplayWidth = 750
	// BlurKernelSize is the side of the square Gaussian kernel used to suppress sensor noise.
	BlurKernelSize = 21
)

var (
	// ErrEmptyFrame is returned when a frame with no pixels is passed to the pipeline.
	ErrEmptyFrame = errors.New("empty frame")
	// ErrUnsupportedChannels is returned for frames that are neither gray nor BGR.
	ErrUnsupportedChannels = errors.New("unsupported channel count")
)

// Prepared is the output of Preprocessor.Process.
type Prepared struct {
	// Color is the resized frame, still in its capture color space. It is owned by
	// the Preprocessor and is overwritten by the next call to Process.
	Color gocv.Mat
	// Gray is the blurred grayscale comparison frame. It is newly allocated on
	// every call and owned by the caller.
	Gray gocv.Mat
}

// Preprocessor normalizes raw capture frames into denoised grayscale frames of
// a fixed width.
//
// The resize keeps the aspect ratio. The Preprocessor reuses its color buffer
// across frames; always call Close() when done to release native resources.
type Preprocessor struct {
	width   int
	resized gocv.Mat
	gray    gocv.Mat
}

// NewPreprocessor creates a Preprocessor producing frames of the given width.
//
// Arguments:
//   - width: Output width in pixels. Zero or less selects DefaultDisplayWidth.
//
// Returns:
//   - *Preprocessor: A ready to use preprocessor.
//
// @example
// pre := images.NewPreprocessor(750)
// defer pre.Close()
// prepared, err := pre.Process(frame)
func NewPreprocessor(width int) *Preprocessor {
	if width <= 0 {
		width = DefaultDisplayWidth
	}
	return &Preprocessor{
		width:   width,
		resized: gocv.NewMat(),
		gray:    gocv.NewMat(),
	}
}

// Width returns the output width.
func (p *Preprocessor) Width() int {
	return p.width
}

// Process resizes, converts and blurs a raw frame.
//
// Arguments:
//   - raw: A BGR or grayscale capture frame.
//
// Returns:
//   - Prepared: The resized color frame and a new blurred grayscale frame.
//   - error: ErrEmptyFrame or ErrUnsupportedChannels.
func (p *Preprocessor) Process(raw gocv.Mat) (Prepared, error) {
	if raw.Empty() {
		return Prepared{}, ErrEmptyFrame
	}

	if channels := raw.Channels(); channels != 1 && channels != 3 {
		return Prepared{}, errors.Wrapf(ErrUnsupportedChannels, "%d channels", channels)
	}

	size := ScaledSize(raw.Cols(), raw.Rows(), p.width)
	if size.X == raw.Cols() && size.Y == raw.Rows() {
		raw.CopyTo(&p.resized)
	} else {
		gocv.Resize(raw, &p.resized, size, 0, 0, gocv.InterpolationArea)
	}

	if p.resized.Channels() == 1 {
		p.resized.CopyTo(&p.gray)
	} else {
		gocv.CvtColor(p.resized, &p.gray, gocv.ColorBGRToGray)
	}

	// Blur with a wide kernel so sensor noise does not survive the threshold.
	blurred := gocv.NewMat()
	gocv.GaussianBlur(p.gray, &blurred, image.Pt(BlurKernelSize, BlurKernelSize), 0, 0, gocv.BorderDefault)
	if blurred.Empty() {
		blurred.Close()
		return Prepared{}, errors.Wrap(ErrEmptyFrame, "blur produced no output")
	}

	return Prepared{Color: p.resized, Gray: blurred}, nil
}

// Close releases the native buffers held by the Preprocessor.
func (p *Preprocessor) Close() {
	p.resized.Close()
	p.gray.Close()
}

// ScaledSize returns the size of a width x height frame resized to targetWidth
// with its aspect ratio preserved.
func ScaledSize(width, height, targetWidth int) image.Point {
	if width <= 0 || height <= 0 || targetWidth <= 0 {
		return image.Pt(width, height)
	}
	ratio := float64(targetWidth) / float64(width)
	h := int(float64(height) * ratio)
	if h < 1 {
		h = 1
	}
	return image.Pt(targetWidth, h)
}
