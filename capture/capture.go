// Package capture - Frame sources for the motion detector pipeline.
//
// A Source yields raw frames one at a time. Reading reports a Status rather than
// an error: a camera that has no frame ready is a normal, retryable condition.
package capture

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Status is the outcome of a single Source.Read call.
type Status int

const (
	// StatusCaptured means a frame was written to the destination Mat.
	StatusCaptured Status = iota
	// StatusUnavailable means no frame was available this time. Callers may retry.
	StatusUnavailable
	// StatusExhausted means a finite source has no more frames.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusCaptured:
		return "captured"
	case StatusUnavailable:
		return "unavailable"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ErrDeviceOpen is returned when a source cannot be opened. It is fatal to the pipeline.
var ErrDeviceOpen = errors.New("cannot open capture source")

// Source is a stream of raw frames.
type Source interface {
	// Read captures the next frame into dst.
	Read(dst *gocv.Mat) Status
	// Close releases the underlying device or file.
	Close() error
}

// Opener acquires a Source. The pipeline calls it exactly once at startup.
type Opener func() (Source, error)

// videoSource adapts a gocv.VideoCapture to Source.
type videoSource struct {
	capture *gocv.VideoCapture
	finite  bool
}

// OpenDevice opens a camera by index.
//
// Arguments:
//   - id: The capture device index, 0 for the default camera.
//
// Returns:
//   - Source: A live source; failed reads report StatusUnavailable.
//   - error: ErrDeviceOpen when the device cannot be opened.
//
// @example
// src, err := capture.OpenDevice(0)
// if err != nil {
//     log.Fatal(err)
// }
// defer src.Close()
func OpenDevice(id int) (Source, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, errors.Wrapf(ErrDeviceOpen, "device %d: %v", id, err)
	}
	return &videoSource{capture: vc}, nil
}

// OpenVideo opens a video file. Reads past the last frame report StatusExhausted.
func OpenVideo(path string) (Source, error) {
	vc, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, errors.Wrapf(ErrDeviceOpen, "video %s: %v", path, err)
	}
	return &videoSource{capture: vc, finite: true}, nil
}

func (s *videoSource) Read(dst *gocv.Mat) Status {
	if ok := s.capture.Read(dst); ok && !dst.Empty() {
		return StatusCaptured
	}
	if s.finite {
		return StatusExhausted
	}
	return StatusUnavailable
}

func (s *videoSource) Close() error {
	return s.capture.Close()
}
