package pipeline

import (
	"gocv.io/x/gocv"
)

// Renderer displays the composite view of a cycle and polls for a quit request.
type Renderer interface {
	// Render shows view and reports whether the user asked to stop.
	// view is only valid for the duration of the call.
	Render(view gocv.Mat) (quit bool)
}

// WindowRenderer shows the composite view in an OpenCV window and stops on a key press.
// The window is created on the first Render, so nothing is shown if the
// pipeline fails to start.
type WindowRenderer struct {
	title   string
	window  *gocv.Window
	quitKey rune
	delay   int
}

// NewWindowRenderer opens a display window.
//
// Arguments:
//   - title: The window title.
//   - quitKey: The key that stops the pipeline.
//
// Returns:
//   - *WindowRenderer: The renderer; call Close() to destroy the window, if any.
//
// @example
// r := pipeline.NewWindowRenderer("frame", 'q')
// defer r.Close()
func NewWindowRenderer(title string, quitKey rune) *WindowRenderer {
	return &WindowRenderer{
		title:   title,
		quitKey: quitKey,
		delay:   1,
	}
}

// Render shows view and waits one millisecond for a key press.
func (r *WindowRenderer) Render(view gocv.Mat) bool {
	if r.window == nil {
		r.window = gocv.NewWindow(r.title)
	}
	r.window.IMShow(view)
	key := r.window.WaitKey(r.delay)
	return key >= 0 && rune(key&0xFF) == r.quitKey
}

// Close destroys the window.
func (r *WindowRenderer) Close() error {
	if r.window == nil {
		return nil
	}
	err := r.window.Close()
	r.window = nil
	return err
}

// NopRenderer discards every view. It is used for headless runs, where the
// pipeline stops on context cancellation or at the end of a finite source.
type NopRenderer struct{}

// Render implements Renderer.
func (NopRenderer) Render(gocv.Mat) bool { return false }
