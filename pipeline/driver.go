// Package pipeline - Frame pipeline driver for the motion detector.
//
// The Driver owns all mutable detector state and runs one cycle per captured
// frame: preprocess, schedule the reference frame, extract regions, update the
// persistence tracker, annotate and render. Cycles never overlap.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-motion/capture"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/motion"
	"github.com/nvr-ai/go-motion/profiler"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Stage names recorded in the profiler.
const (
	StagePreprocess = "preprocess"
	StageExtract    = "extract"
	StageAnnotate   = "annotate"
	StageRender     = "render"
	StageCycle      = "cycle"
)

// Counter names recorded in the profiler.
const (
	CounterCycles             = "cycles"
	CounterCaptureUnavailable = "capture_unavailable"
	CounterMotionEvents       = "motion_events"
)

// Options configures a Driver.
type Options struct {
	// Parameters are the detector tunables.
	Parameters motion.Parameters
	// DisplayWidth is the width frames are resized to.
	DisplayWidth int
	// Logger receives pipeline logs. Defaults to slog.Default().
	Logger *slog.Logger
	// Profiler collects stage timings. A profiler with default options is used if nil.
	Profiler *profiler.Profiler
}

// Result is the outcome of one cycle.
type Result struct {
	// Status is the tracker output for this cycle.
	Status motion.Status
	// Regions are all regions extracted this cycle, qualifying or not.
	Regions []motion.Region
	// Bootstrapped is true on the cycle that set the first reference frame.
	Bootstrapped bool
	// View is the composite [difference | annotated frame] image. It is owned by
	// the Driver and valid until the next cycle.
	View gocv.Mat
}

// Driver runs the motion detection pipeline. It is not safe for concurrent use.
type Driver struct {
	params   motion.Parameters
	logger   *slog.Logger
	profiler *profiler.Profiler

	preprocessor *images.Preprocessor
	extractor    *images.Extractor
	annotator    *images.Annotator
	scheduler    *motion.Scheduler[gocv.Mat]
	tracker      *motion.Tracker

	active bool
}

// NewDriver creates a Driver with idle detector state.
//
// Arguments:
//   - opts: Parameters, display width, logger and profiler.
//
// Returns:
//   - *Driver: The driver; call Close() to release native resources.
//   - error: motion.ErrInvalidParameters if the parameters are out of range.
//
// @example
// d, err := pipeline.NewDriver(pipeline.Options{Parameters: motion.DefaultParameters()})
// if err != nil {
//     return err
// }
// defer d.Close()
// err = d.Run(ctx, func() (capture.Source, error) { return capture.OpenDevice(0) }, renderer)
func NewDriver(opts Options) (*Driver, error) {
	if err := opts.Parameters.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Profiler == nil {
		opts.Profiler = profiler.New(profiler.Options{})
	}

	return &Driver{
		params:       opts.Parameters,
		logger:       opts.Logger.With(slog.String("session", uuid.NewString())),
		profiler:     opts.Profiler,
		preprocessor: images.NewPreprocessor(opts.DisplayWidth),
		extractor:    images.NewExtractor(),
		annotator:    images.NewAnnotator(),
		scheduler: motion.NewScheduler(opts.Parameters.FramesToPersist, func(m gocv.Mat) gocv.Mat {
			return m.Clone()
		}),
		tracker: motion.NewTracker(opts.Parameters.MinSizeForMovement, opts.Parameters.MovementDetectedPersistence),
	}, nil
}

// Run opens the source and processes frames until ctx is cancelled, the
// renderer asks to quit, or a finite source is exhausted.
//
// The source is opened once and closed once. Failing to open it is fatal and
// no cycle runs. Frames that cannot be captured are logged and skipped without
// limit or backoff.
//
// Arguments:
//   - ctx: Cancels the loop between cycles.
//   - open: Acquires the capture source.
//   - renderer: Displays each cycle's view and polls for quit.
//
// Returns:
//   - error: capture.ErrDeviceOpen, images.ErrDimensionMismatch or nil on a normal stop.
func (d *Driver) Run(ctx context.Context, open capture.Opener, renderer Renderer) (err error) {
	src, err := open()
	if err != nil {
		if !errors.Is(err, capture.ErrDeviceOpen) {
			err = fmt.Errorf("%w: %w", capture.ErrDeviceOpen, err)
		}
		return err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "close capture source")
		}
	}()

	frame := gocv.NewMat()
	defer frame.Close()

	d.logger.Info("pipeline started",
		slog.Int("frames_to_persist", d.params.FramesToPersist),
		slog.Float64("min_size_for_movement", d.params.MinSizeForMovement),
		slog.Int("movement_detected_persistence", d.params.MovementDetectedPersistence),
		slog.Int("width", d.preprocessor.Width()),
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("pipeline stopped", slog.String("reason", "cancelled"))
			return nil
		default:
		}

		switch status := src.Read(&frame); status {
		case capture.StatusExhausted:
			d.logger.Info("pipeline stopped", slog.String("reason", "source exhausted"))
			return nil
		case capture.StatusUnavailable:
			d.profiler.Count(CounterCaptureUnavailable)
			d.logger.Warn("capture error, skipping cycle")
			continue
		}

		result, err := d.Cycle(frame)
		if err != nil {
			return err
		}

		done := d.profiler.StartOperation(StageRender)
		quit := renderer.Render(result.View)
		done()

		d.profiler.MaybeReport(d.logger)

		if quit {
			d.logger.Info("pipeline stopped", slog.String("reason", "quit key"))
			return nil
		}
	}
}

// Cycle runs one pass of the pipeline over a captured frame.
//
// Arguments:
//   - raw: The captured frame. It is not modified or retained.
//
// Returns:
//   - Result: The tracker status, the extracted regions and the composite view.
//   - error: images.ErrEmptyFrame or images.ErrDimensionMismatch.
func (d *Driver) Cycle(raw gocv.Mat) (Result, error) {
	defer d.profiler.StartOperation(StageCycle)()
	d.profiler.Count(CounterCycles)

	done := d.profiler.StartOperation(StagePreprocess)
	prepared, err := d.preprocessor.Process(raw)
	done()
	if err != nil {
		return Result{}, errors.Wrap(err, "preprocess")
	}

	// The scheduler owns prepared.Gray from here on.
	step := d.scheduler.Advance(prepared.Gray)
	defer func() {
		for i := range step.Evicted {
			step.Evicted[i].Close()
		}
	}()

	done = d.profiler.StartOperation(StageExtract)
	regions, err := d.extractor.Extract(step.Reference, prepared.Gray)
	done()
	if err != nil {
		return Result{}, errors.Wrap(err, "extract regions")
	}

	status := d.tracker.Update(regions)
	d.logTransition(status)

	done = d.profiler.StartOperation(StageAnnotate)
	annotated := d.annotator.Annotate(prepared.Color, status.Qualifying, status.Label)
	view := d.annotator.Compose(d.extractor.Delta, annotated)
	done()

	return Result{
		Status:       status,
		Regions:      regions,
		Bootstrapped: step.Bootstrapped,
		View:         view,
	}, nil
}

func (d *Driver) logTransition(status motion.Status) {
	switch {
	case status.Active && !d.active:
		d.profiler.Count(CounterMotionEvents)
		d.logger.Info("motion started", slog.Int("regions", len(status.Qualifying)))
	case !status.Active && d.active:
		d.logger.Info("motion ended")
	}
	if status.Triggered {
		d.logger.Debug("qualifying regions", slog.Any("regions", status.Qualifying))
	}
	d.active = status.Active
}

// Profiler returns the profiler the driver records into.
func (d *Driver) Profiler() *profiler.Profiler {
	return d.profiler
}

// Close releases the reference frames and all native buffers.
func (d *Driver) Close() {
	for _, m := range d.scheduler.Drain() {
		m.Close()
	}
	d.preprocessor.Close()
	d.extractor.Close()
	d.annotator.Close()
}
