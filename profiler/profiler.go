// Package profiler - Per-stage timing and event counters for the pipeline loop.
//
// The profiler is driven synchronously by the pipeline: stages are timed with
// StartOperation, events are counted with Count, and MaybeReport logs a summary
// once per report interval. It holds no goroutines and no locks.
package profiler

import (
	"log/slog"
	"runtime"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TimeTracker keeps a bounded window of durations for one operation.
type TimeTracker struct {
	name    string
	samples []float64 // milliseconds
	count   int64
	min     time.Duration
	max     time.Duration
}

// Summary is a snapshot of a TimeTracker.
type Summary struct {
	Name   string
	Count  int64
	Mean   time.Duration
	StdDev time.Duration
	P95    time.Duration
	Min    time.Duration
	Max    time.Duration
}

// Options configures a Profiler.
type Options struct {
	// ReportInterval specifies how often MaybeReport emits a report (default: 10s).
	ReportInterval time.Duration
	// MaxSamples specifies how many durations are kept per operation (default: 600).
	MaxSamples int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Profiler aggregates stage timings and counters for the pipeline loop.
type Profiler struct {
	reportInterval time.Duration
	maxSamples     int
	now            func() time.Time

	startTime  time.Time
	lastReport time.Time

	operations map[string]*TimeTracker
	counters   map[string]int64
}

// New creates a profiler with the given options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured Profiler instance
func New(opts Options) *Profiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 10 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	start := opts.Now()
	return &Profiler{
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		now:            opts.Now,
		startTime:      start,
		lastReport:     start,
		operations:     make(map[string]*TimeTracker),
		counters:       make(map[string]int64),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	start := p.now()
	return func() {
		p.Record(name, p.now().Sub(start))
	}
}

// Record adds one duration sample for an operation.
func (p *Profiler) Record(name string, d time.Duration) {
	tracker, exists := p.operations[name]
	if !exists {
		tracker = &TimeTracker{
			name:    name,
			samples: make([]float64, 0, p.maxSamples),
			min:     d,
			max:     d,
		}
		p.operations[name] = tracker
	}

	tracker.samples = append(tracker.samples, float64(d)/float64(time.Millisecond))
	if len(tracker.samples) > p.maxSamples {
		tracker.samples = tracker.samples[1:]
	}
	tracker.count++
	if d < tracker.min {
		tracker.min = d
	}
	if d > tracker.max {
		tracker.max = d
	}
}

// Count increments an event counter.
func (p *Profiler) Count(name string) {
	p.counters[name]++
}

// Counter returns the value of an event counter.
func (p *Profiler) Counter(name string) int64 {
	return p.counters[name]
}

// Summary returns the statistics of one operation over its sample window.
func (p *Profiler) Summary(name string) (Summary, bool) {
	tracker, ok := p.operations[name]
	if !ok || len(tracker.samples) == 0 {
		return Summary{}, false
	}

	sorted := append([]float64(nil), tracker.samples...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	return Summary{
		Name:   name,
		Count:  tracker.count,
		Mean:   millis(mean),
		StdDev: millis(std),
		P95:    millis(stat.Quantile(0.95, stat.Empirical, sorted, nil)),
		Min:    tracker.min,
		Max:    tracker.max,
	}, true
}

// Summaries returns every operation summary ordered by name.
func (p *Profiler) Summaries() []Summary {
	names := make([]string, 0, len(p.operations))
	for name := range p.operations {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Summary, 0, len(names))
	for _, name := range names {
		if s, ok := p.Summary(name); ok {
			out = append(out, s)
		}
	}
	return out
}

// MaybeReport logs a report if the report interval has elapsed since the last one.
// It returns true when a report was emitted.
func (p *Profiler) MaybeReport(logger *slog.Logger) bool {
	now := p.now()
	if now.Sub(p.lastReport) < p.reportInterval {
		return false
	}
	p.lastReport = now
	p.Report(logger)
	return true
}

// Report logs the counters, stage timings and memory usage.
func (p *Profiler) Report(logger *slog.Logger) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	counters := make([]any, 0, len(p.counters))
	names := make([]string, 0, len(p.counters))
	for name := range p.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		counters = append(counters, slog.Int64(name, p.counters[name]))
	}

	logger.Info("pipeline status",
		slog.Duration("uptime", p.now().Sub(p.startTime).Truncate(time.Millisecond)),
		slog.Group("counters", counters...),
		slog.Uint64("heap_alloc", mem.HeapAlloc),
		slog.Int64("cgo_calls", runtime.NumCgoCall()),
	)

	for _, s := range p.Summaries() {
		logger.Info("stage timing",
			slog.String("stage", s.Name),
			slog.Int64("count", s.Count),
			slog.Duration("mean", s.Mean.Truncate(time.Microsecond)),
			slog.Duration("stddev", s.StdDev.Truncate(time.Microsecond)),
			slog.Duration("p95", s.P95.Truncate(time.Microsecond)),
			slog.Duration("min", s.Min.Truncate(time.Microsecond)),
			slog.Duration("max", s.Max.Truncate(time.Microsecond)),
		)
	}
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
