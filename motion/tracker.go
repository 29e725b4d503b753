package motion

import "fmt"

// NoMovementLabel is the status label while no motion is active.
const NoMovementLabel = "No Movement Detected"

// Status is the per-cycle output of the Tracker.
type Status struct {
	// Active is true while the persistence counter is positive.
	Active bool
	// Triggered is true when a qualifying region was seen this cycle.
	Triggered bool
	// Remaining is the persistence counter used for this cycle's label,
	// before the end-of-cycle decrement.
	Remaining int
	// Label is the text shown on the annotated frame.
	Label string
	// Qualifying holds the regions that exceeded the minimum size.
	Qualifying []Region
}

// Tracker debounces instantaneous detections into a stable "motion active"
// signal. A qualifying region saturates the counter to the full persistence
// window; every cycle then consumes one count.
type Tracker struct {
	minSize     float64
	persistence int
	counter     int
}

// NewTracker creates a tracker in the idle state.
//
// Arguments:
//   - minSize: Area a region must exceed to qualify.
//   - persistence: Number of cycles motion stays active after a qualifying region.
//
// Returns:
//   - *Tracker: An idle tracker.
func NewTracker(minSize float64, persistence int) *Tracker {
	return &Tracker{
		minSize:     minSize,
		persistence: persistence,
	}
}

// Update runs one cycle of the tracker against the regions extracted this cycle.
func (t *Tracker) Update(regions []Region) Status {
	status := Status{Qualifying: Qualifying(regions, t.minSize)}

	if len(status.Qualifying) > 0 {
		status.Triggered = true
		t.counter = t.persistence
	}

	if t.counter > 0 {
		status.Active = true
		status.Remaining = t.counter
		status.Label = MovementLabel(t.counter)
		t.counter--
	} else {
		status.Label = NoMovementLabel
	}

	return status
}

// Counter returns the persistence counter left after the last Update.
func (t *Tracker) Counter() int {
	return t.counter
}

// Reset returns the tracker to the idle state.
func (t *Tracker) Reset() {
	t.counter = 0
}

// MovementLabel formats the active status label for a counter value.
func MovementLabel(remaining int) string {
	return fmt.Sprintf("Movement Detected %d", remaining)
}
