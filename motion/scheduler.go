package motion

// Step is the outcome of one Scheduler.Advance call.
type Step[F any] struct {
	// Reference is the frame to difference the current frame against this cycle.
	Reference F
	// Bootstrapped is true on the cycle that initialized the reference frame.
	Bootstrapped bool
	// Promoted is true when the pending frame became the reference for later cycles.
	Promoted bool
	// Evicted holds frames the scheduler released this cycle. Reference may be
	// among them, so callers must only release them after differencing.
	Evicted []F
}

// Scheduler implements the delayed reference frame update policy.
//
// The reference frame is replaced every FramesToPersist+1 cycles by the frame
// that was pending at that point, never by the current frame. The lag lets slow
// motion accumulate enough change to be detected.
//
// Scheduler is not safe for concurrent use. It is owned by a single pipeline driver.
type Scheduler[F any] struct {
	framesToPersist int
	clone           func(F) F

	reference    F
	hasReference bool
	pending      F
	hasPending   bool
	delay        int
}

// NewScheduler creates a scheduler for the given lag.
//
// Arguments:
//   - framesToPersist: Number of cycles between reference updates.
//   - clone: Copies a frame when the same frame must be held in two slots. Nil
//     means frames are plain values and are shared.
//
// Returns:
//   - *Scheduler[F]: A scheduler with no reference frame.
//
// @example
// s := motion.NewScheduler(10, func(m gocv.Mat) gocv.Mat { return m.Clone() })
// step := s.Advance(gray)
func NewScheduler[F any](framesToPersist int, clone func(F) F) *Scheduler[F] {
	if clone == nil {
		clone = func(f F) F { return f }
	}
	return &Scheduler[F]{
		framesToPersist: framesToPersist,
		clone:           clone,
	}
}

// Advance feeds the current frame through one cycle of the update policy and
// returns the reference frame to difference it against.
//
// The scheduler takes ownership of current; it is kept as the pending frame
// until the next cycle.
func (s *Scheduler[F]) Advance(current F) Step[F] {
	var step Step[F]

	if !s.hasReference {
		s.reference = s.clone(current)
		s.hasReference = true
		step.Bootstrapped = true
	}
	step.Reference = s.reference

	s.delay++
	if s.delay > s.framesToPersist {
		s.delay = 0
		// Pending is unset only if the lag is reached on the bootstrap cycle.
		if s.hasPending {
			step.Evicted = append(step.Evicted, s.reference)
			s.reference = s.pending
			s.hasPending = false
			step.Promoted = true
		}
	}

	if s.hasPending {
		step.Evicted = append(step.Evicted, s.pending)
	}
	s.pending = current
	s.hasPending = true

	return step
}

// Delay returns the number of cycles since the reference was last updated.
func (s *Scheduler[F]) Delay() int {
	return s.delay
}

// Reference returns the frame the next cycle will be differenced against.
func (s *Scheduler[F]) Reference() (F, bool) {
	return s.reference, s.hasReference
}

// Drain empties the scheduler and returns every frame it still held so the
// caller can release them. The scheduler bootstraps again on the next Advance.
func (s *Scheduler[F]) Drain() []F {
	var held []F
	if s.hasReference {
		held = append(held, s.reference)
	}
	if s.hasPending {
		held = append(held, s.pending)
	}

	var zero F
	s.reference, s.pending = zero, zero
	s.hasReference, s.hasPending = false, false
	s.delay = 0
	return held
}
