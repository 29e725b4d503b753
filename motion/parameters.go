// Package motion - Delayed frame-difference motion detection state machine.
//
// The package holds the parts of the detector that do not touch pixels: the
// reference frame scheduler, the persistence tracker and the region type they
// exchange. Image operations live in the images package.
package motion

import (
	"github.com/pkg/errors"
)

const (
	// DefaultFramesToPersist is the number of cycles between reference frame updates.
	DefaultFramesToPersist = 10
	// DefaultMinSizeForMovement is the minimum region area, in pixels, counted as motion.
	DefaultMinSizeForMovement = 2000
	// DefaultMovementDetectedPersistence is the number of cycles motion stays active
	// after the last qualifying region.
	DefaultMovementDetectedPersistence = 100
)

// ErrInvalidParameters is returned by Parameters.Validate.
var ErrInvalidParameters = errors.New("invalid motion parameters")

// Parameters are the process-wide tunables of the detector. They are fixed for a run.
type Parameters struct {
	// FramesToPersist is the reference update lag in cycles.
	FramesToPersist int `json:"frames_to_persist" yaml:"frames_to_persist"`
	// MinSizeForMovement is the area a region must exceed to qualify as motion.
	MinSizeForMovement float64 `json:"min_size_for_movement" yaml:"min_size_for_movement"`
	// MovementDetectedPersistence is the length of the decay window in cycles.
	MovementDetectedPersistence int `json:"movement_detected_persistence" yaml:"movement_detected_persistence"`
}

// DefaultParameters returns the parameters used when nothing is configured.
//
// Returns:
//   - Parameters: FramesToPersist=10, MinSizeForMovement=2000, MovementDetectedPersistence=100.
//
// @example
// params := motion.DefaultParameters()
// params.MinSizeForMovement = 500
func DefaultParameters() Parameters {
	return Parameters{
		FramesToPersist:             DefaultFramesToPersist,
		MinSizeForMovement:          DefaultMinSizeForMovement,
		MovementDetectedPersistence: DefaultMovementDetectedPersistence,
	}
}

// Validate reports whether every parameter is within range.
func (p Parameters) Validate() error {
	switch {
	case p.FramesToPersist < 0:
		return errors.Wrapf(ErrInvalidParameters, "frames to persist must be >= 0, got %d", p.FramesToPersist)
	case p.MinSizeForMovement < 0:
		return errors.Wrapf(ErrInvalidParameters, "min size for movement must be >= 0, got %.0f", p.MinSizeForMovement)
	case p.MovementDetectedPersistence < 0:
		return errors.Wrapf(ErrInvalidParameters, "movement detected persistence must be >= 0, got %d", p.MovementDetectedPersistence)
	}
	return nil
}
