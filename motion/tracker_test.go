package motion

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regionOfArea(area float64) Region {
	return Region{Box: image.Rect(100, 100, 150, 150), Area: area}
}

func TestTrackerScenario(t *testing.T) {
	tracker := NewTracker(DefaultMinSizeForMovement, DefaultMovementDetectedPersistence)

	var labels []string
	for cycle := 0; cycle <= 15; cycle++ {
		var regions []Region
		if cycle == 10 {
			regions = []Region{regionOfArea(5000)}
		}
		status := tracker.Update(regions)
		labels = append(labels, status.Label)
		if cycle == 10 {
			require.True(t, status.Triggered)
			require.Len(t, status.Qualifying, 1)
			assert.Equal(t, image.Rect(100, 100, 150, 150), status.Qualifying[0].Box)
		}
	}

	for cycle := 0; cycle < 10; cycle++ {
		assert.Equal(t, NoMovementLabel, labels[cycle], "cycle %d", cycle)
	}
	for cycle := 10; cycle <= 15; cycle++ {
		assert.Equal(t, fmt.Sprintf("Movement Detected %d", 100-(cycle-10)), labels[cycle], "cycle %d", cycle)
	}
	assert.Equal(t, 94, tracker.Counter())
}

func TestTrackerAreaGating(t *testing.T) {
	tests := []struct {
		name   string
		area   float64
		active bool
	}{
		{name: "below", area: 1999, active: false},
		{name: "exactly minimum", area: 2000, active: false},
		{name: "one above", area: 2001, active: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(2000, 100)
			for cycle := 0; cycle < 5; cycle++ {
				tracker.Update(nil)
			}
			status := tracker.Update([]Region{regionOfArea(tt.area)})
			assert.Equal(t, tt.active, status.Active)
			assert.Equal(t, tt.active, status.Triggered)
		})
	}
}

func TestTrackerSaturation(t *testing.T) {
	tracker := NewTracker(2000, 100)

	tracker.Update([]Region{regionOfArea(3000)})
	for i := 0; i < 40; i++ {
		tracker.Update(nil)
	}
	require.Equal(t, 59, tracker.Counter())

	status := tracker.Update([]Region{regionOfArea(10), regionOfArea(2500), regionOfArea(90000)})
	assert.Equal(t, 100, status.Remaining, "multiple qualifying regions reset, never add")
	assert.Len(t, status.Qualifying, 2)
	assert.Equal(t, 99, tracker.Counter())
}

func TestTrackerMonotonicDecay(t *testing.T) {
	tracker := NewTracker(2000, 5)
	tracker.Update([]Region{regionOfArea(2001)})

	prev := tracker.Counter()
	for i := 0; i < 10; i++ {
		status := tracker.Update([]Region{regionOfArea(100)})
		assert.False(t, status.Triggered)
		want := prev - 1
		if want < 0 {
			want = 0
		}
		assert.Equal(t, want, tracker.Counter())
		assert.Equal(t, prev > 0, status.Active)
		if prev > 0 {
			assert.Equal(t, MovementLabel(prev), status.Label)
		} else {
			assert.Equal(t, NoMovementLabel, status.Label)
		}
		prev = tracker.Counter()
	}
}

func TestTrackerZeroPersistence(t *testing.T) {
	tracker := NewTracker(2000, 0)

	status := tracker.Update([]Region{regionOfArea(5000)})
	assert.True(t, status.Triggered)
	assert.False(t, status.Active)
	assert.Equal(t, NoMovementLabel, status.Label)
}

func TestTrackerReset(t *testing.T) {
	tracker := NewTracker(2000, 100)
	tracker.Update([]Region{regionOfArea(5000)})
	tracker.Reset()

	assert.Equal(t, NoMovementLabel, tracker.Update(nil).Label)
}

func TestParametersValidate(t *testing.T) {
	require.NoError(t, DefaultParameters().Validate())

	p := DefaultParameters()
	p.FramesToPersist = -1
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = DefaultParameters()
	p.MinSizeForMovement = -5
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = DefaultParameters()
	p.MovementDetectedPersistence = -1
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
}
