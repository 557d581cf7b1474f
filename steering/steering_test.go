package steering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	c := New(50)
	center := 320

	t.Run("Test inside dead zone", func(t *testing.T) {
		// Noise around center must never produce a turn command.
		for _, offset := range []int{-5, +5, -5, 0, 50, -50} {
			assert.Equal(t, TrackCenter, c.Decide(center+offset, center),
				"offset %d should stay centered", offset)
		}
	})

	t.Run("Test left of dead zone", func(t *testing.T) {
		assert.Equal(t, TrackLeft, c.Decide(center-51, center))
		assert.Equal(t, TrackLeft, c.Decide(100, center))
	})

	t.Run("Test right of dead zone", func(t *testing.T) {
		assert.Equal(t, TrackRight, c.Decide(center+51, center))
		assert.Equal(t, TrackRight, c.Decide(540, center))
	})
}

func TestSensitivity(t *testing.T) {
	c := New(50)
	c.SetDeadZone(10)
	assert.Equal(t, 10, c.DeadZone())
	assert.Equal(t, TrackRight, c.Decide(331, 320))

	// Dead zone never collapses to zero.
	c.SetDeadZone(0)
	assert.Equal(t, 1, c.DeadZone())
	assert.Equal(t, TrackCenter, c.Decide(321, 320))
	assert.Equal(t, TrackRight, c.Decide(322, 320))
}

func TestEnableToggle(t *testing.T) {
	c := New(50)
	c.SetEnabled(false)
	assert.False(t, c.Enabled())
	assert.Equal(t, TrackCenter, c.Decide(600, 320))

	c.SetEnabled(true)
	assert.Equal(t, TrackRight, c.Decide(600, 320))
}
