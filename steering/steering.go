// Package steering converts the locked target's horizontal position into an
// orientation correction. A dead-zone around frame center keeps perception
// noise from flipping the command sign every frame.
package steering

import "sync"

// Intent is the orientation correction for the current frame.
type Intent int

const (
	TrackCenter Intent = iota
	TrackLeft
	TrackRight
)

func (i Intent) String() string {
	switch i {
	case TrackLeft:
		return "track_left"
	case TrackRight:
		return "track_right"
	default:
		return "track_center"
	}
}

// Controller holds the dead-zone threshold. The threshold is mutable at
// runtime through the operator sensitivity control, so reads and writes
// are serialized.
type Controller struct {
	mu       sync.Mutex
	deadZone int
	enabled  bool
}

// New builds a controller with the given dead-zone in pixels. The dead-zone
// is clamped to at least one pixel; a zero threshold would chatter.
func New(deadZonePx int) *Controller {
	c := &Controller{enabled: true}
	c.SetDeadZone(deadZonePx)
	return c
}

// Decide returns the orientation intent for the target's horizontal center.
// Disabled tracking always reads as centered so the car never turns.
func (c *Controller) Decide(targetX, frameCenterX int) Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return TrackCenter
	}
	offset := targetX - frameCenterX
	switch {
	case offset < -c.deadZone:
		return TrackLeft
	case offset > c.deadZone:
		return TrackRight
	default:
		return TrackCenter
	}
}

// SetDeadZone adjusts the sensitivity; values below one pixel are clamped.
func (c *Controller) SetDeadZone(px int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if px < 1 {
		px = 1
	}
	c.deadZone = px
}

func (c *Controller) DeadZone() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadZone
}

// SetEnabled toggles tracking output on or off.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}
