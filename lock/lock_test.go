package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"smartcar/gesture"
	"smartcar/perception"
)

func frameWith(ids ...int) perception.Frame {
	f := perception.Frame{Width: 640, Height: 480}
	for _, id := range ids {
		f.Tracks = append(f.Tracks, perception.Track{ID: id})
	}
	return f
}

// fakeClock lets tests walk wall-clock time through the grace window.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	m := NewManager(10 * time.Second)
	m.now = clock.now
	return m, clock
}

func TestAcquisition(t *testing.T) {
	t.Run("Test raise acquires lock", func(t *testing.T) {
		m, _ := newTestManager()
		st := m.Observe(frameWith(7), map[int]gesture.State{7: gesture.LeftRaised})
		assert.Equal(t, Locked, st.Phase)
		assert.Equal(t, 7, st.TrackID)
	})

	t.Run("Test no raise stays unlocked", func(t *testing.T) {
		m, _ := newTestManager()
		st := m.Observe(frameWith(7), map[int]gesture.State{7: gesture.NoneRaised})
		assert.Equal(t, Unlocked, st.Phase)
	})

	t.Run("Test smallest id wins tie", func(t *testing.T) {
		m, _ := newTestManager()
		st := m.Observe(frameWith(9, 3, 5), map[int]gesture.State{
			9: gesture.RightRaised,
			3: gesture.LeftRaised,
			5: gesture.LeftRaised,
		})
		assert.Equal(t, Locked, st.Phase)
		assert.Equal(t, 3, st.TrackID)
	})

	t.Run("Test acquisition idempotent while locked", func(t *testing.T) {
		m, _ := newTestManager()
		m.Observe(frameWith(7), map[int]gesture.State{7: gesture.LeftRaised})
		st := m.Observe(frameWith(7, 2), map[int]gesture.State{2: gesture.LeftRaised})
		assert.Equal(t, Locked, st.Phase)
		assert.Equal(t, 7, st.TrackID)
	})
}

func TestGraceWindow(t *testing.T) {
	t.Run("Test reappearance within window reacquires", func(t *testing.T) {
		m, clock := newTestManager()
		m.Observe(frameWith(7), map[int]gesture.State{7: gesture.LeftRaised})

		st := m.Observe(frameWith(), nil)
		assert.Equal(t, Grace, st.Phase)
		assert.Equal(t, 7, st.TrackID)

		clock.advance(9900 * time.Millisecond)
		st = m.Observe(frameWith(7), nil)
		assert.Equal(t, Locked, st.Phase)
		assert.Equal(t, 7, st.TrackID)
	})

	t.Run("Test deadline elapsed releases lock", func(t *testing.T) {
		m, clock := newTestManager()
		m.Observe(frameWith(7), map[int]gesture.State{7: gesture.LeftRaised})
		m.Observe(frameWith(), nil)

		clock.advance(10100 * time.Millisecond)
		st := m.Observe(frameWith(), nil)
		assert.Equal(t, Unlocked, st.Phase)

		// Any track, including the original, may re-acquire afterwards.
		st = m.Observe(frameWith(7), map[int]gesture.State{7: gesture.RightRaised})
		assert.Equal(t, Locked, st.Phase)
		assert.Equal(t, 7, st.TrackID)
	})

	t.Run("Test reappearance after deadline does not re-lock", func(t *testing.T) {
		m, clock := newTestManager()
		m.Observe(frameWith(7), map[int]gesture.State{7: gesture.LeftRaised})
		m.Observe(frameWith(), nil)

		// The track is back, but the first frame past the deadline must
		// release anyway; re-acquisition needs a fresh raise.
		clock.advance(10100 * time.Millisecond)
		st := m.Observe(frameWith(7), map[int]gesture.State{7: gesture.NoneRaised})
		assert.Equal(t, Unlocked, st.Phase)

		st = m.Observe(frameWith(7), map[int]gesture.State{7: gesture.LeftRaised})
		assert.Equal(t, Locked, st.Phase)
		assert.Equal(t, 7, st.TrackID)
	})

	t.Run("Test grace bookkeeping keeps loss time", func(t *testing.T) {
		m, clock := newTestManager()
		m.Observe(frameWith(4), map[int]gesture.State{4: gesture.LeftRaised})
		lost := clock.t
		m.Observe(frameWith(), nil)

		clock.advance(5 * time.Second)
		st := m.Observe(frameWith(), nil)
		assert.Equal(t, Grace, st.Phase)
		assert.Equal(t, lost, st.GraceSince)
	})
}

func TestEmergencyAndReset(t *testing.T) {
	t.Run("Test both raised clears locked", func(t *testing.T) {
		m, _ := newTestManager()
		m.Observe(frameWith(7), map[int]gesture.State{7: gesture.LeftRaised})
		st := m.Observe(frameWith(7), map[int]gesture.State{7: gesture.BothRaised})
		assert.Equal(t, Unlocked, st.Phase)
	})

	t.Run("Test both raised clears grace", func(t *testing.T) {
		m, _ := newTestManager()
		m.Observe(frameWith(7), map[int]gesture.State{7: gesture.LeftRaised})
		m.Observe(frameWith(), nil)
		st := m.Observe(frameWith(2), map[int]gesture.State{2: gesture.BothRaised})
		assert.Equal(t, Unlocked, st.Phase)
	})

	t.Run("Test both raised while unlocked stays unlocked", func(t *testing.T) {
		m, _ := newTestManager()
		st := m.Observe(frameWith(2), map[int]gesture.State{2: gesture.BothRaised})
		assert.Equal(t, Unlocked, st.Phase)
	})

	t.Run("Test operator reset", func(t *testing.T) {
		m, _ := newTestManager()
		m.Observe(frameWith(7), map[int]gesture.State{7: gesture.LeftRaised})
		m.Reset()
		assert.Equal(t, Unlocked, m.Snapshot().Phase)
	})
}
