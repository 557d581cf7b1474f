// Package lock owns the identity lock: which tracked person the car follows.
// The manager is the only writer of the lock state; everyone else reads
// snapshots.
package lock

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"smartcar/gesture"
	"smartcar/logger"
	"smartcar/perception"
)

type Phase int

const (
	Unlocked Phase = iota
	Locked
	Grace
)

func (p Phase) String() string {
	switch p {
	case Locked:
		return "locked"
	case Grace:
		return "grace"
	default:
		return "unlocked"
	}
}

// State is an immutable snapshot of the lock.
type State struct {
	Phase      Phase
	TrackID    int
	GraceSince time.Time
}

// Manager runs the acquisition/loss/recovery state machine. Observe is
// called once per frame from the control loop; Reset may arrive from the
// operator API goroutine, hence the mutex.
type Manager struct {
	mu          sync.Mutex
	phase       Phase
	trackID     int
	graceSince  time.Time
	graceWindow time.Duration

	now func() time.Time
}

// NewManager builds a manager with the given grace window. A lost track may
// reappear within the window and keep its lock; past it the lock releases.
func NewManager(graceWindow time.Duration) *Manager {
	if graceWindow <= 0 {
		graceWindow = 10 * time.Second
	}
	return &Manager{
		graceWindow: graceWindow,
		now:         time.Now,
	}
}

// Observe feeds one frame of tracks and their classified gestures through
// the state machine and returns the resulting snapshot.
func (m *Manager) Observe(frame perception.Frame, gestures map[int]gesture.State) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	// An emergency gesture from anyone clears the lock, whatever the phase.
	for id, g := range gestures {
		if g == gesture.BothRaised {
			if m.phase != Unlocked {
				logger.Log().Warn("lock cleared by emergency gesture",
					zap.Int("track", m.trackID), zap.Int("raisedBy", id))
			}
			m.unlockLocked()
			return m.snapshotLocked()
		}
	}

	now := m.now()
	switch m.phase {
	case Locked:
		if _, present := frame.Track(m.trackID); !present {
			m.phase = Grace
			m.graceSince = now
			logger.Log().Info("locked track lost, grace window started",
				zap.Int("track", m.trackID), zap.Duration("window", m.graceWindow))
		}

	case Grace:
		// Deadline first: a track reappearing after the window is already
		// released and must raise again to re-acquire.
		if now.Sub(m.graceSince) > m.graceWindow {
			logger.Log().Warn("grace window elapsed, releasing lock",
				zap.Int("track", m.trackID))
			m.unlockLocked()
		} else if _, present := frame.Track(m.trackID); present {
			m.phase = Locked
			logger.Log().Info("locked track reacquired within grace window",
				zap.Int("track", m.trackID))
		}

	case Unlocked:
		// First raising gesture acquires the lock; smallest id wins ties.
		best := -1
		for _, t := range frame.Tracks {
			g := gestures[t.ID]
			if g != gesture.LeftRaised && g != gesture.RightRaised {
				continue
			}
			if best < 0 || t.ID < best {
				best = t.ID
			}
		}
		if best >= 0 {
			m.phase = Locked
			m.trackID = best
			logger.Log().Info("lock acquired", zap.Int("track", best))
		}
	}

	return m.snapshotLocked()
}

// Reset releases the lock on operator request.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != Unlocked {
		logger.Log().Info("lock reset by operator", zap.Int("track", m.trackID))
	}
	m.unlockLocked()
}

// Snapshot returns the current lock state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) unlockLocked() {
	m.phase = Unlocked
	m.trackID = 0
	m.graceSince = time.Time{}
}

func (m *Manager) snapshotLocked() State {
	return State{
		Phase:      m.phase,
		TrackID:    m.trackID,
		GraceSince: m.graceSince,
	}
}
