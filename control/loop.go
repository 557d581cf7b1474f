// Package control runs the host-side frame loop: classify every track's
// gesture, advance the identity lock, derive the steering correction and
// hand the resulting commands to the dispatcher. Everything inside one
// frame is strictly sequential; the lock manager is the only writer of the
// lock state.
package control

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"smartcar/dispatch"
	"smartcar/gesture"
	"smartcar/lock"
	"smartcar/logger"
	"smartcar/monitor"
	"smartcar/perception"
	"smartcar/steering"
)

type Config struct {
	// ConfidenceThreshold gates keypoints for the gesture classifier.
	ConfidenceThreshold float64
	// RightHandAction is the movement a raised right hand maps to,
	// gesture.Stop or gesture.Backward.
	RightHandAction gesture.Movement
	// EmergencyStopOnExit sends a final stop when the loop ends.
	EmergencyStopOnExit bool
}

// Loop drives one frame at a time through the pipeline.
type Loop struct {
	cfg   Config
	lock  *lock.Manager
	steer *steering.Controller
	disp  *dispatch.Dispatcher

	mu          sync.Mutex
	lastState   lock.State
	lastGesture gesture.State
	lastIntent  steering.Intent
}

func NewLoop(cfg Config, lk *lock.Manager, st *steering.Controller, d *dispatch.Dispatcher) *Loop {
	if cfg.RightHandAction != gesture.Stop {
		cfg.RightHandAction = gesture.Backward
	}
	return &Loop{cfg: cfg, lock: lk, steer: st, disp: d}
}

// Run consumes frames until ctx is cancelled or the stream closes, then
// parks the vehicle if configured to.
func (l *Loop) Run(ctx context.Context, frames <-chan perception.Frame) {
	defer func() {
		if l.cfg.EmergencyStopOnExit {
			logger.Log().Info("control loop exiting, parking vehicle")
			l.disp.EmergencyStop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				logger.Log().Warn("perception stream closed")
				return
			}
			l.ProcessFrame(frame)
		}
	}
}

// ProcessFrame runs one full cycle: classification, lock update, steering,
// dispatch. Exported so tests can step frames without a goroutine.
func (l *Loop) ProcessFrame(frame perception.Frame) {
	gestures := make(map[int]gesture.State, len(frame.Tracks))
	emergency := false
	for _, t := range frame.Tracks {
		g := gesture.Classify(t.Keypoints, l.cfg.ConfidenceThreshold)
		gestures[t.ID] = g
		if g == gesture.BothRaised {
			emergency = true
		}
	}

	state := l.lock.Observe(frame, gestures)
	monitor.FrameProcessed()
	monitor.SetLockState(lockGauge(state.Phase))

	if emergency {
		l.disp.EmergencyStop()
		l.record(state, gesture.BothRaised, steering.TrackCenter)
		return
	}

	if state.Phase != lock.Locked {
		// No target: a level-triggered "none" keeps the vehicle stopped.
		// The dispatcher deduplicates, so this costs one send per change.
		l.disp.Gesture(gesture.NoneRaised.String())
		l.record(state, gesture.NoneRaised, steering.TrackCenter)
		return
	}

	target, present := frame.Track(state.TrackID)
	if !present {
		// Observe just transitioned into Locked from this frame's tracks,
		// so the target is always present here; guard anyway.
		logger.Log().Error("locked track missing from frame", zap.Int("track", state.TrackID))
		return
	}

	g := gestures[state.TrackID]
	l.disp.Gesture(g.String())

	intent := l.steer.Decide(int(target.CenterX), frame.Width/2)
	l.disp.Action(intent.String())
	l.record(state, g, intent)
}

func (l *Loop) record(state lock.State, g gesture.State, intent steering.Intent) {
	l.mu.Lock()
	l.lastState = state
	l.lastGesture = g
	l.lastIntent = intent
	l.mu.Unlock()
}

// Status is the operator-facing view of the last processed frame.
type Status struct {
	Lock            string `json:"lock"`
	TrackID         int    `json:"trackId"`
	Gesture         string `json:"gesture"`
	Movement        string `json:"movement"`
	Orientation     string `json:"orientation"`
	TrackingEnabled bool   `json:"trackingEnabled"`
	DeadZonePx      int    `json:"deadZonePx"`
}

func (l *Loop) Status() Status {
	l.mu.Lock()
	state, g, intent := l.lastState, l.lastGesture, l.lastIntent
	l.mu.Unlock()
	return Status{
		Lock:            state.Phase.String(),
		TrackID:         state.TrackID,
		Gesture:         g.String(),
		Movement:        gesture.MovementFor(g, l.cfg.RightHandAction).String(),
		Orientation:     intent.String(),
		TrackingEnabled: l.steer.Enabled(),
		DeadZonePx:      l.steer.DeadZone(),
	}
}

// lockGauge maps lock phases to the metric encoding, 0 unlocked 1 grace
// 2 locked, so the gauge reads as "how held is the lock".
func lockGauge(p lock.Phase) int {
	switch p {
	case lock.Grace:
		return 1
	case lock.Locked:
		return 2
	default:
		return 0
	}
}
