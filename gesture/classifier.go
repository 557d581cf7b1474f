// Package gesture turns one person's keypoints into a discrete hand-raised
// state. Classification is per frame with no smoothing; debouncing belongs
// to the command dispatcher.
package gesture

import "smartcar/perception"

// State is the exclusive per-frame hand signal.
type State int

const (
	NoneRaised State = iota
	LeftRaised
	RightRaised
	BothRaised
)

func (s State) String() string {
	switch s {
	case LeftRaised:
		return "left"
	case RightRaised:
		return "right"
	case BothRaised:
		return "both"
	default:
		return "none"
	}
}

// Movement is the movement intent derived from a gesture state.
type Movement int

const (
	Idle Movement = iota
	Forward
	Backward
	Stop
	EmergencyStop
)

func (m Movement) String() string {
	switch m {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Stop:
		return "stop"
	case EmergencyStop:
		return "emergency_stop"
	default:
		return "idle"
	}
}

// Classify reports which hands are raised. A hand counts as raised when its
// wrist is above its elbow and the elbow above the shoulder (smaller Y is
// higher on screen), with all three confidences strictly above minConf.
// Low-confidence points are treated as absent.
func Classify(kp perception.KeypointSet, minConf float64) State {
	left := armRaised(
		kp[perception.LeftWrist],
		kp[perception.LeftElbow],
		kp[perception.LeftShoulder],
		minConf,
	)
	right := armRaised(
		kp[perception.RightWrist],
		kp[perception.RightElbow],
		kp[perception.RightShoulder],
		minConf,
	)
	switch {
	case left && right:
		return BothRaised
	case left:
		return LeftRaised
	case right:
		return RightRaised
	default:
		return NoneRaised
	}
}

func armRaised(wrist, elbow, shoulder perception.Keypoint, minConf float64) bool {
	if wrist.Conf <= minConf || elbow.Conf <= minConf || shoulder.Conf <= minConf {
		return false
	}
	return wrist.Y < elbow.Y && elbow.Y < shoulder.Y
}

// MovementFor maps a gesture state to its movement intent. rightAction
// selects whether a raised right hand means Stop or Backward; the two
// vehicle firmware variants disagreed, so it is a configuration choice.
func MovementFor(s State, rightAction Movement) Movement {
	switch s {
	case LeftRaised:
		return Forward
	case RightRaised:
		return rightAction
	case BothRaised:
		return EmergencyStop
	default:
		return Idle
	}
}
