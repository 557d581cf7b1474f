// Package protocol defines the integer command codes shared by the host
// controller and the vehicle endpoint, plus the named-field forms carried by
// the HTTP surface. Anything outside the table resolves to Stop.
package protocol

import "strconv"

type Code int

const (
	Stop Code = 0

	// Directional movement.
	Up        Code = 1
	Down      Code = 2
	Left      Code = 3
	Right     Code = 4
	UpLeft    Code = 5
	UpRight   Code = 6
	DownLeft  Code = 7
	DownRight Code = 8
	TurnLeft  Code = 9
	TurnRight Code = 10

	// Hand gesture derived movement.
	HandLeftRaised  Code = 11
	HandRightRaised Code = 12
	HandBothRaised  Code = 13
	HandNoneRaised  Code = 14

	// Person tracking orientation adjustment.
	TrackLeft   Code = 15
	TrackRight  Code = 16
	TrackCenter Code = 17
)

var codeNames = map[Code]string{
	Stop:            "stop",
	Up:              "up",
	Down:            "down",
	Left:            "left",
	Right:           "right",
	UpLeft:          "up_left",
	UpRight:         "up_right",
	DownLeft:        "down_left",
	DownRight:       "down_right",
	TurnLeft:        "turn_left",
	TurnRight:       "turn_right",
	HandLeftRaised:  "hand_left_raised",
	HandRightRaised: "hand_right_raised",
	HandBothRaised:  "hand_both_raised",
	HandNoneRaised:  "hand_none_raised",
	TrackLeft:       "track_left",
	TrackRight:      "track_right",
	TrackCenter:     "track_center",
}

func (c Code) Valid() bool {
	_, ok := codeNames[c]
	return ok
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(c)) + ")"
}

// ParseCode decodes a UTF-8 decimal command code as carried on the
// persistent channel. Malformed or out-of-table input resolves to Stop.
func ParseCode(s string) Code {
	n, err := strconv.Atoi(s)
	if err != nil {
		return Stop
	}
	c := Code(n)
	if !c.Valid() {
		return Stop
	}
	return c
}

var gestureCodes = map[string]Code{
	"left":  HandLeftRaised,
	"right": HandRightRaised,
	"both":  HandBothRaised,
	"none":  HandNoneRaised,
}

var actionCodes = map[string]Code{
	"track_left":   TrackLeft,
	"track_right":  TrackRight,
	"track_center": TrackCenter,
}

// GestureCode maps the named gesture field of a discrete request to its
// command code. Unknown names resolve to Stop.
func GestureCode(name string) Code {
	if c, ok := gestureCodes[name]; ok {
		return c
	}
	return Stop
}

// ActionCode maps the named tracking action field to its command code.
// Unknown names resolve to Stop.
func ActionCode(name string) Code {
	if c, ok := actionCodes[name]; ok {
		return c
	}
	return Stop
}
