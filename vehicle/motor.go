// Package vehicle is the remote endpoint: it decodes command codes, maps
// them to per-motor drive assignments and executes them across the four
// wheel motors.
package vehicle

import (
	"fmt"

	"smartcar/logger"
)

// Motor indices match the physical wiring order on the driver board.
const (
	FrontRight = 0
	BackRight  = 1
	FrontLeft  = 2
	BackLeft   = 3
	NumMotors  = 4
)

var motorNames = [NumMotors]string{"front_right", "back_right", "front_left", "back_left"}

// MotorName returns the wiring-order name of a motor index.
func MotorName(motor int) string {
	if motor < 0 || motor >= NumMotors {
		return "unknown"
	}
	return motorNames[motor]
}

// MotorCommand is the signed drive direction of one motor.
type MotorCommand int8

const (
	MotorBackward MotorCommand = -1
	MotorStop     MotorCommand = 0
	MotorForward  MotorCommand = 1
)

func (m MotorCommand) String() string {
	switch m {
	case MotorForward:
		return "forward"
	case MotorBackward:
		return "backward"
	default:
		return "stop"
	}
}

// Polarity is the per-motor direction correction vector, +1 or -1 per
// motor. It is set once from the calibration pass and never mutated.
type Polarity [NumMotors]int8

// DefaultPolarity matches the reference chassis, where the front-right
// motor is wired backwards.
var DefaultPolarity = Polarity{-1, 1, 1, 1}

// Validate rejects anything but +-1 entries.
func (p Polarity) Validate() error {
	for i, v := range p {
		if v != 1 && v != -1 {
			return fmt.Errorf("polarity for motor %d must be +1 or -1, got %d", i, v)
		}
	}
	return nil
}

// Driver writes the duty pair of one motor's H-bridge inputs.
type Driver interface {
	Write(motor int, in1, in2 uint8) error
}

// LogDriver records drive writes to the log. Used for bring-up before the
// motor bridge is attached.
type LogDriver struct{}

func (LogDriver) Write(motor int, in1, in2 uint8) error {
	logger.S().Debugw("motor write", "motor", motorNames[motor], "in1", in1, "in2", in2)
	return nil
}
