package vehicle

import "smartcar/protocol"

// pattern is one row of the command table: a full per-motor assignment,
// plus whether it uses the synchronized startup sequence.
type pattern struct {
	motors    [NumMotors]MotorCommand
	syncStart bool
}

var allStop = pattern{}

// commandPatterns builds the code-to-motors lookup table. rightBackward
// selects the raised-right-hand behavior: drive backward or plain stop,
// matching the two firmware variants in the field.
func commandPatterns(rightBackward bool) map[protocol.Code]pattern {
	fullForward := pattern{
		motors:    [NumMotors]MotorCommand{MotorForward, MotorForward, MotorForward, MotorForward},
		syncStart: true,
	}
	fullBackward := pattern{
		motors: [NumMotors]MotorCommand{MotorBackward, MotorBackward, MotorBackward, MotorBackward},
	}
	rotateLeft := pattern{
		// Right side forward, left side backward spins the chassis left.
		motors: [NumMotors]MotorCommand{MotorForward, MotorForward, MotorBackward, MotorBackward},
	}
	rotateRight := pattern{
		motors: [NumMotors]MotorCommand{MotorBackward, MotorBackward, MotorForward, MotorForward},
	}

	table := map[protocol.Code]pattern{
		protocol.Stop: allStop,
		protocol.Up:   fullForward,
		protocol.Down: fullBackward,
		// Mecanum strafe left/right.
		protocol.Left: {
			motors: [NumMotors]MotorCommand{MotorForward, MotorBackward, MotorBackward, MotorForward},
		},
		protocol.Right: {
			motors: [NumMotors]MotorCommand{MotorBackward, MotorForward, MotorForward, MotorBackward},
		},
		protocol.UpLeft: {
			motors: [NumMotors]MotorCommand{MotorForward, MotorStop, MotorStop, MotorForward},
		},
		protocol.UpRight: {
			motors: [NumMotors]MotorCommand{MotorStop, MotorForward, MotorForward, MotorStop},
		},
		protocol.DownLeft: {
			motors: [NumMotors]MotorCommand{MotorStop, MotorBackward, MotorBackward, MotorStop},
		},
		protocol.DownRight: {
			motors: [NumMotors]MotorCommand{MotorBackward, MotorStop, MotorStop, MotorBackward},
		},
		protocol.TurnLeft:  rotateLeft,
		protocol.TurnRight: rotateRight,

		protocol.HandLeftRaised: fullForward,
		protocol.HandBothRaised: allStop,
		protocol.HandNoneRaised: allStop,

		// Tracking adjustments rotate in place; centered means hold still.
		protocol.TrackLeft:   rotateLeft,
		protocol.TrackRight:  rotateRight,
		protocol.TrackCenter: allStop,
	}

	if rightBackward {
		table[protocol.HandRightRaised] = fullBackward
	} else {
		table[protocol.HandRightRaised] = allStop
	}
	return table
}
