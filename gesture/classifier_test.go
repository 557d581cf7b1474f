package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"smartcar/perception"
)

const testConf = 0.5

// raisedArm fills wrist/elbow/shoulder so the side reads as raised.
func raisedArm(kp *perception.KeypointSet, wrist, elbow, shoulder int, conf float64) {
	kp[wrist] = perception.Keypoint{X: 100, Y: 50, Conf: conf}
	kp[elbow] = perception.Keypoint{X: 100, Y: 100, Conf: conf}
	kp[shoulder] = perception.Keypoint{X: 100, Y: 150, Conf: conf}
}

func TestClassify(t *testing.T) {
	t.Run("Test left raised", func(t *testing.T) {
		var kp perception.KeypointSet
		raisedArm(&kp, perception.LeftWrist, perception.LeftElbow, perception.LeftShoulder, 0.9)
		assert.Equal(t, LeftRaised, Classify(kp, testConf))
	})

	t.Run("Test right raised", func(t *testing.T) {
		var kp perception.KeypointSet
		raisedArm(&kp, perception.RightWrist, perception.RightElbow, perception.RightShoulder, 0.9)
		assert.Equal(t, RightRaised, Classify(kp, testConf))
	})

	t.Run("Test both raised takes precedence", func(t *testing.T) {
		var kp perception.KeypointSet
		raisedArm(&kp, perception.LeftWrist, perception.LeftElbow, perception.LeftShoulder, 0.9)
		raisedArm(&kp, perception.RightWrist, perception.RightElbow, perception.RightShoulder, 0.9)
		assert.Equal(t, BothRaised, Classify(kp, testConf))
	})

	t.Run("Test lowered arm", func(t *testing.T) {
		var kp perception.KeypointSet
		// Wrist below elbow.
		kp[perception.LeftWrist] = perception.Keypoint{Y: 200, Conf: 0.9}
		kp[perception.LeftElbow] = perception.Keypoint{Y: 100, Conf: 0.9}
		kp[perception.LeftShoulder] = perception.Keypoint{Y: 150, Conf: 0.9}
		assert.Equal(t, NoneRaised, Classify(kp, testConf))
	})

	t.Run("Test low confidence treated as absent", func(t *testing.T) {
		var kp perception.KeypointSet
		raisedArm(&kp, perception.LeftWrist, perception.LeftElbow, perception.LeftShoulder, 0.9)
		kp[perception.LeftElbow].Conf = 0.3
		assert.Equal(t, NoneRaised, Classify(kp, testConf))
	})

	t.Run("Test confidence exactly at threshold is not raised", func(t *testing.T) {
		var kp perception.KeypointSet
		raisedArm(&kp, perception.LeftWrist, perception.LeftElbow, perception.LeftShoulder, testConf)
		assert.Equal(t, NoneRaised, Classify(kp, testConf))
	})

	t.Run("Test empty keypoints", func(t *testing.T) {
		var kp perception.KeypointSet
		assert.Equal(t, NoneRaised, Classify(kp, testConf))
	})
}

func TestMovementFor(t *testing.T) {
	assert.Equal(t, Forward, MovementFor(LeftRaised, Backward))
	assert.Equal(t, Backward, MovementFor(RightRaised, Backward))
	assert.Equal(t, Stop, MovementFor(RightRaised, Stop))
	assert.Equal(t, EmergencyStop, MovementFor(BothRaised, Backward))
	assert.Equal(t, Idle, MovementFor(NoneRaised, Backward))
}
