// Package perception carries the per-frame output of the external pose
// estimation service: tracked identities with 17-landmark keypoint sets.
// The control loop only reads these values; track ids are owned by the
// remote tracker.
package perception

import "time"

// COCO keypoint slots used by the gesture classifier.
const (
	LeftShoulder  = 5
	RightShoulder = 6
	LeftElbow     = 7
	RightElbow    = 8
	LeftWrist     = 9
	RightWrist    = 10

	NumKeypoints = 17
)

// Keypoint is one body landmark in frame pixel coordinates. Y grows
// downward, so a smaller Y is higher on screen.
type Keypoint struct {
	X    float64
	Y    float64
	Conf float64
}

type KeypointSet [NumKeypoints]Keypoint

// Track is one identity persisted across frames by the remote tracker.
type Track struct {
	ID        int
	Keypoints KeypointSet
	CenterX   float64
	CenterY   float64
	LastSeen  time.Time
}

// Frame is one cycle of perception output.
type Frame struct {
	Seq    uint64
	Time   time.Time
	Width  int
	Height int
	Tracks []Track
}

// Track returns the track with the given id, if present in this frame.
func (f Frame) Track(id int) (Track, bool) {
	for _, t := range f.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}
