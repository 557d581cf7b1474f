// Package capture reads frames from a local webcam and JPEG-encodes them
// for the pose stream uplink.
package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Webcam grabs frames from a V4L/DirectShow device.
type Webcam struct {
	cam  *gocv.VideoCapture
	mat  gocv.Mat
	flip bool
}

// OpenWebcam opens the device and applies the configured capture size.
// flip mirrors the frame horizontally so the operator's left hand stays on
// the left of the image.
func OpenWebcam(device, width, height int, flip bool) (*Webcam, error) {
	cam, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w", device, err)
	}
	cam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	cam.Set(gocv.VideoCaptureFrameHeight, float64(height))
	return &Webcam{
		cam:  cam,
		mat:  gocv.NewMat(),
		flip: flip,
	}, nil
}

// Grab reads one frame and returns it JPEG-encoded with its dimensions.
func (w *Webcam) Grab() ([]byte, int, int, error) {
	if ok := w.cam.Read(&w.mat); !ok {
		return nil, 0, 0, fmt.Errorf("failed to grab frame")
	}
	if w.mat.Empty() {
		return nil, 0, 0, fmt.Errorf("camera returned empty frame")
	}
	if w.flip {
		gocv.Flip(w.mat, &w.mat, 1)
	}
	buf, err := gocv.IMEncode(".jpg", w.mat)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("encoding frame: %w", err)
	}
	defer buf.Close()
	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, w.mat.Cols(), w.mat.Rows(), nil
}

func (w *Webcam) Close() error {
	if err := w.mat.Close(); err != nil {
		return err
	}
	return w.cam.Close()
}
