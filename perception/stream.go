package perception

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"smartcar/logger"
)

// Grabber supplies encoded camera frames to the uplink.
type Grabber interface {
	// Grab returns one JPEG-encoded frame and its pixel dimensions.
	Grab() (data []byte, width, height int, err error)
	Close() error
}

// StreamConfig points the uplink at the pose estimation service.
type StreamConfig struct {
	ServiceURL  string
	DialTimeout time.Duration
	Buffer      int
}

type allocResponse struct {
	SessionID string `json:"sessionID"`
	WorkerID  string `json:"workerID"`
	WSURL     string `json:"wsURL"`
	TimeoutMs int64  `json:"timeoutMs"`
}

type wireTrack struct {
	ID        int          `json:"id"`
	Keypoints [][3]float64 `json:"keypoints"`
	Center    [2]float64   `json:"center"`
}

type wireFrame struct {
	Tracks []wireTrack `json:"tracks"`
}

// Stream pushes camera frames to the pose service over its worker-session
// websocket and yields decoded Frames. One session per stream; losing the
// socket ends the stream with an error rather than silently stalling.
type Stream struct {
	client    *resty.Client
	conn      *websocket.Conn
	cfg       StreamConfig
	sessionID string
	seq       uint64

	mu      sync.Mutex
	lastErr error
}

// Open allocates a worker session on the pose service and dials the
// websocket it hands back.
func Open(ctx context.Context, cfg StreamConfig) (*Stream, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1
	}
	client := resty.New().SetTimeout(cfg.DialTimeout)

	var alloc allocResponse
	resp, err := client.R().
		SetContext(ctx).
		SetResult(&alloc).
		Post(cfg.ServiceURL + "/api/workers/alloc")
	if err != nil {
		return nil, fmt.Errorf("allocating pose session: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pose service refused session: %s", resp.Status())
	}
	if alloc.WSURL == "" {
		return nil, fmt.Errorf("pose service returned no websocket url")
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, alloc.WSURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing pose stream %s: %w", alloc.WSURL, err)
	}
	logger.S().Infow("pose stream opened", "session", alloc.SessionID, "worker", alloc.WorkerID)

	return &Stream{
		client:    client,
		conn:      conn,
		cfg:       cfg,
		sessionID: alloc.SessionID,
	}, nil
}

// Run drives the grab/send/receive cycle and returns the frame channel.
// The channel closes when the context ends or the session breaks; check
// Err afterwards.
func (s *Stream) Run(ctx context.Context, g Grabber) <-chan Frame {
	out := make(chan Frame, s.cfg.Buffer)
	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			frame, err := s.next(g)
			if err != nil {
				s.setErr(err)
				logger.S().Errorw("pose stream ended", "error", err)
				return
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *Stream) next(g Grabber) (Frame, error) {
	data, width, height, err := g.Grab()
	if err != nil {
		return Frame{}, fmt.Errorf("grabbing frame: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(data)
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(b64)); err != nil {
		return Frame{}, fmt.Errorf("sending frame: %w", err)
	}
	_, msg, err := s.conn.ReadMessage()
	if err != nil {
		return Frame{}, fmt.Errorf("reading pose result: %w", err)
	}
	var wf wireFrame
	if err := json.Unmarshal(msg, &wf); err != nil {
		return Frame{}, fmt.Errorf("decoding pose result: %w", err)
	}

	s.seq++
	frame := Frame{
		Seq:    s.seq,
		Time:   time.Now(),
		Width:  width,
		Height: height,
		Tracks: make([]Track, 0, len(wf.Tracks)),
	}
	for _, wt := range wf.Tracks {
		t := Track{
			ID:       wt.ID,
			CenterX:  wt.Center[0],
			CenterY:  wt.Center[1],
			LastSeen: frame.Time,
		}
		// Short keypoint lists leave the tail at zero confidence,
		// which downstream treats as absent.
		for i, kp := range wt.Keypoints {
			if i >= NumKeypoints {
				break
			}
			t.Keypoints[i] = Keypoint{X: kp[0], Y: kp[1], Conf: kp[2]}
		}
		frame.Tracks = append(frame.Tracks, t)
	}
	return frame, nil
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr == nil {
		s.lastErr = err
	}
}

// Err reports why the frame channel closed, if anything went wrong.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close tears down the websocket and releases the worker session.
func (s *Stream) Close() error {
	err := s.conn.Close()
	if s.sessionID != "" {
		_, relErr := s.client.R().
			Post(fmt.Sprintf("%s/api/workers/%s/release", s.cfg.ServiceURL, s.sessionID))
		if relErr != nil {
			logger.S().Warnw("releasing pose session failed", "error", relErr)
		}
	}
	return err
}
