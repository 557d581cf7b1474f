package perception

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticGrabber struct {
	frames int32
}

func (g *staticGrabber) Grab() ([]byte, int, int, error) {
	atomic.AddInt32(&g.frames, 1)
	return []byte("jpeg-bytes"), 640, 480, nil
}

func (g *staticGrabber) Close() error { return nil }

// fakePoseService mimics the worker-session protocol: alloc hands out a
// websocket url, the socket answers every frame with one canned result.
func fakePoseService(t *testing.T, result wireFrame) (*httptest.Server, *int32) {
	t.Helper()
	var released int32
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/api/workers/alloc", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/sess-1"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sessionID": "sess-1",
			"workerID":  "worker-1",
			"wsURL":     wsURL,
			"timeoutMs": 1000,
		})
	})
	mux.HandleFunc("/api/workers/sess-1/release", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&released, 1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ws/sess-1", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			// frames arrive base64 encoded
			if _, err := base64.StdEncoding.DecodeString(string(msg)); err != nil {
				t.Errorf("frame not base64: %v", err)
				return
			}
			payload, _ := json.Marshal(result)
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	})
	return server, &released
}

func TestStreamDecodesTracks(t *testing.T) {
	result := wireFrame{Tracks: []wireTrack{{
		ID:     7,
		Center: [2]float64{320, 240},
		Keypoints: [][3]float64{
			{1, 2, 0.9}, {3, 4, 0.8},
		},
	}}}
	server, released := fakePoseService(t, result)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Open(ctx, StreamConfig{ServiceURL: server.URL})
	require.NoError(t, err)

	frames := s.Run(ctx, &staticGrabber{})
	var frame Frame
	select {
	case frame = <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	assert.Equal(t, uint64(1), frame.Seq)
	assert.Equal(t, 640, frame.Width)
	assert.Equal(t, 480, frame.Height)
	require.Len(t, frame.Tracks, 1)
	tr := frame.Tracks[0]
	assert.Equal(t, 7, tr.ID)
	assert.Equal(t, 320.0, tr.CenterX)
	assert.Equal(t, Keypoint{X: 1, Y: 2, Conf: 0.9}, tr.Keypoints[0])
	assert.Equal(t, Keypoint{X: 3, Y: 4, Conf: 0.8}, tr.Keypoints[1])
	// keypoints past the wire list stay at zero confidence
	assert.Zero(t, tr.Keypoints[5].Conf)

	cancel()
	require.NoError(t, s.Close())
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(released) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestStreamSequenceIncrements(t *testing.T) {
	server, _ := fakePoseService(t, wireFrame{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Open(ctx, StreamConfig{ServiceURL: server.URL})
	require.NoError(t, err)
	defer s.Close()

	frames := s.Run(ctx, &staticGrabber{})
	first := <-frames
	second := <-frames
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Empty(t, second.Tracks)
}

func TestOpenFailsWhenServiceRefuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := Open(context.Background(), StreamConfig{ServiceURL: server.URL})
	assert.Error(t, err)
}

func TestStreamEndsWithErrorWhenSessionBreaks(t *testing.T) {
	server, _ := fakePoseService(t, wireFrame{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Open(ctx, StreamConfig{ServiceURL: server.URL})
	require.NoError(t, err)

	frames := s.Run(ctx, &staticGrabber{})
	<-frames
	// killing the socket under the stream ends it with an error
	require.NoError(t, s.conn.Close())
	for range frames {
	}
	assert.Error(t, s.Err())
}

func TestFrameTrackLookup(t *testing.T) {
	f := Frame{Tracks: []Track{{ID: 3}, {ID: 9}}}
	got, ok := f.Track(9)
	assert.True(t, ok)
	assert.Equal(t, 9, got.ID)
	_, ok = f.Track(4)
	assert.False(t, ok)
}
