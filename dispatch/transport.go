package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"smartcar/protocol"
)

// Transport delivers one command to the vehicle. Implementations must bound
// every call with the configured timeout; the dispatcher never retries.
type Transport interface {
	SendGesture(ctx context.Context, name string) error
	SendAction(ctx context.Context, name string) error
	Probe(ctx context.Context) error
	Close() error
}

// HTTPTransport posts named-field commands to the vehicle's web server.
type HTTPTransport struct {
	client *resty.Client
	base   string
}

func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client: resty.New().SetTimeout(timeout),
		base:   baseURL,
	}
}

func (t *HTTPTransport) SendGesture(ctx context.Context, name string) error {
	return t.post(ctx, "/hand-gesture", "gesture", name)
}

func (t *HTTPTransport) SendAction(ctx context.Context, name string) error {
	return t.post(ctx, "/person-tracking", "action", name)
}

func (t *HTTPTransport) post(ctx context.Context, path, field, value string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{field: value}).
		Post(t.base + path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("vehicle returned %s for %s=%s", resp.Status(), field, value)
	}
	return nil
}

// Probe checks the vehicle is reachable before the control loop starts.
func (t *HTTPTransport) Probe(ctx context.Context) error {
	resp, err := t.client.R().SetContext(ctx).Get(t.base + "/")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("vehicle responded %s", resp.Status())
	}
	return nil
}

func (t *HTTPTransport) Close() error { return nil }

// ChannelTransport keeps a persistent websocket to the vehicle and writes
// decimal command codes. A failed write drops the connection; the next send
// redials, so a transient outage costs commands but never blocks the loop
// beyond the write deadline.
type ChannelTransport struct {
	mu           sync.Mutex
	url          string
	dialTimeout  time.Duration
	writeTimeout time.Duration
	conn         *websocket.Conn
}

func NewChannelTransport(wsURL string, timeout time.Duration) *ChannelTransport {
	return &ChannelTransport{
		url:          wsURL,
		dialTimeout:  timeout,
		writeTimeout: timeout,
	}
}

func (t *ChannelTransport) SendGesture(_ context.Context, name string) error {
	return t.send(protocol.GestureCode(name))
}

func (t *ChannelTransport) SendAction(_ context.Context, name string) error {
	return t.send(protocol.ActionCode(name))
}

func (t *ChannelTransport) Probe(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ensureConnLocked()
}

func (t *ChannelTransport) send(code protocol.Code) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureConnLocked(); err != nil {
		return err
	}
	payload := []byte(strconv.Itoa(int(code)))
	_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = t.conn.Close()
		t.conn = nil
		return err
	}
	return nil
}

func (t *ChannelTransport) ensureConnLocked() error {
	if t.conn != nil {
		return nil
	}
	dialer := websocket.Dialer{HandshakeTimeout: t.dialTimeout}
	conn, _, err := dialer.Dial(t.url, nil)
	if err != nil {
		return fmt.Errorf("dialing vehicle channel %s: %w", t.url, err)
	}
	t.conn = conn
	return nil
}

func (t *ChannelTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
