package vehicle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.bug.st/serial"
)

// mockPort captures bytes written to the motor bridge.
type mockPort struct {
	written []byte
	closed  bool
}

func (m *mockPort) Break(time.Duration) error                            { return nil }
func (m *mockPort) Drain() error                                         { return nil }
func (m *mockPort) GetModemStatusBits() (*serial.ModemStatusBits, error) { return nil, nil }
func (m *mockPort) ResetInputBuffer() error                              { return nil }
func (m *mockPort) ResetOutputBuffer() error                             { return nil }
func (m *mockPort) SetDTR(dtr bool) error                                { return nil }
func (m *mockPort) SetMode(mode *serial.Mode) error                      { return nil }
func (m *mockPort) SetReadTimeout(t time.Duration) error                 { return nil }
func (m *mockPort) SetRTS(rts bool) error                                { return nil }
func (m *mockPort) Read(p []byte) (int, error)                           { return 0, nil }

func (m *mockPort) Write(p []byte) (int, error) {
	m.written = append(m.written, p...)
	return len(p), nil
}

func (m *mockPort) Close() error {
	m.closed = true
	return nil
}

func TestSerialDriver(t *testing.T) {
	port := &mockPort{}
	d := NewSerialDriver(port)

	assert.NoError(t, d.Write(FrontLeft, 255, 0))
	assert.NoError(t, d.Write(BackRight, 0, 255))
	assert.Equal(t, "M2 255 0\nM1 0 255\n", string(port.written))

	assert.Error(t, d.Write(7, 255, 0))

	assert.NoError(t, d.Close())
	assert.True(t, port.closed)
}
