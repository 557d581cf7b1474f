package vehicle

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialDriver bridges motor writes to the motor controller board over a
// serial line, one ASCII record per write: "M<idx> <in1> <in2>\n".
type SerialDriver struct {
	port serial.Port
}

// OpenSerialDriver opens the named serial device at the given baud rate.
func OpenSerialDriver(device string, baud int) (*SerialDriver, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("opening motor bridge %s: %w", device, err)
	}
	return &SerialDriver{port: port}, nil
}

// NewSerialDriver wraps an already-open port. Tests hand in a mock.
func NewSerialDriver(port serial.Port) *SerialDriver {
	return &SerialDriver{port: port}
}

func (d *SerialDriver) Write(motor int, in1, in2 uint8) error {
	if motor < 0 || motor >= NumMotors {
		return fmt.Errorf("motor index %d out of range", motor)
	}
	_, err := fmt.Fprintf(d.port, "M%d %d %d\n", motor, in1, in2)
	return err
}

func (d *SerialDriver) Close() error {
	return d.port.Close()
}
