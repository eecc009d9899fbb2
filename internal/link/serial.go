package link

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// pollTimeout bounds a single read attempt on the port. The controller box
// runs at a ~1 Hz cadence, so a short poll window is plenty.
const pollTimeout = 50 * time.Millisecond

// SerialLink is a Link over an RS-232 port. The controller box speaks
// 9600 8N1 with no flow control.
type SerialLink struct {
	port serial.Port
}

// OpenSerial opens the named port at the given baud rate.
func OpenSerial(name string, baud int) (*SerialLink, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", name, err)
	}

	if err := port.SetReadTimeout(pollTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("setting read timeout on %s: %w", name, err)
	}

	return &SerialLink{port: port}, nil
}

// TryReadByte performs a single bounded read attempt on the port.
func (l *SerialLink) TryReadByte() (byte, bool, error) {
	var buf [1]byte
	n, err := l.port.Read(buf[:])
	if err != nil {
		if err == io.EOF {
			return 0, false, ErrClosed
		}
		return 0, false, fmt.Errorf("serial read: %w", err)
	}
	if n == 0 {
		// Timeout expired with nothing pending.
		return 0, false, nil
	}
	return buf[0], true, nil
}

// ReadByte polls the port until a byte arrives or the link fails.
func (l *SerialLink) ReadByte() (byte, error) {
	for {
		b, ok, err := l.TryReadByte()
		if err != nil {
			return 0, err
		}
		if ok {
			return b, nil
		}
	}
}

// WriteByte sends a single byte down the port.
func (l *SerialLink) WriteByte(b byte) error {
	if _, err := l.port.Write([]byte{b}); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Close closes the port.
func (l *SerialLink) Close() error {
	return l.port.Close()
}
