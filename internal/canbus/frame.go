// internal/canbus/frame.go
package canbus

import (
	"errors"
	"fmt"
)

// Frame is one classical CAN data frame. The monitor's peers all use
// 29-bit identifiers.
type Frame struct {
	ID       uint32
	Extended bool
	Len      uint8
	Data     [8]byte
}

const (
	maxStdID = 0x7FF
	maxExtID = 0x1FFFFFFF
)

var (
	ErrInvalidID  = errors.New("canbus: invalid identifier")
	ErrInvalidLen = errors.New("canbus: invalid data length")
)

// NewFrame builds an extended frame from a payload of at most 8 bytes.
func NewFrame(id uint32, payload []byte) (Frame, error) {
	f := Frame{ID: id, Extended: true}
	if len(payload) > 8 {
		return f, ErrInvalidLen
	}
	f.Len = uint8(len(payload))
	copy(f.Data[:], payload)
	return f, f.Validate()
}

func (f Frame) Validate() error {
	if f.Len > 8 {
		return ErrInvalidLen
	}
	if f.Extended && f.ID > maxExtID || !f.Extended && f.ID > maxStdID {
		return ErrInvalidID
	}
	return nil
}

// Payload returns the used data bytes.
func (f Frame) Payload() []byte {
	n := f.Len
	if n > 8 {
		n = 8
	}
	return f.Data[:n]
}

func (f Frame) String() string {
	if f.Extended {
		return fmt.Sprintf("%08X#% X", f.ID, f.Payload())
	}
	return fmt.Sprintf("%03X#% X", f.ID, f.Payload())
}
