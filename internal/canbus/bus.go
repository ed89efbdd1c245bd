// internal/canbus/bus.go
package canbus

import (
	"context"
	"errors"
	"fmt"
)

// Bus sends and receives frames. Implementations are safe for one sender
// and one receiver running concurrently.
type Bus interface {
	// Send blocks until the frame has been handed to the controller.
	Send(ctx context.Context, f Frame) error

	// Receive blocks until a frame arrives, the context ends or the bus
	// is closed.
	Receive(ctx context.Context) (Frame, error)

	Close() error
}

// ErrClosed is returned by a bus after Close.
var ErrClosed = errors.New("canbus: closed")

// Drivers.
const (
	DriverSocketCAN = "socketcan"
	DriverSLCAN     = "slcan"
)

// Config selects and parameterises a driver.
type Config struct {
	Driver      string
	Interface   string // socketcan
	Port        string // slcan
	Baud        int    // slcan
	BitrateKbps int    // slcan
}

// Open connects the configured driver.
func Open(cfg Config) (Bus, error) {
	switch cfg.Driver {
	case DriverSocketCAN:
		return OpenSocketCAN(cfg.Interface)
	case DriverSLCAN:
		return OpenSLCAN(cfg.Port, cfg.Baud, cfg.BitrateKbps)
	}
	return nil, fmt.Errorf("canbus: unknown driver %q", cfg.Driver)
}
