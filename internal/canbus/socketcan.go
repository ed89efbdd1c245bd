// internal/canbus/socketcan.go
package canbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/brutella/can"
)

// Linux can_id flag bits as carried in can.Frame.ID.
const (
	effFlag = 0x80000000
	rtrFlag = 0x40000000
	errFlag = 0x20000000
)

// SocketCAN is a Bus on a Linux CAN interface.
type SocketCAN struct {
	bus  *can.Bus
	rx   chan Frame
	done chan struct{}

	closeOnce sync.Once
	runErr    chan error
}

// OpenSocketCAN binds to the named interface (e.g. "can0") and starts
// reading.
func OpenSocketCAN(iface string) (*SocketCAN, error) {
	bus, err := can.NewBusForInterfaceWithName(iface)
	if err != nil {
		return nil, fmt.Errorf("canbus: open %s: %w", iface, err)
	}

	s := &SocketCAN{
		bus:    bus,
		rx:     make(chan Frame, 64),
		done:   make(chan struct{}),
		runErr: make(chan error, 1),
	}
	bus.SubscribeFunc(s.handle)

	go func() {
		s.runErr <- bus.ConnectAndPublish()
	}()

	return s, nil
}

func (s *SocketCAN) handle(cf can.Frame) {
	if cf.ID&(rtrFlag|errFlag) != 0 {
		return
	}
	f := Frame{Len: cf.Length, Data: cf.Data}
	if cf.ID&effFlag != 0 {
		f.Extended = true
		f.ID = cf.ID & maxExtID
	} else {
		f.ID = cf.ID & maxStdID
	}
	if f.Len > 8 {
		f.Len = 8
	}

	select {
	case s.rx <- f:
	case <-s.done:
	}
}

func (s *SocketCAN) Send(ctx context.Context, f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	id := f.ID
	if f.Extended {
		id |= effFlag
	}
	return s.bus.Publish(can.Frame{ID: id, Length: f.Len, Data: f.Data})
}

func (s *SocketCAN) Receive(ctx context.Context) (Frame, error) {
	select {
	case f := <-s.rx:
		return f, nil
	case err := <-s.runErr:
		s.Close()
		if err == nil {
			err = ErrClosed
		}
		return Frame{}, fmt.Errorf("canbus: socketcan stopped: %w", err)
	case <-s.done:
		return Frame{}, ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (s *SocketCAN) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.bus.Disconnect()
	})
	return err
}
