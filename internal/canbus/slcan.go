// internal/canbus/slcan.go
package canbus

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SLCAN is a Bus on a serial-line CAN adapter (Lawicel ASCII protocol).
type SLCAN struct {
	port io.ReadWriteCloser

	wmu  sync.Mutex
	rx   chan Frame
	done chan struct{}

	closeOnce sync.Once
	readErr   chan error
}

var bitrateCodes = map[int]byte{
	10:   '0',
	20:   '1',
	50:   '2',
	100:  '3',
	125:  '4',
	250:  '5',
	500:  '6',
	800:  '7',
	1000: '8',
}

// ErrBadLine is returned when a received line is not a data frame.
var ErrBadLine = errors.New("canbus: malformed slcan line")

// OpenSLCAN opens the serial port, sets the CAN bitrate and opens the
// channel.
func OpenSLCAN(name string, baud, bitrateKbps int) (*SLCAN, error) {
	code, ok := bitrateCodes[bitrateKbps]
	if !ok {
		return nil, fmt.Errorf("canbus: unsupported slcan bitrate %dk", bitrateKbps)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("canbus: open %s: %w", name, err)
	}

	// close any channel left open, then configure
	for _, cmd := range []string{"C\r", "S" + string(code) + "\r", "O\r"} {
		if _, err := port.Write([]byte(cmd)); err != nil {
			port.Close()
			return nil, fmt.Errorf("canbus: slcan init: %w", err)
		}
	}

	return newSLCAN(port), nil
}

func newSLCAN(port io.ReadWriteCloser) *SLCAN {
	s := &SLCAN{
		port:    port,
		rx:      make(chan Frame, 64),
		done:    make(chan struct{}),
		readErr: make(chan error, 1),
	}
	go s.readLoop()
	return s
}

func (s *SLCAN) readLoop() {
	r := bufio.NewReader(s.port)
	var line []byte

	for {
		b, err := r.ReadByte()
		if err != nil {
			// tarm/serial reports a read timeout as a zero-byte read
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrNoProgress) {
				select {
				case <-s.done:
					return
				default:
					continue
				}
			}
			s.readErr <- err
			return
		}

		switch b {
		case '\r':
			if f, err := ParseSLCAN(line); err == nil {
				select {
				case s.rx <- f:
				case <-s.done:
					return
				}
			}
			line = line[:0]
		case '\a':
			// adapter NACK
			line = line[:0]
		default:
			if len(line) < 64 {
				line = append(line, b)
			}
		}
	}
}

func (s *SLCAN) Send(ctx context.Context, f Frame) error {
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

	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := s.port.Write(FormatSLCAN(f))
	return err
}

func (s *SLCAN) Receive(ctx context.Context) (Frame, error) {
	select {
	case f := <-s.rx:
		return f, nil
	case err := <-s.readErr:
		s.Close()
		return Frame{}, fmt.Errorf("canbus: slcan read: %w", err)
	case <-s.done:
		return Frame{}, ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (s *SLCAN) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wmu.Lock()
		s.port.Write([]byte("C\r"))
		s.wmu.Unlock()
		err = s.port.Close()
	})
	return err
}

// ---- WIRE FORMAT ----

// FormatSLCAN renders a frame as an SLCAN transmit line including the
// trailing carriage return.
func FormatSLCAN(f Frame) []byte {
	var out []byte
	if f.Extended {
		out = fmt.Appendf(out, "T%08X%d", f.ID, f.Len)
	} else {
		out = fmt.Appendf(out, "t%03X%d", f.ID, f.Len)
	}
	out = fmt.Appendf(out, "%X", f.Payload())
	return append(out, '\r')
}

// ParseSLCAN decodes one received line without its carriage return.
// Only data frames are accepted.
func ParseSLCAN(line []byte) (Frame, error) {
	var f Frame
	if len(line) == 0 {
		return f, ErrBadLine
	}

	var idLen int
	switch line[0] {
	case 'T':
		f.Extended = true
		idLen = 8
	case 't':
		idLen = 3
	default:
		return f, ErrBadLine
	}
	if len(line) < 1+idLen+1 {
		return f, ErrBadLine
	}

	id, err := strconv.ParseUint(string(line[1:1+idLen]), 16, 32)
	if err != nil {
		return f, ErrBadLine
	}
	f.ID = uint32(id)

	dlc := line[1+idLen]
	if dlc < '0' || dlc > '8' {
		return f, ErrBadLine
	}
	f.Len = dlc - '0'

	data := line[2+idLen:]
	// some adapters append a 4-digit timestamp
	if len(data) != int(f.Len)*2 && len(data) != int(f.Len)*2+4 {
		return f, ErrBadLine
	}
	if _, err := hex.Decode(f.Data[:f.Len], data[:f.Len*2]); err != nil {
		return f, ErrBadLine
	}

	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}
