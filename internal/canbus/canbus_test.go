// internal/canbus/canbus_test.go
package canbus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func TestNewFrame(t *testing.T) {
	f, err := NewFrame(0x14EBC000, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Extended || f.Len != 3 || !bytes.Equal(f.Payload(), []byte{1, 2, 3}) {
		t.Fatalf("bad frame: %+v", f)
	}

	if _, err := NewFrame(0x14EBC000, make([]byte, 9)); !errors.Is(err, ErrInvalidLen) {
		t.Fatalf("expected ErrInvalidLen, got %v", err)
	}
	if _, err := NewFrame(0x20000000, nil); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestFormatSLCAN(t *testing.T) {
	f, _ := NewFrame(0x14EBC01F, []byte{0xAB, 0x01})
	if got := string(FormatSLCAN(f)); got != "T14EBC01F2AB01\r" {
		t.Fatalf("got %q", got)
	}

	empty, _ := NewFrame(0x14EBC026, nil)
	if got := string(FormatSLCAN(empty)); got != "T14EBC0260\r" {
		t.Fatalf("got %q", got)
	}

	std := Frame{ID: 0x123, Len: 1, Data: [8]byte{0xFF}}
	if got := string(FormatSLCAN(std)); got != "t1231FF\r" {
		t.Fatalf("got %q", got)
	}
}

func TestParseSLCAN(t *testing.T) {
	f, err := ParseSLCAN([]byte("T14EBC01F2AB01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ID != 0x14EBC01F || !f.Extended || f.Len != 2 || f.Data[0] != 0xAB || f.Data[1] != 0x01 {
		t.Fatalf("bad frame: %+v", f)
	}

	// timestamped
	if _, err := ParseSLCAN([]byte("T14EBC01F2AB011A2B")); err != nil {
		t.Fatalf("timestamp suffix rejected: %v", err)
	}

	for _, bad := range []string{"", "z", "T14EBC01", "T14EBC01F9", "T14EBC01F2AB", "T14EBC01F2ZZ01", "r1230"} {
		if _, err := ParseSLCAN([]byte(bad)); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestSLCAN_RoundTrip(t *testing.T) {
	for _, id := range []uint32{0, 0x14EBC000, 0x1FFFFFFF} {
		in, _ := NewFrame(id, []byte{9, 8, 7, 6, 5, 4, 3, 2})
		line := FormatSLCAN(in)
		out, err := ParseSLCAN(line[:len(line)-1])
		if err != nil {
			t.Fatalf("id %X: %v", id, err)
		}
		if out != in {
			t.Fatalf("id %X: %+v != %+v", id, out, in)
		}
	}
}

// ---- fake serial port ----

type fakePort struct {
	r *io.PipeReader

	mu      sync.Mutex
	written bytes.Buffer
}

func (p *fakePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakePort) Close() error { return p.r.Close() }

func (p *fakePort) output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func TestSLCAN_BusOverPort(t *testing.T) {
	pr, pw := io.Pipe()
	port := &fakePort{r: pr}
	bus := newSLCAN(port)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go pw.Write([]byte("\r\aT14EBC0201AA\r"))

	f, err := bus.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f.ID != 0x14EBC020 || f.Len != 1 || f.Data[0] != 0xAA {
		t.Fatalf("bad frame: %+v", f)
	}

	out, _ := NewFrame(0x14EBC025, []byte{1})
	if err := bus.Send(ctx, out); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := port.output(); got != "T14EBC025101\r" {
		t.Fatalf("written %q", got)
	}
}

func TestSLCAN_ClosedBus(t *testing.T) {
	pr, _ := io.Pipe()
	bus := newSLCAN(&fakePort{r: pr})
	bus.Close()

	f, _ := NewFrame(1, nil)
	if err := bus.Send(context.Background(), f); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestLoopback(t *testing.T) {
	seg := NewLoopback()
	a, b, c := seg.Open(), seg.Open(), seg.Open()
	defer a.Close()
	defer b.Close()

	c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	f, _ := NewFrame(0x14EBC01F, []byte{1, 2})
	if err := a.Send(ctx, f); err != nil {
		t.Fatalf("send: %v", err)
	}

	got, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if got != f {
		t.Fatalf("got %+v", got)
	}

	// sender does not hear itself
	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	if _, err := a.Receive(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}

	if err := c.Send(ctx, f); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed endpoint: expected ErrClosed, got %v", err)
	}
}
