// internal/canbus/loopback.go
package canbus

import (
	"context"
	"sync"
)

// Loopback is an in-memory bus segment. Every frame sent by one endpoint
// is delivered to all other endpoints.
type Loopback struct {
	mu        sync.Mutex
	endpoints map[*LoopbackEndpoint]struct{}
}

func NewLoopback() *Loopback {
	return &Loopback{endpoints: make(map[*LoopbackEndpoint]struct{})}
}

// Open attaches a new endpoint.
func (l *Loopback) Open() *LoopbackEndpoint {
	ep := &LoopbackEndpoint{
		seg:    l,
		rx:     make(chan Frame, 64),
		closed: make(chan struct{}),
	}
	l.mu.Lock()
	l.endpoints[ep] = struct{}{}
	l.mu.Unlock()
	return ep
}

func (l *Loopback) deliver(ctx context.Context, from *LoopbackEndpoint, f Frame) error {
	l.mu.Lock()
	peers := make([]*LoopbackEndpoint, 0, len(l.endpoints))
	for ep := range l.endpoints {
		if ep != from {
			peers = append(peers, ep)
		}
	}
	l.mu.Unlock()

	for _, ep := range peers {
		select {
		case ep.rx <- f:
		case <-ep.closed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// LoopbackEndpoint is one node's Bus on a Loopback segment.
type LoopbackEndpoint struct {
	seg    *Loopback
	rx     chan Frame
	closed chan struct{}
	once   sync.Once
}

func (e *LoopbackEndpoint) Send(ctx context.Context, f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	select {
	case <-e.closed:
		return ErrClosed
	default:
	}
	return e.seg.deliver(ctx, e, f)
}

func (e *LoopbackEndpoint) Receive(ctx context.Context) (Frame, error) {
	select {
	case f := <-e.rx:
		return f, nil
	case <-e.closed:
		return Frame{}, ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (e *LoopbackEndpoint) Close() error {
	e.once.Do(func() {
		close(e.closed)
		e.seg.mu.Lock()
		delete(e.seg.endpoints, e)
		e.seg.mu.Unlock()
	})
	return nil
}
