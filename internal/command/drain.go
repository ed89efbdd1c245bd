// internal/command/drain.go
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/evms-monitor/internal/canbus"
)

// Transmitter is the send side of the bus.
type Transmitter interface {
	Send(ctx context.Context, f canbus.Frame) error
}

// Drainer turns the pending command into bus traffic.
type Drainer struct {
	Queue   *Queue
	Bus     Transmitter
	Persist func() error
	Log     zerolog.Logger

	// Sleep waits out the settle time after a frame. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Drain executes the pending command, if any. The slot is cleared only
// when every step succeeded; a failed send stops the transaction before
// anything is persisted and leaves the command pending for the next pass.
func (d *Drainer) Drain(ctx context.Context, src Source) (Kind, error) {
	k := d.Queue.Pending()
	if k == None {
		return None, nil
	}

	for i, st := range Plan(k, src) {
		if err := d.run(ctx, st, src); err != nil {
			return k, fmt.Errorf("command: %s step %d: %w", k, i, err)
		}
	}

	d.Queue.Clear(k)
	d.Log.Info().Stringer("command", k).Msg("command sent")
	return k, nil
}

func (d *Drainer) run(ctx context.Context, st Step, src Source) error {
	switch st.Op {
	case OpSend:
		f, err := canbus.NewFrame(st.ID, st.Data)
		if err != nil {
			return err
		}
		if err := d.Bus.Send(ctx, f); err != nil {
			return err
		}
		if st.Settle > 0 {
			return d.sleep(ctx, st.Settle)
		}
		return nil

	case OpRewriteCells:
		src.Settings.ApplyVariantCells(src.Variant)
		return nil

	case OpPersist:
		if d.Persist == nil {
			return nil
		}
		if err := d.Persist(); err != nil {
			return err
		}
		d.Log.Info().Msg("settings persisted")
		return nil
	}
	return fmt.Errorf("unknown op %d", st.Op)
}

func (d *Drainer) sleep(ctx context.Context, dur time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, dur)
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
