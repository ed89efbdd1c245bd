// internal/canbus/logged.go
package canbus

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMode selects which directions are traced.
type LogMode uint8

const (
	LogRead LogMode = 1 << iota
	LogWrite
)

// Logged wraps a Bus and traces frames at debug level.
type Logged struct {
	Bus
	log  zerolog.Logger
	mode LogMode
}

func WithLogging(b Bus, log zerolog.Logger, mode LogMode) *Logged {
	return &Logged{Bus: b, log: log.With().Str("component", "canbus").Logger(), mode: mode}
}

func (l *Logged) Send(ctx context.Context, f Frame) error {
	err := l.Bus.Send(ctx, f)
	if err != nil {
		l.log.Warn().Err(err).Stringer("frame", f).Msg("send failed")
		return err
	}
	if l.mode&LogWrite != 0 {
		l.log.Debug().Stringer("frame", f).Msg("tx")
	}
	return nil
}

func (l *Logged) Receive(ctx context.Context) (Frame, error) {
	f, err := l.Bus.Receive(ctx)
	if err == nil && l.mode&LogRead != 0 {
		l.log.Debug().Stringer("frame", f).Msg("rx")
	}
	return f, err
}
