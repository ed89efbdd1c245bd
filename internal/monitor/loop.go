// internal/monitor/loop.go
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/evms-monitor/internal/canbus"
	"github.com/tamzrod/evms-monitor/internal/derive"
	"github.com/tamzrod/evms-monitor/internal/display"
	"github.com/tamzrod/evms-monitor/internal/peers"
	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/router"
	"github.com/tamzrod/evms-monitor/internal/settings"
	"github.com/tamzrod/evms-monitor/internal/status"
)

// Run owns the monitor until ctx ends or the bus fails. One goroutine
// receives frames, one delivers exports, and the calling goroutine does
// everything else.
func (s *System) Run(ctx context.Context) error {
	go s.receive(ctx)
	if len(s.opts.Exporters) > 0 {
		go s.exportLoop(ctx)
	}

	ticker := time.NewTicker(UITick)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-s.rxErr:
			return err

		case f := <-s.rx:
			s.handleFrame(f)

		case now := <-ticker.C:
			s.tick(ctx, now.Sub(last))
			last = now
		}
	}
}

// receive moves frames from the bus into the bounded queue. It never
// blocks on the consumer: a full queue drops the frame.
func (s *System) receive(ctx context.Context) {
	for {
		f, err := s.opts.Bus.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				s.rxErr <- err
			}
			return
		}

		select {
		case s.rx <- f:
		default:
			if n := s.dropped.Add(1); n == 1 || n%1000 == 0 {
				s.log.Warn().Uint64("dropped", n).Msg("receive queue full, dropping frames")
			}
		}
	}
}

// handleFrame applies one frame to the peer table.
func (s *System) handleFrame(f canbus.Frame) {
	res := router.Dispatch(s.peers, f.ID, f.Payload())
	if !res.Handled {
		return
	}
	if res.Redraw {
		s.redraw.Store(true)
	}
	if ev, ok := res.Event(); ok {
		s.logEvent(ev)
		if ev.Transition == peers.CameUp {
			s.redraw.Store(true)
		}
	}
}

func (s *System) logEvent(ev peers.Event) {
	e := s.log.Info()
	if ev.Transition == peers.Expired {
		e = s.log.Warn()
	}
	e.Stringer("peer", ev.Peer).Stringer("transition", ev.Transition).Msg("peer channel")
}

// ------------------------------------------------------------
// UI tick (30 Hz)
// ------------------------------------------------------------

func (s *System) tick(ctx context.Context, elapsed time.Duration) {
	slow := false
	s.acc += elapsed
	for s.acc >= SlowTick {
		s.acc -= SlowTick
		s.slowTick()
		slow = true
	}

	s.drain(ctx, slow)

	s.adoptCoreFault()
	s.advancePages()

	x, y, down := s.opts.Pointer.Poll()
	s.handleTouch(s.touch.Sample(x, y, down))

	s.buzzer.Enabled = s.settings.Bool(settings.BuzzerOn)
	s.buzzer.Tick(s.view() == derive.ViewError, &s.alertBudget)

	s.updateBacklight()
	s.backlight.Fade(!s.painted)

	if s.redraw.Swap(false) || slow {
		s.render()
	}
	if slow {
		s.export(s.Snapshot())
	}
}

// drain sends the pending command. After a failed send the command is
// retried on slow ticks only, and only the first failure is a warning.
func (s *System) drain(ctx context.Context, slow bool) {
	if s.drainHeld && !slow {
		return
	}
	k, err := s.drainer.Drain(ctx, s.commandSource())
	switch {
	case err == nil:
		s.drainHeld = false
	case !s.drainHeld:
		s.drainHeld = true
		s.log.Warn().Err(err).Stringer("command", k).Msg("command left pending, retrying on slow ticks")
	default:
		s.log.Debug().Err(err).Stringer("command", k).Msg("command retry failed")
	}
}

// advancePages ends the startup screen and applies forced pages.
func (s *System) advancePages() {
	f := s.facts()
	if s.ui.startup {
		if done, page, _ := derive.EndStartup(f, s.grace); done {
			s.ui.startup = false
			s.ui.page = page
			s.redraw.Store(true)
			s.log.Info().Stringer("page", page).Msg("startup complete")
		}
	}
	if p := derive.Resolve(s.ui.page, f); p != s.ui.page {
		s.ui.page = p
		s.redraw.Store(true)
	}
}

// ------------------------------------------------------------
// slow tick (4 Hz)
// ------------------------------------------------------------

func (s *System) slowTick() {
	if s.grace < derive.GraceLimit {
		s.grace++
	}

	for _, ev := range s.peers.Age() {
		s.logEvent(ev)
		switch ev.Peer.Kind {
		case peers.KindCore:
			// A motor controller alone is a valid installation.
			if !s.peers.MC.EverReceived {
				s.setError(protocol.CoreCommsError, true)
			} else {
				s.redraw.Store(true)
			}
		case peers.KindCurrent, peers.KindCharger, peers.KindMC:
			s.redraw.Store(true)
		}
	}

	if s.fault == protocol.CoreCommsError && s.peers.Core.Live() {
		s.setError(protocol.NoFault, false)
	}

	if s.fault != protocol.NoFault {
		s.errorTicks++
	}
}

// ------------------------------------------------------------
// output
// ------------------------------------------------------------

func (s *System) updateBacklight() {
	headlights := s.peers.Core.Live() && s.peers.CoreStatus.Headlights
	s.backlight.Target = display.TargetFor(
		s.ui.displayOn,
		s.ui.dimmed,
		headlights,
		s.settings.Get(settings.NightBrightness),
	)
}

func (s *System) scene() *display.Scene {
	f := s.facts()
	return &display.Scene{
		View:         s.view(),
		Page:         s.ui.page,
		Facts:        f,
		Grace:        s.grace,
		Peers:        s.peers,
		Settings:     s.settings,
		Schema:       s.schema(),
		Summary:      derive.Summarize(&s.peers.Modules, s.settings.Cells),
		Fault:        s.fault,
		Module:       s.ui.module,
		SetupPage:    s.ui.setupPage,
		Param:        s.ui.param,
		MCParam:      s.ui.mcParam,
		SetupModule:  s.ui.setupModule,
		SetupAllowed: s.setupAllowed(),
		Pressed:      s.pressed,
	}
}

func (s *System) render() {
	if s.opts.Surface == nil {
		s.painted = true
		return
	}
	s.opts.Renderer.Draw(s.opts.Surface, s.scene())
	if fl, ok := s.opts.Surface.(display.Flusher); ok {
		if err := fl.Flush(); err != nil {
			s.log.Warn().Err(err).Msg("display flush failed")
		}
	}
	s.painted = true
}

// export hands the latest snapshot to the export goroutine, replacing
// one that was not picked up yet.
func (s *System) export(snap status.Snapshot) {
	if len(s.opts.Exporters) == 0 {
		return
	}
	select {
	case <-s.exports:
	default:
	}
	s.exports <- snap
}

func (s *System) exportLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-s.exports:
			for _, x := range s.opts.Exporters {
				if err := x.Export(ctx, snap); err != nil {
					s.log.Warn().Err(err).Msg("export failed")
				}
			}
		}
	}
}
