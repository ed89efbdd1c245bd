// internal/monitor/faults.go
package monitor

import (
	"github.com/tamzrod/evms-monitor/internal/command"
	"github.com/tamzrod/evms-monitor/internal/display"
	"github.com/tamzrod/evms-monitor/internal/protocol"
)

// setError changes the active fault. A change always wakes the display
// (without saving that), closes the options overlay and re-arms the
// alert repeats. Local faults are latched until acknowledged on this
// monitor so core status frames cannot overwrite them.
func (s *System) setError(f protocol.Fault, local bool) {
	if f == s.fault {
		return
	}
	prev := s.fault
	s.fault = f
	s.localFault = local && f != protocol.NoFault
	s.errorTicks = 0

	s.redraw.Store(true)
	s.ui.options = false
	s.ui.displayOn = true
	s.updateBacklight()
	s.alertBudget = display.AlertRepeats

	if f == protocol.NoFault {
		s.log.Info().Stringer("cleared", prev).Msg("fault cleared")
		return
	}
	s.log.Warn().
		Stringer("fault", f).
		Uint8("code", uint8(f)).
		Bool("local", s.localFault).
		Msg("fault raised")
}

// adoptCoreFault mirrors the fault reported by the core unless a local
// fault is latched. A core that went quiet no longer owns the overlay.
func (s *System) adoptCoreFault() {
	if s.localFault {
		return
	}
	if !s.peers.Core.Live() {
		if s.peers.Core.EverReceived && s.fault != protocol.NoFault {
			s.setError(protocol.NoFault, false)
		}
		return
	}
	f := s.peers.CoreStatus.Fault
	if f >= protocol.CoreCommsError {
		return
	}
	s.setError(f, false)
}

// acknowledge handles a tap on the warning overlay.
func (s *System) acknowledge() {
	if s.localFault {
		s.setError(protocol.NoFault, false)
		return
	}
	s.cmds.Set(command.AckError)
	s.redraw.Store(true)
}
