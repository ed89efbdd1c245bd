// internal/monitor/snapshot.go
package monitor

import (
	"math"

	"github.com/tamzrod/evms-monitor/internal/derive"
	"github.com/tamzrod/evms-monitor/internal/peers"
	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/settings"
	"github.com/tamzrod/evms-monitor/internal/status"
)

// Snapshot captures the monitor for export. Values of stale sources are
// exported as zero, the same way the screen shows placeholders.
func (s *System) Snapshot() status.Snapshot {
	p := s.peers
	snap := status.Snapshot{
		LastErrorCode:  uint16(s.fault),
		SecondsInError: sat16(s.errorTicks / SlowTickRate),
		CoreState:      uint16(p.CoreStatus.State),

		CoreHealth:    status.PeerHealth(p.Core.State()),
		CurrentHealth: status.PeerHealth(p.CurrentSensor.State()),
		MCHealth:      status.PeerHealth(p.MC.State()),
		ChargerHealth: chargerHealth(p),

		RxDropped: sat16(int(min(s.dropped.Load(), math.MaxUint16))),
	}

	switch {
	case s.fault != protocol.NoFault:
		snap.Health = status.HealthError
	default:
		snap.Health = snap.CoreHealth
	}

	for m, n := range s.settings.Cells {
		if n == 0 {
			continue
		}
		if p.Modules[m].Live() {
			snap.ModulesLive++
		} else if p.Modules[m].EverReceived {
			snap.ModulesStale++
		}
	}

	if p.Core.Live() {
		st := p.CoreStatus
		capacity := s.settings.Get(settings.PackCapacity)
		snap.PackVoltage = st.PackVoltage
		snap.SoC = uint16(derive.StateOfCharge(int(st.AmpHours), capacity))
		snap.AmpHours = st.AmpHours
		snap.Temperature = uint16(st.Temperature)
		if !st.IsBMS16() {
			snap.AuxVoltage = uint16(st.AuxVoltage)
		}
	}

	if mA, live := p.Current(); live {
		c := derive.CurrentTenths(mA, false)
		snap.Current = int16(clamp(c, math.MinInt16, math.MaxInt16))
		snap.Power = sat16(int(derive.PackPower(snap.PackVoltage, mA)))
	}

	sum := derive.Summarize(&p.Modules, s.settings.Cells)
	snap.Cells = uint16(sum.Cells)
	if sum.Reporting > 0 {
		snap.CellMin = sum.Min
		snap.CellMax = sum.Max
		snap.CellAvg = uint16(sum.Avg)
		snap.MinAt = status.CellRef(sum.MinAt.Module, sum.MinAt.Cell)
		snap.MaxAt = status.CellRef(sum.MaxAt.Module, sum.MaxAt.Cell)
	}

	return snap
}

// chargerHealth is OK when any charger is live, stale when one went
// quiet, unknown when none was ever heard.
func chargerHealth(p *peers.Table) uint16 {
	h := status.HealthUnknown
	for i := range p.Chargers {
		switch p.Chargers[i].State() {
		case peers.Live:
			return status.HealthOK
		case peers.Stale:
			h = status.HealthStale
		}
	}
	return h
}

func sat16(v int) uint16 {
	return uint16(clamp(v, 0, math.MaxUint16))
}
