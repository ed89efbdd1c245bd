// internal/status/snapshot.go
package status

import "github.com/tamzrod/evms-monitor/internal/peers"

// Snapshot represents exactly what the exporters are allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
	CoreState      uint16

	CoreHealth    uint16
	CurrentHealth uint16
	MCHealth      uint16
	ChargerHealth uint16
	ModulesLive   uint16
	ModulesStale  uint16

	PackVoltage uint16
	Current     int16
	Power       uint16
	SoC         uint16
	AmpHours    int16
	AuxVoltage  uint16
	Temperature uint16

	Cells   uint16
	CellMin uint16
	CellMax uint16
	CellAvg uint16
	MinAt   uint16
	MaxAt   uint16

	RxDropped uint16
}

// PeerHealth maps a channel state onto a health code.
func PeerHealth(s peers.State) uint16 {
	switch s {
	case peers.Live:
		return HealthOK
	case peers.Stale:
		return HealthStale
	}
	return HealthUnknown
}

// CellRef packs a module/cell position into one register.
func CellRef(module, cell int) uint16 {
	return uint16(module)<<8 | uint16(cell)&0xFF
}
