// internal/peers/table.go
package peers

import (
	"fmt"

	"github.com/tamzrod/evms-monitor/internal/protocol"
)

// Timeout budgets in slow ticks (4 Hz).
const (
	CoreBudget    = 4  // 1 s
	CurrentBudget = 4  // 1 s
	MCBudget      = 4  // 1 s
	ModuleBudget  = 8  // 2 s
	ChargerBudget = 12 // 3 s
)

// Kind names the peer families.
type Kind uint8

const (
	KindCore Kind = iota
	KindCurrent
	KindMC
	KindModule
	KindCharger
)

// Peer identifies one channel of the table.
type Peer struct {
	Kind  Kind
	Index int
}

func (p Peer) String() string {
	switch p.Kind {
	case KindCore:
		return "core"
	case KindCurrent:
		return "current-sensor"
	case KindMC:
		return "motor-controller"
	case KindModule:
		return fmt.Sprintf("module-%d", p.Index)
	case KindCharger:
		return fmt.Sprintf("charger-%d", p.Index+1)
	}
	return "unknown"
}

// Event is a channel transition produced by a refresh or an aging pass.
type Event struct {
	Peer       Peer
	Transition Transition
}

// Module is one BMS module's last reported readings.
type Module struct {
	Channel
	Cells [protocol.CellsPerModule]uint16 // mV
	Temps [2]uint8                        // degC + 40, 0 = no sensor
}

// Charger holds both directions of one TC charger's traffic.
type Charger struct {
	Channel
	Report  protocol.ChargerReport  // from the charger
	Command protocol.ChargerCommand // to the charger, as seen on the bus
}

// Table is every tracked peer of the bus. It has a single writer.
type Table struct {
	Core       Channel
	CoreStatus protocol.CoreStatus

	CurrentSensor Channel
	current       int32 // mA

	MC                 Channel
	MCStatus           protocol.MCStatus
	MCSettings         protocol.MCSettings
	MCSettingsReceived bool

	Modules  [protocol.MaxModules]Module
	Chargers [protocol.MaxChargers]Charger

	// Sticky for the session.
	BMS16       bool
	BMS12i      bool
	NumChargers int
}

// NewTable returns a table at power-on. The core channel is armed so a
// silent core expires after its budget.
func NewTable() *Table {
	t := &Table{
		Core:          NewChannel(CoreBudget),
		CurrentSensor: NewChannel(CurrentBudget),
		MC:            NewChannel(MCBudget),
		NumChargers:   1,
	}
	t.Core.Arm()
	for i := range t.Modules {
		t.Modules[i].Channel = NewChannel(ModuleBudget)
	}
	for i := range t.Chargers {
		t.Chargers[i].Channel = NewChannel(ChargerBudget)
	}
	return t
}

// ---- ACCESSORS ----

// Current returns the pack current in mA and whether it is fresh.
// A stale sensor reads as zero.
func (t *Table) Current() (int32, bool) {
	if !t.CurrentSensor.Live() {
		return 0, false
	}
	return t.current, true
}

func (t *Table) SetCurrent(mA int32) Transition {
	t.current = mA
	return t.CurrentSensor.Refresh()
}

// ChargerReport returns charger n's report. A stale charger reads as zero
// output with cleared status.
func (t *Table) ChargerReport(n int) (protocol.ChargerReport, bool) {
	c := &t.Chargers[n]
	if !c.Live() {
		return protocol.ChargerReport{Temp: c.Report.Temp}, false
	}
	return c.Report, true
}

// AnyChargerSeen reports whether a charger has ever reported.
func (t *Table) AnyChargerSeen() bool {
	for i := range t.Chargers {
		if t.Chargers[i].EverReceived {
			return true
		}
	}
	return false
}

// MCType returns the detected motor controller type, MCNone if none has
// ever been heard.
func (t *Table) MCType() uint8 {
	if !t.MC.EverReceived {
		return protocol.MCNone
	}
	return t.MCStatus.Type
}

// ---- AGING ----

// Age runs one slow tick over every channel and returns the channels that
// expired on this tick. Expired current and charger readings are cleared.
func (t *Table) Age() []Event {
	var events []Event

	if t.Core.Age() == Expired {
		events = append(events, Event{Peer{Kind: KindCore}, Expired})
	}
	if t.CurrentSensor.Age() == Expired {
		t.current = 0
		events = append(events, Event{Peer{Kind: KindCurrent}, Expired})
	}
	if t.MC.Age() == Expired {
		events = append(events, Event{Peer{Kind: KindMC}, Expired})
	}
	for i := range t.Modules {
		if t.Modules[i].Age() == Expired {
			events = append(events, Event{Peer{KindModule, i}, Expired})
		}
	}
	for i := range t.Chargers {
		c := &t.Chargers[i]
		if c.Age() == Expired {
			c.Report.InstVoltage = 0
			c.Report.InstCurrent = 0
			c.Report.Status = 0
			events = append(events, Event{Peer{KindCharger, i}, Expired})
		}
	}
	return events
}
