// internal/router/router.go
package router

import (
	"github.com/tamzrod/evms-monitor/internal/peers"
	"github.com/tamzrod/evms-monitor/internal/protocol"
)

// Target is what a classified identifier feeds.
type Target uint8

const (
	Drop Target = iota
	ModuleCells
	ModuleTemps
	CoreStatus
	CurrentSensor
	MCStatus
	MCSettings
	ChargerCommand
	ChargerReport
)

func (t Target) String() string {
	switch t {
	case ModuleCells:
		return "module-cells"
	case ModuleTemps:
		return "module-temps"
	case CoreStatus:
		return "core-status"
	case CurrentSensor:
		return "current-sensor"
	case MCStatus:
		return "mc-status"
	case MCSettings:
		return "mc-settings"
	case ChargerCommand:
		return "charger-command"
	case ChargerReport:
		return "charger-report"
	default:
		return "drop"
	}
}

// Route is the classification of one identifier.
type Route struct {
	Target Target
	Index  int // module or charger index
	Group  int // cell group 0-2 for ModuleCells
}

// moduleBlockEnd is one stride past the last tracked module.
const moduleBlockEnd = protocol.BMSBaseID + protocol.MaxModules*protocol.BMSStride + protocol.BMSStride

// Classify maps an identifier to its route. Identifiers inside the module
// block but outside a tracked module or sub-message are dropped.
func Classify(id uint32) Route {
	if id >= protocol.BMSBaseID && id < moduleBlockEnd {
		off := id - protocol.BMSBaseID
		module := off / protocol.BMSStride
		sub := off - module*protocol.BMSStride
		if module >= protocol.MaxModules {
			return Route{}
		}
		switch sub {
		case protocol.BMSReply1, protocol.BMSReply2, protocol.BMSReply3:
			return Route{Target: ModuleCells, Index: int(module), Group: int(sub - protocol.BMSReply1)}
		case protocol.BMSReply4:
			return Route{Target: ModuleTemps, Index: int(module)}
		}
		return Route{}
	}

	switch id {
	case protocol.CoreBroadcastStatus:
		return Route{Target: CoreStatus}
	case protocol.CurrentSensorID:
		return Route{Target: CurrentSensor}
	case protocol.MCStatusID:
		return Route{Target: MCStatus}
	case protocol.MCSendSettingsID:
		return Route{Target: MCSettings}
	}
	for n := 0; n < protocol.MaxChargers; n++ {
		switch id {
		case protocol.ChargerCommandIDs[n]:
			return Route{Target: ChargerCommand, Index: n}
		case protocol.ChargerReportIDs[n]:
			return Route{Target: ChargerReport, Index: n}
		}
	}
	return Route{}
}

// Result describes what one frame did to the table.
type Result struct {
	Route      Route
	Handled    bool // the frame was decoded and stored
	Transition peers.Transition
	Redraw     bool // the view must be redrawn in full
}

// Event returns the channel transition caused by the frame, if any.
func (r Result) Event() (peers.Event, bool) {
	if r.Transition == peers.NoChange {
		return peers.Event{}, false
	}
	var p peers.Peer
	switch r.Route.Target {
	case ModuleCells, ModuleTemps:
		p = peers.Peer{Kind: peers.KindModule, Index: r.Route.Index}
	case CoreStatus:
		p = peers.Peer{Kind: peers.KindCore}
	case CurrentSensor:
		p = peers.Peer{Kind: peers.KindCurrent}
	case MCStatus:
		p = peers.Peer{Kind: peers.KindMC}
	case ChargerReport:
		p = peers.Peer{Kind: peers.KindCharger, Index: r.Route.Index}
	default:
		return peers.Event{}, false
	}
	return peers.Event{Peer: p, Transition: r.Transition}, true
}

// Dispatch decodes one frame into the table. Unknown identifiers and short
// payloads leave the table untouched.
func Dispatch(t *peers.Table, id uint32, data []byte) Result {
	res := Result{Route: Classify(id)}

	switch res.Route.Target {
	case ModuleCells:
		cells, err := protocol.DecodeCellGroup(data)
		if err != nil {
			return res
		}
		m := &t.Modules[res.Route.Index]
		copy(m.Cells[res.Route.Group*protocol.CellsPerGroup:], cells[:])
		res.Transition = m.Refresh()
		if res.Route.Index == 0 && res.Route.Group == 2 && t.BMS16 {
			// Only the BMS12i sends a third group for the first board.
			t.BMS12i = true
		}

	case ModuleTemps:
		temps, err := protocol.DecodeModuleTemps(data)
		if err != nil {
			return res
		}
		m := &t.Modules[res.Route.Index]
		m.Temps = temps
		res.Transition = m.Refresh()

	case CoreStatus:
		s, err := protocol.DecodeCoreStatus(data)
		if err != nil {
			return res
		}
		if s.State != t.CoreStatus.State {
			res.Redraw = true
		}
		t.CoreStatus = s
		if s.IsBMS16() {
			t.BMS16 = true
		}
		res.Transition = t.Core.Refresh()

	case CurrentSensor:
		mA, err := protocol.DecodeCurrent(data)
		if err != nil {
			return res
		}
		res.Transition = t.SetCurrent(mA)
		if res.Transition == peers.CameUp {
			res.Redraw = true
		}

	case MCStatus:
		s, err := protocol.DecodeMCStatus(data)
		if err != nil {
			return res
		}
		t.MCStatus = s
		res.Transition = t.MC.Refresh()

	case MCSettings:
		s, err := protocol.DecodeMCSettings(data)
		if err != nil {
			return res
		}
		t.MCSettings = s
		t.MCSettingsReceived = true

	case ChargerCommand:
		c, err := protocol.DecodeChargerCommand(data)
		if err != nil {
			return res
		}
		t.Chargers[res.Route.Index].Command = c

	case ChargerReport:
		r, err := protocol.DecodeChargerReport(data)
		if err != nil {
			return res
		}
		ch := &t.Chargers[res.Route.Index]
		ch.Report = r
		res.Transition = ch.Refresh()
		if n := res.Route.Index + 1; n > t.NumChargers {
			t.NumChargers = n
		}

	default:
		return res
	}

	res.Handled = true
	return res
}
