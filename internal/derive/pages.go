// internal/derive/pages.go
package derive

import "github.com/tamzrod/evms-monitor/internal/protocol"

// Cycle steps from cur in direction dir (+1/-1) over n slots, wrapping at
// both ends, and returns the first slot avail accepts. When a full lap
// finds nothing, fallback is returned.
func Cycle(cur, n, dir int, avail func(int) bool, fallback int) int {
	if dir == 0 || n <= 0 {
		return cur
	}
	if dir > 0 {
		dir = 1
	} else {
		dir = -1
	}
	i := cur
	for step := 0; step < n; step++ {
		i = ((i+dir)%n + n) % n
		if avail(i) {
			return i
		}
	}
	return fallback
}

// ---- PAGES ----

// Page is one of the operator's telemetry pages.
type Page uint8

const (
	PageCore Page = iota
	PageMC
	PageCharger
	PageBMSSummary
	PageBMSDetails
	NumPages
)

func (p Page) String() string {
	switch p {
	case PageCore:
		return "core"
	case PageMC:
		return "motor-controller"
	case PageCharger:
		return "charger"
	case PageBMSSummary:
		return "bms-summary"
	case PageBMSDetails:
		return "bms-details"
	}
	return "unknown"
}

// Facts is what page availability depends on.
type Facts struct {
	CoreSeen    bool
	CurrentSeen bool
	MCSeen      bool
	ChargerSeen bool
	NumCells    int
	BMS16       bool
	ShuntSize   uint8
}

// CoreReplaced reports whether a BMS16 without any current measurement
// shows the BMS summary in place of the core page.
func (f Facts) CoreReplaced() bool {
	return f.BMS16 && f.ShuntSize == 0 && !f.CurrentSeen
}

// Available is the page predicate list.
func (f Facts) Available(p Page) bool {
	switch p {
	case PageCore:
		return f.CoreSeen && !f.CoreReplaced()
	case PageMC:
		return f.MCSeen
	case PageCharger:
		return f.ChargerSeen
	case PageBMSSummary, PageBMSDetails:
		return f.NumCells > 0
	}
	return false
}

// Navigate moves one page in direction dir, skipping unavailable pages.
// With no page available it falls back to the core page.
func Navigate(cur Page, dir int, f Facts) Page {
	return Page(Cycle(int(cur), int(NumPages), dir, func(i int) bool {
		return f.Available(Page(i))
	}, int(PageCore)))
}

// Resolve applies the forced page rules to the current selection.
func Resolve(cur Page, f Facts) Page {
	if cur == PageCore && f.CoreReplaced() {
		return PageBMSSummary
	}
	return cur
}

// ---- STARTUP ----

// Grace ticks after power-on before a data source may end the startup
// screen.
const (
	CoreStartupGrace = 10
	MCStartupGrace   = 2
	GraceLimit       = 100
)

// EndStartup decides whether the startup screen is over. The core wins
// over the motor controller; when the motor controller ends startup the
// MC page is forced.
func EndStartup(f Facts, grace int) (done bool, page Page, force bool) {
	switch {
	case f.CoreSeen && grace > CoreStartupGrace:
		return true, PageCore, false
	case f.MCSeen && grace > MCStartupGrace:
		return true, PageMC, true
	}
	return false, PageCore, false
}

// FullCoreView reports whether the core page has current data to show;
// otherwise the reduced layout without current and power is used.
func FullCoreView(f Facts, grace int) bool {
	return (f.CurrentSeen && grace >= CoreStartupGrace) || f.BMS16
}

// ---- VIEW PRECEDENCE ----

// View is what fills the screen.
type View uint8

const (
	ViewPage View = iota
	ViewOptions
	ViewStartup
	ViewError
	ViewSetup
)

func (v View) String() string {
	switch v {
	case ViewOptions:
		return "options"
	case ViewStartup:
		return "startup"
	case ViewError:
		return "error"
	case ViewSetup:
		return "setup"
	}
	return "page"
}

// ViewInput is the UI state view selection depends on.
type ViewInput struct {
	Setup      bool
	Fault      protocol.Fault
	Stationary bool
	Startup    bool
	Options    bool
}

// FaultShown reports whether a fault interrupts the operator. In
// stationary mode cell low/high warnings only colour the title bar.
func FaultShown(f protocol.Fault, stationary bool) bool {
	if f == protocol.NoFault {
		return false
	}
	if stationary && (f == protocol.BMSLowWarning || f == protocol.BMSHighWarning) {
		return false
	}
	return true
}

// SelectView picks the first matching view, highest precedence first.
func SelectView(in ViewInput) View {
	switch {
	case in.Setup:
		return ViewSetup
	case FaultShown(in.Fault, in.Stationary):
		return ViewError
	case in.Startup:
		return ViewStartup
	case in.Options:
		return ViewOptions
	}
	return ViewPage
}

// ---- MODULES & SETTINGS PAGES ----

// NextModule steps to the next configured module, staying put when no
// other module is configured.
func NextModule(cur, dir int, counts [protocol.MaxModules]uint8) int {
	return Cycle(cur, protocol.MaxModules, dir, func(i int) bool {
		return counts[i] > 0
	}, cur)
}

// SettingsPage is one page of the setup screen.
type SettingsPage uint8

const (
	SettingsGeneral SettingsPage = iota
	SettingsMC
	SettingsPack
	NumSettingsPages
)

// NextSettingsPage steps the setup screen. The MC page needs a motor
// controller; pack setup is replaced by Num Cells on BMS16 hardware.
func NextSettingsPage(cur SettingsPage, dir int, mcPresent, bms16 bool) SettingsPage {
	return SettingsPage(Cycle(int(cur), int(NumSettingsPages), dir, func(i int) bool {
		switch SettingsPage(i) {
		case SettingsMC:
			return mcPresent
		case SettingsPack:
			return !bms16
		}
		return true
	}, int(SettingsGeneral)))
}
