// internal/derive/derive_test.go
package derive

import (
	"testing"

	"github.com/tamzrod/evms-monitor/internal/peers"
	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/settings"
)

func TestPackPower(t *testing.T) {
	// 320.0V x 50.0A = 16.0kW
	if got := PackPower(3200, 50000); got != 160 {
		t.Fatalf("expected 160, got %d", got)
	}
	if got := PackPower(3200, -50000); got != 160 {
		t.Fatalf("discharge must be absolute, got %d", got)
	}
}

func TestStateOfCharge_IdempotentAndClamped(t *testing.T) {
	// 100Ah pack (20 x 5), 50.0Ah remaining
	first := StateOfCharge(500, 20)
	for i := 0; i < 5; i++ {
		if got := StateOfCharge(500, 20); got != first {
			t.Fatalf("call %d: %d != %d", i, got, first)
		}
	}
	if first != 50 {
		t.Fatalf("expected 50, got %d", first)
	}

	if got := StateOfCharge(-300, 20); got != 0 {
		t.Fatalf("negative ah must clamp to 0, got %d", got)
	}
	if got := StateOfCharge(5000, 20); got != 100 {
		t.Fatalf("overfull must clamp to 100, got %d", got)
	}
	if got := StateOfCharge(500, 0); got != 0 {
		t.Fatalf("zero capacity must read 0, got %d", got)
	}
}

func TestStateOfCharge_OverdrawnCoreFrame(t *testing.T) {
	st, err := protocol.DecodeCoreStatus([]byte{0, 0xFF, 0xCE, 0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := StateOfCharge(int(st.AmpHours), 20); got != 0 {
		t.Fatalf("overdrawn pack must read 0%%, got %d", got)
	}
	if got := SoCText(int(st.AmpHours), 20, settings.SoCAmpHours); got != "-5.0Ah" {
		t.Fatalf("got %q", got)
	}
}

func TestSoCText(t *testing.T) {
	if got := SoCText(500, 20, settings.SoCPercent); got != "50%" {
		t.Fatalf("got %q", got)
	}
	if got := SoCText(55, 20, settings.SoCAmpHours); got != "5.5Ah" {
		t.Fatalf("got %q", got)
	}
	if got := SoCText(1234, 20, settings.SoCAmpHours); got != "123Ah" {
		t.Fatalf("got %q", got)
	}
}

func liveModules(cells ...[]uint16) *[protocol.MaxModules]peers.Module {
	var mods [protocol.MaxModules]peers.Module
	for i, cs := range cells {
		mods[i].Channel = peers.NewChannel(peers.ModuleBudget)
		mods[i].Refresh()
		copy(mods[i].Cells[:], cs)
	}
	return &mods
}

func TestSummarize(t *testing.T) {
	mods := liveModules(
		[]uint16{3300, 3350, 3310, 3320},
		[]uint16{3400, 3290, 3305, 3315},
	)
	mods[0].Temps = [2]uint8{60, 0}
	mods[1].Temps = [2]uint8{70, 80}

	var counts [protocol.MaxModules]uint8
	counts[0], counts[1] = 4, 4

	s := Summarize(mods, counts)

	if s.Cells != 8 || s.Reporting != 8 {
		t.Fatalf("cells: %+v", s)
	}
	if s.Min != 3290 || s.MinAt != (CellRef{Module: 1, Cell: 2}) {
		t.Fatalf("min: %d at %+v", s.Min, s.MinAt)
	}
	if s.Max != 3400 || s.MaxAt != (CellRef{Module: 1, Cell: 1}) {
		t.Fatalf("max: %d at %+v", s.Max, s.MaxAt)
	}
	if s.Avg != s.Sum/8 {
		t.Fatalf("avg: %d", s.Avg)
	}
	if s.TempSensors != 3 || s.AvgTemp != 70 {
		t.Fatalf("temps: %d sensors avg %d", s.TempSensors, s.AvgTemp)
	}
}

func TestSummarize_StaleModuleIgnored(t *testing.T) {
	mods := liveModules(
		[]uint16{3300, 3300, 3300, 3300},
		[]uint16{1000, 1000, 1000, 1000},
	)
	for i := 0; i < peers.ModuleBudget; i++ {
		mods[1].Age()
	}

	var counts [protocol.MaxModules]uint8
	counts[0], counts[1] = 4, 4

	s := Summarize(mods, counts)
	if s.Cells != 8 || s.Reporting != 4 || s.Min != 3300 {
		t.Fatalf("stale module leaked: %+v", s)
	}
}

func TestBalanceVoltage(t *testing.T) {
	sum := Summary{Cells: 8, Reporting: 8, Min: 3300, Max: 3400}

	fixed := BalanceInput{Setting: 150, State: protocol.StateCharging, Summary: sum}
	if got := BalanceVoltage(fixed, BarGraph); got != 3500 {
		t.Fatalf("fixed: expected 3500, got %d", got)
	}
	fixed.State = protocol.StateRunning
	if got := BalanceVoltage(fixed, BarGraph); got != NoBalance {
		t.Fatalf("fixed while running: expected none, got %d", got)
	}

	dyn := BalanceInput{Setting: settings.BalanceDynamic, State: protocol.StateCharging, Summary: sum}
	if got := BalanceVoltage(dyn, ModuleDetail); got != 3360 {
		t.Fatalf("dynamic: expected 3360, got %d", got)
	}

	off := BalanceInput{Setting: settings.BalanceOff, State: protocol.StateCharging, Summary: sum}
	if got := BalanceVoltage(off, BarGraph); got != NoBalance {
		t.Fatalf("off: got %d", got)
	}
}

func TestBalanceVoltage_StationaryRunningOnlyOnBarGraph(t *testing.T) {
	in := BalanceInput{
		Setting:    settings.BalanceDynamic,
		State:      protocol.StateRunning,
		Stationary: true,
		Summary:    Summary{Cells: 4, Reporting: 4, Min: 3300, Max: 3320},
	}
	if got := BalanceVoltage(in, BarGraph); got != 3320 {
		t.Fatalf("bar graph: expected 3320, got %d", got)
	}
	if got := BalanceVoltage(in, ModuleDetail); got != NoBalance {
		t.Fatalf("module detail: expected none, got %d", got)
	}
}

func TestNavigate_SkipsBothDirections(t *testing.T) {
	f := Facts{CoreSeen: true, MCSeen: false, ChargerSeen: true, NumCells: 0}

	if got := Navigate(PageCore, +1, f); got != PageCharger {
		t.Fatalf("forward: expected charger, got %v", got)
	}
	if got := Navigate(PageCharger, +1, f); got != PageCore {
		t.Fatalf("forward wrap: expected core, got %v", got)
	}
	if got := Navigate(PageCharger, -1, f); got != PageCore {
		t.Fatalf("backward: expected core, got %v", got)
	}
	if got := Navigate(PageCore, -1, f); got != PageCharger {
		t.Fatalf("backward wrap: expected charger, got %v", got)
	}
}

func TestNavigate_NothingAvailableFallsBack(t *testing.T) {
	var f Facts
	for _, dir := range []int{+1, -1} {
		if got := Navigate(PageBMSDetails, dir, f); got != PageCore {
			t.Fatalf("dir %d: expected fallback to core, got %v", dir, got)
		}
	}
}

func TestResolve_BMS16WithoutShunt(t *testing.T) {
	f := Facts{CoreSeen: true, BMS16: true, ShuntSize: 0, NumCells: 16}
	if got := Resolve(PageCore, f); got != PageBMSSummary {
		t.Fatalf("expected bms summary, got %v", got)
	}
	f.CurrentSeen = true
	if got := Resolve(PageCore, f); got != PageCore {
		t.Fatalf("current sensor restores core page, got %v", got)
	}
}

func TestEndStartup(t *testing.T) {
	if done, _, _ := EndStartup(Facts{CoreSeen: true}, 10); done {
		t.Fatalf("core must wait past grace 10")
	}
	if done, page, force := EndStartup(Facts{CoreSeen: true, MCSeen: true}, 11); !done || page != PageCore || force {
		t.Fatalf("core should win")
	}
	if done, page, force := EndStartup(Facts{MCSeen: true}, 3); !done || page != PageMC || !force {
		t.Fatalf("mc should end startup on its page")
	}
}

func TestSelectView_Precedence(t *testing.T) {
	all := ViewInput{Setup: true, Fault: protocol.LowSoC, Startup: true, Options: true}
	if SelectView(all) != ViewSetup {
		t.Fatalf("setup must win")
	}
	all.Setup = false
	if SelectView(all) != ViewError {
		t.Fatalf("error must be second")
	}
	all.Fault = protocol.BMSLowWarning
	all.Stationary = true
	if SelectView(all) != ViewStartup {
		t.Fatalf("stationary low-cell warning must not overlay")
	}
	all.Startup = false
	if SelectView(all) != ViewOptions {
		t.Fatalf("options before page")
	}
	all.Options = false
	if SelectView(all) != ViewPage {
		t.Fatalf("page last")
	}
}

func TestNextModule(t *testing.T) {
	var counts [protocol.MaxModules]uint8
	counts[0], counts[3], counts[15] = 12, 8, 4

	if got := NextModule(0, +1, counts); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := NextModule(15, +1, counts); got != 0 {
		t.Fatalf("expected wrap to 0, got %d", got)
	}
	if got := NextModule(0, -1, counts); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}

	var single [protocol.MaxModules]uint8
	single[5] = 12
	if got := NextModule(5, +1, single); got != 5 {
		t.Fatalf("single module must stay, got %d", got)
	}
}

func TestNextSettingsPage(t *testing.T) {
	if got := NextSettingsPage(SettingsGeneral, +1, false, false); got != SettingsPack {
		t.Fatalf("expected pack, got %d", got)
	}
	if got := NextSettingsPage(SettingsGeneral, +1, false, true); got != SettingsGeneral {
		t.Fatalf("expected general only, got %d", got)
	}
	if got := NextSettingsPage(SettingsGeneral, -1, true, true); got != SettingsMC {
		t.Fatalf("expected mc, got %d", got)
	}
}
