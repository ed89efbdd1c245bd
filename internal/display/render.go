// internal/display/render.go
package display

import (
	"fmt"
	"strconv"

	"github.com/tamzrod/evms-monitor/internal/derive"
	"github.com/tamzrod/evms-monitor/internal/peers"
	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/settings"
)

// placeholder stands in for any value whose source is stale or absent.
const placeholder = " - "

// Scene is everything one frame is drawn from. The renderer only reads it.
type Scene struct {
	View  derive.View
	Page  derive.Page
	Facts derive.Facts
	Grace int

	Peers    *peers.Table
	Settings *settings.Table
	Schema   settings.Schema
	Summary  derive.Summary
	Fault    protocol.Fault

	// Module is the module shown on the detail page.
	Module int

	SetupPage    derive.SettingsPage
	Param        settings.Param
	MCParam      int
	SetupModule  int
	SetupAllowed bool

	// Pressed is the button under the finger, if any.
	Pressed *Button
}

func (sc *Scene) state() protocol.CoreState { return sc.Peers.CoreStatus.State }

func (sc *Scene) stationary() bool { return sc.Settings.Bool(settings.StationaryVersion) }

func (sc *Scene) bms16() bool { return sc.Peers.BMS16 }

// Startup banner used when the Renderer leaves it empty.
const (
	DefaultProduct = "FZR250"
	DefaultVersion = "ZEVA EVMS v3"
)

// Renderer draws scenes. Product names the vehicle on the startup screen.
type Renderer struct {
	Product string
	Version string
}

// Draw paints the whole view selected by the scene.
func (r Renderer) Draw(s Surface, sc *Scene) {
	switch sc.View {
	case derive.ViewSetup:
		r.setup(s, sc)
	case derive.ViewError:
		r.warning(s, sc)
	case derive.ViewStartup:
		r.startup(s)
	case derive.ViewOptions:
		r.options(s, sc)
	default:
		r.page(s, sc)
	}
}

func (r Renderer) page(s Surface, sc *Scene) {
	switch sc.Page {
	case derive.PageMC:
		r.mcStatus(s, sc)
	case derive.PageCharger:
		if sc.Peers.NumChargers == protocol.MaxChargers {
			r.threeChargers(s, sc)
		} else {
			r.charger(s, sc)
		}
	case derive.PageBMSSummary:
		r.bmsSummary(s, sc)
	case derive.PageBMSDetails:
		r.bmsDetails(s, sc)
	default:
		if derive.FullCoreView(sc.Facts, sc.Grace) {
			r.core(s, sc)
		} else {
			r.coreNoCurrent(s, sc)
		}
	}
}

// ------------------------------------------------------------
// common parts
// ------------------------------------------------------------

func (r Renderer) titlebar(s Surface, sc *Scene, text string) {
	col := LightGray
	switch sc.state() {
	case protocol.StatePrecharging:
		col = Orange
	case protocol.StateCharging:
		col = Charging
	case protocol.StateStopped:
		col = Red
	}
	if sc.stationary() && (sc.Fault == protocol.BMSHighWarning || sc.Fault == protocol.BMSLowWarning) {
		col = Red
		if sc.Page != derive.PageBMSDetails {
			if sc.Fault == protocol.BMSHighWarning {
				text = "EVMS : Charge Disabled"
			} else {
				text = "EVMS : Discharge Disabled"
			}
		}
	}

	s.FillRect(0, 0, Width-1, Height-1, Background)
	s.FillRect(0, 0, Width-1, 19, col)
	s.DrawCenteredText(text, Width/2, 2, 1, Text, col)
}

func label(s Surface, text string, x, y int) {
	s.DrawText(text, x, y, 1, Label, Background)
}

func value(s Surface, text string, x, y, scale int) {
	s.DrawText(text, x, y, scale, Text, Background)
}

func shade(s Surface) {
	for x := 0; x < Width; x += 2 {
		s.FillRect(x, 0, x, Height-1, DarkGray)
	}
}

func (r Renderer) temp(sc *Scene, raw uint8) string {
	if raw == 0 {
		return placeholder
	}
	return sc.Settings.Temperature(int(raw) - 40)
}

// packVolts shows tenths below 100 V on packs with cell monitoring.
func packVolts(v uint16, numCells int) string {
	switch {
	case v == 0:
		return placeholder
	case v < 1000 && numCells > 0:
		return settings.Tenths(int(v)) + "V"
	}
	return strconv.Itoa(int(v)/10) + "V"
}

func isolation(iso uint8) string {
	return strconv.Itoa((int(iso)+5)/10*10) + "%"
}

// ------------------------------------------------------------
// startup, warning, options
// ------------------------------------------------------------

func (r Renderer) startup(s Surface) {
	s.FillRect(0, 0, Width-1, Height-1, Background)
	s.FillRect(0, 60, 57, 120, DarkGray)
	s.FillRect(0, 60, 319, 65, DarkGray)
	s.FillRect(273, 60, 319, 120, DarkGray)
	s.FillRect(0, 114, 319, 120, DarkGray)
	product, version := r.Product, r.Version
	if product == "" {
		product = DefaultProduct
	}
	if version == "" {
		version = DefaultVersion
	}
	s.DrawCenteredText(product, Width/2, 66, 3, Label, DarkGray)
	s.DrawCenteredText(version, Width/2, 145, 1, LightGray, Background)
}

func (r Renderer) warning(s Surface, sc *Scene) {
	shade(s)
	s.FillRect(20, 70, 299, 169, Red)
	s.FillRect(24, 74, 295, 165, Black)
	s.DrawCenteredText("Warning:", Width/2, 90, 1, Red, Black)
	s.DrawCenteredText(sc.Fault.String(), Width/2, 130, 1, Text, Black)
}

func (r Renderer) options(s Surface, sc *Scene) {
	shade(s)
	borderBox(s, 40, 20, 280, 232, DarkGray, Black)

	for _, b := range OptionButtons {
		enabled := b != &EnterSetupButton || sc.SetupAllowed
		drawButton(s, r.optionFace(b, sc), sc.Pressed == b, enabled)
	}
}

// optionFace relabels the display button on hardware that can power off.
func (r Renderer) optionFace(b *Button, sc *Scene) *Button {
	if b == &DisplayOffButton && sc.bms16() {
		off := *b
		off.Label = "Power Off"
		return &off
	}
	return b
}

// ------------------------------------------------------------
// core pages
// ------------------------------------------------------------

func (r Renderer) core(s Surface, sc *Scene) {
	st := sc.Peers.CoreStatus
	coreLive := sc.Peers.Core.Live()
	bms16 := sc.bms16()

	prefix := "EVMS : "
	if bms16 {
		prefix = "BMS Status : "
	}
	r.titlebar(s, sc, prefix+sc.state().String())

	label(s, "Voltage", 16, 30)
	label(s, "Current", 16, 88)
	label(s, "Power", 16, 146)
	if bms16 {
		label(s, "Temp", 16, 202)
	} else {
		label(s, "Aux", 16, 202)
		if coreLive && st.Temperature > 0 {
			label(s, "Temp", 100, 202)
		}
		if coreLive && st.Isolation <= 100 {
			label(s, "Isol", 172, 202)
		}
	}
	label(s, "SoC", 244, 202)

	voltage := st.PackVoltage
	if !coreLive {
		voltage = 0
	}
	value(s, packVolts(voltage, sc.Facts.NumCells), 16, 48, 2)

	mA, currentLive := sc.Peers.Current()
	curText, powText := placeholder, placeholder
	if currentLive || bms16 {
		c := derive.CurrentTenths(mA, sc.Settings.Bool(settings.ReverseCurrentDisplay))
		if c > -1000 && c < 1000 {
			curText = settings.Tenths(c) + "A"
		} else {
			curText = strconv.Itoa(c/10) + "A"
		}

		p := derive.PackPower(voltage, mA)
		if p < 1000 {
			powText = settings.Tenths(int(p)) + "kW"
		} else {
			powText = strconv.FormatInt(p/10, 10) + "kW"
		}
	}
	value(s, curText, 16, 106, 2)
	value(s, powText, 16, 164, 2)

	if !coreLive {
		value(s, placeholder, 16, 220, 1)
		value(s, placeholder, 244, 220, 1)
		r.socGauge(s, 0)
		return
	}

	if !bms16 {
		value(s, settings.Tenths(int(st.AuxVoltage))+"V", 16, 220, 1)
		if st.Temperature > 0 {
			value(s, r.temp(sc, st.Temperature), 100, 220, 1)
		}
		if st.Isolation <= 100 {
			value(s, isolation(st.Isolation), 172, 220, 1)
		}
	} else {
		value(s, r.temp(sc, st.Temperature), 16, 220, 1)
	}

	capacity := sc.Settings.Get(settings.PackCapacity)
	value(s, derive.SoCText(int(st.AmpHours), capacity, sc.Settings.Get(settings.SoCDisplay)), 244, 220, 1)
	r.socGauge(s, derive.StateOfCharge(int(st.AmpHours), capacity))
}

// socGauge draws charge as a battery icon.
func (r Renderer) socGauge(s Surface, soc int) {
	s.FillRect(243, 36, 279, 48, LightGray)
	s.FillRect(245, 38, 277, 46, DarkGray)
	s.FillRect(222, 46, 300, 192, LightGray)

	height := 142 * soc / 100
	col := LightBlue
	switch {
	case soc < 20:
		col = Red
	case soc < 40:
		col = Orange
	}
	s.FillRect(224, 48, 298, 190-height, DarkGray)
	s.FillRect(224, 190-height, 298, 190, col)
}

func (r Renderer) coreNoCurrent(s Surface, sc *Scene) {
	st := sc.Peers.CoreStatus
	coreLive := sc.Peers.Core.Live()

	prefix := "EVMS : "
	if sc.bms16() {
		prefix = "BMS : "
	}
	r.titlebar(s, sc, prefix+sc.state().String())

	label(s, "Pack voltage", 16, 40)
	label(s, "Temperature", 170, 40)
	label(s, "Isolation", 16, 110)
	label(s, "Aux voltage", 170, 110)

	if !coreLive || st.PackVoltage == 0 {
		value(s, placeholder, 16, 60, 2)
		value(s, placeholder, 16, 130, 2)
	} else {
		value(s, packVolts(st.PackVoltage, sc.Facts.NumCells), 16, 60, 2)
		value(s, isolation(st.Isolation), 16, 130, 2)
	}
	if coreLive {
		value(s, r.temp(sc, st.Temperature), 170, 60, 2)
		value(s, settings.Tenths(int(st.AuxVoltage))+"V", 170, 130, 2)
	} else {
		value(s, placeholder, 170, 60, 2)
		value(s, placeholder, 170, 130, 2)
	}

	if sc.Facts.NumCells > 0 {
		r.barGraph(s, sc)
	}
}

// barGraph draws one bar per configured cell along the bottom of the
// screen. Cells above the balance threshold are orange, cells outside
// the BMS limits red, stale modules flat grey.
func (r Renderer) barGraph(s Surface, sc *Scene) {
	numCells := sc.Summary.Cells
	if numCells == 0 {
		return
	}

	balance := derive.BalanceVoltage(derive.BalanceInput{
		Setting:    sc.Settings.Get(settings.BalanceVoltage),
		State:      sc.state(),
		BMS16:      sc.bms16(),
		Stationary: sc.stationary(),
		Summary:    sc.Summary,
	}, derive.BarGraph)

	width := Width / numCells
	margin := (Width - numCells*width) / 2
	gap := 1
	if numCells > Width/2 {
		gap = 0
	}

	hi := 200 + int(sc.Settings.Get(settings.BMSMaxVoltage))
	lo := 150 + int(sc.Settings.Get(settings.BMSMinVoltage))
	hyst := int(sc.Settings.Get(settings.BMSHysteresis))
	if sc.stationary() {
		hi += hyst
		lo -= hyst
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	counts := sc.Settings.Cells
	n := 0
	for m := range counts {
		mod := &sc.Peers.Modules[m]
		for c := 0; c < int(counts[m]) && c < protocol.CellsPerModule; c++ {
			x1 := margin + n*width + 1
			x2 := margin + (n+1)*width - gap
			n++

			if !mod.Live() {
				s.FillRect(x1, 185, x2, 234, Background)
				s.FillRect(x1, 235, x2, 239, DarkGray)
				continue
			}

			mv := int(mod.Cells[c])
			v := mv / 10
			col := LightBlue
			switch {
			case v < lo:
				col, v = Red, lo
			case v > hi:
				col, v = Red, hi
			case mv > balance:
				col = Orange
			}

			height := 5 + (v-lo)*40/span
			s.FillRect(x1, 185, x2, 238-height, Background)
			s.FillRect(x1, 239-height, x2, 239, col)
		}
	}

	// dotted limit lines
	offset := 0
	if sc.stationary() {
		offset = hyst * 80 / span
	}
	for x := margin + 1; x < margin+n*width; x += 3 {
		s.FillRect(x, 194, x, 194, White)
		s.FillRect(x, 234, x, 234, White)
		if offset > 0 {
			s.FillRect(x, 194+offset, x, 194+offset, White)
			s.FillRect(x, 234-offset, x, 234-offset, White)
		}
	}
}

// ------------------------------------------------------------
// motor controller
// ------------------------------------------------------------

func (r Renderer) mcStatus(s Surface, sc *Scene) {
	mc := sc.Peers.MCStatus
	switch mc.Type {
	case protocol.MC600C:
		r.titlebar(s, sc, "MC600C Status")
	case protocol.MC1000C:
		r.titlebar(s, sc, "MC1000C Status")
	default:
		r.titlebar(s, sc, "(Unknown Controller)")
	}

	label(s, "Batt Volts", 16, 30)
	label(s, "Batt Amps", 170, 30)
	label(s, "Motor Volts", 16, 88)
	label(s, "Motor Amps", 170, 88)
	label(s, "Temp", 16, 146)
	label(s, "Throttle", 170, 146)

	if !sc.Peers.MC.Live() {
		for _, y := range []int{48, 106, 164} {
			value(s, placeholder, 16, y, 2)
			value(s, placeholder, 170, y, 2)
		}
		s.DrawCenteredText("COMMS ERROR!", Width/2, 210, 1, Red, Background)
		return
	}

	value(s, strconv.Itoa(int(mc.BattVolts))+"V", 16, 48, 2)
	value(s, strconv.Itoa(int(mc.BattAmps))+"A", 170, 48, 2)
	value(s, strconv.Itoa(int(mc.MotorVolts()))+"V", 16, 106, 2)
	value(s, strconv.Itoa(int(mc.MotorAmps))+"A", 170, 106, 2)
	value(s, sc.Settings.Temperature(int(mc.Temp)), 16, 164, 2)
	value(s, strconv.Itoa(int(mc.Throttle))+"%", 170, 164, 2)

	col := Red
	switch mc.Fault {
	case protocol.MCThermalCutback:
		col = Orange
	case protocol.MCSleeping:
		col = LightGray
	case protocol.MCNoError:
		col = Green
	}
	s.DrawCenteredText(protocol.MCFaultText(mc.Fault), Width/2, 210, 1, col, Background)
}

// ------------------------------------------------------------
// chargers
// ------------------------------------------------------------

func (r Renderer) charger(s Surface, sc *Scene) {
	r.titlebar(s, sc, "TC Charger Status")

	label(s, "Output Volt", 16, 40)
	label(s, "Output Amps", 170, 40)
	label(s, "Target Volt", 16, 110)
	label(s, "Target Amps", 170, 110)

	rep, live := sc.Peers.ChargerReport(0)
	cmd := sc.Peers.Chargers[0].Command

	out := placeholder
	if rep.InstVoltage > 0 {
		out = strconv.Itoa(int(rep.InstVoltage)/10) + "V"
	}
	value(s, out, 16, 60, 2)

	out = placeholder
	if rep.InstCurrent > 0 {
		out = settings.Tenths(int(rep.InstCurrent)) + "A"
	}
	value(s, out, 170, 60, 2)

	value(s, strconv.Itoa(int(cmd.TargetVoltage)/10)+"V", 16, 130, 2)
	value(s, settings.Tenths(int(cmd.TargetCurrent))+"A", 170, 130, 2)

	text, ok := protocol.ChargerStatusText(live, cmd.ControlBit, rep.Status)
	col := Red
	if ok {
		col = Green
	}
	s.DrawCenteredText(text, Width/2, 200, 1, col, Background)
}

func chargerShortStatus(live, controlBit bool, status uint8) (string, Color) {
	switch {
	case !live:
		return "No comms", Red
	case controlBit:
		return "BMS Stop", Red
	case status&protocol.ChargerHardwareFailure != 0:
		return "HW Fault", Red
	case status&protocol.ChargerOvertemp != 0:
		return "Overtemp", Red
	case status&protocol.ChargerInputVoltage != 0:
		return "AC fault", Red
	case status&protocol.ChargerBatteryFault != 0:
		return "BatError", Red
	case status&protocol.ChargerCommsTimeout != 0:
		return "No comms", Red
	}
	return "OK", Green
}

func (r Renderer) threeChargers(s Surface, sc *Scene) {
	n := sc.Peers.NumChargers

	// drop the decimal from 100.0A upwards
	divisor := 1
	if int(sc.Peers.Chargers[0].Command.TargetCurrent)*n > 1000 {
		divisor = 10
	}
	amps := func(tenths int) string {
		if divisor == 1 {
			return settings.Tenths(tenths) + "A"
		}
		return strconv.Itoa(tenths/divisor) + "A"
	}

	r.titlebar(s, sc, "Charger Status")
	label(s, "Output Volts", 16, 30)
	label(s, "Total Amps", 170, 30)
	label(s, "Target Volts", 16, 90)
	label(s, "Target Amps", 170, 90)
	label(s, "#", 16, 150)
	label(s, "Volts", 60, 150)
	label(s, "Amps", 132, 150)
	label(s, "Status", 204, 150)

	maxVolts, total := 0, 0
	for i := 0; i < protocol.MaxChargers; i++ {
		rep, _ := sc.Peers.ChargerReport(i)
		if i < n && int(rep.InstVoltage) > maxVolts {
			maxVolts = int(rep.InstVoltage)
		}
		total += int(rep.InstCurrent)
	}
	value(s, strconv.Itoa(maxVolts/10)+"V", 16, 50, 2)
	value(s, amps(total), 170, 50, 2)

	volts, perCharger := sc.Settings.ChargerTarget(0)
	value(s, strconv.Itoa(int(volts))+"V", 16, 110, 2)
	value(s, amps(int(perCharger)*n*10), 170, 110, 2)

	for i := 0; i < protocol.MaxChargers; i++ {
		y := 170 + i*20
		rep, live := sc.Peers.ChargerReport(i)
		value(s, strconv.Itoa(i+1), 16, y, 1)
		value(s, strconv.Itoa(int(rep.InstVoltage)/10)+"V", 60, y, 1)
		value(s, amps(int(rep.InstCurrent)), 132, y, 1)

		text, col := chargerShortStatus(live, sc.Peers.Chargers[i].Command.ControlBit, rep.Status)
		s.DrawText(text, 204, y, 1, col, Background)
	}
}

// ------------------------------------------------------------
// BMS pages
// ------------------------------------------------------------

func cellRef(ref derive.CellRef) string {
	return fmt.Sprintf("M%d C%d", ref.Module, ref.Cell)
}

func (r Renderer) bmsSummary(s Surface, sc *Scene) {
	sum := sc.Summary
	packView := sc.Facts.CoreReplaced()

	r.titlebar(s, sc, fmt.Sprintf("BMS Summary : %d cells", sum.Cells))

	if packView {
		label(s, "Pack voltage", 16, 40)
	} else {
		label(s, "Avg voltage", 16, 40)
	}
	if sc.bms16() {
		label(s, "Temperature", 170, 40)
	} else {
		label(s, "Avg temp", 170, 40)
	}
	label(s, "Min voltage", 16, 110)
	label(s, "Max voltage", 170, 110)

	core := sc.Peers.CoreStatus
	switch {
	case sc.bms16() && sc.Peers.Core.Live() && core.Temperature > 0:
		value(s, r.temp(sc, core.Temperature), 170, 60, 2)
	case sum.TempSensors > 0:
		value(s, sc.Settings.Temperature(sum.AvgTemp-40), 170, 60, 2)
	default:
		value(s, placeholder, 170, 60, 2)
	}

	if sum.Reporting == 0 {
		value(s, placeholder, 16, 60, 2)
		value(s, placeholder, 16, 130, 2)
		value(s, placeholder, 170, 130, 2)
	} else {
		if packView {
			value(s, settings.Tenths(sum.Sum/100)+"V", 16, 60, 2)
		} else {
			value(s, settings.Hundredths((sum.Avg+5)/10)+"V", 16, 60, 2)
		}
		value(s, settings.Hundredths((int(sum.Min)+5)/10)+"V", 16, 130, 2)
		s.DrawText(cellRef(sum.MinAt), 16, 165, 1, LightGray, Background)
		value(s, settings.Hundredths((int(sum.Max)+5)/10)+"V", 170, 130, 2)
		s.DrawText(cellRef(sum.MaxAt), 170, 165, 1, LightGray, Background)
	}

	r.barGraph(s, sc)
}

func (r Renderer) bmsDetails(s Surface, sc *Scene) {
	if sc.bms16() {
		r.bms16Details(s, sc)
		return
	}

	m := sc.Module
	mod := &sc.Peers.Modules[m]
	live := mod.Live()
	count := int(sc.Settings.Cells[m])

	r.titlebar(s, sc, "BMS Details : Module  ")
	col := Running
	switch {
	case sc.stationary() && (sc.Fault == protocol.BMSHighWarning || sc.Fault == protocol.BMSLowWarning):
		col = Red
	case sc.state() == protocol.StateCharging:
		col = Charging
	case sc.state() == protocol.StateIdle:
		col = LightGray
	case sc.state() == protocol.StateStopped:
		col = Red
	}
	s.DrawText(strconv.Itoa(m), 274, 2, 1, Text, col)

	label(s, "Cell Voltages", 12, 40)
	label(s, "Temp1:", 12, 165)
	label(s, "Temp2:", 162, 165)

	balance := derive.BalanceVoltage(derive.BalanceInput{
		Setting:    sc.Settings.Get(settings.BalanceVoltage),
		State:      sc.state(),
		BMS16:      false,
		Stationary: sc.stationary(),
		Summary:    sc.Summary,
	}, derive.ModuleDetail)

	for c := 0; c < protocol.CellsPerModule; c++ {
		x, y := 12+75*(c%4), 70+30*(c/4)
		if c >= count {
			continue
		}
		if !live {
			value(s, placeholder, x, y, 1)
			continue
		}
		value(s, settings.Thousandths(int(mod.Cells[c])), x, y, 1)
		if int(mod.Cells[c]) > balance {
			s.FillRect(x, y+18, x+60, y+19, Orange)
		}
	}

	t1, t2 := placeholder, placeholder
	if live {
		t1, t2 = r.temp(sc, mod.Temps[1]), r.temp(sc, mod.Temps[0])
	}
	value(s, t1, 96, 165, 1)
	value(s, t2, 246, 165, 1)

	drawButton(s, &NextModuleButton, sc.Pressed == &NextModuleButton, true)
	drawButton(s, &PrevModuleButton, sc.Pressed == &PrevModuleButton, true)
}

// bms16Details lays out the first board (8 cells, or all 12 on BMS12i)
// and the second board of a BMS16.
func (r Renderer) bms16Details(s Surface, sc *Scene) {
	r.titlebar(s, sc, fmt.Sprintf("BMS Details : %d cells", sc.Summary.Cells))
	label(s, "Cell Voltages", 12, 40)

	first := 8
	if sc.Peers.BMS12i {
		first = protocol.CellsPerModule
	}
	r.cellMatrix(s, sc, 0, first, 70)
	if !sc.Peers.BMS12i {
		r.cellMatrix(s, sc, 1, 8, 130)
	}
	r.barGraph(s, sc)
}

func (r Renderer) cellMatrix(s Surface, sc *Scene, m, slots, top int) {
	mod := &sc.Peers.Modules[m]
	count := int(sc.Settings.Cells[m])
	for c := 0; c < slots; c++ {
		if c >= count {
			continue
		}
		text := placeholder
		if mod.Live() {
			text = settings.Thousandths(int(mod.Cells[c]))
		}
		value(s, text, 12+75*(c%4), top+30*(c/4), 1)
	}
}

// ------------------------------------------------------------
// setup
// ------------------------------------------------------------

func (r Renderer) setup(s Surface, sc *Scene) {
	if sc.bms16() {
		r.titlebar(s, sc, "BMS Setup")
	} else {
		r.titlebar(s, sc, "EVMS : Setup")
	}

	if !sc.bms16() || sc.Facts.MCSeen {
		value(s, "<", 8, 30, 2)
		value(s, ">", 288, 30, 2)
	}
	value(s, "<", 8, 90, 2)
	value(s, ">", 288, 90, 2)
	value(s, "<", 8, 150, 2)
	value(s, ">", 288, 150, 2)

	drawButton(s, &ExitSetupButton, sc.Pressed == &ExitSetupButton, true)

	centred := func(text string, y int, fg Color) {
		s.DrawCenteredText(text, Width/2, y, 1, fg, Background)
	}

	switch sc.SetupPage {
	case derive.SettingsPack:
		centred("BMS Configuration", 40, Label)
		centred("Module ID:", 90, Label)
		centred("Cell count:", 150, Label)
		centred(strconv.Itoa(sc.SetupModule), 110, Text)
		centred(strconv.Itoa(int(sc.Settings.Cells[sc.SetupModule])), 170, Text)

	case derive.SettingsMC:
		centred("Motor Controller", 40, Green)
		centred("Parameter:", 90, Label)
		centred("Value:", 150, Label)
		centred(settings.MCLabel(sc.MCParam), 110, Text)
		centred(settings.FormatMC(sc.Settings.MC, sc.MCParam), 170, Text)

	default:
		centred("General Settings", 40, Label)
		centred("Parameter:", 90, Label)
		centred("Value:", 150, Label)
		centred(sc.Schema.Label(sc.Param), 110, Text)
		centred(sc.Schema.Format(sc.Settings, sc.Param), 170, Text)
	}
}
