// internal/settings/schema.go
package settings

import "github.com/tamzrod/evms-monitor/internal/protocol"

// Param indexes the core settings table. The first 32 entries travel to the
// core in four configuration blocks; the rest are local to the monitor.
type Param int

const (
	PackCapacity Param = iota
	SoCWarning
	FullVoltage
	CurrentWarning
	CurrentTrip
	OverTemp
	MinAuxVoltage
	MinIsolation
	TachoPPR
	FuelGaugeFull
	FuelGaugeEmpty
	TempGaugeHot
	TempGaugeCold
	BMSMinVoltage
	BMSMaxVoltage
	BalanceVoltage
	BMSHysteresis
	BMSMinTemp
	BMSMaxTemp
	ChargerVoltage
	ChargerCurrent
	ChargerVoltage2
	ChargerCurrent2
	CANPowerDownDelay
	MPIFunction
	MPO1Function
	MPO2Function
	NumParallelStrings
	EnablePrecharge
	StationaryVersion
	ReverseCurrentDisplay
	NightBrightness
	BuzzerOn
	UseFahrenheit
	SoCDisplay
	NumSettings
)

// On BMS16/BMS12i hardware two slots carry different meanings.
const (
	NumCells  = MinAuxVoltage
	ShuntSize = MinIsolation
)

// Special values.
const (
	PackCapacityMultiplier = 5
	BalanceDynamic         = 251
	BalanceOff             = 252
	SoCPercent             = 0
	SoCAmpHours            = 1
)

// Variant is the detected hardware family the settings apply to.
type Variant uint8

const (
	Standard Variant = iota
	BMS16
	BMS12i
)

func (v Variant) String() string {
	switch v {
	case BMS16:
		return "BMS16"
	case BMS12i:
		return "BMS12i"
	default:
		return "EVMS"
	}
}

// VariantOf folds the two sticky detection flags into one variant.
func VariantOf(bms16, bms12i bool) Variant {
	switch {
	case bms16 && bms12i:
		return BMS12i
	case bms16:
		return BMS16
	default:
		return Standard
	}
}

// IsBMS16Family reports whether the variant uses the BMS16 limits.
func (v Variant) IsBMS16Family() bool { return v != Standard }

// ------------

type paramSpec struct {
	label    string
	unit     string
	def      uint8
	min      uint8
	max      uint8
	bms16Max uint8 // 0 = not applicable on BMS16 hardware
}

var params = [NumSettings]paramSpec{
	PackCapacity:          {"Pack Capacity", "Ah", 20, 1, 250, 250},
	SoCWarning:            {"SoC Warning", "%", 20, 0, 99, 99},
	FullVoltage:           {"Full Voltage", "V", 80, 5, 251, 70},
	CurrentWarning:        {"Warn Current", "A", 121, 1, 121, 121},
	CurrentTrip:           {"Trip Current", "A", 121, 1, 121, 121},
	OverTemp:              {"EVMS Temp Warning", "C", 151, 0, 151, 0},
	MinAuxVoltage:         {"Min Aux Voltage", "V", 10, 8, 16, 16},
	MinIsolation:          {"Min Isolation", "%", 50, 0, 99, 3},
	TachoPPR:              {"Tacho PPR", "", 2, 1, 6, 0},
	FuelGaugeFull:         {"Fuel Gauge Full", "%", 80, 0, 100, 0},
	FuelGaugeEmpty:        {"Fuel Gauge Empty", "%", 20, 0, 100, 0},
	TempGaugeHot:          {"Temp Gauge Hot", "%", 80, 0, 100, 0},
	TempGaugeCold:         {"Temp Gauge Cold", "%", 20, 0, 100, 0},
	BMSMinVoltage:         {"BMS Min Voltage", "V", 100, 0, 250, 250},
	BMSMaxVoltage:         {"BMS Max Voltage", "V", 180, 0, 250, 250},
	BalanceVoltage:        {"Balance Voltage", "V", BalanceDynamic, 0, BalanceOff, BalanceOff},
	BMSHysteresis:         {"BMS Hysteresis", "V", 20, 0, 50, 50},
	BMSMinTemp:            {"BMS Min Temp", "C", 0, 0, 141, 141},
	BMSMaxTemp:            {"BMS Max Temp", "C", 141, 0, 141, 141},
	ChargerVoltage:        {"Max Charge Voltage", "V", 100, 0, 255, 70},
	ChargerCurrent:        {"Max Charge Current", "A", 10, 0, 255, 255},
	ChargerVoltage2:       {"Alt Charge Voltage", "V", 100, 0, 255, 0},
	ChargerCurrent2:       {"Alt Charge Current", "A", 20, 0, 255, 0},
	CANPowerDownDelay:     {"Sleep Delay", "min", 5, 1, 6, 0},
	MPIFunction:           {"MPI Function", "", 0, 0, 3, 0},
	MPO1Function:          {"MPO1 Function", "", 0, 0, 6, 0},
	MPO2Function:          {"MPO2 Function", "", 0, 0, 6, 0},
	NumParallelStrings:    {"Parallel Strings", "", 1, 1, 20, 0},
	EnablePrecharge:       {"Enable Precharge", "", 1, 0, 1, 0},
	StationaryVersion:     {"Stationary Mode", "", 0, 0, 1, 1},
	ReverseCurrentDisplay: {"Rev. Current Disp", "", 0, 0, 1, 1},
	NightBrightness:       {"Night Brightness", "%", 10, 0, 10, 10},
	BuzzerOn:              {"Buzzer On", "", 1, 0, 1, 1},
	UseFahrenheit:         {"Use Fahrenheit", "", 0, 0, 1, 1},
	SoCDisplay:            {"SoC Display", "", SoCPercent, 0, 1, 1},
}

// Schema is the settings view for one hardware variant: labels and limits.
// Slots reused by BMS hardware are schema entries of their own.
type Schema struct {
	variant Variant
}

func SchemaFor(v Variant) Schema { return Schema{variant: v} }

func (s Schema) Variant() Variant { return s.variant }

func (s Schema) Label(p Param) string {
	if s.variant.IsBMS16Family() {
		switch p {
		case NumCells:
			return "Num Cells"
		case ShuntSize:
			return "Shunt Size"
		}
	}
	return params[p].label
}

func (s Schema) Unit(p Param) string {
	if s.variant.IsBMS16Family() && (p == NumCells || p == ShuntSize) {
		return ""
	}
	return params[p].unit
}

func (s Schema) Min(p Param) uint8 {
	if s.variant == BMS12i && p == NumCells {
		return 4
	}
	return params[p].min
}

func (s Schema) Max(p Param) uint8 {
	switch {
	case s.variant == BMS12i && p == NumCells:
		return 12
	case s.variant.IsBMS16Family():
		return params[p].bms16Max
	default:
		return params[p].max
	}
}

// Applicable reports whether the parameter is offered on this variant.
func (s Schema) Applicable(p Param) bool {
	return s.Max(p) > 0
}

// IsToggle reports whether the parameter is a yes/no switch.
func (s Schema) IsToggle(p Param) bool { return params[p].max == 1 }

// NextParam steps to the next applicable parameter, wrapping at both ends.
func (s Schema) NextParam(p Param, dir int) Param {
	for n := 0; n < int(NumSettings); n++ {
		p += Param(dir)
		if p < 0 {
			p = NumSettings - 1
		}
		if p >= NumSettings {
			p = 0
		}
		if s.Applicable(p) {
			return p
		}
	}
	return p
}

// GaugeState returns the core set-state byte used while live-editing a
// gauge calibration parameter.
func GaugeState(p Param) (byte, bool) {
	switch p {
	case FuelGaugeFull, FuelGaugeEmpty:
		return protocol.SetStateEditFuelGauge, true
	case TempGaugeHot, TempGaugeCold:
		return protocol.SetStateEditTempGauge, true
	}
	return 0, false
}

// ---- MC SETTINGS ----

var (
	mcMin    = protocol.MCSettings{8, 1, 5, 5, 0, 0, 0, 1, 0, 0}
	mcMax    = protocol.MCSettings{150, 180, 100, 100, 4, 3, 3, 3, 12, 20}
	mcLabels = [protocol.MCNumSettings]string{
		"Min Batt Volts", "Max Motor Volts", "Max Motor Current", "Max Batt Current",
		"Thrtl Ramp Rate", "Speed Control", "Torque Control", "Throttle Type",
		"Idle Voltage", "Idle Current",
	}
	mcUnits = [protocol.MCNumSettings]string{"V", "V", "A", "A", "", "", "", "", "V", "A"}
)

// mc600CCurrentMax caps both current limits on the smaller controller.
const mc600CCurrentMax = 60

func MCLabel(n int) string { return mcLabels[n] }

func MCUnit(n int) string { return mcUnits[n] }

// MCLimits returns the editable range of MC parameter n for a controller type.
func MCLimits(mcType uint8, n int) (lo, hi uint8) {
	lo, hi = mcMin[n], mcMax[n]
	if mcType == protocol.MC600C && (n == protocol.MCMaxMotorCurrent || n == protocol.MCMaxBattCurrent) {
		hi = mc600CCurrentMax
	}
	return lo, hi
}
