// internal/settings/format.go
package settings

import (
	"strconv"

	"github.com/tamzrod/evms-monitor/internal/protocol"
)

var (
	mpiNames     = []string{"Wake up", "Alt charge", "Hdlight in", "Ctr aux sw"}
	mpoNames     = []string{"Ground", "Temp gauge", "Low SoC", "Overtemp", "Undertemp", "Error", "Status"}
	shuntNames   = []string{"None", "100A", "200A", "500A"}
	throttleName = []string{"", "0-5V", "0-5kohm", "HEPA"}
	controlName  = []string{"Linear", "Semiquadratic", "Quadratic", "Off"}
)

// Format renders the operator-facing value of parameter p, with units.
func (s Schema) Format(t *Table, p Param) string {
	raw := t.Values[p]
	unit := s.Unit(p)

	if s.IsToggle(p) && p != SoCDisplay {
		if raw == 1 {
			return "YES"
		}
		return "NO"
	}

	switch p {
	case MPIFunction:
		return pick(mpiNames, int(raw))
	case MPO1Function, MPO2Function:
		return pick(mpoNames, int(raw))
	case SoCDisplay:
		if raw == SoCPercent {
			return "Percent"
		}
		return "Amp-hours"
	}
	if s.variant.IsBMS16Family() {
		switch p {
		case ShuntSize:
			return pick(shuntNames, int(min(raw, 3)))
		case NumCells:
			return strconv.Itoa(int(raw))
		}
	}

	v := int(raw)
	switch p {
	case PackCapacity:
		v *= PackCapacityMultiplier
	case CurrentWarning, CurrentTrip:
		v *= 10
	case BMSMinVoltage:
		v += 150
	case BMSMaxVoltage, BalanceVoltage:
		v += 200
	case BMSMinTemp, BMSMaxTemp:
		v -= 40
	case FullVoltage:
		if !s.variant.IsBMS16Family() {
			v *= 2
		}
	case NightBrightness:
		v *= 10
	case ChargerVoltage, ChargerVoltage2:
		volts, _ := t.ChargerTarget(chargerIndex(p))
		v = int(volts)
	case ChargerCurrent, ChargerCurrent2:
		v &^= protocol.ChargerVoltageHighBit
	}

	off := (p == CurrentWarning || p == CurrentTrip) && v > 1200 ||
		p == FullVoltage && v == 0 ||
		p == MinAuxVoltage && v == 0 ||
		p == OverTemp && v == 151 ||
		p == BMSMinTemp && v == -40 ||
		p == BMSMaxTemp && v == 101 ||
		p == CANPowerDownDelay && v == 6 ||
		p == BalanceVoltage && raw == BalanceOff
	if off {
		return "OFF"
	}
	if p == BalanceVoltage && raw == BalanceDynamic {
		return "Dynamic"
	}

	if unit == "C" && t.Bool(UseFahrenheit) {
		v = v*9/5 + 32
		unit = "F"
	}

	var text string
	switch p {
	case BMSMinVoltage, BMSMaxVoltage, BMSHysteresis, BalanceVoltage:
		text = Hundredths(v)
	default:
		text = strconv.Itoa(v)
	}
	return text + unit
}

// FormatMC renders MC parameter n.
func FormatMC(mc protocol.MCSettings, n int) string {
	v := int(mc[n])
	switch n {
	case protocol.MCThrottleType:
		return pick(throttleName, v)
	case protocol.MCSpeedControlType, protocol.MCTorqueControlType:
		return pick(controlName, v)
	case protocol.MCMaxMotorCurrent, protocol.MCMaxBattCurrent, protocol.MCIdleCurrent:
		v *= 10
	}
	return strconv.Itoa(v) + mcUnits[n]
}

// Tenths formats v/10 with one decimal place.
func Tenths(v int) string {
	return fixed(v, 1)
}

// Hundredths formats v/100 with two decimal places.
func Hundredths(v int) string {
	return fixed(v, 2)
}

// Thousandths formats v/1000 with three decimal places.
func Thousandths(v int) string {
	return fixed(v, 3)
}

func fixed(v int, places int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.Itoa(v)
	for len(s) <= places {
		s = "0" + s
	}
	s = s[:len(s)-places] + "." + s[len(s)-places:]
	if neg {
		s = "-" + s
	}
	return s
}

// Temperature formats a Celsius value in the configured unit.
func (t *Table) Temperature(celsius int) string {
	if t.Bool(UseFahrenheit) {
		return strconv.Itoa(celsius*9/5+32) + "F"
	}
	return strconv.Itoa(celsius) + "C"
}

func chargerIndex(p Param) int {
	if p == ChargerVoltage2 {
		return 1
	}
	return 0
}

func pick(names []string, i int) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return "?"
}
