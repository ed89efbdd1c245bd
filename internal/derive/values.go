// internal/derive/values.go
package derive

import (
	"strconv"

	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/settings"
)

// PackPower returns |V x I| in tenths of a kilowatt from pack voltage in
// tenths of a volt and current in milliamps.
func PackPower(voltageTenths uint16, currentMA int32) int64 {
	p := int64(voltageTenths) * int64(currentMA/100)
	if p < 0 {
		p = -p
	}
	return p / 10000
}

// StateOfCharge returns the rounded charge percentage, clamped to 0-100.
// ampHours is in tenths; capacity is the pack capacity setting (Ah / 5).
func StateOfCharge(ampHours int, capacity uint8) int {
	if capacity == 0 {
		return 0
	}
	soc := 201 * int64(ampHours) / 2 / (int64(capacity) * settings.PackCapacityMultiplier * 10)
	switch {
	case soc < 0:
		return 0
	case soc > 100:
		return 100
	}
	return int(soc)
}

// SoCText renders charge as a percentage or as amp-hours.
func SoCText(ampHours int, capacity uint8, mode uint8) string {
	if mode == settings.SoCAmpHours {
		if ampHours < 100 {
			return settings.Tenths(ampHours) + "Ah"
		}
		return strconv.Itoa((ampHours+5)/10) + "Ah"
	}
	return strconv.Itoa(StateOfCharge(ampHours, capacity)) + "%"
}

// CurrentTenths rounds mA to tenths of an amp, honouring the display
// direction setting.
func CurrentTenths(currentMA int32, reverse bool) int {
	v := int((currentMA + 50) / 100)
	if reverse {
		v = -v
	}
	return v
}

// ---- BALANCE ----

// NoBalance is a threshold no cell can exceed.
const NoBalance = 5000

// BalanceTolerance is added to the dynamic midpoint, in mV.
const BalanceTolerance = 10

// BalanceView selects which screen asks for the threshold.
type BalanceView uint8

const (
	BarGraph BalanceView = iota
	ModuleDetail
)

// BalanceInput is everything the balance threshold depends on.
type BalanceInput struct {
	Setting    uint8
	State      protocol.CoreState
	BMS16      bool
	Stationary bool
	Summary    Summary
}

// BalanceVoltage returns the mV above which a cell is shown as balancing.
//
// The bar graph also highlights while running in stationary mode; the
// module detail view does not.
func BalanceVoltage(in BalanceInput, view BalanceView) int {
	active := in.State == protocol.StateCharging || in.BMS16

	if in.Setting < settings.BalanceDynamic {
		if active {
			return 2000 + int(in.Setting)*10
		}
		return NoBalance
	}

	if in.Setting != settings.BalanceDynamic || in.Summary.Reporting == 0 {
		return NoBalance
	}
	if view == BarGraph && in.State == protocol.StateRunning && in.Stationary {
		active = true
	}
	if !active {
		return NoBalance
	}
	return (int(in.Summary.Min)+int(in.Summary.Max))/2 + BalanceTolerance
}
