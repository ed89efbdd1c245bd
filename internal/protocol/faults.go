// internal/protocol/faults.go
package protocol

// Fault is an error condition shown on the monitor. Codes below
// CoreCommsError are reported by the core in the top five bits of its
// status byte; CoreCommsError and above are raised locally.
type Fault uint8

const (
	NoFault Fault = iota
	CorruptSettings
	OvercurrentWarning
	OvercurrentShutdown
	BMSLowWarning
	ShutdownByBMS
	BMSHighWarning
	BMSEndedCharge
	BMSOvertemp
	BMSUndertemp
	LowSoC
	Overtemp
	IsolationFault
	Low12V
	PrechargeFailed
	ContactorFault
	BMSCommsError
	CoreCommsError
	NumFaults
)

var faultText = [NumFaults]string{
	"No error",
	"Corrupt settings",
	"Overcurrent warning",
	"Overcurrent shutdown",
	"BMS - Low cell",
	"Shutdown by BMS",
	"BMS - High cell",
	"Charge ended by BMS",
	"BMS - Overtemp",
	"BMS - Undertemp",
	"Low battery charge",
	"Over-temperature",
	"Isolation fault",
	"Low 12V battery",
	"Precharge failed",
	"Contactor fault",
	"BMS - Comms error",
	"No comms to EVMS",
}

func (f Fault) String() string {
	if f < NumFaults {
		return faultText[f]
	}
	return "Unknown error"
}

// Local reports whether the fault is owned by the monitor rather than
// forwarded from the core.
func (f Fault) Local() bool { return f >= CoreCommsError }

// MC fault codes (top nibble of the MC status byte).
const (
	MCNoError uint8 = iota
	MCSleeping
	MCDesatError
	MCCurrentSensorFault
	MCTempSensorFault
	MCUnderVoltage
	MCOverVoltage
	MCLowLogicVoltage
	MCThrottleError
	MCThermalCutback
	MCThermalShutdown
	MCNumErrors
)

var mcFaultText = [MCNumErrors]string{
	"Status: OK",
	"Status: Sleeping",
	"Desat fault",
	"Current sensor fault",
	"Temp sensor fault",
	"Undervoltage",
	"Overvoltage",
	"Low 12v supply",
	"Throttle error",
	"Thermal cutback",
	"Thermal shutdown",
}

// MCFaultText returns the operator text for an MC error nibble.
func MCFaultText(code uint8) string {
	if code < MCNumErrors {
		return mcFaultText[code]
	}
	return "Unknown fault"
}

// Charger status bits (report byte 4).
const (
	ChargerHardwareFailure uint8 = 1 << iota
	ChargerOvertemp
	ChargerInputVoltage
	ChargerBatteryFault
	ChargerCommsTimeout
)

// ChargerStatusText returns the highest priority message for a charger.
// live is false once the charger's report channel has gone stale.
func ChargerStatusText(live bool, controlBit bool, status uint8) (string, bool) {
	switch {
	case !live:
		return "No comms to charger", false
	case controlBit:
		return "Shutdown by BMS", false
	case status&ChargerHardwareFailure != 0:
		return "Hardware failure!", false
	case status&ChargerOvertemp != 0:
		return "Overtemp shutdown", false
	case status&ChargerInputVoltage != 0:
		return "Input voltage error", false
	case status&ChargerBatteryFault != 0:
		return "Battery Fault", false
	case status&ChargerCommsTimeout != 0:
		return "Comms timeout", false
	default:
		return "Charger status OK", true
	}
}
