// internal/protocol/ids.go
package protocol

// Wire identifiers shared with the core controller, motor controller,
// chargers and BMS modules. These values define the bus protocol and
// MUST NOT be configurable.

// ---- CORE BLOCK ----

// CoreBaseID is the first identifier of the core controller block.
const CoreBaseID uint32 = 30

const (
	CoreBroadcastStatus = CoreBaseID + iota
	CoreSetState
	CoreReceiveConfig1
	CoreReceiveConfig2
	CoreReceiveConfig3
	CoreReceiveConfig4
	CoreReceiveCellNums
	CoreAcknowledgeError
	CoreResetSoC
	CorePowerOff
)

// ---- CURRENT SENSOR ----

const (
	CurrentSensorID uint32 = 40
	ZeroCurrentID   uint32 = 41
)

// ---- MOTOR CONTROLLER ----

const (
	MCStatusID uint32 = 50 + iota
	MCSetThrottleID
	MCReceiveSettingsID
	MCSendSettingsID
)

// ---- BMS MODULE BLOCK ----

// BMSBaseID is the first identifier of the battery module block.
const BMSBaseID uint32 = 300

// BMSStride is the identifier spacing between consecutive modules.
const BMSStride uint32 = 10

// MaxModules is the number of battery modules tracked.
const MaxModules = 16

// CellsPerModule is the maximum cell count of one module.
const CellsPerModule = 12

// CellsPerGroup is the number of cell voltages carried by one reply frame.
const CellsPerGroup = 4

// Module sub-message types (offset inside one module's stride).
const (
	BMSRequestData uint32 = iota
	BMSReply1
	BMSReply2
	BMSReply3
	BMSReply4
)

// ---- CHARGERS ----

// MaxChargers is the number of TC chargers tracked.
const MaxChargers = 3

// ChargerCommandIDs carry the setpoints sent to each charger.
var ChargerCommandIDs = [MaxChargers]uint32{0x1806E5F4, 0x1806E7F4, 0x1806E8F4}

// ChargerReportIDs carry each charger's broadcast output.
var ChargerReportIDs = [MaxChargers]uint32{0x18FF50E5, 0x18FF50E7, 0x18FF50E8}

// ---- CORE STATES ----

// CoreState is the operating state reported in the core status frame.
type CoreState uint8

const (
	StateIdle CoreState = iota
	StatePrecharging
	StateRunning
	StateCharging
	StateStopped
	StateSetup
)

var coreStateNames = [...]string{"Idle", "Precharging", "Running", "Charging", "Stopped", "Setup"}

func (s CoreState) String() string {
	if int(s) < len(coreStateNames) {
		return coreStateNames[s]
	}
	return "Unknown"
}

// Values for the first byte of a CoreSetState frame.
const (
	SetStateIdle          byte = 0
	SetStateSetup         byte = 1
	SetStateEditFuelGauge byte = 2
	SetStateEditTempGauge byte = 3
)

// ---- MOTOR CONTROLLER TYPES ----

const (
	MCNone  uint8 = 0
	MC600C  uint8 = 1
	MC1000C uint8 = 2
)
