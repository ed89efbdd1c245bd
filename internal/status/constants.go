// internal/status/constants.go
package status

// Pack Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of register slots per monitor.
const SlotsPerDevice = 32

// ---- MONITOR HEALTH ----

const (
	SlotHealthCode     = 0
	SlotLastErrorCode  = 1
	SlotSecondsInError = 2
	SlotCoreState      = 3
)

// ---- PEER HEALTH ----

const (
	SlotCoreHealth    = 4
	SlotCurrentHealth = 5
	SlotMCHealth      = 6
	SlotChargerHealth = 7
	SlotModulesLive   = 8
	SlotModulesStale  = 9
)

// ---- PACK VALUES ----

const (
	SlotPackVoltage = 10 // tenths of a volt
	SlotCurrent     = 11 // tenths of an amp, two's complement
	SlotPower       = 12 // tenths of a kW
	SlotSoC         = 13 // percent
	SlotAmpHours    = 14 // tenths of Ah, two's complement
	SlotAuxVoltage  = 15 // tenths of a volt
	SlotTemperature = 16 // degC + 40, 0 = no sensor
)

// ---- CELLS ----

const (
	SlotCells   = 17
	SlotCellMin = 18 // mV
	SlotCellMax = 19 // mV
	SlotCellAvg = 20 // mV
	SlotMinAt   = 21 // module<<8 | cell
	SlotMaxAt   = 22 // module<<8 | cell
)

// SlotRxDropped counts frames lost to a full receive queue (saturating).
const SlotRxDropped = 23

// SlotLive is the last slot rewritten incrementally.
const SlotLive = SlotRxDropped

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 24

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents a peer never heard from.
const HealthUnknown uint16 = 0

// HealthOK represents a peer with fresh data.
const HealthOK uint16 = 1

// HealthError represents a monitor showing a fault.
const HealthError uint16 = 2

// HealthStale represents a peer whose data timed out.
const HealthStale uint16 = 3

// HealthDisabled represents a peer the pack is not configured for.
const HealthDisabled uint16 = 4
