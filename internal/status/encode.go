// internal/status/encode.go
package status

// Encode converts a Snapshot into the live part of a status block
// (slots 0 through SlotLive). The device name is owned by the writer.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotLive+1)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotCoreState] = s.CoreState

	regs[SlotCoreHealth] = s.CoreHealth
	regs[SlotCurrentHealth] = s.CurrentHealth
	regs[SlotMCHealth] = s.MCHealth
	regs[SlotChargerHealth] = s.ChargerHealth
	regs[SlotModulesLive] = s.ModulesLive
	regs[SlotModulesStale] = s.ModulesStale

	regs[SlotPackVoltage] = s.PackVoltage
	regs[SlotCurrent] = uint16(s.Current)
	regs[SlotPower] = s.Power
	regs[SlotSoC] = s.SoC
	regs[SlotAmpHours] = uint16(s.AmpHours)
	regs[SlotAuxVoltage] = s.AuxVoltage
	regs[SlotTemperature] = s.Temperature

	regs[SlotCells] = s.Cells
	regs[SlotCellMin] = s.CellMin
	regs[SlotCellMax] = s.CellMax
	regs[SlotCellAvg] = s.CellAvg
	regs[SlotMinAt] = s.MinAt
	regs[SlotMaxAt] = s.MaxAt

	regs[SlotRxDropped] = s.RxDropped

	return regs
}

// EncodeDeviceName packs up to 16 ASCII characters into 8 registers.
// Each register stores two ASCII bytes in big-endian order.
func EncodeDeviceName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
