// internal/protocol/codec.go
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Codec functions are pure: fixed payload in, typed record out (and back).
// No IO. No state.

// ErrShortPayload is returned when a payload is shorter than its kind requires.
var ErrShortPayload = errors.New("protocol: short payload")

func need(p []byte, n int, kind string) error {
	if len(p) < n {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPayload, kind, n, len(p))
	}
	return nil
}

// ---- CORE STATUS ----

// CoreStatus is the core controller's periodic broadcast.
type CoreStatus struct {
	State       CoreState
	Fault       Fault
	AmpHours    int16  // tenths of Ah remaining as counted by the core, negative when overdrawn
	PackVoltage uint16 // tenths of a volt
	AuxVoltage  uint8  // tenths of a volt; 255 marks a BMS16 core
	Isolation   uint8  // percent, >100 means not measured
	Headlights  bool
	Temperature uint8 // degC + 40, 0 = no sensor
}

// BMS16AuxMarker is the aux voltage byte value sent by BMS16 hardware.
const BMS16AuxMarker = 255

// IsBMS16 reports whether the frame was sent by the BMS16 product variant.
func (s CoreStatus) IsBMS16() bool { return s.AuxVoltage == BMS16AuxMarker }

func DecodeCoreStatus(p []byte) (CoreStatus, error) {
	if err := need(p, 8, "core status"); err != nil {
		return CoreStatus{}, err
	}
	return CoreStatus{
		State:       CoreState(p[0] & 0x07),
		Fault:       Fault(p[0] >> 3),
		AmpHours:    int16(binary.BigEndian.Uint16(p[1:3])),
		PackVoltage: binary.BigEndian.Uint16(p[3:5]),
		AuxVoltage:  p[5],
		Isolation:   p[6] & 0x7F,
		Headlights:  p[6]&0x80 != 0,
		Temperature: p[7],
	}, nil
}

func (s CoreStatus) Encode() []byte {
	p := make([]byte, 8)
	p[0] = byte(s.State)&0x07 | byte(s.Fault)<<3
	binary.BigEndian.PutUint16(p[1:3], uint16(s.AmpHours))
	binary.BigEndian.PutUint16(p[3:5], s.PackVoltage)
	p[5] = s.AuxVoltage
	p[6] = s.Isolation & 0x7F
	if s.Headlights {
		p[6] |= 0x80
	}
	p[7] = s.Temperature
	return p
}

// ---- CURRENT SENSOR ----

const currentOffset = 8388608

// DecodeCurrent returns the pack current in milliamps from the 24-bit
// offset-binary sensor reading.
func DecodeCurrent(p []byte) (int32, error) {
	if err := need(p, 3, "current sensor"); err != nil {
		return 0, err
	}
	raw := int32(p[0])<<16 | int32(p[1])<<8 | int32(p[2])
	return raw - currentOffset, nil
}

func EncodeCurrent(milliamps int32) []byte {
	raw := uint32(milliamps + currentOffset)
	return []byte{byte(raw >> 16), byte(raw >> 8), byte(raw)}
}

// ---- MOTOR CONTROLLER ----

// MCStatus is the motor controller's status broadcast.
type MCStatus struct {
	Type      uint8 // MC600C, MC1000C
	Fault     uint8
	BattVolts uint16
	BattAmps  uint16
	MotorAmps uint16
	Temp      uint8 // degC
	Throttle  uint8 // percent
	PWM       uint8
}

// MotorVolts derives the motor voltage from battery voltage and PWM duty.
func (m MCStatus) MotorVolts() uint16 {
	return uint16(uint32(m.BattVolts) * uint32(m.PWM) / 255)
}

func DecodeMCStatus(p []byte) (MCStatus, error) {
	if err := need(p, 8, "mc status"); err != nil {
		return MCStatus{}, err
	}
	return MCStatus{
		Type:      p[0] & 0x0F,
		Fault:     p[0] >> 4,
		BattVolts: uint16(p[1]) + uint16(p[6]&0x80)*2,
		BattAmps:  uint16(p[2]) * 5,
		MotorAmps: uint16(p[4]) * 5,
		Temp:      p[5],
		Throttle:  p[6] & 0x7F,
		PWM:       p[7],
	}, nil
}

// MC settings indices. Bytes 0-3 map 1:1, byte 4 packs three fields,
// bytes 5-7 carry indices 7-9.
const (
	MCMinBattVoltage = iota
	MCMaxMotorVoltage
	MCMaxMotorCurrent
	MCMaxBattCurrent
	MCRampRate
	MCSpeedControlType
	MCTorqueControlType
	MCThrottleType
	MCIdleVoltage
	MCIdleCurrent
	MCNumSettings
)

// MCSettings is the motor controller's settings table.
type MCSettings [MCNumSettings]uint8

func DecodeMCSettings(p []byte) (MCSettings, error) {
	var s MCSettings
	if err := need(p, 8, "mc settings"); err != nil {
		return s, err
	}
	for n := 0; n < 4; n++ {
		s[n] = p[n]
	}
	s[MCRampRate] = p[4] & 0x0F
	s[MCSpeedControlType] = (p[4] & 0x30) >> 4
	s[MCTorqueControlType] = (p[4] & 0xC0) >> 6
	for n := 5; n < 8; n++ {
		s[n+2] = p[n]
	}
	return s, nil
}

func (s MCSettings) Encode() []byte {
	p := make([]byte, 8)
	for n := 0; n < 4; n++ {
		p[n] = s[n]
	}
	p[4] = s[MCRampRate]&0x0F | (s[MCSpeedControlType]&0x03)<<4 | (s[MCTorqueControlType]&0x03)<<6
	for n := 5; n < 8; n++ {
		p[n] = s[n+2]
	}
	return p
}

// ---- CHARGERS ----

// ChargerReport is what a charger broadcasts about its own output.
type ChargerReport struct {
	InstVoltage uint16 // tenths of a volt
	InstCurrent uint16 // tenths of an amp
	Status      uint8
	Temp        uint8
}

func DecodeChargerReport(p []byte) (ChargerReport, error) {
	if err := need(p, 6, "charger report"); err != nil {
		return ChargerReport{}, err
	}
	return ChargerReport{
		InstVoltage: binary.BigEndian.Uint16(p[0:2]),
		InstCurrent: binary.BigEndian.Uint16(p[2:4]),
		Status:      p[4],
		Temp:        p[5],
	}, nil
}

func (r ChargerReport) Encode() []byte {
	p := make([]byte, 8)
	binary.BigEndian.PutUint16(p[0:2], r.InstVoltage)
	binary.BigEndian.PutUint16(p[2:4], r.InstCurrent)
	p[4] = r.Status
	p[5] = r.Temp
	return p
}

// ChargerCommand is the setpoint frame addressed to a charger.
type ChargerCommand struct {
	TargetVoltage uint16 // tenths of a volt
	TargetCurrent uint16 // tenths of an amp
	ControlBit    bool   // true = charging disabled
}

func DecodeChargerCommand(p []byte) (ChargerCommand, error) {
	if err := need(p, 5, "charger command"); err != nil {
		return ChargerCommand{}, err
	}
	return ChargerCommand{
		TargetVoltage: binary.BigEndian.Uint16(p[0:2]),
		TargetCurrent: binary.BigEndian.Uint16(p[2:4]),
		ControlBit:    p[4] != 0,
	}, nil
}

func (c ChargerCommand) Encode() []byte {
	p := make([]byte, 8)
	binary.BigEndian.PutUint16(p[0:2], c.TargetVoltage)
	binary.BigEndian.PutUint16(p[2:4], c.TargetCurrent)
	if c.ControlBit {
		p[4] = 1
	}
	return p
}

// ChargerVoltageHighBit is the flag in the charger current setting byte that
// extends the charger voltage setting to nine bits.
const ChargerVoltageHighBit = 0x80

// MaxChargerVoltage is the largest voltage the extended pair can hold.
const MaxChargerVoltage = 511

// SplitChargerVoltage stores a 0-511 voltage and a 0-127 current into the
// voltage/current settings byte pair.
func SplitChargerVoltage(voltage uint16, current uint8) (voltageByte, currentByte uint8) {
	if voltage > MaxChargerVoltage {
		voltage = MaxChargerVoltage
	}
	currentByte = current &^ ChargerVoltageHighBit
	if voltage > 255 {
		currentByte |= ChargerVoltageHighBit
	}
	return uint8(voltage & 0xFF), currentByte
}

// JoinChargerVoltage reverses SplitChargerVoltage.
func JoinChargerVoltage(voltageByte, currentByte uint8) (voltage uint16, current uint8) {
	voltage = uint16(voltageByte) + 256*uint16(currentByte>>7)
	return voltage, currentByte &^ ChargerVoltageHighBit
}

// ---- BMS MODULES ----

// DecodeCellGroup returns four big-endian cell voltages in millivolts.
func DecodeCellGroup(p []byte) ([CellsPerGroup]uint16, error) {
	var cells [CellsPerGroup]uint16
	if err := need(p, 8, "cell group"); err != nil {
		return cells, err
	}
	for n := 0; n < CellsPerGroup; n++ {
		cells[n] = binary.BigEndian.Uint16(p[n*2 : n*2+2])
	}
	return cells, nil
}

func EncodeCellGroup(cells [CellsPerGroup]uint16) []byte {
	p := make([]byte, 8)
	for n, v := range cells {
		binary.BigEndian.PutUint16(p[n*2:n*2+2], v)
	}
	return p
}

// DecodeModuleTemps returns the two raw module temperatures (degC + 40).
func DecodeModuleTemps(p []byte) ([2]uint8, error) {
	if err := need(p, 2, "module temps"); err != nil {
		return [2]uint8{}, err
	}
	return [2]uint8{p[0], p[1]}, nil
}

// PackCellCounts packs two modules per byte, low nibble first.
func PackCellCounts(counts [MaxModules]uint8) []byte {
	p := make([]byte, MaxModules/2)
	for n := range p {
		p[n] = counts[n*2]&0x0F | counts[n*2+1]<<4
	}
	return p
}

func UnpackCellCounts(p []byte) ([MaxModules]uint8, error) {
	var counts [MaxModules]uint8
	if err := need(p, MaxModules/2, "cell counts"); err != nil {
		return counts, err
	}
	for n := 0; n < MaxModules/2; n++ {
		counts[n*2] = p[n] & 0x0F
		counts[n*2+1] = p[n] >> 4
	}
	return counts, nil
}

// ---- SETTINGS ----

// SettingsBlocks is the number of 8-byte blocks of core settings on the wire.
const SettingsBlocks = 4

// SettingsBlock returns block n (0-3) of the settings bytes.
// Missing trailing bytes are sent as zero.
func SettingsBlock(settings []byte, n int) []byte {
	p := make([]byte, 8)
	start := n * 8
	if start < len(settings) {
		copy(p, settings[start:])
	}
	return p
}
