// internal/settings/table.go
package settings

import "github.com/tamzrod/evms-monitor/internal/protocol"

// Table is the complete editable configuration: core settings, expected
// cell counts per BMS module and the motor controller settings.
//
// Every edit leaves each value inside [Min, Max] of the active schema.
type Table struct {
	Values [NumSettings]uint8
	Cells  [protocol.MaxModules]uint8
	MC     protocol.MCSettings
}

// Defaults returns the compiled-in configuration.
func Defaults() *Table {
	t := &Table{}
	for p := Param(0); p < NumSettings; p++ {
		t.Values[p] = params[p].def
	}
	t.Cells[0] = protocol.CellsPerModule
	return t
}

func (t *Table) Get(p Param) uint8 { return t.Values[p] }

func (t *Table) Bool(p Param) bool { return t.Values[p] != 0 }

// NumCells is the total number of monitored cells.
func (t *Table) NumCells() int {
	n := 0
	for _, c := range t.Cells {
		n += int(c)
	}
	return n
}

// chargerPair maps a charger voltage slot to the current slot holding its
// ninth bit.
func chargerPair(p Param) (Param, bool) {
	switch p {
	case ChargerVoltage:
		return ChargerCurrent, true
	case ChargerVoltage2:
		return ChargerCurrent2, true
	}
	return 0, false
}

func isChargerCurrent(p Param) bool {
	return p == ChargerCurrent || p == ChargerCurrent2
}

// chargerCurrentMax is the largest current that leaves the voltage flag bit free.
const chargerCurrentMax = 127

// Edit applies a +1/-1 step to parameter p.
func (t *Table) Edit(s Schema, p Param, delta int) {
	if p < 0 || p >= NumSettings || delta == 0 {
		return
	}

	if cur, ok := chargerPair(p); ok {
		v := t.Values[p]
		high := t.Values[cur] & protocol.ChargerVoltageHighBit
		switch {
		case delta > 0 && v == 255:
			t.Values[cur] |= protocol.ChargerVoltageHighBit
			t.Values[p] = 0
			return
		case delta < 0 && v == 0 && high != 0:
			t.Values[cur] &^= protocol.ChargerVoltageHighBit
			t.Values[p] = 255
			return
		}
	}

	lo, hi := int(s.Min(p)), int(s.Max(p))

	if isChargerCurrent(p) {
		// The top bit belongs to the paired voltage.
		flag := t.Values[p] & protocol.ChargerVoltageHighBit
		if hi > chargerCurrentMax {
			hi = chargerCurrentMax
		}
		low := clamp(int(t.Values[p]&^protocol.ChargerVoltageHighBit)+delta, lo, hi)
		t.Values[p] = flag | uint8(low)
		return
	}

	t.Values[p] = uint8(clamp(int(t.Values[p])+delta, lo, hi))
}

// CapToVariant lowers every value above the variant's maximum.
func (t *Table) CapToVariant(s Schema) {
	for p := Param(0); p < NumSettings; p++ {
		if isChargerCurrent(p) {
			continue
		}
		if hi := s.Max(p); t.Values[p] > hi {
			t.Values[p] = hi
		}
		if cur, ok := chargerPair(p); ok && s.Max(p) < 255 {
			t.Values[cur] &^= protocol.ChargerVoltageHighBit
		}
	}
	for _, p := range []Param{ChargerCurrent, ChargerCurrent2} {
		if s.Max(p) == 0 {
			t.Values[p] = 0
		}
	}
}

// ChargerTarget decodes charger pair n (0 or 1) into volts and amps.
func (t *Table) ChargerTarget(n int) (volts uint16, amps uint8) {
	if n == 1 {
		return protocol.JoinChargerVoltage(t.Values[ChargerVoltage2], t.Values[ChargerCurrent2])
	}
	return protocol.JoinChargerVoltage(t.Values[ChargerVoltage], t.Values[ChargerCurrent])
}

// ---- MC ----

// EditMC steps MC parameter n, honouring the controller type's limits.
func (t *Table) EditMC(mcType uint8, n int, delta int) {
	if n < 0 || n >= protocol.MCNumSettings {
		return
	}
	lo, hi := MCLimits(mcType, n)
	t.MC[n] = uint8(clamp(int(t.MC[n])+delta, int(lo), int(hi)))
}

// ---- CELL COUNTS ----

const minModuleCells = 4

// EditCellCount steps module m's expected cell count. A module is either
// absent (0) or has 4-12 cells.
func (t *Table) EditCellCount(m int, delta int) {
	if m < 0 || m >= protocol.MaxModules {
		return
	}
	v := int(t.Cells[m])
	if delta > 0 {
		v = clamp(v+1, minModuleCells, protocol.CellsPerModule)
	} else if delta < 0 {
		v = clamp(v-1, 0, protocol.CellsPerModule)
		if v < minModuleCells {
			v = 0
		}
	}
	t.Cells[m] = uint8(v)
}

// bms16FirstBoard is the cell count of the first board of a BMS16.
const bms16FirstBoard = 8

// ApplyVariantCells rewrites the module table from the single Num Cells
// setting used by BMS16 and BMS12i hardware.
func (t *Table) ApplyVariantCells(v Variant) {
	if !v.IsBMS16Family() {
		return
	}
	n := t.Values[NumCells]
	t.Cells = [protocol.MaxModules]uint8{}
	switch {
	case v == BMS12i:
		t.Cells[0] = n
	case n <= bms16FirstBoard:
		t.Cells[0] = n
	default:
		t.Cells[0] = bms16FirstBoard
		t.Cells[1] = n - bms16FirstBoard
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
