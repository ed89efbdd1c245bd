// internal/derive/summary.go
package derive

import (
	"github.com/tamzrod/evms-monitor/internal/peers"
	"github.com/tamzrod/evms-monitor/internal/protocol"
)

// CellRef locates a cell. Cell is 1-based as shown to the operator.
type CellRef struct {
	Module int
	Cell   int
}

// Summary is the pack-wide view of every configured module.
type Summary struct {
	Cells     int // configured cells
	Reporting int // cells of live modules, the only ones in Min/Max/Sum

	Min, Max     uint16 // mV
	MinAt, MaxAt CellRef
	Sum          int // mV
	Avg          int // mV

	AvgTemp     int // raw, degC + 40
	TempSensors int
}

const noCellMin = 5000

// Summarize aggregates modules with a non-zero configured cell count.
// Stale modules keep their configured cells but contribute no readings
// and no temperatures.
func Summarize(modules *[protocol.MaxModules]peers.Module, counts [protocol.MaxModules]uint8) Summary {
	s := Summary{Min: noCellMin}

	tempSum := 0
	for m := range modules {
		n := int(counts[m])
		if n == 0 {
			continue
		}
		if n > protocol.CellsPerModule {
			n = protocol.CellsPerModule
		}
		s.Cells += n

		mod := &modules[m]
		if !mod.Live() {
			continue
		}
		for _, t := range mod.Temps {
			if t > 0 {
				tempSum += int(t)
				s.TempSensors++
			}
		}
		for c := 0; c < n; c++ {
			v := mod.Cells[c]
			if v < s.Min {
				s.Min = v
				s.MinAt = CellRef{Module: m, Cell: c + 1}
			}
			if v > s.Max {
				s.Max = v
				s.MaxAt = CellRef{Module: m, Cell: c + 1}
			}
			s.Sum += int(v)
			s.Reporting++
		}
	}

	if s.Reporting > 0 {
		s.Avg = s.Sum / s.Reporting
	} else {
		s.Min = 0
	}
	if s.TempSensors > 0 {
		s.AvgTemp = tempSum / s.TempSensors
	}
	return s
}
