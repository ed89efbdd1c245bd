// internal/writer/types.go
package writer

import (
	"context"

	"github.com/tamzrod/evms-monitor/internal/status"
)

// endpointClient is the exact contract the writer uses.
// Both the Modbus TCP and the raw ingest clients satisfy it.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// StatusPlan places one monitor's status block in status memory.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint32
	BaseSlot   uint16
	DeviceName string
}

// StatusWriter is the delivery-only contract for pack status.
// It receives a snapshot and writes it verbatim.
// No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
	Export(ctx context.Context, s status.Snapshot) error
}
