// internal/writer/status_writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/evms-monitor/internal/status"
)

// deviceStatusWriter is the concrete implementation used by the monitor.
type deviceStatusWriter struct {
	plan StatusPlan
	cli  endpointClient

	needFull bool
	last     []uint16
	nameRegs []uint16
}

// NewDeviceStatusWriter builds a status writer for one endpoint client.
func NewDeviceStatusWriter(plan StatusPlan, cli endpointClient) *deviceStatusWriter {
	return &deviceStatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Encode(status.Snapshot{}),
		nameRegs: status.EncodeDeviceName(plan.DeviceName),
	}
}

// Export satisfies the monitor's exporter contract. Modbus writes carry
// their own timeout, so ctx is only checked up front.
func (sw *deviceStatusWriter) Export(ctx context.Context, s status.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return sw.WriteStatus(s)
}

// WriteStatus delivers a pack status snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}
	if sw.plan.UnitID > 255 {
		return fmt.Errorf("status writer: unit id %d out of range", sw.plan.UnitID)
	}

	regs := status.Encode(s)
	baseAddr := sw.baseAddr()
	unitID := uint8(sw.plan.UnitID)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(unitID, baseAddr, sw.fullBlockRegs(regs)); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		copy(sw.last, regs)
		return nil
	}

	// ------------------------------------------------------------
	// Incremental writes: one request per changed run of slots
	// ------------------------------------------------------------
	var errs []string

	for start := 0; start < len(regs); {
		if regs[start] == sw.last[start] {
			start++
			continue
		}
		end := start + 1
		for end < len(regs) && regs[end] != sw.last[end] {
			end++
		}

		if err := sw.cli.WriteRegisters(unitID, baseAddr+uint16(start), regs[start:end]); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", start, end-1, err))
		} else {
			copy(sw.last[start:end], regs[start:end])
		}
		start = end
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each monitor owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}

func (sw *deviceStatusWriter) fullBlockRegs(live []uint16) []uint16 {
	regs := make([]uint16, status.SlotsPerDevice)
	copy(regs, live)

	// Device name always lives at the end of the block
	copy(regs[status.SlotDeviceNameStart:], sw.nameRegs)

	return regs
}
