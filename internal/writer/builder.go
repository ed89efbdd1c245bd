// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"
	"time"

	cfg "github.com/tamzrod/evms-monitor/internal/config"
	"github.com/tamzrod/evms-monitor/internal/writer/ingest"
	wmodbus "github.com/tamzrod/evms-monitor/internal/writer/modbus"
)

// BuildPlan converts the export config into a status plan.
// Assumes config has already passed validation.
func BuildPlan(m cfg.ModbusExport, deviceName string) (StatusPlan, error) {
	if m.Endpoint == "" {
		return StatusPlan{}, errors.New("writer: export.modbus.endpoint required")
	}
	return StatusPlan{
		Endpoint:   m.Endpoint,
		UnitID:     uint32(m.UnitID),
		BaseSlot:   m.BaseSlot,
		DeviceName: deviceName,
	}, nil
}

// BuildStatusWriter creates the endpoint client selected by the config
// and a status writer on top of it.
func BuildStatusWriter(m cfg.ModbusExport, deviceName string) (StatusWriter, func() error, error) {
	plan, err := BuildPlan(m, deviceName)
	if err != nil {
		return nil, nil, err
	}
	timeout := time.Duration(m.TimeoutMs) * time.Millisecond

	switch m.Transport {
	case cfg.TransportModbus:
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: m.Endpoint,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return NewDeviceStatusWriter(plan, c), c.Close, nil

	case cfg.TransportIngest:
		c, err := ingest.NewEndpointClient(ingest.Config{
			Endpoint: m.Endpoint,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return NewDeviceStatusWriter(plan, c), c.Close, nil
	}

	return nil, nil, fmt.Errorf("writer: unknown transport %q", m.Transport)
}
