// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// MaxBaseSlot keeps a full status block inside the 16-bit register space.
const MaxBaseSlot = (0xFFFF+1)/statusSlots - 1

// statusSlots mirrors the status block size; config does not import the
// export packages.
const statusSlots = 32

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	m := cfg.Monitor

	// name sanity (ASCII only)
	for i := 0; i < len(m.Name); i++ {
		if m.Name[i] > 0x7F {
			return fmt.Errorf("monitor.name %q must contain ASCII characters only", m.Name)
		}
	}

	// ------------------------------------------------------------
	// CAN TRANSPORT
	// ------------------------------------------------------------

	switch m.CAN.Driver {
	case "", DriverSocketCAN:
	case DriverSLCAN:
		if m.CAN.Serial.Port == "" {
			return fmt.Errorf("monitor.can: driver %q requires serial.port", DriverSLCAN)
		}
	default:
		return fmt.Errorf("monitor.can.driver %q: want %q or %q", m.CAN.Driver, DriverSocketCAN, DriverSLCAN)
	}

	switch m.CAN.BitrateKbps {
	case 0, 10, 20, 50, 100, 125, 250, 500, 800, 1000:
	default:
		return fmt.Errorf("monitor.can.bitrate_kbps %d is not a standard CAN bitrate", m.CAN.BitrateKbps)
	}

	if m.CAN.Serial.Baud < 0 {
		return fmt.Errorf("monitor.can.serial.baud must be >= 0, got %d", m.CAN.Serial.Baud)
	}
	if m.RxBuffer < 0 {
		return fmt.Errorf("monitor.rx_buffer must be >= 0, got %d", m.RxBuffer)
	}

	switch m.Display.Driver {
	case "", DisplayNone, DisplayTerminal:
	default:
		return fmt.Errorf("monitor.display.driver %q: want %q or %q", m.Display.Driver, DisplayNone, DisplayTerminal)
	}
	if len(m.Display.Product) > 16 {
		return fmt.Errorf("monitor.display.product %q: max 16 characters", m.Display.Product)
	}

	// ------------------------------------------------------------
	// EXPORT (OPT-IN)
	// ------------------------------------------------------------

	if x := cfg.Export.Modbus; x != nil {
		if x.Endpoint == "" {
			return fmt.Errorf("export.modbus: endpoint is required")
		}
		switch x.Transport {
		case "", TransportModbus, TransportIngest:
		default:
			return fmt.Errorf("export.modbus.transport %q: want %q or %q", x.Transport, TransportModbus, TransportIngest)
		}
		if x.BaseSlot > MaxBaseSlot {
			return fmt.Errorf(
				"export.modbus.base_slot %d: status block would end past register 65535 (max slot %d)",
				x.BaseSlot,
				MaxBaseSlot,
			)
		}
		if x.TimeoutMs < 0 {
			return fmt.Errorf("export.modbus.timeout_ms must be >= 0, got %d", x.TimeoutMs)
		}
	}

	if r := cfg.Export.Redis; r != nil {
		if r.Addr == "" {
			return fmt.Errorf("export.redis: addr is required")
		}
		if r.DB < 0 {
			return fmt.Errorf("export.redis.db must be >= 0, got %d", r.DB)
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level %q: %w", cfg.Log.Level, err)
		}
	}

	return nil
}
