// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultInterface   = "can0"
	DefaultBitrateKbps = 250
	DefaultBaud        = 115200
	DefaultRxBuffer    = 64
	DefaultStorePath   = "evms-settings.bin"
	DefaultName        = "EVMS"
	DefaultTimeoutMs   = 1000
	DefaultRedisKey    = "evms:pack"
	DefaultLogLevel    = "info"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	m := &cfg.Monitor

	// Normalize name:
	// - ASCII already validated
	// - Truncate to max 16 characters
	if m.Name == "" {
		m.Name = DefaultName
	}
	if len(m.Name) > 16 {
		m.Name = m.Name[:16]
	}

	// ------------------------------------------------------------
	// CAN
	// ------------------------------------------------------------

	if m.CAN.Driver == "" {
		m.CAN.Driver = DriverSocketCAN
	}
	if m.CAN.Driver == DriverSocketCAN && m.CAN.Interface == "" {
		m.CAN.Interface = DefaultInterface
	}
	if m.CAN.BitrateKbps == 0 {
		m.CAN.BitrateKbps = DefaultBitrateKbps
	}
	if m.CAN.Serial.Baud == 0 {
		m.CAN.Serial.Baud = DefaultBaud
	}

	if m.RxBuffer == 0 {
		m.RxBuffer = DefaultRxBuffer
	}
	if m.Store.Path == "" {
		m.Store.Path = DefaultStorePath
	}
	if m.Display.Driver == "" {
		m.Display.Driver = DisplayNone
	}

	// ------------------------------------------------------------
	// EXPORT
	// ------------------------------------------------------------

	if x := cfg.Export.Modbus; x != nil {
		if x.Transport == "" {
			x.Transport = TransportModbus
		}
		if x.TimeoutMs == 0 {
			x.TimeoutMs = DefaultTimeoutMs
		}
	}
	if r := cfg.Export.Redis; r != nil && r.Key == "" {
		r.Key = DefaultRedisKey
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}
