// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
	Export  ExportConfig  `yaml:"export"`
	Log     LogConfig     `yaml:"log"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	// Name identifies the monitor in exported status (ASCII, max 16 chars).
	Name       string        `yaml:"name"`
	CAN        CANConfig     `yaml:"can"`
	Store      StoreConfig   `yaml:"store"`
	RxBuffer   int           `yaml:"rx_buffer"`
	ConfigLock bool          `yaml:"config_lock"`
	Display    DisplayConfig `yaml:"display"`
}

// ---- CAN ----

const (
	DriverSocketCAN = "socketcan"
	DriverSLCAN     = "slcan"
)

type CANConfig struct {
	Driver      string       `yaml:"driver"`
	Interface   string       `yaml:"interface"` // socketcan
	Serial      SerialConfig `yaml:"serial"`    // slcan
	BitrateKbps int          `yaml:"bitrate_kbps"`
	LogFrames   bool         `yaml:"log_frames"`
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// ---- STORE ----

type StoreConfig struct {
	Path string `yaml:"path"`
}

// ---- DISPLAY ----

const (
	DisplayNone     = "none"
	DisplayTerminal = "terminal"
)

type DisplayConfig struct {
	Driver string `yaml:"driver"`

	// Startup banner; empty keeps the built-in text.
	Product string `yaml:"product"`
	Version string `yaml:"version"`
}

// ---- EXPORT ----

type ExportConfig struct {
	Modbus *ModbusExport `yaml:"modbus"` // optional
	Redis  *RedisExport  `yaml:"redis"`  // optional
}

const (
	TransportModbus = "modbus"
	TransportIngest = "ingest"
)

type ModbusExport struct {
	Transport string `yaml:"transport"`
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type RedisExport struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	Channel  string `yaml:"channel"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and decodes a YAML config file. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}
