// cmd/monitor/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/evms-monitor/internal/canbus"
	"github.com/tamzrod/evms-monitor/internal/config"
	"github.com/tamzrod/evms-monitor/internal/display"
	"github.com/tamzrod/evms-monitor/internal/monitor"
	"github.com/tamzrod/evms-monitor/internal/publish"
	"github.com/tamzrod/evms-monitor/internal/settings"
	"github.com/tamzrod/evms-monitor/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: monitor <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	setupLogging(cfg.Log)
	logger := log.With().Str("monitor", cfg.Monitor.Name).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// CAN bus
	// --------------------

	c := cfg.Monitor.CAN
	bus, err := canbus.Open(canbus.Config{
		Driver:      c.Driver,
		Interface:   c.Interface,
		Port:        c.Serial.Port,
		Baud:        c.Serial.Baud,
		BitrateKbps: c.BitrateKbps,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", c.Driver).Msg("can bus open failed")
	}
	if c.LogFrames {
		bus = canbus.WithLogging(bus, logger, canbus.LogRead|canbus.LogWrite)
	}
	defer bus.Close()

	// --------------------
	// Exporters
	// --------------------

	var exporters []monitor.Exporter

	if m := cfg.Export.Modbus; m != nil {
		w, closeWriter, err := writer.BuildStatusWriter(*m, cfg.Monitor.Name)
		if err != nil {
			logger.Fatal().Err(err).Str("endpoint", m.Endpoint).Msg("status writer build failed")
		}
		defer closeWriter()
		exporters = append(exporters, w)
	}

	if r := cfg.Export.Redis; r != nil {
		p, closeRedis, err := publish.Dial(ctx, *r)
		if err != nil {
			logger.Fatal().Err(err).Str("addr", r.Addr).Msg("redis dial failed")
		}
		defer closeRedis()
		exporters = append(exporters, p)
	}

	// --------------------
	// Monitor
	// --------------------

	opts := monitor.Options{
		Bus:        bus,
		Store:      settings.FileStore{Path: cfg.Monitor.Store.Path},
		Exporters:  exporters,
		RxBuffer:   cfg.Monitor.RxBuffer,
		ConfigLock: cfg.Monitor.ConfigLock,
		Log:        logger,
	}
	if d := cfg.Monitor.Display; d.Driver == config.DisplayTerminal {
		opts.Surface = display.NewTerminal(os.Stdout)
		opts.Renderer = display.Renderer{Product: d.Product, Version: d.Version}
	}

	sys, err := monitor.New(opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("monitor init failed")
	}

	logger.Info().
		Str("driver", c.Driver).
		Int("exporters", len(exporters)).
		Str("display", cfg.Monitor.Display.Driver).
		Msg("monitor started")

	if err := sys.Run(ctx); err != nil {
		logger.Error().Err(err).Uint64("rx_dropped", sys.Dropped()).Msg("monitor stopped")
		return
	}
	logger.Info().Uint64("rx_dropped", sys.Dropped()).Msg("monitor stopped")
}

// setupLogging writes human-readable output to a terminal and JSON
// otherwise. The level was checked by Validate.
func setupLogging(c config.LogConfig) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
