// internal/monitor/system.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/evms-monitor/internal/canbus"
	"github.com/tamzrod/evms-monitor/internal/command"
	"github.com/tamzrod/evms-monitor/internal/derive"
	"github.com/tamzrod/evms-monitor/internal/display"
	"github.com/tamzrod/evms-monitor/internal/peers"
	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/settings"
	"github.com/tamzrod/evms-monitor/internal/status"
)

// Loop timing.
const (
	UITick   = time.Second / 30
	SlowTick = 250 * time.Millisecond

	SlowTickRate = int(time.Second / SlowTick)
)

// Brightness byte values persisted next to the settings.
const (
	brightnessNormal = 0
	brightnessDimmed = 1
	brightnessOff    = 255
)

// Exporter delivers snapshots to an outside system.
type Exporter interface {
	Export(ctx context.Context, s status.Snapshot) error
}

// Options wires a System to its hardware.
type Options struct {
	Bus   canbus.Bus
	Store settings.Store

	// Surface and Pointer are optional; nil runs headless.
	Surface  display.Surface
	Pointer  display.Pointer
	Renderer display.Renderer

	Exporters []Exporter

	RxBuffer   int
	ConfigLock bool

	Log zerolog.Logger

	// Sleep overrides the settle wait between outbound frames.
	Sleep func(ctx context.Context, d time.Duration) error
}

// uiState is what the operator has navigated to.
type uiState struct {
	startup bool
	options bool
	setup   bool

	page   derive.Page
	module int

	setupPage   derive.SettingsPage
	param       settings.Param
	mcParam     int
	setupModule int

	displayOn bool
	dimmed    bool
}

// System is the monitor. Every field below is owned by the goroutine
// running Run; the receive goroutine only touches rx, dropped and rxErr.
type System struct {
	opts Options
	log  zerolog.Logger

	peers     *peers.Table
	settings  *settings.Table
	cmds      command.Queue
	drainer   command.Drainer
	drainHeld bool

	ui      uiState
	touch   display.TouchTracker
	pressed *display.Button

	fault       protocol.Fault
	localFault  bool
	alertBudget int
	errorTicks  int

	grace   int
	acc     time.Duration
	painted bool

	backlight display.Backlight
	buzzer    display.Buzzer

	redraw  atomic.Bool
	dropped atomic.Uint64
	rx      chan canbus.Frame
	rxErr   chan error

	exports chan status.Snapshot
}

// New loads persisted state and prepares a System. A blank or corrupt
// settings image is replaced by defaults, saved straight away and
// reported as CorruptSettings.
func New(opts Options) (*System, error) {
	if opts.Bus == nil {
		return nil, errors.New("monitor: bus required")
	}
	if opts.Store == nil {
		return nil, errors.New("monitor: settings store required")
	}
	if opts.Pointer == nil {
		opts.Pointer = display.NoPointer{}
	}
	if opts.RxBuffer <= 0 {
		opts.RxBuffer = 64
	}

	s := &System{
		opts:      opts,
		log:       opts.Log,
		peers:     peers.NewTable(),
		settings:  settings.Defaults(),
		backlight: display.NewBacklight(),
		buzzer:    display.NewBuzzer(),
		rx:        make(chan canbus.Frame, opts.RxBuffer),
		rxErr:     make(chan error, 1),
		exports:   make(chan status.Snapshot, 1),
	}
	s.ui.startup = true
	s.ui.page = derive.PageCore
	s.drainer = command.Drainer{
		Queue:   &s.cmds,
		Bus:     opts.Bus,
		Persist: s.persist,
		Log:     opts.Log,
		Sleep:   opts.Sleep,
	}

	b, err := settings.LoadBrightness(opts.Store)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	s.ui.displayOn = b != brightnessOff
	s.ui.dimmed = b != brightnessNormal && b != brightnessOff

	st, err := settings.Load(opts.Store, s.settings)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	if st != settings.StatusOK {
		s.log.Warn().Stringer("image", st).Msg("settings unusable, restoring defaults")
		s.settings = settings.Defaults()
		s.setError(protocol.CorruptSettings, true)
		if err := s.persist(); err != nil {
			s.log.Error().Err(err).Msg("saving default settings failed")
		}
	}

	s.buzzer.Enabled = s.settings.Bool(settings.BuzzerOn)
	s.updateBacklight()
	s.redraw.Store(true)
	return s, nil
}

// persist writes the settings image.
func (s *System) persist() error {
	if err := settings.Save(s.opts.Store, s.settings); err != nil {
		return err
	}
	s.log.Info().Int("cells", s.settings.NumCells()).Msg("settings saved")
	return nil
}

// Dropped reports frames lost to a full receive queue.
func (s *System) Dropped() uint64 { return s.dropped.Load() }

// RequestRedraw asks for a full repaint on the next UI tick.
func (s *System) RequestRedraw() { s.redraw.Store(true) }

// ------------------------------------------------------------
// derived helpers
// ------------------------------------------------------------

func (s *System) variant() settings.Variant {
	return settings.VariantOf(s.peers.BMS16, s.peers.BMS12i)
}

func (s *System) schema() settings.Schema { return settings.SchemaFor(s.variant()) }

func (s *System) facts() derive.Facts {
	return derive.Facts{
		CoreSeen:    s.peers.Core.EverReceived,
		CurrentSeen: s.peers.CurrentSensor.EverReceived,
		MCSeen:      s.peers.MC.EverReceived,
		ChargerSeen: s.peers.AnyChargerSeen(),
		NumCells:    s.settings.NumCells(),
		BMS16:       s.peers.BMS16,
		ShuntSize:   s.settings.Get(settings.ShuntSize),
	}
}

func (s *System) stationary() bool { return s.settings.Bool(settings.StationaryVersion) }

func (s *System) view() derive.View {
	return derive.SelectView(derive.ViewInput{
		Setup:      s.ui.setup,
		Fault:      s.fault,
		Stationary: s.stationary(),
		Startup:    s.ui.startup,
		Options:    s.ui.options,
	})
}

// setupAllowed gates Enter Setup: the core must be live and idle (BMS16
// hardware has no drive states) and the configuration must not be locked.
func (s *System) setupAllowed() bool {
	if s.opts.ConfigLock || !s.peers.Core.Live() {
		return false
	}
	return s.peers.CoreStatus.State == protocol.StateIdle || s.peers.BMS16
}

func (s *System) commandSource() command.Source {
	return command.Source{
		Settings:   s.settings,
		Variant:    s.variant(),
		Fault:      s.fault,
		GaugeParam: s.ui.param,
	}
}
