// internal/monitor/monitor_test.go
package monitor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/evms-monitor/internal/canbus"
	"github.com/tamzrod/evms-monitor/internal/command"
	"github.com/tamzrod/evms-monitor/internal/derive"
	"github.com/tamzrod/evms-monitor/internal/display"
	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/settings"
	"github.com/tamzrod/evms-monitor/internal/status"
)

// ------------------------------------------------------------
// fakes
// ------------------------------------------------------------

type fakeBus struct {
	mu       sync.Mutex
	sent     []canbus.Frame
	attempts int
	fail     error
	rx       chan canbus.Frame
	closed   chan struct{}
	once     sync.Once
}

func newFakeBus() *fakeBus {
	return &fakeBus{rx: make(chan canbus.Frame, 16), closed: make(chan struct{})}
}

func (b *fakeBus) Send(_ context.Context, f canbus.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	if b.fail != nil {
		return b.fail
	}
	b.sent = append(b.sent, f)
	return nil
}

func (b *fakeBus) Receive(ctx context.Context) (canbus.Frame, error) {
	select {
	case f := <-b.rx:
		return f, nil
	case <-b.closed:
		return canbus.Frame{}, canbus.ErrClosed
	case <-ctx.Done():
		return canbus.Frame{}, ctx.Err()
	}
}

func (b *fakeBus) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func (b *fakeBus) sentIDs() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]uint32, len(b.sent))
	for i, f := range b.sent {
		ids[i] = f.ID
	}
	return ids
}

type fakeExporter struct {
	got chan status.Snapshot
}

func (x *fakeExporter) Export(_ context.Context, s status.Snapshot) error {
	x.got <- s
	return nil
}

func noSleep(context.Context, time.Duration) error { return nil }

// validStore returns a store holding the default settings.
func validStore(t *testing.T) *settings.MemStore {
	t.Helper()
	st := &settings.MemStore{}
	if err := settings.Save(st, settings.Defaults()); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return st
}

func newSystem(t *testing.T, st settings.Store, mut ...func(*Options)) (*System, *fakeBus) {
	t.Helper()
	bus := newFakeBus()
	opts := Options{Bus: bus, Store: st, Log: zerolog.Nop(), Sleep: noSleep}
	for _, m := range mut {
		m(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return s, bus
}

func frame(t *testing.T, id uint32, data []byte) canbus.Frame {
	t.Helper()
	f, err := canbus.NewFrame(id, data)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	return f
}

func coreFrame(t *testing.T, cs protocol.CoreStatus) canbus.Frame {
	return frame(t, protocol.CoreBroadcastStatus, cs.Encode())
}

func mcFrame(t *testing.T) canbus.Frame {
	return frame(t, protocol.MCStatusID, []byte{protocol.MC1000C, 100, 10, 0, 10, 30, 50, 128})
}

// slowTicks runs n slow ticks, feeding the frames before each one.
func slowTicks(s *System, n int, frames ...canbus.Frame) {
	for i := 0; i < n; i++ {
		for _, f := range frames {
			s.handleFrame(f)
		}
		s.tick(context.Background(), SlowTick)
	}
}

func tap(s *System, b *display.Button) {
	x, y := b.X, b.Y+display.ButtonHeight/2
	s.handleTouch(display.Touch{Gesture: display.Press, X: x, Y: y, Samples: display.PressSamples})
	s.handleTouch(display.Touch{Gesture: display.Release, X: x, Y: y, Samples: display.PressSamples, Stable: true})
}

func tapAt(s *System, x, y int) {
	s.handleTouch(display.Touch{Gesture: display.Press, X: x, Y: y, Samples: display.PressSamples})
	s.handleTouch(display.Touch{Gesture: display.Release, X: x, Y: y, Samples: display.PressSamples, Stable: true})
}

// ------------------------------------------------------------
// startup & persistence
// ------------------------------------------------------------

func TestNew_BlankSettingsRaiseCorruptAndSave(t *testing.T) {
	st := &settings.MemStore{}
	s, _ := newSystem(t, st)

	if s.fault != protocol.CorruptSettings || !s.localFault {
		t.Fatalf("expected latched CorruptSettings, got %v local=%v", s.fault, s.localFault)
	}
	if !s.ui.displayOn {
		t.Fatalf("a fault must wake the display")
	}

	img, err := settings.Load(st, settings.Defaults())
	if err != nil || img != settings.StatusOK {
		t.Fatalf("defaults not saved: %v %v", img, err)
	}
}

func TestNew_BrightnessByte(t *testing.T) {
	cases := []struct {
		b          byte
		on, dimmed bool
	}{
		{0, true, false},
		{1, true, true},
		{255, false, false},
	}
	for _, c := range cases {
		st := validStore(t)
		if err := settings.SaveBrightness(st, c.b); err != nil {
			t.Fatalf("seed brightness: %v", err)
		}
		s, _ := newSystem(t, st)
		if s.ui.displayOn != c.on || s.ui.dimmed != c.dimmed {
			t.Fatalf("byte %d: on=%v dimmed=%v", c.b, s.ui.displayOn, s.ui.dimmed)
		}
		if s.fault != protocol.NoFault {
			t.Fatalf("valid image raised %v", s.fault)
		}
	}
}

func TestNew_RequiresBusAndStore(t *testing.T) {
	if _, err := New(Options{Store: &settings.MemStore{}}); err == nil {
		t.Fatalf("missing bus accepted")
	}
	if _, err := New(Options{Bus: newFakeBus()}); err == nil {
		t.Fatalf("missing store accepted")
	}
}

// ------------------------------------------------------------
// aging & faults
// ------------------------------------------------------------

func TestSilentCoreRaisesCommsErrorAndRecovers(t *testing.T) {
	s, _ := newSystem(t, validStore(t))

	slowTicks(s, 3)
	if s.fault != protocol.NoFault {
		t.Fatalf("fault raised before the core budget ran out")
	}
	slowTicks(s, 1)
	if s.fault != protocol.CoreCommsError {
		t.Fatalf("expected CoreCommsError, got %v", s.fault)
	}
	if s.view() != derive.ViewError {
		t.Fatalf("comms error must be shown")
	}

	slowTicks(s, 1, coreFrame(t, protocol.CoreStatus{State: protocol.StateIdle}))
	if s.fault != protocol.NoFault {
		t.Fatalf("comms error not cleared on recovery: %v", s.fault)
	}
}

func TestMotorControllerOnlyInstallation(t *testing.T) {
	s, _ := newSystem(t, validStore(t))

	slowTicks(s, 4, mcFrame(t))
	if s.fault != protocol.NoFault {
		t.Fatalf("silent core must not fault with a motor controller present: %v", s.fault)
	}
	if s.ui.startup || s.ui.page != derive.PageMC {
		t.Fatalf("expected the MC page after startup, got startup=%v page=%v", s.ui.startup, s.ui.page)
	}
}

func TestCoreFaultAdoptedAndAcknowledged(t *testing.T) {
	s, bus := newSystem(t, validStore(t))
	ctx := context.Background()

	s.handleFrame(coreFrame(t, protocol.CoreStatus{State: protocol.StateRunning, Fault: protocol.LowSoC}))
	s.tick(ctx, 0)
	if s.fault != protocol.LowSoC || s.localFault {
		t.Fatalf("core fault not adopted: %v", s.fault)
	}
	// the first alert beep already went out on this tick
	if s.alertBudget != display.AlertRepeats-1 {
		t.Fatalf("alert budget not armed: %d", s.alertBudget)
	}

	tapAt(s, 160, 120)
	if s.cmds.Pending() != command.AckError {
		t.Fatalf("expected AckError queued, got %v", s.cmds.Pending())
	}

	s.tick(ctx, 0)
	ids := bus.sentIDs()
	if len(ids) != 1 || ids[0] != protocol.CoreAcknowledgeError {
		t.Fatalf("unexpected frames %v", ids)
	}
	if bus.sent[0].Data[0] != byte(protocol.LowSoC) {
		t.Fatalf("ack carries the wrong code %d", bus.sent[0].Data[0])
	}
	if s.cmds.Pending() != command.None {
		t.Fatalf("command not cleared after drain")
	}
}

func TestSilentCoreDropsFaultAndSetup(t *testing.T) {
	s, _ := newSystem(t, validStore(t))

	slowTicks(s, 2, mcFrame(t), coreFrame(t, protocol.CoreStatus{State: protocol.StateIdle, Fault: protocol.Overtemp}))
	if s.fault != protocol.Overtemp || !s.setupAllowed() {
		t.Fatalf("live core: fault=%v setup=%v", s.fault, s.setupAllowed())
	}

	// the motor controller keeps talking, so no comms error is raised
	slowTicks(s, 20, mcFrame(t))
	if s.peers.Core.Live() {
		t.Fatalf("core should have gone stale")
	}
	if s.fault != protocol.NoFault {
		t.Fatalf("stale core fault still shown: %v", s.fault)
	}
	if s.setupAllowed() {
		t.Fatalf("setup offered on a stale core state")
	}
}

func TestFailedCommandRetriesOnSlowTicks(t *testing.T) {
	s, bus := newSystem(t, validStore(t))
	ctx := context.Background()
	bus.fail = errors.New("bus off")

	s.cmds.Set(command.ResetSoC)
	for i := 0; i < 5; i++ {
		s.tick(ctx, 0)
	}
	if bus.attempts != 1 {
		t.Fatalf("expected one attempt between slow ticks, got %d", bus.attempts)
	}
	if s.cmds.Pending() != command.ResetSoC {
		t.Fatalf("failed command must stay pending")
	}

	s.tick(ctx, SlowTick)
	if bus.attempts != 2 {
		t.Fatalf("expected a retry on the slow tick, got %d attempts", bus.attempts)
	}

	bus.fail = nil
	s.tick(ctx, SlowTick)
	if s.cmds.Pending() != command.None || len(bus.sentIDs()) != 1 {
		t.Fatalf("retry did not go out: pending=%v sent=%v", s.cmds.Pending(), bus.sentIDs())
	}

	// healthy again: the next command goes out on the next UI tick
	s.cmds.Set(command.ZeroCurrent)
	s.tick(ctx, 0)
	if ids := bus.sentIDs(); len(ids) != 2 || ids[1] != protocol.ZeroCurrentID {
		t.Fatalf("unexpected frames %v", ids)
	}
}

func TestLocalFaultBlocksCoreAdoption(t *testing.T) {
	s, bus := newSystem(t, &settings.MemStore{})
	ctx := context.Background()

	s.handleFrame(coreFrame(t, protocol.CoreStatus{Fault: protocol.Low12V}))
	s.tick(ctx, 0)
	if s.fault != protocol.CorruptSettings {
		t.Fatalf("local fault overwritten by %v", s.fault)
	}

	tapAt(s, 10, 10)
	if s.fault != protocol.NoFault || s.cmds.Pending() != command.None {
		t.Fatalf("local fault must clear without bus traffic")
	}

	s.tick(ctx, 0)
	if s.fault != protocol.Low12V {
		t.Fatalf("core fault not adopted after clearing: %v", s.fault)
	}
	if len(bus.sentIDs()) != 0 {
		t.Fatalf("unexpected frames %v", bus.sentIDs())
	}
}

func TestStationaryCellWarningsStayHidden(t *testing.T) {
	st := settings.Defaults()
	st.Values[settings.StationaryVersion] = 1
	store := &settings.MemStore{}
	if err := settings.Save(store, st); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, _ := newSystem(t, store)

	s.handleFrame(coreFrame(t, protocol.CoreStatus{Fault: protocol.BMSHighWarning}))
	s.tick(context.Background(), 0)
	if s.fault != protocol.BMSHighWarning || s.view() == derive.ViewError {
		t.Fatalf("stationary warning must not take over the screen")
	}
}

// ------------------------------------------------------------
// navigation & input
// ------------------------------------------------------------

func liveCore(t *testing.T, s *System, state protocol.CoreState) {
	t.Helper()
	slowTicks(s, derive.CoreStartupGrace+1, coreFrame(t, protocol.CoreStatus{State: state, PackVoltage: 3200}))
	if s.ui.startup || s.ui.page != derive.PageCore {
		t.Fatalf("startup did not end on the core page")
	}
}

func TestPageSwipeSkipsUnavailablePages(t *testing.T) {
	s, _ := newSystem(t, validStore(t))
	liveCore(t, s, protocol.StateIdle)

	// right half: forward
	tapAt(s, 300, 100)
	if s.ui.page != derive.PageBMSSummary {
		t.Fatalf("expected BMS summary, got %v", s.ui.page)
	}
	// left half: back
	tapAt(s, 20, 100)
	if s.ui.page != derive.PageCore {
		t.Fatalf("expected core page, got %v", s.ui.page)
	}
}

func TestModuleButtonsOnDetailsPage(t *testing.T) {
	st := settings.Defaults()
	st.Cells[3] = 8
	store := &settings.MemStore{}
	_ = settings.Save(store, st)
	s, _ := newSystem(t, store)
	liveCore(t, s, protocol.StateIdle)

	s.ui.page = derive.PageBMSDetails
	tap(s, &display.NextModuleButton)
	if s.ui.module != 3 {
		t.Fatalf("expected module 3, got %d", s.ui.module)
	}
	if s.ui.page != derive.PageBMSDetails {
		t.Fatalf("module button must not change the page")
	}
}

func TestOptionsSetupRoundTrip(t *testing.T) {
	store := validStore(t)
	s, bus := newSystem(t, store)
	ctx := context.Background()
	liveCore(t, s, protocol.StateIdle)

	s.handleTouch(display.Touch{Gesture: display.Hold, X: 160, Y: 100, Samples: display.HoldSamples})
	if s.view() != derive.ViewOptions {
		t.Fatalf("long press must open options")
	}

	tap(s, &display.EnterSetupButton)
	if !s.ui.setup || s.cmds.Pending() != command.EnterSetup {
		t.Fatalf("setup not entered")
	}
	s.tick(ctx, 0)

	// pack capacity is the first general parameter
	tap(s, &display.ValueRight)
	if got := s.settings.Get(settings.PackCapacity); got != 21 {
		t.Fatalf("pack capacity not edited: %d", got)
	}

	tap(s, &display.ExitSetupButton)
	if s.ui.setup || s.cmds.Pending() != command.SendSettings {
		t.Fatalf("setup not left")
	}
	s.tick(ctx, 0)

	ids := bus.sentIDs()
	if ids[0] != protocol.CoreSetState || ids[2] != protocol.CoreReceiveCellNums {
		t.Fatalf("unexpected frame order %v", ids)
	}
	if ids[len(ids)-1] != protocol.CoreSetState {
		t.Fatalf("settings transaction must end by idling the core")
	}

	saved := settings.Defaults()
	if st, err := settings.Load(store, saved); err != nil || st != settings.StatusOK {
		t.Fatalf("reload: %v %v", st, err)
	}
	if saved.Get(settings.PackCapacity) != 21 {
		t.Fatalf("edit not persisted")
	}
}

func TestSetupRefusedWhileRunningOrLocked(t *testing.T) {
	s, _ := newSystem(t, validStore(t))
	liveCore(t, s, protocol.StateRunning)
	s.ui.options = true
	tap(s, &display.EnterSetupButton)
	if s.ui.setup {
		t.Fatalf("setup entered while running")
	}

	locked, _ := newSystem(t, validStore(t), func(o *Options) { o.ConfigLock = true })
	liveCore(t, locked, protocol.StateIdle)
	locked.ui.options = true
	tap(locked, &display.EnterSetupButton)
	if locked.ui.setup {
		t.Fatalf("setup entered while locked")
	}
}

func TestSetupKeyRepeat(t *testing.T) {
	s, _ := newSystem(t, validStore(t))
	liveCore(t, s, protocol.StateIdle)
	s.ui.setup = true

	b := &display.ValueRight
	x, y := b.X, b.Y+4
	s.handleTouch(display.Touch{Gesture: display.Press, X: x, Y: y, Samples: display.PressSamples})
	s.handleTouch(display.Touch{Gesture: display.Hold, X: x, Y: y, Samples: display.HoldSamples})
	s.handleTouch(display.Touch{Gesture: display.Repeat, X: x, Y: y, Samples: display.HoldSamples + display.RepeatSamples})

	if got := s.settings.Get(settings.PackCapacity); got != 22 {
		t.Fatalf("expected two repeats, capacity=%d", got)
	}
}

func TestDisplayOffAndWake(t *testing.T) {
	store := validStore(t)
	s, _ := newSystem(t, store)
	liveCore(t, s, protocol.StateIdle)

	s.ui.options = true
	tap(s, &display.DisplayOffButton)
	if s.ui.displayOn || s.backlight.On() {
		t.Fatalf("display still on")
	}
	if b, _ := settings.LoadBrightness(store); b != 255 {
		t.Fatalf("off not persisted: %d", b)
	}

	// short touches are ignored while dark
	tapAt(s, 300, 100)
	if s.ui.page != derive.PageCore {
		t.Fatalf("dark panel navigated")
	}

	s.handleTouch(display.Touch{Gesture: display.Hold, X: 10, Y: 10, Samples: display.HoldSamples})
	if !s.ui.displayOn || s.ui.options {
		t.Fatalf("hold must wake the display without options")
	}
	if b, _ := settings.LoadBrightness(store); b != 0 {
		t.Fatalf("wake not persisted: %d", b)
	}
}

func TestPowerOffOnBMS16(t *testing.T) {
	s, _ := newSystem(t, validStore(t))
	liveCore(t, s, protocol.StateIdle)
	s.peers.BMS16 = true

	s.ui.options = true
	tap(s, &display.DisplayOffButton)
	if s.cmds.Pending() != command.PowerOff || !s.ui.displayOn {
		t.Fatalf("BMS16 must power off instead of blanking")
	}
}

func TestSwipesDimAndBrighten(t *testing.T) {
	store := validStore(t)
	s, _ := newSystem(t, store)

	s.handleTouch(display.Touch{Gesture: display.SwipeDown, Samples: display.SwipeSamples})
	if !s.ui.dimmed {
		t.Fatalf("swipe down must dim")
	}
	if b, _ := settings.LoadBrightness(store); b != 1 {
		t.Fatalf("dim not persisted: %d", b)
	}

	s.handleTouch(display.Touch{Gesture: display.SwipeUp, Samples: display.SwipeSamples})
	if s.ui.dimmed {
		t.Fatalf("swipe up must brighten")
	}
}

// ------------------------------------------------------------
// runtime
// ------------------------------------------------------------

func TestReceiveDropsWhenQueueFull(t *testing.T) {
	s, bus := newSystem(t, validStore(t), func(o *Options) { o.RxBuffer = 1 })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 4; i++ {
		bus.rx <- frame(t, protocol.CurrentSensorID, protocol.EncodeCurrent(int32(i)))
	}
	go s.receive(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for s.Dropped() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 drops, got %d", s.Dropped())
		}
		time.Sleep(time.Millisecond)
	}
	if len(s.rx) != 1 {
		t.Fatalf("queue should hold one frame")
	}
}

func TestRunStopsOnBusFailure(t *testing.T) {
	s, bus := newSystem(t, validStore(t))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	bus.Close()
	select {
	case err := <-done:
		if !errors.Is(err, canbus.ErrClosed) {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newSystem(t, validStore(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop")
	}
}

func TestRenderToTerminal(t *testing.T) {
	var out bytes.Buffer
	term := display.NewTerminal(&out)
	s, _ := newSystem(t, validStore(t), func(o *Options) { o.Surface = term })

	s.tick(context.Background(), 0)
	if !s.painted {
		t.Fatalf("first tick must paint")
	}
	liveCore(t, s, protocol.StateIdle)
	if !strings.Contains(term.Text(), "EVMS : Idle") {
		t.Fatalf("core page not rendered:\n%s", term.Text())
	}
	if out.Len() == 0 {
		t.Fatalf("terminal never flushed")
	}
}

// ------------------------------------------------------------
// export
// ------------------------------------------------------------

func TestSnapshotValues(t *testing.T) {
	s, _ := newSystem(t, validStore(t))

	s.handleFrame(coreFrame(t, protocol.CoreStatus{
		State: protocol.StateRunning, PackVoltage: 3200, AmpHours: 500, AuxVoltage: 130, Temperature: 65,
	}))
	s.handleFrame(frame(t, protocol.CurrentSensorID, protocol.EncodeCurrent(50000)))
	var cells [protocol.CellsPerGroup]uint16
	for i := range cells {
		cells[i] = 3300 + uint16(i)
	}
	s.handleFrame(frame(t, protocol.BMSBaseID+protocol.BMSReply1, protocol.EncodeCellGroup(cells)))

	snap := s.Snapshot()
	if snap.Health != status.HealthOK || snap.CoreHealth != status.HealthOK || snap.MCHealth != status.HealthUnknown {
		t.Fatalf("unexpected health %+v", snap)
	}
	if snap.PackVoltage != 3200 || snap.SoC != 50 || snap.AuxVoltage != 130 {
		t.Fatalf("unexpected pack values %+v", snap)
	}
	if snap.Current != 500 || snap.Power != 160 {
		t.Fatalf("unexpected current/power %d %d", snap.Current, snap.Power)
	}
	if snap.Cells != 12 || snap.CellMax != 3303 || snap.MaxAt != status.CellRef(0, 4) || snap.ModulesLive != 1 {
		t.Fatalf("unexpected cell values %+v", snap)
	}
}

func TestSnapshotStaleCoreExportsZero(t *testing.T) {
	s, _ := newSystem(t, validStore(t))
	s.handleFrame(mcFrame(t))
	s.handleFrame(coreFrame(t, protocol.CoreStatus{PackVoltage: 3200}))
	slowTicks(s, 4)

	snap := s.Snapshot()
	if snap.CoreHealth != status.HealthStale || snap.PackVoltage != 0 || snap.Health != status.HealthStale {
		t.Fatalf("stale core exported %+v", snap)
	}
}

func TestExportKeepsLatestSnapshot(t *testing.T) {
	x := &fakeExporter{got: make(chan status.Snapshot, 4)}
	s, _ := newSystem(t, validStore(t), func(o *Options) { o.Exporters = []Exporter{x} })

	s.export(status.Snapshot{SoC: 1})
	s.export(status.Snapshot{SoC: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.exportLoop(ctx)

	select {
	case got := <-x.got:
		if got.SoC != 2 {
			t.Fatalf("stale snapshot exported: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("nothing exported")
	}
}
