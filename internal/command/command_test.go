// internal/command/command_test.go
package command

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/evms-monitor/internal/canbus"
	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/settings"
)

// ------------------------------------------------------------
// fakes
// ------------------------------------------------------------

type event struct {
	id      uint32
	data    []byte
	persist bool
	sleep   time.Duration
}

type recorder struct {
	events []event
	failOn uint32
}

func (r *recorder) Send(_ context.Context, f canbus.Frame) error {
	if r.failOn != 0 && f.ID == r.failOn {
		return errors.New("bus off")
	}
	r.events = append(r.events, event{id: f.ID, data: append([]byte(nil), f.Payload()...)})
	return nil
}

func (r *recorder) persist() error {
	r.events = append(r.events, event{persist: true})
	return nil
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.events = append(r.events, event{sleep: d})
	return nil
}

func newDrainer(r *recorder) *Drainer {
	return &Drainer{
		Queue:   &Queue{},
		Bus:     r,
		Persist: r.persist,
		Sleep:   r.sleep,
		Log:     zerolog.Nop(),
	}
}

// ------------------------------------------------------------
// queue
// ------------------------------------------------------------

func TestQueue_LastWriteWins(t *testing.T) {
	var q Queue
	q.Set(ResetSoC)
	q.Set(ZeroCurrent)
	if q.Pending() != ZeroCurrent {
		t.Fatalf("expected zero-current, got %v", q.Pending())
	}

	if q.Clear(ResetSoC) {
		t.Fatalf("clearing a replaced command must not drop the newer one")
	}
	if !q.Clear(ZeroCurrent) || q.Pending() != None {
		t.Fatalf("slot not cleared")
	}
}

// ------------------------------------------------------------
// plan
// ------------------------------------------------------------

func TestPlan_SingleFrames(t *testing.T) {
	src := Source{Settings: settings.Defaults(), Fault: protocol.Fault(7)}

	cases := []struct {
		kind   Kind
		id     uint32
		data   []byte
		settle time.Duration
	}{
		{ResetSoC, protocol.CoreResetSoC, []byte{}, 5 * time.Millisecond},
		{ZeroCurrent, protocol.ZeroCurrentID, []byte{}, 5 * time.Millisecond},
		{PowerOff, protocol.CorePowerOff, []byte{}, 5 * time.Millisecond},
		{AckError, protocol.CoreAcknowledgeError, []byte{7}, 5 * time.Millisecond},
	}

	for _, tc := range cases {
		steps := Plan(tc.kind, src)
		if len(steps) != 1 {
			t.Fatalf("%v: expected 1 step, got %d", tc.kind, len(steps))
		}
		st := steps[0]
		if st.Op != OpSend || st.ID != tc.id || !bytes.Equal(st.Data, tc.data) || st.Settle != tc.settle {
			t.Fatalf("%v: bad step %+v", tc.kind, st)
		}
	}

	if Plan(None, src) != nil {
		t.Fatalf("none must plan nothing")
	}
}

func TestPlan_EnterSetup(t *testing.T) {
	steps := Plan(EnterSetup, Source{Settings: settings.Defaults()})
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].ID != protocol.CoreSetState || !bytes.Equal(steps[0].Data, []byte{protocol.SetStateSetup}) {
		t.Fatalf("bad set-state step %+v", steps[0])
	}
	if steps[1].ID != protocol.MCReceiveSettingsID || !bytes.Equal(steps[1].Data, []byte{0}) || steps[1].Settle != 0 {
		t.Fatalf("bad mc request step %+v", steps[1])
	}
}

func TestPlan_GaugeState(t *testing.T) {
	tbl := settings.Defaults()
	tbl.Values[settings.FuelGaugeFull] = 200

	steps := Plan(GaugeState, Source{Settings: tbl, GaugeParam: settings.FuelGaugeFull})
	if !bytes.Equal(steps[0].Data, []byte{protocol.SetStateEditFuelGauge, 200}) {
		t.Fatalf("fuel gauge: %v", steps[0].Data)
	}

	steps = Plan(GaugeState, Source{Settings: tbl, GaugeParam: settings.PackCapacity})
	if steps[0].Data[0] != protocol.SetStateSetup {
		t.Fatalf("non-gauge param must fall back to setup state, got %d", steps[0].Data[0])
	}
}

// ------------------------------------------------------------
// drain
// ------------------------------------------------------------

func TestDrain_SettingsOrder(t *testing.T) {
	r := &recorder{}
	d := newDrainer(r)
	d.Queue.Set(SendSettings)

	tbl := settings.Defaults()
	k, err := d.Drain(context.Background(), Source{Settings: tbl})
	if err != nil || k != SendSettings {
		t.Fatalf("drain: %v %v", k, err)
	}

	var ids []uint32
	persistAt := -1
	for _, ev := range r.events {
		switch {
		case ev.persist:
			persistAt = len(ids)
		case ev.sleep == 0:
			ids = append(ids, ev.id)
		}
	}

	want := []uint32{
		protocol.CoreReceiveCellNums,
		protocol.CoreReceiveConfig1,
		protocol.CoreReceiveConfig2,
		protocol.CoreReceiveConfig3,
		protocol.CoreReceiveConfig4,
		protocol.MCReceiveSettingsID,
		protocol.CoreSetState,
	}
	if len(ids) != len(want) {
		t.Fatalf("expected %d frames, got %v", len(want), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("frame %d: expected %d, got %d", i, want[i], ids[i])
		}
	}
	if persistAt != 6 {
		t.Fatalf("persist must follow the mc block and precede return-to-idle, at %d", persistAt)
	}
	if d.Queue.Pending() != None {
		t.Fatalf("slot not cleared")
	}
}

func TestDrain_FailureKeepsPendingAndSkipsPersist(t *testing.T) {
	r := &recorder{failOn: protocol.CoreReceiveConfig3}
	d := newDrainer(r)
	d.Queue.Set(SendSettings)

	_, err := d.Drain(context.Background(), Source{Settings: settings.Defaults()})
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, ev := range r.events {
		if ev.persist {
			t.Fatalf("persisted after failed send")
		}
	}
	if d.Queue.Pending() != SendSettings {
		t.Fatalf("command must stay pending, got %v", d.Queue.Pending())
	}
}

func TestDrain_RewritesBMS16Cells(t *testing.T) {
	r := &recorder{}
	d := newDrainer(r)
	d.Queue.Set(SendSettings)

	tbl := settings.Defaults()
	tbl.Values[settings.NumCells] = 14

	if _, err := d.Drain(context.Background(), Source{Settings: tbl, Variant: settings.BMS16}); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if tbl.Cells[0] != 8 || tbl.Cells[1] != 6 {
		t.Fatalf("cells not rewritten: %v", tbl.Cells[:2])
	}
}

func TestDrain_Nothing(t *testing.T) {
	r := &recorder{}
	d := newDrainer(r)
	if k, err := d.Drain(context.Background(), Source{}); k != None || err != nil || len(r.events) != 0 {
		t.Fatalf("idle drain did something: %v %v %d", k, err, len(r.events))
	}
}
