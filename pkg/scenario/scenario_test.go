package scenario

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/psaab/nocterm/pkg/eventlog"
	"github.com/psaab/nocterm/pkg/netmodel"
	"github.com/psaab/nocterm/pkg/sched"
)

func setup() (*Engine, *netmodel.Model, *eventlog.Log, *sched.Manual) {
	clock := sched.NewManual(time.Unix(0, 0))
	log := eventlog.New(100, clock.Now)
	model := netmodel.New(netmodel.DefaultSeed(), log, nil)
	return New(model, log, clock, nil), model, log, clock
}

func TestBGPFlapAlternates(t *testing.T) {
	e, model, log, clock := setup()
	if err := e.Start(BGPFlap); err != nil {
		t.Fatal(err)
	}
	if e.Current() != BGPFlap {
		t.Fatalf("Current() = %q", e.Current())
	}
	base := log.Len()

	var states []string
	for i := 0; i < 4; i++ {
		clock.Advance(5500 * time.Millisecond)
		n, _ := model.Neighbor("10.45.0.1")
		states = append(states, n.State)
	}
	want := []string{netmodel.StateIdle, netmodel.StateEstablished, netmodel.StateIdle, netmodel.StateEstablished}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("tick %d state = %q, want %q", i+1, states[i], want[i])
		}
	}
	if got := log.Len() - base; got != 4 {
		t.Errorf("log entries per 4 toggles = %d, want 4", got)
	}
	if e.Ticks() != 4 {
		t.Errorf("Ticks() = %d", e.Ticks())
	}
}

func TestUplinkDownKeepsInvariant(t *testing.T) {
	e, model, _, clock := setup()
	if err := e.Start(UplinkDown); err != nil {
		t.Fatal(err)
	}
	clock.Advance(7 * time.Second)
	u, _ := model.Uplink()
	if u.AdminUp || u.OperUp {
		t.Errorf("after first tick admin=%v oper=%v, want both down", u.AdminUp, u.OperUp)
	}
	clock.Advance(7 * time.Second)
	u, _ = model.Uplink()
	if !u.AdminUp || !u.OperUp {
		t.Errorf("after second tick admin=%v oper=%v, want both up", u.AdminUp, u.OperUp)
	}
}

func TestStartReplacesAndStop(t *testing.T) {
	e, model, log, clock := setup()
	e.Start(BGPFlap)
	e.Start(UplinkDown)
	clock.Advance(6 * time.Second)
	if n, _ := model.Neighbor("10.45.0.1"); n.State != netmodel.StateEstablished {
		t.Error("replaced scenario still ticking")
	}

	e.Stop()
	if e.Current() != "" {
		t.Errorf("Current() = %q after stop", e.Current())
	}
	if msg := log.Latest(1)[0].Message; msg != "Scenario stopped." {
		t.Errorf("last log = %q", msg)
	}
	before := log.Len()
	clock.Advance(time.Minute)
	if log.Len() != before {
		t.Error("stopped scenario wrote log entries")
	}
}

func TestUnknownScenario(t *testing.T) {
	e, _, _, _ := setup()
	err := e.Start("meteor-strike")
	if !errors.Is(err, ErrUnknownScenario) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "meteor-strike") {
		t.Errorf("err = %v", err)
	}
	if got := strings.Join(e.Available(), ","); got != "bgp-flap,uplink-down" {
		t.Errorf("Available() = %s", got)
	}
}

func TestIntervalOverride(t *testing.T) {
	clock := sched.NewManual(time.Unix(0, 0))
	log := eventlog.New(100, clock.Now)
	model := netmodel.New(netmodel.DefaultSeed(), log, nil)
	e := New(model, log, clock, Intervals{BGPFlap: time.Second})
	if d, _ := e.Interval(BGPFlap); d != time.Second {
		t.Errorf("Interval = %v", d)
	}
	e.Start(BGPFlap)
	clock.Advance(time.Second)
	if n, _ := model.Neighbor("10.45.0.1"); n.State != netmodel.StateIdle {
		t.Error("override interval not used")
	}
}
