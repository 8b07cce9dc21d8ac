package jobs

import (
	"testing"
	"time"

	"github.com/psaab/nocterm/pkg/sched"
)

func newManager() (*Manager, *sched.Manual) {
	s := sched.NewManual(time.Unix(0, 0))
	return NewManager(s), s
}

func TestJobCompletes(t *testing.T) {
	m, s := newManager()
	ticks := 0
	var stops []Reason
	j := m.Start("count", func(r Reason) { stops = append(stops, r) })
	j.Every(100*time.Millisecond, func(j *Job) {
		ticks++
		if ticks == 3 {
			j.Stop(ReasonDone)
		}
	})

	s.Advance(time.Second)

	if ticks != 3 {
		t.Errorf("ticks = %d, want 3", ticks)
	}
	if len(stops) != 1 || stops[0] != ReasonDone {
		t.Errorf("stops = %v, want [DONE]", stops)
	}
	if m.Running() {
		t.Error("slot not cleared")
	}
	select {
	case <-j.Done():
	default:
		t.Error("Done channel not closed")
	}
	if m.StoppedCount(ReasonDone) != 1 {
		t.Errorf("StoppedCount(DONE) = %d", m.StoppedCount(ReasonDone))
	}
}

func TestCancelRunsOnStopOnce(t *testing.T) {
	m, s := newManager()
	calls := 0
	j := m.Start("ping", func(r Reason) {
		calls++
		if r != ReasonInterrupt {
			t.Errorf("reason = %s, want SIGINT", r)
		}
	})
	ticks := 0
	j.Every(time.Second, func(*Job) { ticks++ })
	s.Advance(2500 * time.Millisecond)

	if !m.Cancel(ReasonInterrupt) {
		t.Fatal("Cancel returned false with a running job")
	}
	j.Stop(ReasonDone)
	m.Cancel(ReasonInterrupt)
	s.Advance(5 * time.Second)

	if calls != 1 {
		t.Errorf("onStop calls = %d, want 1", calls)
	}
	if ticks != 2 {
		t.Errorf("ticks = %d, want 2 (no ticks after cancel)", ticks)
	}
	if j.Reason() != ReasonInterrupt {
		t.Errorf("Reason() = %s", j.Reason())
	}
	if m.Cancel(ReasonInterrupt) {
		t.Error("Cancel with no job returned true")
	}
}

func TestStartKillsPreviousBeforeFirstTick(t *testing.T) {
	m, s := newManager()
	var events []string
	first := m.Start("first", func(r Reason) { events = append(events, "first:"+string(r)) })
	first.Every(time.Second, func(*Job) { events = append(events, "first:tick") })

	second := m.Start("second", func(r Reason) { events = append(events, "second:"+string(r)) })
	second.Every(time.Second, func(j *Job) {
		events = append(events, "second:tick")
		j.Stop(ReasonDone)
	})

	s.Advance(3 * time.Second)

	want := []string{"first:KILLED", "second:tick", "second:DONE"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
	if m.Started() != 2 || m.StoppedCount(ReasonKilled) != 1 {
		t.Errorf("started=%d killed=%d", m.Started(), m.StoppedCount(ReasonKilled))
	}
}

func TestAfterSuppressedByStop(t *testing.T) {
	m, s := newManager()
	fired := false
	j := m.Start("ssh", nil)
	j.After(700*time.Millisecond, func(*Job) { fired = true })
	j.Stop(ReasonInterrupt)
	j.After(time.Millisecond, func(*Job) { fired = true })
	s.Advance(time.Second)
	if fired {
		t.Error("After callback ran on a stopped job")
	}
}
