package sched

import (
	"context"
	"testing"
	"time"
)

func TestManualOrdering(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string
	m.Every(300*time.Millisecond, func() { got = append(got, "every") })
	m.AfterFunc(500*time.Millisecond, func() { got = append(got, "after") })

	m.Advance(time.Second)

	want := []string{"every", "after", "every", "every"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if m.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", m.Pending())
	}
}

func TestManualStopInsideCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	n := 0
	var tm Timer
	tm = m.Every(time.Second, func() {
		n++
		if n == 2 {
			tm.Stop()
		}
	})
	m.Advance(10 * time.Second)
	if n != 2 {
		t.Errorf("ticks = %d, want 2", n)
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", m.Pending())
	}
}

func TestManualScheduleFromCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	m.AfterFunc(time.Second, func() {
		m.AfterFunc(time.Second, func() { fired = true })
	})
	m.Advance(1500 * time.Millisecond)
	if fired {
		t.Fatal("nested timer fired early")
	}
	m.Advance(time.Second)
	if !fired {
		t.Fatal("nested timer did not fire")
	}
}

func TestLoopDoSerializes(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	counter := 0
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		go func() {
			l.Do(func() { counter++ })
			done <- struct{}{}
		}()
	}
	for i := 0; i < 50; i++ {
		<-done
	}
	var got int
	l.Do(func() { got = counter })
	if got != 50 {
		t.Errorf("counter = %d, want 50", got)
	}
}

func TestLoopTimerStop(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	ticks := make(chan struct{}, 100)
	var tm Timer
	l.Do(func() {
		tm = l.Every(5*time.Millisecond, func() { ticks <- struct{}{} })
	})
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick received")
	}
	l.Do(func() { tm.Stop() })
	// Drain anything posted before Stop ran on the loop.
	l.Do(func() {})
	for len(ticks) > 0 {
		<-ticks
	}
	time.Sleep(30 * time.Millisecond)
	l.Do(func() {})
	if len(ticks) != 0 {
		t.Errorf("got %d ticks after Stop", len(ticks))
	}
}

func TestLoopClosedDo(t *testing.T) {
	l := NewLoop()
	l.Close()
	if l.Do(func() {}) {
		t.Error("Do on closed loop returned true")
	}
}
