package eventlog

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestLogEvictsOldest(t *testing.T) {
	l := New(3, fixedClock())
	for i := 1; i <= 5; i++ {
		l.Info(fmt.Sprintf("msg %d", i))
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if l.Total() != 5 {
		t.Errorf("Total() = %d, want 5", l.Total())
	}
	latest := l.Latest(10)
	want := []string{"msg 5", "msg 4", "msg 3"}
	for i, e := range latest {
		if e.Message != want[i] {
			t.Errorf("Latest[%d] = %q, want %q", i, e.Message, want[i])
		}
	}
	tail := l.Tail(2)
	if tail[0].Message != "msg 4" || tail[1].Message != "msg 5" {
		t.Errorf("Tail(2) = %v", tail)
	}
}

func TestLogLatestEmpty(t *testing.T) {
	l := New(0, nil)
	if l.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", l.Capacity(), DefaultCapacity)
	}
	if got := l.Latest(5); got != nil {
		t.Errorf("Latest on empty log = %v, want nil", got)
	}
}

func TestLogSubscribe(t *testing.T) {
	l := New(10, fixedClock())
	sub := l.Subscribe(2)
	defer sub.Close()
	l.Warning("link down")
	e := <-sub.C
	if e.Level != LevelWarning || e.Message != "link down" {
		t.Errorf("got %+v", e)
	}
}

func TestFormat(t *testing.T) {
	e := Entry{
		Time:    time.Date(2026, 1, 1, 9, 5, 7, 0, time.UTC),
		Level:   LevelNotice,
		Message: "Scenario started: bgp-flap",
	}
	want := "09:05:07  NOTICE   Scenario started: bgp-flap"
	if got := Format(e); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"info", LevelInfo},
		{"NOTICE", LevelNotice},
		{"warn", LevelWarning},
		{"Error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSlogHandlerMirrorsAboveThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := New(10, fixedClock())
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewSlogHandler(base, l, slog.LevelWarn)).With("component", "cli")

	logger.Info("routine")
	logger.Error("handler fault", "command", "show")

	if !strings.Contains(buf.String(), "routine") {
		t.Error("base handler missed info record")
	}
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	e := l.Latest(1)[0]
	if e.Level != LevelError {
		t.Errorf("level = %v, want ERROR", e.Level)
	}
	if e.Message != "handler fault component=cli command=show" {
		t.Errorf("message = %q", e.Message)
	}
}
