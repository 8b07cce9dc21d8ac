package editor

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/psaab/nocterm/pkg/cli"
	"github.com/psaab/nocterm/pkg/history"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/sched"
)

type fakeTarget struct {
	submitted  []string
	interrupts int
	names      []string
}

func (f *fakeTarget) Submit(line string)     { f.submitted = append(f.submitted, line) }
func (f *fakeTarget) Interrupt() bool        { f.interrupts++; return false }
func (f *fakeTarget) CommandNames() []string { return f.names }

func newTestEditor(names ...string) (*Editor, *fakeTarget, *output.Recorder) {
	t := &fakeTarget{names: names}
	rec := &output.Recorder{}
	return New(t, rec, Options{}), t, rec
}

func typeLine(e *Editor, s string) {
	for _, k := range Runes(s) {
		e.HandleKey(k)
	}
}

func TestEnterSubmitsTrimmedLine(t *testing.T) {
	e, tgt, _ := newTestEditor()
	typeLine(e, "  show version  ")
	e.HandleKey(Key{Type: KeyEnter})
	if len(tgt.submitted) != 1 || tgt.submitted[0] != "show version" {
		t.Fatalf("submitted = %q", tgt.submitted)
	}
	if e.Buffer() != "" {
		t.Errorf("buffer not cleared: %q", e.Buffer())
	}
	if got := e.History().Lines(); len(got) != 1 || got[0] != "show version" {
		t.Errorf("history = %q", got)
	}

	e.HandleKey(Key{Type: KeyEnter})
	typeLine(e, "   ")
	e.HandleKey(Key{Type: KeyEnter})
	if len(tgt.submitted) != 1 || e.History().Len() != 1 {
		t.Errorf("empty lines must be ignored, submitted %q", tgt.submitted)
	}
}

func TestSubmitLineKeepsBuffer(t *testing.T) {
	e, tgt, rec := newTestEditor()
	typeLine(e, "sho")
	e.SubmitLine(" ping 8.8.8.8 ")
	if len(tgt.submitted) != 1 || tgt.submitted[0] != "ping 8.8.8.8" {
		t.Fatalf("submitted = %q", tgt.submitted)
	}
	if e.Buffer() != "sho" {
		t.Errorf("buffer = %q, want the typed text untouched", e.Buffer())
	}
	if got := e.History().Lines(); len(got) != 1 || got[0] != "ping 8.8.8.8" {
		t.Errorf("history = %q", got)
	}

	e.SubmitLine(strings.Repeat("a", DefaultMaxLine+1))
	if len(tgt.submitted) != 1 || e.History().Len() != 1 {
		t.Error("long remote line was accepted")
	}
	if len(rec.Lines) != 1 || rec.Lines[0].Style != output.StyleError {
		t.Errorf("output = %+v", rec.Lines)
	}
}

func TestLongLineRejected(t *testing.T) {
	e, tgt, rec := newTestEditor()
	typeLine(e, strings.Repeat("x", DefaultMaxLine+1))
	e.HandleKey(Key{Type: KeyEnter})
	if len(tgt.submitted) != 0 {
		t.Fatalf("long line submitted")
	}
	if e.History().Len() != 0 {
		t.Errorf("long line recorded in history")
	}
	if len(rec.Lines) != 1 || rec.Lines[0].Style != output.StyleError ||
		rec.Lines[0].Text != "Error: Command too long (max 140 chars)." {
		t.Errorf("output = %+v", rec.Lines)
	}
	if e.Buffer() != "" {
		t.Errorf("buffer not cleared")
	}

	typeLine(e, strings.Repeat("y", DefaultMaxLine))
	e.HandleKey(Key{Type: KeyEnter})
	if len(tgt.submitted) != 1 {
		t.Errorf("line at the limit should be accepted")
	}
}

func TestHistoryNavigation(t *testing.T) {
	e, _, _ := newTestEditor()
	for _, l := range []string{"one", "two", "three"} {
		typeLine(e, l)
		e.HandleKey(Key{Type: KeyEnter})
	}

	tests := []struct {
		key  KeyType
		want string
	}{
		{KeyUp, "three"},
		{KeyUp, "two"},
		{KeyUp, "one"},
		{KeyUp, "one"},
		{KeyDown, "two"},
		{KeyDown, "three"},
		{KeyDown, ""},
		{KeyDown, ""},
		{KeyUp, "three"},
	}
	for i, tt := range tests {
		e.HandleKey(Key{Type: tt.key})
		if e.Buffer() != tt.want {
			t.Errorf("step %d (%s): buffer = %q, want %q", i, tt.key, e.Buffer(), tt.want)
		}
	}
}

func TestHistoryBounded(t *testing.T) {
	e, _, _ := newTestEditor()
	for i := 0; i < history.DefaultSize+5; i++ {
		typeLine(e, "cmd")
		e.HandleKey(Key{Type: KeyEnter})
	}
	if e.History().Len() != history.DefaultSize {
		t.Errorf("history len = %d, want %d", e.History().Len(), history.DefaultSize)
	}
}

func TestReverseSearch(t *testing.T) {
	e, tgt, _ := newTestEditor()
	for _, l := range []string{"show ip route", "ping 8.8.8.8", "show bgp summary"} {
		typeLine(e, l)
		e.HandleKey(Key{Type: KeyEnter})
	}
	typeLine(e, "draft")
	e.HandleKey(Key{Type: KeySearch})
	if !e.Searching() {
		t.Fatal("search not active")
	}
	if got := e.Status(); got != "(reverse-i-search)`': show bgp summary" {
		t.Errorf("status = %q", got)
	}

	typeLine(e, "ip")
	if got := e.Status(); got != "(reverse-i-search)`ip': show ip route" {
		t.Errorf("status = %q", got)
	}
	typeLine(e, "x")
	if got := e.Status(); got != "(reverse-i-search)`ipx': (no match)" {
		t.Errorf("status = %q", got)
	}
	e.HandleKey(Key{Type: KeyBackspace})
	if got := e.Status(); got != "(reverse-i-search)`ip': show ip route" {
		t.Errorf("status after backspace = %q", got)
	}

	// Other keys are swallowed.
	e.HandleKey(Key{Type: KeyTab})
	e.HandleKey(Key{Type: KeyUp})
	e.HandleKey(Key{Type: KeyInterrupt})
	if !e.Searching() || e.Buffer() != "draft" || len(tgt.submitted) != 3 {
		t.Fatalf("search state disturbed: searching=%v buf=%q", e.Searching(), e.Buffer())
	}

	e.HandleKey(Key{Type: KeyEnter})
	if e.Searching() || e.Buffer() != "show ip route" {
		t.Errorf("accept: searching=%v buf=%q", e.Searching(), e.Buffer())
	}
	if len(tgt.submitted) != 3 {
		t.Errorf("accept must not submit")
	}

	e.SetBuffer("keep")
	e.HandleKey(Key{Type: KeySearch})
	typeLine(e, "ping")
	e.HandleKey(Key{Type: KeyEscape})
	if e.Searching() || e.Buffer() != "keep" {
		t.Errorf("escape: searching=%v buf=%q", e.Searching(), e.Buffer())
	}
	if e.Status() != "" {
		t.Errorf("status outside search = %q", e.Status())
	}
}

func TestTabCompletion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		printed string
	}{
		{"unique", "neo", "neofetch ", ""},
		{"unique case folded", "NEO", "neofetch ", ""},
		{"common prefix", "sc", "scenario", ""},
		{"ambiguous", "s", "s", "show  ssh  scenario  scenarios"},
		{"no match", "zz", "zz", ""},
		{"multi token untouched", "show ip", "show ip", ""},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, rec := newTestEditor("neofetch", "show", "ssh", "scenario", "scenarios")
			typeLine(e, tt.input)
			e.HandleKey(Key{Type: KeyTab})
			if e.Buffer() != tt.want {
				t.Errorf("buffer = %q, want %q", e.Buffer(), tt.want)
			}
			if tt.printed == "" {
				if len(rec.Lines) != 0 {
					t.Errorf("unexpected output %+v", rec.Lines)
				}
				return
			}
			if len(rec.Lines) != 1 || rec.Lines[0].Text != tt.printed || rec.Lines[0].Style != output.StyleSystem {
				t.Errorf("output = %+v, want %q", rec.Lines, tt.printed)
			}
		})
	}
}

func TestInterruptAndClear(t *testing.T) {
	e, tgt, rec := newTestEditor()
	typeLine(e, "half typed")
	e.HandleKey(Key{Type: KeyInterrupt})
	if tgt.interrupts != 1 || e.Buffer() != "" {
		t.Errorf("interrupt: calls=%d buf=%q", tgt.interrupts, e.Buffer())
	}
	e.HandleKey(Key{Type: KeyClearScreen})
	if rec.Clears != 1 {
		t.Errorf("clears = %d", rec.Clears)
	}
}

func TestPersistence(t *testing.T) {
	f, err := history.NewFile(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}
	tgt := &fakeTarget{}
	e := New(tgt, &output.Recorder{}, Options{Store: f})
	typeLine(e, "enable")
	e.HandleKey(Key{Type: KeyEnter})

	saved := f.Load()
	if len(saved) != 1 || saved[0] != "enable" {
		t.Fatalf("saved = %q", saved)
	}

	ring := history.NewRing(0)
	ring.Replace(saved)
	e2 := New(tgt, &output.Recorder{}, Options{History: ring})
	e2.HandleKey(Key{Type: KeyUp})
	if e2.Buffer() != "enable" {
		t.Errorf("restored history not navigable, buf=%q", e2.Buffer())
	}
}

// The editor drives the interpreter end to end: Ctrl-C cancels a
// running ping and the completion list comes from the registry.
func TestEditorWithInterpreter(t *testing.T) {
	clock := sched.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := &output.Recorder{}
	c := cli.Build(cli.DefaultOptions(), clock, rec)
	e := New(c, rec, Options{})

	typeLine(e, "ping -c 10 8.8.8.8")
	e.HandleKey(Key{Type: KeyEnter})
	clock.Advance(1500 * time.Millisecond)
	if !c.Jobs().Running() {
		t.Fatal("ping job not running")
	}
	e.HandleKey(Key{Type: KeyInterrupt})
	if c.Jobs().Running() {
		t.Fatal("ping still running after Ctrl-C")
	}
	var stats int
	for _, l := range rec.Texts() {
		if strings.HasPrefix(l, "--- 8.8.8.8 ping statistics") {
			stats++
		}
	}
	if stats != 1 {
		t.Errorf("statistics printed %d times", stats)
	}

	rec.Reset()
	typeLine(e, "neo")
	e.HandleKey(Key{Type: KeyTab})
	if e.Buffer() != "neofetch " {
		t.Errorf("buffer = %q", e.Buffer())
	}
}
