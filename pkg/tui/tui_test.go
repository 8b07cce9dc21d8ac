package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/psaab/nocterm/pkg/cli"
	"github.com/psaab/nocterm/pkg/editor"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/sched"
)

// inline runs functions directly; the test goroutine plays the loop.
type inline struct{}

func (inline) Do(fn func()) bool { fn(); return true }

func newTestModel(t *testing.T) (Model, *output.Subscription) {
	t.Helper()
	clock := sched.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	stream := output.NewStream()
	sub := stream.Subscribe(64)
	c := cli.Build(cli.DefaultOptions(), clock, stream)
	ed := editor.New(c, stream, editor.Options{})
	return New(inline{}, c, ed, sub), sub
}

// drain feeds every pending stream event back into the model.
func drain(m Model, sub *output.Subscription) Model {
	for {
		select {
		case ev := <-sub.C:
			next, _ := m.Update(outputMsg(ev))
			m = next.(Model)
		default:
			return m
		}
	}
}

func typeKeys(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestKeyFromTea(t *testing.T) {
	tests := []struct {
		msg  tea.KeyMsg
		want editor.Key
		ok   bool
	}{
		{tea.KeyMsg{Type: tea.KeyEnter}, editor.Key{Type: editor.KeyEnter}, true},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, editor.Key{Type: editor.KeyInterrupt}, true},
		{tea.KeyMsg{Type: tea.KeyCtrlR}, editor.Key{Type: editor.KeySearch}, true},
		{tea.KeyMsg{Type: tea.KeyCtrlL}, editor.Key{Type: editor.KeyClearScreen}, true},
		{tea.KeyMsg{Type: tea.KeyEsc}, editor.Key{Type: editor.KeyEscape}, true},
		{tea.KeyMsg{Type: tea.KeySpace}, editor.Key{Type: editor.KeyRune, Rune: ' '}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}}, editor.Key{Type: editor.KeyRune, Rune: '?'}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ab")}, editor.Key{}, false},
		{tea.KeyMsg{Type: tea.KeyF1}, editor.Key{}, false},
	}
	for _, tt := range tests {
		got, ok := KeyFromTea(tt.msg)
		if ok != tt.ok || got != tt.want {
			t.Errorf("KeyFromTea(%v) = %+v, %v; want %+v, %v", tt.msg, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTypingAndSubmit(t *testing.T) {
	m, sub := newTestModel(t)
	m = typeKeys(m, "whoami")
	if !strings.Contains(m.View(), "user@local:~$ whoami") {
		t.Errorf("view missing buffer:\n%s", m.View())
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(next.(Model), sub)

	lines := m.Lines()
	if len(lines) != 2 || lines[1].Text != "user" {
		t.Fatalf("lines = %+v", lines)
	}
	if lines[0].Style != output.StyleCommand {
		t.Errorf("echo style = %s", lines[0].Style)
	}
}

func TestClearScreen(t *testing.T) {
	m, sub := newTestModel(t)
	m = typeKeys(m, "whoami")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(next.(Model), sub)
	if len(m.Lines()) == 0 {
		t.Fatal("no output")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = drain(next.(Model), sub)
	if len(m.Lines()) != 0 {
		t.Errorf("lines after Ctrl-L = %+v", m.Lines())
	}
}

func TestSearchStatusShown(t *testing.T) {
	m, _ := newTestModel(t)
	m = typeKeys(m, "hostname")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = typeKeys(next.(Model), "host")
	if !strings.Contains(m.View(), "(reverse-i-search)`host': hostname") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestExitQuits(t *testing.T) {
	m, _ := newTestModel(t)
	m = typeKeys(m, "exit")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("exit from the local shell should quit the program")
	}
}

func TestScrollbackBounded(t *testing.T) {
	m, _ := newTestModel(t)
	for i := 0; i < maxScrollback+10; i++ {
		next, _ := m.Update(outputMsg(output.Event{Line: output.Line{Style: output.StyleText, Text: "x"}}))
		m = next.(Model)
	}
	if len(m.Lines()) != maxScrollback {
		t.Errorf("scrollback = %d", len(m.Lines()))
	}
}
