// Package tui is the interactive terminal front end: a bubbletea program
// that feeds key events to the line editor and renders the output stream.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/psaab/nocterm/pkg/cli"
	"github.com/psaab/nocterm/pkg/editor"
	"github.com/psaab/nocterm/pkg/output"
)

const (
	maxScrollback   = 2000
	refreshInterval = 500 * time.Millisecond
)

// Runner runs fn on the interpreter's goroutine and waits for it.
type Runner interface {
	Do(fn func()) bool
}

type outputMsg output.Event
type refreshMsg struct{}

// view is the interpreter state the model renders, copied off the loop.
type view struct {
	prompt string
	buffer string
	status string
	hidden bool
}

// Model is the bubbletea model.
type Model struct {
	loop   Runner
	cli    *cli.CLI
	ed     *editor.Editor
	sub    *output.Subscription
	lines  []output.Line
	view   view
	width  int
	height int
}

// New creates a model. sub must be subscribed to the stream the
// interpreter writes to.
func New(loop Runner, c *cli.CLI, ed *editor.Editor, sub *output.Subscription) Model {
	m := Model{loop: loop, cli: c, ed: ed, sub: sub}
	m.refresh()
	return m
}

// KeyFromTea maps a bubbletea key to an editor key.
func KeyFromTea(msg tea.KeyMsg) (editor.Key, bool) {
	switch msg.Type {
	case tea.KeyEnter:
		return editor.Key{Type: editor.KeyEnter}, true
	case tea.KeyBackspace:
		return editor.Key{Type: editor.KeyBackspace}, true
	case tea.KeyTab:
		return editor.Key{Type: editor.KeyTab}, true
	case tea.KeyEsc:
		return editor.Key{Type: editor.KeyEscape}, true
	case tea.KeyUp:
		return editor.Key{Type: editor.KeyUp}, true
	case tea.KeyDown:
		return editor.Key{Type: editor.KeyDown}, true
	case tea.KeyCtrlC:
		return editor.Key{Type: editor.KeyInterrupt}, true
	case tea.KeyCtrlR:
		return editor.Key{Type: editor.KeySearch}, true
	case tea.KeyCtrlL:
		return editor.Key{Type: editor.KeyClearScreen}, true
	case tea.KeySpace:
		return editor.Key{Type: editor.KeyRune, Rune: ' '}, true
	case tea.KeyRunes:
		if len(msg.Runes) == 1 {
			return editor.Key{Type: editor.KeyRune, Rune: msg.Runes[0]}, true
		}
	}
	return editor.Key{}, false
}

func (m Model) waitOutput() tea.Cmd {
	return func() tea.Msg {
		return outputMsg(<-m.sub.C)
	}
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitOutput(), refreshCmd())
}

// refresh copies the prompt and editor state off the loop.
func (m *Model) refresh() bool {
	return m.loop.Do(func() {
		m.view = view{
			prompt: m.cli.Prompt(),
			buffer: m.ed.Buffer(),
			status: m.ed.Status(),
			hidden: m.cli.Hidden(),
		}
	})
}

func (m *Model) append(l output.Line) {
	m.lines = append(m.lines, l)
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[len(m.lines)-maxScrollback:]
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		k, ok := KeyFromTea(msg)
		if !ok {
			return m, nil
		}
		var hidden bool
		if !m.loop.Do(func() {
			m.ed.HandleKey(k)
			hidden = m.cli.Hidden()
		}) {
			return m, tea.Quit
		}
		if hidden {
			return m, tea.Quit
		}
		m.refresh()
		return m, nil

	case outputMsg:
		if msg.Clear {
			m.lines = nil
		} else {
			m.append(msg.Line)
		}
		m.refresh()
		return m, m.waitOutput()

	case refreshMsg:
		if !m.refresh() {
			return m, tea.Quit
		}
		return m, refreshCmd()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	lines := m.lines
	if m.height > 1 && len(lines) > m.height-1 {
		lines = lines[len(lines)-(m.height-1):]
	}
	for _, l := range lines {
		b.WriteString(Render(l))
		b.WriteByte('\n')
	}
	if m.view.status != "" {
		b.WriteString(searchStyle.Render(m.view.status))
	} else {
		b.WriteString(promptStyle.Render(m.view.prompt))
		b.WriteByte(' ')
		b.WriteString(m.view.buffer)
	}
	b.WriteString(cursorStyle.Render(" "))
	return b.String()
}

// Lines returns the scrollback.
func (m Model) Lines() []output.Line { return m.lines }

// Run starts the program and blocks until the user quits, exit hides the
// terminal, or ctx is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
