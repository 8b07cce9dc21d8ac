// Package editor turns key events into submitted lines: a single-line
// buffer with global history, reverse incremental search and
// command-name completion.
package editor

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/psaab/nocterm/pkg/cmdtree"
	"github.com/psaab/nocterm/pkg/history"
	"github.com/psaab/nocterm/pkg/output"
)

// DefaultMaxLine is the longest accepted line, in characters.
const DefaultMaxLine = 140

// KeyType identifies a key event.
type KeyType int

const (
	KeyRune KeyType = iota
	KeyEnter
	KeyBackspace
	KeyTab
	KeyEscape
	KeyUp
	KeyDown
	KeyInterrupt   // Ctrl-C
	KeySearch      // Ctrl-R
	KeyClearScreen // Ctrl-L
)

var keyNames = map[KeyType]string{
	KeyRune:        "rune",
	KeyEnter:       "enter",
	KeyBackspace:   "backspace",
	KeyTab:         "tab",
	KeyEscape:      "escape",
	KeyUp:          "up",
	KeyDown:        "down",
	KeyInterrupt:   "ctrl+c",
	KeySearch:      "ctrl+r",
	KeyClearScreen: "ctrl+l",
}

func (t KeyType) String() string {
	if s, ok := keyNames[t]; ok {
		return s
	}
	return fmt.Sprintf("key(%d)", int(t))
}

// Key is one input event. Rune is set for KeyRune.
type Key struct {
	Type KeyType
	Rune rune
}

// Runes returns KeyRune events for s.
func Runes(s string) []Key {
	keys := make([]Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, Key{Type: KeyRune, Rune: r})
	}
	return keys
}

// Target receives the editor's submitted lines and interrupts.
type Target interface {
	Submit(line string)
	Interrupt() bool
	CommandNames() []string
}

// Options configures an Editor.
type Options struct {
	MaxLine int
	// History is shared by all sessions; nil creates a default ring.
	History *history.Ring
	// Store persists History after each accepted line; nil disables it.
	Store *history.File
}

type search struct {
	active bool
	query  string
	match  string
	saved  string
}

// Editor is the line editor. Like the interpreter it drives, it runs on
// a single goroutine.
type Editor struct {
	target  Target
	out     output.Sink
	maxLine int
	hist    *history.Ring
	store   *history.File
	buf     []rune
	index   int
	search  search
}

// New creates an editor submitting to target and printing to out.
func New(target Target, out output.Sink, opts Options) *Editor {
	if opts.MaxLine <= 0 {
		opts.MaxLine = DefaultMaxLine
	}
	if opts.History == nil {
		opts.History = history.NewRing(history.DefaultSize)
	}
	return &Editor{
		target:  target,
		out:     out,
		maxLine: opts.MaxLine,
		hist:    opts.History,
		store:   opts.Store,
		index:   opts.History.Len(),
	}
}

// SetOutput replaces the sink used for errors and completion lists.
func (e *Editor) SetOutput(out output.Sink) { e.out = out }

// Buffer returns the current input line.
func (e *Editor) Buffer() string { return string(e.buf) }

// SetBuffer replaces the input line.
func (e *Editor) SetBuffer(s string) { e.buf = []rune(s) }

// History returns the global history ring.
func (e *Editor) History() *history.Ring { return e.hist }

// Searching reports whether reverse search is active.
func (e *Editor) Searching() bool { return e.search.active }

// Status returns the reverse search status line, or "" outside search.
func (e *Editor) Status() string {
	if !e.search.active {
		return ""
	}
	m := e.search.match
	if m == "" {
		m = "(no match)"
	}
	return fmt.Sprintf("(reverse-i-search)`%s': %s", e.search.query, m)
}

// HandleKey applies one key event.
func (e *Editor) HandleKey(k Key) {
	if e.search.active {
		e.handleSearchKey(k)
		return
	}
	switch k.Type {
	case KeyRune:
		e.buf = append(e.buf, k.Rune)
	case KeyBackspace:
		if len(e.buf) > 0 {
			e.buf = e.buf[:len(e.buf)-1]
		}
	case KeyEnter:
		e.enter()
	case KeyUp:
		e.move(-1)
	case KeyDown:
		e.move(1)
	case KeyTab:
		e.complete()
	case KeyInterrupt:
		e.target.Interrupt()
		e.buf = e.buf[:0]
	case KeyClearScreen:
		e.out.Clear()
	case KeySearch:
		e.search = search{active: true, saved: string(e.buf)}
		e.updateSearch()
	}
}

func (e *Editor) enter() {
	raw := string(e.buf)
	e.buf = e.buf[:0]
	e.SubmitLine(raw)
}

// SubmitLine takes raw through the Enter path without touching the input
// buffer: the length guard, the shared history and then the target.
// Remote front ends submit through it.
func (e *Editor) SubmitLine(raw string) {
	if utf8.RuneCountInString(raw) > e.maxLine {
		e.out.Print(output.StyleError, fmt.Sprintf("Error: Command too long (max %d chars).", e.maxLine))
		return
	}
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	e.hist.Push(line)
	e.index = e.hist.Len()
	if e.store != nil {
		if err := e.store.Save(e.hist.Lines()); err != nil {
			slog.Warn("history save failed", "err", err)
		}
	}
	e.target.Submit(line)
}

// move walks the history cursor. It clamps at 0 and at Len, where the
// buffer becomes empty.
func (e *Editor) move(delta int) {
	e.index = min(max(e.index+delta, 0), e.hist.Len())
	line, _ := e.hist.At(e.index)
	e.buf = []rune(line)
}

// complete handles Tab for a single-token buffer.
func (e *Editor) complete() {
	cur := strings.TrimSpace(string(e.buf))
	if cur == "" || len(strings.Fields(cur)) > 1 {
		return
	}
	needle := strings.ToLower(cur)
	matches := cmdtree.FilterPrefix(e.target.CommandNames(), needle)
	switch {
	case len(matches) == 1:
		e.buf = []rune(matches[0] + " ")
	case len(matches) > 1:
		if p := cmdtree.CommonPrefix(matches); len(p) > len(needle) {
			e.buf = []rune(p)
			return
		}
		e.out.Print(output.StyleSystem, strings.Join(matches, "  "))
	}
}

func (e *Editor) handleSearchKey(k Key) {
	switch k.Type {
	case KeyEscape:
		e.buf = []rune(e.search.saved)
		e.search = search{}
	case KeyEnter:
		e.buf = []rune(e.search.match)
		e.search = search{}
	case KeyBackspace:
		if q := []rune(e.search.query); len(q) > 0 {
			e.search.query = string(q[:len(q)-1])
		}
		e.updateSearch()
	case KeyRune:
		e.search.query += string(k.Rune)
		e.updateSearch()
	}
}

func (e *Editor) updateSearch() {
	e.search.match, _ = e.hist.SearchBack(e.search.query)
}
