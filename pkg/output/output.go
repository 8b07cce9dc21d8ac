// Package output defines the styled line stream the interpreter writes to.
package output

import (
	"fmt"
	"sync"
)

// Style tags a line for the display surface.
type Style string

const (
	StyleCommand Style = "command"
	StyleSystem  Style = "system"
	StyleError   Style = "error"
	StyleSuccess Style = "success"
	StyleAccent  Style = "accent"
	StyleText    Style = "text"
)

// ParseStyle maps unknown names to StyleText.
func ParseStyle(s string) Style {
	switch Style(s) {
	case StyleCommand, StyleSystem, StyleError, StyleSuccess, StyleAccent, StyleText:
		return Style(s)
	}
	return StyleText
}

// Line is one line of interpreter output.
type Line struct {
	Style Style
	Text  string
}

// Sink receives interpreter output.
type Sink interface {
	Print(style Style, text string)
	Clear()
}

// Printf is a convenience wrapper around Sink.Print.
func Printf(s Sink, style Style, format string, args ...any) {
	s.Print(style, fmt.Sprintf(format, args...))
}

// Event is delivered to Stream subscribers.
type Event struct {
	Clear bool
	Line  Line
}

// Stream is a Sink that fans events out to subscribers. Slow subscribers
// miss events rather than blocking the interpreter.
type Stream struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// Subscription receives events from a Stream.
type Subscription struct {
	C chan Event
	s *Stream
}

// Close unsubscribes. The channel is not closed.
func (sub *Subscription) Close() {
	sub.s.mu.Lock()
	delete(sub.s.subs, sub)
	sub.s.mu.Unlock()
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{subs: make(map[*Subscription]struct{})}
}

// Subscribe returns a subscription buffered to bufSize events.
func (s *Stream) Subscribe(bufSize int) *Subscription {
	if bufSize < 1 {
		bufSize = 256
	}
	sub := &Subscription{C: make(chan Event, bufSize), s: s}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *Stream) publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subs {
		select {
		case sub.C <- ev:
		default:
		}
	}
}

// Print implements Sink.
func (s *Stream) Print(style Style, text string) {
	s.publish(Event{Line: Line{Style: style, Text: text}})
}

// Clear implements Sink.
func (s *Stream) Clear() {
	s.publish(Event{Clear: true})
}

// Recorder is a Sink that keeps everything in memory.
type Recorder struct {
	Lines  []Line
	Clears int
}

// Print implements Sink.
func (r *Recorder) Print(style Style, text string) {
	r.Lines = append(r.Lines, Line{Style: style, Text: text})
}

// Clear implements Sink.
func (r *Recorder) Clear() { r.Clears++ }

// Texts returns the text of every recorded line.
func (r *Recorder) Texts() []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Text
	}
	return out
}

// Reset drops recorded lines.
func (r *Recorder) Reset() {
	r.Lines = nil
	r.Clears = 0
}
