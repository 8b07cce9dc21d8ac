// Package eventlog implements the bounded syslog-style buffer behind
// "show logging".
package eventlog

import (
	"strings"
	"sync"
	"time"
)

// Level is an entry severity.
type Level int

const (
	LevelInfo Level = iota
	LevelNotice
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelNotice:
		return "NOTICE"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel parses a level name (case-insensitive). Unknown names map to
// LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NOTICE":
		return LevelNotice
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR", "ERR":
		return LevelError
	}
	return LevelInfo
}

// Entry is one log record.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// DefaultCapacity matches the console buffer size of the simulated device.
const DefaultCapacity = 120

// Log is a thread-safe circular buffer of entries.
type Log struct {
	mu    sync.RWMutex
	buf   []Entry
	size  int
	head  int // next write position
	count int
	total uint64
	now   func() time.Time

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}
}

// Subscription receives new entries from a Log.
type Subscription struct {
	C   chan Entry
	log *Log
}

// Close unsubscribes.
func (s *Subscription) Close() {
	s.log.subMu.Lock()
	delete(s.log.subs, s)
	s.log.subMu.Unlock()
}

// New creates a log with the given capacity. now supplies timestamps; nil
// means time.Now.
func New(size int, now func() time.Time) *Log {
	if size <= 0 {
		size = DefaultCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &Log{
		buf:  make([]Entry, size),
		size: size,
		now:  now,
		subs: make(map[*Subscription]struct{}),
	}
}

// Add appends an entry, overwriting the oldest if full.
func (l *Log) Add(level Level, msg string) Entry {
	e := Entry{Time: l.now(), Level: level, Message: msg}
	l.mu.Lock()
	l.buf[l.head] = e
	l.head = (l.head + 1) % l.size
	if l.count < l.size {
		l.count++
	}
	l.total++
	l.mu.Unlock()

	l.subMu.RLock()
	for sub := range l.subs {
		select {
		case sub.C <- e:
		default: // drop if subscriber is slow
		}
	}
	l.subMu.RUnlock()
	return e
}

// Info, Notice, Warning and Error are shorthands for Add.
func (l *Log) Info(msg string) Entry    { return l.Add(LevelInfo, msg) }
func (l *Log) Notice(msg string) Entry  { return l.Add(LevelNotice, msg) }
func (l *Log) Warning(msg string) Entry { return l.Add(LevelWarning, msg) }
func (l *Log) Error(msg string) Entry   { return l.Add(LevelError, msg) }

// Subscribe returns a Subscription that receives new entries.
func (l *Log) Subscribe(bufSize int) *Subscription {
	if bufSize < 1 {
		bufSize = 64
	}
	sub := &Subscription{C: make(chan Entry, bufSize), log: l}
	l.subMu.Lock()
	l.subs[sub] = struct{}{}
	l.subMu.Unlock()
	return sub
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Capacity returns the maximum number of retained entries.
func (l *Log) Capacity() int { return l.size }

// Total returns the number of entries ever added.
func (l *Log) Total() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// Latest returns the most recent n entries, newest first.
func (l *Log) Latest(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n > l.count {
		n = l.count
	}
	if n <= 0 {
		return nil
	}
	result := make([]Entry, n)
	for i := 0; i < n; i++ {
		idx := (l.head - 1 - i + l.size) % l.size
		result[i] = l.buf[idx]
	}
	return result
}

// Tail returns the most recent n entries, oldest first.
func (l *Log) Tail(n int) []Entry {
	latest := l.Latest(n)
	for i, j := 0, len(latest)-1; i < j; i, j = i+1, j-1 {
		latest[i], latest[j] = latest[j], latest[i]
	}
	return latest
}

// Format renders an entry the way "show logging" prints it.
func Format(e Entry) string {
	return e.Time.Format("15:04:05") + "  " + padRight(e.Level.String(), 7) + "  " + e.Message
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
