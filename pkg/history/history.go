// Package history keeps the global command history ring and its on-disk
// copy.
package history

import "strings"

// DefaultSize is the number of lines kept.
const DefaultSize = 80

// Ring is a bounded list of submitted lines, oldest first.
type Ring struct {
	entries []string
	maxSize int
}

// NewRing creates a ring holding at most maxSize lines.
func NewRing(maxSize int) *Ring {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	return &Ring{maxSize: maxSize}
}

// Push appends a line, evicting the oldest when full.
func (r *Ring) Push(line string) {
	r.entries = append(r.entries, line)
	if len(r.entries) > r.maxSize {
		r.entries = r.entries[len(r.entries)-r.maxSize:]
	}
}

// Replace loads lines, keeping only the newest maxSize.
func (r *Ring) Replace(lines []string) {
	if len(lines) > r.maxSize {
		lines = lines[len(lines)-r.maxSize:]
	}
	r.entries = append([]string(nil), lines...)
}

// At returns the line at index i (0 = oldest).
func (r *Ring) At(i int) (string, bool) {
	if i < 0 || i >= len(r.entries) {
		return "", false
	}
	return r.entries[i], true
}

// Len returns the number of lines.
func (r *Ring) Len() int { return len(r.entries) }

// MaxSize returns the capacity.
func (r *Ring) MaxSize() int { return r.maxSize }

// Lines returns a copy of all lines, oldest first.
func (r *Ring) Lines() []string {
	return append([]string(nil), r.entries...)
}

// SearchBack returns the newest line containing query. An empty query
// matches the newest line.
func (r *Ring) SearchBack(query string) (string, bool) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if strings.Contains(r.entries[i], query) {
			return r.entries[i], true
		}
	}
	return "", false
}

