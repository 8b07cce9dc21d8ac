package cli

import (
	"strings"

	"github.com/psaab/nocterm/pkg/session"
)

// Handler runs a resolved command. args excludes the command word; line is
// the raw input line.
type Handler func(c *CLI, args []string, line string) error

// Command is a registry entry.
type Command struct {
	Name    string
	Aliases []string
	Modes   session.ModeSet
	Help    string
	Handler Handler
}

// Registry holds commands in registration order. Several commands may
// share a name when their modes differ.
type Registry struct {
	cmds []*Command
}

// Add appends a command.
func (r *Registry) Add(cmd *Command) {
	r.cmds = append(r.cmds, cmd)
}

// Resolve finds the command for name (case-insensitive): exact name
// matches first, then aliases. Among several matches the one applicable
// in mode wins; otherwise the first registered is returned so that the
// dispatcher can reject it.
func (r *Registry) Resolve(name string, mode session.Mode) *Command {
	n := strings.ToLower(name)
	if cmd := r.pick(mode, func(c *Command) bool { return c.Name == n }); cmd != nil {
		return cmd
	}
	return r.pick(mode, func(c *Command) bool {
		for _, a := range c.Aliases {
			if a == n {
				return true
			}
		}
		return false
	})
}

func (r *Registry) pick(mode session.Mode, match func(*Command) bool) *Command {
	var first *Command
	for _, c := range r.cmds {
		if !match(c) {
			continue
		}
		if c.Modes.Has(mode) {
			return c
		}
		if first == nil {
			first = c
		}
	}
	return first
}

// Names returns unique command names in registration order.
func (r *Registry) Names() []string {
	seen := make(map[string]bool, len(r.cmds))
	var out []string
	for _, c := range r.cmds {
		if !seen[c.Name] {
			seen[c.Name] = true
			out = append(out, c.Name)
		}
	}
	return out
}

// Available returns the commands usable in mode, one per name.
func (r *Registry) Available(mode session.Mode) []*Command {
	seen := make(map[string]bool)
	var out []*Command
	for _, c := range r.cmds {
		if c.Modes.Has(mode) && !seen[c.Name] {
			seen[c.Name] = true
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.cmds) }
