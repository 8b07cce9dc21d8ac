// Package session holds interactive sessions and the IOS mode state
// machine.
package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModeRejected is returned for a trigger with no transition from the
// current mode.
var ErrModeRejected = errors.New("not available in this mode")

// Mode is a position in the command hierarchy.
type Mode uint8

const (
	Linux Mode = iota
	CiscoExec
	CiscoPriv
	CiscoConfig
	CiscoIf
	numModes
)

var modeNames = [...]string{
	Linux:       "linux",
	CiscoExec:   "cisco_exec",
	CiscoPriv:   "cisco_priv",
	CiscoConfig: "cisco_config",
	CiscoIf:     "cisco_if",
}

func (m Mode) String() string {
	if m < numModes {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", m)
}

// IsCisco reports whether the mode uses IOS idioms.
func (m Mode) IsCisco() bool { return m != Linux }

// ParseMode converts a mode name back to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(n, s) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// ModeSet is a bitmask of modes.
type ModeSet uint8

// AllModes matches every mode.
const AllModes ModeSet = 1<<numModes - 1

// Modes builds a set from individual modes.
func Modes(ms ...Mode) ModeSet {
	var s ModeSet
	for _, m := range ms {
		s |= 1 << m
	}
	return s
}

// Has reports whether m is in the set.
func (s ModeSet) Has(m Mode) bool { return s&(1<<m) != 0 }

func (s ModeSet) String() string {
	if s == AllModes {
		return "all"
	}
	var parts []string
	for m := Mode(0); m < numModes; m++ {
		if s.Has(m) {
			parts = append(parts, m.String())
		}
	}
	return strings.Join(parts, ",")
}

// Trigger is a mode-changing command.
type Trigger uint8

const (
	TrigEnable Trigger = iota
	TrigDisable
	TrigConfigure
	TrigInterface
	TrigExit
	TrigEnd
)

func (t Trigger) String() string {
	switch t {
	case TrigEnable:
		return "enable"
	case TrigDisable:
		return "disable"
	case TrigConfigure:
		return "configure terminal"
	case TrigInterface:
		return "interface"
	case TrigExit:
		return "exit"
	case TrigEnd:
		return "end"
	}
	return "unknown"
}

// Outcome describes a completed transition.
type Outcome struct {
	From, To Mode
	// Close is set when exit leaves a remote session's exec mode.
	Close bool
	// Hide is set when exit leaves the local session's top mode.
	Hide bool
}

type edge struct {
	from Mode
	trig Trigger
}

var transitions = map[edge]Mode{
	{CiscoExec, TrigEnable}:      CiscoPriv,
	{CiscoPriv, TrigDisable}:     CiscoExec,
	{CiscoPriv, TrigConfigure}:   CiscoConfig,
	{CiscoConfig, TrigInterface}: CiscoIf,
	{CiscoIf, TrigInterface}:     CiscoIf,
	{CiscoIf, TrigExit}:          CiscoConfig,
	{CiscoConfig, TrigExit}:      CiscoPriv,
	{CiscoConfig, TrigEnd}:       CiscoPriv,
	{CiscoIf, TrigEnd}:           CiscoPriv,
	{CiscoPriv, TrigExit}:        CiscoExec,
}

// Next returns the target of a transition. exit from cisco_exec and linux
// leaves the mode unchanged and is signalled through Outcome by Apply.
func Next(from Mode, t Trigger) (Mode, bool) {
	to, ok := transitions[edge{from, t}]
	return to, ok
}
