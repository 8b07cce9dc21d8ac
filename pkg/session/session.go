package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// LocalID is the key of the always-present local session.
const LocalID = "local"

// Session is one interactive context.
type Session struct {
	ID       string
	ConnID   uuid.UUID
	Mode     Mode
	Hostname string
	Username string
	// Target is the ssh target a remote session was opened for.
	Target           string
	History          []string
	CurrentInterface string
	Opened           time.Time
}

// Remote reports whether the session was opened by ssh.
func (s *Session) Remote() bool { return s.ID != LocalID }

// Record appends a submitted line to the per-session history.
func (s *Session) Record(line string) {
	s.History = append(s.History, line)
}

// Apply performs the transition for t. iface must be the canonical
// interface name for TrigInterface and is ignored otherwise. The
// CurrentInterface invariant holds on return.
func (s *Session) Apply(t Trigger, iface string) (Outcome, error) {
	out := Outcome{From: s.Mode, To: s.Mode}
	if t == TrigExit {
		switch {
		case s.Mode == Linux:
			out.Hide = true
			return out, nil
		case s.Mode == CiscoExec && s.Remote():
			out.Close = true
			return out, nil
		case s.Mode == CiscoExec:
			out.Hide = true
			return out, nil
		}
	}
	to, ok := Next(s.Mode, t)
	if !ok {
		return out, fmt.Errorf("%s from %s: %w", t, s.Mode, ErrModeRejected)
	}
	if t == TrigInterface {
		if iface == "" {
			return out, fmt.Errorf("interface: %w", ErrModeRejected)
		}
		s.CurrentInterface = iface
	}
	s.Mode = to
	if to != CiscoIf {
		s.CurrentInterface = ""
	}
	out.To = to
	return out, nil
}

// Prompt renders the session prompt.
func (s *Session) Prompt() string {
	switch s.Mode {
	case Linux:
		return s.Username + "@" + s.ID + ":~$"
	case CiscoExec:
		return s.Hostname + ">"
	case CiscoPriv:
		return s.Hostname + "#"
	case CiscoConfig:
		return s.Hostname + "(config)#"
	case CiscoIf:
		return s.Hostname + "(config-if)#"
	}
	return s.Hostname + "?"
}

// Store owns all sessions. Sessions are never destroyed.
type Store struct {
	sessions map[string]*Session
	active   string
	now      func() time.Time
}

// NewStore creates a store with the local session active.
func NewStore(hostname, username string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	st := &Store{sessions: make(map[string]*Session), active: LocalID, now: now}
	st.sessions[LocalID] = &Session{
		ID:       LocalID,
		ConnID:   uuid.New(),
		Mode:     Linux,
		Hostname: hostname,
		Username: username,
		Opened:   now(),
	}
	return st
}

// Active returns the active session.
func (st *Store) Active() *Session { return st.sessions[st.active] }

// Local returns the local session.
func (st *Store) Local() *Session { return st.sessions[LocalID] }

// Get returns the session with id.
func (st *Store) Get(id string) (*Session, bool) {
	s, ok := st.sessions[id]
	return s, ok
}

// Open creates or reuses the remote session for target and activates it.
// A reused session is reset to exec mode, as a fresh login would be.
func (st *Store) Open(target string) (*Session, bool) {
	id := "ssh_" + target
	s, ok := st.sessions[id]
	if !ok {
		s = &Session{
			ID:       id,
			ConnID:   uuid.New(),
			Mode:     CiscoExec,
			Hostname: target,
			Username: "admin",
			Target:   target,
			Opened:   st.now(),
		}
		st.sessions[id] = s
	} else {
		s.ConnID = uuid.New()
		s.Mode = CiscoExec
		s.CurrentInterface = ""
		s.Opened = st.now()
	}
	st.active = id
	return s, !ok
}

// Activate makes id the active session.
func (st *Store) Activate(id string) error {
	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("no such session %q", id)
	}
	st.active = id
	return nil
}

// CloseActive returns to the local session and reports the session that
// was left.
func (st *Store) CloseActive() *Session {
	left := st.Active()
	st.active = LocalID
	return left
}

// List returns sessions with local first, then remote sessions by ID.
func (st *Store) List() []*Session {
	out := make([]*Session, 0, len(st.sessions))
	for id, s := range st.sessions {
		if id != LocalID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return append([]*Session{st.Local()}, out...)
}

// Len returns the number of sessions.
func (st *Store) Len() int { return len(st.sessions) }
