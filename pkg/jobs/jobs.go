// Package jobs implements the single-slot process manager used by
// long-running commands such as ping and ssh.
package jobs

import (
	"log/slog"
	"time"

	"github.com/psaab/nocterm/pkg/sched"
)

// Reason explains why a job stopped.
type Reason string

const (
	ReasonDone      Reason = "DONE"
	ReasonInterrupt Reason = "SIGINT"
	ReasonKilled    Reason = "KILLED"
)

// Job is a cancellable, tick-driven pseudo-async command.
type Job struct {
	name    string
	mgr     *Manager
	timers  []sched.Timer
	onStop  func(Reason)
	done    chan struct{}
	stopped bool
	reason  Reason
}

// Name returns the job name.
func (j *Job) Name() string { return j.name }

// Done is closed once the job has stopped and its onStop has returned.
func (j *Job) Done() <-chan struct{} { return j.done }

// Stopped reports whether the job has terminated.
func (j *Job) Stopped() bool { return j.stopped }

// Reason returns the termination reason, or "" while running.
func (j *Job) Reason() Reason { return j.reason }

// Every runs fn every d until the job stops.
func (j *Job) Every(d time.Duration, fn func(*Job)) {
	if j.stopped {
		return
	}
	j.timers = append(j.timers, j.mgr.sched.Every(d, func() {
		if !j.stopped {
			fn(j)
		}
	}))
}

// After runs fn once after d unless the job stops first.
func (j *Job) After(d time.Duration, fn func(*Job)) {
	if j.stopped {
		return
	}
	j.timers = append(j.timers, j.mgr.sched.AfterFunc(d, func() {
		if !j.stopped {
			fn(j)
		}
	}))
}

// Stop terminates the job. Ticks call Stop(ReasonDone); the manager calls
// it for interrupts and replacement. Timers are cancelled and the slot is
// cleared before onStop runs; onStop runs exactly once.
func (j *Job) Stop(reason Reason) {
	if j.stopped {
		return
	}
	j.stopped = true
	j.reason = reason
	for _, t := range j.timers {
		t.Stop()
	}
	j.timers = nil
	j.mgr.release(j, reason)
	if j.onStop != nil {
		j.onStop(reason)
	}
	close(j.done)
}

// Manager owns at most one running job.
type Manager struct {
	sched   sched.Scheduler
	active  *Job
	started uint64
	stopped map[Reason]uint64
}

// NewManager creates a manager whose job timers run on s.
func NewManager(s sched.Scheduler) *Manager {
	return &Manager{sched: s, stopped: make(map[Reason]uint64)}
}

// Start kills any running job (its onStop runs with ReasonKilled before
// this returns) and installs a new one. The caller binds ticks with
// Job.Every / Job.After.
func (m *Manager) Start(name string, onStop func(Reason)) *Job {
	if m.active != nil {
		m.active.Stop(ReasonKilled)
	}
	j := &Job{name: name, mgr: m, onStop: onStop, done: make(chan struct{})}
	m.active = j
	m.started++
	slog.Debug("job started", "job", name)
	return j
}

// Cancel stops the running job with reason. It reports whether a job was
// running.
func (m *Manager) Cancel(reason Reason) bool {
	if m.active == nil {
		return false
	}
	m.active.Stop(reason)
	return true
}

// Running reports whether a job is in flight.
func (m *Manager) Running() bool { return m.active != nil }

// Active returns the running job or nil.
func (m *Manager) Active() *Job { return m.active }

// Started returns the number of jobs ever started.
func (m *Manager) Started() uint64 { return m.started }

// StoppedCount returns how many jobs stopped with reason.
func (m *Manager) StoppedCount(reason Reason) uint64 { return m.stopped[reason] }

func (m *Manager) release(j *Job, reason Reason) {
	if m.active == j {
		m.active = nil
	}
	m.stopped[reason]++
	slog.Debug("job stopped", "job", j.name, "reason", string(reason))
}
