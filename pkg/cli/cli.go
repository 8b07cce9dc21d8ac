// Package cli implements the multi-session command interpreter: a Linux
// shell and an IOS-style hierarchy over one simulated network.
package cli

import (
	"math/rand/v2"
	"time"

	"github.com/psaab/nocterm/pkg/eventlog"
	"github.com/psaab/nocterm/pkg/jobs"
	"github.com/psaab/nocterm/pkg/netmodel"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/scenario"
	"github.com/psaab/nocterm/pkg/sched"
	"github.com/psaab/nocterm/pkg/session"
)

// Version is reported by "show version" and the banner.
var Version = "2.5.0"

// Options tunes the interpreter.
type Options struct {
	Hostname          string
	Username          string
	LogCapacity       int
	LoggingTail       int
	PingInterval      time.Duration
	CiscoPingInterval time.Duration
	SSHDelay          time.Duration
	SSHTargets        []string
	ScenarioIntervals scenario.Intervals
	// Seed is the initial network; the zero value uses netmodel.DefaultSeed.
	Seed     *netmodel.Seed
	RandSeed uint64
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		Hostname:          "netreka",
		Username:          "user",
		LogCapacity:       eventlog.DefaultCapacity,
		LoggingTail:       30,
		PingInterval:      700 * time.Millisecond,
		CiscoPingInterval: 220 * time.Millisecond,
		SSHDelay:          700 * time.Millisecond,
		SSHTargets:        []string{"switch", "router", "cisco", "r1", "sw1"},
	}
}

func (o *Options) fill() {
	d := DefaultOptions()
	if o.Hostname == "" {
		o.Hostname = d.Hostname
	}
	if o.Username == "" {
		o.Username = d.Username
	}
	if o.LogCapacity <= 0 {
		o.LogCapacity = d.LogCapacity
	}
	if o.LoggingTail <= 0 {
		o.LoggingTail = d.LoggingTail
	}
	if o.PingInterval <= 0 {
		o.PingInterval = d.PingInterval
	}
	if o.CiscoPingInterval <= 0 {
		o.CiscoPingInterval = d.CiscoPingInterval
	}
	if o.SSHDelay <= 0 {
		o.SSHDelay = d.SSHDelay
	}
	if len(o.SSHTargets) == 0 {
		o.SSHTargets = d.SSHTargets
	}
}

// Env holds the shared components the interpreter operates on.
type Env struct {
	Model     *netmodel.Model
	Log       *eventlog.Log
	Sessions  *session.Store
	Jobs      *jobs.Manager
	Scenarios *scenario.Engine
	Sched     sched.Scheduler
	Out       output.Sink
}

// Stats counts dispatch outcomes.
type Stats struct {
	Commands uint64
	Unknown  uint64
	Rejected uint64
	Failed   uint64
	Panics   uint64
	Help     uint64
}

// CLI is the command interpreter. It is not safe for concurrent use; all
// calls, including timer callbacks, run on one sched.Loop.
type CLI struct {
	opts      Options
	model     *netmodel.Model
	log       *eventlog.Log
	sessions  *session.Store
	jobs      *jobs.Manager
	scenarios *scenario.Engine
	sched     sched.Scheduler
	out       output.Sink
	rnd       *rand.Rand
	registry  *Registry
	frames    []frame
	booted    time.Time
	hidden    bool
	stats     Stats

	// OnHide runs when exit leaves the top-level mode of the local session.
	OnHide func()
}

// New creates an interpreter over env.
func New(opts Options, env Env) *CLI {
	opts.fill()
	c := &CLI{
		opts:      opts,
		model:     env.Model,
		log:       env.Log,
		sessions:  env.Sessions,
		jobs:      env.Jobs,
		scenarios: env.Scenarios,
		sched:     env.Sched,
		out:       env.Out,
		rnd:       rand.New(rand.NewPCG(opts.RandSeed, opts.RandSeed^0x9e3779b97f4a7c15)),
		registry:  &Registry{},
		booted:    env.Sched.Now(),
	}
	c.registerCommands()
	return c
}

// Build wires a fresh model, log, session store, job manager and scenario
// engine on s and returns the interpreter. The boot entries are written
// to the event log.
func Build(opts Options, s sched.Scheduler, out output.Sink) *CLI {
	opts.fill()
	log := eventlog.New(opts.LogCapacity, s.Now)
	seed := netmodel.DefaultSeed()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	model := netmodel.New(seed, log, rand.New(rand.NewPCG(opts.RandSeed, 7)))
	log.Info("System boot complete. Netreka Terminal ready.")
	log.Notice("Telemetry agent: gNMI stream idle (simulated).")
	return New(opts, Env{
		Model:     model,
		Log:       log,
		Sessions:  session.NewStore(opts.Hostname, opts.Username, s.Now),
		Jobs:      jobs.NewManager(s),
		Scenarios: scenario.New(model, log, s, opts.ScenarioIntervals),
		Sched:     s,
		Out:       out,
	})
}

// Banner prints the startup banner.
func (c *CLI) Banner() {
	c.out.Print(output.StyleText, "Netreka Terminal [Version "+Version+"]")
	c.out.Print(output.StyleText, "Type 'help' (Linux) or 'enable' (Cisco). Ctrl+R history search. Ctrl+L clear.")
	c.out.Print(output.StyleSystem, "Tip: Try scenarios: 'scenario list' then 'scenario start bgp-flap'.")
	c.out.Print(output.StyleSystem, "------------------------------------------------------------")
}

// Prompt returns the active session prompt, flagged while the uplink is
// down.
func (c *CLI) Prompt() string {
	p := c.sessions.Active().Prompt()
	if !c.model.UplinkUp() {
		p += " ⚠"
	}
	return p
}

// Submit records line in the active session history and executes it.
func (c *CLI) Submit(line string) {
	if line == "" {
		return
	}
	c.sessions.Active().Record(line)
	c.Execute(line)
}

// Execute dispatches line as if typed at the prompt.
func (c *CLI) Execute(line string) {
	c.dispatch(line, false)
}

// Interrupt handles Ctrl-C: it cancels the running job, if any, and
// reports whether one was cancelled.
func (c *CLI) Interrupt() bool {
	if !c.jobs.Running() {
		c.out.Print(output.StyleSystem, "^C")
		return false
	}
	c.out.Print(output.StyleError, "^C")
	return c.jobs.Cancel(jobs.ReasonInterrupt)
}

// InterruptJob is Ctrl-C aimed at j: it stops j only while j is still
// the running job.
func (c *CLI) InterruptJob(j *jobs.Job) bool {
	if j == nil || j.Stopped() || c.jobs.Active() != j {
		return false
	}
	c.out.Print(output.StyleError, "^C")
	return c.jobs.Cancel(jobs.ReasonInterrupt)
}

// CommandNames returns the registered command names for completion.
func (c *CLI) CommandNames() []string { return c.registry.Names() }

// Hidden reports whether exit has closed the interpreter surface.
func (c *CLI) Hidden() bool { return c.hidden }

// Show clears the hidden flag, as reopening the terminal does.
func (c *CLI) Show() { c.hidden = false }

// Stats returns dispatch counters.
func (c *CLI) Stats() Stats { return c.stats }

// Model returns the network model.
func (c *CLI) Model() *netmodel.Model { return c.model }

// Log returns the event log.
func (c *CLI) Log() *eventlog.Log { return c.log }

// Sessions returns the session store.
func (c *CLI) Sessions() *session.Store { return c.sessions }

// Jobs returns the process manager.
func (c *CLI) Jobs() *jobs.Manager { return c.jobs }

// Scenarios returns the scenario engine.
func (c *CLI) Scenarios() *scenario.Engine { return c.scenarios }

// Scheduler returns the scheduler timers run on.
func (c *CLI) Scheduler() sched.Scheduler { return c.sched }

// SetOutput replaces the output sink.
func (c *CLI) SetOutput(out output.Sink) { c.out = out }

// Output returns the current output sink.
func (c *CLI) Output() output.Sink { return c.out }

func (c *CLI) print(text string) {
	c.out.Print(output.StyleSystem, text)
}

func (c *CLI) printf(format string, args ...any) {
	output.Printf(c.out, output.StyleSystem, format, args...)
}
