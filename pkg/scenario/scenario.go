// Package scenario runs timer-driven fault injection against the network
// model.
package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/psaab/nocterm/pkg/eventlog"
	"github.com/psaab/nocterm/pkg/netmodel"
	"github.com/psaab/nocterm/pkg/sched"
)

// ErrUnknownScenario is returned by Start for names not in the catalog.
var ErrUnknownScenario = errors.New("unknown scenario")

const (
	BGPFlap    = "bgp-flap"
	UplinkDown = "uplink-down"
)

// Scenario describes one fault simulation.
type Scenario struct {
	Name     string
	Interval time.Duration
	Tick     func(m *netmodel.Model) error
}

// Intervals overrides the default tick period per scenario name.
type Intervals map[string]time.Duration

// Catalog returns the built-in scenarios with their default intervals.
func Catalog() []Scenario {
	return []Scenario{
		{Name: BGPFlap, Interval: 5500 * time.Millisecond, Tick: flapFirstNeighbor},
		{Name: UplinkDown, Interval: 7 * time.Second, Tick: toggleUplink},
	}
}

func flapFirstNeighbor(m *netmodel.Model) error {
	ns := m.Neighbors()
	if len(ns) == 0 {
		return nil
	}
	_, err := m.ToggleNeighborState(ns[0].IP)
	return err
}

func toggleUplink(m *netmodel.Model) error {
	if _, ok := m.Uplink(); !ok {
		return nil
	}
	return m.SetLinkState(m.UplinkName(), !m.UplinkUp())
}

// Engine runs at most one scenario at a time.
type Engine struct {
	model   *netmodel.Model
	log     *eventlog.Log
	sched   sched.Scheduler
	catalog map[string]Scenario
	current string
	timer   sched.Timer
	ticks   uint64
}

// New creates an engine. Zero entries in intervals keep the defaults.
func New(model *netmodel.Model, log *eventlog.Log, s sched.Scheduler, intervals Intervals) *Engine {
	e := &Engine{
		model:   model,
		log:     log,
		sched:   s,
		catalog: make(map[string]Scenario),
	}
	for _, sc := range Catalog() {
		if d := intervals[sc.Name]; d > 0 {
			sc.Interval = d
		}
		e.catalog[sc.Name] = sc
	}
	return e
}

// Available lists scenario names in sorted order.
func (e *Engine) Available() []string {
	names := make([]string, 0, len(e.catalog))
	for name := range e.catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Current returns the running scenario name, or "".
func (e *Engine) Current() string { return e.current }

// Ticks returns the number of scenario ticks executed since startup.
func (e *Engine) Ticks() uint64 { return e.ticks }

// Interval returns the tick period of a scenario.
func (e *Engine) Interval(name string) (time.Duration, bool) {
	sc, ok := e.catalog[name]
	return sc.Interval, ok
}

// Start replaces any running scenario with name.
func (e *Engine) Start(name string) error {
	sc, ok := e.catalog[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	e.cancel()
	e.current = name
	e.log.Notice("Scenario started: " + name)
	e.timer = e.sched.Every(sc.Interval, func() {
		if e.current != sc.Name {
			return
		}
		e.ticks++
		if err := sc.Tick(e.model); err != nil {
			slog.Warn("scenario tick failed", "scenario", sc.Name, "err", err)
		}
	})
	return nil
}

// Stop cancels the running scenario. The notice is logged even when
// nothing was running.
func (e *Engine) Stop() {
	e.cancel()
	e.current = ""
	e.log.Notice("Scenario stopped.")
}

func (e *Engine) cancel() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
