package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/psaab/nocterm/pkg/cli"
	"github.com/psaab/nocterm/pkg/jobs"
	"github.com/psaab/nocterm/pkg/netmodel"
)

// nocCollector implements prometheus.Collector, reading interpreter state
// on the loop at scrape time.
type nocCollector struct {
	srv *Server

	ifaceUp      *prometheus.Desc
	ifaceAdminUp *prometheus.Desc
	routes       *prometheus.Desc

	bgpEstablished *prometheus.Desc
	bgpPrefixes    *prometheus.Desc

	commandsTotal *prometheus.Desc
	panicsTotal   *prometheus.Desc
	jobsStarted   *prometheus.Desc
	jobsStopped   *prometheus.Desc
	jobRunning    *prometheus.Desc

	scenarioActive *prometheus.Desc
	scenarioTicks  *prometheus.Desc

	sessions   *prometheus.Desc
	logEntries *prometheus.Desc
	logTotal   *prometheus.Desc
}

func newCollector(srv *Server) *nocCollector {
	return &nocCollector{
		srv: srv,

		ifaceUp: prometheus.NewDesc(
			"nocterm_interface_up",
			"Whether the interface is admin and oper up.",
			[]string{"iface"}, nil,
		),
		ifaceAdminUp: prometheus.NewDesc(
			"nocterm_interface_admin_up",
			"Whether the interface is administratively up.",
			[]string{"iface"}, nil,
		),
		routes: prometheus.NewDesc(
			"nocterm_routes",
			"Routing table entries by protocol.",
			[]string{"protocol"}, nil,
		),
		bgpEstablished: prometheus.NewDesc(
			"nocterm_bgp_neighbor_established",
			"Whether the BGP neighbor is Established.",
			[]string{"neighbor"}, nil,
		),
		bgpPrefixes: prometheus.NewDesc(
			"nocterm_bgp_neighbor_prefixes",
			"Prefixes received from the neighbor.",
			[]string{"neighbor"}, nil,
		),
		commandsTotal: prometheus.NewDesc(
			"nocterm_commands_total",
			"Dispatched command lines by outcome.",
			[]string{"result"}, nil,
		),
		panicsTotal: prometheus.NewDesc(
			"nocterm_command_panics_total",
			"Handler panics recovered by the dispatcher.",
			nil, nil,
		),
		jobsStarted: prometheus.NewDesc(
			"nocterm_jobs_started_total",
			"Foreground jobs started.",
			nil, nil,
		),
		jobsStopped: prometheus.NewDesc(
			"nocterm_jobs_stopped_total",
			"Foreground jobs stopped by reason.",
			[]string{"reason"}, nil,
		),
		jobRunning: prometheus.NewDesc(
			"nocterm_job_running",
			"Whether a foreground job is running.",
			nil, nil,
		),
		scenarioActive: prometheus.NewDesc(
			"nocterm_scenario_active",
			"Currently running scenario.",
			[]string{"scenario"}, nil,
		),
		scenarioTicks: prometheus.NewDesc(
			"nocterm_scenario_ticks_total",
			"Scenario timer ticks.",
			nil, nil,
		),
		sessions: prometheus.NewDesc(
			"nocterm_sessions",
			"Open sessions, including the local one.",
			nil, nil,
		),
		logEntries: prometheus.NewDesc(
			"nocterm_eventlog_entries",
			"Entries retained in the event log.",
			nil, nil,
		),
		logTotal: prometheus.NewDesc(
			"nocterm_eventlog_entries_total",
			"Entries ever written to the event log.",
			nil, nil,
		),
	}
}

func (c *nocCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ifaceUp
	ch <- c.ifaceAdminUp
	ch <- c.routes
	ch <- c.bgpEstablished
	ch <- c.bgpPrefixes
	ch <- c.commandsTotal
	ch <- c.panicsTotal
	ch <- c.jobsStarted
	ch <- c.jobsStopped
	ch <- c.jobRunning
	ch <- c.scenarioActive
	ch <- c.scenarioTicks
	ch <- c.sessions
	ch <- c.logEntries
	ch <- c.logTotal
}

type snapshot struct {
	ifaces    []netmodel.Interface
	routes    map[string]int
	neighbors []netmodel.Neighbor
	stats     cli.Stats
	started   uint64
	stopped   map[jobs.Reason]uint64
	running   bool
	scenario  string
	ticks     uint64
	sessions  int
}

func (c *nocCollector) snapshot() (snapshot, bool) {
	var snap snapshot
	ok := c.srv.onLoop(func() {
		t := c.srv.cli
		m := t.Model()
		snap.ifaces = m.Interfaces()
		snap.routes = map[string]int{}
		for _, r := range append(m.Routes(), m.ConnectedRoutes()...) {
			snap.routes[r.Proto]++
		}
		snap.neighbors = m.Neighbors()
		snap.stats = t.Stats()
		snap.started = t.Jobs().Started()
		snap.stopped = map[jobs.Reason]uint64{}
		for _, r := range []jobs.Reason{jobs.ReasonDone, jobs.ReasonInterrupt, jobs.ReasonKilled} {
			snap.stopped[r] = t.Jobs().StoppedCount(r)
		}
		snap.running = t.Jobs().Running()
		snap.scenario = t.Scenarios().Current()
		snap.ticks = t.Scenarios().Ticks()
		snap.sessions = t.Sessions().Len()
	})
	return snap, ok
}

func (c *nocCollector) Collect(ch chan<- prometheus.Metric) {
	c.collectLog(ch)

	snap, ok := c.snapshot()
	if !ok {
		return
	}

	for _, ifc := range snap.ifaces {
		ch <- prometheus.MustNewConstMetric(c.ifaceUp, prometheus.GaugeValue, boolValue(ifc.Up()), ifc.Name)
		ch <- prometheus.MustNewConstMetric(c.ifaceAdminUp, prometheus.GaugeValue, boolValue(ifc.AdminUp), ifc.Name)
	}
	for proto, n := range snap.routes {
		ch <- prometheus.MustNewConstMetric(c.routes, prometheus.GaugeValue, float64(n), proto)
	}
	for _, n := range snap.neighbors {
		ch <- prometheus.MustNewConstMetric(c.bgpEstablished, prometheus.GaugeValue, boolValue(n.Established()), n.IP)
		ch <- prometheus.MustNewConstMetric(c.bgpPrefixes, prometheus.GaugeValue, float64(n.Prefixes), n.IP)
	}

	results := map[string]uint64{
		"ok":       snap.stats.Commands - snap.stats.Failed,
		"unknown":  snap.stats.Unknown,
		"rejected": snap.stats.Rejected,
		"failed":   snap.stats.Failed,
		"help":     snap.stats.Help,
	}
	for result, n := range results {
		ch <- prometheus.MustNewConstMetric(c.commandsTotal, prometheus.CounterValue, float64(n), result)
	}

	ch <- prometheus.MustNewConstMetric(c.panicsTotal, prometheus.CounterValue, float64(snap.stats.Panics))
	ch <- prometheus.MustNewConstMetric(c.jobsStarted, prometheus.CounterValue, float64(snap.started))
	for reason, n := range snap.stopped {
		ch <- prometheus.MustNewConstMetric(c.jobsStopped, prometheus.CounterValue, float64(n), string(reason))
	}
	ch <- prometheus.MustNewConstMetric(c.jobRunning, prometheus.GaugeValue, boolValue(snap.running))

	if snap.scenario != "" {
		ch <- prometheus.MustNewConstMetric(c.scenarioActive, prometheus.GaugeValue, 1, snap.scenario)
	}
	ch <- prometheus.MustNewConstMetric(c.scenarioTicks, prometheus.CounterValue, float64(snap.ticks))
	ch <- prometheus.MustNewConstMetric(c.sessions, prometheus.GaugeValue, float64(snap.sessions))
}

func (c *nocCollector) collectLog(ch chan<- prometheus.Metric) {
	log := c.srv.log
	ch <- prometheus.MustNewConstMetric(c.logEntries, prometheus.GaugeValue, float64(log.Len()))
	ch <- prometheus.MustNewConstMetric(c.logTotal, prometheus.CounterValue, float64(log.Total()))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
