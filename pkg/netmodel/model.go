// Package netmodel holds the simulated network the interpreter operates on:
// interfaces, routes, BGP neighbors and the ARP cache.
//
// A Model is not safe for concurrent use; callers serialize access through
// the interpreter's sched.Loop.
package netmodel

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/psaab/nocterm/pkg/eventlog"
)

var (
	// ErrUnknownInterface is returned when an interface name does not
	// resolve to a seeded interface.
	ErrUnknownInterface = errors.New("unknown interface")
	// ErrInvalidAddress is returned for malformed addresses or masks.
	ErrInvalidAddress = errors.New("invalid address")
)

// Interface is a simulated interface record.
type Interface struct {
	Name        string
	IP          string // empty when unassigned
	Mask        string
	AdminUp     bool
	OperUp      bool
	Description string
}

// Up reports whether the interface is administratively and operationally up.
func (i Interface) Up() bool { return i.AdminUp && i.OperUp }

// Status returns the IOS status column text.
func (i Interface) Status() string {
	switch {
	case !i.AdminUp:
		return "administratively down"
	case i.OperUp:
		return "up"
	default:
		return "down"
	}
}

// Protocol returns the IOS protocol column text.
func (i Interface) Protocol() string {
	if i.OperUp {
		return "up"
	}
	return "down"
}

// Route is a routing table entry keyed by prefix.
type Route struct {
	Prefix string // CIDR
	Via    string // next hop, empty for connected
	Proto  string // "S", "C", "L", "B"
	Metric string // "1/0"
	Iface  string
}

// BGP is the local BGP speaker identity.
type BGP struct {
	ASN      int
	RouterID string
}

// Neighbor is a BGP neighbor keyed by IP.
type Neighbor struct {
	IP       string
	ASN      int
	State    string
	Uptime   string
	Prefixes int
}

// Established reports whether the session is up.
func (n Neighbor) Established() bool { return n.State == StateEstablished }

// BGP neighbor states used by the simulation.
const (
	StateEstablished = "Established"
	StateIdle        = "Idle"
)

// ARPEntry is an ARP cache entry keyed by IP.
type ARPEntry struct {
	IP    string
	MAC   string
	Iface string
}

// Seed describes the startup contents of a Model.
type Seed struct {
	Gateway    string
	DNS        string
	Uplink     string
	Interfaces []Interface
	Routes     []Route
	BGP        BGP
	Neighbors  []Neighbor
}

// DefaultSeed returns the stock single-router topology.
func DefaultSeed() Seed {
	return Seed{
		Gateway: "192.168.1.1",
		DNS:     "8.8.8.8",
		Uplink:  "GigabitEthernet0/0",
		Interfaces: []Interface{
			{Name: "GigabitEthernet0/0", IP: "192.168.1.10", Mask: "255.255.255.0", AdminUp: true, OperUp: true, Description: "WAN_UPLINK"},
			{Name: "GigabitEthernet0/1"},
			{Name: "Loopback0", IP: "10.10.10.1", Mask: "255.255.255.255", AdminUp: true, OperUp: true, Description: "RID"},
		},
		Routes: []Route{
			{Prefix: "0.0.0.0/0", Via: "192.168.1.1", Proto: "S", Metric: "1/0"},
		},
		BGP: BGP{ASN: 65000, RouterID: "10.10.10.1"},
		Neighbors: []Neighbor{
			{IP: "10.45.0.1", ASN: 65001, State: StateEstablished, Uptime: "3w2d", Prefixes: 4},
		},
	}
}

// Model is the shared mutable network state.
type Model struct {
	log     *eventlog.Log
	rnd     *rand.Rand
	gateway string
	dns     string
	uplink  string

	ifaces    []*Interface
	byName    map[string]*Interface // lower-case name
	routes    []Route
	bgp       BGP
	neighbors []*Neighbor
	arp       []ARPEntry
	arpIndex  map[string]int
}

// New builds a model from seed. Every simulated network event is written
// to log. rnd drives generated MAC addresses; nil seeds a fixed source.
func New(seed Seed, log *eventlog.Log, rnd *rand.Rand) *Model {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(1, 2))
	}
	m := &Model{
		log:      log,
		rnd:      rnd,
		gateway:  seed.Gateway,
		dns:      seed.DNS,
		uplink:   seed.Uplink,
		byName:   make(map[string]*Interface),
		routes:   append([]Route(nil), seed.Routes...),
		bgp:      seed.BGP,
		arpIndex: make(map[string]int),
	}
	for _, ifc := range seed.Interfaces {
		ifc := ifc
		if !ifc.AdminUp {
			ifc.OperUp = false
		}
		m.ifaces = append(m.ifaces, &ifc)
		m.byName[strings.ToLower(ifc.Name)] = &ifc
	}
	for _, n := range seed.Neighbors {
		n := n
		m.neighbors = append(m.neighbors, &n)
	}
	return m
}

// Gateway returns the default gateway address.
func (m *Model) Gateway() string { return m.gateway }

// DNS returns the resolver address used as the default ping target.
func (m *Model) DNS() string { return m.dns }

// UplinkName returns the name of the uplink interface.
func (m *Model) UplinkName() string { return m.uplink }

// Uplink returns a copy of the uplink interface record.
func (m *Model) Uplink() (Interface, bool) { return m.Interface(m.uplink) }

// UplinkUp reports whether the uplink is admin and oper up.
func (m *Model) UplinkUp() bool {
	u, ok := m.Uplink()
	return ok && u.Up()
}

// Interface returns a copy of the named interface (exact, case-insensitive).
func (m *Model) Interface(name string) (Interface, bool) {
	ifc, ok := m.byName[strings.ToLower(name)]
	if !ok {
		return Interface{}, false
	}
	return *ifc, true
}

// Interfaces returns copies of all interfaces in seed order.
func (m *Model) Interfaces() []Interface {
	out := make([]Interface, len(m.ifaces))
	for i, ifc := range m.ifaces {
		out[i] = *ifc
	}
	return out
}

// InterfaceNames returns interface names in seed order.
func (m *Model) InterfaceNames() []string {
	out := make([]string, len(m.ifaces))
	for i, ifc := range m.ifaces {
		out[i] = ifc.Name
	}
	return out
}

// ResolveInterface maps user input such as "gi0/0", "Gig0/0" or "lo0" to a
// canonical interface name.
func (m *Model) ResolveInterface(input string) (string, error) {
	if ifc, ok := m.byName[strings.ToLower(input)]; ok {
		return ifc.Name, nil
	}
	typ, num := splitInterfaceName(strings.ToLower(input))
	if typ == "" || num == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownInterface, input)
	}
	var match string
	for _, ifc := range m.ifaces {
		t, n := splitInterfaceName(strings.ToLower(ifc.Name))
		if n == num && strings.HasPrefix(t, typ) {
			if match != "" {
				return "", fmt.Errorf("%w: %s (ambiguous)", ErrUnknownInterface, input)
			}
			match = ifc.Name
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownInterface, input)
	}
	return match, nil
}

// splitInterfaceName splits "gigabitethernet0/1" into ("gigabitethernet", "0/1").
func splitInterfaceName(s string) (string, string) {
	i := strings.IndexAny(s, "0123456789")
	if i < 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:i]), s[i:]
}

func (m *Model) lookup(name string) (*Interface, error) {
	ifc, ok := m.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInterface, name)
	}
	return ifc, nil
}

// UpdateInterface applies fn to the named interface. The admin/oper
// invariant is restored after fn returns. No event is logged.
func (m *Model) UpdateInterface(name string, fn func(*Interface)) error {
	ifc, err := m.lookup(name)
	if err != nil {
		return err
	}
	canonical := ifc.Name
	fn(ifc)
	ifc.Name = canonical
	if !ifc.AdminUp {
		ifc.OperUp = false
	}
	return nil
}

// Shutdown administratively disables the interface.
func (m *Model) Shutdown(name string) (string, error) {
	ifc, err := m.lookup(name)
	if err != nil {
		return "", err
	}
	ifc.AdminUp = false
	ifc.OperUp = false
	msg := fmt.Sprintf("%%LINK-5-CHANGED: Interface %s, changed state to administratively down", ifc.Name)
	m.log.Warning(msg)
	return msg, nil
}

// NoShutdown enables the interface. The simulation brings the line
// protocol up immediately.
func (m *Model) NoShutdown(name string) (string, error) {
	ifc, err := m.lookup(name)
	if err != nil {
		return "", err
	}
	ifc.AdminUp = true
	ifc.OperUp = true
	msg := fmt.Sprintf("%%LINK-3-UPDOWN: Interface %s, changed state to up", ifc.Name)
	m.log.Notice(msg)
	return msg, nil
}

// SetLinkState forces admin and oper state together, as a flapping link
// does.
func (m *Model) SetLinkState(name string, up bool) error {
	ifc, err := m.lookup(name)
	if err != nil {
		return err
	}
	ifc.AdminUp = up
	ifc.OperUp = up
	if up {
		m.log.Notice(fmt.Sprintf("%%LINK-3-UPDOWN: Interface %s, changed state to up", ifc.Name))
	} else {
		m.log.Warning(fmt.Sprintf("%%LINK-3-UPDOWN: Interface %s, changed state to down", ifc.Name))
	}
	return nil
}

// SetAddress assigns an IPv4 address and dotted mask.
func (m *Model) SetAddress(name, ip, mask string) error {
	ifc, err := m.lookup(name)
	if err != nil {
		return err
	}
	if _, err := ParseAddress(ip, mask); err != nil {
		return err
	}
	ifc.IP = ip
	ifc.Mask = mask
	m.log.Notice(fmt.Sprintf("Interface %s IP set to %s %s", ifc.Name, ip, mask))
	return nil
}

// ClearAddress removes the interface address.
func (m *Model) ClearAddress(name string) error {
	ifc, err := m.lookup(name)
	if err != nil {
		return err
	}
	ifc.IP = ""
	ifc.Mask = ""
	m.log.Notice(fmt.Sprintf("Interface %s IP address removed", ifc.Name))
	return nil
}

// SetDescription sets the interface description.
func (m *Model) SetDescription(name, text string) error {
	ifc, err := m.lookup(name)
	if err != nil {
		return err
	}
	ifc.Description = text
	m.log.Notice(fmt.Sprintf("Interface %s description set.", ifc.Name))
	return nil
}

// BGP returns the local speaker identity.
func (m *Model) BGP() BGP { return m.bgp }

// Neighbors returns copies of all BGP neighbors.
func (m *Model) Neighbors() []Neighbor {
	out := make([]Neighbor, len(m.neighbors))
	for i, n := range m.neighbors {
		out[i] = *n
	}
	return out
}

// Neighbor returns a copy of the neighbor with the given IP.
func (m *Model) Neighbor(ip string) (Neighbor, bool) {
	for _, n := range m.neighbors {
		if n.IP == ip {
			return *n, true
		}
	}
	return Neighbor{}, false
}

// ToggleNeighborState flips a neighbor between Established and Idle and
// returns its new state.
func (m *Model) ToggleNeighborState(ip string) (string, error) {
	for _, n := range m.neighbors {
		if n.IP != ip {
			continue
		}
		if n.State == StateEstablished {
			n.State = StateIdle
			n.Uptime = "00:00:02"
			m.log.Warning(fmt.Sprintf("%%BGP-5-ADJCHANGE: neighbor %s Down", n.IP))
		} else {
			n.State = StateEstablished
			n.Uptime = "00:00:25"
			m.log.Notice(fmt.Sprintf("%%BGP-5-ADJCHANGE: neighbor %s Up", n.IP))
		}
		return n.State, nil
	}
	return "", fmt.Errorf("no such neighbor: %s", ip)
}
