package netmodel

import (
	"fmt"
	"net"
	"strconv"

	"github.com/vishvananda/netlink"
)

// AddRoute installs (or replaces) a static route. prefix and mask are
// dotted quads as typed after "ip route".
func (m *Model) AddRoute(prefix, mask, via string) (Route, error) {
	ones, err := MaskBits(mask)
	if err != nil {
		return Route{}, err
	}
	dst, err := netlink.ParseIPNet(prefix + "/" + strconv.Itoa(ones))
	if err != nil || dst.IP.To4() == nil {
		return Route{}, fmt.Errorf("%w: %q", ErrInvalidAddress, prefix)
	}
	if net.ParseIP(via).To4() == nil {
		return Route{}, fmt.Errorf("%w: next hop %q", ErrInvalidAddress, via)
	}
	network := &net.IPNet{IP: dst.IP.Mask(dst.Mask), Mask: dst.Mask}
	r := Route{Prefix: network.String(), Via: via, Proto: "S", Metric: "1/0"}

	replaced := false
	for i := range m.routes {
		if m.routes[i].Prefix == r.Prefix {
			m.routes[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		m.routes = append(m.routes, r)
	}
	m.log.Notice(fmt.Sprintf("Static route %s via %s installed", r.Prefix, via))
	return r, nil
}

// RemoveRoute deletes the static route for prefix/mask. It reports
// whether a route was removed.
func (m *Model) RemoveRoute(prefix, mask string) (bool, error) {
	ones, err := MaskBits(mask)
	if err != nil {
		return false, err
	}
	dst, err := netlink.ParseIPNet(prefix + "/" + strconv.Itoa(ones))
	if err != nil || dst.IP.To4() == nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidAddress, prefix)
	}
	key := (&net.IPNet{IP: dst.IP.Mask(dst.Mask), Mask: dst.Mask}).String()
	for i, r := range m.routes {
		if r.Prefix != key {
			continue
		}
		m.routes = append(m.routes[:i], m.routes[i+1:]...)
		m.log.Notice(fmt.Sprintf("Static route %s via %s removed", r.Prefix, r.Via))
		return true, nil
	}
	return false, nil
}

// PrefixMask splits "10.0.0.0/8" into "10.0.0.0" and "255.0.0.0".
func PrefixMask(prefix string) (string, string) {
	_, n, err := net.ParseCIDR(prefix)
	if err != nil {
		return prefix, ""
	}
	return n.IP.String(), net.IP(n.Mask).String()
}

// Routes returns the configured (static) routes in insertion order.
func (m *Model) Routes() []Route {
	return append([]Route(nil), m.routes...)
}

// ConnectedRoutes derives C and L entries from interfaces that are up and
// addressed.
func (m *Model) ConnectedRoutes() []Route {
	var out []Route
	for _, ifc := range m.ifaces {
		if !ifc.Up() {
			continue
		}
		network := ifc.Network()
		if network == nil {
			continue
		}
		out = append(out, Route{Prefix: network.String(), Proto: "C", Iface: ifc.Name})
		if ones, _ := network.Mask.Size(); ones < 32 {
			out = append(out, Route{Prefix: ifc.IP + "/32", Proto: "L", Iface: ifc.Name})
		}
	}
	return out
}

// DefaultRoute returns the 0.0.0.0/0 route if present.
func (m *Model) DefaultRoute() (Route, bool) {
	for _, r := range m.routes {
		if r.Prefix == "0.0.0.0/0" {
			return r, true
		}
	}
	return Route{}, false
}

// ConnectedInterface returns the interface whose connected subnet contains
// ip, ignoring host (/32) prefixes and the interface's own address.
func (m *Model) ConnectedInterface(ip string) (string, bool) {
	target := net.ParseIP(ip).To4()
	if target == nil {
		return "", false
	}
	for _, ifc := range m.ifaces {
		network := ifc.Network()
		if network == nil {
			continue
		}
		if ones, _ := network.Mask.Size(); ones == 32 {
			continue
		}
		if network.Contains(target) && ifc.IP != ip {
			return ifc.Name, true
		}
	}
	return "", false
}

// Reachable reports whether the simulated network can deliver to ip given
// the current interface state. Local addresses answer while their
// interface is up; connected subnets need their interface up; everything
// else leaves through the uplink via the default route.
func (m *Model) Reachable(ip string) bool {
	target := net.ParseIP(ip).To4()
	if target != nil {
		for _, ifc := range m.ifaces {
			if ifc.IP == ip {
				return ifc.Up()
			}
		}
		for _, ifc := range m.ifaces {
			network := ifc.Network()
			if network != nil && network.Contains(target) {
				if ones, _ := network.Mask.Size(); ones < 32 {
					return ifc.Up()
				}
			}
		}
	}
	if _, ok := m.DefaultRoute(); !ok {
		return false
	}
	return m.UplinkUp()
}

// EnsureARP adds an ARP entry for ip if it lies in a connected subnet and
// is not yet cached. It reports whether a new entry was created.
func (m *Model) EnsureARP(ip string) (ARPEntry, bool) {
	if idx, ok := m.arpIndex[ip]; ok {
		return m.arp[idx], false
	}
	iface, ok := m.ConnectedInterface(ip)
	if !ok {
		return ARPEntry{}, false
	}
	e := ARPEntry{
		IP:    ip,
		MAC:   fmt.Sprintf("00:50:56:%02x:%02x:%02x", m.rnd.IntN(256), m.rnd.IntN(256), m.rnd.IntN(256)),
		Iface: iface,
	}
	m.arpIndex[ip] = len(m.arp)
	m.arp = append(m.arp, e)
	return e, true
}

// ARP returns cached entries in insertion order.
func (m *Model) ARP() []ARPEntry {
	return append([]ARPEntry(nil), m.arp...)
}
