package netmodel

import (
	"fmt"
	"net"
	"strconv"

	"github.com/vishvananda/netlink"
)

// ParseAddress validates an IPv4 address with a dotted-quad mask. The
// returned IPNet carries the host address, not the network address.
func ParseAddress(ip, mask string) (*net.IPNet, error) {
	if net.ParseIP(ip).To4() == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, ip)
	}
	ones, err := MaskBits(mask)
	if err != nil {
		return nil, err
	}
	ipNet, err := netlink.ParseIPNet(ip + "/" + strconv.Itoa(ones))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return ipNet, nil
}

// MaskBits converts a dotted-quad mask to a prefix length.
func MaskBits(mask string) (int, error) {
	m := net.ParseIP(mask).To4()
	if m == nil {
		return 0, fmt.Errorf("%w: mask %q", ErrInvalidAddress, mask)
	}
	ones, bits := net.IPMask(m).Size()
	if bits == 0 {
		return 0, fmt.Errorf("%w: non-contiguous mask %q", ErrInvalidAddress, mask)
	}
	return ones, nil
}

// Addr returns the interface address in netlink form, or nil when the
// interface is unassigned.
func (i Interface) Addr() *netlink.Addr {
	if i.IP == "" || i.Mask == "" {
		return nil
	}
	ones, err := MaskBits(i.Mask)
	if err != nil {
		return nil
	}
	addr, err := netlink.ParseAddr(i.IP + "/" + strconv.Itoa(ones))
	if err != nil {
		return nil
	}
	addr.Broadcast = broadcast(addr.IPNet)
	return addr
}

// Network returns the connected prefix of the interface, or nil.
func (i Interface) Network() *net.IPNet {
	addr := i.Addr()
	if addr == nil {
		return nil
	}
	return &net.IPNet{IP: addr.IP.Mask(addr.Mask), Mask: addr.Mask}
}

func broadcast(n *net.IPNet) net.IP {
	ip := n.IP.To4()
	if ip == nil {
		return nil
	}
	out := make(net.IP, len(ip))
	for i := range ip {
		out[i] = ip[i] | ^n.Mask[i]
	}
	return out
}
