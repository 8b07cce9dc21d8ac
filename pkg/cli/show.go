package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/psaab/nocterm/pkg/cmdtree"
	"github.com/psaab/nocterm/pkg/eventlog"
	"github.com/psaab/nocterm/pkg/netmodel"
	"github.com/psaab/nocterm/pkg/output"
)

// showPath canonicalises show arguments against the help tree, so that
// "ip int br" becomes "ip interface brief". rest holds the words after a
// dynamic node. incomplete is set when the path stops at a node that
// needs more words.
func showPath(args []string) (path string, rest []string, incomplete bool, err error) {
	level := cmdtree.HelpTree["show"].Children
	var parts []string
	for i, a := range args {
		name, node, ok := cmdtree.Lookup(level, a)
		if !ok {
			return "", nil, false, fmt.Errorf("show %s: %w", strings.Join(args, " "), ErrInvalidInput)
		}
		parts = append(parts, name)
		if node.DynamicFn != nil {
			return strings.Join(parts, " "), args[i+1:], false, nil
		}
		if node.Children == nil {
			if i != len(args)-1 {
				return "", nil, false, fmt.Errorf("show %s: %w", strings.Join(args, " "), ErrInvalidInput)
			}
			return strings.Join(parts, " "), nil, false, nil
		}
		level = node.Children
	}
	return strings.Join(parts, " "), nil, true, nil
}

func (c *CLI) cmdShow(args []string, _ string) error {
	if len(args) == 0 {
		return ErrIncompleteCommand
	}
	path, rest, incomplete, err := showPath(args)
	if err != nil {
		return err
	}
	if incomplete {
		return ErrIncompleteCommand
	}
	switch path {
	case "ip interface brief":
		c.showIPInterfaceBrief()
	case "ip route":
		c.showIPRoute()
	case "ip arp", "arp":
		c.showARP()
	case "running-config":
		c.showRunningConfig()
	case "bgp summary":
		c.showBGPSummary()
	case "logging":
		c.showLogging()
	case "version":
		c.showVersion()
	case "sessions":
		c.showSessions()
	case "history":
		return c.cmdHistory(nil, "")
	case "interfaces":
		return c.showInterfaces(rest)
	default:
		return fmt.Errorf("show %s: %w", path, ErrInvalidInput)
	}
	return nil
}

func (c *CLI) showIPInterfaceBrief() {
	c.print("Interface              IP-Address      OK? Method Status                Protocol")
	for _, ifc := range c.model.Interfaces() {
		ip, method := "unassigned", "unset"
		if ifc.IP != "" {
			ip, method = ifc.IP, "manual"
		}
		c.printf("%s %s YES %s %s %s", pad(ifc.Name, 22), pad(ip, 15), pad(method, 6), pad(ifc.Status(), 22), ifc.Protocol())
	}
}

func (c *CLI) showIPRoute() {
	c.print("Codes: C - connected, L - local, S - static, B - BGP")
	if def, ok := c.model.DefaultRoute(); ok {
		c.printf("Gateway of last resort is %s to network 0.0.0.0", def.Via)
	} else {
		c.print("Gateway of last resort is not set")
	}
	c.print("")
	for _, r := range c.model.Routes() {
		code := "S    "
		if r.Prefix == "0.0.0.0/0" {
			code = "S*   "
		}
		c.printf("%s %s [%s] via %s", code, r.Prefix, r.Metric, r.Via)
	}
	for _, r := range c.model.ConnectedRoutes() {
		c.printf("%s     %s is directly connected, %s", r.Proto, r.Prefix, r.Iface)
	}
}

func (c *CLI) showARP() {
	c.print("Protocol  Address          Age (min)  Hardware Addr   Type   Interface")
	for _, ifc := range c.model.Interfaces() {
		if ifc.IP == "" || !ifc.Up() {
			continue
		}
		c.printf("Internet  %s -  %s ARPA   %s", pad(ifc.IP, 16), pad("0050.5600.0001", 26), ifc.Name)
	}
	for _, e := range c.model.ARP() {
		c.printf("Internet  %s 0  %s ARPA   %s", pad(e.IP, 16), pad(e.MAC, 26), e.Iface)
	}
}

func (c *CLI) runningConfig() []string {
	s := c.sessions.Active()
	lines := []string{"!", "version 17.3", "hostname " + s.Hostname, "!"}
	for _, ifc := range c.model.Interfaces() {
		lines = append(lines, "interface "+ifc.Name)
		if ifc.Description != "" {
			lines = append(lines, " description "+ifc.Description)
		}
		if ifc.IP != "" && ifc.Mask != "" {
			lines = append(lines, " ip address "+ifc.IP+" "+ifc.Mask)
		} else {
			lines = append(lines, " no ip address")
		}
		if !ifc.AdminUp {
			lines = append(lines, " shutdown")
		}
		lines = append(lines, "!")
	}
	bgp := c.model.BGP()
	lines = append(lines, fmt.Sprintf("router bgp %d", bgp.ASN), " bgp router-id "+bgp.RouterID)
	for _, n := range c.model.Neighbors() {
		lines = append(lines, fmt.Sprintf(" neighbor %s remote-as %d", n.IP, n.ASN))
	}
	lines = append(lines, "!")
	for _, r := range c.model.Routes() {
		p, m := netmodel.PrefixMask(r.Prefix)
		lines = append(lines, fmt.Sprintf("ip route %s %s %s", p, m, r.Via))
	}
	return append(lines, "!", "end")
}

func (c *CLI) showRunningConfig() {
	lines := c.runningConfig()
	size := 0
	for _, l := range lines {
		size += len(l) + 1
	}
	c.print("Building configuration...")
	c.print("")
	c.printf("Current configuration : %d bytes", size)
	for _, l := range lines {
		c.print(l)
	}
}

func (c *CLI) showBGPSummary() {
	bgp := c.model.BGP()
	c.printf("BGP router identifier %s, local AS number %d", bgp.RouterID, bgp.ASN)
	c.print("Neighbor        V    AS MsgRcvd MsgSent   Up/Down  State/PfxRcd")
	for _, n := range c.model.Neighbors() {
		state := n.State
		if n.Established() {
			state = fmt.Sprint(n.Prefixes)
		}
		c.printf("%s 4 %s 12492   12389    %s %s", pad(n.IP, 15), pad(fmt.Sprint(n.ASN), 6), pad(n.Uptime, 8), state)
	}
}

func (c *CLI) showLogging() {
	entries := c.log.Tail(c.opts.LoggingTail)
	if len(entries) == 0 {
		c.print("No logs.")
		return
	}
	c.printf("Log Buffer (%d entries, capacity %d):", c.log.Len(), c.log.Capacity())
	for _, e := range entries {
		c.print(eventlog.Format(e))
	}
}

func (c *CLI) showVersion() {
	s := c.sessions.Active()
	up := c.sched.Now().Sub(c.booted).Truncate(time.Second)
	c.print("Cisco IOS XE Software, Version 17.3.0 (simulated)")
	c.print("Compiled Tue 01-Jan-26 00:00 by netreka")
	c.print("ROM: IOS-XE ROMMON")
	c.printf("%s uptime is %s", s.Hostname, up)
	c.printf("nocterm %s", Version)
}

func (c *CLI) showSessions() {
	c.print("    Line       User       Host(s)              Mode            Connected")
	active := c.sessions.Active()
	for i, s := range c.sessions.List() {
		mark := " "
		if s == active {
			mark = "*"
		}
		host := "idle"
		if s.Remote() {
			host = s.Target
		}
		line := fmt.Sprintf("%s %3d vty %d  %s %s %s %s", mark, i, i, pad(s.Username, 10), pad(host, 20), pad(s.Mode.String(), 15), s.Opened.Format("15:04:05"))
		c.out.Print(output.StyleSystem, line)
	}
}

func (c *CLI) showInterfaces(rest []string) error {
	ifaces := c.model.Interfaces()
	if len(rest) > 0 {
		name, err := c.model.ResolveInterface(strings.Join(rest, ""))
		if err != nil {
			return err
		}
		ifc, _ := c.model.Interface(name)
		ifaces = []netmodel.Interface{ifc}
	}
	for _, ifc := range ifaces {
		c.printf("%s is %s, line protocol is %s", ifc.Name, ifc.Status(), ifc.Protocol())
		if ifc.Description != "" {
			c.printf("  Description: %s", ifc.Description)
		}
		if n := ifc.Addr(); n != nil {
			c.printf("  Internet address is %s", n.IPNet)
		} else {
			c.print("  Internet address is unassigned")
		}
		c.print("  MTU 1500 bytes, BW 1000000 Kbit/sec")
	}
	return nil
}
