package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/psaab/nocterm/pkg/jobs"
	"github.com/psaab/nocterm/pkg/output"
)

func pad(s string, n int) string {
	return fmt.Sprintf("%-*s", n, s)
}

func upDown(b bool) string {
	if b {
		return "UP"
	}
	return "DOWN"
}

func (c *CLI) cmdNeofetch(_ []string, _ string) error {
	s := c.sessions.Active()
	for _, l := range []string{
		"        .---.",
		"       /     \\    " + s.Username + "@" + s.Hostname,
		"       |  O  |    ------------",
		"       \\     /    OS: nocterm " + Version + " (sim)",
		"        '---'     Host: " + c.model.UplinkName(),
		"                 Uplink: " + upDown(c.model.UplinkUp()),
	} {
		c.out.Print(output.StyleAccent, l)
	}
	return nil
}

func (c *CLI) cmdLinuxIP(args []string, _ string) error {
	sub := ""
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}
	if sub != "a" && sub != "addr" && sub != "address" {
		return usagef("usage: ip a")
	}
	c.out.Print(output.StyleText, "1: lo: <LOOPBACK,UP> mtu 65536 qdisc noqueue state UNKNOWN")
	c.out.Print(output.StyleText, "    inet 127.0.0.1/8 scope host lo")
	u, ok := c.model.Uplink()
	if !ok {
		return nil
	}
	c.out.Print(output.StyleText, fmt.Sprintf("2: eth0: <BROADCAST,MULTICAST,%s> mtu 1500 state %s", upDown(u.AdminUp), upDown(u.OperUp)))
	if addr := u.Addr(); addr != nil {
		c.out.Print(output.StyleAccent, fmt.Sprintf("    inet %s brd %s scope global eth0", addr.IPNet, addr.Broadcast))
	}
	return nil
}

func (c *CLI) cmdLinuxARP(args []string, _ string) error {
	if len(args) > 0 && args[0] != "-a" && args[0] != "-n" {
		return usagef("usage: arp [-a]")
	}
	entries := c.model.ARP()
	if len(entries) == 0 {
		c.printf("ARP table empty. Try: ping %s", c.model.Gateway())
		return nil
	}
	c.print("Address                  HWtype  HWaddress                 Iface")
	for _, e := range entries {
		c.out.Print(output.StyleText, fmt.Sprintf("%s ether   %s eth0", pad(e.IP, 24), pad(e.MAC, 22)))
	}
	return nil
}

func (c *CLI) cmdWhoami(_ []string, _ string) error {
	c.out.Print(output.StyleText, c.sessions.Active().Username)
	return nil
}

func (c *CLI) cmdLinuxHostname(_ []string, _ string) error {
	c.out.Print(output.StyleText, c.sessions.Active().Hostname)
	return nil
}

// cmdSSH models the connection delay as a job so that Ctrl-C aborts it.
func (c *CLI) cmdSSH(args []string, _ string) error {
	if len(args) == 0 {
		return usagef("usage: ssh <target> (try: ssh switch)")
	}
	target := strings.ToLower(args[0])
	if i := strings.LastIndex(target, "@"); i >= 0 {
		target = target[i+1:]
	}
	c.print("OpenSSH_8.9p1 Ubuntu-3, OpenSSL 3.0.2")
	c.printf("Connecting to %s...", target)

	job := c.jobs.Start("ssh", nil)
	job.After(c.opts.SSHDelay, func(j *jobs.Job) {
		defer j.Stop(jobs.ReasonDone)
		if !slices.Contains(c.opts.SSHTargets, target) {
			c.printError(fmt.Sprintf("ssh: connect to host %s port 22: Connection refused", target))
			return
		}
		c.log.Info(fmt.Sprintf("SSH session established to %s (simulated).", target))
		c.sessions.Open(target)
		c.out.Print(output.StyleText, "")
		c.out.Print(output.StyleAccent, target+">")
		c.print("Type 'enable' to enter privileged mode.")
	})
	return nil
}
