package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/psaab/nocterm/pkg/jobs"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/scenario"
	"github.com/psaab/nocterm/pkg/session"
)

var (
	linuxOnly = session.Modes(session.Linux)
	execModes = session.Modes(session.CiscoExec, session.CiscoPriv)
	pingModes = session.Modes(session.Linux, session.CiscoExec, session.CiscoPriv)
	confModes = session.Modes(session.CiscoConfig, session.CiscoIf)
)

func (c *CLI) registerCommands() {
	r := c.registry
	r.Add(&Command{Name: "help", Aliases: []string{"?"}, Modes: session.AllModes, Help: "Show help", Handler: (*CLI).cmdHelp})
	r.Add(&Command{Name: "clear", Aliases: []string{"cls"}, Modes: session.AllModes, Help: "Clear screen", Handler: (*CLI).cmdClear})
	r.Add(&Command{Name: "history", Modes: session.AllModes, Help: "Session command history", Handler: (*CLI).cmdHistory})

	r.Add(&Command{Name: "neofetch", Modes: linuxOnly, Help: "System info", Handler: (*CLI).cmdNeofetch})
	r.Add(&Command{Name: "ip", Modes: linuxOnly, Help: "Show interfaces", Handler: (*CLI).cmdLinuxIP})
	r.Add(&Command{Name: "arp", Modes: linuxOnly, Help: "ARP table", Handler: (*CLI).cmdLinuxARP})
	r.Add(&Command{Name: "ssh", Modes: linuxOnly, Help: "Connect to a device", Handler: (*CLI).cmdSSH})
	r.Add(&Command{Name: "whoami", Modes: linuxOnly, Help: "Print the user name", Handler: (*CLI).cmdWhoami})
	r.Add(&Command{Name: "hostname", Modes: linuxOnly, Help: "Print the host name", Handler: (*CLI).cmdLinuxHostname})
	r.Add(&Command{Name: "ping", Modes: pingModes, Help: "Send echo requests", Handler: (*CLI).cmdPing})

	r.Add(&Command{Name: "enable", Aliases: []string{"en"}, Modes: session.Modes(session.CiscoExec), Help: "Turn on privileged commands", Handler: (*CLI).cmdEnable})
	r.Add(&Command{Name: "disable", Modes: session.Modes(session.CiscoPriv), Help: "Turn off privileged commands", Handler: (*CLI).cmdDisable})
	r.Add(&Command{Name: "show", Aliases: []string{"sh"}, Modes: execModes, Help: "Show running system information", Handler: (*CLI).cmdShow})
	r.Add(&Command{Name: "configure", Aliases: []string{"conf"}, Modes: session.Modes(session.CiscoPriv), Help: "Enter configuration mode", Handler: (*CLI).cmdConfigure})
	r.Add(&Command{Name: "interface", Aliases: []string{"int"}, Modes: confModes, Help: "Select an interface to configure", Handler: (*CLI).cmdInterface})
	r.Add(&Command{Name: "hostname", Modes: session.Modes(session.CiscoConfig), Help: "Set system's network name", Handler: (*CLI).cmdIOSHostname})
	r.Add(&Command{Name: "ip", Modes: confModes, Help: "IP configuration subcommands", Handler: (*CLI).cmdIOSIP})
	r.Add(&Command{Name: "description", Modes: session.Modes(session.CiscoIf), Help: "Interface specific description", Handler: (*CLI).cmdDescription})
	r.Add(&Command{Name: "shutdown", Aliases: []string{"shut"}, Modes: session.Modes(session.CiscoIf), Help: "Shutdown the selected interface", Handler: (*CLI).cmdShutdown})
	r.Add(&Command{Name: "no", Modes: confModes, Help: "Negate a command or set its defaults", Handler: (*CLI).cmdNo})
	r.Add(&Command{Name: "do", Modes: confModes, Help: "Run an exec command", Handler: (*CLI).cmdDo})
	r.Add(&Command{Name: "end", Modes: confModes, Help: "Exit from configure mode", Handler: (*CLI).cmdEnd})

	r.Add(&Command{Name: "exit", Modes: session.AllModes, Help: "Exit from the current mode", Handler: (*CLI).cmdExit})
	r.Add(&Command{Name: "scenario", Modes: session.AllModes, Help: "Fault injection scenarios", Handler: (*CLI).cmdScenario})
}

func (c *CLI) cmdHelp(_ []string, _ string) error {
	if c.sessions.Active().Mode == session.Linux {
		c.out.Print(output.StyleAccent, "Linux Mode Commands:")
		for _, l := range []string{
			"  help              Show this help",
			"  neofetch          System info",
			"  ip a              Show interfaces",
			"  ping <host>       Ping (simulated)",
			"  arp -a            ARP table (simulated)",
			"  ssh <target>      Jump into Cisco simulator (try: ssh switch)",
			"  scenario list     List scenarios",
			"  scenario start X  Start scenario (bgp-flap / uplink-down)",
			"  history           Command history",
			"  clear             Clear screen",
		} {
			c.out.Print(output.StyleText, l)
		}
		c.out.Print(output.StyleText, "")
		c.print("Cisco Tip: type 'ssh switch' to reach a Cisco device (switch>).")
		return nil
	}
	c.out.Print(output.StyleAccent, "Cisco Mode Commands:")
	for _, l := range []string{
		"  enable                  Privileged EXEC",
		"  configure terminal      Global config",
		"  interface <name>        Interface config",
		"  show ip int brief       Interface status",
		"  show ip route           Routing table",
		"  show bgp summary        BGP neighbor",
		"  show logging            Syslog buffer",
		"  ping <ip>               Cisco-style ping",
		"  do <cmd>                Run show/ping from config modes",
		"  end / exit              Back/exit",
	} {
		c.out.Print(output.StyleText, l)
	}
	c.out.Print(output.StyleText, "")
	c.print("Pro detail: Use '?' after a command for context help (e.g., 'show ?')")
	return nil
}

func (c *CLI) cmdClear(_ []string, _ string) error {
	c.out.Clear()
	return nil
}

func (c *CLI) cmdHistory(_ []string, _ string) error {
	for i, l := range c.sessions.Active().History {
		c.out.Print(output.StyleText, fmt.Sprintf("%5d  %s", i+1, l))
	}
	return nil
}

// cmdExit stops the running job before leaving the mode.
func (c *CLI) cmdExit(_ []string, _ string) error {
	if c.jobs.Running() {
		c.jobs.Cancel(jobs.ReasonInterrupt)
	}
	s := c.sessions.Active()
	out, err := s.Apply(session.TrigExit, "")
	if err != nil {
		return err
	}
	switch {
	case out.Close:
		c.sessions.CloseActive()
		c.printf("Connection to %s closed.", s.Hostname)
	case out.Hide:
		c.hidden = true
		if c.OnHide != nil {
			c.OnHide()
		}
	}
	return nil
}

func (c *CLI) cmdScenario(args []string, _ string) error {
	sub, name := "", ""
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}
	if len(args) > 1 {
		name = strings.ToLower(args[1])
	}
	switch sub {
	case "", "list":
		c.out.Print(output.StyleAccent, "Scenarios:")
		for _, n := range c.scenarios.Available() {
			c.print("  " + n)
		}
		c.print("usage: scenario start <name> | scenario stop")
		return nil
	case "stop":
		c.scenarios.Stop()
		c.print("Scenario stopped.")
		return nil
	case "status":
		cur := c.scenarios.Current()
		if cur == "" {
			c.print("No scenario running.")
			return nil
		}
		d, _ := c.scenarios.Interval(cur)
		c.printf("Scenario running: %s (every %s, %d ticks so far)", cur, d, c.scenarios.Ticks())
		return nil
	case "start":
		if err := c.scenarios.Start(name); err != nil {
			if errors.Is(err, scenario.ErrUnknownScenario) {
				return usagef("Unknown scenario: %s", name)
			}
			return err
		}
		c.print("Scenario started: " + name)
		return nil
	}
	return usagef("usage: scenario list | scenario start <name> | scenario stop")
}
