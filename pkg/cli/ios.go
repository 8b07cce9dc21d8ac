package cli

import (
	"fmt"
	"strings"

	"github.com/psaab/nocterm/pkg/session"
)

const (
	msgConfigBanner = "Enter configuration commands, one per line. End with CNTL/Z."
	msgConfigured   = "%SYS-5-CONFIG_I: Configured from console by console"
)

func (c *CLI) transition(t session.Trigger, iface string) error {
	_, err := c.sessions.Active().Apply(t, iface)
	return err
}

func (c *CLI) cmdEnable(_ []string, _ string) error {
	return c.transition(session.TrigEnable, "")
}

func (c *CLI) cmdDisable(_ []string, _ string) error {
	return c.transition(session.TrigDisable, "")
}

func (c *CLI) cmdConfigure(args []string, _ string) error {
	if len(args) == 0 {
		return ErrIncompleteCommand
	}
	switch strings.ToLower(args[0]) {
	case "terminal", "t", "term":
	default:
		return fmt.Errorf("configure %s: %w", args[0], ErrInvalidInput)
	}
	if err := c.transition(session.TrigConfigure, ""); err != nil {
		return err
	}
	c.print(msgConfigBanner)
	c.log.Notice("Entered global configuration mode.")
	return nil
}

func (c *CLI) cmdInterface(args []string, _ string) error {
	if len(args) == 0 {
		return ErrIncompleteCommand
	}
	name, err := c.model.ResolveInterface(strings.Join(args, ""))
	if err != nil {
		return err
	}
	return c.transition(session.TrigInterface, name)
}

func (c *CLI) cmdEnd(_ []string, _ string) error {
	if err := c.transition(session.TrigEnd, ""); err != nil {
		return err
	}
	c.print(msgConfigured)
	c.log.Notice("Exited configuration mode.")
	return nil
}

func (c *CLI) cmdDo(args []string, _ string) error {
	if len(args) == 0 {
		return ErrIncompleteCommand
	}
	return c.runDo(strings.Join(args, " "))
}

func (c *CLI) cmdIOSHostname(args []string, _ string) error {
	if len(args) == 0 {
		return ErrIncompleteCommand
	}
	s := c.sessions.Active()
	old := s.Hostname
	s.Hostname = args[0]
	c.log.Notice(fmt.Sprintf("Hostname changed from %s to %s", old, s.Hostname))
	return nil
}

// cmdIOSIP handles "ip route" in global config and "ip address" in
// interface config.
func (c *CLI) cmdIOSIP(args []string, _ string) error {
	if len(args) == 0 {
		return ErrIncompleteCommand
	}
	s := c.sessions.Active()
	switch sub := strings.ToLower(args[0]); {
	case sub == "route" && s.Mode == session.CiscoConfig:
		if len(args) < 4 {
			return ErrIncompleteCommand
		}
		_, err := c.model.AddRoute(args[1], args[2], args[3])
		return err
	case (sub == "address" || sub == "addr") && s.Mode == session.CiscoIf:
		if len(args) < 3 {
			return ErrIncompleteCommand
		}
		return c.model.SetAddress(s.CurrentInterface, args[1], args[2])
	}
	return fmt.Errorf("ip %s: %w", args[0], ErrInvalidInput)
}

func (c *CLI) cmdDescription(args []string, _ string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return ErrIncompleteCommand
	}
	return c.model.SetDescription(c.sessions.Active().CurrentInterface, text)
}

func (c *CLI) cmdShutdown(_ []string, _ string) error {
	msg, err := c.model.Shutdown(c.sessions.Active().CurrentInterface)
	if err != nil {
		return err
	}
	c.print(msg)
	return nil
}

func (c *CLI) cmdNo(args []string, _ string) error {
	if len(args) == 0 {
		return ErrIncompleteCommand
	}
	s := c.sessions.Active()
	sub := strings.ToLower(args[0])
	if s.Mode == session.CiscoIf {
		switch {
		case sub == "shutdown" || sub == "shut":
			msg, err := c.model.NoShutdown(s.CurrentInterface)
			if err != nil {
				return err
			}
			c.print(msg)
			return nil
		case sub == "description":
			return c.model.SetDescription(s.CurrentInterface, "")
		case sub == "ip" && len(args) > 1 && strings.EqualFold(args[1], "address"):
			return c.model.ClearAddress(s.CurrentInterface)
		}
	}
	if s.Mode == session.CiscoConfig && sub == "ip" && len(args) > 1 && strings.EqualFold(args[1], "route") {
		if len(args) < 4 {
			return ErrIncompleteCommand
		}
		removed, err := c.model.RemoveRoute(args[2], args[3])
		if err != nil {
			return err
		}
		if !removed {
			c.printError("%No matching route to delete")
		}
		return nil
	}
	return fmt.Errorf("no %s: %w", args[0], ErrInvalidInput)
}
