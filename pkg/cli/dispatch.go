package cli

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/psaab/nocterm/pkg/cmdtree"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/session"
)

// frame is the state saved by "do" while it runs a command as cisco_priv.
type frame struct {
	sess  *session.Session
	mode  session.Mode
	iface string
}

func (c *CLI) dispatch(raw string, internal bool) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	if strings.HasSuffix(line, "?") {
		c.stats.Help++
		c.contextHelp(strings.TrimSuffix(line, "?"))
		return
	}

	if !internal {
		c.out.Print(output.StyleCommand, c.Prompt()+" "+line)
	}

	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])
	args := parts[1:]
	mode := c.sessions.Active().Mode

	cmd := c.registry.Resolve(name, mode)
	if cmd == nil {
		c.stats.Unknown++
		text, _ := errorLine(&unknownCommandError{name: name}, mode)
		c.printError(text)
		return
	}
	if !cmd.Modes.Has(mode) {
		c.stats.Rejected++
		text, _ := errorLine(session.ErrModeRejected, mode)
		c.printError(text)
		return
	}

	c.stats.Commands++
	if err := c.invoke(cmd, args, line); err != nil {
		text, known := errorLine(err, mode)
		if !known {
			c.stats.Failed++
			slog.Error("command failed", "command", cmd.Name, "err", err)
		}
		c.printError(text)
	}
}

// invoke runs a handler, converting a panic into an internal error.
func (c *CLI) invoke(cmd *Command, args []string, line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.stats.Panics++
			slog.Debug("command panic", "command", cmd.Name, "stack", string(debug.Stack()))
			err = &internalError{cause: r}
		}
	}()
	return cmd.Handler(c, args, line)
}

// runDo executes rest as cisco_priv and restores the caller's mode and
// interface afterwards.
func (c *CLI) runDo(rest string) error {
	if len(c.frames) > 0 {
		return fmt.Errorf("nested do: %w", ErrInvalidInput)
	}
	s := c.sessions.Active()
	c.frames = append(c.frames, frame{sess: s, mode: s.Mode, iface: s.CurrentInterface})
	s.Mode = session.CiscoPriv
	s.CurrentInterface = ""
	defer c.popFrame()
	c.dispatch(rest, true)
	return nil
}

func (c *CLI) popFrame() {
	f := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	f.sess.Mode = f.mode
	f.sess.CurrentInterface = f.iface
}

// contextHelp prints "?" help for line (without the trailing "?").
func (c *CLI) contextHelp(line string) {
	cands, ok := c.HelpCandidates(line)
	if !ok {
		c.printError(msgNoHelp)
		return
	}
	c.print("")
	for _, l := range cmdtree.HelpLines(cands) {
		c.print(l)
	}
}
