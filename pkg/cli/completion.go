package cli

import (
	"sort"
	"strings"

	"github.com/psaab/nocterm/pkg/cmdtree"
	"github.com/psaab/nocterm/pkg/session"
)

// CompleteLine returns candidates for the word being typed at the end of
// line. The first word completes against commands usable in the current
// mode; later words walk the help tree. Used by remote clients, which
// complete every word rather than only the command name.
func (c *CLI) CompleteLine(line string) []string {
	words, partial := cmdtree.SplitLine(line)
	mode := c.sessions.Active().Mode
	if len(words) == 0 {
		var names []string
		seen := map[string]bool{}
		for _, cmd := range c.registry.Available(mode) {
			for _, n := range append([]string{cmd.Name}, cmd.Aliases...) {
				if n != "?" && !seen[n] && strings.HasPrefix(n, strings.ToLower(partial)) {
					seen[n] = true
					names = append(names, n)
				}
			}
		}
		sort.Strings(names)
		return names
	}
	cmd := c.registry.Resolve(words[0], mode)
	if cmd == nil || !cmd.Modes.Has(mode) {
		return nil
	}
	words[0] = cmd.Name
	out := cmdtree.CompleteFromTree(helpTree(mode), words, partial, c.model)
	sort.Strings(out)
	return out
}

// HelpCandidates returns the "?" help for line, given without its
// trailing "?", in the active mode. An empty line lists the commands of
// the mode. ok is false when no help is available.
func (c *CLI) HelpCandidates(line string) ([]cmdtree.Candidate, bool) {
	mode := c.sessions.Active().Mode
	if strings.TrimSpace(line) == "" {
		var cands []cmdtree.Candidate
		for _, cmd := range c.registry.Available(mode) {
			cands = append(cands, cmdtree.Candidate{Name: cmd.Name, Desc: cmd.Help})
		}
		return cands, true
	}

	words, partial := cmdtree.SplitLine(line)
	if len(words) > 0 {
		first := words[0]
		if strings.EqualFold(first, "do") && mode.IsCisco() && len(words) > 1 {
			first = words[1]
			mode = session.CiscoPriv
		}
		if cmd := c.registry.Resolve(first, mode); cmd == nil || !cmd.Modes.Has(mode) {
			return nil, false
		}
	}
	return cmdtree.Help(helpTree(mode), words, partial, c.model)
}

func helpTree(mode session.Mode) map[string]*cmdtree.Node {
	return cmdtree.TreeFor(mode == session.Linux)
}
