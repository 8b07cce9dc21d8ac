// Package cmdtree defines the static help tree behind "?" context help
// and the prefix helpers shared by tab completion.
//
// The tree backs "?" help and word completion in pkg/cli, which the gRPC
// console and "nocterm connect" reach remotely.
package cmdtree

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Source supplies dynamic values (interface names) to tree nodes.
type Source interface {
	InterfaceNames() []string
}

// Node defines a help tree node with description, children, and optional
// dynamic values.
type Node struct {
	Desc      string
	Aliases   []string
	Children  map[string]*Node
	DynamicFn func(src Source) []string
}

// Candidate holds a keyword and its description for display.
type Candidate struct {
	Name string
	Desc string
}

// CR is the candidate shown when a command is complete.
var CR = Candidate{Name: "<cr>"}

func interfaceNames(src Source) []string {
	if src == nil {
		return nil
	}
	return src.InterfaceNames()
}

var sshTargets = map[string]*Node{
	"switch": {Desc: "Access switch"},
	"router": {Desc: "Edge router"},
	"cisco":  {Desc: "Lab device"},
	"r1":     {Desc: "Router r1"},
	"sw1":    {Desc: "Switch sw1"},
}

var showTree = map[string]*Node{
	"ip": {Desc: "IP information", Children: map[string]*Node{
		"interface": {Desc: "IP interface status and configuration", Children: map[string]*Node{
			"brief": {Desc: "Brief summary of IP status and configuration"},
		}},
		"route": {Desc: "IP routing table"},
		"arp":   {Desc: "IP ARP table"},
	}},
	"running-config": {Desc: "Current operating configuration", Aliases: []string{"run"}},
	"version":        {Desc: "System hardware and software status"},
	"logging":        {Desc: "Show the contents of logging buffers", Aliases: []string{"log"}},
	"bgp": {Desc: "BGP information", Children: map[string]*Node{
		"summary": {Desc: "Summary of BGP neighbor status", Aliases: []string{"sum"}},
	}},
	"arp":        {Desc: "ARP table"},
	"sessions":   {Desc: "Information about open sessions", Aliases: []string{"users"}},
	"history":    {Desc: "Display the session command history"},
	"interfaces": {Desc: "Interface status and configuration", DynamicFn: interfaceNames},
}

// HelpTree is the "?" help tree. Top-level keys are command names.
var HelpTree = map[string]*Node{
	"show":      {Desc: "Show running system information", Aliases: []string{"sh"}, Children: showTree},
	"enable":    {Desc: "Turn on privileged commands", Aliases: []string{"en"}},
	"disable":   {Desc: "Turn off privileged commands"},
	"configure": {Desc: "Enter configuration mode", Aliases: []string{"conf"}, Children: map[string]*Node{
		"terminal": {Desc: "Configure from the terminal", Aliases: []string{"t"}},
	}},
	"interface": {Desc: "Select an interface to configure", Aliases: []string{"int"}, DynamicFn: interfaceNames},
	"ping": {Desc: "Send echo messages", Children: map[string]*Node{
		"<host>": {Desc: "Ping destination address or hostname"},
		"-c":     {Desc: "Stop after sending count packets"},
	}},
	"exit": {Desc: "Exit from the current mode"},
	"end":  {Desc: "Exit from configure mode"},
	"scenario": {Desc: "Fault injection scenarios", Children: map[string]*Node{
		"list": {Desc: "List scenarios"},
		"start": {Desc: "Start a scenario", Children: map[string]*Node{
			"bgp-flap":    {Desc: "Flap the first BGP neighbor"},
			"uplink-down": {Desc: "Toggle the uplink interface"},
		}},
		"stop":   {Desc: "Stop the running scenario"},
		"status": {Desc: "Show the running scenario"},
	}},
	"help":     {Desc: "Description of the interactive help system"},
	"hostname": {Desc: "Set system's network name", Children: map[string]*Node{
		"<name>": {Desc: "This system's network name"},
	}},
	"ip": {Desc: "Global IP configuration subcommands", Children: map[string]*Node{
		"route": {Desc: "Establish static routes", Children: map[string]*Node{
			"<prefix>": {Desc: "Destination prefix, mask and next hop"},
		}},
		"address": {Desc: "Set the IP address of an interface", Children: map[string]*Node{
			"<ip>": {Desc: "IP address and mask"},
		}},
	}},
	"no": {Desc: "Negate a command or set its defaults", Children: map[string]*Node{
		"shutdown":    {Desc: "Enable the interface"},
		"description": {Desc: "Remove the interface description"},
		"ip": {Desc: "Remove IP configuration", Children: map[string]*Node{
			"address": {Desc: "Remove the interface address"},
			"route":   {Desc: "Remove a static route"},
		}},
	}},
	"description": {Desc: "Interface specific description", Children: map[string]*Node{
		"<text>": {Desc: "Up to 240 characters describing this interface"},
	}},
	"shutdown": {Desc: "Shutdown the selected interface", Aliases: []string{"shut"}},
	"do":       {Desc: "To run exec commands in config mode"},
	"ssh":      {Desc: "Open a secure shell client connection", Children: sshTargets},
}

// linuxOverrides replace the IOS entries whose Linux shell command of the
// same name behaves differently.
var linuxOverrides = map[string]*Node{
	"ip": {Desc: "Show network devices", Children: map[string]*Node{
		"address": {Desc: "Protocol address management", Aliases: []string{"a", "addr"}},
	}},
	"hostname": {Desc: "Show the system's host name"},
}

var linuxTree = func() map[string]*Node {
	t := make(map[string]*Node, len(HelpTree))
	for name, n := range HelpTree {
		t[name] = n
	}
	for name, n := range linuxOverrides {
		t[name] = n
	}
	return t
}()

// TreeFor returns the help tree for the Linux shell or for the IOS modes.
func TreeFor(linux bool) map[string]*Node {
	if linux {
		return linuxTree
	}
	return HelpTree
}

// Lookup resolves word among the children of a level: exact key, then
// alias, then a unique prefix.
func Lookup(level map[string]*Node, word string) (string, *Node, bool) {
	w := strings.ToLower(word)
	if n, ok := level[w]; ok {
		return w, n, true
	}
	for name, n := range level {
		for _, a := range n.Aliases {
			if a == w {
				return name, n, true
			}
		}
	}
	var match string
	for name := range level {
		if strings.HasPrefix(name, w) && !strings.HasPrefix(name, "<") {
			if match != "" {
				return "", nil, false
			}
			match = name
		}
	}
	if match == "" {
		return "", nil, false
	}
	return match, level[match], true
}

// Help returns the help candidates for a line split into completed words
// and a trailing partial word. The longest known prefix of words selects
// the level; partial filters it. ok is false when nothing matches,
// including an unknown first word.
func Help(tree map[string]*Node, words []string, partial string, src Source) ([]Candidate, bool) {
	if len(words) > 0 && strings.EqualFold(words[0], "do") {
		words = words[1:]
	}
	current := tree
	var currentNode *Node
	dynamicConsumed := false
	for i, w := range words {
		_, node, ok := Lookup(current, w)
		if !ok {
			// A word under a dynamic node is taken as its value.
			if currentNode != nil && currentNode.DynamicFn != nil && !dynamicConsumed {
				dynamicConsumed = true
				continue
			}
			if i == 0 {
				return nil, false
			}
			// Longest known prefix wins; the rest of the line is ignored.
			partial = ""
			break
		}
		currentNode = node
		dynamicConsumed = false
		if node.Children == nil && node.DynamicFn == nil {
			if partial != "" {
				return nil, false
			}
			return []Candidate{CR}, true
		}
		current = node.Children
	}

	var candidates []Candidate
	p := strings.ToLower(partial)
	for name, node := range current {
		if strings.HasPrefix(name, p) {
			candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
		}
	}
	if currentNode != nil && currentNode.DynamicFn != nil {
		if dynamicConsumed {
			if partial == "" {
				candidates = append(candidates, CR)
			}
		} else {
			for _, name := range currentNode.DynamicFn(src) {
				if strings.HasPrefix(strings.ToLower(name), p) {
					candidates = append(candidates, Candidate{Name: name, Desc: "(interface)"})
				}
			}
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	SortCandidates(candidates)
	return candidates, true
}

// CompleteFromTree returns keyword completions for the next word.
// Placeholders such as <host> are never offered.
func CompleteFromTree(tree map[string]*Node, words []string, partial string, src Source) []string {
	cands, ok := Help(tree, words, partial, src)
	if !ok {
		return nil
	}
	var out []string
	for _, c := range cands {
		if !strings.HasPrefix(c.Name, "<") {
			out = append(out, c.Name)
		}
	}
	return out
}

// SortCandidates orders candidates by name with <cr> last.
func SortCandidates(c []Candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Name == CR.Name || c[j].Name == CR.Name {
			return c[j].Name == CR.Name && c[i].Name != CR.Name
		}
		return c[i].Name < c[j].Name
	})
}

// HelpLines renders candidates as aligned "  name  desc" lines.
func HelpLines(candidates []Candidate) []string {
	maxWidth := 16
	for _, c := range candidates {
		if len(c.Name)+2 > maxWidth {
			maxWidth = len(c.Name) + 2
		}
	}
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Desc != "" {
			lines = append(lines, fmt.Sprintf("  %-*s %s", maxWidth, c.Name, c.Desc))
		} else {
			lines = append(lines, "  "+c.Name)
		}
	}
	return lines
}

// WriteHelp prints aligned candidates to w in a single write, so a
// readline prompt redraws once.
func WriteHelp(w io.Writer, candidates []Candidate) {
	var sb strings.Builder
	for _, l := range HelpLines(candidates) {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	io.WriteString(w, sb.String())
}

// CommonPrefix returns the longest shared prefix among the given strings.
func CommonPrefix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	prefix := items[0]
	for _, s := range items[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// FilterPrefix returns only items that start with the given prefix.
func FilterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		return items
	}
	var result []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			result = append(result, item)
		}
	}
	return result
}

// SplitLine splits a line into completed words and the trailing partial
// word. A line ending in whitespace has an empty partial.
func SplitLine(line string) ([]string, string) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil, ""
	}
	if strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
		return words, ""
	}
	return words[:len(words)-1], words[len(words)-1]
}
