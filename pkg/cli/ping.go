package cli

import (
	"fmt"
	"math"
	"strconv"

	"github.com/psaab/nocterm/pkg/jobs"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/session"
)

const (
	defaultPingCount = 4
	maxPingCount     = 20
	ciscoPingCount   = 5
)

// pingArgs parses "[-c N] [host]". Invalid counts fall back to the
// default; valid ones are clamped to 1..20.
func pingArgs(args []string, fallback string) (string, int) {
	target, count := "", defaultPingCount
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" {
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil && n != 0 {
					count = min(max(n, 1), maxPingCount)
				}
				i++
			}
			continue
		}
		if target == "" {
			target = args[i]
		}
	}
	if target == "" {
		target = fallback
	}
	return target, count
}

// isLocal reports whether target is on a connected subnet or is one of
// our own addresses.
func (c *CLI) isLocal(target string) bool {
	if _, ok := c.model.ConnectedInterface(target); ok {
		return true
	}
	for _, ifc := range c.model.Interfaces() {
		if ifc.IP == target {
			return true
		}
	}
	return false
}

func (c *CLI) cmdPing(args []string, _ string) error {
	target, count := pingArgs(args, c.model.DNS())
	c.model.EnsureARP(target)
	if c.sessions.Active().Mode == session.Linux {
		c.linuxPing(target, count)
		return nil
	}
	c.ciscoPing(target)
	return nil
}

func (c *CLI) linuxPing(target string, count int) {
	u, _ := c.model.Uplink()
	src := u.IP
	if src == "" {
		src = "0.0.0.0"
	}
	local := c.isLocal(target)
	c.printf("PING %s (%s) 56(84) bytes of data.", target, target)

	if !c.model.UplinkUp() {
		c.printError(fmt.Sprintf("From %s icmp_seq=1 Destination Host Unreachable", src))
		c.printf("--- %s ping statistics ---", target)
		c.printf("%d packets transmitted, 0 received, 100%% packet loss", count)
		return
	}

	sent, recv := 0, 0
	job := c.jobs.Start("ping", func(jobs.Reason) {
		loss := int(math.Round(float64(sent-recv) / float64(max(sent, 1)) * 100))
		c.printf("--- %s ping statistics ---", target)
		c.printf("%d packets transmitted, %d received, %d%% packet loss", sent, recv, loss)
	})
	job.Every(c.opts.PingInterval, func(j *jobs.Job) {
		sent++
		if c.model.Reachable(target) {
			recv++
			ttl, base := 117, 15.0
			if local {
				ttl, base = 64, 1.0
			}
			c.out.Print(output.StyleSuccess, fmt.Sprintf("64 bytes from %s: icmp_seq=%d ttl=%d time=%.1f ms",
				target, sent, ttl, c.rnd.Float64()*12+base))
		} else {
			c.printError(fmt.Sprintf("From %s icmp_seq=%d Destination Host Unreachable", src, sent))
		}
		if sent >= count {
			j.Stop(jobs.ReasonDone)
		}
	})
}

func (c *CLI) ciscoPing(target string) {
	c.print("Type escape sequence to abort.")
	c.printf("Sending %d, 100-byte ICMP Echos to %s, timeout is 2 seconds:", ciscoPingCount, target)

	sent, success := 0, 0
	marks := ""
	job := c.jobs.Start("cisco-ping", func(jobs.Reason) {
		if marks != "" {
			c.print(marks)
		}
		rate := 0
		if sent > 0 {
			rate = int(math.Round(float64(success) / float64(sent) * 100))
		}
		line := fmt.Sprintf("Success rate is %d percent (%d/%d)", rate, success, sent)
		if success > 0 {
			line += ", round-trip min/avg/max = 1/2/4 ms"
		}
		c.print(line)
	})
	job.Every(c.opts.CiscoPingInterval, func(j *jobs.Job) {
		sent++
		if c.model.Reachable(target) {
			success++
			marks += "!"
		} else {
			marks += "."
		}
		if sent >= ciscoPingCount {
			j.Stop(jobs.ReasonDone)
		}
	})
}
