package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/psaab/nocterm/pkg/cmdtree"
	"github.com/psaab/nocterm/pkg/config"
	"github.com/psaab/nocterm/pkg/grpcapi"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/tui"
)

var connectAddr string

const msgNoHelp = "% No help available for this context."

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Attach a line-mode client to a running \"nocterm serve\"",
	Args:  cobra.NoArgs,
	RunE:  runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectAddr, "addr", "", "gRPC console address (default from config)")
	rootCmd.AddCommand(connectCmd)
}

// remote is the connect client state.
type remote struct {
	client *grpcapi.Client
	rl     *readline.Instance

	// Ctrl-C during a running command cancels its call context, which
	// interrupts the job on the server.
	cmdMu     sync.Mutex
	cmdCancel context.CancelFunc
}

func (r *remote) startCmd() context.Context {
	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	r.cmdCancel = cancel
	return ctx
}

func (r *remote) endCmd() {
	r.cmdMu.Lock()
	if r.cmdCancel != nil {
		r.cmdCancel()
	}
	r.cmdCancel = nil
	r.cmdMu.Unlock()
}

// cancelCmd cancels any running command. Returns true if one was running.
func (r *remote) cancelCmd() bool {
	r.cmdMu.Lock()
	defer r.cmdMu.Unlock()
	if r.cmdCancel != nil {
		r.cmdCancel()
		return true
	}
	return false
}

func (r *remote) print(lines []output.Line) {
	for _, l := range lines {
		// readline already shows what was typed.
		if l.Style == output.StyleCommand {
			continue
		}
		fmt.Fprintln(r.rl.Stdout(), tui.Render(l))
	}
}

// execute runs line remotely and reports whether the server closed the
// terminal.
func (r *remote) execute(line string) (bool, error) {
	ctx := r.startCmd()
	defer r.endCmd()
	res, err := r.client.Execute(ctx, line)
	if err != nil {
		return false, err
	}
	if res.Cleared {
		readline.ClearScreen(r.rl.Stdout())
	}
	r.print(res.Lines)
	r.rl.SetPrompt(res.Prompt + " ")
	return res.Closed, nil
}

// help prints the "?" candidates for text to w.
func (r *remote) help(w io.Writer, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cands, ok, err := r.client.Help(ctx, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if !ok {
		fmt.Fprintln(w, tui.Render(output.Line{Style: output.StyleError, Text: msgNoHelp}))
		return
	}
	cmdtree.WriteHelp(w, cands)
}

type remoteCompleter struct {
	r *remote
}

func (rc *remoteCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cands, _, err := rc.r.client.Complete(ctx, text)
	if err != nil || len(cands) == 0 {
		return nil, 0
	}
	var partial string
	if words := strings.Fields(text); len(words) > 0 && !strings.HasSuffix(text, " ") {
		partial = words[len(words)-1]
	}
	out := make([][]rune, 0, len(cands))
	for _, c := range cands {
		if !strings.HasPrefix(c, partial) {
			continue
		}
		suffix := c[len(partial):]
		if len(cands) == 1 {
			suffix += " "
		}
		out = append(out, []rune(suffix))
	}
	return out, len(partial)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	addr := connectAddr
	if !cmd.Flags().Changed("addr") {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		addr = cfg.API.GRPCAddr
	}

	conn, err := grpcapi.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	r := &remote{client: grpcapi.NewClient(conn)}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	prompt, err := r.client.Prompt(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("cannot reach nocterm at %s: %w", addr, err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt + " ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    &remoteCompleter{r: r},
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		Listener: readline.FuncListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
			if key != '?' || pos < 1 {
				return line, pos, false
			}
			// Strip the '?' readline inserted and ask the server.
			clean := append(append([]rune{}, line[:pos-1]...), line[pos:]...)
			r.help(r.rl.Stdout(), string(clean[:pos-1]))
			return clean, pos - 1, true
		}),
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	fmt.Printf("Connected to nocterm at %s\n", addr)
	fmt.Println("Type 'help' or '?' for help")
	fmt.Println()

	// SIGINT while a command runs cancels it; readline reports Ctrl-C
	// at the prompt itself.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			if r.cancelCmd() {
				fmt.Fprintln(os.Stderr, "^C")
			}
		}
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				_, _ = r.client.Interrupt(ctx)
				cancel()
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		closed, err := r.execute(line)
		if err != nil {
			if errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled") {
				continue
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if closed {
			return nil
		}
	}
}
