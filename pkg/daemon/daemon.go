// Package daemon wires the interpreter, its loop and the front ends
// together and runs them until shutdown.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/psaab/nocterm/pkg/api"
	"github.com/psaab/nocterm/pkg/cli"
	"github.com/psaab/nocterm/pkg/config"
	"github.com/psaab/nocterm/pkg/editor"
	"github.com/psaab/nocterm/pkg/eventlog"
	"github.com/psaab/nocterm/pkg/grpcapi"
	"github.com/psaab/nocterm/pkg/history"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/sched"
	"github.com/psaab/nocterm/pkg/tui"
)

// Options selects which front ends Run starts.
type Options struct {
	Console  bool   // interactive terminal UI
	HTTPAddr string // empty = no HTTP API
	GRPCAddr string // empty = no gRPC console
	APIAuth  *api.AuthConfig
}

// Daemon owns one interpreter and the goroutine it runs on.
type Daemon struct {
	cfg    *config.Config
	loop   *sched.Loop
	stream *output.Stream
	cli    *cli.CLI
	editor *editor.Editor
	store  *history.File
}

// New builds the interpreter from cfg and loads saved history. The slog
// default becomes base wrapped so that records at warning level and above
// are mirrored into the event log. A nil base logs text to stderr.
//
// base must not be the stdlib default handler: that one writes through
// package log, which SetDefault redirects back into slog.
func New(cfg *config.Config, base slog.Handler) (*Daemon, error) {
	loop := sched.NewLoop()
	stream := output.NewStream()
	c := cli.Build(cfg.Options(), loop, stream)

	if base == nil {
		base = slog.NewTextHandler(os.Stderr, nil)
	}
	slog.SetDefault(slog.New(eventlog.NewSlogHandler(base, c.Log(), slog.LevelWarn)))

	store, err := cfg.HistoryStore()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	ring := history.NewRing(cfg.History.Size)
	if store != nil {
		ring.Replace(store.Load())
		slog.Debug("history loaded", "path", store.Path(), "lines", ring.Len())
	}

	ed := editor.New(c, stream, editor.Options{
		MaxLine: cfg.MaxLine,
		History: ring,
		Store:   store,
	})
	return &Daemon{cfg: cfg, loop: loop, stream: stream, cli: c, editor: ed, store: store}, nil
}

// CLI returns the interpreter. Only touch it from the loop once Run has
// started.
func (d *Daemon) CLI() *cli.CLI { return d.cli }

// Loop returns the interpreter loop.
func (d *Daemon) Loop() *sched.Loop { return d.loop }

// Run starts the loop and the selected front ends. It returns when the
// console exits, a server fails, or ctx is cancelled or a signal arrives.
func (d *Daemon) Run(ctx context.Context, opts Options) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Everything that touches the interpreter directly happens before
	// the loop starts.
	var grpcSrv *grpcapi.Server
	if opts.GRPCAddr != "" {
		grpcSrv = grpcapi.NewServer(opts.GRPCAddr, d.cli, d.editor, d.loop)
	}
	var sub *output.Subscription
	if opts.Console {
		sub = d.stream.Subscribe(4096)
		defer sub.Close()
		d.cli.Banner()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.loop.Run(ctx)
	}()

	errCh := make(chan error, 3)
	if opts.HTTPAddr != "" {
		srv := api.NewServer(api.Config{Addr: opts.HTTPAddr, Auth: opts.APIAuth, CLI: d.cli, Loop: d.loop})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				errCh <- fmt.Errorf("HTTP API: %w", err)
			}
		}()
	}
	if grpcSrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := grpcSrv.Run(ctx); err != nil {
				errCh <- fmt.Errorf("gRPC: %w", err)
			}
		}()
	}
	if opts.Console {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tui.Run(ctx, tui.New(d.loop, d.cli, d.editor, sub)); err != nil {
				errCh <- fmt.Errorf("console: %w", err)
				return
			}
			errCh <- nil
		}()
	}

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		slog.Info("signal received, shutting down")
	}

	stop()
	d.loop.Close()
	wg.Wait()
	d.saveHistory()
	slog.Info("shutdown complete")
	return runErr
}

func (d *Daemon) saveHistory() {
	if d.store == nil {
		return
	}
	if err := d.store.Save(d.editor.History().Lines()); err != nil {
		slog.Warn("failed to save history", "err", err)
	}
}
