package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psaab/nocterm/pkg/config"
)

var (
	cfgFile string
	debug   bool

	// logHandler is the handler installed by setupLogging, handed to the
	// daemon as the base for its event log bridge.
	logHandler slog.Handler
)

var rootCmd = &cobra.Command{
	Use:   "nocterm",
	Short: "nocterm - simulated network operations terminal",
	Long: `nocterm emulates a Linux shell and a Cisco IOS style CLI over a shared
simulated network, with ping, ssh, scenarios and an event log.

Start the interactive console:
  nocterm

Serve the HTTP API and the gRPC console:
  nocterm serve

Attach to a running server:
  nocterm connect --addr 127.0.0.1:50780`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(os.Stderr)
	},
	RunE: runConsole,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.nocterm/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func setupLogging(w io.Writer) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logHandler = slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(logHandler))
}

// logToFile redirects diagnostics to ~/.nocterm/nocterm.log while the
// full-screen console owns the terminal. The returned func closes it.
func logToFile() func() {
	dir, err := config.Dir()
	if err == nil {
		err = os.MkdirAll(dir, 0755)
	}
	if err != nil {
		setupLogging(io.Discard)
		return func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "nocterm.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		setupLogging(io.Discard)
		return func() {}
	}
	setupLogging(f)
	return func() { f.Close() }
}
