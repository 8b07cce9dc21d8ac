package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/psaab/nocterm/pkg/config"
	"github.com/psaab/nocterm/pkg/daemon"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive console (default)",
	Args:  cobra.NoArgs,
	RunE:  runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	closeLog := logToFile()
	defer closeLog()

	d, err := daemon.New(cfg, logHandler)
	if err != nil {
		return err
	}
	return d.Run(context.Background(), daemon.Options{Console: true})
}
