package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psaab/nocterm/pkg/cli"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the nocterm version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nocterm %s\n", cli.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
