package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psaab/nocterm/pkg/api"
	"github.com/psaab/nocterm/pkg/config"
	"github.com/psaab/nocterm/pkg/daemon"
)

var (
	serveHTTP string
	serveGRPC string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and gRPC console without a local terminal",
	Long: `Run the simulator headless. The HTTP API exposes /metrics, /health and
/api/v1/*; the gRPC console accepts "nocterm connect" clients.
Pass an empty address to disable a listener.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "HTTP API listen address (default from config)")
	serveCmd.Flags().StringVar(&serveGRPC, "grpc", "", "gRPC listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	httpAddr, grpcAddr := cfg.API.HTTPAddr, cfg.API.GRPCAddr
	if cmd.Flags().Changed("http") {
		httpAddr = serveHTTP
	}
	if cmd.Flags().Changed("grpc") {
		grpcAddr = serveGRPC
	}
	if httpAddr == "" && grpcAddr == "" {
		return fmt.Errorf("nothing to serve: both listeners disabled")
	}

	d, err := daemon.New(cfg, logHandler)
	if err != nil {
		return err
	}
	return d.Run(context.Background(), daemon.Options{
		HTTPAddr: httpAddr,
		GRPCAddr: grpcAddr,
		APIAuth:  api.NewAuthConfig(cfg.API.Users, cfg.API.Keys),
	})
}
