package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/milexcast/internal/server"
)

var (
	serveRun  runFlags
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve country listing and predictions over HTTP",
	Long: `Starts an HTTP server with:
  GET  /healthz     liveness probe
  GET  /countries   available countries
  POST /predict     {"country": "..."} runs the full pipeline

Only one prediction runs at a time; overlapping requests get 409 Conflict.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := serveRun.options(cmd)
		if err != nil {
			return err
		}
		addr := cfg.ServerAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.New(opt, logger).ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveRun.bind(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config, default :8080)")
}
