package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dcshock/sewer/internal/server"
	"github.com/dcshock/sewer/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the systems over HTTP",
	Long: `Serve every system of the systems file over HTTP until interrupted.

  GET  /healthz
  GET  /systems
  GET  /systems/:name
  POST /systems/:name/pump   body: JSON input
  GET  /runs                 ?system=name
  GET  /runs/:id`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		srv := server.New(a.cfg.HTTP, server.Deps{
			Service:  a.cfg.Service,
			Systems:  a.systems,
			Recorder: a.recorder,
		}, logger.GetGlobalLogger())
		if err := srv.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	},
}
