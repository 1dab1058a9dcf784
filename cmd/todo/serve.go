package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/JamesPrial/todo-engine/internal/config"
	"github.com/JamesPrial/todo-engine/internal/httpapi"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the background loops and the HTTP API",
		Long: `Run the engine until interrupted. Scheduled tasks are promoted when
due, reminders fire on their interval, and the HTTP API is served on --addr.

Examples:
  todo serve
  todo serve --addr :9090 --backend sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.openApp(cmd, false)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				a.Config.HTTP.Addr = addr
			}
			defer func() {
				if err := a.Close(context.Background()); err != nil {
					a.Logger.Error("failed to flush state", "err", err)
				}
			}()

			if err := a.Start(ctx); err != nil {
				return fmt.Errorf("failed to start background loops: %w", err)
			}
			gin.SetMode(gin.ReleaseMode)
			srv := httpapi.NewServer(a.Engine, a.Events, a.Logger)
			return srv.Run(ctx, a.Config.HTTP.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr, default "+config.DefaultHTTPAddr+")")
	return cmd
}
