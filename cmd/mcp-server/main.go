// Package main implements the MCP server for the to-do engine.
//
// The server exposes task, schedule, streak and reminder tools backed by the
// configured storage backend, and runs the promotion and reminder loops while
// it is connected. Communicates via stdio JSON-RPC (Model Context Protocol).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/JamesPrial/todo-engine/internal/app"
	"github.com/JamesPrial/todo-engine/internal/config"
	"github.com/JamesPrial/todo-engine/internal/mcpserver"
	"github.com/JamesPrial/todo-engine/internal/notify"
)

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("", os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[mcp-server] Failed to load config: %v\n", err)
		return 1
	}

	sink := &mcpserver.NotificationSink{}
	a, err := app.New(ctx, app.Options{
		Config: cfg,
		Prefix: "mcp-server",
		Sinks:  []notify.Sink{sink},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[mcp-server] %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			a.Logger.Error("Failed to flush state", "err", err)
		}
	}()

	srv, err := mcpserver.NewServer(a.Engine, a.Events)
	if err != nil {
		a.Logger.Error("Failed to create MCP server", "err", err)
		return 1
	}
	sink.Attach(srv)

	if err := a.Start(ctx); err != nil {
		a.Logger.Error("Failed to start background loops", "err", err)
		return 1
	}
	a.Logger.Info("Serving", "backend", a.Engine.BackendName())

	errLogger := a.Logger.StandardLog()
	if err := server.ServeStdio(srv, server.WithErrorLogger(errLogger)); err != nil {
		a.Logger.Error("Server error", "err", err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(run())
}
