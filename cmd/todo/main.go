// Package main implements the todo command-line client.
//
// Every command except serve loads state, applies one change and saves
// before exiting. serve keeps the engine running with its background loops
// and the HTTP API until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/todo-engine/internal/app"
	"github.com/JamesPrial/todo-engine/internal/config"
	"github.com/JamesPrial/todo-engine/internal/storage"
)

var Version = "dev"

// globalFlags are the persistent flags shared by every command. They override
// the config file and the environment.
type globalFlags struct {
	configPath string
	dataDir    string
	backend    string
	logLevel   string
	logFormat  string
}

// cli carries what commands need from the process.
type cli struct {
	flags  globalFlags
	getenv func(string) string
}

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	c := &cli{getenv: getenv}

	rootCmd := &cobra.Command{
		Use:           "todo",
		Short:         "Manage tasks, scheduled tasks and your completion streak",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "config file (.toml, .yaml or .yml); defaults to $TODO_CONFIG")
	pf.StringVar(&c.flags.dataDir, "data-dir", "", "directory for the JSON and SQLite state files")
	pf.StringVar(&c.flags.backend, "backend", "", "storage backend: json, sqlite, postgres or memory")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&c.flags.logFormat, "log-format", "", "log format: text, json or logfmt")

	rootCmd.AddCommand(c.addCmd())
	rootCmd.AddCommand(c.listCmd())
	rootCmd.AddCommand(c.completeCmd())
	rootCmd.AddCommand(c.deleteCmd())
	rootCmd.AddCommand(c.editCmd())
	rootCmd.AddCommand(c.clearCompletedCmd())
	rootCmd.AddCommand(c.scheduleCmd())
	rootCmd.AddCommand(c.cancelCmd())
	rootCmd.AddCommand(c.streakCmd())
	rootCmd.AddCommand(c.reminderCmd())
	rootCmd.AddCommand(c.serveCmd())

	return rootCmd
}

// loadConfig layers flags over the file and environment configuration.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.flags.configPath, c.getenv)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = config.ExpandPath(c.flags.dataDir)
	}
	if flags.Changed("backend") {
		cfg.Storage.Backend = c.flags.backend
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = c.flags.logFormat
	}
	return cfg, nil
}

// openApp loads state for a command. One-shot commands refuse to run on a
// state file that failed to load, since saving would replace it.
func (c *cli) openApp(cmd *cobra.Command, oneShot bool) (*app.App, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cmd.Context(), app.Options{
		Config:      cfg,
		Prefix:      "todo",
		LogWriter:   cmd.ErrOrStderr(),
		QuietEvents: oneShot,
	})
	if err != nil {
		return nil, err
	}
	if oneShot && a.LoadErr != nil {
		return nil, fmt.Errorf("state could not be loaded, fix or move it before retrying: %w", a.LoadErr)
	}
	return a, nil
}

// runOneShot opens the app, runs fn and flushes state.
func (c *cli) runOneShot(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, err := c.openApp(cmd, true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	runErr := fn(ctx, a)
	closeErr := a.Close(ctx)
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// saved turns a persistence failure into a command error. A one-shot command
// exits right after the change, so an unsaved change is a lost change.
func saved(err error) error {
	var ioErr *storage.IOError
	if errors.As(err, &ioErr) {
		return fmt.Errorf("change was not saved: %w", err)
	}
	return err
}
