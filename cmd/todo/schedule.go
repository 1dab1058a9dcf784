package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/todo-engine/internal/app"
	"github.com/JamesPrial/todo-engine/internal/task"
)

func (c *cli) scheduleCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "schedule --at <time> <text>...",
		Short: "Schedule a task to become active at a future time",
		Long: `Schedule a task. When the target time passes, the task joins the
active list with High priority.

Examples:
  todo schedule --at "2024-03-02 09:00" Call dentist
  todo schedule --at 2024-03-02T09:00:00+01:00 Call dentist`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := task.ParseTarget(at)
			if err != nil {
				return err
			}
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				st, err := a.Engine.ScheduleTask(ctx, strings.Join(args, " "), target)
				if err := saved(err); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s for %s: %s\n", st.ID, st.Target.Format(targetLayout), st.Text)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "target time, YYYY-MM-DD HH:MM[:SS] or RFC 3339")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func (c *cli) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a scheduled task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				if err := saved(a.Engine.CancelScheduledTask(ctx, args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", args[0])
				return nil
			})
		},
	}
}
