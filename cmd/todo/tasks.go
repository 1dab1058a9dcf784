package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/todo-engine/internal/app"
	"github.com/JamesPrial/todo-engine/internal/task"
)

const (
	dateTimeLayout = "2006-01-02 15:04"
	targetLayout   = "2006-01-02 15:04:05"
)

func (c *cli) addCmd() *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := task.ParsePriority(priority)
			if err != nil {
				return err
			}
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.Engine.AddTask(ctx, strings.Join(args, " "), p)
				if err := saved(err); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s [%s] %s\n", t.ID, t.Priority, t.Text)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "priority: High, Medium (default) or Low")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var (
		query     string
		completed bool
		scheduled bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active tasks, promoting scheduled tasks that are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				promoted, err := a.Engine.PromoteDue(ctx)
				if err := saved(err); err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				if scheduled {
					sched := a.Engine.Scheduled()
					if asJSON {
						return writeJSON(out, sched)
					}
					for _, st := range sched {
						fmt.Fprintf(out, "%s  %s  %s\n", st.ID, st.Target.Format(targetLayout), st.Text)
					}
					return nil
				}
				if completed {
					done := a.Engine.Completed()
					if asJSON {
						return writeJSON(out, done)
					}
					for _, t := range done {
						fmt.Fprintf(out, "%s  %s  done %s  %s\n", t.ID, t.Priority, t.Completed.Format(dateTimeLayout), t.Text)
					}
					return nil
				}

				tasks := a.Engine.Search(query)
				if asJSON {
					return writeJSON(out, map[string]any{"tasks": tasks, "promoted": promoted})
				}
				for _, t := range promoted {
					fmt.Fprintf(out, "Now due: %s %s\n", t.ID, t.Text)
				}
				printTasks(out, tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only tasks whose text contains this (case-insensitive)")
	cmd.Flags().BoolVar(&completed, "completed", false, "list completed tasks instead, most recent first")
	cmd.Flags().BoolVar(&scheduled, "scheduled", false, "list scheduled tasks instead, by target time")
	cmd.MarkFlagsMutuallyExclusive("completed", "scheduled")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete an active task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.Engine.CompleteTask(ctx, args[0])
				if err := saved(err); err != nil {
					return err
				}
				st := a.Engine.Streak()
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %s %s (streak: %d)\n", t.ID, t.Text, st.Count)
				return nil
			})
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an active task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				if err := saved(a.Engine.DeleteTask(ctx, args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>...",
		Short: "Replace the text of an active task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.Engine.EditTask(ctx, args[0], strings.Join(args[1:], " "))
				if err := saved(err); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Edited %s %s\n", t.ID, t.Text)
				return nil
			})
		},
	}
}

func (c *cli) clearCompletedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Engine.ClearCompleted(ctx)
				if err := saved(err); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed task(s)\n", n)
				return nil
			})
		},
	}
}

func printTasks(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for _, t := range tasks {
		fmt.Fprintf(w, "%s  %-6s  %s  %s\n", t.ID, t.Priority, t.Created.Format(dateTimeLayout), t.Text)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
