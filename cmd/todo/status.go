package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/todo-engine/internal/app"
)

func (c *cli) streakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the consecutive-day completion streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				st := a.Engine.Streak()
				if st.LastCompleted == nil {
					fmt.Fprintf(out, "Streak: %d day(s), no completions yet\n", st.Count)
				} else {
					fmt.Fprintf(out, "Streak: %d day(s), last completion %s\n", st.Count, st.LastCompleted)
				}
				state := "off"
				if a.Engine.ReminderEnabled() {
					state = "on"
				}
				fmt.Fprintf(out, "Reminder: %s\n", state)
				return nil
			})
		},
	}
}

func (c *cli) reminderCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "reminder on|off",
		Short:     "Turn the drink-water reminder on or off",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := args[0] == "on"
			return c.runOneShot(cmd, func(ctx context.Context, a *app.App) error {
				if err := saved(a.Engine.ToggleReminder(ctx, enabled)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reminder %s\n", args[0])
				return nil
			})
		},
	}
}
