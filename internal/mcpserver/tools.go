// Package mcpserver exposes the to-do engine as MCP tools over stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// addTaskTool returns a tool definition for adding an active task.
func addTaskTool() mcp.Tool {
	return mcp.NewTool("add_task",
		mcp.WithDescription("Add a task to the active list."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Task text; surrounding whitespace is trimmed and it must not be empty")),
		mcp.WithString("priority",
			mcp.Enum("High", "Medium", "Low"),
			mcp.Description("Task priority (defaults to Medium)")),
	)
}

// completeTaskTool returns a tool definition for completing an active task.
func completeTaskTool() mcp.Tool {
	return mcp.NewTool("complete_task",
		mcp.WithDescription("Mark an active task as completed and update the daily completion streak."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the active task")),
	)
}

func deleteTaskTool() mcp.Tool {
	return mcp.NewTool("delete_task",
		mcp.WithDescription("Delete an active task without completing it."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the active task")),
	)
}

func editTaskTool() mcp.Tool {
	return mcp.NewTool("edit_task",
		mcp.WithDescription("Replace the text of an active task."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the active task")),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("New task text")),
	)
}

// scheduleTaskTool returns a tool definition for scheduling a future task.
func scheduleTaskTool() mcp.Tool {
	return mcp.NewTool("schedule_task",
		mcp.WithDescription("Schedule a task to join the active list with High priority at a future local time."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Task text")),
		mcp.WithString("target_time",
			mcp.Required(),
			mcp.Description("Local target time as YYYY-MM-DD HH:MM[:SS] or RFC 3339; must be in the future")),
	)
}

func cancelScheduledTaskTool() mcp.Tool {
	return mcp.NewTool("cancel_scheduled_task",
		mcp.WithDescription("Cancel a scheduled task before it becomes active."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the scheduled task")),
	)
}

func toggleReminderTool() mcp.Tool {
	return mcp.NewTool("toggle_reminder",
		mcp.WithDescription("Turn the periodic drink-water reminder on or off."),
		mcp.WithBoolean("enabled",
			mcp.Required(),
			mcp.Description("true to enable reminders, false to disable them")),
	)
}

// resolvePromotionTool returns a tool definition for answering a
// scheduled_task_due event.
func resolvePromotionTool() mcp.Tool {
	return mcp.NewTool("resolve_promotion",
		mcp.WithDescription("Accept or decline a scheduled task that was just promoted. Declining removes it from the active list."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the promoted task")),
		mcp.WithBoolean("accepted",
			mcp.Required(),
			mcp.Description("true to keep the task, false to retract it")),
	)
}

func listTasksTool() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List active tasks, High priority first. Optionally filter by a case-insensitive text query."),
		mcp.WithString("query",
			mcp.Description("Substring to search for in task text")),
	)
}

func listScheduledTool() mcp.Tool {
	return mcp.NewTool("list_scheduled",
		mcp.WithDescription("List scheduled tasks ordered by target time."),
	)
}

func listCompletedTool() mcp.Tool {
	return mcp.NewTool("list_completed",
		mcp.WithDescription("List completed tasks, most recent first."),
	)
}

func clearCompletedTool() mcp.Tool {
	return mcp.NewTool("clear_completed",
		mcp.WithDescription("Remove every completed task."),
	)
}

func getStreakTool() mcp.Tool {
	return mcp.NewTool("get_streak",
		mcp.WithDescription("Get the consecutive-day completion streak and the reminder setting."),
	)
}

// pollEventsTool returns a tool definition for draining buffered events.
func pollEventsTool() mcp.Tool {
	return mcp.NewTool("poll_events",
		mcp.WithDescription("Return and clear events emitted since the last poll: scheduled_task_due and periodic_reminder."),
	)
}
