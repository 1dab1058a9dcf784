package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JamesPrial/todo-engine/internal/engine"
	"github.com/JamesPrial/todo-engine/internal/notify"
	"github.com/JamesPrial/todo-engine/internal/storage"
	"github.com/JamesPrial/todo-engine/internal/task"
)

// TaskManager serves tool calls against one engine. The engine does its own
// locking, so TaskManager holds no state of its own.
type TaskManager struct {
	engine *engine.Engine
	events *notify.Queue
}

// NewTaskManager creates a TaskManager. events may be nil, in which case
// poll_events always returns an empty list.
func NewTaskManager(eng *engine.Engine, events *notify.Queue) *TaskManager {
	return &TaskManager{engine: eng, events: events}
}

// toolResponse is the JSON body of every successful tool result.
type toolResponse struct {
	Result  any    `json:"result"`
	Warning string `json:"warning,omitempty"`
}

// respond turns an engine result into a tool result.
//
// A *storage.IOError means the change was applied in memory but not saved;
// it is reported as a warning next to the result instead of a tool error.
func respond(v any, err error) (*mcp.CallToolResult, error) {
	resp := toolResponse{Result: v}
	if err != nil {
		var ioErr *storage.IOError
		if !errors.As(err, &ioErr) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resp.Warning = fmt.Sprintf("change kept in memory but not saved: %v", err)
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// HandleAddTask adds an active task.
// Parameters:
//   - text (string, required)
//   - priority (string, optional): High, Medium or Low
func (m *TaskManager) HandleAddTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: text"), nil
	}
	priority, err := task.ParsePriority(request.GetString("priority", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return respond(m.engine.AddTask(ctx, text, priority))
}

// HandleCompleteTask completes an active task and returns it with the
// updated streak.
func (m *TaskManager) HandleCompleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	done, err := m.engine.CompleteTask(ctx, id)
	if err != nil && done.ID == "" {
		return respond(nil, err)
	}
	return respond(map[string]any{
		"task":   done,
		"streak": m.engine.Streak(),
	}, err)
}

func (m *TaskManager) HandleDeleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	return respond(map[string]string{"deleted": id}, m.engine.DeleteTask(ctx, id))
}

func (m *TaskManager) HandleEditTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: text"), nil
	}
	return respond(m.engine.EditTask(ctx, id, text))
}

// HandleScheduleTask schedules a task for a future local time.
func (m *TaskManager) HandleScheduleTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: text"), nil
	}
	raw, err := request.RequireString("target_time")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: target_time"), nil
	}
	target, err := task.ParseTarget(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return respond(m.engine.ScheduleTask(ctx, text, target))
}

func (m *TaskManager) HandleCancelScheduledTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	return respond(map[string]string{"cancelled": id}, m.engine.CancelScheduledTask(ctx, id))
}

func (m *TaskManager) HandleToggleReminder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled, err := request.RequireBool("enabled")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: enabled"), nil
	}
	return respond(map[string]bool{"reminder_enabled": enabled}, m.engine.ToggleReminder(ctx, enabled))
}

// HandleResolvePromotion accepts or declines a promoted task.
func (m *TaskManager) HandleResolvePromotion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	accepted, err := request.RequireBool("accepted")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: accepted"), nil
	}
	return respond(map[string]any{"id": id, "accepted": accepted}, m.engine.ResolvePromotion(ctx, id, accepted))
}

// HandleListTasks lists active tasks and the promotions awaiting an answer.
func (m *TaskManager) HandleListTasks(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(map[string]any{
		"tasks":              m.engine.Search(request.GetString("query", "")),
		"pending_promotions": m.engine.PendingPromotions(),
	}, nil)
}

func (m *TaskManager) HandleListScheduled(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(m.engine.Scheduled(), nil)
}

func (m *TaskManager) HandleListCompleted(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return respond(m.engine.Completed(), nil)
}

func (m *TaskManager) HandleClearCompleted(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := m.engine.ClearCompleted(ctx)
	return respond(map[string]int{"cleared": n}, err)
}

func (m *TaskManager) HandleGetStreak(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := m.engine.Streak()
	return respond(map[string]any{
		"streak_count":        st.Count,
		"last_completed_date": st.LastCompleted,
		"reminder_enabled":    m.engine.ReminderEnabled(),
	}, nil)
}

// HandlePollEvents drains the event queue.
func (m *TaskManager) HandlePollEvents(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	events := []notify.Event{}
	dropped := 0
	if m.events != nil {
		events = m.events.Drain()
		dropped = m.events.Dropped()
	}
	return respond(map[string]any{"events": events, "dropped": dropped}, nil)
}
