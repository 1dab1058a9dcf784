package mcpserver

import (
	"errors"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/JamesPrial/todo-engine/internal/engine"
	"github.com/JamesPrial/todo-engine/internal/notify"
)

// Server identity reported to MCP clients.
const (
	ServerName    = "todo-engine"
	ServerVersion = "1.0.0"
)

// EventNotificationMethod is the MCP notification carrying engine events.
const EventNotificationMethod = "notifications/todo/event"

// NewServer creates and configures a new MCP server with all task tools
// registered against eng. events backs the poll_events tool.
func NewServer(eng *engine.Engine, events *notify.Queue) (*server.MCPServer, error) {
	if eng == nil {
		return nil, errors.New("mcpserver: engine is required")
	}
	tm := NewTaskManager(eng, events)

	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
	)

	// Active tasks
	s.AddTool(addTaskTool(), tm.HandleAddTask)
	s.AddTool(completeTaskTool(), tm.HandleCompleteTask)
	s.AddTool(deleteTaskTool(), tm.HandleDeleteTask)
	s.AddTool(editTaskTool(), tm.HandleEditTask)
	s.AddTool(listTasksTool(), tm.HandleListTasks)

	// Scheduled tasks and promotions
	s.AddTool(scheduleTaskTool(), tm.HandleScheduleTask)
	s.AddTool(cancelScheduledTaskTool(), tm.HandleCancelScheduledTask)
	s.AddTool(listScheduledTool(), tm.HandleListScheduled)
	s.AddTool(resolvePromotionTool(), tm.HandleResolvePromotion)

	// Completed tasks, streak, reminder
	s.AddTool(listCompletedTool(), tm.HandleListCompleted)
	s.AddTool(clearCompletedTool(), tm.HandleClearCompleted)
	s.AddTool(getStreakTool(), tm.HandleGetStreak)
	s.AddTool(toggleReminderTool(), tm.HandleToggleReminder)

	// Events
	s.AddTool(pollEventsTool(), tm.HandlePollEvents)

	return s, nil
}

// NotificationSink forwards engine events to every connected MCP client.
//
// It is created before the server exists so it can be handed to the engine,
// and is bound to the server with Attach. Events before Attach are dropped.
type NotificationSink struct {
	mu  sync.RWMutex
	srv *server.MCPServer
}

// Attach binds the sink to srv.
func (n *NotificationSink) Attach(srv *server.MCPServer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.srv = srv
}

func (n *NotificationSink) Notify(e notify.Event) {
	n.mu.RLock()
	srv := n.srv
	n.mu.RUnlock()
	if srv == nil {
		return
	}

	params := map[string]any{
		"kind": string(e.Kind),
		"at":   e.At,
	}
	if e.Task != nil {
		params["task"] = e.Task
	}
	srv.SendNotificationToAllClients(EventNotificationMethod, params)
}
