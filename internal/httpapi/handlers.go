package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JamesPrial/todo-engine/internal/engine"
	"github.com/JamesPrial/todo-engine/internal/notify"
	"github.com/JamesPrial/todo-engine/internal/storage"
	"github.com/JamesPrial/todo-engine/internal/task"
)

type addTaskRequest struct {
	Text     string `json:"text"`
	Priority string `json:"priority"`
}

type editTaskRequest struct {
	Text string `json:"text"`
}

type scheduleTaskRequest struct {
	Text       string `json:"text"`
	TargetTime string `json:"target_time" binding:"required"`
}

type reminderRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type promotionRequest struct {
	Accepted *bool `json:"accepted" binding:"required"`
}

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, task.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, task.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respond writes data with status, or the error response for err.
//
// A *storage.IOError means the change was applied but not saved, so the
// request still succeeds and carries a warning.
func respond(c *gin.Context, status int, data any, err error) {
	body := gin.H{"success": true, "data": data}
	if err != nil {
		var ioErr *storage.IOError
		if !errors.As(err, &ioErr) {
			fail(c, statusFor(err), err)
			return
		}
		body["warning"] = "change kept in memory but not saved: " + err.Error()
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func (s *Server) handleListTasks(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"tasks":              s.engine.Search(c.Query("q")),
		"pending_promotions": s.engine.PendingPromotions(),
	}, nil)
}

func (s *Server) handleAddTask(c *gin.Context) {
	var req addTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	priority, err := task.ParsePriority(req.Priority)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	t, err := s.engine.AddTask(c.Request.Context(), req.Text, priority)
	respond(c, http.StatusCreated, t, err)
}

func (s *Server) handleEditTask(c *gin.Context) {
	var req editTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	t, err := s.engine.EditTask(c.Request.Context(), c.Param("id"), req.Text)
	respond(c, http.StatusOK, t, err)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id := c.Param("id")
	respond(c, http.StatusOK, gin.H{"deleted": id}, s.engine.DeleteTask(c.Request.Context(), id))
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	done, err := s.engine.CompleteTask(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, gin.H{
		"task":   done,
		"streak": s.engine.Streak(),
	}, err)
}

func (s *Server) handleListScheduled(c *gin.Context) {
	respond(c, http.StatusOK, s.engine.Scheduled(), nil)
}

func (s *Server) handleScheduleTask(c *gin.Context) {
	var req scheduleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	target, err := task.ParseTarget(req.TargetTime)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	st, err := s.engine.ScheduleTask(c.Request.Context(), req.Text, target)
	respond(c, http.StatusCreated, st, err)
}

func (s *Server) handleCancelScheduled(c *gin.Context) {
	id := c.Param("id")
	respond(c, http.StatusOK, gin.H{"cancelled": id}, s.engine.CancelScheduledTask(c.Request.Context(), id))
}

func (s *Server) handleListCompleted(c *gin.Context) {
	respond(c, http.StatusOK, s.engine.Completed(), nil)
}

func (s *Server) handleClearCompleted(c *gin.Context) {
	n, err := s.engine.ClearCompleted(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"cleared": n}, err)
}

func (s *Server) handleStreak(c *gin.Context) {
	st := s.engine.Streak()
	respond(c, http.StatusOK, gin.H{
		"streak_count":        st.Count,
		"last_completed_date": st.LastCompleted,
		"reminder_enabled":    s.engine.ReminderEnabled(),
	}, nil)
}

func (s *Server) handleToggleReminder(c *gin.Context) {
	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	err := s.engine.ToggleReminder(c.Request.Context(), *req.Enabled)
	respond(c, http.StatusOK, gin.H{"reminder_enabled": *req.Enabled}, err)
}

func (s *Server) handleResolvePromotion(c *gin.Context) {
	var req promotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	id := c.Param("id")
	err := s.engine.ResolvePromotion(c.Request.Context(), id, *req.Accepted)
	respond(c, http.StatusOK, gin.H{"id": id, "accepted": *req.Accepted}, err)
}

func (s *Server) handleEvents(c *gin.Context) {
	events := []notify.Event{}
	dropped := 0
	if s.events != nil {
		events = s.events.Drain()
		dropped = s.events.Dropped()
	}
	respond(c, http.StatusOK, gin.H{"events": events, "dropped": dropped}, nil)
}
