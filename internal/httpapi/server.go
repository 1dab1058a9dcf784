// Package httpapi serves the engine over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/JamesPrial/todo-engine/internal/engine"
	"github.com/JamesPrial/todo-engine/internal/notify"
)

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// Server is the HTTP front end for one engine.
type Server struct {
	engine *engine.Engine
	events *notify.Queue
	logger *log.Logger
	router *gin.Engine
}

// NewServer creates a server with every API route registered. events backs
// GET /api/events and may be nil.
func NewServer(eng *engine.Engine, events *notify.Queue, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		engine: eng,
		events: events,
		logger: logger,
		router: router,
	}

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleAddTask)
		api.PATCH("/tasks/:id", s.handleEditTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/complete", s.handleCompleteTask)

		api.GET("/scheduled", s.handleListScheduled)
		api.POST("/scheduled", s.handleScheduleTask)
		api.DELETE("/scheduled/:id", s.handleCancelScheduled)

		api.GET("/completed", s.handleListCompleted)
		api.DELETE("/completed", s.handleClearCompleted)

		api.GET("/streak", s.handleStreak)
		api.PUT("/reminder", s.handleToggleReminder)
		api.POST("/promotions/:id", s.handleResolvePromotion)
		api.GET("/events", s.handleEvents)
	}

	return s
}

// Handler returns the router for use with net/http or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request at debug level, and at warn level
// for server errors.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"elapsed", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn("request failed", kv...)
			return
		}
		logger.Debug("request", kv...)
	}
}
