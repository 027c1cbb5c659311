// Package server exposes the lead intake HTTP surface: the web-form
// webhook, the manual group completion hook, and a couple of read-only
// status endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
)

// LeadProcessor runs one raw lead through the intake pipeline.
type LeadProcessor interface {
	ProcessNewLead(ctx context.Context, raw model.RawLead) model.ProcessResult
}

// GroupQueue is the queue surface the admin endpoints need.
type GroupQueue interface {
	MarkCompleted(ctx context.Context, queueID, groupID, groupName string) model.QueueCompleteResult
	GetQueueStatus() model.QueueCounters
}

// SessionSource lists active support-channel sessions.
type SessionSource interface {
	ActiveSessions() []model.ChannelSession
}

// Server wires the HTTP handlers to the pipeline components.
type Server struct {
	processor LeadProcessor
	queue     GroupQueue
	sessions  SessionSource
	log       *zap.Logger
}

// New creates a server.
func New(processor LeadProcessor, queue GroupQueue, sessions SessionSource, log *zap.Logger) *Server {
	if log == nil {
		log = zap.L()
	}
	return &Server{processor: processor, queue: queue, sessions: sessions, log: log}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Post("/lead", s.handleLead)
	r.Post("/complete-group", s.handleCompleteGroup)
	r.Get("/queue-status", s.handleQueueStatus)
	r.Get("/active-channels", s.handleActiveChannels)
	r.Get("/health", s.handleHealth)

	return r
}

func (s *Server) handleLead(w http.ResponseWriter, r *http.Request) {
	var raw model.RawLead
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
		})
		return
	}
	if raw.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Email is required",
		})
		return
	}

	result := s.processor.ProcessNewLead(r.Context(), raw)
	if result.Success {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Lead processed successfully",
			"data":    result,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case strings.HasPrefix(result.Error, "Validation failed"):
		status = http.StatusUnprocessableEntity
	case result.Error == "Lead already exists":
		// The duplicate guard working as intended, not a failure.
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]any{
		"success":      false,
		"error":        result.Error,
		"existingLead": result.ExistingLead,
	})
}

func (s *Server) handleCompleteGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QueueID   string `json:"queueId"`
		GroupID   string `json:"groupId"`
		GroupName string `json:"groupName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
		})
		return
	}
	if req.QueueID == "" || req.GroupID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "queueId and groupId are required",
		})
		return
	}
	if req.GroupName == "" {
		req.GroupName = fmt.Sprintf("Support Group %s", req.GroupID)
	}

	result := s.queue.MarkCompleted(r.Context(), req.QueueID, req.GroupID, req.GroupName)
	if !result.Success {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   result.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Group creation completed successfully",
		"data":    result.Item,
	})
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    s.queue.GetQueueStatus(),
	})
}

func (s *Server) handleActiveChannels(w http.ResponseWriter, _ *http.Request) {
	sessions := s.sessions.ActiveSessions()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"total":    len(sessions),
			"channels": sessions,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "lead agent is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
