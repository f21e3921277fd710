package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/polisight/polisight/internal/tasks"
)

// TaskHandler exposes the task registry over HTTP: submitting the four
// monitoring task kinds, polling status, and listing the queue.
type TaskHandler struct {
	registry   *tasks.Registry
	dispatcher tasks.Dispatcher
	logger     *slog.Logger
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(registry *tasks.Registry, dispatcher tasks.Dispatcher, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SubmitRequest is the common body of the task submission endpoints.
type SubmitRequest struct {
	Params   map[string]any `json:"params"`
	Priority string         `json:"priority"`
}

// SubmitResponse acknowledges an accepted task.
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

// SubmitCollection handles POST /api/tasks/data-collection
func (h *TaskHandler) SubmitCollection(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, tasks.KindCollectData)
}

// SubmitContentAnalysis handles POST /api/tasks/content-analysis
func (h *TaskHandler) SubmitContentAnalysis(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, tasks.KindAnalyzeContent)
}

// SubmitRelationshipAnalysis handles POST /api/tasks/relationship-analysis
func (h *TaskHandler) SubmitRelationshipAnalysis(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, tasks.KindAnalyzeRelationships)
}

// SubmitReportGeneration handles POST /api/tasks/report-generation
func (h *TaskHandler) SubmitReportGeneration(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, tasks.KindGenerateReport)
}

func (h *TaskHandler) submit(w http.ResponseWriter, r *http.Request, kind string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SubmitRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	priority := tasks.Priority(req.Priority)
	if req.Priority != "" && !tasks.ValidPriority(req.Priority) {
		http.Error(w, "Invalid priority", http.StatusBadRequest)
		return
	}

	id, err := h.registry.Submit(kind, req.Params, priority)
	if err != nil {
		h.logger.Error("task submission failed", "kind", kind, "error", err)
		http.Error(w, "Invalid task", http.StatusBadRequest)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), id); err != nil {
		h.logger.Error("task dispatch failed", "task_id", id, "error", err)
		http.Error(w, "Failed to dispatch task", http.StatusInternalServerError)
		return
	}

	h.logger.Info("task submitted", "task_id", id, "kind", kind)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(SubmitResponse{
		TaskID: id,
		Kind:   kind,
		Status: string(tasks.StatusPending),
	})
}

// GetStatus handles GET /api/tasks/status/:id
func (h *TaskHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/tasks/status/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Task ID required", http.StatusBadRequest)
		return
	}

	task, err := h.registry.Get(id)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get task", "task_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// TaskListResponse wraps a task listing.
type TaskListResponse struct {
	Tasks []tasks.Summary `json:"tasks"`
	Count int             `json:"count"`
}

// ListTasks handles GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := tasks.ListFilter{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		if !tasks.ValidStatus(raw) {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		status := tasks.Status(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = v
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, "Invalid offset", http.StatusBadRequest)
			return
		}
		filter.Offset = v
	}

	summaries := h.registry.List(filter)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TaskListResponse{
		Tasks: summaries,
		Count: len(summaries),
	})
}
