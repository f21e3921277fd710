package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"
	"os"

	"github.com/polisight/polisight/internal/tasks"
)

func newTestTaskHandler(t *testing.T) (*TaskHandler, *tasks.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	ops := tasks.NewOperationSet()
	ops.Register(tasks.KindCollectData, func(ctx context.Context, params map[string]any) (any, error) {
		return map[string]any{"collected": 1}, nil
	})

	registry := tasks.NewRegistry(ops, logger, nil)
	handler := NewTaskHandler(registry, tasks.NewGoDispatcher(registry), logger)
	return handler, registry
}

func TestSubmitTaskAccepted(t *testing.T) {
	handler, registry := newTestTaskHandler(t)

	body := strings.NewReader(`{"params": {"entity_id": "ent-1"}, "priority": "high"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/data-collection", body)
	rec := httptest.NewRecorder()

	handler.SubmitCollection(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TaskID == "" {
		t.Error("expected a task ID")
	}
	if resp.Kind != tasks.KindCollectData {
		t.Errorf("unexpected kind: %s", resp.Kind)
	}

	// The dispatcher runs the task on a goroutine; wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for {
		task, err := registry.Get(resp.TaskID)
		if err != nil {
			t.Fatalf("task vanished: %v", err)
		}
		if task.Status.IsTerminal() {
			if task.Status != tasks.StatusCompleted {
				t.Errorf("expected completed, got %s (%s)", task.Status, task.Error)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task did not finish in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubmitTaskOutlivesRequest(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	ops := tasks.NewOperationSet()
	ops.Register(tasks.KindCollectData, func(ctx context.Context, params map[string]any) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(150 * time.Millisecond):
			return map[string]any{"collected": 1}, nil
		}
	})
	registry := tasks.NewRegistry(ops, logger, nil)
	handler := NewTaskHandler(registry, tasks.NewGoDispatcher(registry), logger)

	// A real server: net/http cancels the request context as soon as the
	// handler returns, which a recorder-based test never exercises.
	srv := httptest.NewServer(http.HandlerFunc(handler.SubmitCollection))
	defer srv.Close()

	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{"params": {"entity_id": "ent-1"}}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var submitted SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		task, err := registry.Get(submitted.TaskID)
		if err != nil {
			t.Fatalf("task vanished: %v", err)
		}
		if task.Status.IsTerminal() {
			if task.Status != tasks.StatusCompleted {
				t.Fatalf("async task ended %q with error %q, want completed", task.Status, task.Error)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task did not finish in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubmitTaskEmptyBody(t *testing.T) {
	handler, _ := newTestTaskHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/data-collection", nil)
	rec := httptest.NewRecorder()

	handler.SubmitCollection(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202 for empty body, got %d", rec.Code)
	}
}

func TestSubmitTaskRejectsBadRequests(t *testing.T) {
	handler, _ := newTestTaskHandler(t)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"malformed body", http.MethodPost, "{not json", http.StatusBadRequest},
		{"unknown priority", http.MethodPost, `{"priority": "urgent"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/tasks/data-collection", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.SubmitCollection(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestGetStatusNotFound(t *testing.T) {
	handler, _ := newTestTaskHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/status/no-such-task", nil)
	rec := httptest.NewRecorder()

	handler.GetStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetStatusReturnsTask(t *testing.T) {
	handler, registry := newTestTaskHandler(t)

	id, err := registry.Submit(tasks.KindCollectData, map[string]any{"entity_id": "ent-1"}, "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/status/"+id, nil)
	rec := httptest.NewRecorder()

	handler.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var task tasks.Task
	if err := json.NewDecoder(rec.Body).Decode(&task); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if task.ID != id || task.Status != tasks.StatusPending {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestListTasksFiltering(t *testing.T) {
	handler, registry := newTestTaskHandler(t)

	for i := 0; i < 3; i++ {
		if _, err := registry.Submit(tasks.KindCollectData, nil, ""); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=pending&limit=2", nil)
	rec := httptest.NewRecorder()

	handler.ListTasks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp TaskListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("expected 2 tasks, got %d", resp.Count)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tasks?status=bogus", nil)
	rec = httptest.NewRecorder()
	handler.ListTasks(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad status filter, got %d", rec.Code)
	}
}
