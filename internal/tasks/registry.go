package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"log/slog"
)

var (
	// ErrNotFound indicates the task identifier is unknown to the registry.
	ErrNotFound = errors.New("task not found")

	// ErrConflict indicates Run was invoked on a task that already left the
	// pending state. The second call is rejected rather than re-executed.
	ErrConflict = errors.New("task already started")

	// ErrEmptyKind indicates a submission without a kind tag.
	ErrEmptyKind = errors.New("task kind is required")
)

// MetricsRecorder receives task lifecycle observations. Implemented by
// metrics.Collector; a nil recorder disables instrumentation.
type MetricsRecorder interface {
	TaskSubmitted(kind string)
	TaskFinished(kind string, status string, duration time.Duration)
}

// ListFilter narrows and paginates List results.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// Registry owns all task records for the lifetime of the process. It is
// constructed once at startup and injected into handlers; records are held
// in memory only and discarded at shutdown.
//
// The registry is safe for concurrent use. Every mutation of the identifier
// map or of a record's status happens under the registry mutex, so two
// concurrent Run calls on one identifier serialize and the loser gets
// ErrConflict.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
	order []string

	ops     *OperationSet
	logger  *slog.Logger
	metrics MetricsRecorder

	now   func() time.Time
	newID func() string
}

// NewRegistry creates a registry backed by the given operation set. The
// metrics recorder may be nil.
func NewRegistry(ops *OperationSet, logger *slog.Logger, metrics MetricsRecorder) *Registry {
	return &Registry{
		tasks:   make(map[string]*Task),
		ops:     ops,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Submit records a new pending task and returns its identifier. The kind must
// be non-empty; parameters are an opaque bag the registry never interprets.
// Identifiers are unique for the lifetime of the registry and never reused.
func (r *Registry) Submit(kind string, params map[string]any, priority Priority) (string, error) {
	if kind == "" {
		return "", ErrEmptyKind
	}
	if priority == "" {
		priority = PriorityMedium
	}

	task := &Task{
		ID:        r.newID(),
		Kind:      kind,
		Params:    params,
		Priority:  priority,
		Status:    StatusPending,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.tasks[task.ID] = task
	r.order = append(r.order, task.ID)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.TaskSubmitted(kind)
	}
	r.logger.Info("task submitted", "task_id", task.ID, "kind", kind, "priority", priority)

	return task.ID, nil
}

// Run executes the task synchronously, blocking the caller until the
// operation finishes. The record moves to running, then to completed with the
// operation's return value or to failed with the error description. Failures
// inside the operation never propagate out of Run; the only errors Run itself
// returns are ErrNotFound for unknown identifiers and ErrConflict when the
// task already left pending.
func (r *Registry) Run(ctx context.Context, id string) error {
	r.mu.Lock()
	task, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if task.Status != StatusPending {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrConflict, id, task.Status)
	}
	started := r.now()
	task.Status = StatusRunning
	task.StartedAt = &started
	kind := task.Kind
	params := task.Params
	r.mu.Unlock()

	r.logger.Info("task running", "task_id", id, "kind", kind)

	result, err := r.invoke(ctx, kind, params)

	completed := r.now()
	r.mu.Lock()
	task.CompletedAt = &completed
	if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
	} else {
		task.Status = StatusCompleted
		task.Result = result
	}
	status := task.Status
	r.mu.Unlock()

	duration := completed.Sub(started)
	if r.metrics != nil {
		r.metrics.TaskFinished(kind, string(status), duration)
	}
	if err != nil {
		r.logger.Error("task failed", "task_id", id, "kind", kind, "error", err, "duration", duration)
	} else {
		r.logger.Info("task completed", "task_id", id, "kind", kind, "duration", duration)
	}

	return nil
}

// invoke resolves and calls the operation, converting panics into errors so
// a misbehaving operation cannot crash the caller.
func (r *Registry) invoke(ctx context.Context, kind string, params map[string]any) (result any, err error) {
	op, ok := r.ops.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("no operation registered for kind %q", kind)
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("operation panicked: %v", rec)
		}
	}()

	return op(ctx, params)
}

// RunAsync schedules the task for execution on its own goroutine and returns
// immediately. Lookup and conflict errors are logged, not returned: for
// deferred execution the submitter learns the outcome from a later status
// query, never synchronously.
//
// The operation runs on a context detached from the caller's cancellation.
// The typical caller is an HTTP handler whose request context is cancelled
// the moment the response is written; the scheduled work must outlive it.
func (r *Registry) RunAsync(ctx context.Context, id string) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := r.Run(ctx, id); err != nil {
			r.logger.Error("background task dispatch failed", "task_id", id, "error", err)
		}
	}()
}

// Status returns the current status of the task. Pure read.
func (r *Registry) Status(id string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return "", ErrNotFound
	}
	return task.Status, nil
}

// Get returns a snapshot of the full task record, including its result or
// failure detail once the task has left the running state.
func (r *Registry) Get(id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return *task, nil
}

// List returns summaries of known tasks in insertion order, optionally
// filtered by status and paginated.
func (r *Registry) List(filter ListFilter) []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		task, ok := r.tasks[id]
		if !ok {
			continue // swept
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		summaries = append(summaries, Summary{
			ID:          task.ID,
			Kind:        task.Kind,
			Priority:    task.Priority,
			Status:      task.Status,
			Error:       task.Error,
			CreatedAt:   task.CreatedAt,
			StartedAt:   task.StartedAt,
			CompletedAt: task.CompletedAt,
		})
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(summaries) {
			return []Summary{}
		}
		summaries = summaries[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(summaries) {
		summaries = summaries[:filter.Limit]
	}

	return summaries
}

// Count returns the total number of records the registry holds.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Sweep removes completed and failed records whose terminal timestamp is
// older than maxAge and returns the number removed. Pending and running
// records are never touched.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	kept := r.order[:0]
	for _, id := range r.order {
		task, ok := r.tasks[id]
		if !ok {
			continue
		}
		finished := task.CompletedAt
		if finished == nil {
			finished = &task.CreatedAt
		}
		if task.Status.IsTerminal() && finished.Before(cutoff) {
			delete(r.tasks, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept

	return removed
}
