package tasks

import (
	"context"
	"time"
)

// Status represents the lifecycle state of a task. Transitions are strictly
// pending -> running -> (completed | failed); a record never re-enters pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ValidStatus reports whether the given string names a known status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Priority indicates scheduling importance. The registry records it for
// display and for a future queue backend; in-process execution ignores it.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ValidPriority reports whether the given string names a known priority.
func ValidPriority(s string) bool {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Known task kinds. The kind tag is an open enumeration: the registry accepts
// any non-empty kind and resolves it against the operation set at run time.
const (
	KindCollectData          = "collect_data"
	KindAnalyzeContent       = "analyze_content"
	KindAnalyzeRelationships = "analyze_relationships"
	KindGenerateReport       = "generate_report"
)

// Task is a unit of deferred work tracked by identifier and status. The
// registry exclusively owns all Task records; callers receive copies.
type Task struct {
	ID          string         `json:"task_id"`
	Kind        string         `json:"kind"`
	Params      map[string]any `json:"params,omitempty"`
	Priority    Priority       `json:"priority"`
	Status      Status         `json:"status"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Summary is the reduced view returned by List.
type Summary struct {
	ID          string     `json:"task_id"`
	Kind        string     `json:"kind"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Operation is the opaque unit of work a task wraps. Implementations are
// supplied by the collection, analysis, and reporting packages; the registry
// only records their outcome, it never inspects parameters or results.
type Operation func(ctx context.Context, params map[string]any) (any, error)

// OperationSet maps task kinds to their implementations. Registration is
// open: new kinds can be added without touching the registry.
type OperationSet struct {
	ops map[string]Operation
}

// NewOperationSet creates an empty operation set.
func NewOperationSet() *OperationSet {
	return &OperationSet{ops: make(map[string]Operation)}
}

// Register binds an operation to a kind, replacing any previous binding.
func (s *OperationSet) Register(kind string, op Operation) {
	s.ops[kind] = op
}

// Lookup returns the operation bound to kind, if any.
func (s *OperationSet) Lookup(kind string) (Operation, bool) {
	op, ok := s.ops[kind]
	return op, ok
}

// Kinds returns the registered kinds in unspecified order.
func (s *OperationSet) Kinds() []string {
	kinds := make([]string, 0, len(s.ops))
	for k := range s.ops {
		kinds = append(kinds, k)
	}
	return kinds
}
