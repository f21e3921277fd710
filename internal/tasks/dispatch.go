package tasks

import (
	"context"
)

// Dispatcher hands a submitted task off for execution. The in-memory registry
// plus GoDispatcher is the default backend; AMQPDispatcher pushes the same
// work through a broker so execution can move to separate worker processes
// without changing callers.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string) error
}

// GoDispatcher executes tasks on a goroutine inside the current process.
type GoDispatcher struct {
	registry *Registry
}

// NewGoDispatcher creates the in-process dispatcher.
func NewGoDispatcher(registry *Registry) *GoDispatcher {
	return &GoDispatcher{registry: registry}
}

// Dispatch schedules the task for background execution. It never fails: an
// unknown identifier surfaces through the registry's own logging, matching
// the deferred-execution contract that failures are observed via status
// queries only.
func (d *GoDispatcher) Dispatch(ctx context.Context, id string) error {
	d.registry.RunAsync(ctx, id)
	return nil
}
