package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/polisight/polisight/internal/tasks"
)

// RetentionScheduler periodically sweeps finished task records out of
// the registry so long-running deployments do not grow without bound.
type RetentionScheduler struct {
	registry      *tasks.Registry
	logger        *slog.Logger
	stopChan      chan struct{}
	checkInterval time.Duration
	maxAge        time.Duration
}

// NewRetentionScheduler creates a retention scheduler. Records older
// than maxAge in a terminal status are removed each sweep.
func NewRetentionScheduler(registry *tasks.Registry, maxAge, checkInterval time.Duration, logger *slog.Logger) *RetentionScheduler {
	return &RetentionScheduler{
		registry:      registry,
		logger:        logger,
		stopChan:      make(chan struct{}),
		checkInterval: checkInterval,
		maxAge:        maxAge,
	}
}

// Start begins the scheduler loop.
func (s *RetentionScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting task retention scheduler",
		"check_interval", s.checkInterval,
		"max_age", s.maxAge)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := s.registry.Sweep(s.maxAge)
			if removed > 0 {
				s.logger.Info("Swept finished tasks", "removed", removed, "remaining", s.registry.Count())
			}
		case <-s.stopChan:
			s.logger.Info("Task retention scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Task retention scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler.
func (s *RetentionScheduler) Stop() {
	close(s.stopChan)
}
