package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/polisight/polisight/internal/vector"
)

// EmbeddingScheduler periodically embeds newly collected posts so they
// become searchable without an explicit indexing request.
type EmbeddingScheduler struct {
	vectors       *vector.Service
	logger        *slog.Logger
	stopChan      chan struct{}
	checkInterval time.Duration
	batchSize     int
}

// NewEmbeddingScheduler creates an embedding scheduler.
func NewEmbeddingScheduler(vectors *vector.Service, logger *slog.Logger) *EmbeddingScheduler {
	return &EmbeddingScheduler{
		vectors:       vectors,
		logger:        logger,
		stopChan:      make(chan struct{}),
		checkInterval: 5 * time.Minute,
		batchSize:     200,
	}
}

// Start begins the scheduler loop.
func (s *EmbeddingScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting embedding scheduler", "check_interval", s.checkInterval)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			indexed, err := s.vectors.IndexPending(ctx, s.batchSize)
			if err != nil {
				s.logger.Error("Failed to embed pending posts", "error", err)
				continue
			}
			if indexed > 0 {
				s.logger.Info("Embedded pending posts", "count", indexed)
			}
		case <-s.stopChan:
			s.logger.Info("Embedding scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Embedding scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler.
func (s *EmbeddingScheduler) Stop() {
	close(s.stopChan)
}
