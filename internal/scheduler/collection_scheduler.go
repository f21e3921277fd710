package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/polisight/polisight/internal/content"
	"github.com/polisight/polisight/internal/tasks"
)

// CollectionScheduler periodically submits collection tasks for entities
// whose data has gone stale.
type CollectionScheduler struct {
	entities      *content.EntityStore
	registry      *tasks.Registry
	dispatcher    tasks.Dispatcher
	logger        *slog.Logger
	stopChan      chan struct{}
	checkInterval time.Duration
	staleAfter    time.Duration
	batchSize     int
}

// NewCollectionScheduler creates a collection scheduler.
func NewCollectionScheduler(entities *content.EntityStore, registry *tasks.Registry, dispatcher tasks.Dispatcher, logger *slog.Logger) *CollectionScheduler {
	return &CollectionScheduler{
		entities:      entities,
		registry:      registry,
		dispatcher:    dispatcher,
		logger:        logger,
		stopChan:      make(chan struct{}),
		checkInterval: 15 * time.Minute,
		staleAfter:    6 * time.Hour,
		batchSize:     10,
	}
}

// Start begins the scheduler loop.
func (s *CollectionScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting collection scheduler",
		"check_interval", s.checkInterval,
		"stale_after", s.staleAfter)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	// Run once immediately on start
	s.collectDueEntities(ctx)

	for {
		select {
		case <-ticker.C:
			s.collectDueEntities(ctx)
		case <-s.stopChan:
			s.logger.Info("Collection scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Collection scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler.
func (s *CollectionScheduler) Stop() {
	close(s.stopChan)
}

func (s *CollectionScheduler) collectDueEntities(ctx context.Context) {
	cutoff := time.Now().Add(-s.staleAfter)
	entities, err := s.entities.ListDue(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to list stale entities", "error", err)
		return
	}
	if len(entities) == 0 {
		return
	}

	s.logger.Info("Found stale entities to collect", "count", len(entities))

	for _, entity := range entities {
		if len(entity.SocialAccounts) == 0 {
			continue
		}

		id, err := s.registry.Submit(tasks.KindCollectData, map[string]any{
			"entity_id": entity.ID,
		}, tasks.PriorityLow)
		if err != nil {
			s.logger.Error("Failed to submit collection task",
				"entity_id", entity.ID,
				"error", err)
			continue
		}
		if err := s.dispatcher.Dispatch(ctx, id); err != nil {
			s.logger.Error("Failed to dispatch collection task",
				"task_id", id,
				"entity_id", entity.ID,
				"error", err)
			continue
		}

		s.logger.Info("Scheduled collection for stale entity",
			"task_id", id,
			"entity_id", entity.ID,
			"name", entity.Name)
	}
}
