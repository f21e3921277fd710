package collection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polisight/polisight/internal/models"
)

const (
	defaultMaxItems = 100
	defaultLookback = 7 * 24 * time.Hour

	paramEntityID   = "entity_id"
	paramPlatforms  = "platforms"
	paramMaxItems   = "max_items"
	paramSinceHours = "since_hours"
)

// EntityStore is the entity persistence needed by the collection service.
type EntityStore interface {
	GetByID(ctx context.Context, id string) (*models.PoliticalEntity, error)
	MarkCollected(ctx context.Context, id string, at time.Time) error
}

// PostStore persists collected posts.
type PostStore interface {
	Store(ctx context.Context, post *models.SocialPost) (bool, error)
}

// Service runs data collection for tracked entities and persists the
// normalized posts.
type Service struct {
	runner   ActorRunner
	entities EntityStore
	posts    PostStore
	logger   *slog.Logger
}

// NewService creates a collection service.
func NewService(runner ActorRunner, entities EntityStore, posts PostStore, logger *slog.Logger) *Service {
	return &Service{
		runner:   runner,
		entities: entities,
		posts:    posts,
		logger:   logger,
	}
}

// CollectResult summarizes one collection run.
type CollectResult struct {
	EntityID   string         `json:"entity_id"`
	Collected  int            `json:"collected"`
	Stored     int            `json:"stored"`
	Duplicates int            `json:"duplicates"`
	ByPlatform map[string]int `json:"by_platform"`
	Errors     []string       `json:"errors,omitempty"`
}

// CollectOperation is the task operation that gathers posts for one entity.
//
// Params:
//
//	entity_id   (required) tracked entity to collect for
//	platforms   (optional) subset of platforms; defaults to all accounts
//	max_items   (optional) per-account item cap, default 100
//	since_hours (optional) lookback window, default 168 (one week)
func (s *Service) CollectOperation(ctx context.Context, params map[string]any) (any, error) {
	entityID, _ := params[paramEntityID].(string)
	if entityID == "" {
		return nil, fmt.Errorf("entity_id is required")
	}

	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("load entity %s: %w", entityID, err)
	}
	if entity == nil {
		return nil, fmt.Errorf("entity %s not found", entityID)
	}

	accounts := selectAccounts(entity, params)
	if len(accounts) == 0 {
		return nil, fmt.Errorf("entity %s has no matching social accounts", entityID)
	}

	maxItems := defaultMaxItems
	if v := intParam(params, paramMaxItems); v > 0 {
		maxItems = v
	}
	since := time.Now().Add(-defaultLookback)
	if v := intParam(params, paramSinceHours); v > 0 {
		since = time.Now().Add(-time.Duration(v) * time.Hour)
	}

	result := CollectResult{
		EntityID:   entityID,
		ByPlatform: make(map[string]int),
	}

	for _, account := range accounts {
		collector, err := NewCollector(account.Platform, s.runner)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		posts, err := collector.Collect(ctx, account, since, maxItems)
		if err != nil {
			s.logger.Error("account collection failed",
				"entity_id", entityID,
				"platform", account.Platform,
				"username", account.Username,
				"error", err)
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		result.Collected += len(posts)
		result.ByPlatform[string(account.Platform)] += len(posts)

		for i := range posts {
			posts[i].EntityID = entityID
			inserted, err := s.posts.Store(ctx, &posts[i])
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			if inserted {
				result.Stored++
			} else {
				result.Duplicates++
			}
		}
	}

	// A run with zero successful accounts is a failure, not an empty result.
	if result.Collected == 0 && len(result.Errors) == len(accounts) && len(result.Errors) > 0 {
		return nil, fmt.Errorf("collection failed for all accounts of %s: %s", entityID, result.Errors[0])
	}

	if err := s.entities.MarkCollected(ctx, entityID, time.Now()); err != nil {
		s.logger.Warn("failed to mark entity collected", "entity_id", entityID, "error", err)
	}

	s.logger.Info("collection finished",
		"entity_id", entityID,
		"collected", result.Collected,
		"stored", result.Stored,
		"duplicates", result.Duplicates)

	return result, nil
}

func selectAccounts(entity *models.PoliticalEntity, params map[string]any) []models.SocialAccount {
	requested := stringSliceParam(params, paramPlatforms)
	if len(requested) == 0 {
		return entity.SocialAccounts
	}

	wanted := make(map[models.Platform]bool, len(requested))
	for _, p := range requested {
		if models.ValidPlatform(p) {
			wanted[models.Platform(p)] = true
		}
	}

	var accounts []models.SocialAccount
	for _, account := range entity.SocialAccounts {
		if wanted[account.Platform] {
			accounts = append(accounts, account)
		}
	}
	return accounts
}

func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func stringSliceParam(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
