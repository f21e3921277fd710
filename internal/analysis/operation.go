package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polisight/polisight/internal/models"
)

// PostStore is the post access needed by the analysis operations.
type PostStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.SocialPost, error)
	List(ctx context.Context, query models.PostQuery) ([]models.SocialPost, error)
}

// AnalysisStore persists analyses and derived relationships.
type AnalysisStore interface {
	StoreAnalysis(ctx context.Context, analysis *models.ContentAnalysis) error
	GetAnalysisByPost(ctx context.Context, postID string) (*models.ContentAnalysis, error)
	StoreRelationship(ctx context.Context, rel *models.EntityRelationship) error
}

// EntityStore resolves the entities named in relationship analysis.
type EntityStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.PoliticalEntity, error)
	List(ctx context.Context, entityType *models.EntityType, country *string, limit, offset int) ([]models.PoliticalEntity, error)
}

// Service runs LLM content analysis over stored posts.
type Service struct {
	analyzer Analyzer
	posts    PostStore
	analyses AnalysisStore
	entities EntityStore
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates an analysis service.
func NewService(analyzer Analyzer, posts PostStore, analyses AnalysisStore, entities EntityStore, logger *slog.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		posts:    posts,
		analyses: analyses,
		entities: entities,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// AnalyzeResult summarizes one content-analysis run.
type AnalyzeResult struct {
	Analyzed int      `json:"analyzed"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Model    string   `json:"model"`
	Errors   []string `json:"errors,omitempty"`
}

// AnalyzeContentOperation is the task operation that analyzes stored posts.
//
// Params:
//
//	post_ids       (optional) explicit posts to analyze
//	entity_id      (optional) analyze recent posts of one entity
//	since_hours    (optional) lookback when selecting by entity, default 24
//	analysis_types (optional) facets to request, default sentiment+topics+entities
//	reanalyze      (optional) analyze posts that already have an analysis
func (s *Service) AnalyzeContentOperation(ctx context.Context, params map[string]any) (any, error) {
	posts, err := s.selectPosts(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("no posts matched the analysis request")
	}

	types, err := models.ParseAnalysisTypes(stringSliceParam(params, "analysis_types"))
	if err != nil {
		return nil, err
	}
	reanalyze, _ := params["reanalyze"].(bool)

	result := AnalyzeResult{Model: s.analyzer.ModelName()}
	for i := range posts {
		post := &posts[i]

		if !reanalyze {
			existing, err := s.analyses.GetAnalysisByPost(ctx, post.ID)
			if err != nil {
				return nil, fmt.Errorf("check existing analysis: %w", err)
			}
			if existing != nil {
				result.Skipped++
				continue
			}
		}

		parsed, err := s.analyzer.Analyze(ctx, post.Content, types)
		if err != nil {
			s.logger.Error("post analysis failed", "post_id", post.ID, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", post.ID, err))
			continue
		}

		analysis := &models.ContentAnalysis{
			ID:               s.newID(),
			PostID:           post.ID,
			SentimentScore:   parsed.SentimentScore,
			SentimentLabel:   models.SentimentLabel(parsed.SentimentScore),
			Topics:           parsed.Topics,
			KeyEntities:      parsed.EntitiesMentioned,
			PoliticalLeaning: parsed.PoliticalLeaning,
			Model:            s.analyzer.ModelName(),
			AnalyzedAt:       s.now(),
		}
		if err := s.analyses.StoreAnalysis(ctx, analysis); err != nil {
			return nil, fmt.Errorf("store analysis for post %s: %w", post.ID, err)
		}
		result.Analyzed++
	}

	if result.Analyzed == 0 && result.Failed > 0 {
		return nil, fmt.Errorf("analysis failed for all %d posts: %s", result.Failed, result.Errors[0])
	}

	s.logger.Info("content analysis finished",
		"analyzed", result.Analyzed,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

func (s *Service) selectPosts(ctx context.Context, params map[string]any) ([]models.SocialPost, error) {
	if ids := stringSliceParam(params, "post_ids"); len(ids) > 0 {
		return s.posts.GetByIDs(ctx, ids)
	}

	entityID, _ := params["entity_id"].(string)
	if entityID == "" {
		return nil, fmt.Errorf("either post_ids or entity_id is required")
	}

	sinceHours := 24
	if v := intParam(params, "since_hours"); v > 0 {
		sinceHours = v
	}
	since := s.now().Add(-time.Duration(sinceHours) * time.Hour)

	return s.posts.List(ctx, models.PostQuery{
		EntityID: &entityID,
		Since:    &since,
		Limit:    500,
	})
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
