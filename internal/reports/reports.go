package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/polisight/polisight/internal/models"
)

// PostStore is the post access needed by report generation.
type PostStore interface {
	List(ctx context.Context, query models.PostQuery) ([]models.SocialPost, error)
}

// AnalysisStore resolves the stored analyses of the reported posts.
type AnalysisStore interface {
	ListAnalyses(ctx context.Context, postIDs []string) ([]models.ContentAnalysis, error)
}

// EntityStore resolves the entities a report covers.
type EntityStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.PoliticalEntity, error)
	List(ctx context.Context, entityType *models.EntityType, country *string, limit, offset int) ([]models.PoliticalEntity, error)
}

// ReportRepository persists generated reports.
type ReportRepository interface {
	Store(ctx context.Context, report *models.Report) error
}

// Service builds aggregate reports over collected and analyzed posts.
type Service struct {
	posts    PostStore
	analyses AnalysisStore
	entities EntityStore
	reports  ReportRepository
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a report service.
func NewService(posts PostStore, analyses AnalysisStore, entities EntityStore, reports ReportRepository, logger *slog.Logger) *Service {
	return &Service{
		posts:    posts,
		analyses: analyses,
		entities: entities,
		reports:  reports,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// GenerateOperation is the task operation that builds and stores a report.
//
// Params:
//
//	report_type (required) one of activity, influence, sentiment
//	entity_ids  (optional) entities to cover, default all tracked
//	time_period (optional) one of last_24h, last_week, last_30_days
func (s *Service) GenerateOperation(ctx context.Context, params map[string]any) (any, error) {
	reportTypeRaw, _ := params["report_type"].(string)
	if !models.ValidReportType(reportTypeRaw) {
		return nil, fmt.Errorf("unknown report type: %q", reportTypeRaw)
	}
	reportType := models.ReportType(reportTypeRaw)

	periodRaw, _ := params["time_period"].(string)
	period := models.TimePeriod(periodRaw)
	if periodRaw == "" {
		period = models.PeriodLast30Days
	}
	since, until, err := period.Window(s.now())
	if err != nil {
		return nil, err
	}

	entities, err := s.selectEntities(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("no entities to report on")
	}

	var payload map[string]any
	switch reportType {
	case models.ReportActivity:
		payload, err = s.activityPayload(ctx, entities, since, until)
	case models.ReportInfluence:
		payload, err = s.influencePayload(ctx, entities, since, until)
	case models.ReportSentiment:
		payload, err = s.sentimentPayload(ctx, entities, since, until)
	}
	if err != nil {
		return nil, err
	}

	entityIDs := make([]string, len(entities))
	for i, e := range entities {
		entityIDs[i] = e.ID
	}

	report := &models.Report{
		ID:          s.newID(),
		ReportType:  reportType,
		TimePeriod:  period,
		EntityIDs:   entityIDs,
		Payload:     payload,
		GeneratedAt: s.now(),
	}
	if err := s.reports.Store(ctx, report); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}

	s.logger.Info("report generated",
		"report_id", report.ID,
		"type", reportType,
		"period", period,
		"entities", len(entityIDs))
	return report, nil
}

func (s *Service) selectEntities(ctx context.Context, params map[string]any) ([]models.PoliticalEntity, error) {
	if raw, ok := params["entity_ids"]; ok {
		var ids []string
		switch v := raw.(type) {
		case []string:
			ids = v
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					ids = append(ids, s)
				}
			}
		}
		if len(ids) > 0 {
			return s.entities.GetByIDs(ctx, ids)
		}
	}
	return s.entities.List(ctx, nil, nil, 100, 0)
}

// activityPayload summarizes posting volume per entity and platform.
func (s *Service) activityPayload(ctx context.Context, entities []models.PoliticalEntity, since, until time.Time) (map[string]any, error) {
	perEntity := make([]map[string]any, 0, len(entities))
	totalPosts := 0
	platformTotals := make(map[string]int)

	for _, entity := range entities {
		posts, err := s.entityPosts(ctx, entity.ID, since, until)
		if err != nil {
			return nil, err
		}

		byPlatform := make(map[string]int)
		engagement := 0
		for _, post := range posts {
			byPlatform[string(post.Platform)]++
			platformTotals[string(post.Platform)]++
			engagement += post.Engagement.Total()
		}
		totalPosts += len(posts)

		perEntity = append(perEntity, map[string]any{
			"entity_id":        entity.ID,
			"entity_name":      entity.Name,
			"posts":            len(posts),
			"by_platform":      byPlatform,
			"total_engagement": engagement,
		})
	}

	sort.Slice(perEntity, func(i, j int) bool {
		return perEntity[i]["posts"].(int) > perEntity[j]["posts"].(int)
	})

	return map[string]any{
		"total_posts": totalPosts,
		"by_platform": platformTotals,
		"entities":    perEntity,
	}, nil
}

// influencePayload ranks entities by engagement and surfaces their top posts.
func (s *Service) influencePayload(ctx context.Context, entities []models.PoliticalEntity, since, until time.Time) (map[string]any, error) {
	ranking := make([]map[string]any, 0, len(entities))

	for _, entity := range entities {
		posts, err := s.entityPosts(ctx, entity.ID, since, until)
		if err != nil {
			return nil, err
		}

		engagement := 0
		var top *models.SocialPost
		for i := range posts {
			engagement += posts[i].Engagement.Total()
			if top == nil || posts[i].Engagement.Total() > top.Engagement.Total() {
				top = &posts[i]
			}
		}

		entry := map[string]any{
			"entity_id":        entity.ID,
			"entity_name":      entity.Name,
			"posts":            len(posts),
			"total_engagement": engagement,
		}
		if len(posts) > 0 {
			entry["avg_engagement"] = float64(engagement) / float64(len(posts))
		}
		if top != nil {
			entry["top_post"] = map[string]any{
				"post_id":    top.ID,
				"platform":   top.Platform,
				"content":    top.Content,
				"engagement": top.Engagement.Total(),
				"url":        top.URL,
			}
		}
		ranking = append(ranking, entry)
	}

	sort.Slice(ranking, func(i, j int) bool {
		return ranking[i]["total_engagement"].(int) > ranking[j]["total_engagement"].(int)
	})

	return map[string]any{"ranking": ranking}, nil
}

// sentimentPayload aggregates stored sentiment analyses per entity.
func (s *Service) sentimentPayload(ctx context.Context, entities []models.PoliticalEntity, since, until time.Time) (map[string]any, error) {
	perEntity := make([]map[string]any, 0, len(entities))

	for _, entity := range entities {
		posts, err := s.entityPosts(ctx, entity.ID, since, until)
		if err != nil {
			return nil, err
		}

		postIDs := make([]string, len(posts))
		for i, post := range posts {
			postIDs[i] = post.ID
		}

		analyses, err := s.analyses.ListAnalyses(ctx, postIDs)
		if err != nil {
			return nil, fmt.Errorf("list analyses for %s: %w", entity.ID, err)
		}

		labels := map[string]int{"positive": 0, "neutral": 0, "negative": 0}
		topics := make(map[string]int)
		var scoreSum float64
		for _, analysis := range analyses {
			scoreSum += analysis.SentimentScore
			labels[analysis.SentimentLabel]++
			for _, topic := range analysis.Topics {
				topics[topic]++
			}
		}

		entry := map[string]any{
			"entity_id":      entity.ID,
			"entity_name":    entity.Name,
			"posts":          len(posts),
			"analyzed_posts": len(analyses),
			"labels":         labels,
			"top_topics":     topTopics(topics, 5),
		}
		if len(analyses) > 0 {
			avg := scoreSum / float64(len(analyses))
			entry["avg_sentiment"] = avg
			entry["sentiment_label"] = models.SentimentLabel(avg)
		}
		perEntity = append(perEntity, entry)
	}

	return map[string]any{"entities": perEntity}, nil
}

func (s *Service) entityPosts(ctx context.Context, entityID string, since, until time.Time) ([]models.SocialPost, error) {
	posts, err := s.posts.List(ctx, models.PostQuery{
		EntityID: &entityID,
		Since:    &since,
		Until:    &until,
		Limit:    1000,
	})
	if err != nil {
		return nil, fmt.Errorf("list posts for %s: %w", entityID, err)
	}
	return posts, nil
}

func topTopics(counts map[string]int, n int) []string {
	type topicCount struct {
		topic string
		count int
	}
	all := make([]topicCount, 0, len(counts))
	for topic, count := range counts {
		all = append(all, topicCount{topic, count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].topic < all[j].topic
	})
	if len(all) > n {
		all = all[:n]
	}
	topics := make([]string, len(all))
	for i, tc := range all {
		topics[i] = tc.topic
	}
	return topics
}
