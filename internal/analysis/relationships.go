package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/polisight/polisight/internal/models"
)

const relationshipCoMention = "co_mention"

// RelationshipResult summarizes one relationship-analysis run.
type RelationshipResult struct {
	EntitiesExamined int `json:"entities_examined"`
	PostsExamined    int `json:"posts_examined"`
	Relationships    int `json:"relationships"`
}

// AnalyzeRelationshipsOperation is the task operation that derives
// entity relationships from co-mentions in analyzed posts: when the
// posts of one tracked entity repeatedly name another tracked entity,
// a directed relationship is recorded with the mention count and the
// average sentiment of the mentioning posts.
//
// Params:
//
//	entity_ids  (optional) entities to examine, default all tracked
//	time_period (optional) one of last_24h, last_week, last_30_days
func (s *Service) AnalyzeRelationshipsOperation(ctx context.Context, params map[string]any) (any, error) {
	entities, err := s.selectEntities(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(entities) < 2 {
		return nil, fmt.Errorf("relationship analysis needs at least two tracked entities, have %d", len(entities))
	}

	periodRaw, _ := params["time_period"].(string)
	period := models.TimePeriod(periodRaw)
	if periodRaw == "" {
		period = models.PeriodLast30Days
	}
	since, until, err := period.Window(s.now())
	if err != nil {
		return nil, err
	}

	result := RelationshipResult{EntitiesExamined: len(entities)}

	for _, source := range entities {
		posts, err := s.posts.List(ctx, models.PostQuery{
			EntityID: &source.ID,
			Since:    &since,
			Until:    &until,
			Limit:    500,
		})
		if err != nil {
			return nil, fmt.Errorf("list posts for %s: %w", source.ID, err)
		}
		result.PostsExamined += len(posts)

		mentions := s.countMentions(ctx, posts, entities, source.ID)

		for targetID, m := range mentions {
			if m.count == 0 {
				continue
			}
			rel := &models.EntityRelationship{
				ID:               s.newID(),
				SourceEntityID:   source.ID,
				TargetEntityID:   targetID,
				RelationshipType: relationshipCoMention,
				Strength:         mentionStrength(m.count, len(posts)),
				CoMentions:       m.count,
				AvgSentiment:     m.sentimentSum / float64(m.count),
				TimePeriod:       string(period),
				AnalyzedAt:       s.now(),
			}
			if err := s.analyses.StoreRelationship(ctx, rel); err != nil {
				return nil, fmt.Errorf("store relationship %s -> %s: %w", source.ID, targetID, err)
			}
			result.Relationships++
		}
	}

	s.logger.Info("relationship analysis finished",
		"entities", result.EntitiesExamined,
		"posts", result.PostsExamined,
		"relationships", result.Relationships)
	return result, nil
}

type mentionStats struct {
	count        int
	sentimentSum float64
}

// countMentions tallies, per target entity, how many of the posts name it.
// A post names an entity when the entity's name appears in the post text or
// in the key entities of the post's stored analysis.
func (s *Service) countMentions(ctx context.Context, posts []models.SocialPost, entities []models.PoliticalEntity, sourceID string) map[string]*mentionStats {
	mentions := make(map[string]*mentionStats)

	for i := range posts {
		post := &posts[i]

		var keyEntities []string
		var sentiment float64
		if analysis, err := s.analyses.GetAnalysisByPost(ctx, post.ID); err == nil && analysis != nil {
			keyEntities = analysis.KeyEntities
			sentiment = analysis.SentimentScore
		}

		for _, target := range entities {
			if target.ID == sourceID {
				continue
			}
			if !postMentions(post.Content, keyEntities, target.Name) {
				continue
			}
			m := mentions[target.ID]
			if m == nil {
				m = &mentionStats{}
				mentions[target.ID] = m
			}
			m.count++
			m.sentimentSum += sentiment
		}
	}

	return mentions
}

func postMentions(content string, keyEntities []string, name string) bool {
	lower := strings.ToLower(name)
	for _, entity := range keyEntities {
		if strings.Contains(strings.ToLower(entity), lower) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(content), lower)
}

// mentionStrength maps a mention count to a 0-1 scale relative to the
// post volume, saturating at one mention per five posts.
func mentionStrength(count, posts int) float64 {
	if posts == 0 {
		return 0
	}
	strength := float64(count) * 5 / float64(posts)
	if strength > 1 {
		return 1
	}
	return strength
}

func (s *Service) selectEntities(ctx context.Context, params map[string]any) ([]models.PoliticalEntity, error) {
	if ids := stringSliceParam(params, "entity_ids"); len(ids) > 0 {
		return s.entities.GetByIDs(ctx, ids)
	}
	return s.entities.List(ctx, nil, nil, 100, 0)
}
