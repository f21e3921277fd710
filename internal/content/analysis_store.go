package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/polisight/polisight/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AnalysisStore persists content analyses and entity relationships in
// MongoDB.
type AnalysisStore struct {
	analyses      *mongo.Collection
	relationships *mongo.Collection
}

// NewAnalysisStore creates an analysis store over the content database.
func NewAnalysisStore(db *mongo.Database) *AnalysisStore {
	return &AnalysisStore{
		analyses:      db.Collection(collectionAnalyses),
		relationships: db.Collection(collectionRelationships),
	}
}

// StoreAnalysis inserts a content analysis result.
func (s *AnalysisStore) StoreAnalysis(ctx context.Context, analysis *models.ContentAnalysis) error {
	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}
	if analysis.AnalyzedAt.IsZero() {
		analysis.AnalyzedAt = time.Now()
	}

	if _, err := s.analyses.InsertOne(ctx, analysis); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysisByPost returns the latest analysis for a post, or nil.
func (s *AnalysisStore) GetAnalysisByPost(ctx context.Context, postID string) (*models.ContentAnalysis, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "analyzed_at", Value: -1}})

	var analysis models.ContentAnalysis
	err := s.analyses.FindOne(ctx, bson.M{"post_id": postID}, opts).Decode(&analysis)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find analysis: %w", err)
	}
	return &analysis, nil
}

// ListAnalyses returns analyses for the given post identifiers.
func (s *AnalysisStore) ListAnalyses(ctx context.Context, postIDs []string) ([]models.ContentAnalysis, error) {
	cursor, err := s.analyses.Find(ctx, bson.M{"post_id": bson.M{"$in": postIDs}})
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer cursor.Close(ctx)

	var analyses []models.ContentAnalysis
	if err := cursor.All(ctx, &analyses); err != nil {
		return nil, fmt.Errorf("decode analyses: %w", err)
	}
	return analyses, nil
}

// ListAnalysesSince returns analyses recorded after the cutoff.
func (s *AnalysisStore) ListAnalysesSince(ctx context.Context, since time.Time, limit int) ([]models.ContentAnalysis, error) {
	if limit <= 0 {
		limit = 1000
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "analyzed_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.analyses.Find(ctx, bson.M{"analyzed_at": bson.M{"$gte": since}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer cursor.Close(ctx)

	var analyses []models.ContentAnalysis
	if err := cursor.All(ctx, &analyses); err != nil {
		return nil, fmt.Errorf("decode analyses: %w", err)
	}
	return analyses, nil
}

// StoreRelationship inserts an entity relationship record.
func (s *AnalysisStore) StoreRelationship(ctx context.Context, rel *models.EntityRelationship) error {
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	if rel.AnalyzedAt.IsZero() {
		rel.AnalyzedAt = time.Now()
	}

	if _, err := s.relationships.InsertOne(ctx, rel); err != nil {
		return fmt.Errorf("insert relationship: %w", err)
	}
	return nil
}

// ListRelationships returns relationships involving any of the given
// entities, newest first.
func (s *AnalysisStore) ListRelationships(ctx context.Context, entityIDs []string, limit int) ([]models.EntityRelationship, error) {
	if limit <= 0 {
		limit = 100
	}

	filter := bson.M{}
	if len(entityIDs) > 0 {
		filter["$or"] = bson.A{
			bson.M{"source_entity_id": bson.M{"$in": entityIDs}},
			bson.M{"target_entity_id": bson.M{"$in": entityIDs}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "analyzed_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.relationships.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer cursor.Close(ctx)

	var rels []models.EntityRelationship
	if err := cursor.All(ctx, &rels); err != nil {
		return nil, fmt.Errorf("decode relationships: %w", err)
	}
	return rels, nil
}
