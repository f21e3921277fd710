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

// PostStore persists collected social posts in MongoDB.
type PostStore struct {
	collection *mongo.Collection
}

// NewPostStore creates a post store over the content database.
func NewPostStore(db *mongo.Database) *PostStore {
	return &PostStore{collection: db.Collection(collectionPosts)}
}

// Store inserts a post, skipping platform duplicates. Returns true when the
// post was newly inserted.
func (s *PostStore) Store(ctx context.Context, post *models.SocialPost) (bool, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CollectedAt.IsZero() {
		post.CollectedAt = time.Now()
	}

	// Dedupe on the platform's own identifier.
	if post.PlatformPostID != "" {
		count, err := s.collection.CountDocuments(ctx, bson.M{
			"platform":         post.Platform,
			"platform_post_id": post.PlatformPostID,
		})
		if err != nil {
			return false, fmt.Errorf("check duplicate post: %w", err)
		}
		if count > 0 {
			return false, nil
		}
	}

	if _, err := s.collection.InsertOne(ctx, post); err != nil {
		return false, fmt.Errorf("insert post: %w", err)
	}
	return true, nil
}

// GetByID retrieves a post. Returns nil when no post exists.
func (s *PostStore) GetByID(ctx context.Context, id string) (*models.SocialPost, error) {
	var post models.SocialPost
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

// GetByIDs retrieves the posts with the given identifiers.
func (s *PostStore) GetByIDs(ctx context.Context, ids []string) ([]models.SocialPost, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []models.SocialPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// List returns posts newest first according to the query filters.
func (s *PostStore) List(ctx context.Context, query models.PostQuery) ([]models.SocialPost, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	filter := bson.M{}
	if query.Platform != nil {
		filter["platform"] = *query.Platform
	}
	if query.EntityID != nil {
		filter["entity_id"] = *query.EntityID
	}
	if query.Since != nil || query.Until != nil {
		published := bson.M{}
		if query.Since != nil {
			published["$gte"] = *query.Since
		}
		if query.Until != nil {
			published["$lte"] = *query.Until
		}
		filter["published_at"] = published
	}
	if query.Search != nil {
		filter["content"] = bson.M{"$regex": *query.Search, "$options": "i"}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}}).
		SetSkip(int64(query.Offset)).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []models.SocialPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// ListWithEmbeddings returns posts that carry an embedding vector, for
// similarity search.
func (s *PostStore) ListWithEmbeddings(ctx context.Context, limit int) ([]models.SocialPost, error) {
	if limit <= 0 {
		limit = 1000
	}

	opts := options.Find().SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.M{"embedding.0": bson.M{"$exists": true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list embedded posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []models.SocialPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// ListWithoutEmbeddings returns posts still waiting to be embedded.
func (s *PostStore) ListWithoutEmbeddings(ctx context.Context, limit int) ([]models.SocialPost, error) {
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "collected_at", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"embedding.0": bson.M{"$exists": false}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list unembedded posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []models.SocialPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// SetEmbedding stores the embedding vector for a post.
func (s *PostStore) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"embedding": embedding},
	})
	if err != nil {
		return fmt.Errorf("set post embedding: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("post %s not found", id)
	}
	return nil
}

// Count returns the number of posts matching the query.
func (s *PostStore) Count(ctx context.Context, query models.PostQuery) (int64, error) {
	filter := bson.M{}
	if query.Platform != nil {
		filter["platform"] = *query.Platform
	}
	if query.EntityID != nil {
		filter["entity_id"] = *query.EntityID
	}
	count, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}
