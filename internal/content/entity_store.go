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

// EntityStore persists political entities in MongoDB.
type EntityStore struct {
	collection *mongo.Collection
}

// NewEntityStore creates an entity store over the content database.
func NewEntityStore(db *mongo.Database) *EntityStore {
	return &EntityStore{collection: db.Collection(collectionEntities)}
}

// Create inserts a new entity and assigns its identifier.
func (s *EntityStore) Create(ctx context.Context, entity *models.PoliticalEntity) error {
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	now := time.Now()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, entity); err != nil {
		return fmt.Errorf("insert entity: %w", err)
	}
	return nil
}

// GetByID retrieves an entity. Returns nil when no entity exists.
func (s *EntityStore) GetByID(ctx context.Context, id string) (*models.PoliticalEntity, error) {
	var entity models.PoliticalEntity
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entity)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entity: %w", err)
	}
	return &entity, nil
}

// GetByIDs retrieves the entities with the given identifiers.
func (s *EntityStore) GetByIDs(ctx context.Context, ids []string) ([]models.PoliticalEntity, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find entities: %w", err)
	}
	defer cursor.Close(ctx)

	var entities []models.PoliticalEntity
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	return entities, nil
}

// List returns entities ordered by name, optionally filtered by type or
// country.
func (s *EntityStore) List(ctx context.Context, entityType *models.EntityType, country *string, limit, offset int) ([]models.PoliticalEntity, error) {
	if limit <= 0 {
		limit = 100
	}

	filter := bson.M{}
	if entityType != nil {
		filter["entity_type"] = *entityType
	}
	if country != nil {
		filter["country"] = *country
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer cursor.Close(ctx)

	var entities []models.PoliticalEntity
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	return entities, nil
}

// ListDue returns entities whose last collection happened before the cutoff,
// or that were never collected. Used by the collection scheduler.
func (s *EntityStore) ListDue(ctx context.Context, cutoff time.Time, limit int) ([]models.PoliticalEntity, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"metadata.last_collected_at": bson.M{"$exists": false}},
		bson.M{"metadata.last_collected_at": bson.M{"$lt": cutoff.Format(time.RFC3339)}},
	}}

	opts := options.Find().SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list due entities: %w", err)
	}
	defer cursor.Close(ctx)

	var entities []models.PoliticalEntity
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	return entities, nil
}

// Update replaces the mutable fields of an entity.
func (s *EntityStore) Update(ctx context.Context, entity *models.PoliticalEntity) error {
	entity.UpdatedAt = time.Now()

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": entity.ID}, bson.M{
		"$set": bson.M{
			"name":             entity.Name,
			"entity_type":      entity.EntityType,
			"description":      entity.Description,
			"country":          entity.Country,
			"social_accounts":  entity.SocialAccounts,
			"political_stance": entity.PoliticalStance,
			"tags":             entity.Tags,
			"related_entities": entity.RelatedEntities,
			"metadata":         entity.Metadata,
			"updated_at":       entity.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("entity %s not found", entity.ID)
	}
	return nil
}

// MarkCollected records when a collection run last covered the entity.
func (s *EntityStore) MarkCollected(ctx context.Context, id string, at time.Time) error {
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"metadata.last_collected_at": at.Format(time.RFC3339)},
	})
	if err != nil {
		return fmt.Errorf("mark entity collected: %w", err)
	}
	return nil
}

// Delete removes an entity.
func (s *EntityStore) Delete(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("entity %s not found", id)
	}
	return nil
}
