package content

import (
	"context"
	"fmt"
	"time"

	"github.com/polisight/polisight/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names in the content database.
const (
	collectionEntities      = "political_entities"
	collectionPosts         = "social_posts"
	collectionAnalyses      = "content_analyses"
	collectionRelationships = "entity_relationships"
)

// Connect opens the Mongo content database and verifies connectivity.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client.Database(cfg.Database), nil
}
