package vector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/polisight/polisight/internal/models"
)

// PostStore is the post access needed by the vector service.
type PostStore interface {
	ListWithoutEmbeddings(ctx context.Context, limit int) ([]models.SocialPost, error)
	ListWithEmbeddings(ctx context.Context, limit int) ([]models.SocialPost, error)
	SetEmbedding(ctx context.Context, id string, embedding []float32) error
}

// Service embeds stored posts and answers semantic similarity queries.
// Vectors live on the post documents and search scans them in memory;
// at the current collection volumes that is cheaper than running a
// dedicated vector database.
type Service struct {
	embedder Embedder
	posts    PostStore
	logger   *slog.Logger
}

// NewService creates a vector service.
func NewService(embedder Embedder, posts PostStore, logger *slog.Logger) *Service {
	return &Service{embedder: embedder, posts: posts, logger: logger}
}

const embedBatchSize = 32

// IndexPending embeds posts that do not have a vector yet. Returns the
// number of posts embedded.
func (s *Service) IndexPending(ctx context.Context, limit int) (int, error) {
	posts, err := s.posts.ListWithoutEmbeddings(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending posts: %w", err)
	}
	if len(posts) == 0 {
		return 0, nil
	}

	indexed := 0
	for start := 0; start < len(posts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(posts) {
			end = len(posts)
		}
		batch := posts[start:end]

		texts := make([]string, len(batch))
		for i, post := range batch {
			texts[i] = post.Content
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("embed batch: %w", err)
		}

		for i, post := range batch {
			if err := s.posts.SetEmbedding(ctx, post.ID, embeddings[i]); err != nil {
				return indexed, err
			}
			indexed++
		}
	}

	s.logger.Info("embedded posts", "count", indexed)
	return indexed, nil
}

// Match is a search hit with its similarity score.
type Match struct {
	Post  models.SocialPost `json:"post"`
	Score float64           `json:"score"`
}

// Search returns the stored posts most similar to the query text.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	posts, err := s.posts.ListWithEmbeddings(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list embedded posts: %w", err)
	}

	matches := make([]Match, 0, len(posts))
	for _, post := range posts {
		score := cosineSimilarity(queryVec, post.Embedding)
		if math.IsNaN(score) {
			continue
		}
		post.Embedding = nil
		matches = append(matches, Match{Post: post, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns NaN for mismatched or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
