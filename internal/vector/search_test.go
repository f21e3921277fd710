package vector

import (
	"context"
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/polisight/polisight/internal/models"
)

type stubEmbedder struct {
	vectors map[string][]float32
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vectors[text], nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vectors[text]
	}
	return out, nil
}

type stubPostStore struct {
	pending  []models.SocialPost
	embedded []models.SocialPost
	set      map[string][]float32
}

func (s *stubPostStore) ListWithoutEmbeddings(ctx context.Context, limit int) ([]models.SocialPost, error) {
	return s.pending, nil
}

func (s *stubPostStore) ListWithEmbeddings(ctx context.Context, limit int) ([]models.SocialPost, error) {
	return s.embedded, nil
}

func (s *stubPostStore) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	if s.set == nil {
		s.set = make(map[string][]float32)
	}
	s.set[id] = embedding
	return nil
}

func vectorTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{2, 0}, []float32{5, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	if !math.IsNaN(cosineSimilarity([]float32{1, 2}, []float32{1})) {
		t.Error("expected NaN for mismatched lengths")
	}
	if !math.IsNaN(cosineSimilarity([]float32{0, 0}, []float32{1, 1})) {
		t.Error("expected NaN for zero vector")
	}
	if !math.IsNaN(cosineSimilarity(nil, nil)) {
		t.Error("expected NaN for empty vectors")
	}
}

func TestIndexPending(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"first post":  {1, 0},
		"second post": {0, 1},
	}}
	store := &stubPostStore{pending: []models.SocialPost{
		{ID: "p1", Content: "first post"},
		{ID: "p2", Content: "second post"},
	}}
	svc := NewService(embedder, store, vectorTestLogger())

	indexed, err := svc.IndexPending(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if indexed != 2 {
		t.Errorf("expected 2 indexed, got %d", indexed)
	}
	if got := store.set["p1"]; len(got) != 2 || got[0] != 1 {
		t.Errorf("unexpected embedding for p1: %v", got)
	}
}

func TestIndexPendingEmpty(t *testing.T) {
	svc := NewService(&stubEmbedder{}, &stubPostStore{}, vectorTestLogger())

	indexed, err := svc.IndexPending(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if indexed != 0 {
		t.Errorf("expected 0 indexed, got %d", indexed)
	}
}

func TestSearchRanksBySimilarity(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"healthcare policy": {1, 0},
	}}
	store := &stubPostStore{embedded: []models.SocialPost{
		{ID: "p1", Content: "tax cuts", Embedding: []float32{0, 1}},
		{ID: "p2", Content: "hospital funding", Embedding: []float32{0.9, 0.1}},
		{ID: "p3", Content: "mixed", Embedding: []float32{0.5, 0.5}},
	}}
	svc := NewService(embedder, store, vectorTestLogger())

	matches, err := svc.Search(context.Background(), "healthcare policy", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Post.ID != "p2" {
		t.Errorf("expected p2 first, got %s", matches[0].Post.ID)
	}
	if matches[0].Score <= matches[1].Score {
		t.Error("expected matches sorted by descending score")
	}
	if matches[0].Post.Embedding != nil {
		t.Error("expected embeddings stripped from results")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := NewService(&stubEmbedder{}, &stubPostStore{}, vectorTestLogger())

	if _, err := svc.Search(context.Background(), "", 5); err == nil {
		t.Error("expected error for empty query")
	}
}
