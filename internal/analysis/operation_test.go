package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/polisight/polisight/internal/models"
)

type stubAnalyzer struct {
	result *Result
	err    error
	calls  int
}

func (a *stubAnalyzer) Analyze(ctx context.Context, text string, types []models.AnalysisType) (*Result, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

func (a *stubAnalyzer) ModelName() string { return "stub-model" }

type memPostStore struct {
	posts []models.SocialPost
}

func (s *memPostStore) GetByIDs(ctx context.Context, ids []string) ([]models.SocialPost, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.SocialPost
	for _, p := range s.posts {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memPostStore) List(ctx context.Context, query models.PostQuery) ([]models.SocialPost, error) {
	var out []models.SocialPost
	for _, p := range s.posts {
		if query.EntityID != nil && p.EntityID != *query.EntityID {
			continue
		}
		if query.Since != nil && p.PublishedAt.Before(*query.Since) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type memAnalysisStore struct {
	analyses      map[string]*models.ContentAnalysis
	relationships []models.EntityRelationship
}

func newMemAnalysisStore() *memAnalysisStore {
	return &memAnalysisStore{analyses: make(map[string]*models.ContentAnalysis)}
}

func (s *memAnalysisStore) StoreAnalysis(ctx context.Context, analysis *models.ContentAnalysis) error {
	s.analyses[analysis.PostID] = analysis
	return nil
}

func (s *memAnalysisStore) GetAnalysisByPost(ctx context.Context, postID string) (*models.ContentAnalysis, error) {
	return s.analyses[postID], nil
}

func (s *memAnalysisStore) StoreRelationship(ctx context.Context, rel *models.EntityRelationship) error {
	s.relationships = append(s.relationships, *rel)
	return nil
}

type memEntityStore struct {
	entities []models.PoliticalEntity
}

func (s *memEntityStore) GetByIDs(ctx context.Context, ids []string) ([]models.PoliticalEntity, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.PoliticalEntity
	for _, e := range s.entities {
		if want[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memEntityStore) List(ctx context.Context, entityType *models.EntityType, country *string, limit, offset int) ([]models.PoliticalEntity, error) {
	return s.entities, nil
}

func newTestService(analyzer Analyzer, posts *memPostStore, analyses *memAnalysisStore, entities *memEntityStore) *Service {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewService(analyzer, posts, analyses, entities, logger)
	svc.now = func() time.Time { return time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC) }
	counter := 0
	svc.newID = func() string {
		counter++
		return fmt.Sprintf("analysis-%d", counter)
	}
	return svc
}

func TestAnalyzeContentStoresAnalyses(t *testing.T) {
	analyzer := &stubAnalyzer{result: &Result{
		SentimentScore:    0.6,
		EmotionalTone:     "hopeful",
		Topics:            []string{"economy"},
		EntitiesMentioned: []string{"Jane Doe"},
	}}
	posts := &memPostStore{posts: []models.SocialPost{
		{ID: "p1", Content: "post one"},
		{ID: "p2", Content: "post two"},
	}}
	analyses := newMemAnalysisStore()
	svc := newTestService(analyzer, posts, analyses, &memEntityStore{})

	out, err := svc.AnalyzeContentOperation(context.Background(), map[string]any{
		"post_ids": []any{"p1", "p2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := out.(AnalyzeResult)
	if result.Analyzed != 2 {
		t.Errorf("expected 2 analyzed, got %d", result.Analyzed)
	}

	stored := analyses.analyses["p1"]
	if stored == nil {
		t.Fatal("expected analysis stored for p1")
	}
	if stored.SentimentScore != 0.6 || stored.SentimentLabel != "positive" {
		t.Errorf("unexpected sentiment: %f %s", stored.SentimentScore, stored.SentimentLabel)
	}
	if stored.Model != "stub-model" {
		t.Errorf("unexpected model: %s", stored.Model)
	}
}

func TestAnalyzeContentSkipsAlreadyAnalyzed(t *testing.T) {
	analyzer := &stubAnalyzer{result: &Result{}}
	posts := &memPostStore{posts: []models.SocialPost{{ID: "p1", Content: "text"}}}
	analyses := newMemAnalysisStore()
	analyses.analyses["p1"] = &models.ContentAnalysis{ID: "old", PostID: "p1"}
	svc := newTestService(analyzer, posts, analyses, &memEntityStore{})

	out, err := svc.AnalyzeContentOperation(context.Background(), map[string]any{
		"post_ids": []any{"p1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := out.(AnalyzeResult)
	if result.Skipped != 1 || result.Analyzed != 0 {
		t.Errorf("expected the post to be skipped, got %+v", result)
	}
	if analyzer.calls != 0 {
		t.Errorf("expected no analyzer calls, got %d", analyzer.calls)
	}
}

func TestAnalyzeContentReanalyze(t *testing.T) {
	analyzer := &stubAnalyzer{result: &Result{SentimentScore: -0.4}}
	posts := &memPostStore{posts: []models.SocialPost{{ID: "p1", Content: "text"}}}
	analyses := newMemAnalysisStore()
	analyses.analyses["p1"] = &models.ContentAnalysis{ID: "old", PostID: "p1"}
	svc := newTestService(analyzer, posts, analyses, &memEntityStore{})

	out, err := svc.AnalyzeContentOperation(context.Background(), map[string]any{
		"post_ids":  []any{"p1"},
		"reanalyze": true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(AnalyzeResult).Analyzed != 1 {
		t.Error("expected the post to be reanalyzed")
	}
}

func TestAnalyzeContentRequiresSelection(t *testing.T) {
	svc := newTestService(&stubAnalyzer{}, &memPostStore{}, newMemAnalysisStore(), &memEntityStore{})

	if _, err := svc.AnalyzeContentOperation(context.Background(), map[string]any{}); err == nil {
		t.Error("expected error without post_ids or entity_id")
	}
	if _, err := svc.AnalyzeContentOperation(context.Background(), map[string]any{
		"post_ids":       []any{"p1"},
		"analysis_types": []any{"bogus"},
	}); err == nil {
		t.Error("expected error for unknown analysis type")
	}
}

func TestAnalyzeContentAllFailuresIsError(t *testing.T) {
	analyzer := &stubAnalyzer{err: fmt.Errorf("model unavailable")}
	posts := &memPostStore{posts: []models.SocialPost{{ID: "p1", Content: "text"}}}
	svc := newTestService(analyzer, posts, newMemAnalysisStore(), &memEntityStore{})

	if _, err := svc.AnalyzeContentOperation(context.Background(), map[string]any{
		"post_ids": []any{"p1"},
	}); err == nil {
		t.Error("expected error when every post fails")
	}
}

func TestAnalyzeRelationshipsFromCoMentions(t *testing.T) {
	now := time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)
	entities := &memEntityStore{entities: []models.PoliticalEntity{
		{ID: "ent-a", Name: "Jane Doe"},
		{ID: "ent-b", Name: "John Smith"},
	}}
	posts := &memPostStore{posts: []models.SocialPost{
		{ID: "p1", EntityID: "ent-a", Content: "Debated John Smith on healthcare today", PublishedAt: now.Add(-time.Hour)},
		{ID: "p2", EntityID: "ent-a", Content: "Great rally this morning", PublishedAt: now.Add(-2 * time.Hour)},
		{ID: "p3", EntityID: "ent-b", Content: "My opponent has no plan", PublishedAt: now.Add(-time.Hour)},
	}}
	analyses := newMemAnalysisStore()
	analyses.analyses["p1"] = &models.ContentAnalysis{
		PostID:         "p1",
		SentimentScore: -0.5,
		KeyEntities:    []string{"John Smith", "healthcare"},
	}
	svc := newTestService(&stubAnalyzer{}, posts, analyses, entities)

	out, err := svc.AnalyzeRelationshipsOperation(context.Background(), map[string]any{
		"time_period": "last_week",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := out.(RelationshipResult)
	if result.Relationships != 1 {
		t.Fatalf("expected 1 relationship, got %d", result.Relationships)
	}

	rel := analyses.relationships[0]
	if rel.SourceEntityID != "ent-a" || rel.TargetEntityID != "ent-b" {
		t.Errorf("unexpected relationship direction: %s -> %s", rel.SourceEntityID, rel.TargetEntityID)
	}
	if rel.CoMentions != 1 {
		t.Errorf("expected 1 co-mention, got %d", rel.CoMentions)
	}
	if rel.AvgSentiment != -0.5 {
		t.Errorf("expected avg sentiment -0.5, got %f", rel.AvgSentiment)
	}
	if rel.TimePeriod != "last_week" {
		t.Errorf("unexpected time period: %s", rel.TimePeriod)
	}
}

func TestAnalyzeRelationshipsNeedsTwoEntities(t *testing.T) {
	entities := &memEntityStore{entities: []models.PoliticalEntity{{ID: "ent-a", Name: "Jane Doe"}}}
	svc := newTestService(&stubAnalyzer{}, &memPostStore{}, newMemAnalysisStore(), entities)

	if _, err := svc.AnalyzeRelationshipsOperation(context.Background(), map[string]any{}); err == nil {
		t.Error("expected error with a single entity")
	}
}

func TestAnalyzeRelationshipsRejectsUnknownPeriod(t *testing.T) {
	entities := &memEntityStore{entities: []models.PoliticalEntity{
		{ID: "ent-a", Name: "Jane Doe"},
		{ID: "ent-b", Name: "John Smith"},
	}}
	svc := newTestService(&stubAnalyzer{}, &memPostStore{}, newMemAnalysisStore(), entities)

	if _, err := svc.AnalyzeRelationshipsOperation(context.Background(), map[string]any{
		"time_period": "fortnight",
	}); err == nil {
		t.Error("expected error for unknown time period")
	}
}

func TestKeywordAnalyzer(t *testing.T) {
	analyzer := NewKeywordAnalyzer()

	result, err := analyzer.Analyze(context.Background(), "A great win for our movement, so proud", []models.AnalysisType{models.AnalysisSentiment})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SentimentScore <= 0 {
		t.Errorf("expected positive sentiment, got %f", result.SentimentScore)
	}

	result, err = analyzer.Analyze(context.Background(), "This corrupt disaster is a shame", []models.AnalysisType{models.AnalysisSentiment})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SentimentScore >= 0 {
		t.Errorf("expected negative sentiment, got %f", result.SentimentScore)
	}

	result, err = analyzer.Analyze(context.Background(), "Meeting with Jane Doe tomorrow", []models.AnalysisType{models.AnalysisEntities})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.EntitiesMentioned) == 0 {
		t.Error("expected capitalized words to be extracted as entities")
	}
}
