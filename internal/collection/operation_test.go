package collection

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/polisight/polisight/internal/models"
)

type stubRunner struct {
	items map[string][]map[string]any
	err   error
	calls []string
}

func (r *stubRunner) RunActorAndCollect(ctx context.Context, actorID string, input map[string]any) ([]map[string]any, error) {
	r.calls = append(r.calls, actorID)
	if r.err != nil {
		return nil, r.err
	}
	return r.items[actorID], nil
}

type stubEntityStore struct {
	entity       *models.PoliticalEntity
	markedAt     time.Time
	markedEntity string
}

func (s *stubEntityStore) GetByID(ctx context.Context, id string) (*models.PoliticalEntity, error) {
	if s.entity != nil && s.entity.ID == id {
		return s.entity, nil
	}
	return nil, nil
}

func (s *stubEntityStore) MarkCollected(ctx context.Context, id string, at time.Time) error {
	s.markedEntity = id
	s.markedAt = at
	return nil
}

type stubPostStore struct {
	stored []models.SocialPost
	seen   map[string]bool
}

func (s *stubPostStore) Store(ctx context.Context, post *models.SocialPost) (bool, error) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	key := string(post.Platform) + "/" + post.PlatformPostID
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	s.stored = append(s.stored, *post)
	return true, nil
}

func testEntity() *models.PoliticalEntity {
	return &models.PoliticalEntity{
		ID:         "ent-1",
		Name:       "Jane Doe",
		EntityType: models.EntityTypePolitician,
		Country:    "US",
		SocialAccounts: []models.SocialAccount{
			{Platform: models.PlatformTwitter, Username: "janedoe"},
			{Platform: models.PlatformInstagram, Username: "janedoe"},
		},
	}
}

func opTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCollectOperationStoresPosts(t *testing.T) {
	runner := &stubRunner{
		items: map[string][]map[string]any{
			twitterActorID: {
				{"id": "t1", "text": "tweet one", "author": map[string]any{"userName": "janedoe"}},
				{"id": "t2", "text": "tweet two", "author": map[string]any{"userName": "janedoe"}},
			},
			instagramActorID: {
				{"shortCode": "i1", "caption": "gram one", "ownerUsername": "janedoe"},
			},
		},
	}
	entities := &stubEntityStore{entity: testEntity()}
	posts := &stubPostStore{}
	svc := NewService(runner, entities, posts, opTestLogger())

	out, err := svc.CollectOperation(context.Background(), map[string]any{"entity_id": "ent-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, ok := out.(CollectResult)
	if !ok {
		t.Fatalf("unexpected result type %T", out)
	}
	if result.Collected != 3 || result.Stored != 3 {
		t.Errorf("expected 3 collected and stored, got %+v", result)
	}
	if result.ByPlatform["twitter"] != 2 || result.ByPlatform["instagram"] != 1 {
		t.Errorf("unexpected platform breakdown: %v", result.ByPlatform)
	}
	for _, post := range posts.stored {
		if post.EntityID != "ent-1" {
			t.Errorf("expected posts tagged with entity, got %q", post.EntityID)
		}
	}
	if entities.markedEntity != "ent-1" {
		t.Error("expected entity to be marked as collected")
	}
}

func TestCollectOperationPlatformFilter(t *testing.T) {
	runner := &stubRunner{
		items: map[string][]map[string]any{
			twitterActorID: {
				{"id": "t1", "text": "tweet", "author": map[string]any{"userName": "janedoe"}},
			},
		},
	}
	svc := NewService(runner, &stubEntityStore{entity: testEntity()}, &stubPostStore{}, opTestLogger())

	_, err := svc.CollectOperation(context.Background(), map[string]any{
		"entity_id": "ent-1",
		"platforms": []any{"twitter"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0] != twitterActorID {
		t.Errorf("expected only the twitter actor to run, got %v", runner.calls)
	}
}

func TestCollectOperationCountsDuplicates(t *testing.T) {
	runner := &stubRunner{
		items: map[string][]map[string]any{
			twitterActorID: {
				{"id": "t1", "text": "tweet", "author": map[string]any{"userName": "janedoe"}},
				{"id": "t1", "text": "tweet", "author": map[string]any{"userName": "janedoe"}},
			},
		},
	}
	entity := testEntity()
	entity.SocialAccounts = entity.SocialAccounts[:1]
	svc := NewService(runner, &stubEntityStore{entity: entity}, &stubPostStore{}, opTestLogger())

	out, err := svc.CollectOperation(context.Background(), map[string]any{"entity_id": "ent-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := out.(CollectResult)
	if result.Stored != 1 || result.Duplicates != 1 {
		t.Errorf("expected 1 stored and 1 duplicate, got %+v", result)
	}
}

func TestCollectOperationMissingEntity(t *testing.T) {
	svc := NewService(&stubRunner{}, &stubEntityStore{}, &stubPostStore{}, opTestLogger())

	if _, err := svc.CollectOperation(context.Background(), map[string]any{"entity_id": "nope"}); err == nil {
		t.Fatal("expected error for unknown entity")
	}
	if _, err := svc.CollectOperation(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error for missing entity_id")
	}
}

func TestCollectOperationAllAccountsFailing(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("scraper down")}
	svc := NewService(runner, &stubEntityStore{entity: testEntity()}, &stubPostStore{}, opTestLogger())

	if _, err := svc.CollectOperation(context.Background(), map[string]any{"entity_id": "ent-1"}); err == nil {
		t.Fatal("expected error when every account fails")
	}
}
