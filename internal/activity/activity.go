package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	globalStreamKey = "activity:global"
	entityStreamKey = "activity:entity:%s"
	maxStreamLength = 1000
	trimThreshold   = 1.2
	streamTTL       = 7 * 24 * time.Hour
)

// Entry is one recorded activity in a stream.
type Entry struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	EntityID  string         `json:"entity_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Service keeps short-lived activity streams in Redis. Streams are
// capped lists, trimmed once they overshoot the cap, and expire after
// a week of inactivity. Activity recording is best-effort: a Redis
// outage must never fail the operation being recorded.
type Service struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an activity service over the given Redis client.
func NewService(client *redis.Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger, now: time.Now}
}

// Record adds an activity to the global stream and, when entityID is
// set, to that entity's stream.
func (s *Service) Record(ctx context.Context, activityType, entityID string, data map[string]any) {
	if s == nil || s.client == nil {
		return
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Type:      activityType,
		EntityID:  entityID,
		Data:      data,
		Timestamp: s.now().UTC(),
	}

	serialized, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("failed to serialize activity", "type", activityType, "error", err)
		return
	}

	keys := []string{globalStreamKey}
	if entityID != "" {
		keys = append(keys, fmt.Sprintf(entityStreamKey, entityID))
	}

	for _, key := range keys {
		if err := s.push(ctx, key, serialized); err != nil {
			s.logger.Warn("failed to record activity", "key", key, "error", err)
		}
	}
}

func (s *Service) push(ctx context.Context, key string, serialized []byte) error {
	if err := s.client.LPush(ctx, key, serialized).Err(); err != nil {
		return err
	}

	length, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return err
	}
	if float64(length) > maxStreamLength*trimThreshold {
		if err := s.client.LTrim(ctx, key, 0, maxStreamLength-1).Err(); err != nil {
			return err
		}
	}

	return s.client.Expire(ctx, key, streamTTL).Err()
}

// Recent returns the newest activities from the global stream, or from
// one entity's stream when entityID is set.
func (s *Service) Recent(ctx context.Context, entityID string, limit int) ([]Entry, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	if limit <= 0 || limit > maxStreamLength {
		limit = 50
	}

	key := globalStreamKey
	if entityID != "" {
		key = fmt.Sprintf(entityStreamKey, entityID)
	}

	raw, err := s.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read activity stream %s: %w", key, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
