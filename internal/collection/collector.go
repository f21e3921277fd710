package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/polisight/polisight/internal/models"
)

// Collector fetches recent posts for a tracked account on one platform.
type Collector interface {
	Platform() models.Platform
	Collect(ctx context.Context, account models.SocialAccount, since time.Time, maxItems int) ([]models.SocialPost, error)
}

// ActorRunner is the subset of Client used by the platform collectors.
// Tests substitute a stub that returns canned dataset items.
type ActorRunner interface {
	RunActorAndCollect(ctx context.Context, actorID string, input map[string]any) ([]map[string]any, error)
}

// NewCollector returns the collector for the given platform.
func NewCollector(platform models.Platform, runner ActorRunner) (Collector, error) {
	switch platform {
	case models.PlatformTwitter:
		return &TwitterCollector{runner: runner}, nil
	case models.PlatformFacebook:
		return &FacebookCollector{runner: runner}, nil
	case models.PlatformInstagram:
		return &InstagramCollector{runner: runner}, nil
	case models.PlatformTikTok:
		return &TikTokCollector{runner: runner}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}

// Raw item accessors. Actor datasets are loosely typed JSON, so the
// transforms read fields defensively and skip items missing the
// essentials.

func getString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := item[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func getInt(item map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := item[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case int64:
			return int(v)
		}
	}
	return 0
}

func getMap(item map[string]any, key string) map[string]any {
	if v, ok := item[key].(map[string]any); ok {
		return v
	}
	return nil
}

func getTime(item map[string]any, keys ...string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"Mon Jan 02 15:04:05 -0700 2006",
		"2006-01-02 15:04:05",
	}
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			for _, layout := range layouts {
				if t, err := time.Parse(layout, v); err == nil {
					return t.UTC()
				}
			}
		case float64:
			return time.Unix(int64(v), 0).UTC()
		}
	}
	return time.Time{}
}

func getStringSlice(item map[string]any, key string) []string {
	raw, ok := item[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
