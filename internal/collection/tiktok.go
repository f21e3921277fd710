package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/polisight/polisight/internal/models"
)

const tiktokActorID = "clockworks~tiktok-scraper"

// TikTokCollector collects videos for a tracked account.
type TikTokCollector struct {
	runner ActorRunner
}

func (c *TikTokCollector) Platform() models.Platform {
	return models.PlatformTikTok
}

func (c *TikTokCollector) Collect(ctx context.Context, account models.SocialAccount, since time.Time, maxItems int) ([]models.SocialPost, error) {
	input := map[string]any{
		"profiles":       []string{account.Username},
		"resultsPerPage": maxItems,
	}
	if !since.IsZero() {
		input["oldestPostDate"] = since.Format("2006-01-02")
	}

	items, err := c.runner.RunActorAndCollect(ctx, tiktokActorID, input)
	if err != nil {
		return nil, fmt.Errorf("tiktok collection failed for %s: %w", account.Username, err)
	}

	posts := make([]models.SocialPost, 0, len(items))
	for _, item := range items {
		post, ok := TransformTikTokVideo(item)
		if !ok {
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// TransformTikTokVideo normalizes a raw video dataset item.
func TransformTikTokVideo(item map[string]any) (models.SocialPost, bool) {
	id := getString(item, "id")
	text := getString(item, "text")
	if id == "" || text == "" {
		return models.SocialPost{}, false
	}

	author := getMap(item, "authorMeta")

	var hashtags []string
	if raw, ok := item["hashtags"].([]any); ok {
		for _, h := range raw {
			if m, ok := h.(map[string]any); ok {
				if name := getString(m, "name"); name != "" {
					hashtags = append(hashtags, name)
				}
			}
		}
	}

	return models.SocialPost{
		Platform:       models.PlatformTikTok,
		PlatformPostID: id,
		Content:        text,
		Author:         getString(author, "nickName"),
		AuthorUsername: getString(author, "name"),
		URL:            getString(item, "webVideoUrl"),
		PublishedAt:    getTime(item, "createTime"),
		Engagement: models.Engagement{
			Likes:    getInt(item, "diggCount"),
			Shares:   getInt(item, "shareCount"),
			Comments: getInt(item, "commentCount"),
			Views:    getInt(item, "playCount"),
		},
		Hashtags: hashtags,
	}, true
}
