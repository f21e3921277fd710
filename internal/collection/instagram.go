package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/polisight/polisight/internal/models"
)

const instagramActorID = "apify~instagram-post-scraper"

// InstagramCollector collects profile posts for a tracked account.
type InstagramCollector struct {
	runner ActorRunner
}

func (c *InstagramCollector) Platform() models.Platform {
	return models.PlatformInstagram
}

func (c *InstagramCollector) Collect(ctx context.Context, account models.SocialAccount, since time.Time, maxItems int) ([]models.SocialPost, error) {
	input := map[string]any{
		"username":     []string{account.Username},
		"resultsLimit": maxItems,
	}
	if !since.IsZero() {
		input["onlyPostsNewerThan"] = since.Format("2006-01-02")
	}

	items, err := c.runner.RunActorAndCollect(ctx, instagramActorID, input)
	if err != nil {
		return nil, fmt.Errorf("instagram collection failed for %s: %w", account.Username, err)
	}

	posts := make([]models.SocialPost, 0, len(items))
	for _, item := range items {
		post, ok := TransformInstagramPost(item)
		if !ok {
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// TransformInstagramPost normalizes a raw profile post dataset item.
// Posts without a caption are skipped since there is no text to analyze.
func TransformInstagramPost(item map[string]any) (models.SocialPost, bool) {
	id := getString(item, "shortCode", "id")
	caption := getString(item, "caption")
	if id == "" || caption == "" {
		return models.SocialPost{}, false
	}

	username := getString(item, "ownerUsername")
	url := getString(item, "url")
	if url == "" {
		url = fmt.Sprintf("https://www.instagram.com/p/%s/", id)
	}

	return models.SocialPost{
		Platform:       models.PlatformInstagram,
		PlatformPostID: id,
		Content:        caption,
		Author:         getString(item, "ownerFullName"),
		AuthorUsername: username,
		URL:            url,
		PublishedAt:    getTime(item, "timestamp"),
		Engagement: models.Engagement{
			Likes:    getInt(item, "likesCount"),
			Comments: getInt(item, "commentsCount"),
		},
		Hashtags: getStringSlice(item, "hashtags"),
		Mentions: getStringSlice(item, "mentions"),
	}, true
}
