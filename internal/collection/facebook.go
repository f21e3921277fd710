package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/polisight/polisight/internal/models"
)

const facebookActorID = "apify~facebook-posts-scraper"

// FacebookCollector collects page posts for a tracked account.
type FacebookCollector struct {
	runner ActorRunner
}

func (c *FacebookCollector) Platform() models.Platform {
	return models.PlatformFacebook
}

func (c *FacebookCollector) Collect(ctx context.Context, account models.SocialAccount, since time.Time, maxItems int) ([]models.SocialPost, error) {
	input := map[string]any{
		"startUrls": []map[string]any{
			{"url": fmt.Sprintf("https://www.facebook.com/%s", account.Username)},
		},
		"resultsLimit": maxItems,
	}
	if !since.IsZero() {
		input["onlyPostsNewerThan"] = since.Format("2006-01-02")
	}

	items, err := c.runner.RunActorAndCollect(ctx, facebookActorID, input)
	if err != nil {
		return nil, fmt.Errorf("facebook collection failed for %s: %w", account.Username, err)
	}

	posts := make([]models.SocialPost, 0, len(items))
	for _, item := range items {
		post, ok := TransformFacebookPost(item)
		if !ok {
			continue
		}
		post.AuthorUsername = account.Username
		posts = append(posts, post)
	}
	return posts, nil
}

// TransformFacebookPost normalizes a raw page post dataset item.
func TransformFacebookPost(item map[string]any) (models.SocialPost, bool) {
	id := getString(item, "postId", "id")
	text := getString(item, "text", "message")
	if id == "" || text == "" {
		return models.SocialPost{}, false
	}

	author := getString(item, "pageName")
	if author == "" {
		author = getString(getMap(item, "user"), "name")
	}

	return models.SocialPost{
		Platform:       models.PlatformFacebook,
		PlatformPostID: id,
		Content:        text,
		Author:         author,
		URL:            getString(item, "url", "postUrl"),
		PublishedAt:    getTime(item, "time", "timestamp"),
		Engagement: models.Engagement{
			Likes:    getInt(item, "likes"),
			Shares:   getInt(item, "shares"),
			Comments: getInt(item, "comments"),
		},
	}, true
}
