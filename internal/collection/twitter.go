package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/polisight/polisight/internal/models"
)

const twitterActorID = "apidojo~tweet-scraper"

// TwitterCollector collects tweets for a tracked account.
type TwitterCollector struct {
	runner ActorRunner
}

func (c *TwitterCollector) Platform() models.Platform {
	return models.PlatformTwitter
}

func (c *TwitterCollector) Collect(ctx context.Context, account models.SocialAccount, since time.Time, maxItems int) ([]models.SocialPost, error) {
	input := map[string]any{
		"twitterHandles": []string{account.Username},
		"maxItems":       maxItems,
		"sort":           "Latest",
	}
	if !since.IsZero() {
		input["start"] = since.Format("2006-01-02")
	}

	items, err := c.runner.RunActorAndCollect(ctx, twitterActorID, input)
	if err != nil {
		return nil, fmt.Errorf("twitter collection failed for @%s: %w", account.Username, err)
	}

	posts := make([]models.SocialPost, 0, len(items))
	for _, item := range items {
		post, ok := TransformTweet(item)
		if !ok {
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// TransformTweet normalizes a raw tweet dataset item. It returns false
// when the item lacks an id or text and should be skipped.
func TransformTweet(item map[string]any) (models.SocialPost, bool) {
	id := getString(item, "id")
	text := getString(item, "fullText", "text")
	if id == "" || text == "" {
		return models.SocialPost{}, false
	}

	author := getMap(item, "author")
	username := getString(author, "userName")
	url := getString(item, "url")
	if url == "" && username != "" {
		url = fmt.Sprintf("https://twitter.com/%s/status/%s", username, id)
	}

	return models.SocialPost{
		Platform:       models.PlatformTwitter,
		PlatformPostID: id,
		Content:        text,
		Author:         getString(author, "name"),
		AuthorUsername: username,
		URL:            url,
		PublishedAt:    getTime(item, "createdAt"),
		Engagement: models.Engagement{
			Likes:    getInt(item, "likeCount"),
			Shares:   getInt(item, "retweetCount"),
			Comments: getInt(item, "replyCount"),
			Views:    getInt(item, "viewCount"),
		},
		Language: getString(item, "lang"),
	}, true
}
