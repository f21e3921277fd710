package models

import (
	"time"
)

// Platform identifies the social network a post was collected from.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// Platforms lists every supported collection platform.
func Platforms() []Platform {
	return []Platform{PlatformTwitter, PlatformFacebook, PlatformInstagram, PlatformTikTok}
}

// ValidPlatform reports whether the given string names a supported platform.
func ValidPlatform(s string) bool {
	switch Platform(s) {
	case PlatformTwitter, PlatformFacebook, PlatformInstagram, PlatformTikTok:
		return true
	}
	return false
}

// SocialPost is a collected social media post, normalized across platforms.
type SocialPost struct {
	ID             string         `bson:"_id" json:"id"`
	Platform       Platform       `bson:"platform" json:"platform"`
	PlatformPostID string         `bson:"platform_post_id" json:"platform_post_id"`
	EntityID       string         `bson:"entity_id,omitempty" json:"entity_id,omitempty"`
	Content        string         `bson:"content" json:"content"`
	Author         string         `bson:"author" json:"author"`
	AuthorUsername string         `bson:"author_username" json:"author_username"`
	URL            string         `bson:"url,omitempty" json:"url,omitempty"`
	PublishedAt    time.Time      `bson:"published_at" json:"published_at"`
	CollectedAt    time.Time      `bson:"collected_at" json:"collected_at"`
	Engagement     Engagement     `bson:"engagement" json:"engagement"`
	MediaURLs      []string       `bson:"media_urls,omitempty" json:"media_urls,omitempty"`
	Hashtags       []string       `bson:"hashtags,omitempty" json:"hashtags,omitempty"`
	Mentions       []string       `bson:"mentions,omitempty" json:"mentions,omitempty"`
	Language       string         `bson:"language,omitempty" json:"language,omitempty"`
	Embedding      []float32      `bson:"embedding,omitempty" json:"-"`
	Metadata       map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Engagement holds the platform interaction counts for a post.
type Engagement struct {
	Likes    int `bson:"likes" json:"likes"`
	Shares   int `bson:"shares" json:"shares"`
	Comments int `bson:"comments" json:"comments"`
	Views    int `bson:"views,omitempty" json:"views,omitempty"`
}

// Total returns the summed interaction count used for engagement ranking.
func (e Engagement) Total() int {
	return e.Likes + e.Shares + e.Comments
}

// PostQuery filters post listings.
type PostQuery struct {
	Platform *Platform
	EntityID *string
	Since    *time.Time
	Until    *time.Time
	Search   *string
	Limit    int
	Offset   int
}
