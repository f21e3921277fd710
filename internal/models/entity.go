package models

import (
	"fmt"
	"time"
)

// PoliticalEntity represents a monitored actor: a politician, a party, or an
// affiliated organization.
type PoliticalEntity struct {
	ID              string            `bson:"_id" json:"id"`
	Name            string            `bson:"name" json:"name"`
	EntityType      EntityType        `bson:"entity_type" json:"entity_type"`
	Description     string            `bson:"description,omitempty" json:"description,omitempty"`
	Country         string            `bson:"country" json:"country"`
	SocialAccounts  []SocialAccount   `bson:"social_accounts,omitempty" json:"social_accounts,omitempty"`
	PoliticalStance string            `bson:"political_stance,omitempty" json:"political_stance,omitempty"`
	Tags            []string          `bson:"tags,omitempty" json:"tags,omitempty"`
	RelatedEntities []string          `bson:"related_entities,omitempty" json:"related_entities,omitempty"`
	Metadata        map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt       time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at" json:"updated_at"`
}

// EntityType categorizes a political entity.
type EntityType string

const (
	EntityTypePolitician   EntityType = "politician"
	EntityTypeParty        EntityType = "party"
	EntityTypeOrganization EntityType = "organization"
	EntityTypeInstitution  EntityType = "institution"
)

// ValidEntityType reports whether the given string names a known entity type.
func ValidEntityType(s string) bool {
	switch EntityType(s) {
	case EntityTypePolitician, EntityTypeParty, EntityTypeOrganization, EntityTypeInstitution:
		return true
	}
	return false
}

// SocialAccount links an entity to one of its platform handles.
type SocialAccount struct {
	Platform Platform `bson:"platform" json:"platform"`
	Username string   `bson:"username" json:"username"`
}

// Validate checks the required fields of an entity before storage.
func (e *PoliticalEntity) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	if e.Country == "" {
		return fmt.Errorf("entity country is required")
	}
	switch e.EntityType {
	case EntityTypePolitician, EntityTypeParty, EntityTypeOrganization, EntityTypeInstitution:
	default:
		return fmt.Errorf("unknown entity type: %q", e.EntityType)
	}
	for _, account := range e.SocialAccounts {
		if !ValidPlatform(string(account.Platform)) {
			return fmt.Errorf("unknown platform: %q", account.Platform)
		}
		if account.Username == "" {
			return fmt.Errorf("social account username is required")
		}
	}
	return nil
}

// AccountsFor returns the entity's usernames on the given platform.
func (e *PoliticalEntity) AccountsFor(platform Platform) []string {
	var usernames []string
	for _, account := range e.SocialAccounts {
		if account.Platform == platform {
			usernames = append(usernames, account.Username)
		}
	}
	return usernames
}

// EntityRelationship records an observed connection between two entities,
// derived from co-mentions and interaction patterns in collected posts.
type EntityRelationship struct {
	ID               string    `bson:"_id" json:"id"`
	SourceEntityID   string    `bson:"source_entity_id" json:"source_entity_id"`
	TargetEntityID   string    `bson:"target_entity_id" json:"target_entity_id"`
	RelationshipType string    `bson:"relationship_type" json:"relationship_type"`
	Strength         float64   `bson:"strength" json:"strength"` // 0-1 scale
	CoMentions       int       `bson:"co_mentions" json:"co_mentions"`
	AvgSentiment     float64   `bson:"avg_sentiment" json:"avg_sentiment"`
	TimePeriod       string    `bson:"time_period" json:"time_period"`
	AnalyzedAt       time.Time `bson:"analyzed_at" json:"analyzed_at"`
}
