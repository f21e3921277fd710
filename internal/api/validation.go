package api

import (
	"fmt"
	"strings"

	"github.com/polisight/polisight/internal/models"
)

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEntity checks an entity payload before storage.
func ValidateEntity(entity *models.PoliticalEntity) error {
	if strings.TrimSpace(entity.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(entity.Name) > 200 {
		return &ValidationError{Field: "name", Message: "name must be at most 200 characters"}
	}
	if strings.TrimSpace(entity.Country) == "" {
		return &ValidationError{Field: "country", Message: "country is required"}
	}
	if !models.ValidEntityType(string(entity.EntityType)) {
		return &ValidationError{Field: "entity_type", Message: fmt.Sprintf("unknown entity type %q", entity.EntityType)}
	}

	seen := make(map[string]bool, len(entity.SocialAccounts))
	for _, account := range entity.SocialAccounts {
		if !models.ValidPlatform(string(account.Platform)) {
			return &ValidationError{Field: "social_accounts", Message: fmt.Sprintf("unknown platform %q", account.Platform)}
		}
		if strings.TrimSpace(account.Username) == "" {
			return &ValidationError{Field: "social_accounts", Message: "username is required"}
		}
		key := string(account.Platform) + "/" + strings.ToLower(account.Username)
		if seen[key] {
			return &ValidationError{Field: "social_accounts", Message: fmt.Sprintf("duplicate account %s", key)}
		}
		seen[key] = true
	}
	return nil
}
