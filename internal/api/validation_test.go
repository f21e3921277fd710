package api

import (
	"testing"

	"github.com/polisight/polisight/internal/models"
)

func validEntity() *models.PoliticalEntity {
	return &models.PoliticalEntity{
		Name:       "Jane Doe",
		EntityType: models.EntityTypePolitician,
		Country:    "US",
		SocialAccounts: []models.SocialAccount{
			{Platform: models.PlatformTwitter, Username: "janedoe"},
		},
	}
}

func TestValidateEntity(t *testing.T) {
	if err := ValidateEntity(validEntity()); err != nil {
		t.Errorf("expected valid entity, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*models.PoliticalEntity)
		field  string
	}{
		{"missing name", func(e *models.PoliticalEntity) { e.Name = " " }, "name"},
		{"missing country", func(e *models.PoliticalEntity) { e.Country = "" }, "country"},
		{"bad type", func(e *models.PoliticalEntity) { e.EntityType = "celebrity" }, "entity_type"},
		{"bad platform", func(e *models.PoliticalEntity) {
			e.SocialAccounts[0].Platform = "myspace"
		}, "social_accounts"},
		{"empty username", func(e *models.PoliticalEntity) {
			e.SocialAccounts[0].Username = ""
		}, "social_accounts"},
		{"duplicate account", func(e *models.PoliticalEntity) {
			e.SocialAccounts = append(e.SocialAccounts, models.SocialAccount{
				Platform: models.PlatformTwitter, Username: "JaneDoe",
			})
		}, "social_accounts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := validEntity()
			tt.mutate(entity)

			err := ValidateEntity(entity)
			if err == nil {
				t.Fatal("expected validation error")
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}
