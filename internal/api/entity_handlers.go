package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/polisight/polisight/internal/activity"
	"github.com/polisight/polisight/internal/content"
	"github.com/polisight/polisight/internal/models"
)

// EntityHandler manages tracked political entities. Single-entity reads go
// through the Redis cache; writes invalidate it.
type EntityHandler struct {
	entities *content.EntityStore
	analyses *content.AnalysisStore
	cache    *activity.Cache
	activity *activity.Service
	logger   *slog.Logger
}

// NewEntityHandler creates an entity handler.
func NewEntityHandler(entities *content.EntityStore, analyses *content.AnalysisStore, cache *activity.Cache, activitySvc *activity.Service, logger *slog.Logger) *EntityHandler {
	return &EntityHandler{
		entities: entities,
		analyses: analyses,
		cache:    cache,
		activity: activitySvc,
		logger:   logger,
	}
}

func entityCacheKey(id string) string {
	return "cache:entity:" + id
}

// EntityListResponse wraps an entity listing.
type EntityListResponse struct {
	Entities []models.PoliticalEntity `json:"entities"`
	Count    int                      `json:"count"`
}

// HandleEntities handles GET and POST /api/entities
func (h *EntityHandler) HandleEntities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listEntities(w, r)
	case http.MethodPost:
		h.createEntity(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *EntityHandler) listEntities(w http.ResponseWriter, r *http.Request) {
	var entityType *models.EntityType
	if raw := r.URL.Query().Get("type"); raw != "" {
		if !models.ValidEntityType(raw) {
			http.Error(w, "Invalid entity type", http.StatusBadRequest)
			return
		}
		t := models.EntityType(raw)
		entityType = &t
	}

	var country *string
	if raw := r.URL.Query().Get("country"); raw != "" {
		country = &raw
	}

	limit, offset, err := parsePagination(r, 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entities, err := h.entities.List(r.Context(), entityType, country, limit, offset)
	if err != nil {
		h.logger.Error("failed to list entities", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EntityListResponse{
		Entities: entities,
		Count:    len(entities),
	})
}

func (h *EntityHandler) createEntity(w http.ResponseWriter, r *http.Request) {
	var entity models.PoliticalEntity
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := ValidateEntity(&entity); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.entities.Create(r.Context(), &entity); err != nil {
		h.logger.Error("failed to create entity", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.activity.Record(r.Context(), "entity_created", entity.ID, map[string]any{
		"name": entity.Name,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entity)
}

// HandleEntityByID handles GET, PUT, and DELETE /api/entities/:id, plus
// GET /api/entities/:id/relationships.
func (h *EntityHandler) HandleEntityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/entities/")
	if rest, ok := strings.CutSuffix(id, "/relationships"); ok && rest != "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.getRelationships(w, r, rest)
		return
	}
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Entity ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getEntity(w, r, id)
	case http.MethodPut:
		h.updateEntity(w, r, id)
	case http.MethodDelete:
		h.deleteEntity(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *EntityHandler) getEntity(w http.ResponseWriter, r *http.Request, id string) {
	var cached models.PoliticalEntity
	hit, err := h.cache.Get(r.Context(), entityCacheKey(id), &cached)
	if err != nil {
		h.logger.Warn("entity cache read failed", "entity_id", id, "error", err)
	}
	if hit {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cached)
		return
	}

	entity, err := h.entities.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get entity", "entity_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entity == nil {
		http.Error(w, "Entity not found", http.StatusNotFound)
		return
	}

	if err := h.cache.Set(r.Context(), entityCacheKey(id), entity, activity.DefaultCacheTTL); err != nil {
		h.logger.Warn("entity cache write failed", "entity_id", id, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entity)
}

// RelationshipListResponse wraps detected entity relationships.
type RelationshipListResponse struct {
	Relationships []models.EntityRelationship `json:"relationships"`
	Count         int                         `json:"count"`
}

func (h *EntityHandler) getRelationships(w http.ResponseWriter, r *http.Request, id string) {
	limit, _, err := parsePagination(r, 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	relationships, err := h.analyses.ListRelationships(r.Context(), []string{id}, limit)
	if err != nil {
		h.logger.Error("failed to list relationships", "entity_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if relationships == nil {
		relationships = []models.EntityRelationship{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RelationshipListResponse{
		Relationships: relationships,
		Count:         len(relationships),
	})
}

func (h *EntityHandler) updateEntity(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := h.entities.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get entity", "entity_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Entity not found", http.StatusNotFound)
		return
	}

	var entity models.PoliticalEntity
	if err := json.NewDecoder(r.Body).Decode(&entity); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entity.ID = id
	entity.CreatedAt = existing.CreatedAt

	if err := ValidateEntity(&entity); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.entities.Update(r.Context(), &entity); err != nil {
		h.logger.Error("failed to update entity", "entity_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.cache.Invalidate(r.Context(), entityCacheKey(id)); err != nil {
		h.logger.Warn("entity cache invalidation failed", "entity_id", id, "error", err)
	}
	h.activity.Record(r.Context(), "entity_updated", id, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entity)
}

func (h *EntityHandler) deleteEntity(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.entities.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete entity", "entity_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.cache.Invalidate(r.Context(), entityCacheKey(id)); err != nil {
		h.logger.Warn("entity cache invalidation failed", "entity_id", id, "error", err)
	}
	h.activity.Record(r.Context(), "entity_deleted", id, nil)

	w.WriteHeader(http.StatusNoContent)
}

func parsePagination(r *http.Request, defaultLimit int) (limit, offset int, err error) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, &ValidationError{Field: "limit", Message: "must be a non-negative integer"}
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, &ValidationError{Field: "offset", Message: "must be a non-negative integer"}
		}
	}
	return limit, offset, nil
}
