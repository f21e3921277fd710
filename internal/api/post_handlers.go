package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/polisight/polisight/internal/content"
	"github.com/polisight/polisight/internal/models"
	"github.com/polisight/polisight/internal/vector"
)

// PostHandler serves collected posts and semantic search over them.
type PostHandler struct {
	posts    *content.PostStore
	analyses *content.AnalysisStore
	vectors  *vector.Service
	logger   *slog.Logger
}

// NewPostHandler creates a post handler. The vector service may be nil
// when no embedding backend is configured; search then returns 503.
func NewPostHandler(posts *content.PostStore, analyses *content.AnalysisStore, vectors *vector.Service, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:    posts,
		analyses: analyses,
		vectors:  vectors,
		logger:   logger,
	}
}

// PostListResponse wraps a post listing.
type PostListResponse struct {
	Posts []models.SocialPost `json:"posts"`
	Count int                 `json:"count"`
}

// ListPosts handles GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := models.PostQuery{Limit: 50}

	if raw := r.URL.Query().Get("platform"); raw != "" {
		if !models.ValidPlatform(raw) {
			http.Error(w, "Invalid platform", http.StatusBadRequest)
			return
		}
		platform := models.Platform(raw)
		query.Platform = &platform
	}
	if raw := r.URL.Query().Get("entity_id"); raw != "" {
		query.EntityID = &raw
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid since timestamp, expected RFC3339", http.StatusBadRequest)
			return
		}
		query.Since = &since
	}
	if raw := r.URL.Query().Get("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid until timestamp, expected RFC3339", http.StatusBadRequest)
			return
		}
		query.Until = &until
	}
	if raw := r.URL.Query().Get("search"); raw != "" {
		query.Search = &raw
	}

	var err error
	query.Limit, query.Offset, err = parsePagination(r, 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	posts, err := h.posts.List(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PostListResponse{
		Posts: posts,
		Count: len(posts),
	})
}

// PostDetailResponse is a post with its stored analysis, if any.
type PostDetailResponse struct {
	Post     *models.SocialPost      `json:"post"`
	Analysis *models.ContentAnalysis `json:"analysis,omitempty"`
}

// GetPost handles GET /api/posts/:id
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Post ID required", http.StatusBadRequest)
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get post", "post_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	analysis, err := h.analyses.GetAnalysisByPost(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get analysis", "post_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PostDetailResponse{
		Post:     post,
		Analysis: analysis,
	})
}

// AnalysisListResponse wraps recent content analyses.
type AnalysisListResponse struct {
	Analyses []models.ContentAnalysis `json:"analyses"`
	Count    int                      `json:"count"`
}

// ListAnalyses handles GET /api/analyses?since_hours=...
func (h *PostHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sinceHours := 24
	if raw := r.URL.Query().Get("since_hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			http.Error(w, "Invalid since_hours", http.StatusBadRequest)
			return
		}
		sinceHours = v
	}

	limit, _, err := parsePagination(r, 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	since := time.Now().Add(-time.Duration(sinceHours) * time.Hour)
	analyses, err := h.analyses.ListAnalysesSince(r.Context(), since, limit)
	if err != nil {
		h.logger.Error("failed to list analyses", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if analyses == nil {
		analyses = []models.ContentAnalysis{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AnalysisListResponse{
		Analyses: analyses,
		Count:    len(analyses),
	})
}

// SearchResponse wraps semantic search hits.
type SearchResponse struct {
	Query   string         `json:"query"`
	Matches []vector.Match `json:"matches"`
}

// SearchPosts handles GET /api/posts/search?q=...
func (h *PostHandler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.vectors == nil {
		http.Error(w, "Semantic search is not configured", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Query parameter q is required", http.StatusBadRequest)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 100 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}

	matches, err := h.vectors.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("semantic search failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SearchResponse{
		Query:   query,
		Matches: matches,
	})
}
