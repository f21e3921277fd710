package api

import (
	"net/http"

	"log/slog"

	"github.com/polisight/polisight/internal/activity"
	"github.com/polisight/polisight/internal/auth"
	"github.com/polisight/polisight/internal/content"
	"github.com/polisight/polisight/internal/database"
	"github.com/polisight/polisight/internal/tasks"
	"github.com/polisight/polisight/internal/vector"
)

// Deps bundles the services the routes are built from.
type Deps struct {
	Registry   *tasks.Registry
	Dispatcher tasks.Dispatcher
	Entities   *content.EntityStore
	Posts      *content.PostStore
	Analyses   *content.AnalysisStore
	Reports    *database.ReportRepository
	Users      *database.UserRepository
	Vectors    *vector.Service
	Activity   *activity.Service
	Cache      *activity.Cache
	AuthConfig auth.Config
	Logger     *slog.Logger
}

// SetupRoutes configures all API routes.
func SetupRoutes(mux *http.ServeMux, deps Deps) {
	taskHandler := NewTaskHandler(deps.Registry, deps.Dispatcher, deps.Logger)
	entityHandler := NewEntityHandler(deps.Entities, deps.Analyses, deps.Cache, deps.Activity, deps.Logger)
	postHandler := NewPostHandler(deps.Posts, deps.Analyses, deps.Vectors, deps.Logger)
	reportHandler := NewReportHandler(deps.Reports, deps.Logger)
	activityHandler := NewActivityHandler(deps.Activity, deps.Logger)
	authHandler := NewAuthHandler(deps.AuthConfig, deps.Users, deps.Logger)

	authMiddleware := auth.Middleware(deps.AuthConfig)
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.WriteHeader(http.StatusOK)
				return
			}
			authMiddleware(h).ServeHTTP(w, r)
		}
	}
	adminOnly := func(h http.HandlerFunc) http.HandlerFunc {
		return protected(auth.RequireAdmin(h).ServeHTTP)
	}

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/validate", protected(authHandler.ValidateToken))

	// Task routes (admin only)
	mux.HandleFunc("/api/tasks", adminOnly(taskHandler.ListTasks))
	mux.HandleFunc("/api/tasks/data-collection", adminOnly(taskHandler.SubmitCollection))
	mux.HandleFunc("/api/tasks/content-analysis", adminOnly(taskHandler.SubmitContentAnalysis))
	mux.HandleFunc("/api/tasks/relationship-analysis", adminOnly(taskHandler.SubmitRelationshipAnalysis))
	mux.HandleFunc("/api/tasks/report-generation", adminOnly(taskHandler.SubmitReportGeneration))
	mux.HandleFunc("/api/tasks/status/", adminOnly(taskHandler.GetStatus))

	// Entity routes (reads public, writes admin only)
	mux.HandleFunc("/api/entities", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			entityHandler.HandleEntities(w, r)
			return
		}
		adminOnly(entityHandler.HandleEntities)(w, r)
	})
	mux.HandleFunc("/api/entities/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			entityHandler.HandleEntityByID(w, r)
			return
		}
		adminOnly(entityHandler.HandleEntityByID)(w, r)
	})

	// Post routes (public)
	mux.HandleFunc("/api/posts", postHandler.ListPosts)
	mux.HandleFunc("/api/posts/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/posts/search" {
			postHandler.SearchPosts(w, r)
			return
		}
		postHandler.GetPost(w, r)
	})

	// Analysis routes (public)
	mux.HandleFunc("/api/analyses", postHandler.ListAnalyses)

	// Report routes (public)
	mux.HandleFunc("/api/reports", reportHandler.ListReports)
	mux.HandleFunc("/api/reports/", reportHandler.GetReport)

	// Activity stream (public)
	mux.HandleFunc("/api/activity", activityHandler.GetRecent)
}
