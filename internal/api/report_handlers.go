package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"log/slog"

	"github.com/polisight/polisight/internal/database"
	"github.com/polisight/polisight/internal/models"
)

// ReportHandler serves generated reports.
type ReportHandler struct {
	reports *database.ReportRepository
	logger  *slog.Logger
}

// NewReportHandler creates a report handler.
func NewReportHandler(reports *database.ReportRepository, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// ReportListResponse wraps a report listing.
type ReportListResponse struct {
	Reports []models.Report `json:"reports"`
	Count   int             `json:"count"`
}

// ListReports handles GET /api/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var reportType *models.ReportType
	if raw := r.URL.Query().Get("type"); raw != "" {
		if !models.ValidReportType(raw) {
			http.Error(w, "Invalid report type", http.StatusBadRequest)
			return
		}
		t := models.ReportType(raw)
		reportType = &t
	}

	limit, offset, err := parsePagination(r, 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reports, err := h.reports.List(r.Context(), reportType, limit, offset)
	if err != nil {
		h.logger.Error("failed to list reports", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ReportListResponse{
		Reports: reports,
		Count:   len(reports),
	})
}

// GetReport handles GET /api/reports/:id
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Report ID required", http.StatusBadRequest)
		return
	}

	report, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get report", "report_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
