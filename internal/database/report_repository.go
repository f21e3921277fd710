package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/polisight/polisight/internal/models"
)

// ReportRepository manages generated reports in PostgreSQL. Report payloads
// are stored as JSONB.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Store saves a generated report.
func (r *ReportRepository) Store(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}

	payloadJSON, err := json.Marshal(report.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal report payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reports (id, report_type, time_period, entity_ids, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, report.ID, report.ReportType, report.TimePeriod, pq.Array(report.EntityIDs), payloadJSON, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetByID retrieves a report. Returns nil when no report exists.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	var payloadJSON []byte
	var entityIDs pq.StringArray

	err := r.db.QueryRowContext(ctx, `
		SELECT id, report_type, time_period, entity_ids, payload, generated_at
		FROM reports
		WHERE id = $1
	`, id).Scan(&report.ID, &report.ReportType, &report.TimePeriod, &entityIDs, &payloadJSON, &report.GeneratedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	report.EntityIDs = entityIDs
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &report.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report payload: %w", err)
		}
	}
	return &report, nil
}

// List returns reports newest first, optionally filtered by type.
func (r *ReportRepository) List(ctx context.Context, reportType *models.ReportType, limit, offset int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, report_type, time_period, entity_ids, payload, generated_at
		FROM reports
	`
	args := []any{}
	if reportType != nil {
		query += " WHERE report_type = $1"
		args = append(args, *reportType)
	}
	query += fmt.Sprintf(" ORDER BY generated_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var report models.Report
		var payloadJSON []byte
		var entityIDs pq.StringArray

		if err := rows.Scan(&report.ID, &report.ReportType, &report.TimePeriod, &entityIDs, &payloadJSON, &report.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		report.EntityIDs = entityIDs
		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &report.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal report payload: %w", err)
			}
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
