package models

import (
	"fmt"
	"time"
)

// ReportType names a category of generated report.
type ReportType string

const (
	ReportActivity  ReportType = "activity"
	ReportInfluence ReportType = "influence"
	ReportSentiment ReportType = "sentiment"
)

// ValidReportType reports whether the given string names a known report type.
func ValidReportType(s string) bool {
	switch ReportType(s) {
	case ReportActivity, ReportInfluence, ReportSentiment:
		return true
	}
	return false
}

// TimePeriod is a relative reporting window.
type TimePeriod string

const (
	PeriodLast24Hours TimePeriod = "last_24h"
	PeriodLastWeek    TimePeriod = "last_week"
	PeriodLast30Days  TimePeriod = "last_30_days"
)

// Window converts the period into an absolute time range ending at now.
func (p TimePeriod) Window(now time.Time) (time.Time, time.Time, error) {
	switch p {
	case PeriodLast24Hours:
		return now.Add(-24 * time.Hour), now, nil
	case PeriodLastWeek:
		return now.AddDate(0, 0, -7), now, nil
	case PeriodLast30Days, "":
		return now.AddDate(0, 0, -30), now, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown time period: %q", p)
}

// Report is a generated aggregate over collected and analyzed data, stored in
// Postgres with its payload as JSON.
type Report struct {
	ID          string         `json:"id"`
	ReportType  ReportType     `json:"report_type"`
	TimePeriod  TimePeriod     `json:"time_period"`
	EntityIDs   []string       `json:"entity_ids,omitempty"`
	Payload     map[string]any `json:"payload"`
	GeneratedAt time.Time      `json:"generated_at"`
}
