package models

import (
	"testing"
	"time"
)

func TestTimePeriodWindow(t *testing.T) {
	now := time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period TimePeriod
		since  time.Time
	}{
		{PeriodLast24Hours, now.Add(-24 * time.Hour)},
		{PeriodLastWeek, now.AddDate(0, 0, -7)},
		{PeriodLast30Days, now.AddDate(0, 0, -30)},
		{"", now.AddDate(0, 0, -30)},
	}
	for _, tt := range tests {
		since, until, err := tt.period.Window(now)
		if err != nil {
			t.Fatalf("Window(%q): unexpected error: %v", tt.period, err)
		}
		if !since.Equal(tt.since) {
			t.Errorf("Window(%q) since = %v, want %v", tt.period, since, tt.since)
		}
		if !until.Equal(now) {
			t.Errorf("Window(%q) until = %v, want %v", tt.period, until, now)
		}
	}
}

func TestTimePeriodWindowUnknown(t *testing.T) {
	if _, _, err := TimePeriod("fortnight").Window(time.Now()); err == nil {
		t.Fatal("expected error for unknown period")
	}
}

func TestValidReportType(t *testing.T) {
	for _, valid := range []string{"activity", "influence", "sentiment"} {
		if !ValidReportType(valid) {
			t.Errorf("expected %q to be valid", valid)
		}
	}
	if ValidReportType("horoscope") {
		t.Error("expected unknown report type to be invalid")
	}
}
