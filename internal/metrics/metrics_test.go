package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `polisight_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `polisight_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestCollectorRecordsTaskMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.TaskSubmitted("collect_data")
	collector.TaskSubmitted("collect_data")
	collector.TaskFinished("collect_data", "completed", 250*time.Millisecond)
	collector.TaskFinished("collect_data", "failed", time.Second)

	body := scrape(t, collector)
	if !strings.Contains(body, `polisight_tasks_submitted_total{kind="collect_data"} 2`) {
		t.Fatalf("submitted_total metric not recorded, body=%q", body)
	}
	if !strings.Contains(body, `polisight_tasks_finished_total{kind="collect_data",status="completed"} 1`) {
		t.Fatalf("finished_total completed metric not recorded, body=%q", body)
	}
	if !strings.Contains(body, `polisight_tasks_finished_total{kind="collect_data",status="failed"} 1`) {
		t.Fatalf("finished_total failed metric not recorded, body=%q", body)
	}
	if !strings.Contains(body, `polisight_tasks_duration_seconds_count{kind="collect_data"} 2`) {
		t.Fatalf("duration_seconds_count metric not recorded, body=%q", body)
	}
}

func scrape(t *testing.T, collector *Collector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	collector.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}
