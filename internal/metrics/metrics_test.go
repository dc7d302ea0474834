package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	total := 0.0
	found := false
	for _, mf := range metrics {
		if mf.GetName() == name {
			found = true
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
		}
	}
	if !found {
		t.Fatalf("%s metric not found", name)
	}
	return total
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordProviderCall_IncrementsCounters は呼び出し数と失敗数が記録されることを検証する。
func TestRecordProviderCall_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordProviderCall("calendar.list", nil)
	c.RecordProviderCall("calendar.list", nil)
	c.RecordProviderCall("gmail.get", errors.New("timeout"))

	if v := counterValue(t, reg, "mailcal_provider_calls_total"); v != 3 {
		t.Errorf("provider_calls_total = %v, want 3", v)
	}
	if v := counterValue(t, reg, "mailcal_provider_failures_total"); v != 1 {
		t.Errorf("provider_failures_total = %v, want 1", v)
	}
}

// TestRecordProviderLatency_ObservesHistogram はレイテンシが記録されることを検証する。
func TestRecordProviderLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordProviderLatency("calendar.insert", 120*time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "mailcal_provider_latency_seconds" {
			found = true
			if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 1 {
				t.Errorf("sample count = %d, want 1", count)
			}
		}
	}
	if !found {
		t.Error("mailcal_provider_latency_seconds metric not found")
	}
}

// TestRecordExtraction_IncrementsCounters は抽出の成功・失敗が記録されることを検証する。
func TestRecordExtraction_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordExtractionHit("gemini")
	c.RecordExtractionHit("heuristic")
	c.RecordExtractionMiss("heuristic")

	if v := counterValue(t, reg, "mailcal_extraction_hits_total"); v != 2 {
		t.Errorf("extraction_hits_total = %v, want 2", v)
	}
	if v := counterValue(t, reg, "mailcal_extraction_misses_total"); v != 1 {
		t.Errorf("extraction_misses_total = %v, want 1", v)
	}
}

// TestRecordImportCounters は取り込み結果が記録されることを検証する。
func TestRecordImportCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEventImported()
	c.RecordEventImported()
	c.RecordDuplicateSkipped()

	if v := counterValue(t, reg, "mailcal_events_imported_total"); v != 2 {
		t.Errorf("events_imported_total = %v, want 2", v)
	}
	if v := counterValue(t, reg, "mailcal_duplicates_skipped_total"); v != 1 {
		t.Errorf("duplicates_skipped_total = %v, want 1", v)
	}
}

// TestHandler_ServesPrometheusFormat は/metricsがスクレイプ可能な形式で応答することを検証する。
func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordEventImported()

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("failed to GET metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "mailcal_events_imported_total 1") {
		t.Errorf("body does not contain the imported counter: %s", body)
	}
}
