package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveCycleRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTrackerCollector(reg)
	if err != nil {
		t.Fatalf("NewTrackerCollector: %v", err)
	}

	collector.ObserveCycle(120*time.Millisecond, 20, 18, 7)

	if got := testutil.ToFloat64(collector.TrackedObjects); got != 20 {
		t.Fatalf("tracker_objects_tracked = %v, want 20", got)
	}
	if got := testutil.ToFloat64(collector.PresentObjects); got != 18 {
		t.Fatalf("tracker_objects_present = %v, want 18", got)
	}
	if got := testutil.ToFloat64(collector.SnapshotSequence); got != 7 {
		t.Fatalf("tracker_snapshot_sequence = %v, want 7", got)
	}
	if count := histogramSampleCount(t, reg, "tracker_cycle_duration_seconds", nil); count != 1 {
		t.Fatalf("tracker_cycle_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestExclusionAndIngestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTrackerCollector(reg)
	if err != nil {
		t.Fatalf("NewTrackerCollector: %v", err)
	}

	collector.IncExclusion("degenerate_orbit")
	collector.IncExclusion("degenerate_orbit")
	collector.IncExclusion("propagation_diverged")
	collector.IncIngest("accepted")
	collector.IncIngest("rejected")

	if got := testutil.ToFloat64(collector.CycleExclusions.WithLabelValues("degenerate_orbit")); got != 2 {
		t.Fatalf("degenerate_orbit exclusions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.CycleExclusions.WithLabelValues("propagation_diverged")); got != 1 {
		t.Fatalf("propagation_diverged exclusions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.IngestTotal.WithLabelValues("accepted")); got != 1 {
		t.Fatalf("accepted ingests = %v, want 1", got)
	}
}

func TestHTTPMiddlewareRecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTrackerCollector(reg)
	if err != nil {
		t.Fatalf("NewTrackerCollector: %v", err)
	}

	handler := collector.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/elements", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/v1/elements", "POST", "202")); got != 1 {
		t.Fatalf("tracker_http_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "tracker_http_request_duration_seconds", map[string]string{
		"path":   "/api/v1/elements",
		"method": "POST",
	}); count != 1 {
		t.Fatalf("tracker_http_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestMetricsHandlerExposesTrackerSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTrackerCollector(reg)
	if err != nil {
		t.Fatalf("NewTrackerCollector: %v", err)
	}
	collector.ObserveCycle(50*time.Millisecond, 3, 3, 1)
	collector.IncExclusion("insufficient_samples")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"tracker_cycle_duration_seconds",
		"tracker_cycle_exclusions_total",
		"tracker_objects_tracked",
		"tracker_objects_present",
		"tracker_snapshot_sequence",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestDuplicateRegistrationTolerated(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewTrackerCollector(reg); err != nil {
		t.Fatalf("first NewTrackerCollector: %v", err)
	}
	if _, err := NewTrackerCollector(reg); err != nil {
		t.Fatalf("second NewTrackerCollector against the same registry: %v", err)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
