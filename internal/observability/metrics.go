package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TrackerCollector bundles Prometheus metrics for the propagation cycle and
// the snapshot API, with helpers to wire them into the HTTP mux.
type TrackerCollector struct {
	gatherer prometheus.Gatherer

	CycleDuration    prometheus.Histogram
	CycleExclusions  *prometheus.CounterVec
	TrackedObjects   prometheus.Gauge
	PresentObjects   prometheus.Gauge
	SnapshotSequence prometheus.Gauge
	IngestTotal      *prometheus.CounterVec

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewTrackerCollector registers all tracker metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewTrackerCollector(reg prometheus.Registerer) (*TrackerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	cycleDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracker_cycle_duration_seconds",
		Help:    "Wall time of one full propagation cycle.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}), "tracker_cycle_duration_seconds")
	if err != nil {
		return nil, err
	}

	exclusions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_cycle_exclusions_total",
		Help: "Objects excluded from a cycle, labeled by exclusion reason.",
	}, []string{"reason"})
	exclusions, err = registerCounterVec(reg, exclusions, "tracker_cycle_exclusions_total")
	if err != nil {
		return nil, err
	}

	tracked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_objects_tracked",
		Help: "Objects with at least one element set in the catalog.",
	}), "tracker_objects_tracked")
	if err != nil {
		return nil, err
	}
	present, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_objects_present",
		Help: "Objects present in the latest published snapshot.",
	}), "tracker_objects_present")
	if err != nil {
		return nil, err
	}
	sequence, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_snapshot_sequence",
		Help: "Sequence number of the latest published snapshot.",
	}), "tracker_snapshot_sequence")
	if err != nil {
		return nil, err
	}

	ingest := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_element_ingest_total",
		Help: "Element-set submissions, labeled by outcome.",
	}, []string{"outcome"})
	ingest, err = registerCounterVec(reg, ingest, "tracker_element_ingest_total")
	if err != nil {
		return nil, err
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_http_requests_total",
		Help: "Handled HTTP requests, labeled by path, method, and status code.",
	}, []string{"path", "method", "code"})
	requests, err = registerCounterVec(reg, requests, "tracker_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracker_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
	durations, err = registerHistogramVec(reg, durations, "tracker_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &TrackerCollector{
		gatherer:         gatherer,
		CycleDuration:    cycleDuration,
		CycleExclusions:  exclusions,
		TrackedObjects:   tracked,
		PresentObjects:   present,
		SnapshotSequence: sequence,
		IngestTotal:      ingest,
		HTTPRequests:     requests,
		HTTPDurations:    durations,
	}, nil
}

// ObserveCycle records one cycle's duration and object counts.
func (c *TrackerCollector) ObserveCycle(duration time.Duration, tracked, present int, sequence uint64) {
	if c == nil {
		return
	}
	c.CycleDuration.Observe(duration.Seconds())
	c.TrackedObjects.Set(float64(tracked))
	c.PresentObjects.Set(float64(present))
	c.SnapshotSequence.Set(float64(sequence))
}

// IncExclusion counts one per-object exclusion by reason.
func (c *TrackerCollector) IncExclusion(reason string) {
	if c == nil {
		return
	}
	c.CycleExclusions.WithLabelValues(reason).Inc()
}

// IncIngest counts one element-set submission outcome.
func (c *TrackerCollector) IncIngest(outcome string) {
	if c == nil {
		return
	}
	c.IngestTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *TrackerCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records request counts and durations for every handled
// request.
func (c *TrackerCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sr, r)

		code := strconv.Itoa(sr.statusCode)
		c.HTTPRequests.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		c.HTTPDurations.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
	})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
