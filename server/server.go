// Package server exposes the tracker's live state over HTTP: full and
// incremental satellite snapshots, element ingest, ground-station reference
// data, and the usual health and metrics endpoints.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/internal/observability"
	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// Server wires the HTTP surface around an Engine.
type Server struct {
	engine    *Engine
	stations  []model.GroundStation
	collector *observability.TrackerCollector
	log       logging.Logger
	httpsrv   *http.Server
}

func New(addr string, engine *Engine, stations []model.GroundStation, collector *observability.TrackerCollector, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		engine:    engine,
		stations:  stations,
		collector: collector,
		log:       log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/satellites", s.handleSatellites)
	mux.HandleFunc("POST /api/v1/elements", s.handleIngest)
	mux.HandleFunc("GET /api/v1/groundstations", s.handleGroundStations)
	mux.HandleFunc("GET /api/v1/scene", s.handleScene)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	if collector != nil {
		mux.Handle("GET /metrics", collector.Handler())
	}

	var handler http.Handler = mux
	handler = corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	if collector != nil {
		handler = collector.HTTPMiddleware(handler)
	}

	s.httpsrv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler exposes the composed handler, for tests.
func (s *Server) Handler() http.Handler { return s.httpsrv.Handler }

func (s *Server) ListenAndServe() error { return s.httpsrv.ListenAndServe() }

func (s *Server) HTTPServer() *http.Server { return s.httpsrv }

// handleSatellites serves the live constellation state. Without a since
// parameter the response is the full snapshot; with one it is the merged
// delta covering every cycle after that sequence, or a full resync when the
// sequence fell outside the retained history.
func (s *Server) handleSatellites(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no cycle has completed yet")
		return
	}

	raw := r.URL.Query().Get("since")
	if raw == "" {
		writeJSON(w, http.StatusOK, snapshotResponse{
			Type:     "full",
			Sequence: snap.Sequence,
			Objects:  toWireAll(snap.Objects),
		})
		return
	}

	since, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "since must be an unsigned integer")
		return
	}

	delta, ok := s.engine.DeltaSince(since)
	if !ok {
		writeJSON(w, http.StatusOK, snapshotResponse{
			Type:     "resync",
			Sequence: snap.Sequence,
			Objects:  toWireAll(snap.Objects),
		})
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{
		Type:     "delta",
		Sequence: delta.Sequence,
		Adds:     toWireAll(delta.Adds),
		Updates:  toWireAll(delta.Updates),
		Removes:  delta.Removes,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	elset, err := s.engine.Ingest(r.Context(), req.Name, req.Line1, req.Line2)
	if err != nil {
		if errors.Is(err, tle.ErrInvalidFormat) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Error(r.Context(), "ingest failed", logging.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{
		NoradID: elset.NoradID,
		Name:    elset.Name,
		Epoch:   elset.Epoch,
	})
}

func (s *Server) handleGroundStations(w http.ResponseWriter, r *http.Request) {
	stations := s.stations
	if stations == nil {
		stations = []model.GroundStation{}
	}
	writeJSON(w, http.StatusOK, stations)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Ready() {
		writeError(w, http.StatusServiceUnavailable, "first cycle pending")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, reqLog := logging.WithRequestLogger(r.Context(), s.log)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r.WithContext(ctx))

		if probePath(r.URL.Path) {
			return
		}
		reqLog.Info(ctx, "request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", sw.status),
			logging.Duration("elapsed", time.Since(start)),
			logging.String("remote", r.RemoteAddr),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
