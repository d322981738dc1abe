package server

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/orbit-tracker/catalog"
	"github.com/signalsfoundry/orbit-tracker/core"
	"github.com/signalsfoundry/orbit-tracker/internal/clock"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/internal/observability"
	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// EngineConfig carries the cycle parameters. Log is the optional durable
// element log; nil means in-memory only.
type EngineConfig struct {
	CycleInterval   time.Duration
	Window          time.Duration
	MinElevationDeg float64
	Store           *catalog.Store
	Log             *catalog.Log
	Pool            *core.Pool
	HistoryDepth    int
	Collector       *observability.TrackerCollector
	Logger          logging.Logger
	Clock           clock.Clock // nil selects the wall clock
}

// Engine drives the propagation cycle: every interval it resolves the
// freshest element set per object, samples ground tracks across the worker
// pool, computes coverage, reconciles the results into a snapshot plus
// delta, and publishes them for the HTTP handlers.
type Engine struct {
	cfg    EngineConfig
	rec    *core.Reconciler
	hist   *History
	tracer trace.Tracer

	snapshot atomic.Pointer[core.Snapshot]
	ready    atomic.Bool
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil || cfg.Pool == nil {
		return nil, fmt.Errorf("engine: store and pool are required")
	}
	if cfg.CycleInterval <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("engine: cycle interval and window must be positive")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	return &Engine{
		cfg:    cfg,
		rec:    core.NewReconciler(),
		hist:   NewHistory(cfg.HistoryDepth),
		tracer: otel.Tracer("orbit-tracker/engine"),
	}, nil
}

// Run executes one cycle immediately, then one per interval until the
// context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.runCycle(ctx)

	ticker := time.NewTicker(e.cfg.CycleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// Ready reports whether at least one cycle has completed.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// Snapshot returns the most recently published snapshot, or nil before the
// first cycle completes.
func (e *Engine) Snapshot() *core.Snapshot {
	return e.snapshot.Load()
}

// DeltaSince returns the merged delta covering all cycles after seq.
func (e *Engine) DeltaSince(seq uint64) (core.Delta, bool) {
	return e.hist.Since(seq)
}

// Ingest validates and stores one element set, persisting it to the durable
// log when one is configured. The in-memory catalog is authoritative; a log
// write failure is reported but does not reject the element.
func (e *Engine) Ingest(ctx context.Context, name, line1, line2 string) (*model.ElementSet, error) {
	fields, err := tle.Validate(line1, line2)
	if err != nil {
		e.observeIngest("rejected")
		return nil, err
	}
	elset, err := e.cfg.Store.Put(fields.NoradID, name, line1, line2)
	if err != nil {
		e.observeIngest("rejected")
		return nil, err
	}
	e.observeIngest("accepted")

	if e.cfg.Log != nil {
		if err := e.cfg.Log.Append(ctx, elset.NoradID, elset.Name, elset.Epoch, elset.Line1, elset.Line2); err != nil {
			e.cfg.Logger.Warn(ctx, "element log append failed",
				logging.Int("norad_id", elset.NoradID),
				logging.String("error", err.Error()),
			)
		}
	}
	return elset, nil
}

func (e *Engine) observeIngest(outcome string) {
	if e.cfg.Collector != nil {
		e.cfg.Collector.IncIngest(outcome)
	}
}

func (e *Engine) runCycle(ctx context.Context) {
	started := time.Now()
	now := e.cfg.Clock.Now().UTC().Truncate(time.Second)
	ctx, span := e.tracer.Start(ctx, "engine.cycle")
	defer span.End()

	sats := e.cfg.Store.Satellites()
	targets := make([]core.Target, 0, len(sats))
	for _, sat := range sats {
		elset, extrapolated, err := e.cfg.Store.Resolve(sat.NoradID, now)
		if err != nil {
			continue
		}
		if extrapolated {
			e.cfg.Logger.Debug(ctx, "using backward-extrapolated elements",
				logging.Int("norad_id", sat.NoradID),
				logging.String("epoch", elset.Epoch.Format(time.RFC3339)),
			)
		}
		targets = append(targets, core.Target{Sat: sat, Elset: elset, Extrapolated: extrapolated})
	}

	results := e.cfg.Pool.SampleBatch(ctx, targets, now, now.Add(e.cfg.Window))

	states := make(map[int]core.ObjectState, len(results))
	for id, res := range results {
		if res.Err != nil {
			if e.cfg.Collector != nil {
				e.cfg.Collector.IncExclusion(exclusionReason(res.Err))
			}
			continue
		}
		state := core.ObjectState{
			ID:       id,
			Name:     res.Target.Sat.Name,
			Position: res.Samples[0],
			Samples:  res.Samples,
		}
		radius, err := core.CoverageRadiusKm(state.Position.AltKm, e.cfg.MinElevationDeg)
		if err != nil {
			// The position is still served; only the footprint is withheld.
			e.cfg.Logger.Warn(ctx, "coverage rejected",
				logging.Int("norad_id", id),
				logging.Float64("alt_km", state.Position.AltKm),
				logging.String("error", err.Error()),
			)
		} else {
			state.Coverage = &model.Footprint{RadiusKm: radius}
		}
		states[id] = state
	}

	delta, snap := e.rec.Reconcile(states)
	e.hist.Append(delta)
	e.snapshot.Store(&snap)
	e.ready.Store(true)

	elapsed := time.Since(started)
	if e.cfg.Collector != nil {
		e.cfg.Collector.ObserveCycle(elapsed, len(targets), len(snap.Objects), snap.Sequence)
	}
	span.SetAttributes(
		attribute.Int("cycle.tracked", len(targets)),
		attribute.Int("cycle.present", len(snap.Objects)),
		attribute.Int64("cycle.sequence", int64(snap.Sequence)),
	)
	e.cfg.Logger.Info(ctx, "cycle complete",
		logging.Uint64("sequence", snap.Sequence),
		logging.Int("tracked", len(targets)),
		logging.Int("present", len(snap.Objects)),
		logging.Int("adds", len(delta.Adds)),
		logging.Int("updates", len(delta.Updates)),
		logging.Int("removes", len(delta.Removes)),
		logging.Duration("elapsed", elapsed),
	)
}

func exclusionReason(err error) string {
	switch {
	case errors.Is(err, core.ErrDegenerateOrbit):
		return "degenerate_orbit"
	case errors.Is(err, core.ErrPropagationDiverged):
		return "propagation_diverged"
	case errors.Is(err, core.ErrInsufficientSamples):
		return "insufficient_samples"
	case errors.Is(err, tle.ErrInvalidFormat):
		return "invalid_element_format"
	default:
		return "internal"
	}
}
