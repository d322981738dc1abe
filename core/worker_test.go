package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
)

func TestSampleBatchMixedOutcomes(t *testing.T) {
	sampler, err := NewTrackSampler(SamplerConfig{Budget: 32, AngularToleranceDeg: 2.0})
	if err != nil {
		t.Fatalf("NewTrackSampler: %v", err)
	}
	pool := NewPool(4, 0, sampler, nil)

	good := issElset(t)
	bad := issElset(t)
	bad.Line2 = zeroMotionLine2

	targets := []Target{
		{Sat: model.Satellite{NoradID: 25544, Name: "ISS"}, Elset: good},
		{Sat: model.Satellite{NoradID: 99999, Name: "BROKEN"}, Elset: bad},
	}

	start := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	results := pool.SampleBatch(context.Background(), targets, start, start.Add(90*time.Minute))

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if res := results[25544]; res.Err != nil {
		t.Errorf("healthy object failed: %v", res.Err)
	} else if len(res.Samples) < 2 {
		t.Errorf("healthy object produced %d samples", len(res.Samples))
	}
	if res := results[99999]; !errors.Is(res.Err, ErrDegenerateOrbit) {
		t.Errorf("broken object err = %v, want ErrDegenerateOrbit", res.Err)
	}
}

func TestSampleBatchEmpty(t *testing.T) {
	sampler, err := NewTrackSampler(DefaultSamplerConfig())
	if err != nil {
		t.Fatalf("NewTrackSampler: %v", err)
	}
	pool := NewPool(2, 0, sampler, nil)

	results := pool.SampleBatch(context.Background(), nil, time.Now(), time.Now().Add(time.Hour))
	if len(results) != 0 {
		t.Fatalf("got %d results for empty batch", len(results))
	}
}

func TestSampleBatchMoreTargetsThanWorkers(t *testing.T) {
	sampler, err := NewTrackSampler(SamplerConfig{Budget: 16, AngularToleranceDeg: 5.0})
	if err != nil {
		t.Fatalf("NewTrackSampler: %v", err)
	}
	pool := NewPool(2, 0, sampler, nil)

	elset := issElset(t)
	targets := make([]Target, 0, 8)
	for i := range 8 {
		targets = append(targets, Target{
			Sat:   model.Satellite{NoradID: 30000 + i, Name: "CLONE"},
			Elset: elset,
		})
	}

	start := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	results := pool.SampleBatch(context.Background(), targets, start, start.Add(30*time.Minute))

	if len(results) != 8 {
		t.Fatalf("got %d results, want 8", len(results))
	}
	for id, res := range results {
		if res.Err != nil {
			t.Errorf("target %d failed: %v", id, res.Err)
		}
	}
}

func TestSampleBatchObjectBudget(t *testing.T) {
	sampler, err := NewTrackSampler(DefaultSamplerConfig())
	if err != nil {
		t.Fatalf("NewTrackSampler: %v", err)
	}
	// A budget of one nanosecond expires before the first propagation.
	pool := NewPool(1, time.Nanosecond, sampler, nil)

	targets := []Target{{Sat: model.Satellite{NoradID: 25544, Name: "ISS"}, Elset: issElset(t)}}
	start := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	results := pool.SampleBatch(context.Background(), targets, start, start.Add(90*time.Minute))

	if res := results[25544]; !errors.Is(res.Err, ErrPropagationDiverged) {
		t.Errorf("err = %v, want ErrPropagationDiverged from expired budget", res.Err)
	}
}
