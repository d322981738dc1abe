package core

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/model"
)

// Target is one object scheduled for sampling in a cycle: its identity, the
// element set resolved for the cycle time, and whether that record was
// selected by backward extrapolation.
type Target struct {
	Sat          model.Satellite
	Elset        *model.ElementSet
	Extrapolated bool
}

// TrackResult is the outcome of sampling one target. Err is one of the
// propagation/sampling sentinels when the object must be excluded from the
// cycle.
type TrackResult struct {
	Target  Target
	Samples []model.GeodeticSample
	Err     error
}

// Pool fans per-object sampling across a bounded set of workers.
// Propagation of distinct objects shares no mutable state, so the only
// coordination is the job and result channels.
type Pool struct {
	workers      int
	objectBudget time.Duration
	sampler      *TrackSampler
	log          logging.Logger
}

// NewPool sizes a pool. Zero workers defaults to the CPU count; zero
// objectBudget disables the per-object deadline.
func NewPool(workers int, objectBudget time.Duration, sampler *TrackSampler, log logging.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Pool{
		workers:      workers,
		objectBudget: objectBudget,
		sampler:      sampler,
		log:          log,
	}
}

// SampleBatch samples every target over [start, end] and returns a result
// per target, keyed by catalog number. Per-object failures are recorded,
// not propagated: the cycle continues for every other object.
func (p *Pool) SampleBatch(ctx context.Context, targets []Target, start, end time.Time) map[int]TrackResult {
	results := make(map[int]TrackResult, len(targets))
	if len(targets) == 0 {
		return results
	}

	jobs := make(chan Target)
	out := make(chan TrackResult, p.workers)

	var wg sync.WaitGroup
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range jobs {
				out <- p.sampleOne(ctx, target, start, end)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range targets {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	for res := range out {
		results[res.Target.Sat.NoradID] = res
	}
	return results
}

func (p *Pool) sampleOne(ctx context.Context, target Target, start, end time.Time) TrackResult {
	objCtx := ctx
	if p.objectBudget > 0 {
		var cancel context.CancelFunc
		objCtx, cancel = context.WithTimeout(ctx, p.objectBudget)
		defer cancel()
	}

	samples, err := p.sampler.Sample(objCtx, target.Elset, start, end)
	if err != nil {
		p.log.Warn(ctx, "object excluded from cycle",
			logging.Int("norad_id", target.Sat.NoradID),
			logging.String("name", target.Sat.Name),
			logging.String("error", err.Error()),
		)
		return TrackResult{Target: target, Err: err}
	}
	return TrackResult{Target: target, Samples: samples}
}
