package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// SamplerConfig tunes adaptive ground-track sampling.
type SamplerConfig struct {
	// Budget is the maximum number of samples per track, window boundaries
	// included.
	Budget int
	// AngularToleranceDeg is the geocentric angle between adjacent samples
	// above which the segment is refined. Smaller values spend the budget
	// faster on fast-moving arcs (near perigee, steep inclination
	// crossings).
	AngularToleranceDeg float64
}

// DefaultSamplerConfig mirrors the 90-minute/30-second cadence the service
// historically served: ~180 points per orbit window at 2° tolerance.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{Budget: 180, AngularToleranceDeg: 2.0}
}

// TrackSampler produces ordered geodetic ground-track samples over a time
// window. Sampling is adaptive: it seeds the window uniformly and then
// bisects whichever adjacent pair subtends the largest geocentric angle,
// until every pair is within tolerance or the budget is spent.
type TrackSampler struct {
	cfg SamplerConfig
}

// NewTrackSampler validates the configuration and constructs a sampler.
func NewTrackSampler(cfg SamplerConfig) (*TrackSampler, error) {
	if cfg.Budget < 2 {
		return nil, fmt.Errorf("sampler budget %d: need at least the two boundary samples", cfg.Budget)
	}
	if cfg.AngularToleranceDeg <= 0 {
		return nil, fmt.Errorf("sampler angular tolerance %v: must be positive", cfg.AngularToleranceDeg)
	}
	return &TrackSampler{cfg: cfg}, nil
}

// trackPoint pairs a produced sample with the inertial position it came
// from, so refinement can measure angles without re-propagating.
type trackPoint struct {
	sample model.GeodeticSample
	eci    Vec3
}

// Sample produces a monotonically time-increasing sample sequence covering
// [start, end]. The boundary instants are always sampled exactly (at
// one-second resolution, the propagation model's granularity). Samples with
// negative altitude are filtered as decayed; if fewer than two valid
// samples remain, ErrInsufficientSamples excludes the object from the
// window. A context deadline is honoured between propagations: exceeding
// the per-object time budget reports ErrPropagationDiverged so one stuck
// object cannot stall a cycle.
func (s *TrackSampler) Sample(ctx context.Context, elset *model.ElementSet, start, end time.Time) ([]model.GeodeticSample, error) {
	start = start.UTC().Truncate(time.Second)
	end = end.UTC().Truncate(time.Second)
	if !end.After(start) {
		return nil, fmt.Errorf("sample window [%s, %s] is empty", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	prop, err := NewPropagator(elset)
	if err != nil {
		return nil, err
	}

	// Seed: boundaries plus a uniform interior skeleton. The skeleton keeps
	// refinement from missing a fast arc hidden between two slow samples.
	seedCount := s.cfg.Budget / 8
	if seedCount < 2 {
		seedCount = 2
	}
	if seedCount > s.cfg.Budget {
		seedCount = s.cfg.Budget
	}

	points := make([]trackPoint, 0, s.cfg.Budget)
	window := end.Sub(start)
	for i := 0; i < seedCount; i++ {
		frac := float64(i) / float64(seedCount-1)
		at := start.Add(time.Duration(frac * float64(window))).Truncate(time.Second)
		if i == seedCount-1 {
			at = end
		}
		if len(points) > 0 && !at.After(points[len(points)-1].sample.T) {
			// Second-resolution truncation can collapse neighbouring seeds
			// in very short windows.
			if i != seedCount-1 {
				continue
			}
			points = points[:len(points)-1]
		}
		if err := checkBudget(ctx); err != nil {
			return nil, err
		}

		sample, state, err := prop.GeodeticSampleAt(at)
		if err != nil {
			// A failed boundary means the window cannot be covered
			// exactly; a failed interior seed just loses one skeleton
			// point.
			if i == 0 || i == seedCount-1 {
				return nil, err
			}
			continue
		}
		points = append(points, trackPoint{sample: sample, eci: state.Position})
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: %d of %d seed samples", ErrInsufficientSamples, len(points), seedCount)
	}

	tolerance := s.cfg.AngularToleranceDeg * degToRad
	for len(points) < s.cfg.Budget {
		if err := checkBudget(ctx); err != nil {
			return nil, err
		}

		// Find the adjacent pair with the widest geocentric angle that is
		// still worth splitting. Pairs tighter than two seconds are at the
		// model's time resolution already.
		worst := -1
		worstAngle := tolerance
		for i := 0; i < len(points)-1; i++ {
			gap := points[i+1].sample.T.Sub(points[i].sample.T)
			if gap < 2*time.Second {
				continue
			}
			if a := points[i].eci.AngleTo(points[i+1].eci); a > worstAngle {
				worst = i
				worstAngle = a
			}
		}
		if worst < 0 {
			break
		}

		mid := points[worst].sample.T.Add(points[worst+1].sample.T.Sub(points[worst].sample.T) / 2).Truncate(time.Second)
		sample, state, err := prop.GeodeticSampleAt(mid)
		if err != nil {
			// Unrefinable segment: leave the chord as-is rather than
			// failing the whole track.
			break
		}

		points = append(points, trackPoint{})
		copy(points[worst+2:], points[worst+1:])
		points[worst+1] = trackPoint{sample: sample, eci: state.Position}
	}

	// Decayed or invalid samples are filtered; the boundaries must survive
	// for the window to count as covered.
	out := make([]model.GeodeticSample, 0, len(points))
	for _, p := range points {
		if p.sample.AltKm < 0 {
			continue
		}
		out = append(out, p.sample)
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("%w: %d valid of %d sampled", ErrInsufficientSamples, len(out), len(points))
	}
	if !out[0].T.Equal(start) || !out[len(out)-1].T.Equal(end) {
		return nil, fmt.Errorf("%w: boundary sample filtered as decayed", ErrInsufficientSamples)
	}

	return out, nil
}

const degToRad = math.Pi / 180

func checkBudget(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: object time budget exhausted: %v", ErrPropagationDiverged, ctx.Err())
	default:
		return nil
	}
}
