package server

import (
	"context"
	"testing"
	"time"

	"github.com/signalsfoundry/orbit-tracker/catalog"
	"github.com/signalsfoundry/orbit-tracker/core"
	"github.com/signalsfoundry/orbit-tracker/internal/clock"
	"github.com/signalsfoundry/orbit-tracker/model"
)

const (
	issLine1 = "1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994"
	issLine2 = "2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533"

	hstLine1 = "1 20580U 90037B   25140.50000000  .00001000  00000+0  50000-4 0  9990"
	hstLine2 = "2 20580  28.4699 120.0000 0002500  80.0000 280.0000 14.79000000123459"

	// Synthetic elements with the mean motion zeroed out, so propagator
	// construction fails while format validation passes.
	brokenLine1 = "1 99999U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9999"
	brokenLine2 = "2 99999  51.6369  94.7823 0002558 120.7586  15.7840 00.00000000510538"
)

// cycleStart sits near the test elements' epochs so propagation stays well
// conditioned.
var cycleStart = time.Date(2025, 5, 21, 12, 0, 0, 0, time.UTC)

func positionAt(lat float64) model.GeodeticSample {
	return model.GeodeticSample{T: cycleStart, Lat: lat, AltKm: 420}
}

func testEngine(t *testing.T, store *catalog.Store) (*Engine, *clock.Manual) {
	t.Helper()
	sampler, err := core.NewTrackSampler(core.SamplerConfig{Budget: 32, AngularToleranceDeg: 2.0})
	if err != nil {
		t.Fatalf("NewTrackSampler: %v", err)
	}
	manual := clock.NewManual(cycleStart)
	engine, err := NewEngine(EngineConfig{
		CycleInterval:   15 * time.Second,
		Window:          90 * time.Minute,
		MinElevationDeg: 5,
		Store:           store,
		Pool:            core.NewPool(2, 0, sampler, nil),
		HistoryDepth:    8,
		Clock:           manual,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, manual
}

func TestEngineCyclePublishesSnapshot(t *testing.T) {
	store := catalog.NewStore()
	if _, err := store.Put(25544, "ISS (ZARYA)", issLine1, issLine2); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Put(20580, "HST", hstLine1, hstLine2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	engine, _ := testEngine(t, store)
	if engine.Ready() {
		t.Fatal("engine ready before any cycle")
	}

	engine.runCycle(context.Background())

	if !engine.Ready() {
		t.Fatal("engine not ready after a cycle")
	}
	snap := engine.Snapshot()
	if snap == nil {
		t.Fatal("no snapshot published")
	}
	if snap.Sequence != 1 {
		t.Errorf("sequence = %d, want 1", snap.Sequence)
	}
	if len(snap.Objects) != 2 {
		t.Fatalf("snapshot has %d objects, want 2", len(snap.Objects))
	}
	for _, obj := range snap.Objects {
		if len(obj.Samples) < 2 {
			t.Errorf("object %d has %d samples", obj.ID, len(obj.Samples))
		}
		if !obj.Position.T.Equal(cycleStart) {
			t.Errorf("object %d position at %v, want cycle time %v", obj.ID, obj.Position.T, cycleStart)
		}
		if obj.Coverage == nil || obj.Coverage.RadiusKm <= 0 {
			t.Errorf("object %d missing coverage footprint", obj.ID)
		}
	}
}

func TestEngineExcludesDegenerateObject(t *testing.T) {
	store := catalog.NewStore()
	if _, err := store.Put(25544, "ISS (ZARYA)", issLine1, issLine2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	engine, manual := testEngine(t, store)
	engine.runCycle(context.Background())

	if got := len(engine.Snapshot().Objects); got != 1 {
		t.Fatalf("snapshot has %d objects, want 1", got)
	}

	// A second object whose elements fail propagation setup must be
	// excluded without disturbing the healthy one.
	if _, err := store.Put(99999, "BROKEN", brokenLine1, brokenLine2); err != nil {
		t.Fatalf("Put broken: %v", err)
	}

	manual.Advance(15 * time.Second)
	engine.runCycle(context.Background())

	snap := engine.Snapshot()
	if len(snap.Objects) != 1 || snap.Objects[0].ID != 25544 {
		t.Fatalf("snapshot = %+v, want only the healthy object", snap.Objects)
	}
}

func TestEngineDeltaAcrossCycles(t *testing.T) {
	store := catalog.NewStore()
	if _, err := store.Put(25544, "ISS (ZARYA)", issLine1, issLine2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	engine, manual := testEngine(t, store)
	engine.runCycle(context.Background())

	manual.Advance(15 * time.Second)
	engine.runCycle(context.Background())

	delta, ok := engine.DeltaSince(1)
	if !ok {
		t.Fatal("sequence 1 should be within history")
	}
	if delta.Sequence != 2 {
		t.Errorf("sequence = %d, want 2", delta.Sequence)
	}
	if len(delta.Adds) != 0 || len(delta.Updates) != 1 || len(delta.Removes) != 0 {
		t.Fatalf("delta = %d adds, %d updates, %d removes; want 0/1/0",
			len(delta.Adds), len(delta.Updates), len(delta.Removes))
	}
}

func TestEngineIngest(t *testing.T) {
	store := catalog.NewStore()
	engine, _ := testEngine(t, store)

	elset, err := engine.Ingest(context.Background(), "ISS (ZARYA)", issLine1, issLine2)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if elset.NoradID != 25544 {
		t.Errorf("NoradID = %d, want 25544", elset.NoradID)
	}

	if _, err := engine.Ingest(context.Background(), "BAD", "garbage", issLine2); err == nil {
		t.Fatal("malformed lines accepted")
	}

	engine.runCycle(context.Background())
	if got := len(engine.Snapshot().Objects); got != 1 {
		t.Fatalf("snapshot has %d objects after ingest, want 1", got)
	}
}
