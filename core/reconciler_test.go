package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
)

func stateFor(id int, name string, lat float64) ObjectState {
	return ObjectState{
		ID:   id,
		Name: name,
		Position: model.GeodeticSample{
			T:     time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC),
			Lat:   lat,
			AltKm: 420,
		},
		Coverage: &model.Footprint{RadiusKm: 2200},
	}
}

func TestReconcileFirstCycleAddsAll(t *testing.T) {
	rec := NewReconciler()

	delta, snap := rec.Reconcile(map[int]ObjectState{
		25544: stateFor(25544, "ISS", 10),
		20580: stateFor(20580, "HST", -5),
	})

	if delta.Sequence != 1 || snap.Sequence != 1 {
		t.Fatalf("sequence = %d/%d, want 1/1", delta.Sequence, snap.Sequence)
	}
	if len(delta.Adds) != 2 || len(delta.Updates) != 0 || len(delta.Removes) != 0 {
		t.Fatalf("delta = %d adds, %d updates, %d removes; want 2/0/0",
			len(delta.Adds), len(delta.Updates), len(delta.Removes))
	}
	if delta.Adds[0].ID != 20580 || delta.Adds[1].ID != 25544 {
		t.Errorf("adds not sorted by catalog number: %d, %d", delta.Adds[0].ID, delta.Adds[1].ID)
	}
	if len(snap.Objects) != 2 || snap.Objects[0].ID != 20580 {
		t.Errorf("snapshot not sorted: %+v", snap.Objects)
	}
}

func TestReconcileSteadyStateUpdates(t *testing.T) {
	rec := NewReconciler()
	rec.Reconcile(map[int]ObjectState{25544: stateFor(25544, "ISS", 10)})

	delta, snap := rec.Reconcile(map[int]ObjectState{25544: stateFor(25544, "ISS", 12)})

	if delta.Sequence != 2 {
		t.Fatalf("sequence = %d, want 2", delta.Sequence)
	}
	if len(delta.Adds) != 0 || len(delta.Updates) != 1 || len(delta.Removes) != 0 {
		t.Fatalf("delta = %d adds, %d updates, %d removes; want 0/1/0",
			len(delta.Adds), len(delta.Updates), len(delta.Removes))
	}
	if snap.Objects[0].Position.Lat != 12 {
		t.Errorf("snapshot carries stale state")
	}
}

func TestReconcileRemoveOncePerDisappearance(t *testing.T) {
	rec := NewReconciler()
	rec.Reconcile(map[int]ObjectState{25544: stateFor(25544, "ISS", 10)})

	// Object fails this cycle: exactly one Remove.
	delta, snap := rec.Reconcile(map[int]ObjectState{})
	if len(delta.Removes) != 1 || delta.Removes[0] != 25544 {
		t.Fatalf("removes = %v, want [25544]", delta.Removes)
	}
	if len(snap.Objects) != 0 {
		t.Fatalf("snapshot still contains removed object")
	}

	// Still failing: no second Remove.
	delta, _ = rec.Reconcile(map[int]ObjectState{})
	if !delta.Empty() {
		t.Fatalf("second failed cycle produced changes: %+v", delta)
	}

	// Recovery: a fresh Add, not an Update.
	delta, _ = rec.Reconcile(map[int]ObjectState{25544: stateFor(25544, "ISS", 11)})
	if len(delta.Adds) != 1 || len(delta.Updates) != 0 {
		t.Fatalf("recovery delta = %d adds, %d updates; want 1/0", len(delta.Adds), len(delta.Updates))
	}
}

func TestReconcileDeltaProportionalToChanges(t *testing.T) {
	rec := NewReconciler()

	population := make(map[int]ObjectState, 100)
	for id := 1000; id < 1100; id++ {
		population[id] = stateFor(id, "SAT", 0)
	}
	rec.Reconcile(population)

	// One departure and one arrival against a stable population of 100.
	delete(population, 1000)
	population[2000] = stateFor(2000, "NEW", 0)
	delta, _ := rec.Reconcile(population)

	if len(delta.Adds) != 1 || len(delta.Removes) != 1 {
		t.Fatalf("delta = %d adds, %d removes; want 1/1", len(delta.Adds), len(delta.Removes))
	}
	if len(delta.Updates) != 99 {
		t.Fatalf("updates = %d, want 99 for the unchanged-presence population", len(delta.Updates))
	}
}

func TestReconcileIdenticalInputsDeterministic(t *testing.T) {
	input := map[int]ObjectState{
		25544: stateFor(25544, "ISS", 10),
		20580: stateFor(20580, "HST", -5),
		43678: stateFor(43678, "S6A", 40),
	}

	recA, recB := NewReconciler(), NewReconciler()
	_, snapA := recA.Reconcile(input)
	_, snapB := recB.Reconcile(input)

	if len(snapA.Objects) != len(snapB.Objects) {
		t.Fatalf("snapshot sizes differ")
	}
	for i := range snapA.Objects {
		if snapA.Objects[i].ID != snapB.Objects[i].ID {
			t.Fatalf("ordering differs at %d: %d vs %d", i, snapA.Objects[i].ID, snapB.Objects[i].ID)
		}
	}
}
