package core

import (
	"sort"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// ObjectState is the per-object payload carried by snapshots and deltas:
// the current position, the sampled ground track for the window, and the
// coverage footprint. Coverage is nil when the footprint computation was
// rejected; the position is still served.
type ObjectState struct {
	ID       int
	Name     string
	Position model.GeodeticSample
	Samples  []model.GeodeticSample
	Coverage *model.Footprint
}

// Delta is the minimal change set between two consecutive snapshots. Its
// size is proportional to the number of objects whose presence or state
// changed, never to the tracked population.
type Delta struct {
	Sequence uint64
	Adds     []ObjectState
	Updates  []ObjectState
	Removes  []int
}

// Empty reports whether the delta carries no changes.
func (d Delta) Empty() bool {
	return len(d.Adds) == 0 && len(d.Updates) == 0 && len(d.Removes) == 0
}

// Snapshot is one cycle's fully-formed output: every present object's
// state, stamped with the cycle sequence number. Snapshots are immutable
// once published.
type Snapshot struct {
	Sequence uint64
	Objects  []ObjectState // sorted by catalog number
}

// Reconciler tracks which objects are currently present and turns each
// cycle's propagation results into a snapshot plus an add/update/remove
// delta. Each object follows Absent → Present → Absent: a successful cycle
// keeps (or makes) it Present, a failed or missing cycle makes it Absent.
//
// Guarantees: an object never produces two Adds without an intervening
// Remove, never an Update while Absent, and at most one Remove per
// disappearance.
//
// Reconcile is called from the single cycle goroutine; the Reconciler
// itself needs no locking.
type Reconciler struct {
	present map[int]struct{}
	seq     uint64
}

// NewReconciler starts with every object Absent and the sequence at zero.
func NewReconciler() *Reconciler {
	return &Reconciler{present: make(map[int]struct{})}
}

// Sequence returns the sequence number of the most recent cycle.
func (r *Reconciler) Sequence() uint64 {
	return r.seq
}

// Reconcile ingests one cycle's successful object states (failed objects
// are simply not in the map) and returns the resulting delta and full
// snapshot. Outputs are sorted by catalog number so consecutive cycles with
// identical inputs produce identical bytes on the wire.
func (r *Reconciler) Reconcile(states map[int]ObjectState) (Delta, Snapshot) {
	r.seq++
	delta := Delta{Sequence: r.seq}

	ids := make([]int, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	snapshot := Snapshot{Sequence: r.seq, Objects: make([]ObjectState, 0, len(ids))}
	for _, id := range ids {
		state := states[id]
		snapshot.Objects = append(snapshot.Objects, state)

		if _, wasPresent := r.present[id]; wasPresent {
			delta.Updates = append(delta.Updates, state)
		} else {
			delta.Adds = append(delta.Adds, state)
			r.present[id] = struct{}{}
		}
	}

	for id := range r.present {
		if _, stillHere := states[id]; !stillHere {
			delta.Removes = append(delta.Removes, id)
		}
	}
	sort.Ints(delta.Removes)
	for _, id := range delta.Removes {
		delete(r.present, id)
	}

	return delta, snapshot
}
