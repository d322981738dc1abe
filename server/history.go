package server

import (
	"sort"
	"sync"

	"github.com/signalsfoundry/orbit-tracker/core"
)

// History retains the most recent cycle deltas so clients polling with a
// sequence number can catch up incrementally instead of refetching the full
// snapshot. Deltas older than the configured depth are discarded; clients
// behind the retained window are told to resync.
type History struct {
	mu     sync.RWMutex
	depth  int
	deltas []core.Delta // ascending, contiguous sequence numbers
}

func NewHistory(depth int) *History {
	if depth < 1 {
		depth = 1
	}
	return &History{depth: depth}
}

// Append records one cycle's delta, evicting the oldest entry once the ring
// is full.
func (h *History) Append(delta core.Delta) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deltas = append(h.deltas, delta)
	if len(h.deltas) > h.depth {
		h.deltas = h.deltas[len(h.deltas)-h.depth:]
	}
}

// Latest returns the sequence number of the newest retained delta, or zero
// when no cycle has completed yet.
func (h *History) Latest() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.deltas) == 0 {
		return 0
	}
	return h.deltas[len(h.deltas)-1].Sequence
}

// Since merges every retained delta after the given sequence into a single
// delta equivalent to replaying them in order. ok is false when the client
// is too far behind (or ahead of) the retained window and must resync with
// a full snapshot.
//
// Merging collapses intermediate churn: an object added and then removed
// within the window contributes nothing; removed and re-added collapses to
// an update.
func (h *History) Since(seq uint64) (core.Delta, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.deltas) == 0 {
		return core.Delta{}, false
	}
	latest := h.deltas[len(h.deltas)-1].Sequence
	if seq == latest {
		return core.Delta{Sequence: latest}, true
	}
	if seq > latest {
		return core.Delta{}, false
	}
	oldest := h.deltas[0].Sequence
	if seq+1 < oldest {
		return core.Delta{}, false
	}

	type action uint8
	const (
		actAdd action = iota
		actUpdate
		actRemove
	)

	first := make(map[int]action)
	last := make(map[int]core.ObjectState)
	removed := make(map[int]struct{})

	note := func(id int, act action) {
		if _, seen := first[id]; !seen {
			first[id] = act
		}
	}

	for _, d := range h.deltas {
		if d.Sequence <= seq {
			continue
		}
		for _, s := range d.Adds {
			note(s.ID, actAdd)
			last[s.ID] = s
			delete(removed, s.ID)
		}
		for _, s := range d.Updates {
			note(s.ID, actUpdate)
			last[s.ID] = s
			delete(removed, s.ID)
		}
		for _, id := range d.Removes {
			note(id, actRemove)
			delete(last, id)
			removed[id] = struct{}{}
		}
	}

	merged := core.Delta{Sequence: latest}
	for id, state := range last {
		if first[id] == actAdd {
			merged.Adds = append(merged.Adds, state)
		} else {
			merged.Updates = append(merged.Updates, state)
		}
	}
	for id := range removed {
		// Added and removed within the window: absent at both ends.
		if first[id] == actAdd {
			continue
		}
		merged.Removes = append(merged.Removes, id)
	}

	sort.Slice(merged.Adds, func(i, j int) bool { return merged.Adds[i].ID < merged.Adds[j].ID })
	sort.Slice(merged.Updates, func(i, j int) bool { return merged.Updates[i].ID < merged.Updates[j].ID })
	sort.Ints(merged.Removes)
	return merged, true
}
