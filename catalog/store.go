// Package catalog holds the versioned element-set catalog for all tracked
// objects. Storage is append-only: ingesting a new element set never mutates
// or removes an existing one, and readers always observe either the
// pre-insert or post-insert record list.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// ErrUnknownObject is returned by Resolve for a catalog number with no
// stored element sets.
var ErrUnknownObject = errors.New("unknown object")

type objectRecord struct {
	sat model.Satellite
	// elsets is kept sorted by epoch ascending. Records never change after
	// insertion, only the slice grows.
	elsets []*model.ElementSet
}

// Store is an in-memory, thread-safe element-set catalog.
type Store struct {
	mu      sync.RWMutex
	objects map[int]*objectRecord
}

// NewStore constructs an empty catalog.
func NewStore() *Store {
	return &Store{objects: make(map[int]*objectRecord)}
}

// Put validates and appends an element set for the given object. The two
// data lines are checked for fixed-width layout and checksums before
// anything is stored; a rejected record leaves the object untouched. The
// epoch and catalog number are always taken from the validated lines, not
// from the caller.
func (s *Store) Put(noradID int, name string, line1, line2 string) (*model.ElementSet, error) {
	fields, err := tle.Validate(line1, line2)
	if err != nil {
		return nil, err
	}
	if fields.NoradID != noradID {
		return nil, fmt.Errorf("%w: submitted catalog number %d does not match lines (%d)", tle.ErrInvalidFormat, noradID, fields.NoradID)
	}

	elset := &model.ElementSet{
		NoradID: noradID,
		Name:    name,
		Epoch:   fields.Epoch,
		Line1:   line1,
		Line2:   line2,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.objects[noradID]
	if !ok {
		rec = &objectRecord{sat: model.Satellite{NoradID: noradID, Name: name}}
		s.objects[noradID] = rec
	}
	if name != "" {
		rec.sat.Name = name
	}

	// Insert keeping epoch order so Resolve is independent of submission
	// order.
	idx := sort.Search(len(rec.elsets), func(i int) bool {
		return rec.elsets[i].Epoch.After(elset.Epoch)
	})
	rec.elsets = append(rec.elsets, nil)
	copy(rec.elsets[idx+1:], rec.elsets[idx:])
	rec.elsets[idx] = elset

	return elset, nil
}

// Resolve returns the element set whose epoch is the latest epoch at or
// before the query time. If every stored epoch lies in the future the
// earliest record is returned with extrapolated=true, since propagating
// backwards from the nearest epoch still beats refusing to answer.
func (s *Store) Resolve(noradID int, at time.Time) (elset *model.ElementSet, extrapolated bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.objects[noradID]
	if !ok || len(rec.elsets) == 0 {
		return nil, false, fmt.Errorf("%w: catalog number %d", ErrUnknownObject, noradID)
	}

	// Latest index with epoch <= at.
	idx := sort.Search(len(rec.elsets), func(i int) bool {
		return rec.elsets[i].Epoch.After(at)
	})
	if idx == 0 {
		return rec.elsets[0], true, nil
	}
	return rec.elsets[idx-1], false, nil
}

// Satellites returns the identity of every object with at least one stored
// element set, ordered by catalog number.
func (s *Store) Satellites() []model.Satellite {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Satellite, 0, len(s.objects))
	for _, rec := range s.objects {
		out = append(out, rec.sat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NoradID < out[j].NoradID })
	return out
}

// RecordCount returns the number of stored element sets for an object.
func (s *Store) RecordCount(noradID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.objects[noradID]
	if !ok {
		return 0
	}
	return len(rec.elsets)
}
