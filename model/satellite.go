package model

import "time"

// Satellite identifies a tracked orbiting object. The catalog number is the
// NORAD identifier and is unique across the tracking set.
type Satellite struct {
	NoradID int
	Name    string
}

// ElementSet is one two-line element record for a satellite. Records are
// immutable once stored; new data for the same object is appended as a new
// record rather than overwriting an old one, so that a query close to an
// older epoch can still use the record that bounds its propagation error.
type ElementSet struct {
	NoradID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}
