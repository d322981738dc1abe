package clock

import (
	"testing"
	"time"
)

func TestManualSet(t *testing.T) {
	start := time.Date(2025, time.May, 18, 12, 0, 0, 0, time.UTC)
	c := NewManual(start)

	target := start.Add(42 * time.Second)
	c.Set(target)

	if got := c.Now(); !got.Equal(target) {
		t.Fatalf("Now() = %v, want %v", got, target)
	}
}

func TestManualAdvance(t *testing.T) {
	start := time.Date(2025, time.May, 18, 12, 0, 0, 0, time.UTC)
	c := NewManual(start)

	got := c.Advance(15 * time.Second)
	want := start.Add(15 * time.Second)
	if !got.Equal(want) {
		t.Fatalf("Advance returned %v, want %v", got, want)
	}
	if now := c.Now(); !now.Equal(want) {
		t.Fatalf("Now() = %v, want %v", now, want)
	}
}

func TestSystemTracksWallClock(t *testing.T) {
	before := time.Now()
	got := System().Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Fatalf("System().Now() = %v outside [%v, %v]", got, before, after)
	}
}
