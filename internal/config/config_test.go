package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.CycleInterval != 15*time.Second {
		t.Errorf("CycleInterval = %v, want 15s", cfg.CycleInterval)
	}
	if cfg.WindowDuration != 90*time.Minute {
		t.Errorf("WindowDuration = %v, want 90m", cfg.WindowDuration)
	}
	if cfg.SampleBudget != 180 {
		t.Errorf("SampleBudget = %d, want 180", cfg.SampleBudget)
	}
	if cfg.HistoryDepth != 64 {
		t.Errorf("HistoryDepth = %d, want 64", cfg.HistoryDepth)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRACKER_LISTEN_ADDR", ":9191")
	t.Setenv("TRACKER_CYCLE_INTERVAL", "5s")
	t.Setenv("TRACKER_SAMPLE_BUDGET", "64")
	t.Setenv("TRACKER_MIN_ELEVATION_DEG", "10")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9191" {
		t.Errorf("ListenAddr = %q, want :9191", cfg.ListenAddr)
	}
	if cfg.CycleInterval != 5*time.Second {
		t.Errorf("CycleInterval = %v, want 5s", cfg.CycleInterval)
	}
	if cfg.SampleBudget != 64 {
		t.Errorf("SampleBudget = %d, want 64", cfg.SampleBudget)
	}
	if cfg.MinElevationDg != 10 {
		t.Errorf("MinElevationDg = %v, want 10", cfg.MinElevationDg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		key, val string
	}{
		{"TRACKER_CYCLE_INTERVAL", "soon"},
		{"TRACKER_CYCLE_INTERVAL", "-3s"},
		{"TRACKER_SAMPLE_BUDGET", "1"},
		{"TRACKER_SAMPLE_BUDGET", "many"},
		{"TRACKER_MIN_ELEVATION_DEG", "95"},
		{"TRACKER_HISTORY_DEPTH", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.val, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(""); err == nil {
				t.Fatalf("Load accepted %s=%q", tc.key, tc.val)
			}
		})
	}
}
