// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the tracker server needs at startup. All values
// come from TRACKER_* environment variables; mains may override individual
// fields from flags afterwards.
type Config struct {
	ListenAddr string

	CycleInterval  time.Duration // cadence of the propagation cycle
	WindowDuration time.Duration // ground-track prediction window per cycle
	SampleBudget   int           // max samples per track
	AngularTolDeg  float64       // sampler refinement tolerance
	MinElevationDg float64       // coverage minimum elevation angle
	ObjectBudget   time.Duration // per-object sampling time budget
	HistoryDepth   int           // retained delta-history ring size
	Workers        int           // propagation worker pool size; 0 = NumCPU

	PostgresDSN  string // optional element-log backend; empty = memory only
	StationsPath string // optional ground-station reference JSON
}

// Load reads an optional .env file (ignored when absent) and resolves the
// configuration from the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		ListenAddr:     getString("TRACKER_LISTEN_ADDR", ":8080"),
		CycleInterval:  15 * time.Second,
		WindowDuration: 90 * time.Minute,
		SampleBudget:   180,
		AngularTolDeg:  2.0,
		MinElevationDg: 5.0,
		ObjectBudget:   2 * time.Second,
		HistoryDepth:   64,
		Workers:        0,
		PostgresDSN:    os.Getenv("TRACKER_POSTGRES_DSN"),
		StationsPath:   os.Getenv("TRACKER_STATIONS_FILE"),
	}

	var err error
	if cfg.CycleInterval, err = getDuration("TRACKER_CYCLE_INTERVAL", cfg.CycleInterval); err != nil {
		return Config{}, err
	}
	if cfg.WindowDuration, err = getDuration("TRACKER_WINDOW", cfg.WindowDuration); err != nil {
		return Config{}, err
	}
	if cfg.ObjectBudget, err = getDuration("TRACKER_OBJECT_BUDGET", cfg.ObjectBudget); err != nil {
		return Config{}, err
	}
	if cfg.SampleBudget, err = getInt("TRACKER_SAMPLE_BUDGET", cfg.SampleBudget); err != nil {
		return Config{}, err
	}
	if cfg.HistoryDepth, err = getInt("TRACKER_HISTORY_DEPTH", cfg.HistoryDepth); err != nil {
		return Config{}, err
	}
	if cfg.Workers, err = getInt("TRACKER_WORKERS", cfg.Workers); err != nil {
		return Config{}, err
	}
	if cfg.AngularTolDeg, err = getFloat("TRACKER_ANGULAR_TOLERANCE_DEG", cfg.AngularTolDeg); err != nil {
		return Config{}, err
	}
	if cfg.MinElevationDg, err = getFloat("TRACKER_MIN_ELEVATION_DEG", cfg.MinElevationDg); err != nil {
		return Config{}, err
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.CycleInterval <= 0 {
		return fmt.Errorf("config: cycle interval must be positive, got %v", c.CycleInterval)
	}
	if c.WindowDuration <= 0 {
		return fmt.Errorf("config: window duration must be positive, got %v", c.WindowDuration)
	}
	if c.SampleBudget < 2 {
		return fmt.Errorf("config: sample budget must be at least 2, got %d", c.SampleBudget)
	}
	if c.HistoryDepth < 1 {
		return fmt.Errorf("config: history depth must be at least 1, got %d", c.HistoryDepth)
	}
	if c.MinElevationDg < 0 || c.MinElevationDg >= 90 {
		return fmt.Errorf("config: minimum elevation %v° outside [0°, 90°)", c.MinElevationDg)
	}
	return nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return parsed, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return parsed, nil
}
