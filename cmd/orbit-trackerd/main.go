// Command orbit-trackerd runs the orbit tracker: it propagates every
// catalogued object on a fixed cycle and serves live snapshots, deltas, and
// element ingest over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/orbit-tracker/catalog"
	"github.com/signalsfoundry/orbit-tracker/core"
	"github.com/signalsfoundry/orbit-tracker/internal/config"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/internal/observability"
	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/server"
)

func main() {
	envFile := flag.String("env-file", "", "Optional .env file loaded before reading TRACKER_* variables")
	addr := flag.String("addr", "", "HTTP listen address (overrides TRACKER_LISTEN_ADDR)")
	stationsPath := flag.String("stations", "", "Path to a ground-station JSON file (overrides TRACKER_STATIONS_FILE)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *stationsPath != "" {
		cfg.StationsPath = *stationsPath
	}

	collector, err := observability.NewTrackerCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}

	store := catalog.NewStore()

	var elementLog *catalog.Log
	if cfg.PostgresDSN != "" {
		elementLog, err = catalog.OpenLog(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error(ctx, "failed to open element log", logging.String("error", err.Error()))
			os.Exit(1)
		}
		defer elementLog.Close()

		loaded, skipped, err := elementLog.Replay(ctx, store)
		if err != nil {
			log.Error(ctx, "failed to replay element log", logging.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info(ctx, "replayed element log",
			logging.Int("loaded", loaded),
			logging.Int("skipped", skipped),
		)
	}

	stations := loadStations(log, cfg.StationsPath)

	sampler, err := core.NewTrackSampler(core.SamplerConfig{
		Budget:              cfg.SampleBudget,
		AngularToleranceDeg: cfg.AngularTolDeg,
	})
	if err != nil {
		log.Error(ctx, "invalid sampler configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}
	pool := core.NewPool(cfg.Workers, cfg.ObjectBudget, sampler, log)

	engine, err := server.NewEngine(server.EngineConfig{
		CycleInterval:   cfg.CycleInterval,
		Window:          cfg.WindowDuration,
		MinElevationDeg: cfg.MinElevationDg,
		Store:           store,
		Log:             elementLog,
		Pool:            pool,
		HistoryDepth:    cfg.HistoryDepth,
		Collector:       collector,
		Logger:          log,
	})
	if err != nil {
		log.Error(ctx, "failed to build engine", logging.String("error", err.Error()))
		os.Exit(1)
	}

	runCtx, stopEngine := context.WithCancel(ctx)
	go engine.Run(runCtx)

	srv := server.New(cfg.ListenAddr, engine, stations, collector, log)
	log.Info(ctx, "starting orbit tracker",
		logging.String("addr", cfg.ListenAddr),
		logging.Duration("cycle_interval", cfg.CycleInterval),
		logging.Duration("window", cfg.WindowDuration),
		logging.Int("sample_budget", cfg.SampleBudget),
	)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server exited", logging.String("error", err.Error()))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down")
	stopEngine()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.HTTPServer().Shutdown(shutdownCtx)
	observability.ShutdownWithTimeout(ctx, shutdownTracing, log)
}

func loadStations(log logging.Logger, path string) []model.GroundStation {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn(context.Background(), "skipping ground-station load",
			logging.String("path", path),
			logging.String("error", err.Error()),
		)
		return nil
	}
	defer f.Close()

	stations, err := model.LoadGroundStations(f)
	if err != nil {
		log.Warn(context.Background(), "failed to parse ground stations",
			logging.String("path", path),
			logging.String("error", err.Error()),
		)
		return nil
	}
	log.Info(context.Background(), "loaded ground stations",
		logging.String("path", path),
		logging.Int("count", len(stations)),
	)
	return stations
}
