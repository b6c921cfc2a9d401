// Command worldsim runs the medieval settlement economy simulation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/medieval-sim/internal/config"
	"github.com/talgya/medieval-sim/internal/engine"
	"github.com/talgya/medieval-sim/internal/observability"
	"github.com/talgya/medieval-sim/internal/persistence"
	"github.com/talgya/medieval-sim/internal/realm"
)

func main() {
	configPath := flag.String("config", "", "path to a worldsim YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("worldsim failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	format := strings.ToLower(cfg.Log.Format)
	if format == "" || format == "auto" {
		format = "json"
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			format = "text"
		}
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg config.Config, logger *slog.Logger) error {
	// ── Scenario ──────────────────────────────────────────────────────
	scenario := realm.DefaultScenario()
	if cfg.Scenario.Path != "" {
		sc, err := realm.LoadScenario(cfg.Scenario.Path)
		if err != nil {
			return err
		}
		scenario = sc
	}
	logger.Info("scenario loaded", "name", scenario.Name, "settlements", len(scenario.Settlements))

	// ── Database ──────────────────────────────────────────────────────
	var store *persistence.Store
	if cfg.Persistence.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Persistence.DBPath), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		st, err := persistence.Open(cfg.Persistence.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		store = st
		logger.Info("database opened", "path", cfg.Persistence.DBPath)
	}

	eng := engine.New(engine.Options{
		Seed:   cfg.Sim.Seed,
		Start:  cfg.Sim.Start,
		Step:   cfg.Sim.Step,
		Logger: logger,
	})

	// ── Load or generate world state ─────────────────────────────────
	restored := false
	if store != nil {
		snap, info, err := store.LatestSnapshot()
		switch {
		case err == nil:
			w, err := persistence.Restore(snap)
			if err != nil {
				return fmt.Errorf("restore snapshot %s: %w", info.ID, err)
			}
			eng.Context().World = w
			eng.Context().Clock.Reset(snap.Time)
			restored = true
			logger.Info("world state restored",
				"snapshot", info.ID,
				"sim_time", engine.SimTime(snap.Time),
				"entities", info.Entities,
				"digest", info.Digest,
			)
		case errors.Is(err, persistence.ErrNoSnapshot):
			logger.Info("no saved state found, seeding new world")
		default:
			return fmt.Errorf("load latest snapshot: %w", err)
		}
	}

	// ── Metrics ──────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewSimCollector(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	mod := realm.NewModule(scenario, realm.Options{
		Seed:               cfg.Sim.Seed,
		WeatherAmplitude:   cfg.Weather.Amplitude,
		HouseholdAllowance: cfg.Economy.HouseholdAllowance,
		PassionWageWeight:  cfg.Economy.PassionWageWeight,
		Restored:           restored,
	})
	rt := &runtimeModule{
		eng:       eng,
		store:     store,
		metrics:   metrics,
		autosave:  cfg.Persistence.AutosaveEvery,
		keep:      cfg.Persistence.Keep,
		tickLimit: cfg.Sim.Ticks,
	}
	if err := engine.Load(eng, mod, rt); err != nil {
		return err
	}

	if store != nil && !restored {
		if err := save(store, eng.Context(), cfg.Persistence.Keep); err != nil {
			return fmt.Errorf("initial save: %w", err)
		}
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(gctx)
	defer cancelRun()

	g.Go(func() error {
		defer cancelRun()
		return eng.Run(runCtx, cfg.Sim.TickInterval)
	})

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("metrics listener starting", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	runErr := g.Wait()

	// Final save on clean shutdown only; a failed tick may leave the world
	// half updated.
	if store != nil && runErr == nil {
		logger.Info("final save...")
		if err := save(store, eng.Context(), cfg.Persistence.Keep); err != nil {
			return fmt.Errorf("final save: %w", err)
		}
	}
	return runErr
}
