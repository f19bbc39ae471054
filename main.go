package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/neurarena/config"
	"github.com/pthm-cable/neurarena/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", true, "Output generation stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxGenerations := flag.Int("max-generations", 0, "Stop after N generations (0 = use config)")
	loadState := flag.String("load-state", "", "Resume from a saved state file")
	saveState := flag.String("save-state", "", "Write final state to this file on exit")
	snapshotEvery := flag.Int("snapshot-every", 0, "Write a state snapshot every N generations (0 = never)")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	s, err := sim.New(cfg, sim.Options{
		Seed:      rngSeed,
		OutputDir: *outputDir,
		LogStats:  *logStats,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	if *loadState != "" {
		if err := s.LoadState(*loadState); err != nil {
			slog.Error("failed to load state", "error", err, "path", *loadState)
			os.Exit(1)
		}
		slog.Info("resumed from saved state", "path", *loadState, "tick", s.Tick(), "generation", s.Generation())
	} else {
		s.InitializePopulation(cfg.Population.Initial)
	}

	generations := *maxGenerations
	if generations <= 0 {
		generations = cfg.Evolution.MaxGenerations
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"grid", cfg.Grid.Width*cfg.Grid.Height,
		"population", s.Population(),
		"max_generations", generations,
	)

	for gen := 0; generations <= 0 || gen < generations; gen++ {
		stats := s.RunGeneration()
		if stats == nil {
			break
		}
		if *snapshotEvery > 0 && *outputDir != "" && (gen+1)%*snapshotEvery == 0 {
			path := filepath.Join(*outputDir, "state.json")
			if err := s.SaveState(path); err != nil {
				slog.Error("failed to write state snapshot", "error", err, "path", path)
			}
		}
	}

	if *saveState != "" {
		if err := s.SaveState(*saveState); err != nil {
			slog.Error("failed to save state", "error", err, "path", *saveState)
			os.Exit(1)
		}
		slog.Info("state saved", "path", *saveState)
	}

	slog.Info("simulation complete",
		"generations", s.Generation(),
		"ticks", s.Tick(),
		"population", s.Population(),
	)
}
