package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/powermon/internal/collector"
	"codeberg.org/mutker/powermon/internal/config"
	"codeberg.org/mutker/powermon/internal/errors"
	"codeberg.org/mutker/powermon/internal/filterids"
	"codeberg.org/mutker/powermon/internal/logger"
	"codeberg.org/mutker/powermon/internal/pid"
	"codeberg.org/mutker/powermon/internal/store"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel == "debug", cfg.LogLevel == "info", logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	errFactory := errors.New()

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer pid.Remove()

	st, err := store.New(store.Config{DBPath: cfg.Database})
	if err != nil {
		logger.Fatal().Err(errFactory.Wrap(errors.ErrInitStore, err)).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.ReplayCSV != "" {
		logger.Info().Str("path", cfg.ReplayCSV).Msg("Running in replay mode")
		if _, err := collector.Replay(ctx, cfg.ReplayCSV, st); err != nil {
			logger.Error().Err(err).Msg("replay failed")
		}
		return
	}

	supervisor, err := collector.New(collector.Config{
		RTLTCPPath:     cfg.RTLTCPPath,
		RTLAMRPath:     cfg.RTLAMRPath,
		Host:           cfg.Host,
		Port:           cfg.Port,
		SettleDelay:    time.Duration(cfg.SettleDelay) * time.Second,
		RestartBackoff: time.Duration(cfg.RestartBackoff) * time.Second,
		Unique:         cfg.Unique,
		FilterIDsPath:  filterids.Path(cfg.Database),
	}, st)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize collector")
	}

	if err := supervisor.Run(ctx); err != nil {
		logger.Error().Err(errFactory.Wrap(errors.ErrRunCollector, err)).Msg("error in collector loop")
	}
	logger.Info().Msg("Exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
