package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"tickalert/internal/infrastructure/config"
	"tickalert/internal/infrastructure/logger"
	"tickalert/internal/infrastructure/svc"
)

func main() {
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml (empty: env only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	log.Info().
		Str("config", *configPath).
		Strs("exchanges", cfg.Polygon.Exchanges).
		Int("symbols", len(sc.Symbols)).
		Int("condition_flag", cfg.Detector.ConditionFlag).
		Int64("min_volume", cfg.Detector.MinVolume).
		Str("lifecycle", cfg.Lifecycle.Mode).
		Msg("tickalert started")

	runErr := sc.Run(ctx)
	_ = sc.Close()

	if errors.Is(runErr, svc.ErrTransportFatal) {
		// 交给外部进程管理器重启
		log.Error().Err(runErr).Msg("stream lost, exiting")
		os.Exit(1)
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("tickalert exited with error")
		os.Exit(1)
	}
	log.Info().Msg("tickalert stopped")
}
