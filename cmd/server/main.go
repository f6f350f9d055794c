// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

// Command server runs the Poshan recommendation HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/poshanlabs/poshan/internal/api"
	"github.com/poshanlabs/poshan/internal/config"
	"github.com/poshanlabs/poshan/internal/database"
	"github.com/poshanlabs/poshan/internal/logging"
	"github.com/poshanlabs/poshan/internal/nutrition"
	"github.com/poshanlabs/poshan/internal/recommend"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config file (overrides POSHAN_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(cfg.Log)
	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Msg("starting poshan server")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config) error {
	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close database")
		}
	}()

	engine, err := recommend.New(&cfg.Engine, db, db, nutrition.NewAnalyzer(), db)
	if err != nil {
		return err
	}

	router := api.NewRouter(cfg.Server, engine, db, version)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logging.Info().Msg("server stopped")
	return nil
}
