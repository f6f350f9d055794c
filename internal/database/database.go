// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

// Package database implements Poshan's storage layer on DuckDB. It
// provides the food catalog, user interaction history, and persisted
// recommendation runs behind the interfaces the ranking engine
// consumes.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/poshanlabs/poshan/internal/config"
	"github.com/poshanlabs/poshan/internal/logging"
	"github.com/poshanlabs/poshan/internal/metrics"
)

// DB wraps the DuckDB connection. Safe for concurrent use.
type DB struct {
	conn *sql.DB
	cfg  config.DatabaseConfig
}

// New opens the database, initializes the schema, and seeds the food
// catalog from cfg.SeedFile when the catalog is empty.
func New(cfg config.DatabaseConfig) (*DB, error) {
	if dir := filepath.Dir(cfg.Path); cfg.Path != ":memory:" && dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	// Auto-install is disabled so startup cannot hang on a network
	// fetch in restricted environments.
	connStr := cfg.Path + "?access_mode=read_write&autoinstall_known_extensions=false&autoload_known_extensions=false"
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	if cfg.SeedFile != "" {
		if err := db.seedIfEmpty(context.Background(), cfg.SeedFile); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}

	logging.Info().
		Str("component", "database").
		Str("path", cfg.Path).
		Msg("database ready")
	return db, nil
}

// Conn exposes the underlying connection for health checks.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close releases the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// initialize creates the schema. All statements are idempotent so
// startup on an existing file is a no-op.
func (db *DB) initialize() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_food_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_interaction_id START 1`,
		`CREATE TABLE IF NOT EXISTS foods (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_food_id'),
			name_english VARCHAR NOT NULL,
			name_hindi VARCHAR,
			category VARCHAR NOT NULL,
			trimester_suitability VARCHAR,
			benefits VARCHAR,
			precautions VARCHAR,
			preparation_tips VARCHAR,
			seasonal_availability VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS interactions (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_interaction_id'),
			user_id BIGINT NOT NULL,
			food_id BIGINT NOT NULL,
			kind VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recommendations (
			id VARCHAR PRIMARY KEY,
			user_id BIGINT NOT NULL,
			trimester INTEGER NOT NULL,
			food_ids VARCHAR NOT NULL,
			reason VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions (user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_user ON recommendations (user_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// observe records query metrics; it is used by all query methods.
func observe(operation string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, time.Since(start), err)
}
