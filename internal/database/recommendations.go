// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/poshanlabs/poshan/internal/recommend"
)

// SaveRecommendation persists a ranking run, assigning it a UUID.
func (db *DB) SaveRecommendation(ctx context.Context, rec recommend.Recommendation) (recommend.Recommendation, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	foodIDs, err := json.Marshal(rec.FoodIDs)
	if err != nil {
		return recommend.Recommendation{}, fmt.Errorf("encode food ids: %w", err)
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO recommendations (id, user_id, trimester, food_ids, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Trimester, string(foodIDs), rec.Reason, rec.CreatedAt)
	observe("save_recommendation", start, err)
	if err != nil {
		return recommend.Recommendation{}, fmt.Errorf("save recommendation: %w", err)
	}
	return rec, nil
}

// RecommendationHistory returns one page of a user's persisted runs,
// newest first, along with the total count. Pages are 1-based.
func (db *DB) RecommendationHistory(ctx context.Context, userID int64, page, perPage int) ([]recommend.Recommendation, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	start := time.Now()
	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM recommendations WHERE user_id = ?`, userID).Scan(&total)
	observe("count_recommendations", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("count recommendations: %w", err)
	}

	start = time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, trimester, food_ids, reason, created_at
		FROM recommendations
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		userID, perPage, (page-1)*perPage)
	observe("recommendation_history", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var out []recommend.Recommendation
	for rows.Next() {
		var (
			rec     recommend.Recommendation
			foodIDs string
			reason  sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Trimester, &foodIDs, &reason, &rec.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan recommendation: %w", err)
		}
		rec.Reason = reason.String
		if err := json.Unmarshal([]byte(foodIDs), &rec.FoodIDs); err != nil {
			return nil, 0, fmt.Errorf("decode food ids for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate recommendations: %w", err)
	}
	return out, total, nil
}
