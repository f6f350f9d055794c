// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/poshanlabs/poshan/internal/recommend"
)

// RecordInteraction stores one user action on a food item. A zero
// CreatedAt is stamped with the current time.
func (db *DB) RecordInteraction(ctx context.Context, in recommend.Interaction) error {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO interactions (user_id, food_id, kind, created_at)
		VALUES (?, ?, ?, ?)`,
		in.UserID, in.FoodID, string(in.Kind), createdAt)
	observe("record_interaction", start, err)
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// RecentInteractions returns up to limit interactions for the user,
// newest first.
func (db *DB) RecentInteractions(ctx context.Context, userID int64, limit int) ([]recommend.Interaction, error) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, food_id, kind, created_at
		FROM interactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, limit)
	observe("recent_interactions", start, err)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []recommend.Interaction
	for rows.Next() {
		var (
			in   recommend.Interaction
			kind string
		)
		if err := rows.Scan(&in.UserID, &in.FoodID, &kind, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.Kind = recommend.InteractionKind(kind)
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}
