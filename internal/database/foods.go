// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/poshanlabs/poshan/internal/logging"
	"github.com/poshanlabs/poshan/internal/recommend"
)

// ListRecommendableFoods returns the full catalog ordered by ID.
func (db *DB) ListRecommendableFoods(ctx context.Context) ([]recommend.FoodItem, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name_english, name_hindi, category, trimester_suitability,
		       benefits, precautions, preparation_tips, seasonal_availability
		FROM foods
		ORDER BY id`)
	observe("list_foods", start, err)
	if err != nil {
		return nil, fmt.Errorf("query foods: %w", err)
	}
	defer rows.Close()

	var foods []recommend.FoodItem
	for rows.Next() {
		item, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		foods = append(foods, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foods: %w", err)
	}
	return foods, nil
}

// FoodsByID resolves a set of food IDs, preserving the requested order.
// Unknown IDs are skipped.
func (db *DB) FoodsByID(ctx context.Context, ids []int64) ([]recommend.FoodItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	foods, err := db.ListRecommendableFoods(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]recommend.FoodItem, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}
	out := make([]recommend.FoodItem, 0, len(ids))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// InsertFood adds a catalog entry and returns its assigned ID.
func (db *DB) InsertFood(ctx context.Context, item recommend.FoodItem) (int64, error) {
	suitability, err := encodeSuitability(item.TrimesterSuitability)
	if err != nil {
		return 0, fmt.Errorf("encode suitability: %w", err)
	}
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO foods (name_english, name_hindi, category, trimester_suitability,
		                   benefits, precautions, preparation_tips, seasonal_availability)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		item.NameEnglish, item.NameHindi, item.Category, suitability,
		item.Benefits, item.Precautions, item.PreparationTips, item.SeasonalAvailability)
	var id int64
	err = row.Scan(&id)
	observe("insert_food", start, err)
	if err != nil {
		return 0, fmt.Errorf("insert food: %w", err)
	}
	return id, nil
}

// CountFoods returns the catalog size.
func (db *DB) CountFoods(ctx context.Context) (int, error) {
	start := time.Now()
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM foods`).Scan(&n)
	observe("count_foods", start, err)
	if err != nil {
		return 0, fmt.Errorf("count foods: %w", err)
	}
	return n, nil
}

type foodRow interface {
	Scan(dest ...any) error
}

func scanFood(row foodRow) (recommend.FoodItem, error) {
	var (
		item        recommend.FoodItem
		nameHindi   sql.NullString
		suitability sql.NullString
		benefits    sql.NullString
		precautions sql.NullString
		prepTips    sql.NullString
		seasonal    sql.NullString
	)
	err := row.Scan(&item.ID, &item.NameEnglish, &nameHindi, &item.Category,
		&suitability, &benefits, &precautions, &prepTips, &seasonal)
	if err != nil {
		return recommend.FoodItem{}, fmt.Errorf("scan food: %w", err)
	}
	item.NameHindi = nameHindi.String
	item.Benefits = benefits.String
	item.Precautions = precautions.String
	item.PreparationTips = prepTips.String
	item.SeasonalAvailability = seasonal.String
	if suitability.Valid && suitability.String != "" {
		s, err := DecodeSuitability([]byte(suitability.String))
		if err != nil {
			// A malformed row degrades to "no data" rather than
			// failing the whole catalog.
			logging.Warn().
				Str("component", "database").
				Int64("food_id", item.ID).
				Err(err).
				Msg("unreadable trimester suitability")
		} else {
			item.TrimesterSuitability = s
		}
	}
	return item, nil
}

// DecodeSuitability parses the stored JSON shape into the tagged
// variant the engine scores on. Keys "1".."3" carry per-trimester
// values of any JSON type; "all" or "all_trimesters" is a broad flag.
func DecodeSuitability(raw []byte) (recommend.TrimesterSuitability, error) {
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return recommend.TrimesterSuitability{}, err
	}
	out := recommend.TrimesterSuitability{}
	for key, value := range generic {
		if key == "all" || key == "all_trimesters" {
			if b, ok := value.(bool); ok {
				out.AllTrimesters = b
			}
			continue
		}
		trimester, err := strconv.Atoi(key)
		if err != nil || trimester < 1 || trimester > 3 {
			continue
		}
		if out.ByTrimester == nil {
			out.ByTrimester = make(map[int]recommend.SuitabilityValue, 3)
		}
		out.ByTrimester[trimester] = classifySuitability(value)
	}
	return out, nil
}

func classifySuitability(value any) recommend.SuitabilityValue {
	switch v := value.(type) {
	case bool:
		return recommend.BoolSuitability(v)
	case string:
		return recommend.StringSuitability(v)
	case float64:
		return recommend.NumberSuitability(v)
	default:
		return recommend.OtherSuitability()
	}
}

func encodeSuitability(s recommend.TrimesterSuitability) (string, error) {
	if s.IsZero() {
		return "", nil
	}
	generic := make(map[string]any, len(s.ByTrimester)+1)
	if s.AllTrimesters {
		generic["all_trimesters"] = true
	}
	for trimester, v := range s.ByTrimester {
		key := strconv.Itoa(trimester)
		switch v.Kind {
		case recommend.SuitabilityBool:
			generic[key] = v.Bool
		case recommend.SuitabilityString:
			generic[key] = v.Str
		case recommend.SuitabilityNumber:
			generic[key] = v.Num
		default:
			generic[key] = nil
		}
	}
	encoded, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// seedFood is the catalog seed file entry. Suitability stays raw JSON
// so seed files can use any of the supported shapes.
type seedFood struct {
	NameEnglish          string          `json:"name_english"`
	NameHindi            string          `json:"name_hindi"`
	Category             string          `json:"category"`
	TrimesterSuitability json.RawMessage `json:"trimester_suitability"`
	Benefits             string          `json:"benefits"`
	Precautions          string          `json:"precautions"`
	PreparationTips      string          `json:"preparation_tips"`
	SeasonalAvailability string          `json:"seasonal_availability"`
}

// seedIfEmpty loads the seed file into an empty catalog. A populated
// catalog is left untouched.
func (db *DB) seedIfEmpty(ctx context.Context, path string) error {
	n, err := db.CountFoods(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied seed path
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seeds []seedFood
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	inserted := 0
	for _, s := range seeds {
		item := recommend.FoodItem{
			NameEnglish:          s.NameEnglish,
			NameHindi:            s.NameHindi,
			Category:             s.Category,
			Benefits:             s.Benefits,
			Precautions:          s.Precautions,
			PreparationTips:      s.PreparationTips,
			SeasonalAvailability: s.SeasonalAvailability,
		}
		if len(s.TrimesterSuitability) > 0 {
			suit, err := DecodeSuitability(s.TrimesterSuitability)
			if err != nil {
				logging.Warn().
					Str("component", "database").
					Str("food", s.NameEnglish).
					Err(err).
					Msg("skipping unreadable seed suitability")
			} else {
				item.TrimesterSuitability = suit
			}
		}
		if _, err := db.InsertFood(ctx, item); err != nil {
			return err
		}
		inserted++
	}
	logging.Info().
		Str("component", "database").
		Int("foods", inserted).
		Msg("seeded food catalog")
	return nil
}
