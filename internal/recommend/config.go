// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

import (
	"fmt"
	"time"
)

// Config controls ranking behavior. Zero values are invalid; start from
// DefaultConfig and override as needed.
type Config struct {
	Weights ScoreWeights `json:"weights" koanf:"weights"`
	Limits  Limits       `json:"limits" koanf:"limits"`
	Cache   CacheConfig  `json:"cache" koanf:"cache"`
}

// ScoreWeights are the relative weights of the composite score
// components. Seasonal and informational bonuses are added on top and
// the total is capped at 1.0.
type ScoreWeights struct {
	Nutrition  float64 `json:"nutrition" koanf:"nutrition"`
	Trimester  float64 `json:"trimester" koanf:"trimester"`
	Preference float64 `json:"preference" koanf:"preference"`
}

// Limits bound request sizes and internal fan-out.
type Limits struct {
	// DefaultK is used when a request asks for zero or a negative
	// number of items.
	DefaultK int `json:"default_k" koanf:"default_k"`
	// MaxK caps the number of items a single request may ask for.
	MaxK int `json:"max_k" koanf:"max_k"`
	// MaxInteractions caps how much history is folded into
	// preference scores.
	MaxInteractions int `json:"max_interactions" koanf:"max_interactions"`
	// OverfetchFactor is how many times k candidates the diversity
	// pass considers.
	OverfetchFactor int `json:"overfetch_factor" koanf:"overfetch_factor"`
	// MealInflation is how many times k the meal filter ranks before
	// narrowing to the meal's categories.
	MealInflation int `json:"meal_inflation" koanf:"meal_inflation"`
}

// CacheConfig controls the engine's internal caches.
type CacheConfig struct {
	Enabled      bool          `json:"enabled" koanf:"enabled"`
	ResultTTL    time.Duration `json:"result_ttl" koanf:"result_ttl"`
	NutritionTTL time.Duration `json:"nutrition_ttl" koanf:"nutrition_ttl"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: ScoreWeights{
			Nutrition:  0.4,
			Trimester:  0.3,
			Preference: 0.3,
		},
		Limits: Limits{
			DefaultK:        10,
			MaxK:            50,
			MaxInteractions: 500,
			OverfetchFactor: 3,
			MealInflation:   3,
		},
		Cache: CacheConfig{
			Enabled:      true,
			ResultTTL:    180 * time.Second,
			NutritionTTL: 12 * time.Hour,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"nutrition":  w.Nutrition,
		"trimester":  w.Trimester,
		"preference": w.Preference,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("weight %s out of range [0, 1]: %v", name, v)
		}
	}
	if sum := w.Nutrition + w.Trimester + w.Preference; sum <= 0 || sum > 1 {
		return fmt.Errorf("weights must sum to (0, 1], got %v", sum)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("max_k %d below default_k %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.MaxInteractions < 0 {
		return fmt.Errorf("max_interactions must be non-negative, got %d", c.Limits.MaxInteractions)
	}
	if c.Limits.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch_factor must be positive, got %d", c.Limits.OverfetchFactor)
	}
	if c.Limits.MealInflation < 1 {
		return fmt.Errorf("meal_inflation must be positive, got %d", c.Limits.MealInflation)
	}
	if c.Cache.ResultTTL < 0 {
		return fmt.Errorf("result_ttl must be non-negative, got %v", c.Cache.ResultTTL)
	}
	if c.Cache.NutritionTTL < 0 {
		return fmt.Errorf("nutrition_ttl must be non-negative, got %v", c.Cache.NutritionTTL)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
