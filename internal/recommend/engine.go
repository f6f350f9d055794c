// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/poshanlabs/poshan/internal/cache"
	"github.com/poshanlabs/poshan/internal/logging"
)

// resultKey identifies a cached ranking run. Distinct users, trimesters,
// dietary preferences, and result sizes never share entries.
type resultKey struct {
	UserID     int64
	Trimester  int
	Preference string
	K          int
}

// nutritionKey identifies a cached nutrition score.
type nutritionKey struct {
	FoodID    int64
	Trimester int
}

// Engine ranks foods for users. It is safe for concurrent use.
type Engine struct {
	cfg     *Config
	log     zerolog.Logger
	foods   FoodSource
	history InteractionSource
	scorer  Scorer
	store   RecommendationStore
	now     func() time.Time

	results   *cache.TTLCache[resultKey, []ScoredFood]
	nutrition *cache.TTLCache[nutritionKey, float64]
	names     *cache.TTLCache[int64, string]

	requests    atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	failures    atomic.Int64
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the engine's time source. Tests use this to pin
// seasonal bonuses and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger replaces the engine's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New builds an Engine. All collaborators are required except store,
// which may be nil when persistence is not wired; Persist then fails.
func New(cfg *Config, foods FoodSource, history InteractionSource, scorer Scorer, store RecommendationStore, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if foods == nil {
		return nil, fmt.Errorf("food source is required")
	}
	if history == nil {
		return nil, fmt.Errorf("interaction source is required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}

	e := &Engine{
		cfg:     cfg.Clone(),
		log:     logging.With().Str("component", "recommend").Logger(),
		foods:   foods,
		history: history,
		scorer:  scorer,
		store:   store,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	now := func() time.Time { return e.now() }
	e.results = cache.New(cfg.Cache.ResultTTL, cache.WithClock[resultKey, []ScoredFood](now))
	e.nutrition = cache.New(cfg.Cache.NutritionTTL, cache.WithClock[nutritionKey, float64](now))
	e.names = cache.New[int64, string](0)

	return e, nil
}

// Rank returns the top k foods for the user, scored and ordered by
// composite score with category diversity applied. An empty catalog or
// a fully filtered result yields an empty slice, not an error.
func (e *Engine) Rank(ctx context.Context, user UserProfile, k int) ([]ScoredFood, error) {
	return e.rank(ctx, user, e.clampK(k))
}

// rank is Rank without the request-size clamp. The meal path calls it
// with an inflated k so the candidate pool keeps its full 3x headroom.
func (e *Engine) rank(ctx context.Context, user UserProfile, k int) ([]ScoredFood, error) {
	e.requests.Add(1)
	start := time.Now()

	key := resultKey{
		UserID:     user.ID,
		Trimester:  user.CurrentTrimester,
		Preference: strings.ToLower(strings.TrimSpace(user.DietaryPreference)),
		K:          k,
	}
	if e.cfg.Cache.Enabled {
		if cached, ok := e.results.Get(key); ok {
			e.cacheHits.Add(1)
			e.log.Debug().
				Int64("user_id", user.ID).
				Int("k", k).
				Msg("ranking served from cache")
			return cloneScored(cached), nil
		}
		e.cacheMisses.Add(1)
	}

	foods, err := e.foods.ListRecommendableFoods(ctx)
	if err != nil {
		e.failures.Add(1)
		return nil, fmt.Errorf("list foods: %w", err)
	}
	if len(foods) == 0 {
		return []ScoredFood{}, nil
	}

	interactions, err := e.history.RecentInteractions(ctx, user.ID, e.cfg.Limits.MaxInteractions)
	if err != nil {
		e.failures.Add(1)
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	prefs := foldPreferenceScores(interactions)

	scored := e.scoreFoods(user, foods, prefs)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit := k * e.cfg.Limits.OverfetchFactor; len(scored) > limit {
		scored = scored[:limit]
	}
	selected := selectDiverse(scored, k)

	if e.cfg.Cache.Enabled {
		e.results.Set(key, cloneScored(selected))
	}

	e.log.Debug().
		Int64("user_id", user.ID).
		Int("trimester", user.CurrentTrimester).
		Int("k", k).
		Int("candidates", len(foods)).
		Int("selected", len(selected)).
		Dur("elapsed", time.Since(start)).
		Msg("ranking computed")

	return selected, nil
}

// RankForMeal ranks a larger candidate pool and narrows it to the
// categories that fit the given meal of the day, returning up to k
// items. Unknown meal types impose no restriction.
func (e *Engine) RankForMeal(ctx context.Context, user UserProfile, mealType string, k int) ([]ScoredFood, error) {
	k = e.clampK(k)
	ranked, err := e.rank(ctx, user, k*e.cfg.Limits.MealInflation)
	if err != nil {
		return nil, err
	}
	filtered := filterByMeal(ranked, mealType)
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered, nil
}

// Persist stores a ranking run and returns it with its assigned ID.
func (e *Engine) Persist(ctx context.Context, user UserProfile, items []ScoredFood, reason string) (Recommendation, error) {
	if e.store == nil {
		return Recommendation{}, fmt.Errorf("no recommendation store configured")
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Food.ID)
	}
	rec := Recommendation{
		UserID:    user.ID,
		Trimester: user.CurrentTrimester,
		FoodIDs:   ids,
		Reason:    reason,
		CreatedAt: e.now(),
	}
	stored, err := e.store.SaveRecommendation(ctx, rec)
	if err != nil {
		e.failures.Add(1)
		return Recommendation{}, fmt.Errorf("save recommendation: %w", err)
	}
	return stored, nil
}

// scoreFoods runs the per-item pipeline: eligibility, duplicate
// suppression, safety screening, dietary filtering, and composite
// scoring. Duplicate names are only claimed by items that survive every
// filter, so a rejected item never shadows an acceptable one.
func (e *Engine) scoreFoods(user UserProfile, foods []FoodItem, prefs map[int64]float64) []ScoredFood {
	now := e.now()
	seen := make(map[string]struct{}, len(foods))
	out := make([]ScoredFood, 0, len(foods))

	for _, f := range foods {
		if !isRecommendable(f) {
			continue
		}
		name := e.normalizedName(f)
		if _, dup := seen[name]; dup {
			continue
		}

		nutritionScore := e.nutritionScore(f, user.CurrentTrimester)

		var warnings []string
		if len(user.HealthConditions) > 0 || strings.TrimSpace(f.Precautions) != "" {
			safe, w := e.scorer.CheckSafety(f, user.HealthConditions)
			if !safe {
				continue
			}
			warnings = w
		}

		if !matchesDietaryPreference(f, user.DietaryPreference) {
			continue
		}

		trimScore := trimesterScore(f.TrimesterSuitability, user.CurrentTrimester)

		pref, ok := prefs[f.ID]
		if !ok {
			pref = preferenceSeed
		}

		score := e.cfg.Weights.Nutrition*nutritionScore +
			e.cfg.Weights.Trimester*trimScore +
			e.cfg.Weights.Preference*pref
		score += seasonBonus(f.SeasonalAvailability, now)
		score += infoBonus(f)
		if score > 1 {
			score = 1
		}

		seen[name] = struct{}{}
		out = append(out, ScoredFood{
			Food:            f,
			Score:           score,
			NutritionScore:  nutritionScore,
			TrimesterScore:  trimScore,
			PreferenceScore: pref,
			Warnings:        warnings,
		})
	}
	return out
}

// normalizedName memoizes NormalizeName per food ID. The cache never
// expires; catalog names are immutable within a process lifetime.
func (e *Engine) normalizedName(f FoodItem) string {
	if name, ok := e.names.Get(f.ID); ok {
		return name
	}
	name := NormalizeName(f.NameEnglish)
	e.names.Set(f.ID, name)
	return name
}

// nutritionScore memoizes the scorer's nutrition evaluation per food
// and trimester.
func (e *Engine) nutritionScore(f FoodItem, trimester int) float64 {
	key := nutritionKey{FoodID: f.ID, Trimester: trimester}
	if score, ok := e.nutrition.Get(key); ok {
		return score
	}
	score := e.scorer.NutritionScore(f, trimester)
	e.nutrition.Set(key, score)
	return score
}

func (e *Engine) clampK(k int) int {
	if k <= 0 {
		return e.cfg.Limits.DefaultK
	}
	if k > e.cfg.Limits.MaxK {
		return e.cfg.Limits.MaxK
	}
	return k
}

// Metrics is a point-in-time snapshot of engine counters.
type Metrics struct {
	Requests           int64 `json:"requests"`
	CacheHits          int64 `json:"cache_hits"`
	CacheMisses        int64 `json:"cache_misses"`
	Failures           int64 `json:"failures"`
	ResultCacheSize    int   `json:"result_cache_size"`
	NutritionCacheSize int   `json:"nutrition_cache_size"`
	NameCacheSize      int   `json:"name_cache_size"`
}

// Metrics returns current counter values.
func (e *Engine) Metrics() Metrics {
	return Metrics{
		Requests:           e.requests.Load(),
		CacheHits:          e.cacheHits.Load(),
		CacheMisses:        e.cacheMisses.Load(),
		Failures:           e.failures.Load(),
		ResultCacheSize:    e.results.Len(),
		NutritionCacheSize: e.nutrition.Len(),
		NameCacheSize:      e.names.Len(),
	}
}

func cloneScored(in []ScoredFood) []ScoredFood {
	out := make([]ScoredFood, len(in))
	copy(out, in)
	return out
}
