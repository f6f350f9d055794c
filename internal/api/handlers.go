// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/poshanlabs/poshan/internal/logging"
	"github.com/poshanlabs/poshan/internal/metrics"
	"github.com/poshanlabs/poshan/internal/models"
	"github.com/poshanlabs/poshan/internal/recommend"
)

const maxFeedbackBody = 1 << 20 // 1 MiB

// userFromRequest builds the ranking profile from the path and query.
func userFromRequest(r *http.Request) (recommend.UserProfile, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID < 1 {
		return recommend.UserProfile{}, false
	}

	trimester := getIntParam(r, "trimester", 2)
	if trimester < 1 || trimester > 3 {
		trimester = 2
	}

	var conditions []string
	if raw := r.URL.Query().Get("conditions"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				conditions = append(conditions, c)
			}
		}
	}

	return recommend.UserProfile{
		ID:                userID,
		CurrentTrimester:  trimester,
		DietaryPreference: r.URL.Query().Get("dietary_preference"),
		HealthConditions:  conditions,
	}, true
}

// maxItemsFromRequest applies the display default when the parameter is
// missing or out of range.
func maxItemsFromRequest(r *http.Request) int {
	k := getIntParam(r, "max_items", 10)
	if k < 1 || k > 50 {
		return 10
	}
	return k
}

// displayFoods converts engine results to the client shape, rescaling
// scores to 0-100 with one decimal.
func displayFoods(items []recommend.ScoredFood) []models.FoodDisplay {
	out := make([]models.FoodDisplay, 0, len(items))
	for _, it := range items {
		out = append(out, models.FoodDisplay{
			ID:              it.Food.ID,
			NameEnglish:     it.Food.NameEnglish,
			NameHindi:       it.Food.NameHindi,
			Category:        recommend.NormalizeCategory(it.Food.Category),
			Score:           displayScore(it.Score),
			NutritionScore:  displayScore(it.NutritionScore),
			TrimesterScore:  displayScore(it.TrimesterScore),
			PreferenceScore: displayScore(it.PreferenceScore),
			Benefits:        it.Food.Benefits,
			PreparationTips: it.Food.PreparationTips,
			Warnings:        it.Warnings,
		})
	}
	return out
}

func displayScore(s float64) float64 {
	return math.Round(s*1000) / 10
}

// handleRecommendations serves the main ranking endpoint. The run is
// persisted so it appears in the user's history; persistence failures
// degrade to an unpersisted response rather than an error.
func (rt *Router) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user ID", nil)
		return
	}
	k := maxItemsFromRequest(r)
	mealType := strings.TrimSpace(r.URL.Query().Get("meal_type"))

	start := time.Now()
	var (
		items []recommend.ScoredFood
		err   error
	)
	if mealType != "" {
		items, err = rt.engine.RankForMeal(r.Context(), user, mealType, k)
	} else {
		items, err = rt.engine.Rank(r.Context(), user, k)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to compute recommendations", err)
		return
	}
	elapsed := time.Since(start)
	metrics.RankingDuration.Observe(elapsed.Seconds())
	metrics.RecommendationsServed.Add(float64(len(items)))

	var recommendationID string
	if len(items) > 0 {
		rec, err := rt.engine.Persist(r.Context(), user, items, "user request")
		if err != nil {
			logging.Warn().
				Str("component", "api").
				Int64("user_id", user.ID).
				Err(err).
				Msg("recommendation not persisted")
		} else {
			recommendationID = rec.ID
		}
	}

	m := rt.engine.Metrics()
	metrics.UpdateCacheGauges(m.CacheHits, m.CacheMisses, m.ResultCacheSize)

	respondSuccess(w, http.StatusOK, models.RecommendationsResponse{
		UserID:           user.ID,
		Trimester:        user.CurrentTrimester,
		MealType:         mealType,
		Count:            len(items),
		RecommendationID: recommendationID,
		Items:            displayFoods(items),
	}, models.Metadata{QueryTimeMS: elapsed.Milliseconds()})
}

// handleByCategory serves ranked foods grouped by canonical category.
func (rt *Router) handleByCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user ID", nil)
		return
	}
	k := maxItemsFromRequest(r)

	start := time.Now()
	items, err := rt.engine.Rank(r.Context(), user, k)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to compute recommendations", err)
		return
	}

	grouped := make(map[string][]models.FoodDisplay)
	for _, d := range displayFoods(items) {
		grouped[d.Category] = append(grouped[d.Category], d)
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user_id":    user.ID,
		"trimester":  user.CurrentTrimester,
		"count":      len(items),
		"categories": grouped,
	}, models.Metadata{QueryTimeMS: time.Since(start).Milliseconds()})
}

// handleHistory serves one page of the user's persisted runs.
func (rt *Router) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user ID", nil)
		return
	}
	page := getIntParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := getIntParam(r, "per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	start := time.Now()
	recs, total, err := rt.store.RecommendationHistory(r.Context(), user.ID, page, perPage)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to load history", err)
		return
	}

	entries := make([]models.HistoryEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, models.HistoryEntry{
			ID:        rec.ID,
			Trimester: rec.Trimester,
			FoodIDs:   rec.FoodIDs,
			Reason:    rec.Reason,
			CreatedAt: rec.CreatedAt,
		})
	}

	respondSuccess(w, http.StatusOK, models.HistoryResponse{
		UserID:  user.ID,
		Entries: entries,
		Pagination: models.PaginationInfo{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			HasMore: page*perPage < total,
		},
	}, models.Metadata{QueryTimeMS: time.Since(start).Milliseconds()})
}

// handleFeedback records a user interaction with a food item.
func (rt *Router) handleFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFeedbackBody)

	var req models.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", err)
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid feedback: "+err.Error(), nil)
		return
	}

	in := recommend.Interaction{
		UserID:    req.UserID,
		FoodID:    req.FoodID,
		Kind:      recommend.InteractionKind(req.Interaction),
		CreatedAt: time.Now().UTC(),
	}
	if err := rt.store.RecordInteraction(r.Context(), in); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to record feedback", err)
		return
	}
	metrics.FeedbackRecorded.WithLabelValues(req.Interaction).Inc()

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"user_id":     req.UserID,
		"food_id":     req.FoodID,
		"interaction": req.Interaction,
	}, models.Metadata{})
}

// handleHealth reports liveness and database reachability.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	status := "ok"
	httpStatus := http.StatusOK
	if err := rt.store.Ping(ctx); err != nil {
		dbStatus = "down"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respondSuccess(w, httpStatus, models.HealthResponse{
		Status:    status,
		Version:   rt.version,
		Database:  dbStatus,
		Timestamp: time.Now(),
	}, models.Metadata{})
}

// handleStatus exposes engine counters for operators.
func (rt *Router) handleStatus(w http.ResponseWriter, _ *http.Request) {
	m := rt.engine.Metrics()
	metrics.UpdateCacheGauges(m.CacheHits, m.CacheMisses, m.ResultCacheSize)
	respondSuccess(w, http.StatusOK, m, models.Metadata{})
}
