// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package models

import "time"

// FoodDisplay is the client-facing form of a ranked food. Scores are
// rescaled to 0-100 for display.
type FoodDisplay struct {
	ID              int64    `json:"id"`
	NameEnglish     string   `json:"name_english"`
	NameHindi       string   `json:"name_hindi,omitempty"`
	Category        string   `json:"category"`
	Score           float64  `json:"score"`
	NutritionScore  float64  `json:"nutrition_score"`
	TrimesterScore  float64  `json:"trimester_score"`
	PreferenceScore float64  `json:"preference_score"`
	Benefits        string   `json:"benefits,omitempty"`
	PreparationTips string   `json:"preparation_tips,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// RecommendationsResponse is the payload of the main recommendations
// endpoint. RecommendationID is set when the run was persisted.
type RecommendationsResponse struct {
	UserID           int64         `json:"user_id"`
	Trimester        int           `json:"trimester"`
	MealType         string        `json:"meal_type,omitempty"`
	Count            int           `json:"count"`
	RecommendationID string        `json:"recommendation_id,omitempty"`
	Items            []FoodDisplay `json:"items"`
}

// HistoryEntry is one persisted recommendation run in a user's history.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Trimester int       `json:"trimester"`
	FoodIDs   []int64   `json:"food_ids"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse is the paginated history payload.
type HistoryResponse struct {
	UserID     int64          `json:"user_id"`
	Entries    []HistoryEntry `json:"entries"`
	Pagination PaginationInfo `json:"pagination"`
}

// FeedbackRequest records a user's reaction to a recommended food.
type FeedbackRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	FoodID      int64  `json:"food_id" validate:"required,gt=0"`
	Interaction string `json:"interaction" validate:"required,oneof=view like dislike bookmark feedback"`
	Comment     string `json:"comment,omitempty" validate:"max=1000"`
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}
