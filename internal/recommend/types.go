// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

import (
	"context"
	"time"
)

// FoodItem is a single entry from the food catalog.
type FoodItem struct {
	ID                   int64                `json:"id"`
	NameEnglish          string               `json:"name_english"`
	NameHindi            string               `json:"name_hindi,omitempty"`
	Category             string               `json:"category"`
	TrimesterSuitability TrimesterSuitability `json:"trimester_suitability"`
	Benefits             string               `json:"benefits,omitempty"`
	Precautions          string               `json:"precautions,omitempty"`
	PreparationTips      string               `json:"preparation_tips,omitempty"`
	SeasonalAvailability string               `json:"seasonal_availability,omitempty"`
}

// SuitabilityKind discriminates the shape a per-trimester suitability
// value took in the source data.
type SuitabilityKind int

const (
	// SuitabilityBool is an explicit yes/no flag.
	SuitabilityBool SuitabilityKind = iota
	// SuitabilityString is a free-text label such as "recommended".
	SuitabilityString
	// SuitabilityNumber is a direct score.
	SuitabilityNumber
	// SuitabilityOther is any shape the catalog importer could not
	// classify.
	SuitabilityOther
)

// SuitabilityValue is a tagged variant over the shapes suitability data
// arrives in. Catalog importers resolve the raw shape once at the
// boundary; scoring only ever switches on Kind.
type SuitabilityValue struct {
	Kind SuitabilityKind
	Bool bool
	Str  string
	Num  float64
}

// BoolSuitability returns a yes/no suitability value.
func BoolSuitability(b bool) SuitabilityValue {
	return SuitabilityValue{Kind: SuitabilityBool, Bool: b}
}

// StringSuitability returns a free-text suitability value.
func StringSuitability(s string) SuitabilityValue {
	return SuitabilityValue{Kind: SuitabilityString, Str: s}
}

// NumberSuitability returns a numeric suitability value.
func NumberSuitability(n float64) SuitabilityValue {
	return SuitabilityValue{Kind: SuitabilityNumber, Num: n}
}

// OtherSuitability returns a suitability value of unclassified shape.
func OtherSuitability() SuitabilityValue {
	return SuitabilityValue{Kind: SuitabilityOther}
}

// TrimesterSuitability records how suitable a food is in each trimester.
// AllTrimesters marks foods flagged as broadly suitable without
// per-trimester detail.
type TrimesterSuitability struct {
	ByTrimester   map[int]SuitabilityValue `json:"by_trimester,omitempty"`
	AllTrimesters bool                     `json:"all_trimesters,omitempty"`
}

// IsZero reports whether no suitability information is present at all.
func (s TrimesterSuitability) IsZero() bool {
	return len(s.ByTrimester) == 0 && !s.AllTrimesters
}

// UserProfile holds the facts about a user that influence ranking.
type UserProfile struct {
	ID                int64    `json:"id"`
	CurrentTrimester  int      `json:"current_trimester"`
	DietaryPreference string   `json:"dietary_preference,omitempty"`
	HealthConditions  []string `json:"health_conditions,omitempty"`
}

// InteractionKind names a recorded user action on a food item.
type InteractionKind string

// Recognized interaction kinds. Anything else is ignored when folding
// preference scores.
const (
	KindView     InteractionKind = "view"
	KindLike     InteractionKind = "like"
	KindDislike  InteractionKind = "dislike"
	KindBookmark InteractionKind = "bookmark"
	KindFeedback InteractionKind = "feedback"
)

// Delta returns the preference score adjustment for the kind and
// whether the kind is recognized.
func (k InteractionKind) Delta() (float64, bool) {
	switch k {
	case KindLike:
		return 0.1, true
	case KindDislike:
		return -0.2, true
	case KindBookmark:
		return 0.05, true
	case KindView:
		return 0.01, true
	case KindFeedback:
		return 0.02, true
	default:
		return 0, false
	}
}

// Interaction is a single recorded user action on a food item.
type Interaction struct {
	UserID    int64           `json:"user_id"`
	FoodID    int64           `json:"food_id"`
	Kind      InteractionKind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}

// ScoredFood pairs a food item with its composite score, the three
// component scores it was combined from, and the safety warnings
// raised during screening.
type ScoredFood struct {
	Food            FoodItem `json:"food"`
	Score           float64  `json:"score"`
	NutritionScore  float64  `json:"nutrition_score"`
	TrimesterScore  float64  `json:"trimester_score"`
	PreferenceScore float64  `json:"preference_score"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Recommendation is a persisted ranking run.
type Recommendation struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Trimester int       `json:"trimester"`
	FoodIDs   []int64   `json:"food_ids"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FoodSource lists the food catalog.
type FoodSource interface {
	// ListRecommendableFoods returns the full catalog in a stable
	// order. Eligibility filtering is the engine's job, not the
	// source's.
	ListRecommendableFoods(ctx context.Context) ([]FoodItem, error)
}

// InteractionSource provides a user's recent interaction history.
type InteractionSource interface {
	// RecentInteractions returns up to limit interactions for the
	// user, newest first.
	RecentInteractions(ctx context.Context, userID int64, limit int) ([]Interaction, error)
}

// RecommendationStore persists ranking runs.
type RecommendationStore interface {
	// SaveRecommendation stores the recommendation and returns it
	// with its assigned ID.
	SaveRecommendation(ctx context.Context, rec Recommendation) (Recommendation, error)
}

// Scorer evaluates nutritional value and safety for a food item.
type Scorer interface {
	// NutritionScore returns a value in [0, 1] reflecting how
	// nutritionally valuable the item is during the given trimester.
	NutritionScore(item FoodItem, trimester int) float64

	// CheckSafety reports whether the item is safe for a user with
	// the given health conditions, along with any warnings. An unsafe
	// item is excluded; warnings on a safe item are attached to the
	// result.
	CheckSafety(item FoodItem, conditions []string) (safe bool, warnings []string)
}
