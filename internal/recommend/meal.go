// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

import "strings"

// mealCategories lists which canonical food categories fit each meal of
// the day. An unknown meal type imposes no restriction.
var mealCategories = map[string][]string{
	"breakfast": {"grains", "dairy", "fruits", "nuts", "beverages"},
	"lunch":     {"grains", "vegetables", "protein", "lentils"},
	"dinner":    {"grains", "vegetables", "lentils", "soups"},
	"snacks":    {"fruits", "nuts", "dairy", "beverages"},
}

// filterByMeal keeps only items whose category fits the meal. An
// unknown or empty meal type keeps everything.
func filterByMeal(items []ScoredFood, mealType string) []ScoredFood {
	allowed, known := mealCategories[strings.ToLower(strings.TrimSpace(mealType))]
	if !known {
		return items
	}
	kept := make([]ScoredFood, 0, len(items))
	for _, it := range items {
		category := NormalizeCategory(it.Food.Category)
		for _, a := range allowed {
			if category == a {
				kept = append(kept, it)
				break
			}
		}
	}
	return kept
}
