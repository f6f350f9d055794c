// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

import "strings"

// nonVegTerms mark animal-flesh items within the protein category.
var nonVegTerms = []string{
	"chicken", "mutton", "fish", "prawn", "shrimp",
	"beef", "pork", "meat", "seafood", "egg",
}

// nonVeganTerms mark animal-derived items in any category.
var nonVeganTerms = []string{
	"milk", "dahi", "curd", "yogurt", "paneer",
	"cheese", "ghee", "butter", "cream", "egg",
}

// matchesDietaryPreference reports whether the item is permitted under
// the user's dietary preference. An empty or unrecognized preference
// permits everything.
func matchesDietaryPreference(item FoodItem, preference string) bool {
	name := strings.ToLower(item.NameEnglish)
	category := NormalizeCategory(item.Category)

	switch strings.ToLower(strings.TrimSpace(preference)) {
	case "vegetarian", "veg":
		if category != "protein" {
			return true
		}
		for _, term := range nonVegTerms {
			if strings.Contains(name, term) {
				return false
			}
		}
		return true
	case "vegan":
		if category == "dairy" || category == "protein" {
			return false
		}
		for _, term := range nonVeganTerms {
			if strings.Contains(name, term) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
