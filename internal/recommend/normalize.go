// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes a food name for duplicate detection:
// lowercase, parentheticals stripped, punctuation collapsed to spaces,
// runs of whitespace collapsed, surrounding whitespace trimmed.
func NormalizeName(name string) string {
	s := strings.ToLower(name)
	s = parentheticalRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// categoryAliases maps raw catalog categories onto the canonical set
// used by meal planning and diversity selection.
var categoryAliases = map[string]string{
	"proteins":            "protein",
	"meat":                "protein",
	"seafood":             "protein",
	"seafood & fish":      "protein",
	"eggs":                "protein",
	"dry_fruits":          "nuts",
	"nuts & sprouts":      "nuts",
	"seeds":               "nuts",
	"fruits & vegetables": "fruits",
	"fruits to include":   "fruits",
	"carbohydrates":       "grains",
	"soups/broths":        "soups",
	"drinks":              "beverages",
	"beverages":           "beverages",
}

// NormalizeCategory lowercases, trims, and maps known aliases onto the
// canonical category set. Unknown categories pass through lowercased.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if canonical, ok := categoryAliases[c]; ok {
		return canonical
	}
	return c
}

// excludedCategories are catalog sections that are guidance rather than
// food items, or that name foods to avoid.
var excludedCategories = map[string]struct{}{
	"avoid":               {},
	"foods to avoid":      {},
	"street food":         {},
	"processed foods":     {},
	"fatty foods":         {},
	"sugary foods":        {},
	"leftovers":           {},
	"medical":             {},
	"supplements":         {},
	"exercise":            {},
	"lifestyle":           {},
	"tips":                {},
	"hydration":           {},
	"diet":                {},
	"foods in moderation": {},
	"prepared foods":      {},
}

// unsafeNameTerms flag items unsafe during pregnancy regardless of
// category.
var unsafeNameTerms = []string{"alcohol", "beer", "wine", "smoked", "raw"}

// isRecommendable reports whether the item is a real food that may be
// recommended at all. Guidance entries, avoid-lists, too-short names,
// and items with unsafe name terms are screened out.
func isRecommendable(item FoodItem) bool {
	if utf8.RuneCountInString(strings.TrimSpace(item.NameEnglish)) < 3 {
		return false
	}
	category := strings.ToLower(strings.TrimSpace(item.Category))
	if _, excluded := excludedCategories[category]; excluded {
		return false
	}
	if strings.Contains(category, "avoid") {
		return false
	}
	name := strings.ToLower(item.NameEnglish)
	for _, term := range unsafeNameTerms {
		if strings.Contains(name, term) {
			return false
		}
	}
	return true
}
