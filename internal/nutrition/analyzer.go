// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

// Package nutrition evaluates the nutritional value and safety of
// catalog foods. Analyzer is the default scorer behind the ranking
// engine; it works from category and the free-text benefit and
// precaution fields, so it needs no external nutrient database.
package nutrition

import (
	"fmt"
	"strings"

	"github.com/poshanlabs/poshan/internal/recommend"
)

// Analyzer scores foods heuristically. The zero value is ready to use.
type Analyzer struct{}

// NewAnalyzer returns a ready Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// categoryBase anchors the score by food group. Unknown categories get
// a neutral base.
var categoryBase = map[string]float64{
	"vegetables": 0.80,
	"lentils":    0.80,
	"fruits":     0.75,
	"protein":    0.75,
	"dairy":      0.70,
	"nuts":       0.70,
	"grains":     0.65,
	"soups":      0.60,
	"beverages":  0.50,
}

const neutralBase = 0.55

// nutrientBonuses reward documented nutrients. Each matches at most
// once per food.
var nutrientBonuses = []struct {
	keyword string
	bonus   float64
}{
	{"iron", 0.05},
	{"folate", 0.05},
	{"folic", 0.05},
	{"calcium", 0.04},
	{"protein", 0.04},
	{"omega", 0.04},
	{"fiber", 0.03},
	{"fibre", 0.03},
	{"vitamin", 0.03},
}

// trimesterEmphasis boosts nutrients that matter most in each stage:
// folate for early development, calcium and iron for the second
// trimester, iron and fiber late.
var trimesterEmphasis = map[int][]struct {
	keyword string
	bonus   float64
}{
	1: {{"folate", 0.05}, {"folic", 0.05}},
	2: {{"calcium", 0.04}, {"iron", 0.03}},
	3: {{"iron", 0.05}, {"fiber", 0.03}, {"fibre", 0.03}},
}

// NutritionScore returns a heuristic value in [0, 1] for the item
// during the given trimester.
func (a *Analyzer) NutritionScore(item recommend.FoodItem, trimester int) float64 {
	score, ok := categoryBase[recommend.NormalizeCategory(item.Category)]
	if !ok {
		score = neutralBase
	}

	benefits := strings.ToLower(item.Benefits)
	seen := make(map[string]bool, len(nutrientBonuses))
	for _, nb := range nutrientBonuses {
		if seen[nb.keyword] || !strings.Contains(benefits, nb.keyword) {
			continue
		}
		seen[nb.keyword] = true
		score += nb.bonus
	}
	for _, em := range trimesterEmphasis[trimester] {
		if strings.Contains(benefits, em.keyword) {
			score += em.bonus
		}
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// unsafePhrases in a precaution mark the item as not recommendable at
// all, independent of the user's conditions.
var unsafePhrases = []string{
	"avoid during pregnancy",
	"not recommended during pregnancy",
	"unsafe during pregnancy",
	"avoid completely",
}

// conditionTriggers maps a health condition to precaution keywords that
// warrant a warning for that condition.
var conditionTriggers = map[string][]string{
	"diabetes":     {"sugar", "sweet", "glycemic", "diabetes"},
	"hypertension": {"salt", "sodium", "blood pressure"},
	"preeclampsia": {"salt", "sodium", "blood pressure"},
	"thyroid":      {"thyroid", "goitrogen", "iodine"},
	"anemia":       {"anemia", "iron absorption"},
}

// CheckSafety reports whether the item is safe for a user with the
// given health conditions. Items whose precautions rule them out for
// pregnancy entirely are unsafe for everyone; condition-specific
// matches stay safe but carry a warning.
func (a *Analyzer) CheckSafety(item recommend.FoodItem, conditions []string) (bool, []string) {
	precautions := strings.ToLower(item.Precautions)
	for _, phrase := range unsafePhrases {
		if strings.Contains(precautions, phrase) {
			return false, nil
		}
	}
	if precautions == "" {
		return true, nil
	}

	var warnings []string
	for _, cond := range conditions {
		c := strings.ToLower(strings.TrimSpace(cond))
		if c == "" {
			continue
		}
		matched := strings.Contains(precautions, c)
		if !matched {
			for key, triggers := range conditionTriggers {
				if !strings.Contains(c, key) {
					continue
				}
				for _, trigger := range triggers {
					if strings.Contains(precautions, trigger) {
						matched = true
						break
					}
				}
				break
			}
		}
		if matched {
			warnings = append(warnings, fmt.Sprintf("use caution with %s: %s", cond, item.Precautions))
		}
	}
	return true, warnings
}
