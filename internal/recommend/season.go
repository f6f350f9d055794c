// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

import (
	"strings"
	"time"
)

// currentSeason maps the calendar month onto the Indian season names
// used in catalog availability labels.
func currentSeason(now time.Time) string {
	switch m := int(now.Month()); {
	case m >= 3 && m <= 6:
		return "summer"
	case m >= 7 && m <= 9:
		return "monsoon"
	default:
		return "winter"
	}
}

// Bonuses for availability labels. Year-round items get a small nudge;
// items in season a larger one.
const (
	yearRoundBonus = 0.02
	inSeasonBonus  = 0.04
)

// seasonBonus returns the score bonus for the item's seasonal
// availability label at the given time.
func seasonBonus(availability string, now time.Time) float64 {
	label := strings.ToLower(strings.TrimSpace(availability))
	if label == "" || label == "all" {
		return yearRoundBonus
	}
	if strings.Contains(label, currentSeason(now)) {
		return inSeasonBonus
	}
	return 0
}

// Bonuses for informational richness. Items with documented benefits
// and preparation tips rank slightly ahead of bare entries.
const (
	benefitsBonus = 0.03
	prepTipsBonus = 0.02
)

// infoBonus returns the score bonus for documented benefits and
// preparation tips.
func infoBonus(item FoodItem) float64 {
	var bonus float64
	if strings.TrimSpace(item.Benefits) != "" {
		bonus += benefitsBonus
	}
	if strings.TrimSpace(item.PreparationTips) != "" {
		bonus += prepTipsBonus
	}
	return bonus
}
