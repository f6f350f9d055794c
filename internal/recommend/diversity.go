// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

// selectDiverse picks up to k items from candidates, already sorted by
// score descending, while limiting how many items any single category
// may contribute. The per-category cap is k/4 with a floor of 2. A
// first pass takes the best items that respect the cap; if fewer than k
// survive, a second pass fills the remainder with the best skipped
// items regardless of category.
func selectDiverse(candidates []ScoredFood, k int) []ScoredFood {
	if k <= 0 || len(candidates) == 0 {
		return []ScoredFood{}
	}

	perCategory := k / 4
	if perCategory < 2 {
		perCategory = 2
	}

	selected := make([]ScoredFood, 0, k)
	counts := make(map[string]int)
	var skipped []ScoredFood

	for _, c := range candidates {
		if len(selected) >= k {
			break
		}
		category := NormalizeCategory(c.Food.Category)
		if counts[category] >= perCategory {
			skipped = append(skipped, c)
			continue
		}
		counts[category]++
		selected = append(selected, c)
	}

	for _, c := range skipped {
		if len(selected) >= k {
			break
		}
		selected = append(selected, c)
	}

	return selected
}
