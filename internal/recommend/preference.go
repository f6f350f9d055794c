// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

// preferenceSeed is the neutral score assigned to foods the user has
// never interacted with.
const preferenceSeed = 0.5

// foldPreferenceScores reduces an interaction history, ordered newest
// first, into a per-food preference score in [0, 1]. Each recognized
// interaction shifts the food's score by its kind's delta; the score is
// clamped after every step so a long streak cannot overshoot.
// Unrecognized kinds are ignored.
func foldPreferenceScores(interactions []Interaction) map[int64]float64 {
	scores := make(map[int64]float64, len(interactions))
	for _, in := range interactions {
		delta, ok := in.Kind.Delta()
		if !ok {
			continue
		}
		score, seen := scores[in.FoodID]
		if !seen {
			score = preferenceSeed
		}
		scores[in.FoodID] = clamp(score+delta, 0, 1)
	}
	return scores
}
