// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

import "strings"

// affirmativeLabels are free-text suitability values treated as a clear
// yes.
var affirmativeLabels = map[string]struct{}{
	"yes":         {},
	"true":        {},
	"recommended": {},
}

// trimesterScore maps a food's suitability data for the given trimester
// onto [0, 1]. Missing data degrades gracefully: a food flagged for all
// trimesters without detail scores 0.7, one with no entry at all 0.5.
func trimesterScore(s TrimesterSuitability, trimester int) float64 {
	if s.IsZero() {
		return 0.5
	}
	v, ok := s.ByTrimester[trimester]
	if !ok {
		if s.AllTrimesters {
			return 0.7
		}
		return 0.5
	}
	switch v.Kind {
	case SuitabilityBool:
		if v.Bool {
			return 0.9
		}
		return 0.2
	case SuitabilityString:
		label := strings.ToLower(strings.TrimSpace(v.Str))
		if _, affirmative := affirmativeLabels[label]; affirmative {
			return 0.9
		}
		return 0.8
	case SuitabilityNumber:
		return clamp(v.Num, 0.2, 1.0)
	default:
		return 0.8
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
