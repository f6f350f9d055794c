// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

// Package recommend ranks food items for a pregnant user based on
// nutritional value, trimester suitability, interaction history, and
// seasonal availability.
//
// The Engine facade orchestrates the full pipeline: eligibility
// filtering, duplicate suppression, safety screening, dietary
// filtering, composite scoring, and category-diverse selection.
// Collaborators (food source, interaction source, nutrition scorer,
// recommendation store) are injected as interfaces so the package has
// no dependency on any particular storage backend.
//
// Three internal caches keep repeated calls cheap: a short-lived
// per-request result cache, a long-lived per-food nutrition score
// cache, and a non-expiring normalized-name cache. All expiry is lazy;
// no background goroutines are spawned.
package recommend
