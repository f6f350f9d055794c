// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type mockFoods struct {
	mu    sync.Mutex
	items []FoodItem
	err   error
	calls int
}

func (m *mockFoods) ListRecommendableFoods(_ context.Context) ([]FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockFoods) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockFoods) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type mockHistory struct {
	interactions []Interaction
	err          error
}

func (m *mockHistory) RecentInteractions(_ context.Context, _ int64, limit int) ([]Interaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.interactions) > limit {
		return m.interactions[:limit], nil
	}
	return m.interactions, nil
}

type mockScorer struct {
	mu          sync.Mutex
	scores      map[int64]float64
	unsafe      map[int64]bool
	warnings    map[int64][]string
	safetyCalls int
}

func (m *mockScorer) NutritionScore(item FoodItem, _ int) float64 {
	if s, ok := m.scores[item.ID]; ok {
		return s
	}
	return 0.8
}

func (m *mockScorer) CheckSafety(item FoodItem, _ []string) (bool, []string) {
	m.mu.Lock()
	m.safetyCalls++
	m.mu.Unlock()
	if m.unsafe[item.ID] {
		return false, nil
	}
	return true, m.warnings[item.ID]
}

func (m *mockScorer) safetyCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.safetyCalls
}

type mockStore struct {
	saved []Recommendation
	err   error
}

func (m *mockStore) SaveRecommendation(_ context.Context, rec Recommendation) (Recommendation, error) {
	if m.err != nil {
		return Recommendation{}, m.err
	}
	rec.ID = "rec-1"
	m.saved = append(m.saved, rec)
	return rec, nil
}

// maySummer pins tests to a month where the summer bonus applies.
var maySummer = time.Date(2026, time.May, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, foods *mockFoods, history *mockHistory, scorer *mockScorer, store *mockStore, clock *fakeClock) *Engine {
	t.Helper()
	opts := []Option{WithLogger(zerolog.Nop())}
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	var s RecommendationStore
	if store != nil {
		s = store
	}
	e, err := New(DefaultConfig(), foods, history, scorer, s, opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return e
}

func catalogFood(id int64, name, category string) FoodItem {
	return FoodItem{ID: id, NameEnglish: name, Category: category}
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{}
	history := &mockHistory{}
	scorer := &mockScorer{}

	if _, err := New(DefaultConfig(), nil, history, scorer, nil); err == nil {
		t.Error("New() without food source = nil error")
	}
	if _, err := New(DefaultConfig(), foods, nil, scorer, nil); err == nil {
		t.Error("New() without interaction source = nil error")
	}
	if _, err := New(DefaultConfig(), foods, history, nil, nil); err == nil {
		t.Error("New() without scorer = nil error")
	}

	bad := DefaultConfig()
	bad.Limits.DefaultK = 0
	if _, err := New(bad, foods, history, scorer, nil); err == nil {
		t.Error("New() with invalid config = nil error")
	}
}

func TestRankEmptyCatalog(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &mockFoods{}, &mockHistory{}, &mockScorer{}, nil, nil)
	got, err := e.Rank(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, 5)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Rank() = %v, want empty non-nil slice", got)
	}
}

func TestRankOrdersByScore(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{
		catalogFood(1, "Moong Dal", "Lentils"),
		catalogFood(2, "Spinach Sabzi", "Vegetables"),
		catalogFood(3, "Mango", "Fruits"),
	}}
	scorer := &mockScorer{scores: map[int64]float64{1: 0.5, 2: 0.9, 3: 0.7}}
	e := newTestEngine(t, foods, &mockHistory{}, scorer, nil, newFakeClock(maySummer))

	got, err := e.Rank(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, 3)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	wantIDs := []int64{2, 3, 1}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d items, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].Food.ID != id {
			t.Errorf("rank %d = food %d, want %d", i, got[i].Food.ID, id)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
}

func TestRankServesFromCacheWithinTTL(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{catalogFood(1, "Moong Dal", "Lentils")}}
	clock := newFakeClock(maySummer)
	e := newTestEngine(t, foods, &mockHistory{}, &mockScorer{}, nil, clock)
	user := UserProfile{ID: 1, CurrentTrimester: 2}

	first, err := e.Rank(context.Background(), user, 5)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	second, err := e.Rank(context.Background(), user, 5)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if foods.callCount() != 1 {
		t.Errorf("catalog listed %d times within TTL, want 1", foods.callCount())
	}
	if len(first) != len(second) || first[0].Food.ID != second[0].Food.ID {
		t.Error("cached result differs from computed result")
	}

	clock.Advance(181 * time.Second)
	if _, err := e.Rank(context.Background(), user, 5); err != nil {
		t.Fatalf("Rank() after expiry = %v", err)
	}
	if foods.callCount() != 2 {
		t.Errorf("catalog listed %d times after expiry, want 2", foods.callCount())
	}
}

func TestRankCacheKeyDistinguishesRequests(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{catalogFood(1, "Moong Dal", "Lentils")}}
	e := newTestEngine(t, foods, &mockHistory{}, &mockScorer{}, nil, newFakeClock(maySummer))
	ctx := context.Background()

	if _, err := e.Rank(ctx, UserProfile{ID: 1, CurrentTrimester: 2}, 5); err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	// Different user, trimester, preference, and k each miss.
	if _, err := e.Rank(ctx, UserProfile{ID: 2, CurrentTrimester: 2}, 5); err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if _, err := e.Rank(ctx, UserProfile{ID: 1, CurrentTrimester: 3}, 5); err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if _, err := e.Rank(ctx, UserProfile{ID: 1, CurrentTrimester: 2, DietaryPreference: "vegan"}, 5); err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if _, err := e.Rank(ctx, UserProfile{ID: 1, CurrentTrimester: 2}, 7); err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if foods.callCount() != 5 {
		t.Errorf("catalog listed %d times, want 5 distinct computations", foods.callCount())
	}
	// Preference normalization shares an entry.
	if _, err := e.Rank(ctx, UserProfile{ID: 1, CurrentTrimester: 2, DietaryPreference: "  VEGAN "}, 5); err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if foods.callCount() != 5 {
		t.Errorf("catalog listed %d times, want normalized preference to hit cache", foods.callCount())
	}
}

func TestRankFailureIsNotCached(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{catalogFood(1, "Moong Dal", "Lentils")}}
	foods.setErr(errors.New("catalog offline"))
	e := newTestEngine(t, foods, &mockHistory{}, &mockScorer{}, nil, newFakeClock(maySummer))
	user := UserProfile{ID: 1, CurrentTrimester: 2}

	if _, err := e.Rank(context.Background(), user, 5); err == nil {
		t.Fatal("Rank() with failing source = nil error")
	}

	foods.setErr(nil)
	got, err := e.Rank(context.Background(), user, 5)
	if err != nil {
		t.Fatalf("Rank() after recovery = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d items after recovery, want 1", len(got))
	}
}

func TestRankHistoryFailureSurfaces(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{catalogFood(1, "Moong Dal", "Lentils")}}
	history := &mockHistory{err: errors.New("history offline")}
	e := newTestEngine(t, foods, history, &mockScorer{}, nil, newFakeClock(maySummer))

	if _, err := e.Rank(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, 5); err == nil {
		t.Fatal("Rank() with failing history = nil error")
	}
}

func TestRankDeduplicatesNames(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{
		catalogFood(1, "Papaya (ripe)", "Fruits"),
		catalogFood(2, "papaya!!", "Fruits"),
	}}
	e := newTestEngine(t, foods, &mockHistory{}, &mockScorer{}, nil, newFakeClock(maySummer))

	got, err := e.Rank(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, 5)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d items, want duplicate names collapsed to 1", len(got))
	}
	if got[0].Food.ID != 1 {
		t.Errorf("kept food %d, want first occurrence 1", got[0].Food.ID)
	}
}

func TestRankRejectedItemDoesNotClaimName(t *testing.T) {
	t.Parallel()

	// The unsafe item shares a normalized name with a safe one that
	// appears later in the catalog; the safe item must survive.
	foods := &mockFoods{items: []FoodItem{
		{ID: 1, NameEnglish: "Paneer (homemade)", Category: "Dairy", Precautions: "use pasteurized milk"},
		{ID: 2, NameEnglish: "Paneer", Category: "Dairy"},
	}}
	scorer := &mockScorer{unsafe: map[int64]bool{1: true}}
	e := newTestEngine(t, foods, &mockHistory{}, scorer, nil, newFakeClock(maySummer))

	got, err := e.Rank(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, 5)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if len(got) != 1 || got[0].Food.ID != 2 {
		t.Errorf("got %v, want only the safe duplicate (food 2)", got)
	}
}

func TestRankMixedCatalogEndToEnd(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{
		catalogFood(1, "Chicken Curry", "Proteins"),
		catalogFood(2, "Papaya (ripe)", "Fruits"),
		catalogFood(3, "papaya", "Fruits"),
	}}
	e := newTestEngine(t, foods, &mockHistory{}, &mockScorer{}, nil, newFakeClock(maySummer))

	user := UserProfile{ID: 1, CurrentTrimester: 2, DietaryPreference: "vegetarian"}
	got, err := e.Rank(context.Background(), user, 10)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1 (meat filtered, papaya deduplicated)", len(got))
	}
	if NormalizeName(got[0].Food.NameEnglish) != "papaya" {
		t.Errorf("kept %q, want a papaya entry", got[0].Food.NameEnglish)
	}
}

func TestRankSafetySkippedWithoutConditionsOrPrecautions(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{catalogFood(1, "Moong Dal", "Lentils")}}
	scorer := &mockScorer{}
	e := newTestEngine(t, foods, &mockHistory{}, scorer, nil, newFakeClock(maySummer))

	if _, err := e.Rank(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, 5); err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if scorer.safetyCallCount() != 0 {
		t.Errorf("CheckSafety called %d times, want 0", scorer.safetyCallCount())
	}
}

func TestRankAttachesWarnings(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{
		{ID: 1, NameEnglish: "Jackfruit", Category: "Fruits", Precautions: "limit during gestational diabetes"},
	}}
	scorer := &mockScorer{warnings: map[int64][]string{1: {"limit portions with gestational diabetes"}}}
	e := newTestEngine(t, foods, &mockHistory{}, scorer, nil, newFakeClock(maySummer))

	user := UserProfile{ID: 1, CurrentTrimester: 2, HealthConditions: []string{"gestational diabetes"}}
	got, err := e.Rank(context.Background(), user, 5)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1", len(got))
	}
	if len(got[0].Warnings) != 1 {
		t.Errorf("warnings = %v, want one attached warning", got[0].Warnings)
	}
}

func TestRankScoreCappedAtOne(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{{
		ID:          1,
		NameEnglish: "Mango",
		Category:    "Fruits",
		TrimesterSuitability: TrimesterSuitability{
			ByTrimester: map[int]SuitabilityValue{2: BoolSuitability(true)},
		},
		Benefits:             "vitamin a and c",
		PreparationTips:      "wash and peel",
		SeasonalAvailability: "Summer",
	}}}
	scorer := &mockScorer{scores: map[int64]float64{1: 1.0}}
	history := &mockHistory{interactions: []Interaction{
		{FoodID: 1, Kind: KindLike},
		{FoodID: 1, Kind: KindLike},
		{FoodID: 1, Kind: KindLike},
		{FoodID: 1, Kind: KindLike},
		{FoodID: 1, Kind: KindLike},
	}}
	e := newTestEngine(t, foods, history, scorer, nil, newFakeClock(maySummer))

	got, err := e.Rank(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, 5)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1", len(got))
	}
	if got[0].Score != 1.0 {
		t.Errorf("score = %v, want capped at 1.0", got[0].Score)
	}
}

func TestRankPreferenceInfluencesOrder(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{
		catalogFood(1, "Moong Dal", "Lentils"),
		catalogFood(2, "Masoor Dal", "Lentils"),
	}}
	history := &mockHistory{interactions: []Interaction{
		{FoodID: 2, Kind: KindLike},
		{FoodID: 1, Kind: KindDislike},
	}}
	e := newTestEngine(t, foods, history, &mockScorer{}, nil, newFakeClock(maySummer))

	got, err := e.Rank(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, 2)
	if err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if len(got) != 2 || got[0].Food.ID != 2 {
		t.Errorf("got order %v, want liked food 2 first", got)
	}
}

func TestRankClampsK(t *testing.T) {
	t.Parallel()

	var items []FoodItem
	categories := []string{"Fruits", "Vegetables", "Lentils", "Grains", "Dairy", "Nuts"}
	for i := 0; i < 60; i++ {
		items = append(items, catalogFood(int64(i+1), "Food Item "+string(rune('A'+i%26))+string(rune('a'+i/26)), categories[i%len(categories)]))
	}
	foods := &mockFoods{items: items}
	e := newTestEngine(t, foods, &mockHistory{}, &mockScorer{}, nil, newFakeClock(maySummer))
	ctx := context.Background()
	user := UserProfile{ID: 1, CurrentTrimester: 2}

	got, err := e.Rank(ctx, user, 0)
	if err != nil {
		t.Fatalf("Rank(k=0) = %v", err)
	}
	if len(got) != 10 {
		t.Errorf("Rank(k=0) returned %d items, want default 10", len(got))
	}

	got, err = e.Rank(ctx, user, 500)
	if err != nil {
		t.Fatalf("Rank(k=500) = %v", err)
	}
	if len(got) != 50 {
		t.Errorf("Rank(k=500) returned %d items, want max 50", len(got))
	}
}

func TestRankForMealFilters(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{
		catalogFood(1, "Vegetable Pulao", "Grains"),
		catalogFood(2, "Palak Sabzi", "Vegetables"),
		catalogFood(3, "Fruit Chaat", "Fruits"),
		catalogFood(4, "Masala Milk", "Dairy"),
	}}
	e := newTestEngine(t, foods, &mockHistory{}, &mockScorer{}, nil, newFakeClock(maySummer))

	got, err := e.RankForMeal(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, "breakfast", 10)
	if err != nil {
		t.Fatalf("RankForMeal() = %v", err)
	}
	for _, it := range got {
		c := NormalizeCategory(it.Food.Category)
		if c == "vegetables" {
			t.Errorf("breakfast included %q (%s)", it.Food.NameEnglish, c)
		}
	}
	if len(got) != 3 {
		t.Errorf("got %d breakfast items, want 3", len(got))
	}
}

func TestRankForMealTruncatesToK(t *testing.T) {
	t.Parallel()

	var items []FoodItem
	for i := 0; i < 8; i++ {
		items = append(items, catalogFood(int64(i+1), "Fruit Dish "+string(rune('A'+i)), "Fruits"))
	}
	foods := &mockFoods{items: items}
	e := newTestEngine(t, foods, &mockHistory{}, &mockScorer{}, nil, newFakeClock(maySummer))

	got, err := e.RankForMeal(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, "snacks", 2)
	if err != nil {
		t.Fatalf("RankForMeal() = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d items, want 2", len(got))
	}
}

func TestRankForMealKeepsInflatedPool(t *testing.T) {
	t.Parallel()

	// A large catalog where every breakfast-compatible item ranks below
	// the plain Rank cap. The meal path must widen the pool before
	// filtering or these items can never be served.
	var items []FoodItem
	scores := map[int64]float64{}
	for i := 0; i < 160; i++ {
		id := int64(i + 1)
		items = append(items, catalogFood(id, fmt.Sprintf("Vegetable Dish %03d", i), "Vegetables"))
		scores[id] = 0.9
	}
	for i := 0; i < 12; i++ {
		id := int64(161 + i)
		items = append(items, catalogFood(id, fmt.Sprintf("Dairy Dish %02d", i), "Dairy"))
		scores[id] = 0.3
	}
	foods := &mockFoods{items: items}
	scorer := &mockScorer{scores: scores}
	e := newTestEngine(t, foods, &mockHistory{}, scorer, nil, newFakeClock(maySummer))

	got, err := e.RankForMeal(context.Background(), UserProfile{ID: 1, CurrentTrimester: 2}, "breakfast", 50)
	if err != nil {
		t.Fatalf("RankForMeal() = %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("got %d breakfast items, want all 12 dairy dishes", len(got))
	}
	for _, it := range got {
		if c := NormalizeCategory(it.Food.Category); c != "dairy" {
			t.Errorf("breakfast included %q (%s)", it.Food.NameEnglish, c)
		}
	}
}

func TestPersist(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	clock := newFakeClock(maySummer)
	e := newTestEngine(t, &mockFoods{}, &mockHistory{}, &mockScorer{}, store, clock)

	items := []ScoredFood{
		scoredItem(3, "fruits", 0.9),
		scoredItem(7, "lentils", 0.8),
	}
	user := UserProfile{ID: 42, CurrentTrimester: 3}
	rec, err := e.Persist(context.Background(), user, items, "daily plan")
	if err != nil {
		t.Fatalf("Persist() = %v", err)
	}
	if rec.ID == "" {
		t.Error("persisted recommendation has no ID")
	}
	if rec.UserID != 42 || rec.Trimester != 3 {
		t.Errorf("persisted user/trimester = %d/%d, want 42/3", rec.UserID, rec.Trimester)
	}
	if len(rec.FoodIDs) != 2 || rec.FoodIDs[0] != 3 || rec.FoodIDs[1] != 7 {
		t.Errorf("persisted food IDs = %v, want [3 7]", rec.FoodIDs)
	}
	if !rec.CreatedAt.Equal(maySummer) {
		t.Errorf("CreatedAt = %v, want engine clock time %v", rec.CreatedAt, maySummer)
	}
}

func TestPersistWithoutStore(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &mockFoods{}, &mockHistory{}, &mockScorer{}, nil, nil)
	if _, err := e.Persist(context.Background(), UserProfile{ID: 1}, nil, ""); err == nil {
		t.Error("Persist() without store = nil error")
	}
}

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	foods := &mockFoods{items: []FoodItem{catalogFood(1, "Moong Dal", "Lentils")}}
	e := newTestEngine(t, foods, &mockHistory{}, &mockScorer{}, nil, newFakeClock(maySummer))
	user := UserProfile{ID: 1, CurrentTrimester: 2}
	ctx := context.Background()

	if _, err := e.Rank(ctx, user, 5); err != nil {
		t.Fatalf("Rank() = %v", err)
	}
	if _, err := e.Rank(ctx, user, 5); err != nil {
		t.Fatalf("Rank() = %v", err)
	}

	m := e.Metrics()
	if m.Requests != 2 {
		t.Errorf("Requests = %d, want 2", m.Requests)
	}
	if m.CacheMisses != 1 || m.CacheHits != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 1/1", m.CacheHits, m.CacheMisses)
	}
	if m.ResultCacheSize != 1 {
		t.Errorf("ResultCacheSize = %d, want 1", m.ResultCacheSize)
	}
	if m.NameCacheSize != 1 || m.NutritionCacheSize != 1 {
		t.Errorf("memo cache sizes = %d/%d, want 1/1", m.NameCacheSize, m.NutritionCacheSize)
	}
}
