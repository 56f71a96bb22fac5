package preferences

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/eventhorizon-app/backend/internal/models"
)

func buildCatalog(counts map[models.ActivityCategory]int) []models.Activity {
	var catalog []models.Activity
	for _, category := range models.Categories {
		for i := 0; i < counts[category]; i++ {
			catalog = append(catalog, models.Activity{ID: uuid.New(), Category: category})
		}
	}
	return catalog
}

func member(categories ...models.ActivityCategory) MemberProfile {
	return MemberProfile{UserID: uuid.New(), FavoriteCategories: categories}
}

func shareFor(shares []CategoryShare, category models.ActivityCategory) (CategoryShare, bool) {
	for _, share := range shares {
		if share.Category == category {
			return share, true
		}
	}
	return CategoryShare{}, false
}

func TestAggregateNormalizedSumsToHundred(t *testing.T) {
	catalog := buildCatalog(map[models.ActivityCategory]int{
		models.CategoryFood:    7,
		models.CategoryOutdoor: 3,
		models.CategoryRelax:   5,
		models.CategoryParty:   2,
	})
	members := []MemberProfile{
		member(models.CategoryFood, models.CategoryFood, models.CategoryOutdoor),
		member(models.CategoryRelax, models.CategoryParty),
		member(models.CategoryFood),
	}

	summary := Aggregate(members, catalog)

	var sum float64
	for _, share := range summary.Normalized {
		sum += share.Percentage
	}
	if math.Abs(sum-100) > 0.1 {
		t.Errorf("normalized percentages sum to %.2f, want 100", sum)
	}
	if summary.TotalFavorites != 6 {
		t.Errorf("TotalFavorites = %d, want 6", summary.TotalFavorites)
	}
	if summary.ContributingMembers != 3 {
		t.Errorf("ContributingMembers = %d, want 3", summary.ContributingMembers)
	}
}

func TestAggregateFavorsRareCategory(t *testing.T) {
	// Same number of favorites in each category, but creative has a tenth
	// of the inventory food has. Inverse weighting must rank it higher.
	catalog := buildCatalog(map[models.ActivityCategory]int{
		models.CategoryFood:     20,
		models.CategoryCreative: 2,
	})
	members := []MemberProfile{
		member(models.CategoryFood, models.CategoryCreative),
		member(models.CategoryFood, models.CategoryCreative),
	}

	summary := Aggregate(members, catalog)

	creative, ok := shareFor(summary.Normalized, models.CategoryCreative)
	if !ok {
		t.Fatal("creative missing from normalized distribution")
	}
	food, ok := shareFor(summary.Normalized, models.CategoryFood)
	if !ok {
		t.Fatal("food missing from normalized distribution")
	}
	if creative.Percentage <= food.Percentage {
		t.Errorf("creative (%.1f%%) should outrank food (%.1f%%) after availability weighting",
			creative.Percentage, food.Percentage)
	}

	// Raw distribution ignores availability and stays symmetric.
	rawCreative, _ := shareFor(summary.Raw, models.CategoryCreative)
	rawFood, _ := shareFor(summary.Raw, models.CategoryFood)
	if rawCreative.Percentage != rawFood.Percentage {
		t.Errorf("raw shares differ: creative %.1f%% vs food %.1f%%",
			rawCreative.Percentage, rawFood.Percentage)
	}
}

func TestAggregateBalancedTwoMemberRoom(t *testing.T) {
	catalog := buildCatalog(map[models.ActivityCategory]int{
		models.CategoryFood:    5,
		models.CategoryOutdoor: 5,
	})
	members := []MemberProfile{
		member(models.CategoryFood, models.CategoryFood, models.CategoryFood),
		member(models.CategoryOutdoor, models.CategoryOutdoor, models.CategoryOutdoor),
	}

	summary := Aggregate(members, catalog)

	if len(summary.Normalized) != 2 {
		t.Fatalf("got %d normalized categories, want 2", len(summary.Normalized))
	}
	for _, share := range summary.Normalized {
		if math.Abs(share.Percentage-50) > 0.1 {
			t.Errorf("%s = %.1f%%, want 50%%", share.Category, share.Percentage)
		}
	}

	// Disjoint favorites mean zero overlap between the two members.
	if summary.SynergyScore != 0 {
		t.Errorf("SynergyScore = %.1f, want 0 for disjoint favorites", summary.SynergyScore)
	}
}

func TestAggregateEmptyInputs(t *testing.T) {
	if got := Aggregate(nil, nil); len(got.Normalized) != 0 || got.TotalFavorites != 0 {
		t.Errorf("empty inputs should yield empty summary, got %+v", got)
	}

	catalog := buildCatalog(map[models.ActivityCategory]int{models.CategoryFood: 3})
	got := Aggregate([]MemberProfile{member()}, catalog)
	if len(got.Normalized) != 0 {
		t.Errorf("no favorites should yield empty normalized distribution, got %+v", got.Normalized)
	}
	if got.SynergyScore != 0 {
		t.Errorf("SynergyScore = %.1f, want 0 with no contributors", got.SynergyScore)
	}
}

func TestSynergySingleContributor(t *testing.T) {
	catalog := buildCatalog(map[models.ActivityCategory]int{models.CategoryFood: 3})
	summary := Aggregate([]MemberProfile{member(models.CategoryFood)}, catalog)
	if summary.SynergyScore != 100 {
		t.Errorf("SynergyScore = %.1f, want 100 for a single contributor", summary.SynergyScore)
	}
}

func TestSynergyIdenticalMembers(t *testing.T) {
	catalog := buildCatalog(map[models.ActivityCategory]int{
		models.CategoryFood:  4,
		models.CategoryRelax: 4,
	})
	members := []MemberProfile{
		member(models.CategoryFood, models.CategoryRelax),
		member(models.CategoryFood, models.CategoryRelax),
		member(models.CategoryFood, models.CategoryRelax),
	}
	summary := Aggregate(members, catalog)
	if summary.SynergyScore != 100 {
		t.Errorf("SynergyScore = %.1f, want 100 for identical share vectors", summary.SynergyScore)
	}
}

func TestPreferenceStatisticsExcludesMidpoint(t *testing.T) {
	members := []MemberProfile{
		{Preferences: models.PreferenceProfile{Budget: 5, TravelWillingness: 3}},
		{Preferences: models.PreferenceProfile{Budget: 1, TravelWillingness: 3}},
		{Preferences: models.PreferenceProfile{Budget: 3, TravelWillingness: 3}},
	}

	stats := PreferenceStatistics(members)

	budget, ok := stats["budget"]
	if !ok {
		t.Fatal("budget dimension missing")
	}
	if budget.Count != 2 {
		t.Errorf("budget count = %d, want 2 (midpoint excluded)", budget.Count)
	}
	if budget.Mean != 3 || budget.Min != 1 || budget.Max != 5 {
		t.Errorf("budget stats = %+v, want mean 3, min 1, max 5", budget)
	}
	if budget.StdDev != 2 {
		t.Errorf("budget stddev = %.2f, want 2", budget.StdDev)
	}
	if _, ok := stats["travel_willingness"]; ok {
		t.Error("travel_willingness should be omitted when every value sits at the midpoint")
	}
}

func TestFallbackRecommendations(t *testing.T) {
	food1 := models.Activity{ID: uuid.New(), Category: models.CategoryFood}
	relax1 := models.Activity{ID: uuid.New(), Category: models.CategoryRelax}
	food2 := models.Activity{ID: uuid.New(), Category: models.CategoryFood}
	party1 := models.Activity{ID: uuid.New(), Category: models.CategoryParty}
	catalog := []models.Activity{food1, relax1, food2, party1}

	got := FallbackRecommendations([]models.ActivityCategory{models.CategoryFood}, catalog, 3)
	want := []uuid.UUID{food1.ID, food2.ID, relax1.ID}
	if len(got) != len(want) {
		t.Fatalf("got %d recommendations, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recommendation[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFingerprintOrderIndependent(t *testing.T) {
	roomID := uuid.New()
	a := MemberProfile{
		UserID:              uuid.New(),
		FavoriteActivityIDs: []uuid.UUID{uuid.New(), uuid.New()},
		Hobbies:             []string{"climbing", "chess"},
	}
	b := MemberProfile{
		UserID:  uuid.New(),
		Hobbies: []string{"cooking"},
	}

	first := Fingerprint(roomID, []MemberProfile{a, b})

	shuffled := MemberProfile{
		UserID:              a.UserID,
		FavoriteActivityIDs: []uuid.UUID{a.FavoriteActivityIDs[1], a.FavoriteActivityIDs[0]},
		Hobbies:             []string{"chess", "climbing"},
	}
	second := Fingerprint(roomID, []MemberProfile{b, shuffled})

	if first != second {
		t.Error("fingerprint should not depend on member or slice ordering")
	}
}

func TestFingerprintChangesWithData(t *testing.T) {
	roomID := uuid.New()
	a := MemberProfile{UserID: uuid.New(), Hobbies: []string{"chess"}}

	base := Fingerprint(roomID, []MemberProfile{a})

	changed := a
	changed.Preferences.Budget = 5
	if Fingerprint(roomID, []MemberProfile{changed}) == base {
		t.Error("fingerprint should change when a preference changes")
	}

	withFavorite := a
	withFavorite.FavoriteActivityIDs = []uuid.UUID{uuid.New()}
	if Fingerprint(roomID, []MemberProfile{withFavorite}) == base {
		t.Error("fingerprint should change when favorites change")
	}

	if Fingerprint(uuid.New(), []MemberProfile{a}) == base {
		t.Error("fingerprint should change with the room")
	}
}

func TestTeamVibe(t *testing.T) {
	action := []CategoryShare{
		{Category: models.CategoryAction, Percentage: 70},
		{Category: models.CategoryFood, Percentage: 30},
	}
	if got := TeamVibe(action); got != "action" {
		t.Errorf("TeamVibe = %q, want action", got)
	}

	relax := []CategoryShare{
		{Category: models.CategoryRelax, Percentage: 60},
		{Category: models.CategoryParty, Percentage: 40},
	}
	if got := TeamVibe(relax); got != "relax" {
		t.Errorf("TeamVibe = %q, want relax", got)
	}

	mixed := []CategoryShare{
		{Category: models.CategoryOutdoor, Percentage: 52},
		{Category: models.CategoryCulture, Percentage: 48},
	}
	if got := TeamVibe(mixed); got != "mixed" {
		t.Errorf("TeamVibe = %q, want mixed", got)
	}
}
