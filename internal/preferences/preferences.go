// Package preferences computes the team preference aggregate: how a room's
// favorite activities distribute over catalog categories once the catalog's
// own category mix is factored out. Without the inverse-availability
// weighting, categories with more inventory would win by base rate alone.
package preferences

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/eventhorizon-app/backend/internal/models"
)

// MemberProfile is the per-member input to aggregation, detached from the
// ORM so the math stays testable without a database.
type MemberProfile struct {
	UserID              uuid.UUID
	FavoriteActivityIDs []uuid.UUID
	FavoriteCategories  []models.ActivityCategory
	Preferences         models.PreferenceProfile
	Hobbies             []string
}

// CategoryShare is one slice of a category distribution.
type CategoryShare struct {
	Category   models.ActivityCategory `json:"category"`
	Percentage float64                 `json:"percentage"`
	Count      int                     `json:"count"`
}

// DimensionStats summarizes one numeric preference dimension across members
// who actually moved the slider off the default midpoint.
type DimensionStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary is everything the aggregator can say about a room without
// consulting the recommendation engine.
type Summary struct {
	Normalized   []CategoryShare `json:"normalized"`
	Raw          []CategoryShare `json:"raw"`
	Availability []CategoryShare `json:"availability"`

	TotalFavorites      int     `json:"total_favorites"`
	ContributingMembers int     `json:"contributing_members"`
	SynergyScore        float64 `json:"synergy_score"`

	PreferenceStats map[string]DimensionStats `json:"preference_stats"`
}

// TopCategories returns the normalized categories in descending order.
func (s Summary) TopCategories() []models.ActivityCategory {
	out := make([]models.ActivityCategory, 0, len(s.Normalized))
	for _, share := range s.Normalized {
		out = append(out, share.Category)
	}
	return out
}

// Aggregate builds the category distributions for a set of members against
// the full catalog. An empty catalog or a room with no favorites yields
// empty distributions: no data, no signal.
func Aggregate(members []MemberProfile, catalog []models.Activity) Summary {
	summary := Summary{PreferenceStats: PreferenceStatistics(members)}

	availabilityCounts := map[models.ActivityCategory]int{}
	for _, activity := range catalog {
		availabilityCounts[activity.Category]++
	}
	totalAvailable := len(catalog)
	if totalAvailable == 0 {
		return summary
	}

	favoritesCounts := map[models.ActivityCategory]int{}
	memberCounts := make([]map[models.ActivityCategory]int, len(members))
	totalFavorites := 0
	for i, member := range members {
		memberCounts[i] = map[models.ActivityCategory]int{}
		for _, category := range member.FavoriteCategories {
			memberCounts[i][category]++
			favoritesCounts[category]++
			totalFavorites++
		}
	}
	if totalFavorites == 0 {
		return summary
	}
	summary.TotalFavorites = totalFavorites

	availabilityShare := map[models.ActivityCategory]float64{}
	for category, count := range availabilityCounts {
		availabilityShare[category] = float64(count) / float64(totalAvailable)
	}

	// Inverse-availability weighting: each member's share in a category is
	// divided by that category's share of the catalog, so affinity for a
	// rare category counts more than affinity for an abundant one.
	normalizedScores := map[models.ActivityCategory]float64{}
	shareVectors := make([][]float64, 0, len(members))
	contributing := 0
	for i := range members {
		memberTotal := 0
		for _, count := range memberCounts[i] {
			memberTotal += count
		}
		if memberTotal == 0 {
			continue
		}
		contributing++

		vector := make([]float64, len(models.Categories))
		for j, category := range models.Categories {
			count := memberCounts[i][category]
			if count == 0 {
				continue
			}
			userShare := float64(count) / float64(memberTotal)
			vector[j] = userShare
			if availabilityShare[category] > 0 {
				normalizedScores[category] += userShare / availabilityShare[category]
			}
		}
		shareVectors = append(shareVectors, vector)
	}
	summary.ContributingMembers = contributing
	summary.SynergyScore = synergyScore(shareVectors)

	for category := range normalizedScores {
		normalizedScores[category] /= float64(contributing)
	}

	// Only categories someone actually favorited survive into the output.
	var scoreTotal float64
	for category, count := range favoritesCounts {
		if count > 0 {
			scoreTotal += normalizedScores[category]
		}
	}
	if scoreTotal > 0 {
		for category, count := range favoritesCounts {
			if count == 0 {
				continue
			}
			summary.Normalized = append(summary.Normalized, CategoryShare{
				Category:   category,
				Percentage: round1(normalizedScores[category] / scoreTotal * 100),
				Count:      count,
			})
		}
		sortShares(summary.Normalized)
		settleResidual(summary.Normalized)
	}

	for category, count := range favoritesCounts {
		if count == 0 {
			continue
		}
		summary.Raw = append(summary.Raw, CategoryShare{
			Category:   category,
			Percentage: round1(float64(count) / float64(totalFavorites) * 100),
			Count:      count,
		})
	}
	sortShares(summary.Raw)

	for category, count := range availabilityCounts {
		summary.Availability = append(summary.Availability, CategoryShare{
			Category:   category,
			Percentage: round1(float64(count) / float64(totalAvailable) * 100),
			Count:      count,
		})
	}
	sortShares(summary.Availability)

	return summary
}

// synergyScore is the mean pairwise cosine similarity of the members'
// category share vectors, scaled to 0-100. A lone contributor is perfectly
// aligned with itself.
func synergyScore(vectors [][]float64) float64 {
	if len(vectors) == 0 {
		return 0
	}
	if len(vectors) == 1 {
		return 100
	}

	var total float64
	pairs := 0
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			total += cosine(vectors[i], vectors[j])
			pairs++
		}
	}
	return round1(total / float64(pairs) * 100)
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// PreferenceStatistics aggregates the numeric preference dimensions across
// members. Values at the default midpoint mean the member never touched the
// slider and are excluded; a dimension nobody touched is omitted entirely.
func PreferenceStatistics(members []MemberProfile) map[string]DimensionStats {
	dims := map[string][]float64{}
	for _, member := range members {
		p := member.Preferences
		collect(dims, "budget", p.Budget)
		collect(dims, "travel_willingness", p.TravelWillingness)
		collect(dims, "physical_energy", p.PhysicalEnergy)
		collect(dims, "social_energy", p.SocialEnergy)
		collect(dims, "adventurousness", p.Adventurousness)
	}

	stats := map[string]DimensionStats{}
	for dim, values := range dims {
		stats[dim] = describe(values)
	}
	return stats
}

func collect(dims map[string][]float64, dim string, value int) {
	if value <= 0 || value == models.PreferenceDefault {
		return
	}
	dims[dim] = append(dims[dim], float64(value))
}

func describe(values []float64) DimensionStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(sorted))

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return DimensionStats{
		Count:  len(sorted),
		Mean:   mean,
		Median: median,
		StdDev: math.Sqrt(variance),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// FallbackRecommendations picks up to limit activities deterministically:
// activities in the preferred categories first, in catalog order, then any
// remaining activities in catalog order.
func FallbackRecommendations(preferred []models.ActivityCategory, catalog []models.Activity, limit int) []uuid.UUID {
	preferredSet := map[models.ActivityCategory]bool{}
	for _, category := range preferred {
		preferredSet[category] = true
	}

	chosen := map[uuid.UUID]bool{}
	out := make([]uuid.UUID, 0, limit)
	for _, activity := range catalog {
		if len(out) >= limit {
			return out
		}
		if preferredSet[activity.Category] && !chosen[activity.ID] {
			chosen[activity.ID] = true
			out = append(out, activity.ID)
		}
	}
	for _, activity := range catalog {
		if len(out) >= limit {
			break
		}
		if !chosen[activity.ID] {
			chosen[activity.ID] = true
			out = append(out, activity.ID)
		}
	}
	return out
}

// TeamVibe maps the normalized distribution onto a coarse action/relax/mixed
// label without involving the engine.
func TeamVibe(normalized []CategoryShare) string {
	var action, relax float64
	for _, share := range normalized {
		switch share.Category {
		case models.CategoryAction, models.CategoryOutdoor, models.CategoryParty:
			action += share.Percentage
		case models.CategoryRelax, models.CategoryCulture, models.CategoryFood:
			relax += share.Percentage
		}
	}
	switch {
	case action > relax+10:
		return "action"
	case relax > action+10:
		return "relax"
	default:
		return "mixed"
	}
}

// Fingerprint hashes everything the analysis depends on. Members and the
// slices inside each member are sorted first, so insertion order never
// changes the key; any change to favorites, preferences or hobbies does.
func Fingerprint(roomID uuid.UUID, members []MemberProfile) string {
	lines := make([]string, 0, len(members))
	for _, member := range members {
		favorites := make([]string, 0, len(member.FavoriteActivityIDs))
		for _, id := range member.FavoriteActivityIDs {
			favorites = append(favorites, id.String())
		}
		sort.Strings(favorites)

		hobbies := append([]string(nil), member.Hobbies...)
		sort.Strings(hobbies)

		p := member.Preferences
		lines = append(lines, fmt.Sprintf("u:%s|f:%s|p:%d,%d,%d,%d,%d|h:%s",
			member.UserID,
			strings.Join(favorites, ","),
			p.Budget, p.TravelWillingness, p.PhysicalEnergy, p.SocialEnergy, p.Adventurousness,
			strings.Join(hobbies, ",")))
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(roomID.String() + "\n" + strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

func sortShares(shares []CategoryShare) {
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Percentage != shares[j].Percentage {
			return shares[i].Percentage > shares[j].Percentage
		}
		return shares[i].Category < shares[j].Category
	})
}

// settleResidual pushes per-entry rounding drift onto the largest share so
// the normalized distribution sums to 100.0 exactly.
func settleResidual(shares []CategoryShare) {
	if len(shares) == 0 {
		return
	}
	var sum float64
	for _, share := range shares {
		sum += share.Percentage
	}
	shares[0].Percentage = round1(shares[0].Percentage + (100 - sum))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
