package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/eventhorizon-app/backend/internal/models"
	"github.com/eventhorizon-app/backend/internal/preferences"
)

// FallbackEngine is a deterministic engine used when no API key is
// configured or the remote call fails. It leans entirely on the measured
// aggregate, so its answers are boring but never wrong.
type FallbackEngine struct{}

func NewFallbackEngine() *FallbackEngine {
	return &FallbackEngine{}
}

var categoryGoals = map[models.ActivityCategory]string{
	models.CategoryAction:   "Shared adrenaline and team spirit",
	models.CategoryFood:     "Relaxed conversations over good food",
	models.CategoryRelax:    "Recharging together without pressure",
	models.CategoryParty:    "Celebrating wins as a group",
	models.CategoryCulture:  "Learning something new together",
	models.CategoryOutdoor:  "Fresh air and a change of scenery",
	models.CategoryCreative: "Building something with your own hands",
}

func (e *FallbackEngine) AnalyzeTeam(ctx context.Context, input TeamInput) (*TeamAnalysis, error) {
	summary := input.Summary
	top := summary.TopCategories()

	goals := make([]string, 0, 3)
	for _, category := range top {
		if goal, ok := categoryGoals[category]; ok {
			goals = append(goals, goal)
		}
		if len(goals) == 3 {
			break
		}
	}

	vibe := preferences.TeamVibe(summary.Normalized)

	strengths := []string{"The group shares a clear set of favorite categories"}
	challenges := []string{"Preferences outside the top categories may feel underrepresented"}
	if summary.SynergyScore >= 70 {
		strengths = append(strengths, "Member tastes overlap strongly, which makes consensus easy")
	} else if summary.ContributingMembers > 1 {
		challenges = append(challenges, "Tastes diverge, so plan for activities that mix elements")
	}

	insights := []string{
		fmt.Sprintf("%d of the room's members have marked favorites so far", summary.ContributingMembers),
	}
	if len(top) > 0 {
		insights = append(insights, fmt.Sprintf("The strongest pull is towards %s activities", top[0]))
	}
	if summary.SynergyScore > 0 {
		insights = append(insights, fmt.Sprintf("Preference overlap sits at %.0f out of 100", summary.SynergyScore))
	}

	return &TeamAnalysis{
		CategoryDistribution:   summary.Normalized,
		PreferredGoals:         goals,
		RecommendedActivityIDs: preferences.FallbackRecommendations(topN(top, 2), input.Catalog, 3),
		TeamVibe:               vibe,
		SynergyScore:           summary.SynergyScore,
		Strengths:              strengths,
		Challenges:             challenges,
		TeamPersonality:        personalityLabel(vibe),
		SocialVibe:             socialVibe(summary.PreferenceStats),
		Insights:               insights,
		Source:                 "fallback",
		GeneratedAt:            time.Now().UTC(),
	}, nil
}

func (e *FallbackEngine) SuggestActivities(ctx context.Context, input EventInput) ([]ActivitySuggestion, error) {
	preferred := map[models.ActivityCategory]float64{}
	if input.Analysis != nil {
		for _, share := range input.Analysis.CategoryDistribution {
			preferred[share.Category] = share.Percentage
		}
	}

	suggestions := make([]ActivitySuggestion, 0, len(input.Catalog))
	for _, activity := range input.Catalog {
		factors := MatchFactors{
			BudgetMatch:     budgetMatch(input.Event, activity),
			SeasonMatch:     seasonMatch(activity),
			GroupSizeMatch:  groupSizeMatch(input.Event, activity),
			PreferenceMatch: math.Min(100, preferred[activity.Category]*2),
		}
		score := (factors.BudgetMatch + factors.SeasonMatch + factors.GroupSizeMatch + factors.PreferenceMatch) / 4
		suggestions = append(suggestions, ActivitySuggestion{
			ActivityID:   activity.ID,
			Score:        math.Round(score*10) / 10,
			Reason:       fmt.Sprintf("%s fits the event constraints and the team's %s leaning", activity.Title, activity.Category),
			MatchFactors: factors,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}
	return suggestions, nil
}

func (e *FallbackEngine) ComposeInvite(ctx context.Context, input InviteInput) (*InviteContent, error) {
	body := fmt.Sprintf("Hi %s,\n\n%q is being planned and your input matters. "+
		"Have a look at the proposed activities and make your voice heard.\n\n%s",
		input.RecipientName, input.Event.Name, input.Event.Description)
	if input.Role == "organizer" {
		body = fmt.Sprintf("Hi %s,\n\nyou are organizing %q. "+
			"Invite your team, collect proposals and get the vote going.",
			input.RecipientName, input.Event.Name)
	}
	return &InviteContent{
		Subject:      fmt.Sprintf("Invitation: %s", input.Event.Name),
		Body:         body,
		CallToAction: "Open the event",
	}, nil
}

func (e *FallbackEngine) ComposeReminder(ctx context.Context, input ReminderInput) (*ReminderContent, error) {
	return &ReminderContent{
		Subject: fmt.Sprintf("Reminder: voting for %s closes soon", input.Event.Name),
		Body: fmt.Sprintf("Hi %s,\n\nvoting for %q closes in %d day(s). "+
			"Cast your vote so the event reflects what you want to do.",
			input.RecipientName, input.Event.Name, input.DaysUntilDeadline),
		Urgency: ReminderUrgency(input.DaysUntilDeadline),
	}, nil
}

func topN(categories []models.ActivityCategory, n int) []models.ActivityCategory {
	if len(categories) > n {
		return categories[:n]
	}
	return categories
}

func personalityLabel(vibe string) string {
	switch vibe {
	case "action":
		return "The Restless Explorers"
	case "relax":
		return "The Easygoing Connoisseurs"
	default:
		return "The Balanced All-Rounders"
	}
}

func socialVibe(stats map[string]preferences.DimensionStats) string {
	social, ok := stats["social_energy"]
	if !ok {
		return "medium"
	}
	switch {
	case social.Mean >= 4:
		return "high"
	case social.Mean <= 2:
		return "low"
	default:
		return "medium"
	}
}

func budgetMatch(event models.Event, activity models.Activity) float64 {
	if event.BudgetAmount == nil || *event.BudgetAmount <= 0 {
		return 50
	}
	perPerson := *event.BudgetAmount
	if event.BudgetType != nil && *event.BudgetType == models.BudgetTotal {
		headcount := 1
		if event.ParticipantEstimate != nil && *event.ParticipantEstimate > 0 {
			headcount = *event.ParticipantEstimate
		}
		perPerson = perPerson / float64(headcount)
	}
	if activity.EstPricePerPerson <= 0 {
		return 50
	}
	if activity.EstPricePerPerson <= perPerson {
		return 100
	}
	overshoot := (activity.EstPricePerPerson - perPerson) / perPerson
	return math.Max(0, 100-overshoot*100)
}

func seasonMatch(activity models.Activity) float64 {
	if activity.Season == models.SeasonAllYear || activity.Season == "" {
		return 100
	}
	if currentSeason() == activity.Season {
		return 100
	}
	return 25
}

func currentSeason() models.Season {
	switch time.Now().Month() {
	case time.March, time.April, time.May:
		return models.SeasonSpring
	case time.June, time.July, time.August:
		return models.SeasonSummer
	case time.September, time.October, time.November:
		return models.SeasonAutumn
	default:
		return models.SeasonWinter
	}
}

func groupSizeMatch(event models.Event, activity models.Activity) float64 {
	if event.ParticipantEstimate == nil || *event.ParticipantEstimate <= 0 {
		return 50
	}
	count := *event.ParticipantEstimate
	if activity.GroupSizeMin > 0 && count < activity.GroupSizeMin {
		return 20
	}
	if activity.GroupSizeMax > 0 && count > activity.GroupSizeMax {
		return 20
	}
	return 100
}
