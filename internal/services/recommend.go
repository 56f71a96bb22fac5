package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventhorizon-app/backend/internal/models"
	"github.com/eventhorizon-app/backend/internal/preferences"
)

// TeamMember is the slice of a user the engine is allowed to see.
type TeamMember struct {
	Name               string
	Department         string
	Preferences        models.PreferenceProfile
	Hobbies            []string
	FavoriteCategories []models.ActivityCategory
}

// TeamInput bundles everything an engine needs to profile a room.
type TeamInput struct {
	RoomID   uuid.UUID
	RoomName string
	Members  []TeamMember
	Summary  preferences.Summary
	Catalog  []models.Activity
}

// TeamAnalysis is the full team profile, whichever engine produced it.
type TeamAnalysis struct {
	CategoryDistribution   []preferences.CategoryShare `json:"category_distribution"`
	PreferredGoals         []string                    `json:"preferred_goals"`
	RecommendedActivityIDs []uuid.UUID                 `json:"recommended_activity_ids"`
	TeamVibe               string                      `json:"team_vibe"`
	SynergyScore           float64                     `json:"synergy_score"`
	Strengths              []string                    `json:"strengths"`
	Challenges             []string                    `json:"challenges"`
	TeamPersonality        string                      `json:"team_personality"`
	SocialVibe             string                      `json:"social_vibe"`
	Insights               []string                    `json:"insights"`

	Source      string    `json:"source"` // "ai" or "fallback"
	GeneratedAt time.Time `json:"generated_at"`
}

type MatchFactors struct {
	BudgetMatch     float64 `json:"budget_match"`
	SeasonMatch     float64 `json:"season_match"`
	GroupSizeMatch  float64 `json:"group_size_match"`
	PreferenceMatch float64 `json:"preference_match"`
}

type ActivitySuggestion struct {
	ActivityID   uuid.UUID    `json:"activity_id"`
	Score        float64      `json:"score"`
	Reason       string       `json:"reason"`
	MatchFactors MatchFactors `json:"match_factors"`
}

// EventInput is the context for per-event activity ranking.
type EventInput struct {
	Event    models.Event
	Catalog  []models.Activity
	Analysis *TeamAnalysis
}

type InviteInput struct {
	Event         models.Event
	RecipientName string
	Role          string // "organizer" or "participant"
}

type InviteContent struct {
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	CallToAction string `json:"call_to_action"`
}

type ReminderInput struct {
	Event             models.Event
	RecipientName     string
	DaysUntilDeadline int
}

type ReminderContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Urgency string `json:"urgency"` // low, medium, high
}

// ReminderUrgency buckets the remaining days the same way for every engine.
func ReminderUrgency(daysUntilDeadline int) string {
	switch {
	case daysUntilDeadline <= 1:
		return "high"
	case daysUntilDeadline <= 3:
		return "medium"
	default:
		return "low"
	}
}

// RecommendationEngine produces team profiles and generated copy. The
// OpenRouter engine is the real one; the fallback engine keeps every
// endpoint functional without an API key.
type RecommendationEngine interface {
	AnalyzeTeam(ctx context.Context, input TeamInput) (*TeamAnalysis, error)
	SuggestActivities(ctx context.Context, input EventInput) ([]ActivitySuggestion, error)
	ComposeInvite(ctx context.Context, input InviteInput) (*InviteContent, error)
	ComposeReminder(ctx context.Context, input ReminderInput) (*ReminderContent, error)
}

// OpenRouterEngine calls an OpenAI-compatible chat completions API with
// structured output schemas, so responses parse without prompt gymnastics.
type OpenRouterEngine struct {
	baseURL string
	apiKey  string
	siteURL string
	appName string
	model   string
	client  *http.Client
	log     *zap.Logger
}

func NewOpenRouterEngine(baseURL, apiKey, siteURL, appName, model string, log *zap.Logger) *OpenRouterEngine {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if model == "" {
		model = "deepseek/deepseek-chat"
	}
	return &OpenRouterEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		siteURL: siteURL,
		appName: appName,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Configured reports whether the engine has credentials to call out with.
func (e *OpenRouterEngine) Configured() bool {
	return e.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func jsonSchemaFormat(name string, schema map[string]any) map[string]any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   name,
			"strict": true,
			"schema": schema,
		},
	}
}

func (e *OpenRouterEngine) complete(ctx context.Context, messages []chatMessage, format map[string]any, temperature float64) (string, error) {
	if !e.Configured() {
		return "", fmt.Errorf("recommendation engine not configured: missing API key")
	}

	payload, err := json.Marshal(chatRequest{
		Model:          e.model,
		Messages:       messages,
		ResponseFormat: format,
		Temperature:    temperature,
		MaxTokens:      2000,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("HTTP-Referer", e.siteURL)
	req.Header.Set("X-Title", e.appName)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	content := stripFences(parsed.Choices[0].Message.Content)
	e.log.Debug("completion received", zap.Int("chars", len(content)))
	return content, nil
}

// stripFences unwraps content a model insists on returning inside a
// markdown code block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}

func (e *OpenRouterEngine) AnalyzeTeam(ctx context.Context, input TeamInput) (*TeamAnalysis, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"categoryDistribution": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"category":   map[string]any{"type": "string"},
						"percentage": map[string]any{"type": "number"},
						"count":      map[string]any{"type": "integer"},
					},
					"required":             []string{"category", "percentage", "count"},
					"additionalProperties": false,
				},
			},
			"preferredGoals":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"recommendedActivityIds": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
			"teamVibe":               map[string]any{"type": "string", "enum": []string{"action", "relax", "mixed"}},
			"synergyScore":           map[string]any{"type": "number"},
			"strengths":              map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"challenges":             map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"teamPersonality":        map[string]any{"type": "string"},
			"socialVibe":             map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
			"insights":               map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{
			"categoryDistribution", "preferredGoals", "recommendedActivityIds",
			"teamVibe", "synergyScore", "strengths", "challenges",
			"teamPersonality", "socialVibe", "insights",
		},
		"additionalProperties": false,
	}

	messages := []chatMessage{
		{
			Role: "system",
			Content: "You are an expert on team psychology, group dynamics and event planning. " +
				"Build a deep team profile from the individual member profiles and answer with " +
				"precise, insightful observations.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf(`Run a full team analysis.

Team members (%d):
%s

Measured favorite distribution (primary source, keep it):
%s

Available activities (referenced by numeric id in brackets):
%s

Tasks:
1. Report the category distribution. Use the measured distribution as-is.
2. Identify the 3 most important team goals.
3. Recommend 3-5 activities by their numeric id.
4. Classify the team vibe (action/relax/mixed).
5. Report the synergy score %.1f unchanged.
6. Name 2-3 concrete strengths and 2 planning challenges.
7. Give the team a short personality label.
8. Classify the social vibe (low/medium/high).
9. Give 3 insights about the team dynamic.`,
				len(input.Members),
				summarizeMembers(input.Members),
				summarizeDistribution(input.Summary.Normalized),
				summarizeCatalog(input.Catalog),
				input.Summary.SynergyScore),
		},
	}

	content, err := e.complete(ctx, messages, jsonSchemaFormat("team_analysis", schema), 0.5)
	if err != nil {
		return nil, err
	}

	var raw struct {
		CategoryDistribution   []preferences.CategoryShare `json:"categoryDistribution"`
		PreferredGoals         []string                    `json:"preferredGoals"`
		RecommendedActivityIDs []int                       `json:"recommendedActivityIds"`
		TeamVibe               string                      `json:"teamVibe"`
		SynergyScore           float64                     `json:"synergyScore"`
		Strengths              []string                    `json:"strengths"`
		Challenges             []string                    `json:"challenges"`
		TeamPersonality        string                      `json:"teamPersonality"`
		SocialVibe             string                      `json:"socialVibe"`
		Insights               []string                    `json:"insights"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse team analysis: %w", err)
	}

	// Models sometimes return no usable ids at all; fall back to the
	// deterministic pick instead of shipping an empty recommendation.
	recommended := resolveListingIDs(raw.RecommendedActivityIDs, input.Catalog)
	if len(recommended) == 0 {
		recommended = preferences.FallbackRecommendations(input.Summary.TopCategories(), input.Catalog, 3)
	}

	return &TeamAnalysis{
		CategoryDistribution:   input.Summary.Normalized,
		PreferredGoals:         raw.PreferredGoals,
		RecommendedActivityIDs: recommended,
		TeamVibe:               raw.TeamVibe,
		SynergyScore:           input.Summary.SynergyScore,
		Strengths:              raw.Strengths,
		Challenges:             raw.Challenges,
		TeamPersonality:        raw.TeamPersonality,
		SocialVibe:             raw.SocialVibe,
		Insights:               raw.Insights,
		Source:                 "ai",
		GeneratedAt:            time.Now().UTC(),
	}, nil
}

func (e *OpenRouterEngine) SuggestActivities(ctx context.Context, input EventInput) ([]ActivitySuggestion, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggestions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"activityId": map[string]any{"type": "integer"},
						"score":      map[string]any{"type": "number"},
						"reason":     map[string]any{"type": "string"},
						"matchFactors": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"budgetMatch":     map[string]any{"type": "number"},
								"seasonMatch":     map[string]any{"type": "number"},
								"groupSizeMatch":  map[string]any{"type": "number"},
								"preferenceMatch": map[string]any{"type": "number"},
							},
							"required":             []string{"budgetMatch", "seasonMatch", "groupSizeMatch", "preferenceMatch"},
							"additionalProperties": false,
						},
					},
					"required":             []string{"activityId", "score", "reason", "matchFactors"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"suggestions"},
		"additionalProperties": false,
	}

	teamContext := "No team analysis available."
	if input.Analysis != nil {
		if encoded, err := json.Marshal(input.Analysis); err == nil {
			teamContext = string(encoded)
		}
	}

	messages := []chatMessage{
		{
			Role: "system",
			Content: "You are an expert event planner. Rank activities against the event " +
				"constraints and the team profile. Rate every match factor 0-100; the score " +
				"is the average of the factors.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf(`Event:
%s

Team profile:
%s

Available activities (referenced by numeric id in brackets):
%s

Recommend the 5 best activities for this event with a short, convincing reason each.`,
				summarizeEvent(input.Event),
				teamContext,
				summarizeCatalog(input.Catalog)),
		},
	}

	content, err := e.complete(ctx, messages, jsonSchemaFormat("activity_suggestions", schema), 0.3)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Suggestions []struct {
			ActivityID   int     `json:"activityId"`
			Score        float64 `json:"score"`
			Reason       string  `json:"reason"`
			MatchFactors struct {
				BudgetMatch     float64 `json:"budgetMatch"`
				SeasonMatch     float64 `json:"seasonMatch"`
				GroupSizeMatch  float64 `json:"groupSizeMatch"`
				PreferenceMatch float64 `json:"preferenceMatch"`
			} `json:"matchFactors"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse activity suggestions: %w", err)
	}

	byListing := map[int]uuid.UUID{}
	for _, activity := range input.Catalog {
		byListing[activity.ListingID] = activity.ID
	}

	suggestions := make([]ActivitySuggestion, 0, len(raw.Suggestions))
	for _, s := range raw.Suggestions {
		id, ok := byListing[s.ActivityID]
		if !ok {
			// Hallucinated id, skip rather than fail the whole batch.
			e.log.Warn("engine referenced unknown activity", zap.Int("listing_id", s.ActivityID))
			continue
		}
		suggestions = append(suggestions, ActivitySuggestion{
			ActivityID: id,
			Score:      s.Score,
			Reason:     s.Reason,
			MatchFactors: MatchFactors{
				BudgetMatch:     s.MatchFactors.BudgetMatch,
				SeasonMatch:     s.MatchFactors.SeasonMatch,
				GroupSizeMatch:  s.MatchFactors.GroupSizeMatch,
				PreferenceMatch: s.MatchFactors.PreferenceMatch,
			},
		})
	}
	return suggestions, nil
}

func (e *OpenRouterEngine) ComposeInvite(ctx context.Context, input InviteInput) (*InviteContent, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject":      map[string]any{"type": "string"},
			"body":         map[string]any{"type": "string"},
			"callToAction": map[string]any{"type": "string"},
		},
		"required":             []string{"subject", "body", "callToAction"},
		"additionalProperties": false,
	}

	messages := []chatMessage{
		{
			Role: "system",
			Content: "You are a friendly event manager. Write personal, motivating invitations. " +
				"Tone: professional but warm, short and to the point.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf(`Write an event invitation.

Recipient: %s
Role: %s

Event:
%s

Subject: short and inviting (max 60 characters).
Body: 2-3 paragraphs, personal and informative.
Call to action: button text, e.g. "Vote now".`,
				input.RecipientName, input.Role, summarizeEvent(input.Event)),
		},
	}

	content, err := e.complete(ctx, messages, jsonSchemaFormat("event_invite", schema), 0.8)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Subject      string `json:"subject"`
		Body         string `json:"body"`
		CallToAction string `json:"callToAction"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse invite: %w", err)
	}
	return &InviteContent{Subject: raw.Subject, Body: raw.Body, CallToAction: raw.CallToAction}, nil
}

func (e *OpenRouterEngine) ComposeReminder(ctx context.Context, input ReminderInput) (*ReminderContent, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject": map[string]any{"type": "string"},
			"body":    map[string]any{"type": "string"},
			"urgency": map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
		},
		"required":             []string{"subject", "body", "urgency"},
		"additionalProperties": false,
	}

	messages := []chatMessage{
		{
			Role: "system",
			Content: "You are a friendly reminder bot. Write short, motivating reminders. " +
				"No pressure, but a clear call to action.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf(`Write a voting reminder.

Recipient: %s
Event: %s
Deadline: in %d day(s)
Urgency: %s

Subject: friendly and clear. Body: short, mentions the deadline, motivates voting.`,
				input.RecipientName, input.Event.Name, input.DaysUntilDeadline,
				ReminderUrgency(input.DaysUntilDeadline)),
		},
	}

	content, err := e.complete(ctx, messages, jsonSchemaFormat("voting_reminder", schema), 0.7)
	if err != nil {
		return nil, err
	}

	var reminder ReminderContent
	if err := json.Unmarshal([]byte(content), &reminder); err != nil {
		return nil, fmt.Errorf("failed to parse reminder: %w", err)
	}
	return &reminder, nil
}

func resolveListingIDs(listingIDs []int, catalog []models.Activity) []uuid.UUID {
	byListing := map[int]uuid.UUID{}
	for _, activity := range catalog {
		byListing[activity.ListingID] = activity.ID
	}
	out := make([]uuid.UUID, 0, len(listingIDs))
	for _, listingID := range listingIDs {
		if id, ok := byListing[listingID]; ok {
			out = append(out, id)
		}
	}
	return out
}

func summarizeMembers(members []TeamMember) string {
	var b strings.Builder
	limit := len(members)
	if limit > 20 {
		limit = 20
	}
	for _, m := range members[:limit] {
		fmt.Fprintf(&b, "- %s (%s): budget=%d travel=%d physical=%d social=%d adventure=%d hobbies=%s favorites=%s\n",
			m.Name, m.Department,
			m.Preferences.Budget, m.Preferences.TravelWillingness, m.Preferences.PhysicalEnergy,
			m.Preferences.SocialEnergy, m.Preferences.Adventurousness,
			strings.Join(m.Hobbies, ","), joinCategories(m.FavoriteCategories))
	}
	return b.String()
}

func summarizeDistribution(shares []preferences.CategoryShare) string {
	if len(shares) == 0 {
		return "- no favorites recorded yet\n"
	}
	var b strings.Builder
	for _, share := range shares {
		fmt.Fprintf(&b, "- %s: %.1f%% (%d favorites)\n", share.Category, share.Percentage, share.Count)
	}
	return b.String()
}

func summarizeCatalog(catalog []models.Activity) string {
	var b strings.Builder
	limit := len(catalog)
	if limit > 50 {
		limit = 50
	}
	for _, a := range catalog[:limit] {
		fmt.Fprintf(&b, "- [%d] %s: category=%s price=%.0f region=%s season=%s group=%d-%d\n",
			a.ListingID, a.Title, a.Category, a.EstPricePerPerson, a.Region, a.Season,
			a.GroupSizeMin, a.GroupSizeMax)
	}
	return b.String()
}

func summarizeEvent(event models.Event) string {
	budget := "not set"
	if event.BudgetAmount != nil {
		budgetType := models.BudgetPerPerson
		if event.BudgetType != nil {
			budgetType = *event.BudgetType
		}
		budget = fmt.Sprintf("%.2f (%s)", *event.BudgetAmount, budgetType)
	}
	participants := "?"
	if event.ParticipantEstimate != nil {
		participants = fmt.Sprintf("%d", *event.ParticipantEstimate)
	}
	return fmt.Sprintf("Name: %s\nDescription: %s\nPhase: %s\nBudget: %s\nParticipants: ~%s\nRegion: %s",
		event.Name, event.Description, event.Phase, budget, participants, event.Region)
}

func joinCategories(categories []models.ActivityCategory) string {
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}
