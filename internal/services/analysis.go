package services

import (
	"context"

	"go.uber.org/zap"
)

// AnalysisService wraps the recommendation engine with caching and a
// deterministic fallback. Handlers assemble the inputs; this service
// guarantees an answer.
type AnalysisService struct {
	engine   RecommendationEngine
	fallback *FallbackEngine
	cache    *AnalysisCache
	log      *zap.Logger
}

func NewAnalysisService(engine RecommendationEngine, cache *AnalysisCache, log *zap.Logger) *AnalysisService {
	return &AnalysisService{
		engine:   engine,
		fallback: NewFallbackEngine(),
		cache:    cache,
		log:      log,
	}
}

// HasEngine reports whether a real engine is wired in, as opposed to the
// fallback-only configuration used when no API key is set.
func (s *AnalysisService) HasEngine() bool {
	return s.engine != nil
}

// Analyze returns the team analysis for the given cache key, consulting the
// cache first unless force is set. Engine failures degrade to the fallback
// instead of surfacing; fallback results are cached too, under the same key.
func (s *AnalysisService) Analyze(ctx context.Context, key string, input TeamInput, force bool) *TeamAnalysis {
	if !force {
		if cached := s.cache.Get(key); cached != nil {
			return cached
		}
	}

	analysis := s.runEngine(ctx, input)
	s.cache.Set(key, analysis)
	return analysis
}

func (s *AnalysisService) runEngine(ctx context.Context, input TeamInput) *TeamAnalysis {
	if s.engine != nil {
		analysis, err := s.engine.AnalyzeTeam(ctx, input)
		if err == nil {
			return analysis
		}
		s.log.Warn("team analysis engine failed, using fallback",
			zap.String("room_id", input.RoomID.String()), zap.Error(err))
	}
	analysis, _ := s.fallback.AnalyzeTeam(ctx, input)
	return analysis
}

// Suggest ranks activities for an event, degrading to the fallback ranking
// on engine failure.
func (s *AnalysisService) Suggest(ctx context.Context, input EventInput) []ActivitySuggestion {
	if s.engine != nil {
		suggestions, err := s.engine.SuggestActivities(ctx, input)
		if err == nil && len(suggestions) > 0 {
			return suggestions
		}
		if err != nil {
			s.log.Warn("activity suggestion engine failed, using fallback",
				zap.String("event_id", input.Event.ID.String()), zap.Error(err))
		}
	}
	suggestions, _ := s.fallback.SuggestActivities(ctx, input)
	return suggestions
}

// Invite composes invite copy, degrading to the fallback template.
func (s *AnalysisService) Invite(ctx context.Context, input InviteInput) *InviteContent {
	if s.engine != nil {
		invite, err := s.engine.ComposeInvite(ctx, input)
		if err == nil {
			return invite
		}
		s.log.Warn("invite engine failed, using fallback", zap.Error(err))
	}
	invite, _ := s.fallback.ComposeInvite(ctx, input)
	return invite
}

// Reminder composes reminder copy, degrading to the fallback template.
func (s *AnalysisService) Reminder(ctx context.Context, input ReminderInput) *ReminderContent {
	if s.engine != nil {
		reminder, err := s.engine.ComposeReminder(ctx, input)
		if err == nil {
			return reminder
		}
		s.log.Warn("reminder engine failed, using fallback", zap.Error(err))
	}
	reminder, _ := s.fallback.ComposeReminder(ctx, input)
	return reminder
}
