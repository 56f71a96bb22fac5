package server

import (
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eventhorizon-app/backend/config"
	"github.com/eventhorizon-app/backend/internal/handlers"
	"github.com/eventhorizon-app/backend/internal/middleware"
	"github.com/eventhorizon-app/backend/internal/services"
)

func Start() error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}
	defer log.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	aiCfg, err := config.LoadAIConfig()
	if err != nil {
		return fmt.Errorf("failed to load AI config: %v", err)
	}
	var engine services.RecommendationEngine
	if aiCfg.APIKey != "" {
		engine = services.NewOpenRouterEngine(aiCfg.BaseURL, aiCfg.APIKey, aiCfg.SiteURL, aiCfg.AppName, aiCfg.Model, log)
	} else {
		log.Warn("OPENROUTER_API_KEY not set, AI endpoints run on the deterministic fallback")
	}

	cache, err := services.NewAnalysisCache(256, services.DefaultAnalysisTTL)
	if err != nil {
		return fmt.Errorf("failed to create analysis cache: %v", err)
	}
	analysis := services.NewAnalysisService(engine, cache, log)

	mailCfg, err := config.LoadMailConfig()
	if err != nil {
		return fmt.Errorf("failed to load mail config: %v", err)
	}
	mail := services.NewMailService(services.MailConfig{
		Host:     mailCfg.Host,
		Port:     mailCfg.Port,
		Username: mailCfg.Username,
		Password: mailCfg.Password,
		From:     mailCfg.From,
		FromName: mailCfg.FromName,
		SiteURL:  mailCfg.SiteURL,
	}, log)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	setupRoutes(r, db, mail, analysis)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, mail *services.MailService, analysis *services.AnalysisService) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.MailMiddleware(mail))
	r.Use(middleware.AnalysisMiddleware(analysis))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		users := protected.Group("/users")
		{
			users.GET("/me", handlers.GetMe)
			users.PATCH("/me", handlers.UpdateMe)
		}

		rooms := protected.Group("/rooms")
		{
			rooms.GET("", handlers.ListRooms)
			rooms.POST("", handlers.CreateRoom)
			rooms.POST("/join", handlers.JoinRoom)
			rooms.GET("/:identifier", handlers.GetRoom)
			rooms.PATCH("/:identifier", handlers.UpdateRoom)
			rooms.DELETE("/:identifier", handlers.DeleteRoom)
			rooms.POST("/:identifier/leave", handlers.LeaveRoom)
			rooms.GET("/:identifier/members", handlers.ListRoomMembers)
			rooms.GET("/:identifier/events", handlers.ListRoomEvents)
			rooms.POST("/:identifier/events", handlers.CreateRoomEvent)
		}

		events := protected.Group("/events")
		{
			events.GET("/:identifier", handlers.GetEvent)
			events.PATCH("/:identifier", handlers.UpdateEvent)
			events.DELETE("/:identifier", handlers.DeleteEvent)
			events.PATCH("/:identifier/phase", handlers.UpdateEventPhase)
			events.POST("/:identifier/proposed-activities", handlers.ProposeActivity)
			events.DELETE("/:identifier/proposed-activities/:activityID", handlers.RemoveProposedActivity)
			events.PATCH("/:identifier/activities/:activityID/exclude", handlers.ExcludeActivity)
			events.PATCH("/:identifier/activities/:activityID/include", handlers.IncludeActivity)
			events.POST("/:identifier/votes", handlers.CastVote)
			events.POST("/:identifier/select-activity", handlers.SelectActivity)
			events.POST("/:identifier/date-options", handlers.CreateDateOption)
			events.DELETE("/:identifier/date-options/:optionID", handlers.DeleteDateOption)
			events.POST("/:identifier/date-options/:optionID/response", handlers.RespondToDateOption)
			events.POST("/:identifier/finalize-date", handlers.FinalizeDate)
			events.GET("/:identifier/comments", handlers.ListEventComments)
			events.POST("/:identifier/comments", handlers.CreateEventComment)
			events.DELETE("/:identifier/comments/:commentID", handlers.DeleteEventComment)
		}

		activities := protected.Group("/activities")
		{
			activities.GET("", handlers.ListActivities)
			activities.GET("/favorites", handlers.ListFavorites)
			activities.GET("/:identifier", handlers.GetActivity)
			activities.GET("/:identifier/favorite", handlers.FavoriteStatus)
			activities.POST("/:identifier/favorite", handlers.ToggleFavorite)
			activities.GET("/:identifier/comments", handlers.ListActivityComments)
			activities.POST("/:identifier/comments", handlers.CreateActivityComment)
			activities.DELETE("/:identifier/comments/:commentID", handlers.DeleteActivityComment)
			activities.POST("/:identifier/booking-request", handlers.SendBookingRequest)
		}

		ai := protected.Group("/ai")
		{
			ai.GET("/rooms/:id/recommendations", handlers.RoomRecommendations)
			ai.GET("/events/:id/suggestions", handlers.EventSuggestions)
			ai.POST("/events/:id/invites", handlers.SendEventInvites)
			ai.POST("/events/:id/voting-reminders", handlers.SendVotingReminders)
		}
	}
}
