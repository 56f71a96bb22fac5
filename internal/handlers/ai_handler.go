package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventhorizon-app/backend/internal/helpers"
	"github.com/eventhorizon-app/backend/internal/models"
	"github.com/eventhorizon-app/backend/internal/preferences"
	"github.com/eventhorizon-app/backend/internal/services"
)

// loadTeamInput assembles the full aggregation input for a room: member
// profiles with favorites, the catalog, the computed summary and the cache
// fingerprint.
func loadTeamInput(db *gorm.DB, room *models.Room) (services.TeamInput, string, error) {
	var memberRows []models.RoomMember
	if err := db.Preload("User.FavoriteActivities").Where("room_id = ?", room.ID).Find(&memberRows).Error; err != nil {
		return services.TeamInput{}, "", err
	}

	var catalog []models.Activity
	if err := db.Order("listing_id").Find(&catalog).Error; err != nil {
		return services.TeamInput{}, "", err
	}

	profiles := make([]preferences.MemberProfile, 0, len(memberRows))
	members := make([]services.TeamMember, 0, len(memberRows))
	for _, row := range memberRows {
		user := row.User
		favoriteIDs := make([]uuid.UUID, 0, len(user.FavoriteActivities))
		favoriteCategories := make([]models.ActivityCategory, 0, len(user.FavoriteActivities))
		for _, activity := range user.FavoriteActivities {
			favoriteIDs = append(favoriteIDs, activity.ID)
			favoriteCategories = append(favoriteCategories, activity.Category)
		}

		profiles = append(profiles, preferences.MemberProfile{
			UserID:              user.ID,
			FavoriteActivityIDs: favoriteIDs,
			FavoriteCategories:  favoriteCategories,
			Preferences:         user.Preferences.Data(),
			Hobbies:             user.Hobbies,
		})
		members = append(members, services.TeamMember{
			Name:               user.Name,
			Department:         user.Department,
			Preferences:        user.Preferences.Data(),
			Hobbies:            user.Hobbies,
			FavoriteCategories: favoriteCategories,
		})
	}

	input := services.TeamInput{
		RoomID:   room.ID,
		RoomName: room.Name,
		Members:  members,
		Summary:  preferences.Aggregate(profiles, catalog),
		Catalog:  catalog,
	}
	return input, preferences.Fingerprint(room.ID, profiles), nil
}

func RoomRecommendations(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	roomID, err := helpers.ParseUUID(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid room ID.")
		return
	}

	var room models.Room
	if err := gormDB.Where("id = ?", roomID).First(&room).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Room not found.")
		return
	}
	member, err := isRoomMember(gormDB, room.ID, userID)
	if err != nil || !member {
		helpers.RespondWithError(c, http.StatusNotFound, "Room not found.")
		return
	}

	analysisService := getAnalysisService(c)
	if analysisService == nil {
		return
	}

	input, fingerprint, err := loadTeamInput(gormDB, &room)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error loading room data.")
		return
	}

	// Without favorites there is nothing to fall back on, so an absent
	// engine is a hard failure rather than an empty answer.
	if input.Summary.TotalFavorites == 0 && !analysisService.HasEngine() {
		helpers.RespondWithError(c, http.StatusInternalServerError,
			"AI analysis unavailable and no favorites recorded yet.")
		return
	}

	force := c.Query("refresh") == "true"
	analysis := analysisService.Analyze(c.Request.Context(), fingerprint, input, force)

	c.JSON(http.StatusOK, analysis)
}

func EventSuggestions(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}
	member, err := isRoomMember(gormDB, event.RoomID, userID)
	if err != nil || !member {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	analysisService := getAnalysisService(c)
	if analysisService == nil {
		return
	}

	var room models.Room
	if err := gormDB.Where("id = ?", event.RoomID).First(&room).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error loading room data.")
		return
	}
	input, fingerprint, err := loadTeamInput(gormDB, &room)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error loading room data.")
		return
	}
	analysis := analysisService.Analyze(c.Request.Context(), fingerprint, input, false)

	// Already-proposed and excluded activities are off the table.
	remaining := make([]models.Activity, 0, len(input.Catalog))
	for _, activity := range input.Catalog {
		if event.IsProposed(activity.ID) || event.IsExcluded(activity.ID) {
			continue
		}
		remaining = append(remaining, activity)
	}

	suggestions := analysisService.Suggest(c.Request.Context(), services.EventInput{
		Event:    *event,
		Catalog:  remaining,
		Analysis: analysis,
	})

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func SendEventInvites(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}
	if event.CreatedByUserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "Only the event creator can send invites.")
		return
	}

	analysisService := getAnalysisService(c)
	if analysisService == nil {
		return
	}
	mail := getMailService(c)
	if mail == nil {
		return
	}

	var participants []models.EventParticipant
	if err := gormDB.Preload("User").Where("event_id = ?", event.ID).Find(&participants).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error loading participants.")
		return
	}

	eventURL := fmt.Sprintf("/events/%s", event.ID)
	sent := 0
	for _, participant := range participants {
		role := "participant"
		if participant.IsOrganizer {
			role = "organizer"
		}
		invite := analysisService.Invite(c.Request.Context(), services.InviteInput{
			Event:         *event,
			RecipientName: participant.User.Name,
			Role:          role,
		})
		// A dead mailbox should not sink the whole batch.
		if err := mail.SendEventInvite(participant.User.Email, invite, eventURL); err == nil {
			sent++
		}
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func SendVotingReminders(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}
	if event.CreatedByUserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "Only the event creator can send reminders.")
		return
	}
	if event.Phase != models.PhaseVoting && event.Phase != models.PhaseScheduling {
		helpers.RespondWithError(c, http.StatusBadRequest, "Reminders only make sense while voting or scheduling.")
		return
	}
	if event.VotingDeadline == nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "The event has no voting deadline.")
		return
	}

	analysisService := getAnalysisService(c)
	if analysisService == nil {
		return
	}
	mail := getMailService(c)
	if mail == nil {
		return
	}

	days := int(time.Until(*event.VotingDeadline).Hours() / 24)
	if days < 0 {
		days = 0
	}

	var pending []models.EventParticipant
	if err := gormDB.Preload("User").
		Where("event_id = ? AND has_voted = ?", event.ID, false).
		Find(&pending).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error loading participants.")
		return
	}

	eventURL := fmt.Sprintf("/events/%s", event.ID)
	sent := 0
	for _, participant := range pending {
		reminder := analysisService.Reminder(c.Request.Context(), services.ReminderInput{
			Event:             *event,
			RecipientName:     participant.User.Name,
			DaysUntilDeadline: days,
		})
		if err := mail.SendVotingReminder(participant.User.Email, reminder, eventURL); err == nil {
			sent++
		}
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func getAnalysisService(c *gin.Context) *services.AnalysisService {
	service, exists := c.Get("analysis_service")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Analysis service not found.")
		return nil
	}
	return service.(*services.AnalysisService)
}

func getMailService(c *gin.Context) *services.MailService {
	mail, exists := c.Get("mail_service")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Mail service not found.")
		return nil
	}
	return mail.(*services.MailService)
}
