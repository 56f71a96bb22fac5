package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventhorizon-app/backend/internal/helpers"
	"github.com/eventhorizon-app/backend/internal/lifecycle"
	"github.com/eventhorizon-app/backend/internal/models"
)

type CreateDateOptionRequest struct {
	Date      time.Time `json:"date" binding:"required"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

type DateResponseRequest struct {
	Response     models.DateResponseType `json:"response" binding:"required"`
	IsPriority   bool                    `json:"is_priority"`
	Contribution float64                 `json:"contribution"`
	Note         string                  `json:"note"`
}

func CreateDateOption(c *gin.Context) {
	var req CreateDateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	member, err := isRoomMember(gormDB, event.RoomID, userID)
	if err != nil || !member {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	if err := lifecycle.Check(event.Phase, lifecycle.OpCreateDate); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.EndTime != "" && req.StartTime == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "An end time requires a start time.")
		return
	}
	startTime, endTime := "", ""
	if req.StartTime != "" {
		if startTime, err = helpers.ParseClockTime(req.StartTime); err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.EndTime != "" {
		if endTime, err = helpers.ParseClockTime(req.EndTime); err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	var count int64
	if err := gormDB.Model(&models.DateOption{}).Where("event_id = ?", event.ID).Count(&count).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error counting date options.")
		return
	}
	if count >= models.MaxDateOptionsPerEvent {
		helpers.RespondWithError(c, http.StatusBadRequest, "An event cannot have more than 10 date options.")
		return
	}

	option := models.DateOption{
		ID:        uuid.New(),
		EventID:   event.ID,
		Date:      req.Date,
		StartTime: startTime,
		EndTime:   endTime,
	}
	if err := gormDB.Create(&option).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create date option.")
		return
	}

	c.JSON(http.StatusCreated, option)
}

func DeleteDateOption(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}
	if event.CreatedByUserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "Only the event creator can delete date options.")
		return
	}
	if err := lifecycle.Check(event.Phase, lifecycle.OpDeleteDate); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	optionID, err := helpers.ParseUUID(c.Param("optionID"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid date option ID.")
		return
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date_option_id = ?", optionID).Delete(&models.DateResponse{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND event_id = ?", optionID, event.ID).Delete(&models.DateOption{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err == gorm.ErrRecordNotFound {
		helpers.RespondWithError(c, http.StatusNotFound, "Date option not found.")
		return
	}
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete date option.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Date option deleted successfully."})
}

func RespondToDateOption(c *gin.Context) {
	var req DateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.Response != models.DateResponseYes && req.Response != models.DateResponseNo && req.Response != models.DateResponseMaybe {
		helpers.RespondWithError(c, http.StatusBadRequest, "Response must be yes, no or maybe.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}
	if err := lifecycle.Check(event.Phase, lifecycle.OpRespondToDate); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	optionID, err := helpers.ParseUUID(c.Param("optionID"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid date option ID.")
		return
	}
	var option models.DateOption
	if err := gormDB.Where("id = ? AND event_id = ?", optionID, event.ID).First(&option).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Date option not found.")
		return
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if _, err := ensureRoomMembership(tx, event.RoomID, userID, models.RoomRoleMember); err != nil {
			return err
		}
		if _, err := ensureEventParticipant(tx, event.ID, userID, false); err != nil {
			return err
		}

		// A user holds at most one priority date per event, so claiming
		// priority here releases it everywhere else first.
		if req.IsPriority {
			if err := tx.Model(&models.DateResponse{}).
				Where("user_id = ? AND date_option_id IN (?)",
					userID,
					tx.Model(&models.DateOption{}).Select("id").Where("event_id = ?", event.ID)).
				Update("is_priority", false).Error; err != nil {
				return err
			}
		}

		response := models.DateResponse{
			DateOptionID: optionID,
			UserID:       userID,
			Response:     req.Response,
			IsPriority:   req.IsPriority,
			Contribution: req.Contribution,
			Note:         req.Note,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date_option_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"response", "is_priority", "contribution", "note"}),
		}).Create(&response).Error
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to record response.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Response recorded successfully."})
}

type FinalizeDateRequest struct {
	DateOptionID uuid.UUID `json:"date_option_id" binding:"required"`
}

func FinalizeDate(c *gin.Context) {
	var req FinalizeDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	organizer, err := isEventOrganizer(gormDB, event, userID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error checking permissions.")
		return
	}
	if !organizer {
		helpers.RespondWithError(c, http.StatusForbidden, "Only an organizer can finalize the date.")
		return
	}
	if event.Phase == models.PhaseInfo {
		helpers.RespondWithError(c, http.StatusBadRequest, "The event is already finalized.")
		return
	}

	var option models.DateOption
	if err := gormDB.Where("id = ? AND event_id = ?", req.DateOptionID, event.ID).First(&option).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Date option not found.")
		return
	}

	event.FinalDateOptionID = &req.DateOptionID
	if lifecycle.CanTransition(event.Phase, models.PhaseInfo) {
		event.Phase = models.PhaseInfo
	}

	if err := gormDB.Save(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to finalize date.")
		return
	}

	c.JSON(http.StatusOK, event)
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func ListEventComments(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	member, err := isRoomMember(gormDB, event.RoomID, userID)
	if err != nil || !member {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	query := gormDB.Preload("User").Where("event_id = ?", event.ID)
	if phase := c.Query("phase"); phase != "" {
		query = query.Where("phase = ?", phase)
	}

	var comments []models.EventComment
	if err := query.Order("created_at").Find(&comments).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving comments.")
		return
	}

	c.JSON(http.StatusOK, comments)
}

func CreateEventComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Comment content is required.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	member, err := isRoomMember(gormDB, event.RoomID, userID)
	if err != nil || !member {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	comment := models.EventComment{
		ID:      uuid.New(),
		EventID: event.ID,
		UserID:  userID,
		Content: req.Content,
		Phase:   event.Phase,
	}
	if err := gormDB.Create(&comment).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create comment.")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func DeleteEventComment(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	commentID, err := helpers.ParseUUID(c.Param("commentID"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid comment ID.")
		return
	}

	result := gormDB.Where("id = ? AND user_id = ?", commentID, userID).Delete(&models.EventComment{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete comment.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusForbidden, "You can only delete your own comments.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully."})
}
