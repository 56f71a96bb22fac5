package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventhorizon-app/backend/internal/helpers"
	"github.com/eventhorizon-app/backend/internal/middleware"
	"github.com/eventhorizon-app/backend/internal/models"
	"github.com/eventhorizon-app/backend/internal/services"
)

func ListActivities(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := helpers.StringToInt(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := helpers.StringToInt(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	query := gormDB.Model(&models.Activity{})
	if q := c.Query("q"); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(title) LIKE ? OR lower(short_description) LIKE ?", pattern, pattern)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving activities.")
		return
	}

	var activities []models.Activity
	if err := query.Order("listing_id").Limit(limit).Offset(offset).Find(&activities).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving activities.")
		return
	}

	attachFavoriteCounts(gormDB, activities, c.Query("room_id"), userID)

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// attachFavoriteCounts fills the computed favorite counters, globally and,
// when a room is given, restricted to that room's members.
func attachFavoriteCounts(db *gorm.DB, activities []models.Activity, roomID string, userID uuid.UUID) {
	type favoriteCount struct {
		ActivityID uuid.UUID
		Count      int
	}

	var global []favoriteCount
	db.Table("user_favorites").
		Select("activity_id, count(*) as count").
		Group("activity_id").
		Scan(&global)
	globalByID := map[uuid.UUID]int{}
	for _, row := range global {
		globalByID[row.ActivityID] = row.Count
	}

	roomByID := map[uuid.UUID]int{}
	if roomID != "" {
		if id, err := uuid.Parse(roomID); err == nil {
			if member, err := isRoomMember(db, id, userID); err == nil && member {
				var inRoom []favoriteCount
				db.Table("user_favorites").
					Select("user_favorites.activity_id, count(*) as count").
					Joins("JOIN room_members ON room_members.user_id = user_favorites.user_id").
					Where("room_members.room_id = ?", id).
					Group("user_favorites.activity_id").
					Scan(&inRoom)
				for _, row := range inRoom {
					roomByID[row.ActivityID] = row.Count
				}
			}
		}
	}

	for i := range activities {
		activities[i].FavoritesCount = globalByID[activities[i].ID]
		activities[i].FavoritesInRoomCount = roomByID[activities[i].ID]
	}
}

func GetActivity(c *gin.Context) {
	gormDB, _, ok := requestContext(c)
	if !ok {
		return
	}

	identifier := c.Param("identifier")
	var activity models.Activity
	query := gormDB
	if id, err := uuid.Parse(identifier); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", identifier)
	}
	if err := query.First(&activity).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Activity not found.")
		return
	}

	var count int64
	gormDB.Table("user_favorites").Where("activity_id = ?", activity.ID).Count(&count)
	activity.FavoritesCount = int(count)

	c.JSON(http.StatusOK, activity)
}

func FavoriteStatus(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	activityID, err := helpers.ParseUUID(c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid activity ID.")
		return
	}

	var count int64
	if err := gormDB.Table("user_favorites").
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		Count(&count).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error checking favorite.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorited": count > 0})
}

func ToggleFavorite(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	activityID, err := helpers.ParseUUID(c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid activity ID.")
		return
	}

	var activity models.Activity
	if err := gormDB.Where("id = ?", activityID).First(&activity).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Activity not found.")
		return
	}

	user := models.User{ID: userID}
	var count int64
	gormDB.Table("user_favorites").Where("user_id = ? AND activity_id = ?", userID, activityID).Count(&count)

	if count > 0 {
		if err := gormDB.Model(&user).Association("FavoriteActivities").Delete(&activity); err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to remove favorite.")
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorited": false})
		return
	}

	if err := gormDB.Model(&user).Association("FavoriteActivities").Append(&activity); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to add favorite.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": true})
}

func ListFavorites(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := gormDB.Preload("FavoriteActivities").Where("id = ?", userID).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	c.JSON(http.StatusOK, user.FavoriteActivities)
}

func ListActivityComments(c *gin.Context) {
	gormDB, _, ok := requestContext(c)
	if !ok {
		return
	}

	activityID, err := helpers.ParseUUID(c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid activity ID.")
		return
	}

	var comments []models.ActivityComment
	if err := gormDB.Preload("User").Where("activity_id = ?", activityID).Order("created_at").Find(&comments).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving comments.")
		return
	}

	c.JSON(http.StatusOK, comments)
}

func CreateActivityComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Comment content is required.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	activityID, err := helpers.ParseUUID(c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid activity ID.")
		return
	}
	var activity models.Activity
	if err := gormDB.Where("id = ?", activityID).First(&activity).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Activity not found.")
		return
	}

	comment := models.ActivityComment{
		ID:         uuid.New(),
		ActivityID: activityID,
		UserID:     userID,
		Content:    req.Content,
	}
	if err := gormDB.Create(&comment).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create comment.")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func DeleteActivityComment(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	commentID, err := helpers.ParseUUID(c.Param("commentID"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid comment ID.")
		return
	}

	result := gormDB.Where("id = ? AND user_id = ?", commentID, userID).Delete(&models.ActivityComment{})
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

type BookingRequestBody struct {
	EventID          *uuid.UUID `json:"event_id"`
	ParticipantCount int        `json:"participant_count" binding:"required,min=1"`
	PreferredDate    string     `json:"preferred_date" binding:"required"`
	Notes            string     `json:"notes"`
}

func SendBookingRequest(c *gin.Context) {
	var req BookingRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	activityID, err := helpers.ParseUUID(c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid activity ID.")
		return
	}
	var activity models.Activity
	if err := gormDB.Where("id = ?", activityID).First(&activity).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Activity not found.")
		return
	}
	if activity.ContactEmail == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "This activity has no booking contact.")
		return
	}

	var user models.User
	if err := gormDB.Where("id = ?", userID).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	eventName := ""
	budget := "not specified"
	if req.EventID != nil {
		var event models.Event
		if err := gormDB.Where("id = ?", req.EventID).First(&event).Error; err == nil {
			eventName = event.Name
			if event.BudgetAmount != nil {
				budget = fmt.Sprintf("%.2f", *event.BudgetAmount)
				if event.BudgetType != nil {
					budget += " " + string(*event.BudgetType)
				}
			}
		}
	}

	mail := middleware.GetMailService(c)
	if mail == nil || !mail.Enabled() {
		helpers.RespondWithError(c, http.StatusServiceUnavailable, "Mail service is not configured.")
		return
	}

	err = mail.SendBookingRequest(services.BookingRequest{
		ProviderEmail:    activity.ContactEmail,
		ProviderName:     activity.Provider,
		ActivityTitle:    activity.Title,
		EventName:        eventName,
		OrganizerName:    user.Name,
		OrganizerEmail:   user.Email,
		ParticipantCount: req.ParticipantCount,
		PreferredDate:    req.PreferredDate,
		Budget:           budget,
		Notes:            req.Notes,
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to send booking request.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking request sent to the provider."})
}
