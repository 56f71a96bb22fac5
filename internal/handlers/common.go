package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventhorizon-app/backend/internal/helpers"
	"github.com/eventhorizon-app/backend/internal/models"
)

// requestContext pulls the database handle and authenticated user out of
// the gin context. It writes the error response itself, so callers just
// bail out on ok == false.
func requestContext(c *gin.Context) (*gorm.DB, uuid.UUID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return nil, uuid.Nil, false
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return nil, uuid.Nil, false
	}
	return db.(*gorm.DB), userID.(uuid.UUID), true
}

// databaseOnly is requestContext for public endpoints without a token.
func databaseOnly(c *gin.Context) (*gorm.DB, bool) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return nil, false
	}
	return db.(*gorm.DB), true
}

// isRoomMember reports whether the user belongs to the room.
func isRoomMember(db *gorm.DB, roomID, userID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

// ensureRoomMembership adds the user to the room if they are not in it yet.
// Insert-or-ignore on the composite key makes this safe under concurrent
// duplicates. Returns whether a new membership row was created.
func ensureRoomMembership(db *gorm.DB, roomID, userID uuid.UUID, role models.RoomRole) (bool, error) {
	member := models.RoomMember{
		RoomID:   roomID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&member)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ensureEventParticipant registers the user on the event if needed, same
// insert-or-ignore semantics as ensureRoomMembership.
func ensureEventParticipant(db *gorm.DB, eventID, userID uuid.UUID, organizer bool) (bool, error) {
	participant := models.EventParticipant{
		EventID:     eventID,
		UserID:      userID,
		IsOrganizer: organizer,
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&participant)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// isEventOrganizer reports whether the user created the event or carries
// the organizer flag on their participant row.
func isEventOrganizer(db *gorm.DB, event *models.Event, userID uuid.UUID) (bool, error) {
	if event.CreatedByUserID == userID {
		return true, nil
	}
	var count int64
	err := db.Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ? AND is_organizer = ?", event.ID, userID, true).
		Count(&count).Error
	return count > 0, err
}

// findEventByIdentifier resolves an event by uuid or by short code.
func findEventByIdentifier(db *gorm.DB, identifier string) (*models.Event, error) {
	var event models.Event
	query := db
	if id, err := uuid.Parse(identifier); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("short_code = ?", identifier)
	}
	if err := query.First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// findRoomByIdentifier resolves a room by uuid or by invite code.
func findRoomByIdentifier(db *gorm.DB, identifier string) (*models.Room, error) {
	var room models.Room
	query := db
	if id, err := uuid.Parse(identifier); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("invite_code = ?", identifier)
	}
	if err := query.First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}
