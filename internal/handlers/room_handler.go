package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventhorizon-app/backend/internal/helpers"
	"github.com/eventhorizon-app/backend/internal/models"
)

type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
}

type UpdateRoomRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	AvatarURL   *string `json:"avatar_url"`
}

type JoinRoomRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

// uniqueInviteCode retries generation a few times before giving up. With a
// 32-character alphabet collisions are cosmic-ray territory, but the unique
// index makes a retry loop the honest way to handle them.
func uniqueInviteCode(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code := helpers.GenerateCode()
		var count int64
		if err := db.Model(&models.Room{}).Where("invite_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", gorm.ErrDuplicatedKey
}

func ListRooms(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	var rooms []models.Room
	err := gormDB.
		Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.user_id = ?", userID).
		Order("rooms.created_at DESC").
		Find(&rooms).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving rooms.")
		return
	}

	for i := range rooms {
		var memberCount int64
		gormDB.Model(&models.RoomMember{}).Where("room_id = ?", rooms[i].ID).Count(&memberCount)
		rooms[i].MemberCount = int(memberCount)
	}

	c.JSON(http.StatusOK, rooms)
}

func CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	inviteCode, err := uniqueInviteCode(gormDB)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate invite code.")
		return
	}

	room := models.Room{
		ID:              uuid.New(),
		Name:            req.Name,
		Description:     req.Description,
		AvatarURL:       req.AvatarURL,
		InviteCode:      inviteCode,
		CreatedByUserID: userID,
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		member := models.RoomMember{
			RoomID:   room.ID,
			UserID:   userID,
			Role:     models.RoomRoleAdmin,
			JoinedAt: time.Now().UTC(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create room.")
		return
	}

	room.MemberCount = 1
	c.JSON(http.StatusCreated, room)
}

func GetRoom(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	room, err := findRoomByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Room not found.")
		return
	}

	// Non-members get the same answer as a missing room.
	member, err := isRoomMember(gormDB, room.ID, userID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving room.")
		return
	}
	if !member {
		helpers.RespondWithError(c, http.StatusNotFound, "Room not found.")
		return
	}

	var memberCount int64
	gormDB.Model(&models.RoomMember{}).Where("room_id = ?", room.ID).Count(&memberCount)
	room.MemberCount = int(memberCount)

	c.JSON(http.StatusOK, room)
}

func UpdateRoom(c *gin.Context) {
	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	room, err := findRoomByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Room not found.")
		return
	}
	if room.CreatedByUserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "Only the room creator can update it.")
		return
	}

	if req.Name != "" {
		room.Name = req.Name
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.AvatarURL != nil {
		room.AvatarURL = *req.AvatarURL
	}

	if err := gormDB.Save(room).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update room.")
		return
	}

	c.JSON(http.StatusOK, room)
}

func DeleteRoom(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	room, err := findRoomByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Room not found.")
		return
	}
	if room.CreatedByUserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "Only the room creator can delete it.")
		return
	}

	if err := gormDB.Select("Members", "Events").Delete(room).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete room.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully."})
}

func JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	var room models.Room
	if err := gormDB.Where("invite_code = ?", req.InviteCode).First(&room).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Room not found.")
		return
	}

	added, err := ensureRoomMembership(gormDB, room.ID, userID, models.RoomRoleMember)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to join room.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Joined room successfully.",
		"room":    room,
		"joined":  added,
	})
}

func LeaveRoom(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	roomID, err := helpers.ParseUUID(c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid room ID.")
		return
	}

	var room models.Room
	if err := gormDB.Where("id = ?", roomID).First(&room).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Room not found.")
		return
	}
	if room.CreatedByUserID == userID {
		helpers.RespondWithError(c, http.StatusBadRequest, "The room creator cannot leave. Delete the room instead.")
		return
	}

	result := gormDB.Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&models.RoomMember{})
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to leave room.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "You are not a member of this room.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left room successfully."})
}

func ListRoomMembers(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	roomID, err := helpers.ParseUUID(c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid room ID.")
		return
	}

	member, err := isRoomMember(gormDB, roomID, userID)
	if err != nil || !member {
		helpers.RespondWithError(c, http.StatusNotFound, "Room not found.")
		return
	}

	var members []models.RoomMember
	if err := gormDB.Preload("User").Where("room_id = ?", roomID).Order("joined_at").Find(&members).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving members.")
		return
	}

	out := make([]gin.H, 0, len(members))
	for _, m := range members {
		out = append(out, gin.H{
			"user_id":    m.UserID,
			"name":       m.User.Name,
			"email":      m.User.Email,
			"avatar_url": m.User.AvatarURL,
			"department": m.User.Department,
			"role":       m.Role,
			"joined_at":  m.JoinedAt,
		})
	}

	c.JSON(http.StatusOK, out)
}
