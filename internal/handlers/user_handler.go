package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/eventhorizon-app/backend/internal/helpers"
	"github.com/eventhorizon-app/backend/internal/models"
)

type UpdateProfileRequest struct {
	Name        string                    `json:"name"`
	AvatarURL   *string                   `json:"avatar_url"`
	Department  *string                   `json:"department"`
	Birthday    *time.Time                `json:"birthday"`
	Preferences *models.PreferenceProfile `json:"preferences"`
	Hobbies     *[]string                 `json:"hobbies"`
}

func GetMe(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := gormDB.Preload("FavoriteActivities").Where("id = ?", userID).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	favoriteIDs := make([]string, 0, len(user.FavoriteActivities))
	for _, activity := range user.FavoriteActivities {
		favoriteIDs = append(favoriteIDs, activity.ID.String())
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                    user.ID,
		"email":                 user.Email,
		"name":                  user.Name,
		"avatar_url":            user.AvatarURL,
		"department":            user.Department,
		"birthday":              user.Birthday,
		"preferences":           user.Preferences.Data(),
		"hobbies":               user.Hobbies,
		"favorite_activity_ids": favoriteIDs,
		"created_at":            user.CreatedAt,
	})
}

func UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := gormDB.Where("id = ?", userID).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.Birthday != nil {
		user.Birthday = req.Birthday
	}
	if req.Preferences != nil {
		for _, value := range []int{
			req.Preferences.Budget, req.Preferences.TravelWillingness,
			req.Preferences.PhysicalEnergy, req.Preferences.SocialEnergy,
			req.Preferences.Adventurousness,
		} {
			if value < 1 || value > 5 {
				helpers.RespondWithError(c, http.StatusBadRequest, "Preference values must be between 1 and 5.")
				return
			}
		}
		user.Preferences = datatypes.NewJSONType(*req.Preferences)
	}
	if req.Hobbies != nil {
		user.Hobbies = datatypes.NewJSONSlice(*req.Hobbies)
	}

	if err := gormDB.Save(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully."})
}
