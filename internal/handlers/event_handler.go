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

type CreateEventRequest struct {
	Name                string             `json:"name" binding:"required"`
	Description         string             `json:"description"`
	AvatarURL           string             `json:"avatar_url"`
	VotingDeadline      *time.Time         `json:"voting_deadline"`
	BudgetType          *models.BudgetType `json:"budget_type"`
	BudgetAmount        *float64           `json:"budget_amount"`
	ParticipantEstimate *int               `json:"participant_count_estimate"`
	Region              string             `json:"location_region"`
}

type UpdateEventRequest struct {
	Name                string             `json:"name"`
	Description         *string            `json:"description"`
	AvatarURL           *string            `json:"avatar_url"`
	VotingDeadline      *time.Time         `json:"voting_deadline"`
	BudgetType          *models.BudgetType `json:"budget_type"`
	BudgetAmount        *float64           `json:"budget_amount"`
	ParticipantEstimate *int               `json:"participant_count_estimate"`
	Region              *string            `json:"location_region"`
}

func ListRoomEvents(c *gin.Context) {
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

	var events []models.Event
	if err := gormDB.Where("room_id = ?", roomID).Order("created_at DESC").Find(&events).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, events)
}

func CreateRoomEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

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

	event := models.Event{
		ID:                  uuid.New(),
		RoomID:              roomID,
		Name:                req.Name,
		Description:         req.Description,
		Phase:               models.PhaseProposal,
		ShortCode:           helpers.GenerateCode(),
		AvatarURL:           req.AvatarURL,
		VotingDeadline:      req.VotingDeadline,
		BudgetType:          req.BudgetType,
		BudgetAmount:        req.BudgetAmount,
		ParticipantEstimate: req.ParticipantEstimate,
		Region:              req.Region,
		CreatedByUserID:     userID,
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		// Everyone already in the room starts as a participant.
		var members []models.RoomMember
		if err := tx.Where("room_id = ?", roomID).Find(&members).Error; err != nil {
			return err
		}
		for _, m := range members {
			participant := models.EventParticipant{
				EventID:     event.ID,
				UserID:      m.UserID,
				IsOrganizer: m.UserID == userID,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	c.JSON(http.StatusCreated, event)
}

func GetEvent(c *gin.Context) {
	gormDB, userID, ok := requestContext(c)
	if !ok {
		return
	}

	event, err := findEventByIdentifier(gormDB, c.Param("identifier"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	// Opening an event via short link enrolls the caller in both the room
	// and the event. Both inserts are no-ops for existing members.
	if _, err := ensureRoomMembership(gormDB, event.RoomID, userID, models.RoomRoleMember); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}
	if _, err := ensureEventParticipant(gormDB, event.ID, userID, false); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	if err := gormDB.
		Preload("Participants.User").
		Preload("Votes").
		Preload("DateOptions.Responses").
		Where("id = ?", event.ID).
		First(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func UpdateEvent(c *gin.Context) {
	var req UpdateEventRequest
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
	if event.CreatedByUserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "Only the event creator can update it.")
		return
	}

	if req.Name != "" {
		event.Name = req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.AvatarURL != nil {
		event.AvatarURL = *req.AvatarURL
	}
	if req.VotingDeadline != nil {
		event.VotingDeadline = req.VotingDeadline
	}
	if req.BudgetType != nil {
		event.BudgetType = req.BudgetType
	}
	if req.BudgetAmount != nil {
		event.BudgetAmount = req.BudgetAmount
	}
	if req.ParticipantEstimate != nil {
		event.ParticipantEstimate = req.ParticipantEstimate
	}
	if req.Region != nil {
		event.Region = *req.Region
	}

	if err := gormDB.Save(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func DeleteEvent(c *gin.Context) {
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
		helpers.RespondWithError(c, http.StatusForbidden, "Only the event creator can delete it.")
		return
	}

	if err := gormDB.Select("Participants", "Votes", "DateOptions", "Comments").Delete(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully."})
}

type UpdatePhaseRequest struct {
	Phase models.EventPhase `json:"phase" binding:"required"`
}

func UpdateEventPhase(c *gin.Context) {
	var req UpdatePhaseRequest
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
		helpers.RespondWithError(c, http.StatusForbidden, "Only an organizer can change the event phase.")
		return
	}

	if !lifecycle.ValidPhase(req.Phase) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Unknown event phase.")
		return
	}
	if !lifecycle.CanTransition(event.Phase, req.Phase) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Events can only move forward through their phases.")
		return
	}

	event.Phase = req.Phase
	if err := gormDB.Save(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update phase.")
		return
	}

	c.JSON(http.StatusOK, event)
}

type ProposeActivityRequest struct {
	ActivityID uuid.UUID `json:"activity_id" binding:"required"`
}

func ProposeActivity(c *gin.Context) {
	var req ProposeActivityRequest
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
	if event.CreatedByUserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "Only the event creator can propose activities.")
		return
	}
	if err := lifecycle.Check(event.Phase, lifecycle.OpProposeActivity); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	var activity models.Activity
	if err := gormDB.Where("id = ?", req.ActivityID).First(&activity).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Activity not found.")
		return
	}

	if event.IsProposed(req.ActivityID) {
		c.JSON(http.StatusOK, event)
		return
	}

	event.ProposedActivityIDs = append(event.ProposedActivityIDs, req.ActivityID)
	if err := gormDB.Save(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to propose activity.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func RemoveProposedActivity(c *gin.Context) {
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
		helpers.RespondWithError(c, http.StatusForbidden, "Only the event creator can remove proposals.")
		return
	}
	if err := lifecycle.Check(event.Phase, lifecycle.OpRemoveProposal); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	activityID, err := helpers.ParseUUID(c.Param("activityID"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid activity ID.")
		return
	}
	if !event.IsProposed(activityID) {
		helpers.RespondWithError(c, http.StatusNotFound, "Activity is not proposed for this event.")
		return
	}

	remaining := event.ProposedActivityIDs[:0]
	for _, id := range event.ProposedActivityIDs {
		if id != activityID {
			remaining = append(remaining, id)
		}
	}
	event.ProposedActivityIDs = remaining

	// Votes for a withdrawn proposal are meaningless, drop them with it.
	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(event).Error; err != nil {
			return err
		}
		return tx.Where("event_id = ? AND activity_id = ?", event.ID, activityID).
			Delete(&models.Vote{}).Error
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to remove proposal.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func setActivityExclusion(c *gin.Context, exclude bool) {
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
		helpers.RespondWithError(c, http.StatusForbidden, "Only the event creator can manage exclusions.")
		return
	}

	op := lifecycle.OpExcludeActivity
	if !exclude {
		op = lifecycle.OpIncludeActivity
	}
	if err := lifecycle.Check(event.Phase, op); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	activityID, err := helpers.ParseUUID(c.Param("activityID"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid activity ID.")
		return
	}

	// Both directions are idempotent: repeating the call changes nothing.
	if exclude && !event.IsExcluded(activityID) {
		event.ExcludedActivityIDs = append(event.ExcludedActivityIDs, activityID)
	}
	if !exclude && event.IsExcluded(activityID) {
		remaining := event.ExcludedActivityIDs[:0]
		for _, id := range event.ExcludedActivityIDs {
			if id != activityID {
				remaining = append(remaining, id)
			}
		}
		event.ExcludedActivityIDs = remaining
	}

	if err := gormDB.Save(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update exclusions.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func ExcludeActivity(c *gin.Context) {
	setActivityExclusion(c, true)
}

func IncludeActivity(c *gin.Context) {
	setActivityExclusion(c, false)
}

type CastVoteRequest struct {
	ActivityID uuid.UUID       `json:"activity_id" binding:"required"`
	Vote       models.VoteType `json:"vote" binding:"required"`
}

func CastVote(c *gin.Context) {
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.Vote != models.VoteFor && req.Vote != models.VoteAgainst && req.Vote != models.VoteAbstain {
		helpers.RespondWithError(c, http.StatusBadRequest, "Vote must be for, against or abstain.")
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
	if err := lifecycle.Check(event.Phase, lifecycle.OpVote); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !event.IsProposed(req.ActivityID) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Activity is not proposed for this event.")
		return
	}
	if event.IsExcluded(req.ActivityID) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Activity has been excluded from this event.")
		return
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		// Voting on an event you were shared into makes you a member.
		if _, err := ensureRoomMembership(tx, event.RoomID, userID, models.RoomRoleMember); err != nil {
			return err
		}
		if _, err := ensureEventParticipant(tx, event.ID, userID, false); err != nil {
			return err
		}

		var previous models.Vote
		hadPrevious := tx.Where("event_id = ? AND activity_id = ? AND user_id = ?",
			event.ID, req.ActivityID, userID).First(&previous).Error == nil

		vote := models.Vote{
			EventID:    event.ID,
			ActivityID: req.ActivityID,
			UserID:     userID,
			Vote:       req.Vote,
			VotedAt:    time.Now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "activity_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote", "voted_at"}),
		}).Create(&vote).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.EventParticipant{}).
			Where("event_id = ? AND user_id = ?", event.ID, userID).
			Update("has_voted", true).Error; err != nil {
			return err
		}

		// The global upvote counter tracks distinct users, not votes: a user
		// already backing this activity in another event contributes nothing
		// here, and withdrawing one of several "for" votes removes nothing.
		var forElsewhere int64
		if err := tx.Model(&models.Vote{}).
			Where("activity_id = ? AND user_id = ? AND vote = ? AND event_id != ?",
				req.ActivityID, userID, models.VoteFor, event.ID).
			Count(&forElsewhere).Error; err != nil {
			return err
		}

		becameFor := req.Vote == models.VoteFor && (!hadPrevious || previous.Vote != models.VoteFor)
		leftFor := hadPrevious && previous.Vote == models.VoteFor && req.Vote != models.VoteFor

		if forElsewhere == 0 {
			if becameFor {
				return tx.Model(&models.Activity{}).Where("id = ?", req.ActivityID).
					Update("total_upvotes", gorm.Expr("total_upvotes + 1")).Error
			}
			if leftFor {
				return tx.Model(&models.Activity{}).Where("id = ?", req.ActivityID).
					Update("total_upvotes", gorm.Expr("total_upvotes - 1")).Error
			}
		}
		return nil
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to record vote.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded successfully."})
}

type SelectActivityRequest struct {
	ActivityID uuid.UUID `json:"activity_id" binding:"required"`
}

func SelectActivity(c *gin.Context) {
	var req SelectActivityRequest
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
		helpers.RespondWithError(c, http.StatusForbidden, "Only an organizer can select the activity.")
		return
	}
	if event.Phase == models.PhaseInfo {
		helpers.RespondWithError(c, http.StatusBadRequest, "The event is already finalized.")
		return
	}
	if !event.IsProposed(req.ActivityID) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Activity is not proposed for this event.")
		return
	}
	if event.IsExcluded(req.ActivityID) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Activity has been excluded from this event.")
		return
	}

	event.ChosenActivityID = &req.ActivityID
	if lifecycle.CanTransition(event.Phase, models.PhaseScheduling) {
		event.Phase = models.PhaseScheduling
	}

	if err := gormDB.Save(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to select activity.")
		return
	}

	c.JSON(http.StatusOK, event)
}
