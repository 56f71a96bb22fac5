package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventPhase string

const (
	PhaseProposal   EventPhase = "proposal"
	PhaseVoting     EventPhase = "voting"
	PhaseScheduling EventPhase = "scheduling"
	PhaseInfo       EventPhase = "info"
)

type BudgetType string

const (
	BudgetTotal     BudgetType = "total"
	BudgetPerPerson BudgetType = "per_person"
)

type Event struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RoomID uuid.UUID `gorm:"type:uuid;not null;index" json:"room_id"`
	Room   Room      `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Name        string     `gorm:"not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Phase       EventPhase `gorm:"default:proposal" json:"phase"`
	ShortCode   string     `gorm:"uniqueIndex;size:11;not null" json:"short_code"`
	AvatarURL   string     `json:"avatar_url"`

	VotingDeadline      *time.Time  `json:"voting_deadline"`
	BudgetType          *BudgetType `json:"budget_type"`
	BudgetAmount        *float64    `json:"budget_amount"`
	ParticipantEstimate *int        `json:"participant_count_estimate"`
	Region              string      `json:"location_region"`

	ProposedActivityIDs datatypes.JSONSlice[uuid.UUID] `json:"proposed_activity_ids"`
	ExcludedActivityIDs datatypes.JSONSlice[uuid.UUID] `json:"excluded_activity_ids"`
	ChosenActivityID    *uuid.UUID                     `gorm:"type:uuid" json:"chosen_activity_id"`
	FinalDateOptionID   *uuid.UUID                     `gorm:"type:uuid" json:"final_date_option_id"`

	CreatedByUserID uuid.UUID `gorm:"type:uuid;not null" json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Participants []EventParticipant `gorm:"constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Votes        []Vote             `gorm:"constraint:OnDelete:CASCADE" json:"votes,omitempty"`
	DateOptions  []DateOption       `gorm:"constraint:OnDelete:CASCADE" json:"date_options,omitempty"`
	Comments     []EventComment     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

// IsProposed reports whether the activity is currently on the proposal list.
func (event *Event) IsProposed(activityID uuid.UUID) bool {
	for _, id := range event.ProposedActivityIDs {
		if id == activityID {
			return true
		}
	}
	return false
}

// IsExcluded reports whether the activity has been excluded by the creator.
func (event *Event) IsExcluded(activityID uuid.UUID) bool {
	for _, id := range event.ExcludedActivityIDs {
		if id == activityID {
			return true
		}
	}
	return false
}

type EventParticipant struct {
	EventID uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`

	IsOrganizer bool `gorm:"default:false" json:"is_organizer"`
	HasVoted    bool `gorm:"default:false" json:"has_voted"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"user"`
}

type EventComment struct {
	ID      uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	EventID uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	UserID  uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	Content string     `gorm:"type:text;not null" json:"content"`
	Phase   EventPhase `json:"phase"`

	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"user"`
}

func (comment *EventComment) BeforeCreate(tx *gorm.DB) (err error) {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	return
}
