package models

import (
	"time"

	"github.com/google/uuid"
)

type VoteType string

const (
	VoteFor     VoteType = "for"
	VoteAgainst VoteType = "against"
	VoteAbstain VoteType = "abstain"
)

// Vote is one member's stance on one proposed activity within one event.
// The composite key gives upsert semantics: at most one row per
// (event, activity, user).
type Vote struct {
	EventID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	ActivityID uuid.UUID `gorm:"type:uuid;primaryKey" json:"activity_id"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`

	Vote    VoteType  `gorm:"not null" json:"vote"`
	VotedAt time.Time `json:"voted_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"user"`
}
