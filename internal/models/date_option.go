package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxDateOptionsPerEvent caps how many candidate dates an event may collect.
const MaxDateOptionsPerEvent = 10

type DateResponseType string

const (
	DateResponseYes   DateResponseType = "yes"
	DateResponseNo    DateResponseType = "no"
	DateResponseMaybe DateResponseType = "maybe"
)

type DateOption struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EventID uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`

	Date      time.Time `gorm:"not null" json:"date"`
	StartTime string    `json:"start_time"` // HH:mm
	EndTime   string    `json:"end_time"`   // HH:mm, requires StartTime

	Responses []DateResponse `gorm:"constraint:OnDelete:CASCADE" json:"responses,omitempty"`
}

func (option *DateOption) BeforeCreate(tx *gorm.DB) (err error) {
	if option.ID == uuid.Nil {
		option.ID = uuid.New()
	}
	return
}

// DateResponse records one member's availability for one date option.
// At most one response per (option, user); at most one IsPriority=true
// response per (user, event).
type DateResponse struct {
	DateOptionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"date_option_id"`
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`

	Response     DateResponseType `gorm:"not null" json:"response"`
	IsPriority   bool             `gorm:"default:false" json:"is_priority"`
	Contribution float64          `gorm:"default:0" json:"contribution"`
	Note         string           `json:"note"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"user"`
}
