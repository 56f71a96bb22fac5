package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomRole string

const (
	RoomRoleAdmin  RoomRole = "admin"
	RoomRoleMember RoomRole = "member"
)

type Room struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	AvatarURL   string    `json:"avatar_url"`
	InviteCode  string    `gorm:"uniqueIndex;size:11;not null" json:"invite_code"`

	CreatedByUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by_user_id"`
	Creator         User      `gorm:"foreignKey:CreatedByUserID" json:"-"`

	Members []RoomMember `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Events  []Event      `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`

	// Filled by queries, not stored.
	MemberCount int `gorm:"-" json:"member_count,omitempty"`
}

func (room *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	return
}

type RoomMember struct {
	RoomID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"room_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role     RoomRole  `gorm:"default:member" json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
