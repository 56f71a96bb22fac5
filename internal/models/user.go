package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PreferenceDefault is the midpoint of the 1-5 preference scale. Stored
// values equal to it carry no signal and are skipped during aggregation.
const PreferenceDefault = 3

type PreferenceProfile struct {
	Budget            int `json:"budget"`
	TravelWillingness int `json:"travel_willingness"`
	PhysicalEnergy    int `json:"physical_energy"`
	SocialEnergy      int `json:"social_energy"`
	Adventurousness   int `json:"adventurousness"`
}

func DefaultPreferences() PreferenceProfile {
	return PreferenceProfile{
		Budget:            PreferenceDefault,
		TravelWillingness: PreferenceDefault,
		PhysicalEnergy:    PreferenceDefault,
		SocialEnergy:      PreferenceDefault,
		Adventurousness:   PreferenceDefault,
	}
}

type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Email      string     `gorm:"unique;not null" json:"email"`
	Password   string     `gorm:"not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	AvatarURL  string     `json:"avatar_url"`
	Department string     `json:"department"`
	Birthday   *time.Time `json:"birthday"`

	Preferences datatypes.JSONType[PreferenceProfile] `json:"preferences"`
	Hobbies     datatypes.JSONSlice[string]           `json:"hobbies"`

	FavoriteActivities []Activity `gorm:"many2many:user_favorites;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}
