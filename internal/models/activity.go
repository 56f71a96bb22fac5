package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityCategory string

const (
	CategoryAction   ActivityCategory = "action"
	CategoryFood     ActivityCategory = "food"
	CategoryRelax    ActivityCategory = "relax"
	CategoryParty    ActivityCategory = "party"
	CategoryCulture  ActivityCategory = "culture"
	CategoryOutdoor  ActivityCategory = "outdoor"
	CategoryCreative ActivityCategory = "creative"
)

// Categories lists every catalog category in a fixed order.
var Categories = []ActivityCategory{
	CategoryAction,
	CategoryFood,
	CategoryRelax,
	CategoryParty,
	CategoryCulture,
	CategoryOutdoor,
	CategoryCreative,
}

type Season string

const (
	SeasonAllYear Season = "all_year"
	SeasonSpring  Season = "spring"
	SeasonSummer  Season = "summer"
	SeasonAutumn  Season = "autumn"
	SeasonWinter  Season = "winter"
)

// Activity is a catalog entry. The catalog is immutable as far as the
// aggregation logic is concerned; only TotalUpvotes changes at runtime.
//
// ListingID is a short numeric tag distinct from the primary key. The
// recommendation engine references activities by it so the model never has
// to echo long opaque identifiers back.
type Activity struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	ListingID int              `gorm:"uniqueIndex;not null" json:"listing_id"`
	Slug      string           `gorm:"uniqueIndex;not null" json:"slug"`
	Title     string           `gorm:"not null" json:"title"`
	Category  ActivityCategory `gorm:"not null;index" json:"category"`

	Region  string `json:"region"`
	City    string `json:"city"`
	Address string `json:"address"`

	EstPricePerPerson float64 `json:"est_price_per_person"`
	ShortDescription  string  `gorm:"not null" json:"short_description"`
	LongDescription   string  `gorm:"type:text" json:"long_description"`
	ImageURL          string  `json:"image_url"`

	Season             Season  `json:"season"`
	WeatherDependent   bool    `gorm:"default:false" json:"weather_dependent"`
	TypicalDurationHrs float64 `json:"typical_duration_hours"`
	GroupSizeMin       int     `json:"group_size_min"`
	GroupSizeMax       int     `json:"group_size_max"`

	// 1-5 ratings.
	PhysicalIntensity      int `json:"physical_intensity"`
	MentalChallenge        int `json:"mental_challenge"`
	SocialInteractionLevel int `json:"social_interaction_level"`

	Provider     string `json:"provider"`
	Website      string `json:"website"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	PrimaryGoal  string `json:"primary_goal"`

	TotalUpvotes int `gorm:"default:0" json:"total_upvotes"`

	CreatedAt time.Time `json:"created_at"`

	// Filled by queries, not stored.
	FavoritesCount       int `gorm:"-" json:"favorites_count,omitempty"`
	FavoritesInRoomCount int `gorm:"-" json:"favorites_in_room_count,omitempty"`
}

func (activity *Activity) BeforeCreate(tx *gorm.DB) (err error) {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	return
}

type ActivityComment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;index" json:"activity_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"user"`
}

func (comment *ActivityComment) BeforeCreate(tx *gorm.DB) (err error) {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	return
}
