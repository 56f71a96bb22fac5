package config

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/eventhorizon-app/backend/internal/models"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
	}, nil
}

type AIConfig struct {
	BaseURL string
	APIKey  string
	SiteURL string
	AppName string
	Model   string
}

func LoadAIConfig() (*AIConfig, error) {
	appName := os.Getenv("OPENROUTER_APP_NAME")
	if appName == "" {
		appName = "EventHorizon"
	}
	return &AIConfig{
		BaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		APIKey:  os.Getenv("OPENROUTER_API_KEY"),
		SiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		AppName: appName,
		Model:   os.Getenv("OPENROUTER_MODEL"),
	}, nil
}

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	SiteURL  string
}

func LoadMailConfig() (*MailConfig, error) {
	return &MailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     os.Getenv("SMTP_FROM"),
		FromName: os.Getenv("MAIL_FROM_NAME"),
		SiteURL:  os.Getenv("FRONTEND_URL"),
	}, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	if err := MigrateModels(db); err != nil {
		return nil, err
	}

	seedActivities(db)

	return db, nil
}

// MigrateModels runs AutoMigrate for every model. Exported so tests can set
// up an in-memory database with the same schema.
func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.RoomMember{},
		&models.Activity{},
		&models.ActivityComment{},
		&models.Event{},
		&models.EventParticipant{},
		&models.EventComment{},
		&models.Vote{},
		&models.DateOption{},
		&models.DateResponse{},
	)
}

// seedActivities fills an empty catalog with a starter set, one batch per
// deploy at most. A populated catalog is left alone.
func seedActivities(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.Activity{}).Count(&count).Error; err != nil || count > 0 {
		return
	}

	activities := []models.Activity{
		{ListingID: 1, Slug: "escape-room-downtown", Title: "Escape Room Downtown", Category: models.CategoryAction,
			Region: "city-center", EstPricePerPerson: 35, ShortDescription: "Locked in, sixty minutes, one way out.",
			Season: models.SeasonAllYear, TypicalDurationHrs: 1.5, GroupSizeMin: 4, GroupSizeMax: 12,
			PhysicalIntensity: 2, MentalChallenge: 5, SocialInteractionLevel: 4, PrimaryGoal: "problem solving"},
		{ListingID: 2, Slug: "kart-racing-arena", Title: "Kart Racing Arena", Category: models.CategoryAction,
			Region: "industrial-park", EstPricePerPerson: 45, ShortDescription: "Indoor electric karts with live timing.",
			Season: models.SeasonAllYear, TypicalDurationHrs: 2, GroupSizeMin: 4, GroupSizeMax: 20,
			PhysicalIntensity: 3, MentalChallenge: 2, SocialInteractionLevel: 3, PrimaryGoal: "competition"},
		{ListingID: 3, Slug: "pasta-workshop", Title: "Pasta Workshop", Category: models.CategoryFood,
			Region: "city-center", EstPricePerPerson: 60, ShortDescription: "Roll, fill and eat your own pasta.",
			Season: models.SeasonAllYear, TypicalDurationHrs: 3, GroupSizeMin: 6, GroupSizeMax: 16,
			PhysicalIntensity: 1, MentalChallenge: 2, SocialInteractionLevel: 5, PrimaryGoal: "bonding"},
		{ListingID: 4, Slug: "street-food-tour", Title: "Street Food Tour", Category: models.CategoryFood,
			Region: "old-town", EstPricePerPerson: 40, ShortDescription: "Five stops, five cuisines, one evening.",
			Season: models.SeasonSummer, WeatherDependent: true, TypicalDurationHrs: 3, GroupSizeMin: 4, GroupSizeMax: 15,
			PhysicalIntensity: 2, MentalChallenge: 1, SocialInteractionLevel: 4, PrimaryGoal: "bonding"},
		{ListingID: 5, Slug: "floating-spa-day", Title: "Floating Spa Day", Category: models.CategoryRelax,
			Region: "lakeside", EstPricePerPerson: 55, ShortDescription: "Sauna, pools and absolutely no agenda.",
			Season: models.SeasonAllYear, TypicalDurationHrs: 4, GroupSizeMin: 2, GroupSizeMax: 10,
			PhysicalIntensity: 1, MentalChallenge: 1, SocialInteractionLevel: 2, PrimaryGoal: "recharge"},
		{ListingID: 6, Slug: "lakeside-picnic", Title: "Lakeside Picnic", Category: models.CategoryRelax,
			Region: "lakeside", EstPricePerPerson: 15, ShortDescription: "Blankets, baskets and a view.",
			Season: models.SeasonSummer, WeatherDependent: true, TypicalDurationHrs: 3, GroupSizeMin: 2, GroupSizeMax: 30,
			PhysicalIntensity: 1, MentalChallenge: 1, SocialInteractionLevel: 3, PrimaryGoal: "recharge"},
		{ListingID: 7, Slug: "rooftop-cocktail-night", Title: "Rooftop Cocktail Night", Category: models.CategoryParty,
			Region: "city-center", EstPricePerPerson: 50, ShortDescription: "Mixology class, then the dance floor.",
			Season: models.SeasonAllYear, TypicalDurationHrs: 4, GroupSizeMin: 8, GroupSizeMax: 40,
			PhysicalIntensity: 2, MentalChallenge: 1, SocialInteractionLevel: 5, PrimaryGoal: "celebration"},
		{ListingID: 8, Slug: "karaoke-lounge", Title: "Karaoke Lounge", Category: models.CategoryParty,
			Region: "old-town", EstPricePerPerson: 25, ShortDescription: "Private boxes, questionable singing.",
			Season: models.SeasonAllYear, TypicalDurationHrs: 3, GroupSizeMin: 4, GroupSizeMax: 15,
			PhysicalIntensity: 1, MentalChallenge: 1, SocialInteractionLevel: 5, PrimaryGoal: "celebration"},
		{ListingID: 9, Slug: "city-history-walk", Title: "City History Walk", Category: models.CategoryCulture,
			Region: "old-town", EstPricePerPerson: 20, ShortDescription: "A guide, a map and 700 years of stories.",
			Season: models.SeasonAllYear, TypicalDurationHrs: 2, GroupSizeMin: 5, GroupSizeMax: 25,
			PhysicalIntensity: 2, MentalChallenge: 3, SocialInteractionLevel: 2, PrimaryGoal: "learning"},
		{ListingID: 10, Slug: "museum-late-night", Title: "Museum Late Night", Category: models.CategoryCulture,
			Region: "city-center", EstPricePerPerson: 30, ShortDescription: "After-hours tour with the curator.",
			Season: models.SeasonWinter, TypicalDurationHrs: 2.5, GroupSizeMin: 6, GroupSizeMax: 20,
			PhysicalIntensity: 1, MentalChallenge: 4, SocialInteractionLevel: 2, PrimaryGoal: "learning"},
		{ListingID: 11, Slug: "forest-high-ropes", Title: "Forest High Ropes", Category: models.CategoryOutdoor,
			Region: "hills", EstPricePerPerson: 38, ShortDescription: "Ziplines and rope bridges in the canopy.",
			Season: models.SeasonSummer, WeatherDependent: true, TypicalDurationHrs: 3, GroupSizeMin: 4, GroupSizeMax: 24,
			PhysicalIntensity: 4, MentalChallenge: 3, SocialInteractionLevel: 3, PrimaryGoal: "challenge"},
		{ListingID: 12, Slug: "guided-kayak-tour", Title: "Guided Kayak Tour", Category: models.CategoryOutdoor,
			Region: "lakeside", EstPricePerPerson: 42, ShortDescription: "Paddle the bay, beginners welcome.",
			Season: models.SeasonSummer, WeatherDependent: true, TypicalDurationHrs: 3, GroupSizeMin: 4, GroupSizeMax: 16,
			PhysicalIntensity: 4, MentalChallenge: 2, SocialInteractionLevel: 3, PrimaryGoal: "challenge"},
		{ListingID: 13, Slug: "pottery-studio-session", Title: "Pottery Studio Session", Category: models.CategoryCreative,
			Region: "old-town", EstPricePerPerson: 48, ShortDescription: "Wheels, clay and take-home results.",
			Season: models.SeasonAllYear, TypicalDurationHrs: 2.5, GroupSizeMin: 4, GroupSizeMax: 12,
			PhysicalIntensity: 1, MentalChallenge: 3, SocialInteractionLevel: 3, PrimaryGoal: "creation"},
		{ListingID: 14, Slug: "graffiti-workshop", Title: "Graffiti Workshop", Category: models.CategoryCreative,
			Region: "industrial-park", EstPricePerPerson: 35, ShortDescription: "Legal walls, pro cans, your crew's mural.",
			Season: models.SeasonSpring, WeatherDependent: true, TypicalDurationHrs: 3, GroupSizeMin: 5, GroupSizeMax: 15,
			PhysicalIntensity: 2, MentalChallenge: 2, SocialInteractionLevel: 4, PrimaryGoal: "creation"},
	}

	for _, activity := range activities {
		db.Create(&activity)
	}
}
