package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eventhorizon-app/backend/config"
	"github.com/eventhorizon-app/backend/internal/helpers"
	"github.com/eventhorizon-app/backend/internal/middleware"
	"github.com/eventhorizon-app/backend/internal/models"
)

var testDBSeq atomic.Int64

// openTestDB gives every test its own in-memory database with the full
// schema. Shared cache keeps the database alive across pooled connections.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.MigrateModels(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testRouter mirrors the production route table but swaps JWT auth for a
// header that names the acting user directly.
func testRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(func(c *gin.Context) {
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				c.Set("user_id", id)
			}
		}
		c.Next()
	})

	v1 := r.Group("/v1")

	rooms := v1.Group("/rooms")
	{
		rooms.GET("", ListRooms)
		rooms.POST("", CreateRoom)
		rooms.POST("/join", JoinRoom)
		rooms.GET("/:identifier", GetRoom)
		rooms.PATCH("/:identifier", UpdateRoom)
		rooms.DELETE("/:identifier", DeleteRoom)
		rooms.POST("/:identifier/leave", LeaveRoom)
		rooms.GET("/:identifier/members", ListRoomMembers)
		rooms.GET("/:identifier/events", ListRoomEvents)
		rooms.POST("/:identifier/events", CreateRoomEvent)
	}

	events := v1.Group("/events")
	{
		events.GET("/:identifier", GetEvent)
		events.PATCH("/:identifier", UpdateEvent)
		events.DELETE("/:identifier", DeleteEvent)
		events.PATCH("/:identifier/phase", UpdateEventPhase)
		events.POST("/:identifier/proposed-activities", ProposeActivity)
		events.DELETE("/:identifier/proposed-activities/:activityID", RemoveProposedActivity)
		events.PATCH("/:identifier/activities/:activityID/exclude", ExcludeActivity)
		events.PATCH("/:identifier/activities/:activityID/include", IncludeActivity)
		events.POST("/:identifier/votes", CastVote)
		events.POST("/:identifier/select-activity", SelectActivity)
		events.POST("/:identifier/date-options", CreateDateOption)
		events.DELETE("/:identifier/date-options/:optionID", DeleteDateOption)
		events.POST("/:identifier/date-options/:optionID/response", RespondToDateOption)
		events.POST("/:identifier/finalize-date", FinalizeDate)
		events.GET("/:identifier/comments", ListEventComments)
		events.POST("/:identifier/comments", CreateEventComment)
		events.DELETE("/:identifier/comments/:commentID", DeleteEventComment)
	}

	activities := v1.Group("/activities")
	{
		activities.GET("", ListActivities)
		activities.GET("/favorites", ListFavorites)
		activities.GET("/:identifier", GetActivity)
		activities.GET("/:identifier/favorite", FavoriteStatus)
		activities.POST("/:identifier/favorite", ToggleFavorite)
		activities.GET("/:identifier/comments", ListActivityComments)
		activities.POST("/:identifier/comments", CreateActivityComment)
		activities.DELETE("/:identifier/comments/:commentID", DeleteActivityComment)
		activities.POST("/:identifier/booking-request", SendBookingRequest)
	}

	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func createTestUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{
		ID:       uuid.New(),
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "irrelevant",
		Name:     name,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestRoom(t *testing.T, db *gorm.DB, creator models.User, members ...models.User) models.Room {
	t.Helper()
	room := models.Room{
		ID:              uuid.New(),
		Name:            "Test Room",
		InviteCode:      helpers.GenerateCode(),
		CreatedByUserID: creator.ID,
	}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}
	rows := []models.RoomMember{{RoomID: room.ID, UserID: creator.ID, Role: models.RoomRoleAdmin, JoinedAt: time.Now().UTC()}}
	for _, m := range members {
		rows = append(rows, models.RoomMember{RoomID: room.ID, UserID: m.ID, Role: models.RoomRoleMember, JoinedAt: time.Now().UTC()})
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("create room members: %v", err)
	}
	return room
}

func createTestEvent(t *testing.T, db *gorm.DB, room models.Room, creator models.User, phase models.EventPhase) models.Event {
	t.Helper()
	event := models.Event{
		ID:              uuid.New(),
		RoomID:          room.ID,
		Name:            "Test Event",
		Phase:           phase,
		ShortCode:       helpers.GenerateCode(),
		CreatedByUserID: creator.ID,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	var members []models.RoomMember
	if err := db.Where("room_id = ?", room.ID).Find(&members).Error; err != nil {
		t.Fatalf("load members: %v", err)
	}
	for _, m := range members {
		participant := models.EventParticipant{
			EventID:     event.ID,
			UserID:      m.UserID,
			IsOrganizer: m.UserID == creator.ID,
		}
		if err := db.Create(&participant).Error; err != nil {
			t.Fatalf("create participant: %v", err)
		}
	}
	return event
}

func createTestActivity(t *testing.T, db *gorm.DB, listingID int, category models.ActivityCategory) models.Activity {
	t.Helper()
	activity := models.Activity{
		ID:               uuid.New(),
		ListingID:        listingID,
		Slug:             fmt.Sprintf("test-activity-%d", listingID),
		Title:            fmt.Sprintf("Test Activity %d", listingID),
		Category:         category,
		ShortDescription: "A test catalog entry.",
	}
	if err := db.Create(&activity).Error; err != nil {
		t.Fatalf("create activity: %v", err)
	}
	return activity
}

func proposeOnEvent(t *testing.T, db *gorm.DB, event *models.Event, activityID uuid.UUID) {
	t.Helper()
	event.ProposedActivityIDs = append(event.ProposedActivityIDs, activityID)
	if err := db.Save(event).Error; err != nil {
		t.Fatalf("propose activity: %v", err)
	}
}

func reloadEvent(t *testing.T, db *gorm.DB, id uuid.UUID) models.Event {
	t.Helper()
	var event models.Event
	if err := db.Where("id = ?", id).First(&event).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	return event
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}
