package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eventhorizon-app/backend/internal/models"
)

func TestCreateDateOptionValidation(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db)
	creator := createTestUser(t, db, "creator")
	room := createTestRoom(t, db, creator)
	event := createTestEvent(t, db, room, creator, models.PhaseScheduling)
	path := "/v1/events/" + event.ID.String() + "/date-options"
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	// End time without a start time.
	w := doRequest(t, r, http.MethodPost, path, creator.ID,
		CreateDateOptionRequest{Date: date, EndTime: "18:00"})
	requireStatus(t, w, http.StatusBadRequest)

	// Minute out of range.
	w = doRequest(t, r, http.MethodPost, path, creator.ID,
		CreateDateOptionRequest{Date: date, StartTime: "12:60"})
	requireStatus(t, w, http.StatusBadRequest)

	w = doRequest(t, r, http.MethodPost, path, creator.ID,
		CreateDateOptionRequest{Date: date, StartTime: "14:00", EndTime: "18:00"})
	requireStatus(t, w, http.StatusCreated)
	var option models.DateOption
	decodeBody(t, w, &option)
	if option.StartTime != "14:00" || option.EndTime != "18:00" {
		t.Fatalf("times = %q/%q, want 14:00/18:00", option.StartTime, option.EndTime)
	}
}

func TestCreateDateOptionPhaseAndLimit(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db)
	creator := createTestUser(t, db, "creator")
	room := createTestRoom(t, db, creator)
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	proposalEvent := createTestEvent(t, db, room, creator, models.PhaseProposal)
	w := doRequest(t, r, http.MethodPost, "/v1/events/"+proposalEvent.ID.String()+"/date-options", creator.ID,
		CreateDateOptionRequest{Date: date})
	requireStatus(t, w, http.StatusBadRequest)

	event := createTestEvent(t, db, room, creator, models.PhaseScheduling)
	for i := 0; i < models.MaxDateOptionsPerEvent; i++ {
		option := models.DateOption{ID: uuid.New(), EventID: event.ID, Date: date.AddDate(0, 0, i)}
		if err := db.Create(&option).Error; err != nil {
			t.Fatalf("seed option %d: %v", i, err)
		}
	}

	w = doRequest(t, r, http.MethodPost, "/v1/events/"+event.ID.String()+"/date-options", creator.ID,
		CreateDateOptionRequest{Date: date.AddDate(0, 1, 0)})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestRespondToDateOptionPriorityIsExclusive(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db)
	creator := createTestUser(t, db, "creator")
	room := createTestRoom(t, db, creator)
	event := createTestEvent(t, db, room, creator, models.PhaseScheduling)
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	first := models.DateOption{ID: uuid.New(), EventID: event.ID, Date: date}
	second := models.DateOption{ID: uuid.New(), EventID: event.ID, Date: date.AddDate(0, 0, 1)}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("seed option: %v", err)
	}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("seed option: %v", err)
	}

	respond := func(option models.DateOption, req DateResponseRequest) {
		w := doRequest(t, r, http.MethodPost,
			"/v1/events/"+event.ID.String()+"/date-options/"+option.ID.String()+"/response", creator.ID, req)
		requireStatus(t, w, http.StatusOK)
	}

	respond(first, DateResponseRequest{Response: models.DateResponseYes, IsPriority: true})
	respond(second, DateResponseRequest{Response: models.DateResponseYes, IsPriority: true})

	var firstResp, secondResp models.DateResponse
	db.Where("date_option_id = ? AND user_id = ?", first.ID, creator.ID).First(&firstResp)
	db.Where("date_option_id = ? AND user_id = ?", second.ID, creator.ID).First(&secondResp)
	if firstResp.IsPriority {
		t.Fatal("priority should have moved off the first option")
	}
	if !secondResp.IsPriority {
		t.Fatal("second option should hold the priority")
	}

	// Responding again updates in place rather than adding a row.
	respond(second, DateResponseRequest{Response: models.DateResponseNo, Note: "conflict came up"})
	var rows int64
	db.Model(&models.DateResponse{}).Where("date_option_id = ? AND user_id = ?", second.ID, creator.ID).Count(&rows)
	if rows != 1 {
		t.Fatalf("response rows = %d, want 1", rows)
	}
	db.Where("date_option_id = ? AND user_id = ?", second.ID, creator.ID).First(&secondResp)
	if secondResp.Response != models.DateResponseNo || secondResp.Note != "conflict came up" {
		t.Fatalf("response not updated: %+v", secondResp)
	}
}

func TestRespondToDateOptionRejectsUnknownValue(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db)
	creator := createTestUser(t, db, "creator")
	room := createTestRoom(t, db, creator)
	event := createTestEvent(t, db, room, creator, models.PhaseScheduling)
	option := models.DateOption{ID: uuid.New(), EventID: event.ID, Date: time.Now().UTC()}
	if err := db.Create(&option).Error; err != nil {
		t.Fatalf("seed option: %v", err)
	}

	w := doRequest(t, r, http.MethodPost,
		"/v1/events/"+event.ID.String()+"/date-options/"+option.ID.String()+"/response", creator.ID,
		DateResponseRequest{Response: "perhaps"})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestDeleteDateOptionCascadesResponses(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db)
	creator := createTestUser(t, db, "creator")
	room := createTestRoom(t, db, creator)
	event := createTestEvent(t, db, room, creator, models.PhaseScheduling)
	option := models.DateOption{ID: uuid.New(), EventID: event.ID, Date: time.Now().UTC()}
	if err := db.Create(&option).Error; err != nil {
		t.Fatalf("seed option: %v", err)
	}
	response := models.DateResponse{DateOptionID: option.ID, UserID: creator.ID, Response: models.DateResponseYes}
	if err := db.Create(&response).Error; err != nil {
		t.Fatalf("seed response: %v", err)
	}

	w := doRequest(t, r, http.MethodDelete,
		"/v1/events/"+event.ID.String()+"/date-options/"+option.ID.String(), creator.ID, nil)
	requireStatus(t, w, http.StatusOK)

	var options, responses int64
	db.Model(&models.DateOption{}).Where("event_id = ?", event.ID).Count(&options)
	db.Model(&models.DateResponse{}).Where("date_option_id = ?", option.ID).Count(&responses)
	if options != 0 || responses != 0 {
		t.Fatalf("options = %d, responses = %d, want 0/0", options, responses)
	}

	w = doRequest(t, r, http.MethodDelete,
		"/v1/events/"+event.ID.String()+"/date-options/"+option.ID.String(), creator.ID, nil)
	requireStatus(t, w, http.StatusNotFound)
}

func TestFinalizeDateMovesEventToInfo(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db)
	creator := createTestUser(t, db, "creator")
	room := createTestRoom(t, db, creator)
	event := createTestEvent(t, db, room, creator, models.PhaseScheduling)
	option := models.DateOption{ID: uuid.New(), EventID: event.ID, Date: time.Now().UTC()}
	if err := db.Create(&option).Error; err != nil {
		t.Fatalf("seed option: %v", err)
	}
	path := "/v1/events/" + event.ID.String() + "/finalize-date"

	// An option belonging to another event is rejected.
	w := doRequest(t, r, http.MethodPost, path, creator.ID, FinalizeDateRequest{DateOptionID: uuid.New()})
	requireStatus(t, w, http.StatusNotFound)

	w = doRequest(t, r, http.MethodPost, path, creator.ID, FinalizeDateRequest{DateOptionID: option.ID})
	requireStatus(t, w, http.StatusOK)

	got := reloadEvent(t, db, event.ID)
	if got.Phase != models.PhaseInfo {
		t.Fatalf("phase = %q, want info", got.Phase)
	}
	if got.FinalDateOptionID == nil || *got.FinalDateOptionID != option.ID {
		t.Fatal("final date option not recorded")
	}

	// Already finalized.
	w = doRequest(t, r, http.MethodPost, path, creator.ID, FinalizeDateRequest{DateOptionID: option.ID})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestEventCommentsCarryPhaseAndFilter(t *testing.T) {
	db := openTestDB(t)
	r := testRouter(db)
	creator := createTestUser(t, db, "creator")
	member := createTestUser(t, db, "member")
	room := createTestRoom(t, db, creator, member)
	event := createTestEvent(t, db, room, creator, models.PhaseVoting)
	base := "/v1/events/" + event.ID.String() + "/comments"

	w := doRequest(t, r, http.MethodPost, base, creator.ID, CreateCommentRequest{Content: "Paintball looks great"})
	requireStatus(t, w, http.StatusCreated)
	var comment models.EventComment
	decodeBody(t, w, &comment)
	if comment.Phase != models.PhaseVoting {
		t.Fatalf("comment phase = %q, want voting", comment.Phase)
	}

	w = doRequest(t, r, http.MethodGet, base+"?phase=voting", member.ID, nil)
	requireStatus(t, w, http.StatusOK)
	var voting []models.EventComment
	decodeBody(t, w, &voting)
	if len(voting) != 1 {
		t.Fatalf("voting comments = %d, want 1", len(voting))
	}

	w = doRequest(t, r, http.MethodGet, base+"?phase=proposal", member.ID, nil)
	requireStatus(t, w, http.StatusOK)
	var proposal []models.EventComment
	decodeBody(t, w, &proposal)
	if len(proposal) != 0 {
		t.Fatalf("proposal comments = %d, want 0", len(proposal))
	}

	// Only the author may delete.
	w = doRequest(t, r, http.MethodDelete, base+"/"+comment.ID.String(), member.ID, nil)
	requireStatus(t, w, http.StatusForbidden)
	w = doRequest(t, r, http.MethodDelete, base+"/"+comment.ID.String(), creator.ID, nil)
	requireStatus(t, w, http.StatusOK)
}
