// internal/app/features/events/handler_test.go
package events_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/features/events"
	eventstore "github.com/dalemusser/eventhub/internal/app/store/events"
	registrationstore "github.com/dalemusser/eventhub/internal/app/store/registrations"
	speakerstore "github.com/dalemusser/eventhub/internal/app/store/speakers"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newHandler(db *mongo.Database) *events.Handler {
	return events.NewHandler(eventstore.New(db), registrationstore.New(db),
		speakerstore.New(db), notify.NewQueue(time.Minute), zap.NewNop())
}

func TestHandleCreate_RequiresOrganizer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	assistant := fx.CreateUser(ctx, "Helper", "helper@example.com", "assistant")
	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/events",
		`{"title":"Secret Meetup"}`), testutil.TestUser{ID: assistant.ID.Hex(), Role: "assistant"})
	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleCreate_PaidEventNeedsWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	org := fx.CreateOrganizerUser(ctx, "Org", "org@example.com")
	me := testutil.TestUser{ID: org.ID.Hex(), Role: "organizer"}

	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/events",
		`{"title":"Paid Conf","price_type":"paid","price_usdt":25}`), me)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	req = testutil.WithUser(testutil.NewJSONRequest("POST", "/events",
		`{"title":"Paid Conf","price_type":"paid","price_usdt":25,"wallet_address":"TXYZabc123"}`), me)
	rec = testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"price_type":"paid"`)
}

func TestServeList_HidesDraftsFromParticipants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	org := fx.CreateOrganizerUser(ctx, "Org", "org@example.com")
	fx.CreateEvent(ctx, "Public Meetup", org.ID)

	draft := models.Event{Title: "Hidden Draft", Status: "draft", OwnerID: org.ID}
	if _, err := eventstore.New(db).Create(ctx, draft); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	// Anonymous listing shows only published events.
	req := testutil.NewRequest("GET", "/events")
	rec := testutil.NewRecorder()
	h.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Public Meetup"`)

	var resp struct {
		Events []struct {
			Title string `json:"title"`
		} `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	for _, e := range resp.Events {
		if e.Title == "Hidden Draft" {
			t.Error("draft leaked into public listing")
		}
	}

	// Organizers see drafts.
	req = testutil.NewAuthenticatedRequest("GET", "/events", testutil.TestUser{
		ID: org.ID.Hex(), Role: "organizer",
	})
	rec = testutil.NewRecorder()
	h.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Hidden Draft"`)
}

func TestAgendaLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	org := fx.CreateOrganizerUser(ctx, "Org", "org@example.com")
	e := fx.CreateEvent(ctx, "Conf", org.ID)
	me := testutil.TestUser{ID: org.ID.Hex(), Role: "organizer"}

	req := testutil.WithChiURLParam(
		testutil.WithUser(testutil.NewJSONRequest("POST", "/events/"+e.ID.Hex()+"/agenda",
			`{"title":"Opening keynote","starts_at":"2026-09-01T09:00:00Z"}`), me),
		"eventID", e.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleAddAgendaItem(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)

	var item models.AgendaItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("parse agenda item: %v", err)
	}
	if item.ID.IsZero() {
		t.Fatal("agenda item was not assigned an id")
	}

	// Update it.
	req = testutil.WithChiURLParam(testutil.WithChiURLParam(
		testutil.WithUser(testutil.NewJSONRequest("PUT",
			"/events/"+e.ID.Hex()+"/agenda/"+item.ID.Hex(),
			`{"title":"Opening keynote (rescheduled)","starts_at":"2026-09-01T10:00:00Z"}`), me),
		"eventID", e.ID.Hex()), "itemID", item.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleUpdateAgendaItem(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	// Remove it; removing again is a 404.
	req = testutil.WithChiURLParam(testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("DELETE",
			"/events/"+e.ID.Hex()+"/agenda/"+item.ID.Hex(), me),
		"eventID", e.ID.Hex()), "itemID", item.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleRemoveAgendaItem(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)

	req = testutil.WithChiURLParam(testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("DELETE",
			"/events/"+e.ID.Hex()+"/agenda/"+item.ID.Hex(), me),
		"eventID", e.ID.Hex()), "itemID", item.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleRemoveAgendaItem(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestSpeakerAssignment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	org := fx.CreateOrganizerUser(ctx, "Org", "org@example.com")
	e := fx.CreateEvent(ctx, "Conf", org.ID)
	sp := fx.CreateSpeaker(ctx, "Ada Example", "ada@example.com")
	me := testutil.TestUser{ID: org.ID.Hex(), Role: "organizer"}

	req := testutil.WithChiURLParam(
		testutil.WithUser(testutil.NewJSONRequest("POST", "/events/"+e.ID.Hex()+"/speakers",
			`{"speaker_id":"`+sp.ID.Hex()+`"}`), me),
		"eventID", e.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleAddSpeaker(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)

	got, err := eventstore.New(db).GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if len(got.SpeakerIDs) != 1 || got.SpeakerIDs[0] != sp.ID {
		t.Fatalf("speaker_ids = %v, want [%s]", got.SpeakerIDs, sp.ID.Hex())
	}

	// Unknown speaker id is rejected.
	bogus := "ffffffffffffffffffffffff"
	req = testutil.WithChiURLParam(
		testutil.WithUser(testutil.NewJSONRequest("POST", "/events/"+e.ID.Hex()+"/speakers",
			`{"speaker_id":"`+bogus+`"}`), me),
		"eventID", e.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleAddSpeaker(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
}
