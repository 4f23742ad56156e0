// internal/app/features/events/registrations_test.go
package events_test

import (
	"net/http"
	"testing"

	eventstore "github.com/dalemusser/eventhub/internal/app/store/events"
	registrationstore "github.com/dalemusser/eventhub/internal/app/store/registrations"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/eventhub/internal/testutil"
)

func TestHandleRegister_FreeEventConfirmsImmediately(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	org := fx.CreateOrganizerUser(ctx, "Org", "org@example.com")
	guest := fx.CreateUser(ctx, "Guest", "guest@example.com", "assistant")
	e := fx.CreateEvent(ctx, "Free Meetup", org.ID)
	me := testutil.TestUser{ID: guest.ID.Hex(), Role: "assistant"}

	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("POST", "/events/"+e.ID.Hex()+"/register", me),
		"eventID", e.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"status":"confirmed"`)

	// Second attempt hits the unique (event, user) constraint.
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("POST", "/events/"+e.ID.Hex()+"/register", me),
		"eventID", e.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusConflict)

	n, err := registrationstore.New(db).CountByEvent(ctx, e.ID)
	if err != nil {
		t.Fatalf("count registrations: %v", err)
	}
	if n != 1 {
		t.Errorf("registrations = %d, want exactly 1", n)
	}
}

func TestHandleRegister_PaidEventPendsThenConfirms(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	org := fx.CreateOrganizerUser(ctx, "Org", "org@example.com")
	guest := fx.CreateUser(ctx, "Guest", "guest@example.com", "assistant")

	paid, err := eventstore.New(db).Create(ctx, models.Event{
		Title:         "Paid Conf",
		Status:        "published",
		PriceType:     "paid",
		PriceUSDT:     25,
		WalletAddress: "TXYZabc123",
		OwnerID:       org.ID,
	})
	if err != nil {
		t.Fatalf("create paid event: %v", err)
	}
	me := testutil.TestUser{ID: guest.ID.Hex(), Role: "assistant"}

	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("POST", "/events/"+paid.ID.Hex()+"/register", me),
		"eventID", paid.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"status":"pending_payment"`)

	req = testutil.WithChiURLParam(
		testutil.WithUser(testutil.NewJSONRequest("POST",
			"/events/"+paid.ID.Hex()+"/register/confirm", `{"amount_usdt":25}`), me),
		"eventID", paid.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleConfirmRegistration(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"confirmed"`)
	rec.AssertContains(t, `"amount_usdt":25`)
}

func TestHandleRegister_UnpublishedAndFullEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	org := fx.CreateOrganizerUser(ctx, "Org", "org@example.com")
	guest := fx.CreateUser(ctx, "Guest", "guest@example.com", "assistant")
	other := fx.CreateUser(ctx, "Other", "other@example.com", "assistant")
	me := testutil.TestUser{ID: guest.ID.Hex(), Role: "assistant"}

	draft, err := eventstore.New(db).Create(ctx, models.Event{
		Title: "Unannounced", Status: "draft", OwnerID: org.ID,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("POST", "/events/"+draft.ID.Hex()+"/register", me),
		"eventID", draft.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	tiny, err := eventstore.New(db).Create(ctx, models.Event{
		Title: "One Seat", Status: "published", Capacity: 1, OwnerID: org.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if _, err := registrationstore.New(db).Create(ctx, models.Registration{
		EventID: tiny.ID, UserID: other.ID, Status: "confirmed",
	}); err != nil {
		t.Fatalf("seed registration: %v", err)
	}

	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("POST", "/events/"+tiny.ID.Hex()+"/register", me),
		"eventID", tiny.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleCancelRegistration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	org := fx.CreateOrganizerUser(ctx, "Org", "org@example.com")
	guest := fx.CreateUser(ctx, "Guest", "guest@example.com", "assistant")
	e := fx.CreateEvent(ctx, "Meetup", org.ID)
	me := testutil.TestUser{ID: guest.ID.Hex(), Role: "assistant"}

	if _, err := registrationstore.New(db).Create(ctx, models.Registration{
		EventID: e.ID, UserID: guest.ID, Status: "confirmed",
	}); err != nil {
		t.Fatalf("seed registration: %v", err)
	}

	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("DELETE", "/events/"+e.ID.Hex()+"/register", me),
		"eventID", e.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleCancelRegistration(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)

	// Cancelling again finds nothing.
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("DELETE", "/events/"+e.ID.Hex()+"/register", me),
		"eventID", e.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleCancelRegistration(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeRegistrations_OrganizerOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	org := fx.CreateOrganizerUser(ctx, "Org", "org@example.com")
	guest := fx.CreateUser(ctx, "Guest", "guest@example.com", "assistant")
	e := fx.CreateEvent(ctx, "Meetup", org.ID)

	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("GET", "/events/"+e.ID.Hex()+"/registrations",
			testutil.TestUser{ID: guest.ID.Hex(), Role: "assistant"}),
		"eventID", e.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeRegistrations(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("GET", "/events/"+e.ID.Hex()+"/registrations",
			testutil.TestUser{ID: org.ID.Hex(), Role: "organizer"}),
		"eventID", e.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeRegistrations(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
}
