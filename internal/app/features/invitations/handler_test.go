// internal/app/features/invitations/handler_test.go
package invitations_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/features/invitations"
	invitationstore "github.com/dalemusser/eventhub/internal/app/store/invitations"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	speakerstore "github.com/dalemusser/eventhub/internal/app/store/speakers"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newHandler(db *mongo.Database) *invitations.Handler {
	return invitations.NewHandler(
		invitationstore.New(db), userstore.New(db), projectstore.New(db),
		speakerstore.New(db), nil, "EventHub", "https://eventhub.test", zap.NewNop())
}

func TestHandleCreate_UnknownEmailGetsPlaceholder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	p := fx.CreateProject(ctx, "Team Project", owner.ID)
	me := testutil.TestUser{ID: owner.ID.Hex(), Name: "Owner", Role: "editor"}

	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/invitations",
		`{"email":"new.person@example.com","role":"assistant","type":"project","project_id":"`+p.ID.Hex()+`","full_name":"New Person"}`), me)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"status":"pending"`)

	// A placeholder profile now stands in for the invitee.
	ph, err := userstore.New(db).GetByEmail(ctx, "new.person@example.com")
	if err != nil {
		t.Fatalf("placeholder not created: %v", err)
	}
	if ph.Status != "invited" {
		t.Errorf("placeholder status = %q, want invited", ph.Status)
	}

	// And it already appears in the member list.
	got, err := projectstore.New(db).GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	found := false
	for _, m := range got.MemberIDs {
		if m == ph.ID {
			found = true
		}
	}
	if !found {
		t.Error("placeholder not added to project members")
	}

	// A second pending invitation for the same (project, email) conflicts.
	req = testutil.WithUser(testutil.NewJSONRequest("POST", "/invitations",
		`{"email":"new.person@example.com","role":"assistant","type":"project","project_id":"`+p.ID.Hex()+`"}`), me)
	rec = testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleCreate_PermissionMatrix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	stranger := fx.CreateUser(ctx, "Stranger", "stranger@example.com", "editor")
	p := fx.CreateProject(ctx, "Guarded", owner.ID)

	// A non-owner cannot invite into someone else's project.
	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/invitations",
		`{"email":"x@example.com","role":"assistant","type":"project","project_id":"`+p.ID.Hex()+`"}`),
		testutil.TestUser{ID: stranger.ID.Hex(), Role: "editor"})
	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)

	// Team invitations are admin-only.
	req = testutil.WithUser(testutil.NewJSONRequest("POST", "/invitations",
		`{"email":"x@example.com","role":"organizer","type":"team"}`),
		testutil.TestUser{ID: owner.ID.Hex(), Role: "editor"})
	rec = testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleAccept_MatchingEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	invitee := fx.CreateUser(ctx, "Invitee", "invitee@example.com", "assistant")
	p := fx.CreateProject(ctx, "Joinable", owner.ID)
	inv := fx.CreateInvitation(ctx, "invitee@example.com", "editor", p.ID, owner.ID)

	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("POST", "/invitations/"+inv.Token+"/accept",
			testutil.TestUser{ID: invitee.ID.Hex(), Role: "assistant"}),
		"token", inv.Token)
	rec := testutil.NewRecorder()
	h.HandleAccept(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"accepted"`)

	got, err := projectstore.New(db).GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if len(got.MemberIDs) != 1 || got.MemberIDs[0] != invitee.ID {
		t.Errorf("member_ids = %v, want the invitee", got.MemberIDs)
	}

	// The invitation's role upgraded the default assistant.
	u, err := userstore.New(db).GetByID(ctx, invitee.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if u.Role != "editor" {
		t.Errorf("role = %q, want editor from the invitation", u.Role)
	}

	// A settled invitation cannot be accepted again.
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("POST", "/invitations/"+inv.Token+"/accept",
			testutil.TestUser{ID: invitee.ID.Hex(), Role: "editor"}),
		"token", inv.Token)
	rec = testutil.NewRecorder()
	h.HandleAccept(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusGone)
}

func TestHandleAccept_DifferentEmailFoldsPlaceholder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	p := fx.CreateProject(ctx, "Handover", owner.ID)
	inv := fx.CreateInvitation(ctx, "old.address@example.com", "assistant", p.ID, owner.ID)

	placeholder := fx.CreatePlaceholderUser(ctx, "Old Address", "old.address@example.com", "assistant")
	if err := projectstore.New(db).AddMember(ctx, p.ID, placeholder.ID); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	// The person signed up under a different address and accepts from there.
	acceptor := fx.CreateUser(ctx, "Real Person", "real@example.com", "assistant")
	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("POST", "/invitations/"+inv.Token+"/accept",
			testutil.TestUser{ID: acceptor.ID.Hex(), Role: "assistant"}),
		"token", inv.Token)
	rec := testutil.NewRecorder()
	h.HandleAccept(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	// Membership moved from the placeholder to the real account.
	got, err := projectstore.New(db).GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	for _, m := range got.MemberIDs {
		if m == placeholder.ID {
			t.Error("placeholder still in member list")
		}
	}
	found := false
	for _, m := range got.MemberIDs {
		if m == acceptor.ID {
			found = true
		}
	}
	if !found {
		t.Error("acceptor missing from member list")
	}

	// The placeholder profile is gone.
	if _, err := userstore.New(db).GetByID(ctx, placeholder.ID); err == nil {
		t.Error("placeholder profile should have been deleted")
	}
}

func TestHandleDecline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	p := fx.CreateProject(ctx, "Declined", owner.ID)
	inv := fx.CreateInvitation(ctx, "nope@example.com", "assistant", p.ID, owner.ID)

	req := testutil.WithChiURLParam(
		testutil.NewRequest("POST", "/invitations/"+inv.Token+"/decline"),
		"token", inv.Token)
	rec := testutil.NewRecorder()
	h.HandleDecline(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)

	// Token is now settled.
	req = testutil.WithChiURLParam(
		testutil.NewRequest("GET", "/invitations/"+inv.Token), "token", inv.Token)
	rec = testutil.NewRecorder()
	h.ServeInvitation(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusGone)
}

func TestServeInvitation_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	p := fx.CreateProject(ctx, "Stale", owner.ID)

	inv, err := invitationstore.New(db).Create(ctx, models.Invitation{
		Type:      models.InviteTypeProject,
		Email:     "late@example.com",
		Role:      "assistant",
		ProjectID: &p.ID,
		InviterID: owner.ID,
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	req := testutil.WithChiURLParam(
		testutil.NewRequest("GET", "/invitations/"+inv.Token), "token", inv.Token)
	rec := testutil.NewRecorder()
	h.ServeInvitation(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusGone)
}

func TestHandleBulkCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	p := fx.CreateProject(ctx, "Cohort", owner.ID)
	// One invitee already holds a pending invitation and gets skipped.
	fx.CreateInvitation(ctx, "already@example.com", "assistant", p.ID, owner.ID)

	csv := strings.Join([]string{
		"Full Name,Email,Role",
		"Ada Lovelace,ada@example.com,editor",
		"Grace Hopper,grace@example.com",
		"Dupe,already@example.com",
		"Bad Row,not-an-email",
	}, "\n")

	req := httptest.NewRequest("POST", "/invitations/bulk?project_id="+p.ID.Hex(), strings.NewReader(csv))
	req = testutil.WithUser(req, testutil.TestUser{ID: owner.ID.Hex(), Name: "Owner", Role: "editor"})
	rec := testutil.NewRecorder()
	h.HandleBulkCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"created":2`)
	rec.AssertContains(t, `"skipped":1`)
	rec.AssertContains(t, "invalid email")
	rec.AssertContains(t, "already has a pending invitation")

	// Both new invitees show up as pending on the project.
	invs, err := invitationstore.New(db).ListByProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(invs) != 3 {
		t.Fatalf("project has %d invitations, want 3", len(invs))
	}

	// Placeholders exist and are already project members.
	ph, err := userstore.New(db).GetByEmail(ctx, "grace@example.com")
	if err != nil {
		t.Fatalf("placeholder missing: %v", err)
	}
	got, err := projectstore.New(db).GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	member := false
	for _, m := range got.MemberIDs {
		if m == ph.ID {
			member = true
		}
	}
	if !member {
		t.Error("bulk invitee not added to member list")
	}
}

func TestHandleBulkCreate_TeamIsAdminOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db)

	editor := fx.CreateUser(ctx, "Editor", "editor@example.com", "editor")

	req := httptest.NewRequest("POST", "/invitations/bulk", strings.NewReader("X,x@example.com\n"))
	req = testutil.WithUser(req, testutil.TestUser{ID: editor.ID.Hex(), Role: "editor"})
	rec := testutil.NewRecorder()
	h.HandleBulkCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}
