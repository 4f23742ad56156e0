// internal/app/features/projects/handler_test.go
package projects_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/features/projects"
	"github.com/dalemusser/eventhub/internal/app/progress"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/eventhub/internal/app/store/tasks"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newHandler(db *mongo.Database) (*projects.Handler, *notify.Queue) {
	ps := projectstore.New(db)
	ts := taskstore.New(db)
	nq := notify.NewQueue(time.Minute)
	return projects.NewHandler(ps, ts, progress.New(ps, ts, zap.NewNop()), nq, zap.NewNop()), nq
}

func TestServeList_ScopedToMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h, _ := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	member := fx.CreateUser(ctx, "Member", "member@example.com", "assistant")
	outsider := fx.CreateUser(ctx, "Outsider", "out@example.com", "assistant")

	fx.CreateProject(ctx, "Owned", owner.ID)
	fx.CreateProject(ctx, "Shared", owner.ID, member.ID)

	req := testutil.NewAuthenticatedRequest("GET", "/projects", testutil.TestUser{
		ID: member.ID.Hex(), Role: "assistant",
	})
	rec := testutil.NewRecorder()
	h.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Shared"`)
	if containsName(t, rec.Body.String(), "Owned") {
		t.Error("member should not see projects they do not belong to")
	}

	req = testutil.NewAuthenticatedRequest("GET", "/projects", testutil.TestUser{
		ID: outsider.ID.Hex(), Role: "assistant",
	})
	rec = testutil.NewRecorder()
	h.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Projects []struct {
			Name string `json:"name"`
		} `json:"projects"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.Projects) != 0 {
		t.Errorf("outsider sees %d projects, want 0", len(resp.Projects))
	}
}

func containsName(t *testing.T, body, name string) bool {
	t.Helper()
	var resp struct {
		Projects []struct {
			Name string `json:"name"`
		} `json:"projects"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	for _, p := range resp.Projects {
		if p.Name == name {
			return true
		}
	}
	return false
}

func TestServeList_AdminSeesAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h, _ := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	admin := fx.CreateAdmin(ctx, "Root", "root@example.com")
	fx.CreateProject(ctx, "Private", owner.ID)

	req := testutil.NewAuthenticatedRequest("GET", "/projects", testutil.TestUser{
		ID: admin.ID.Hex(), Role: "admin",
	})
	rec := testutil.NewRecorder()
	h.ServeList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Private"`)
}

func TestHandleCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h, nq := newHandler(db)

	u := fx.CreateUser(ctx, "Pat", "pat@example.com", "editor")
	me := testutil.TestUser{ID: u.ID.Hex(), Role: "editor"}

	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/projects",
		`{"name":"Launch Plan","description":"<p>Kickoff</p><script>x()</script>","category":"marketing","status":"planning"}`), me)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"Launch Plan"`)
	rec.AssertContains(t, `"owner_id":"`+u.ID.Hex()+`"`)
	if jsonFieldContains(t, rec.Body.String(), "description", "<script>") {
		t.Error("description was not sanitized")
	}

	// Creation queues a success toast.
	if msgs := nq.Drain(u.ID.Hex()); len(msgs) == 0 {
		t.Error("expected a queued notification after create")
	}

	// Same name again is a conflict.
	req = testutil.WithUser(testutil.NewJSONRequest("POST", "/projects",
		`{"name":"launch plan"}`), me)
	rec = testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func jsonFieldContains(t *testing.T, body, field, substr string) bool {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	s, _ := m[field].(string)
	return strings.Contains(s, substr)
}

func TestServeProject_ForbiddenForOutsiders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h, _ := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	outsider := fx.CreateUser(ctx, "Out", "out@example.com", "assistant")
	p := fx.CreateProject(ctx, "Secret", owner.ID)

	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("GET", "/projects/"+p.ID.Hex(), testutil.TestUser{
			ID: outsider.ID.Hex(), Role: "assistant",
		}), "projectID", p.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeProject(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)

	// Owner gets through.
	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("GET", "/projects/"+p.ID.Hex(), testutil.TestUser{
			ID: owner.ID.Hex(), Role: "editor",
		}), "projectID", p.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeProject(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Secret"`)
}

func TestHandleUpdate_RenameRefreshesTaskNames(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h, _ := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	p := fx.CreateProject(ctx, "Old Name", owner.ID)
	task := fx.CreateTask(ctx, "Write copy", p, owner.ID, "todo")

	req := testutil.WithChiURLParam(
		testutil.WithUser(testutil.NewJSONRequest("PUT", "/projects/"+p.ID.Hex(),
			`{"name":"New Name"}`), testutil.TestUser{ID: owner.ID.Hex(), Role: "editor"}),
		"projectID", p.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"New Name"`)

	got, err := taskstore.New(db).GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if got.ProjectName != "New Name" {
		t.Errorf("task project_name = %q, want refreshed name", got.ProjectName)
	}
}

func TestHandleDelete_GeneralProjectRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h, _ := newHandler(db)

	admin := fx.CreateAdmin(ctx, "Root", "root@example.com")
	if err := projectstore.New(db).EnsureGeneralProject(ctx, admin.ID); err != nil {
		t.Fatalf("ensure general project: %v", err)
	}

	generalID := models.GeneralProjectID.Hex()
	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("DELETE", "/projects/"+generalID, testutil.TestUser{
			ID: admin.ID.Hex(), Role: "admin",
		}), "projectID", generalID)
	rec := testutil.NewRecorder()
	h.HandleDelete(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestHandleDelete_OwnerOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h, _ := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	member := fx.CreateUser(ctx, "Member", "member@example.com", "assistant")
	p := fx.CreateProject(ctx, "Doomed", owner.ID, member.ID)

	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("DELETE", "/projects/"+p.ID.Hex(), testutil.TestUser{
			ID: member.ID.Hex(), Role: "assistant",
		}), "projectID", p.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleDelete(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("DELETE", "/projects/"+p.ID.Hex(), testutil.TestUser{
			ID: owner.ID.Hex(), Role: "editor",
		}), "projectID", p.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleDelete(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)
}

func TestMemberManagement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h, _ := newHandler(db)

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	joiner := fx.CreateUser(ctx, "Joiner", "joiner@example.com", "assistant")
	p := fx.CreateProject(ctx, "Team", owner.ID)
	me := testutil.TestUser{ID: owner.ID.Hex(), Role: "editor"}

	req := testutil.WithChiURLParam(
		testutil.WithUser(testutil.NewJSONRequest("POST", "/projects/"+p.ID.Hex()+"/members",
			`{"user_id":"`+joiner.ID.Hex()+`"}`), me),
		"projectID", p.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleAddMember(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)

	got, err := projectstore.New(db).GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if len(got.MemberIDs) != 1 || got.MemberIDs[0] != joiner.ID {
		t.Fatalf("member_ids = %v, want [%s]", got.MemberIDs, joiner.ID.Hex())
	}

	req = testutil.WithChiURLParam(testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("DELETE",
			"/projects/"+p.ID.Hex()+"/members/"+joiner.ID.Hex(), me),
		"projectID", p.ID.Hex()), "userID", joiner.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleRemoveMember(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)

	got, err = projectstore.New(db).GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if len(got.MemberIDs) != 0 {
		t.Errorf("member_ids = %v, want empty", got.MemberIDs)
	}
}
