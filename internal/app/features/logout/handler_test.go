// internal/app/features/logout/handler_test.go
package logout_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/eventhub/internal/app/features/logout"
	sessionstore "github.com/dalemusser/eventhub/internal/app/store/sessions"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	mgr, err := auth.NewSessionManager(
		"0123456789abcdef0123456789abcdef", "eventhub_test", "", false,
		"fedcba9876543210fedcba9876543210", zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return mgr
}

func TestServeLogout_ClosesActivitySession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	sessStore := sessionstore.New(db)
	userID := primitive.NewObjectID()
	open, err := sessStore.Create(ctx, userID, "password", "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	h := logout.NewHandler(newManager(t), sessStore, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("POST", "/auth/logout", testutil.TestUser{
		ID:   userID.Hex(),
		Name: "Pat",
		Role: "assistant",
	})
	rec := testutil.NewRecorder()

	h.ServeLogout(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)

	recent, err := sessStore.RecentByUser(ctx, userID, 1)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected one session, got %d", len(recent))
	}
	got := recent[0]
	if got.ID != open.ID {
		t.Fatalf("unexpected session returned")
	}
	if got.LogoutAt == nil {
		t.Error("expected session to be closed")
	}
	if got.EndReason != sessionstore.EndedByLogout {
		t.Errorf("end reason: got %q, want %q", got.EndReason, sessionstore.EndedByLogout)
	}
}

func TestServeLogout_NoActivitySessionStillSucceeds(t *testing.T) {
	h := logout.NewHandler(newManager(t), nil, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("POST", "/auth/logout", testutil.AssistantUser())
	rec := testutil.NewRecorder()

	h.ServeLogout(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)
}
