// internal/app/store/sessions/store_test.go
package sessions_test

import (
	"testing"
	"time"

	"github.com/dalemusser/eventhub/internal/app/store/sessions"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateTouchClose(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := sessions.New(db)

	userID := primitive.NewObjectID()
	sess, err := store.Create(ctx, userID, "password", "203.0.113.9", "test-agent")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.UserID != userID || sess.LoginAt.IsZero() {
		t.Errorf("session not populated: %+v", sess)
	}

	if err := store.Touch(ctx, sess.ID); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if err := store.Close(ctx, sess.ID, sessions.EndedByLogout); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closing again is a no-op, not an error.
	if err := store.Close(ctx, sess.ID, sessions.EndedByInactive); err != nil {
		t.Fatalf("repeat Close: %v", err)
	}

	recent, err := store.RecentByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("RecentByUser: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("RecentByUser returned %d, want 1", len(recent))
	}
	got := recent[0]
	if got.LogoutAt == nil {
		t.Fatal("LogoutAt not set after Close")
	}
	if got.EndReason != sessions.EndedByLogout {
		t.Errorf("EndReason = %q, want %q (second Close must not overwrite)", got.EndReason, sessions.EndedByLogout)
	}
}

func TestCloseExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := sessions.New(db)

	userID := primitive.NewObjectID()
	stale, err := store.Create(ctx, userID, "google", "203.0.113.9", "")
	if err != nil {
		t.Fatalf("Create stale: %v", err)
	}
	fresh, err := store.Create(ctx, userID, "google", "203.0.113.9", "")
	if err != nil {
		t.Fatalf("Create fresh: %v", err)
	}

	// Backdate the stale session past the idle threshold.
	_, err = db.Collection("sessions").UpdateByID(ctx, stale.ID, bson.M{
		"$set": bson.M{"last_active_at": time.Now().UTC().Add(-2 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("backdate: %v", err)
	}

	n, err := store.CloseExpired(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("CloseExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("CloseExpired closed %d sessions, want 1", n)
	}

	recent, err := store.RecentByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("RecentByUser: %v", err)
	}
	for _, s := range recent {
		switch s.ID {
		case stale.ID:
			if s.LogoutAt == nil || s.EndReason != sessions.EndedByInactive {
				t.Errorf("stale session not closed as inactive: %+v", s)
			}
		case fresh.ID:
			if s.LogoutAt != nil {
				t.Errorf("fresh session was closed: %+v", s)
			}
		}
	}
}

func TestRecentByUser_OrderAndLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := sessions.New(db)

	userID := primitive.NewObjectID()
	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		s, err := store.Create(ctx, userID, "password", "203.0.113.9", "")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		// Spread the login times so the sort is deterministic.
		_, err = db.Collection("sessions").UpdateByID(ctx, s.ID, bson.M{
			"$set": bson.M{"login_at": time.Now().UTC().Add(time.Duration(i) * time.Minute)},
		})
		if err != nil {
			t.Fatalf("stamp login_at: %v", err)
		}
		ids = append(ids, s.ID)
	}

	recent, err := store.RecentByUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("RecentByUser: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("limit ignored: got %d, want 2", len(recent))
	}
	if recent[0].ID != ids[2] || recent[1].ID != ids[1] {
		t.Errorf("sessions not newest-first: %v then %v", recent[0].ID, recent[1].ID)
	}
}
