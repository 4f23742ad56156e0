// internal/app/features/notifications/handler_test.go
package notifications_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/features/notifications"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/testutil"
)

func TestServeDrain_DeliversOnce(t *testing.T) {
	q := notify.NewQueue(time.Minute)
	h := notifications.NewHandler(q, zap.NewNop())
	me := testutil.TestUser{ID: "64b000000000000000000001", Role: "assistant"}

	q.Push(me.ID, notify.Success, "Project created")
	q.Push("64b000000000000000000002", notify.Info, "someone else's message")

	req := testutil.NewAuthenticatedRequest("GET", "/notifications", me)
	rec := testutil.NewRecorder()
	h.ServeDrain(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Project created"`)
	if strings.Contains(rec.Body.String(), "someone else's message") {
		t.Error("drain leaked another user's notification")
	}

	// Second drain comes back empty.
	req = testutil.NewAuthenticatedRequest("GET", "/notifications", me)
	rec = testutil.NewRecorder()
	h.ServeDrain(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"notifications":[]`)
}

func TestServePeek_DoesNotConsume(t *testing.T) {
	q := notify.NewQueue(time.Minute)
	h := notifications.NewHandler(q, zap.NewNop())
	me := testutil.TestUser{ID: "64b000000000000000000003", Role: "assistant"}

	q.Push(me.ID, notify.Error, "Could not create project")

	for i := 0; i < 2; i++ {
		req := testutil.NewAuthenticatedRequest("GET", "/notifications/peek", me)
		rec := testutil.NewRecorder()
		h.ServePeek(rec.ResponseRecorder, req)
		rec.AssertStatus(t, http.StatusOK)
		rec.AssertContains(t, `"Could not create project"`)
	}
}

func TestServeDrain_RequiresSession(t *testing.T) {
	h := notifications.NewHandler(notify.NewQueue(time.Minute), zap.NewNop())
	req := testutil.NewRequest("GET", "/notifications")
	rec := testutil.NewRecorder()
	h.ServeDrain(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}
