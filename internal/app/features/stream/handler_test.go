// internal/app/features/stream/handler_test.go
package stream_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/features/stream"
	eventstore "github.com/dalemusser/eventhub/internal/app/store/events"
	giftstore "github.com/dalemusser/eventhub/internal/app/store/gifts"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	speakerstore "github.com/dalemusser/eventhub/internal/app/store/speakers"
	taskstore "github.com/dalemusser/eventhub/internal/app/store/tasks"
	"github.com/dalemusser/eventhub/internal/app/system/watch"
	"github.com/dalemusser/eventhub/internal/testutil"
)

func newHandler(db *mongo.Database, hubs map[string]*watch.Hub) *stream.Handler {
	return stream.NewHandler(hubs,
		projectstore.New(db), taskstore.New(db), eventstore.New(db),
		speakerstore.New(db), giftstore.New(db), zap.NewNop())
}

func newHubs() map[string]*watch.Hub {
	return map[string]*watch.Hub{
		"projects": watch.NewHub(zap.NewNop()),
		"tasks":    watch.NewHub(zap.NewNop()),
		"events":   watch.NewHub(zap.NewNop()),
	}
}

func streamRequest(ctx context.Context, collection string, u testutil.TestUser) *http.Request {
	req := httptest.NewRequest("GET", "/stream/"+collection, nil).WithContext(ctx)
	req = testutil.WithUser(req, u)
	return testutil.WithChiURLParam(req, "collection", collection)
}

func TestServeStream_UnknownCollection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db, newHubs())

	req := streamRequest(context.Background(), "wallets", testutil.TestUser{
		ID: primitive.NewObjectID().Hex(), Role: "assistant"})
	rec := testutil.NewRecorder()
	h.ServeStream(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeStream_SnapshotReplay(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := newHandler(db, newHubs())

	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "editor")
	fx.CreateProject(ctx, "Launch plan", owner.ID)

	reqCtx, cancel := context.WithCancel(context.Background())
	req := streamRequest(reqCtx, "projects", testutil.TestUser{ID: owner.ID.Hex(), Role: "editor"})
	rec := testutil.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeStream(rec.ResponseRecorder, req)
		close(done)
	}()
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	rec.AssertStatus(t, http.StatusOK)
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: snapshot") {
		t.Errorf("no snapshot event in stream:\n%s", body)
	}
	if !strings.Contains(body, "Launch plan") {
		t.Errorf("snapshot missing project:\n%s", body)
	}
	if !strings.Contains(body, "event: ready") {
		t.Errorf("no ready marker in stream:\n%s", body)
	}
}

func TestServeStream_ForwardsVisibleChanges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	hubs := newHubs()
	h := newHandler(db, hubs)

	me := fx.CreateUser(ctx, "Me", "me@example.com", "assistant")
	other := fx.CreateUser(ctx, "Other", "other@example.com", "assistant")

	reqCtx, cancel := context.WithCancel(context.Background())
	req := streamRequest(reqCtx, "tasks", testutil.TestUser{ID: me.ID.Hex(), Role: "assistant"})
	rec := testutil.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeStream(rec.ResponseRecorder, req)
		close(done)
	}()
	// Let the handler subscribe and finish its snapshot before publishing.
	time.Sleep(200 * time.Millisecond)

	hubs["tasks"].Publish(watch.Change{
		Collection: "tasks", Op: watch.OpInsert, DocID: primitive.NewObjectID(),
		Doc: marshalDoc(t, bson.M{"title": "Theirs, hidden", "user_id": other.ID, "project_id": primitive.NewObjectID()}),
	})
	hubs["tasks"].Publish(watch.Change{
		Collection: "tasks", Op: watch.OpInsert, DocID: primitive.NewObjectID(),
		Doc: marshalDoc(t, bson.M{"title": "Mine, visible", "user_id": me.ID, "project_id": primitive.NewObjectID()}),
	})
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "Mine, visible") {
		t.Errorf("own task not forwarded:\n%s", body)
	}
	if strings.Contains(body, "Theirs, hidden") {
		t.Errorf("foreign task leaked into stream:\n%s", body)
	}
	if !strings.Contains(body, "event: insert") {
		t.Errorf("change missing op event name:\n%s", body)
	}
}

func TestServeStream_DeletePassesIDOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	hubs := newHubs()
	h := newHandler(db, hubs)

	u := fx.CreateUser(ctx, "Viewer", "viewer@example.com", "assistant")

	reqCtx, cancel := context.WithCancel(context.Background())
	req := streamRequest(reqCtx, "projects", testutil.TestUser{ID: u.ID.Hex(), Role: "assistant"})
	rec := testutil.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeStream(rec.ResponseRecorder, req)
		close(done)
	}()
	time.Sleep(200 * time.Millisecond)

	gone := primitive.NewObjectID()
	hubs["projects"].Publish(watch.Change{
		Collection: "projects", Op: watch.OpDelete, DocID: gone,
	})
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: delete") {
		t.Errorf("delete event missing:\n%s", body)
	}
	if !strings.Contains(body, gone.Hex()) {
		t.Errorf("delete payload missing id:\n%s", body)
	}
}

func marshalDoc(t *testing.T, doc bson.M) bson.Raw {
	t.Helper()
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}
	return raw
}
