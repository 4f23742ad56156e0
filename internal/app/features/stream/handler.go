// internal/app/features/stream/handler.go
package stream

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	eventstore "github.com/dalemusser/eventhub/internal/app/store/events"
	giftstore "github.com/dalemusser/eventhub/internal/app/store/gifts"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	speakerstore "github.com/dalemusser/eventhub/internal/app/store/speakers"
	taskstore "github.com/dalemusser/eventhub/internal/app/store/tasks"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/app/system/watch"
)

// snapshotLimit caps the initial replay so one subscriber cannot pull an
// unbounded result set before streaming begins.
const snapshotLimit = 500

// Handler serves live collection streams over SSE. A subscriber first gets
// the current result set as "snapshot" events, then incremental changes until
// it disconnects. Visibility follows the same rules as the list endpoints.
type Handler struct {
	Hubs     map[string]*watch.Hub
	Projects *projectstore.Store
	Tasks    *taskstore.Store
	Events   *eventstore.Store
	Speakers *speakerstore.Store
	Gifts    *giftstore.Store
	Log      *zap.Logger
}

func NewHandler(hubs map[string]*watch.Hub, ps *projectstore.Store, ts *taskstore.Store, es *eventstore.Store, ss *speakerstore.Store, gs *giftstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Hubs:     hubs,
		Projects: ps,
		Tasks:    ts,
		Events:   es,
		Speakers: ss,
		Gifts:    gs,
		Log:      logger,
	}
}

// ServeStream is GET /stream/{collection}.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	hub, ok := h.Hubs[collection]
	if !ok {
		httpapi.Error(w, http.StatusNotFound, "unknown stream")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpapi.Error(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	// Subscribe before the snapshot read so changes landing between the two
	// are buffered rather than missed. Duplicates are possible; clients key
	// by document id.
	sub := hub.Subscribe(h.visibilityFilter(r, collection), 0)
	defer sub.Cancel()

	snapshot, err := h.snapshot(r, collection)
	if err != nil {
		httpapi.StoreError(w, h.Log, "stream snapshot", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, doc := range snapshot {
		writeSSE(w, "snapshot", doc)
	}
	writeSSE(w, "ready", []byte(`{}`))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case c, open := <-sub.C:
			if !open {
				return
			}
			payload, err := changePayload(c)
			if err != nil {
				h.Log.Warn("encode change failed",
					zap.String("collection", c.Collection), zap.Error(err))
				continue
			}
			writeSSE(w, c.Op, payload)
			flusher.Flush()
		}
	}
}

// writeSSE emits one server-sent event. Data is a single JSON document, so
// no multi-line splitting is needed.
func writeSSE(w http.ResponseWriter, event string, data []byte) {
	_, _ = w.Write([]byte("event: " + event + "\ndata: "))
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n\n"))
}

// changePayload renders a hub change as JSON. Deletes carry only the id.
func changePayload(c watch.Change) ([]byte, error) {
	if c.Op == watch.OpDelete || c.Doc == nil {
		return json.Marshal(map[string]string{"id": c.DocID.Hex()})
	}
	return bson.MarshalExtJSON(c.Doc, false, false)
}

// snapshot reads the caller's current result set for the collection, encoded
// document by document.
func (h *Handler) snapshot(r *http.Request, collection string) ([][]byte, error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, _, userID, _ := authz.UserCtx(r)

	var docs []any
	switch collection {
	case "projects":
		var err error
		if authz.IsAdmin(r) {
			list, lerr := h.Projects.ListAll(ctx, snapshotLimit, 0)
			docs, err = anySlice(list), lerr
		} else {
			list, lerr := h.Projects.ListForUser(ctx, userID, snapshotLimit, 0)
			docs, err = anySlice(list), lerr
		}
		if err != nil {
			return nil, err
		}
	case "tasks":
		if authz.IsAdmin(r) {
			list, err := h.Tasks.ListAll(ctx, snapshotLimit, 0)
			if err != nil {
				return nil, err
			}
			docs = anySlice(list)
		} else {
			projectIDs, err := h.Projects.MemberProjectIDs(ctx, userID, 30)
			if err != nil {
				return nil, err
			}
			list, err := h.Tasks.ListForUser(ctx, userID, projectIDs, snapshotLimit, 0)
			if err != nil {
				return nil, err
			}
			docs = anySlice(list)
		}
	case "events":
		var err error
		if authz.CanManageEvents(r) {
			list, lerr := h.Events.ListAll(ctx, snapshotLimit, 0)
			docs, err = anySlice(list), lerr
		} else {
			list, lerr := h.Events.ListPublished(ctx, snapshotLimit, 0)
			docs, err = anySlice(list), lerr
		}
		if err != nil {
			return nil, err
		}
	case "speakers":
		list, err := h.Speakers.List(ctx, snapshotLimit, 0)
		if err != nil {
			return nil, err
		}
		docs = anySlice(list)
	case "gifts":
		list, err := h.Gifts.List(ctx, snapshotLimit, 0)
		if err != nil {
			return nil, err
		}
		docs = anySlice(list)
	}

	out := make([][]byte, 0, len(docs))
	for _, d := range docs {
		b, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}
