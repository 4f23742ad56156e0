// internal/app/features/stream/visibility.go
package stream

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/app/system/watch"
)

// visibilityFilter builds a hub filter matching the caller's list-endpoint
// visibility. Membership is captured once at subscribe time; a user added to
// a project mid-stream reconnects to pick up the wider view.
func (h *Handler) visibilityFilter(r *http.Request, collection string) watch.Filter {
	_, _, userID, signedIn := authz.UserCtx(r)

	switch collection {
	case "projects":
		if authz.IsAdmin(r) {
			return nil
		}
		return projectFilter(userID)
	case "tasks":
		if authz.IsAdmin(r) {
			return nil
		}
		return taskFilter(userID, h.memberProjects(r, userID, signedIn))
	case "events":
		if authz.CanManageEvents(r) {
			return nil
		}
		return publishedEventFilter()
	default:
		// Speakers and gifts are visible to every signed-in user.
		return nil
	}
}

func (h *Handler) memberProjects(r *http.Request, userID primitive.ObjectID, signedIn bool) map[primitive.ObjectID]bool {
	members := make(map[primitive.ObjectID]bool)
	if !signedIn {
		return members
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ids, err := h.Projects.MemberProjectIDs(ctx, userID, 30)
	if err != nil {
		h.Log.Warn("load member projects for stream failed",
			zap.String("user_id", userID.Hex()), zap.Error(err))
		return members
	}
	for _, id := range ids {
		members[id] = true
	}
	return members
}

// projectFilter passes projects the user owns or belongs to. Deletes carry no
// document, so they pass through; the client drops ids it never saw.
func projectFilter(userID primitive.ObjectID) watch.Filter {
	return func(c watch.Change) bool {
		if c.Doc == nil {
			return true
		}
		if oid, ok := c.Doc.Lookup("owner_id").ObjectIDOK(); ok && oid == userID {
			return true
		}
		raw, err := c.Doc.LookupErr("member_ids")
		if err != nil {
			return false
		}
		arr, ok := raw.ArrayOK()
		if !ok {
			return false
		}
		vals, err := arr.Values()
		if err != nil {
			return false
		}
		for _, v := range vals {
			if oid, ok := v.ObjectIDOK(); ok && oid == userID {
				return true
			}
		}
		return false
	}
}

// taskFilter passes the user's own tasks plus tasks in projects the user is a
// member of at subscribe time.
func taskFilter(userID primitive.ObjectID, memberProjects map[primitive.ObjectID]bool) watch.Filter {
	return func(c watch.Change) bool {
		if c.Doc == nil {
			return true
		}
		if oid, ok := c.Doc.Lookup("user_id").ObjectIDOK(); ok && oid == userID {
			return true
		}
		if oid, ok := c.Doc.Lookup("project_id").ObjectIDOK(); ok && memberProjects[oid] {
			return true
		}
		return false
	}
}

func publishedEventFilter() watch.Filter {
	return func(c watch.Change) bool {
		if c.Doc == nil {
			return true
		}
		s, ok := c.Doc.Lookup("status").StringValueOK()
		return ok && s == status.EventPublished
	}
}
