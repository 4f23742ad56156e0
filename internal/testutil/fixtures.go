// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role and status "active".
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, role, "active")
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateOrganizerUser creates a test organizer user.
func (f *Fixtures) CreateOrganizerUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "organizer")
}

// CreatePlaceholderUser creates a user with status "invited", the shape an
// invitation leaves behind before the invitee signs up.
func (f *Fixtures) CreatePlaceholderUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, role, "invited")
}

// CreateDisabledUser creates a user that may not sign in.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, "assistant", "disabled")
}

func (f *Fixtures) createUser(ctx context.Context, fullName, email, role, status string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      text.Fold(email),
		AuthMethod: "password",
		Role:       role,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateProject creates a test project owned by ownerID with status "active".
func (f *Fixtures) CreateProject(ctx context.Context, name string, ownerID primitive.ObjectID, memberIDs ...primitive.ObjectID) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		OwnerID:   ownerID,
		MemberIDs: memberIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// CreateTask creates a test task in the given project with the given status.
func (f *Fixtures) CreateTask(ctx context.Context, title string, project models.Project, userID primitive.ObjectID, status string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		Status:      status,
		Priority:    "medium",
		ProjectID:   project.ID,
		ProjectName: project.Name,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateEvent creates a published free event starting tomorrow.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, ownerID primitive.ObjectID) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		Status:    "published",
		StartsAt:  now.Add(24 * time.Hour),
		EndsAt:    now.Add(26 * time.Hour),
		Capacity:  100,
		PriceType: "free",
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateSpeaker creates a test speaker with status "invited".
func (f *Fixtures) CreateSpeaker(ctx context.Context, fullName, email string) models.Speaker {
	f.t.Helper()

	now := time.Now().UTC()
	sp := models.Speaker{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      text.Fold(email),
		Status:     "invited",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("speakers").InsertOne(ctx, sp); err != nil {
		f.t.Fatalf("failed to create test speaker: %v", err)
	}
	return sp
}

// CreateGift creates a test gift with the given stock quantity.
func (f *Fixtures) CreateGift(ctx context.Context, name string, quantity int) models.Gift {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Gift{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("gifts").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test gift: %v", err)
	}
	return g
}

// CreateInvitation creates a pending project invitation addressed to email.
func (f *Fixtures) CreateInvitation(ctx context.Context, email, role string, projectID, inviterID primitive.ObjectID) models.Invitation {
	f.t.Helper()

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:        primitive.NewObjectID(),
		Token:     uuid.NewString(),
		Type:      models.InviteTypeProject,
		Email:     text.Fold(email),
		Role:      role,
		ProjectID: &projectID,
		InviterID: inviterID,
		Status:    "pending",
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}

	if _, err := f.db.Collection("invitations").InsertOne(ctx, inv); err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}
	return inv
}
