// internal/app/store/invitations/invitationstore.go
package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrDuplicatePending is returned when a pending invitation for the same
	// (project, email) pair already exists.
	ErrDuplicatePending = errors.New("a pending invitation for this email already exists")
	errBadRole          = errors.New(`role must be "admin"|"organizer"|"assistant"|"editor"`)
	errBadType          = errors.New(`type must be "project"|"team"|"speaker"`)
)

// DefaultTTL is how long an invitation stays acceptable.
const DefaultTTL = 7 * 24 * time.Hour

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invitations")}
}

// Create writes a pending invitation with a fresh token. Duplicate pending
// invitations for the same (project, email) pair are rejected by the partial
// unique index.
func (s *Store) Create(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	now := time.Now().UTC()
	inv.ID = primitive.NewObjectID()
	inv.Token = uuid.NewString()
	inv.Email = normalize.Email(inv.Email)
	inv.Role = normalize.Role(inv.Role)
	inv.Status = status.InvitePending

	switch inv.Type {
	case models.InviteTypeProject, models.InviteTypeTeam, models.InviteTypeSpeaker:
	default:
		return models.Invitation{}, errBadType
	}
	if !status.IsValidRole(inv.Role) {
		return models.Invitation{}, errBadRole
	}
	if inv.Type == models.InviteTypeProject && inv.ProjectID == nil {
		return models.Invitation{}, errors.New("project invitation needs a project id")
	}

	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.ExpiresAt.IsZero() {
		inv.ExpiresAt = now.Add(DefaultTTL)
	}

	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Invitation{}, ErrDuplicatePending
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

// GetByToken loads an invitation by its token.
func (s *Store) GetByToken(ctx context.Context, token string) (models.Invitation, error) {
	var inv models.Invitation
	if err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&inv); err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// PendingByEmail returns every pending, unexpired invitation for the email.
func (s *Store) PendingByEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	filter := bson.M{
		"email":      normalize.Email(email),
		"status":     status.InvitePending,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invs []models.Invitation
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

// SetStatus moves an invitation to accepted or declined.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, stat string) error {
	if stat != status.InviteAccepted && stat != status.InviteDeclined {
		return errors.New(`status must be "accepted"|"declined"`)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     stat,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByProject returns a project's invitations, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Invitation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invs []models.Invitation
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

// ExpirePending declines every pending invitation past its expiry. Returns
// how many were expired; called by the background sweep.
func (s *Store) ExpirePending(ctx context.Context) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"status":     status.InvitePending,
			"expires_at": bson.M{"$lte": time.Now().UTC()},
		},
		bson.M{"$set": bson.M{
			"status":     status.InviteDeclined,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
