// internal/app/store/registrations/registrationstore.go
package registrationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrAlreadyRegistered is returned when the (event, user) pair already
	// has a registration. The unique compound index enforces idempotence.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	errBadStatus         = errors.New(`status must be "pending_payment"|"confirmed"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registrations")}
}

// Create registers a user for an event. Registering twice for the same event
// is rejected by the unique (event_id, user_id) index, never duplicated.
func (s *Store) Create(ctx context.Context, reg models.Registration) (models.Registration, error) {
	now := time.Now().UTC()
	reg.ID = primitive.NewObjectID()
	if reg.Status == "" {
		reg.Status = status.RegConfirmed
	}
	if !status.IsValidRegistration(reg.Status) {
		return models.Registration{}, errBadStatus
	}
	reg.CreatedAt = now
	reg.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, reg); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Registration{}, ErrAlreadyRegistered
		}
		return models.Registration{}, err
	}
	return reg, nil
}

// Get returns the registration for the (event, user) pair.
func (s *Store) Get(ctx context.Context, eventID, userID primitive.ObjectID) (models.Registration, error) {
	var reg models.Registration
	err := s.c.FindOne(ctx, bson.M{"event_id": eventID, "user_id": userID}).Decode(&reg)
	if err != nil {
		return models.Registration{}, err
	}
	return reg, nil
}

// Confirm marks a pending registration paid with the given amount.
func (s *Store) Confirm(ctx context.Context, eventID, userID primitive.ObjectID, amount float64) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"event_id": eventID, "user_id": userID},
		bson.M{"$set": bson.M{
			"status":      status.RegConfirmed,
			"amount_usdt": amount,
			"updated_at":  time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Cancel removes the user's registration for the event.
func (s *Store) Cancel(ctx context.Context, eventID, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"event_id": eventID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByEvent returns all registrations for an event, oldest first.
func (s *Store) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var regs []models.Registration
	if err := cur.All(ctx, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// ListByUser returns the user's registrations, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var regs []models.Registration
	if err := cur.All(ctx, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// CountByEvent returns how many registrations an event has.
func (s *Store) CountByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"event_id": eventID})
}
