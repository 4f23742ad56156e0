// internal/app/store/gifts/giftstore.go
package giftstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c          *mongo.Collection
	deliveries *mongo.Collection
}

var (
	errNoName = errors.New("gift name cannot be empty")
	// ErrOutOfStock is returned when recording a delivery would take the
	// gift's quantity below zero.
	ErrOutOfStock = errors.New("gift is out of stock")
)

func New(db *mongo.Database) *Store {
	return &Store{
		c:          db.Collection("gifts"),
		deliveries: db.Collection("gift_deliveries"),
	}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Gift, error) {
	var g models.Gift
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Gift{}, err
	}
	return g, nil
}

// Create inserts a new gift.
func (s *Store) Create(ctx context.Context, g models.Gift) (models.Gift, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Name = normalize.Name(g.Name)
	g.NameCI = text.Fold(g.Name)
	if g.Name == "" {
		return models.Gift{}, errNoName
	}
	if g.Quantity < 0 {
		g.Quantity = 0
	}
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Gift{}, err
	}
	return g, nil
}

// Update holds the mutable gift fields. Nil pointers are left untouched.
type Update struct {
	Name        *string
	Description *string
	PhotoURL    *string
	Quantity    *int
}

// UpdateInfo merges the given fields and stamps updated_at.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		if name == "" {
			return errNoName
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.PhotoURL != nil {
		set["photo_url"] = *upd.PhotoURL
	}
	if upd.Quantity != nil && *upd.Quantity >= 0 {
		set["quantity"] = *upd.Quantity
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Delete removes a gift by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns gifts ordered by name.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.Gift, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var gifts []models.Gift
	if err := cur.All(ctx, &gifts); err != nil {
		return nil, err
	}
	return gifts, nil
}

// RecordDelivery decrements stock and writes the delivery receipt. The
// decrement uses a guarded update so stock never goes negative; the receipt
// insert is a separate write that can in principle be lost after the
// decrement succeeds, which is tolerated the same way progress recomputation
// tolerates its non-atomic follow-up.
func (s *Store) RecordDelivery(ctx context.Context, d models.GiftDelivery) (models.GiftDelivery, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": d.GiftID, "quantity": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"quantity": -1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return models.GiftDelivery{}, err
	}
	if res.ModifiedCount == 0 {
		return models.GiftDelivery{}, ErrOutOfStock
	}

	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	if d.DeliveredAt.IsZero() {
		d.DeliveredAt = now
	}
	d.CreatedAt = now
	if _, err := s.deliveries.InsertOne(ctx, d); err != nil {
		return models.GiftDelivery{}, err
	}
	return d, nil
}

// ListDeliveriesByEvent returns the delivery receipts for one event.
func (s *Store) ListDeliveriesByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.GiftDelivery, error) {
	opts := options.Find().SetSort(bson.D{{Key: "delivered_at", Value: -1}})
	cur, err := s.deliveries.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GiftDelivery
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDeliveriesByUser returns the gifts a user has received.
func (s *Store) ListDeliveriesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.GiftDelivery, error) {
	opts := options.Find().SetSort(bson.D{{Key: "delivered_at", Value: -1}})
	cur, err := s.deliveries.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GiftDelivery
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
