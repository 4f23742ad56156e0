// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	errBadStatus    = errors.New(`status must be "draft"|"published"|"cancelled"`)
	errBadPriceType = errors.New(`price type must be "free"|"paid"`)
	errNoTitle      = errors.New("event title cannot be empty")
	errPaidNoWallet = errors.New("paid events need a price and wallet address")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// Create inserts a new event as a draft unless a status is supplied.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Title = normalize.Name(e.Title)
	e.TitleCI = text.Fold(e.Title)
	if e.Title == "" {
		return models.Event{}, errNoTitle
	}
	if e.Status == "" {
		e.Status = status.EventDraft
	}
	if e.PriceType == "" {
		e.PriceType = status.PriceFree
	}
	if !status.IsValidEvent(e.Status) {
		return models.Event{}, errBadStatus
	}
	if !status.IsValidPriceType(e.PriceType) {
		return models.Event{}, errBadPriceType
	}
	if e.PriceType == status.PricePaid && (e.PriceUSDT <= 0 || e.WalletAddress == "") {
		return models.Event{}, errPaidNoWallet
	}
	for i := range e.Agenda {
		if e.Agenda[i].ID.IsZero() {
			e.Agenda[i].ID = primitive.NewObjectID()
		}
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// Update holds the mutable event fields. Nil pointers are left untouched.
type Update struct {
	Title         *string
	Description   *string
	Status        *string
	StartsAt      *time.Time
	EndsAt        *time.Time
	Venue         *string
	Address       *string
	Capacity      *int
	PriceType     *string
	PriceUSDT     *float64
	WalletAddress *string
	CoverURL      *string
}

// UpdateInfo merges the given fields and stamps updated_at.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		title := normalize.Name(*upd.Title)
		if title == "" {
			return errNoTitle
		}
		set["title"] = title
		set["title_ci"] = text.Fold(title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Status != nil {
		stat := normalize.Status(*upd.Status)
		if !status.IsValidEvent(stat) {
			return errBadStatus
		}
		set["status"] = stat
	}
	if upd.StartsAt != nil {
		set["starts_at"] = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		set["ends_at"] = *upd.EndsAt
	}
	if upd.Venue != nil {
		set["venue"] = *upd.Venue
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.Capacity != nil {
		set["capacity"] = *upd.Capacity
	}
	if upd.PriceType != nil {
		pt := normalize.Status(*upd.PriceType)
		if !status.IsValidPriceType(pt) {
			return errBadPriceType
		}
		set["price_type"] = pt
	}
	if upd.PriceUSDT != nil {
		set["price_usdt"] = *upd.PriceUSDT
	}
	if upd.WalletAddress != nil {
		set["wallet_address"] = *upd.WalletAddress
	}
	if upd.CoverURL != nil {
		set["cover_url"] = *upd.CoverURL
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Delete removes an event by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListPublished returns published events ordered by start time. Public surface.
func (s *Store) ListPublished(ctx context.Context, limit, offset int64) ([]models.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "starts_at", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	return s.find(ctx, bson.M{"status": status.EventPublished}, opts)
}

// ListAll returns every event, newest first. Organizer surface.
func (s *Store) ListAll(ctx context.Context, limit, offset int64) ([]models.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	return s.find(ctx, bson.M{}, opts)
}

// AddSpeaker attaches a speaker to the event, once.
func (s *Store) AddSpeaker(ctx context.Context, id, speakerID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"speaker_ids": speakerID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveSpeaker detaches a speaker from the event.
func (s *Store) RemoveSpeaker(ctx context.Context, id, speakerID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"speaker_ids": speakerID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
