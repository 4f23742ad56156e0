// internal/app/store/events/agenda.go
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The agenda is stored only as the embedded array on the event document.
// Item-level mutations go through $push/$pull so concurrent edits to
// different items never clobber each other.

var errNoAgendaTitle = errors.New("agenda item title cannot be empty")

// AddAgendaItem appends an item to the event's agenda and returns it with its
// assigned id.
func (s *Store) AddAgendaItem(ctx context.Context, eventID primitive.ObjectID, item models.AgendaItem) (models.AgendaItem, error) {
	item.ID = primitive.NewObjectID()
	item.Title = normalize.Name(item.Title)
	if item.Title == "" {
		return models.AgendaItem{}, errNoAgendaTitle
	}
	_, err := s.c.UpdateByID(ctx, eventID, bson.M{
		"$push": bson.M{"agenda": item},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return models.AgendaItem{}, err
	}
	return item, nil
}

// UpdateAgendaItem rewrites one agenda item in place, matched by its id.
func (s *Store) UpdateAgendaItem(ctx context.Context, eventID primitive.ObjectID, item models.AgendaItem) error {
	item.Title = normalize.Name(item.Title)
	if item.Title == "" {
		return errNoAgendaTitle
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": eventID, "agenda._id": item.ID},
		bson.M{"$set": bson.M{
			"agenda.$":   item,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAgendaItemNotFound
	}
	return nil
}

// ErrAgendaItemNotFound is returned when the agenda item id does not exist on
// the event.
var ErrAgendaItemNotFound = errors.New("agenda item not found")

// RemoveAgendaItem deletes one agenda item by id.
func (s *Store) RemoveAgendaItem(ctx context.Context, eventID, itemID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, eventID, bson.M{
		"$pull": bson.M{"agenda": bson.M{"_id": itemID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}
