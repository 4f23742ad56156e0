// internal/app/store/speakers/speakerstore.go
package speakerstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	ErrDuplicateEmail = errors.New("a speaker with this email already exists")
	errBadStatus      = errors.New(`status must be "invited"|"active"`)
	errNoName         = errors.New("speaker name cannot be empty")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("speakers")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Speaker, error) {
	var sp models.Speaker
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sp); err != nil {
		return models.Speaker{}, err
	}
	return sp, nil
}

// GetByEmail looks up a speaker by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Speaker, error) {
	var sp models.Speaker
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&sp)
	if err != nil {
		return models.Speaker{}, err
	}
	return sp, nil
}

// Create inserts a new speaker, defaulting to "invited" until the person
// links an account.
func (s *Store) Create(ctx context.Context, sp models.Speaker) (models.Speaker, error) {
	now := time.Now().UTC()
	sp.ID = primitive.NewObjectID()
	sp.FullName = normalize.Name(sp.FullName)
	sp.FullNameCI = text.Fold(sp.FullName)
	sp.Email = normalize.Email(sp.Email)
	if sp.FullName == "" {
		return models.Speaker{}, errNoName
	}
	if sp.Status == "" {
		sp.Status = status.SpeakerInvited
	}
	if !status.IsValidSpeaker(sp.Status) {
		return models.Speaker{}, errBadStatus
	}
	sp.CreatedAt = now
	sp.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, sp); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Speaker{}, ErrDuplicateEmail
		}
		return models.Speaker{}, err
	}
	return sp, nil
}

// Update holds the mutable speaker fields. Nil pointers are left untouched.
type Update struct {
	FullName  *string
	Expertise *string
	Bio       *string
	PhotoURL  *string
	Social    *models.SocialLinks
}

// UpdateInfo merges the given fields and stamps updated_at.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.FullName != nil {
		name := normalize.Name(*upd.FullName)
		if name == "" {
			return errNoName
		}
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if upd.Expertise != nil {
		set["expertise"] = *upd.Expertise
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.PhotoURL != nil {
		set["photo_url"] = *upd.PhotoURL
	}
	if upd.Social != nil {
		set["social"] = *upd.Social
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// LinkUser attaches a real account to an invited speaker and activates them.
// Matched by email at registration time.
func (s *Store) LinkUser(ctx context.Context, email string, userID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": normalize.Email(email), "user_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			"user_id":    userID,
			"status":     status.SpeakerActive,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// Delete removes a speaker by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns speakers ordered by name.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.Speaker, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var speakers []models.Speaker
	if err := cur.All(ctx, &speakers); err != nil {
		return nil, err
	}
	return speakers, nil
}
