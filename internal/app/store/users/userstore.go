// internal/app/store/users/userstore.go
package userstore

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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrBadRole        = errors.New(`role must be "admin"|"organizer"|"assistant"|"editor"`)
	ErrBadStatus      = errors.New(`status must be "active"|"invited"|"disabled"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Status == "" {
		u.Status = status.Active
	}

	if !status.IsValidRole(u.Role) {
		return models.User{}, ErrBadRole
	}
	if !status.IsValidUser(u.Status) {
		return models.User{}, ErrBadStatus
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// CreatePlaceholder inserts an "invited" placeholder profile for an email
// that does not yet correspond to a real account, so the person shows up in
// member lists before they ever sign in.
func (s *Store) CreatePlaceholder(ctx context.Context, fullName, email, role string) (models.User, error) {
	return s.Create(ctx, models.User{
		FullName: fullName,
		Email:    email,
		Role:     role,
		Status:   status.Invited,
	})
}

// ProfileUpdate holds the fields a user may edit on their own profile.
type ProfileUpdate struct {
	FullName    string
	PhotoURL    *string
	PhoneNumber *string
	Notify      *models.NotificationPrefs
}

// UpdateProfile merges the given profile fields and stamps updated_at.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{"updated_at": time.Now()}
	if name := normalize.Name(upd.FullName); name != "" {
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if upd.PhotoURL != nil {
		set["photo_url"] = *upd.PhotoURL
	}
	if upd.PhoneNumber != nil {
		set["phone_number"] = normalize.Phone(*upd.PhoneNumber)
	}
	if upd.Notify != nil {
		set["notify"] = *upd.Notify
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SyncProviderFields writes display name and photo discovered from the
// identity provider onto the profile, but only where the profile is missing
// them. The sync is one-way: provider to profile, never back.
func (s *Store) SyncProviderFields(ctx context.Context, id primitive.ObjectID, displayName, photoURL string) error {
	set := bson.M{}
	displayName = normalize.Name(displayName)

	var existing models.User
	proj := options.FindOne().SetProjection(bson.M{"full_name": 1, "photo_url": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&existing); err != nil {
		return err
	}
	if existing.FullName == "" && displayName != "" {
		set["full_name"] = displayName
		set["full_name_ci"] = text.Fold(displayName)
	}
	if existing.PhotoURL == "" && photoURL != "" {
		set["photo_url"] = photoURL
	}
	if len(set) == 0 {
		return nil
	}
	set["updated_at"] = time.Now()
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetRole changes a user's role after validating it against the closed set.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if !status.IsValidRole(role) {
		return ErrBadRole
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now(),
	}})
	return err
}

// SetStatus changes a user's status after validating it against the closed set.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, stat string) error {
	stat = normalize.Status(stat)
	if !status.IsValidUser(stat) {
		return ErrBadStatus
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     stat,
		"updated_at": time.Now(),
	}})
	return err
}

// Activate marks an invited placeholder as a real active account and records
// how the person authenticates.
func (s *Store) Activate(ctx context.Context, id primitive.ObjectID, authMethod, passwordHash string) error {
	set := bson.M{
		"status":      status.Active,
		"auth_method": authMethod,
		"updated_at":  time.Now(),
	}
	if passwordHash != "" {
		set["password_hash"] = passwordHash
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns users ordered by name, optionally filtered to one status.
func (s *Store) List(ctx context.Context, stat string, limit, offset int64) ([]models.User, error) {
	filter := bson.M{}
	if stat != "" {
		filter["status"] = normalize.Status(stat)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Search lists users whose folded name or email starts with q, optionally
// narrowed to one role and/or status. Prefix ranges keep both lookups on the
// existing indexes.
func (s *Store) Search(ctx context.Context, q, role, stat string, limit, offset int64) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = normalize.Role(role)
	}
	if stat != "" {
		filter["status"] = normalize.Status(stat)
	}
	if q != "" {
		nameLo := text.Fold(q)
		emailLo := normalize.Email(q)
		filter["$or"] = []bson.M{
			{"full_name_ci": bson.M{"$gte": nameLo, "$lt": nameLo + "￿"}},
			{"email": bson.M{"$gte": emailLo, "$lt": emailLo + "￿"}},
		}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
