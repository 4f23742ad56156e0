// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"strings"
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
	ErrDuplicateName = errors.New("a project with this name already exists")
	// ErrGeneralProject is returned for destructive operations on the
	// reserved catch-all project.
	ErrGeneralProject = errors.New("the general project cannot be deleted")
	errBadStatus      = errors.New(`status must be "planning"|"active"|"on-hold"|"completed"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// Create inserts a new project. Progress always starts at 0; it is derived
// from tasks, never supplied by the caller.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Name = normalize.Name(p.Name)
	p.NameCI = text.Fold(p.Name)
	p.Progress = 0
	if p.Status == "" {
		p.Status = status.ProjectPlanning
	}
	if !status.IsValidProject(p.Status) {
		return models.Project{}, errBadStatus
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Project{}, ErrDuplicateName
		}
		return models.Project{}, err
	}
	return p, nil
}

// Update holds the mutable project fields. Nil pointers are left untouched.
type Update struct {
	Name        *string
	Description *string
	Category    *string
	Status      *string
}

// UpdateInfo merges the given fields and stamps updated_at. Progress is not
// settable here; use SetProgress.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		if strings.TrimSpace(name) == "" {
			return errors.New("project name cannot be empty")
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Status != nil {
		stat := normalize.Status(*upd.Status)
		if !status.IsValidProject(stat) {
			return errBadStatus
		}
		set["status"] = stat
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateName
	}
	return err
}

// SetProgress writes the derived completion percentage. Callers are expected
// to have computed it from the project's tasks; no bounds besides 0-100 are
// checked here.
func (s *Store) SetProgress(ctx context.Context, id primitive.ObjectID, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"progress":   progress,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// AddMember adds a user to the project's member list, once.
func (s *Store) AddMember(ctx context.Context, id, userID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveMember removes a user from the project's member list.
func (s *Store) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"member_ids": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// ReplaceMemberID swaps every occurrence of oldID in member lists for newID.
// Used when a placeholder profile is reconciled into a real account.
func (s *Store) ReplaceMemberID(ctx context.Context, oldID, newID primitive.ObjectID) error {
	if _, err := s.c.UpdateMany(ctx,
		bson.M{"member_ids": oldID},
		bson.M{"$addToSet": bson.M{"member_ids": newID}},
	); err != nil {
		return err
	}
	_, err := s.c.UpdateMany(ctx,
		bson.M{"member_ids": oldID},
		bson.M{"$pull": bson.M{"member_ids": oldID}},
	)
	return err
}

// Delete removes a project. The reserved general project is rejected with
// ErrGeneralProject and no state change.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	if id == models.GeneralProjectID {
		return 0, ErrGeneralProject
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListAll returns every project, newest first. Admin callers only.
func (s *Store) ListAll(ctx context.Context, limit, offset int64) ([]models.Project, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	return s.find(ctx, bson.M{}, opts)
}

// ListForUser returns projects the user owns or is a member of, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]models.Project, error) {
	filter := bson.M{"$or": []bson.M{
		{"owner_id": userID},
		{"member_ids": userID},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	return s.find(ctx, filter, opts)
}

// MemberProjectIDs returns the ids of projects the user owns or belongs to,
// capped at max entries. The cap exists because the ids feed an $in clause in
// the task query and membership filters are limited to 30 values.
func (s *Store) MemberProjectIDs(ctx context.Context, userID primitive.ObjectID, max int) ([]primitive.ObjectID, error) {
	filter := bson.M{"$or": []bson.M{
		{"owner_id": userID},
		{"member_ids": userID},
	}}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(max))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// EnsureGeneralProject creates the reserved catch-all project if it does not
// exist yet. Idempotent; called at startup.
func (s *Store) EnsureGeneralProject(ctx context.Context, ownerID primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateByID(ctx, models.GeneralProjectID,
		bson.M{"$setOnInsert": models.Project{
			ID:        models.GeneralProjectID,
			Name:      "General",
			NameCI:    "general",
			Status:    status.ProjectActive,
			OwnerID:   ownerID,
			CreatedAt: now,
			UpdatedAt: now,
		}},
		options.Update().SetUpsert(true))
	return err
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Project, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
