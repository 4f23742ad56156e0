// internal/app/store/tasks/taskstore.go
package taskstore

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

// maxProjectFilter caps the $in clause when listing tasks across a user's
// projects. Queries with membership filters are limited to 30 values.
const maxProjectFilter = 30

type Store struct {
	c *mongo.Collection
}

var (
	errBadStatus   = errors.New(`status must be "todo"|"in-progress"|"review"|"blocked"|"done"`)
	errBadPriority = errors.New(`priority must be "low"|"medium"|"high"`)
	errNoTitle     = errors.New("task title cannot be empty")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Create inserts a new task. ProjectName is the denormalized name cached at
// creation time; the caller passes the current project name.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Title = normalize.Name(t.Title)
	t.TitleCI = text.Fold(t.Title)
	if t.Title == "" {
		return models.Task{}, errNoTitle
	}
	if t.Status == "" {
		t.Status = status.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = status.PriorityMedium
	}
	if !status.IsValidTask(t.Status) {
		return models.Task{}, errBadStatus
	}
	if !status.IsValidPriority(t.Priority) {
		return models.Task{}, errBadPriority
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Update holds the mutable task fields. Nil pointers are left untouched.
// There is no optimistic-concurrency check: the last writer wins.
type Update struct {
	Title    *string
	Status   *string
	Priority *string
	DueDate  *time.Time
	ClearDue bool
}

// UpdateInfo merges the given fields and stamps updated_at.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if upd.Title != nil {
		title := normalize.Name(*upd.Title)
		if title == "" {
			return errNoTitle
		}
		set["title"] = title
		set["title_ci"] = text.Fold(title)
	}
	if upd.Status != nil {
		stat := normalize.Status(*upd.Status)
		if !status.IsValidTask(stat) {
			return errBadStatus
		}
		set["status"] = stat
	}
	if upd.Priority != nil {
		pri := normalize.Status(*upd.Priority)
		if !status.IsValidPriority(pri) {
			return errBadPriority
		}
		set["priority"] = pri
	}
	if upd.DueDate != nil {
		set["due_date"] = *upd.DueDate
	} else if upd.ClearDue {
		unset["due_date"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

// Delete removes a task by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListAll returns every task, newest first. Admin callers only.
func (s *Store) ListAll(ctx context.Context, limit, offset int64) ([]models.Task, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	return s.find(ctx, bson.M{}, opts)
}

// ListForUser returns tasks the user owns plus tasks in the given projects
// (their memberships), newest first. The project clause is capped at
// maxProjectFilter ids; callers pass the most recent memberships first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, projectIDs []primitive.ObjectID, limit, offset int64) ([]models.Task, error) {
	if len(projectIDs) > maxProjectFilter {
		projectIDs = projectIDs[:maxProjectFilter]
	}
	or := []bson.M{{"user_id": userID}}
	if len(projectIDs) > 0 {
		or = append(or, bson.M{"project_id": bson.M{"$in": projectIDs}})
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	return s.find(ctx, bson.M{"$or": or}, opts)
}

// ListByProject returns all tasks for one project, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.find(ctx, bson.M{"project_id": projectID}, opts)
}

// CountByProject returns the total and done task counts for a project in a
// single aggregation read.
func (s *Store) CountByProject(ctx context.Context, projectID primitive.ObjectID) (total, done int64, err error) {
	total, err = s.c.CountDocuments(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, 0, err
	}
	done, err = s.c.CountDocuments(ctx, bson.M{
		"project_id": projectID,
		"status":     status.TaskDone,
	})
	if err != nil {
		return 0, 0, err
	}
	return total, done, nil
}

// RefreshProjectName rewrites the denormalized project name on every task of
// the project. Called by the reconciliation sweep and after project renames.
func (s *Store) RefreshProjectName(ctx context.Context, projectID primitive.ObjectID, name string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"project_id": projectID, "project_name": bson.M{"$ne": name}},
		bson.M{"$set": bson.M{"project_name": name}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DistinctProjectIDs returns every project id that has at least one task.
func (s *Store) DistinctProjectIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	raw, err := s.c.Distinct(ctx, "project_id", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
