// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a unit of work inside a project.
//
// ProjectName is a denormalized copy of the owning project's name, cached at
// creation time so task lists render without a join. It can go stale when the
// project is renamed; the reconciliation sweep refreshes it.
type Task struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title    string             `bson:"title" json:"title"`
	TitleCI  string             `bson:"title_ci" json:"title_ci"`
	Status   string             `bson:"status" json:"status"`     // todo | in-progress | review | blocked | done
	Priority string             `bson:"priority" json:"priority"` // low | medium | high
	DueDate  *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`

	ProjectID   primitive.ObjectID `bson:"project_id" json:"project_id"`
	ProjectName string             `bson:"project_name" json:"project_name"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
