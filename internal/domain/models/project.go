// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeneralProjectID is the well-known id of the catch-all "General" project.
// Tasks filed under it never trigger progress recomputation, and the project
// itself can never be deleted.
var GeneralProjectID = primitive.ObjectID{'g', 'e', 'n', 'e', 'r', 'a', 'l', '-', 'p', 'r', 'o', 'j'}

// Project groups tasks under an owner and a member list. Progress is a derived
// value: the rounded percentage of the project's tasks with status "done". It
// is recomputed after every task mutation, not maintained transactionally, so
// it is approximately rather than strictly consistent.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Status      string             `bson:"status" json:"status"` // planning | active | on-hold | completed
	Progress    int                `bson:"progress" json:"progress"`

	OwnerID   primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	MemberIDs []primitive.ObjectID `bson:"member_ids,omitempty" json:"member_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsGeneral reports whether this is the reserved catch-all project.
func (p Project) IsGeneral() bool {
	return p.ID == GeneralProjectID
}
