// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation types.
const (
	InviteTypeProject = "project"
	InviteTypeTeam    = "team"
	InviteTypeSpeaker = "speaker"
)

// Invitation represents a not-yet-accepted relationship between an email
// address and a role, optionally scoped to a project. While pending, a
// placeholder user with status "invited" stands in for the invitee so member
// lists work before they ever sign up.
type Invitation struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token string             `bson:"token" json:"token"`
	Type  string             `bson:"type" json:"type"` // project | team | speaker

	Email     string              `bson:"email" json:"email"`
	Role      string              `bson:"role" json:"role"`
	ProjectID *primitive.ObjectID `bson:"project_id,omitempty" json:"project_id,omitempty"`
	InviterID primitive.ObjectID  `bson:"inviter_id" json:"inviter_id"`

	Status string `bson:"status" json:"status"` // pending | accepted | declined

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}
