// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents every account the system knows about: admins, organizers,
// assistants, and editors. Placeholder accounts created by invitations carry
// status "invited" until the real person signs in.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName    string             `bson:"full_name" json:"full_name"`
	FullNameCI  string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email       string             `bson:"email" json:"email"`
	PhotoURL    string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	PhoneNumber string             `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	AuthMethod  string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"`
	Role        string             `bson:"role" json:"role"`     // admin | organizer | assistant | editor
	Status      string             `bson:"status" json:"status"` // active | invited | disabled

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Notify NotificationPrefs `bson:"notify" json:"notify"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NotificationPrefs controls which email notifications a user receives.
type NotificationPrefs struct {
	ProjectActivity bool `bson:"project_activity" json:"project_activity"`
	TaskReminders   bool `bson:"task_reminders" json:"task_reminders"`
	EventReminders  bool `bson:"event_reminders" json:"event_reminders"`
}
