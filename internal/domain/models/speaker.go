// internal/domain/models/speaker.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Speaker is a person presenting at events. Speakers are usually invited
// before they have an account; UserID is filled in once someone registers
// with a matching email.
type Speaker struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"`
	Email      string             `bson:"email" json:"email"`
	Expertise  string             `bson:"expertise,omitempty" json:"expertise,omitempty"`
	Bio        string             `bson:"bio,omitempty" json:"bio,omitempty"`
	PhotoURL   string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Status     string             `bson:"status" json:"status"` // invited | active

	Social SocialLinks         `bson:"social,omitempty" json:"social,omitempty"`
	UserID *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SocialLinks holds a speaker's public profiles.
type SocialLinks struct {
	Twitter  string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	LinkedIn string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Website  string `bson:"website,omitempty" json:"website,omitempty"`
}
