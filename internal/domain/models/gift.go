// internal/domain/models/gift.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gift is an inventory item handed out at events.
type Gift struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	PhotoURL    string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Quantity    int                `bson:"quantity" json:"quantity"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GiftDelivery is a receipt linking a gift to the user it was handed to at a
// given event.
type GiftDelivery struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GiftID  primitive.ObjectID `bson:"gift_id" json:"gift_id"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	EventID primitive.ObjectID `bson:"event_id" json:"event_id"`
	Note    string             `bson:"note,omitempty" json:"note,omitempty"`

	DeliveredAt time.Time `bson:"delivered_at" json:"delivered_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
