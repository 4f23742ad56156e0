// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a scheduled gathering with an embedded agenda.
//
// The agenda lives only on the event document; individual items are added and
// removed with $push/$pull so there is one canonical representation to read.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"title_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      string             `bson:"status" json:"status"` // draft | published | cancelled

	StartsAt time.Time `bson:"starts_at" json:"starts_at"`
	EndsAt   time.Time `bson:"ends_at" json:"ends_at"`

	Venue    string `bson:"venue,omitempty" json:"venue,omitempty"`
	Address  string `bson:"address,omitempty" json:"address,omitempty"`
	Capacity int    `bson:"capacity" json:"capacity"`

	PriceType     string  `bson:"price_type" json:"price_type"` // free | paid
	PriceUSDT     float64 `bson:"price_usdt,omitempty" json:"price_usdt,omitempty"`
	WalletAddress string  `bson:"wallet_address,omitempty" json:"wallet_address,omitempty"`

	CoverURL   string               `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
	SpeakerIDs []primitive.ObjectID `bson:"speaker_ids,omitempty" json:"speaker_ids,omitempty"`
	Agenda     []AgendaItem         `bson:"agenda,omitempty" json:"agenda,omitempty"`

	OwnerID primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AgendaItem is a single slot in an event's schedule.
type AgendaItem struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	StartsAt    time.Time           `bson:"starts_at" json:"starts_at"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	SpeakerID   *primitive.ObjectID `bson:"speaker_id,omitempty" json:"speaker_id,omitempty"`
}
