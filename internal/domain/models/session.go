// internal/domain/models/session.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is a scheduled instance of an offer.
//
// NOTE:
//   - SeanceIDs is the authoritative session/seance relation. A seance
//     may appear in several sessions (a "shared" seance).
//   - MinLimit/MaxLimit are cached results of the capacity engine and are
//     rewritten whenever seance membership, seance limits or group
//     assignment change.
type Session struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	Name      string               `bson:"name" json:"name" validate:"required"`
	State     SessionState         `bson:"state" json:"state"`
	OfferID   primitive.ObjectID   `bson:"offer_id" json:"offer_id"`
	SeanceIDs []primitive.ObjectID `bson:"seance_ids" json:"seance_ids"`

	Manual      bool `bson:"manual" json:"manual"`
	ManualCount int  `bson:"participant_count_manual" json:"participant_count_manual" validate:"gte=0"`

	MinLimit int `bson:"min_limit" json:"min_limit"`
	MaxLimit int `bson:"max_limit" json:"max_limit"`

	Date    time.Time  `bson:"date" json:"date" validate:"required"`
	DateEnd *time.Time `bson:"date_end,omitempty" json:"date_end,omitempty"`

	// Notes is operator-authored HTML included in participant emails.
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasSeance reports whether id is one of the session's seances.
func (s Session) HasSeance(id primitive.ObjectID) bool {
	for _, sid := range s.SeanceIDs {
		if sid == id {
			return true
		}
	}
	return false
}
