// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a parallel capacity track inside a session. It is owned by
// exactly one session and deleted with it. Its seances are the seances of
// that session whose GroupID points at it.
type Group struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name" validate:"required"`
	NameCI    string             `bson:"name_ci" json:"name_ci"`
	SessionID primitive.ObjectID `bson:"session_id" json:"session_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
