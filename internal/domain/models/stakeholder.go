// internal/domain/models/stakeholder.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stakeholder is a lecturer (or other staff) assigned to a seance.
type Stakeholder struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	SeanceID  primitive.ObjectID `bson:"seance_id" json:"seance_id"`
	ContactID primitive.ObjectID `bson:"contact_id" json:"contact_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	State     string             `bson:"state" json:"state"`
}

// StakeholderRequest is a staffing request raised for a session.
type StakeholderRequest struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	SessionID primitive.ObjectID `bson:"session_id" json:"session_id"`
	ContactID primitive.ObjectID `bson:"contact_id" json:"contact_id"`
	State     string             `bson:"state" json:"state"`
}
