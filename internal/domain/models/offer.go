// internal/domain/models/offer.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Offer is a validated training product and its course composition.
type Offer struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Kind      string               `bson:"kind" json:"kind"`
	State     string               `bson:"state" json:"state"`
	CourseIDs []primitive.ObjectID `bson:"course_ids" json:"course_ids"`
}
