// internal/domain/models/participation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participation links one subscription line (one contact's registration)
// to one seance. Exactly one document per (seance_id, subscription_line_id).
type Participation struct {
	ID                 primitive.ObjectID `bson:"_id" json:"id"`
	SeanceID           primitive.ObjectID `bson:"seance_id" json:"seance_id"`
	SubscriptionLineID primitive.ObjectID `bson:"subscription_line_id" json:"subscription_line_id"`
	ContactID          primitive.ObjectID `bson:"contact_id" json:"contact_id"` // copied from the subscription line
	Present            bool               `bson:"present" json:"present"`
	Summary            string             `bson:"summary,omitempty" json:"summary,omitempty"`

	// PurchaseLineRefs are the purchase-order-line references created for
	// this participation when its seance was confirmed.
	PurchaseLineRefs []string `bson:"purchase_line_refs" json:"purchase_line_refs"`
	PurchaseState    string   `bson:"purchase_state" json:"purchase_state"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
