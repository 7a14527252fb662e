// internal/domain/models/subscriptionline.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionLine is one contact's registration to a session. It is
// written by the registration system; the workflow reads it and signals
// done/cancel on it.
type SubscriptionLine struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	SubscriptionID primitive.ObjectID `bson:"subscription_id" json:"subscription_id"`
	SessionID      primitive.ObjectID `bson:"session_id" json:"session_id"`
	ContactID      primitive.ObjectID `bson:"contact_id" json:"contact_id"`
	ContactName    string             `bson:"contact_name" json:"contact_name"`
	Email          string             `bson:"email" json:"email"`
	State          string             `bson:"state" json:"state"`
	InvoiceLineID  string             `bson:"invoice_line_id,omitempty" json:"invoice_line_id,omitempty"`
}

// Counted reports whether the line counts toward a headcount.
func (l SubscriptionLine) Counted() bool {
	return l.State == SubscriptionConfirmed || l.State == SubscriptionDone
}
