// internal/domain/models/procurement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address types on a supplier.
const (
	AddressDelivery = "delivery"
	AddressDefault  = "default"
)

// Supplier is a vendor referenced by purchase-line templates.
type Supplier struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Addresses []Address          `bson:"addresses" json:"addresses"`
}

// Address is a supplier contact address.
type Address struct {
	Type  string `bson:"type" json:"type"`
	Email string `bson:"email" json:"email"`
}

// DeliveryEmail returns the delivery address email, falling back to the
// last default address with an email. ok is false when neither exists.
func (s Supplier) DeliveryEmail() (email string, ok bool) {
	for _, a := range s.Addresses {
		if a.Email == "" {
			continue
		}
		if a.Type == AddressDelivery {
			return a.Email, true
		}
		if a.Type == AddressDefault {
			email, ok = a.Email, true
		}
	}
	return email, ok
}

// PurchaseOrder is one order issued to the purchasing system for a
// purchase-line template.
type PurchaseOrder struct {
	ID             string             `bson:"_id" json:"id"`
	SeanceID       primitive.ObjectID `bson:"seance_id" json:"seance_id"`
	PurchaseLineID primitive.ObjectID `bson:"purchase_line_id" json:"purchase_line_id"`
	ProductID      primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity       float64            `bson:"quantity" json:"quantity"`
	LocationHint   string             `bson:"location_hint" json:"location_hint"`
	LineRefs       []string           `bson:"line_refs" json:"line_refs"`
	State          string             `bson:"state" json:"state"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// HolidayPeriod is a closed date range (inclusive) in which no seance may
// be scheduled.
type HolidayPeriod struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Start time.Time          `bson:"start" json:"start"`
	End   time.Time          `bson:"end" json:"end"`
}
