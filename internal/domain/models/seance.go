// internal/domain/models/seance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Quantity rules for purchase-line templates.
const (
	// QuantityFixed orders the base quantity once for the whole batch.
	QuantityFixed = "fix"
	// QuantityBySubscription multiplies the base quantity by the number of
	// participations in the batch (or the manual headcount).
	QuantityBySubscription = "by_subscription"
)

// Seance is one bookable class meeting. The sessions containing it are
// found through Session.SeanceIDs.
type Seance struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name" validate:"required"`
	State    SeanceState        `bson:"state" json:"state"`
	Kind     string             `bson:"kind" json:"kind"`
	Date     time.Time          `bson:"date" json:"date" validate:"required"`
	Duration float64            `bson:"duration" json:"duration" validate:"gte=0"`

	MinLimit int `bson:"min_limit" json:"min_limit" validate:"gte=0,ltefield=MaxLimit"`
	MaxLimit int `bson:"max_limit" json:"max_limit" validate:"gte=0"`

	Manual      bool `bson:"manual" json:"manual"`
	ManualCount int  `bson:"participant_count_manual" json:"participant_count_manual" validate:"gte=0"`

	GroupID  *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	CourseID *primitive.ObjectID `bson:"course_id,omitempty" json:"course_id,omitempty"`

	// MasterID points at the seance this one continues when a course is
	// split across several time slots.
	MasterID          *primitive.ObjectID `bson:"master_id,omitempty" json:"master_id,omitempty"`
	OriginalSessionID *primitive.ObjectID `bson:"original_session_id,omitempty" json:"original_session_id,omitempty"`
	Duplicata         bool                `bson:"duplicata" json:"duplicata"`
	Duplicated        bool                `bson:"duplicated" json:"duplicated"`
	IsFirstSeance     bool                `bson:"is_first_seance" json:"is_first_seance"`
	ForcedLecturer    bool                `bson:"forced_lecturer" json:"forced_lecturer"`

	PurchaseLines []PurchaseLine `bson:"purchase_lines" json:"purchase_lines" validate:"dive"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CourseKey returns the course id used when grouping seances for capacity,
// or the zero id for seances without a course.
func (s Seance) CourseKey() primitive.ObjectID {
	if s.CourseID == nil {
		return primitive.NilObjectID
	}
	return *s.CourseID
}

// PurchaseLine is a procurement rule attached to a seance: what to order,
// from whom, and how the quantity scales.
type PurchaseLine struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	ProductID   primitive.ObjectID   `bson:"product_id" json:"product_id"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Quantity    float64              `bson:"quantity" json:"quantity" validate:"gte=0"`
	Fix         string               `bson:"fix" json:"fix" validate:"omitempty,oneof=fix by_subscription"`
	SupplierIDs []primitive.ObjectID `bson:"supplier_ids" json:"supplier_ids"`

	// ProcurementID is the purchase order most recently issued for this
	// template. A confirmed seance with a procurement cannot be deleted.
	ProcurementID string `bson:"procurement_id,omitempty" json:"procurement_id,omitempty"`
}
