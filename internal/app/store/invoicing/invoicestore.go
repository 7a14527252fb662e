// internal/app/store/invoicing/invoicestore.go
package invoicestore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Request states.
const (
	StatePending = "pending"
)

// Request asks the accounting system to invoice one subscription line.
// InvoiceLineID is assigned here so the subscription line can point at it
// before accounting picks the request up.
type Request struct {
	ID                 primitive.ObjectID `bson:"_id"`
	InvoiceLineID      string             `bson:"invoice_line_id"`
	SessionID          primitive.ObjectID `bson:"session_id"`
	SessionName        string             `bson:"session_name"`
	SubscriptionID     primitive.ObjectID `bson:"subscription_id"`
	SubscriptionLineID primitive.ObjectID `bson:"subscription_line_id"`
	ContactID          primitive.ObjectID `bson:"contact_id"`
	State              string             `bson:"state"`
	CreatedAt          time.Time          `bson:"created_at"`
}

// Store is the invoice-request outbox.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invoice_requests")}
}

// CreateInvoices writes one pending request per line and returns the
// invoice-line reference assigned to each.
func (s *Store) CreateInvoices(ctx context.Context, session models.Session, lines []models.SubscriptionLine) (map[primitive.ObjectID]string, error) {
	refs := make(map[primitive.ObjectID]string, len(lines))
	if len(lines) == 0 {
		return refs, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(lines))
	for _, l := range lines {
		ref := uuid.NewString()
		refs[l.ID] = ref
		docs = append(docs, Request{
			ID:                 primitive.NewObjectID(),
			InvoiceLineID:      ref,
			SessionID:          session.ID,
			SessionName:        session.Name,
			SubscriptionID:     l.SubscriptionID,
			SubscriptionLineID: l.ID,
			ContactID:          l.ContactID,
			State:              StatePending,
			CreatedAt:          now,
		})
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert invoice requests: %w", err)
	}
	return refs, nil
}

// Pending lists requests not yet picked up, oldest first.
func (s *Store) Pending(ctx context.Context, limit int64) ([]Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"state": StatePending}, opts)
	if err != nil {
		return nil, fmt.Errorf("find invoice requests: %w", err)
	}
	defer cur.Close(ctx)

	out := []Request{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode invoice requests: %w", err)
	}
	return out, nil
}
