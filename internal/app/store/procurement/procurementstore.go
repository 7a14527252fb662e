// internal/app/store/procurement/procurementstore.go
package procurementstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the purchase-order outbox. Orders are written in the same
// transaction as the seance transition that issued them; the purchasing
// system polls the collection and owns everything after that.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("procurement_orders")}
}

// CreateFromLine records one confirmed purchase order for a purchase-line
// template. The order carries a single order line.
func (s *Store) CreateFromLine(ctx context.Context, seanceID primitive.ObjectID, line models.PurchaseLine, quantity float64, locationHint string) (models.PurchaseOrder, error) {
	o := models.PurchaseOrder{
		ID:             uuid.NewString(),
		SeanceID:       seanceID,
		PurchaseLineID: line.ID,
		ProductID:      line.ProductID,
		Quantity:       quantity,
		LocationHint:   locationHint,
		LineRefs:       []string{uuid.NewString()},
		State:          models.OrderConfirmed,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, o); err != nil {
		return models.PurchaseOrder{}, fmt.Errorf("insert purchase order: %w", err)
	}
	return o, nil
}

// Orders returns the orders owning any of the given order-line refs.
func (s *Store) Orders(ctx context.Context, lineRefs []string) ([]models.PurchaseOrder, error) {
	if len(lineRefs) == 0 {
		return []models.PurchaseOrder{}, nil
	}
	return s.find(ctx, bson.M{"line_refs": bson.M{"$in": lineRefs}})
}

// BySeance returns every order issued for a seance, oldest first.
func (s *Store) BySeance(ctx context.Context, seanceID primitive.ObjectID) ([]models.PurchaseOrder, error) {
	return s.find(ctx, bson.M{"seance_id": seanceID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.PurchaseOrder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find purchase orders: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.PurchaseOrder{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode purchase orders: %w", err)
	}
	return out, nil
}

// CancelOrder marks an order cancelled.
func (s *Store) CancelOrder(ctx context.Context, orderID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"state": models.OrderCancelled}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("purchase order", orderID, mongo.ErrNoDocuments)
	}
	return nil
}
