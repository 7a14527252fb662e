// internal/app/store/subscriptionlines/linestore.go
package linestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads subscription lines and writes the few fields the training
// workflow owns on them (state, invoice line).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("subscription_lines")}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.SubscriptionLine, error) {
	var l models.SubscriptionLine
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.SubscriptionLine{}, errs.NotFound("subscription line", id.Hex(), err)
		}
		return models.SubscriptionLine{}, err
	}
	return l, nil
}

func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.SubscriptionLine, error) {
	if len(ids) == 0 {
		return []models.SubscriptionLine{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) BySessions(ctx context.Context, sessionIDs []primitive.ObjectID) ([]models.SubscriptionLine, error) {
	if len(sessionIDs) == 0 {
		return []models.SubscriptionLine{}, nil
	}
	return s.find(ctx, bson.M{"session_id": bson.M{"$in": sessionIDs}})
}

func (s *Store) BySubscription(ctx context.Context, subscriptionID primitive.ObjectID) ([]models.SubscriptionLine, error) {
	return s.find(ctx, bson.M{"subscription_id": subscriptionID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.SubscriptionLine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find subscription lines: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.SubscriptionLine{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode subscription lines: %w", err)
	}
	return out, nil
}

func (s *Store) SetState(ctx context.Context, id primitive.ObjectID, state string) error {
	return s.set(ctx, id, bson.M{"state": state})
}

// SetInvoiceLine records the invoice line created for the subscription line.
func (s *Store) SetInvoiceLine(ctx context.Context, id primitive.ObjectID, ref string) error {
	return s.set(ctx, id, bson.M{"invoice_line_id": ref})
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.NotFound("subscription line", id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}
