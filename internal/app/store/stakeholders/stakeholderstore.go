// internal/app/store/stakeholders/stakeholderstore.go
package stakeholderstore

import (
	"context"
	"fmt"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds lecturer assignments on seances.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("stakeholders")}
}

func (s *Store) BySeances(ctx context.Context, seanceIDs []primitive.ObjectID) ([]models.Stakeholder, error) {
	out := []models.Stakeholder{}
	if len(seanceIDs) == 0 {
		return out, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"seance_id": bson.M{"$in": seanceIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find stakeholders: %w", err)
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode stakeholders: %w", err)
	}
	return out, nil
}

func (s *Store) SetState(ctx context.Context, id primitive.ObjectID, state string) error {
	return setState(ctx, s.c, "stakeholder", id, state)
}

// RequestStore holds staffing requests raised for sessions.
type RequestStore struct {
	c *mongo.Collection
}

func NewRequests(db *mongo.Database) *RequestStore {
	return &RequestStore{c: db.Collection("stakeholder_requests")}
}

func (s *RequestStore) BySession(ctx context.Context, sessionID primitive.ObjectID) ([]models.StakeholderRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find stakeholder requests: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.StakeholderRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode stakeholder requests: %w", err)
	}
	return out, nil
}

func (s *RequestStore) SetState(ctx context.Context, id primitive.ObjectID, state string) error {
	return setState(ctx, s.c, "stakeholder request", id, state)
}

func setState(ctx context.Context, c *mongo.Collection, entity string, id primitive.ObjectID, state string) error {
	res, err := c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": state}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.NotFound(entity, id.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}
