// internal/app/store/offers/offerstore.go
package offerstore

import (
	"context"
	"errors"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("offers")}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Offer, error) {
	var o models.Offer
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Offer{}, errs.NotFound("offer", id.Hex(), err)
		}
		return models.Offer{}, err
	}
	return o, nil
}
