// internal/app/store/suppliers/supplierstore.go
package supplierstore

import (
	"context"
	"fmt"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the supplier directory.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("suppliers")}
}

// ByIDs returns the suppliers with the given ids. Unknown ids are ignored.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Supplier, error) {
	out := []models.Supplier{}
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find suppliers: %w", err)
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode suppliers: %w", err)
	}
	return out, nil
}
